package application

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/example/facility-coordinator/internal/recurrence"
)

// FacilityServiceDeps groups the collaborators of a FacilityService.
type FacilityServiceDeps struct {
	Facilities  FacilityCatalog
	Statuses    FacilityStatusSource
	Assignments AssignmentReader
	Recurrence  *recurrence.Engine
	Now         func() time.Time
	Logger      *slog.Logger
}

// FacilityService serves the facility picker and the coordinator facility listing.
type FacilityService struct {
	facilities  FacilityCatalog
	statuses    FacilityStatusSource
	assignments AssignmentReader
	engine      *recurrence.Engine
	now         func() time.Time
	logger      *slog.Logger
}

// NewFacilityService constructs a FacilityService.
func NewFacilityService(deps FacilityServiceDeps) *FacilityService {
	engine := deps.Recurrence
	if engine == nil {
		engine = recurrence.NewEngine(nil)
	}
	now := deps.Now
	if now == nil {
		now = time.Now
	}
	return &FacilityService{
		facilities:  deps.Facilities,
		statuses:    deps.Statuses,
		assignments: deps.Assignments,
		engine:      engine,
		now:         now,
		logger:      defaultLogger(deps.Logger),
	}
}

func (s *FacilityService) loggerWith(ctx context.Context, operation string, attrs ...any) *slog.Logger {
	return serviceLogger(ctx, s.logger, "FacilityService", operation, attrs...)
}

// SearchFacilities returns catalog facilities whose name or location contains
// query, ignoring case and accents. Catalog order is preserved.
func (s *FacilityService) SearchFacilities(ctx context.Context, query string) ([]Facility, error) {
	facilities, err := s.facilities.ListFacilities(ctx)
	if err != nil {
		s.loggerWith(ctx, "SearchFacilities").ErrorContext(ctx, "failed to list facilities", "error", err)
		return nil, mapRepoError(err)
	}
	matches := make([]Facility, 0, len(facilities))
	for _, facility := range facilities {
		if matchesQuery(query, facility.Name, facility.Location) {
			matches = append(matches, facility)
		}
	}
	return matches, nil
}

// GetFacility returns a single catalog facility.
func (s *FacilityService) GetFacility(ctx context.Context, id int64) (Facility, error) {
	facility, err := s.facilities.GetFacility(ctx, id)
	if err != nil {
		return Facility{}, mapRepoError(err)
	}
	return facility, nil
}

// ListCoordinatorFacilities returns the facilities of a coordinator's stored
// assignment with status and visit metadata, filtered by params. A
// coordinator without an assignment has no facilities.
func (s *FacilityService) ListCoordinatorFacilities(ctx context.Context, params ListCoordinatorFacilitiesParams) (overviews []FacilityOverview, err error) {
	logger := s.loggerWith(ctx, "ListCoordinatorFacilities",
		"coordinator_id", params.CoordinatorID,
		"tab", params.Tab,
		"status", params.Status,
	)
	defer func() { logOutcome(ctx, logger, err, "coordinator facilities listed", "count", len(overviews)) }()

	if err = validateListParams(&params); err != nil {
		return
	}

	record, getErr := s.assignments.GetAssignmentByCoordinator(ctx, params.CoordinatorID)
	if getErr != nil {
		mapped := mapRepoError(getErr)
		if errors.Is(mapped, ErrNotFound) {
			overviews = []FacilityOverview{}
			return
		}
		err = mapped
		return
	}

	now := s.now()
	overviews = make([]FacilityOverview, 0, len(record.FacilityIDs))
	for _, facilityID := range record.FacilityIDs {
		var overview FacilityOverview
		overview, err = s.overview(ctx, record, facilityID, now)
		if err != nil {
			overviews = nil
			return
		}
		if keepOverview(overview, params) {
			overviews = append(overviews, overview)
		}
	}
	return
}

func (s *FacilityService) overview(ctx context.Context, record AssignmentRecord, facilityID int64, now time.Time) (FacilityOverview, error) {
	facility, err := s.facilities.GetFacility(ctx, facilityID)
	if err != nil {
		if !errors.Is(mapRepoError(err), ErrNotFound) {
			return FacilityOverview{}, mapRepoError(err)
		}
		facility = facilityOrPlaceholder(nil, facilityID)
	}

	overview := FacilityOverview{Facility: facility, Status: StatusGood}
	status, err := s.statuses.GetFacilityStatus(ctx, facilityID)
	switch {
	case err == nil:
		if status.Status.Valid() {
			overview.Status = status.Status
		}
		overview.LastVisitAt = status.LastVisitAt
		overview.Observations = status.Observations
		overview.PendingObservations = status.PendingObservations
	case errors.Is(mapRepoError(err), ErrNotFound):
	default:
		return FacilityOverview{}, mapRepoError(err)
	}

	slots := make([]recurrence.Slot, 0, len(record.Schedules[facilityID]))
	for _, entry := range record.Schedules[facilityID] {
		slots = append(slots, recurrence.Slot{
			FacilityID: facilityID,
			Day:        entry.Day.Weekday(),
			Start:      entry.Start.Offset(),
			End:        entry.End.Offset(),
		})
	}
	next, ok, err := s.engine.NextOccurrence(slots, now)
	if err != nil {
		return FacilityOverview{}, err
	}
	if ok {
		start, end := next.Start, next.End
		overview.NextVisitStart = &start
		overview.NextVisitEnd = &end
		overview.IsToday = sameDate(start, now.In(s.engine.Location()))
	}
	return overview, nil
}

func validateListParams(params *ListCoordinatorFacilitiesParams) error {
	vErr := &ValidationError{}
	if params.CoordinatorID <= 0 {
		vErr.add("coordinator_id", "coordinator id must be positive")
	}
	switch params.Tab {
	case "":
		params.Tab = TabAll
	case TabAll, TabToday, TabAttention:
	default:
		vErr.add("tab", "unknown tab")
	}
	if params.Status != "" && !params.Status.Valid() {
		vErr.add("status", "unknown status")
	}
	if vErr.HasErrors() {
		return vErr
	}
	return nil
}

func keepOverview(overview FacilityOverview, params ListCoordinatorFacilitiesParams) bool {
	switch params.Tab {
	case TabToday:
		if !overview.IsToday {
			return false
		}
	case TabAttention:
		if !overview.Status.NeedsAttention() {
			return false
		}
	}
	if params.Status != "" && overview.Status != params.Status {
		return false
	}
	return matchesQuery(params.Query, overview.Facility.Name, overview.Facility.Location)
}

func sameDate(a, b time.Time) bool {
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	return ay == by && am == bm && ad == bd
}
