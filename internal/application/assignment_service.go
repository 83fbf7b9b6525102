package application

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/example/facility-coordinator/internal/persistence"
	"github.com/example/facility-coordinator/internal/scheduler"
)

// DefaultSessionTTL bounds how long an idle assignment session is kept.
const DefaultSessionTTL = 2 * time.Hour

// AssignmentServiceDeps groups the collaborators of an AssignmentService.
type AssignmentServiceDeps struct {
	Sessions     SessionStore
	Facilities   FacilityCatalog
	Coordinators CoordinatorDirectory
	Sink         AssignmentSink
	Events       EventPublisher
	Grid         scheduler.Grid
	SessionTTL   time.Duration
	IDGenerator  func() string
	Now          func() time.Time
	Logger       *slog.Logger
}

// AssignmentService drives the admin flow that assigns facilities and weekly
// schedules to a coordinator. Each session is edited under its own lock and
// persisted after every successful operation.
type AssignmentService struct {
	sessions     SessionStore
	facilities   FacilityCatalog
	coordinators CoordinatorDirectory
	sink         AssignmentSink
	events       EventPublisher
	grid         scheduler.Grid
	ttl          time.Duration
	idGenerator  func() string
	now          func() time.Time
	logger       *slog.Logger
	locks        *keyedMutex
}

// NewAssignmentService constructs an AssignmentService.
func NewAssignmentService(deps AssignmentServiceDeps) *AssignmentService {
	grid := deps.Grid
	if grid.IsZero() {
		grid = scheduler.DefaultGrid()
	}
	ttl := deps.SessionTTL
	if ttl <= 0 {
		ttl = DefaultSessionTTL
	}
	idGenerator := deps.IDGenerator
	if idGenerator == nil {
		idGenerator = func() string { return "" }
	}
	now := deps.Now
	if now == nil {
		now = time.Now
	}
	return &AssignmentService{
		sessions:     deps.Sessions,
		facilities:   deps.Facilities,
		coordinators: deps.Coordinators,
		sink:         deps.Sink,
		events:       deps.Events,
		grid:         grid,
		ttl:          ttl,
		idGenerator:  idGenerator,
		now:          now,
		logger:       defaultLogger(deps.Logger),
		locks:        newKeyedMutex(),
	}
}

func (s *AssignmentService) loggerWith(ctx context.Context, operation string, attrs ...any) *slog.Logger {
	return serviceLogger(ctx, s.logger, "AssignmentService", operation, attrs...)
}

// Grid returns the clock grid used for validation and the weekly calendar.
func (s *AssignmentService) Grid() scheduler.Grid {
	return s.grid
}

// Open starts an empty assignment session.
func (s *AssignmentService) Open(ctx context.Context) (view AssignmentView, err error) {
	logger := s.loggerWith(ctx, "Open")
	defer func() { logOutcome(ctx, logger, err, "assignment session opened", "session_id", view.SessionID) }()

	now := s.now()
	session := AssignmentSession{
		ID:         s.idGenerator(),
		Assignment: scheduler.NewAssignment(s.grid).Snapshot(),
		CreatedAt:  now,
		UpdatedAt:  now,
		ExpiresAt:  now.Add(s.ttl),
	}
	if session.ID == "" {
		err = errors.New("assignment session id generator returned an empty id")
		return
	}
	if err = s.sessions.Save(ctx, session); err != nil {
		err = mapRepoError(err)
		return
	}
	view, err = s.buildView(ctx, session, scheduler.RestoreAssignment(s.grid, session.Assignment))
	return
}

// Get returns the current state of a session.
func (s *AssignmentService) Get(ctx context.Context, sessionID string) (AssignmentView, error) {
	session, err := s.sessions.Load(ctx, sessionID)
	if err != nil {
		return AssignmentView{}, mapRepoError(err)
	}
	return s.buildView(ctx, session, scheduler.RestoreAssignment(s.grid, session.Assignment))
}

// Discard drops a session. Discarding an unknown session is not an error.
func (s *AssignmentService) Discard(ctx context.Context, sessionID string) (err error) {
	logger := s.loggerWith(ctx, "Discard", "session_id", sessionID)
	defer func() { logOutcome(ctx, logger, err, "assignment session discarded") }()

	unlock := s.locks.Lock(sessionID)
	defer unlock()

	if err = s.sessions.Delete(ctx, sessionID); err != nil {
		if errors.Is(err, persistence.ErrNotFound) {
			err = nil
			return
		}
		err = mapRepoError(err)
	}
	return
}

// SelectCoordinator sets the coordinator of the session. A zero id clears it.
// Only coordinators without an assignment can be selected.
func (s *AssignmentService) SelectCoordinator(ctx context.Context, sessionID string, coordinatorID int64) (view AssignmentView, err error) {
	logger := s.loggerWith(ctx, "SelectCoordinator", "session_id", sessionID, "coordinator_id", coordinatorID)
	defer func() { logOutcome(ctx, logger, err, "coordinator selected") }()

	if coordinatorID < 0 {
		err = NewValidationError("coordinator_id", "coordinator id must be positive")
		return
	}
	if coordinatorID > 0 {
		if err = s.ensureUnassigned(ctx, coordinatorID); err != nil {
			return
		}
	}

	return s.mutate(ctx, sessionID, func(a *scheduler.Assignment) error {
		if coordinatorID == 0 {
			a.ClearCoordinator()
			return nil
		}
		a.SelectCoordinator(coordinatorID)
		return nil
	})
}

// SelectFacility adds a catalog facility to the selection.
func (s *AssignmentService) SelectFacility(ctx context.Context, sessionID string, facilityID int64) (view AssignmentView, err error) {
	logger := s.loggerWith(ctx, "SelectFacility", "session_id", sessionID, "facility_id", facilityID)
	defer func() { logOutcome(ctx, logger, err, "facility selected") }()

	if _, err = s.facilities.GetFacility(ctx, facilityID); err != nil {
		err = fmt.Errorf("facility %d: %w", facilityID, mapRepoError(err))
		return
	}
	return s.mutate(ctx, sessionID, func(a *scheduler.Assignment) error {
		a.SelectFacility(facilityID)
		return nil
	})
}

// DeselectFacility removes a facility and its entries from the selection.
func (s *AssignmentService) DeselectFacility(ctx context.Context, sessionID string, facilityID int64) (view AssignmentView, err error) {
	logger := s.loggerWith(ctx, "DeselectFacility", "session_id", sessionID, "facility_id", facilityID)
	defer func() { logOutcome(ctx, logger, err, "facility deselected") }()

	return s.mutate(ctx, sessionID, func(a *scheduler.Assignment) error {
		a.DeselectFacility(facilityID)
		return nil
	})
}

// FocusFacility moves the edit focus to a selected facility.
func (s *AssignmentService) FocusFacility(ctx context.Context, sessionID string, facilityID int64) (view AssignmentView, err error) {
	logger := s.loggerWith(ctx, "FocusFacility", "session_id", sessionID, "facility_id", facilityID)
	defer func() { logOutcome(ctx, logger, err, "facility focused") }()

	return s.mutate(ctx, sessionID, func(a *scheduler.Assignment) error {
		return a.Focus(facilityID)
	})
}

// AddEntry validates and records a schedule entry. Rejections are returned
// as *EntryRejection carrying the facility names involved.
func (s *AssignmentService) AddEntry(ctx context.Context, params AddEntryParams) (entry scheduler.Entry, err error) {
	logger := s.loggerWith(ctx, "AddEntry",
		"session_id", params.SessionID,
		"facility_id", params.FacilityID,
		"day", params.Day,
		"start", params.Start,
		"end", params.End,
	)
	defer func() { logOutcome(ctx, logger, err, "schedule entry added", "entry_id", entry.ID) }()

	_, err = s.mutate(ctx, params.SessionID, func(a *scheduler.Assignment) error {
		var addErr error
		entry, addErr = a.AddEntry(params.FacilityID, params.Day, params.Start, params.End)
		return addErr
	})
	if err != nil {
		err = s.describeEntryError(ctx, err)
	}
	return
}

// RemoveEntry deletes an entry and reports whether it existed.
func (s *AssignmentService) RemoveEntry(ctx context.Context, sessionID string, facilityID, entryID int64) (removed bool, err error) {
	logger := s.loggerWith(ctx, "RemoveEntry", "session_id", sessionID, "facility_id", facilityID, "entry_id", entryID)
	defer func() { logOutcome(ctx, logger, err, "schedule entry removed", "removed", removed) }()

	_, err = s.mutate(ctx, sessionID, func(a *scheduler.Assignment) error {
		removed = a.RemoveEntry(facilityID, entryID)
		return nil
	})
	return
}

// WeeklyGrid derives the conflict-annotated weekly calendar of a session.
func (s *AssignmentService) WeeklyGrid(ctx context.Context, sessionID string) (WeeklyGridView, error) {
	session, err := s.sessions.Load(ctx, sessionID)
	if err != nil {
		return WeeklyGridView{}, mapRepoError(err)
	}
	assignment := scheduler.RestoreAssignment(s.grid, session.Assignment)
	catalog, err := s.catalogIndex(ctx)
	if err != nil {
		return WeeklyGridView{}, err
	}

	facilities := make(map[int64]Facility)
	for _, id := range assignment.SelectedFacilities() {
		facilities[id] = facilityOrPlaceholder(catalog, id)
	}
	return WeeklyGridView{
		SessionID:  session.ID,
		Grid:       scheduler.DeriveWeeklyGrid(assignment),
		Facilities: facilities,
	}, nil
}

// Submit hands the completed assignment to the sink, marks the session as
// submitted, and publishes an AssignmentCreated event. A session can be
// submitted once.
func (s *AssignmentService) Submit(ctx context.Context, sessionID string) (record AssignmentRecord, err error) {
	logger := s.loggerWith(ctx, "Submit", "session_id", sessionID)
	defer func() {
		logOutcome(ctx, logger, err, "assignment submitted",
			"assignment_id", record.ID,
			"coordinator_id", record.CoordinatorID,
		)
	}()

	record, err = s.commitSubmission(ctx, logger, sessionID)
	if err != nil {
		return
	}
	s.publish(ctx, logger, record)
	return
}

// commitSubmission runs the stateful part of Submit under the session lock.
// The caller publishes after it returns.
func (s *AssignmentService) commitSubmission(ctx context.Context, logger *slog.Logger, sessionID string) (AssignmentRecord, error) {
	unlock := s.locks.Lock(sessionID)
	defer unlock()

	session, err := s.sessions.Load(ctx, sessionID)
	if err != nil {
		return AssignmentRecord{}, mapRepoError(err)
	}
	if session.Assignment.Submitted {
		return AssignmentRecord{}, ErrAlreadySubmitted
	}

	assignment := scheduler.RestoreAssignment(s.grid, session.Assignment)
	submission, err := assignment.Submission()
	if err != nil {
		return AssignmentRecord{}, s.describeSubmissionError(ctx, err)
	}

	record := AssignmentRecord{
		ID:            s.idGenerator(),
		CoordinatorID: submission.CoordinatorID,
		FacilityIDs:   submission.FacilityIDs,
		Schedules:     submission.Schedules,
		CreatedAt:     s.now(),
	}
	if err := s.sink.SaveAssignment(ctx, record); err != nil {
		return AssignmentRecord{}, mapRepoError(err)
	}

	assignment.MarkSubmitted()
	session.Assignment = assignment.Snapshot()
	session.UpdatedAt = record.CreatedAt
	if err := s.sessions.Save(ctx, session); err != nil {
		logger.WarnContext(ctx, "failed to mark session as submitted", "error", err)
	}
	return record, nil
}

func (s *AssignmentService) publish(ctx context.Context, logger *slog.Logger, record AssignmentRecord) {
	if s.events == nil {
		return
	}
	entries := 0
	for _, list := range record.Schedules {
		entries += len(list)
	}
	event := AssignmentCreatedEvent{
		AssignmentID:  record.ID,
		CoordinatorID: record.CoordinatorID,
		FacilityIDs:   append([]int64(nil), record.FacilityIDs...),
		EntryCount:    entries,
		CreatedAt:     record.CreatedAt,
	}
	if err := s.events.PublishAssignmentCreated(ctx, event); err != nil {
		logger.WarnContext(ctx, "failed to publish assignment event", "error", err, "assignment_id", record.ID)
	}
}

// mutate loads a session, applies fn, and saves the result only when fn
// succeeds, so a rejected operation leaves the stored session untouched.
func (s *AssignmentService) mutate(ctx context.Context, sessionID string, fn func(a *scheduler.Assignment) error) (AssignmentView, error) {
	unlock := s.locks.Lock(sessionID)
	defer unlock()

	session, err := s.sessions.Load(ctx, sessionID)
	if err != nil {
		return AssignmentView{}, mapRepoError(err)
	}
	if session.Assignment.Submitted {
		return AssignmentView{}, ErrAlreadySubmitted
	}

	assignment := scheduler.RestoreAssignment(s.grid, session.Assignment)
	if err := fn(assignment); err != nil {
		return AssignmentView{}, err
	}

	now := s.now()
	session.Assignment = assignment.Snapshot()
	session.UpdatedAt = now
	session.ExpiresAt = now.Add(s.ttl)
	if err := s.sessions.Save(ctx, session); err != nil {
		return AssignmentView{}, mapRepoError(err)
	}
	return s.buildView(ctx, session, assignment)
}

func (s *AssignmentService) ensureUnassigned(ctx context.Context, coordinatorID int64) error {
	if _, err := s.coordinators.GetCoordinator(ctx, coordinatorID); err != nil {
		return fmt.Errorf("coordinator %d: %w", coordinatorID, mapRepoError(err))
	}
	unassigned, err := s.coordinators.ListUnassignedCoordinators(ctx)
	if err != nil {
		return mapRepoError(err)
	}
	for _, coordinator := range unassigned {
		if coordinator.ID == coordinatorID {
			return nil
		}
	}
	return NewValidationError("coordinator_id", "coordinator already has an assignment")
}

func (s *AssignmentService) buildView(ctx context.Context, session AssignmentSession, assignment *scheduler.Assignment) (AssignmentView, error) {
	view := AssignmentView{
		SessionID:         session.ID,
		State:             assignment.State(),
		FocusedFacilityID: assignment.FocusedFacility(),
		CreatedAt:         session.CreatedAt,
		UpdatedAt:         session.UpdatedAt,
		ExpiresAt:         session.ExpiresAt,
	}

	if id := assignment.CoordinatorID(); id != 0 {
		coordinator, err := s.coordinators.GetCoordinator(ctx, id)
		switch {
		case err == nil:
			view.Coordinator = &coordinator
		case errors.Is(mapRepoError(err), ErrNotFound):
			view.Coordinator = &Coordinator{ID: id}
		default:
			return AssignmentView{}, err
		}
	}

	selected := assignment.SelectedFacilities()
	if len(selected) == 0 {
		return view, nil
	}
	catalog, err := s.catalogIndex(ctx)
	if err != nil {
		return AssignmentView{}, err
	}
	for _, id := range selected {
		entries := assignment.Entries(id)
		scheduler.SortEntries(entries)
		view.Facilities = append(view.Facilities, FacilityScheduleView{
			Facility: facilityOrPlaceholder(catalog, id),
			Entries:  entries,
		})
	}
	return view, nil
}

func (s *AssignmentService) catalogIndex(ctx context.Context) (map[int64]Facility, error) {
	facilities, err := s.facilities.ListFacilities(ctx)
	if err != nil {
		return nil, mapRepoError(err)
	}
	index := make(map[int64]Facility, len(facilities))
	for _, facility := range facilities {
		index[facility.ID] = facility
	}
	return index, nil
}

func (s *AssignmentService) describeEntryError(ctx context.Context, err error) error {
	var entryErr *scheduler.EntryError
	if !errors.As(err, &entryErr) {
		return err
	}
	catalog, catErr := s.catalogIndex(ctx)
	if catErr != nil {
		return err
	}
	rejection := &EntryRejection{
		Cause:        entryErr,
		FacilityName: facilityOrPlaceholder(catalog, entryErr.FacilityID).Name,
	}
	if entryErr.ConflictFacilityID != 0 {
		rejection.ConflictFacilityName = facilityOrPlaceholder(catalog, entryErr.ConflictFacilityID).Name
	}
	return rejection
}

func (s *AssignmentService) describeSubmissionError(ctx context.Context, err error) error {
	var missing *scheduler.MissingScheduleError
	if !errors.As(err, &missing) {
		return err
	}
	catalog, catErr := s.catalogIndex(ctx)
	if catErr != nil {
		catalog = nil
	}
	names := make([]string, 0, len(missing.FacilityIDs))
	for _, id := range missing.FacilityIDs {
		names = append(names, facilityOrPlaceholder(catalog, id).Name)
	}
	return &IncompleteScheduleError{Cause: missing, FacilityNames: names}
}

func facilityOrPlaceholder(catalog map[int64]Facility, id int64) Facility {
	if facility, ok := catalog[id]; ok {
		return facility
	}
	return Facility{ID: id, Name: fmt.Sprintf("ID: %d", id)}
}

func mapRepoError(err error) error {
	if err == nil {
		return nil
	}
	switch {
	case errors.Is(err, ErrNotFound), errors.Is(err, ErrAlreadyExists):
		return err
	case errors.Is(err, persistence.ErrNotFound):
		return ErrNotFound
	case errors.Is(err, persistence.ErrDuplicate):
		return ErrAlreadyExists
	case errors.Is(err, persistence.ErrConstraintViolation):
		return NewValidationError("assignment", "related records are missing or invalid")
	}
	return err
}
