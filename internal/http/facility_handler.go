package http

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/example/facility-coordinator/internal/application"
)

type facilityService interface {
	SearchFacilities(ctx context.Context, query string) ([]application.Facility, error)
	GetFacility(ctx context.Context, id int64) (application.Facility, error)
	ListCoordinatorFacilities(ctx context.Context, params application.ListCoordinatorFacilitiesParams) ([]application.FacilityOverview, error)
}

// FacilityHandler serves the facility picker and the coordinator facility listing.
type FacilityHandler struct {
	service   facilityService
	responder responder
	logger    *slog.Logger
}

func NewFacilityHandler(service facilityService, logger *slog.Logger) *FacilityHandler {
	base := defaultLogger(logger)
	return &FacilityHandler{service: service, responder: newResponder(base), logger: base}
}

func (h *FacilityHandler) log(ctx context.Context, operation string, attrs ...any) *slog.Logger {
	if h == nil {
		return slog.Default()
	}
	return handlerLogger(ctx, h.logger, "FacilityHandler", operation, attrs...)
}

// Search handles GET /facilities?q=.
func (h *FacilityHandler) Search(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	query := strings.TrimSpace(r.URL.Query().Get("q"))
	logger := h.log(r.Context(), "Search", "query", query)

	facilities, err := h.service.SearchFacilities(r.Context(), query)
	if err != nil {
		logger.ErrorContext(r.Context(), "facility search failed", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	logger.With("result_count", len(facilities)).InfoContext(r.Context(), "facilities listed")
	h.responder.writeJSON(r.Context(), w, http.StatusOK, listFacilitiesResponse{Facilities: toFacilityDTOs(facilities)})
}

// Get handles GET /facilities/{id}.
func (h *FacilityHandler) Get(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	id, ok := pathID(r, "id")
	if !ok {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errInvalidFacilityID)
		return
	}
	facility, err := h.service.GetFacility(r.Context(), id)
	if err != nil {
		h.log(r.Context(), "Get", "facility_id", id).InfoContext(r.Context(), "facility lookup failed", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}
	h.responder.writeJSON(r.Context(), w, http.StatusOK, facilityResponse{Facility: toFacilityDTO(facility)})
}

// CoordinatorFacilities handles GET /coordinators/{id}/facilities?q=&tab=&status=.
func (h *FacilityHandler) CoordinatorFacilities(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	coordinatorID, ok := pathID(r, "id")
	if !ok {
		h.log(r.Context(), "CoordinatorFacilities", "error_kind", "bad_request").InfoContext(r.Context(), "invalid coordinator id")
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errInvalidCoordinatorID)
		return
	}

	query := r.URL.Query()
	params := application.ListCoordinatorFacilitiesParams{
		CoordinatorID: coordinatorID,
		Query:         strings.TrimSpace(query.Get("q")),
		Tab:           application.FacilityTab(strings.TrimSpace(query.Get("tab"))),
		Status:        application.FacilityStatus(strings.TrimSpace(query.Get("status"))),
	}
	logger := h.log(r.Context(), "CoordinatorFacilities", "coordinator_id", coordinatorID, "tab", params.Tab)

	overviews, err := h.service.ListCoordinatorFacilities(r.Context(), params)
	if err != nil {
		logger.InfoContext(r.Context(), "coordinator facility listing failed", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	logger.With("result_count", len(overviews)).InfoContext(r.Context(), "coordinator facilities listed")
	h.responder.writeJSON(r.Context(), w, http.StatusOK, listOverviewsResponse{Facilities: toOverviewDTOs(overviews)})
}

func pathID(r *http.Request, name string) (int64, bool) {
	id, err := strconv.ParseInt(strings.TrimSpace(r.PathValue(name)), 10, 64)
	if err != nil || id <= 0 {
		return 0, false
	}
	return id, true
}

type facilityDTO struct {
	ID       int64  `json:"id"`
	Name     string `json:"name"`
	Location string `json:"location"`
}

type facilityResponse struct {
	Facility facilityDTO `json:"facility"`
}

type listFacilitiesResponse struct {
	Facilities []facilityDTO `json:"facilities"`
}

func toFacilityDTO(facility application.Facility) facilityDTO {
	return facilityDTO{ID: facility.ID, Name: facility.Name, Location: facility.Location}
}

func toFacilityDTOs(facilities []application.Facility) []facilityDTO {
	out := make([]facilityDTO, 0, len(facilities))
	for _, facility := range facilities {
		out = append(out, toFacilityDTO(facility))
	}
	return out
}

type overviewDTO struct {
	Facility            facilityDTO `json:"facility"`
	Status              string      `json:"status"`
	StatusLabel         string      `json:"status_label"`
	LastVisitAt         *string     `json:"last_visit_at,omitempty"`
	NextVisitStart      *string     `json:"next_visit_start,omitempty"`
	NextVisitEnd        *string     `json:"next_visit_end,omitempty"`
	IsToday             bool        `json:"is_today"`
	Observations        int         `json:"observations"`
	PendingObservations int         `json:"pending_observations"`
}

type listOverviewsResponse struct {
	Facilities []overviewDTO `json:"facilities"`
}

func toOverviewDTOs(overviews []application.FacilityOverview) []overviewDTO {
	out := make([]overviewDTO, 0, len(overviews))
	for _, overview := range overviews {
		out = append(out, overviewDTO{
			Facility:            toFacilityDTO(overview.Facility),
			Status:              string(overview.Status),
			StatusLabel:         overview.Status.Label(),
			LastVisitAt:         formatOptionalTime(overview.LastVisitAt),
			NextVisitStart:      formatOptionalTime(overview.NextVisitStart),
			NextVisitEnd:        formatOptionalTime(overview.NextVisitEnd),
			IsToday:             overview.IsToday,
			Observations:        overview.Observations,
			PendingObservations: overview.PendingObservations,
		})
	}
	return out
}

func formatTime(t time.Time) string {
	return t.Format(time.RFC3339)
}

func formatOptionalTime(t *time.Time) *string {
	if t == nil {
		return nil
	}
	formatted := formatTime(*t)
	return &formatted
}
