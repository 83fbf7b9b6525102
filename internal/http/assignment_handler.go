package http

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/example/facility-coordinator/internal/application"
	"github.com/example/facility-coordinator/internal/scheduler"
)

type assignmentService interface {
	Grid() scheduler.Grid
	Open(ctx context.Context) (application.AssignmentView, error)
	Get(ctx context.Context, sessionID string) (application.AssignmentView, error)
	Discard(ctx context.Context, sessionID string) error
	SelectCoordinator(ctx context.Context, sessionID string, coordinatorID int64) (application.AssignmentView, error)
	SelectFacility(ctx context.Context, sessionID string, facilityID int64) (application.AssignmentView, error)
	DeselectFacility(ctx context.Context, sessionID string, facilityID int64) (application.AssignmentView, error)
	FocusFacility(ctx context.Context, sessionID string, facilityID int64) (application.AssignmentView, error)
	AddEntry(ctx context.Context, params application.AddEntryParams) (scheduler.Entry, error)
	RemoveEntry(ctx context.Context, sessionID string, facilityID, entryID int64) (bool, error)
	WeeklyGrid(ctx context.Context, sessionID string) (application.WeeklyGridView, error)
	Submit(ctx context.Context, sessionID string) (application.AssignmentRecord, error)
}

// AssignmentHandler exposes the assignment form as a resource per session.
type AssignmentHandler struct {
	service   assignmentService
	responder responder
	logger    *slog.Logger
}

func NewAssignmentHandler(service assignmentService, logger *slog.Logger) *AssignmentHandler {
	base := defaultLogger(logger)
	return &AssignmentHandler{service: service, responder: newResponder(base), logger: base}
}

func (h *AssignmentHandler) log(ctx context.Context, operation string, attrs ...any) *slog.Logger {
	if h == nil {
		return slog.Default()
	}
	return handlerLogger(ctx, h.logger, "AssignmentHandler", operation, attrs...)
}

func (h *AssignmentHandler) ready(w http.ResponseWriter) bool {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return false
	}
	return true
}

func (h *AssignmentHandler) sessionID(w http.ResponseWriter, r *http.Request) (string, bool) {
	id := strings.TrimSpace(r.PathValue("id"))
	if id == "" {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errInvalidSessionID)
		return "", false
	}
	return id, true
}

func (h *AssignmentHandler) facilityID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, ok := pathID(r, "facilityID")
	if !ok {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errInvalidFacilityID)
	}
	return id, ok
}

func (h *AssignmentHandler) fail(ctx context.Context, w http.ResponseWriter, logger *slog.Logger, msg string, err error) {
	var fieldErrs validator.ValidationErrors
	switch {
	case isBadRequestBody(err):
		logger.InfoContext(ctx, msg, "error", err, "error_kind", "bad_request")
		h.responder.writeError(ctx, w, http.StatusBadRequest, errBadRequestBody)
		return
	case errors.As(err, &fieldErrs):
		logger.InfoContext(ctx, msg, "error", err, "error_kind", "validation")
	case application.IsUserError(err):
		logger.InfoContext(ctx, msg, "error", err, "error_kind", application.ErrorKind(err))
	default:
		logger.ErrorContext(ctx, msg, "error", err, "error_kind", application.ErrorKind(err))
	}
	h.responder.handleServiceError(ctx, w, err)
}

// Slots handles GET /grid/slots.
func (h *AssignmentHandler) Slots(w http.ResponseWriter, r *http.Request) {
	if !h.ready(w) {
		return
	}
	h.responder.writeJSON(r.Context(), w, http.StatusOK, toSlotsResponse(h.service.Grid()))
}

// Open handles POST /assignments.
func (h *AssignmentHandler) Open(w http.ResponseWriter, r *http.Request) {
	if !h.ready(w) {
		return
	}
	logger := h.log(r.Context(), "Open")
	view, err := h.service.Open(r.Context())
	if err != nil {
		h.fail(r.Context(), w, logger, "assignment open failed", err)
		return
	}
	w.Header().Set("Location", "/assignments/"+view.SessionID)
	h.responder.writeJSON(r.Context(), w, http.StatusCreated, assignmentResponse{Assignment: toAssignmentDTO(view)})
}

// Get handles GET /assignments/{id}.
func (h *AssignmentHandler) Get(w http.ResponseWriter, r *http.Request) {
	if !h.ready(w) {
		return
	}
	id, ok := h.sessionID(w, r)
	if !ok {
		return
	}
	view, err := h.service.Get(r.Context(), id)
	if err != nil {
		h.fail(r.Context(), w, h.log(r.Context(), "Get", "session_id", id), "assignment lookup failed", err)
		return
	}
	h.responder.writeJSON(r.Context(), w, http.StatusOK, assignmentResponse{Assignment: toAssignmentDTO(view)})
}

// Discard handles DELETE /assignments/{id}.
func (h *AssignmentHandler) Discard(w http.ResponseWriter, r *http.Request) {
	if !h.ready(w) {
		return
	}
	id, ok := h.sessionID(w, r)
	if !ok {
		return
	}
	if err := h.service.Discard(r.Context(), id); err != nil {
		h.fail(r.Context(), w, h.log(r.Context(), "Discard", "session_id", id), "assignment discard failed", err)
		return
	}
	h.responder.writeJSON(r.Context(), w, http.StatusNoContent, nil)
}

// SelectCoordinator handles PUT /assignments/{id}/coordinator.
func (h *AssignmentHandler) SelectCoordinator(w http.ResponseWriter, r *http.Request) {
	if !h.ready(w) {
		return
	}
	id, ok := h.sessionID(w, r)
	if !ok {
		return
	}
	logger := h.log(r.Context(), "SelectCoordinator", "session_id", id)

	var req selectCoordinatorRequest
	if err := decodeJSON(r, &req); err != nil {
		h.fail(r.Context(), w, logger, "invalid coordinator request", err)
		return
	}
	view, err := h.service.SelectCoordinator(r.Context(), id, *req.CoordinatorID)
	if err != nil {
		h.fail(r.Context(), w, logger, "coordinator selection failed", err)
		return
	}
	h.responder.writeJSON(r.Context(), w, http.StatusOK, assignmentResponse{Assignment: toAssignmentDTO(view)})
}

// Focus handles PUT /assignments/{id}/focus.
func (h *AssignmentHandler) Focus(w http.ResponseWriter, r *http.Request) {
	if !h.ready(w) {
		return
	}
	id, ok := h.sessionID(w, r)
	if !ok {
		return
	}
	logger := h.log(r.Context(), "Focus", "session_id", id)

	var req focusRequest
	if err := decodeJSON(r, &req); err != nil {
		h.fail(r.Context(), w, logger, "invalid focus request", err)
		return
	}
	view, err := h.service.FocusFacility(r.Context(), id, req.FacilityID)
	if err != nil {
		h.fail(r.Context(), w, logger, "focus change failed", err)
		return
	}
	h.responder.writeJSON(r.Context(), w, http.StatusOK, assignmentResponse{Assignment: toAssignmentDTO(view)})
}

// SelectFacility handles POST /assignments/{id}/facilities/{facilityID}.
func (h *AssignmentHandler) SelectFacility(w http.ResponseWriter, r *http.Request) {
	if !h.ready(w) {
		return
	}
	h.changeSelection(w, r, "SelectFacility", h.service.SelectFacility)
}

// DeselectFacility handles DELETE /assignments/{id}/facilities/{facilityID}.
func (h *AssignmentHandler) DeselectFacility(w http.ResponseWriter, r *http.Request) {
	if !h.ready(w) {
		return
	}
	h.changeSelection(w, r, "DeselectFacility", h.service.DeselectFacility)
}

func (h *AssignmentHandler) changeSelection(w http.ResponseWriter, r *http.Request, operation string,
	apply func(ctx context.Context, sessionID string, facilityID int64) (application.AssignmentView, error)) {
	id, ok := h.sessionID(w, r)
	if !ok {
		return
	}
	facilityID, ok := h.facilityID(w, r)
	if !ok {
		return
	}
	view, err := apply(r.Context(), id, facilityID)
	if err != nil {
		h.fail(r.Context(), w, h.log(r.Context(), operation, "session_id", id, "facility_id", facilityID), "facility selection failed", err)
		return
	}
	h.responder.writeJSON(r.Context(), w, http.StatusOK, assignmentResponse{Assignment: toAssignmentDTO(view)})
}

// AddEntry handles POST /assignments/{id}/facilities/{facilityID}/entries.
func (h *AssignmentHandler) AddEntry(w http.ResponseWriter, r *http.Request) {
	if !h.ready(w) {
		return
	}
	id, ok := h.sessionID(w, r)
	if !ok {
		return
	}
	facilityID, ok := h.facilityID(w, r)
	if !ok {
		return
	}
	logger := h.log(r.Context(), "AddEntry", "session_id", id, "facility_id", facilityID)

	var req addEntryRequest
	if err := decodeJSON(r, &req); err != nil {
		h.fail(r.Context(), w, logger, "invalid entry request", err)
		return
	}
	params, err := req.toParams(id, facilityID)
	if err != nil {
		h.fail(r.Context(), w, logger, "invalid entry request", err)
		return
	}

	entry, err := h.service.AddEntry(r.Context(), params)
	if err != nil {
		h.fail(r.Context(), w, logger, "entry rejected", err)
		return
	}
	h.responder.writeJSON(r.Context(), w, http.StatusCreated, entryResponse{FacilityID: facilityID, Entry: toEntryDTO(entry)})
}

// RemoveEntry handles DELETE /assignments/{id}/facilities/{facilityID}/entries/{entryID}.
func (h *AssignmentHandler) RemoveEntry(w http.ResponseWriter, r *http.Request) {
	if !h.ready(w) {
		return
	}
	id, ok := h.sessionID(w, r)
	if !ok {
		return
	}
	facilityID, ok := h.facilityID(w, r)
	if !ok {
		return
	}
	entryID, ok := pathID(r, "entryID")
	if !ok {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errInvalidEntryID)
		return
	}

	logger := h.log(r.Context(), "RemoveEntry", "session_id", id, "facility_id", facilityID, "entry_id", entryID)
	if _, err := h.service.RemoveEntry(r.Context(), id, facilityID, entryID); err != nil {
		h.fail(r.Context(), w, logger, "entry removal failed", err)
		return
	}
	h.responder.writeJSON(r.Context(), w, http.StatusNoContent, nil)
}

// WeeklyGrid handles GET /assignments/{id}/grid.
func (h *AssignmentHandler) WeeklyGrid(w http.ResponseWriter, r *http.Request) {
	if !h.ready(w) {
		return
	}
	id, ok := h.sessionID(w, r)
	if !ok {
		return
	}
	view, err := h.service.WeeklyGrid(r.Context(), id)
	if err != nil {
		h.fail(r.Context(), w, h.log(r.Context(), "WeeklyGrid", "session_id", id), "weekly grid failed", err)
		return
	}
	h.responder.writeJSON(r.Context(), w, http.StatusOK, toGridResponse(view))
}

// Submit handles POST /assignments/{id}/submit.
func (h *AssignmentHandler) Submit(w http.ResponseWriter, r *http.Request) {
	if !h.ready(w) {
		return
	}
	id, ok := h.sessionID(w, r)
	if !ok {
		return
	}
	logger := h.log(r.Context(), "Submit", "session_id", id)
	record, err := h.service.Submit(r.Context(), id)
	if err != nil {
		h.fail(r.Context(), w, logger, "assignment submission failed", err)
		return
	}
	h.responder.writeJSON(r.Context(), w, http.StatusCreated, submitResponse{
		AssignmentID:  record.ID,
		CoordinatorID: record.CoordinatorID,
		FacilityIDs:   record.FacilityIDs,
		CreatedAt:     formatTime(record.CreatedAt),
		Message:       "El coordinador ha sido creado exitosamente.",
	})
}

type selectCoordinatorRequest struct {
	CoordinatorID *int64 `json:"coordinator_id" validate:"required,gte=0"`
}

type focusRequest struct {
	FacilityID int64 `json:"facility_id" validate:"required,gt=0"`
}

type addEntryRequest struct {
	Day   string `json:"day" validate:"required,weekday"`
	Start string `json:"start" validate:"required,hhmm"`
	End   string `json:"end" validate:"required,hhmm"`
}

func (r addEntryRequest) toParams(sessionID string, facilityID int64) (application.AddEntryParams, error) {
	day, err := scheduler.ParseWeekDay(r.Day)
	if err != nil {
		return application.AddEntryParams{}, application.NewValidationError("day", err.Error())
	}
	start, err := scheduler.ParseTimeSlot(r.Start)
	if err != nil {
		return application.AddEntryParams{}, application.NewValidationError("start", err.Error())
	}
	end, err := scheduler.ParseTimeSlot(r.End)
	if err != nil {
		return application.AddEntryParams{}, application.NewValidationError("end", err.Error())
	}
	return application.AddEntryParams{
		SessionID:  sessionID,
		FacilityID: facilityID,
		Day:        day,
		Start:      start,
		End:        end,
	}, nil
}

type entryDTO struct {
	ID       int64  `json:"id"`
	Day      string `json:"day"`
	DayLabel string `json:"day_label"`
	Start    string `json:"start"`
	End      string `json:"end"`
}

func toEntryDTO(entry scheduler.Entry) entryDTO {
	return entryDTO{
		ID:       entry.ID,
		Day:      string(entry.Day),
		DayLabel: entry.Day.Label(),
		Start:    entry.Start.String(),
		End:      entry.End.String(),
	}
}

type entryResponse struct {
	FacilityID int64    `json:"facility_id"`
	Entry      entryDTO `json:"entry"`
}

type dayEntriesDTO struct {
	Day     string     `json:"day"`
	Label   string     `json:"label"`
	Entries []entryDTO `json:"entries"`
}

type facilityScheduleDTO struct {
	Facility facilityDTO `json:"facility"`
	Entries  []entryDTO  `json:"entries"`
}

type assignmentDTO struct {
	SessionID         string                `json:"session_id"`
	State             string                `json:"state"`
	Coordinator       *coordinatorDTO       `json:"coordinator,omitempty"`
	Facilities        []facilityScheduleDTO `json:"facilities"`
	FocusedFacilityID int64                 `json:"focused_facility_id,omitempty"`
	FocusedDays       []dayEntriesDTO       `json:"focused_days,omitempty"`
	CreatedAt         string                `json:"created_at"`
	UpdatedAt         string                `json:"updated_at"`
	ExpiresAt         string                `json:"expires_at"`
}

type assignmentResponse struct {
	Assignment assignmentDTO `json:"assignment"`
}

func toAssignmentDTO(view application.AssignmentView) assignmentDTO {
	dto := assignmentDTO{
		SessionID:         view.SessionID,
		State:             string(view.State),
		FocusedFacilityID: view.FocusedFacilityID,
		Facilities:        make([]facilityScheduleDTO, 0, len(view.Facilities)),
		CreatedAt:         formatTime(view.CreatedAt),
		UpdatedAt:         formatTime(view.UpdatedAt),
		ExpiresAt:         formatTime(view.ExpiresAt),
	}
	if view.Coordinator != nil {
		coordinator := toCoordinatorDTO(*view.Coordinator)
		dto.Coordinator = &coordinator
	}
	for _, schedule := range view.Facilities {
		entries := make([]entryDTO, 0, len(schedule.Entries))
		for _, entry := range schedule.Entries {
			entries = append(entries, toEntryDTO(entry))
		}
		dto.Facilities = append(dto.Facilities, facilityScheduleDTO{
			Facility: toFacilityDTO(schedule.Facility),
			Entries:  entries,
		})
		if schedule.Facility.ID == view.FocusedFacilityID {
			dto.FocusedDays = groupByDay(schedule.Entries)
		}
	}
	return dto
}

// groupByDay expects entries sorted by day and start.
func groupByDay(entries []scheduler.Entry) []dayEntriesDTO {
	days := make([]dayEntriesDTO, 0, 7)
	for _, day := range scheduler.WeekDays() {
		group := dayEntriesDTO{Day: string(day), Label: day.Label(), Entries: []entryDTO{}}
		for _, entry := range entries {
			if entry.Day == day {
				group.Entries = append(group.Entries, toEntryDTO(entry))
			}
		}
		days = append(days, group)
	}
	return days
}

type dayDTO struct {
	ID    string `json:"id"`
	Label string `json:"label"`
}

func toDayDTOs(days []scheduler.WeekDay) []dayDTO {
	out := make([]dayDTO, 0, len(days))
	for _, day := range days {
		out = append(out, dayDTO{ID: string(day), Label: day.Label()})
	}
	return out
}

type cellRangeDTO struct {
	Start string `json:"start"`
	End   string `json:"end"`
}

type slotsResponse struct {
	Slots []string       `json:"slots"`
	Cells []cellRangeDTO `json:"cells"`
	Days  []dayDTO       `json:"days"`
}

func toSlotsResponse(grid scheduler.Grid) slotsResponse {
	resp := slotsResponse{Days: toDayDTOs(scheduler.WeekDays())}
	for _, slot := range grid.Slots() {
		resp.Slots = append(resp.Slots, slot.String())
	}
	for _, cell := range grid.Cells() {
		resp.Cells = append(resp.Cells, cellRangeDTO{Start: cell.Start.String(), End: cell.End.String()})
	}
	return resp
}

type placementDTO struct {
	FacilityID   int64  `json:"facility_id"`
	FacilityName string `json:"facility_name"`
	EntryID      int64  `json:"entry_id"`
	Start        string `json:"start"`
	End          string `json:"end"`
}

type gridCellDTO struct {
	Day        string         `json:"day"`
	Placements []placementDTO `json:"placements"`
	Conflict   bool           `json:"conflict,omitempty"`
}

type gridRowDTO struct {
	Start string        `json:"start"`
	End   string        `json:"end"`
	Cells []gridCellDTO `json:"cells"`
}

type gridResponse struct {
	SessionID string       `json:"session_id"`
	Days      []dayDTO     `json:"days"`
	Rows      []gridRowDTO `json:"rows"`
	Conflicts int          `json:"conflicts"`
}

func toGridResponse(view application.WeeklyGridView) gridResponse {
	resp := gridResponse{
		SessionID: view.SessionID,
		Days:      toDayDTOs(view.Grid.Days),
		Rows:      make([]gridRowDTO, 0, len(view.Grid.Rows)),
		Conflicts: len(view.Grid.Conflicts()),
	}
	for _, row := range view.Grid.Rows {
		rowDTO := gridRowDTO{Start: row.Start.String(), End: row.End.String(), Cells: make([]gridCellDTO, 0, len(row.Cells))}
		for _, cell := range row.Cells {
			cellDTO := gridCellDTO{Day: string(cell.Day), Placements: []placementDTO{}, Conflict: cell.Conflict()}
			for _, placement := range cell.Placements {
				cellDTO.Placements = append(cellDTO.Placements, placementDTO{
					FacilityID:   placement.FacilityID,
					FacilityName: facilityName(view.Facilities, placement.FacilityID),
					EntryID:      placement.Entry.ID,
					Start:        placement.Entry.Start.String(),
					End:          placement.Entry.End.String(),
				})
			}
			rowDTO.Cells = append(rowDTO.Cells, cellDTO)
		}
		resp.Rows = append(resp.Rows, rowDTO)
	}
	return resp
}

func facilityName(facilities map[int64]application.Facility, id int64) string {
	if facility, ok := facilities[id]; ok {
		return facility.Name
	}
	return "ID: " + strconv.FormatInt(id, 10)
}

type submitResponse struct {
	AssignmentID  string  `json:"assignment_id"`
	CoordinatorID int64   `json:"coordinator_id"`
	FacilityIDs   []int64 `json:"facility_ids"`
	CreatedAt     string  `json:"created_at"`
	Message       string  `json:"message"`
}
