package http

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/example/facility-coordinator/internal/application"
	"github.com/example/facility-coordinator/internal/scheduler"
)

var handlerNow = time.Date(2024, time.June, 1, 10, 0, 0, 0, time.UTC)

type facilityServiceStub struct {
	facilities []application.Facility
	overviews  []application.FacilityOverview
	params     application.ListCoordinatorFacilitiesParams
	err        error
}

func (s *facilityServiceStub) SearchFacilities(ctx context.Context, query string) ([]application.Facility, error) {
	return s.facilities, s.err
}

func (s *facilityServiceStub) GetFacility(ctx context.Context, id int64) (application.Facility, error) {
	for _, facility := range s.facilities {
		if facility.ID == id {
			return facility, nil
		}
	}
	return application.Facility{}, application.ErrNotFound
}

func (s *facilityServiceStub) ListCoordinatorFacilities(ctx context.Context, params application.ListCoordinatorFacilitiesParams) ([]application.FacilityOverview, error) {
	s.params = params
	return s.overviews, s.err
}

type coordinatorServiceStub struct {
	coordinators []application.Coordinator
	err          error
}

func (s *coordinatorServiceStub) ListUnassigned(ctx context.Context) ([]application.Coordinator, error) {
	return s.coordinators, s.err
}

type assignmentServiceStub struct {
	view        application.AssignmentView
	err         error
	coordinator int64
	params      application.AddEntryParams
	entry       scheduler.Entry
	removed     [2]int64
	discarded   string
	grid        application.WeeklyGridView
	record      application.AssignmentRecord
}

func (s *assignmentServiceStub) Grid() scheduler.Grid { return scheduler.DefaultGrid() }

func (s *assignmentServiceStub) Open(ctx context.Context) (application.AssignmentView, error) {
	return s.view, s.err
}

func (s *assignmentServiceStub) Get(ctx context.Context, sessionID string) (application.AssignmentView, error) {
	return s.view, s.err
}

func (s *assignmentServiceStub) Discard(ctx context.Context, sessionID string) error {
	s.discarded = sessionID
	return s.err
}

func (s *assignmentServiceStub) SelectCoordinator(ctx context.Context, sessionID string, coordinatorID int64) (application.AssignmentView, error) {
	s.coordinator = coordinatorID
	return s.view, s.err
}

func (s *assignmentServiceStub) SelectFacility(ctx context.Context, sessionID string, facilityID int64) (application.AssignmentView, error) {
	return s.view, s.err
}

func (s *assignmentServiceStub) DeselectFacility(ctx context.Context, sessionID string, facilityID int64) (application.AssignmentView, error) {
	return s.view, s.err
}

func (s *assignmentServiceStub) FocusFacility(ctx context.Context, sessionID string, facilityID int64) (application.AssignmentView, error) {
	return s.view, s.err
}

func (s *assignmentServiceStub) AddEntry(ctx context.Context, params application.AddEntryParams) (scheduler.Entry, error) {
	s.params = params
	return s.entry, s.err
}

func (s *assignmentServiceStub) RemoveEntry(ctx context.Context, sessionID string, facilityID, entryID int64) (bool, error) {
	s.removed = [2]int64{facilityID, entryID}
	return true, s.err
}

func (s *assignmentServiceStub) WeeklyGrid(ctx context.Context, sessionID string) (application.WeeklyGridView, error) {
	return s.grid, s.err
}

func (s *assignmentServiceStub) Submit(ctx context.Context, sessionID string) (application.AssignmentRecord, error) {
	return s.record, s.err
}

func newTestRouter(facilities *facilityServiceStub, coordinators *coordinatorServiceStub, assignments *assignmentServiceStub) http.Handler {
	cfg := RouterConfig{}
	if facilities != nil {
		cfg.Facilities = NewFacilityHandler(facilities, nil)
	}
	if coordinators != nil {
		cfg.Coordinators = NewCoordinatorHandler(coordinators, nil)
	}
	if assignments != nil {
		cfg.Assignments = NewAssignmentHandler(assignments, nil)
	}
	return NewRouter(cfg)
}

func serve(t *testing.T, handler http.Handler, method, target, body string) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, target, nil)
	} else {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	return rec
}

func decodeBody[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var out T
	if err := json.Unmarshal(rec.Body.Bytes(), &out); err != nil {
		t.Fatalf("decode body %q: %v", rec.Body.String(), err)
	}
	return out
}

func TestFacilityHandlers(t *testing.T) {
	t.Parallel()

	t.Run("search returns facilities", func(t *testing.T) {
		t.Parallel()
		stub := &facilityServiceStub{facilities: []application.Facility{{ID: 1, Name: "Piscina Municipal", Location: "Calle Deportes 456"}}}
		rec := serve(t, newTestRouter(stub, nil, nil), http.MethodGet, "/facilities?q=piscina", "")
		if rec.Code != http.StatusOK {
			t.Fatalf("status = %d", rec.Code)
		}
		body := decodeBody[listFacilitiesResponse](t, rec)
		if len(body.Facilities) != 1 || body.Facilities[0].Name != "Piscina Municipal" {
			t.Fatalf("unexpected body %+v", body)
		}
	})

	t.Run("get maps not found to 404", func(t *testing.T) {
		t.Parallel()
		rec := serve(t, newTestRouter(&facilityServiceStub{}, nil, nil), http.MethodGet, "/facilities/9", "")
		if rec.Code != http.StatusNotFound {
			t.Fatalf("status = %d", rec.Code)
		}
		if body := decodeBody[errorResponse](t, rec); body.ErrorCode != "NOT_FOUND" {
			t.Fatalf("unexpected body %+v", body)
		}
	})

	t.Run("get rejects malformed ids", func(t *testing.T) {
		t.Parallel()
		rec := serve(t, newTestRouter(&facilityServiceStub{}, nil, nil), http.MethodGet, "/facilities/abc", "")
		if rec.Code != http.StatusBadRequest {
			t.Fatalf("status = %d", rec.Code)
		}
	})

	t.Run("coordinator facilities forward filters", func(t *testing.T) {
		t.Parallel()
		next := handlerNow.Add(4 * time.Hour)
		stub := &facilityServiceStub{overviews: []application.FacilityOverview{{
			Facility:       application.Facility{ID: 1, Name: "Cancha"},
			Status:         application.StatusNeedsAttention,
			NextVisitStart: &next,
			IsToday:        true,
		}}}
		rec := serve(t, newTestRouter(stub, nil, nil), http.MethodGet, "/coordinators/3/facilities?tab=hoy&status=requiere-atencion&q=%20cancha%20", "")
		if rec.Code != http.StatusOK {
			t.Fatalf("status = %d: %s", rec.Code, rec.Body.String())
		}
		if stub.params.CoordinatorID != 3 || stub.params.Tab != application.TabToday ||
			stub.params.Status != application.StatusNeedsAttention || stub.params.Query != "cancha" {
			t.Fatalf("unexpected params %+v", stub.params)
		}
		body := decodeBody[listOverviewsResponse](t, rec)
		if len(body.Facilities) != 1 || body.Facilities[0].StatusLabel != "Requiere atención" || body.Facilities[0].NextVisitStart == nil {
			t.Fatalf("unexpected body %+v", body)
		}
	})

	t.Run("coordinator facilities surface validation errors", func(t *testing.T) {
		t.Parallel()
		stub := &facilityServiceStub{err: application.NewValidationError("tab", "unknown tab")}
		rec := serve(t, newTestRouter(stub, nil, nil), http.MethodGet, "/coordinators/3/facilities?tab=manana", "")
		if rec.Code != http.StatusUnprocessableEntity {
			t.Fatalf("status = %d", rec.Code)
		}
		body := decodeBody[errorResponse](t, rec)
		if body.Errors["tab"] != "La pestaña indicada no existe." {
			t.Fatalf("unexpected errors %+v", body.Errors)
		}
	})
}

func TestCoordinatorHandlers(t *testing.T) {
	t.Parallel()

	t.Run("list unassigned", func(t *testing.T) {
		t.Parallel()
		stub := &coordinatorServiceStub{coordinators: []application.Coordinator{{ID: 4, Name: "Ana Martínez", Email: "ana@example.com"}}}
		rec := serve(t, newTestRouter(nil, stub, nil), http.MethodGet, "/coordinators/unassigned", "")
		if rec.Code != http.StatusOK {
			t.Fatalf("status = %d", rec.Code)
		}
		body := decodeBody[listCoordinatorsResponse](t, rec)
		if len(body.Coordinators) != 1 || body.Coordinators[0].ID != 4 {
			t.Fatalf("unexpected body %+v", body)
		}
	})

	t.Run("repository failure is a 500", func(t *testing.T) {
		t.Parallel()
		stub := &coordinatorServiceStub{err: errors.New("boom")}
		rec := serve(t, newTestRouter(nil, stub, nil), http.MethodGet, "/coordinators/unassigned", "")
		if rec.Code != http.StatusInternalServerError {
			t.Fatalf("status = %d", rec.Code)
		}
	})
}

func sampleView() application.AssignmentView {
	return application.AssignmentView{
		SessionID:   "s-1",
		State:       scheduler.StateSchedulesConfigured,
		Coordinator: &application.Coordinator{ID: 4, Name: "Ana Martínez"},
		Facilities: []application.FacilityScheduleView{{
			Facility: application.Facility{ID: 1, Name: "Cancha de Fútbol Central"},
			Entries: []scheduler.Entry{
				{ID: 1, Day: scheduler.Monday, Start: scheduler.MustTimeSlot(9, 0), End: scheduler.MustTimeSlot(11, 0)},
			},
		}},
		FocusedFacilityID: 1,
		CreatedAt:         handlerNow,
		UpdatedAt:         handlerNow,
		ExpiresAt:         handlerNow.Add(2 * time.Hour),
	}
}

func TestAssignmentHandlers(t *testing.T) {
	t.Parallel()

	t.Run("open returns the new session", func(t *testing.T) {
		t.Parallel()
		stub := &assignmentServiceStub{view: sampleView()}
		rec := serve(t, newTestRouter(nil, nil, stub), http.MethodPost, "/assignments", "")
		if rec.Code != http.StatusCreated {
			t.Fatalf("status = %d", rec.Code)
		}
		if got := rec.Header().Get("Location"); got != "/assignments/s-1" {
			t.Fatalf("Location = %q", got)
		}
		body := decodeBody[assignmentResponse](t, rec)
		if body.Assignment.SessionID != "s-1" || body.Assignment.Coordinator == nil {
			t.Fatalf("unexpected body %+v", body)
		}
		if len(body.Assignment.FocusedDays) != 7 || len(body.Assignment.FocusedDays[0].Entries) != 1 {
			t.Fatalf("unexpected focused days %+v", body.Assignment.FocusedDays)
		}
		if body.Assignment.FocusedDays[0].Label != "Lunes" {
			t.Fatalf("week should start on Monday, got %+v", body.Assignment.FocusedDays[0])
		}
	})

	t.Run("unknown session is 404", func(t *testing.T) {
		t.Parallel()
		stub := &assignmentServiceStub{err: application.ErrNotFound}
		rec := serve(t, newTestRouter(nil, nil, stub), http.MethodGet, "/assignments/missing", "")
		if rec.Code != http.StatusNotFound {
			t.Fatalf("status = %d", rec.Code)
		}
	})

	t.Run("select coordinator accepts zero to clear", func(t *testing.T) {
		t.Parallel()
		stub := &assignmentServiceStub{view: sampleView(), coordinator: -1}
		rec := serve(t, newTestRouter(nil, nil, stub), http.MethodPut, "/assignments/s-1/coordinator", `{"coordinator_id":0}`)
		if rec.Code != http.StatusOK {
			t.Fatalf("status = %d: %s", rec.Code, rec.Body.String())
		}
		if stub.coordinator != 0 {
			t.Fatalf("coordinator = %d", stub.coordinator)
		}
	})

	t.Run("select coordinator requires the field", func(t *testing.T) {
		t.Parallel()
		stub := &assignmentServiceStub{view: sampleView()}
		rec := serve(t, newTestRouter(nil, nil, stub), http.MethodPut, "/assignments/s-1/coordinator", `{}`)
		if rec.Code != http.StatusBadRequest {
			t.Fatalf("status = %d", rec.Code)
		}
		body := decodeBody[errorResponse](t, rec)
		if body.Errors["coordinator_id"] != "Este campo es obligatorio." {
			t.Fatalf("unexpected errors %+v", body.Errors)
		}
	})

	t.Run("malformed body is 400", func(t *testing.T) {
		t.Parallel()
		stub := &assignmentServiceStub{view: sampleView()}
		rec := serve(t, newTestRouter(nil, nil, stub), http.MethodPut, "/assignments/s-1/focus", `{"facility_id":`)
		if rec.Code != http.StatusBadRequest {
			t.Fatalf("status = %d", rec.Code)
		}
		if body := decodeBody[errorResponse](t, rec); body.Message != errBadRequestBody.Error() {
			t.Fatalf("unexpected message %q", body.Message)
		}
	})

	t.Run("add entry parses day and times", func(t *testing.T) {
		t.Parallel()
		stub := &assignmentServiceStub{entry: scheduler.Entry{ID: 7, Day: scheduler.Tuesday, Start: scheduler.MustTimeSlot(8, 0), End: scheduler.MustTimeSlot(9, 30)}}
		rec := serve(t, newTestRouter(nil, nil, stub), http.MethodPost, "/assignments/s-1/facilities/2/entries",
			`{"day":"martes","start":"08:00","end":"09:30"}`)
		if rec.Code != http.StatusCreated {
			t.Fatalf("status = %d: %s", rec.Code, rec.Body.String())
		}
		if stub.params.SessionID != "s-1" || stub.params.FacilityID != 2 || stub.params.Day != scheduler.Tuesday ||
			stub.params.Start != scheduler.MustTimeSlot(8, 0) || stub.params.End != scheduler.MustTimeSlot(9, 30) {
			t.Fatalf("unexpected params %+v", stub.params)
		}
		body := decodeBody[entryResponse](t, rec)
		if body.Entry.ID != 7 || body.Entry.Start != "08:00" || body.Entry.End != "09:30" || body.Entry.DayLabel != "Martes" {
			t.Fatalf("unexpected body %+v", body)
		}
	})

	t.Run("add entry rejects unknown day", func(t *testing.T) {
		t.Parallel()
		stub := &assignmentServiceStub{}
		rec := serve(t, newTestRouter(nil, nil, stub), http.MethodPost, "/assignments/s-1/facilities/2/entries",
			`{"day":"funday","start":"08:00","end":"09:30"}`)
		if rec.Code != http.StatusBadRequest {
			t.Fatalf("status = %d", rec.Code)
		}
		if body := decodeBody[errorResponse](t, rec); body.Errors["day"] == "" {
			t.Fatalf("unexpected errors %+v", body.Errors)
		}
	})

	t.Run("overlap with another facility names it", func(t *testing.T) {
		t.Parallel()
		stub := &assignmentServiceStub{err: &application.EntryRejection{
			Cause: &scheduler.EntryError{
				Err:                scheduler.ErrOverlapOtherFacility,
				FacilityID:         2,
				Day:                scheduler.Monday,
				Interval:           scheduler.Interval{Start: scheduler.MustTimeSlot(10, 0), End: scheduler.MustTimeSlot(12, 0)},
				ConflictFacilityID: 1,
				ConflictEntryID:    1,
			},
			FacilityName:         "Piscina Municipal",
			ConflictFacilityName: "Cancha de Fútbol Central",
		}}
		rec := serve(t, newTestRouter(nil, nil, stub), http.MethodPost, "/assignments/s-1/facilities/2/entries",
			`{"day":"lunes","start":"10:00","end":"12:00"}`)
		if rec.Code != http.StatusUnprocessableEntity {
			t.Fatalf("status = %d", rec.Code)
		}
		body := decodeBody[errorResponse](t, rec)
		if body.ErrorCode != "OVERLAP_OTHER_FACILITY" {
			t.Fatalf("error code = %q", body.ErrorCode)
		}
		if !strings.Contains(body.Message, "en la instalación: Cancha de Fútbol Central") {
			t.Fatalf("message = %q", body.Message)
		}
		if body.Conflict == nil || body.Conflict.FacilityID != 1 || body.Conflict.EntryID != 1 {
			t.Fatalf("conflict = %+v", body.Conflict)
		}
	})

	t.Run("invalid interval message", func(t *testing.T) {
		t.Parallel()
		stub := &assignmentServiceStub{err: &application.EntryRejection{
			Cause: &scheduler.EntryError{
				Err:      scheduler.ErrInvalidInterval,
				Day:      scheduler.Monday,
				Interval: scheduler.Interval{Start: scheduler.MustTimeSlot(12, 0), End: scheduler.MustTimeSlot(10, 0)},
			},
		}}
		rec := serve(t, newTestRouter(nil, nil, stub), http.MethodPost, "/assignments/s-1/facilities/2/entries",
			`{"day":"lunes","start":"12:00","end":"10:00"}`)
		body := decodeBody[errorResponse](t, rec)
		if body.Message != "La hora de inicio debe ser anterior a la hora de fin." || body.Conflict != nil {
			t.Fatalf("unexpected body %+v", body)
		}
	})

	t.Run("remove entry", func(t *testing.T) {
		t.Parallel()
		stub := &assignmentServiceStub{}
		rec := serve(t, newTestRouter(nil, nil, stub), http.MethodDelete, "/assignments/s-1/facilities/2/entries/5", "")
		if rec.Code != http.StatusNoContent {
			t.Fatalf("status = %d", rec.Code)
		}
		if stub.removed != [2]int64{2, 5} {
			t.Fatalf("removed = %v", stub.removed)
		}
	})

	t.Run("remove entry rejects bad id", func(t *testing.T) {
		t.Parallel()
		rec := serve(t, newTestRouter(nil, nil, &assignmentServiceStub{}), http.MethodDelete, "/assignments/s-1/facilities/2/entries/x", "")
		if rec.Code != http.StatusBadRequest {
			t.Fatalf("status = %d", rec.Code)
		}
	})

	t.Run("discard", func(t *testing.T) {
		t.Parallel()
		stub := &assignmentServiceStub{}
		rec := serve(t, newTestRouter(nil, nil, stub), http.MethodDelete, "/assignments/s-9", "")
		if rec.Code != http.StatusNoContent || stub.discarded != "s-9" {
			t.Fatalf("status = %d discarded = %q", rec.Code, stub.discarded)
		}
	})

	t.Run("weekly grid flags conflicts", func(t *testing.T) {
		t.Parallel()
		monday := scheduler.MustTimeSlot(10, 0)
		a := scheduler.NewAssignment(scheduler.DefaultGrid())
		a.SelectFacility(1)
		a.SelectFacility(2)
		if _, err := a.AddEntry(1, scheduler.Monday, monday, scheduler.MustTimeSlot(11, 0)); err != nil {
			t.Fatalf("AddEntry: %v", err)
		}
		stub := &assignmentServiceStub{grid: application.WeeklyGridView{
			SessionID:  "s-1",
			Grid:       scheduler.DeriveWeeklyGrid(a),
			Facilities: map[int64]application.Facility{1: {ID: 1, Name: "Cancha"}},
		}}
		rec := serve(t, newTestRouter(nil, nil, stub), http.MethodGet, "/assignments/s-1/grid", "")
		if rec.Code != http.StatusOK {
			t.Fatalf("status = %d", rec.Code)
		}
		body := decodeBody[gridResponse](t, rec)
		if len(body.Days) != 7 || body.Conflicts != 0 {
			t.Fatalf("unexpected body %+v", body)
		}
		var found bool
		for _, row := range body.Rows {
			if row.Start != "10:00" {
				continue
			}
			for _, cell := range row.Cells {
				if cell.Day == string(scheduler.Monday) && len(cell.Placements) == 1 && cell.Placements[0].FacilityName == "Cancha" {
					found = true
				}
			}
		}
		if !found {
			t.Fatalf("expected a Monday 10:00 placement")
		}
	})

	t.Run("submit returns the stored record", func(t *testing.T) {
		t.Parallel()
		stub := &assignmentServiceStub{record: application.AssignmentRecord{ID: "a-1", CoordinatorID: 4, FacilityIDs: []int64{1}, CreatedAt: handlerNow}}
		rec := serve(t, newTestRouter(nil, nil, stub), http.MethodPost, "/assignments/s-1/submit", "")
		if rec.Code != http.StatusCreated {
			t.Fatalf("status = %d", rec.Code)
		}
		body := decodeBody[submitResponse](t, rec)
		if body.AssignmentID != "a-1" || body.CreatedAt != "2024-06-01T10:00:00Z" {
			t.Fatalf("unexpected body %+v", body)
		}
	})

	t.Run("submit names facilities without schedule", func(t *testing.T) {
		t.Parallel()
		stub := &assignmentServiceStub{err: &application.IncompleteScheduleError{FacilityNames: []string{"Piscina Municipal", "Gimnasio Polideportivo"}}}
		rec := serve(t, newTestRouter(nil, nil, stub), http.MethodPost, "/assignments/s-1/submit", "")
		if rec.Code != http.StatusUnprocessableEntity {
			t.Fatalf("status = %d", rec.Code)
		}
		body := decodeBody[errorResponse](t, rec)
		want := "Debes asignar al menos un horario a cada instalación. Faltan horarios en: Piscina Municipal, Gimnasio Polideportivo"
		if body.Message != want {
			t.Fatalf("message = %q", body.Message)
		}
	})

	t.Run("submit twice is a conflict", func(t *testing.T) {
		t.Parallel()
		stub := &assignmentServiceStub{err: application.ErrAlreadySubmitted}
		rec := serve(t, newTestRouter(nil, nil, stub), http.MethodPost, "/assignments/s-1/submit", "")
		if rec.Code != http.StatusConflict {
			t.Fatalf("status = %d", rec.Code)
		}
	})

	t.Run("slots", func(t *testing.T) {
		t.Parallel()
		rec := serve(t, newTestRouter(nil, nil, &assignmentServiceStub{}), http.MethodGet, "/grid/slots", "")
		body := decodeBody[slotsResponse](t, rec)
		if len(body.Slots) != 14 || body.Slots[0] != "08:00" || len(body.Cells) != 13 || len(body.Days) != 7 {
			t.Fatalf("unexpected body %+v", body)
		}
	})
}
