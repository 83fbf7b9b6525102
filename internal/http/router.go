package http

import (
	"net/http"
)

type RouterConfig struct {
	Facilities   *FacilityHandler
	Coordinators *CoordinatorHandler
	Assignments  *AssignmentHandler
	Middleware   []func(http.Handler) http.Handler
}

func NewRouter(cfg RouterConfig) http.Handler {
	mux := http.NewServeMux()

	if cfg.Facilities != nil {
		mux.HandleFunc("GET /facilities", cfg.Facilities.Search)
		mux.HandleFunc("GET /facilities/{id}", cfg.Facilities.Get)
		mux.HandleFunc("GET /coordinators/{id}/facilities", cfg.Facilities.CoordinatorFacilities)
	}

	if cfg.Coordinators != nil {
		mux.HandleFunc("GET /coordinators/unassigned", cfg.Coordinators.ListUnassigned)
	}

	if cfg.Assignments != nil {
		mux.HandleFunc("GET /grid/slots", cfg.Assignments.Slots)
		mux.HandleFunc("POST /assignments", cfg.Assignments.Open)
		mux.HandleFunc("GET /assignments/{id}", cfg.Assignments.Get)
		mux.HandleFunc("DELETE /assignments/{id}", cfg.Assignments.Discard)
		mux.HandleFunc("PUT /assignments/{id}/coordinator", cfg.Assignments.SelectCoordinator)
		mux.HandleFunc("PUT /assignments/{id}/focus", cfg.Assignments.Focus)
		mux.HandleFunc("POST /assignments/{id}/facilities/{facilityID}", cfg.Assignments.SelectFacility)
		mux.HandleFunc("DELETE /assignments/{id}/facilities/{facilityID}", cfg.Assignments.DeselectFacility)
		mux.HandleFunc("POST /assignments/{id}/facilities/{facilityID}/entries", cfg.Assignments.AddEntry)
		mux.HandleFunc("DELETE /assignments/{id}/facilities/{facilityID}/entries/{entryID}", cfg.Assignments.RemoveEntry)
		mux.HandleFunc("GET /assignments/{id}/grid", cfg.Assignments.WeeklyGrid)
		mux.HandleFunc("POST /assignments/{id}/submit", cfg.Assignments.Submit)
	}

	var handler http.Handler = mux
	if len(cfg.Middleware) > 0 {
		for i := len(cfg.Middleware) - 1; i >= 0; i-- {
			if cfg.Middleware[i] != nil {
				handler = cfg.Middleware[i](handler)
			}
		}
	}

	return handler
}
