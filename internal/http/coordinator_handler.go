package http

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/example/facility-coordinator/internal/application"
)

type coordinatorService interface {
	ListUnassigned(ctx context.Context) ([]application.Coordinator, error)
}

// CoordinatorHandler lists coordinators available for a new assignment.
type CoordinatorHandler struct {
	service   coordinatorService
	responder responder
	logger    *slog.Logger
}

func NewCoordinatorHandler(service coordinatorService, logger *slog.Logger) *CoordinatorHandler {
	base := defaultLogger(logger)
	return &CoordinatorHandler{service: service, responder: newResponder(base), logger: base}
}

// ListUnassigned handles GET /coordinators/unassigned.
func (h *CoordinatorHandler) ListUnassigned(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	logger := handlerLogger(r.Context(), h.logger, "CoordinatorHandler", "ListUnassigned")
	coordinators, err := h.service.ListUnassigned(r.Context())
	if err != nil {
		logger.ErrorContext(r.Context(), "coordinator list failed", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	logger.With("result_count", len(coordinators)).InfoContext(r.Context(), "unassigned coordinators listed")
	out := make([]coordinatorDTO, 0, len(coordinators))
	for _, coordinator := range coordinators {
		out = append(out, toCoordinatorDTO(coordinator))
	}
	h.responder.writeJSON(r.Context(), w, http.StatusOK, listCoordinatorsResponse{Coordinators: out})
}

type coordinatorDTO struct {
	ID    int64  `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
	Phone string `json:"phone,omitempty"`
}

type listCoordinatorsResponse struct {
	Coordinators []coordinatorDTO `json:"coordinators"`
}

func toCoordinatorDTO(coordinator application.Coordinator) coordinatorDTO {
	return coordinatorDTO{
		ID:    coordinator.ID,
		Name:  coordinator.Name,
		Email: coordinator.Email,
		Phone: coordinator.Phone,
	}
}
