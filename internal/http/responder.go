package http

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/example/facility-coordinator/internal/application"
	"github.com/example/facility-coordinator/internal/scheduler"
)

var (
	errBadRequestBody       = errors.New("Formato de solicitud no válido.")
	errInvalidSessionID     = errors.New("Identificador de asignación no válido.")
	errInvalidFacilityID    = errors.New("Identificador de instalación no válido.")
	errInvalidCoordinatorID = errors.New("Identificador de coordinador no válido.")
	errInvalidEntryID       = errors.New("Identificador de horario no válido.")
)

type responder struct {
	logger *slog.Logger
}

func newResponder(logger *slog.Logger) responder {
	if logger == nil {
		logger = slog.Default()
	}
	return responder{logger: logger}
}

func (r responder) writeJSON(ctx context.Context, w http.ResponseWriter, status int, payload any) {
	if w == nil {
		return
	}

	if status == http.StatusNoContent || payload == nil {
		w.WriteHeader(status)
		return
	}

	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		r.loggerFor(ctx).ErrorContext(ctx, "failed to encode response", "error", err)
	}
}

func (r responder) writeError(ctx context.Context, w http.ResponseWriter, status int, err error) {
	message := localizedStatusMessage(status)
	if err != nil {
		if msg := strings.TrimSpace(err.Error()); msg != "" {
			message = msg
		}
		r.loggerFor(ctx).InfoContext(ctx, "request rejected", "status", status, "error", err)
	}

	r.writeJSON(ctx, w, status, errorResponse{Message: message})
}

func (r responder) handleServiceError(ctx context.Context, w http.ResponseWriter, err error) {
	if err == nil {
		r.writeError(ctx, w, http.StatusInternalServerError, errors.New("unknown error"))
		return
	}

	var (
		rejection  *application.EntryRejection
		incomplete *application.IncompleteScheduleError
		vErr       *application.ValidationError
		fieldErrs  validator.ValidationErrors
	)

	switch {
	case errors.Is(err, application.ErrNotFound):
		r.writeJSON(ctx, w, http.StatusNotFound, errorResponse{
			ErrorCode: "NOT_FOUND",
			Message:   localizedStatusMessage(http.StatusNotFound),
		})
	case errors.Is(err, application.ErrAlreadyExists):
		r.writeJSON(ctx, w, http.StatusConflict, errorResponse{
			ErrorCode: "ALREADY_EXISTS",
			Message:   "El coordinador ya tiene una asignación registrada.",
		})
	case errors.Is(err, application.ErrAlreadySubmitted):
		r.writeJSON(ctx, w, http.StatusConflict, errorResponse{
			ErrorCode: "ALREADY_SUBMITTED",
			Message:   "La asignación ya fue registrada y no puede modificarse.",
		})
	case errors.As(err, &rejection):
		r.writeJSON(ctx, w, http.StatusUnprocessableEntity, entryRejectionResponse(rejection))
	case errors.As(err, &incomplete):
		r.writeJSON(ctx, w, http.StatusUnprocessableEntity, errorResponse{
			ErrorCode: errorCode(err),
			Message:   "Debes asignar al menos un horario a cada instalación. Faltan horarios en: " + strings.Join(incomplete.FacilityNames, ", "),
		})
	case errors.Is(err, scheduler.ErrMissingCoordinator):
		r.writeJSON(ctx, w, http.StatusUnprocessableEntity, errorResponse{
			ErrorCode: errorCode(err),
			Message:   "Por favor selecciona un coordinador.",
		})
	case errors.Is(err, scheduler.ErrNoFacilitiesSelected):
		r.writeJSON(ctx, w, http.StatusUnprocessableEntity, errorResponse{
			ErrorCode: errorCode(err),
			Message:   "Debes asignar al menos una instalación al coordinador.",
		})
	case errors.Is(err, scheduler.ErrFacilityNotSelected):
		r.writeJSON(ctx, w, http.StatusUnprocessableEntity, errorResponse{
			ErrorCode: errorCode(err),
			Message:   "La instalación no está seleccionada.",
		})
	case errors.As(err, &vErr):
		r.writeJSON(ctx, w, http.StatusUnprocessableEntity, errorResponse{
			ErrorCode: "VALIDATION",
			Message:   localizedStatusMessage(http.StatusUnprocessableEntity),
			Errors:    localizeValidationErrors(vErr),
		})
	case errors.As(err, &fieldErrs):
		r.writeJSON(ctx, w, http.StatusBadRequest, errorResponse{
			ErrorCode: "VALIDATION",
			Message:   localizedStatusMessage(http.StatusBadRequest),
			Errors:    localizeFieldErrors(fieldErrs),
		})
	default:
		r.loggerFor(ctx).ErrorContext(ctx, "unexpected service error", "error", err)
		r.writeJSON(ctx, w, http.StatusInternalServerError, errorResponse{Message: localizedStatusMessage(http.StatusInternalServerError)})
	}
}

func (r responder) loggerFor(ctx context.Context) *slog.Logger {
	if logger := LoggerFromContext(ctx); logger != nil {
		return logger
	}
	return r.logger
}

func errorCode(err error) string {
	return strings.ToUpper(application.ErrorKind(err))
}

func entryRejectionResponse(rejection *application.EntryRejection) errorResponse {
	cause := rejection.Cause
	resp := errorResponse{ErrorCode: errorCode(rejection)}
	rangeText := fmt.Sprintf("%s %s-%s", cause.Day.Label(), cause.Interval.Start, cause.Interval.End)

	switch {
	case errors.Is(cause, scheduler.ErrInvalidInterval):
		resp.Message = "La hora de inicio debe ser anterior a la hora de fin."
	case errors.Is(cause, scheduler.ErrOverlapSameFacility):
		resp.Message = fmt.Sprintf("El horario %s se solapa con otro ya asignado para este día y esta instalación.", rangeText)
	case errors.Is(cause, scheduler.ErrOverlapOtherFacility):
		resp.Message = fmt.Sprintf("El horario %s se solapa con otro ya asignado para este día en la instalación: %s. Un coordinador no puede estar en dos instalaciones al mismo tiempo.",
			rangeText, rejection.ConflictFacilityName)
	case errors.Is(cause, scheduler.ErrFacilityNotSelected):
		resp.Message = fmt.Sprintf("La instalación %s no está seleccionada.", rejection.FacilityName)
	case errors.Is(cause, scheduler.ErrUnknownDay):
		resp.Message = "El día indicado no es válido."
	case errors.Is(cause, scheduler.ErrInvalidTimeSlot):
		resp.Message = "La hora indicada está fuera del horario permitido."
	default:
		resp.Message = localizedStatusMessage(http.StatusUnprocessableEntity)
	}

	if cause.ConflictEntryID != 0 {
		resp.Conflict = &conflictDTO{
			FacilityID:   cause.ConflictFacilityID,
			FacilityName: rejection.ConflictFacilityName,
			EntryID:      cause.ConflictEntryID,
		}
	}
	return resp
}

func localizedStatusMessage(status int) string {
	switch status {
	case http.StatusBadRequest:
		return "La solicitud no es válida."
	case http.StatusNotFound:
		return "No se encontró el recurso solicitado."
	case http.StatusConflict:
		return "La solicitud entra en conflicto con el estado actual del recurso."
	case http.StatusUnprocessableEntity:
		return "Los datos ingresados no son válidos."
	default:
		return "Ocurrió un error interno en el servidor."
	}
}

func localizeValidationErrors(vErr *application.ValidationError) map[string]string {
	if vErr == nil || len(vErr.FieldErrors) == 0 {
		return nil
	}

	translated := make(map[string]string, len(vErr.FieldErrors))
	for field, msg := range vErr.FieldErrors {
		translated[field] = translateValidationMessage(msg)
	}
	return translated
}

func translateValidationMessage(message string) string {
	switch message {
	case "coordinator id must be positive":
		return "El identificador del coordinador debe ser positivo."
	case "coordinator already has an assignment":
		return "El coordinador ya tiene instalaciones asignadas."
	case "unknown tab":
		return "La pestaña indicada no existe."
	case "unknown status":
		return "El estado indicado no existe."
	case "related records are missing or invalid":
		return "Los registros relacionados no existen o no son válidos."
	default:
		return message
	}
}

type errorResponse struct {
	ErrorCode string            `json:"error_code,omitempty"`
	Message   string            `json:"message"`
	Errors    map[string]string `json:"errors,omitempty"`
	Conflict  *conflictDTO      `json:"conflict,omitempty"`
}

type conflictDTO struct {
	FacilityID   int64  `json:"facility_id"`
	FacilityName string `json:"facility_name"`
	EntryID      int64  `json:"entry_id"`
}
