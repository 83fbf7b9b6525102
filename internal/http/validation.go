package http

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"reflect"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"

	"github.com/example/facility-coordinator/internal/scheduler"
)

const maxRequestBody = 1 << 20

var (
	validateOnce sync.Once
	validate     *validator.Validate
)

// requestValidator returns the shared validator with the weekday and hhmm
// tags registered. Field names are reported by their json tag.
func requestValidator() *validator.Validate {
	validateOnce.Do(func() {
		v := validator.New(validator.WithRequiredStructEnabled())
		v.RegisterTagNameFunc(func(field reflect.StructField) string {
			name := strings.SplitN(field.Tag.Get("json"), ",", 2)[0]
			if name == "-" {
				return ""
			}
			return name
		})
		_ = v.RegisterValidation("weekday", func(fl validator.FieldLevel) bool {
			_, err := scheduler.ParseWeekDay(fl.Field().String())
			return err == nil
		})
		_ = v.RegisterValidation("hhmm", func(fl validator.FieldLevel) bool {
			_, err := scheduler.ParseTimeSlot(fl.Field().String())
			return err == nil
		})
		validate = v
	})
	return validate
}

// decodeJSON reads a single JSON document into dst and validates it.
// Malformed bodies yield errBadRequestBody; rule violations yield
// validator.ValidationErrors.
func decodeJSON(r *http.Request, dst any) error {
	decoder := json.NewDecoder(io.LimitReader(r.Body, maxRequestBody))
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(dst); err != nil {
		return fmt.Errorf("%w: %v", errBadRequestBody, err)
	}
	if decoder.More() {
		return errBadRequestBody
	}
	return requestValidator().Struct(dst)
}

func localizeFieldErrors(errs validator.ValidationErrors) map[string]string {
	if len(errs) == 0 {
		return nil
	}
	out := make(map[string]string, len(errs))
	for _, fieldErr := range errs {
		out[fieldErr.Field()] = fieldMessage(fieldErr)
	}
	return out
}

func fieldMessage(fieldErr validator.FieldError) string {
	switch fieldErr.Tag() {
	case "required":
		return "Este campo es obligatorio."
	case "gt":
		return "El valor debe ser mayor que " + fieldErr.Param() + "."
	case "gte":
		return "El valor debe ser mayor o igual que " + fieldErr.Param() + "."
	case "weekday":
		return "El día indicado no es válido."
	case "hhmm":
		return "La hora debe tener el formato HH:MM."
	case "max":
		return "El valor supera la longitud máxima de " + fieldErr.Param() + "."
	default:
		return "El valor no es válido."
	}
}

func isBadRequestBody(err error) bool {
	return errors.Is(err, errBadRequestBody)
}
