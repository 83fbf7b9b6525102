package http

import (
	"errors"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-playground/validator/v10"
)

func TestDecodeJSON(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name      string
		body      string
		badBody   bool
		wantField string
		wantTag   string
	}{
		{name: "valid", body: `{"day":"lunes","start":"08:00","end":"9:30"}`},
		{name: "unknown field", body: `{"day":"lunes","start":"08:00","end":"09:00","room":1}`, badBody: true},
		{name: "trailing document", body: `{"day":"lunes","start":"08:00","end":"09:00"}{}`, badBody: true},
		{name: "missing day", body: `{"start":"08:00","end":"09:00"}`, wantField: "day", wantTag: "required"},
		{name: "bad day", body: `{"day":"someday","start":"08:00","end":"09:00"}`, wantField: "day", wantTag: "weekday"},
		{name: "bad clock", body: `{"day":"monday","start":"8h","end":"09:00"}`, wantField: "start", wantTag: "hhmm"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			req := httptest.NewRequest("POST", "/", strings.NewReader(tc.body))
			var dst addEntryRequest
			err := decodeJSON(req, &dst)

			switch {
			case tc.badBody:
				if !isBadRequestBody(err) {
					t.Fatalf("expected bad body error, got %v", err)
				}
			case tc.wantField != "":
				var fieldErrs validator.ValidationErrors
				if !errors.As(err, &fieldErrs) {
					t.Fatalf("expected validation errors, got %v", err)
				}
				if fieldErrs[0].Field() != tc.wantField || fieldErrs[0].Tag() != tc.wantTag {
					t.Fatalf("got %s/%s, want %s/%s", fieldErrs[0].Field(), fieldErrs[0].Tag(), tc.wantField, tc.wantTag)
				}
				if msg := localizeFieldErrors(fieldErrs)[tc.wantField]; msg == "" {
					t.Fatalf("missing localized message")
				}
			default:
				if err != nil {
					t.Fatalf("decodeJSON: %v", err)
				}
			}
		})
	}
}
