package httpapi

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/oapi-codegen/nullable"

	"github.com/mfc-unidade/treasury-api/internal/app/dues"
	"github.com/mfc-unidade/treasury-api/internal/app/fundraising"
	"github.com/mfc-unidade/treasury-api/internal/app/members"
	"github.com/mfc-unidade/treasury-api/internal/app/reporting"
	applog "github.com/mfc-unidade/treasury-api/internal/platform/log"
)

type ErrorBody struct {
	Code      string                            `json:"code"`
	Message   string                            `json:"message"`
	Details   nullable.Nullable[map[string]any] `json:"details,omitempty"`
	RequestId nullable.Nullable[string]         `json:"requestId,omitempty"`
}

type ErrorResponse struct {
	Error ErrorBody `json:"error"`
}

func writeError(w http.ResponseWriter, r *http.Request, status int, code string, message string, details map[string]any) {
	var er ErrorResponse
	er.Error.Code = code
	er.Error.Message = message
	if details != nil {
		er.Error.Details = nullable.NewNullableWithValue(details)
	}
	if rid := middleware.GetReqID(r.Context()); rid != "" {
		er.Error.RequestId = nullable.NewNullableWithValue(rid)
	}
	writeJSON(w, status, er)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func validationFailed(w http.ResponseWriter, r *http.Request, field, reason string) {
	writeError(w, r, http.StatusUnprocessableEntity, "VALIDATION_ERROR", "invalid "+field, map[string]any{field: reason})
}

// appError unwraps the typed error of any app service.
func appError(err error) (status int, code, message string, details map[string]any, ok bool) {
	if ae := (*dues.Error)(nil); errors.As(err, &ae) {
		return ae.Status, ae.Code, ae.Message, ae.Details, true
	}
	if ae := (*fundraising.Error)(nil); errors.As(err, &ae) {
		return ae.Status, ae.Code, ae.Message, ae.Details, true
	}
	if ae := (*members.Error)(nil); errors.As(err, &ae) {
		return ae.Status, ae.Code, ae.Message, ae.Details, true
	}
	if ae := (*reporting.Error)(nil); errors.As(err, &ae) {
		return ae.Status, ae.Code, ae.Message, ae.Details, true
	}
	return 0, "", "", nil, false
}

// fail maps app errors to their envelope and everything else to a logged 500.
func (s *Server) fail(w http.ResponseWriter, r *http.Request, err error) {
	if status, code, msg, details, ok := appError(err); ok {
		writeError(w, r, status, code, msg, details)
		return
	}
	s.Log.ErrorContext(r.Context(), "request failed",
		applog.FieldMethod, r.Method,
		applog.FieldPath, r.URL.Path,
		applog.FieldRequestID, middleware.GetReqID(r.Context()),
		applog.FieldError, err,
	)
	writeError(w, r, http.StatusInternalServerError, "INTERNAL", "internal server error", nil)
}
