package httpapi

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5/middleware"

	applog "github.com/mfc-unidade/treasury-api/internal/platform/log"
)

// NewRequestLogger logs one line per request and puts a request-scoped logger in
// context. Server errors log at error level, client errors at warn.
func NewRequestLogger(logger *applog.Logger) func(http.Handler) http.Handler {
	base := logger.WithComponent(applog.ComponentHTTP)
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			reqLog := base.With(applog.FieldRequestID, middleware.GetReqID(r.Context()))
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

			next.ServeHTTP(ww, r.WithContext(applog.IntoContext(r.Context(), reqLog)))

			status := ww.Status()
			if status == 0 {
				status = http.StatusOK
			}
			level := slog.LevelInfo
			switch {
			case status >= 500:
				level = slog.LevelError
			case status >= 400:
				level = slog.LevelWarn
			}
			attrs := []any{
				applog.FieldMethod, r.Method,
				applog.FieldPath, r.URL.Path,
				applog.FieldStatusCode, status,
				applog.FieldDuration, time.Since(start).Milliseconds(),
			}
			if op := r.Header.Get(OperatorHeader); op != "" {
				attrs = append(attrs, applog.FieldOperator, op)
			}
			reqLog.Log(r.Context(), level, "http request", attrs...)
		})
	}
}
