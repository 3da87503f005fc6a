package httpapi

import (
	"net/http"
	"strings"

	"github.com/mfc-unidade/treasury-api/internal/domain"
)

// OperatorHeader carries the identity of the administrator issuing the request.
const OperatorHeader = "X-Operator-ID"

// NewOperatorMiddleware stores the operator identity in request context.
//
// Authentication happens upstream (gateway or session layer); this only reads the
// identity it forwards. If the header is absent it falls back to defaultOperator,
// and with neither the request is rejected.
func NewOperatorMiddleware(defaultOperator string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			// Health endpoint is deliberately unauthenticated.
			if r.URL.Path == "/healthz" {
				next.ServeHTTP(w, r)
				return
			}

			op := strings.TrimSpace(r.Header.Get(OperatorHeader))
			if op == "" {
				op = strings.TrimSpace(defaultOperator)
			}
			if op == "" {
				writeError(w, r, http.StatusUnauthorized, "UNAUTHORIZED", "missing operator (set "+OperatorHeader+")", nil)
				return
			}
			if len(op) > 128 {
				writeError(w, r, http.StatusUnauthorized, "UNAUTHORIZED", "operator id too long", nil)
				return
			}

			next.ServeHTTP(w, r.WithContext(WithOperator(r.Context(), domain.OperatorID(op))))
		})
	}
}
