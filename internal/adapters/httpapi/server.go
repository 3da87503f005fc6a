package httpapi

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/mfc-unidade/treasury-api/internal/app/dues"
	"github.com/mfc-unidade/treasury-api/internal/app/fundraising"
	"github.com/mfc-unidade/treasury-api/internal/app/members"
	"github.com/mfc-unidade/treasury-api/internal/app/reporting"
	"github.com/mfc-unidade/treasury-api/internal/domain"
	applog "github.com/mfc-unidade/treasury-api/internal/platform/log"
	"github.com/mfc-unidade/treasury-api/internal/ports/out/idempotency"
)

const maxBodyBytes = 1 << 20

// Server binds the app services to HTTP handlers.
type Server struct {
	Members     *members.Service
	Dues        *dues.Service
	Fundraising *fundraising.Service
	Reporting   *reporting.Service
	Idem        idempotency.Store
	Log         *applog.Logger

	// Now stamps idempotency records and defaults the month query parameter.
	Now func() time.Time
}

func NewServer(membersSvc *members.Service, duesSvc *dues.Service, fundraisingSvc *fundraising.Service, reportingSvc *reporting.Service, idem idempotency.Store) *Server {
	return &Server{
		Members:     membersSvc,
		Dues:        duesSvc,
		Fundraising: fundraisingSvc,
		Reporting:   reportingSvc,
		Idem:        idem,
		Log:         applog.Nop(),
		Now:         time.Now,
	}
}

func (s *Server) now() time.Time {
	if s.Now == nil {
		return time.Now().UTC()
	}
	return s.Now()
}

// decodeBody reads a single JSON object into dst, rejecting unknown fields.
// On failure it writes a 422 and returns false.
func decodeBody(w http.ResponseWriter, r *http.Request, dst any) bool {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		reason := err.Error()
		if errors.Is(err, io.EOF) {
			reason = "missing request body"
		}
		writeError(w, r, http.StatusUnprocessableEntity, "VALIDATION_ERROR", "invalid request body", map[string]any{"body": reason})
		return false
	}
	if dec.More() {
		writeError(w, r, http.StatusUnprocessableEntity, "VALIDATION_ERROR", "invalid request body", map[string]any{"body": "trailing data"})
		return false
	}
	return true
}

// monthParam reads a "M/YYYY" query parameter, defaulting to the current month.
func (s *Server) monthParam(w http.ResponseWriter, r *http.Request, name string) (domain.RefMonth, bool) {
	raw := strings.TrimSpace(r.URL.Query().Get(name))
	if raw == "" {
		return domain.RefMonthOf(s.now()), true
	}
	m, err := domain.ParseRefMonth(raw)
	if err != nil {
		validationFailed(w, r, name, err.Error())
		return domain.RefMonth{}, false
	}
	return m, true
}

// intParam reads an optional integer query parameter.
func intParam(w http.ResponseWriter, r *http.Request, name string, def int) (int, bool) {
	raw := strings.TrimSpace(r.URL.Query().Get(name))
	if raw == "" {
		return def, true
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		validationFailed(w, r, name, "must be an integer")
		return 0, false
	}
	return n, true
}

func teamIDParam(r *http.Request) domain.TeamID {
	return domain.TeamID(chi.URLParam(r, "teamId"))
}

func memberIDParam(r *http.Request) domain.MemberID {
	return domain.MemberID(chi.URLParam(r, "memberId"))
}

func eventIDParam(r *http.Request) domain.EventID {
	return domain.EventID(chi.URLParam(r, "eventId"))
}

func (s *Server) healthz(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}
