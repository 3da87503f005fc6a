package httpapi

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

type RouterOptions struct {
	// OperatorMiddleware resolves the acting operator. Defaults to NewOperatorMiddleware("").
	OperatorMiddleware func(http.Handler) http.Handler
}

// NewRouter constructs the API HTTP router.
func NewRouter(s *Server) http.Handler {
	return NewRouterWithOptions(s, RouterOptions{})
}

func NewRouterWithOptions(s *Server, opts RouterOptions) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(NewRequestLogger(s.Log))
	r.Use(middleware.Recoverer)

	// Health endpoint is deliberately outside operator resolution.
	r.Get("/healthz", s.healthz)

	opMW := opts.OperatorMiddleware
	if opMW == nil {
		opMW = NewOperatorMiddleware("")
	}

	r.NotFound(func(w http.ResponseWriter, req *http.Request) {
		writeError(w, req, http.StatusNotFound, "NOT_FOUND", "route not found", nil)
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, req *http.Request) {
		writeError(w, req, http.StatusMethodNotAllowed, "METHOD_NOT_ALLOWED", "method not allowed", nil)
	})

	r.Group(func(r chi.Router) {
		r.Use(opMW)

		r.Route("/teams", func(r chi.Router) {
			r.Get("/", s.listTeams)
			r.Post("/", s.createTeam)
			r.Route("/{teamId}", func(r chi.Router) {
				r.Get("/", s.getTeam)
				r.Get("/members", s.listTeamMembers)
				r.Get("/units", s.listTeamUnits)
				r.Get("/dues", s.teamDues)
				r.Get("/summary", s.teamSummary)
				r.Get("/payments", s.teamPayments)
			})
		})

		r.Route("/members", func(r chi.Router) {
			r.Get("/", s.searchMembers)
			r.Post("/", s.registerMember)
			r.Route("/{memberId}", func(r chi.Router) {
				r.Get("/", s.getMember)
				r.Patch("/", s.updateMember)
				r.Get("/dues", s.memberDues)
				r.Get("/arrears", s.memberArrears)
				r.Post("/payments", s.launchPayment)
				r.Post("/exemptions", s.recordExemption)
				r.Put("/unit/active", s.toggleUnitActive)
			})
		})

		r.Route("/reports", func(r chi.Router) {
			r.Get("/summary", s.orgSummary)
			r.Get("/demographics", s.demographics)
			r.Get("/monthly-totals", s.monthlyTotals)
			r.Post("/arrears-digest", s.arrearsDigest)
		})

		r.Route("/events", func(r chi.Router) {
			r.Get("/", s.listEvents)
			r.Post("/", s.createEvent)
			r.Route("/{eventId}", func(r chi.Router) {
				r.Get("/", s.getEvent)
				r.Get("/stats", s.eventStats)
				r.Get("/teams/{teamId}/stats", s.teamEventStats)
				r.Get("/sales", s.listSales)
				r.Post("/sales", s.recordSale)
				r.Post("/expenses", s.addExpense)
				r.Put("/quotas/{teamId}", s.setTeamQuota)
				r.Put("/flags", s.setEventFlags)
			})
		})
	})

	return r
}
