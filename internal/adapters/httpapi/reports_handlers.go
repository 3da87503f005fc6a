package httpapi

import (
	"net/http"

	"github.com/mfc-unidade/treasury-api/internal/domain"
)

func (s *Server) orgSummary(w http.ResponseWriter, r *http.Request) {
	month, ok := s.monthParam(w, r, "month")
	if !ok {
		return
	}
	sum, err := s.Reporting.Summary(r.Context(), "", month)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, summaryFromDomain(sum))
}

func (s *Server) demographics(w http.ResponseWriter, r *http.Request) {
	d, err := s.Reporting.Demographics(r.Context(), domain.TeamID(r.URL.Query().Get("teamId")))
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, demographicsFromDomain(d))
}

func (s *Server) monthlyTotals(w http.ResponseWriter, r *http.Request) {
	year, ok := intParam(w, r, "year", s.now().Year())
	if !ok {
		return
	}
	teamID := domain.TeamID(r.URL.Query().Get("teamId"))
	rows, err := s.Dues.MonthlyTotals(r.Context(), teamID, year)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	out := MonthlyTotalsResponse{TeamId: string(teamID), Year: year, Months: make([]MonthTotal, 0, len(rows))}
	for _, row := range rows {
		out.Months = append(out.Months, MonthTotal{Month: row.Month, Total: money(row.Total)})
	}
	writeJSON(w, http.StatusOK, out)
}

// arrearsDigest builds and publishes the reminder digest on demand, the same job the
// scheduler runs.
func (s *Server) arrearsDigest(w http.ResponseWriter, r *http.Request) {
	month, ok := s.monthParam(w, r, "month")
	if !ok {
		return
	}
	d, err := s.Reporting.ArrearsDigest(r.Context(), month)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, d)
}
