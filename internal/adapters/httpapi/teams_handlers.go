package httpapi

import (
	"net/http"

	"github.com/mfc-unidade/treasury-api/internal/app/members"
)

func (s *Server) listTeams(w http.ResponseWriter, r *http.Request) {
	ts, err := s.Members.ListTeams(r.Context())
	if err != nil {
		s.fail(w, r, err)
		return
	}
	out := make([]Team, 0, len(ts))
	for _, t := range ts {
		out = append(out, teamFromDomain(t))
	}
	writeJSON(w, http.StatusOK, map[string]any{"teams": out})
}

func (s *Server) createTeam(w http.ResponseWriter, r *http.Request) {
	var body CreateTeamRequest
	if !decodeBody(w, r, &body) {
		return
	}
	t, err := s.Members.CreateTeam(r.Context(), members.CreateTeamInput{
		Name:    body.Name,
		City:    body.City,
		IsYouth: body.IsYouth,
	})
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]any{"team": teamFromDomain(t)})
}

func (s *Server) getTeam(w http.ResponseWriter, r *http.Request) {
	t, err := s.Members.GetTeam(r.Context(), teamIDParam(r))
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"team": teamFromDomain(t)})
}

func (s *Server) listTeamMembers(w http.ResponseWriter, r *http.Request) {
	ms, err := s.Members.ListTeamMembers(r.Context(), teamIDParam(r))
	if err != nil {
		s.fail(w, r, err)
		return
	}
	out := make([]Member, 0, len(ms))
	for _, m := range ms {
		out = append(out, memberFromDomain(m))
	}
	writeJSON(w, http.StatusOK, map[string]any{"members": out})
}

func (s *Server) listTeamUnits(w http.ResponseWriter, r *http.Request) {
	units, err := s.Dues.TeamUnits(r.Context(), teamIDParam(r))
	if err != nil {
		s.fail(w, r, err)
		return
	}
	out := make([]Unit, 0, len(units))
	for _, u := range units {
		out = append(out, unitFromDomain(u, s.Dues.UnitMonthlyDue(u)))
	}
	writeJSON(w, http.StatusOK, map[string]any{"units": out})
}

func (s *Server) teamDues(w http.ResponseWriter, r *http.Request) {
	month, ok := s.monthParam(w, r, "month")
	if !ok {
		return
	}
	teamID := teamIDParam(r)
	rows, err := s.Dues.TeamMonthStatus(r.Context(), teamID, month)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	out := TeamDuesResponse{TeamId: string(teamID), Month: month, Units: make([]UnitDuesRow, 0, len(rows))}
	for _, row := range rows {
		out.Units = append(out.Units, unitDuesRowFromDomain(row))
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) teamSummary(w http.ResponseWriter, r *http.Request) {
	month, ok := s.monthParam(w, r, "month")
	if !ok {
		return
	}
	sum, err := s.Reporting.Summary(r.Context(), teamIDParam(r), month)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, summaryFromDomain(sum))
}

func (s *Server) teamPayments(w http.ResponseWriter, r *http.Request) {
	limit, ok := intParam(w, r, "limit", 0)
	if !ok {
		return
	}
	teamID := teamIDParam(r)
	ps, err := s.Dues.PaymentHistory(r.Context(), teamID, limit)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, PaymentHistoryResponse{TeamId: string(teamID), Payments: paymentsFromDomain(ps)})
}
