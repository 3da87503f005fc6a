package httpapi

import (
	"net/http"
	"strings"

	"github.com/mfc-unidade/treasury-api/internal/app/fundraising"
	"github.com/mfc-unidade/treasury-api/internal/domain"
)

func (s *Server) listEvents(w http.ResponseWriter, r *http.Request) {
	dashboardOnly := strings.EqualFold(r.URL.Query().Get("dashboard"), "true")
	es, err := s.Fundraising.ListEvents(r.Context(), dashboardOnly)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	out := make([]Event, 0, len(es))
	for _, e := range es {
		out = append(out, eventFromDomain(e))
	}
	writeJSON(w, http.StatusOK, map[string]any{"events": out})
}

func (s *Server) createEvent(w http.ResponseWriter, r *http.Request) {
	var body CreateEventRequest
	if !decodeBody(w, r, &body) {
		return
	}
	e, err := s.Fundraising.CreateEvent(r.Context(), fundraising.CreateEventInput{
		Name:            body.Name,
		Date:            body.Date.Time,
		Goal:            body.Goal,
		TicketQuantity:  body.TicketQuantity,
		TicketPrice:     body.TicketPrice,
		ShowOnDashboard: body.ShowOnDashboard,
	})
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]any{"event": eventFromDomain(e)})
}

func (s *Server) getEvent(w http.ResponseWriter, r *http.Request) {
	e, err := s.Fundraising.GetEvent(r.Context(), eventIDParam(r))
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"event": eventFromDomain(e)})
}

func (s *Server) eventStats(w http.ResponseWriter, r *http.Request) {
	id := eventIDParam(r)
	st, err := s.Fundraising.EventStats(r.Context(), id)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, eventStatsFromDomain(id, st))
}

func (s *Server) teamEventStats(w http.ResponseWriter, r *http.Request) {
	id := eventIDParam(r)
	st, err := s.Fundraising.TeamEventStats(r.Context(), id, teamIDParam(r))
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, teamEventStatsFromDomain(id, st))
}

func (s *Server) listSales(w http.ResponseWriter, r *http.Request) {
	ss, err := s.Fundraising.ListSales(r.Context(), eventIDParam(r))
	if err != nil {
		s.fail(w, r, err)
		return
	}
	out := make([]Sale, 0, len(ss))
	for _, sale := range ss {
		out = append(out, saleFromDomain(sale))
	}
	writeJSON(w, http.StatusOK, map[string]any{"sales": out})
}

func (s *Server) recordSale(w http.ResponseWriter, r *http.Request) {
	var body RecordSaleRequest
	if !decodeBody(w, r, &body) {
		return
	}
	id := eventIDParam(r)
	canon := body
	canon.BuyerName = domain.NormalizeHumanName(canon.BuyerName)
	hashed := struct {
		EventId string            `json:"eventId"`
		Body    RecordSaleRequest `json:"body"`
	}{EventId: string(id), Body: canon}

	s.idempotent(w, r, "/events/{eventId}/sales", hashed, func() (int, any, error) {
		in := fundraising.RecordSaleInput{
			EventID:   id,
			TeamID:    domain.TeamID(body.TeamId),
			MemberID:  domain.MemberID(body.MemberId),
			BuyerName: body.BuyerName,
			Amount:    body.Amount,
			Status:    domain.SaleStatus(body.Status),
		}
		if body.SoldOn != nil {
			in.SoldOn = body.SoldOn.Time
		}
		sale, err := s.Fundraising.RecordSale(r.Context(), in)
		if err != nil {
			return 0, nil, err
		}
		return http.StatusCreated, map[string]any{"sale": saleFromDomain(sale)}, nil
	})
}

func (s *Server) addExpense(w http.ResponseWriter, r *http.Request) {
	var body AddExpenseRequest
	if !decodeBody(w, r, &body) {
		return
	}
	e, err := s.Fundraising.AddExpense(r.Context(), eventIDParam(r), body.Description, body.Amount)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]any{"event": eventFromDomain(e)})
}

func (s *Server) setTeamQuota(w http.ResponseWriter, r *http.Request) {
	var body SetQuotaRequest
	if !decodeBody(w, r, &body) {
		return
	}
	e, err := s.Fundraising.SetTeamQuota(r.Context(), eventIDParam(r), teamIDParam(r), body.Target)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"event": eventFromDomain(e)})
}

func (s *Server) setEventFlags(w http.ResponseWriter, r *http.Request) {
	var body SetFlagsRequest
	if !decodeBody(w, r, &body) {
		return
	}
	ctx := r.Context()
	id := eventIDParam(r)
	current, err := s.Fundraising.GetEvent(ctx, id)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	active, dashboard := current.IsActive, current.ShowOnDashboard
	if body.IsActive != nil {
		active = *body.IsActive
	}
	if body.ShowOnDashboard != nil {
		dashboard = *body.ShowOnDashboard
	}
	e, err := s.Fundraising.SetEventFlags(ctx, id, active, dashboard)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"event": eventFromDomain(e)})
}
