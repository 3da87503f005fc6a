package httpapi

import (
	"net/http"

	"github.com/shopspring/decimal"

	"github.com/mfc-unidade/treasury-api/internal/app/dues"
	"github.com/mfc-unidade/treasury-api/internal/domain"
)

func (s *Server) memberDues(w http.ResponseWriter, r *http.Request) {
	month, ok := s.monthParam(w, r, "month")
	if !ok {
		return
	}
	ctx := r.Context()
	unit, err := s.Dues.UnitForMember(ctx, memberIDParam(r))
	if err != nil {
		s.fail(w, r, err)
		return
	}
	paid, err := s.Dues.IsUnitPaid(ctx, unit, month)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	total, err := s.Dues.UnitMonthTotal(ctx, unit, month)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, MemberDuesResponse{
		MemberId:  string(memberIDParam(r)),
		Unit:      unitFromDomain(unit, s.Dues.UnitMonthlyDue(unit)),
		Month:     month,
		Paid:      paid,
		PaidTotal: money(total),
	})
}

func (s *Server) memberArrears(w http.ResponseWriter, r *http.Request) {
	upto, ok := s.monthParam(w, r, "upto")
	if !ok {
		return
	}
	ctx := r.Context()
	unit, err := s.Dues.UnitForMember(ctx, memberIDParam(r))
	if err != nil {
		s.fail(w, r, err)
		return
	}
	pending, err := s.Dues.PendingMonths(ctx, unit, upto)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, ArrearsResponse{
		MemberId:      string(memberIDParam(r)),
		Unit:          unitFromDomain(unit, s.Dues.UnitMonthlyDue(unit)),
		Upto:          upto,
		PendingMonths: pending,
		Count:         len(pending),
	})
}

func (s *Server) launchPayment(w http.ResponseWriter, r *http.Request) {
	var body LaunchPaymentRequest
	if !decodeBody(w, r, &body) {
		return
	}
	memberID := memberIDParam(r)
	canon := struct {
		MemberId string               `json:"memberId"`
		Body     LaunchPaymentRequest `json:"body"`
	}{MemberId: string(memberID), Body: body}

	s.idempotent(w, r, "/members/{memberId}/payments", canon, func() (int, any, error) {
		ctx := r.Context()
		unit, err := s.Dues.UnitForMember(ctx, memberID)
		if err != nil {
			return 0, nil, err
		}
		op, _ := OperatorFromContext(ctx)
		in := dues.LaunchPaymentInput{
			Unit:       unit,
			Month:      body.Month,
			Amount:     decimal.Zero,
			RecordedBy: op,
		}
		if body.Amount != nil {
			in.Amount = *body.Amount
			if !in.Amount.IsPositive() {
				return 0, nil, &dues.Error{
					Status:  http.StatusUnprocessableEntity,
					Code:    "VALIDATION_ERROR",
					Message: "invalid amount",
					Details: map[string]any{"amount": "must be greater than zero when given"},
				}
			}
		}
		if body.PaidOn != nil {
			in.PaidOn = body.PaidOn.Time
		}
		ps, err := s.Dues.LaunchPayment(ctx, in)
		if err != nil {
			return 0, nil, err
		}
		return http.StatusCreated, paymentsResponse(unit, s.Dues.UnitMonthlyDue(unit), ps), nil
	})
}

func (s *Server) recordExemption(w http.ResponseWriter, r *http.Request) {
	var body ExemptionRequest
	if !decodeBody(w, r, &body) {
		return
	}
	ctx := r.Context()
	unit, err := s.Dues.UnitForMember(ctx, memberIDParam(r))
	if err != nil {
		s.fail(w, r, err)
		return
	}
	op, _ := OperatorFromContext(ctx)
	ps, err := s.Dues.RecordExemption(ctx, unit, body.Month, op)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, paymentsResponse(unit, s.Dues.UnitMonthlyDue(unit), ps))
}

func (s *Server) toggleUnitActive(w http.ResponseWriter, r *http.Request) {
	var body ToggleUnitRequest
	if !decodeBody(w, r, &body) {
		return
	}
	if body.Active == nil {
		validationFailed(w, r, "active", "required")
		return
	}
	ctx := r.Context()
	unit, err := s.Dues.UnitForMember(ctx, memberIDParam(r))
	if err != nil {
		s.fail(w, r, err)
		return
	}
	if err := s.Dues.ToggleUnitActive(ctx, unit, *body.Active); err != nil {
		s.fail(w, r, err)
		return
	}
	// Re-resolve so the response reflects the stored flag.
	unit, err = s.Dues.UnitForMember(ctx, memberIDParam(r))
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"unit": unitFromDomain(unit, s.Dues.UnitMonthlyDue(unit))})
}

func paymentsResponse(unit domain.BillingUnit, due decimal.Decimal, ps []domain.DuesPayment) PaymentsResponse {
	total := decimal.Zero
	for _, p := range ps {
		total = total.Add(p.Amount)
	}
	return PaymentsResponse{
		Unit:     unitFromDomain(unit, due),
		Total:    money(total),
		Payments: paymentsFromDomain(ps),
	}
}
