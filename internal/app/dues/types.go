package dues

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/mfc-unidade/treasury-api/internal/domain"
)

// RatePolicy decides how much one billing unit owes per month.
type RatePolicy struct {
	PerMember decimal.Decimal
	// CoupleRate, when set, replaces PerMember×2 for couples.
	CoupleRate *decimal.Decimal
}

func DefaultRatePolicy() RatePolicy {
	return RatePolicy{PerMember: decimal.RequireFromString("15.00")}
}

type LaunchPaymentInput struct {
	Unit  domain.BillingUnit
	Month domain.RefMonth
	// Amount is the total for the whole launch. Zero means "whatever the unit owes".
	Amount decimal.Decimal
	// PaidOn defaults to today.
	PaidOn     time.Time
	RecordedBy domain.OperatorID
}

// UnitStatus is one row of a team's monthly dues sheet.
type UnitStatus struct {
	Unit            domain.BillingUnit
	Due             decimal.Decimal
	Paid            bool
	PaymentInactive bool
	// PendingMonths lists unpaid months from January through the requested month.
	PendingMonths []domain.RefMonth
}

type MonthTotal struct {
	Month domain.RefMonth
	Total decimal.Decimal
}

// PaymentLaunched is the payload published after a launch or exemption.
type PaymentLaunched struct {
	UnitKey    string            `json:"unitKey"`
	TeamID     domain.TeamID     `json:"teamId,omitempty"`
	Month      domain.RefMonth   `json:"month"`
	Status     string            `json:"status"`
	MemberIDs  []domain.MemberID `json:"memberIds"`
	Total      string            `json:"total"`
	RecordedBy domain.OperatorID `json:"recordedBy"`
}

type UnitToggled struct {
	UnitKey   string            `json:"unitKey"`
	MemberIDs []domain.MemberID `json:"memberIds"`
	Active    bool              `json:"active"`
}
