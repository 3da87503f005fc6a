package fundraising

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/mfc-unidade/treasury-api/internal/domain"
)

type CreateEventInput struct {
	Name string
	Date time.Time
	Goal decimal.Decimal

	TicketQuantity *int
	TicketPrice    *decimal.Decimal

	ShowOnDashboard bool
}

type RecordSaleInput struct {
	EventID   domain.EventID
	TeamID    domain.TeamID
	MemberID  domain.MemberID
	BuyerName string
	Amount    decimal.Decimal
	// Status defaults to PAID.
	Status domain.SaleStatus
	// SoldOn defaults to today.
	SoldOn time.Time
}

// EventStats is the event-wide fundraising rollup.
type EventStats struct {
	Goal      decimal.Decimal
	TotalCost decimal.Decimal

	// Raised counts every sale regardless of status; PaidRaised only PAID ones.
	Raised     decimal.Decimal
	PaidRaised decimal.Decimal

	// ProgressPct is Raised/Goal×100, zero when the goal is zero. Not capped at 100.
	ProgressPct decimal.Decimal
	NetMargin   decimal.Decimal
	SaleCount   int
}

type TeamEventStats struct {
	TeamID      domain.TeamID
	TeamQuota   decimal.Decimal
	Raised      decimal.Decimal
	PaidRaised  decimal.Decimal
	ProgressPct decimal.Decimal
}

// SaleRecorded is the payload published after a sale is appended.
type SaleRecorded struct {
	SaleID   domain.SaleID     `json:"saleId"`
	EventID  domain.EventID    `json:"eventId"`
	TeamID   domain.TeamID     `json:"teamId"`
	MemberID domain.MemberID   `json:"memberId"`
	Amount   string            `json:"amount"`
	Status   domain.SaleStatus `json:"status"`
}
