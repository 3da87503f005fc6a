package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// EventTeamQuota is a team-specific fundraising target contributing to an event goal.
type EventTeamQuota struct {
	TeamID TeamID
	Target decimal.Decimal
}

type Expense struct {
	ID          ExpenseID
	Description string
	Amount      decimal.Decimal
	CreatedAt   time.Time
}

type Event struct {
	ID   EventID
	Name string
	Date time.Time // date-only semantics

	Goal     decimal.Decimal
	Expenses []Expense

	// Ticket fields are informational; sales are not checked against them.
	TicketQuantity *int
	TicketPrice    *decimal.Decimal

	IsActive        bool
	ShowOnDashboard bool

	Quotas []EventTeamQuota

	CreatedAt time.Time
	UpdatedAt time.Time
}

// TotalCost is always the live sum of the itemized expenses.
func (e Event) TotalCost() decimal.Decimal {
	total := decimal.Zero
	for _, x := range e.Expenses {
		total = total.Add(x.Amount)
	}
	return RoundMoney(total)
}

// QuotaFor returns the team's target, or zero when the team has no quota entry.
func (e Event) QuotaFor(teamID TeamID) decimal.Decimal {
	for _, q := range e.Quotas {
		if q.TeamID == teamID {
			return q.Target
		}
	}
	return decimal.Zero
}

type SaleStatus string

const (
	SaleStatusPaid    SaleStatus = "PAID"
	SaleStatusPending SaleStatus = "PENDING"
)

func (s SaleStatus) Valid() bool {
	return s == SaleStatusPaid || s == SaleStatusPending
}

// EventSale records one ticket/product sale made by a team member to an external buyer.
type EventSale struct {
	ID       SaleID
	EventID  EventID
	TeamID   TeamID
	MemberID MemberID

	BuyerName string
	Amount    decimal.Decimal
	Status    SaleStatus
	SoldOn    time.Time // date-only semantics

	CreatedAt time.Time
}
