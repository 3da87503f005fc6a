package httpapi

import (
	"time"

	"github.com/oapi-codegen/nullable"
	openapi_types "github.com/oapi-codegen/runtime/types"
	"github.com/shopspring/decimal"

	"github.com/mfc-unidade/treasury-api/internal/app/dues"
	"github.com/mfc-unidade/treasury-api/internal/app/fundraising"
	"github.com/mfc-unidade/treasury-api/internal/app/reporting"
	"github.com/mfc-unidade/treasury-api/internal/domain"
)

// Money travels as a fixed two-decimal string ("30.00").

type Team struct {
	TeamId    string    `json:"teamId"`
	Name      string    `json:"name"`
	City      string    `json:"city"`
	IsYouth   bool      `json:"isYouth"`
	CreatedAt time.Time `json:"createdAt"`
}

type CreateTeamRequest struct {
	Name    string `json:"name"`
	City    string `json:"city"`
	IsYouth bool   `json:"isYouth"`
}

type Member struct {
	MemberId        string                                `json:"memberId"`
	DisplayName     string                                `json:"displayName"`
	Nickname        nullable.Nullable[string]             `json:"nickname"`
	SpouseName      nullable.Nullable[string]             `json:"spouseName"`
	TeamId          nullable.Nullable[string]             `json:"teamId"`
	PaymentInactive bool                                  `json:"paymentInactive"`
	Status          string                                `json:"status"`
	Gender          string                                `json:"gender"`
	DateOfBirth     nullable.Nullable[openapi_types.Date] `json:"dateOfBirth"`
	JoinedAt        nullable.Nullable[openapi_types.Date] `json:"joinedAt"`
	CreatedAt       time.Time                             `json:"createdAt"`
	UpdatedAt       time.Time                             `json:"updatedAt"`
}

type RegisterMemberRequest struct {
	DisplayName string              `json:"displayName"`
	Nickname    string              `json:"nickname,omitempty"`
	SpouseName  string              `json:"spouseName,omitempty"`
	TeamId      string              `json:"teamId,omitempty"`
	Status      string              `json:"status,omitempty"`
	Gender      string              `json:"gender,omitempty"`
	DateOfBirth *openapi_types.Date `json:"dateOfBirth,omitempty"`
	JoinedAt    *openapi_types.Date `json:"joinedAt,omitempty"`
}

// UpdateMemberRequest distinguishes omitted fields from explicit nulls.
type UpdateMemberRequest struct {
	DisplayName nullable.Nullable[string]             `json:"displayName,omitempty"`
	Nickname    nullable.Nullable[string]             `json:"nickname,omitempty"`
	SpouseName  nullable.Nullable[string]             `json:"spouseName,omitempty"`
	TeamId      nullable.Nullable[string]             `json:"teamId,omitempty"`
	Status      nullable.Nullable[string]             `json:"status,omitempty"`
	Gender      nullable.Nullable[string]             `json:"gender,omitempty"`
	DateOfBirth nullable.Nullable[openapi_types.Date] `json:"dateOfBirth,omitempty"`
	JoinedAt    nullable.Nullable[openapi_types.Date] `json:"joinedAt,omitempty"`
}

type MemberSummary struct {
	MemberId    string `json:"memberId"`
	DisplayName string `json:"displayName"`
}

type Unit struct {
	Key             string          `json:"key"`
	Kind            string          `json:"kind"`
	TeamId          string          `json:"teamId,omitempty"`
	Members         []MemberSummary `json:"members"`
	PaymentInactive bool            `json:"paymentInactive"`
	MonthlyDue      string          `json:"monthlyDue"`
}

type UnitDuesRow struct {
	Unit          Unit              `json:"unit"`
	Paid          bool              `json:"paid"`
	PendingMonths []domain.RefMonth `json:"pendingMonths"`
	PendingCount  int               `json:"pendingCount"`
}

type TeamDuesResponse struct {
	TeamId string          `json:"teamId"`
	Month  domain.RefMonth `json:"month"`
	Units  []UnitDuesRow   `json:"units"`
}

type MemberDuesResponse struct {
	MemberId  string          `json:"memberId"`
	Unit      Unit            `json:"unit"`
	Month     domain.RefMonth `json:"month"`
	Paid      bool            `json:"paid"`
	PaidTotal string          `json:"paidTotal"`
}

type ArrearsResponse struct {
	MemberId      string            `json:"memberId"`
	Unit          Unit              `json:"unit"`
	Upto          domain.RefMonth   `json:"upto"`
	PendingMonths []domain.RefMonth `json:"pendingMonths"`
	Count         int               `json:"count"`
}

type LaunchPaymentRequest struct {
	Month domain.RefMonth `json:"month"`

	// Amount is optional; omitted means the unit's outstanding due.
	Amount *decimal.Decimal    `json:"amount,omitempty"`
	PaidOn *openapi_types.Date `json:"paidOn,omitempty"`
}

type ExemptionRequest struct {
	Month domain.RefMonth `json:"month"`
}

type ToggleUnitRequest struct {
	Active *bool `json:"active"`
}

type Payment struct {
	PaymentId  string             `json:"paymentId"`
	MemberId   string             `json:"memberId"`
	TeamId     string             `json:"teamId,omitempty"`
	Amount     string             `json:"amount"`
	PaidOn     openapi_types.Date `json:"paidOn"`
	Month      domain.RefMonth    `json:"month"`
	Status     string             `json:"status"`
	RecordedBy string             `json:"recordedBy"`
	CreatedAt  time.Time          `json:"createdAt"`
}

type PaymentsResponse struct {
	Unit     Unit      `json:"unit"`
	Total    string    `json:"total"`
	Payments []Payment `json:"payments"`
}

type PaymentHistoryResponse struct {
	TeamId   string    `json:"teamId"`
	Payments []Payment `json:"payments"`
}

type Summary struct {
	TeamId         string          `json:"teamId,omitempty"`
	Month          domain.RefMonth `json:"month"`
	TotalUnits     int             `json:"totalUnits"`
	ActiveUnits    int             `json:"activeUnits"`
	PaidUnits      int             `json:"paidUnits"`
	PendingUnits   int             `json:"pendingUnits"`
	InactiveUnits  int             `json:"inactiveUnits"`
	CollectionRate string          `json:"collectionRate"`
}

type MonthTotal struct {
	Month domain.RefMonth `json:"month"`
	Total string          `json:"total"`
}

type MonthlyTotalsResponse struct {
	TeamId string       `json:"teamId,omitempty"`
	Year   int          `json:"year"`
	Months []MonthTotal `json:"months"`
}

type AgeBucket struct {
	Band        string `json:"band"`
	Female      int    `json:"female"`
	Male        int    `json:"male"`
	Unspecified int    `json:"unspecified"`
	Total       int    `json:"total"`
}

type TenureBucket struct {
	Band  string `json:"band"`
	Count int    `json:"count"`
}

type BirthdayMonth struct {
	Month   int             `json:"month"`
	Members []MemberSummary `json:"members"`
}

type DemographicsResponse struct {
	TeamId    string          `json:"teamId,omitempty"`
	Members   int             `json:"members"`
	Age       []AgeBucket     `json:"age"`
	Tenure    []TenureBucket  `json:"tenure"`
	Birthdays []BirthdayMonth `json:"birthdays"`
}

type CreateEventRequest struct {
	Name            string             `json:"name"`
	Date            openapi_types.Date `json:"date"`
	Goal            decimal.Decimal    `json:"goal"`
	TicketQuantity  *int               `json:"ticketQuantity,omitempty"`
	TicketPrice     *decimal.Decimal   `json:"ticketPrice,omitempty"`
	ShowOnDashboard bool               `json:"showOnDashboard"`
}

type Quota struct {
	TeamId string `json:"teamId"`
	Target string `json:"target"`
}

type Expense struct {
	ExpenseId   string    `json:"expenseId"`
	Description string    `json:"description"`
	Amount      string    `json:"amount"`
	CreatedAt   time.Time `json:"createdAt"`
}

type Event struct {
	EventId         string                    `json:"eventId"`
	Name            string                    `json:"name"`
	Date            openapi_types.Date        `json:"date"`
	Goal            string                    `json:"goal"`
	TotalCost       string                    `json:"totalCost"`
	TicketQuantity  nullable.Nullable[int]    `json:"ticketQuantity"`
	TicketPrice     nullable.Nullable[string] `json:"ticketPrice"`
	IsActive        bool                      `json:"isActive"`
	ShowOnDashboard bool                      `json:"showOnDashboard"`
	Quotas          []Quota                   `json:"quotas"`
	Expenses        []Expense                 `json:"expenses"`
	CreatedAt       time.Time                 `json:"createdAt"`
	UpdatedAt       time.Time                 `json:"updatedAt"`
}

type EventStats struct {
	EventId     string `json:"eventId"`
	Goal        string `json:"goal"`
	TotalCost   string `json:"totalCost"`
	Raised      string `json:"raised"`
	PaidRaised  string `json:"paidRaised"`
	ProgressPct string `json:"progressPct"`
	NetMargin   string `json:"netMargin"`
	SaleCount   int    `json:"saleCount"`
}

type TeamEventStats struct {
	EventId     string `json:"eventId"`
	TeamId      string `json:"teamId"`
	TeamQuota   string `json:"teamQuota"`
	Raised      string `json:"raised"`
	PaidRaised  string `json:"paidRaised"`
	ProgressPct string `json:"progressPct"`
}

type RecordSaleRequest struct {
	TeamId    string              `json:"teamId"`
	MemberId  string              `json:"memberId"`
	BuyerName string              `json:"buyerName"`
	Amount    decimal.Decimal     `json:"amount"`
	Status    string              `json:"status,omitempty"`
	SoldOn    *openapi_types.Date `json:"soldOn,omitempty"`
}

type Sale struct {
	SaleId    string             `json:"saleId"`
	EventId   string             `json:"eventId"`
	TeamId    string             `json:"teamId"`
	MemberId  string             `json:"memberId"`
	BuyerName string             `json:"buyerName"`
	Amount    string             `json:"amount"`
	Status    string             `json:"status"`
	SoldOn    openapi_types.Date `json:"soldOn"`
	CreatedAt time.Time          `json:"createdAt"`
}

type AddExpenseRequest struct {
	Description string          `json:"description"`
	Amount      decimal.Decimal `json:"amount"`
}

type SetQuotaRequest struct {
	Target decimal.Decimal `json:"target"`
}

// SetFlagsRequest leaves a flag unchanged when it is omitted.
type SetFlagsRequest struct {
	IsActive        *bool `json:"isActive,omitempty"`
	ShowOnDashboard *bool `json:"showOnDashboard,omitempty"`
}

func money(d decimal.Decimal) string { return d.StringFixed(2) }

func nullableString(s string) nullable.Nullable[string] {
	var out nullable.Nullable[string]
	if s == "" {
		out.SetNull()
	} else {
		out.Set(s)
	}
	return out
}

func nullableDate(p *time.Time) nullable.Nullable[openapi_types.Date] {
	var out nullable.Nullable[openapi_types.Date]
	if p != nil {
		out.Set(openapi_types.Date{Time: p.UTC()})
	} else {
		out.SetNull()
	}
	return out
}

func teamFromDomain(t domain.Team) Team {
	return Team{TeamId: string(t.ID), Name: t.Name, City: t.City, IsYouth: t.IsYouth, CreatedAt: t.CreatedAt}
}

func memberFromDomain(m domain.Member) Member {
	return Member{
		MemberId:        string(m.ID),
		DisplayName:     m.DisplayName,
		Nickname:        nullableString(m.Nickname),
		SpouseName:      nullableString(m.SpouseName),
		TeamId:          nullableString(string(m.TeamID)),
		PaymentInactive: m.PaymentInactive,
		Status:          string(m.Status),
		Gender:          string(m.Gender),
		DateOfBirth:     nullableDate(m.DateOfBirth),
		JoinedAt:        nullableDate(m.JoinedAt),
		CreatedAt:       m.CreatedAt,
		UpdatedAt:       m.UpdatedAt,
	}
}

func memberSummaries(ms []domain.Member) []MemberSummary {
	out := make([]MemberSummary, 0, len(ms))
	for _, m := range ms {
		out = append(out, MemberSummary{MemberId: string(m.ID), DisplayName: m.DisplayName})
	}
	return out
}

func unitFromDomain(u domain.BillingUnit, due decimal.Decimal) Unit {
	return Unit{
		Key:             u.Key(),
		Kind:            string(u.Kind()),
		TeamId:          string(u.TeamID()),
		Members:         memberSummaries(u.Members()),
		PaymentInactive: u.PaymentInactive(),
		MonthlyDue:      money(due),
	}
}

func unitDuesRowFromDomain(st dues.UnitStatus) UnitDuesRow {
	return UnitDuesRow{
		Unit:          unitFromDomain(st.Unit, st.Due),
		Paid:          st.Paid,
		PendingMonths: st.PendingMonths,
		PendingCount:  len(st.PendingMonths),
	}
}

func paymentFromDomain(p domain.DuesPayment) Payment {
	return Payment{
		PaymentId:  string(p.ID),
		MemberId:   string(p.MemberID),
		TeamId:     string(p.TeamID),
		Amount:     money(p.Amount),
		PaidOn:     openapi_types.Date{Time: p.PaidOn},
		Month:      p.Month,
		Status:     string(p.Status),
		RecordedBy: string(p.RecordedBy),
		CreatedAt:  p.CreatedAt,
	}
}

func paymentsFromDomain(ps []domain.DuesPayment) []Payment {
	out := make([]Payment, 0, len(ps))
	for _, p := range ps {
		out = append(out, paymentFromDomain(p))
	}
	return out
}

func summaryFromDomain(s reporting.Summary) Summary {
	return Summary{
		TeamId:         string(s.TeamID),
		Month:          s.Month,
		TotalUnits:     s.TotalUnits,
		ActiveUnits:    s.ActiveUnits,
		PaidUnits:      s.PaidUnits,
		PendingUnits:   s.PendingUnits,
		InactiveUnits:  s.InactiveUnits,
		CollectionRate: money(s.CollectionRate),
	}
}

func demographicsFromDomain(d reporting.Demographics) DemographicsResponse {
	out := DemographicsResponse{
		TeamId:    string(d.TeamID),
		Members:   d.Members,
		Age:       make([]AgeBucket, 0, len(d.Age)),
		Tenure:    make([]TenureBucket, 0, len(d.Tenure)),
		Birthdays: make([]BirthdayMonth, 0, len(d.Birthdays)),
	}
	for _, b := range d.Age {
		out.Age = append(out.Age, AgeBucket{Band: string(b.Band), Female: b.Female, Male: b.Male, Unspecified: b.Unspecified, Total: b.Total()})
	}
	for _, b := range d.Tenure {
		out.Tenure = append(out.Tenure, TenureBucket{Band: string(b.Band), Count: b.Count})
	}
	for _, b := range d.Birthdays {
		out.Birthdays = append(out.Birthdays, BirthdayMonth{Month: b.Month, Members: memberSummaries(b.Members)})
	}
	return out
}

func eventFromDomain(e domain.Event) Event {
	out := Event{
		EventId:         string(e.ID),
		Name:            e.Name,
		Date:            openapi_types.Date{Time: e.Date},
		Goal:            money(e.Goal),
		TotalCost:       money(e.TotalCost()),
		IsActive:        e.IsActive,
		ShowOnDashboard: e.ShowOnDashboard,
		Quotas:          make([]Quota, 0, len(e.Quotas)),
		Expenses:        make([]Expense, 0, len(e.Expenses)),
		CreatedAt:       e.CreatedAt,
		UpdatedAt:       e.UpdatedAt,
	}
	if e.TicketQuantity != nil {
		out.TicketQuantity.Set(*e.TicketQuantity)
	} else {
		out.TicketQuantity.SetNull()
	}
	if e.TicketPrice != nil {
		out.TicketPrice.Set(money(*e.TicketPrice))
	} else {
		out.TicketPrice.SetNull()
	}
	for _, q := range e.Quotas {
		out.Quotas = append(out.Quotas, Quota{TeamId: string(q.TeamID), Target: money(q.Target)})
	}
	for _, x := range e.Expenses {
		out.Expenses = append(out.Expenses, Expense{ExpenseId: string(x.ID), Description: x.Description, Amount: money(x.Amount), CreatedAt: x.CreatedAt})
	}
	return out
}

func eventStatsFromDomain(id domain.EventID, s fundraising.EventStats) EventStats {
	return EventStats{
		EventId:     string(id),
		Goal:        money(s.Goal),
		TotalCost:   money(s.TotalCost),
		Raised:      money(s.Raised),
		PaidRaised:  money(s.PaidRaised),
		ProgressPct: money(s.ProgressPct),
		NetMargin:   money(s.NetMargin),
		SaleCount:   s.SaleCount,
	}
}

func teamEventStatsFromDomain(id domain.EventID, s fundraising.TeamEventStats) TeamEventStats {
	return TeamEventStats{
		EventId:     string(id),
		TeamId:      string(s.TeamID),
		TeamQuota:   money(s.TeamQuota),
		Raised:      money(s.Raised),
		PaidRaised:  money(s.PaidRaised),
		ProgressPct: money(s.ProgressPct),
	}
}

func saleFromDomain(s domain.EventSale) Sale {
	return Sale{
		SaleId:    string(s.ID),
		EventId:   string(s.EventID),
		TeamId:    string(s.TeamID),
		MemberId:  string(s.MemberID),
		BuyerName: s.BuyerName,
		Amount:    money(s.Amount),
		Status:    string(s.Status),
		SoldOn:    openapi_types.Date{Time: s.SoldOn},
		CreatedAt: s.CreatedAt,
	}
}
