package reporting

import (
	"github.com/shopspring/decimal"

	"github.com/mfc-unidade/treasury-api/internal/domain"
)

// Summary is the dues pie for one team (or the whole organization) and month.
type Summary struct {
	TeamID domain.TeamID
	Month  domain.RefMonth

	TotalUnits    int
	ActiveUnits   int
	PaidUnits     int
	PendingUnits  int
	InactiveUnits int

	// CollectionRate is PaidUnits/ActiveUnits×100, zero without active units.
	CollectionRate decimal.Decimal
}

type AgeBand string

const (
	AgeBandChild   AgeBand = "0-12"
	AgeBandTeen    AgeBand = "13-18"
	AgeBandAdult   AgeBand = "19-59"
	AgeBandSenior  AgeBand = "60+"
	AgeBandUnknown AgeBand = "UNKNOWN"
)

// AgeBands lists bands in display order.
var AgeBands = []AgeBand{AgeBandChild, AgeBandTeen, AgeBandAdult, AgeBandSenior, AgeBandUnknown}

type TenureBand string

const (
	TenureUnder5  TenureBand = "<5"
	Tenure5To9    TenureBand = "5-9"
	Tenure10To24  TenureBand = "10-24"
	Tenure25Plus  TenureBand = "25+"
	TenureUnknown TenureBand = "UNKNOWN"
)

var TenureBands = []TenureBand{TenureUnder5, Tenure5To9, Tenure10To24, Tenure25Plus, TenureUnknown}

type AgeBucket struct {
	Band        AgeBand
	Female      int
	Male        int
	Unspecified int
}

func (b AgeBucket) Total() int { return b.Female + b.Male + b.Unspecified }

type TenureCount struct {
	Band  TenureBand
	Count int
}

type BirthdayMonth struct {
	Month   int
	Members []domain.Member
}

// Demographics bundles the profile charts for a roster.
type Demographics struct {
	TeamID    domain.TeamID
	Members   int
	Age       []AgeBucket
	Tenure    []TenureCount
	Birthdays []BirthdayMonth
}

type TeamArrears struct {
	TeamID       domain.TeamID `json:"teamId"`
	TeamName     string        `json:"teamName"`
	ActiveUnits  int           `json:"activeUnits"`
	PendingUnits int           `json:"pendingUnits"`
	// PendingUnitKeys identifies the units still owing for the month.
	PendingUnitKeys []string `json:"pendingUnitKeys"`
}

// ArrearsDigest is the reminder payload published by the scheduled job.
type ArrearsDigest struct {
	Month domain.RefMonth `json:"month"`
	Teams []TeamArrears   `json:"teams"`
}
