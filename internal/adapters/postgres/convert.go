package postgres

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Row is satisfied by pgx.Row and pgx.Rows.
type Row interface {
	Scan(dest ...any) error
}

// OptionalUUID maps an empty id to SQL NULL.
func OptionalUUID(id string) (*uuid.UUID, error) {
	if id == "" {
		return nil, nil
	}
	u, err := uuid.Parse(id)
	if err != nil {
		return nil, fmt.Errorf("invalid uuid %q: %w", id, err)
	}
	return &u, nil
}

func UUIDString(u *uuid.UUID) string {
	if u == nil {
		return ""
	}
	return u.String()
}

// Money values travel as text (amount::text on reads, $n::text::numeric on writes)
// so no precision is lost between numeric and decimal.Decimal.

func MoneyParam(d decimal.Decimal) string {
	return d.StringFixed(2)
}

func OptionalMoneyParam(d *decimal.Decimal) *string {
	if d == nil {
		return nil
	}
	s := MoneyParam(*d)
	return &s
}

func ParseMoney(s string) (decimal.Decimal, error) {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, fmt.Errorf("parse numeric %q: %w", s, err)
	}
	return d, nil
}

func ParseOptionalMoney(s *string) (*decimal.Decimal, error) {
	if s == nil {
		return nil, nil
	}
	d, err := ParseMoney(*s)
	if err != nil {
		return nil, err
	}
	return &d, nil
}

// DateOnly normalizes a date column value to midnight UTC.
func DateOnly(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func OptionalDate(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	v := DateOnly(*t)
	return &v
}
