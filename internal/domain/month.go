package domain

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"
)

var ErrInvalidMonth = errors.New("invalid reference month")

// RefMonth is the calendar month a dues payment refers to. Rendered as M/YYYY.
type RefMonth struct {
	Month int
	Year  int
}

func NewRefMonth(month, year int) (RefMonth, error) {
	m := RefMonth{Month: month, Year: year}
	if err := m.Validate(); err != nil {
		return RefMonth{}, err
	}
	return m, nil
}

// RefMonthOf returns the reference month containing t.
func RefMonthOf(t time.Time) RefMonth {
	return RefMonth{Month: int(t.Month()), Year: t.Year()}
}

// ParseRefMonth accepts "M/YYYY" and "MM/YYYY".
func ParseRefMonth(s string) (RefMonth, error) {
	parts := strings.Split(strings.TrimSpace(s), "/")
	if len(parts) != 2 {
		return RefMonth{}, fmt.Errorf("%w: %q (want M/YYYY)", ErrInvalidMonth, s)
	}
	month, err := strconv.Atoi(parts[0])
	if err != nil {
		return RefMonth{}, fmt.Errorf("%w: %q", ErrInvalidMonth, s)
	}
	year, err := strconv.Atoi(parts[1])
	if err != nil || len(parts[1]) != 4 {
		return RefMonth{}, fmt.Errorf("%w: %q", ErrInvalidMonth, s)
	}
	return NewRefMonth(month, year)
}

func (m RefMonth) Validate() error {
	if m.Month < 1 || m.Month > 12 {
		return fmt.Errorf("%w: month %d out of range 1-12", ErrInvalidMonth, m.Month)
	}
	if m.Year < 1900 || m.Year > 9999 {
		return fmt.Errorf("%w: year %d out of range", ErrInvalidMonth, m.Year)
	}
	return nil
}

func (m RefMonth) String() string {
	return fmt.Sprintf("%d/%04d", m.Month, m.Year)
}

func (m RefMonth) Before(o RefMonth) bool {
	if m.Year != o.Year {
		return m.Year < o.Year
	}
	return m.Month < o.Month
}

func (m RefMonth) Next() RefMonth {
	if m.Month == 12 {
		return RefMonth{Month: 1, Year: m.Year + 1}
	}
	return RefMonth{Month: m.Month + 1, Year: m.Year}
}

// YearToDate returns every month from January of m.Year through m, inclusive.
func (m RefMonth) YearToDate() []RefMonth {
	out := make([]RefMonth, 0, m.Month)
	for cur := (RefMonth{Month: 1, Year: m.Year}); !m.Before(cur); cur = cur.Next() {
		out = append(out, cur)
	}
	return out
}

func (m RefMonth) MarshalText() ([]byte, error) {
	return []byte(m.String()), nil
}

func (m *RefMonth) UnmarshalText(b []byte) error {
	v, err := ParseRefMonth(string(b))
	if err != nil {
		return err
	}
	*m = v
	return nil
}
