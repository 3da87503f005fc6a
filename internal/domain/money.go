package domain

import (
	"strings"

	"github.com/shopspring/decimal"
)

var hundred = decimal.NewFromInt(100)

// RoundMoney rounds an amount to two decimal places (half away from zero).
func RoundMoney(d decimal.Decimal) decimal.Decimal {
	return d.Round(2)
}

// SumMoney adds amounts and rounds the result to cents.
func SumMoney(amounts ...decimal.Decimal) decimal.Decimal {
	total := decimal.Zero
	for _, a := range amounts {
		total = total.Add(a)
	}
	return RoundMoney(total)
}

// SplitMoney divides total into n shares of whole cents. The cent remainder is
// added to the first share so the shares always add back up to total.
func SplitMoney(total decimal.Decimal, n int) []decimal.Decimal {
	if n <= 0 {
		return nil
	}
	total = RoundMoney(total)
	share := total.Div(decimal.NewFromInt(int64(n))).RoundDown(2)
	out := make([]decimal.Decimal, n)
	for i := range out {
		out[i] = share
	}
	rest := total.Sub(share.Mul(decimal.NewFromInt(int64(n))))
	out[0] = out[0].Add(rest)
	return out
}

// ProgressPct returns raised/target*100 rounded to two places.
// A non-positive target yields zero rather than a division fault; the result
// is never negative and is not capped at 100.
func ProgressPct(raised, target decimal.Decimal) decimal.Decimal {
	if !target.IsPositive() || !raised.IsPositive() {
		return decimal.Zero
	}
	return raised.Div(target).Mul(hundred).Round(2)
}

// FormatMoney renders an amount the way the dashboard shows it: "R$ 1.234,56".
func FormatMoney(d decimal.Decimal) string {
	s := RoundMoney(d).StringFixed(2)
	neg := strings.HasPrefix(s, "-")
	s = strings.TrimPrefix(s, "-")
	intPart, frac, _ := strings.Cut(s, ".")

	var b strings.Builder
	for i, r := range intPart {
		if i > 0 && (len(intPart)-i)%3 == 0 {
			b.WriteByte('.')
		}
		b.WriteRune(r)
	}
	out := "R$ " + b.String() + "," + frac
	if neg {
		out = "-" + out
	}
	return out
}
