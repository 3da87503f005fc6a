package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

type PaymentStatus string

const (
	PaymentStatusPaid    PaymentStatus = "PAID"
	PaymentStatusPending PaymentStatus = "PENDING"
	PaymentStatusExempt  PaymentStatus = "EXEMPT"
)

// Settles reports whether a record with this status satisfies a member's
// obligation for its month. Exempt counts as satisfied.
func (s PaymentStatus) Settles() bool {
	return s == PaymentStatusPaid || s == PaymentStatusExempt
}

// DuesPayment is an immutable fact in the dues ledger.
type DuesPayment struct {
	ID       PaymentID
	MemberID MemberID
	TeamID   TeamID

	Amount decimal.Decimal
	PaidOn time.Time // date-only semantics
	Month  RefMonth
	Status PaymentStatus

	RecordedBy OperatorID
	CreatedAt  time.Time
}
