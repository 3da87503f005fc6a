package domain

// OperatorID identifies the administrative user recording ledger entries.
// It is an opaque identifier supplied by whatever layer authenticates operators.
type OperatorID string

// MemberID is an internal identifier for a member record.
type MemberID string

// TeamID is an internal identifier for a team ("equipe base").
type TeamID string

// EventID is an internal identifier for a fundraising event.
type EventID string

// PaymentID is an internal identifier for a dues payment record.
type PaymentID string

// SaleID is an internal identifier for an event sale record.
type SaleID string

// ExpenseID is an internal identifier for an itemized event expense.
type ExpenseID string
