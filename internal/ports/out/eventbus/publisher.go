package eventbus

import (
	"context"
	"time"
)

const (
	TopicPaymentLaunched = "dues.payment_launched"
	TopicUnitToggled     = "dues.unit_toggled"
	TopicSaleRecorded    = "fundraising.sale_recorded"
	TopicArrearsDigest   = "reporting.arrears_digest"
)

// Message is a ledger notification. Payload must be JSON-serializable.
type Message struct {
	Topic      string
	Key        string
	OccurredAt time.Time
	Payload    any
}

// Publisher delivers ledger notifications to interested parties.
// Publishing happens after the ledger write has been committed; a publish
// failure never rolls the write back.
type Publisher interface {
	Publish(ctx context.Context, msg Message) error
}

// Discard drops every message. It is used when no bus is configured.
type Discard struct{}

func (Discard) Publish(context.Context, Message) error { return nil }
