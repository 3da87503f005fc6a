package eventbus

import (
	"context"
	"sync"

	"github.com/mfc-unidade/treasury-api/internal/ports/out/eventbus"
)

// Recorder keeps published messages in memory. Used by tests and by
// EVENT_BUS=memory for local runs.
// It is safe for concurrent use.
type Recorder struct {
	mu   sync.Mutex
	msgs []eventbus.Message
}

func NewRecorder() *Recorder { return &Recorder{} }

func (r *Recorder) Publish(ctx context.Context, msg eventbus.Message) error {
	_ = ctx
	r.mu.Lock()
	defer r.mu.Unlock()
	r.msgs = append(r.msgs, msg)
	return nil
}

// Messages returns a copy of everything published so far.
func (r *Recorder) Messages() []eventbus.Message {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]eventbus.Message(nil), r.msgs...)
}

// Topic returns the published messages for one topic, in publish order.
func (r *Recorder) Topic(topic string) []eventbus.Message {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []eventbus.Message
	for _, m := range r.msgs {
		if m.Topic == topic {
			out = append(out, m)
		}
	}
	return out
}
