package source

import (
	"time"

	"github.com/rickgao/overlay-monitor/internal/metrics"
)

// Fake is an in-memory Source for tests.
type Fake struct {
	queue
	metrics *metrics.Relay
	now     func() time.Time
}

// NewFake creates an empty Fake. m may be nil.
func NewFake(m *metrics.Relay) *Fake {
	if m == nil {
		m = &metrics.Relay{}
	}
	return &Fake{queue: newQueue(8), metrics: m, now: time.Now}
}

// Push buffers payload as if it arrived on topic.
func (f *Fake) Push(topic string, payload []byte) Message {
	msg, ok := f.push(topic, payload, f.now())
	if ok {
		f.metrics.MessagesSourced.Add(1)
	}
	return msg
}

// Close stops accepting messages. Buffered messages remain receivable.
func (f *Fake) Close() error {
	f.buf.Close()
	return nil
}

var _ Source = (*Fake)(nil)
