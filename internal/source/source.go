package source

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/rickgao/overlay-monitor/internal/router"
)

// ErrClosed is returned by Receive once the source is closed and drained.
var ErrClosed = errors.New("source closed")

// Message is one payload waiting for delivery.
type Message struct {
	ID         uuid.UUID
	Topic      string
	Payload    []byte
	ReceivedAt time.Time
	Attempt    int // Deliveries so far
}

// Source yields messages one at a time.
type Source interface {
	// Receive blocks until a message is available, ctx is done or the
	// source is closed and drained.
	Receive(ctx context.Context) (Message, error)

	// Requeue puts msg back at the tail. Returns false once closed.
	Requeue(msg Message) bool

	// Len returns the number of buffered messages.
	Len() int

	Close() error
}

// queue is the buffered FIFO shared by the implementations.
type queue struct {
	buf *router.GrowableBuffer[Message]
}

func newQueue(size int) queue {
	return queue{buf: router.NewGrowableBuffer[Message](size)}
}

func (q queue) push(topic string, payload []byte, at time.Time) (Message, bool) {
	msg := Message{
		ID:         uuid.New(),
		Topic:      topic,
		Payload:    payload,
		ReceivedAt: at,
	}
	return msg, q.buf.Send(msg)
}

func (q queue) Receive(ctx context.Context) (Message, error) {
	msg, ok := q.buf.Receive(ctx)
	if ok {
		return msg, nil
	}
	if err := ctx.Err(); err != nil {
		return Message{}, err
	}
	return Message{}, ErrClosed
}

func (q queue) Requeue(msg Message) bool {
	return q.buf.Send(msg)
}

func (q queue) Len() int {
	return q.buf.Len()
}
