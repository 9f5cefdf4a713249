package writer

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
)

// ErrWriterStopped is returned by HandleDelivery after Stop.
var ErrWriterStopped = errors.New("writer stopped")

// WriterConfig contains configuration for batch writers.
type WriterConfig struct {
	// BatchSize is the number of rows to accumulate before flushing.
	BatchSize int

	// FlushInterval is the maximum time between flushes.
	FlushInterval time.Duration

	// BufferSize is the initial capacity of the input buffer.
	BufferSize int

	// Instance identifies the relay that wrote a row.
	Instance string
}

// DefaultWriterConfig returns sensible defaults.
func DefaultWriterConfig() WriterConfig {
	return WriterConfig{
		BatchSize:     100,
		FlushInterval: time.Second,
		BufferSize:    1000,
		Instance:      "relay",
	}
}

// WriterMetrics tracks writer activity.
type WriterMetrics struct {
	Inserts   int64
	Conflicts int64
	Errors    int64
	Flushes   int64
}

// BatchSender executes a pgx batch. *pgxpool.Pool implements it.
type BatchSender interface {
	SendBatch(ctx context.Context, b *pgx.Batch) pgx.BatchResults
}

// deliveryRow is a row of the overlay_deliveries table.
type deliveryRow struct {
	MessageID    string
	Attempt      int
	EventType    string
	SentAt       time.Time
	Clients      int
	Acknowledged bool
	AckLatencyMs int64 // 0 when not acknowledged
	Instance     string
}
