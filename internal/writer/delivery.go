package writer

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/rickgao/overlay-monitor/internal/metrics"
	"github.com/rickgao/overlay-monitor/internal/model"
	"github.com/rickgao/overlay-monitor/internal/router"
)

const insertDelivery = `
	INSERT INTO overlay_deliveries (message_id, attempt, event_type, sent_at, clients, acknowledged, ack_latency_ms, instance)
	VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	ON CONFLICT (message_id, attempt) DO NOTHING
`

// DeliveryWriter batch-inserts delivery records.
type DeliveryWriter struct {
	cfg     WriterConfig
	logger  *slog.Logger
	relay   *metrics.Relay
	input   *router.GrowableBuffer[model.Delivery]
	db      BatchSender
	batch   []deliveryRow
	batchMu sync.Mutex

	flushTicker *time.Ticker

	ctx          context.Context
	cancel       context.CancelFunc
	wg           sync.WaitGroup
	consumerDone chan struct{}

	metrics WriterMetrics
}

// NewDeliveryWriter creates a DeliveryWriter. m may be nil.
func NewDeliveryWriter(cfg WriterConfig, db BatchSender, m *metrics.Relay, logger *slog.Logger) *DeliveryWriter {
	if logger == nil {
		logger = slog.Default()
	}
	if m == nil {
		m = &metrics.Relay{}
	}
	if cfg.BatchSize < 1 {
		cfg.BatchSize = 1
	}
	return &DeliveryWriter{
		cfg:    cfg,
		logger: logger.With("component", "delivery_writer"),
		relay:  m,
		input:  router.NewGrowableBuffer[model.Delivery](cfg.BufferSize),
		db:     db,
		batch:  make([]deliveryRow, 0, cfg.BatchSize),
		ctx:    context.Background(),
	}
}

// HandleDelivery queues d for writing. It never blocks.
func (w *DeliveryWriter) HandleDelivery(d model.Delivery) error {
	if !w.input.Send(d) {
		return ErrWriterStopped
	}
	return nil
}

// Start begins consuming deliveries and writing to the database.
func (w *DeliveryWriter) Start(ctx context.Context) error {
	w.ctx, w.cancel = context.WithCancel(ctx)
	w.flushTicker = time.NewTicker(w.cfg.FlushInterval)
	w.consumerDone = make(chan struct{})

	go w.consumeLoop()

	w.wg.Add(1)
	go w.flushLoop()

	w.logger.Info("delivery writer started",
		"batch_size", w.cfg.BatchSize,
		"flush_interval", w.cfg.FlushInterval,
	)
	return nil
}

// Stop closes the input, waits for the consumer to drain it and flushes
// what remains.
func (w *DeliveryWriter) Stop(ctx context.Context) error {
	w.logger.Info("stopping delivery writer")

	w.input.Close()

	if w.consumerDone != nil {
		select {
		case <-w.consumerDone:
		case <-ctx.Done():
			w.logger.Warn("delivery writer stop timed out")
		}
	}

	if w.cancel != nil {
		w.cancel()
	}
	if w.flushTicker != nil {
		w.flushTicker.Stop()
	}
	w.wg.Wait()

	// Anything the consumer did not reach goes into the final batch.
	for {
		d, ok := w.input.TryReceive()
		if !ok {
			break
		}
		w.batchMu.Lock()
		w.batch = append(w.batch, w.transform(d))
		w.batchMu.Unlock()
	}

	// Final flush uses a fresh context since w.ctx is cancelled.
	flushCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	w.flushWith(flushCtx)

	w.logger.Info("delivery writer stopped")
	return nil
}

// Stats returns current metrics.
func (w *DeliveryWriter) Stats() WriterMetrics {
	w.batchMu.Lock()
	defer w.batchMu.Unlock()
	return w.metrics
}

func (w *DeliveryWriter) consumeLoop() {
	defer close(w.consumerDone)

	for {
		d, ok := w.input.Receive(w.ctx)
		if !ok {
			return
		}
		w.handle(d)
	}
}

func (w *DeliveryWriter) flushLoop() {
	defer w.wg.Done()

	for {
		select {
		case <-w.ctx.Done():
			return
		case <-w.flushTicker.C:
			w.flush()
		}
	}
}

func (w *DeliveryWriter) handle(d model.Delivery) {
	row := w.transform(d)

	w.batchMu.Lock()
	w.batch = append(w.batch, row)
	shouldFlush := len(w.batch) >= w.cfg.BatchSize
	w.batchMu.Unlock()

	if shouldFlush {
		w.flush()
	}
}

func (w *DeliveryWriter) transform(d model.Delivery) deliveryRow {
	row := deliveryRow{
		MessageID:    d.ID.String(),
		Attempt:      d.Attempt,
		EventType:    string(d.Type),
		SentAt:       d.SentAt.UTC(),
		Clients:      d.Clients,
		Acknowledged: d.Acknowledged,
		Instance:     w.cfg.Instance,
	}
	if d.Acknowledged {
		row.AckLatencyMs = d.AckLatency.Milliseconds()
	}
	return row
}

func (w *DeliveryWriter) flush() {
	w.flushWith(w.ctx)
}

func (w *DeliveryWriter) flushWith(ctx context.Context) {
	w.batchMu.Lock()
	if len(w.batch) == 0 {
		w.batchMu.Unlock()
		return
	}

	// Take ownership of current batch
	batch := w.batch
	w.batch = make([]deliveryRow, 0, w.cfg.BatchSize)
	w.batchMu.Unlock()

	start := time.Now()

	conflicts, err := w.batchInsert(ctx, batch)
	if err != nil {
		w.logger.Error("batch insert failed", "error", err, "count", len(batch))
		w.relay.WriteErrors.Add(1)
		w.batchMu.Lock()
		w.metrics.Errors++
		w.batchMu.Unlock()
		return
	}

	inserted := int64(len(batch) - conflicts)
	w.relay.DeliveriesWritten.Add(inserted)

	w.batchMu.Lock()
	w.metrics.Inserts += inserted
	w.metrics.Conflicts += int64(conflicts)
	w.metrics.Flushes++
	w.batchMu.Unlock()

	w.logger.Debug("flushed deliveries",
		"count", len(batch),
		"conflicts", conflicts,
		"duration", time.Since(start),
	)
}

// batchInsert inserts rows using pgx.Batch with ON CONFLICT DO NOTHING.
func (w *DeliveryWriter) batchInsert(ctx context.Context, rows []deliveryRow) (conflicts int, err error) {
	batch := &pgx.Batch{}
	for _, r := range rows {
		batch.Queue(insertDelivery,
			r.MessageID, r.Attempt, r.EventType, r.SentAt,
			r.Clients, r.Acknowledged, r.AckLatencyMs, r.Instance)
	}

	results := w.db.SendBatch(ctx, batch)
	defer results.Close()

	for range rows {
		ct, err := results.Exec()
		if err != nil {
			return 0, err
		}
		if ct.RowsAffected() == 0 {
			conflicts++
		}
	}

	return conflicts, nil
}
