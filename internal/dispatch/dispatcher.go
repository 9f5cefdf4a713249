package dispatch

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/rickgao/overlay-monitor/internal/hub"
	"github.com/rickgao/overlay-monitor/internal/metrics"
	"github.com/rickgao/overlay-monitor/internal/model"
	"github.com/rickgao/overlay-monitor/internal/source"
)

// Broadcaster fans events out to overlays and reports their acknowledgments.
// *hub.Hub implements it.
type Broadcaster interface {
	Broadcast(ev model.Event) (int, error)
	Acknowledgments() <-chan struct{}
	DrainAcknowledgments() bool
}

// DeliveryHandler receives a record of every delivery attempt.
type DeliveryHandler interface {
	HandleDelivery(d model.Delivery) error
}

// DeliveryHandlerFunc is a function adapter for DeliveryHandler.
type DeliveryHandlerFunc func(model.Delivery) error

func (f DeliveryHandlerFunc) HandleDelivery(d model.Delivery) error {
	return f(d)
}

// Config holds dispatcher configuration.
type Config struct {
	AckTimeout  time.Duration // Wait for an overlay acknowledgment (default: 10s)
	ImagePrefix string        // URL prefix for image paths (default: /output_images/)
	MaxAttempts int           // Broadcasts per message without an acknowledgment (default: 1)
}

// DefaultConfig returns sensible defaults.
func DefaultConfig() Config {
	return Config{
		AckTimeout:  10 * time.Second,
		ImagePrefix: "/output_images/",
		MaxAttempts: 1,
	}
}

// Dispatcher moves messages from a source to the overlays, one at a time.
type Dispatcher struct {
	cfg     Config
	source  source.Source
	hub     Broadcaster
	handler DeliveryHandler
	metrics *metrics.Relay
	logger  *slog.Logger
	now     func() time.Time

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// New creates a Dispatcher. handler and m may be nil.
func New(cfg Config, src source.Source, b Broadcaster, handler DeliveryHandler, m *metrics.Relay, logger *slog.Logger) *Dispatcher {
	if logger == nil {
		logger = slog.Default()
	}
	if m == nil {
		m = &metrics.Relay{}
	}
	if cfg.MaxAttempts < 1 {
		cfg.MaxAttempts = 1
	}
	return &Dispatcher{
		cfg:     cfg,
		source:  src,
		hub:     b,
		handler: handler,
		metrics: m,
		logger:  logger.With("component", "dispatch"),
		now:     time.Now,
	}
}

// Start begins the delivery loop.
func (d *Dispatcher) Start(ctx context.Context) error {
	d.ctx, d.cancel = context.WithCancel(ctx)

	d.wg.Add(1)
	go d.run()

	d.logger.Info("dispatcher started",
		"ack_timeout", d.cfg.AckTimeout,
		"max_attempts", d.cfg.MaxAttempts,
	)
	return nil
}

// Stop cancels the loop and waits for the current delivery to finish.
func (d *Dispatcher) Stop(ctx context.Context) error {
	if d.cancel != nil {
		d.cancel()
	}

	done := make(chan struct{})
	go func() {
		d.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		d.logger.Info("dispatcher stopped")
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (d *Dispatcher) run() {
	defer d.wg.Done()

	for {
		msg, err := d.source.Receive(d.ctx)
		if err != nil {
			if errors.Is(err, source.ErrClosed) {
				d.logger.Info("source closed, dispatcher exiting")
			}
			return
		}

		if _, err := d.Deliver(d.ctx, msg); errors.Is(err, hub.ErrClosed) {
			return
		}
	}
}

// Deliver broadcasts msg and waits for an acknowledgment. Unacknowledged
// messages are requeued until MaxAttempts broadcasts have been made.
func (d *Dispatcher) Deliver(ctx context.Context, msg source.Message) (model.Delivery, error) {
	msg.Attempt++
	sentAt := d.now()
	ev := BuildEvent(msg.ID, msg.Payload, d.cfg.ImagePrefix, sentAt)

	if d.hub.DrainAcknowledgments() {
		d.logger.Debug("discarded stale acknowledgment")
	}

	clients, err := d.hub.Broadcast(ev)
	if err != nil {
		d.logger.Error("broadcast failed", "id", msg.ID, "error", err)
		return model.Delivery{}, err
	}

	d.logger.Info("event sent, waiting for acknowledgment",
		"id", msg.ID,
		"type", ev.Type,
		"attempt", msg.Attempt,
		"clients", clients,
	)

	delivery := model.Delivery{
		ID:      msg.ID,
		Type:    ev.Type,
		Attempt: msg.Attempt,
		SentAt:  sentAt,
		Clients: clients,
	}

	timer := time.NewTimer(d.cfg.AckTimeout)
	defer timer.Stop()

	select {
	case <-d.hub.Acknowledgments():
		delivery.Acknowledged = true
		delivery.AckLatency = d.now().Sub(sentAt)
		d.logger.Info("event acknowledged", "id", msg.ID, "latency", delivery.AckLatency)
	case <-timer.C:
		d.metrics.AckTimeouts.Add(1)
		d.logger.Warn("timeout waiting for acknowledgment", "id", msg.ID, "timeout", d.cfg.AckTimeout)
	case <-ctx.Done():
		d.logger.Info("delivery interrupted", "id", msg.ID)
	}

	d.record(delivery)

	if !delivery.Acknowledged && ctx.Err() == nil {
		if msg.Attempt < d.cfg.MaxAttempts {
			if d.source.Requeue(msg) {
				d.logger.Info("message requeued", "id", msg.ID, "attempt", msg.Attempt)
			}
		} else {
			d.logger.Warn("giving up on message", "id", msg.ID, "attempts", msg.Attempt)
		}
	}

	return delivery, nil
}

func (d *Dispatcher) record(delivery model.Delivery) {
	if d.handler == nil {
		return
	}
	if err := d.handler.HandleDelivery(delivery); err != nil {
		d.logger.Warn("failed to record delivery", "id", delivery.ID, "error", err)
	}
}
