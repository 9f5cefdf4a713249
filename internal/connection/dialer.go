package connection

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"

	"github.com/rickgao/overlay-monitor/internal/clock"
)

// Handler receives the lifecycle callbacks of one socket. A LoopDialer
// delivers every callback through its Poster, so handlers run on the
// owner's goroutine. Nil fields are skipped.
type Handler struct {
	OnOpen    func()
	OnMessage func(msg TimestampedMessage)
	OnClose   func(err error)
}

// Socket is a single transport attempt.
type Socket interface {
	ReadyState() ReadyState
	Send(data []byte) error
	Close() error
}

// Dialer opens sockets without blocking. Dial returns an error only for
// requests that can never succeed (e.g. a malformed URL); everything else is
// reported through the handler.
type Dialer interface {
	Dial(rawURL string, h Handler) (Socket, error)
}

// LoopDialer dials gorilla clients and pumps their events onto a Poster.
type LoopDialer struct {
	poster clock.Poster
	cfg    ClientConfig
	logger *slog.Logger
}

// NewLoopDialer creates a dialer whose callbacks are posted to p. cfg.URL is
// ignored; every Dial supplies its own.
func NewLoopDialer(p clock.Poster, cfg ClientConfig, logger *slog.Logger) *LoopDialer {
	if logger == nil {
		logger = slog.Default()
	}
	return &LoopDialer{
		poster: p,
		cfg:    cfg,
		logger: logger.With("component", "dialer"),
	}
}

// Dial starts connecting to rawURL in the background.
func (d *LoopDialer) Dial(rawURL string, h Handler) (Socket, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDialFailed, err)
	}
	if u.Scheme != "ws" && u.Scheme != "wss" {
		return nil, fmt.Errorf("%w: unsupported scheme %q", ErrDialFailed, u.Scheme)
	}

	cfg := d.cfg
	cfg.URL = rawURL
	c := NewClient(cfg, d.logger)

	ctx, cancel := context.WithCancel(context.Background())
	s := &loopSocket{client: c, cancel: cancel}

	go d.pump(ctx, c, h)

	return s, nil
}

// pump connects c and forwards its events until it ends.
func (d *LoopDialer) pump(ctx context.Context, c Client, h Handler) {
	if err := c.Connect(ctx); err != nil {
		d.logger.Debug("dial failed", "error", err)
		d.post(func() {
			if h.OnClose != nil {
				h.OnClose(err)
			}
		})
		return
	}

	d.post(func() {
		if h.OnOpen != nil {
			h.OnOpen()
		}
	})

	for {
		select {
		case msg := <-c.Messages():
			d.deliver(h, msg)

		case err := <-c.Errors():
			d.drain(c, h)
			d.post(func() {
				if h.OnClose != nil {
					h.OnClose(err)
				}
			})
			return

		case <-c.Done():
			d.post(func() {
				if h.OnClose != nil {
					h.OnClose(nil)
				}
			})
			return
		}
	}
}

// drain forwards messages buffered before the read loop failed.
func (d *LoopDialer) drain(c Client, h Handler) {
	for {
		select {
		case msg := <-c.Messages():
			d.deliver(h, msg)
		default:
			return
		}
	}
}

func (d *LoopDialer) deliver(h Handler, msg TimestampedMessage) {
	d.post(func() {
		if h.OnMessage != nil {
			h.OnMessage(msg)
		}
	})
}

func (d *LoopDialer) post(f func()) {
	if !d.poster.Post(f) {
		d.logger.Debug("dropping socket callback, loop stopped")
	}
}

// loopSocket adapts a Client to Socket.
type loopSocket struct {
	client Client
	cancel context.CancelFunc
}

func (s *loopSocket) ReadyState() ReadyState { return s.client.ReadyState() }

func (s *loopSocket) Send(data []byte) error { return s.client.Send(data) }

func (s *loopSocket) Close() error {
	s.cancel()
	return s.client.Close()
}
