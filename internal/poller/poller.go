package poller

import (
	"context"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/rickgao/overlay-monitor/internal/api"
)

// HealthChecker fetches a display server's health. *api.Client implements it.
type HealthChecker interface {
	Health(ctx context.Context) (*api.HealthResponse, error)
}

// Target is a named overlay to poll.
type Target struct {
	Name   string
	Client HealthChecker
}

// Result is the outcome of polling one target.
type Result struct {
	Target  string
	Health  *api.HealthResponse // nil when Err is set
	Err     error
	At      time.Time
	Latency time.Duration
}

// Healthy reports whether the target answered and said so.
func (r Result) Healthy() bool {
	return r.Err == nil && r.Health != nil && r.Health.Status == "healthy"
}

// ResultHandler receives poll results.
type ResultHandler interface {
	HandleResult(r Result) error
}

// ResultHandlerFunc is a function adapter for ResultHandler.
type ResultHandlerFunc func(Result) error

func (f ResultHandlerFunc) HandleResult(r Result) error {
	return f(r)
}

// Config holds poller configuration.
type Config struct {
	Interval    time.Duration // Poll interval (default: 5s)
	Concurrency int           // Max concurrent requests (default: 8)
	Timeout     time.Duration // Per-request timeout (default: 3s)
}

// DefaultConfig returns sensible defaults.
func DefaultConfig() Config {
	return Config{
		Interval:    5 * time.Second,
		Concurrency: 8,
		Timeout:     3 * time.Second,
	}
}

// Poller periodically fetches overlay health.
type Poller struct {
	cfg     Config
	targets []Target
	handler ResultHandler
	logger  *slog.Logger
	now     func() time.Time

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// New creates a new Poller. handler may be nil.
func New(cfg Config, targets []Target, handler ResultHandler, logger *slog.Logger) *Poller {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.Concurrency < 1 {
		cfg.Concurrency = 1
	}
	return &Poller{
		cfg:     cfg,
		targets: targets,
		handler: handler,
		logger:  logger.With("component", "poller"),
		now:     time.Now,
		ctx:     context.Background(),
	}
}

// Start begins the polling loop.
func (p *Poller) Start(ctx context.Context) error {
	p.ctx, p.cancel = context.WithCancel(ctx)

	p.wg.Add(1)
	go p.run()

	p.logger.Info("health poller started",
		"interval", p.cfg.Interval,
		"targets", len(p.targets),
	)

	return nil
}

// Stop gracefully shuts down the poller.
func (p *Poller) Stop(ctx context.Context) error {
	if p.cancel != nil {
		p.cancel()
	}

	done := make(chan struct{})
	go func() {
		p.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		p.logger.Info("health poller stopped")
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (p *Poller) run() {
	defer p.wg.Done()

	ticker := time.NewTicker(p.cfg.Interval)
	defer ticker.Stop()

	// Poll immediately on start.
	p.PollOnce(p.ctx)

	for {
		select {
		case <-p.ctx.Done():
			return
		case <-ticker.C:
			p.PollOnce(p.ctx)
		}
	}
}

// PollOnce polls every target and returns the results in target order.
// Targets skipped because ctx ended have an empty Result.
func (p *Poller) PollOnce(ctx context.Context) []Result {
	start := p.now()
	results := make([]Result, len(p.targets))

	var g errgroup.Group
	g.SetLimit(p.cfg.Concurrency)
	var failed atomic.Int64

	for i, t := range p.targets {
		if ctx.Err() != nil {
			break
		}
		g.Go(func() error {
			results[i] = p.poll(ctx, t)
			if !results[i].Healthy() {
				failed.Add(1)
			}
			return nil
		})
	}
	g.Wait()

	for _, r := range results {
		if r.Target == "" || p.handler == nil {
			continue
		}
		if err := p.handler.HandleResult(r); err != nil {
			p.logger.Warn("result handler failed", "target", r.Target, "error", err)
		}
	}

	p.logger.Debug("poll cycle complete",
		"targets", len(p.targets),
		"unhealthy", failed.Load(),
		"duration", p.now().Sub(start),
	)
	return results
}

func (p *Poller) poll(ctx context.Context, t Target) Result {
	ctx, cancel := context.WithTimeout(ctx, p.cfg.Timeout)
	defer cancel()

	start := p.now()
	h, err := t.Client.Health(ctx)
	return Result{
		Target:  t.Name,
		Health:  h,
		Err:     err,
		At:      start,
		Latency: p.now().Sub(start),
	}
}
