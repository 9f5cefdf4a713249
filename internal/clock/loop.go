package clock

import (
	"context"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"
)

// Loop executes posted closures serially on the goroutine that calls Run.
type Loop struct {
	queue  chan func()
	done   chan struct{}
	once   sync.Once
	logger *slog.Logger
}

// NewLoop creates a loop whose queue holds up to size pending closures.
func NewLoop(size int, logger *slog.Logger) *Loop {
	if logger == nil {
		logger = slog.Default()
	}
	if size < 1 {
		size = 1
	}
	return &Loop{
		queue:  make(chan func(), size),
		done:   make(chan struct{}),
		logger: logger,
	}
}

// Run executes closures until ctx is cancelled.
func (l *Loop) Run(ctx context.Context) error {
	defer l.once.Do(func() { close(l.done) })

	for {
		select {
		case <-ctx.Done():
			l.logger.Debug("event loop stopped", "pending", len(l.queue))
			return ctx.Err()
		case f := <-l.queue:
			f()
		}
	}
}

// Done is closed once Run has returned.
func (l *Loop) Done() <-chan struct{} {
	return l.done
}

// Post queues f for execution. It blocks while the queue is full and returns
// false if the loop has stopped. Must not be called from the loop goroutine
// with a full queue.
func (l *Loop) Post(f func()) bool {
	select {
	case <-l.done:
		return false
	default:
	}

	select {
	case l.queue <- f:
		return true
	case <-l.done:
		return false
	}
}

// Call runs f on the loop and waits for it to finish.
func (l *Loop) Call(ctx context.Context, f func()) error {
	finished := make(chan struct{})
	ok := l.Post(func() {
		defer close(finished)
		f()
	})
	if !ok {
		return ErrLoopStopped
	}

	select {
	case <-finished:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	case <-l.done:
		return ErrLoopStopped
	}
}

// Now returns the wall clock time.
func (l *Loop) Now() time.Time {
	return time.Now()
}

// AfterFunc schedules f to run on the loop after d.
func (l *Loop) AfterFunc(d time.Duration, f func()) Timer {
	lt := &loopTimer{}
	lt.timer = time.AfterFunc(d, func() {
		l.Post(func() {
			if lt.stopped.Swap(true) {
				return
			}
			f()
		})
	})
	return lt
}

// Every schedules f to run on the loop every d.
func (l *Loop) Every(d time.Duration, f func()) Timer {
	lt := &loopTicker{stop: make(chan struct{})}
	ticker := time.NewTicker(d)

	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-lt.stop:
				return
			case <-l.done:
				return
			case <-ticker.C:
				l.Post(func() {
					if lt.stopped.Load() {
						return
					}
					f()
				})
			}
		}
	}()

	return lt
}

type loopTimer struct {
	timer   *time.Timer
	stopped atomic.Bool
}

func (t *loopTimer) Stop() bool {
	t.timer.Stop()
	return !t.stopped.Swap(true)
}

type loopTicker struct {
	stop    chan struct{}
	stopped atomic.Bool
}

func (t *loopTicker) Stop() bool {
	if t.stopped.Swap(true) {
		return false
	}
	close(t.stop)
	return true
}
