package clock

import (
	"errors"
	"time"
)

// ErrLoopStopped is returned when work is posted to a loop that has exited.
var ErrLoopStopped = errors.New("event loop stopped")

// Timer is a handle to a scheduled callback.
type Timer interface {
	// Stop cancels the timer. The callback is guaranteed not to run after Stop
	// returns, even if its firing was already queued. Returns false if the
	// timer had already fired or been stopped.
	Stop() bool
}

// Clock schedules callbacks.
type Clock interface {
	// Now returns the current time.
	Now() time.Time

	// AfterFunc runs f once after d.
	AfterFunc(d time.Duration, f func()) Timer

	// Every runs f every d until the returned timer is stopped.
	Every(d time.Duration, f func()) Timer
}

// Poster accepts closures for serialized execution.
type Poster interface {
	Post(f func()) bool
}
