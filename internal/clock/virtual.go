package clock

import (
	"sync"
	"time"
)

// Virtual is a manually advanced Clock for deterministic tests.
type Virtual struct {
	mu     sync.Mutex
	now    time.Time
	seq    uint64
	timers []*virtualTimer
}

// NewVirtual creates a virtual clock starting at start.
func NewVirtual(start time.Time) *Virtual {
	return &Virtual{now: start}
}

// Now returns the virtual time.
func (v *Virtual) Now() time.Time {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.now
}

// AfterFunc schedules f once at Now()+d.
func (v *Virtual) AfterFunc(d time.Duration, f func()) Timer {
	return v.schedule(d, 0, f)
}

// Every schedules f at every multiple of d from Now().
func (v *Virtual) Every(d time.Duration, f func()) Timer {
	if d <= 0 {
		d = time.Nanosecond
	}
	return v.schedule(d, d, f)
}

func (v *Virtual) schedule(d, period time.Duration, f func()) *virtualTimer {
	v.mu.Lock()
	defer v.mu.Unlock()

	v.seq++
	t := &virtualTimer{
		clock:  v,
		when:   v.now.Add(d),
		period: period,
		seq:    v.seq,
		f:      f,
	}
	v.timers = append(v.timers, t)
	return t
}

// Advance moves time forward by d, running every callback that comes due in
// chronological order. Timers scheduled by callbacks are honoured if they fall
// inside the window.
func (v *Virtual) Advance(d time.Duration) {
	v.mu.Lock()
	target := v.now.Add(d)
	v.mu.Unlock()

	for {
		v.mu.Lock()
		next := v.nextDue(target)
		if next == nil {
			v.now = target
			v.mu.Unlock()
			return
		}

		v.now = next.when
		if next.period > 0 {
			next.when = next.when.Add(next.period)
			v.seq++
			next.seq = v.seq
		} else {
			next.stopped = true
			v.remove(next)
		}
		f := next.f
		v.mu.Unlock()

		f()
	}
}

// Pending returns the number of active timers.
func (v *Virtual) Pending() int {
	v.mu.Lock()
	defer v.mu.Unlock()
	return len(v.timers)
}

// nextDue returns the earliest timer due at or before target. Must be called
// with the lock held.
func (v *Virtual) nextDue(target time.Time) *virtualTimer {
	var next *virtualTimer
	for _, t := range v.timers {
		if t.when.After(target) {
			continue
		}
		if next == nil || t.when.Before(next.when) || (t.when.Equal(next.when) && t.seq < next.seq) {
			next = t
		}
	}
	return next
}

// remove drops t from the active set. Must be called with the lock held.
func (v *Virtual) remove(t *virtualTimer) {
	for i, other := range v.timers {
		if other == t {
			v.timers = append(v.timers[:i], v.timers[i+1:]...)
			return
		}
	}
}

type virtualTimer struct {
	clock   *Virtual
	when    time.Time
	period  time.Duration
	seq     uint64
	f       func()
	stopped bool
}

func (t *virtualTimer) Stop() bool {
	t.clock.mu.Lock()
	defer t.clock.mu.Unlock()

	if t.stopped {
		return false
	}
	t.stopped = true
	t.clock.remove(t)
	return true
}
