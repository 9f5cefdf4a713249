package monitor

import (
	"math"
	"time"
)

// ReconnectPolicy tracks consecutive reconnect attempts.
type ReconnectPolicy struct {
	Attempts uint
	Base     time.Duration
	Max      time.Duration
}

// Next records one more attempt and returns the delay before it.
func (p *ReconnectPolicy) Next() time.Duration {
	p.Attempts++
	return backoffDelay(p.Base, p.Max, p.Attempts)
}

// Reset clears the attempt count.
func (p *ReconnectPolicy) Reset() {
	p.Attempts = 0
}

// backoffDelay returns min(base * 2^(attempt+1), max).
func backoffDelay(base, max time.Duration, attempt uint) time.Duration {
	if base <= 0 {
		return 0
	}
	d := base
	for i := uint(0); i <= attempt; i++ {
		if d >= max {
			return max
		}
		d *= 2
	}
	if d > max {
		return max
	}
	return d
}

// ceilSeconds rounds d up to whole seconds.
func ceilSeconds(d time.Duration) int64 {
	return int64(math.Ceil(d.Seconds()))
}
