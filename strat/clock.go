package strat

import "time"

// MatchTime is the duration of a match, in seconds.
const MatchTime = 89

// MatchClock tracks time since match start. It is the one piece of state
// read from outside the control loop (diagnostics), so all reads derive
// from the immutable start instant rather than a mutated counter.
type MatchClock struct {
	duration time.Duration
	now      func() time.Time
	start    time.Time
	started  bool
}

// NewMatchClock builds a clock for one match. now may be nil, in which
// case time.Now is used.
func NewMatchClock(duration time.Duration, now func() time.Time) *MatchClock {
	if now == nil {
		now = time.Now
	}
	return &MatchClock{duration: duration, now: now}
}

// Start begins the match countdown.
func (c *MatchClock) Start() {
	c.start = c.now()
	c.started = true
}

// ElapsedDuration returns time since Start, clamped to the match duration.
func (c *MatchClock) ElapsedDuration() time.Duration {
	if !c.started {
		return 0
	}
	elapsed := c.now().Sub(c.start)
	if elapsed < 0 {
		return 0
	}
	if elapsed > c.duration {
		return c.duration
	}
	return elapsed
}

// Elapsed returns whole seconds since Start, clamped to the match duration.
func (c *MatchClock) Elapsed() int {
	return int(c.ElapsedDuration() / time.Second)
}

// Expired reports whether the match duration has fully elapsed.
func (c *MatchClock) Expired() bool {
	if !c.started {
		return false
	}
	return c.now().Sub(c.start) >= c.duration
}
