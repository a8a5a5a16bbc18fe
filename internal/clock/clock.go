// Package clock derives the canonical 15-minute trading period from
// wall-clock time and detects period boundaries.
package clock

import "time"

// PeriodDuration is the length of one up/down trading window.
const PeriodDuration = 900 * time.Second

// PeriodSeconds is PeriodDuration in whole seconds.
const PeriodSeconds int64 = 900

// Clock computes period timestamps. The zero value uses time.Now; tests
// inject Now.
type Clock struct {
	Now func() time.Time
}

// New returns a Clock backed by time.Now.
func New() *Clock {
	return &Clock{Now: time.Now}
}

func (c *Clock) now() time.Time {
	if c.Now != nil {
		return c.Now()
	}
	return time.Now()
}

// CurrentPeriod returns the Unix timestamp of the period containing now,
// rounded down to the 900-second grid.
func (c *Clock) CurrentPeriod() int64 {
	return PeriodFor(c.now().Unix())
}

// PeriodFor returns the period timestamp containing the given Unix time.
func PeriodFor(unix int64) int64 {
	return unix / PeriodSeconds * PeriodSeconds
}

// SecondsRemaining returns the seconds left in the given period, never
// negative.
func (c *Clock) SecondsRemaining(period int64) int64 {
	rem := period + PeriodSeconds - c.now().Unix()
	if rem < 0 {
		return 0
	}
	return rem
}

// Boundary reports a period transition exactly once per crossing. It only
// requires that Observe is called at least once per period; irregular
// polling neither misses nor duplicates transitions.
type Boundary struct {
	last    int64
	started bool
}

// Observe feeds the latest period. The first observation never reports a
// crossing (there is no previous period to compare against).
func (b *Boundary) Observe(period int64) (changed bool) {
	if !b.started {
		b.started = true
		b.last = period
		return false
	}
	if period != b.last {
		b.last = period
		return true
	}
	return false
}

// Last returns the most recently observed period, or 0 before the first
// observation.
func (b *Boundary) Last() int64 {
	return b.last
}
