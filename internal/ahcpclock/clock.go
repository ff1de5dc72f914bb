// Package ahcpclock reads monotonic and wall-clock time and detects a
// broken or not-yet-stepped system clock.
package ahcpclock

import (
	"time"

	"github.com/AdguardTeam/golibs/timeutil"
)

// brokenThreshold is the wall-clock threshold below which the clock is
// considered not yet set by NTP.  1.2e9 Unix seconds is 2008-01-10; any
// daemon host reporting a time before it has almost certainly never
// synchronised its clock.
const brokenThreshold = 1_200_000_000

// Clock reads the current time and reports whether it looks sane.  The
// zero value is not usable; use [New].
type Clock struct {
	clock timeutil.Clock
}

// New returns a Clock that reads time from c.  c must not be nil.
func New(c timeutil.Clock) (clk *Clock) {
	return &Clock{clock: c}
}

// System returns a Clock backed by the real system clock.
func System() (clk *Clock) {
	return New(timeutil.SystemClock{})
}

// Now returns the current wall-clock time as a Unix-second value.
func (c *Clock) Now() (now uint32) {
	return uint32(c.clock.Now().Unix())
}

// Broken reports whether the clock is currently broken, i.e. reads a time
// before [brokenThreshold].  Freshness and sanity checks in the protocol
// engine are softened while this holds.
func (c *Clock) Broken() (broken bool) {
	return IsBroken(c.clock.Now())
}

// IsBroken reports whether t looks like an un-stepped system clock.
func IsBroken(t time.Time) (broken bool) {
	return t.Unix() < brokenThreshold
}

// MaxWait is the longest a single event-loop iteration may block while the
// clock is broken, so that a future NTP step is noticed promptly.
const MaxWait = 30 * time.Second
