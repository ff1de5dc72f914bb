package engine

import (
	"math/rand"
	"time"
)

// jitter returns a uniformly random duration in [d/2, d/2+d), per spec.md
// §4.2. A non-positive d jitters to zero.
func jitter(d time.Duration) (j time.Duration) {
	if d <= 0 {
		return 0
	}

	half := d / 2

	return half + time.Duration(rand.Int63n(int64(d))) //nolint:gosec // scheduling jitter, not security-sensitive
}

// Timer holds an optional absolute wakeup time. The zero value is "never",
// matching the Design Notes rule against reusing an in-band zero value for
// the (0,0) sentinel.
type Timer struct {
	fire *time.Time
}

// Schedule arms the timer for now+jitter(d). d < 0 cancels the timer
// outright. When override is false, the new deadline is adopted only if
// the timer is currently unset or the new deadline is earlier than the one
// already armed; override=true always replaces it.
func (t *Timer) Schedule(now time.Time, d time.Duration, override bool) {
	if d < 0 {
		t.fire = nil

		return
	}

	candidate := now.Add(jitter(d))

	if override || t.fire == nil || candidate.Before(*t.fire) {
		t.fire = &candidate
	}
}

// Cancel clears the timer.
func (t *Timer) Cancel() {
	t.fire = nil
}

// Due reports whether the timer is armed and its deadline has passed.
func (t *Timer) Due(now time.Time) (due bool) {
	return t.fire != nil && !now.Before(*t.fire)
}

// At returns the timer's deadline, or nil if unarmed.
func (t *Timer) At() (at *time.Time) {
	return t.fire
}
