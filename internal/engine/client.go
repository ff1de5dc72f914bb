package engine

import "time"

// Client query schedule constants, per spec.md §4.2.
const (
	initialQueryBackoff = 2 * time.Second
	maxQueryBackoff     = 30 * time.Second
	preExpiryQueryLead  = 50 * time.Second
)

// armQueryBackoff schedules ifc's next query at the current backoff and
// doubles it for next time, capped at [maxQueryBackoff].
func (e *Engine) armQueryBackoff(ifc *iface, now time.Time) {
	ifc.queryTimer.Schedule(now, ifc.queryBackoff, true)

	ifc.queryBackoff *= 2
	if ifc.queryBackoff > maxQueryBackoff {
		ifc.queryBackoff = maxQueryBackoff
	}
}

// enterUnconfigured cancels ifc's reply timer and resets its query
// backoff to the initial regime, per spec.md §4.2.
func (e *Engine) enterUnconfigured(ifc *iface, now time.Time) {
	ifc.state = StateUnconfigured
	ifc.replyTimer.Cancel()
	ifc.queryBackoff = initialQueryBackoff
	ifc.queryTimer.Schedule(now, ifc.queryBackoff, true)
}

// enterConfigured cancels ifc's query timer, schedules the pre-expiry
// re-query, and arms the forwarder-reply regime.
func (e *Engine) enterConfigured(ifc *iface, now time.Time) {
	ifc.state = StateConfigured
	ifc.queryTimer.Cancel()
	e.scheduleNextFlood(ifc, now)
	e.scheduleExpiryQuery(ifc, now)
}

// scheduleExpiryQuery arms ifc's query timer to wake [preExpiryQueryLead]
// before the held configuration's expiry, so a fresh reply can arrive
// before the local copy lapses.
func (e *Engine) scheduleExpiryQuery(ifc *iface, now time.Time) {
	validFor := e.remainingValidity(now)
	if validFor <= preExpiryQueryLead {
		ifc.queryTimer.Schedule(now, 0, true)

		return
	}

	ifc.queryTimer.Schedule(now, validFor-preExpiryQueryLead, true)
}

// remainingValidity returns how long the currently held configuration
// stays valid from now, zero if none is held.
func (e *Engine) remainingValidity(now time.Time) (validFor time.Duration) {
	if !e.hasConfig {
		return 0
	}

	nowSec := e.Clock.Now()
	v := Validity(e.origin, e.expires, age(e.origin, nowSec), nowSec, e.Clock.Broken())

	return time.Duration(v) * time.Second
}

// age returns the seconds elapsed since origin, as observed at now. It
// never goes negative.
func age(origin, now uint32) (a uint32) {
	if now <= origin {
		return 0
	}

	return now - origin
}

// tickClientState re-evaluates ifc's Unconfigured/Configured/Expiring
// position against the currently held configuration's remaining validity
// and performs any due transition, per spec.md §4.2.
func (e *Engine) tickClientState(ifc *iface, now time.Time) {
	validFor := e.remainingValidity(now)

	switch ifc.state {
	case StateUnconfigured:
		if e.hasConfig && validFor > 0 {
			e.enterConfigured(ifc, now)
		}
	case StateConfigured:
		if validFor == 0 {
			e.enterUnconfigured(ifc, now)
		} else if validFor <= expiringThreshold {
			ifc.state = StateExpiring
		}
	case StateExpiring:
		if validFor == 0 {
			e.enterUnconfigured(ifc, now)
		}
	}
}
