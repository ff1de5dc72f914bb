package engine

import "time"

// Reply/flood schedule constants, per spec.md §4.2.
const (
	solicitedReplyMax = 1 * time.Second
	authorityFloor    = 30 * time.Second
	forwarderFloor    = 120 * time.Second
	teachPeerDelay    = 10 * time.Second

	// floodDivisor is the 0.125 factor ("× 0.125") applied to the
	// relevant window when computing the next unsolicited flood.
	floodDivisor = 8
)

// OnQuery handles an incoming QUERY on ifaceName: if this daemon has data
// to offer (always true for an authority, only when configured for a
// client), it schedules a solicited reply within [solicitedReplyMax],
// jittered so that peers seeing the same query reply at staggered times.
func (e *Engine) OnQuery(ifaceName string, now time.Time) {
	ifc, ok := e.ifaces[ifaceName]
	if !ok {
		return
	}

	if e.Role != RoleAuthority && !e.hasConfig {
		return
	}

	// Schedule jitters d into [d/2, 3d/2); a base of 2/3 of the maximum
	// keeps the reply within [solicitedReplyMax].
	ifc.replyTimer.Schedule(now, solicitedReplyMax*2/3, false)
}

// OnStalePeer re-arms ifc's reply timer for the ~10s "teach the peer"
// window after observing stale data (age > 0) from a non-authoritative
// peer while this daemon holds fresher data.
func (e *Engine) OnStalePeer(ifaceName string, now time.Time) {
	ifc, ok := e.ifaces[ifaceName]
	if !ok {
		return
	}

	ifc.replyTimer.Schedule(now, teachPeerDelay, false)
}

// scheduleNextFlood arms ifc's unsolicited-flood regime: an authority
// re-asserts at max(expires_delay × 0.125, 30s); a forwarder re-floods
// held data at max((expires−origin) × 0.125, 120s).
func (e *Engine) scheduleNextFlood(ifc *iface, now time.Time) {
	var window time.Duration

	if e.Role == RoleAuthority {
		window = floored(time.Duration(e.AuthorityExpiresDelta)*time.Second/floodDivisor, authorityFloor)
	} else {
		window = floored(time.Duration(e.expires-e.origin)*time.Second/floodDivisor, forwarderFloor)
	}

	ifc.replyTimer.Schedule(now, window, true)
}

func floored(d, floor time.Duration) (out time.Duration) {
	if d < floor {
		return floor
	}

	return d
}
