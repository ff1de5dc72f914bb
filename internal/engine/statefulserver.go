package engine

import (
	"net/netip"
	"time"

	"github.com/AdguardTeam/golibs/errors"
)

// ErrNotAStatefulServer is returned by [Engine.GrantLease] when this
// daemon has no lease store configured.
const ErrNotAStatefulServer errors.Error = "this daemon does not grant stateful leases"

// GrantLease implements the server side of the stateful sub-FSM: it is
// called when a STATEFUL_REQUEST arrives and this daemon has a
// [leasestore.Store] configured (the optional stateful-server path). A
// [leasestore.ErrNoAddress] or [leasestore.ErrConflict] result should be
// answered with STATEFUL_NAK; any other error is a transient I/O failure
// that the caller logs and drops, per spec.md §7.
func (e *Engine) GrantLease(
	clientID []byte,
	suggested netip.Addr,
	requestedLease time.Duration,
) (addr netip.Addr, granted time.Duration, err error) {
	if e.LeaseStore == nil {
		return netip.Addr{}, 0, ErrNotAStatefulServer
	}

	a, grantedSeconds, err := e.LeaseStore.TakeLease(clientID, suggested, uint32(requestedLease.Seconds()))
	if err != nil {
		return netip.Addr{}, 0, err
	}

	return a, time.Duration(grantedSeconds) * time.Second, nil
}

// ReleaseLease implements the server side of a STATEFUL_RELEASE. A
// [leasestore.ErrConflict] result means the caller's client id did not
// match the lease's recorded owner; the request is simply dropped, per
// spec.md §7.
func (e *Engine) ReleaseLease(clientID []byte, addr netip.Addr) (err error) {
	if e.LeaseStore == nil {
		return ErrNotAStatefulServer
	}

	return e.LeaseStore.Release(clientID, addr)
}
