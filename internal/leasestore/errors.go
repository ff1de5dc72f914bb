package leasestore

import "github.com/AdguardTeam/golibs/errors"

// ErrConflict is returned by [Store.Release] when the caller's client id
// does not match the lease file's recorded owner.  The daemon logs it and
// drops the release request; no NAK is sent.
const ErrConflict errors.Error = "lease conflict"

// ErrNoAddress is returned by [Store.TakeLease] when every address in the
// configured range is held by another client and not yet past its grace
// window.
const ErrNoAddress errors.Error = "no address available"

// errLocked is returned internally when a lease file's ".lock" sibling is
// already held by another party; callers of openLocked move on to the next
// candidate address rather than retrying, since the lock is expected to be
// released quickly by its holder.
const errLocked errors.Error = "lease file locked"
