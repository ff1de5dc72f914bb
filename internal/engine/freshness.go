// Package engine implements the per-interface timer scheduling, freshness
// and origin-election rules, and the client/stateful-client state machines
// that drive query, reply-flood, and stateful lease traffic, per spec.md
// §4.2 and §4.4.
package engine

// Validity computes the remaining validity in seconds of a freshness
// triple (origin, expires, age) as observed at now, per spec.md §3. It
// returns zero once age reaches the authority's own (expires−origin)
// window, or once now reaches expires on a working clock. A broken clock
// skips the expires−now term entirely, since now cannot be trusted.
func Validity(origin, expires, age, now uint32, clockBroken bool) (valid uint32) {
	if expires <= origin {
		return 0
	}

	window := expires - origin
	if age >= window {
		return 0
	}

	remaining := window - age

	if clockBroken {
		return remaining
	}

	if now >= expires {
		return 0
	}

	if left := expires - now; left < remaining {
		remaining = left
	}

	return remaining
}

// Sane reports whether a received freshness triple passes the packet
// sanity checks of spec.md §4.2. The checks are skipped entirely when the
// local clock is known broken.
func Sane(origin, expires, now uint32, clockBroken bool) (ok bool) {
	if clockBroken {
		return true
	}

	if origin > expires {
		return false
	}

	if int64(origin) > int64(now)+300 {
		return false
	}

	if int64(expires) < int64(now)-600 {
		return false
	}

	return true
}
