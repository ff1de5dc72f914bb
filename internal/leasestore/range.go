package leasestore

import (
	"encoding/binary"
	"net/netip"
)

// addrToUint32 converts an IPv4 address to its big-endian integer form.
func addrToUint32(a netip.Addr) (v uint32) {
	b := a.As4()

	return binary.BigEndian.Uint32(b[:])
}

// uint32ToAddr converts v back to an IPv4 address.
func uint32ToAddr(v uint32) (a netip.Addr) {
	var b [4]byte
	binary.BigEndian.PutUint32(b[:], v)

	return netip.AddrFrom4(b)
}

// circularRange walks the inclusive [first,last] range starting at start,
// wrapping back to first after last, calling visit for every address
// until it returns true or the whole range has been visited once.
func circularRange(first, last, start netip.Addr, visit func(a netip.Addr) (stop bool)) {
	lo, hi := addrToUint32(first), addrToUint32(last)
	if hi < lo {
		return
	}

	s := addrToUint32(start)
	if s < lo || s > hi {
		s = lo
	}

	span := hi - lo + 1

	for i := uint32(0); i < span; i++ {
		cur := lo + (s-lo+i)%span
		if visit(uint32ToAddr(cur)) {
			return
		}
	}
}

// inRange reports whether a lies within [first,last].
func inRange(first, last, a netip.Addr) (ok bool) {
	if !a.Is4() {
		return false
	}

	v := addrToUint32(a)

	return v >= addrToUint32(first) && v <= addrToUint32(last)
}
