// Package ahcpconf defines the typed representation of a decoded AHCP
// configuration and the compatibility/equality predicates the engine and
// configurator bridge use to decide whether a replacement configuration
// requires re-invoking the external apply operation.
package ahcpconf

import (
	"net/netip"
)

// MaxExpiresClient is the cap a client applies to any reply's expiry
// delta, regardless of what the wire carried.
const MaxExpiresClient = 25 * 3600 // 25 hours, in seconds.

// RoutingProtocolID mirrors [wire.RoutingProtocolID] with Go-native
// address types for its sub-options.
type RoutingProtocolID uint8

// Routing protocol ids.
const (
	RoutingProtocolStatic  RoutingProtocolID = 0
	RoutingProtocolOLSR    RoutingProtocolID = 1
	RoutingProtocolBabel   RoutingProtocolID = 2
	RoutingProtocolUnknown RoutingProtocolID = 0xFF
)

// RoutingProtocol is the typed ROUTING_PROTOCOL sub-tree.
type RoutingProtocol struct {
	ID RoutingProtocolID

	StaticDefaultGateway []netip.Addr

	OLSRMulticastAddress netip.Addr
	OLSRLinkQuality      *uint8

	BabelMulticastAddress netip.Addr
	BabelPort             *uint16
	BabelHelloInterval    *uint16
}

// Equal reports whether rp and other describe the same routing protocol
// configuration, including all sub-options.
func (rp *RoutingProtocol) Equal(other *RoutingProtocol) (ok bool) {
	if rp == nil || other == nil {
		return rp == other
	}

	if rp.ID != other.ID {
		return false
	}

	switch rp.ID {
	case RoutingProtocolStatic:
		return addrsEqual(rp.StaticDefaultGateway, other.StaticDefaultGateway)
	case RoutingProtocolOLSR:
		return rp.OLSRMulticastAddress == other.OLSRMulticastAddress &&
			uint8PtrEqual(rp.OLSRLinkQuality, other.OLSRLinkQuality)
	case RoutingProtocolBabel:
		return rp.BabelMulticastAddress == other.BabelMulticastAddress &&
			uint16PtrEqual(rp.BabelPort, other.BabelPort) &&
			uint16PtrEqual(rp.BabelHelloInterval, other.BabelHelloInterval)
	default:
		return true
	}
}

// Config is the typed representation of a decoded configuration: a set of
// optional fields, each either absent (nil slice / zero pointer) or
// present with a non-empty value, per spec.md §3.
type Config struct {
	// ExpiresDelta is the EXPIRES option value: seconds of validity from
	// the moment this configuration was produced.  Always present in an
	// accepted reply.
	ExpiresDelta uint32

	// OriginTime is the ORIGIN_TIME option value, if present.
	OriginTime *uint32

	IPv6Prefix []netip.Prefix

	IPv6Address []netip.Addr
	IPv4Address []netip.Addr

	MyIPv6Address []netip.Addr
	MyIPv4Address []netip.Addr

	NameServer []netip.Addr
	NTPServer  []netip.Addr

	RoutingProtocol *RoutingProtocol

	IPv6PrefixDelegation []netip.Prefix
	IPv4PrefixDelegation []netip.Prefix

	// StatefulServer lists the stateful servers advertised alongside this
	// configuration; a non-empty list puts the client-mode engine into
	// the stateful client sub-FSM.
	StatefulServer []netip.Addr
}

func addrsEqual(a, b []netip.Addr) (ok bool) {
	if len(a) != len(b) {
		return false
	}

	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}

	return true
}

func prefixesEqual(a, b []netip.Prefix) (ok bool) {
	if len(a) != len(b) {
		return false
	}

	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}

	return true
}

func uint8PtrEqual(a, b *uint8) (ok bool) {
	if a == nil || b == nil {
		return a == nil && b == nil
	}

	return *a == *b
}

func uint16PtrEqual(a, b *uint16) (ok bool) {
	if a == nil || b == nil {
		return a == nil && b == nil
	}

	return *a == *b
}
