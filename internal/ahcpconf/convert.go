package ahcpconf

import (
	"net/netip"

	"github.com/AdguardTeam/golibs/errors"
	"github.com/ahcp-project/ahcpd/internal/wire"
)

// errMissingExpires is returned by [FromOptions] when the decoded options
// carry no EXPIRES value; spec.md §3 requires it in any accepted reply.
const errMissingExpires errors.Error = "missing expires option"

// FromOptions converts decoded wire options into a typed [Config].  It
// does not apply the 25-hour client cap; callers that need it call
// [Config.ClampExpires].
func FromOptions(o wire.Options) (c *Config, err error) {
	defer func() { err = errors.Annotate(err, "building config: %w") }()

	if !o.HasExpires {
		return nil, errMissingExpires
	}

	c = &Config{ExpiresDelta: o.Expires}

	if o.HasOriginTime {
		ot := o.OriginTime
		c.OriginTime = &ot
	}

	c.IPv6Prefix, err = decodePrefixList(o.IPv6Prefix, 16, 17)
	if err != nil {
		return nil, err
	}

	c.IPv6PrefixDelegation, err = decodePrefixList(o.IPv6PrefixDelegation, 16, 17)
	if err != nil {
		return nil, err
	}

	c.IPv4PrefixDelegation, err = decodePrefixList(o.IPv4PrefixDelegation, 4, 5)
	if err != nil {
		return nil, err
	}

	c.IPv6Address = decodeAddrList(o.IPv6Address, 16)
	c.IPv4Address = decodeAddrList(o.IPv4Address, 4)
	c.MyIPv6Address = decodeAddrList(o.MyIPv6Address, 16)
	c.MyIPv4Address = decodeAddrList(o.MyIPv4Address, 4)
	c.NameServer = decodeAddrList(o.NameServer, 16)
	c.NTPServer = decodeAddrList(o.NTPServer, 16)
	c.StatefulServer = decodeAddrList(o.AHCPStatefulServer, 16)

	if o.HasRoutingProtocol {
		c.RoutingProtocol = fromWireRoutingProtocol(o.RoutingProtocol)
	}

	return c, nil
}

func decodeAddrList(records []byte, size int) (addrs []netip.Addr) {
	for i := 0; i+size <= len(records); i += size {
		a, ok := netip.AddrFromSlice(records[i : i+size])
		if ok {
			addrs = append(addrs, a)
		}
	}

	return addrs
}

func decodePrefixList(records []byte, addrSize, recSize int) (prefixes []netip.Prefix, err error) {
	for i := 0; i+recSize <= len(records); i += recSize {
		a, ok := netip.AddrFromSlice(records[i : i+addrSize])
		if !ok {
			return nil, errors.Error("malformed prefix record")
		}

		plen := int(records[i+addrSize])
		maxLen := addrSize * 8
		if plen > maxLen {
			return nil, errors.Error("prefix length out of range")
		}

		prefixes = append(prefixes, netip.PrefixFrom(a, plen))
	}

	return prefixes, nil
}

func fromWireRoutingProtocol(rp wire.RoutingProtocol) (out *RoutingProtocol) {
	out = &RoutingProtocol{ID: RoutingProtocolID(rp.ID)}

	switch rp.ID {
	case wire.RoutingProtocolStatic:
		out.StaticDefaultGateway = decodeAddrList(rp.StaticDefaultGateway, 16)
	case wire.RoutingProtocolOLSR:
		if rp.OLSRMulticastAddress != nil {
			out.OLSRMulticastAddress, _ = netip.AddrFromSlice(rp.OLSRMulticastAddress)
		}

		out.OLSRLinkQuality = rp.OLSRLinkQuality
	case wire.RoutingProtocolBabel:
		if rp.BabelMulticastAddress != nil {
			out.BabelMulticastAddress, _ = netip.AddrFromSlice(rp.BabelMulticastAddress)
		}

		out.BabelPort = rp.BabelPort
		out.BabelHelloInterval = rp.BabelHelloInterval
	default:
		out.ID = RoutingProtocolUnknown
	}

	return out
}

// ToOptions converts c into the wire representation used by the encoder.
func (c *Config) ToOptions() (o wire.Options) {
	o.HasExpires = true
	o.Expires = c.ExpiresDelta

	if c.OriginTime != nil {
		o.HasOriginTime = true
		o.OriginTime = *c.OriginTime
	}

	o.IPv6Prefix = encodePrefixList(c.IPv6Prefix, 16)
	o.IPv6PrefixDelegation = encodePrefixList(c.IPv6PrefixDelegation, 16)
	o.IPv4PrefixDelegation = encodePrefixList(c.IPv4PrefixDelegation, 4)
	o.IPv6Address = encodeAddrList(c.IPv6Address)
	o.IPv4Address = encodeAddrList(c.IPv4Address)
	o.MyIPv6Address = encodeAddrList(c.MyIPv6Address)
	o.MyIPv4Address = encodeAddrList(c.MyIPv4Address)
	o.NameServer = encodeAddrList(c.NameServer)
	o.NTPServer = encodeAddrList(c.NTPServer)
	o.AHCPStatefulServer = encodeAddrList(c.StatefulServer)

	if c.RoutingProtocol != nil {
		o.HasRoutingProtocol = true
		o.RoutingProtocol = toWireRoutingProtocol(c.RoutingProtocol)
	}

	return o
}

func encodeAddrList(addrs []netip.Addr) (records []byte) {
	for _, a := range addrs {
		records = append(records, a.AsSlice()...)
	}

	return records
}

func encodePrefixList(prefixes []netip.Prefix, addrSize int) (records []byte) {
	for _, p := range prefixes {
		records = append(records, p.Addr().AsSlice()...)
		records = append(records, byte(p.Bits()))
	}

	return records
}

func toWireRoutingProtocol(rp *RoutingProtocol) (out wire.RoutingProtocol) {
	out.ID = wire.RoutingProtocolID(rp.ID)

	switch rp.ID {
	case RoutingProtocolStatic:
		out.StaticDefaultGateway = encodeAddrList(rp.StaticDefaultGateway)
	case RoutingProtocolOLSR:
		if rp.OLSRMulticastAddress.IsValid() {
			out.OLSRMulticastAddress = rp.OLSRMulticastAddress.AsSlice()
		}

		out.OLSRLinkQuality = rp.OLSRLinkQuality
	case RoutingProtocolBabel:
		if rp.BabelMulticastAddress.IsValid() {
			out.BabelMulticastAddress = rp.BabelMulticastAddress.AsSlice()
		}

		out.BabelPort = rp.BabelPort
		out.BabelHelloInterval = rp.BabelHelloInterval
	}

	return out
}
