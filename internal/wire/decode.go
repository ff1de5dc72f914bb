package wire

import "encoding/binary"

// optionHandler is called for each real option encountered by walkTLV.  It
// returns handled=true if the option type was recognised (whether or not
// its value was acceptable); walkTLV turns handled=false plus a set
// mandatory flag into [ErrUnknownMandatory].
type optionHandler func(off int, typ byte, mandatory bool, value []byte) (handled bool, err error)

// walkTLV scans the PAD/MANDATORY-aware TLV stream in body, calling handle
// for every real option.  It consumes exactly len(body) bytes or returns
// an error.
func walkTLV(body []byte, handle optionHandler) (err error) {
	mandatory := false
	off := 0

	for off < len(body) {
		typ := body[off]

		switch typ {
		case optPad:
			off++

			continue
		case optMandatory:
			mandatory = true
			off++

			continue
		}

		if off+2 > len(body) {
			return newDecodeError(ErrTruncatedOption, off)
		}

		length := int(body[off+1])
		valStart := off + 2
		valEnd := valStart + length

		if valEnd > len(body) {
			return newDecodeError(ErrTruncatedOption, off)
		}

		value := body[valStart:valEnd]

		handled, herr := handle(off, typ, mandatory, value)
		if herr != nil {
			return herr
		}

		if !handled && mandatory {
			return newDecodeError(ErrUnknownMandatory, off)
		}

		mandatory = false
		off = valEnd
	}

	return nil
}

// isMultipleOf reports whether len(b) is a positive multiple of n, or
// zero.
func isMultipleOf(b []byte, n int) (ok bool) {
	return len(b)%n == 0
}

// DecodeOptions decodes the TLV body of a packet into an [Options] value.
// strict selects client-mode decoding; both modes apply the same
// structural rules — spec.md does not differentiate strict/lenient at the
// wire-format level, only at the semantic-acceptance level handled by
// callers (internal/engine).
func DecodeOptions(body []byte, strict bool) (o Options, err error) {
	err = walkTLV(body, func(off int, typ byte, mandatory bool, value []byte) (handled bool, err error) {
		switch typ {
		case optExpires:
			if len(value) != 4 {
				return true, newDecodeError(ErrBadLength, off)
			}

			o.HasExpires = true
			o.Expires = binary.BigEndian.Uint32(value)

			return true, nil
		case optOriginTime:
			if len(value) != 4 {
				return true, newDecodeError(ErrBadLength, off)
			}

			o.HasOriginTime = true
			o.OriginTime = binary.BigEndian.Uint32(value)

			return true, nil
		case optIPv6Prefix:
			if !isMultipleOf(value, 17) {
				return true, newDecodeError(ErrBadLength, off)
			}

			o.IPv6Prefix = append(o.IPv6Prefix, value...)

			return true, nil
		case optIPv6PrefixDelegation:
			if !isMultipleOf(value, 17) {
				return true, newDecodeError(ErrBadLength, off)
			}

			o.IPv6PrefixDelegation = append(o.IPv6PrefixDelegation, value...)

			return true, nil
		case optIPv4PrefixDelegation:
			if !isMultipleOf(value, 5) {
				return true, newDecodeError(ErrBadLength, off)
			}

			o.IPv4PrefixDelegation = append(o.IPv4PrefixDelegation, value...)

			return true, nil
		case optIPv6Address:
			if !isMultipleOf(value, 16) {
				return true, newDecodeError(ErrBadLength, off)
			}

			o.IPv6Address = append(o.IPv6Address, value...)

			return true, nil
		case optIPv4Address:
			if !isMultipleOf(value, 4) {
				return true, newDecodeError(ErrBadLength, off)
			}

			o.IPv4Address = append(o.IPv4Address, value...)

			return true, nil
		case optMyIPv6Address:
			if !isMultipleOf(value, 16) {
				return true, newDecodeError(ErrBadLength, off)
			}

			o.MyIPv6Address = append(o.MyIPv6Address, value...)

			return true, nil
		case optMyIPv4Address:
			if !isMultipleOf(value, 4) {
				return true, newDecodeError(ErrBadLength, off)
			}

			o.MyIPv4Address = append(o.MyIPv4Address, value...)

			return true, nil
		case optNameServer:
			if !isMultipleOf(value, 16) {
				return true, newDecodeError(ErrBadLength, off)
			}

			o.NameServer = append(o.NameServer, value...)

			return true, nil
		case optNTPServer:
			if !isMultipleOf(value, 16) {
				return true, newDecodeError(ErrBadLength, off)
			}

			o.NTPServer = append(o.NTPServer, value...)

			return true, nil
		case optAHCPStatefulServer:
			if !isMultipleOf(value, 16) {
				return true, newDecodeError(ErrBadLength, off)
			}

			o.AHCPStatefulServer = append(o.AHCPStatefulServer, value...)

			return true, nil
		case optRoutingProtocol:
			rp, rerr := decodeRoutingProtocol(value, off)
			if rerr != nil {
				return true, rerr
			}

			o.HasRoutingProtocol = true
			o.RoutingProtocol = rp

			return true, nil
		default:
			return false, nil
		}
	})

	return o, err
}

// decodeRoutingProtocol decodes the body of a ROUTING_PROTOCOL option:
// one protocol-id byte followed by a recursive PAD/MANDATORY-aware
// sub-stream whose legal sub-options depend on the protocol id.
func decodeRoutingProtocol(value []byte, baseOff int) (rp RoutingProtocol, err error) {
	if len(value) < 1 {
		return RoutingProtocol{}, newDecodeError(ErrBadLength, baseOff)
	}

	id := RoutingProtocolID(value[0])
	sub := value[1:]

	switch id {
	case RoutingProtocolStatic:
		rp.ID = id
		err = walkTLV(sub, func(off int, typ byte, mandatory bool, v []byte) (bool, error) {
			if typ != subStaticDefaultGateway {
				return false, nil
			}

			if !isMultipleOf(v, 16) {
				return true, newDecodeError(ErrBadLength, baseOff+1+off)
			}

			rp.StaticDefaultGateway = append(rp.StaticDefaultGateway, v...)

			return true, nil
		})
	case RoutingProtocolOLSR:
		rp.ID = id
		err = walkTLV(sub, func(off int, typ byte, mandatory bool, v []byte) (bool, error) {
			switch typ {
			case subOLSRMulticastAddress:
				if len(v) != 16 {
					return true, newDecodeError(ErrBadLength, baseOff+1+off)
				}

				rp.OLSRMulticastAddress = append([]byte(nil), v...)

				return true, nil
			case subOLSRLinkQuality:
				if len(v) != 1 || v[0] > 2 {
					// REDESIGN FLAGS: values > 2 are a hard rejection, not
					// a logged-and-ignored warning.
					return true, newDecodeError(ErrBadLength, baseOff+1+off)
				}

				q := v[0]
				rp.OLSRLinkQuality = &q

				return true, nil
			default:
				return false, nil
			}
		})
	case RoutingProtocolBabel:
		rp.ID = id
		err = walkTLV(sub, func(off int, typ byte, mandatory bool, v []byte) (bool, error) {
			switch typ {
			case subBabelMulticastAddress:
				if len(v) != 16 {
					return true, newDecodeError(ErrBadLength, baseOff+1+off)
				}

				rp.BabelMulticastAddress = append([]byte(nil), v...)

				return true, nil
			case subBabelPort:
				if len(v) != 2 {
					return true, newDecodeError(ErrBadLength, baseOff+1+off)
				}

				p := binary.BigEndian.Uint16(v)
				rp.BabelPort = &p

				return true, nil
			case subBabelHelloInterval:
				if len(v) != 2 {
					return true, newDecodeError(ErrBadLength, baseOff+1+off)
				}

				hi := binary.BigEndian.Uint16(v)
				rp.BabelHelloInterval = &hi

				return true, nil
			default:
				return false, nil
			}
		})
	default:
		rp.ID = RoutingProtocolUnknown

		// Still walk the sub-stream so that an unknown-mandatory
		// sub-option is rejected rather than silently accepted.
		err = walkTLV(sub, func(off int, typ byte, mandatory bool, v []byte) (bool, error) {
			return false, nil
		})
	}

	return rp, err
}
