package wire

import "encoding/binary"

// EncodeOptions appends the TLV encoding of o to w in the fixed order
// required by the encoder contract: MANDATORY+EXPIRES first, then
// addresses/prefixes, then name/NTP servers, then server identity.
func EncodeOptions(w *Writer, o Options) (err error) {
	if o.HasExpires {
		if err = w.PutMandatory(); err != nil {
			return err
		}

		buf := make([]byte, 4)
		binary.BigEndian.PutUint32(buf, o.Expires)
		if err = w.PutOption(optExpires, buf); err != nil {
			return err
		}
	}

	if o.HasOriginTime {
		buf := make([]byte, 4)
		binary.BigEndian.PutUint32(buf, o.OriginTime)
		if err = w.PutOption(optOriginTime, buf); err != nil {
			return err
		}
	}

	if len(o.IPv6Prefix) > 0 {
		if err = putRecords(w, optIPv6Prefix, o.IPv6Prefix, 17); err != nil {
			return err
		}
	}

	if len(o.IPv6PrefixDelegation) > 0 {
		if err = putRecords(w, optIPv6PrefixDelegation, o.IPv6PrefixDelegation, 17); err != nil {
			return err
		}
	}

	if len(o.IPv4PrefixDelegation) > 0 {
		if err = putRecords(w, optIPv4PrefixDelegation, o.IPv4PrefixDelegation, 5); err != nil {
			return err
		}
	}

	if len(o.IPv6Address) > 0 {
		if err = putRecords(w, optIPv6Address, o.IPv6Address, 16); err != nil {
			return err
		}
	}

	if len(o.IPv4Address) > 0 {
		if err = putRecords(w, optIPv4Address, o.IPv4Address, 4); err != nil {
			return err
		}
	}

	if len(o.MyIPv6Address) > 0 {
		if err = putRecords(w, optMyIPv6Address, o.MyIPv6Address, 16); err != nil {
			return err
		}
	}

	if len(o.MyIPv4Address) > 0 {
		if err = putRecords(w, optMyIPv4Address, o.MyIPv4Address, 4); err != nil {
			return err
		}
	}

	if o.HasRoutingProtocol {
		if err = encodeRoutingProtocol(w, o.RoutingProtocol); err != nil {
			return err
		}
	}

	if len(o.NameServer) > 0 {
		if err = putRecords(w, optNameServer, o.NameServer, 16); err != nil {
			return err
		}
	}

	if len(o.NTPServer) > 0 {
		if err = putRecords(w, optNTPServer, o.NTPServer, 16); err != nil {
			return err
		}
	}

	if len(o.AHCPStatefulServer) > 0 {
		if err = putRecords(w, optAHCPStatefulServer, o.AHCPStatefulServer, 16); err != nil {
			return err
		}
	}

	return nil
}

// putRecords splits records into recSize-byte chunks and emits each as a
// separate option of type typ, preserving order.  Splitting keeps every
// option's value within the 255-byte TLV length field.
func putRecords(w *Writer, typ byte, records []byte, recSize int) (err error) {
	const maxRecordsPerOption = 255 / 16 // 15 records of the largest recSize used here (17) fill exactly 255 bytes

	chunk := maxRecordsPerOption * recSize
	for len(records) > 0 {
		n := chunk
		if n > len(records) {
			n = len(records)
		}

		if err = w.PutOption(typ, records[:n]); err != nil {
			return err
		}

		records = records[n:]
	}

	return nil
}

// encodeRoutingProtocol appends a ROUTING_PROTOCOL option built from rp.
func encodeRoutingProtocol(w *Writer, rp RoutingProtocol) (err error) {
	sub := NewWriter(255)

	switch rp.ID {
	case RoutingProtocolStatic:
		if len(rp.StaticDefaultGateway) > 0 {
			if err = putRecords(sub, subStaticDefaultGateway, rp.StaticDefaultGateway, 16); err != nil {
				return err
			}
		}
	case RoutingProtocolOLSR:
		if rp.OLSRMulticastAddress != nil {
			if err = sub.PutOption(subOLSRMulticastAddress, rp.OLSRMulticastAddress); err != nil {
				return err
			}
		}

		if rp.OLSRLinkQuality != nil {
			if err = sub.PutOption(subOLSRLinkQuality, []byte{*rp.OLSRLinkQuality}); err != nil {
				return err
			}
		}
	case RoutingProtocolBabel:
		if rp.BabelMulticastAddress != nil {
			if err = sub.PutOption(subBabelMulticastAddress, rp.BabelMulticastAddress); err != nil {
				return err
			}
		}

		if rp.BabelPort != nil {
			buf := make([]byte, 2)
			binary.BigEndian.PutUint16(buf, *rp.BabelPort)
			if err = sub.PutOption(subBabelPort, buf); err != nil {
				return err
			}
		}

		if rp.BabelHelloInterval != nil {
			buf := make([]byte, 2)
			binary.BigEndian.PutUint16(buf, *rp.BabelHelloInterval)
			if err = sub.PutOption(subBabelHelloInterval, buf); err != nil {
				return err
			}
		}
	}

	value := make([]byte, 0, 1+sub.Len())
	value = append(value, byte(rp.ID))
	value = append(value, sub.Bytes()...)

	if len(value) > 255 {
		return ErrBufferFull
	}

	return w.PutOption(optRoutingProtocol, value)
}
