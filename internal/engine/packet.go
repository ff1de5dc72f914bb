package engine

import (
	"net/netip"
	"time"

	"github.com/ahcp-project/ahcpd/internal/wire"
)

// BuildQueryPacket returns the raw bytes of a QUERY, which carries no
// body.
func BuildQueryPacket() (data []byte, err error) {
	return encodeEnvelope(wire.OpQuery, nil)
}

// BuildReplyPacket returns the raw bytes of a REPLY carrying the
// currently held configuration's freshness triple and TLV body. It
// returns false if no configuration is currently held.
func (e *Engine) BuildReplyPacket(now time.Time) (data []byte, ok bool, err error) {
	if !e.hasConfig {
		return nil, false, nil
	}

	body := wire.NewWriter(wire.MaxPacketSize)
	if err = wire.EncodeOptions(body, e.config.ToOptions()); err != nil {
		return nil, false, err
	}

	nowSec := e.Clock.Now()

	hdr := wire.ReplyHeader{
		Origin:  e.origin,
		Expires: e.expires,
		Age:     uint16(age(e.origin, nowSec)), //nolint:gosec // age is bounded by expires-origin, which fits well under 16 bits in practice
		Length:  uint16(body.Len()),            //nolint:gosec // body is bounded by MaxPacketSize
	}

	w := wire.NewWriter(wire.MaxPacketSize)
	if err = wire.EncodeHeader(w, wire.OpReply); err != nil {
		return nil, false, err
	}

	if err = wire.EncodeReplyHeader(w, hdr); err != nil {
		return nil, false, err
	}

	if err = w.PutBytes(body.Bytes()); err != nil {
		return nil, false, err
	}

	return w.Bytes(), true, nil
}

// BuildStatefulRequestPacket returns the raw bytes of a STATEFUL_REQUEST
// for the stateful-client sub-FSM's current lease (or a fresh request when
// none is held), suggesting suggested (the zero value requests any
// address) for a lease of requestedLease.
func (e *Engine) BuildStatefulRequestPacket(suggested netip.Addr, requestedLease time.Duration) (data []byte, err error) {
	h := wire.StatefulHeader{
		LeaseTime: uint16(requestedLease.Seconds()), //nolint:gosec // clamped to maxLeaseSeconds (3600) well under 16 bits
		UniqueID:  e.uniqueID,
	}

	if suggested.IsValid() && suggested.Is4() {
		h.Data = suggested.AsSlice()
	}

	return encodeStatefulEnvelope(wire.OpStatefulRequest, h)
}

// BuildStatefulReleasePacket returns the raw bytes of the RELEASE sent at
// shutdown for the currently bound lease.
func (e *Engine) BuildStatefulReleasePacket() (data []byte, ok bool, err error) {
	if e.stateful == nil || e.stateful.state != StatefulBound {
		return nil, false, nil
	}

	h := wire.StatefulHeader{UniqueID: e.uniqueID, Data: e.stateful.leaseAddr.AsSlice()}

	data, err = encodeStatefulEnvelope(wire.OpStatefulRelease, h)

	return data, true, err
}

// BuildStatefulACK returns the raw bytes of a STATEFUL_ACK granting addr
// for lease, echoing the requester's uniqueID (the server role).
func BuildStatefulACK(uniqueID []byte, addr netip.Addr, lease time.Duration) (data []byte, err error) {
	h := wire.StatefulHeader{
		LeaseTime: uint16(lease.Seconds()), //nolint:gosec // clamped to maxLeaseSeconds (3600) well under 16 bits
		UniqueID:  uniqueID,
		Data:      addr.AsSlice(),
	}

	return encodeStatefulEnvelope(wire.OpStatefulACK, h)
}

// BuildStatefulNAK returns the raw bytes of a STATEFUL_NAK, echoing the
// requester's uniqueID (the server role).
func BuildStatefulNAK(uniqueID []byte) (data []byte, err error) {
	return encodeStatefulEnvelope(wire.OpStatefulNAK, wire.StatefulHeader{UniqueID: uniqueID})
}

func encodeEnvelope(op wire.Opcode, body []byte) (data []byte, err error) {
	w := wire.NewWriter(wire.MaxPacketSize)
	if err = wire.EncodeHeader(w, op); err != nil {
		return nil, err
	}

	if err = w.PutBytes(body); err != nil {
		return nil, err
	}

	return w.Bytes(), nil
}

func encodeStatefulEnvelope(op wire.Opcode, h wire.StatefulHeader) (data []byte, err error) {
	w := wire.NewWriter(wire.MaxPacketSize)
	if err = wire.EncodeHeader(w, op); err != nil {
		return nil, err
	}

	if err = wire.EncodeStatefulHeader(w, h); err != nil {
		return nil, err
	}

	return w.Bytes(), nil
}
