package main

import (
	"net"
	"net/netip"
	"time"

	"github.com/AdguardTeam/golibs/errors"
	"github.com/AdguardTeam/golibs/log"
	"github.com/ahcp-project/ahcpd/internal/ahcpconf"
	"github.com/ahcp-project/ahcpd/internal/engine"
	"github.com/ahcp-project/ahcpd/internal/leasestore"
	"github.com/ahcp-project/ahcpd/internal/netio"
	"github.com/ahcp-project/ahcpd/internal/wire"
)

// defaultRequestedLease is the lease window this daemon asks for in every
// STATEFUL_REQUEST; the server may grant less, per spec.md §4.2.
const defaultRequestedLease = 3600 * time.Second

// readLoop repeatedly blocks on conn.ReadFrom, feeding every datagram
// (and fatal read error, as a closed channel) to packets so the main
// select loop never calls a blocking syscall directly, per spec.md §5.
func readLoop(conn *netio.Conn, packets chan<- netio.Packet) {
	defer close(packets)

	for {
		pkt, err := conn.ReadFrom()
		if err != nil {
			log.Error("ahcpd: reading packet: %s", err)

			return
		}

		packets <- pkt
	}
}

// decodeSuggested interprets a stateful header's Data field as an IPv4
// address, returning the zero (invalid) Addr for an absent or
// wrong-length field.
func decodeSuggested(data []byte) (addr netip.Addr) {
	if len(data) != 4 {
		return netip.Addr{}
	}

	return netip.AddrFrom4([4]byte(data))
}

// handlePacket decodes and dispatches one received datagram per its
// opcode, per spec.md §3-§4.
func handlePacket(e *engine.Engine, conn *netio.Conn, pkt netio.Packet) {
	if pkt.Iface == nil {
		return
	}

	hdr, n, err := wire.DecodeHeader(pkt.Data)
	if err != nil {
		log.Debug("ahcpd: dropping malformed packet from %s: %s", pkt.Iface.Name, err)

		return
	}

	body := pkt.Data[n:]
	now := time.Now()

	switch hdr.Opcode {
	case wire.OpQuery:
		e.OnQuery(pkt.Iface.Name, now)

	case wire.OpReply:
		handleReply(e, pkt.Iface.Name, body, now)

	case wire.OpStatefulRequest:
		handleStatefulRequest(e, conn, pkt, body)

	case wire.OpStatefulRelease:
		handleStatefulRelease(e, body)

	case wire.OpStatefulACK:
		handleStatefulACK(e, body, now)

	case wire.OpStatefulNAK:
		e.HandleStatefulNAK(now)

		if metrics != nil {
			metrics.StatefulNAKsReceived.Inc()
		}

	default:
		log.Debug("ahcpd: dropping packet with unknown opcode %d from %s", hdr.Opcode, pkt.Iface.Name)
	}
}

func handleReply(e *engine.Engine, ifaceName string, body []byte, now time.Time) {
	rh, n, err := wire.DecodeReplyHeader(body)
	if err != nil {
		log.Debug("ahcpd: dropping malformed reply on %s: %s", ifaceName, err)

		return
	}

	if int(rh.Length) > len(body)-n {
		log.Debug("ahcpd: dropping reply on %s: declared length exceeds packet", ifaceName)

		return
	}

	opts, err := wire.DecodeOptions(body[n:n+int(rh.Length)], false)
	if err != nil {
		log.Debug("ahcpd: dropping reply on %s with malformed options: %s", ifaceName, err)

		return
	}

	cfg, err := ahcpconf.FromOptions(opts)
	if err != nil {
		log.Debug("ahcpd: dropping reply on %s: %s", ifaceName, err)

		return
	}

	if e.Role == engine.RoleClient {
		cfg.ClampExpires()
	}

	triple := engine.FreshnessTriple{Origin: rh.Origin, Expires: rh.Expires, Age: uint32(rh.Age)}

	if e.OnReply(ifaceName, triple, cfg, now) && metrics != nil {
		metrics.RepliesReceived.Inc()
	}
}

func handleStatefulRequest(e *engine.Engine, conn *netio.Conn, pkt netio.Packet, body []byte) {
	sh, _, err := wire.DecodeStatefulHeader(body)
	if err != nil {
		log.Debug("ahcpd: dropping malformed stateful request from %s: %s", pkt.Iface.Name, err)

		return
	}

	suggested := decodeSuggested(sh.Data)
	requestedLease := time.Duration(sh.LeaseTime) * time.Second

	addr, lease, err := e.GrantLease(sh.UniqueID, suggested, requestedLease)
	if err != nil {
		if errors.Is(err, leasestore.ErrNoAddress) || errors.Is(err, leasestore.ErrConflict) {
			nak, nerr := engine.BuildStatefulNAK(sh.UniqueID)
			if nerr == nil {
				if serr := conn.SendTo(nak, pkt.SrcAddr, pkt.Iface); serr != nil {
					log.Error("ahcpd: sending stateful nak: %s", serr)
				}
			}

			return
		}

		log.Error("ahcpd: granting lease: %s", err)

		return
	}

	ack, err := engine.BuildStatefulACK(sh.UniqueID, addr, lease)
	if err != nil {
		log.Error("ahcpd: building stateful ack: %s", err)

		return
	}

	if serr := conn.SendTo(ack, pkt.SrcAddr, pkt.Iface); serr != nil {
		log.Error("ahcpd: sending stateful ack: %s", serr)
	}
}

func handleStatefulRelease(e *engine.Engine, body []byte) {
	sh, _, err := wire.DecodeStatefulHeader(body)
	if err != nil {
		log.Debug("ahcpd: dropping malformed stateful release: %s", err)

		return
	}

	addr := decodeSuggested(sh.Data)
	if !addr.IsValid() {
		return
	}

	if err = e.ReleaseLease(sh.UniqueID, addr); err != nil {
		log.Debug("ahcpd: stateful release: %s", err)
	}
}

func handleStatefulACK(e *engine.Engine, body []byte, now time.Time) {
	sh, _, err := wire.DecodeStatefulHeader(body)
	if err != nil {
		log.Debug("ahcpd: dropping malformed stateful ack: %s", err)

		return
	}

	addr := decodeSuggested(sh.Data)
	if !addr.IsValid() {
		return
	}

	e.HandleStatefulACK(addr, time.Duration(sh.LeaseTime)*time.Second, now)
}

// performAction builds and sends the packet a due [engine.Action]
// describes, incrementing the matching counter when metrics are enabled.
func performAction(e *engine.Engine, conn *netio.Conn, action engine.Action) {
	switch action.Kind {
	case engine.ActionSendQuery:
		performQuery(conn, action.Iface)

	case engine.ActionSendReply:
		performReply(e, conn, action.Iface)

	case engine.ActionSendStatefulRequest:
		performStatefulRequest(e, conn, action.Server)

	case engine.ActionSendStatefulRelease:
		performStatefulRelease(e, conn, action.Server)
	}
}

func performQuery(conn *netio.Conn, ifaceName string) {
	inet, err := net.InterfaceByName(ifaceName)
	if err != nil {
		log.Error("ahcpd: interface %s vanished: %s", ifaceName, err)

		return
	}

	data, err := engine.BuildQueryPacket()
	if err != nil {
		log.Error("ahcpd: building query: %s", err)

		return
	}

	if err = conn.SendMulticast(data, inet); err != nil {
		log.Error("ahcpd: sending query on %s: %s", ifaceName, err)

		return
	}

	if metrics != nil {
		metrics.QueriesSent.Inc()
	}
}

func performReply(e *engine.Engine, conn *netio.Conn, ifaceName string) {
	inet, ok := e.Interface(ifaceName)
	if !ok {
		return
	}

	data, ok, err := e.BuildReplyPacket(time.Now())
	if err != nil {
		log.Error("ahcpd: building reply: %s", err)

		return
	}

	if !ok {
		return
	}

	if err = conn.SendMulticast(data, inet); err != nil {
		log.Error("ahcpd: sending reply on %s: %s", ifaceName, err)

		return
	}

	if metrics != nil {
		metrics.RepliesSent.Inc()
		metrics.FloodsSent.Inc()
	}
}

func performStatefulRequest(e *engine.Engine, conn *netio.Conn, server netip.Addr) {
	suggested := netip.Addr{}
	if sc := e.Stateful(); sc != nil && sc.State() == engine.StatefulBound {
		suggested = sc.LeaseAddr()
	}

	data, err := e.BuildStatefulRequestPacket(suggested, defaultRequestedLease)
	if err != nil {
		log.Error("ahcpd: building stateful request: %s", err)

		return
	}

	iface, ok := anyInterface(conn)
	if !ok {
		return
	}

	if err = conn.SendTo(data, server, iface); err != nil {
		log.Error("ahcpd: sending stateful request: %s", err)

		return
	}

	if metrics != nil {
		metrics.StatefulRequestsSent.Inc()
	}
}

func performStatefulRelease(e *engine.Engine, conn *netio.Conn, server netip.Addr) {
	data, ok, err := e.BuildStatefulReleasePacket()
	if err != nil || !ok {
		return
	}

	iface, iok := anyInterface(conn)
	if !iok {
		return
	}

	if serr := conn.SendTo(data, server, iface); serr != nil {
		log.Error("ahcpd: sending stateful release: %s", serr)
	}
}
