package netio

import (
	"fmt"
	"net"
	"net/netip"

	"golang.org/x/net/ipv6"
)

// Packet is a received AHCP datagram along with the interface it arrived
// on and the address it came from.
type Packet struct {
	Data      []byte
	Iface     *net.Interface
	SrcAddr   netip.Addr
	SrcZone   string
}

// ReadFrom blocks until a single datagram arrives and returns it. It is
// the one blocking system call the event loop performs per iteration
// alongside the signal and file-watch channels (see spec.md §5), invoked
// from a select-driven goroutine that feeds a channel the loop reads.
func (c *Conn) ReadFrom() (p Packet, err error) {
	buf := make([]byte, MaxPacketSize)

	n, cm, src, err := c.pc.ReadFrom(buf)
	if err != nil {
		return Packet{}, fmt.Errorf("reading ahcp packet: %w", err)
	}

	udpAddr, ok := src.(*net.UDPAddr)
	if !ok {
		return Packet{}, fmt.Errorf("unexpected source address type %T", src)
	}

	addr, ok := netip.AddrFromSlice(udpAddr.IP)
	if !ok {
		return Packet{}, fmt.Errorf("invalid source address %v", udpAddr.IP)
	}

	var iface *net.Interface
	if cm != nil {
		iface, _ = net.InterfaceByIndex(cm.IfIndex)
	}

	return Packet{
		Data:    buf[:n],
		Iface:   iface,
		SrcAddr: addr,
		SrcZone: udpAddr.Zone,
	}, nil
}

// SendTo sends data to dst (unicast reply) scoped to iface's link.
func (c *Conn) SendTo(data []byte, dst netip.Addr, iface *net.Interface) (err error) {
	cm := &ipv6.ControlMessage{IfIndex: iface.Index}

	_, err = c.pc.WriteTo(data, cm, &net.UDPAddr{IP: dst.AsSlice(), Port: c.port, Zone: iface.Name})
	if err != nil {
		return fmt.Errorf("sending to %s%%%s: %w", dst, iface.Name, err)
	}

	return nil
}

// SendMulticast sends data to the configured multicast group, scoped to
// iface's link — used for queries and unsolicited floods.
func (c *Conn) SendMulticast(data []byte, iface *net.Interface) (err error) {
	return c.SendTo(data, c.group, iface)
}
