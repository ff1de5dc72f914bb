// Package netio binds and manages the IPv6 UDP multicast socket the
// protocol engine sends and receives AHCP packets on, one socket shared
// across all monitored interfaces.
package netio

import (
	"context"
	"fmt"
	"net"
	"net/netip"
	"os"
	"syscall"

	"github.com/AdguardTeam/golibs/errors"
	"golang.org/x/net/ipv6"
	"golang.org/x/sys/unix"
)

// DefaultPort is the default AHCP UDP port.
const DefaultPort = 5359

// DefaultGroup is the default AHCP link-scoped multicast group.
var DefaultGroup = netip.MustParseAddr("ff02::cca6:c0f9:e182:5359")

// MaxPacketSize is the largest datagram this package will read or write.
const MaxPacketSize = 1500

// maxInterfaces is the resource limit from spec.md §5.
const maxInterfaces = 20

// Conn is the bound, multicast-joined IPv6 UDP socket shared by every
// monitored interface.
type Conn struct {
	pc    *ipv6.PacketConn
	group netip.Addr
	port  int

	ifaces map[string]*net.Interface
}

// reuseAddrCtrl configures the socket for SO_REUSEADDR, letting multiple
// AHCP-speaking processes (or re-execs across a reload) share the port.
// Grounded on the teacher's internal/aghnet reuseAddrCtrl/listenPacketReusable
// pair.
func reuseAddrCtrl(_, _ string, c syscall.RawConn) (err error) {
	cerr := c.Control(func(fd uintptr) {
		err = unix.SetsockoptInt(int(fd), unix.SOL_SOCKET, unix.SO_REUSEADDR, 1)
		if err != nil {
			err = os.NewSyscallError("setsockopt", err)
		}
	})
	if err == nil {
		err = cerr
	}

	return err
}

// Open binds the AHCP socket on port and joins group on every named
// interface. IPv6-only, SO_REUSEADDR, multicast loopback disabled,
// multicast hop limit 1, per spec.md §6.
func Open(group netip.Addr, port int, ifaceNames []string) (c *Conn, err error) {
	if len(ifaceNames) > maxInterfaces {
		return nil, fmt.Errorf("too many interfaces: %d > %d", len(ifaceNames), maxInterfaces)
	}

	lc := net.ListenConfig{Control: reuseAddrCtrl}

	pconn, err := lc.ListenPacket(context.Background(), "udp6", fmt.Sprintf("[::]:%d", port))
	if err != nil {
		return nil, fmt.Errorf("binding ahcp socket: %w", err)
	}

	pc := ipv6.NewPacketConn(pconn)

	if err = pc.SetMulticastLoopback(false); err != nil {
		return nil, fmt.Errorf("disabling multicast loopback: %w", err)
	}

	if err = pc.SetMulticastHopLimit(1); err != nil {
		return nil, fmt.Errorf("setting multicast hop limit: %w", err)
	}

	if err = pc.SetControlMessage(ipv6.FlagInterface, true); err != nil {
		return nil, fmt.Errorf("enabling interface control messages: %w", err)
	}

	c = &Conn{pc: pc, group: group, port: port, ifaces: make(map[string]*net.Interface)}

	err = c.RefreshInterfaces(ifaceNames)
	if err != nil {
		_ = pc.Close()

		return nil, err
	}

	return c, nil
}

// RefreshInterfaces re-resolves every named interface and (re)joins the
// multicast group on each. It runs at [Open] and on SIGUSR2; send errors
// such as ENETUNREACH do not trigger it.
func (c *Conn) RefreshInterfaces(ifaceNames []string) (err error) {
	var errs []error

	next := make(map[string]*net.Interface, len(ifaceNames))

	for _, name := range ifaceNames {
		iface, ierr := net.InterfaceByName(name)
		if ierr != nil {
			errs = append(errs, fmt.Errorf("interface %s: %w", name, ierr))

			continue
		}

		next[name] = iface

		jerr := c.pc.JoinGroup(iface, &net.UDPAddr{IP: c.group.AsSlice()})
		if jerr != nil && !errors.Is(jerr, unix.EADDRINUSE) {
			errs = append(errs, fmt.Errorf("joining group on %s: %w", name, jerr))

			continue
		}
	}

	c.ifaces = next

	return errors.Join(errs...)
}

// Interfaces returns the currently joined interfaces, keyed by name.
func (c *Conn) Interfaces() (ifaces map[string]*net.Interface) {
	return c.ifaces
}

// Close releases the underlying socket.
func (c *Conn) Close() (err error) {
	return c.pc.Close()
}
