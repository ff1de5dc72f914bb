package main

import (
	"context"
	"fmt"
	"net"
	"net/netip"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/AdguardTeam/golibs/log"
	"github.com/ahcp-project/ahcpd/internal/aghos"
	"github.com/ahcp-project/ahcpd/internal/ahcpclock"
	"github.com/ahcp-project/ahcpd/internal/ahcpmetrics"
	"github.com/ahcp-project/ahcpd/internal/ahcpopts"
	"github.com/ahcp-project/ahcpd/internal/configurator"
	"github.com/ahcp-project/ahcpd/internal/engine"
	"github.com/ahcp-project/ahcpd/internal/leasestore"
	"github.com/ahcp-project/ahcpd/internal/netio"
	"github.com/prometheus/client_golang/prometheus"
)

// run builds every component and drives the single-threaded event loop
// until ctx is cancelled or a terminal signal arrives.
func run(ctx context.Context, opts ahcpopts.Options) (err error) {
	if len(opts.Interfaces) == 0 {
		return fmt.Errorf("no interfaces given")
	}

	uid, err := loadOrCreateUniqueID(cmpStr(opts.UniqueIDFile, "/var/lib/ahcpd/unique-id"))
	if err != nil {
		return err
	}

	bridge := &configurator.Bridge{
		Script:                 opts.ConfiguratorScript,
		PID:                    os.Getpid(),
		Interfaces:             opts.Interfaces,
		DebugLevel:             opts.DebugLevel,
		NoStartRoutingProtocol: opts.NoRoutingProtocol,
		NoDNS:                  opts.NoDNS,
	}

	clock := ahcpclock.System()

	role := engine.RoleClient
	if opts.AuthorityFile != "" {
		role = engine.RoleAuthority
	}

	e := engine.New(role, clock, bridge)
	e.SetUniqueID(uid)
	e.NoStatefulClient = opts.NoStatefulClient

	if opts.LeaseFirst != "" {
		first, perr := netip.ParseAddr(opts.LeaseFirst)
		if perr != nil {
			return fmt.Errorf("lease-first: %w", perr)
		}

		last, lerr := netip.ParseAddr(opts.LeaseLast)
		if lerr != nil {
			return fmt.Errorf("lease-last: %w", lerr)
		}

		store, serr := leasestore.Open(opts.LeaseDir, first, last, clock)
		if serr != nil {
			return fmt.Errorf("opening lease store: %w", serr)
		}

		e.LeaseStore = store
	}

	if role == engine.RoleAuthority {
		cfg, cerr := loadAuthorityConfig(opts.AuthorityFile)
		if cerr != nil {
			return cerr
		}

		e.SetAuthorityConfig(cfg, uint32(cmpUint(opts.ExpiresDelta, 3600)))
	}

	group := cmpAddr(opts.MulticastGroup, netio.DefaultGroup)
	port := cmpInt(opts.Port, netio.DefaultPort)

	conn, err := netio.Open(group, port, opts.Interfaces)
	if err != nil {
		return fmt.Errorf("opening ahcp socket: %w", err)
	}
	defer func() { _ = conn.Close() }()

	now := time.Now()
	for _, name := range opts.Interfaces {
		inet, ok := conn.Interfaces()[name]
		if !ok {
			log.Error("ahcpd: interface %s not joined, skipping", name)

			continue
		}

		e.AddInterface(name, inet, now)
	}

	if ok := writePIDFile(opts.PIDFile); ok {
		defer removePIDFile(opts.PIDFile)
	}

	if opts.MetricsAddr != "" {
		reg := prometheus.NewRegistry()
		m := ahcpmetrics.New(reg)

		srv := ahcpmetrics.NewServer(opts.MetricsAddr, reg)

		go func() {
			if merr := srv.Serve(ctx); merr != nil {
				log.Error("ahcpd: metrics server: %s", merr)
			}
		}()

		metrics = m
	}

	watcher, err := newReloadWatcher(ctx, opts)
	if err != nil {
		return err
	}

	defer func() { _ = watcher.Shutdown(ctx) }()

	signals := make(chan os.Signal, 4)
	notified := append([]os.Signal{syscall.SIGTERM, syscall.SIGINT, syscall.SIGHUP, syscall.SIGUSR2}, dumpSignals()...)
	signal.Notify(signals, notified...)
	defer signal.Stop(signals)

	packets := make(chan netio.Packet, 4)

	go readLoop(conn, packets)

	return eventLoop(ctx, e, conn, packets, signals, watcher.Events(), opts)
}

// eventLoop is the single-threaded cooperative loop of spec.md §5: one
// blocking multiplexed wait per iteration (protocol socket, signals, and
// the authority-file watcher, all read via select — Go's idiomatic
// replacement for the self-pipe a single-threaded C implementation would
// need), then timer evaluation and outbound effects.
func eventLoop(
	ctx context.Context,
	e *engine.Engine,
	conn *netio.Conn,
	packets <-chan netio.Packet,
	signals <-chan os.Signal,
	reload <-chan aghos.Event,
	opts ahcpopts.Options,
) (err error) {
	for {
		wait := waitDuration(e, ahcpclock.System())

		timer := time.NewTimer(wait)

		select {
		case <-ctx.Done():
			timer.Stop()

			return shutdown(ctx, e, conn)

		case sig := <-signals:
			timer.Stop()

			switch {
			case sig == syscall.SIGHUP, sig == syscall.SIGTERM, sig == syscall.SIGINT:
				return shutdown(ctx, e, conn)
			case sig == syscall.SIGUSR2:
				if rerr := conn.RefreshInterfaces(opts.Interfaces); rerr != nil {
					log.Error("ahcpd: refreshing interfaces: %s", rerr)
				}

				if lerr := ahcplogConfigure(opts); lerr != nil {
					log.Error("ahcpd: reopening log: %s", lerr)
				}
			default:
				// SIGUSR1, and SIGINFO where the platform supports it.
				dumpState(e)
			}

		case <-reload:
			timer.Stop()

			if opts.AuthorityFile != "" {
				reloadAuthorityConfig(e, opts)
			}

		case pkt, ok := <-packets:
			timer.Stop()

			if !ok {
				return fmt.Errorf("ahcp socket closed unexpectedly")
			}

			handlePacket(e, conn, pkt)

		case <-timer.C:
			// Nothing to read; fall through to timer evaluation below.
		}

		for _, action := range e.Tick(time.Now()) {
			performAction(e, conn, action)
		}
	}
}

// waitDuration computes the next select wait, capped at
// [ahcpclock.MaxWait] while the clock is broken so a future NTP step is
// noticed promptly, per spec.md §5.
func waitDuration(e *engine.Engine, clock *ahcpclock.Clock) (d time.Duration) {
	deadline := e.NextDeadline()
	if deadline == nil {
		return ahcpclock.MaxWait
	}

	d = time.Until(*deadline)
	if d < 0 {
		d = 0
	}

	if clock.Broken() && d > ahcpclock.MaxWait {
		d = ahcpclock.MaxWait
	}

	return d
}

func shutdown(ctx context.Context, e *engine.Engine, conn *netio.Conn) (err error) {
	if action, ok := e.ReleaseAction(); ok {
		performStatefulRelease(e, conn, action.Server)
	}

	if serr := e.StopConfigurator(ctx); serr != nil {
		log.Error("ahcpd: configurator stop on shutdown: %s", serr)

		return fmt.Errorf("configurator stop on shutdown: %w", serr)
	}

	return nil
}

func anyInterface(conn *netio.Conn) (inet *net.Interface, ok bool) {
	for _, inet = range conn.Interfaces() {
		return inet, true
	}

	return nil, false
}

func dumpState(e *engine.Engine) {
	cfg, ok := e.CurrentConfig()
	if !ok {
		log.Info("ahcpd: state dump: no configuration held")

		return
	}

	log.Info("ahcpd: state dump: config=%+v stateful=%+v", cfg, e.Stateful())
}

func reloadAuthorityConfig(e *engine.Engine, opts ahcpopts.Options) {
	cfg, err := loadAuthorityConfig(opts.AuthorityFile)
	if err != nil {
		log.Error("ahcpd: reloading authority file: %s", err)

		return
	}

	e.SetAuthorityConfig(cfg, uint32(cmpUint(opts.ExpiresDelta, 3600)))
}

// cmpStr returns a if it is non-empty, else fallback.
func cmpStr(a, fallback string) (s string) {
	if a != "" {
		return a
	}

	return fallback
}

func cmpUint(a uint, fallback uint) (u uint) {
	if a != 0 {
		return a
	}

	return fallback
}

func cmpInt(a, fallback int) (n int) {
	if a != 0 {
		return a
	}

	return fallback
}

func cmpAddr(a, fallback netip.Addr) (addr netip.Addr) {
	if a.IsValid() {
		return a
	}

	return fallback
}
