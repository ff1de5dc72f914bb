// Package configurator builds the named-parameter environment for the
// external apply/unapply operation and invokes it synchronously, per
// spec.md §4.4 and §6.
package configurator

import (
	"context"
	"fmt"
	"net/netip"
	"os"
	"os/exec"
	"strconv"
	"strings"

	"github.com/AdguardTeam/golibs/errors"
	"github.com/ahcp-project/ahcpd/internal/ahcpconf"
)

// Action is the positional verb passed to the external operation.
type Action string

// Action values, per spec.md §4.4.
const (
	ActionStart     Action = "start"
	ActionStop      Action = "stop"
	ActionStartIPv4 Action = "start-ipv4"
	ActionStopIPv4  Action = "stop-ipv4"
)

// ErrStartFailed is returned when the external operation exits non-zero
// for [ActionStart] or [ActionStartIPv4]; the caller must discard the
// candidate configuration.
const ErrStartFailed errors.Error = "configurator start failed"

// ErrStopFailed is returned when the external operation exits non-zero for
// [ActionStop] or [ActionStopIPv4]; per spec.md §7 this is fatal when it
// happens during shutdown.
const ErrStopFailed errors.Error = "configurator stop failed"

// Bridge invokes the external configuration script.
type Bridge struct {
	// Script is the path to the external executable.
	Script string

	// PID is the daemon's own process id, passed as the "daemon pid"
	// parameter.
	PID int

	// Interfaces lists the monitored interface names.
	Interfaces []string

	// DebugLevel is passed as the "debug level" parameter.
	DebugLevel int

	// NoStartRoutingProtocol sets "do-not-start-routing-protocol" when
	// true.
	NoStartRoutingProtocol bool

	// NoDNS suppresses the name_server parameter, per the --no-dns flag
	// of spec.md §6.
	NoDNS bool
}

// Apply invokes action with the environment built from cfg (which may be
// nil for the unparameterised stop actions).
func (b *Bridge) Apply(ctx context.Context, action Action, cfg *ahcpconf.Config) (err error) {
	env := b.buildEnv(cfg)

	cmd := exec.CommandContext(ctx, b.Script, string(action))
	cmd.Env = append(os.Environ(), env...)
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr

	err = cmd.Run()
	if err == nil {
		return nil
	}

	switch action {
	case ActionStart, ActionStartIPv4:
		return fmt.Errorf("running %q: %w: %w", action, ErrStartFailed, err)
	default:
		return fmt.Errorf("running %q: %w: %w", action, ErrStopFailed, err)
	}
}

// buildEnv serialises the named-parameter table of spec.md §6 into
// NAME=value environment entries.
func (b *Bridge) buildEnv(cfg *ahcpconf.Config) (env []string) {
	env = append(env,
		"AHCP_DAEMON_PID="+strconv.Itoa(b.PID),
		"AHCP_INTERFACES="+strings.Join(b.Interfaces, " "),
		"AHCP_DEBUG_LEVEL="+strconv.Itoa(b.DebugLevel),
	)

	if b.NoStartRoutingProtocol {
		env = append(env, "AHCP_DO_NOT_START_ROUTING_PROTOCOL=true")
	}

	if b.NoDNS {
		env = append(env, "AHCP_DO_NOT_CONFIGURE_DNS=true")
	}

	if cfg == nil {
		return env
	}

	if rp := cfg.RoutingProtocol; rp != nil {
		env = append(env, routingProtocolEnv(rp)...)
	}

	if len(cfg.IPv6Prefix) > 0 {
		env = append(env, "AHCP_IPv6_PREFIX="+joinPrefixes(cfg.IPv6Prefix))
	}

	if len(cfg.NameServer) > 0 && !b.NoDNS {
		env = append(env, "AHCP_NAME_SERVER="+joinAddrs(cfg.NameServer))
	}

	if len(cfg.NTPServer) > 0 {
		env = append(env, "AHCP_NTP_SERVER="+joinAddrs(cfg.NTPServer))
	}

	if len(cfg.IPv4Address) == 1 {
		env = append(env, "AHCP_IPv4_ADDRESS="+cfg.IPv4Address[0].String())
	}

	return env
}

func routingProtocolEnv(rp *ahcpconf.RoutingProtocol) (env []string) {
	switch rp.ID {
	case ahcpconf.RoutingProtocolStatic:
		env = append(env, "AHCP_ROUTING_PROTOCOL=static")
		if len(rp.StaticDefaultGateway) > 0 {
			env = append(env, "AHCP_STATIC_DEFAULT_GATEWAY="+joinAddrs(rp.StaticDefaultGateway))
		}
	case ahcpconf.RoutingProtocolOLSR:
		env = append(env, "AHCP_ROUTING_PROTOCOL=OLSR")
		if rp.OLSRMulticastAddress.IsValid() {
			env = append(env, "AHCP_OLSR_MULTICAST_ADDRESS="+rp.OLSRMulticastAddress.String())
		}

		if rp.OLSRLinkQuality != nil {
			env = append(env, "AHCP_OLSR_LINK_QUALITY="+strconv.Itoa(int(*rp.OLSRLinkQuality)))
		}
	case ahcpconf.RoutingProtocolBabel:
		env = append(env, "AHCP_ROUTING_PROTOCOL=Babel")
		if rp.BabelMulticastAddress.IsValid() {
			env = append(env, "AHCP_BABEL_MULTICAST_ADDRESS="+rp.BabelMulticastAddress.String())
		}

		if rp.BabelPort != nil {
			env = append(env, "AHCP_BABEL_PORT_NUMBER="+strconv.Itoa(int(*rp.BabelPort)))
		}

		if rp.BabelHelloInterval != nil {
			env = append(env, "AHCP_BABEL_HELLO_INTERVAL="+strconv.Itoa(int(*rp.BabelHelloInterval)))
		}
	}

	return env
}

func joinAddrs(addrs []netip.Addr) (s string) {
	parts := make([]string, len(addrs))
	for i, a := range addrs {
		parts[i] = a.String()
	}

	return strings.Join(parts, " ")
}

func joinPrefixes(prefixes []netip.Prefix) (s string) {
	parts := make([]string, len(prefixes))
	for i, p := range prefixes {
		parts[i] = fmt.Sprintf("%s/%d", p.Addr(), p.Bits())
	}

	return strings.Join(parts, " ")
}
