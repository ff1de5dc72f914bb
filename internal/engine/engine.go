package engine

import (
	"net"
	"time"

	"github.com/ahcp-project/ahcpd/internal/ahcpclock"
	"github.com/ahcp-project/ahcpd/internal/ahcpconf"
	"github.com/ahcp-project/ahcpd/internal/configurator"
	"github.com/ahcp-project/ahcpd/internal/leasestore"
)

// Role is the daemon's operating mode, per spec.md §4.2.
type Role int

// Role values.
const (
	RoleAuthority Role = iota
	RoleClient
)

// ClientState is a client-mode interface's position in the
// Unconfigured/Configured/Expiring state machine of spec.md §4.2.
type ClientState int

// ClientState values.
const (
	StateUnconfigured ClientState = iota
	StateConfigured
	StateExpiring
)

// String implements fmt.Stringer.
func (s ClientState) String() (str string) {
	switch s {
	case StateConfigured:
		return "configured"
	case StateExpiring:
		return "expiring"
	default:
		return "unconfigured"
	}
}

// expiringThreshold is the valid_for threshold at which a Configured
// interface moves to Expiring, per spec.md §4.2.
const expiringThreshold = 50 * time.Second

// iface holds the per-interface timer and state-machine slice of the
// engine's otherwise-global configuration.
type iface struct {
	name  string
	inet  *net.Interface
	state ClientState

	queryTimer Timer
	replyTimer Timer

	queryBackoff time.Duration
}

// Engine is the single owning object for all protocol-engine mutable
// state: per-interface timers, the currently-held configuration, origin
// election bookkeeping, and the stateful-client sub-FSM. It is driven
// exclusively from the event loop in cmd/ahcpd/run.go and holds no lock,
// per the Design Notes' "single owning engine object" guidance.
type Engine struct {
	Role   Role
	Clock  *ahcpclock.Clock
	Bridge *configurator.Bridge

	// LeaseStore is non-nil only when this daemon also grants stateful
	// leases (the optional stateful-server path).
	LeaseStore *leasestore.Store

	// NoStatefulClient disables the stateful-client sub-FSM even when a
	// held configuration advertises a stateful server, per the
	// --no-stateful-client flag of spec.md §6.
	NoStatefulClient bool

	// AuthorityConfig is the configuration loaded once at startup from the
	// authority file; nil in client mode.
	AuthorityConfig *ahcpconf.Config
	// AuthorityExpiresDelta is the expires_delay an authority re-asserts
	// on every flood.
	AuthorityExpiresDelta uint32

	ifaces map[string]*iface

	hasConfig bool
	config    *ahcpconf.Config
	// origin and expires are absolute wall-clock seconds of the currently
	// held configuration; forwarder is true once the held data did not
	// originate locally (so re-floods carry age > 0).
	origin, expires uint32
	forwarder       bool

	uniqueID []byte
	stateful *StatefulClient
}

// New returns an Engine ready to have interfaces added to it.
func New(role Role, clock *ahcpclock.Clock, bridge *configurator.Bridge) (e *Engine) {
	return &Engine{
		Role:   role,
		Clock:  clock,
		Bridge: bridge,
		ifaces: map[string]*iface{},
	}
}

// AddInterface registers name for timer scheduling. In authority mode, its
// reply-flood timer is armed immediately; in client mode, its query
// backoff starts at the initial 2s timeout.
func (e *Engine) AddInterface(name string, inet *net.Interface, now time.Time) {
	ifc := &iface{name: name, inet: inet, queryBackoff: initialQueryBackoff}
	e.ifaces[name] = ifc

	if e.Role == RoleAuthority {
		ifc.replyTimer.Schedule(now, 0, true)
	} else {
		ifc.queryTimer.Schedule(now, ifc.queryBackoff, true)
	}
}

// HasInterface reports whether name is registered.
func (e *Engine) HasInterface(name string) (ok bool) {
	_, ok = e.ifaces[name]

	return ok
}

// Interface returns the *net.Interface registered under name.
func (e *Engine) Interface(name string) (inet *net.Interface, ok bool) {
	ifc, ok := e.ifaces[name]
	if !ok {
		return nil, false
	}

	return ifc.inet, true
}

// SetAuthorityConfig installs cfg as the locally-authored configuration an
// authority daemon floods, consumed once at startup per spec.md §6. Its
// origin is now and its window is expiresDelta seconds.
func (e *Engine) SetAuthorityConfig(cfg *ahcpconf.Config, expiresDelta uint32) {
	e.AuthorityConfig = cfg
	e.AuthorityExpiresDelta = expiresDelta

	nowSec := e.Clock.Now()

	e.hasConfig = true
	e.config = cfg
	e.origin = nowSec
	e.expires = nowSec + expiresDelta
	e.forwarder = false
}

// Stateful returns the stateful-client sub-FSM, or nil if the held
// configuration carries no stateful server.
func (e *Engine) Stateful() (sc *StatefulClient) {
	return e.stateful
}

// CurrentConfig returns the currently held configuration and whether one
// is held at all.
func (e *Engine) CurrentConfig() (cfg *ahcpconf.Config, ok bool) {
	return e.config, e.hasConfig
}

