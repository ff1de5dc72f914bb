package engine

import (
	"context"
	"net/netip"
	"reflect"
	"time"

	"github.com/AdguardTeam/golibs/log"
	"github.com/ahcp-project/ahcpd/internal/ahcpconf"
	"github.com/ahcp-project/ahcpd/internal/configurator"
)

// FreshnessTriple is the (origin, expires, age) carried by every
// stateless reply, per spec.md §3.
type FreshnessTriple struct {
	Origin  uint32
	Expires uint32
	Age     uint32
}

// SetUniqueID sets the 128-bit persisted client identity used by the
// stateful-client sub-FSM. It must be called before a stateful server is
// ever advertised.
func (e *Engine) SetUniqueID(id []byte) {
	e.uniqueID = id
}

// OnReply integrates a received REPLY into held state: it runs the packet
// sanity checks, computes validity, applies origin election with
// hysteresis, and — on acceptance — invokes the configurator bridge and
// re-arms ifaceName's timers. It returns whether the payload was adopted.
func (e *Engine) OnReply(ifaceName string, triple FreshnessTriple, cfg *ahcpconf.Config, now time.Time) (accepted bool) {
	nowSec := e.Clock.Now()
	broken := e.Clock.Broken()

	if !Sane(triple.Origin, triple.Expires, nowSec, broken) {
		log.Debug("ahcp: dropping insane reply on %s: origin=%d expires=%d now=%d", ifaceName, triple.Origin, triple.Expires, nowSec)

		return false
	}

	incValid := Validity(triple.Origin, triple.Expires, triple.Age, nowSec, broken)

	var curValid uint32
	if e.hasConfig {
		curValid = Validity(e.origin, e.expires, age(e.origin, nowSec), nowSec, broken)
	}

	payloadDiffers := !e.hasConfig || !reflect.DeepEqual(e.config, cfg)
	incWindow := triple.Expires - triple.Origin

	if !ShouldAdopt(e.hasConfig, e.origin, curValid, triple.Origin, incValid, incWindow, payloadDiffers) {
		if e.hasConfig && curValid > 0 && triple.Age > 0 {
			e.OnStalePeer(ifaceName, now)
		}

		return false
	}

	if payloadDiffers {
		if err := e.applyConfig(cfg, now); err != nil {
			log.Error("ahcp: configurator rejected candidate from %s: %s", ifaceName, err)

			return false
		}
	}

	e.hasConfig = true
	e.origin = triple.Origin
	e.expires = triple.Expires
	e.forwarder = true
	e.config = cfg

	e.syncStatefulClient(cfg, now)

	if ifc, ok := e.ifaces[ifaceName]; ok {
		e.enterConfigured(ifc, now)
	}

	return true
}

// applyConfig decides, per spec.md §4.4, whether the configurator bridge
// needs to be re-invoked at all (compatible replacements only refresh
// metadata) and performs the stop-then-start sequence otherwise.
func (e *Engine) applyConfig(candidate *ahcpconf.Config, now time.Time) (err error) {
	if e.hasConfig && e.config.CompatibleWith(candidate) {
		return nil
	}

	ctx := context.Background()

	if e.hasConfig {
		if serr := e.Bridge.Apply(ctx, configurator.ActionStop, e.config); serr != nil {
			log.Error("ahcp: configurator stop failed ahead of replacement: %s", serr)
		}
	}

	return e.Bridge.Apply(ctx, configurator.ActionStart, candidate)
}

// syncStatefulClient creates or tears down the stateful-client sub-FSM to
// match cfg's advertised stateful servers.
func (e *Engine) syncStatefulClient(cfg *ahcpconf.Config, now time.Time) {
	if e.NoStatefulClient || len(cfg.StatefulServer) == 0 {
		e.stateful = nil

		return
	}

	if e.stateful == nil {
		e.stateful = NewStatefulClient(e.uniqueID, cfg.StatefulServer, now)
	} else {
		e.stateful.servers = cfg.StatefulServer
		if e.stateful.serverIdx >= len(e.stateful.servers) {
			e.stateful.serverIdx = 0
		}
	}
}

// HandleStatefulACK routes an incoming STATEFUL_ACK to the stateful-client
// sub-FSM, if one is active.
func (e *Engine) HandleStatefulACK(addr netip.Addr, leaseTime time.Duration, now time.Time) {
	if e.stateful == nil {
		return
	}

	e.stateful.OnACK(addr, leaseTime, now)
}

// HandleStatefulNAK routes an incoming STATEFUL_NAK to the stateful-client
// sub-FSM, if one is active.
func (e *Engine) HandleStatefulNAK(now time.Time) {
	if e.stateful == nil {
		return
	}

	e.stateful.OnNAK(now)
}

// ReleaseAction returns the RELEASE action to send at shutdown when a
// stateful lease is currently bound, per testable property 9. The caller
// sends this packet before calling [Engine.StopConfigurator].
func (e *Engine) ReleaseAction() (action Action, ok bool) {
	if e.stateful == nil {
		return Action{}, false
	}

	server, ok := e.stateful.Release()
	if !ok {
		return Action{}, false
	}

	return Action{Kind: ActionSendStatefulRelease, Server: server}, true
}

// StopConfigurator invokes the configurator's stop action for the
// currently held configuration, if any. Per spec.md §4.4 and §7, failure
// here is fatal to the shutdown path; the caller decides how to report
// that.
func (e *Engine) StopConfigurator(ctx context.Context) (err error) {
	if !e.hasConfig {
		return nil
	}

	return e.Bridge.Apply(ctx, configurator.ActionStop, e.config)
}
