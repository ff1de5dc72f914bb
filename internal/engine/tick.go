package engine

import "time"

// Tick evaluates every due timer at now, performs any state transitions
// they trigger, and returns the outbound effects the caller must perform
// (send a packet, invoke the configurator). Interfaces are visited in an
// unspecified order, consistent with spec.md §5's ordering rule ("between
// interfaces, order is unspecified").
func (e *Engine) Tick(now time.Time) (actions []Action) {
	for name, ifc := range e.ifaces {
		e.tickClientState(ifc, now)

		// A reply and a query due on the same interface at the same
		// instant: reply first, per spec.md §5.
		if ifc.replyTimer.Due(now) {
			actions = append(actions, Action{Kind: ActionSendReply, Iface: name})
			e.scheduleNextFlood(ifc, now)
		}

		if e.Role != RoleAuthority && ifc.queryTimer.Due(now) {
			actions = append(actions, Action{Kind: ActionSendQuery, Iface: name})
			e.armQueryBackoff(ifc, now)
		}
	}

	if e.stateful != nil {
		if server, due := e.stateful.dueRequest(now); due {
			actions = append(actions, Action{Kind: ActionSendStatefulRequest, Server: server})
		}

		if server, due := e.stateful.dueRenewal(now); due {
			actions = append(actions, Action{Kind: ActionSendStatefulRequest, Server: server})
		}

		e.stateful.dueExpiry(now)
	}

	return actions
}

// NextDeadline returns the earliest absolute wakeup across every timer the
// engine owns, or nil if nothing is armed.
func (e *Engine) NextDeadline() (deadline *time.Time) {
	consider := func(t *time.Time) {
		if t == nil {
			return
		}

		if deadline == nil || t.Before(*deadline) {
			deadline = t
		}
	}

	for _, ifc := range e.ifaces {
		consider(ifc.queryTimer.At())
		consider(ifc.replyTimer.At())
	}

	if e.stateful != nil {
		consider(e.stateful.requestTimer.At())
		consider(e.stateful.renewTimer.At())
		consider(e.stateful.expireTimer.At())
	}

	return deadline
}
