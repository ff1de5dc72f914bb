package engine

import "net/netip"

// ActionKind identifies the outbound effect a due timer produces.
type ActionKind int

// ActionKind values.
const (
	// ActionSendQuery multicasts a QUERY on Iface.
	ActionSendQuery ActionKind = iota
	// ActionSendReply multicasts a REPLY on Iface carrying the currently
	// held configuration.
	ActionSendReply
	// ActionSendStatefulRequest unicasts a STATEFUL_REQUEST to Server.
	ActionSendStatefulRequest
	// ActionSendStatefulRelease unicasts a STATEFUL_RELEASE to Server.
	ActionSendStatefulRelease
)

// Action is one outbound effect due at the time [Engine.Tick] was called.
type Action struct {
	Kind   ActionKind
	Iface  string
	Server netip.Addr
}
