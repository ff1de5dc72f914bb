package leasestore

import (
	"math/rand"
	"net/netip"

	"github.com/AdguardTeam/golibs/container"
)

// maxHints is the hint cache capacity from spec.md §3.
const maxHints = 256

// hintCache is the in-memory, lossy id→address hint used only to steer
// allocation, never authoritative. It replaces the manual linked list the
// design notes call out with an ordered [container.KeyValues], matching
// the shape [container.KeyValues] is used in elsewhere in the teacher
// (e.g. internal/dhcpsvc.DHCPServer.devices).
type hintCache struct {
	entries container.KeyValues[string, netip.Addr]
}

// lookup returns the most recently recorded address hinted for id, if
// any.
func (h *hintCache) lookup(id string) (a netip.Addr, ok bool) {
	for i := len(h.entries) - 1; i >= 0; i-- {
		if h.entries[i].Key == id {
			return h.entries[i].Value, true
		}
	}

	return netip.Addr{}, false
}

// set records that id was last granted a. When the cache is at capacity,
// one existing entry is evicted at random before the new one is appended.
func (h *hintCache) set(id string, a netip.Addr) {
	for i, kv := range h.entries {
		if kv.Key == id {
			h.entries[i].Value = a

			return
		}
	}

	if len(h.entries) >= maxHints {
		i := rand.Intn(len(h.entries)) //nolint:gosec // hint eviction, not security-sensitive
		h.entries = append(h.entries[:i], h.entries[i+1:]...)
	}

	h.entries = append(h.entries, container.KeyValue[string, netip.Addr]{Key: id, Value: a})
}
