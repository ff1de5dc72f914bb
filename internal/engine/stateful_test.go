package engine_test

import (
	"net/netip"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/ahcp-project/ahcpd/internal/ahcpclock"
	"github.com/ahcp-project/ahcpd/internal/ahcpconf"
	"github.com/ahcp-project/ahcpd/internal/configurator"
	"github.com/ahcp-project/ahcpd/internal/engine"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeClock struct {
	now time.Time
}

func (f *fakeClock) Now() (now time.Time) {
	return f.now
}

func noopScript(t *testing.T) (path string) {
	t.Helper()

	dir := t.TempDir()
	path = filepath.Join(dir, "apply.sh")
	require.NoError(t, os.WriteFile(path, []byte("#!/bin/sh\nexit 0\n"), 0o755))

	return path
}

func newTestEngine(t *testing.T, clock *fakeClock) (e *engine.Engine) {
	t.Helper()

	bridge := &configurator.Bridge{Script: noopScript(t), PID: os.Getpid()}

	return engine.New(engine.RoleClient, ahcpclock.New(clock), bridge)
}

// TestEngine_StatefulRequestBackoffSchedule exercises testable property 8:
// with a single server that never answers, REQUESTs go out at ~2, ~4, ~8,
// ~16, ~32, ~60, ~60... seconds, never faster than 2s nor slower than 60s.
func TestEngine_StatefulRequestBackoffSchedule(t *testing.T) {
	t.Parallel()

	server := netip.MustParseAddr("fd00::1")
	clock := &fakeClock{now: time.Unix(1_700_000_000, 0)}
	e := newTestEngine(t, clock)

	cfg := &ahcpconf.Config{ExpiresDelta: 3600, StatefulServer: []netip.Addr{server}}
	triple := engine.FreshnessTriple{
		Origin:  uint32(clock.now.Unix()), //nolint:gosec // test fixture, fits uint32
		Expires: uint32(clock.now.Unix()) + 3600,
	}

	accepted := e.OnReply("wlan0", triple, cfg, clock.now)
	require.True(t, accepted)
	require.NotNil(t, e.Stateful())

	want := []time.Duration{2, 4, 8, 16, 32, 60, 60, 60}

	var last time.Time

	for i, w := range want {
		next := e.NextDeadline()
		require.NotNil(t, next, "iteration %d", i)

		if !last.IsZero() {
			interval := next.Sub(last)
			assert.GreaterOrEqual(t, interval, w*time.Second/2, "iteration %d", i)
			assert.Less(t, interval, 2*w*time.Second, "iteration %d", i)
		}

		clock.now = *next
		last = *next

		actions := e.Tick(*next)

		require.Len(t, actions, 1, "iteration %d", i)
		assert.Equal(t, engine.ActionSendStatefulRequest, actions[0].Kind)
		assert.Equal(t, server, actions[0].Server)
	}
}

// TestEngine_StatefulRequestRotatesServersEveryRetry documents an accepted
// divergence from spec.md §4.2's prose: with multiple advertised stateful
// servers, an unanswered client rotates to the next server on every retry,
// not only once backoff has reached its ceiling.
func TestEngine_StatefulRequestRotatesServersEveryRetry(t *testing.T) {
	t.Parallel()

	serverA := netip.MustParseAddr("fd00::1")
	serverB := netip.MustParseAddr("fd00::2")
	clock := &fakeClock{now: time.Unix(1_700_000_000, 0)}
	e := newTestEngine(t, clock)

	cfg := &ahcpconf.Config{
		ExpiresDelta:   3600,
		StatefulServer: []netip.Addr{serverA, serverB},
	}
	triple := engine.FreshnessTriple{
		Origin:  uint32(clock.now.Unix()), //nolint:gosec // test fixture, fits uint32
		Expires: uint32(clock.now.Unix()) + 3600,
	}

	accepted := e.OnReply("wlan0", triple, cfg, clock.now)
	require.True(t, accepted)
	require.NotNil(t, e.Stateful())

	want := []netip.Addr{serverA, serverB, serverA, serverB}

	for i, w := range want {
		next := e.NextDeadline()
		require.NotNil(t, next, "iteration %d", i)

		clock.now = *next

		actions := e.Tick(*next)

		require.Len(t, actions, 1, "iteration %d", i)
		assert.Equal(t, engine.ActionSendStatefulRequest, actions[0].Kind)
		assert.Equal(t, w, actions[0].Server, "iteration %d", i)
	}
}

func TestStatefulClient_ACKInstallsLeaseAndArmsRenewalExpiry(t *testing.T) {
	t.Parallel()

	server := netip.MustParseAddr("fd00::1")
	now := time.Unix(1_700_000_000, 0)
	sc := engine.NewStatefulClient([]byte("client-a"), []netip.Addr{server}, now)

	addr := netip.MustParseAddr("10.0.0.5")
	sc.OnACK(addr, 900*time.Second, now)

	assert.Equal(t, engine.StatefulBound, sc.State())
	assert.Equal(t, addr, sc.LeaseAddr())
}

func TestStatefulClient_ShortLeaseTreatedAsNAK(t *testing.T) {
	t.Parallel()

	server := netip.MustParseAddr("fd00::1")
	now := time.Unix(1_700_000_000, 0)
	sc := engine.NewStatefulClient([]byte("client-a"), []netip.Addr{server}, now)

	sc.OnACK(netip.MustParseAddr("10.0.0.5"), 1*time.Second, now)

	assert.Equal(t, engine.StatefulRequesting, sc.State())
}

func TestStatefulClient_Release(t *testing.T) {
	t.Parallel()

	server := netip.MustParseAddr("fd00::1")
	now := time.Unix(1_700_000_000, 0)
	sc := engine.NewStatefulClient([]byte("client-a"), []netip.Addr{server}, now)

	_, ok := sc.Release()
	assert.False(t, ok, "no release before a lease is bound")

	sc.OnACK(netip.MustParseAddr("10.0.0.5"), 900*time.Second, now)

	srv, ok := sc.Release()
	require.True(t, ok)
	assert.Equal(t, server, srv)
}
