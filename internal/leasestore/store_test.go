package leasestore_test

import (
	"net/netip"
	"testing"
	"time"

	"github.com/ahcp-project/ahcpd/internal/ahcpclock"
	"github.com/ahcp-project/ahcpd/internal/leasestore"
	"github.com/AdguardTeam/golibs/timeutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type constClock struct{ t time.Time }

func (c constClock) Now() (now time.Time) { return c.t }

var _ timeutil.Clock = constClock{}

func newStore(
	t *testing.T,
	now uint32,
	first, last netip.Addr,
) (*leasestore.Store, func(newNow uint32)) {
	t.Helper()

	dir := t.TempDir()

	clockHolder := &constClock{t: time.Unix(int64(now), 0)}
	clk := ahcpclock.New(clockHolder)

	s, err := leasestore.Open(dir, first, last, clk)
	require.NoError(t, err)
	require.NoError(t, s.Init())

	return s, func(newNow uint32) { clockHolder.t = time.Unix(int64(newNow), 0) }
}

func TestTakeLease_SameClientReuse(t *testing.T) {
	t.Parallel()

	s, _ := newStore(t, 1_700_000_000, netip.MustParseAddr("10.0.0.1"), netip.MustParseAddr("10.0.0.8"))

	clientID := []byte("client-a")

	addr1, lease1, err := s.TakeLease(clientID, netip.Addr{}, 3600)
	require.NoError(t, err)
	assert.Equal(t, uint32(3600), lease1)

	addr2, _, err := s.TakeLease(clientID, netip.Addr{}, 3600)
	require.NoError(t, err)
	assert.Equal(t, addr1, addr2)
}

func TestTakeLease_GraceWindow(t *testing.T) {
	t.Parallel()

	now := uint32(1_700_000_000)
	only := netip.MustParseAddr("10.0.0.2")
	s, setNow := newStore(t, now, only, only)

	clientA := []byte("client-a")
	clientB := []byte("client-b")

	addr, _, err := s.TakeLease(clientA, only, 1)
	require.NoError(t, err)
	assert.Equal(t, only, addr)

	// lease_end = now + 1; still within grace at now+301.
	setNow(now + 301)

	_, _, err = s.TakeLease(clientB, addr, 60)
	assert.ErrorIs(t, err, leasestore.ErrNoAddress)

	// Past the 600s grace window from lease_end (now+1): now+1+601.
	setNow(now + 1 + 601)

	addr2, _, err := s.TakeLease(clientB, addr, 60)
	require.NoError(t, err)
	assert.Equal(t, addr, addr2)
}

func TestRelease_RequiresMatchingClient(t *testing.T) {
	t.Parallel()

	s, _ := newStore(t, 1_700_000_000, netip.MustParseAddr("10.0.0.1"), netip.MustParseAddr("10.0.0.8"))

	clientA := []byte("client-a")
	clientB := []byte("client-b")

	addr, _, err := s.TakeLease(clientA, netip.Addr{}, 3600)
	require.NoError(t, err)

	err = s.Release(clientB, addr)
	assert.ErrorIs(t, err, leasestore.ErrConflict)

	err = s.Release(clientA, addr)
	assert.NoError(t, err)
}
