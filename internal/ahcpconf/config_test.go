package ahcpconf_test

import (
	"net/netip"
	"testing"

	"github.com/ahcp-project/ahcpd/internal/ahcpconf"
	"github.com/ahcp-project/ahcpd/internal/wire"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFromOptionsToOptionsRoundTrip(t *testing.T) {
	t.Parallel()

	addr := netip.MustParseAddr("2001:db8::1")

	o := wire.Options{
		HasExpires:  true,
		Expires:     3600,
		IPv6Address: addr.AsSlice(),
	}

	c, err := ahcpconf.FromOptions(o)
	require.NoError(t, err)
	require.Len(t, c.IPv6Address, 1)
	assert.Equal(t, addr, c.IPv6Address[0])

	back := c.ToOptions()
	assert.Equal(t, o.IPv6Address, back.IPv6Address)
	assert.Equal(t, o.Expires, back.Expires)
}

func TestFromOptionsRequiresExpires(t *testing.T) {
	t.Parallel()

	_, err := ahcpconf.FromOptions(wire.Options{})
	assert.Error(t, err)
}

func TestClampExpires(t *testing.T) {
	t.Parallel()

	c := &ahcpconf.Config{ExpiresDelta: 999999}
	c.ClampExpires()
	assert.Equal(t, uint32(ahcpconf.MaxExpiresClient), c.ExpiresDelta)
}

func TestCompatibleWith(t *testing.T) {
	t.Parallel()

	a1 := netip.MustParseAddr("10.0.0.1")
	a2 := netip.MustParseAddr("10.0.0.2")

	base := &ahcpconf.Config{IPv4Address: []netip.Addr{a1}, NameServer: []netip.Addr{a1}}
	sameShape := &ahcpconf.Config{IPv4Address: []netip.Addr{a1}, NameServer: []netip.Addr{a2}}
	differentShape := &ahcpconf.Config{IPv4Address: []netip.Addr{a1, a2}}
	noAddr := &ahcpconf.Config{}

	assert.True(t, base.CompatibleWith(sameShape))
	assert.False(t, base.CompatibleWith(differentShape))
	assert.False(t, base.CompatibleWith(noAddr))
}
