package main

import (
	"net/netip"
	"testing"
	"time"

	"github.com/ahcp-project/ahcpd/internal/ahcpclock"
	"github.com/ahcp-project/ahcpd/internal/engine"
	"github.com/stretchr/testify/assert"
)

func TestDecodeSuggested(t *testing.T) {
	t.Parallel()

	assert.False(t, decodeSuggested(nil).IsValid())
	assert.False(t, decodeSuggested([]byte{1, 2, 3}).IsValid())

	addr := decodeSuggested([]byte{192, 0, 2, 1})
	assert.Equal(t, netip.MustParseAddr("192.0.2.1"), addr)
}

func TestCmpHelpers(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "a", cmpStr("a", "b"))
	assert.Equal(t, "b", cmpStr("", "b"))

	assert.Equal(t, uint(5), cmpUint(5, 10))
	assert.Equal(t, uint(10), cmpUint(0, 10))

	assert.Equal(t, 5, cmpInt(5, 10))
	assert.Equal(t, 10, cmpInt(0, 10))

	v6 := netip.MustParseAddr("::1")
	assert.Equal(t, v6, cmpAddr(v6, netip.Addr{}))
	assert.Equal(t, v6, cmpAddr(netip.Addr{}, v6))
}

func TestWaitDurationNoDeadline(t *testing.T) {
	t.Parallel()

	e := engine.New(engine.RoleClient, ahcpclock.System(), nil)

	assert.Equal(t, ahcpclock.MaxWait, waitDuration(e, ahcpclock.System()))
}

func TestWaitDurationNonNegative(t *testing.T) {
	t.Parallel()

	e := engine.New(engine.RoleAuthority, ahcpclock.System(), nil)
	e.AddInterface("lo", nil, time.Now())

	d := waitDuration(e, ahcpclock.System())
	assert.GreaterOrEqual(t, d, time.Duration(0))
	assert.LessOrEqual(t, d, ahcpclock.MaxWait)
}
