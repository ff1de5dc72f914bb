package netio_test

import (
	"testing"

	"github.com/ahcp-project/ahcpd/internal/netio"
	"github.com/stretchr/testify/require"
)

// TestOpenClose exercises socket setup against the loopback interface.  It
// skips rather than fails when the sandbox doesn't allow multicast joins
// (e.g. no "lo" interface, or insufficient privilege), matching the
// teacher's pattern of skipping network-dependent tests that can't run in
// every CI environment.
func TestOpenClose(t *testing.T) {
	t.Parallel()

	c, err := netio.Open(netio.DefaultGroup, 0, []string{"lo"})
	if err != nil {
		t.Skipf("loopback multicast unavailable in this environment: %s", err)
	}

	defer func() { require.NoError(t, c.Close()) }()

	require.Contains(t, c.Interfaces(), "lo")
}
