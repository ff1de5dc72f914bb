package ahcpopts_test

import (
	"fmt"
	"net/netip"
	"testing"

	"github.com/ahcp-project/ahcpd/internal/ahcpopts"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testParseOK(t *testing.T, ss ...string) ahcpopts.Options {
	t.Helper()

	o, _, err := ahcpopts.Parse("", ss)
	require.NoError(t, err)

	return o
}

func testParseErr(t *testing.T, descr string, ss ...string) {
	t.Helper()

	_, _, err := ahcpopts.Parse("", ss)
	require.Errorf(t, err, "expected an error because %s but no error returned", descr)
}

func testParseParamMissing(t *testing.T, param string) {
	t.Helper()

	testParseErr(t, fmt.Sprintf("%s parameter missing", param), param)
}

func TestParseVerbose(t *testing.T) {
	assert.False(t, testParseOK(t).Verbose, "empty is not verbose")
	assert.True(t, testParseOK(t, "-v").Verbose, "-v is verbose")
	assert.True(t, testParseOK(t, "--verbose").Verbose, "--verbose is verbose")
}

func TestParseAuthorityFile(t *testing.T) {
	assert.Equal(t, "", testParseOK(t).AuthorityFile, "empty is no authority file")
	assert.Equal(t, "path", testParseOK(t, "-a", "path").AuthorityFile, "-a is authority file")
	testParseParamMissing(t, "-a")

	assert.Equal(t, "path", testParseOK(t, "--authority", "path").AuthorityFile, "--authority is authority file")
}

func TestParseGroup(t *testing.T) {
	assert.False(t, testParseOK(t).MulticastGroup.IsValid(), "empty is no group")

	want := netip.MustParseAddr("ff02::cca6:c0f9:e182:5359")
	assert.Equal(t, want, testParseOK(t, "-g", want.String()).MulticastGroup)

	testParseErr(t, "not an address", "-g", "not-an-address")
}

func TestParsePort(t *testing.T) {
	assert.Equal(t, 0, testParseOK(t).Port, "empty is port 0")
	assert.Equal(t, 65535, testParseOK(t, "-p", "65535").Port, "-p is port")
	testParseParamMissing(t, "-p")

	assert.Equal(t, 65535, testParseOK(t, "--port", "65535").Port, "--port is port")

	testParseErr(t, "not an int", "-p", "x")
	testParseErr(t, "port zero", "-p", "0")
	testParseErr(t, "port too high", "-p", "65536")
}

func TestParseExpiresDelta(t *testing.T) {
	assert.Equal(t, uint(0), testParseOK(t).ExpiresDelta)
	assert.Equal(t, uint(3600), testParseOK(t, "-e", "3600").ExpiresDelta)
	assert.Equal(t, uint(3600), testParseOK(t, "--expires-delta", "3600").ExpiresDelta)

	testParseErr(t, "negative", "-e", "-1")
}

func TestParseBoolFlags(t *testing.T) {
	assert.True(t, testParseOK(t, "--no-dns").NoDNS)
	assert.True(t, testParseOK(t, "--no-stateful-client").NoStatefulClient)
	assert.True(t, testParseOK(t, "--no-routing-protocol").NoRoutingProtocol)
	assert.True(t, testParseOK(t, "-d").Daemonize)
	assert.True(t, testParseOK(t, "--daemonize").Daemonize)
}

func TestParseLeaseTriple(t *testing.T) {
	o := testParseOK(t, "--lease-first", "10.0.0.2", "--lease-last", "10.0.0.254", "--lease-dir", "/var/lib/ahcpd")
	assert.Equal(t, "10.0.0.2", o.LeaseFirst)
	assert.Equal(t, "10.0.0.254", o.LeaseLast)
	assert.Equal(t, "/var/lib/ahcpd", o.LeaseDir)
}

func TestParseConfiguratorScript(t *testing.T) {
	assert.Equal(t, "", testParseOK(t).ConfiguratorScript)
	assert.Equal(t, "path", testParseOK(t, "-c", "path").ConfiguratorScript)
	assert.Equal(t, "path", testParseOK(t, "--configurator", "path").ConfiguratorScript)
}

func TestParseMetricsAddr(t *testing.T) {
	assert.Equal(t, "", testParseOK(t).MetricsAddr)
	assert.Equal(t, ":9100", testParseOK(t, "--metrics-addr", ":9100").MetricsAddr)
}

func TestParsePidfile(t *testing.T) {
	assert.Equal(t, "", testParseOK(t).PIDFile, "empty is no pid file")
	assert.Equal(t, "path", testParseOK(t, "--pidfile", "path").PIDFile, "--pidfile is pid file")
}

func TestParseLogfile(t *testing.T) {
	assert.Equal(t, "", testParseOK(t).LogFile, "empty is no log file")
	assert.Equal(t, "path", testParseOK(t, "-l", "path").LogFile, "-l is log file")
	assert.Equal(t, "syslog", testParseOK(t, "--logfile", "syslog").LogFile)
}

func TestParseUniqueIDFile(t *testing.T) {
	assert.Equal(t, "", testParseOK(t).UniqueIDFile)
	assert.Equal(t, "path", testParseOK(t, "--unique-id-file", "path").UniqueIDFile)
}

func TestParseDebugLevel(t *testing.T) {
	assert.Equal(t, 0, testParseOK(t).DebugLevel)
	assert.Equal(t, 2, testParseOK(t, "--debug-level", "2").DebugLevel)
	testParseErr(t, "not an int", "--debug-level", "x")
}

func TestParseService(t *testing.T) {
	assert.Equal(t, "", testParseOK(t).ServiceControlAction)
	assert.Equal(t, "run", testParseOK(t, "-s", "run").ServiceControlAction)
	assert.Equal(t, "run", testParseOK(t, "--service", "run").ServiceControlAction)
}

func TestParseInterfaces(t *testing.T) {
	o := testParseOK(t, "--no-dns", "eth0", "wlan0")
	assert.Equal(t, []string{"eth0", "wlan0"}, o.Interfaces)
}

func TestParseUnknown(t *testing.T) {
	testParseErr(t, "unknown short", "-x")
	testParseErr(t, "unknown long", "--x")
}

func TestSerialize(t *testing.T) {
	testCases := []struct {
		name string
		opts ahcpopts.Options
		ss   []string
	}{{
		name: "empty",
		opts: ahcpopts.Options{},
		ss:   []string{},
	}, {
		name: "authority_file",
		opts: ahcpopts.Options{AuthorityFile: "path"},
		ss:   []string{"-a", "path"},
	}, {
		name: "port",
		opts: ahcpopts.Options{Port: 666},
		ss:   []string{"-p", "666"},
	}, {
		name: "no_dns",
		opts: ahcpopts.Options{NoDNS: true},
		ss:   []string{"--no-dns"},
	}, {
		name: "interfaces_only",
		opts: ahcpopts.Options{Interfaces: []string{"eth0", "wlan0"}},
		ss:   []string{"eth0", "wlan0"},
	}, {
		name: "multiple",
		opts: ahcpopts.Options{
			AuthorityFile: "authority.conf",
			Port:          5359,
			NoDNS:         true,
			Interfaces:    []string{"eth0"},
		},
		ss: []string{"-a", "authority.conf", "-p", "5359", "--no-dns", "eth0"},
	}}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			result := ahcpopts.Serialize(tc.opts)
			require.Equal(t, tc.ss, result)
		})
	}
}
