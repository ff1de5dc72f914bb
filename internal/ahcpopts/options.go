// Package ahcpopts parses ahcpd's command-line arguments into a typed
// [Options] value, modeled on the teacher's argument-table pattern: a
// package-level table of [arg] values, each carrying its own parser,
// re-serializer, and (for side-effecting flags like --version) an effect
// closure run after the whole command line has been parsed.
package ahcpopts

import (
	"fmt"
	"net/netip"
	"os"
	"strconv"

	"github.com/ahcp-project/ahcpd/internal/version"
)

// Options holds every value the ahcpd binary accepts on its command
// line, plus the positional interface name list.
type Options struct {
	// AuthorityFile is the path to the raw TLV option body consumed once
	// at startup when running as authority. Empty means client mode.
	AuthorityFile string

	// MulticastGroup overrides the default link-scoped multicast group.
	MulticastGroup netip.Addr
	// Port overrides the default UDP port 5359.
	Port int

	// ExpiresDelta is the expires_delay, in seconds, an authority
	// re-asserts on every flood.
	ExpiresDelta uint

	NoDNS             bool
	NoStatefulClient  bool
	NoRoutingProtocol bool
	Daemonize         bool

	// LeaseFirst and LeaseLast bound the stateful-server address pool;
	// both must be set together with LeaseDir.
	LeaseFirst string
	LeaseLast  string
	LeaseDir   string

	// ConfiguratorScript is the external apply/unapply executable invoked
	// per spec.md §4.4.
	ConfiguratorScript string

	// MetricsAddr, if non-empty, serves Prometheus metrics on this
	// address (ambient addition, SPEC_FULL.md §4.8).
	MetricsAddr string

	PIDFile      string
	LogFile      string
	UniqueIDFile string
	DebugLevel   int

	// ServiceControlAction is one of status/install/uninstall/start/
	// stop/restart/run, per github.com/kardianos/service.
	ServiceControlAction string

	Verbose bool

	// Interfaces is the positional list of interface names to serve.
	Interfaces []string
}

// effect is a function used for its side effect, run once the whole
// command line has parsed successfully.
type effect func() error

// arg describes a single command-line flag: its help text, its long and
// short spellings, exactly one of its three mutator kinds, and the
// re-serializer used by the service-control restart path to rebuild an
// equivalent command line from a parsed [Options].
type arg struct {
	description string
	longName    string
	shortName   string

	// Only one of updateWithValue, updateNoValue, and effect should be
	// set on any given arg.
	updateWithValue func(o Options, v string) (Options, error)
	updateNoValue   func(o Options) (Options, error)
	effect          func(o Options, exec string) (f effect, err error)

	serialize func(o Options) []string
}

func stringSliceOrNil(s string) []string {
	if s == "" {
		return nil
	}

	return []string{s}
}

func uintSliceOrNil(u uint) []string {
	if u == 0 {
		return nil
	}

	return []string{strconv.FormatUint(uint64(u), 10)}
}

func intSliceOrNil(i int) []string {
	if i == 0 {
		return nil
	}

	return []string{strconv.Itoa(i)}
}

func boolSliceOrNil(b bool) []string {
	if b {
		return []string{}
	}

	return nil
}

func addrSliceOrNil(a netip.Addr) []string {
	if !a.IsValid() {
		return nil
	}

	return []string{a.String()}
}

var args []arg

var authorityArg = arg{
	"Path to the authority configuration file. Presence of this flag selects the authority role.",
	"authority", "a",
	func(o Options, v string) (Options, error) { o.AuthorityFile = v; return o, nil }, nil, nil,
	func(o Options) []string { return stringSliceOrNil(o.AuthorityFile) },
}

var groupArg = arg{
	"Multicast group to join and flood on.",
	"group", "g",
	func(o Options, v string) (Options, error) {
		a, err := netip.ParseAddr(v)
		if err != nil {
			return o, fmt.Errorf("group %q is not an address: %w", v, err)
		}

		o.MulticastGroup = a

		return o, nil
	}, nil, nil,
	func(o Options) []string { return addrSliceOrNil(o.MulticastGroup) },
}

var portArg = arg{
	"UDP port to listen on and flood to.",
	"port", "p",
	func(o Options, v string) (o2 Options, err error) {
		const minPort, maxPort = 1, 1<<16 - 1

		p, err := strconv.Atoi(v)
		if err != nil {
			return o, fmt.Errorf("port %q is not a number", v)
		} else if p < minPort || p > maxPort {
			return o, fmt.Errorf("port %d not in range %d - %d", p, minPort, maxPort)
		}

		o.Port = p

		return o, nil
	}, nil, nil,
	func(o Options) []string { return intSliceOrNil(o.Port) },
}

var expiresDeltaArg = arg{
	"Authority expires_delay, in seconds, re-asserted on every flood.",
	"expires-delta", "e",
	func(o Options, v string) (Options, error) {
		u, err := strconv.ParseUint(v, 10, 32)
		if err != nil {
			return o, fmt.Errorf("expires-delta %q is not a number: %w", v, err)
		}

		o.ExpiresDelta = uint(u)

		return o, nil
	}, nil, nil,
	func(o Options) []string { return uintSliceOrNil(o.ExpiresDelta) },
}

var noDNSArg = arg{
	"Do not publish DNS name server options.",
	"no-dns", "",
	nil, func(o Options) (Options, error) { o.NoDNS = true; return o, nil }, nil,
	func(o Options) []string { return boolSliceOrNil(o.NoDNS) },
}

var noStatefulClientArg = arg{
	"Disable the stateful-client sub-FSM even if a stateful server is advertised.",
	"no-stateful-client", "",
	nil, func(o Options) (Options, error) { o.NoStatefulClient = true; return o, nil }, nil,
	func(o Options) []string { return boolSliceOrNil(o.NoStatefulClient) },
}

var noRoutingProtocolArg = arg{
	"Do not launch the configured routing protocol daemon.",
	"no-routing-protocol", "",
	nil, func(o Options) (Options, error) { o.NoRoutingProtocol = true; return o, nil }, nil,
	func(o Options) []string { return boolSliceOrNil(o.NoRoutingProtocol) },
}

var daemonizeArg = arg{
	"Daemonize: re-execute detached in the background before setup.",
	"daemonize", "d",
	nil, func(o Options) (Options, error) { o.Daemonize = true; return o, nil }, nil,
	func(o Options) []string { return boolSliceOrNil(o.Daemonize) },
}

var leaseFirstArg = arg{
	"First address of the stateful-server lease pool (requires --lease-last and --lease-dir).",
	"lease-first", "",
	func(o Options, v string) (Options, error) { o.LeaseFirst = v; return o, nil }, nil, nil,
	func(o Options) []string { return stringSliceOrNil(o.LeaseFirst) },
}

var leaseLastArg = arg{
	"Last address of the stateful-server lease pool.",
	"lease-last", "",
	func(o Options, v string) (Options, error) { o.LeaseLast = v; return o, nil }, nil, nil,
	func(o Options) []string { return stringSliceOrNil(o.LeaseLast) },
}

var leaseDirArg = arg{
	"Directory the stateful server persists lease files in.",
	"lease-dir", "",
	func(o Options, v string) (Options, error) { o.LeaseDir = v; return o, nil }, nil, nil,
	func(o Options) []string { return stringSliceOrNil(o.LeaseDir) },
}

var configuratorArg = arg{
	"Path to the external configurator script invoked per spec.md §4.4.",
	"configurator", "c",
	func(o Options, v string) (Options, error) { o.ConfiguratorScript = v; return o, nil }, nil, nil,
	func(o Options) []string { return stringSliceOrNil(o.ConfiguratorScript) },
}

var metricsAddrArg = arg{
	"Address to serve Prometheus metrics on (empty disables the listener).",
	"metrics-addr", "",
	func(o Options, v string) (Options, error) { o.MetricsAddr = v; return o, nil }, nil, nil,
	func(o Options) []string { return stringSliceOrNil(o.MetricsAddr) },
}

var pidfileArg = arg{
	"Path to a file where the daemon's PID is stored.",
	"pidfile", "",
	func(o Options, v string) (Options, error) { o.PIDFile = v; return o, nil }, nil, nil,
	func(o Options) []string { return stringSliceOrNil(o.PIDFile) },
}

var logfileArg = arg{
	"Path to log file. If empty: write to stdout; if 'syslog': write to system log.",
	"logfile", "l",
	func(o Options, v string) (Options, error) { o.LogFile = v; return o, nil }, nil, nil,
	func(o Options) []string { return stringSliceOrNil(o.LogFile) },
}

var uniqueIDFileArg = arg{
	"Path to the persisted 16-byte unique client identity, generated if absent.",
	"unique-id-file", "",
	func(o Options, v string) (Options, error) { o.UniqueIDFile = v; return o, nil }, nil, nil,
	func(o Options) []string { return stringSliceOrNil(o.UniqueIDFile) },
}

var debugLevelArg = arg{
	"Debug level passed through to the configurator contract.",
	"debug-level", "",
	func(o Options, v string) (Options, error) {
		n, err := strconv.Atoi(v)
		if err != nil {
			return o, fmt.Errorf("debug-level %q is not a number", v)
		}

		o.DebugLevel = n

		return o, nil
	}, nil, nil,
	func(o Options) []string { return intSliceOrNil(o.DebugLevel) },
}

var serviceArg = arg{
	"Service control action: status, install, uninstall, start, stop, restart, run.",
	"service", "s",
	func(o Options, v string) (Options, error) { o.ServiceControlAction = v; return o, nil }, nil, nil,
	func(o Options) []string { return stringSliceOrNil(o.ServiceControlAction) },
}

var verboseArg = arg{
	"Enable verbose (debug) logging.",
	"verbose", "v",
	nil, func(o Options) (Options, error) { o.Verbose = true; return o, nil }, nil,
	func(o Options) []string { return boolSliceOrNil(o.Verbose) },
}

var versionArg = arg{
	description:     "Show the version and exit. Show more detailed version description with -v.",
	longName:        "version",
	shortName:       "",
	updateWithValue: nil,
	updateNoValue:   nil,
	effect: func(o Options, _ string) (effect, error) {
		return func() error {
			if o.Verbose {
				fmt.Println(version.Verbose())
			} else {
				fmt.Println(version.Full())
			}
			os.Exit(0)

			return nil
		}, nil
	},
	serialize: func(_ Options) []string { return nil },
}

var helpArg = arg{
	"Print this help.",
	"help", "",
	nil, nil, func(_ Options, exec string) (effect, error) {
		return func() error { _ = printHelp(exec); os.Exit(64); return nil }, nil
	},
	func(_ Options) []string { return nil },
}

func init() {
	args = []arg{
		authorityArg,
		groupArg,
		portArg,
		expiresDeltaArg,
		noDNSArg,
		noStatefulClientArg,
		noRoutingProtocolArg,
		daemonizeArg,
		leaseFirstArg,
		leaseLastArg,
		leaseDirArg,
		configuratorArg,
		metricsAddrArg,
		pidfileArg,
		logfileArg,
		uniqueIDFileArg,
		debugLevelArg,
		serviceArg,
		verboseArg,
		versionArg,
		helpArg,
	}
}

func getUsageLines(exec string) (lines []string) {
	lines = []string{
		"Usage:",
		"",
		fmt.Sprintf("%s [options] [interface ...]", exec),
		"",
		"Options:",
	}

	for _, a := range args {
		val := ""
		if a.updateWithValue != nil {
			val = " VALUE"
		}

		if a.shortName != "" {
			lines = append(lines, fmt.Sprintf("  -%s, %-30s %s", a.shortName, "--"+a.longName+val, a.description))
		} else {
			lines = append(lines, fmt.Sprintf("  %-34s %s", "--"+a.longName+val, a.description))
		}
	}

	return lines
}

func printHelp(exec string) (err error) {
	for _, line := range getUsageLines(exec) {
		if _, err = fmt.Println(line); err != nil {
			return err
		}
	}

	return nil
}

func argMatches(a arg, v string) (ok bool) {
	return v == "--"+a.longName || (a.shortName != "" && v == "-"+a.shortName)
}

// Parse parses the argument list ss (normally os.Args[1:]) against exec
// (normally os.Args[0]), returning the resulting [Options], an optional
// side effect to run instead of starting the daemon (e.g. --version), or
// an error on an unknown or malformed flag.
func Parse(exec string, ss []string) (o Options, f effect, err error) {
	for i := 0; i < len(ss); i++ {
		v := ss[i]

		if len(v) == 0 || v[0] != '-' {
			o.Interfaces = append(o.Interfaces, v)

			continue
		}

		knownParam := false

		for _, a := range args {
			if !argMatches(a, v) {
				continue
			}

			switch {
			case a.updateWithValue != nil:
				if i+1 >= len(ss) {
					return o, f, fmt.Errorf("got %s without argument", v)
				}

				i++

				if o, err = a.updateWithValue(o, ss[i]); err != nil {
					return o, f, err
				}
			case a.updateNoValue != nil:
				if o, err = a.updateNoValue(o); err != nil {
					return o, f, err
				}
			case a.effect != nil:
				var eff effect

				if eff, err = a.effect(o, exec); err != nil {
					return o, f, err
				}

				if eff != nil {
					prev := f
					f = func() (ferr error) {
						if prev != nil {
							ferr = prev()
						}

						if ferr == nil {
							ferr = eff()
						}

						return ferr
					}
				}
			}

			knownParam = true

			break
		}

		if !knownParam {
			return o, f, fmt.Errorf("unknown option %v", v)
		}
	}

	return o, f, nil
}

func shortestFlag(a arg) (flag string) {
	if a.shortName != "" {
		return "-" + a.shortName
	}

	return "--" + a.longName
}

// Serialize rebuilds a command line equivalent to o, for the
// service-control restart path.
func Serialize(o Options) (ss []string) {
	ss = []string{}

	for _, a := range args {
		s := a.serialize(o)
		if s != nil {
			ss = append(ss, append([]string{shortestFlag(a)}, s...)...)
		}
	}

	ss = append(ss, o.Interfaces...)

	return ss
}
