// Package aghos contains utilities for functions requiring system calls and
// other OS-specific APIs.  OS-specific network handling should go to aghnet
// instead.
package aghos

import (
	"fmt"
	"io/fs"
	"runtime"

	"github.com/AdguardTeam/golibs/errors"
)

// Default file, binary, and directory permissions.
const (
	DefaultPermDir  fs.FileMode = 0o700
	DefaultPermExe  fs.FileMode = 0o700
	DefaultPermFile fs.FileMode = 0o600
)

// Unsupported is a helper that returns a wrapped [errors.ErrUnsupported].
func Unsupported(op string) (err error) {
	return fmt.Errorf("%s: not supported on %s: %w", op, runtime.GOOS, errors.ErrUnsupported)
}

// ConfigureSyslog redirects standard log output to the system log (syslog
// on Unix, the event log on Windows) under serviceName.
func ConfigureSyslog(serviceName string) (err error) {
	return configureSyslog(serviceName)
}
