package main

import (
	"fmt"
	"os"

	"github.com/AdguardTeam/golibs/log"
)

// writePIDFile writes the current process id to fn, logging (but not
// failing startup on) an error, matching the teacher's best-effort
// writePIDFile.
func writePIDFile(fn string) (ok bool) {
	if fn == "" {
		return false
	}

	data := fmt.Appendf(nil, "%d", os.Getpid())
	if err := os.WriteFile(fn, data, 0o644); err != nil {
		log.Error("ahcpd: writing pid file %s: %s", fn, err)

		return false
	}

	return true
}

func removePIDFile(fn string) {
	if fn == "" {
		return
	}

	if err := os.Remove(fn); err != nil && !os.IsNotExist(err) {
		log.Error("ahcpd: removing pid file %s: %s", fn, err)
	}
}
