package main

import (
	"os"
	"os/exec"
	"syscall"
)

// daemonizeEnv marks the re-executed child so it does not fork again.
const daemonizeEnv = "AHCPD_DAEMONIZED=1"

// daemonize re-executes the current process detached from its controlling
// terminal and exits the parent, per the --daemonize flag of spec.md §6.
// Go has no fork(2); re-exec plus Setsid is the standard substitute (the
// same substitute github.com/kardianos/service's own Linux systemd/init.d
// integrations rely on rather than a raw fork).
func daemonize() (err error) {
	if os.Getenv("AHCPD_DAEMONIZED") == "1" {
		return nil
	}

	devNull, err := os.OpenFile(os.DevNull, os.O_RDWR, 0)
	if err != nil {
		return err
	}
	defer func() { _ = devNull.Close() }()

	cmd := exec.Command(os.Args[0], os.Args[1:]...)
	cmd.Env = append(os.Environ(), daemonizeEnv)
	cmd.Stdin = devNull
	cmd.Stdout = devNull
	cmd.Stderr = devNull
	cmd.SysProcAttr = &syscall.SysProcAttr{Setsid: true}

	if err = cmd.Start(); err != nil {
		return err
	}

	os.Exit(0)

	return nil
}
