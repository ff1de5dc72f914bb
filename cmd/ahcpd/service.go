package main

import (
	"context"
	"fmt"
	"os"

	"github.com/AdguardTeam/golibs/log"
	"github.com/ahcp-project/ahcpd/internal/ahcpopts"
	"github.com/kardianos/service"
)

const (
	serviceDisplayName = "AHCP autoconfiguration daemon"
	serviceDescription = "Stateless and stateful IPv6 autoconfiguration via AHCP"
)

// program adapts run into the github.com/kardianos/service lifecycle: Start
// must not block, so it launches run in a goroutine and Stop cancels the
// context run was given, mirroring the teacher's program/signalHandler
// split without a separate signal-handler goroutine — ahcpd's own signal
// handling lives inside the event loop in run.go.
type program struct {
	opts   ahcpopts.Options
	cancel context.CancelFunc
	done   chan struct{}
}

// type check
var _ service.Interface = (*program)(nil)

// Start implements service.Interface for *program.
func (p *program) Start(_ service.Service) (err error) {
	ctx, cancel := context.WithCancel(context.Background())
	p.cancel = cancel
	p.done = make(chan struct{})

	go func() {
		defer close(p.done)

		if rerr := run(ctx, p.opts); rerr != nil {
			log.Error("ahcpd: %s", rerr)
		}
	}()

	return nil
}

// Stop implements service.Interface for *program.
func (p *program) Stop(_ service.Service) (err error) {
	p.cancel()
	<-p.done

	return nil
}

// handleServiceControlAction handles one of status/install/uninstall/
// start/stop/restart/run, per the github.com/kardianos/service contract
// and grounded on the teacher's handleServiceControlAction.
func handleServiceControlAction(opts ahcpopts.Options) {
	action := opts.ServiceControlAction

	pwd, err := os.Getwd()
	if err != nil {
		log.Error("ahcpd: getting current directory: %s", err)
		os.Exit(1)
	}

	runOpts := opts
	runOpts.ServiceControlAction = "run"

	args := ahcpopts.Serialize(runOpts)

	svcConfig := &service.Config{
		Name:             serviceName,
		DisplayName:      serviceDisplayName,
		Description:      serviceDescription,
		WorkingDirectory: pwd,
		Arguments:        args,
	}

	s, err := service.New(&program{opts: runOpts}, svcConfig)
	if err != nil {
		log.Error("ahcpd: initializing service: %s", err)
		os.Exit(1)
	}

	if err = handleServiceCommand(s, action); err != nil {
		log.Error("ahcpd: %s", err)
		os.Exit(1)
	}
}

func handleServiceCommand(s service.Service, action string) (err error) {
	switch action {
	case "status":
		status, serr := s.Status()
		if serr != nil {
			return fmt.Errorf("getting status: %w", serr)
		}

		log.Info("ahcpd: service status: %s", statusString(status))
	case "run":
		if err = s.Run(); err != nil {
			return fmt.Errorf("running service: %w", err)
		}
	default:
		if err = service.Control(s, action); err != nil {
			return fmt.Errorf("executing action %q: %w", action, err)
		}
	}

	return nil
}

func statusString(status service.Status) (s string) {
	switch status {
	case service.StatusRunning:
		return "running"
	case service.StatusStopped:
		return "stopped"
	default:
		return "unknown"
	}
}
