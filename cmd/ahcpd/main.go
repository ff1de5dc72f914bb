// Command ahcpd is the AHCP autoconfiguration daemon: it runs as either an
// authority (flooding a locally-authored configuration) or a client
// (electing and adopting the freshest configuration it hears), and
// optionally as a stateful-server granting IPv4 leases.
package main

import (
	"context"
	"os"

	"github.com/AdguardTeam/golibs/log"
	"github.com/ahcp-project/ahcpd/internal/ahcpopts"
)

func main() {
	opts, effect, err := ahcpopts.Parse(os.Args[0], os.Args[1:])
	if err != nil {
		log.Error("ahcpd: %s", err)
		os.Exit(64)
	}

	if effect != nil {
		if err = effect(); err != nil {
			log.Error("ahcpd: %s", err)
			os.Exit(1)
		}

		return
	}

	if err = ahcplogConfigure(opts); err != nil {
		log.Error("ahcpd: configuring logging: %s", err)
		os.Exit(1)
	}

	if opts.ServiceControlAction != "" {
		handleServiceControlAction(opts)

		return
	}

	if opts.Daemonize {
		if err = daemonize(); err != nil {
			log.Error("ahcpd: daemonizing: %s", err)
			os.Exit(1)
		}
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if err = run(ctx, opts); err != nil {
		log.Error("ahcpd: %s", err)
		os.Exit(1)
	}
}
