package main

import (
	"github.com/ahcp-project/ahcpd/internal/ahcplog"
	"github.com/ahcp-project/ahcpd/internal/ahcpopts"
)

// serviceName is used as the syslog/eventlog source and the
// github.com/kardianos/service registration name.
const serviceName = "ahcpd"

func ahcplogConfigure(opts ahcpopts.Options) (err error) {
	return ahcplog.Configure(ahcplog.Settings{
		File:    opts.LogFile,
		Verbose: opts.Verbose,
	}, serviceName)
}
