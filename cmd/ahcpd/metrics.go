package main

import "github.com/ahcp-project/ahcpd/internal/ahcpmetrics"

// metrics is nil unless --metrics-addr was given; every increment site
// in dispatch.go guards against that so metrics stay a purely additive concern.
var metrics *ahcpmetrics.Metrics
