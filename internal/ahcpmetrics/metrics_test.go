package ahcpmetrics_test

import (
	"testing"

	"github.com/ahcp-project/ahcpd/internal/ahcpmetrics"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestNewIncrementsIndependently(t *testing.T) {
	t.Parallel()

	reg := prometheus.NewRegistry()
	m := ahcpmetrics.New(reg)

	m.QueriesSent.Inc()
	m.QueriesSent.Inc()
	m.RepliesSent.Inc()

	assert.Equal(t, float64(2), testutil.ToFloat64(m.QueriesSent))
	assert.Equal(t, float64(1), testutil.ToFloat64(m.RepliesSent))
	assert.Equal(t, float64(0), testutil.ToFloat64(m.StatefulNAKsReceived))
}

func TestNewRegistersAllCollectors(t *testing.T) {
	t.Parallel()

	reg := prometheus.NewRegistry()
	ahcpmetrics.New(reg)

	count, err := testutil.GatherAndCount(
		reg,
		"ahcp_queries_sent_total",
		"ahcp_replies_sent_total",
		"ahcp_replies_received_total",
		"ahcp_floods_sent_total",
		"ahcp_stateful_requests_total",
		"ahcp_stateful_naks_total",
		"ahcp_leases_active",
		"ahcp_lease_store_entries",
	)
	assert.NoError(t, err)
	assert.Equal(t, 8, count)
}
