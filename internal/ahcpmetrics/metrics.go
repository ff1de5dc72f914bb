// Package ahcpmetrics wires the protocol engine's counters and gauges to
// github.com/prometheus/client_golang, served by an optional debug HTTP
// listener. This is additive observability: spec.md's Non-goals exclude
// host configuration and authentication, not metrics.
package ahcpmetrics

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/AdguardTeam/golibs/log"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds the daemon's counters and gauges.  The counters are
// incremented by the packet dispatch code in cmd/ahcpd; the gauges are
// registered but never set.
type Metrics struct {
	QueriesSent          prometheus.Counter
	RepliesSent          prometheus.Counter
	RepliesReceived      prometheus.Counter
	FloodsSent           prometheus.Counter
	StatefulRequestsSent prometheus.Counter
	StatefulNAKsReceived prometheus.Counter

	LeasesActive      prometheus.Gauge
	LeaseStoreEntries prometheus.Gauge
}

// New registers and returns a fresh [Metrics] against reg.
func New(reg prometheus.Registerer) (m *Metrics) {
	f := promauto.With(reg)

	return &Metrics{
		QueriesSent: f.NewCounter(prometheus.CounterOpts{
			Name: "ahcp_queries_sent_total",
			Help: "Total number of AHCP QUERY packets sent.",
		}),
		RepliesSent: f.NewCounter(prometheus.CounterOpts{
			Name: "ahcp_replies_sent_total",
			Help: "Total number of AHCP REPLY packets sent.",
		}),
		RepliesReceived: f.NewCounter(prometheus.CounterOpts{
			Name: "ahcp_replies_received_total",
			Help: "Total number of AHCP REPLY packets accepted.",
		}),
		FloodsSent: f.NewCounter(prometheus.CounterOpts{
			Name: "ahcp_floods_sent_total",
			Help: "Total number of unsolicited authority/forwarder REPLY floods sent.",
		}),
		StatefulRequestsSent: f.NewCounter(prometheus.CounterOpts{
			Name: "ahcp_stateful_requests_total",
			Help: "Total number of STATEFUL_REQUEST packets sent.",
		}),
		StatefulNAKsReceived: f.NewCounter(prometheus.CounterOpts{
			Name: "ahcp_stateful_naks_total",
			Help: "Total number of STATEFUL_NAK packets received.",
		}),
		LeasesActive: f.NewGauge(prometheus.GaugeOpts{
			Name: "ahcp_leases_active",
			Help: "Number of stateful leases this daemon currently has bound or granted.",
		}),
		LeaseStoreEntries: f.NewGauge(prometheus.GaugeOpts{
			Name: "ahcp_lease_store_entries",
			Help: "Number of lease files present in the stateful-server lease directory.",
		}),
	}
}

// Server is an optional debug HTTP listener exposing /metrics via
// [promhttp.Handler].
type Server struct {
	http *http.Server
}

// NewServer returns a [Server] bound to addr, not yet listening.
func NewServer(addr string, reg *prometheus.Registry) (s *Server) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))

	return &Server{http: &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}}
}

// Serve blocks until ctx is cancelled or the listener fails.
func (s *Server) Serve(ctx context.Context) (err error) {
	errCh := make(chan error, 1)

	go func() { errCh <- s.http.ListenAndServe() }()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		if serr := s.http.Shutdown(shutdownCtx); serr != nil {
			log.Error("ahcp: metrics server shutdown: %s", serr)
		}

		return nil
	case err = <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}

		return err
	}
}
