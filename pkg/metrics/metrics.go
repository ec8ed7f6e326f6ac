// Package metrics exposes Prometheus instruments for HTTP traffic and the
// reconciliation business counters.
package metrics

import (
	"context"
	"fmt"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/casadecor/backoffice/pkg/logging"
)

// Metrics is the instrument set for one service.
type Metrics struct {
	HTTPRequestsTotal   *prometheus.CounterVec
	HTTPRequestDuration prometheus.Histogram

	LinksTotal        prometheus.Counter
	LinkFailuresTotal *prometheus.CounterVec
	BatchRunsTotal    prometheus.Counter
	BatchLinked       prometheus.Counter
	BatchSkipped      prometheus.Counter
	CandidatesScored  prometheus.Counter
	IgnoredTotal      prometheus.Counter
	RestoredTotal     prometheus.Counter
}

// New creates and registers the instrument set.
func New(serviceName string) *Metrics {
	m := &Metrics{
		HTTPRequestsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "backoffice",
			Subsystem: serviceName,
			Name:      "http_requests_total",
			Help:      "Total HTTP requests",
		}, []string{"method", "path", "status"}),
		HTTPRequestDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "backoffice",
			Subsystem: serviceName,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request duration in seconds",
			Buckets:   prometheus.DefBuckets,
		}),
		LinksTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "backoffice",
			Subsystem: serviceName,
			Name:      "links_total",
			Help:      "Successful transaction-installment links",
		}),
		LinkFailuresTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "backoffice",
			Subsystem: serviceName,
			Name:      "link_failures_total",
			Help:      "Failed link attempts by reason",
		}, []string{"reason"}),
		BatchRunsTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "backoffice",
			Subsystem: serviceName,
			Name:      "batch_runs_total",
			Help:      "Auto reconciliation batch runs",
		}),
		BatchLinked: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "backoffice",
			Subsystem: serviceName,
			Name:      "batch_linked_total",
			Help:      "Transactions linked by batch runs",
		}),
		BatchSkipped: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "backoffice",
			Subsystem: serviceName,
			Name:      "batch_skipped_total",
			Help:      "Batch selections skipped with a reason",
		}),
		CandidatesScored: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "backoffice",
			Subsystem: serviceName,
			Name:      "candidates_scored_total",
			Help:      "Match candidates scored",
		}),
		IgnoredTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "backoffice",
			Subsystem: serviceName,
			Name:      "transactions_ignored_total",
			Help:      "Transactions moved to the ignored pool",
		}),
		RestoredTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "backoffice",
			Subsystem: serviceName,
			Name:      "transactions_restored_total",
			Help:      "Transactions restored from the ignored pool",
		}),
	}

	prometheus.MustRegister(
		m.HTTPRequestsTotal, m.HTTPRequestDuration,
		m.LinksTotal, m.LinkFailuresTotal,
		m.BatchRunsTotal, m.BatchLinked, m.BatchSkipped,
		m.CandidatesScored, m.IgnoredTotal, m.RestoredTotal,
	)
	return m
}

// StartHTTPServer serves /metrics on the given port in a goroutine.
func StartHTTPServer(port int) {
	go func() {
		mux := http.NewServeMux()
		mux.Handle("/metrics", promhttp.Handler())
		addr := fmt.Sprintf(":%d", port)
		if err := http.ListenAndServe(addr, mux); err != nil && err != http.ErrServerClosed {
			logging.Error(context.Background(), "metrics server stopped", "error", err)
		}
	}()
}
