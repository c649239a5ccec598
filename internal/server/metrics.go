package server

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds the lookup service collectors on their own registry
type Metrics struct {
	registry *prometheus.Registry

	LookupsTotal     *prometheus.CounterVec
	LookupDuration   *prometheus.HistogramVec
	UpstreamRequests *prometheus.CounterVec
	UpstreamDuration *prometheus.HistogramVec
}

// NewMetrics registers the collectors on a fresh registry
func NewMetrics() *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	factory := promauto.With(reg)

	return &Metrics{
		registry: reg,
		LookupsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "estlookup_lookups_total",
				Help: "Total number of lookups by source and outcome",
			},
			[]string{"source", "outcome"},
		),
		LookupDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "estlookup_lookup_duration_seconds",
				Help:    "Duration of lookups in seconds",
				Buckets: prometheus.ExponentialBuckets(0.01, 2, 12),
			},
			[]string{"source"},
		),
		UpstreamRequests: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "estlookup_upstream_requests_total",
				Help: "Total number of upstream GETs by host and status",
			},
			[]string{"host", "status"},
		),
		UpstreamDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "estlookup_upstream_duration_seconds",
				Help:    "Duration of upstream GETs in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"host"},
		),
	}
}

// ObserveLookup records one resolved lookup. outcome is found, not_found or error.
func (m *Metrics) ObserveLookup(source, outcome string, elapsed time.Duration) {
	m.LookupsTotal.WithLabelValues(source, outcome).Inc()
	m.LookupDuration.WithLabelValues(source).Observe(elapsed.Seconds())
}

// ObserveUpstream matches the fetcher's observer signature
func (m *Metrics) ObserveUpstream(host string, status int, elapsed time.Duration) {
	label := "error"
	if status > 0 {
		label = strconv.Itoa(status)
	}
	m.UpstreamRequests.WithLabelValues(host, label).Inc()
	m.UpstreamDuration.WithLabelValues(host).Observe(elapsed.Seconds())
}

// Handler serves the registry in the Prometheus exposition format
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
