package http

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

// Metrics holds the service's Prometheus collectors. It implements core.Recorder.
type Metrics struct {
	ResolutionsTotal     *prometheus.CounterVec
	AdapterAttemptsTotal *prometheus.CounterVec
	DownloadsTotal       *prometheus.CounterVec
	RequestDuration      *prometheus.HistogramVec
}

// NewRegistry returns a registry preloaded with the Go runtime and process collectors.
func NewRegistry() *prometheus.Registry {
	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return registry
}

// NewMetrics creates the collectors and registers them with registerer.
func NewMetrics(registerer prometheus.Registerer) *Metrics {
	metrics := &Metrics{
		ResolutionsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "musicone_resolutions_total",
				Help: "Total number of song-info resolutions",
			},
			[]string{"platform", "outcome"},
		),
		AdapterAttemptsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "musicone_adapter_attempts_total",
				Help: "Total number of metadata adapter calls",
			},
			[]string{"adapter", "outcome"},
		),
		DownloadsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "musicone_downloads_total",
				Help: "Total number of downloads",
			},
			[]string{"platform", "outcome"},
		),
		RequestDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "musicone_request_duration_seconds",
				Help:    "Time spent serving HTTP requests",
				Buckets: []float64{.01, .05, .1, .25, .5, 1, 2.5, 5, 10, 30, 60, 120, 300},
			},
			[]string{"route"},
		),
	}

	registerer.MustRegister(
		metrics.ResolutionsTotal,
		metrics.AdapterAttemptsTotal,
		metrics.DownloadsTotal,
		metrics.RequestDuration,
	)

	return metrics
}

func (m *Metrics) RecordResolution(platform, outcome string) {
	m.ResolutionsTotal.WithLabelValues(platform, outcome).Inc()
}

func (m *Metrics) RecordAdapterAttempt(adapter, outcome string) {
	m.AdapterAttemptsTotal.WithLabelValues(adapter, outcome).Inc()
}

func (m *Metrics) RecordDownload(platform, outcome string) {
	m.DownloadsTotal.WithLabelValues(platform, outcome).Inc()
}

func (m *Metrics) RecordRequest(route string, duration time.Duration) {
	m.RequestDuration.WithLabelValues(route).Observe(duration.Seconds())
}
