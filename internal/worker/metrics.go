package worker

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type metrics struct {
	registry             *prometheus.Registry
	rendersTotal         *prometheus.CounterVec
	renderDuration       *prometheus.HistogramVec
	activeRenders        prometheus.Gauge
	pixelsProcessedTotal prometheus.Counter
	bytesWrittenTotal    prometheus.Counter
	computeTimeMSTotal   prometheus.Counter
}

func newMetrics() *metrics {
	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	m := &metrics{
		registry: registry,
		rendersTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "pixlab_worker_renders_total",
			Help: "Total worker renders by source type and final status.",
		}, []string{"source_type", "status"}),
		renderDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "pixlab_worker_render_duration_seconds",
			Help:    "Total processing duration for each worker render.",
			Buckets: prometheus.DefBuckets,
		}, []string{"source_type", "status"}),
		activeRenders: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "pixlab_worker_active_renders",
			Help: "Current number of renders being processed by the worker.",
		}),
		pixelsProcessedTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "pixlab_usage_pixels_processed_total",
			Help: "Total source pixels processed across all successful renders.",
		}),
		bytesWrittenTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "pixlab_usage_bytes_written_total",
			Help: "Total output bytes written across all successful renders.",
		}),
		computeTimeMSTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "pixlab_usage_compute_time_ms_total",
			Help: "Total compute time in milliseconds across successful renders.",
		}),
	}

	registry.MustRegister(
		m.rendersTotal,
		m.renderDuration,
		m.activeRenders,
		m.pixelsProcessedTotal,
		m.bytesWrittenTotal,
		m.computeTimeMSTotal,
	)
	return m
}

func (m *metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
