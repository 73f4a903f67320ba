package redactor

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

const metricsNamespace = "redactor"

type metrics struct {
	registry *prometheus.Registry

	formatOperations *prometheus.CounterVec
	revisions        prometheus.Counter
	rulesErrors      *prometheus.CounterVec
	sessions         prometheus.GaugeFunc
}

func newMetrics(sessions *Sessions) *metrics {
	m := &metrics{
		registry: prometheus.NewRegistry(),
		formatOperations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "format_operations_total",
			Help:      "Formatting operations by format and selection direction",
		}, []string{"format", "direction"}),
		revisions: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "revisions_saved_total",
			Help:      "Saved document revisions",
		}),
		rulesErrors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "rules_errors_total",
			Help:      "Sanitizer script errors by API error code",
		}, []string{"code"}),
		sessions: prometheus.NewGaugeFunc(prometheus.GaugeOpts{
			Namespace: metricsNamespace,
			Name:      "editor_sessions",
			Help:      "Open document editor sessions",
		}, func() float64 { return float64(sessions.Len()) }),
	}

	bootTimeGauge := prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: metricsNamespace,
		Name:      "boot_time",
		Help:      "Server startup time",
	})
	bootTimeGauge.Set(float64(time.Now().UnixMilli()))

	m.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		bootTimeGauge,
		m.formatOperations,
		m.revisions,
		m.rulesErrors,
		m.sessions,
	)
	return m
}
