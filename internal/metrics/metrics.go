// Package metrics exposes engine counters to Prometheus.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics groups the collectors of one engine. A nil *Metrics records nothing.
type Metrics struct {
	registry *prometheus.Registry

	// DocumentsProcessed counts documents by result: processed, disabled,
	// unchanged, error.
	DocumentsProcessed *prometheus.CounterVec
	// Substitutions counts emitted icon references.
	Substitutions prometheus.Counter
	// ProcessDuration observes the time spent substituting one document.
	ProcessDuration prometheus.Histogram
	// PackReloads counts pack reloads by status: success, fallback, error.
	PackReloads *prometheus.CounterVec
	// ActiveTriggers reports the trigger count of the active pack.
	ActiveTriggers prometheus.Gauge
}

// New registers the collectors on a fresh registry that also carries the Go
// runtime and process collectors.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	factory := promauto.With(reg)

	return &Metrics{
		registry: reg,
		DocumentsProcessed: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "smileys_documents_total",
				Help: "Total number of documents handed to the engine.",
			},
			[]string{"result"},
		),
		Substitutions: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "smileys_substitutions_total",
				Help: "Total number of triggers replaced by icon references.",
			},
		),
		ProcessDuration: factory.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "smileys_process_duration_seconds",
				Help:    "Time spent substituting a single document.",
				Buckets: prometheus.ExponentialBuckets(0.00005, 4, 8),
			},
		),
		PackReloads: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "smileys_pack_reloads_total",
				Help: "Total number of pack reloads.",
			},
			[]string{"status"},
		),
		ActiveTriggers: factory.NewGauge(
			prometheus.GaugeOpts{
				Name: "smileys_active_triggers",
				Help: "Number of triggers in the active pack.",
			},
		),
	}
}

// ObserveDocument records one engine outcome.
func (m *Metrics) ObserveDocument(result string, substitutions int, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.DocumentsProcessed.WithLabelValues(result).Inc()
	if substitutions > 0 {
		m.Substitutions.Add(float64(substitutions))
	}
	if elapsed > 0 {
		m.ProcessDuration.Observe(elapsed.Seconds())
	}
}

// ObserveReload records a pack (re)load.
func (m *Metrics) ObserveReload(status string, triggers int) {
	if m == nil {
		return
	}
	m.PackReloads.WithLabelValues(status).Inc()
	m.ActiveTriggers.Set(float64(triggers))
}

// Registry returns the registry holding the collectors.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}
