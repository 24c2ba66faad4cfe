// Package metrics records per-run figures and writes them in the Prometheus
// text format for the node exporter's textfile collector.
//
// Registers:
//
//	pricetracker_models_normalized_total{source}
//	pricetracker_models_skipped_total{source}
//	pricetracker_models_rejected_total{source}
//	pricetracker_catalog_models
//	pricetracker_changes_total{type}
//	pricetracker_run_duration_seconds
//	pricetracker_last_success_timestamp_seconds
package metrics

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Recorder owns a private registry so runs never share state.
type Recorder struct {
	registry    *prometheus.Registry
	normalized  *prometheus.CounterVec
	skipped     *prometheus.CounterVec
	rejected    *prometheus.CounterVec
	models      prometheus.Gauge
	changes     *prometheus.CounterVec
	duration    prometheus.Histogram
	lastSuccess prometheus.Gauge
}

// New creates a recorder with all collectors registered.
func New() *Recorder {
	r := &Recorder{
		registry: prometheus.NewRegistry(),
		normalized: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "pricetracker_models_normalized_total",
			Help: "Models produced by a source adapter.",
		}, []string{"source"}),
		skipped: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "pricetracker_models_skipped_total",
			Help: "Malformed feed items skipped by a source adapter.",
		}, []string{"source"}),
		rejected: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "pricetracker_models_rejected_total",
			Help: "Feed items excluded by source policy.",
		}, []string{"source"}),
		models: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "pricetracker_catalog_models",
			Help: "Models in the published catalog.",
		}),
		changes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "pricetracker_changes_total",
			Help: "Changelog entries by change type.",
		}, []string{"type"}),
		duration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "pricetracker_run_duration_seconds",
			Help:    "Wall time of a normalize run.",
			Buckets: []float64{0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30, 60},
		}),
		lastSuccess: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "pricetracker_last_success_timestamp_seconds",
			Help: "Unix time of the last successful run.",
		}),
	}
	r.registry.MustRegister(r.normalized, r.skipped, r.rejected, r.models, r.changes, r.duration, r.lastSuccess)
	return r
}

// ObserveSource records one adapter's outcome.
func (r *Recorder) ObserveSource(source string, normalized, skipped, rejected int) {
	r.normalized.WithLabelValues(source).Add(float64(normalized))
	r.skipped.WithLabelValues(source).Add(float64(skipped))
	r.rejected.WithLabelValues(source).Add(float64(rejected))
}

// SetCatalogModels records the size of the written catalog.
func (r *Recorder) SetCatalogModels(n int) {
	r.models.Set(float64(n))
}

// AddChanges records changelog entries of one type.
func (r *Recorder) AddChanges(changeType string, n int) {
	r.changes.WithLabelValues(changeType).Add(float64(n))
}

// ObserveRun records the run duration and marks it successful at end.
func (r *Recorder) ObserveRun(d time.Duration, end time.Time) {
	r.duration.Observe(d.Seconds())
	r.lastSuccess.Set(float64(end.Unix()))
}

// Registry exposes the underlying registry.
func (r *Recorder) Registry() *prometheus.Registry {
	return r.registry
}

// WriteTextfile writes all metrics to path atomically.
func (r *Recorder) WriteTextfile(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("creating metrics dir: %w", err)
	}
	if err := prometheus.WriteToTextfile(path, r.registry); err != nil {
		return fmt.Errorf("writing metrics %s: %w", path, err)
	}
	return nil
}
