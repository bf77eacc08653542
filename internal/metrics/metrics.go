package metrics

import (
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Recorder holds the collection counters. A nil *Recorder records nothing,
// so collectors can be built without metrics.
type Recorder struct {
	registry *prometheus.Registry

	// Cache entries rewritten from a fresh provider answer.
	refreshes *prometheus.CounterVec
	// Cache entries still within their TTL; no provider call made.
	fresh *prometheus.CounterVec
	// Provider calls that failed or returned nothing usable.
	providerFailures *prometheus.CounterVec
	// Snapshots that could not be persisted.
	writeFailures *prometheus.CounterVec
	lastDuration  prometheus.Gauge
}

// New registers the locinfo metrics on a private registry.
func New() *Recorder {
	r := &Recorder{
		registry: prometheus.NewRegistry(),
		refreshes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "locinfo_cache_refreshes_total",
			Help: "Cache entries rewritten from a provider answer.",
		}, []string{"domain"}),
		fresh: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "locinfo_cache_fresh_total",
			Help: "Cache entries found fresh, no provider call made.",
		}, []string{"domain"}),
		providerFailures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "locinfo_provider_failures_total",
			Help: "Provider calls that failed or returned no data.",
		}, []string{"domain"}),
		writeFailures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "locinfo_cache_write_failures_total",
			Help: "Snapshots that could not be written to the cache.",
		}, []string{"domain"}),
		lastDuration: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "locinfo_collect_last_duration_seconds",
			Help: "Wall time of the last full collection run.",
		}),
	}
	r.registry.MustRegister(r.refreshes, r.fresh, r.providerFailures, r.writeFailures, r.lastDuration)
	return r
}

func (r *Recorder) Refreshed(domain string) {
	if r == nil {
		return
	}
	r.refreshes.WithLabelValues(domain).Inc()
}

func (r *Recorder) Fresh(domain string) {
	if r == nil {
		return
	}
	r.fresh.WithLabelValues(domain).Inc()
}

func (r *Recorder) ProviderFailed(domain string) {
	if r == nil {
		return
	}
	r.providerFailures.WithLabelValues(domain).Inc()
}

func (r *Recorder) WriteFailed(domain string) {
	if r == nil {
		return
	}
	r.writeFailures.WithLabelValues(domain).Inc()
}

// CollectDuration records how long the last orchestrator run took.
func (r *Recorder) CollectDuration(d time.Duration) {
	if r == nil {
		return
	}
	r.lastDuration.Set(d.Seconds())
}

// Registry exposes the underlying registry, mainly for tests.
func (r *Recorder) Registry() *prometheus.Registry {
	if r == nil {
		return nil
	}
	return r.registry
}

// WriteTextfile dumps the metrics in text exposition format for node_exporter's
// textfile collector. The file is replaced atomically.
func (r *Recorder) WriteTextfile(path string) error {
	if r == nil || path == "" {
		return nil
	}
	if err := prometheus.WriteToTextfile(path, r.registry); err != nil {
		return fmt.Errorf("write metrics textfile: %w", err)
	}
	return nil
}
