// Package metrics records run statistics in a private Prometheus registry
// and writes them as a node-exporter textfile.
package metrics

import (
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/felixgeelhaar/plugmirror/internal/domain/mirror"
)

const namespace = "plugmirror"

// Recorder collects counters for one process. A nil *Recorder records
// nothing.
type Recorder struct {
	registry     *prometheus.Registry
	plugins      prometheus.Counter
	skipped      prometheus.Counter
	resolutions  *prometheus.CounterVec
	hashDuration prometheus.Histogram
	runDuration  prometheus.Gauge
	lastSuccess  prometheus.Gauge
	runs         *prometheus.CounterVec
}

// New creates a Recorder with its own registry.
func New() *Recorder {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)

	return &Recorder{
		registry: reg,
		plugins: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "plugins_discovered_total",
			Help:      "Plugin listing pages discovered in the index",
		}),
		skipped: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "plugins_skipped_total",
			Help:      "Plugins without any eligible version",
		}),
		resolutions: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "resolutions_total",
			Help:      "Resolved artifacts, labeled by how the hash was obtained",
		}, []string{"effect"}),
		hashDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "hash_duration_seconds",
			Help:      "Time spent in the hashing command per artifact",
			Buckets:   []float64{0.1, 0.5, 1, 2.5, 5, 10, 30, 60, 120},
		}),
		runDuration: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "run_duration_seconds",
			Help:      "Duration of the latest run",
		}),
		lastSuccess: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "last_success_timestamp_seconds",
			Help:      "Unix time of the latest successful run",
		}),
		runs: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "runs_total",
			Help:      "Runs, labeled by outcome",
		}, []string{"status"}),
	}
}

// Registry exposes the underlying registry.
func (r *Recorder) Registry() *prometheus.Registry {
	if r == nil {
		return nil
	}
	return r.registry
}

// PluginDiscovered counts one listing page.
func (r *Recorder) PluginDiscovered() {
	if r == nil {
		return
	}
	r.plugins.Inc()
}

// PluginSkipped counts a plugin with no eligible version.
func (r *Recorder) PluginSkipped() {
	if r == nil {
		return
	}
	r.skipped.Inc()
}

// Resolved counts one resolution. The duration is observed only when the
// hashing command actually ran.
func (r *Recorder) Resolved(effect mirror.Effect, elapsed time.Duration) {
	if r == nil {
		return
	}
	r.resolutions.WithLabelValues(effect.String()).Inc()
	if effect != mirror.EffectCacheHit {
		r.hashDuration.Observe(elapsed.Seconds())
	}
}

// RunFinished records the run outcome at now.
func (r *Recorder) RunFinished(elapsed time.Duration, err error, now time.Time) {
	if r == nil {
		return
	}
	r.runDuration.Set(elapsed.Seconds())
	if err != nil {
		r.runs.WithLabelValues("failure").Inc()
		return
	}
	r.runs.WithLabelValues("success").Inc()
	r.lastSuccess.Set(float64(now.Unix()))
}

// WriteTextfile writes every metric to path in the text exposition format.
func (r *Recorder) WriteTextfile(path string) error {
	if r == nil {
		return nil
	}
	if err := prometheus.WriteToTextfile(path, r.registry); err != nil {
		return fmt.Errorf("failed to write metrics: %w", err)
	}
	return nil
}
