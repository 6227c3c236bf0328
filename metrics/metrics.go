// ABOUTME: Prometheus counters and gauges for sync runs
// ABOUTME: Batch-job friendly: metrics are written to a node-exporter textfile at exit
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
)

const namespace = "sprintledger"

// Recorder holds the sync metrics on a private registry. A nil *Recorder is a no-op.
type Recorder struct {
	registry *prometheus.Registry

	synced      *prometheus.CounterVec
	skipped     *prometheus.CounterVec
	tagged      *prometheus.CounterVec
	duration    *prometheus.GaugeVec
	lastSuccess *prometheus.GaugeVec
}

// New registers the sync metrics on a fresh registry.
func New() *Recorder {
	r := &Recorder{
		registry: prometheus.NewRegistry(),
		synced: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "records_synced_total",
			Help:      "Records upserted by a sync pass.",
		}, []string{"source"}),
		skipped: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "records_skipped_total",
			Help:      "Records skipped by a sync pass, by reason.",
		}, []string{"source", "reason"}),
		tagged: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "entries_tagged_total",
			Help:      "Time entries persisted with a classification tag.",
		}, []string{"tag"}),
		duration: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "run_duration_seconds",
			Help:      "Wall-clock duration of the most recent sync pass.",
		}, []string{"source"}),
		lastSuccess: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "last_success_timestamp_seconds",
			Help:      "Unix timestamp of the most recent successful sync pass.",
		}, []string{"source"}),
	}

	r.registry.MustRegister(r.synced, r.skipped, r.tagged, r.duration, r.lastSuccess)
	return r
}

// Registry exposes the underlying registry for gathering.
func (r *Recorder) Registry() *prometheus.Registry {
	if r == nil {
		return nil
	}
	return r.registry
}

// RecordSynced counts one upserted record.
func (r *Recorder) RecordSynced(source string) {
	if r == nil {
		return
	}
	r.synced.WithLabelValues(source).Inc()
}

// RecordSkipped counts one skipped record.
func (r *Recorder) RecordSkipped(source, reason string) {
	if r == nil {
		return
	}
	r.skipped.WithLabelValues(source, reason).Inc()
}

// RecordTagged counts one tagged time entry.
func (r *Recorder) RecordTagged(tag string) {
	if r == nil || tag == "" {
		return
	}
	r.tagged.WithLabelValues(tag).Inc()
}

// RecordRun stores the duration of a finished pass and, on success, its completion time.
func (r *Recorder) RecordRun(source string, started, finished time.Time, success bool) {
	if r == nil {
		return
	}
	r.duration.WithLabelValues(source).Set(finished.Sub(started).Seconds())
	if success {
		r.lastSuccess.WithLabelValues(source).Set(float64(finished.Unix()))
	}
}

// WriteTextfile writes the current metrics in text exposition format to path.
func (r *Recorder) WriteTextfile(path string) error {
	if r == nil || path == "" {
		return nil
	}
	return prometheus.WriteToTextfile(path, r.registry)
}

// CounterTotals gathers the registry and sums every counter family across its labels.
func (r *Recorder) CounterTotals() (map[string]float64, error) {
	if r == nil {
		return nil, nil
	}
	families, err := r.registry.Gather()
	if err != nil {
		return nil, err
	}
	totals := make(map[string]float64)
	for _, mf := range families {
		if mf.GetType() != dto.MetricType_COUNTER {
			continue
		}
		var sum float64
		for _, m := range mf.GetMetric() {
			sum += m.GetCounter().GetValue()
		}
		totals[mf.GetName()] = sum
	}
	return totals, nil
}
