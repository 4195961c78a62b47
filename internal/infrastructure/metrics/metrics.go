// Package metrics exposes prometheus collectors describing a migration run.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Recorder owns the collectors of one run. A nil *Recorder records nothing.
type Recorder struct {
	registry     *prometheus.Registry
	products     *prometheus.CounterVec
	images       *prometheus.CounterVec
	combinations prometheus.Counter
	remoteCalls  *prometheus.CounterVec
	callDuration *prometheus.HistogramVec
	inFlight     prometheus.Gauge
}

// New creates a Recorder registered on its own registry
func New() *Recorder {
	r := &Recorder{
		registry: prometheus.NewRegistry(),
		products: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "migration_products_total",
				Help: "Products settled, by status",
			},
			[]string{"status"},
		),
		images: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "migration_images_total",
				Help: "Product images processed, by status",
			},
			[]string{"status"},
		),
		combinations: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "migration_combinations_total",
				Help: "Combinations created",
			},
		),
		remoteCalls: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "migration_remote_calls_total",
				Help: "Remote calls issued, by operation and outcome",
			},
			[]string{"operation", "outcome"},
		),
		callDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "migration_remote_call_duration_seconds",
				Help:    "Remote call latency",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"operation"},
		),
		inFlight: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "migration_pipelines_in_flight",
				Help: "Product pipelines currently running",
			},
		),
	}
	r.registry.MustRegister(r.products, r.images, r.combinations, r.remoteCalls, r.callDuration, r.inFlight)
	return r
}

// Registry returns the registry holding the run collectors
func (r *Recorder) Registry() *prometheus.Registry {
	if r == nil {
		return nil
	}
	return r.registry
}

// ProductSettled counts a finished product pipeline
func (r *Recorder) ProductSettled(status string) {
	if r == nil {
		return
	}
	r.products.WithLabelValues(status).Inc()
}

// ImageProcessed counts one image fetch+upload attempt
func (r *Recorder) ImageProcessed(ok bool) {
	if r == nil {
		return
	}
	r.images.WithLabelValues(outcome(ok)).Inc()
}

// CombinationCreated counts one combination
func (r *Recorder) CombinationCreated() {
	if r == nil {
		return
	}
	r.combinations.Inc()
}

// RemoteCall records one call to the platform or to the media host
func (r *Recorder) RemoteCall(operation string, err error, elapsed time.Duration) {
	if r == nil {
		return
	}
	r.remoteCalls.WithLabelValues(operation, outcome(err == nil)).Inc()
	r.callDuration.WithLabelValues(operation).Observe(elapsed.Seconds())
}

// PipelineStarted and PipelineFinished track running product pipelines
func (r *Recorder) PipelineStarted() {
	if r == nil {
		return
	}
	r.inFlight.Inc()
}

func (r *Recorder) PipelineFinished() {
	if r == nil {
		return
	}
	r.inFlight.Dec()
}

func outcome(ok bool) string {
	if ok {
		return "success"
	}
	return "failure"
}
