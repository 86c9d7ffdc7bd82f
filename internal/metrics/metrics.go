// Package metrics exposes driver and solver activity as Prometheus metrics.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "horizon"

// Solve outcomes.
const (
	OutcomeOK          = "ok"
	OutcomeInfeasible  = "infeasible"
	OutcomeUnavailable = "unavailable"
	OutcomeInvalid     = "invalid"
)

// Recorder records driver metrics. A nil *Recorder is valid and records
// nothing.
type Recorder struct {
	solves       *prometheus.CounterVec
	solveSeconds prometheus.Histogram
	ticks        prometheus.Counter
	pending      prometheus.Gauge
	queued       prometheus.Gauge
	position     prometheus.Gauge
}

// NewRecorder registers the driver metrics with reg.
func NewRecorder(reg prometheus.Registerer) *Recorder {
	f := promauto.With(reg)
	return &Recorder{
		solves: f.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "solves_total",
				Help:      "Plan solves by outcome",
			},
			[]string{"outcome"},
		),
		solveSeconds: f.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "solve_duration_seconds",
				Help:      "Wall time spent in a plan solve",
				Buckets:   prometheus.ExponentialBuckets(0.001, 2, 14),
			},
		),
		ticks: f.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "ticks_total",
				Help:      "Driver ticks processed",
			},
		),
		pending: f.NewGauge(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "pending_goals",
				Help:      "Goals waiting for their trigger time",
			},
		),
		queued: f.NewGauge(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "queued_samples",
				Help:      "Planned positions not yet applied to the plant",
			},
		),
		position: f.NewGauge(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "plant_position",
				Help:      "Current plant position in plant units",
			},
		),
	}
}

// ObserveSolve records one solve and how long it took.
func (r *Recorder) ObserveSolve(outcome string, d time.Duration) {
	if r == nil {
		return
	}
	r.solves.WithLabelValues(outcome).Inc()
	r.solveSeconds.Observe(d.Seconds())
}

// ObserveTick records the driver state after a tick.
func (r *Recorder) ObserveTick(pending, queued int, position float64) {
	if r == nil {
		return
	}
	r.ticks.Inc()
	r.pending.Set(float64(pending))
	r.queued.Set(float64(queued))
	r.position.Set(position)
}
