package solver

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics counts solves per method. A nil *Metrics is valid and records nothing.
type Metrics struct {
	solves    *prometheus.CounterVec
	failures  *prometheus.CounterVec
	fallbacks prometheus.Counter
	duration  *prometheus.HistogramVec
}

// NewMetrics registers the solver collectors on reg.
func NewMetrics(reg prometheus.Registerer) (*Metrics, error) {
	m := &Metrics{
		solves: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "toymna_solves_total",
			Help: "Linear solves attempted, by method.",
		}, []string{"method"}),
		failures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "toymna_solve_failures_total",
			Help: "Linear solves that returned an error, by method.",
		}, []string{"method"}),
		fallbacks: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "toymna_iterative_fallbacks_total",
			Help: "Iterative solves escalated from CG to GMRES.",
		}),
		duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "toymna_solve_duration_seconds",
			Help:    "Wall-clock time of linear solves, by method.",
			Buckets: prometheus.ExponentialBuckets(1e-6, 4, 10),
		}, []string{"method"}),
	}

	for _, c := range []prometheus.Collector{m.solves, m.failures, m.fallbacks, m.duration} {
		if err := reg.Register(c); err != nil {
			return nil, err
		}
	}
	return m, nil
}

func (m *Metrics) observe(method Method, elapsed time.Duration, err error, iter *IterativeResult) {
	if m == nil {
		return
	}
	label := method.String()
	m.solves.WithLabelValues(label).Inc()
	m.duration.WithLabelValues(label).Observe(elapsed.Seconds())
	if err != nil {
		m.failures.WithLabelValues(label).Inc()
	}
	if iter != nil && iter.Fallback {
		m.fallbacks.Inc()
	}
}
