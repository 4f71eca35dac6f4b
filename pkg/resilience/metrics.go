package resilience

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics exposes envelope counters and duration histograms to Prometheus.
type Metrics struct {
	attempts    *prometheus.CounterVec
	failures    *prometheus.CounterVec
	rejections  *prometheus.CounterVec
	transitions *prometheus.CounterVec
	durations   *prometheus.HistogramVec
}

// NewMetrics builds and registers the envelope collectors.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		attempts: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "resilience_call_attempts_total",
			Help: "Calls attempted through the resiliency envelope",
		}, []string{"service"}),
		failures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "resilience_call_failures_total",
			Help: "Calls that failed after the full envelope",
		}, []string{"service", "kind"}),
		rejections: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "resilience_rejections_total",
			Help: "Calls rejected before reaching the target",
		}, []string{"service", "reason"}),
		transitions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "resilience_circuit_transitions_total",
			Help: "Circuit breaker state transitions",
		}, []string{"service", "from", "to"}),
		durations: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "resilience_call_duration_seconds",
			Help:    "Wall time of calls through the envelope",
			Buckets: prometheus.DefBuckets,
		}, []string{"service"}),
	}
	if reg != nil {
		reg.MustRegister(m.attempts, m.failures, m.rejections, m.transitions, m.durations)
	}
	return m
}

func (m *Metrics) attempt(service string) {
	if m != nil {
		m.attempts.WithLabelValues(service).Inc()
	}
}

func (m *Metrics) failure(service, kind string) {
	if m != nil {
		m.failures.WithLabelValues(service, kind).Inc()
	}
}

func (m *Metrics) rejection(service, reason string) {
	if m != nil {
		m.rejections.WithLabelValues(service, reason).Inc()
	}
}

func (m *Metrics) transition(service, from, to string) {
	if m != nil {
		m.transitions.WithLabelValues(service, from, to).Inc()
	}
}

func (m *Metrics) observe(service string, seconds float64) {
	if m != nil {
		m.durations.WithLabelValues(service).Observe(seconds)
	}
}
