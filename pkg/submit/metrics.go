package submit

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const (
	metricsNamespace = "contactform"
	metricsSubsystem = "submission"
)

// Metrics records submission activity. A nil *Metrics is a valid no-op.
type Metrics struct {
	// AttemptsTotal counts attempts by outcome (success, transient, terminal).
	AttemptsTotal *prometheus.CounterVec
	// SubmissionsTotal counts submit requests by final phase (succeeded,
	// failed, invalid, rejected_in_flight).
	SubmissionsTotal *prometheus.CounterVec
	// AttemptDuration measures one round trip to the intake endpoint.
	AttemptDuration prometheus.Histogram
	// InFlight is 1 while a submission holds the lock.
	InFlight prometheus.Gauge
}

// NewMetrics builds and registers the collectors on reg. A nil reg skips
// registration.
func NewMetrics(reg prometheus.Registerer) (*Metrics, error) {
	m := &Metrics{
		AttemptsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: metricsNamespace,
				Subsystem: metricsSubsystem,
				Name:      "attempts_total",
				Help:      "Submission attempts by outcome",
			},
			[]string{"outcome"},
		),
		SubmissionsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: metricsNamespace,
				Subsystem: metricsSubsystem,
				Name:      "requests_total",
				Help:      "Submit requests by final phase",
			},
			[]string{"result"},
		),
		AttemptDuration: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: metricsNamespace,
				Subsystem: metricsSubsystem,
				Name:      "attempt_duration_seconds",
				Help:      "Round trip time of a single submission attempt",
				Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
			},
		),
		InFlight: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Namespace: metricsNamespace,
				Subsystem: metricsSubsystem,
				Name:      "in_flight",
				Help:      "1 while a submission holds the in-flight lock",
			},
		),
	}
	if reg == nil {
		return m, nil
	}
	for _, c := range []prometheus.Collector{m.AttemptsTotal, m.SubmissionsTotal, m.AttemptDuration, m.InFlight} {
		if err := reg.Register(c); err != nil {
			return nil, err
		}
	}
	return m, nil
}

func (m *Metrics) attempt(outcome string, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.AttemptsTotal.WithLabelValues(outcome).Inc()
	m.AttemptDuration.Observe(elapsed.Seconds())
}

func (m *Metrics) submission(result string) {
	if m == nil {
		return
	}
	m.SubmissionsTotal.WithLabelValues(result).Inc()
}

func (m *Metrics) lock(held bool) {
	if m == nil {
		return
	}
	if held {
		m.InFlight.Set(1)
		return
	}
	m.InFlight.Set(0)
}
