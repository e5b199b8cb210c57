package observability

import (
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	globalMetrics *Metrics
	metricsOnce   sync.Once
)

// Metrics holds the Prometheus collectors of the advocacy service.
type Metrics struct {
	Transitions       *prometheus.CounterVec
	Sends             *prometheus.CounterVec
	Generations       *prometheus.CounterVec
	CollaboratorCalls *prometheus.HistogramVec
	ActiveSessions    prometheus.Gauge
}

// NewMetrics registers the collectors once per process.
//
//   - advocate_wizard_transitions_total{from,to,event}
//   - advocate_sends_total{outcome}
//   - advocate_generations_total{outcome}
//   - advocate_collaborator_duration_seconds{collaborator,outcome}
//   - advocate_active_sessions
func NewMetrics() *Metrics {
	metricsOnce.Do(func() {
		globalMetrics = &Metrics{
			Transitions: promauto.NewCounterVec(
				prometheus.CounterOpts{
					Name: "advocate_wizard_transitions_total",
					Help: "Wizard step changes",
				},
				[]string{"from", "to", "event"},
			),
			Sends: promauto.NewCounterVec(
				prometheus.CounterOpts{
					Name: "advocate_sends_total",
					Help: "Settled message sends",
				},
				[]string{"outcome"},
			),
			Generations: promauto.NewCounterVec(
				prometheus.CounterOpts{
					Name: "advocate_generations_total",
					Help: "AI message generation requests",
				},
				[]string{"outcome"},
			),
			CollaboratorCalls: promauto.NewHistogramVec(
				prometheus.HistogramOpts{
					Name:    "advocate_collaborator_duration_seconds",
					Help:    "Latency of calls to external collaborators",
					Buckets: []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
				},
				[]string{"collaborator", "outcome"},
			),
			ActiveSessions: promauto.NewGauge(prometheus.GaugeOpts{
				Name: "advocate_active_sessions",
				Help: "Wizard sessions currently held in memory",
			}),
		}
	})
	return globalMetrics
}

// ObserveCall records one collaborator call started at start.
func (m *Metrics) ObserveCall(collaborator string, start time.Time, err error) {
	if m == nil {
		return
	}
	m.CollaboratorCalls.WithLabelValues(collaborator, Outcome(err)).Observe(time.Since(start).Seconds())
}

// Outcome labels an error as "ok" or "error".
func Outcome(err error) string {
	if err != nil {
		return "error"
	}
	return "ok"
}
