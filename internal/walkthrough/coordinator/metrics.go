// metrics.go — prometheus instrumentation for the coordinator, grounded on
// the teacher's cmd/dev-console Prometheus registration style. A
// PrometheusMetrics wires into Coordinator's Metrics interface; production
// callers register it with an existing *prometheus.Registry.
package coordinator

import "github.com/prometheus/client_golang/prometheus"

// PrometheusMetrics implements Metrics with three gauges/counters, matching
// SPEC_FULL.md §2's metrics wiring.
type PrometheusMetrics struct {
	dispatchTotal   *prometheus.CounterVec
	activeSessions  prometheus.Gauge
	healingOutcomes *prometheus.CounterVec
}

// NewPrometheusMetrics creates and registers the coordinator's metrics on
// reg. Safe to call once per process; registering twice on the same
// registry returns an error from reg.Register, which callers should treat
// as fatal configuration.
func NewPrometheusMetrics(reg prometheus.Registerer) (*PrometheusMetrics, error) {
	m := &PrometheusMetrics{
		dispatchTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "walkthrough",
			Name:      "dispatch_total",
			Help:      "Count of state machine dispatches by from-state, event, and to-state.",
		}, []string{"from", "event", "to"}),
		activeSessions: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "walkthrough",
			Name:      "active_sessions",
			Help:      "1 if a walkthrough session is currently active, else 0.",
		}),
		healingOutcomes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "walkthrough",
			Name:      "healing_outcomes_total",
			Help:      "Count of healing attempts by resolution.",
		}, []string{"resolution"}),
	}
	for _, c := range []prometheus.Collector{m.dispatchTotal, m.activeSessions, m.healingOutcomes} {
		if err := reg.Register(c); err != nil {
			return nil, err
		}
	}
	return m, nil
}

func (m *PrometheusMetrics) ObserveDispatch(from, event, to string) {
	m.dispatchTotal.WithLabelValues(from, event, to).Inc()
}

func (m *PrometheusMetrics) SetActiveSessions(n int) {
	m.activeSessions.Set(float64(n))
}

func (m *PrometheusMetrics) ObserveHealing(resolution string) {
	m.healingOutcomes.WithLabelValues(resolution).Inc()
}
