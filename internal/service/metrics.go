package service

import "github.com/prometheus/client_golang/prometheus"

// Metrics holds the workflow-level Prometheus collectors. A nil *Metrics is
// valid and records nothing, so tests can skip registration.
type Metrics struct {
	transitions *prometheus.CounterVec
}

// NewMetrics creates and registers the workflow metrics.
func NewMetrics(reg prometheus.Registerer) (*Metrics, error) {
	m := &Metrics{
		transitions: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "receiving_transitions_total",
				Help: "Total number of receiving document status transitions.",
			},
			[]string{"from", "to"},
		),
	}
	if err := reg.Register(m.transitions); err != nil {
		return nil, err
	}
	return m, nil
}

func (m *Metrics) observeTransition(from, to string) {
	if m == nil {
		return
	}
	m.transitions.WithLabelValues(from, to).Inc()
}
