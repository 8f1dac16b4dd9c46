package service

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics exposes Prometheus collectors that report task lifecycle activity.
type Metrics struct {
	transitions *prometheus.CounterVec
	errors      *prometheus.CounterVec
}

// NewMetrics constructs the collectors and registers them with reg. Tests
// should pass a fresh prometheus.NewRegistry().
func NewMetrics(reg prometheus.Registerer) (*Metrics, error) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}

	m := &Metrics{
		transitions: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "todolist",
				Name:      "task_transitions_total",
				Help:      "Task lifecycle transitions applied, by transition.",
			},
			[]string{"transition"},
		),
		errors: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "todolist",
				Name:      "task_operation_errors_total",
				Help:      "Failed task operations, by operation and error kind.",
			},
			[]string{"operation", "kind"},
		),
	}

	for _, c := range []prometheus.Collector{m.transitions, m.errors} {
		if err := reg.Register(c); err != nil {
			return nil, err
		}
	}

	return m, nil
}

func (m *Metrics) transition(name string) {
	if m == nil {
		return
	}
	m.transitions.WithLabelValues(name).Inc()
}

func (m *Metrics) failure(op string, err error) {
	if m == nil {
		return
	}
	m.errors.WithLabelValues(op, ErrorKind(err)).Inc()
}
