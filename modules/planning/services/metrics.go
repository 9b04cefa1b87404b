package services

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// EngineMetrics instruments the workflow engine. One instance per
// process; tests pass their own registry.
type EngineMetrics struct {
	RequestsCreated   *prometheus.CounterVec
	Transitions       *prometheus.CounterVec
	SweepRuns         prometheus.Counter
	AutoClosed        prometheus.Counter
	AutoCloseFailures prometheus.Counter
}

func NewEngineMetrics(reg prometheus.Registerer) *EngineMetrics {
	factory := promauto.With(reg)
	return &EngineMetrics{
		RequestsCreated: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "caseflow_validation_requests_created_total",
			Help: "Validation requests created, by kind.",
		}, []string{"kind"}),
		Transitions: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "caseflow_validation_request_transitions_total",
			Help: "Validation request state transitions, by event.",
		}, []string{"event"}),
		SweepRuns: factory.NewCounter(prometheus.CounterOpts{
			Name: "caseflow_autoclose_sweep_runs_total",
			Help: "Auto-close sweep executions.",
		}),
		AutoClosed: factory.NewCounter(prometheus.CounterOpts{
			Name: "caseflow_autoclose_closed_total",
			Help: "Validation requests closed by the sweep.",
		}),
		AutoCloseFailures: factory.NewCounter(prometheus.CounterOpts{
			Name: "caseflow_autoclose_failures_total",
			Help: "Failures swallowed and reported during the sweep.",
		}),
	}
}
