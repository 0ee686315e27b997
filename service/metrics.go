package service

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Label values used by the counters below.
const (
	OutcomeSuccess = "success"
	OutcomeFailure = "failure"
	// UnknownService labels requests for names the registry doesn't know; client paths never become labels.
	UnknownService = "unknown"
)

// Metrics groups the gateway counters. A nil *Metrics records nothing.
type Metrics struct {
	ProxyAttempts      *prometheus.CounterVec
	ProxyRequests      *prometheus.CounterVec
	BreakerTransitions *prometheus.CounterVec
	SagaExecutions     *prometheus.CounterVec
	SagaCompensations  *prometheus.CounterVec
}

// NewMetrics creates the gateway counters and registers them with registerer.
func NewMetrics(registerer prometheus.Registerer) *Metrics {
	m := &Metrics{
		ProxyAttempts: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "fabric",
			Subsystem: "router",
			Name:      "attempts_total",
			Help:      "Outbound attempts to downstream instances.",
		}, []string{"service", "outcome"}),
		ProxyRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "fabric",
			Subsystem: "router",
			Name:      "requests_total",
			Help:      "Routed requests by final result code.",
		}, []string{"service", "result"}),
		BreakerTransitions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "fabric",
			Subsystem: "breaker",
			Name:      "transitions_total",
			Help:      "Circuit breaker state changes by target state.",
		}, []string{"to"}),
		SagaExecutions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "fabric",
			Subsystem: "saga",
			Name:      "executions_total",
			Help:      "Order saga executions by outcome.",
		}, []string{"outcome"}),
		SagaCompensations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "fabric",
			Subsystem: "saga",
			Name:      "compensations_total",
			Help:      "Compensating actions by step and outcome.",
		}, []string{"step", "outcome"}),
	}
	registerer.MustRegister(m.ProxyAttempts, m.ProxyRequests, m.BreakerTransitions, m.SagaExecutions, m.SagaCompensations)
	return m
}

func (m *Metrics) attempt(serviceName, outcome string) {
	if m != nil {
		m.ProxyAttempts.WithLabelValues(serviceName, outcome).Inc()
	}
}

func (m *Metrics) request(serviceName, result string) {
	if m != nil {
		m.ProxyRequests.WithLabelValues(serviceName, result).Inc()
	}
}

func (m *Metrics) transition(to string) {
	if m != nil {
		m.BreakerTransitions.WithLabelValues(to).Inc()
	}
}

func (m *Metrics) saga(outcome string) {
	if m != nil {
		m.SagaExecutions.WithLabelValues(outcome).Inc()
	}
}

func (m *Metrics) compensation(step, outcome string) {
	if m != nil {
		m.SagaCompensations.WithLabelValues(step, outcome).Inc()
	}
}
