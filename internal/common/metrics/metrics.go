package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	FlowInvocations = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "flow_invocations_total",
			Help: "Total number of flow invocations",
		},
		[]string{"flow"},
	)

	FlowFailures = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "flow_failures_total",
			Help: "Total number of failed flow invocations",
		},
		[]string{"flow", "error_code"},
	)

	FlowDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name: "flow_duration_seconds",
			Help: "Duration of flow invocations in seconds",
		},
		[]string{"flow"},
	)

	FlowRepairs = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "flow_repairs_total",
			Help: "Total number of repair rules applied to generated output",
		},
		[]string{"flow", "field"},
	)

	ToolCalls = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "tool_calls_total",
			Help: "Total number of model-initiated tool calls",
		},
		[]string{"tool", "outcome"},
	)

	NotificationsSent = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "notifications_sent_total",
			Help: "Total number of push notifications by result",
		},
		[]string{"result"},
	)

	SignalsPersisted = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "signals_persisted_total",
			Help: "Total number of signals written to storage",
		},
	)
)
