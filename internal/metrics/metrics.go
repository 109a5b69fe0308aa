package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// HTTP metrics
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "salesboy_http_requests_total",
			Help: "Total HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "salesboy_http_request_duration_seconds",
			Help:    "HTTP request duration",
			Buckets: []float64{.01, .05, .1, .25, .5, 1, 2.5, 5, 10, 30},
		},
		[]string{"method", "path"},
	)

	// Pipeline metrics
	InboundMessages = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "salesboy_inbound_messages_total",
			Help: "Inbound webhook messages by outcome",
		},
		[]string{"outcome"}, // processed, filtered_system, ignored, failed
	)

	IntentsClassified = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "salesboy_intents_total",
			Help: "Intent decisions by intent and status",
		},
		[]string{"intent", "status"},
	)

	ClassifierAttempts = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "salesboy_classifier_attempts_total",
			Help: "Intent classifier attempts by result",
		},
		[]string{"result"}, // valid, invalid, provider_error, fallback
	)

	ProviderCalls = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "salesboy_provider_calls_total",
			Help: "Language and embedding provider calls",
		},
		[]string{"kind", "provider", "outcome"},
	)

	TaskDispatches = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "salesboy_task_dispatches_total",
			Help: "Task dispatch attempts by target and outcome",
		},
		[]string{"target", "outcome"},
	)

	InboundSignatureFailures = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "salesboy_inbound_signature_failures_total",
			Help: "Inbound webhooks with a missing or invalid signature",
		},
	)

	// Gateway
	GatewayForwards = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "salesboy_gateway_forwards_total",
			Help: "WhatsApp messages forwarded by the gateway",
		},
		[]string{"outcome"},
	)
)
