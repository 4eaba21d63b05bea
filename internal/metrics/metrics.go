// Package metrics holds the Prometheus collectors for the monitor.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Webhook outcome label values.
const (
	OutcomeAccepted     = "accepted"
	OutcomeUnauthorized = "unauthorized"
	OutcomeMalformed    = "malformed"
)

// Processor status label values.
const (
	StatusOK    = "ok"
	StatusError = "error"
)

var (
	// Webhook metrics
	WebhookRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "tweet_monitor_webhook_requests_total",
			Help: "Total number of webhook requests by outcome",
		},
		[]string{"outcome"},
	)

	AuthDisabledRequestsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "tweet_monitor_auth_disabled_requests_total",
			Help: "Webhook requests accepted while no API key was configured",
		},
	)

	TweetsReceivedTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "tweet_monitor_tweets_received_total",
			Help: "Total number of tweets received in webhook payloads",
		},
	)

	// Downstream metrics
	DuplicateTweetsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "tweet_monitor_duplicate_tweets_total",
			Help: "Redelivered tweets not handed to processors again",
		},
	)

	ProcessorRunsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "tweet_monitor_processor_runs_total",
			Help: "Downstream processor invocations by result",
		},
		[]string{"processor", "status"},
	)

	ProcessorDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "tweet_monitor_processor_duration_seconds",
			Help:    "Duration of downstream processor invocations in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"processor"},
	)
)
