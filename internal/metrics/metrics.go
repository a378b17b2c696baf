package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// WebhookRequestsTotal counts billing webhook deliveries by event type and outcome.
	WebhookRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "reviso",
		Subsystem: "billing",
		Name:      "webhook_requests_total",
		Help:      "Total billing webhook requests by event type and outcome.",
	}, []string{"event_type", "outcome"})

	// WebhookDuration tracks webhook processing latency.
	WebhookDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "reviso",
		Subsystem: "billing",
		Name:      "webhook_duration_seconds",
		Help:      "Billing webhook processing duration in seconds.",
		Buckets:   prometheus.DefBuckets,
	}, []string{"event_type"})

	// SubscriptionTransitionsTotal counts applied lifecycle transitions.
	SubscriptionTransitionsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "reviso",
		Subsystem: "billing",
		Name:      "subscription_transitions_total",
		Help:      "Subscription status transitions by source and target status.",
	}, []string{"from", "to"})

	// CheckoutsTotal counts checkout starts by provider and outcome.
	CheckoutsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "reviso",
		Subsystem: "billing",
		Name:      "checkouts_total",
		Help:      "Checkout attempts by billing provider and outcome.",
	}, []string{"provider", "outcome"})

	// ProvisioningTotal counts tenant provisioning attempts and outcomes.
	ProvisioningTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "reviso",
		Subsystem: "tenants",
		Name:      "provisioning_total",
		Help:      "Total tenant provisioning attempts by outcome.",
	}, []string{"outcome"})

	// RateLimitRejectionsTotal counts throttled requests by limiter scope.
	RateLimitRejectionsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "reviso",
		Subsystem: "http",
		Name:      "rate_limit_rejections_total",
		Help:      "Requests rejected by a rate limiter, by scope.",
	}, []string{"scope"})

	// JobRunsTotal counts background job executions.
	JobRunsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "reviso",
		Subsystem: "jobs",
		Name:      "runs_total",
		Help:      "Background job runs by job name and result.",
	}, []string{"job", "result"})
)
