package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// WebhookDeliveries counts deliveries by processing outcome:
	// applied, duplicate, ignored, unverified, malformed, error.
	WebhookDeliveries = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "fundwatch_webhook_deliveries_total",
		Help: "Webhook deliveries by processing outcome.",
	}, []string{"outcome"})

	SourceResolves = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "fundwatch_source_resolves_total",
		Help: "Successful source resolutions by serving tier (cache included).",
	}, []string{"tier"})

	SourceFailures = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "fundwatch_source_tier_failures_total",
		Help: "Source tier fetches that failed or returned nothing.",
	}, []string{"tier"})

	EnrichmentFailures = promauto.NewCounter(prometheus.CounterOpts{
		Name: "fundwatch_enrichment_failures_total",
		Help: "Relay descriptor fetches that failed or timed out.",
	})

	ReconcileTransitions = promauto.NewCounter(prometheus.CounterOpts{
		Name: "fundwatch_reconcile_transitions_total",
		Help: "Campaign transitions applied by the gateway reconciliation pass.",
	})
)
