package app

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	webhookEvents = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "stockwolf_webhook_events_total",
			Help: "Stripe webhook events by type and outcome",
		},
		[]string{"type", "outcome"},
	)
	checkoutSessions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "stockwolf_checkout_sessions_total",
			Help: "Checkout session requests by outcome",
		},
		[]string{"outcome"},
	)
)

// eventTypeLabel keeps the label set bounded to the reconciled event types.
func eventTypeLabel(t string) string {
	switch t {
	case EventCheckoutSessionCompleted, EventSubscriptionUpdated, EventSubscriptionDeleted:
		return t
	}
	return "other"
}
