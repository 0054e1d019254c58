package app

// Stripe event types the reconciliation handles.
const (
	EventCheckoutSessionCompleted = "checkout.session.completed"
	EventSubscriptionUpdated      = "customer.subscription.updated"
	EventSubscriptionDeleted      = "customer.subscription.deleted"
)

// Metadata keys attached to checkout sessions and read back on completion.
const (
	MetaClientID   = "client_id"
	MetaClientName = "client_name"
	MetaPlan       = "plan"
	MetaEmail      = "email"
)

// Outcome describes what a webhook event did to the store.
type Outcome string

const (
	// OutcomeApplied means the store was written.
	OutcomeApplied Outcome = "applied"
	// OutcomeSkipped means a completed checkout lacked correlation data.
	OutcomeSkipped Outcome = "skipped"
	// OutcomeNotFound means the event referenced an untracked subscription.
	OutcomeNotFound Outcome = "not_found"
	// OutcomeIgnored means the event type is not reconciled.
	OutcomeIgnored Outcome = "ignored"
)

// CheckoutRequest is the body of a checkout initiation.
type CheckoutRequest struct {
	Email      string `json:"email"`
	ClientID   string `json:"client_id"`
	ClientName string `json:"client_name"`
}

// CheckoutResponse carries the Stripe-hosted checkout URL.
type CheckoutResponse struct {
	URL       string `json:"url"`
	SessionID string `json:"-"`
}

// WebhookResult reports how an event was handled.
type WebhookResult struct {
	EventID   string
	EventType string
	Outcome   Outcome
}

// ActiveClient is one entry of the automation listing.
type ActiveClient struct {
	ClientID        string   `json:"client_id"`
	ClientName      string   `json:"client_name"`
	DigestEmails    string   `json:"digest_emails"`
	UrgentEmails    string   `json:"urgent_emails"`
	UniverseTickers []string `json:"universeTickers"`
	SECTickers      []string `json:"secTickers"`
	Timezone        string   `json:"timezone"`
}
