package db

import (
	"errors"
	"time"
)

// ErrNotFound is returned by single-row lookups that match nothing.
var ErrNotFound = errors.New("not found")

// ActiveStatuses are the subscription statuses that entitle a client to digests.
var ActiveStatuses = []string{"active", "trialing"}

// ActiveClientsLimit caps the active-client listing.
const ActiveClientsLimit = 500

// Client is a row of the clients table.
type Client struct {
	ID              int64
	ClientID        string
	ClientName      string
	DigestEmails    string
	UrgentEmails    string
	UniverseTickers string
	SECTickers      string
	Timezone        string
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// Subscription is a row of the subscriptions table.
type Subscription struct {
	ID                   int64
	ClientRef            int64 // clients.id
	StripeCustomerID     string
	StripeSubscriptionID string
	StripePriceID        string
	Plan                 string
	Status               string
	CurrentPeriodEnd     *time.Time
	CreatedAt            time.Time
	UpdatedAt            time.Time
}

// ClientUpsert carries the client fields written on checkout completion.
type ClientUpsert struct {
	ClientID     string
	ClientName   string
	DigestEmails string
	UrgentEmails string
	UpdatedAt    time.Time
}

// SubscriptionState is the provider-owned, mutable part of a subscription.
type SubscriptionState struct {
	Status           string
	PriceID          string
	CurrentPeriodEnd *time.Time
	UpdatedAt        time.Time
}

// SubscriptionUpsert carries the subscription fields written on checkout completion.
// Only State is rewritten when the row already exists.
type SubscriptionUpsert struct {
	StripeSubscriptionID string
	StripeCustomerID     string
	Plan                 string
	State                SubscriptionState
}
