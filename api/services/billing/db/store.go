package db

import "context"

//go:generate mockgen -source=store.go -destination=mock/mock_store.go -package=mock

// Store persists clients and their Stripe subscriptions.
// Writes are keyed by external identifiers and safe to repeat.
type Store interface {
	// UpsertClientSubscription upserts the client by client_id, then the
	// subscription by stripe_subscription_id, atomically.
	UpsertClientSubscription(ctx context.Context, c ClientUpsert, s SubscriptionUpsert) (Client, Subscription, error)
	// UpdateSubscriptionState rewrites the mutable fields of an existing
	// subscription. It reports false when no row matches.
	UpdateSubscriptionState(ctx context.Context, stripeSubscriptionID string, st SubscriptionState) (bool, error)
	GetClient(ctx context.Context, clientID string) (Client, error)
	GetSubscription(ctx context.Context, stripeSubscriptionID string) (Subscription, error)
	// ListActiveClients returns distinct clients holding a subscription in one of statuses.
	ListActiveClients(ctx context.Context, statuses []string, limit int) ([]Client, error)
	Ping(ctx context.Context) error
}
