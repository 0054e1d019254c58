package gateway

import (
	"context"

	stripe "github.com/stripe/stripe-go/v82"
)

//go:generate mockgen -source=gateway.go -destination=mock/mock_gateway.go -package=mock

// CheckoutSessionInput describes a subscription-mode checkout session for a
// single price with quantity 1.
type CheckoutSessionInput struct {
	PriceID       string
	CustomerEmail string
	SuccessURL    string
	CancelURL     string
	Metadata      map[string]string
}

// StripeGateway abstracts Stripe SDK operations needed by the app layer.
// Methods return values (not pointers) to keep SDK pointers out of the
// app layer's signatures.
type StripeGateway interface {
	CreateCheckoutSession(ctx context.Context, in CheckoutSessionInput) (stripe.CheckoutSession, error)
	GetSubscription(ctx context.Context, id string) (stripe.Subscription, error)
	// ConstructEvent verifies the Stripe-Signature header over the raw payload
	// and decodes the event.
	ConstructEvent(payload []byte, signature, secret string) (stripe.Event, error)
}
