package stripegw

import (
	"context"
	"net/http"
	"time"

	stripe "github.com/stripe/stripe-go/v82"
	"github.com/stripe/stripe-go/v82/checkout/session"
	"github.com/stripe/stripe-go/v82/subscription"
	"github.com/stripe/stripe-go/v82/webhook"

	gw "github.com/stockwolf/billing-api/api/services/billing/gateway"
)

// client is the Stripe SDK-backed implementation of the gateway.
// It carries its own key and backend instead of mutating stripe.Key.
type client struct {
	sessions session.Client
	subs     subscription.Client
}

// New returns a StripeGateway backed by the official Stripe SDK. Requests
// time out after timeout and are not retried by the SDK; webhook redelivery
// is left to Stripe.
func New(key string, timeout time.Duration) gw.StripeGateway {
	backend := stripe.GetBackendWithConfig(stripe.APIBackend, &stripe.BackendConfig{
		HTTPClient:        &http.Client{Timeout: timeout},
		MaxNetworkRetries: stripe.Int64(0),
	})
	return client{
		sessions: session.Client{B: backend, Key: key},
		subs:     subscription.Client{B: backend, Key: key},
	}
}

func (c client) CreateCheckoutSession(ctx context.Context, in gw.CheckoutSessionInput) (stripe.CheckoutSession, error) {
	params := checkoutParams(in)
	params.Context = ctx
	s, err := c.sessions.New(params)
	if err != nil {
		return stripe.CheckoutSession{}, err
	}
	if s == nil {
		return stripe.CheckoutSession{}, nil
	}
	return *s, nil
}

func (c client) GetSubscription(ctx context.Context, id string) (stripe.Subscription, error) {
	params := &stripe.SubscriptionParams{}
	params.Context = ctx
	subPtr, err := c.subs.Get(id, params)
	if err != nil {
		return stripe.Subscription{}, err
	}
	if subPtr == nil {
		return stripe.Subscription{}, nil
	}
	return *subPtr, nil
}

func (client) ConstructEvent(payload []byte, signature, secret string) (stripe.Event, error) {
	// Events are decoded into the SDK's types regardless of the account's
	// pinned API version; only the fields read by the app layer matter.
	return webhook.ConstructEventWithOptions(payload, signature, secret, webhook.ConstructEventOptions{
		IgnoreAPIVersionMismatch: true,
	})
}

func checkoutParams(in gw.CheckoutSessionInput) *stripe.CheckoutSessionParams {
	params := &stripe.CheckoutSessionParams{
		Mode:          stripe.String(string(stripe.CheckoutSessionModeSubscription)),
		CustomerEmail: stripe.String(in.CustomerEmail),
		LineItems: []*stripe.CheckoutSessionLineItemParams{
			{Price: stripe.String(in.PriceID), Quantity: stripe.Int64(1)},
		},
		SuccessURL: stripe.String(in.SuccessURL),
		CancelURL:  stripe.String(in.CancelURL),
	}
	for k, v := range in.Metadata {
		params.AddMetadata(k, v)
	}
	return params
}
