package app

import (
	"context"
	"time"

	stripe "github.com/stripe/stripe-go/v82"

	config "github.com/stockwolf/billing-api/api/config"
	billingdb "github.com/stockwolf/billing-api/api/services/billing/db"
	gw "github.com/stockwolf/billing-api/api/services/billing/gateway"
)

// Service defines the business operations for the billing domain.
type Service interface {
	CreateCheckoutSession(ctx context.Context, req CheckoutRequest) (CheckoutResponse, error)
	HandleWebhook(ctx context.Context, payload []byte, signature string) (WebhookResult, error)
	HandleCheckoutSessionCompleted(ctx context.Context, event stripe.Event) (Outcome, error)
	HandleSubscriptionChanged(ctx context.Context, event stripe.Event) (Outcome, error)
	ListActiveClients(ctx context.Context, sharedSecret string) ([]ActiveClient, error)
}

// serviceImpl holds no per-request state; every call reads configuration and
// talks to the injected gateway and store.
type serviceImpl struct {
	cfg   *config.Config
	gw    gw.StripeGateway
	store billingdb.Store
	now   func() time.Time
}

// Option customizes a Service.
type Option func(*serviceImpl)

// WithClock replaces time.Now for row timestamps.
func WithClock(now func() time.Time) Option {
	return func(s *serviceImpl) { s.now = now }
}

func NewService(cfg *config.Config, g gw.StripeGateway, store billingdb.Store, opts ...Option) Service {
	s := &serviceImpl{cfg: cfg, gw: g, store: store, now: time.Now}
	for _, opt := range opts {
		opt(s)
	}
	return *s
}
