package app

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/golang/mock/gomock"
	stripe "github.com/stripe/stripe-go/v82"
	"github.com/stripe/stripe-go/v82/webhook"

	config "github.com/stockwolf/billing-api/api/config"
	billingdb "github.com/stockwolf/billing-api/api/services/billing/db"
	gwmock "github.com/stockwolf/billing-api/api/services/billing/gateway/mock"
	stripegw "github.com/stockwolf/billing-api/api/services/billing/gateway/stripe"
)

const (
	testWebhookSecret = "whsec_test_secret"
	testSharedSecret  = "n8n-shared-secret"
)

var fixedNow = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

func testConfig() *config.Config {
	return &config.Config{
		StripeSecretKey:     "sk_test_123",
		StripeWebhookSecret: testWebhookSecret,
		PriceID:             "price_1StockWolf",
		PlanLabel:           "stockwolf_monthly",
		SiteURL:             "stockwolf.io/",
		SharedSecret:        testSharedSecret,
		DefaultTimezone:     "Europe/Paris",
	}
}

// newGateway returns a mock gateway whose ConstructEvent performs real
// Stripe signature verification.
func newGateway(t *testing.T) *gwmock.MockStripeGateway {
	t.Helper()
	ctrl := gomock.NewController(t)
	g := gwmock.NewMockStripeGateway(ctrl)
	verifier := stripegw.New("sk_test_123", time.Second)
	g.EXPECT().ConstructEvent(gomock.Any(), gomock.Any(), gomock.Any()).DoAndReturn(verifier.ConstructEvent).AnyTimes()
	return g
}

func newTestService(cfg *config.Config, g *gwmock.MockStripeGateway, st billingdb.Store) Service {
	return NewService(cfg, g, st, WithClock(func() time.Time { return fixedNow }))
}

func mustJSON(t *testing.T, v any) []byte {
	t.Helper()
	b, err := json.Marshal(v)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	return b
}

// sign returns the Stripe-Signature header for payload.
func sign(payload []byte, secret string) string {
	return webhook.GenerateTestSignedPayload(&webhook.UnsignedPayload{
		Payload:   payload,
		Secret:    secret,
		Timestamp: time.Now(),
	}).Header
}

func eventPayload(t *testing.T, id, eventType string, object map[string]any) []byte {
	t.Helper()
	return mustJSON(t, map[string]any{
		"id":     id,
		"object": "event",
		"type":   eventType,
		"data":   map[string]any{"object": object},
	})
}

func acmeMetadata() map[string]string {
	return map[string]string{
		"client_id":   "acme",
		"client_name": "Acme",
		"plan":        "stockwolf_monthly",
		"email":       "a@acme.com",
	}
}

func checkoutCompletedPayload(t *testing.T, meta map[string]string, subscriptionID, detailsEmail string) []byte {
	t.Helper()
	obj := map[string]any{
		"id":       "cs_test_acme",
		"object":   "checkout.session",
		"customer": "cus_acme",
		"metadata": meta,
	}
	if subscriptionID != "" {
		obj["subscription"] = subscriptionID
	}
	if detailsEmail != "" {
		obj["customer_details"] = map[string]any{"email": detailsEmail}
	}
	return eventPayload(t, "evt_checkout_acme", EventCheckoutSessionCompleted, obj)
}

func subscriptionPayload(t *testing.T, eventType, subscriptionID, status, priceID string, periodEnd int64) []byte {
	t.Helper()
	return eventPayload(t, "evt_"+status, eventType, map[string]any{
		"id":       subscriptionID,
		"object":   "subscription",
		"status":   status,
		"customer": "cus_acme",
		"items": map[string]any{
			"object": "list",
			"data": []any{map[string]any{
				"id":                 "si_1",
				"object":             "subscription_item",
				"price":              map[string]any{"id": priceID, "object": "price"},
				"current_period_end": periodEnd,
			}},
		},
	})
}

func stripeSubscription(id string, status stripe.SubscriptionStatus, priceID string, periodEnd int64) stripe.Subscription {
	return stripe.Subscription{
		ID:       id,
		Status:   status,
		Customer: &stripe.Customer{ID: "cus_acme"},
		Items: &stripe.SubscriptionItemList{Data: []*stripe.SubscriptionItem{{
			ID:               "si_1",
			Price:            &stripe.Price{ID: priceID},
			CurrentPeriodEnd: periodEnd,
		}}},
	}
}
