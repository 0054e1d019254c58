package httpapi

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/golang/mock/gomock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	stripe "github.com/stripe/stripe-go/v82"
	"github.com/stripe/stripe-go/v82/webhook"

	config "github.com/stockwolf/billing-api/api/config"
	billingapp "github.com/stockwolf/billing-api/api/services/billing/app"
	billingdb "github.com/stockwolf/billing-api/api/services/billing/db"
	dbmock "github.com/stockwolf/billing-api/api/services/billing/db/mock"
	gwmock "github.com/stockwolf/billing-api/api/services/billing/gateway/mock"
	stripegw "github.com/stockwolf/billing-api/api/services/billing/gateway/stripe"
)

const (
	whsec  = "whsec_http_test"
	shared = "automation-secret"
)

func testConfig() *config.Config {
	return &config.Config{
		StripeSecretKey:     "sk_test_123",
		StripeWebhookSecret: whsec,
		PriceID:             "price_1StockWolf",
		PlanLabel:           "stockwolf_monthly",
		SiteURL:             "https://stockwolf.io",
		SharedSecret:        shared,
		DefaultTimezone:     "Europe/Paris",
	}
}

func newGateway(t *testing.T) *gwmock.MockStripeGateway {
	t.Helper()
	g := gwmock.NewMockStripeGateway(gomock.NewController(t))
	verifier := stripegw.New("sk_test_123", time.Second)
	g.EXPECT().ConstructEvent(gomock.Any(), gomock.Any(), gomock.Any()).DoAndReturn(verifier.ConstructEvent).AnyTimes()
	return g
}

func newHandler(cfg *config.Config, g *gwmock.MockStripeGateway, st billingdb.Store) *Handler {
	return NewHandler(billingapp.NewService(cfg, g, st), st, time.Second)
}

func signed(t *testing.T, payload []byte, secret string) *http.Request {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/api/stripe/webhook", bytes.NewReader(payload))
	req.Header.Set(StripeSignatureHeader, webhook.GenerateTestSignedPayload(&webhook.UnsignedPayload{
		Payload:   payload,
		Secret:    secret,
		Timestamp: time.Now(),
	}).Header)
	return req
}

func decode(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body), rec.Body.String())
	return body
}

func subscriptionEvent(eventType, subID, status string) []byte {
	return []byte(fmt.Sprintf(`{"id":"evt_1","object":"event","type":%q,"data":{"object":{"id":%q,"object":"subscription","status":%q,"items":{"object":"list","data":[{"id":"si_1","price":{"id":"price_1StockWolf"},"current_period_end":1775001600}]}}}}`,
		eventType, subID, status))
}

func checkoutCompletedEvent() []byte {
	return []byte(`{"id":"evt_cs","object":"event","type":"checkout.session.completed","data":{"object":{"id":"cs_1","object":"checkout.session","customer":"cus_acme","subscription":"sub_acme","metadata":{"client_id":"acme","client_name":"Acme","plan":"stockwolf_monthly","email":"a@acme.com"}}}}`)
}

func TestCheckout(t *testing.T) {
	g := newGateway(t)
	g.EXPECT().CreateCheckoutSession(gomock.Any(), gomock.Any()).
		Return(stripe.CheckoutSession{ID: "cs_1", URL: "https://checkout.stripe.com/c/pay/cs_1"}, nil)
	h := newHandler(testConfig(), g, billingdb.NewMemoryStore())

	rec := httptest.NewRecorder()
	h.Checkout(rec, httptest.NewRequest(http.MethodPost, "/api/billing/checkout",
		strings.NewReader(`{"email":"a@acme.com","client_id":"acme","client_name":"Acme"}`)))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, map[string]any{"url": "https://checkout.stripe.com/c/pay/cs_1"}, decode(t, rec))
}

func TestCheckout_Errors(t *testing.T) {
	cases := []struct {
		name     string
		mutate   func(*config.Config)
		body     string
		wantCode int
		wantErr  string
	}{
		{"invalid json", nil, `{"email":`, http.StatusBadRequest, "invalid_json"},
		{"missing fields", nil, `{"email":"a@acme.com"}`, http.StatusBadRequest, "missing_fields"},
		{"missing key", func(c *config.Config) { c.StripeSecretKey = "" }, `{}`, http.StatusInternalServerError, "ENV_MISSING: STRIPE_SECRET_KEY"},
		{"bad price", func(c *config.Config) { c.PriceID = "prod_1" }, `{}`, http.StatusInternalServerError,
			"ENV_INVALID: PRICE_STOCKWOLF must be a Stripe price id (price_...). got=prod_1"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := testConfig()
			if tc.mutate != nil {
				tc.mutate(cfg)
			}
			g := gwmock.NewMockStripeGateway(gomock.NewController(t))
			rec := httptest.NewRecorder()
			newHandler(cfg, g, billingdb.NewMemoryStore()).Checkout(rec,
				httptest.NewRequest(http.MethodPost, "/api/billing/checkout", strings.NewReader(tc.body)))

			assert.Equal(t, tc.wantCode, rec.Code)
			assert.Equal(t, tc.wantErr, decode(t, rec)["error"])
		})
	}
}

func TestCheckout_ProviderMessagePassedThrough(t *testing.T) {
	g := newGateway(t)
	g.EXPECT().CreateCheckoutSession(gomock.Any(), gomock.Any()).
		Return(stripe.CheckoutSession{}, &stripe.Error{Msg: "No such price: 'price_1StockWolf'"})

	rec := httptest.NewRecorder()
	newHandler(testConfig(), g, billingdb.NewMemoryStore()).Checkout(rec, httptest.NewRequest(http.MethodPost,
		"/api/billing/checkout", strings.NewReader(`{"email":"a@acme.com","client_id":"acme","client_name":"Acme"}`)))

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Equal(t, "No such price: 'price_1StockWolf'", decode(t, rec)["error"])
}

func TestStripeWebhook_Received(t *testing.T) {
	g := newGateway(t)
	g.EXPECT().GetSubscription(gomock.Any(), "sub_acme").Return(stripe.Subscription{
		ID:     "sub_acme",
		Status: stripe.SubscriptionStatusTrialing,
		Items: &stripe.SubscriptionItemList{Data: []*stripe.SubscriptionItem{{
			Price: &stripe.Price{ID: "price_1StockWolf"},
		}}},
	}, nil)
	st := billingdb.NewMemoryStore()
	h := newHandler(testConfig(), g, st)

	rec := httptest.NewRecorder()
	h.StripeWebhook(rec, signed(t, checkoutCompletedEvent(), whsec))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, map[string]any{"received": true}, decode(t, rec))

	sub, err := st.GetSubscription(context.Background(), "sub_acme")
	require.NoError(t, err)
	assert.Equal(t, "trialing", sub.Status)
}

func TestStripeWebhook_Rejections(t *testing.T) {
	payload := subscriptionEvent("customer.subscription.updated", "sub_acme", "active")

	t.Run("missing signature", func(t *testing.T) {
		st := dbmock.NewMockStore(gomock.NewController(t))
		rec := httptest.NewRecorder()
		newHandler(testConfig(), newGateway(t), st).StripeWebhook(rec,
			httptest.NewRequest(http.MethodPost, "/api/stripe/webhook", bytes.NewReader(payload)))
		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Equal(t, "missing_signature", decode(t, rec)["error"])
	})

	t.Run("wrong secret", func(t *testing.T) {
		st := dbmock.NewMockStore(gomock.NewController(t))
		rec := httptest.NewRecorder()
		newHandler(testConfig(), newGateway(t), st).StripeWebhook(rec, signed(t, payload, "whsec_other"))
		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.True(t, strings.HasPrefix(decode(t, rec)["error"].(string), "webhook_error: "))
	})

	t.Run("tampered body", func(t *testing.T) {
		st := dbmock.NewMockStore(gomock.NewController(t))
		header := signed(t, payload, whsec).Header.Get(StripeSignatureHeader)
		tampered := bytes.Replace(payload, []byte(`"active"`), []byte(`"paused"`), 1)
		req := httptest.NewRequest(http.MethodPost, "/api/stripe/webhook", bytes.NewReader(tampered))
		req.Header.Set(StripeSignatureHeader, header)
		rec := httptest.NewRecorder()
		newHandler(testConfig(), newGateway(t), st).StripeWebhook(rec, req)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("missing webhook secret", func(t *testing.T) {
		cfg := testConfig()
		cfg.StripeWebhookSecret = ""
		st := dbmock.NewMockStore(gomock.NewController(t))
		rec := httptest.NewRecorder()
		newHandler(cfg, newGateway(t), st).StripeWebhook(rec, signed(t, payload, whsec))
		assert.Equal(t, http.StatusInternalServerError, rec.Code)
		assert.Equal(t, "ENV_MISSING: STRIPE_WEBHOOK_SECRET", decode(t, rec)["error"])
	})
}

func TestStripeWebhook_StoreAndGatewayFailures(t *testing.T) {
	st := dbmock.NewMockStore(gomock.NewController(t))
	st.EXPECT().UpdateSubscriptionState(gomock.Any(), "sub_acme", gomock.Any()).Return(false, errors.New("conn refused"))
	rec := httptest.NewRecorder()
	newHandler(testConfig(), newGateway(t), st).StripeWebhook(rec,
		signed(t, subscriptionEvent("customer.subscription.updated", "sub_acme", "active"), whsec))
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Equal(t, "store_error", decode(t, rec)["error"])

	g := newGateway(t)
	g.EXPECT().GetSubscription(gomock.Any(), "sub_acme").
		Return(stripe.Subscription{}, &stripe.Error{Msg: "No such subscription"})
	rec = httptest.NewRecorder()
	newHandler(testConfig(), g, dbmock.NewMockStore(gomock.NewController(t))).StripeWebhook(rec, signed(t, checkoutCompletedEvent(), whsec))
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Equal(t, "gateway_error", decode(t, rec)["error"])
}

func TestStripeWebhook_UnknownSubscriptionAcknowledged(t *testing.T) {
	st := billingdb.NewMemoryStore()
	rec := httptest.NewRecorder()
	newHandler(testConfig(), newGateway(t), st).StripeWebhook(rec,
		signed(t, subscriptionEvent("customer.subscription.deleted", "sub_nope", "canceled"), whsec))
	assert.Equal(t, http.StatusOK, rec.Code)
	clients, subs := st.Counts()
	assert.Zero(t, clients+subs)
}

func TestActiveClients(t *testing.T) {
	st := billingdb.NewMemoryStore()
	_, _, err := st.UpsertClientSubscription(context.Background(),
		billingdb.ClientUpsert{ClientID: "acme", ClientName: "Acme", DigestEmails: "a@acme.com", UrgentEmails: "a@acme.com"},
		billingdb.SubscriptionUpsert{StripeSubscriptionID: "sub_acme", Plan: "stockwolf_monthly",
			State: billingdb.SubscriptionState{Status: "active"}})
	require.NoError(t, err)
	require.NoError(t, st.SetClientPreferences("acme", "nvda, AMD ,amd,", "", ""))
	h := newHandler(testConfig(), newGateway(t), st)

	for _, header := range []string{SharedSecretHeader, LegacySecretHeader} {
		req := httptest.NewRequest(http.MethodGet, "/api/clients/active", nil)
		req.Header.Set(header, shared)
		rec := httptest.NewRecorder()
		h.ActiveClients(rec, req)
		require.Equal(t, http.StatusOK, rec.Code, header)

		var body struct {
			Clients []map[string]any `json:"clients"`
		}
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
		require.Len(t, body.Clients, 1)
		assert.Equal(t, "acme", body.Clients[0]["client_id"])
		assert.Equal(t, []any{"NVDA", "AMD"}, body.Clients[0]["universeTickers"])
		assert.Equal(t, []any{}, body.Clients[0]["secTickers"])
		assert.Equal(t, "Europe/Paris", body.Clients[0]["timezone"])
	}

	rec := httptest.NewRecorder()
	h.ActiveClients(rec, httptest.NewRequest(http.MethodGet, "/api/clients/active", nil))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, "unauthorized", decode(t, rec)["error"])
}

func TestActiveClients_MissingSecretConfig(t *testing.T) {
	cfg := testConfig()
	cfg.SharedSecret = ""
	req := httptest.NewRequest(http.MethodGet, "/api/clients/active", nil)
	req.Header.Set(SharedSecretHeader, shared)
	rec := httptest.NewRecorder()
	newHandler(cfg, newGateway(t), billingdb.NewMemoryStore()).ActiveClients(rec, req)

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Equal(t, "ENV_MISSING: SHARED_SECRET (or N8N_SHARED_SECRET)", decode(t, rec)["error"])
}

func TestHealth(t *testing.T) {
	rec := httptest.NewRecorder()
	newHandler(testConfig(), newGateway(t), billingdb.NewMemoryStore()).Health(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "healthy", decode(t, rec)["status"])

	st := dbmock.NewMockStore(gomock.NewController(t))
	st.EXPECT().Ping(gomock.Any()).Return(errors.New("down"))
	rec = httptest.NewRecorder()
	newHandler(testConfig(), newGateway(t), st).Health(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.Equal(t, "unhealthy", decode(t, rec)["status"])
}
