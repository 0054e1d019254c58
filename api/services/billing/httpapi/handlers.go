package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	stripe "github.com/stripe/stripe-go/v82"

	config "github.com/stockwolf/billing-api/api/config"
	"github.com/stockwolf/billing-api/api/middleware"
	billingapp "github.com/stockwolf/billing-api/api/services/billing/app"
	billingdb "github.com/stockwolf/billing-api/api/services/billing/db"
)

const (
	maxCheckoutBody = 64 << 10
	maxWebhookBody  = 1 << 20
	healthTimeout   = 2 * time.Second
)

// Header names read by the handlers.
const (
	StripeSignatureHeader = "Stripe-Signature"
	SharedSecretHeader    = "X-Shared-Secret"
	LegacySecretHeader    = "X-N8N-Secret"
)

// Handler exposes the billing service over HTTP.
type Handler struct {
	svc          billingapp.Service
	store        billingdb.Store
	storeTimeout time.Duration
}

// NewHandler returns a Handler. Store-backed routes run under storeTimeout
// when it is positive.
func NewHandler(svc billingapp.Service, store billingdb.Store, storeTimeout time.Duration) *Handler {
	return &Handler{svc: svc, store: store, storeTimeout: storeTimeout}
}

// Checkout handles POST /api/billing/checkout.
func (h *Handler) Checkout(w http.ResponseWriter, r *http.Request) {
	var req billingapp.CheckoutRequest
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxCheckoutBody))
	if err := dec.Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_json")
		return
	}

	resp, err := h.svc.CreateCheckoutSession(r.Context(), req)
	if err != nil {
		h.fail(w, r, "checkout failed", err, true)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

// StripeWebhook handles POST /api/stripe/webhook. The body is read raw so the
// signature can be verified over the exact bytes Stripe sent.
func (h *Handler) StripeWebhook(w http.ResponseWriter, r *http.Request) {
	payload, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxWebhookBody))
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeError(w, http.StatusRequestEntityTooLarge, "payload_too_large")
			return
		}
		writeError(w, http.StatusBadRequest, "invalid_body")
		return
	}

	ctx, cancel := h.withStoreTimeout(r.Context())
	defer cancel()

	if _, err := h.svc.HandleWebhook(ctx, payload, r.Header.Get(StripeSignatureHeader)); err != nil {
		h.fail(w, r, "webhook failed", err, false)
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"received": true})
}

// ActiveClients handles GET /api/clients/active.
func (h *Handler) ActiveClients(w http.ResponseWriter, r *http.Request) {
	secret := r.Header.Get(SharedSecretHeader)
	if secret == "" {
		secret = r.Header.Get(LegacySecretHeader)
	}

	ctx, cancel := h.withStoreTimeout(r.Context())
	defer cancel()

	clients, err := h.svc.ListActiveClients(ctx, secret)
	if err != nil {
		h.fail(w, r, "listing active clients failed", err, false)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"clients": clients})
}

// Health handles GET /health by pinging the store.
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), healthTimeout)
	defer cancel()

	if err := h.store.Ping(ctx); err != nil {
		slog.Warn("health check failed", "request_id", middleware.RequestIDFrom(r.Context()), "err", err)
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "unhealthy"})
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "healthy"})
}

func (h *Handler) withStoreTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if h.storeTimeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, h.storeTimeout)
}

func (h *Handler) fail(w http.ResponseWriter, r *http.Request, msg string, err error, providerMessage bool) {
	code, body := errorResponse(err, providerMessage)
	attrs := []any{"request_id", middleware.RequestIDFrom(r.Context()), "status", code, "err", err}
	if code >= http.StatusInternalServerError {
		slog.Error(msg, attrs...)
	} else {
		slog.Warn(msg, attrs...)
	}
	writeError(w, code, body)
}

// errorResponse maps service errors to a status code and the stable error
// string returned to callers. With providerMessage set, Stripe's own message
// is returned for gateway failures.
func errorResponse(err error, providerMessage bool) (int, string) {
	var settingErr *config.SettingError
	if errors.As(err, &settingErr) {
		return http.StatusInternalServerError, settingErr.Error()
	}

	switch {
	case errors.Is(err, billingapp.ErrMissingFields):
		return http.StatusBadRequest, billingapp.ErrMissingFields.Error()
	case errors.Is(err, billingapp.ErrMissingSignature):
		return http.StatusBadRequest, billingapp.ErrMissingSignature.Error()
	case errors.Is(err, billingapp.ErrBadSignature):
		return http.StatusBadRequest, err.Error()
	case errors.Is(err, billingapp.ErrBadEvent):
		return http.StatusBadRequest, "bad_event"
	case errors.Is(err, billingapp.ErrUnauthorized):
		return http.StatusUnauthorized, billingapp.ErrUnauthorized.Error()
	case errors.Is(err, billingapp.ErrDatabase):
		return http.StatusInternalServerError, "store_error"
	case errors.Is(err, billingapp.ErrGateway):
		if providerMessage {
			return http.StatusInternalServerError, gatewayMessage(err)
		}
		return http.StatusInternalServerError, "gateway_error"
	}
	return http.StatusInternalServerError, "internal_error"
}

func gatewayMessage(err error) string {
	var stripeErr *stripe.Error
	if errors.As(err, &stripeErr) && strings.TrimSpace(stripeErr.Msg) != "" {
		return stripeErr.Msg
	}
	return "gateway_error"
}
