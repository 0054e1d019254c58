package app

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	gw "github.com/stockwolf/billing-api/api/services/billing/gateway"
)

// CreateCheckoutSession validates server configuration and the request, then
// asks Stripe for a subscription checkout session and returns its URL.
// Nothing is called on Stripe unless every check passes.
func (s serviceImpl) CreateCheckoutSession(ctx context.Context, req CheckoutRequest) (CheckoutResponse, error) {
	if _, err := s.cfg.StripeKey(); err != nil {
		checkoutSessions.WithLabelValues("config_error").Inc()
		return CheckoutResponse{}, err
	}
	priceID, err := s.cfg.Price()
	if err != nil {
		checkoutSessions.WithLabelValues("config_error").Inc()
		return CheckoutResponse{}, err
	}
	baseURL, err := s.cfg.BaseURL()
	if err != nil {
		checkoutSessions.WithLabelValues("config_error").Inc()
		return CheckoutResponse{}, err
	}

	email := strings.TrimSpace(req.Email)
	clientID := strings.TrimSpace(req.ClientID)
	clientName := strings.TrimSpace(req.ClientName)
	if email == "" || clientID == "" || clientName == "" {
		checkoutSessions.WithLabelValues("invalid_request").Inc()
		return CheckoutResponse{}, ErrMissingFields
	}

	in := gw.CheckoutSessionInput{
		PriceID:       priceID,
		CustomerEmail: email,
		SuccessURL:    baseURL + "/success?session_id={CHECKOUT_SESSION_ID}",
		CancelURL:     baseURL + "/cancel",
		Metadata: map[string]string{
			MetaClientID:   clientID,
			MetaClientName: clientName,
			MetaPlan:       s.cfg.Plan(),
			MetaEmail:      email,
		},
	}
	slog.Info("creating checkout session", "client_id", clientID, "price_id", priceID, "success_url", in.SuccessURL)

	session, err := s.gw.CreateCheckoutSession(ctx, in)
	if err != nil {
		checkoutSessions.WithLabelValues("gateway_error").Inc()
		return CheckoutResponse{}, fmt.Errorf("%w: %w", ErrGateway, err)
	}
	if session.URL == "" {
		checkoutSessions.WithLabelValues("gateway_error").Inc()
		return CheckoutResponse{}, fmt.Errorf("%w: checkout session %q has no url", ErrGateway, session.ID)
	}

	checkoutSessions.WithLabelValues("created").Inc()
	slog.Info("checkout session created", "client_id", clientID, "session_id", session.ID)
	return CheckoutResponse{URL: session.URL, SessionID: session.ID}, nil
}
