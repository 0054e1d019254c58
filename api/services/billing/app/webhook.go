package app

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"time"

	stripe "github.com/stripe/stripe-go/v82"

	billingdb "github.com/stockwolf/billing-api/api/services/billing/db"
)

// HandleWebhook verifies a Stripe delivery and reconciles the store with it.
// The payload must be the raw request body. Events of other types are
// acknowledged without effect.
func (s serviceImpl) HandleWebhook(ctx context.Context, payload []byte, signature string) (WebhookResult, error) {
	if strings.TrimSpace(signature) == "" {
		return WebhookResult{}, ErrMissingSignature
	}
	if _, err := s.cfg.StripeKey(); err != nil {
		return WebhookResult{}, err
	}
	secret, err := s.cfg.WebhookSecret()
	if err != nil {
		return WebhookResult{}, err
	}

	event, err := s.gw.ConstructEvent(payload, signature, secret)
	if err != nil {
		webhookEvents.WithLabelValues("unverified", "rejected").Inc()
		return WebhookResult{}, fmt.Errorf("%w: %v", ErrBadSignature, err)
	}

	res := WebhookResult{EventID: event.ID, EventType: string(event.Type)}
	switch res.EventType {
	case EventCheckoutSessionCompleted:
		res.Outcome, err = s.HandleCheckoutSessionCompleted(ctx, event)
	case EventSubscriptionUpdated, EventSubscriptionDeleted:
		res.Outcome, err = s.HandleSubscriptionChanged(ctx, event)
	default:
		res.Outcome = OutcomeIgnored
	}
	if err != nil {
		webhookEvents.WithLabelValues(eventTypeLabel(res.EventType), "error").Inc()
		slog.Error("webhook event failed", "event_id", res.EventID, "type", res.EventType, "err", err)
		return res, err
	}

	webhookEvents.WithLabelValues(eventTypeLabel(res.EventType), string(res.Outcome)).Inc()
	slog.Info("webhook event handled", "event_id", res.EventID, "type", res.EventType, "outcome", res.Outcome)
	return res, nil
}

// HandleCheckoutSessionCompleted processes the checkout.session.completed event.
// The client and its first subscription are created here and nowhere else.
func (s serviceImpl) HandleCheckoutSessionCompleted(ctx context.Context, event stripe.Event) (Outcome, error) {
	if event.Data == nil {
		return "", fmt.Errorf("%w: event has no data", ErrBadEvent)
	}
	var session stripe.CheckoutSession
	if err := json.Unmarshal(event.Data.Raw, &session); err != nil {
		return "", fmt.Errorf("%w: error unmarshaling into CheckoutSession: %v", ErrBadEvent, err)
	}

	clientID := strings.TrimSpace(session.Metadata[MetaClientID])
	clientName := strings.TrimSpace(session.Metadata[MetaClientName])
	plan := strings.TrimSpace(session.Metadata[MetaPlan])
	if plan == "" {
		plan = s.cfg.Plan()
	}
	email := strings.TrimSpace(session.Metadata[MetaEmail])
	if email == "" && session.CustomerDetails != nil {
		email = strings.TrimSpace(session.CustomerDetails.Email)
	}
	subscriptionID := ""
	if session.Subscription != nil {
		subscriptionID = session.Subscription.ID
	}

	if subscriptionID == "" || clientID == "" || clientName == "" || email == "" {
		slog.Warn("checkout session lacks correlation data, skipping",
			"session_id", session.ID,
			"has_subscription", subscriptionID != "",
			"client_id", clientID,
			"has_email", email != "")
		return OutcomeSkipped, nil
	}

	// The session only references the subscription; fetch the authoritative copy.
	sub, err := s.gw.GetSubscription(ctx, subscriptionID)
	if err != nil {
		return "", fmt.Errorf("%w: error fetching subscription %s: %w", ErrGateway, subscriptionID, err)
	}
	if sub.ID == "" {
		sub.ID = subscriptionID
	}

	customerID := ""
	if session.Customer != nil {
		customerID = session.Customer.ID
	}
	if customerID == "" && sub.Customer != nil {
		customerID = sub.Customer.ID
	}

	now := s.now().UTC()
	client, row, err := s.store.UpsertClientSubscription(ctx,
		billingdb.ClientUpsert{
			ClientID:     clientID,
			ClientName:   clientName,
			DigestEmails: email,
			UrgentEmails: email,
			UpdatedAt:    now,
		},
		billingdb.SubscriptionUpsert{
			StripeSubscriptionID: sub.ID,
			StripeCustomerID:     customerID,
			Plan:                 plan,
			State:                subscriptionState(sub, EventCheckoutSessionCompleted, now),
		})
	if err != nil {
		return "", fmt.Errorf("%w: error upserting client subscription: %v", ErrDatabase, err)
	}

	slog.Info("subscription recorded", "client_id", client.ClientID, "stripe_subscription_id", row.StripeSubscriptionID, "status", row.Status)
	return OutcomeApplied, nil
}

// HandleSubscriptionChanged processes customer.subscription.updated and
// customer.subscription.deleted. Untracked subscriptions are left alone.
func (s serviceImpl) HandleSubscriptionChanged(ctx context.Context, event stripe.Event) (Outcome, error) {
	if event.Data == nil {
		return "", fmt.Errorf("%w: event has no data", ErrBadEvent)
	}
	var sub stripe.Subscription
	if err := json.Unmarshal(event.Data.Raw, &sub); err != nil {
		return "", fmt.Errorf("%w: error unmarshaling into Subscription: %v", ErrBadEvent, err)
	}
	if sub.ID == "" {
		return "", fmt.Errorf("%w: subscription ID not found in event", ErrBadEvent)
	}

	state := subscriptionState(sub, string(event.Type), s.now().UTC())
	found, err := s.store.UpdateSubscriptionState(ctx, sub.ID, state)
	if err != nil {
		return "", fmt.Errorf("%w: error updating subscription: %v", ErrDatabase, err)
	}
	if !found {
		slog.Info("subscription not tracked, ignoring event", "stripe_subscription_id", sub.ID, "type", event.Type)
		return OutcomeNotFound, nil
	}
	return OutcomeApplied, nil
}

// subscriptionState projects the provider's view of a subscription onto the
// mutable columns. Price and period end come from the first item.
func subscriptionState(sub stripe.Subscription, eventType string, now time.Time) billingdb.SubscriptionState {
	st := billingdb.SubscriptionState{Status: string(sub.Status), UpdatedAt: now}
	if st.Status == "" && eventType == EventSubscriptionDeleted {
		st.Status = string(stripe.SubscriptionStatusCanceled)
	}
	if sub.Items != nil && len(sub.Items.Data) > 0 && sub.Items.Data[0] != nil {
		item := sub.Items.Data[0]
		if item.Price != nil {
			st.PriceID = item.Price.ID
		}
		if item.CurrentPeriodEnd > 0 {
			end := time.Unix(item.CurrentPeriodEnd, 0).UTC()
			st.CurrentPeriodEnd = &end
		}
	}
	return st
}
