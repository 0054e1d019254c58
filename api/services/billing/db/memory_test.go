package db_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	billingdb "github.com/stockwolf/billing-api/api/services/billing/db"
)

func acmeUpsert(at time.Time, status string) (billingdb.ClientUpsert, billingdb.SubscriptionUpsert) {
	end := at.Add(30 * 24 * time.Hour)
	return billingdb.ClientUpsert{
			ClientID:     "acme",
			ClientName:   "Acme",
			DigestEmails: "a@acme.com",
			UrgentEmails: "a@acme.com",
			UpdatedAt:    at,
		}, billingdb.SubscriptionUpsert{
			StripeSubscriptionID: "sub_acme",
			StripeCustomerID:     "cus_acme",
			Plan:                 "stockwolf_monthly",
			State: billingdb.SubscriptionState{
				Status:           status,
				PriceID:          "price_monthly",
				CurrentPeriodEnd: &end,
				UpdatedAt:        at,
			},
		}
}

func TestMemoryStore_UpsertIsIdempotent(t *testing.T) {
	ctx := context.Background()
	st := billingdb.NewMemoryStore()
	t0 := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

	c, s := acmeUpsert(t0, "trialing")
	client1, sub1, err := st.UpsertClientSubscription(ctx, c, s)
	require.NoError(t, err)

	c.ClientName = "Acme Corp"
	c.DigestEmails = "ops@acme.com"
	s.State.Status = "active"
	s.StripeCustomerID = "cus_other"
	s.State.UpdatedAt = t0.Add(time.Hour)
	client2, sub2, err := st.UpsertClientSubscription(ctx, c, s)
	require.NoError(t, err)

	clients, subs := st.Counts()
	assert.Equal(t, 1, clients)
	assert.Equal(t, 1, subs)
	assert.Equal(t, client1.ID, client2.ID)
	assert.Equal(t, sub1.ID, sub2.ID)
	assert.Equal(t, "Acme Corp", client2.ClientName)
	assert.Equal(t, "ops@acme.com", client2.DigestEmails)
	assert.Equal(t, "active", sub2.Status)
	assert.Equal(t, "cus_acme", sub2.StripeCustomerID, "identity fields are not rewritten")
	assert.Equal(t, t0, sub2.CreatedAt)
	assert.Equal(t, client1.ID, sub2.ClientRef)
}

func TestMemoryStore_UpdateUnknownIsNoop(t *testing.T) {
	st := billingdb.NewMemoryStore()
	found, err := st.UpdateSubscriptionState(context.Background(), "sub_missing", billingdb.SubscriptionState{Status: "canceled"})
	require.NoError(t, err)
	assert.False(t, found)
	clients, subs := st.Counts()
	assert.Zero(t, clients)
	assert.Zero(t, subs)
}

func TestMemoryStore_UpdateKnownChangesOnlyState(t *testing.T) {
	ctx := context.Background()
	st := billingdb.NewMemoryStore()
	t0 := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	c, s := acmeUpsert(t0, "active")
	_, before, err := st.UpsertClientSubscription(ctx, c, s)
	require.NoError(t, err)

	found, err := st.UpdateSubscriptionState(ctx, "sub_acme", billingdb.SubscriptionState{
		Status:    "past_due",
		PriceID:   "price_yearly",
		UpdatedAt: t0.Add(time.Hour),
	})
	require.NoError(t, err)
	require.True(t, found)

	after, err := st.GetSubscription(ctx, "sub_acme")
	require.NoError(t, err)
	assert.Equal(t, "past_due", after.Status)
	assert.Equal(t, "price_yearly", after.StripePriceID)
	assert.Nil(t, after.CurrentPeriodEnd)
	assert.Equal(t, t0.Add(time.Hour), after.UpdatedAt)

	assert.Equal(t, before.ID, after.ID)
	assert.Equal(t, before.ClientRef, after.ClientRef)
	assert.Equal(t, before.StripeCustomerID, after.StripeCustomerID)
	assert.Equal(t, before.Plan, after.Plan)
	assert.Equal(t, before.CreatedAt, after.CreatedAt)
}

func TestMemoryStore_ListActiveClients(t *testing.T) {
	ctx := context.Background()
	st := billingdb.NewMemoryStore()
	now := time.Now().UTC()

	c, s := acmeUpsert(now, "trialing")
	_, _, err := st.UpsertClientSubscription(ctx, c, s)
	require.NoError(t, err)
	// A second live subscription for the same client must not duplicate it.
	s.StripeSubscriptionID = "sub_acme_2"
	s.State.Status = "active"
	_, _, err = st.UpsertClientSubscription(ctx, c, s)
	require.NoError(t, err)

	_, _, err = st.UpsertClientSubscription(ctx,
		billingdb.ClientUpsert{ClientID: "gone", ClientName: "Gone", UpdatedAt: now},
		billingdb.SubscriptionUpsert{StripeSubscriptionID: "sub_gone", State: billingdb.SubscriptionState{Status: "canceled", UpdatedAt: now}})
	require.NoError(t, err)

	out, err := st.ListActiveClients(ctx, billingdb.ActiveStatuses, billingdb.ActiveClientsLimit)
	require.NoError(t, err)
	require.Len(t, out, 1)
	assert.Equal(t, "acme", out[0].ClientID)

	out, err = st.ListActiveClients(ctx, []string{"canceled"}, 10)
	require.NoError(t, err)
	require.Len(t, out, 1)
	assert.Equal(t, "gone", out[0].ClientID)
}

func TestMemoryStore_NotFound(t *testing.T) {
	st := billingdb.NewMemoryStore()
	_, err := st.GetClient(context.Background(), "nobody")
	assert.ErrorIs(t, err, billingdb.ErrNotFound)
	_, err = st.GetSubscription(context.Background(), "sub_nobody")
	assert.ErrorIs(t, err, billingdb.ErrNotFound)
	assert.ErrorIs(t, st.SetClientPreferences("nobody", "", "", ""), billingdb.ErrNotFound)
}
