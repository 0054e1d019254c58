package db

import (
	"context"
	"slices"
	"sort"
	"sync"
)

// MemoryStore is an in-process Store for local development and tests.
// It follows the same keying rules as PostgresStore.
type MemoryStore struct {
	mu            sync.Mutex
	nextID        int64
	clients       map[string]*Client       // by client_id
	subscriptions map[string]*Subscription // by stripe_subscription_id
}

// NewMemoryStore returns an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		clients:       make(map[string]*Client),
		subscriptions: make(map[string]*Subscription),
	}
}

// UpsertClientSubscription implements Store.
func (m *MemoryStore) UpsertClientSubscription(_ context.Context, c ClientUpsert, sub SubscriptionUpsert) (Client, Subscription, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	client, ok := m.clients[c.ClientID]
	if ok {
		client.ClientName = c.ClientName
		client.DigestEmails = c.DigestEmails
		client.UrgentEmails = c.UrgentEmails
		client.UpdatedAt = c.UpdatedAt
	} else {
		m.nextID++
		client = &Client{
			ID:           m.nextID,
			ClientID:     c.ClientID,
			ClientName:   c.ClientName,
			DigestEmails: c.DigestEmails,
			UrgentEmails: c.UrgentEmails,
			CreatedAt:    c.UpdatedAt,
			UpdatedAt:    c.UpdatedAt,
		}
		m.clients[c.ClientID] = client
	}

	s, ok := m.subscriptions[sub.StripeSubscriptionID]
	if ok {
		applyState(s, sub.State)
	} else {
		m.nextID++
		s = &Subscription{
			ID:                   m.nextID,
			ClientRef:            client.ID,
			StripeCustomerID:     sub.StripeCustomerID,
			StripeSubscriptionID: sub.StripeSubscriptionID,
			Plan:                 sub.Plan,
			CreatedAt:            sub.State.UpdatedAt,
		}
		applyState(s, sub.State)
		m.subscriptions[sub.StripeSubscriptionID] = s
	}
	return *client, *s, nil
}

// UpdateSubscriptionState implements Store.
func (m *MemoryStore) UpdateSubscriptionState(_ context.Context, stripeSubscriptionID string, st SubscriptionState) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	s, ok := m.subscriptions[stripeSubscriptionID]
	if !ok {
		return false, nil
	}
	applyState(s, st)
	return true, nil
}

func applyState(s *Subscription, st SubscriptionState) {
	s.Status = st.Status
	s.StripePriceID = st.PriceID
	s.CurrentPeriodEnd = nil
	if st.CurrentPeriodEnd != nil {
		t := *st.CurrentPeriodEnd
		s.CurrentPeriodEnd = &t
	}
	s.UpdatedAt = st.UpdatedAt
}

// GetClient implements Store.
func (m *MemoryStore) GetClient(_ context.Context, clientID string) (Client, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.clients[clientID]
	if !ok {
		return Client{}, ErrNotFound
	}
	return *c, nil
}

// GetSubscription implements Store.
func (m *MemoryStore) GetSubscription(_ context.Context, stripeSubscriptionID string) (Subscription, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.subscriptions[stripeSubscriptionID]
	if !ok {
		return Subscription{}, ErrNotFound
	}
	return *s, nil
}

// ListActiveClients implements Store.
func (m *MemoryStore) ListActiveClients(_ context.Context, statuses []string, limit int) ([]Client, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	active := make(map[int64]bool)
	for _, s := range m.subscriptions {
		if slices.Contains(statuses, s.Status) {
			active[s.ClientRef] = true
		}
	}
	var out []Client
	for _, c := range m.clients {
		if active[c.ID] {
			out = append(out, *c)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

// SetClientPreferences sets the ticker and timezone columns, which are
// maintained outside the billing flow.
func (m *MemoryStore) SetClientPreferences(clientID, universeTickers, secTickers, timezone string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.clients[clientID]
	if !ok {
		return ErrNotFound
	}
	c.UniverseTickers = universeTickers
	c.SECTickers = secTickers
	c.Timezone = timezone
	return nil
}

// Counts returns the number of client and subscription rows.
func (m *MemoryStore) Counts() (clients, subscriptions int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.clients), len(m.subscriptions)
}

// Ping implements Store.
func (m *MemoryStore) Ping(context.Context) error { return nil }
