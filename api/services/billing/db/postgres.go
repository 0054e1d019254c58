package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/lib/pq"
)

const uniqueViolation = pq.ErrorCode("23505")

const clientColumns = `id, client_id, client_name, digest_emails, urgent_emails, universe_tickers, sec_tickers, timezone, created_at, updated_at`

const subscriptionColumns = `id, client_id, stripe_customer_id, stripe_subscription_id, stripe_price_id, plan, status, current_period_end, created_at, updated_at`

// PostgresStore is the Store backed by the Supabase Postgres database.
type PostgresStore struct {
	db      *sql.DB
	timeout time.Duration
}

// NewPostgresStore wraps an open database handle. A zero timeout disables
// the per-call deadline.
func NewPostgresStore(db *sql.DB, timeout time.Duration) *PostgresStore {
	return &PostgresStore{db: db, timeout: timeout}
}

func (s *PostgresStore) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if s.timeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, s.timeout)
}

// UpsertClientSubscription runs update-then-insert for both rows in one
// transaction. Two first deliveries racing on the same keys make one insert
// fail with a unique violation; that transaction is retried once, and the
// retry takes the update path.
func (s *PostgresStore) UpsertClientSubscription(ctx context.Context, c ClientUpsert, sub SubscriptionUpsert) (Client, Subscription, error) {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	var (
		client       Client
		subscription Subscription
		err          error
	)
	for attempt := 0; attempt < 2; attempt++ {
		err = s.inTx(ctx, func(tx *sql.Tx) error {
			var txErr error
			if client, txErr = upsertClient(ctx, tx, c); txErr != nil {
				return fmt.Errorf("upsert client: %w", txErr)
			}
			if subscription, txErr = upsertSubscription(ctx, tx, client.ID, sub); txErr != nil {
				return fmt.Errorf("upsert subscription: %w", txErr)
			}
			return nil
		})
		if !isUniqueViolation(err) {
			break
		}
		slog.Warn("concurrent upsert detected, retrying", "client_id", c.ClientID, "stripe_subscription_id", sub.StripeSubscriptionID)
	}
	if err != nil {
		return Client{}, Subscription{}, err
	}
	return client, subscription, nil
}

func (s *PostgresStore) inTx(ctx context.Context, fn func(tx *sql.Tx) error) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	if err := fn(tx); err != nil {
		_ = tx.Rollback()
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}

func upsertClient(ctx context.Context, tx *sql.Tx, c ClientUpsert) (Client, error) {
	row := tx.QueryRowContext(ctx, `
		UPDATE clients
		SET client_name = $2, digest_emails = $3, urgent_emails = $4, updated_at = $5
		WHERE client_id = $1
		RETURNING `+clientColumns,
		c.ClientID, c.ClientName, c.DigestEmails, c.UrgentEmails, c.UpdatedAt)
	client, err := scanClient(row)
	if err == nil || !errors.Is(err, ErrNotFound) {
		return client, err
	}

	row = tx.QueryRowContext(ctx, `
		INSERT INTO clients (client_id, client_name, digest_emails, urgent_emails, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $5)
		RETURNING `+clientColumns,
		c.ClientID, c.ClientName, c.DigestEmails, c.UrgentEmails, c.UpdatedAt)
	return scanClient(row)
}

func upsertSubscription(ctx context.Context, tx *sql.Tx, clientRef int64, sub SubscriptionUpsert) (Subscription, error) {
	st := sub.State
	row := tx.QueryRowContext(ctx, `
		UPDATE subscriptions
		SET status = $2, stripe_price_id = $3, current_period_end = $4, updated_at = $5
		WHERE stripe_subscription_id = $1
		RETURNING `+subscriptionColumns,
		sub.StripeSubscriptionID, st.Status, st.PriceID, nullTime(st.CurrentPeriodEnd), st.UpdatedAt)
	subscription, err := scanSubscription(row)
	if err == nil || !errors.Is(err, ErrNotFound) {
		return subscription, err
	}

	row = tx.QueryRowContext(ctx, `
		INSERT INTO subscriptions (client_id, stripe_customer_id, stripe_subscription_id, stripe_price_id, plan, status, current_period_end, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $8)
		RETURNING `+subscriptionColumns,
		clientRef, sub.StripeCustomerID, sub.StripeSubscriptionID, st.PriceID, sub.Plan, st.Status, nullTime(st.CurrentPeriodEnd), st.UpdatedAt)
	return scanSubscription(row)
}

// UpdateSubscriptionState implements Store.
func (s *PostgresStore) UpdateSubscriptionState(ctx context.Context, stripeSubscriptionID string, st SubscriptionState) (bool, error) {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	res, err := s.db.ExecContext(ctx, `
		UPDATE subscriptions
		SET status = $2, stripe_price_id = $3, current_period_end = $4, updated_at = $5
		WHERE stripe_subscription_id = $1`,
		stripeSubscriptionID, st.Status, st.PriceID, nullTime(st.CurrentPeriodEnd), st.UpdatedAt)
	if err != nil {
		return false, fmt.Errorf("update subscription: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("update subscription rows affected: %w", err)
	}
	return n > 0, nil
}

// GetClient implements Store.
func (s *PostgresStore) GetClient(ctx context.Context, clientID string) (Client, error) {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()
	return scanClient(s.db.QueryRowContext(ctx, `SELECT `+clientColumns+` FROM clients WHERE client_id = $1`, clientID))
}

// GetSubscription implements Store.
func (s *PostgresStore) GetSubscription(ctx context.Context, stripeSubscriptionID string) (Subscription, error) {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()
	return scanSubscription(s.db.QueryRowContext(ctx,
		`SELECT `+subscriptionColumns+` FROM subscriptions WHERE stripe_subscription_id = $1`, stripeSubscriptionID))
}

// ListActiveClients implements Store.
func (s *PostgresStore) ListActiveClients(ctx context.Context, statuses []string, limit int) ([]Client, error) {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	rows, err := s.db.QueryContext(ctx, `
		SELECT DISTINCT c.id, c.client_id, c.client_name, c.digest_emails, c.urgent_emails,
			c.universe_tickers, c.sec_tickers, c.timezone, c.created_at, c.updated_at
		FROM clients c
		JOIN subscriptions s ON s.client_id = c.id
		WHERE s.status = ANY($1)
		ORDER BY c.id
		LIMIT $2`, pq.Array(statuses), limit)
	if err != nil {
		return nil, fmt.Errorf("list active clients: %w", err)
	}
	defer rows.Close()

	var out []Client
	for rows.Next() {
		c, err := scanClient(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list active clients: %w", err)
	}
	return out, nil
}

// Ping implements Store.
func (s *PostgresStore) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

type scanner interface {
	Scan(dest ...any) error
}

func scanClient(row scanner) (Client, error) {
	var c Client
	err := row.Scan(&c.ID, &c.ClientID, &c.ClientName, &c.DigestEmails, &c.UrgentEmails,
		&c.UniverseTickers, &c.SECTickers, &c.Timezone, &c.CreatedAt, &c.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return Client{}, ErrNotFound
	}
	if err != nil {
		return Client{}, fmt.Errorf("scan client: %w", err)
	}
	return c, nil
}

func scanSubscription(row scanner) (Subscription, error) {
	var (
		s         Subscription
		periodEnd sql.NullTime
	)
	err := row.Scan(&s.ID, &s.ClientRef, &s.StripeCustomerID, &s.StripeSubscriptionID, &s.StripePriceID,
		&s.Plan, &s.Status, &periodEnd, &s.CreatedAt, &s.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return Subscription{}, ErrNotFound
	}
	if err != nil {
		return Subscription{}, fmt.Errorf("scan subscription: %w", err)
	}
	if periodEnd.Valid {
		t := periodEnd.Time
		s.CurrentPeriodEnd = &t
	}
	return s, nil
}

func nullTime(t *time.Time) sql.NullTime {
	if t == nil {
		return sql.NullTime{}
	}
	return sql.NullTime{Time: *t, Valid: true}
}

func isUniqueViolation(err error) bool {
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && pqErr.Code == uniqueViolation
}
