package bootstrap

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stockwolf/billing-api/api/config"
	billingdb "github.com/stockwolf/billing-api/api/services/billing/db"
)

func TestNew_MemoryStore(t *testing.T) {
	cfg, err := config.LoadFrom(map[string]string{"STORE_DRIVER": "memory"})
	require.NoError(t, err)

	app, err := New(context.Background(), cfg)
	require.NoError(t, err)
	defer app.Close()

	_, ok := app.Store.(*billingdb.MemoryStore)
	assert.True(t, ok)
	assert.NotNil(t, app.Service)
	assert.NotNil(t, app.CheckoutLimiter)
	assert.NoError(t, app.Store.Ping(context.Background()))
}

func TestNew_PostgresWithoutURL(t *testing.T) {
	cfg, err := config.LoadFrom(map[string]string{})
	require.NoError(t, err)

	_, err = New(context.Background(), cfg)
	require.Error(t, err)
	assert.True(t, errors.Is(err, config.ErrMissing))
	assert.Equal(t, "ENV_MISSING: DATABASE_URL (or SUPABASE_DB_URL)", err.Error())
}

func TestClose_JoinsErrors(t *testing.T) {
	calls := 0
	app := &App{closers: []func() error{
		func() error { calls++; return errors.New("first") },
		func() error { calls++; return nil },
	}}
	err := app.Close()
	require.Error(t, err)
	assert.Equal(t, 2, calls)
	assert.NoError(t, app.Close())
}
