package bootstrap

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/stockwolf/billing-api/api/config"
	"github.com/stockwolf/billing-api/api/database"
	"github.com/stockwolf/billing-api/api/middleware"
	billingapp "github.com/stockwolf/billing-api/api/services/billing/app"
	billingdb "github.com/stockwolf/billing-api/api/services/billing/db"
	gw "github.com/stockwolf/billing-api/api/services/billing/gateway"
	stripegw "github.com/stockwolf/billing-api/api/services/billing/gateway/stripe"
)

// App holds the wired dependencies shared by the HTTP and gRPC servers.
type App struct {
	Config          *config.Config
	Store           billingdb.Store
	Service         billingapp.Service
	CheckoutLimiter *middleware.IPRateLimiter

	closers []func() error
}

// New opens the store selected by cfg, runs migrations when enabled, and
// wires the billing service against the Stripe SDK gateway.
func New(ctx context.Context, cfg *config.Config) (*App, error) {
	var (
		store  billingdb.Store
		closer func() error
	)
	if cfg.UsesMemoryStore() {
		slog.Warn("using in-memory store; data is lost on restart")
		store = billingdb.NewMemoryStore()
	} else {
		dsn, err := cfg.StoreURL()
		if err != nil {
			return nil, err
		}
		db, err := database.Open(ctx, dsn)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize database: %w", err)
		}
		if cfg.RunMigrations {
			if err := database.Migrate(ctx, db); err != nil {
				_ = db.Close()
				return nil, fmt.Errorf("failed to migrate database: %w", err)
			}
		}
		store = billingdb.NewPostgresStore(db, cfg.StoreTimeout)
		closer = db.Close
	}

	app := NewWithDeps(cfg, stripegw.New(cfg.StripeSecretKey, cfg.StripeTimeout), store)
	if closer != nil {
		app.closers = append(app.closers, closer)
	}
	return app, nil
}

// NewWithDeps wires an App around an existing gateway and store.
func NewWithDeps(cfg *config.Config, g gw.StripeGateway, store billingdb.Store) *App {
	return &App{
		Config:          cfg,
		Store:           store,
		Service:         billingapp.NewService(cfg, g, store),
		CheckoutLimiter: middleware.NewIPRateLimiter(cfg.CheckoutRateLimit, cfg.CheckoutRateBurst),
	}
}

// Close releases the resources opened by New.
func (a *App) Close() error {
	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil {
			errs = append(errs, err)
		}
	}
	a.closers = nil
	return errors.Join(errs...)
}
