package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

// Config holds the application configuration.
// Billing settings are not required at load time; each route validates what
// it needs and reports a precise ENV_MISSING / ENV_INVALID code.
type Config struct {
	DatabaseURL   string        `env:"DATABASE_URL"`
	SupabaseDBURL string        `env:"SUPABASE_DB_URL"`
	StoreDriver   string        `env:"STORE_DRIVER" envDefault:"postgres"`
	RunMigrations bool          `env:"RUN_MIGRATIONS" envDefault:"true"`
	StoreTimeout  time.Duration `env:"STORE_TIMEOUT" envDefault:"10s"`

	StripeSecretKey     string        `env:"STRIPE_SECRET_KEY"`
	StripeWebhookSecret string        `env:"STRIPE_WEBHOOK_SECRET"`
	StripeTimeout       time.Duration `env:"STRIPE_TIMEOUT" envDefault:"10s"`
	PriceID             string        `env:"PRICE_STOCKWOLF"`
	PlanLabel           string        `env:"PLAN_LABEL" envDefault:"stockwolf_monthly"`

	// Base site URL candidates, in resolution order.
	SiteURL           string `env:"SITE_URL"`
	AppURL            string `env:"APP_URL"`
	FrontendURL       string `env:"FRONTEND_URL"`
	NextPublicSiteURL string `env:"NEXT_PUBLIC_SITE_URL"`
	PublicBaseURL     string `env:"PUBLIC_BASE_URL"`

	SharedSecret    string `env:"SHARED_SECRET"`
	N8NSharedSecret string `env:"N8N_SHARED_SECRET"`

	DefaultUniverseTickers string `env:"DEFAULT_UNIVERSE_TICKERS"`
	DefaultSECTickers      string `env:"DEFAULT_SEC_TICKERS"`
	DefaultTimezone        string `env:"DEFAULT_TIMEZONE" envDefault:"Europe/Paris"`

	CheckoutRateLimit float64  `env:"CHECKOUT_RATE_LIMIT" envDefault:"1"`
	CheckoutRateBurst int      `env:"CHECKOUT_RATE_BURST" envDefault:"5"`
	AllowedOrigins    []string `env:"ALLOWED_ORIGINS" envSeparator:","`

	MetricsUser string `env:"METRICS_USER"`
	MetricsPass string `env:"METRICS_PASS"`
	LogLevel    string `env:"LOG_LEVEL" envDefault:"info"`

	// Optional: base URL for running remote HTTP integration tests (e.g., https://api.example.com)
	IntegrationBaseURL string `env:"INTEGRATION_BASE_URL"`
	// Server ports
	HTTPPort string `env:"PORT" envDefault:"8080"`
	GRPCPort string `env:"GRPC_PORT" envDefault:"50051"`
}

// LoadConfig loads configuration from environment variables, after loading the
// nearest .env file found in the working directory or one of its parents.
func LoadConfig() (*Config, error) {
	currentDir, _ := os.Getwd()
	for currentDir != "/" && currentDir != "." {
		envPath := filepath.Join(currentDir, ".env")
		if _, err := os.Stat(envPath); err == nil {
			if err := godotenv.Load(envPath); err != nil {
				return nil, fmt.Errorf("failed to load .env file: %v", err)
			}
			break
		}
		currentDir = filepath.Dir(currentDir)
	}

	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("failed to parse environment: %w", err)
	}
	return cfg, nil
}

// LoadFrom parses configuration from an explicit variable map, ignoring the
// process environment.
func LoadFrom(vars map[string]string) (*Config, error) {
	cfg := &Config{}
	if err := env.ParseWithOptions(cfg, env.Options{Environment: vars}); err != nil {
		return nil, fmt.Errorf("failed to parse environment: %w", err)
	}
	return cfg, nil
}

// StoreURL returns the Postgres connection string.
func (c *Config) StoreURL() (string, error) {
	return Resolve("DATABASE_URL",
		Candidate{Key: "DATABASE_URL", Value: c.DatabaseURL},
		Candidate{Key: "SUPABASE_DB_URL", Value: c.SupabaseDBURL},
	)
}

// BaseURL resolves the public site URL used for checkout redirects.
func (c *Config) BaseURL() (string, error) {
	raw, err := Resolve("SITE_URL",
		Candidate{Key: "SITE_URL", Value: c.SiteURL},
		Candidate{Key: "APP_URL", Value: c.AppURL},
		Candidate{Key: "FRONTEND_URL", Value: c.FrontendURL},
		Candidate{Key: "NEXT_PUBLIC_SITE_URL", Value: c.NextPublicSiteURL},
		Candidate{Key: "PUBLIC_BASE_URL", Value: c.PublicBaseURL},
	)
	if err != nil {
		return "", err
	}
	return NormalizeBaseURL("SITE_URL", raw)
}

// AutomationSecret returns the secret shared with the automation workflow.
func (c *Config) AutomationSecret() (string, error) {
	return Resolve("SHARED_SECRET",
		Candidate{Key: "SHARED_SECRET", Value: c.SharedSecret},
		Candidate{Key: "N8N_SHARED_SECRET", Value: c.N8NSharedSecret},
	)
}

// StripeKey returns the Stripe secret key.
func (c *Config) StripeKey() (string, error) {
	return Require("STRIPE_SECRET_KEY", c.StripeSecretKey)
}

// WebhookSecret returns the Stripe webhook signing secret.
func (c *Config) WebhookSecret() (string, error) {
	return Require("STRIPE_WEBHOOK_SECRET", c.StripeWebhookSecret)
}

// Price returns the validated Stripe price id for the subscription plan.
func (c *Config) Price() (string, error) {
	id, err := Require("PRICE_STOCKWOLF", c.PriceID)
	if err != nil {
		return "", err
	}
	if !priceIDPattern.MatchString(id) {
		return "", &SettingError{
			Kind:    KindInvalid,
			Setting: "PRICE_STOCKWOLF",
			Detail:  "must be a Stripe price id (price_...). got=" + id,
		}
	}
	return id, nil
}

// Plan returns the plan label attached to checkout metadata.
func (c *Config) Plan() string {
	if p := strings.TrimSpace(c.PlanLabel); p != "" {
		return p
	}
	return DefaultPlanLabel
}

// UsesMemoryStore reports whether the in-process store was selected.
func (c *Config) UsesMemoryStore() bool {
	return strings.EqualFold(strings.TrimSpace(c.StoreDriver), StoreDriverMemory)
}
