package app

import "errors"

// Typed errors for the billing app layer. These enable HTTP mapping without
// relying on SDK-specific error types at the transport layer. Configuration
// problems surface as *config.SettingError instead.
var (
	// ErrBadEvent indicates the incoming event payload is invalid or missing required fields.
	ErrBadEvent = errors.New("bad event")
	// ErrDatabase indicates a database-related failure.
	ErrDatabase = errors.New("database error")
	// ErrGateway indicates a failure from the Stripe gateway / API calls.
	ErrGateway = errors.New("gateway error")

	// ErrMissingFields indicates a checkout request without email, client_id or client_name.
	ErrMissingFields = errors.New("missing_fields")
	// ErrMissingSignature indicates a webhook delivery without a Stripe-Signature header.
	ErrMissingSignature = errors.New("missing_signature")
	// ErrBadSignature indicates a webhook payload that failed signature verification.
	ErrBadSignature = errors.New("webhook_error")
	// ErrUnauthorized indicates a wrong or absent automation shared secret.
	ErrUnauthorized = errors.New("unauthorized")
)
