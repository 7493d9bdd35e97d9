// Package email sends transactional mail to shoppers.
package email

import (
	"context"
	"fmt"
)

type Provider interface {
	SendEmail(ctx context.Context, email *Email) error
	ValidateAPIKey(ctx context.Context) error
}

type Email struct {
	To      string
	Subject string
	Text    string
	HTML    string
}

type Config struct {
	APIKey string
	From   string
}

// NewProvider returns the configured mail provider, or nil when email is
// not configured. A nil provider disables confirmation mail without failing
// checkout.
func NewProvider(config Config) (Provider, error) {
	if config.APIKey == "" {
		return nil, nil
	}
	if config.From == "" {
		return nil, fmt.Errorf("email from address is required when an API key is set")
	}
	return NewResendProvider(config.APIKey, config.From), nil
}
