package cache

// Package cache provides short-lived caching for submission guard claims
// and product lookups made while replaying past orders.

import (
	"context"
	"fmt"
	"time"
)

// Provider defines the interface for the cache backends.
type Provider interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key string, value string, ttl time.Duration) error
	// SetNX stores the value only when the key is absent, reporting whether
	// this caller claimed it. Guards built on it are claim-or-fail; there is
	// no window between reading and writing the key.
	SetNX(ctx context.Context, key string, value string, ttl time.Duration) (bool, error)
	Delete(ctx context.Context, key string) error
	Close() error
}

type Config struct {
	Provider              string
	RedisConnectionString string
}

func NewProvider(cfg Config) (Provider, error) {
	switch cfg.Provider {
	case "memory", "":
		return NewMemoryProvider()
	case "redis":
		return NewRedisProvider(cfg.RedisConnectionString)
	default:
		return nil, fmt.Errorf("unsupported cache provider: %s", cfg.Provider)
	}
}

// SubmissionKey guards against a duplicate order submission for a session.
func SubmissionKey(sessionID string) string {
	return fmt.Sprintf("submission:%s", sessionID)
}

// ProductKey caches a product lookup response briefly.
func ProductKey(productID int64) string {
	return fmt.Sprintf("product:%d", productID)
}
