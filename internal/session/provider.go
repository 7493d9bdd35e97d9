package session

import (
	"context"
	"errors"
	"fmt"
)

// ErrSessionSuperseded means the session state changed between read and
// commit; the caller's result is stale and must be discarded.
var ErrSessionSuperseded = errors.New("session state was superseded")

type Config struct {
	Provider              string
	RedisConnectionString string
}

func NewStore(ctx context.Context, cfg Config) (Store, error) {
	switch cfg.Provider {
	case "", "memory":
		return NewMemoryStore(), nil
	case "redis":
		return NewRedisStore(ctx, cfg.RedisConnectionString)
	default:
		return nil, fmt.Errorf("unsupported session store provider: %s", cfg.Provider)
	}
}
