package cache

import (
	"context"
	"testing"
	"time"
)

func TestMemoryProvider_RoundTrip(t *testing.T) {
	t.Parallel()

	provider, err := NewMemoryProvider()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	ctx := context.Background()

	if err := provider.Set(ctx, "k", "v", time.Minute); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	value, err := provider.Get(ctx, "k")
	if err != nil || value != "v" {
		t.Errorf("expected v, got %q (%v)", value, err)
	}

	if err := provider.Delete(ctx, "k"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, err := provider.Get(ctx, "k"); err != ErrNotFound {
		t.Errorf("expected ErrNotFound after delete, got %v", err)
	}
}

func TestMemoryProvider_GetExpires(t *testing.T) {
	t.Parallel()

	provider, err := NewMemoryProvider()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	ctx := context.Background()

	if err := provider.Set(ctx, "k", "v", -time.Millisecond); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, err := provider.Get(ctx, "k"); err != ErrNotFound {
		t.Errorf("expired entry must read as missing, got %v", err)
	}
}

func TestMemoryProvider_SetNX(t *testing.T) {
	t.Parallel()

	provider, err := NewMemoryProvider()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	ctx := context.Background()

	claimed, err := provider.SetNX(ctx, "guard", "1", time.Minute)
	if err != nil || !claimed {
		t.Fatalf("first claim must win, got claimed=%v err=%v", claimed, err)
	}
	claimed, err = provider.SetNX(ctx, "guard", "2", time.Minute)
	if err != nil || claimed {
		t.Fatalf("second claim must lose, got claimed=%v err=%v", claimed, err)
	}
	// The losing claim must not overwrite the holder's value.
	if value, _ := provider.Get(ctx, "guard"); value != "1" {
		t.Errorf("expected holder's value, got %q", value)
	}

	if err := provider.Delete(ctx, "guard"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if claimed, _ := provider.SetNX(ctx, "guard", "3", time.Minute); !claimed {
		t.Error("a released guard must be claimable again")
	}
}

func TestMemoryProvider_SetNXReclaimsExpired(t *testing.T) {
	t.Parallel()

	provider, err := NewMemoryProvider()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	ctx := context.Background()

	if claimed, _ := provider.SetNX(ctx, "guard", "1", -time.Millisecond); !claimed {
		t.Fatal("first claim must win")
	}
	if claimed, _ := provider.SetNX(ctx, "guard", "2", time.Minute); !claimed {
		t.Error("an expired guard must be claimable")
	}
}
