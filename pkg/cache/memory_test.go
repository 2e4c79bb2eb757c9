package cache

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestMemoryLeaseRenewsForHolderOnly(t *testing.T) {
	now := time.Unix(0, 0)
	mc := NewMemoryCache()
	mc.now = func() time.Time { return now }
	ctx := context.Background()

	if ok, _ := mc.Acquire(ctx, "cycle", "a", time.Minute); !ok {
		t.Fatalf("first acquire should succeed")
	}
	if ok, _ := mc.Acquire(ctx, "cycle", "b", time.Minute); ok {
		t.Fatalf("other holder must not take a live lease")
	}

	now = now.Add(50 * time.Second)
	if ok, _ := mc.Acquire(ctx, "cycle", "a", time.Minute); !ok {
		t.Fatalf("holder should renew its own lease")
	}
	now = now.Add(50 * time.Second)
	if ok, _ := mc.Acquire(ctx, "cycle", "b", time.Minute); ok {
		t.Fatalf("renewal should have extended the lease past the first ttl")
	}

	now = now.Add(2 * time.Minute)
	if ok, _ := mc.Acquire(ctx, "cycle", "b", time.Minute); !ok {
		t.Fatalf("expired lease should pass to another holder")
	}
	if ok, _ := mc.Acquire(ctx, "cycle", "a", time.Minute); ok {
		t.Fatalf("former holder must not reclaim a lease it lost")
	}
}

func TestMemoryRelease(t *testing.T) {
	mc := NewMemoryCache()
	ctx := context.Background()
	if err := mc.Release(ctx, "cycle", "a"); !errors.Is(err, ErrNotHeld) {
		t.Fatalf("expected ErrNotHeld, got %v", err)
	}
	_, _ = mc.Acquire(ctx, "cycle", "a", time.Minute)
	if err := mc.Release(ctx, "cycle", "b"); !errors.Is(err, ErrNotHeld) {
		t.Fatalf("non-holder release should be ErrNotHeld, got %v", err)
	}
	if err := mc.Release(ctx, "cycle", "a"); err != nil {
		t.Fatalf("release: %v", err)
	}
	if ok, _ := mc.Acquire(ctx, "cycle", "b", time.Minute); !ok {
		t.Fatalf("lease should be free after release")
	}
}

func TestRedisKeyPrefixAndHolderID(t *testing.T) {
	c := newRedisCache(nil, "tickerwatch")
	if got := c.wrapKey("cycle"); got != "tickerwatch:cycle" {
		t.Fatalf("wrapKey = %q", got)
	}
	if a, b := NewHolderID(), NewHolderID(); a == b || a == "" {
		t.Fatalf("holder ids must be unique: %q %q", a, b)
	}
}

func TestRedisOptions(t *testing.T) {
	cfg := defaultRedisConfig()
	for _, opt := range []RedisOption{
		WithRedisAddr("", 6380),
		WithRedisAuth("pw", 2),
		WithRedisPrefix("tw:lease"),
	} {
		opt(cfg)
	}
	if cfg.Addr != "localhost:6379" {
		t.Fatalf("empty host should keep default addr, got %q", cfg.Addr)
	}
	WithRedisAddr("::1", 6380)(cfg)
	if cfg.Addr != "[::1]:6380" || cfg.Password != "pw" || cfg.DB != 2 || cfg.Prefix != "tw:lease" {
		t.Fatalf("unexpected config %+v", cfg)
	}
}
