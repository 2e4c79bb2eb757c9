package cache

import (
	"testing"
	"time"
)

func TestTTLCacheExpires(t *testing.T) {
	now := time.Date(2024, 10, 10, 14, 30, 0, 0, time.UTC)
	c := NewTTLCache()
	c.now = func() time.Time { return now }

	if err := c.SetBytes("k", []byte("v"), 15*time.Second); err != nil {
		t.Fatalf("set: %v", err)
	}
	if b, ok, _ := c.GetBytes("k"); !ok || string(b) != "v" {
		t.Fatalf("expected hit, got %q %v", b, ok)
	}
	now = now.Add(16 * time.Second)
	if _, ok, _ := c.GetBytes("k"); ok {
		t.Fatalf("expected expiry")
	}
	if c.Len() != 0 {
		t.Fatalf("expired entry not evicted")
	}
}

func TestTTLCacheZeroTTLNeverExpires(t *testing.T) {
	now := time.Now()
	c := NewTTLCache()
	c.now = func() time.Time { return now }
	_ = c.SetBytes("k", []byte("v"), 0)
	now = now.Add(24 * time.Hour)
	if _, ok, _ := c.GetBytes("k"); !ok {
		t.Fatalf("zero ttl entry expired")
	}
}
