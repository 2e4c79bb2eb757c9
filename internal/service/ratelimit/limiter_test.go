package ratelimit

import (
	"context"
	"testing"
	"time"
)

func TestAllowDrainsAndRefills(t *testing.T) {
	now := time.Unix(0, 0)
	l := New()
	l.now = func() time.Time { return now }

	if !l.Allow("finnhub", 2, 1) || !l.Allow("finnhub", 2, 1) {
		t.Fatalf("expected two tokens")
	}
	if l.Allow("finnhub", 2, 1) {
		t.Fatalf("bucket should be empty")
	}
	now = now.Add(time.Second)
	if !l.Allow("finnhub", 2, 1) {
		t.Fatalf("expected refill after 1s")
	}
	if !l.Allow("other", 1, 1) {
		t.Fatalf("keys must not share buckets")
	}
}

func TestWaitHonorsContext(t *testing.T) {
	l := New()
	if err := l.Wait(context.Background(), "k", 1, 0.001); err != nil {
		t.Fatalf("first token: %v", err)
	}
	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	if err := l.Wait(ctx, "k", 1, 0.001); err == nil {
		t.Fatalf("expected context error")
	}
}

func TestFractionalRateStillAdmits(t *testing.T) {
	now := time.Unix(0, 0)
	l := New()
	l.now = func() time.Time { return now }

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	if err := l.Wait(ctx, "finnhub", 0.5, 0.5); err != nil {
		t.Fatalf("first request at 0.5 rps must be admitted: %v", err)
	}
	if l.Allow("finnhub", 0.5, 0.5) {
		t.Fatalf("second request should wait for a refill")
	}
	now = now.Add(2 * time.Second)
	if !l.Allow("finnhub", 0.5, 0.5) {
		t.Fatalf("one token should refill after 2s at 0.5 rps")
	}
}
