package logger

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"
)

func TestNewRejectsBadLevel(t *testing.T) {
	if _, err := New(&Config{Level: "loud", Output: "stdout"}); err == nil {
		t.Fatalf("expected invalid level error")
	}
}

type chanPublisher struct {
	topics chan string
}

func (p *chanPublisher) PublishMessage(_ context.Context, topic string, _ interface{}) error {
	p.topics <- topic
	return nil
}

func TestCollectorFlushesOnThreshold(t *testing.T) {
	pub := &chanPublisher{topics: make(chan string, 1)}
	l := Nop()
	l.AddCollector(&CollectionConfig{
		TimeInterval:   time.Hour,
		CountThreshold: 2,
		Topic:          "tickerwatch.logs",
		Publisher:      pub,
	})
	defer l.RemoveCollector()

	l.Error("fetch failed", String("ticker", "AAPL"), Error(errors.New("boom")))
	l.Error("fetch failed", String("ticker", "MSFT"), Error(errors.New("boom")))

	select {
	case topic := <-pub.topics:
		if topic != "tickerwatch.logs" {
			t.Fatalf("unexpected topic %q", topic)
		}
	case <-time.After(2 * time.Second):
		t.Fatalf("collector did not flush")
	}
}

type batchPublisher struct {
	mu      sync.Mutex
	batches [][]AggregatedLogEntry
}

func (p *batchPublisher) PublishMessage(_ context.Context, _ string, payload interface{}) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.batches = append(p.batches, payload.([]AggregatedLogEntry))
	return nil
}

func TestCollectorDeduplicatesAndFlushesOnClose(t *testing.T) {
	pub := &batchPublisher{}
	c := NewLogCollector(&CollectionConfig{TimeInterval: time.Hour, CountThreshold: 10, Topic: "logs", Publisher: pub})
	tick := time.Date(2024, 10, 10, 14, 30, 0, 0, time.UTC)
	c.now = func() time.Time { tick = tick.Add(time.Second); return tick }
	for i := 0; i < 3; i++ {
		c.AddLog("error", "Error sending tweet", map[string]interface{}{"ticker": "AAPL"}, "delivery.go:1")
	}
	c.AddLog("error", "Error sending tweet", map[string]interface{}{"ticker": "MSFT"}, "delivery.go:1")
	c.Close()

	pub.mu.Lock()
	defer pub.mu.Unlock()
	if len(pub.batches) != 1 || len(pub.batches[0]) != 2 {
		t.Fatalf("expected one batch of two entries, got %+v", pub.batches)
	}
	if first := pub.batches[0][0]; first.Count != 3 || first.Fields["ticker"] != "AAPL" {
		t.Fatalf("unexpected first entry: %+v", first)
	}
}

func TestFieldMapAndCaller(t *testing.T) {
	m := fieldMap([]Field{String("ticker", "AAPL"), Error(errors.New("boom")), Error(nil), Duration("took", 1500*time.Millisecond)})
	if m["ticker"] != "AAPL" || m["took"] != 1500 {
		t.Fatalf("unexpected map %v", m)
	}
	if m["error"] != nil {
		t.Fatalf("later nil error should win, got %v", m["error"])
	}
	if got := callerOf(0); !strings.Contains(got, "logger_test.go:") {
		t.Fatalf("caller = %q", got)
	}
}
