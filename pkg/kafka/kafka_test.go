package kafka

import (
	"context"
	"errors"
	"strconv"
	"sync"
	"testing"
	"time"

	"github.com/segmentio/kafka-go"
)

func TestBackoffWithJitterBounds(t *testing.T) {
	min, max := 50*time.Millisecond, 400*time.Millisecond
	for attempt := 1; attempt <= 8; attempt++ {
		d := backoffWithJitter(min, max, attempt)
		if d <= 0 || d > max {
			t.Fatalf("attempt %d: backoff %v out of range", attempt, d)
		}
	}
}

func TestTraceHookExtractsHeader(t *testing.T) {
	km := kafka.Message{Headers: []kafka.Header{{Key: "trace_id", Value: []byte("AAPL-1")}}}
	ctx, _, _, err := TraceHook().BeforeHandle(context.Background(), "t", km, nil)
	if err != nil {
		t.Fatalf("before: %v", err)
	}
	if id, _ := ctx.Value(CtxTraceID).(string); id != "AAPL-1" {
		t.Fatalf("trace id = %q", id)
	}
	if _, ok := ctx.Value(CtxStartTime).(time.Time); !ok {
		t.Fatalf("start time missing")
	}
}

func TestHookChainStopsOnBeforeError(t *testing.T) {
	var errs int
	failing := HookFuncs{
		Before: func(ctx context.Context, _ string, km kafka.Message, d []byte) (context.Context, kafka.Message, []byte, error) {
			return ctx, km, d, &HookError{Code: "ERR_VALIDATION", Err: errors.New("bad payload")}
		},
		Err: func(context.Context, string, kafka.Message, []byte, error) { errs++ },
	}
	panicky := HookFuncs{
		Err: func(context.Context, string, kafka.Message, []byte, error) { panic("boom") },
	}
	_, _, _, err := NewHookChain(failing, panicky, nil).BeforeHandle(context.Background(), "t", kafka.Message{}, nil)
	var he *HookError
	if !errors.As(err, &he) || he.Code != "ERR_VALIDATION" {
		t.Fatalf("expected hook error, got %v", err)
	}
	if errs != 1 {
		t.Fatalf("OnError calls = %d", errs)
	}
}

func TestNewProducerRequiresBrokers(t *testing.T) {
	if _, err := NewProducer(); err == nil {
		t.Fatalf("expected error without brokers")
	}
}

func TestConsumerStartNeedsHandlerAndStopIsIdempotent(t *testing.T) {
	c, err := NewConsumer(WithConsumerBrokers([]string{"localhost:9092"}))
	if err != nil {
		t.Fatalf("new consumer: %v", err)
	}
	if err := c.Start(); err == nil {
		t.Fatalf("expected error without handlers")
	}
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	if err := c.Stop(ctx); err != nil {
		t.Fatalf("stop: %v", err)
	}
	if err := c.Stop(ctx); err != nil {
		t.Fatalf("second stop: %v", err)
	}
}

func TestWorkerForIsStablePerPartition(t *testing.T) {
	used := map[int]bool{}
	for p := 0; p < 16; p++ {
		w := workerFor("ticker-events", p, 4)
		if w < 0 || w >= 4 {
			t.Fatalf("partition %d: worker %d out of range", p, w)
		}
		if workerFor("ticker-events", p, 4) != w {
			t.Fatalf("partition %d moved between workers", p)
		}
		used[w] = true
	}
	if len(used) < 2 {
		t.Fatalf("partitions not spread: %v", used)
	}
	if workerFor("ticker-events", 7, 1) != 0 || workerFor("ticker-events", 7, 0) != 0 {
		t.Fatalf("single worker must take every partition")
	}
}

type orderedHandler struct {
	mu   sync.Mutex
	seen []int64
}

func (h *orderedHandler) Topic() string { return "ticker-events" }

func (h *orderedHandler) Handle(_ context.Context, data []byte) error {
	off, _ := strconv.ParseInt(string(data), 10, 64)
	// later offsets finish faster, so any parallelism would reorder them
	time.Sleep(time.Duration(50-off) * 20 * time.Microsecond)
	h.mu.Lock()
	h.seen = append(h.seen, off)
	h.mu.Unlock()
	return nil
}

func TestWorkersHandlePartitionInFetchOrder(t *testing.T) {
	c, err := NewConsumer(WithConsumerBrokers([]string{"localhost:9092"}), WithConsumerWorkers(4), WithConsumerBufferSize(64))
	if err != nil {
		t.Fatalf("new consumer: %v", err)
	}
	h := &orderedHandler{}
	c.RegisterHandler(h)
	for _, q := range c.queues {
		c.workWg.Add(1)
		go c.messageWorker(q)
	}

	q := c.queues[workerFor(h.Topic(), 3, len(c.queues))]
	for off := int64(0); off < 50; off++ {
		q <- &message{
			topic: h.Topic(),
			data:  []byte(strconv.FormatInt(off, 10)),
			km:    kafka.Message{Topic: h.Topic(), Partition: 3, Offset: off},
		}
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := c.Stop(ctx); err != nil {
		t.Fatalf("stop: %v", err)
	}

	if len(h.seen) != 50 {
		t.Fatalf("handled %d messages, want 50", len(h.seen))
	}
	for i, off := range h.seen {
		if off != int64(i) {
			t.Fatalf("position %d handled offset %d", i, off)
		}
	}
}

func TestStartOffset(t *testing.T) {
	if startOffset("latest") != kafka.LastOffset || startOffset("earliest") != kafka.FirstOffset || startOffset("") != kafka.FirstOffset {
		t.Fatalf("unexpected start offsets")
	}
}

func TestProducerEncodeBatch(t *testing.T) {
	p, err := NewProducer(WithBrokers([]string{"localhost:9092"}))
	if err != nil {
		t.Fatalf("new producer: %v", err)
	}
	defer p.Close()

	msgs, size, err := p.encode("alerts", []Message{
		{Key: []byte("AAPL"), Value: "raw", Headers: map[string]string{"kind": "text"}},
		{Value: map[string]int{"rsi": 28}},
	})
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	if len(msgs) != 2 || msgs[0].Topic != "alerts" || string(msgs[0].Value) != "raw" {
		t.Fatalf("unexpected first message %+v", msgs)
	}
	if len(msgs[0].Headers) != 1 || msgs[0].Headers[0].Key != "kind" {
		t.Fatalf("headers not copied: %+v", msgs[0].Headers)
	}
	if string(msgs[1].Value) != `{"rsi":28}` {
		t.Fatalf("json value: %s", msgs[1].Value)
	}
	if size != int64(len("raw")+len(`{"rsi":28}`)) {
		t.Fatalf("size = %d", size)
	}

	if _, _, err := p.encode("alerts", []Message{{Value: make(chan int)}}); err == nil {
		t.Fatalf("expected marshal error")
	}
}

func TestCompressionCodec(t *testing.T) {
	if compressionCodec("none") != 0 {
		t.Fatalf("none should disable compression")
	}
	if compressionCodec("bogus") != kafka.Gzip || compressionCodec("zstd") != kafka.Zstd {
		t.Fatalf("codec mapping")
	}
}

func TestProducerOptionsKeepDefaults(t *testing.T) {
	cfg := &ProducerConfig{MaxAttempts: 3, Compression: "gzip", BatchSize: 100, BatchTimeout: time.Second}
	for _, opt := range []ProducerOption{
		WithDelivery(1, 0, ""),
		WithBatching(10, 0, 0),
		WithTimeouts(0, 2*time.Second),
	} {
		opt(cfg)
	}
	if cfg.RequiredAcks != 1 || cfg.MaxAttempts != 3 || cfg.Compression != "gzip" {
		t.Fatalf("delivery: %+v", cfg)
	}
	if cfg.BatchSize != 10 || cfg.BatchTimeout != time.Second || cfg.ReadTimeout != 2*time.Second {
		t.Fatalf("batching/timeouts: %+v", cfg)
	}
}
