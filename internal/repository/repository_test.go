package repository

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"
	"time"

	"TickerWatch/internal/domain/models"
	domrepo "TickerWatch/internal/domain/repository"
	pkgkafka "TickerWatch/pkg/kafka"
)

type fakeProducer struct {
	topic string
	msgs  []pkgkafka.Message
	err   error
}

func (f *fakeProducer) PublishBatch(_ context.Context, topic string, msgs []pkgkafka.Message) error {
	f.topic = topic
	f.msgs = append(f.msgs, msgs...)
	return f.err
}

func (f *fakeProducer) Close() error { return nil }

func record(ticker string, at time.Time) models.AlertRecord {
	return models.AlertRecord{
		Ticker:     ticker,
		Timestamp:  at,
		Conditions: []string{"rsi_oversold", "macd_bullish"},
		RSI:        25,
		Message:    "$" + ticker,
		Status:     models.StatusDelivered,
	}
}

func TestKafkaPublisher(t *testing.T) {
	fp := &fakeProducer{}
	p := NewKafkaPublisher(fp, "tickerwatch.messages")
	if err := p.Publish(context.Background(), "AAPL", "hello"); err != nil {
		t.Fatalf("publish: %v", err)
	}
	if fp.topic != "tickerwatch.messages" || len(fp.msgs) != 1 || string(fp.msgs[0].Key) != "AAPL" {
		t.Fatalf("unexpected write %+v", fp)
	}
	b, _ := json.Marshal(fp.msgs[0].Value)
	if !strings.Contains(string(b), `"text":"hello"`) {
		t.Fatalf("payload %s", b)
	}

	fp.err = errors.New("broker down")
	if err := p.Publish(context.Background(), "AAPL", "x"); !errors.Is(err, fp.err) {
		t.Fatalf("expected wrapped error, got %v", err)
	}
}

func TestKafkaEventSinkSetsTraceHeader(t *testing.T) {
	fp := &fakeProducer{}
	at := time.Unix(1728570600, 0)
	if err := NewKafkaEventSink(fp, "tickerwatch.alerts").Record(context.Background(), record("MSFT", at)); err != nil {
		t.Fatalf("record: %v", err)
	}
	if got := fp.msgs[0].Headers["trace_id"]; got != "MSFT-1728570600000000000" {
		t.Fatalf("trace id %q", got)
	}
}

type failingSink struct{ n int }

func (f *failingSink) Record(context.Context, models.AlertRecord) error {
	f.n++
	return errors.New("sink down")
}

type countingSink struct{ n int }

func (c *countingSink) Record(context.Context, models.AlertRecord) error { c.n++; return nil }

func TestMultiSinkContinuesPastFailure(t *testing.T) {
	bad, good := &failingSink{}, &countingSink{}
	err := MultiSink{bad, nil, good}.Record(context.Background(), record("AAPL", time.Now()))
	if err == nil {
		t.Fatalf("expected joined error")
	}
	if bad.n != 1 || good.n != 1 {
		t.Fatalf("sinks called bad=%d good=%d", bad.n, good.n)
	}
}

func TestHistoryQuery(t *testing.T) {
	from := time.Date(2024, 10, 1, 0, 0, 0, 0, time.UTC)
	q, args := historyQuery("alerts", domrepo.HistoryFilter{Ticker: "AAPL", From: from}, unixNanos)
	want := "SELECT ts, ticker, conditions, rsi, message, status FROM alerts WHERE ticker = ? AND ts >= ? ORDER BY ts DESC LIMIT ?"
	if q != want {
		t.Fatalf("query\n got %s\nwant %s", q, want)
	}
	if len(args) != 3 || args[1] != from.UnixNano() || args[2] != defaultHistoryLimit {
		t.Fatalf("args %v", args)
	}
}

func TestSQLiteArchiveRoundTrip(t *testing.T) {
	a, err := NewSQLiteAlertArchive(":memory:")
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer a.Close()
	ctx := context.Background()
	if err := a.Init(ctx); err != nil {
		t.Fatalf("init: %v", err)
	}

	base := time.Date(2024, 10, 10, 14, 0, 0, 0, time.UTC)
	for i, tk := range []string{"AAPL", "MSFT", "AAPL"} {
		if err := a.Record(ctx, record(tk, base.Add(time.Duration(i)*time.Hour))); err != nil {
			t.Fatalf("record: %v", err)
		}
	}

	got, err := a.Query(ctx, domrepo.HistoryFilter{Ticker: "AAPL", Limit: 10})
	if err != nil {
		t.Fatalf("query: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("expected 2 AAPL records, got %d", len(got))
	}
	if !got[0].Timestamp.After(got[1].Timestamp) {
		t.Fatalf("expected newest first: %v", got)
	}
	if len(got[0].Conditions) != 2 || got[0].Status != models.StatusDelivered {
		t.Fatalf("record fields lost: %+v", got[0])
	}

	got, err = a.Query(ctx, domrepo.HistoryFilter{From: base.Add(30 * time.Minute), Limit: 1})
	if err != nil {
		t.Fatalf("query: %v", err)
	}
	if len(got) != 1 || got[0].Ticker != "AAPL" {
		t.Fatalf("range+limit query: %+v", got)
	}
	if err := a.Health(ctx); err != nil {
		t.Fatalf("health: %v", err)
	}
}

func TestSQLiteArchiveOrdersWithinOneSecond(t *testing.T) {
	a, err := NewSQLiteAlertArchive(":memory:")
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer a.Close()
	ctx := context.Background()
	if err := a.Init(ctx); err != nil {
		t.Fatalf("init: %v", err)
	}

	whole := time.Date(2024, 10, 10, 14, 0, 0, 0, time.UTC)
	half := whole.Add(500 * time.Millisecond)
	for _, ts := range []time.Time{half, whole} {
		if err := a.Record(ctx, record("AAPL", ts)); err != nil {
			t.Fatalf("record: %v", err)
		}
	}

	got, err := a.Query(ctx, domrepo.HistoryFilter{Ticker: "AAPL", Limit: 10})
	if err != nil {
		t.Fatalf("query: %v", err)
	}
	if len(got) != 2 || !got[0].Timestamp.Equal(half) || !got[1].Timestamp.Equal(whole) {
		t.Fatalf("expected the .5s record first: %+v", got)
	}

	got, err = a.Query(ctx, domrepo.HistoryFilter{From: whole.Add(250 * time.Millisecond), Limit: 10})
	if err != nil {
		t.Fatalf("query: %v", err)
	}
	if len(got) != 1 || !got[0].Timestamp.Equal(half) {
		t.Fatalf("sub-second lower bound: %+v", got)
	}
}
