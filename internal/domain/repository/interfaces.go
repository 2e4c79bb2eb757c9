package repository

import (
	"context"
	"time"

	"TickerWatch/internal/domain/models"
)

// MarketData fetches price history for a ticker using the configured period and interval.
type MarketData interface {
	Fetch(ctx context.Context, ticker string) (models.PriceSeries, error)
}

// Publisher delivers a finished alert message to the feed.
// A nil error is success, ErrRateLimited is transient, anything else is permanent.
type Publisher interface {
	Publish(ctx context.Context, ticker, text string) error
	Close() error
}

// AlertSink receives the outcome of every publish attempt.
type AlertSink interface {
	Record(ctx context.Context, rec models.AlertRecord) error
}

// HistoryFilter narrows archive queries.
type HistoryFilter struct {
	Ticker string
	From   time.Time
	To     time.Time
	Limit  int
}

// AlertArchive stores alert records and serves history queries.
type AlertArchive interface {
	AlertSink
	Init(ctx context.Context) error
	Query(ctx context.Context, f HistoryFilter) ([]models.AlertRecord, error)
	Health(ctx context.Context) error
	Close() error
}

// Lease is a leader lease shared by replicas. Acquire takes key when it is
// free and extends it when holder already owns it. The holder keeps the lease
// across cycles and releases it only on shutdown, so alert state lives on one
// replica at a time.
type Lease interface {
	Acquire(ctx context.Context, key, holder string, ttl time.Duration) (bool, error)
	Release(ctx context.Context, key, holder string) error
}

type Metrics interface {
	RecordCycle(seconds float64)
	RecordAlert(condition string)
	RecordSuppressed(condition string)
	RecordPublish(result string)
	RecordTickerRemoved(reason string)
	SetWatchlistSize(n int)
	RecordLastRSI(ticker string, rsi float64)
	RecordError(kind string)
	RecordLatency(op string, seconds float64)
}
