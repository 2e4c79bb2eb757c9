package di

import (
	"testing"

	internalrepo "TickerWatch/internal/repository"
	pkgcache "TickerWatch/pkg/cache"
	"TickerWatch/pkg/config"
	applogger "TickerWatch/pkg/logger"
)

const base = `
publisher:
  type: log
monitor:
  tickers: [AAPL, MSFT]
`

func mustConfig(t *testing.T, doc string) *config.Config {
	t.Helper()
	cfg, err := config.Parse([]byte(doc))
	if err != nil {
		t.Fatalf("config: %v", err)
	}
	return cfg
}

func TestProvidersWithoutInfrastructure(t *testing.T) {
	cfg := mustConfig(t, base)

	producer, err := ProvideKafkaProducer(cfg)
	if err != nil || producer != nil {
		t.Fatalf("producer should be off: %v %v", producer, err)
	}
	rc, err := ProvideRedis(cfg)
	if err != nil || rc != nil {
		t.Fatalf("redis should be off: %v %v", rc, err)
	}
	if lease := ProvideLease(cfg, nil); lease != nil {
		t.Fatalf("lease should be off, got %T", lease)
	}
	archive, err := ProvideAlertArchive(cfg, applogger.Nop())
	if err != nil || archive != nil {
		t.Fatalf("archive should be off: %v %v", archive, err)
	}
	if _, ok := ProvidePublisher(cfg, nil, applogger.Nop()).(*internalrepo.LogPublisher); !ok {
		t.Fatalf("expected log publisher")
	}
	if h := ProvideAlertEventHandler(cfg, nil, nil); h != nil {
		t.Fatalf("event handler should be off")
	}
}

func TestProvideLeaseDefaultsToMemory(t *testing.T) {
	cfg := mustConfig(t, base+"lease:\n  enabled: true\n")
	if _, ok := ProvideLease(cfg, nil).(*pkgcache.MemoryCache); !ok {
		t.Fatalf("expected in-process lease")
	}
}

func TestProvideAlertSinkComposition(t *testing.T) {
	cfg := mustConfig(t, base+"server:\n  enabled: true\n")
	sink := ProvideAlertSink(cfg, nil, nil, ProvideHub(applogger.Nop()))
	ms, ok := sink.(internalrepo.MultiSink)
	if !ok || len(ms) != 1 {
		t.Fatalf("expected only the stream hub, got %#v", sink)
	}

	cfg = mustConfig(t, base+"server:\n  enabled: false\n")
	if ms := ProvideAlertSink(cfg, nil, nil, nil).(internalrepo.MultiSink); len(ms) != 0 {
		t.Fatalf("expected no sinks, got %d", len(ms))
	}
}

func TestProvideSQLiteArchive(t *testing.T) {
	cfg := mustConfig(t, base+"archive:\n  type: sqlite\n  sqlite_path: \":memory:\"\n")
	archive, err := ProvideAlertArchive(cfg, applogger.Nop())
	if err != nil {
		t.Fatalf("archive: %v", err)
	}
	defer archive.Close()
	if _, ok := archive.(*internalrepo.SQLiteAlertArchive); !ok {
		t.Fatalf("got %T", archive)
	}
}

func TestProvideEngineAndReader(t *testing.T) {
	cfg := mustConfig(t, base)
	engine, err := ProvideEngine(cfg)
	if err != nil {
		t.Fatalf("engine: %v", err)
	}
	watch := ProvideWatchlist(cfg, engine)
	if watch.Len() != 2 {
		t.Fatalf("watchlist len = %d", watch.Len())
	}
	if ProvideReader(cfg) == nil {
		t.Fatalf("reader is nil")
	}
}
