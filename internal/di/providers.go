package di

import (
	"context"
	"fmt"
	"time"

	"TickerWatch/internal/alert"
	"TickerWatch/internal/domain/repository"
	"TickerWatch/internal/handler/api"
	internalrepo "TickerWatch/internal/repository"
	icache "TickerWatch/internal/service/cache"
	"TickerWatch/internal/service/finnhub"
	"TickerWatch/internal/service/ratelimit"
	"TickerWatch/internal/service/twitter"
	"TickerWatch/internal/service/yahoo"
	"TickerWatch/internal/services/indicators"
	"TickerWatch/internal/usecase"
	pkgcache "TickerWatch/pkg/cache"
	pkgch "TickerWatch/pkg/clickhouse"
	"TickerWatch/pkg/config"
	xhttp "TickerWatch/pkg/http"
	pkgkafka "TickerWatch/pkg/kafka"
	applogger "TickerWatch/pkg/logger"
	"TickerWatch/pkg/metrics"
	"TickerWatch/pkg/server"
)

// ProvideLogger creates the application logger.
func ProvideLogger(cfg *config.Config) (*applogger.Logger, error) {
	l, err := applogger.New(&cfg.Log)
	if err != nil {
		return nil, fmt.Errorf("logger: %w", err)
	}
	return l, nil
}

// ProvideMetrics creates a Prometheus metrics recorder.
func ProvideMetrics() repository.Metrics {
	return metrics.New()
}

// ProvideKafkaProducer creates a Kafka producer when any component publishes
// to Kafka. It returns nil otherwise.
func ProvideKafkaProducer(cfg *config.Config) (*pkgkafka.Producer, error) {
	if cfg.Publisher.Type != "kafka" && !cfg.Kafka.PublishEvents && !cfg.LogShipping.Enabled {
		return nil, nil
	}
	producer, err := pkgkafka.NewProducer(
		pkgkafka.WithBrokers(cfg.Kafka.Brokers),
		pkgkafka.WithDelivery(cfg.Kafka.RequiredAcks, cfg.Kafka.Producer.MaxAttempts, cfg.Kafka.Compression),
		pkgkafka.WithBatching(cfg.Kafka.Producer.BatchSize, cfg.Kafka.Producer.BatchBytes, cfg.Kafka.Producer.Linger),
		pkgkafka.WithTimeouts(cfg.Kafka.Producer.WriteTimeout, cfg.Kafka.Producer.ReadTimeout),
	)
	if err != nil {
		return nil, fmt.Errorf("kafka producer: %w", err)
	}
	return producer, nil
}

// ProvideRedis connects to Redis when the cycle lease uses it. It returns nil otherwise.
func ProvideRedis(cfg *config.Config) (*pkgcache.RedisCache, error) {
	if !cfg.Lease.Enabled || cfg.Lease.Backend != "redis" {
		return nil, nil
	}
	rc, err := pkgcache.NewRedisCache(
		pkgcache.WithRedisAddr(cfg.Lease.Host, cfg.Lease.Port),
		pkgcache.WithRedisAuth(cfg.Lease.Password, cfg.Lease.DB),
		pkgcache.WithRedisPrefix("tickerwatch:lease"),
	)
	if err != nil {
		return nil, fmt.Errorf("redis: %w", err)
	}
	return rc, nil
}

// ProvideLease picks the cycle lease backend. Nil disables the lease.
func ProvideLease(cfg *config.Config, rc *pkgcache.RedisCache) repository.Lease {
	if !cfg.Lease.Enabled {
		return nil
	}
	if rc != nil {
		return rc
	}
	return pkgcache.NewMemoryCache()
}

// ProvideHistoryCache shares Redis with the lease when available and falls
// back to an in-process cache.
func ProvideHistoryCache(rc *pkgcache.RedisCache) icache.BytesCache {
	if rc != nil {
		return icache.NewRedisCache(rc.Client(), "tickerwatch:http:")
	}
	return icache.NewTTLCache()
}

// ProvideMarketData creates the configured price history provider.
func ProvideMarketData(cfg *config.Config, l *applogger.Logger) (repository.MarketData, error) {
	switch cfg.Data.Provider {
	case "finnhub":
		c := finnhub.New(finnhub.Config{
			APIKey:   cfg.Finnhub.APIKey,
			BaseURL:  cfg.Finnhub.BaseURL,
			Period:   cfg.Data.Period,
			Interval: cfg.Data.Interval,
			MaxRPS:   cfg.Finnhub.MaxRPS,
			Timeout:  cfg.Data.Timeout,
		}, ratelimit.New())
		if _, err := finnhub.Resolution(cfg.Data.Interval); err != nil {
			return nil, fmt.Errorf("finnhub: %w", err)
		}
		c.SetLogger(l)
		return c, nil
	default:
		c, err := yahoo.New(cfg.Data.Period, cfg.Data.Interval)
		if err != nil {
			return nil, fmt.Errorf("yahoo: %w", err)
		}
		c.SetLogger(l)
		return c, nil
	}
}

// ProvidePublisher creates the alert feed publisher.
func ProvidePublisher(cfg *config.Config, producer *pkgkafka.Producer, l *applogger.Logger) repository.Publisher {
	switch cfg.Publisher.Type {
	case "kafka":
		return internalrepo.NewKafkaPublisher(producer, cfg.Kafka.Topics.Messages)
	case "log":
		return internalrepo.NewLogPublisher(l)
	default:
		c := twitter.New(twitter.Config{
			APIKey:            cfg.Twitter.APIKey,
			APISecret:         cfg.Twitter.APISecret,
			AccessToken:       cfg.Twitter.AccessToken,
			AccessTokenSecret: cfg.Twitter.AccessTokenSecret,
			BaseURL:           cfg.Twitter.BaseURL,
			Timeout:           cfg.Twitter.Timeout,
		})
		c.SetLogger(l)
		return c
	}
}

// ProvideAlertArchive opens the archive backend and initializes its schema.
// It returns nil when archiving is off.
func ProvideAlertArchive(cfg *config.Config, l *applogger.Logger) (repository.AlertArchive, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	switch cfg.Archive.Type {
	case "clickhouse":
		client, err := pkgch.NewClient(
			pkgch.WithAddr(cfg.ClickHouse.Host, cfg.ClickHouse.Port, cfg.ClickHouse.UseHTTP),
			pkgch.WithAuth(cfg.ClickHouse.Database, cfg.ClickHouse.User, cfg.ClickHouse.Password),
			pkgch.WithAsyncInsert(cfg.ClickHouse.AsyncInsert, cfg.ClickHouse.WaitForAsync),
			pkgch.WithTimeouts(cfg.ClickHouse.DialTimeout, cfg.ClickHouse.ReadTimeout, cfg.ClickHouse.MaxExecutionTime),
		)
		if err != nil {
			return nil, fmt.Errorf("clickhouse client: %w", err)
		}
		arch := internalrepo.NewCHAlertArchive(client, cfg.ClickHouse.Database)
		arch.SetLogger(l)
		if err := arch.Init(ctx); err != nil {
			_ = arch.Close()
			return nil, fmt.Errorf("clickhouse schema: %w", err)
		}
		return arch, nil
	case "sqlite":
		arch, err := internalrepo.NewSQLiteAlertArchive(cfg.Archive.SQLitePath)
		if err != nil {
			return nil, err
		}
		arch.SetLogger(l)
		if err := arch.Init(ctx); err != nil {
			_ = arch.Close()
			return nil, fmt.Errorf("sqlite schema: %w", err)
		}
		return arch, nil
	default:
		return nil, nil
	}
}

// ProvideHub creates the websocket fan-out for live alerts.
func ProvideHub(l *applogger.Logger) *api.Hub {
	return api.NewHub(l)
}

// ProvideAlertSink fans delivery outcomes out to the archive, the Kafka
// events topic and live stream clients. When the archive ingests from Kafka
// it is fed by the consumer instead of directly.
func ProvideAlertSink(cfg *config.Config, archive repository.AlertArchive, producer *pkgkafka.Producer, hub *api.Hub) repository.AlertSink {
	var sinks internalrepo.MultiSink
	if archive != nil && !cfg.Archive.IngestFromKafka {
		sinks = append(sinks, archive)
	}
	if cfg.Kafka.PublishEvents && producer != nil {
		sinks = append(sinks, internalrepo.NewKafkaEventSink(producer, cfg.Kafka.Topics.Events))
	}
	if cfg.Server.Enabled {
		sinks = append(sinks, hub)
	}
	return sinks
}

// ProvideEngine creates the alert engine from the RSI thresholds.
func ProvideEngine(cfg *config.Config) (*alert.Engine, error) {
	th := alert.Thresholds{Oversold: cfg.RSI.Oversold, Overbought: cfg.RSI.Overbought}
	if err := th.Validate(); err != nil {
		return nil, err
	}
	return alert.NewEngine(th, alert.WithLocation(cfg.Location())), nil
}

// ProvideReader creates the indicator reader.
func ProvideReader(cfg *config.Config) *alert.Reader {
	return alert.NewReader(indicators.New(), alert.Lookback{
		RSIWindow:  cfg.RSI.Window,
		MACDFast:   cfg.MACD.Fast,
		MACDSlow:   cfg.MACD.Slow,
		MACDSignal: cfg.MACD.Signal,
	})
}

// ProvideWatchlist seeds the working set. Removing a ticker drops its engine state.
func ProvideWatchlist(cfg *config.Config, engine *alert.Engine) *usecase.Watchlist {
	return usecase.NewWatchlist(cfg.Monitor.Tickers, engine)
}

// ProvideDelivery creates the publish-with-backoff use case.
func ProvideDelivery(cfg *config.Config, pub repository.Publisher, sink repository.AlertSink, m repository.Metrics, l *applogger.Logger) *usecase.Delivery {
	return usecase.NewDelivery(pub, sink, m, l, cfg.Monitor.RateLimitBackoff, usecase.SleepContext)
}

// ProvideMonitor creates the monitoring loop.
func ProvideMonitor(
	cfg *config.Config,
	data repository.MarketData,
	reader *alert.Reader,
	engine *alert.Engine,
	watch *usecase.Watchlist,
	delivery *usecase.Delivery,
	lease repository.Lease,
	m repository.Metrics,
	l *applogger.Logger,
) *usecase.Monitor {
	return usecase.NewMonitor(usecase.MonitorConfig{
		BatchSize:     cfg.Monitor.BatchSize,
		CycleInterval: cfg.Monitor.CycleInterval,
		PublishDelay:  cfg.Monitor.PublishDelay,
		LeaseKey:      cfg.Lease.Key,
		LeaseHolder:   leaseHolder(cfg),
		LeaseTTL:      cfg.Lease.TTL,
	}, data, reader, engine, watch, delivery, lease, m, l, usecase.SleepContext)
}

func leaseHolder(cfg *config.Config) string {
	if cfg.Lease.Holder != "" {
		return cfg.Lease.Holder
	}
	return pkgcache.NewHolderID()
}

// ProvideAlertHistory creates the history query use case.
func ProvideAlertHistory(archive repository.AlertArchive) *usecase.AlertHistory {
	return usecase.NewAlertHistory(archive)
}

// ProvideHTTPServer builds the status API server. It returns nil when disabled.
func ProvideHTTPServer(
	cfg *config.Config,
	l *applogger.Logger,
	history *usecase.AlertHistory,
	watch *usecase.Watchlist,
	monitor *usecase.Monitor,
	hub *api.Hub,
	cache icache.BytesCache,
) *xhttp.Server {
	if !cfg.Server.Enabled {
		return nil
	}
	alerts := api.NewAlertsEchoHandler(l, history, watch, monitor)
	if cfg.Server.HistoryCacheTTL > 0 {
		alerts.SetCache(cache, cfg.Server.HistoryCacheTTL)
	}
	routes := api.Routes{alerts, api.NewStreamHandler(hub, l)}
	return xhttp.NewServer(routes,
		xhttp.WithHost(cfg.Server.Host),
		xhttp.WithPort(cfg.Server.Port),
		xhttp.WithCORS(cfg.Server.CORS),
		xhttp.WithSlowThreshold(cfg.Server.SlowThreshold),
		xhttp.WithTimeouts(cfg.Server.ReadTimeout, cfg.Server.WriteTimeout, cfg.Server.ShutdownTimeout),
		xhttp.WithLogger(l),
	)
}

// ProvideKafkaConsumer creates the archive ingest consumer. It returns nil
// unless the archive ingests from Kafka.
func ProvideKafkaConsumer(cfg *config.Config, l *applogger.Logger) (*pkgkafka.Consumer, error) {
	if !cfg.Archive.IngestFromKafka {
		return nil, nil
	}
	consumer, err := pkgkafka.NewConsumer(
		pkgkafka.WithConsumerBrokers(cfg.Kafka.Brokers),
		pkgkafka.WithConsumerGroupID(cfg.Kafka.Consumer.GroupID),
		pkgkafka.WithConsumerAutoOffsetReset(cfg.Kafka.Consumer.OffsetReset),
		pkgkafka.WithConsumerWorkers(cfg.Kafka.Consumer.Workers),
		pkgkafka.WithConsumerBufferSize(cfg.Kafka.Consumer.BufferSize),
		pkgkafka.WithConsumerRetry(cfg.Kafka.Consumer.RetryMax, cfg.Kafka.Consumer.BackoffMin, cfg.Kafka.Consumer.BackoffMax),
		pkgkafka.WithConsumerDLQ(cfg.Kafka.Consumer.DLQTopic),
		pkgkafka.WithConsumerFetch(cfg.Kafka.Consumer.MinBytes, cfg.Kafka.Consumer.MaxBytes),
	)
	if err != nil {
		return nil, fmt.Errorf("kafka consumer: %w", err)
	}
	consumer.SetLogger(l)
	consumer.WithConsumerHook(pkgkafka.NewHookChain(pkgkafka.TraceHook(), pkgkafka.LoggingHook(l)))
	return consumer, nil
}

// ProvideAlertEventHandler archives alert events read from Kafka. It returns
// nil unless the archive ingests from Kafka.
func ProvideAlertEventHandler(cfg *config.Config, archive repository.AlertArchive, m repository.Metrics) pkgkafka.MessageHandler {
	if !cfg.Archive.IngestFromKafka || archive == nil {
		return nil
	}
	return usecase.NewAlertEventHandler(cfg.Kafka.Topics.Events, archive, m)
}

// logShipper adapts the Kafka producer to the log collector.
type logShipper struct {
	producer *pkgkafka.Producer
}

func (s logShipper) PublishMessage(ctx context.Context, topic string, payload interface{}) error {
	return s.producer.Publish(ctx, topic, nil, payload)
}

// ProvideApp assembles the application and registers resource cleanup.
func ProvideApp(
	cfg *config.Config,
	l *applogger.Logger,
	monitor *usecase.Monitor,
	httpServer *xhttp.Server,
	consumer *pkgkafka.Consumer,
	kh pkgkafka.MessageHandler,
	producer *pkgkafka.Producer,
	pub repository.Publisher,
	archive repository.AlertArchive,
	rc *pkgcache.RedisCache,
	hub *api.Hub,
) *server.App {
	app := server.New(l, monitor, httpServer, consumer, kh)
	app.SetShutdownTimeout(cfg.Server.ShutdownTimeout)

	// closers run in reverse order: the producer outlives everything that writes to it
	if producer != nil {
		app.OnShutdown("kafka producer", producer.Close)
	}
	if rc != nil {
		app.OnShutdown("redis", rc.Close)
	}
	if archive != nil {
		app.OnShutdown("alert archive", archive.Close)
	}
	app.OnShutdown("publisher", pub.Close)
	app.OnShutdown("stream hub", func() error { hub.Close(); return nil })

	if cfg.LogShipping.Enabled && producer != nil {
		l.AddCollector(&applogger.CollectionConfig{
			TimeInterval:   cfg.LogShipping.Interval,
			CountThreshold: cfg.LogShipping.Threshold,
			Topic:          cfg.LogShipping.Topic,
			Publisher:      logShipper{producer: producer},
		})
		app.OnShutdown("log collector", func() error { l.RemoveCollector(); return nil })
	}
	return app
}
