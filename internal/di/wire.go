//go:build wireinject
// +build wireinject

package di

import (
	"TickerWatch/pkg/config"
	"TickerWatch/pkg/server"

	"github.com/google/wire"
)

// InitializeApp wires up all dependencies and returns the application.
// Wire will generate the implementation of this function.
func InitializeApp(cfg *config.Config) (*server.App, error) {
	wire.Build(
		// Ambient
		ProvideLogger,
		ProvideMetrics,

		// Infrastructure clients
		ProvideKafkaProducer,
		ProvideRedis,
		ProvideKafkaConsumer,

		// Repositories and adapters
		ProvideMarketData,
		ProvidePublisher,
		ProvideAlertArchive,
		ProvideHub,
		ProvideAlertSink,
		ProvideLease,
		ProvideHistoryCache,

		// Alert core
		ProvideEngine,
		ProvideReader,
		ProvideWatchlist,

		// Use cases
		ProvideDelivery,
		ProvideMonitor,
		ProvideAlertHistory,
		ProvideAlertEventHandler,

		// Application server
		ProvideHTTPServer,
		ProvideApp,
	)
	return &server.App{}, nil
}
