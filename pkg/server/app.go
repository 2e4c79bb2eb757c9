package server

import (
	"context"
	"errors"
	"time"

	xhttp "TickerWatch/pkg/http"
	pkgkafka "TickerWatch/pkg/kafka"
	applogger "TickerWatch/pkg/logger"
)

// Runner is the foreground job. Its return ends the application.
type Runner interface {
	Run(ctx context.Context) error
}

type closer struct {
	name string
	fn   func() error
}

// App encapsulates the entire application lifecycle.
type App struct {
	log             *applogger.Logger
	monitor         Runner
	httpServer      *xhttp.Server
	consumer        *pkgkafka.Consumer
	kh              pkgkafka.MessageHandler
	closers         []closer
	shutdownTimeout time.Duration
}

// New creates a new App. httpServer and consumer are optional.
func New(log *applogger.Logger, monitor Runner, httpServer *xhttp.Server, consumer *pkgkafka.Consumer, kh pkgkafka.MessageHandler) *App {
	if log == nil {
		log = applogger.Nop()
	}
	return &App{
		log:             log,
		monitor:         monitor,
		httpServer:      httpServer,
		consumer:        consumer,
		kh:              kh,
		shutdownTimeout: 10 * time.Second,
	}
}

// OnShutdown registers fn to run after the monitor and servers stop.
// Closers run in reverse registration order.
func (a *App) OnShutdown(name string, fn func() error) {
	if fn != nil {
		a.closers = append(a.closers, closer{name: name, fn: fn})
	}
}

// SetShutdownTimeout bounds how long stopping the servers may take.
func (a *App) SetShutdownTimeout(d time.Duration) {
	if d > 0 {
		a.shutdownTimeout = d
	}
}

// Run starts the optional servers, runs the monitor in the foreground and
// shuts everything down once it returns. A cancelled ctx is a normal exit.
func (a *App) Run(ctx context.Context) error {
	if a.consumer != nil && a.kh != nil {
		a.consumer.RegisterHandler(a.kh)
		if err := a.consumer.Start(); err != nil {
			a.log.Error("kafka consumer start error", applogger.Error(err))
			a.shutdown()
			return err
		}
		a.log.Info("kafka consumer started", applogger.String("topic", a.kh.Topic()))
	}

	if a.httpServer != nil {
		if err := a.httpServer.Start(); err != nil {
			a.log.Error("http server start error", applogger.Error(err))
			a.shutdown()
			return err
		}
	}

	err := a.monitor.Run(ctx)
	if errors.Is(err, context.Canceled) {
		a.log.Info("shutdown signal received")
		err = nil
	}
	a.shutdown()
	return err
}

// shutdown gracefully stops all services.
func (a *App) shutdown() {
	a.log.Info("shutting down...")

	ctx, cancel := context.WithTimeout(context.Background(), a.shutdownTimeout)
	defer cancel()

	if a.httpServer != nil {
		if err := a.httpServer.Stop(ctx); err != nil {
			a.log.Error("http shutdown error", applogger.Error(err))
		}
	}

	if a.consumer != nil {
		if err := a.consumer.Stop(ctx); err != nil {
			a.log.Warn("kafka consumer stop error", applogger.Error(err))
		}
	}

	for i := len(a.closers) - 1; i >= 0; i-- {
		c := a.closers[i]
		if err := c.fn(); err != nil {
			a.log.Warn("close error", applogger.String("resource", c.name), applogger.Error(err))
		}
	}

	a.log.Info("shutdown complete")
}
