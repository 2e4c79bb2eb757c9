package repository

import (
	"context"

	domrepo "TickerWatch/internal/domain/repository"
	applogger "TickerWatch/pkg/logger"
)

// LogPublisher writes alerts to the application log instead of a feed.
type LogPublisher struct {
	l *applogger.Logger
}

var _ domrepo.Publisher = (*LogPublisher)(nil)

func NewLogPublisher(l *applogger.Logger) *LogPublisher {
	if l == nil {
		l = applogger.Nop()
	}
	return &LogPublisher{l: l}
}

func (p *LogPublisher) Publish(_ context.Context, ticker, text string) error {
	p.l.Info("alert", applogger.String("ticker", ticker), applogger.String("text", text))
	return nil
}

func (p *LogPublisher) Close() error { return nil }
