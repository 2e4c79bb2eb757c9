package usecase

import (
	"context"
	"errors"
	"time"

	"TickerWatch/internal/domain/models"
	drepo "TickerWatch/internal/domain/repository"
	"TickerWatch/pkg/logger"
)

// Delivery publishes alerts at most once. Rate limits block and retry
// without an attempt cap; any other failure drops the alert.
type Delivery struct {
	pub     drepo.Publisher
	sink    drepo.AlertSink
	metrics drepo.Metrics
	log     *logger.Logger
	backoff time.Duration
	sleep   Sleeper
}

func NewDelivery(pub drepo.Publisher, sink drepo.AlertSink, metrics drepo.Metrics, log *logger.Logger, backoff time.Duration, sleep Sleeper) *Delivery {
	if sleep == nil {
		sleep = SleepContext
	}
	if log == nil {
		log = logger.Nop()
	}
	return &Delivery{pub: pub, sink: sink, metrics: metrics, log: log, backoff: backoff, sleep: sleep}
}

// Deliver publishes a and records the outcome in the sink. The returned
// error is non-nil only when ctx ends while waiting out a rate limit.
func (d *Delivery) Deliver(ctx context.Context, a *models.Alert) (models.DeliveryStatus, error) {
	status := models.StatusDelivered
	for {
		err := d.pub.Publish(ctx, a.Ticker, a.Message)
		if err == nil {
			d.metrics.RecordPublish("delivered")
			d.log.Info("Tweet sent", logger.String("ticker", a.Ticker), logger.Strings("conditions", a.Conditions()))
			break
		}
		if errors.Is(err, drepo.ErrRateLimited) {
			d.metrics.RecordPublish("rate_limited")
			d.log.Warn("Rate limit reached, backing off",
				logger.String("ticker", a.Ticker),
				logger.Duration("backoff", d.backoff),
			)
			if serr := d.sleep(ctx, d.backoff); serr != nil {
				return models.StatusDropped, serr
			}
			continue
		}
		d.metrics.RecordPublish("failed")
		d.metrics.RecordError("publish")
		d.log.Error("Error sending tweet", logger.String("ticker", a.Ticker), logger.Error(err))
		status = models.StatusDropped
		break
	}

	if d.sink != nil {
		if err := d.sink.Record(ctx, models.NewAlertRecord(a, status)); err != nil {
			d.metrics.RecordError("sink")
			d.log.Warn("alert sink failed", logger.String("ticker", a.Ticker), logger.Error(err))
		}
	}
	return status, nil
}
