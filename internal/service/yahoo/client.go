package yahoo

import (
	"context"
	"fmt"
	"time"

	"TickerWatch/internal/domain/models"
	drepo "TickerWatch/internal/domain/repository"
	"TickerWatch/pkg/logger"
	"TickerWatch/pkg/util"

	finance "github.com/piquette/finance-go"
	"github.com/piquette/finance-go/chart"
	"github.com/piquette/finance-go/datetime"
)

// Client implements MarketData using Yahoo Finance chart data.
type Client struct {
	period   string
	interval datetime.Interval

	chart func(p *chart.Params) ([]*finance.ChartBar, error)
	now   func() time.Time
	log   *logger.Logger
}

// New creates a provider for the given lookback period and bar interval.
func New(period, interval string) (*Client, error) {
	if _, err := util.PeriodStart(period, time.Now()); err != nil {
		return nil, err
	}
	if _, err := util.IntervalDuration(interval); err != nil {
		return nil, err
	}
	return &Client{
		period:   period,
		interval: datetime.Interval(interval),
		chart:    getChart,
		now:      time.Now,
		log:      logger.Nop(),
	}, nil
}

var _ drepo.MarketData = (*Client)(nil)

// SetLogger injects a structured logger.
func (c *Client) SetLogger(l *logger.Logger) { c.log = l }

func getChart(p *chart.Params) ([]*finance.ChartBar, error) {
	iter := chart.Get(p)
	var bars []*finance.ChartBar
	for iter.Next() {
		bars = append(bars, iter.Bar())
	}
	if err := iter.Err(); err != nil {
		return nil, err
	}
	return bars, nil
}

// Fetch returns bars for ticker over the configured period.
func (c *Client) Fetch(ctx context.Context, ticker string) (models.PriceSeries, error) {
	end := c.now()
	start, err := util.PeriodStart(c.period, end)
	if err != nil {
		return models.PriceSeries{}, err
	}
	params := &chart.Params{
		Symbol:   ticker,
		Start:    datetime.New(&start),
		End:      datetime.New(&end),
		Interval: c.interval,
	}
	params.Context = &ctx

	raw, err := c.chart(params)
	if err != nil {
		return models.PriceSeries{}, fmt.Errorf("yahoo chart %s: %w", ticker, err)
	}

	bars := make([]models.Bar, 0, len(raw))
	for _, b := range raw {
		if bar, ok := convertBar(b); ok {
			bars = append(bars, bar)
		}
	}
	if len(bars) == 0 {
		return models.PriceSeries{}, drepo.ErrNoData
	}
	c.log.Debug("yahoo chart fetched", logger.String("ticker", ticker), logger.Int("bars", len(bars)))
	return models.PriceSeries{Ticker: ticker, Bars: bars}, nil
}

// convertBar drops bars without a close, which Yahoo emits for halted sessions.
func convertBar(b *finance.ChartBar) (models.Bar, bool) {
	if b == nil || b.Close.IsZero() {
		return models.Bar{}, false
	}
	closePx, _ := b.Close.Float64()
	open, _ := b.Open.Float64()
	high, _ := b.High.Float64()
	low, _ := b.Low.Float64()
	return models.Bar{
		Time:   time.Unix(int64(b.Timestamp), 0),
		Open:   open,
		High:   high,
		Low:    low,
		Close:  closePx,
		Volume: float64(b.Volume),
	}, true
}
