package finnhub

import (
	"context"
	"fmt"
	"math"
	"strconv"
	"time"

	"TickerWatch/internal/domain/models"
	drepo "TickerWatch/internal/domain/repository"
	"TickerWatch/internal/service/ratelimit"
	xhttp "TickerWatch/pkg/http"
	"TickerWatch/pkg/logger"
	"TickerWatch/pkg/util"
)

// Client implements MarketData backed by the Finnhub candle endpoint.
type Client struct {
	apiKey   string
	baseURL  string
	period   string
	interval string
	maxRPS   float64

	http    *xhttp.Client
	limiter *ratelimit.Limiter
	now     func() time.Time
	log     *logger.Logger
}

// Config carries the provider settings.
type Config struct {
	APIKey   string
	BaseURL  string
	Period   string
	Interval string
	MaxRPS   float64
	Timeout  time.Duration
}

// New creates a new Finnhub market data provider.
func New(cfg Config, limiter *ratelimit.Limiter) *Client {
	if limiter == nil {
		limiter = ratelimit.New()
	}
	if cfg.MaxRPS <= 0 {
		cfg.MaxRPS = 1
	}
	return &Client{
		apiKey:   cfg.APIKey,
		baseURL:  cfg.BaseURL,
		period:   cfg.Period,
		interval: cfg.Interval,
		maxRPS:   cfg.MaxRPS,
		http:     xhttp.NewClient(xhttp.WithTimeout(cfg.Timeout)),
		limiter:  limiter,
		now:      time.Now,
		log:      logger.Nop(),
	}
}

// SetLogger injects a structured logger.
func (c *Client) SetLogger(l *logger.Logger) { c.log = l }

var _ drepo.MarketData = (*Client)(nil)

var resolutions = map[string]string{
	"1m":  "1",
	"5m":  "5",
	"15m": "15",
	"30m": "30",
	"60m": "60",
	"1h":  "60",
	"1d":  "D",
	"1wk": "W",
	"1mo": "M",
}

// Resolution maps a candle interval name to a Finnhub resolution.
func Resolution(interval string) (string, error) {
	r, ok := resolutions[interval]
	if !ok {
		return "", fmt.Errorf("finnhub: unsupported interval %q", interval)
	}
	return r, nil
}

type candleResponse struct {
	C []float64 `json:"c"`
	H []float64 `json:"h"`
	L []float64 `json:"l"`
	O []float64 `json:"o"`
	V []float64 `json:"v"`
	T []int64   `json:"t"`
	S string    `json:"s"`
}

// Fetch returns candles for ticker over the configured period.
func (c *Client) Fetch(ctx context.Context, ticker string) (models.PriceSeries, error) {
	res, err := Resolution(c.interval)
	if err != nil {
		return models.PriceSeries{}, err
	}
	to := c.now()
	from, err := util.PeriodStart(c.period, to)
	if err != nil {
		return models.PriceSeries{}, err
	}
	if err := c.limiter.Wait(ctx, "finnhub", math.Max(1, c.maxRPS), c.maxRPS); err != nil {
		return models.PriceSeries{}, err
	}

	var out candleResponse
	err = c.http.SendAndParse(ctx, &xhttp.RequestOptions{
		Method: xhttp.MethodGet,
		URL:    c.baseURL + "/stock/candle",
		QueryParams: map[string][]string{
			"symbol":     {ticker},
			"resolution": {res},
			"from":       {strconv.FormatInt(from.Unix(), 10)},
			"to":         {strconv.FormatInt(to.Unix(), 10)},
			"token":      {c.apiKey},
		},
	}, &out)
	if err != nil {
		return models.PriceSeries{}, fmt.Errorf("finnhub candles %s: %w", ticker, err)
	}
	if out.S == "no_data" || len(out.C) == 0 {
		return models.PriceSeries{}, drepo.ErrNoData
	}
	if out.S != "ok" {
		return models.PriceSeries{}, fmt.Errorf("finnhub candles %s: status %q", ticker, out.S)
	}
	if len(out.T) != len(out.C) {
		return models.PriceSeries{}, fmt.Errorf("finnhub candles %s: ragged response", ticker)
	}

	bars := make([]models.Bar, len(out.C))
	for i := range out.C {
		bars[i] = models.Bar{Time: time.Unix(out.T[i], 0), Close: out.C[i]}
		if i < len(out.O) {
			bars[i].Open = out.O[i]
		}
		if i < len(out.H) {
			bars[i].High = out.H[i]
		}
		if i < len(out.L) {
			bars[i].Low = out.L[i]
		}
		if i < len(out.V) {
			bars[i].Volume = out.V[i]
		}
	}
	c.log.Debug("finnhub candles fetched", logger.String("ticker", ticker), logger.Int("bars", len(bars)))
	return models.PriceSeries{Ticker: ticker, Bars: bars}, nil
}
