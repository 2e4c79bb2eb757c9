package usecase

import (
	"context"
	"sync"
	"time"

	"TickerWatch/internal/alert"
	"TickerWatch/internal/domain/models"
	domsvc "TickerWatch/internal/domain/service"
	"TickerWatch/pkg/metrics"
)

// scriptedIndicators reads closes as [rsi, cross] where cross is
// 0 none, 1 bullish, 2 bearish. Fewer than two closes is short history.
type scriptedIndicators struct{}

func (scriptedIndicators) RSI(closes []float64, _ int) (float64, error) {
	if len(closes) < 2 {
		return 0, domsvc.ErrInsufficientData
	}
	return closes[0], nil
}

func (scriptedIndicators) MACD(closes []float64, _, _, _ int) ([]float64, []float64, error) {
	return []float64{closes[1]}, []float64{0}, nil
}

func (scriptedIndicators) DetectCross(macd, _ []float64) (models.Cross, error) {
	switch macd[0] {
	case 1:
		return models.CrossBullish, nil
	case 2:
		return models.CrossBearish, nil
	}
	return models.CrossNone, nil
}

type fetchResult struct {
	closes []float64
	err    error
	panic  bool
}

// scriptedMarket returns one scripted result per call per ticker; the last
// result repeats.
type scriptedMarket struct {
	mu     sync.Mutex
	script map[string][]fetchResult
	calls  map[string]int
}

func newScriptedMarket(script map[string][]fetchResult) *scriptedMarket {
	return &scriptedMarket{script: script, calls: map[string]int{}}
}

func (m *scriptedMarket) Fetch(_ context.Context, ticker string) (models.PriceSeries, error) {
	m.mu.Lock()
	i := m.calls[ticker]
	m.calls[ticker]++
	rs := m.script[ticker]
	m.mu.Unlock()
	if i >= len(rs) {
		i = len(rs) - 1
	}
	r := rs[i]
	if r.panic {
		panic("provider exploded")
	}
	if r.err != nil {
		return models.PriceSeries{}, r.err
	}
	ps := models.PriceSeries{Ticker: ticker}
	for _, c := range r.closes {
		ps.Bars = append(ps.Bars, models.Bar{Close: c})
	}
	return ps, nil
}

func ok(rsi, cross float64) fetchResult { return fetchResult{closes: []float64{rsi, cross}} }

type sent struct {
	ticker string
	text   string
}

type scriptedPublisher struct {
	errs     []error
	attempts int
	sent     []sent
}

func (p *scriptedPublisher) Publish(_ context.Context, ticker, text string) error {
	var err error
	if p.attempts < len(p.errs) {
		err = p.errs[p.attempts]
	}
	p.attempts++
	if err == nil {
		p.sent = append(p.sent, sent{ticker, text})
	}
	return err
}

func (p *scriptedPublisher) Close() error { return nil }

type recordingSink struct{ recs []models.AlertRecord }

func (s *recordingSink) Record(_ context.Context, r models.AlertRecord) error {
	s.recs = append(s.recs, r)
	return nil
}

type recordingSleeper struct {
	slept []time.Duration
	fail  func(n int) error
}

func (s *recordingSleeper) Sleep(ctx context.Context, d time.Duration) error {
	s.slept = append(s.slept, d)
	if s.fail != nil {
		return s.fail(len(s.slept))
	}
	return ctx.Err()
}

type forgetSpy struct {
	engine    *alert.Engine
	forgotten []string
}

func (f *forgetSpy) Forget(ticker string) {
	f.forgotten = append(f.forgotten, ticker)
	f.engine.Forget(ticker)
}

type harness struct {
	market  *scriptedMarket
	pub     *scriptedPublisher
	sink    *recordingSink
	sleeper *recordingSleeper
	watch   *Watchlist
	spy     *forgetSpy
	monitor *Monitor
}

var (
	testNow     = time.Date(2024, 10, 10, 14, 30, 0, 0, time.UTC)
	testConfig  = MonitorConfig{BatchSize: 50, CycleInterval: 300 * time.Second, PublishDelay: 5 * time.Second}
	testBackoff = 60 * time.Second
)

func newHarness(tickers []string, script map[string][]fetchResult, cfg MonitorConfig) *harness {
	h := &harness{
		market:  newScriptedMarket(script),
		pub:     &scriptedPublisher{},
		sink:    &recordingSink{},
		sleeper: &recordingSleeper{},
	}
	engine := alert.NewEngine(alert.DefaultThresholds(),
		alert.WithClock(func() time.Time { return testNow }),
		alert.WithLocation(time.UTC),
	)
	h.spy = &forgetSpy{engine: engine}
	h.watch = NewWatchlist(tickers, h.spy)
	delivery := NewDelivery(h.pub, h.sink, metrics.Nop{}, nil, testBackoff, h.sleeper.Sleep)
	reader := alert.NewReader(scriptedIndicators{}, alert.DefaultLookback())
	h.monitor = NewMonitor(cfg, h.market, reader, engine, h.watch, delivery, nil, metrics.Nop{}, nil, h.sleeper.Sleep)
	return h
}

func (h *harness) cycles(t interface{ Fatalf(string, ...any) }, n int) {
	for i := 0; i < n; i++ {
		if err := h.monitor.RunCycle(context.Background()); err != nil {
			t.Fatalf("cycle %d: %v", i+1, err)
		}
	}
}
