package usecase

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"TickerWatch/internal/alert"
	drepo "TickerWatch/internal/domain/repository"
	domsvc "TickerWatch/internal/domain/service"
	"TickerWatch/pkg/logger"
)

// MonitorConfig holds the loop timings.
type MonitorConfig struct {
	BatchSize     int
	CycleInterval time.Duration
	PublishDelay  time.Duration
	LeaseKey      string
	LeaseHolder   string
	LeaseTTL      time.Duration
}

// errLeaseLost cancels a cycle whose lease could not be renewed.
var errLeaseLost = errors.New("cycle lease lost")

// MonitorStatus is a read-only view for the HTTP API.
type MonitorStatus struct {
	Running   bool      `json:"running"`
	Cycles    int       `json:"cycles"`
	LastCycle time.Time `json:"last_cycle"`
}

// Monitor runs watchlist cycles: fetch, compute, decide, deliver.
// It is the only owner of the alert engine state.
type Monitor struct {
	cfg      MonitorConfig
	data     drepo.MarketData
	reader   *alert.Reader
	engine   *alert.Engine
	watch    *Watchlist
	delivery *Delivery
	lease    drepo.Lease
	metrics  drepo.Metrics
	log      *logger.Logger
	sleep    Sleeper
	now      func() time.Time

	leader bool

	mu     sync.RWMutex
	status MonitorStatus
}

func NewMonitor(cfg MonitorConfig, data drepo.MarketData, reader *alert.Reader, engine *alert.Engine,
	watch *Watchlist, delivery *Delivery, lease drepo.Lease, metrics drepo.Metrics, log *logger.Logger, sleep Sleeper) *Monitor {
	if sleep == nil {
		sleep = SleepContext
	}
	if log == nil {
		log = logger.Nop()
	}
	return &Monitor{
		cfg:      cfg,
		data:     data,
		reader:   reader,
		engine:   engine,
		watch:    watch,
		delivery: delivery,
		lease:    lease,
		metrics:  metrics,
		log:      log,
		sleep:    sleep,
		now:      time.Now,
	}
}

// Status returns a snapshot of loop progress.
func (m *Monitor) Status() MonitorStatus {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.status
}

// Run executes cycles until the working set is empty (nil) or ctx ends.
func (m *Monitor) Run(ctx context.Context) error {
	m.setRunning(true)
	defer m.setRunning(false)
	defer m.releaseLease()

	m.log.Info("TickerWatch bot started",
		logger.Int("tickers", m.watch.Len()),
		logger.Int("batch_size", m.cfg.BatchSize),
		logger.Duration("cycle_interval", m.cfg.CycleInterval),
	)
	for {
		if m.watch.Len() == 0 {
			m.log.Info("No tickers left to monitor. Exiting bot.")
			return nil
		}
		if err := m.safeCycle(ctx); err != nil && ctx.Err() != nil {
			return ctx.Err()
		}
		if m.watch.Len() == 0 {
			continue
		}
		m.log.Info(fmt.Sprintf("Sleeping %ds before next check", int(m.cfg.CycleInterval.Seconds())))
		if err := m.sleep(ctx, m.cfg.CycleInterval); err != nil {
			return err
		}
	}
}

// safeCycle runs one cycle and turns a panic into a logged error so the
// loop keeps going.
func (m *Monitor) safeCycle(ctx context.Context) (err error) {
	defer func() {
		if r := recover(); r != nil {
			m.metrics.RecordError("cycle_panic")
			m.log.Error("Unexpected error in monitoring cycle", logger.Any("panic", r))
			err = fmt.Errorf("cycle panic: %v", r)
		}
	}()
	err = m.RunCycle(ctx)
	if err != nil && ctx.Err() == nil {
		m.metrics.RecordError("cycle")
		m.log.Error("Unexpected error in monitoring cycle", logger.Error(err))
	}
	return err
}

// RunCycle processes one snapshot of the working set. With a lease, only the
// holder runs cycles; other replicas skip until the lease expires.
func (m *Monitor) RunCycle(ctx context.Context) error {
	if m.lease != nil {
		leading, err := m.acquireLease(ctx)
		if err != nil {
			return err
		}
		if !leading {
			return nil
		}
		var stop func()
		ctx, stop = m.keepLease(ctx)
		defer stop()
	}
	err := m.runBatches(ctx)
	if errors.Is(context.Cause(ctx), errLeaseLost) {
		m.log.Warn("cycle lease lost mid-cycle, stopping", logger.String("key", m.cfg.LeaseKey))
		return nil
	}
	return err
}

// acquireLease takes or renews the lease. An error also drops leadership:
// while the store is unreachable another replica may have taken over.
func (m *Monitor) acquireLease(ctx context.Context) (bool, error) {
	ok, err := m.lease.Acquire(ctx, m.cfg.LeaseKey, m.cfg.LeaseHolder, m.cfg.LeaseTTL)
	if err != nil {
		m.leader = false
		return false, fmt.Errorf("acquire cycle lease: %w", err)
	}
	switch {
	case ok && !m.leader:
		m.log.Info("cycle lease acquired", logger.String("key", m.cfg.LeaseKey), logger.String("holder", m.cfg.LeaseHolder))
	case !ok && m.leader:
		m.log.Warn("cycle lease lost", logger.String("key", m.cfg.LeaseKey))
	case !ok:
		m.log.Info("cycle lease held elsewhere, skipping", logger.String("key", m.cfg.LeaseKey))
	}
	m.leader = ok
	return ok, nil
}

// keepLease renews the lease every third of its ttl while a cycle runs and
// cancels the returned context once renewal fails.
func (m *Monitor) keepLease(parent context.Context) (context.Context, func()) {
	every := m.cfg.LeaseTTL / 3
	if every <= 0 {
		return parent, func() {}
	}
	ctx, cancel := context.WithCancelCause(parent)
	done := make(chan struct{})
	go func() {
		defer close(done)
		tick := time.NewTicker(every)
		defer tick.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-tick.C:
				ok, err := m.lease.Acquire(ctx, m.cfg.LeaseKey, m.cfg.LeaseHolder, m.cfg.LeaseTTL)
				if ctx.Err() != nil {
					return
				}
				if err != nil || !ok {
					m.leader = false
					cancel(errLeaseLost)
					return
				}
			}
		}
	}()
	return ctx, func() {
		cancel(nil)
		<-done
	}
}

func (m *Monitor) releaseLease() {
	if m.lease == nil || !m.leader {
		return
	}
	m.leader = false
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := m.lease.Release(ctx, m.cfg.LeaseKey, m.cfg.LeaseHolder); err != nil {
		m.log.Warn("release cycle lease", logger.Error(err))
	}
}

func (m *Monitor) runBatches(ctx context.Context) error {
	start := m.now()
	batches := m.watch.Batches(m.cfg.BatchSize)
	for i, batch := range batches {
		m.log.Info("Processing batch",
			logger.Int("batch", i+1),
			logger.Int("of", len(batches)),
			logger.Strings("tickers", batch),
		)
		for _, ticker := range batch {
			if err := m.processTicker(ctx, ticker); err != nil {
				return err
			}
		}
	}

	m.metrics.RecordCycle(m.now().Sub(start).Seconds())
	m.metrics.SetWatchlistSize(m.watch.Len())
	m.mu.Lock()
	m.status.Cycles++
	m.status.LastCycle = m.now()
	m.mu.Unlock()
	return nil
}

func (m *Monitor) processTicker(ctx context.Context, ticker string) error {
	fetchStart := m.now()
	series, err := m.data.Fetch(ctx, ticker)
	m.metrics.RecordLatency("fetch", m.now().Sub(fetchStart).Seconds())
	if err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		reason := "fetch_error"
		if errors.Is(err, drepo.ErrNoData) {
			reason = "no_data"
		}
		if m.watch.Remove(ticker, reason) {
			m.metrics.RecordTickerRemoved(reason)
			m.log.Warn("Removed delisted/missing ticker",
				logger.String("ticker", ticker),
				logger.String("reason", reason),
				logger.Error(err),
			)
		}
		return nil
	}

	reading, err := m.reader.Read(series.Closes())
	if err != nil {
		if errors.Is(err, domsvc.ErrInsufficientData) {
			m.log.Debug("insufficient history, skipping",
				logger.String("ticker", ticker),
				logger.Int("bars", len(series.Bars)),
			)
			return nil
		}
		m.metrics.RecordError("indicators")
		m.log.Warn("indicator computation failed", logger.String("ticker", ticker), logger.Error(err))
		return nil
	}
	m.metrics.RecordLastRSI(ticker, reading.RSI)

	d := m.engine.Decide(ticker, reading)
	for _, c := range d.Suppressed {
		m.metrics.RecordSuppressed(c.String())
	}
	if d.Alert == nil {
		return nil
	}
	for _, s := range d.Alert.Signals {
		m.metrics.RecordAlert(s.Condition.String())
	}
	if _, err := m.delivery.Deliver(ctx, d.Alert); err != nil {
		return err
	}
	return m.sleep(ctx, m.cfg.PublishDelay)
}

func (m *Monitor) setRunning(v bool) {
	m.mu.Lock()
	m.status.Running = v
	m.mu.Unlock()
}
