package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Recorder implements domain.repository.Metrics using Prometheus.
type Recorder struct {
	cycleDuration  prometheus.Histogram
	alerts         *prometheus.CounterVec
	suppressed     *prometheus.CounterVec
	publishes      *prometheus.CounterVec
	tickersRemoved *prometheus.CounterVec
	watchlistSize  prometheus.Gauge
	lastRSI        *prometheus.GaugeVec
	errorsTotal    *prometheus.CounterVec
	latency        *prometheus.HistogramVec
}

// New creates a recorder registered with the default registry.
func New() *Recorder {
	return NewWithRegisterer(prometheus.DefaultRegisterer)
}

// NewWithRegisterer creates a recorder bound to reg. Tests pass a fresh
// prometheus.NewRegistry() so repeated construction does not panic.
func NewWithRegisterer(reg prometheus.Registerer) *Recorder {
	f := promauto.With(reg)
	return &Recorder{
		cycleDuration: f.NewHistogram(prometheus.HistogramOpts{
			Name:    "tickerwatch_cycle_duration_seconds",
			Help:    "Duration of a full watchlist cycle",
			Buckets: []float64{1, 5, 15, 30, 60, 120, 300, 600},
		}),
		alerts: f.NewCounterVec(prometheus.CounterOpts{
			Name: "tickerwatch_alerts_total",
			Help: "Signals that produced an alert, by condition",
		}, []string{"condition"}),
		suppressed: f.NewCounterVec(prometheus.CounterOpts{
			Name: "tickerwatch_alerts_suppressed_total",
			Help: "Signals suppressed because they were already signaled",
		}, []string{"condition"}),
		publishes: f.NewCounterVec(prometheus.CounterOpts{
			Name: "tickerwatch_publish_total",
			Help: "Publish attempts by result",
		}, []string{"result"}),
		tickersRemoved: f.NewCounterVec(prometheus.CounterOpts{
			Name: "tickerwatch_tickers_removed_total",
			Help: "Tickers dropped from the watchlist",
		}, []string{"reason"}),
		watchlistSize: f.NewGauge(prometheus.GaugeOpts{
			Name: "tickerwatch_watchlist_size",
			Help: "Tickers currently monitored",
		}),
		lastRSI: f.NewGaugeVec(prometheus.GaugeOpts{
			Name: "tickerwatch_last_rsi",
			Help: "Last computed RSI for a ticker",
		}, []string{"ticker"}),
		errorsTotal: f.NewCounterVec(prometheus.CounterOpts{
			Name: "tickerwatch_errors_total",
			Help: "Total number of errors encountered",
		}, []string{"type"}),
		latency: f.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "tickerwatch_operation_duration_seconds",
			Help:    "Duration of operations in seconds",
			Buckets: prometheus.DefBuckets,
		}, []string{"operation"}),
	}
}

func (r *Recorder) RecordCycle(seconds float64) { r.cycleDuration.Observe(seconds) }

func (r *Recorder) RecordAlert(condition string) { r.alerts.WithLabelValues(condition).Inc() }

func (r *Recorder) RecordSuppressed(condition string) {
	r.suppressed.WithLabelValues(condition).Inc()
}

func (r *Recorder) RecordPublish(result string) { r.publishes.WithLabelValues(result).Inc() }

func (r *Recorder) RecordTickerRemoved(reason string) {
	r.tickersRemoved.WithLabelValues(reason).Inc()
}

func (r *Recorder) SetWatchlistSize(n int) { r.watchlistSize.Set(float64(n)) }

// RecordLastRSI records the last RSI for a ticker.
func (r *Recorder) RecordLastRSI(ticker string, rsi float64) {
	r.lastRSI.WithLabelValues(ticker).Set(rsi)
}

// RecordError records an error occurrence.
func (r *Recorder) RecordError(kind string) {
	r.errorsTotal.WithLabelValues(kind).Inc()
}

// RecordLatency records operation latency in seconds.
func (r *Recorder) RecordLatency(op string, seconds float64) {
	r.latency.WithLabelValues(op).Observe(seconds)
}

// Nop discards everything. Used when metrics are not wired.
type Nop struct{}

func (Nop) RecordCycle(float64)           {}
func (Nop) RecordAlert(string)            {}
func (Nop) RecordSuppressed(string)       {}
func (Nop) RecordPublish(string)          {}
func (Nop) RecordTickerRemoved(string)    {}
func (Nop) SetWatchlistSize(int)          {}
func (Nop) RecordLastRSI(string, float64) {}
func (Nop) RecordError(string)            {}
func (Nop) RecordLatency(string, float64) {}
