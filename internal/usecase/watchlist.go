package usecase

import (
	"sync"
	"time"

	"TickerWatch/pkg/util"
)

// Forgetter drops per-ticker state when a ticker leaves the working set.
type Forgetter interface {
	Forget(ticker string)
}

// RemovedTicker records why a ticker stopped being monitored.
type RemovedTicker struct {
	Ticker string    `json:"ticker"`
	Reason string    `json:"reason"`
	At     time.Time `json:"at"`
}

// Watchlist is the ordered working set of tickers. Only the monitor loop
// mutates it; readers get copies.
type Watchlist struct {
	mu      sync.RWMutex
	tickers []string
	removed []RemovedTicker
	forget  Forgetter
	now     func() time.Time
}

// NewWatchlist seeds the working set, dropping blanks and duplicates while
// keeping the configured order.
func NewWatchlist(tickers []string, forget Forgetter) *Watchlist {
	seen := make(map[string]struct{}, len(tickers))
	out := make([]string, 0, len(tickers))
	for _, t := range tickers {
		t = util.NormalizeTicker(t)
		if t == "" {
			continue
		}
		if _, ok := seen[t]; ok {
			continue
		}
		seen[t] = struct{}{}
		out = append(out, t)
	}
	return &Watchlist{tickers: out, forget: forget, now: time.Now}
}

// Remove deletes ticker permanently and drops its alert state.
// It reports whether the ticker was present.
func (w *Watchlist) Remove(ticker, reason string) bool {
	w.mu.Lock()
	idx := -1
	for i, t := range w.tickers {
		if t == ticker {
			idx = i
			break
		}
	}
	if idx < 0 {
		w.mu.Unlock()
		return false
	}
	w.tickers = append(w.tickers[:idx:idx], w.tickers[idx+1:]...)
	w.removed = append(w.removed, RemovedTicker{Ticker: ticker, Reason: reason, At: w.now()})
	w.mu.Unlock()

	if w.forget != nil {
		w.forget.Forget(ticker)
	}
	return true
}

// Batches splits a snapshot of the working set into chunks of size.
func (w *Watchlist) Batches(size int) [][]string {
	snap := w.Tickers()
	if size <= 0 {
		size = len(snap)
	}
	var out [][]string
	for start := 0; start < len(snap); start += size {
		end := start + size
		if end > len(snap) {
			end = len(snap)
		}
		out = append(out, snap[start:end])
	}
	return out
}

func (w *Watchlist) Tickers() []string {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return append([]string(nil), w.tickers...)
}

func (w *Watchlist) Removed() []RemovedTicker {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return append([]RemovedTicker(nil), w.removed...)
}

func (w *Watchlist) Len() int {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return len(w.tickers)
}
