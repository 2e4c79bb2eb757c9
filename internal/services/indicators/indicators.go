// Package indicators computes RSI and MACD from closing prices.
package indicators

import (
	"TickerWatch/internal/domain/models"
	domsvc "TickerWatch/internal/domain/service"
)

// Provider implements domain IndicatorProvider with textbook formulas.
type Provider struct{}

func New() *Provider { return &Provider{} }

// RSI returns the latest relative strength index over window periods using simple
// rolling means of gains and losses. It needs window+1 closes.
// A window with no movement reports 50 and one with no losses reports 100.
func (Provider) RSI(closes []float64, window int) (float64, error) {
	if window <= 0 || len(closes) < window+1 {
		return 0, domsvc.ErrInsufficientData
	}
	var gain, loss float64
	for i := len(closes) - window; i < len(closes); i++ {
		d := closes[i] - closes[i-1]
		if d > 0 {
			gain += d
		} else {
			loss -= d
		}
	}
	avgGain := gain / float64(window)
	avgLoss := loss / float64(window)
	switch {
	case avgGain == 0 && avgLoss == 0:
		return 50, nil
	case avgLoss == 0:
		return 100, nil
	}
	rs := avgGain / avgLoss
	return 100 - 100/(1+rs), nil
}

// EMA returns the exponential moving average series with alpha = 2/(span+1),
// seeded at the first value.
func EMA(values []float64, span int) []float64 {
	if len(values) == 0 || span <= 0 {
		return nil
	}
	alpha := 2.0 / float64(span+1)
	out := make([]float64, len(values))
	out[0] = values[0]
	for i := 1; i < len(values); i++ {
		out[i] = alpha*values[i] + (1-alpha)*out[i-1]
	}
	return out
}

// MACD returns the MACD line (fast EMA minus slow EMA) and its signal EMA.
func (Provider) MACD(closes []float64, fast, slow, signal int) ([]float64, []float64, error) {
	if len(closes) == 0 || fast <= 0 || slow <= 0 || signal <= 0 {
		return nil, nil, domsvc.ErrInsufficientData
	}
	ef := EMA(closes, fast)
	es := EMA(closes, slow)
	line := make([]float64, len(closes))
	for i := range closes {
		line[i] = ef[i] - es[i]
	}
	return line, EMA(line, signal), nil
}

// DetectCross compares the last two MACD-minus-signal differences.
func (Provider) DetectCross(macd, sig []float64) (models.Cross, error) {
	n := len(macd)
	if n < 2 || len(sig) != n {
		return models.CrossNone, domsvc.ErrInsufficientData
	}
	prev := macd[n-2] - sig[n-2]
	curr := macd[n-1] - sig[n-1]
	switch {
	case prev < 0 && curr > 0:
		return models.CrossBullish, nil
	case prev > 0 && curr < 0:
		return models.CrossBearish, nil
	default:
		return models.CrossNone, nil
	}
}

var _ domsvc.IndicatorProvider = (*Provider)(nil)
