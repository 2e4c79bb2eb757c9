package models

import "time"

// Bar is one OHLCV observation returned by a market data provider.
type Bar struct {
	Time   time.Time
	Open   float64
	High   float64
	Low    float64
	Close  float64
	Volume float64
}

// PriceSeries is the history fetched for a ticker, oldest first.
type PriceSeries struct {
	Ticker string
	Bars   []Bar
}

// Closes returns the close prices in order.
func (s PriceSeries) Closes() []float64 {
	out := make([]float64, len(s.Bars))
	for i, b := range s.Bars {
		out[i] = b.Close
	}
	return out
}
