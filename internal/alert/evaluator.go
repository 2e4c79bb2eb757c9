package alert

import (
	"fmt"

	"TickerWatch/internal/domain/models"
	"TickerWatch/internal/domain/service"
)

// Thresholds are the RSI levels that define oversold and overbought.
type Thresholds struct {
	Oversold   float64
	Overbought float64
}

// DefaultThresholds returns the conventional 30/70 levels.
func DefaultThresholds() Thresholds { return Thresholds{Oversold: 30, Overbought: 70} }

// Validate checks that oversold < overbought, which keeps the RSI conditions exclusive.
func (t Thresholds) Validate() error {
	if t.Oversold >= t.Overbought {
		return fmt.Errorf("rsi thresholds: oversold (%v) must be below overbought (%v)", t.Oversold, t.Overbought)
	}
	return nil
}

// Conditions is the set of conditions that hold for one reading.
type Conditions uint8

func (c Conditions) Has(cond models.Condition) bool { return c&(1<<cond) != 0 }

func (c Conditions) With(cond models.Condition) Conditions { return c | 1<<cond }

// Evaluate maps a reading to the conditions it satisfies. It is a pure function.
func Evaluate(r models.Reading, th Thresholds) Conditions {
	var c Conditions
	switch {
	case r.RSI <= th.Oversold:
		c = c.With(models.RSIOversold)
	case r.RSI >= th.Overbought:
		c = c.With(models.RSIOverbought)
	}
	switch r.Cross {
	case models.CrossBullish:
		c = c.With(models.MACDBullish)
	case models.CrossBearish:
		c = c.With(models.MACDBearish)
	}
	return c
}

// Lookback holds the indicator windows.
type Lookback struct {
	RSIWindow  int
	MACDFast   int
	MACDSlow   int
	MACDSignal int
}

// DefaultLookback returns RSI(14) and MACD(12, 26, 9).
func DefaultLookback() Lookback {
	return Lookback{RSIWindow: 14, MACDFast: 12, MACDSlow: 26, MACDSignal: 9}
}

// Reader turns closing prices into a Reading using an indicator provider.
type Reader struct {
	ind service.IndicatorProvider
	lb  Lookback
}

func NewReader(ind service.IndicatorProvider, lb Lookback) *Reader {
	return &Reader{ind: ind, lb: lb}
}

// Read returns the latest RSI and MACD cross. It returns service.ErrInsufficientData
// (wrapped) when either indicator lacks history; callers must then skip the ticker.
func (r *Reader) Read(closes []float64) (models.Reading, error) {
	rsi, err := r.ind.RSI(closes, r.lb.RSIWindow)
	if err != nil {
		return models.Reading{}, fmt.Errorf("rsi: %w", err)
	}
	macd, sig, err := r.ind.MACD(closes, r.lb.MACDFast, r.lb.MACDSlow, r.lb.MACDSignal)
	if err != nil {
		return models.Reading{}, fmt.Errorf("macd: %w", err)
	}
	cross, err := r.ind.DetectCross(macd, sig)
	if err != nil {
		return models.Reading{}, fmt.Errorf("macd cross: %w", err)
	}
	return models.Reading{RSI: rsi, Cross: cross}, nil
}
