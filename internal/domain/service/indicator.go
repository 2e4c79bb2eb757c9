package service

import (
	"errors"

	"TickerWatch/internal/domain/models"
)

// ErrInsufficientData is returned when the series is shorter than the indicator lookback.
var ErrInsufficientData = errors.New("indicator: insufficient data")

// IndicatorProvider computes the latest indicator values from closing prices.
type IndicatorProvider interface {
	RSI(closes []float64, window int) (float64, error)
	MACD(closes []float64, fast, slow, signal int) (macd, sig []float64, err error)
	DetectCross(macd, sig []float64) (models.Cross, error)
}
