package models

import "time"

// Condition is one of the alertable indicator states of a ticker.
type Condition uint8

const (
	RSIOversold Condition = iota
	RSIOverbought
	MACDBullish
	MACDBearish
)

// AllConditions lists every condition in evaluation order.
var AllConditions = [...]Condition{RSIOversold, RSIOverbought, MACDBullish, MACDBearish}

func (c Condition) String() string {
	switch c {
	case RSIOversold:
		return "rsi_oversold"
	case RSIOverbought:
		return "rsi_overbought"
	case MACDBullish:
		return "macd_bullish"
	case MACDBearish:
		return "macd_bearish"
	default:
		return "unknown"
	}
}

// Cross is the direction of the latest MACD/signal crossover.
type Cross string

const (
	CrossNone    Cross = "none"
	CrossBullish Cross = "bullish"
	CrossBearish Cross = "bearish"
)

// Reading is the latest indicator snapshot for one ticker in one cycle.
type Reading struct {
	RSI   float64
	Cross Cross
}

// Signal is a condition that newly fired in a cycle.
type Signal struct {
	Condition Condition
	RSI       float64
	Threshold float64
}

// Alert is the composed message for one ticker in one cycle.
type Alert struct {
	Ticker  string
	At      time.Time
	Signals []Signal
	Message string
}

// Conditions returns the names of the fired conditions.
func (a *Alert) Conditions() []string {
	out := make([]string, 0, len(a.Signals))
	for _, s := range a.Signals {
		out = append(out, s.Condition.String())
	}
	return out
}

// DeliveryStatus is the final outcome of publishing an alert.
type DeliveryStatus string

const (
	StatusDelivered DeliveryStatus = "delivered"
	StatusDropped   DeliveryStatus = "dropped"
)

// AlertRecord is what sinks and the archive see for each publish outcome.
type AlertRecord struct {
	Ticker     string         `json:"ticker"`
	Timestamp  time.Time      `json:"ts"`
	Conditions []string       `json:"conditions"`
	RSI        float64        `json:"rsi"`
	Message    string         `json:"message"`
	Status     DeliveryStatus `json:"status"`
}

// NewAlertRecord builds the record for an alert with the given outcome.
func NewAlertRecord(a *Alert, status DeliveryStatus) AlertRecord {
	rec := AlertRecord{
		Ticker:     a.Ticker,
		Timestamp:  a.At,
		Conditions: a.Conditions(),
		Message:    a.Message,
		Status:     status,
	}
	for _, s := range a.Signals {
		if s.Condition == RSIOversold || s.Condition == RSIOverbought {
			rec.RSI = s.RSI
		}
	}
	return rec
}
