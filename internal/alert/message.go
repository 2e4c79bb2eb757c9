package alert

import (
	"fmt"
	"strings"
	"time"

	"TickerWatch/internal/domain/models"

	"github.com/shopspring/decimal"
)

const headerTimeLayout = "2006-01-02 15:04 MST"

// ComposeMessage renders the header and one line per fired signal.
func ComposeMessage(ticker string, at time.Time, signals []models.Signal) string {
	lines := make([]string, 0, len(signals)+1)
	lines = append(lines, fmt.Sprintf("$%s - %s", ticker, at.Format(headerTimeLayout)))
	for _, s := range signals {
		lines = append(lines, signalLine(s))
	}
	return strings.Join(lines, "\n")
}

func signalLine(s models.Signal) string {
	rsi := decimal.NewFromFloat(s.RSI).StringFixed(1)
	th := decimal.NewFromFloat(s.Threshold).String()
	switch s.Condition {
	case models.RSIOversold:
		return fmt.Sprintf("🔔 RSI = %s (Oversold ≤ %s) → Possible Buy", rsi, th)
	case models.RSIOverbought:
		return fmt.Sprintf("⚠️ RSI = %s (Overbought ≥ %s) → Possible Sell", rsi, th)
	case models.MACDBullish:
		return "📈 MACD crossover detected: BULLISH"
	case models.MACDBearish:
		return "📉 MACD crossover detected: BEARISH"
	default:
		return s.Condition.String()
	}
}
