package alert

import (
	"time"

	"TickerWatch/internal/domain/models"
)

// Decision is the outcome of one ticker in one cycle.
type Decision struct {
	Alert      *models.Alert // nil when nothing newly fired
	Suppressed []models.Condition
}

// Engine applies edge-triggered alerting: a condition alerts on its false->true
// transition only and re-arms the first time it is observed false.
type Engine struct {
	state *State
	th    Thresholds
	now   func() time.Time
	loc   *time.Location
}

// EngineOption configures Engine.
type EngineOption func(*Engine)

// WithClock sets the time source used for message headers.
func WithClock(now func() time.Time) EngineOption {
	return func(e *Engine) { e.now = now }
}

// WithLocation sets the zone used to render message timestamps.
func WithLocation(loc *time.Location) EngineOption {
	return func(e *Engine) {
		if loc != nil {
			e.loc = loc
		}
	}
}

func NewEngine(th Thresholds, opts ...EngineOption) *Engine {
	e := &Engine{
		state: NewState(),
		th:    th,
		now:   time.Now,
		loc:   time.Local,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Decide diffs the conditions of r against the stored flags for ticker and
// updates them. Only call it for tickers whose data was fetched and whose
// indicators were computed this cycle.
func (e *Engine) Decide(ticker string, r models.Reading) Decision {
	conds := Evaluate(r, e.th)

	var d Decision
	var fired []models.Signal
	for _, c := range models.AllConditions {
		k := Key{Ticker: ticker, Condition: c}
		if !conds.Has(c) {
			e.state.Reset(k)
			continue
		}
		if e.state.Signaled(k) {
			d.Suppressed = append(d.Suppressed, c)
			continue
		}
		e.state.Mark(k)
		fired = append(fired, e.signal(c, r))
	}

	if len(fired) == 0 {
		return d
	}
	at := e.now().In(e.loc)
	d.Alert = &models.Alert{
		Ticker:  ticker,
		At:      at,
		Signals: fired,
		Message: ComposeMessage(ticker, at, fired),
	}
	return d
}

// Forget drops all flags for a ticker that left the working set.
func (e *Engine) Forget(ticker string) { e.state.Forget(ticker) }

func (e *Engine) signal(c models.Condition, r models.Reading) models.Signal {
	s := models.Signal{Condition: c, RSI: r.RSI}
	switch c {
	case models.RSIOversold:
		s.Threshold = e.th.Oversold
	case models.RSIOverbought:
		s.Threshold = e.th.Overbought
	}
	return s
}
