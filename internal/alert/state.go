package alert

import "TickerWatch/internal/domain/models"

// Key identifies one alert flag.
type Key struct {
	Ticker    string
	Condition models.Condition
}

// State records which (ticker, condition) pairs are currently signaled.
// A pair absent from the map is not signaled. State is owned by a single
// Engine and is not safe for concurrent use.
type State struct {
	flags map[Key]struct{}
}

func NewState() *State {
	return &State{flags: make(map[Key]struct{})}
}

// Signaled reports whether an alert for k was emitted and has not been reset since.
func (s *State) Signaled(k Key) bool {
	_, ok := s.flags[k]
	return ok
}

func (s *State) Mark(k Key) { s.flags[k] = struct{}{} }

// Reset clears the flag. Resetting an unsignaled key is a no-op.
func (s *State) Reset(k Key) { delete(s.flags, k) }

// Forget drops every flag of a ticker.
func (s *State) Forget(ticker string) {
	for _, c := range models.AllConditions {
		delete(s.flags, Key{Ticker: ticker, Condition: c})
	}
}

// Len returns the number of signaled pairs.
func (s *State) Len() int { return len(s.flags) }
