package alert

import (
	"errors"
	"testing"

	"TickerWatch/internal/domain/models"
	"TickerWatch/internal/domain/service"
)

func TestEvaluate(t *testing.T) {
	th := DefaultThresholds()
	cases := []struct {
		name string
		r    models.Reading
		want []models.Condition
	}{
		{"neutral", models.Reading{RSI: 50, Cross: models.CrossNone}, nil},
		{"oversold at threshold", models.Reading{RSI: 30, Cross: models.CrossNone}, []models.Condition{models.RSIOversold}},
		{"overbought at threshold", models.Reading{RSI: 70, Cross: models.CrossNone}, []models.Condition{models.RSIOverbought}},
		{"bullish", models.Reading{RSI: 50, Cross: models.CrossBullish}, []models.Condition{models.MACDBullish}},
		{"oversold and bearish", models.Reading{RSI: 12, Cross: models.CrossBearish}, []models.Condition{models.RSIOversold, models.MACDBearish}},
	}
	for _, tc := range cases {
		got := Evaluate(tc.r, th)
		var want Conditions
		for _, c := range tc.want {
			want = want.With(c)
		}
		if got != want {
			t.Fatalf("%s: got %08b want %08b", tc.name, got, want)
		}
	}
}

func TestEvaluateMutualExclusion(t *testing.T) {
	th := DefaultThresholds()
	crosses := []models.Cross{models.CrossNone, models.CrossBullish, models.CrossBearish}
	for rsi := 0.0; rsi <= 100; rsi += 0.5 {
		for _, x := range crosses {
			c := Evaluate(models.Reading{RSI: rsi, Cross: x}, th)
			if c.Has(models.RSIOversold) && c.Has(models.RSIOverbought) {
				t.Fatalf("rsi %v: both rsi conditions set", rsi)
			}
			if c.Has(models.MACDBullish) && c.Has(models.MACDBearish) {
				t.Fatalf("cross %v: both macd conditions set", x)
			}
		}
	}
}

func TestThresholdsValidate(t *testing.T) {
	if err := DefaultThresholds().Validate(); err != nil {
		t.Fatalf("defaults should validate: %v", err)
	}
	if err := (Thresholds{Oversold: 70, Overbought: 70}).Validate(); err == nil {
		t.Fatalf("equal thresholds should fail")
	}
}

type stubIndicators struct {
	rsiErr   error
	crossErr error
	rsi      float64
	cross    models.Cross
}

func (s stubIndicators) RSI([]float64, int) (float64, error) { return s.rsi, s.rsiErr }

func (s stubIndicators) MACD([]float64, int, int, int) ([]float64, []float64, error) {
	return []float64{0}, []float64{0}, nil
}

func (s stubIndicators) DetectCross([]float64, []float64) (models.Cross, error) {
	return s.cross, s.crossErr
}

func TestReaderInsufficientData(t *testing.T) {
	r := NewReader(stubIndicators{rsiErr: service.ErrInsufficientData}, DefaultLookback())
	if _, err := r.Read(nil); !errors.Is(err, service.ErrInsufficientData) {
		t.Fatalf("expected insufficient data, got %v", err)
	}
	r = NewReader(stubIndicators{rsi: 40, crossErr: service.ErrInsufficientData}, DefaultLookback())
	if _, err := r.Read(nil); !errors.Is(err, service.ErrInsufficientData) {
		t.Fatalf("expected insufficient data from cross, got %v", err)
	}
	r = NewReader(stubIndicators{rsi: 40, cross: models.CrossBearish}, DefaultLookback())
	got, err := r.Read(nil)
	if err != nil || got.RSI != 40 || got.Cross != models.CrossBearish {
		t.Fatalf("unexpected reading %+v err=%v", got, err)
	}
}
