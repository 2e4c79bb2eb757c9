package finnhub

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	drepo "TickerWatch/internal/domain/repository"
)

func newTestClient(url string) *Client {
	c := New(Config{APIKey: "k", BaseURL: url, Period: "5d", Interval: "1h", MaxRPS: 100, Timeout: time.Second}, nil)
	c.now = func() time.Time { return time.Date(2024, 10, 10, 14, 30, 0, 0, time.UTC) }
	return c
}

func TestFetchParsesCandles(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		if r.URL.Path != "/stock/candle" || q.Get("symbol") != "AAPL" || q.Get("resolution") != "60" || q.Get("token") != "k" {
			t.Errorf("unexpected request %s", r.URL.String())
		}
		_, _ = w.Write([]byte(`{"s":"ok","c":[1.5,2.5],"o":[1,2],"h":[2,3],"l":[0.5,1.5],"v":[10,20],"t":[1728561600,1728565200]}`))
	}))
	defer srv.Close()

	ps, err := newTestClient(srv.URL).Fetch(context.Background(), "AAPL")
	if err != nil {
		t.Fatalf("fetch: %v", err)
	}
	if len(ps.Bars) != 2 || ps.Bars[1].Close != 2.5 || ps.Bars[0].Volume != 10 {
		t.Fatalf("unexpected bars %+v", ps.Bars)
	}
	if ps.Ticker != "AAPL" {
		t.Fatalf("ticker %q", ps.Ticker)
	}
}

func TestFetchNoData(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"s":"no_data"}`))
	}))
	defer srv.Close()

	_, err := newTestClient(srv.URL).Fetch(context.Background(), "ZZZZ")
	if !errors.Is(err, drepo.ErrNoData) {
		t.Fatalf("expected ErrNoData, got %v", err)
	}
}

func TestFetchUpstreamError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
	}))
	defer srv.Close()

	_, err := newTestClient(srv.URL).Fetch(context.Background(), "AAPL")
	if err == nil || errors.Is(err, drepo.ErrNoData) {
		t.Fatalf("expected upstream error, got %v", err)
	}
}

func TestResolution(t *testing.T) {
	if r, _ := Resolution("1d"); r != "D" {
		t.Fatalf("1d -> %q", r)
	}
	if _, err := Resolution("2h"); err == nil {
		t.Fatalf("expected error")
	}
}

func TestFetchAdmitsFractionalRate(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"s":"ok","c":[1.5],"o":[1],"h":[2],"l":[0.5],"v":[10],"t":[1728561600]}`))
	}))
	defer srv.Close()

	c := newTestClient(srv.URL)
	c.maxRPS = 0.5
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if _, err := c.Fetch(ctx, "AAPL"); err != nil {
		t.Fatalf("first fetch at 0.5 rps should not block: %v", err)
	}
}
