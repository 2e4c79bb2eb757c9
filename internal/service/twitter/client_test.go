package twitter

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	drepo "TickerWatch/internal/domain/repository"
)

func TestPublishPostsText(t *testing.T) {
	var got tweetRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/2/tweets" {
			t.Errorf("unexpected %s %s", r.Method, r.URL.Path)
		}
		if ct := r.Header.Get("Content-Type"); ct != "application/json" {
			t.Errorf("content type %q", ct)
		}
		_ = json.NewDecoder(r.Body).Decode(&got)
		w.WriteHeader(http.StatusCreated)
		_, _ = w.Write([]byte(`{"data":{"id":"1","text":"x"}}`))
	}))
	defer srv.Close()

	c := newClient(srv.URL, srv.Client(), time.Second)
	if err := c.Publish(context.Background(), "AAPL", "$AAPL - hello"); err != nil {
		t.Fatalf("publish: %v", err)
	}
	if got.Text != "$AAPL - hello" {
		t.Fatalf("body text %q", got.Text)
	}
}

func TestPublishRateLimited(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer srv.Close()

	err := newClient(srv.URL, srv.Client(), time.Second).Publish(context.Background(), "AAPL", "x")
	if !errors.Is(err, drepo.ErrRateLimited) {
		t.Fatalf("expected ErrRateLimited, got %v", err)
	}
}

func TestPublishPermanentFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
		_, _ = w.Write([]byte(`{"detail":"duplicate content"}`))
	}))
	defer srv.Close()

	err := newClient(srv.URL, srv.Client(), time.Second).Publish(context.Background(), "AAPL", "x")
	if err == nil || errors.Is(err, drepo.ErrRateLimited) {
		t.Fatalf("expected permanent error, got %v", err)
	}
	if !strings.Contains(err.Error(), "403") {
		t.Fatalf("status missing from error: %v", err)
	}
}

func TestNewSignsRequests(t *testing.T) {
	var auth string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		auth = r.Header.Get("Authorization")
		_, _ = w.Write([]byte(`{"data":{"id":"1"}}`))
	}))
	defer srv.Close()

	c := New(Config{APIKey: "ck", APISecret: "cs", AccessToken: "at", AccessTokenSecret: "as", BaseURL: srv.URL, Timeout: time.Second})
	if err := c.Publish(context.Background(), "AAPL", "x"); err != nil {
		t.Fatalf("publish: %v", err)
	}
	if !strings.HasPrefix(auth, "OAuth ") || !strings.Contains(auth, `oauth_consumer_key="ck"`) {
		t.Fatalf("missing oauth header: %q", auth)
	}
}
