package http

import (
	"context"
	"io"
	"net"
	"net/http"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
)

type pingHandler struct{}

func (pingHandler) RegisterRoutes(e *echo.Echo) {
	e.GET("/ping", func(c echo.Context) error { return c.String(http.StatusOK, "pong") })
}

func TestServerStartServesAndStops(t *testing.T) {
	srv := NewServer(pingHandler{}, WithHost("127.0.0.1"), WithPort(0))
	if srv.Addr() != nil {
		t.Fatalf("addr before start should be nil")
	}
	if err := srv.Start(); err != nil {
		t.Fatalf("start: %v", err)
	}

	resp, err := http.Get("http://" + srv.Addr().String() + "/ping")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	body, _ := io.ReadAll(resp.Body)
	resp.Body.Close()
	if string(body) != "pong" {
		t.Fatalf("body = %q", body)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Stop(ctx); err != nil {
		t.Fatalf("stop: %v", err)
	}
}

func TestServerStartReportsBindError(t *testing.T) {
	first := NewServer(nil, WithHost("127.0.0.1"), WithPort(0))
	if err := first.Start(); err != nil {
		t.Fatalf("start: %v", err)
	}
	defer first.Stop(context.Background())

	port := first.Addr().(*net.TCPAddr).Port
	second := NewServer(nil, WithHost("127.0.0.1"), WithPort(port))
	if err := second.Start(); err == nil {
		t.Fatalf("expected bind error on a used port")
	}
}
