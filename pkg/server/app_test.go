package server

import (
	"context"
	"errors"
	"testing"
)

type runnerFunc func(ctx context.Context) error

func (f runnerFunc) Run(ctx context.Context) error { return f(ctx) }

func TestRunClosesInReverseOrder(t *testing.T) {
	var order []string
	app := New(nil, runnerFunc(func(context.Context) error { return nil }), nil, nil, nil)
	app.OnShutdown("archive", func() error { order = append(order, "archive"); return nil })
	app.OnShutdown("publisher", func() error { order = append(order, "publisher"); return errors.New("already closed") })

	if err := app.Run(context.Background()); err != nil {
		t.Fatalf("run: %v", err)
	}
	if len(order) != 2 || order[0] != "publisher" || order[1] != "archive" {
		t.Fatalf("close order = %v", order)
	}
}

func TestRunTreatsCancellationAsNormalExit(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	closed := false
	app := New(nil, runnerFunc(func(ctx context.Context) error {
		cancel()
		<-ctx.Done()
		return ctx.Err()
	}), nil, nil, nil)
	app.OnShutdown("lease", func() error { closed = true; return nil })

	if err := app.Run(ctx); err != nil {
		t.Fatalf("expected nil on cancellation, got %v", err)
	}
	if !closed {
		t.Fatalf("closers must run on cancellation")
	}
}

func TestRunReturnsMonitorError(t *testing.T) {
	boom := errors.New("boom")
	app := New(nil, runnerFunc(func(context.Context) error { return boom }), nil, nil, nil)
	if err := app.Run(context.Background()); !errors.Is(err, boom) {
		t.Fatalf("got %v", err)
	}
}
