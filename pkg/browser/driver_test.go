package browser

import (
	"context"
	"errors"
	"testing"

	"github.com/jmylchreest/storepage/pkg/locator"
)

// closeCounter is a Driver that only counts Close calls.
type closeCounter struct {
	Driver
	closes   int
	closeErr error
}

func (c *closeCounter) Close() error {
	c.closes++
	return c.closeErr
}

func openerFor(d Driver) Opener {
	return func(context.Context) (Driver, error) { return d, nil }
}

// --- WithSession Tests ---

func TestWithSession_ClosesOnSuccess(t *testing.T) {
	d := &closeCounter{}
	err := WithSession(context.Background(), openerFor(d), func(Driver) error { return nil })
	if err != nil {
		t.Fatalf("WithSession() error = %v", err)
	}
	if d.closes != 1 {
		t.Errorf("Close called %d times, want 1", d.closes)
	}
}

func TestWithSession_ClosesOnError(t *testing.T) {
	d := &closeCounter{closeErr: errors.New("close failed")}
	runErr := errors.New("run failed")

	err := WithSession(context.Background(), openerFor(d), func(Driver) error { return runErr })
	if !errors.Is(err, runErr) {
		t.Errorf("expected run error to win, got %v", err)
	}
	if d.closes != 1 {
		t.Errorf("Close called %d times, want 1", d.closes)
	}
}

func TestWithSession_ClosesOnPanic(t *testing.T) {
	d := &closeCounter{}
	defer func() {
		if recover() == nil {
			t.Error("expected panic to propagate")
		}
		if d.closes != 1 {
			t.Errorf("Close called %d times, want 1", d.closes)
		}
	}()
	_ = WithSession(context.Background(), openerFor(d), func(Driver) error { panic("boom") })
}

func TestWithSession_ReportsCloseError(t *testing.T) {
	d := &closeCounter{closeErr: errors.New("browser hung")}
	err := WithSession(context.Background(), openerFor(d), func(Driver) error { return nil })
	if err == nil {
		t.Fatal("expected close error")
	}
}

func TestWithSession_OpenFailure(t *testing.T) {
	called := false
	open := func(context.Context) (Driver, error) { return nil, errors.New("no chrome") }

	err := WithSession(context.Background(), open, func(Driver) error {
		called = true
		return nil
	})
	if err == nil {
		t.Fatal("expected open error")
	}
	if called {
		t.Error("fn must not run when the session failed to open")
	}
}

// --- Condition Tests ---

func TestCondition_String(t *testing.T) {
	tests := map[Condition]string{
		Present:       "present",
		Visible:       "visible",
		Clickable:     "clickable",
		Condition(42): "condition(42)",
	}
	for cond, want := range tests {
		if got := cond.String(); got != want {
			t.Errorf("%d.String() = %q, want %q", int(cond), got, want)
		}
	}
}

func TestTimeoutError_WrapsDeadline(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 0)
	defer cancel()
	<-ctx.Done()

	err := timeoutError(ctx, locator.ByXPath("//h1"), ctx.Err())
	if !errors.Is(err, ErrElementTimeout) {
		t.Errorf("expected ErrElementTimeout, got %v", err)
	}
}

func TestTimeoutError_CallerDeadlineWinsOverCancel(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 0)
	defer cancel()
	<-ctx.Done()

	// A derived call context may report Canceled when the caller's deadline
	// tears it down.
	err := timeoutError(ctx, locator.ByXPath("//h1"), context.Canceled)
	if !errors.Is(err, ErrElementTimeout) {
		t.Errorf("expected ErrElementTimeout, got %v", err)
	}
}

func TestTimeoutError_PassesOtherErrors(t *testing.T) {
	other := errors.New("could not find node")
	err := timeoutError(context.Background(), locator.ByXPath("//h1"), other)
	if !errors.Is(err, other) || errors.Is(err, ErrElementTimeout) {
		t.Errorf("unexpected mapping: %v", err)
	}
}
