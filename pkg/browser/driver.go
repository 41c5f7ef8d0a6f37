// Package browser defines the page automation capabilities the extractor
// needs and provides two implementations: a chromedp-backed Chrome driver
// and an offline driver over a saved HTML snapshot.
package browser

import (
	"context"
	"errors"
	"fmt"

	"github.com/jmylchreest/storepage/pkg/locator"
)

// Condition is the state an element must reach before a wait succeeds.
type Condition int

const (
	// Present means the element exists in the DOM.
	Present Condition = iota
	// Visible means the element is rendered with non-zero size and not hidden.
	Visible
	// Clickable means the element is visible and enabled.
	Clickable
)

func (c Condition) String() string {
	switch c {
	case Present:
		return "present"
	case Visible:
		return "visible"
	case Clickable:
		return "clickable"
	default:
		return fmt.Sprintf("condition(%d)", int(c))
	}
}

// Error types for distinguishing failure reasons.
// Check with errors.Is(err, browser.ErrElementTimeout).
var (
	// ErrElementTimeout indicates a locator did not reach its condition before the deadline.
	ErrElementTimeout = errors.New("timed out waiting for element")
	// ErrClickIntercepted indicates another element would receive the click.
	ErrClickIntercepted = errors.New("element click intercepted")
	// ErrAttributeMissing indicates the element exists but lacks the attribute.
	ErrAttributeMissing = errors.New("attribute not present")
)

// Driver is the set of page operations the extractor relies on. Every
// blocking call waits at most until ctx is done.
type Driver interface {
	// Navigate loads url in the session's page.
	Navigate(ctx context.Context, url string) error

	// Text waits for loc to satisfy cond and returns its text content.
	Text(ctx context.Context, loc locator.Locator, cond Condition) (string, error)

	// Attribute waits for loc to be present and returns the named attribute.
	Attribute(ctx context.Context, loc locator.Locator, name string) (string, error)

	// Click waits for loc to be clickable, scrolls it to the viewport centre
	// and clicks it.
	Click(ctx context.Context, loc locator.Locator) error

	// Close terminates the session and releases the browser.
	Close() error
}

// Opener starts a new driver session.
type Opener func(ctx context.Context) (Driver, error)

// WithSession opens a driver, runs fn against it and closes the driver
// exactly once however fn returns, including by panic. A Close error is
// reported only when fn itself succeeded.
func WithSession(ctx context.Context, open Opener, fn func(Driver) error) (err error) {
	d, err := open(ctx)
	if err != nil {
		return fmt.Errorf("failed to start browser session: %w", err)
	}
	defer func() {
		if cerr := d.Close(); cerr != nil && err == nil {
			err = fmt.Errorf("failed to close browser session: %w", cerr)
		}
	}()
	return fn(d)
}

// timeoutError converts a context deadline into ErrElementTimeout so callers
// can tell "never appeared" apart from other driver failures.
func timeoutError(ctx context.Context, loc locator.Locator, err error) error {
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return fmt.Errorf("%w %s", ErrElementTimeout, loc)
	}
	return err
}
