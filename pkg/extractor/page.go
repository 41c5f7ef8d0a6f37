package extractor

import (
	"context"
	"errors"
	"time"

	"github.com/jmylchreest/storepage/internal/logger"
	"github.com/jmylchreest/storepage/pkg/browser"
	"github.com/jmylchreest/storepage/pkg/locator"
)

// Page wraps a driver with the fixed-timeout, never-failing primitives the
// script is written in. Reads return nil instead of an error.
type Page struct {
	driver  browser.Driver
	timeout time.Duration
}

// NewPage binds d with a per call timeout.
func NewPage(d browser.Driver, timeout time.Duration) *Page {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Page{driver: d, timeout: timeout}
}

// ReadText waits for loc to be present and returns its text.
func (p *Page) ReadText(ctx context.Context, loc locator.Locator) *string {
	return p.text(ctx, loc, browser.Present, "Timeout while waiting for element ")
}

// ReadVisibleText waits for loc to be visible and returns its text.
func (p *Page) ReadVisibleText(ctx context.Context, loc locator.Locator) *string {
	return p.text(ctx, loc, browser.Visible, "Timeout while waiting for visible element ")
}

func (p *Page) text(ctx context.Context, loc locator.Locator, cond browser.Condition, timeoutMsg string) *string {
	waitCtx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	text, err := p.driver.Text(waitCtx, loc, cond)
	if err != nil {
		p.readFailed(ctx, loc, err, timeoutMsg)
		return nil
	}
	return &text
}

// ReadAttribute waits for loc to be present and returns attribute name.
func (p *Page) ReadAttribute(ctx context.Context, loc locator.Locator, name string) *string {
	waitCtx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	value, err := p.driver.Attribute(waitCtx, loc, name)
	if errors.Is(err, browser.ErrAttributeMissing) {
		logger.Warn("attribute missing", "attribute", name, "locator", loc.String())
		return nil
	}
	if err != nil {
		p.readFailed(ctx, loc, err, "Timeout while waiting for element ")
		return nil
	}
	return &value
}

// Click waits for loc to be clickable and clicks it. Failures are logged
// and swallowed.
func (p *Page) Click(ctx context.Context, loc locator.Locator) {
	waitCtx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	err := p.driver.Click(waitCtx, loc)
	switch {
	case err == nil:
		logger.Debug("clicked", "locator", loc.String())
	case ctx.Err() != nil:
		logger.Debug("click abandoned", "locator", loc.String(), "error", err)
	default:
		logger.Error("Error clicking element " + loc.String() + ": " + err.Error())
	}
}

func (p *Page) readFailed(ctx context.Context, loc locator.Locator, err error, timeoutMsg string) {
	switch {
	case ctx.Err() != nil:
		// The whole run is being torn down; not the element's fault.
		logger.Debug("read abandoned", "locator", loc.String(), "error", err)
	case errors.Is(err, browser.ErrElementTimeout), errors.Is(err, context.DeadlineExceeded):
		logger.Error(timeoutMsg + loc.String())
	default:
		logger.Error("Error reading element "+loc.String(), "error", err)
	}
}
