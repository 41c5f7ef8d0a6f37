package browser

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/chromedp/cdproto/cdp"
	"github.com/chromedp/cdproto/dom"
	"github.com/chromedp/cdproto/runtime"
	"github.com/chromedp/chromedp"
	"github.com/dustin/go-humanize"

	"github.com/jmylchreest/storepage/internal/logger"
	"github.com/jmylchreest/storepage/pkg/locator"
)

// ChromeConfig holds configuration for the Chrome driver.
type ChromeConfig struct {
	ExecPath     string // Browser binary; empty lets chromedp look it up
	RemoteURL    string // DevTools websocket of an already running browser
	Headless     bool
	UserAgent    string
	WindowWidth  int
	WindowHeight int
	SnapshotPath string // Write the final page HTML here on Close
}

// DefaultChromeConfig returns sensible defaults.
func DefaultChromeConfig() ChromeConfig {
	return ChromeConfig{
		Headless:     true,
		WindowWidth:  1920,
		WindowHeight: 1080,
	}
}

// centerAndHitTest scrolls the element to the viewport centre and reports
// which element, if any other than itself, would receive a click there.
const centerAndHitTest = `function() {
	this.scrollIntoView({block: 'center', inline: 'center'});
	const r = this.getBoundingClientRect();
	const hit = document.elementFromPoint(r.left + r.width / 2, r.top + r.height / 2);
	if (hit === null || hit === this || this.contains(hit)) {
		return '';
	}
	let desc = hit.tagName.toLowerCase();
	if (hit.id) {
		desc += '#' + hit.id;
	}
	if (typeof hit.className === 'string' && hit.className.trim() !== '') {
		desc += '.' + hit.className.trim().split(/\s+/).join('.');
	}
	return desc;
}`

// ChromeDriver drives a single Chrome tab through chromedp.
type ChromeDriver struct {
	config      ChromeConfig
	allocCancel context.CancelFunc
	tabCtx      context.Context
	tabCancel   context.CancelFunc
	closeOnce   sync.Once
	closeErr    error
}

// ChromeOpener returns an Opener that launches Chrome with cfg.
func ChromeOpener(cfg ChromeConfig) Opener {
	return func(ctx context.Context) (Driver, error) {
		return NewChromeDriver(ctx, cfg)
	}
}

// NewChromeDriver launches (or attaches to) a browser and opens one tab.
// The browser lives until Close or until ctx is cancelled.
func NewChromeDriver(ctx context.Context, cfg ChromeConfig) (*ChromeDriver, error) {
	if cfg.WindowWidth == 0 || cfg.WindowHeight == 0 {
		def := DefaultChromeConfig()
		cfg.WindowWidth, cfg.WindowHeight = def.WindowWidth, def.WindowHeight
	}

	var allocCtx context.Context
	var allocCancel context.CancelFunc
	if cfg.RemoteURL != "" {
		allocCtx, allocCancel = chromedp.NewRemoteAllocator(ctx, cfg.RemoteURL)
	} else {
		opts := append(chromedp.DefaultExecAllocatorOptions[:],
			chromedp.Flag("headless", cfg.Headless),
			chromedp.Flag("disable-gpu", true),
			chromedp.Flag("no-sandbox", true),
			chromedp.Flag("disable-dev-shm-usage", true),
			chromedp.Flag("disable-blink-features", "AutomationControlled"),
			chromedp.WindowSize(cfg.WindowWidth, cfg.WindowHeight),
		)
		if cfg.ExecPath != "" {
			opts = append(opts, chromedp.ExecPath(cfg.ExecPath))
		}
		if cfg.UserAgent != "" {
			opts = append(opts, chromedp.UserAgent(cfg.UserAgent))
		}
		allocCtx, allocCancel = chromedp.NewExecAllocator(ctx, opts...)
	}

	tabCtx, tabCancel := chromedp.NewContext(allocCtx,
		chromedp.WithLogf(func(format string, args ...any) {
			logger.Debug("chromedp", "msg", fmt.Sprintf(format, args...))
		}),
	)

	// The first Run starts the browser. It must not carry a deadline or the
	// browser would die with it.
	if err := chromedp.Run(tabCtx); err != nil {
		tabCancel()
		allocCancel()
		return nil, fmt.Errorf("failed to launch browser: %w", err)
	}

	logger.Debug("browser session started",
		"headless", cfg.Headless,
		"exec_path", cfg.ExecPath,
		"remote", cfg.RemoteURL != "")

	return &ChromeDriver{
		config:      cfg,
		allocCancel: allocCancel,
		tabCtx:      tabCtx,
		tabCancel:   tabCancel,
	}, nil
}

// scoped derives a chromedp context from the tab that honours the caller's
// deadline and cancellation.
func (d *ChromeDriver) scoped(ctx context.Context) (context.Context, context.CancelFunc) {
	runCtx, cancel := context.WithCancel(d.tabCtx)
	if deadline, ok := ctx.Deadline(); ok {
		var cancelDeadline context.CancelFunc
		runCtx, cancelDeadline = context.WithDeadline(runCtx, deadline)
		prev := cancel
		cancel = func() { cancelDeadline(); prev() }
	}
	stop := context.AfterFunc(ctx, cancel)
	return runCtx, func() {
		stop()
		cancel()
	}
}

// Navigate loads url and waits for the load event.
func (d *ChromeDriver) Navigate(ctx context.Context, url string) error {
	runCtx, cancel := d.scoped(ctx)
	defer cancel()

	if err := chromedp.Run(runCtx, chromedp.Navigate(url)); err != nil {
		d.saveDebugScreenshot()
		return fmt.Errorf("navigation to %s failed: %w", url, err)
	}
	return nil
}

// Text waits for loc to satisfy cond and returns its rendered text.
func (d *ChromeDriver) Text(ctx context.Context, loc locator.Locator, cond Condition) (string, error) {
	runCtx, cancel := d.scoped(ctx)
	defer cancel()

	var text string
	actions := append(waitActions(loc, cond), chromedp.Text(loc.Query, &text, queryBy(loc)))
	if err := chromedp.Run(runCtx, actions...); err != nil {
		return "", timeoutError(ctx, loc, err)
	}
	return text, nil
}

// Attribute waits for loc to be present and returns the named attribute.
func (d *ChromeDriver) Attribute(ctx context.Context, loc locator.Locator, name string) (string, error) {
	runCtx, cancel := d.scoped(ctx)
	defer cancel()

	var value string
	var ok bool
	if err := chromedp.Run(runCtx, chromedp.AttributeValue(loc.Query, name, &value, &ok, queryBy(loc))); err != nil {
		return "", timeoutError(ctx, loc, err)
	}
	if !ok {
		return "", fmt.Errorf("%w: %s on %s", ErrAttributeMissing, name, loc)
	}
	return value, nil
}

// Click waits until loc is clickable, centres it and clicks it. A click
// whose target point is covered by another element is refused with
// ErrClickIntercepted instead of landing on the wrong element.
func (d *ChromeDriver) Click(ctx context.Context, loc locator.Locator) error {
	runCtx, cancel := d.scoped(ctx)
	defer cancel()

	var nodes []*cdp.Node
	actions := append(waitActions(loc, Clickable),
		chromedp.Nodes(loc.Query, &nodes, queryBy(loc)),
		chromedp.ActionFunc(func(ctx context.Context) error {
			return clickNode(ctx, nodes[0])
		}),
	)
	if err := chromedp.Run(runCtx, actions...); err != nil {
		return timeoutError(ctx, loc, err)
	}
	return nil
}

func clickNode(ctx context.Context, node *cdp.Node) error {
	obj, err := dom.ResolveNode().WithNodeID(node.NodeID).Do(ctx)
	if err != nil {
		return fmt.Errorf("failed to resolve node: %w", err)
	}
	res, exc, err := runtime.CallFunctionOn(centerAndHitTest).
		WithObjectID(obj.ObjectID).
		WithReturnByValue(true).
		Do(ctx)
	if err != nil {
		return fmt.Errorf("failed to scroll into view: %w", err)
	}
	if exc != nil {
		return fmt.Errorf("failed to scroll into view: %s", exc.Text)
	}

	var obstruction string
	if res != nil && len(res.Value) > 0 {
		if err := json.Unmarshal([]byte(res.Value), &obstruction); err != nil {
			return fmt.Errorf("unexpected hit test result: %w", err)
		}
	}
	if obstruction != "" {
		return fmt.Errorf("%w: other element would receive the click: %s", ErrClickIntercepted, obstruction)
	}
	return chromedp.MouseClickNode(node).Do(ctx)
}

// Close saves the optional snapshot and shuts the browser down. Safe to
// call more than once.
func (d *ChromeDriver) Close() error {
	d.closeOnce.Do(func() {
		if d.config.SnapshotPath != "" {
			d.saveSnapshot()
		}
		if err := chromedp.Cancel(d.tabCtx); err != nil && !errors.Is(err, context.Canceled) {
			d.closeErr = err
		}
		d.tabCancel()
		d.allocCancel()
		logger.Debug("browser session closed")
	})
	return d.closeErr
}

func (d *ChromeDriver) saveSnapshot() {
	ctx, cancel := context.WithTimeout(d.tabCtx, 5*time.Second)
	defer cancel()

	var html string
	if err := chromedp.Run(ctx, chromedp.OuterHTML("html", &html, chromedp.ByQuery)); err != nil {
		logger.Warn("failed to capture page snapshot", "error", err)
		return
	}
	if err := os.WriteFile(d.config.SnapshotPath, []byte(html), 0o644); err != nil {
		logger.Warn("failed to write page snapshot", "path", d.config.SnapshotPath, "error", err)
		return
	}
	logger.Info("page snapshot saved", "path", d.config.SnapshotPath, "size", humanize.Bytes(uint64(len(html))))
}

// saveDebugScreenshot captures the tab after a failed navigation.
func (d *ChromeDriver) saveDebugScreenshot() {
	ctx, cancel := context.WithTimeout(d.tabCtx, 5*time.Second)
	defer cancel()

	var shot []byte
	if err := chromedp.Run(ctx, chromedp.CaptureScreenshot(&shot)); err != nil || len(shot) == 0 {
		return
	}
	path := filepath.Join(os.TempDir(), fmt.Sprintf("storepage-debug-%d.png", time.Now().UnixNano()))
	if err := os.WriteFile(path, shot, 0o644); err == nil {
		logger.Debug("debug screenshot saved", "path", path, "size", humanize.Bytes(uint64(len(shot))))
	}
}

func queryBy(loc locator.Locator) chromedp.QueryOption {
	if loc.Strategy == locator.CSS {
		return chromedp.ByQuery
	}
	return chromedp.BySearch
}

// waitActions blocks until loc reaches cond. chromedp keeps only the last
// wait option of a query, so clickable is expressed as two waits.
func waitActions(loc locator.Locator, cond Condition) []chromedp.Action {
	by := queryBy(loc)
	switch cond {
	case Visible:
		return []chromedp.Action{chromedp.WaitVisible(loc.Query, by)}
	case Clickable:
		return []chromedp.Action{
			chromedp.WaitVisible(loc.Query, by),
			chromedp.WaitEnabled(loc.Query, by),
		}
	default:
		return []chromedp.Action{chromedp.WaitReady(loc.Query, by)}
	}
}
