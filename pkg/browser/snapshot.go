package browser

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"

	"github.com/PuerkitoBio/goquery"
	"github.com/antchfx/htmlquery"
	"github.com/dustin/go-humanize"
	"golang.org/x/net/html"

	"github.com/jmylchreest/storepage/internal/logger"
	"github.com/jmylchreest/storepage/pkg/locator"
)

// SnapshotDriver answers driver calls from a saved HTML page. It never
// changes: a locator that does not match now will not match later, so a
// miss waits out the caller's deadline exactly like a live page would.
type SnapshotDriver struct {
	doc *html.Node

	mu     sync.Mutex
	url    string
	clicks []string
	closed bool
}

// NewSnapshotDriver parses an HTML document.
func NewSnapshotDriver(r io.Reader) (*SnapshotDriver, error) {
	doc, err := htmlquery.Parse(r)
	if err != nil {
		return nil, fmt.Errorf("failed to parse snapshot: %w", err)
	}
	return &SnapshotDriver{doc: doc}, nil
}

// SnapshotOpener returns an Opener that reads the snapshot at path.
func SnapshotOpener(path string) Opener {
	return func(ctx context.Context) (Driver, error) {
		data, err := os.ReadFile(path) //#nosec G304 -- user supplied snapshot file
		if err != nil {
			return nil, fmt.Errorf("failed to read snapshot: %w", err)
		}
		logger.Debug("snapshot loaded", "path", path, "size", humanize.Bytes(uint64(len(data))))
		return NewSnapshotDriver(bytes.NewReader(data))
	}
}

// Navigate records url; the snapshot is already "loaded".
func (d *SnapshotDriver) Navigate(ctx context.Context, url string) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.closed {
		return fmt.Errorf("snapshot session closed")
	}
	d.url = url
	logger.Debug("snapshot navigation", "url", url)
	return nil
}

// URL returns the last navigated URL.
func (d *SnapshotDriver) URL() string {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.url
}

// Clicks returns the locators clicked so far, in order.
func (d *SnapshotDriver) Clicks() []string {
	d.mu.Lock()
	defer d.mu.Unlock()
	return append([]string(nil), d.clicks...)
}

// Text returns the whitespace-normalised text of the first match.
func (d *SnapshotDriver) Text(ctx context.Context, loc locator.Locator, cond Condition) (string, error) {
	node, err := d.wait(ctx, loc, cond)
	if err != nil {
		return "", err
	}
	return strings.Join(strings.Fields(htmlquery.InnerText(node)), " "), nil
}

// Attribute returns the named attribute of the first present match.
func (d *SnapshotDriver) Attribute(ctx context.Context, loc locator.Locator, name string) (string, error) {
	node, err := d.wait(ctx, loc, Present)
	if err != nil {
		return "", err
	}
	for _, attr := range node.Attr {
		if attr.Key == name {
			return attr.Val, nil
		}
	}
	return "", fmt.Errorf("%w: %s on %s", ErrAttributeMissing, name, loc)
}

// Click succeeds when a clickable match exists. The page does not react.
func (d *SnapshotDriver) Click(ctx context.Context, loc locator.Locator) error {
	if _, err := d.wait(ctx, loc, Clickable); err != nil {
		return err
	}
	d.mu.Lock()
	d.clicks = append(d.clicks, loc.String())
	d.mu.Unlock()
	return nil
}

// Close marks the session closed.
func (d *SnapshotDriver) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.closed = true
	return nil
}

func (d *SnapshotDriver) wait(ctx context.Context, loc locator.Locator, cond Condition) (*html.Node, error) {
	nodes, err := d.find(loc)
	if err != nil {
		return nil, err
	}
	for _, n := range nodes {
		if satisfies(n, cond) {
			return n, nil
		}
	}
	if _, ok := ctx.Deadline(); !ok {
		return nil, fmt.Errorf("%w %s", ErrElementTimeout, loc)
	}
	<-ctx.Done()
	return nil, timeoutError(ctx, loc, ctx.Err())
}

func (d *SnapshotDriver) find(loc locator.Locator) ([]*html.Node, error) {
	switch loc.Strategy {
	case locator.CSS:
		return goquery.NewDocumentFromNode(d.doc).Find(loc.Query).Nodes, nil
	case locator.XPath, "":
		nodes, err := htmlquery.QueryAll(d.doc, loc.Query)
		if err != nil {
			return nil, fmt.Errorf("invalid xpath %q: %w", loc.Query, err)
		}
		return nodes, nil
	default:
		return nil, fmt.Errorf("unsupported locator strategy %q", loc.Strategy)
	}
}

func satisfies(n *html.Node, cond Condition) bool {
	switch cond {
	case Visible:
		return visible(n)
	case Clickable:
		return visible(n) && !hasAttr(n, "disabled")
	default:
		return true
	}
}

// visible approximates rendering: nothing on the ancestor chain may be
// hidden by attribute or inline style, or be a non-rendered element.
func visible(n *html.Node) bool {
	for cur := n; cur != nil; cur = cur.Parent {
		if cur.Type != html.ElementNode {
			continue
		}
		switch cur.Data {
		case "head", "script", "style", "template", "noscript":
			return false
		}
		// aria-hidden only affects assistive technology; the element still renders.
		if hasAttr(cur, "hidden") {
			return false
		}
		if cur.Data == "input" && strings.EqualFold(attr(cur, "type"), "hidden") {
			return false
		}
		style := strings.ReplaceAll(strings.ToLower(attr(cur, "style")), " ", "")
		if strings.Contains(style, "display:none") || strings.Contains(style, "visibility:hidden") {
			return false
		}
	}
	return true
}

func hasAttr(n *html.Node, key string) bool {
	for _, a := range n.Attr {
		if a.Key == key {
			return true
		}
	}
	return false
}

func attr(n *html.Node, key string) string {
	for _, a := range n.Attr {
		if a.Key == key {
			return a.Val
		}
	}
	return ""
}
