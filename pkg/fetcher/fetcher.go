// Package fetcher downloads the server-rendered HTML of a product page so it
// can be scraped later with the snapshot driver, without a browser.
package fetcher

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/dustin/go-humanize"
	"github.com/gocolly/colly/v2"

	"github.com/jmylchreest/storepage/internal/logger"
)

// ErrUnexpectedStatus is returned when the page answers with a non-2xx status.
// Check with errors.Is(err, fetcher.ErrUnexpectedStatus).
var ErrUnexpectedStatus = errors.New("unexpected status")

// Chrome user agent; the store serves a reduced page to unknown clients.
const defaultUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"

// Config controls a fetch.
type Config struct {
	UserAgent string
	Timeout   time.Duration // Whole request; zero means no limit beyond ctx
	Language  string        // sent as Accept-Language when set
}

// DefaultConfig returns sensible defaults.
func DefaultConfig() Config {
	return Config{
		UserAgent: defaultUserAgent,
		Timeout:   30 * time.Second,
	}
}

// Page is a downloaded product page.
type Page struct {
	URL         string
	HTML        []byte
	Title       string
	StatusCode  int
	ContentType string
	FetchedAt   time.Time
}

// Fetch downloads targetURL with colly.
func Fetch(ctx context.Context, targetURL string, cfg Config) (Page, error) {
	if cfg.UserAgent == "" {
		cfg.UserAgent = DefaultConfig().UserAgent
	}

	page := Page{URL: targetURL, FetchedAt: time.Now()}

	c := colly.NewCollector(
		colly.UserAgent(cfg.UserAgent),
		colly.StdlibContext(ctx),
	)
	// colly applies its own 10s client timeout unless told otherwise.
	c.SetRequestTimeout(cfg.Timeout)

	if cfg.Language != "" {
		c.OnRequest(func(r *colly.Request) {
			r.Headers.Set("Accept-Language", cfg.Language)
		})
	}

	var fetchErr error
	c.OnResponse(func(r *colly.Response) {
		page.StatusCode = r.StatusCode
		page.ContentType = r.Headers.Get("Content-Type")
		page.HTML = r.Body
	})
	c.OnError(func(r *colly.Response, err error) {
		if r != nil && r.StatusCode != 0 {
			page.StatusCode = r.StatusCode
			fetchErr = fmt.Errorf("%w %d from %s", ErrUnexpectedStatus, r.StatusCode, targetURL)
			return
		}
		fetchErr = fmt.Errorf("fetch error: %w", err)
	})

	logger.Debug("fetching page", "url", targetURL, "user_agent", cfg.UserAgent, "timeout", cfg.Timeout)
	if err := c.Visit(targetURL); err != nil && fetchErr == nil {
		return page, fmt.Errorf("failed to visit URL: %w", err)
	}
	if fetchErr != nil {
		return page, fetchErr
	}

	page.Title = title(page.HTML)
	logger.Debug("page fetched",
		"status", page.StatusCode,
		"content_type", page.ContentType,
		"size", humanize.Bytes(uint64(len(page.HTML))),
		"title", page.Title)
	return page, nil
}

func title(body []byte) string {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return ""
	}
	return strings.Join(strings.Fields(doc.Find("title").First().Text()), " ")
}
