// Package extractor runs the store page interaction script and turns the
// elements it finds into a Record.
//
// Every step is best effort. A locator that never appears costs one
// timeout, is logged, and leaves its field nil; the script carries on.
package extractor

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jmylchreest/storepage/internal/logger"
	"github.com/jmylchreest/storepage/pkg/browser"
	"github.com/jmylchreest/storepage/pkg/locator"
)

// Options configures an Extractor.
type Options struct {
	URL               string
	Locators          locator.Set
	Timeout           time.Duration // Per element wait
	NavigationTimeout time.Duration // Page load; zero means no limit beyond ctx
	Strict            bool          // Abort on the first malformed derived field
}

// DefaultTimeout is the per element wait.
const DefaultTimeout = 5 * time.Second

// Extractor runs the interaction script for one page.
type Extractor struct {
	opts Options
}

// New validates opts and returns an Extractor.
func New(opts Options) (*Extractor, error) {
	if opts.URL == "" {
		return nil, errors.New("extractor: URL is required")
	}
	if opts.Locators.Locators == nil {
		opts.Locators = locator.Default()
	}
	if err := opts.Locators.Validate(); err != nil {
		return nil, err
	}
	if opts.Timeout <= 0 {
		opts.Timeout = DefaultTimeout
	}
	return &Extractor{opts: opts}, nil
}

// Extract opens a browser session, runs the script and always closes the
// session before returning.
func (e *Extractor) Extract(ctx context.Context, open browser.Opener) (Record, error) {
	var rec Record
	err := browser.WithSession(ctx, open, func(d browser.Driver) error {
		var runErr error
		rec, runErr = e.Run(ctx, d)
		return runErr
	})
	return rec, err
}

// Run executes the script against an already open driver. The returned
// record holds whatever was collected even when an error is returned.
func (e *Extractor) Run(ctx context.Context, d browser.Driver) (Record, error) {
	start := time.Now()
	p := NewPage(d, e.opts.Timeout)
	loc := e.opts.Locators.Get
	var rec Record

	navCtx := ctx
	if e.opts.NavigationTimeout > 0 {
		var cancel context.CancelFunc
		navCtx, cancel = context.WithTimeout(ctx, e.opts.NavigationTimeout)
		defer cancel()
	}
	if err := d.Navigate(navCtx, e.opts.URL); err != nil {
		return rec, err
	}

	p.Click(ctx, loc(locator.MoreButton))

	header := p.ReadText(ctx, loc(locator.Header))
	srcset := p.ReadAttribute(ctx, loc(locator.Artwork), e.opts.Locators.ArtworkAttribute)
	rec.Developer = p.ReadText(ctx, loc(locator.Developer))
	ratings := p.ReadText(ctx, loc(locator.Ratings))
	rec.Size = p.ReadText(ctx, loc(locator.Size))
	rec.Category = p.ReadText(ctx, loc(locator.Category))

	// Derived fields are computed once all page-level reads are done.
	title, contentRating, err := ParseHeader(header)
	if title != "" {
		rec.Title = ptr(title)
	}
	if err == nil {
		rec.ContentRating = ptr(contentRating)
	} else if abort := e.malformed(ctx, "title/contentRating", err); abort != nil {
		return rec, abort
	}

	if image, err := ParseImage(srcset); err == nil {
		rec.Image = ptr(image)
	} else if abort := e.malformed(ctx, "image", err); abort != nil {
		return rec, abort
	}

	if star, err := ParseStarRating(ratings); err == nil {
		rec.StarRating = ptr(star)
	} else if abort := e.malformed(ctx, "starRating", err); abort != nil {
		return rec, abort
	}
	if reviews, err := ParseReviewsCount(ratings); err == nil {
		rec.ReviewsCount = ptr(reviews)
	} else if abort := e.malformed(ctx, "reviewsCount", err); abort != nil {
		return rec, abort
	}

	p.Click(ctx, loc(locator.VersionHistory))
	rec.UpdatedOn = p.ReadText(ctx, loc(locator.ReleaseDate))
	p.Click(ctx, loc(locator.ModalClose))

	if err := ctx.Err(); err != nil {
		return rec, interrupted(err)
	}

	logger.Info("extraction complete",
		"url", e.opts.URL,
		"missing", rec.Missing(),
		logger.Since(start))
	return rec, nil
}

// malformed applies the malformed-data policy: nil (field dropped) unless
// strict, in which case the run fails. A value that is missing because the
// run was cancelled is reported as an interruption, not as bad page data.
func (e *Extractor) malformed(ctx context.Context, field string, err error) error {
	if ctxErr := ctx.Err(); ctxErr != nil {
		if e.opts.Strict {
			return interrupted(ctxErr)
		}
		return nil
	}
	if e.opts.Strict {
		return fmt.Errorf("failed to derive %s: %w", field, err)
	}
	logger.Warn("field left empty", "field", field, "reason", err)
	return nil
}

func interrupted(err error) error {
	return fmt.Errorf("extraction interrupted: %w", err)
}
