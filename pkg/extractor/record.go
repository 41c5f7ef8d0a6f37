package extractor

import (
	"errors"
	"fmt"
	"strings"
)

// ErrMalformedData indicates a derived field could not be parsed out of
// the text or attribute the page supplied.
var ErrMalformedData = errors.New("malformed upstream data")

// Record is the snapshot of one store page. Every field is independently
// optional; nil means the page did not yield it.
//
// Field order matches the JSON the tool has always emitted.
type Record struct {
	Title         *string `json:"title" yaml:"title"`
	Image         *string `json:"image" yaml:"image"`
	Size          *string `json:"size" yaml:"size"`
	Category      *string `json:"category" yaml:"category"`
	ContentRating *string `json:"contentRating" yaml:"contentRating"`
	StarRating    *string `json:"starRating" yaml:"starRating"`
	Developer     *string `json:"developer" yaml:"developer"`
	ReviewsCount  *string `json:"reviewsCount" yaml:"reviewsCount"`
	UpdatedOn     *string `json:"updatedOn" yaml:"updatedOn"`
}

// Missing returns the JSON names of absent fields.
func (r Record) Missing() []string {
	fields := []struct {
		name  string
		value *string
	}{
		{"title", r.Title},
		{"image", r.Image},
		{"size", r.Size},
		{"category", r.Category},
		{"contentRating", r.ContentRating},
		{"starRating", r.StarRating},
		{"developer", r.Developer},
		{"reviewsCount", r.ReviewsCount},
		{"updatedOn", r.UpdatedOn},
	}
	var missing []string
	for _, f := range fields {
		if f.value == nil {
			missing = append(missing, f.name)
		}
	}
	return missing
}

// ParseHeader splits the header text into title and content rating.
// Only single-word titles survive: "Clash of Clans 9+" yields title "Clash"
// and content rating "of".
func ParseHeader(header *string) (title, contentRating string, err error) {
	if header == nil {
		return "", "", fmt.Errorf("%w: header text absent", ErrMalformedData)
	}
	tokens := strings.Fields(*header)
	switch len(tokens) {
	case 0:
		return "", "", fmt.Errorf("%w: header text empty", ErrMalformedData)
	case 1:
		return tokens[0], "", fmt.Errorf("%w: header %q has no content rating", ErrMalformedData, *header)
	}
	return tokens[0], tokens[1], nil
}

// ParseImage returns the URL of the first srcset candidate.
func ParseImage(srcset *string) (string, error) {
	if srcset == nil {
		return "", fmt.Errorf("%w: artwork srcset absent", ErrMalformedData)
	}
	first, _, _ := strings.Cut(*srcset, ",")
	fields := strings.Fields(first)
	if len(fields) == 0 {
		return "", fmt.Errorf("%w: srcset %q has no candidate", ErrMalformedData, *srcset)
	}
	return fields[0], nil
}

// ParseStarRating returns the trimmed text before the first "•".
func ParseStarRating(summary *string) (string, error) {
	if summary == nil {
		return "", fmt.Errorf("%w: ratings summary absent", ErrMalformedData)
	}
	before, _, _ := strings.Cut(*summary, "•")
	return strings.TrimSpace(before), nil
}

// ParseReviewsCount returns the text between the first and second ":".
// It is deliberately not trimmed: "Liczba ocen: 2,3 mln" gives " 2,3 mln".
func ParseReviewsCount(summary *string) (string, error) {
	if summary == nil {
		return "", fmt.Errorf("%w: ratings summary absent", ErrMalformedData)
	}
	parts := strings.SplitN(*summary, ":", 3)
	if len(parts) < 2 {
		return "", fmt.Errorf("%w: ratings summary %q has no ':'", ErrMalformedData, *summary)
	}
	return parts[1], nil
}

func ptr(s string) *string {
	return &s
}
