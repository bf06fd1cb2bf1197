// Package datefmt owns the day/month/year string that datePosted travels as.
package datefmt

import (
	"fmt"
	"strings"
	"time"
)

const (
	wireLayout    = "02/01/2006"
	parseLayout   = "2/1/2006"
	inputLayout   = "2006-01-02"
	displayLayout = "January 2, 2006"

	// Placeholder is shown when a stored date cannot be rendered.
	Placeholder = "Unknown date"
)

// Format renders t as the wire string, e.g. "31/12/2023".
func Format(t time.Time) string {
	return t.Format(wireLayout)
}

// Parse reads a wire string. Day and month may omit their leading zero.
func Parse(s string) (time.Time, error) {
	t, err := time.Parse(parseLayout, strings.TrimSpace(s))
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q: %w", s, err)
	}
	return t, nil
}

// ParseInput accepts either an HTML date input value (YYYY-MM-DD) or a wire string.
func ParseInput(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if t, err := time.Parse(inputLayout, s); err == nil {
		return t, nil
	}
	return Parse(s)
}

// Display renders a stored wire string for people, falling back to Placeholder.
func Display(s string) string {
	t, err := Parse(s)
	if err != nil {
		return Placeholder
	}
	return t.Format(displayLayout)
}
