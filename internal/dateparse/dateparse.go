// Package dateparse wraps free-text date parsing behind a small interface so
// the orchestrator does not depend on any particular parser.
package dateparse

import (
	"strings"
	"time"

	adp "github.com/araddon/dateparse"
)

// Parser turns user-entered text into an absolute UTC instant. A false
// result means the text was not understood; that is a validation outcome,
// not an error.
type Parser interface {
	Parse(text, tz string) (time.Time, bool)
}

// Natural parses a broad range of date/time formats, interpreting naive
// inputs in the user's timezone and normalizing the result to UTC.
type Natural struct{}

// NewNatural creates a Natural parser
func NewNatural() *Natural {
	return &Natural{}
}

// Parse implements Parser
func (p *Natural) Parse(text, tz string) (time.Time, bool) {
	text = strings.TrimSpace(text)
	if text == "" {
		return time.Time{}, false
	}

	loc, err := time.LoadLocation(tz)
	if err != nil {
		loc = time.UTC
	}

	t, err := adp.ParseIn(text, loc)
	if err != nil {
		return time.Time{}, false
	}
	return t.UTC(), true
}
