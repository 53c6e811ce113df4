package scraper

import (
	"errors"
	"fmt"
)

var (
	// ErrNoEntries means no item selector matched anything on the page
	ErrNoEntries = errors.New("no product entries found")
	// ErrBotWall means the page looks like a bot-detection response
	ErrBotWall = errors.New("bot detection page")
	// ErrEmptyEntry means a product entry carried no text at all
	ErrEmptyEntry = errors.New("empty product entry")
)

// ExtractionError wraps a failure in one extraction stage with the selector
// and entry position it happened at.
type ExtractionError struct {
	Stage    string
	Selector string
	Index    int
	Err      error
}

func (e *ExtractionError) Error() string {
	if e.Selector != "" {
		return fmt.Sprintf("extract %s (entry %d, selector %q): %v", e.Stage, e.Index, e.Selector, e.Err)
	}
	return fmt.Sprintf("extract %s (entry %d): %v", e.Stage, e.Index, e.Err)
}

func (e *ExtractionError) Unwrap() error { return e.Err }
