package scrape

import (
	"context"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
)

// Page is the minimal surface the scraper needs from a live, possibly
// still-rendering page. Implementations wrap a real browser page; tests use a
// fake serving canned HTML. The scraper performs no writes to the page except
// synthetic clicks on expand affordances and scrolling.
type Page interface {
	// URL returns the page's current navigation URL.
	URL() string

	// HTML returns a snapshot of the current DOM serialized to markup.
	HTML(ctx context.Context) (string, error)

	// ClickByText dispatches a click on up to max elements matching selector
	// whose visible text contains any of the keywords. Disabled or inert
	// controls are skipped. Returns the number of clicks dispatched.
	ClickByText(ctx context.Context, selector string, keywords []string, max int) (int, error)

	// ScrollBy scrolls the nearest scrollable container, or the window, by
	// the given number of pixels.
	ScrollBy(ctx context.Context, px int) error
}

// Config carries the scraper's tunables. The zero value is usable; missing
// fields fall back to defaults matching observed page behavior.
type Config struct {
	StableTimeout time.Duration // total budget for waiting on render stability
	StablePoll    time.Duration // interval between stability polls
	StableTicks   int           // consecutive equal-count polls required

	MaxExpandClicks int           // cap on expand-affordance activations
	MaxScrolls      int           // cap on lazy-load scroll rounds
	ScrollSettle    time.Duration // pause after each scroll
}

func (c Config) withDefaults() Config {
	if c.StableTimeout <= 0 {
		c.StableTimeout = 6 * time.Second
	}
	if c.StablePoll <= 0 {
		c.StablePoll = 200 * time.Millisecond
	}
	if c.StableTicks <= 0 {
		c.StableTicks = 3
	}
	if c.MaxExpandClicks <= 0 {
		c.MaxExpandClicks = 12
	}
	if c.MaxScrolls <= 0 {
		c.MaxScrolls = 6
	}
	if c.ScrollSettle <= 0 {
		c.ScrollSettle = 260 * time.Millisecond
	}
	return c
}

// Snapshot parses a page HTML snapshot for the pure query functions.
func Snapshot(htmlStr string) (*goquery.Document, error) {
	return goquery.NewDocumentFromReader(strings.NewReader(htmlStr))
}
