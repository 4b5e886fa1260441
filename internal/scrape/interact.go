package scrape

import (
	"context"
	"time"

	"github.com/rs/zerolog/log"
)

// expandKeywords matches "show more / expand / translate" affordances across
// the locales the page is known to render.
var expandKeywords = []string{
	"Show more",
	"Show",
	"View",
	"Read more",
	"显示更多",
	"展开",
	"显示",
	"查看更多",
	"查看",
	"翻译",
}

const expandSelector = `div[role="button"], button, a[role="button"]`

// WaitUntilStable polls the page until the item count and the unique status
// id count stop changing for cfg.StableTicks consecutive polls, or until the
// timeout elapses. Callers must treat a timeout as "proceed with best
// effort", never as an error; only snapshot failures are returned.
func WaitUntilStable(ctx context.Context, p Page, cfg Config) (bool, error) {
	cfg = cfg.withDefaults()
	deadline := time.Now().Add(cfg.StableTimeout)

	lastIDs, lastItems, stable := -1, -1, 0
	for time.Now().Before(deadline) {
		htmlStr, err := p.HTML(ctx)
		if err != nil {
			return false, err
		}
		doc, err := Snapshot(htmlStr)
		if err != nil {
			return false, err
		}
		root := ConversationRoot(doc)
		idCount := len(ConversationIDs(root))
		itemCount := len(Items(doc))

		if idCount == lastIDs && itemCount == lastItems {
			stable++
			if stable >= cfg.StableTicks && (idCount > 0 || itemCount > 0) {
				return true, nil
			}
		} else {
			stable = 0
			lastIDs, lastItems = idCount, itemCount
		}

		select {
		case <-ctx.Done():
			return false, ctx.Err()
		case <-time.After(cfg.StablePoll):
		}
	}
	return false, nil
}

// ExpandTruncated activates expand affordances, bounded by
// cfg.MaxExpandClicks so a page that re-renders buttons cannot trap the
// scraper in an interaction loop. Best effort: click failures end the pass.
func ExpandTruncated(ctx context.Context, p Page, cfg Config) int {
	cfg = cfg.withDefaults()
	clicks, err := p.ClickByText(ctx, expandSelector, expandKeywords, cfg.MaxExpandClicks)
	if err != nil {
		log.Debug().Err(err).Msg("expand pass ended early")
	}
	return clicks
}

// TriggerLazyLoad scrolls in increments to force lazy-rendered items in,
// stopping early after two consecutive scrolls without item-count growth or
// after cfg.MaxScrolls rounds.
func TriggerLazyLoad(ctx context.Context, p Page, cfg Config) error {
	cfg = cfg.withDefaults()

	count := func() int {
		htmlStr, err := p.HTML(ctx)
		if err != nil {
			return -1
		}
		doc, err := Snapshot(htmlStr)
		if err != nil {
			return -1
		}
		return len(Items(doc))
	}

	lastCount := count()
	noGrowth := 0
	for i := 0; i < cfg.MaxScrolls; i++ {
		if err := p.ScrollBy(ctx, 600); err != nil {
			return err
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(cfg.ScrollSettle):
		}

		next := count()
		if next > lastCount {
			lastCount = next
			noGrowth = 0
			continue
		}
		noGrowth++
		if noGrowth >= 2 {
			break
		}
	}
	return nil
}
