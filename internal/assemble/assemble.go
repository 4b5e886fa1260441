// Package assemble orchestrates scraping and enrichment into one ordered,
// deduplicated thread Document. Progress is a forward-only state machine;
// every step failure short of total absence of content degrades the result
// instead of aborting it.
package assemble

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/rs/zerolog/log"

	"github.com/threadprint/threadprint/internal/extract"
	"github.com/threadprint/threadprint/internal/media"
	"github.com/threadprint/threadprint/internal/scrape"
	"github.com/threadprint/threadprint/internal/syndication"
	"github.com/threadprint/threadprint/internal/textnorm"
	"github.com/threadprint/threadprint/internal/thread"
)

// ErrNoContent is the single hard failure: nothing usable could be produced
// from the page at all.
var ErrNoContent = errors.New("no content could be extracted")

// State names one phase of assembly. Transitions are strictly forward; a
// stability timeout advances, never retries.
type State string

const (
	StateIdle          State = "idle"
	StateLocatingRoot  State = "locating_root"
	StateWaitingStable State = "waiting_stable"
	StateExpanding     State = "expanding"
	StateLazyLoading   State = "lazy_loading"
	StateExtracting    State = "extracting"
	StateEnriching     State = "enriching"
	StateMerging       State = "merging"
	StateDone          State = "done"
)

// SiteLabel is the thread-level source label for assembled thread documents.
const SiteLabel = "X (Twitter)"

var digitsRe = regexp.MustCompile(`^\d+$`)

// Enricher fetches supplementary content for one status id. Implemented by
// *syndication.Client; nil disables enrichment entirely.
type Enricher interface {
	Fetch(ctx context.Context, id, lang string) (*syndication.Payload, error)
}

// Assembler produces thread Documents from live pages. The zero value works;
// fields override scraping bounds and enrichment behavior.
type Assembler struct {
	Scrape    scrape.Config
	Enrich    Enricher
	Lang      string
	MaxEnrich int // cap on sequential enrichment calls, default 12

	// Now supplies the extraction timestamp; defaults to time.Now.
	Now func() time.Time

	state State
}

func (a *Assembler) transition(s State) {
	a.state = s
	log.Debug().Str("state", string(s)).Msg("assembly state")
}

// Assemble runs the full pipeline against one live page. The returned
// Document holds items in final merge order with contiguous ordinals. The
// only error condition is ErrNoContent.
func (a *Assembler) Assemble(ctx context.Context, p scrape.Page) (*thread.Document, error) {
	a.transition(StateLocatingRoot)

	a.transition(StateWaitingStable)
	if _, err := scrape.WaitUntilStable(ctx, p, a.Scrape); err != nil {
		log.Warn().Err(err).Msg("stability wait failed; proceeding with current state")
	}

	a.transition(StateExpanding)
	if clicks := scrape.ExpandTruncated(ctx, p, a.Scrape); clicks > 0 {
		log.Debug().Int("clicks", clicks).Msg("expanded truncated content")
	}

	a.transition(StateLazyLoading)
	if err := scrape.TriggerLazyLoad(ctx, p, a.Scrape); err != nil {
		log.Warn().Err(err).Msg("lazy-load pass failed; proceeding")
	}

	a.transition(StateExtracting)
	htmlStr, err := p.HTML(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrNoContent, err)
	}
	doc, err := scrape.Snapshot(htmlStr)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrNoContent, err)
	}

	pageURL := p.URL()
	focalID := scrape.StatusIDFromURL(pageURL)
	items := a.extractItems(doc, focalID)
	items = a.ensureFocal(doc, items, focalID, pageURL)

	a.transition(StateMerging)
	items = mergeByConversationOrder(items, scrape.ConversationIDs(scrape.ConversationRoot(doc)))
	items = dedupe(items)

	a.transition(StateEnriching)
	a.enrich(ctx, items)

	if len(items) == 0 {
		return nil, ErrNoContent
	}

	a.transition(StateDone)
	info := scrape.Info(doc, pageURL)
	out := &thread.Document{
		Kind:        thread.ThreadPost,
		Title:       info.Title,
		Author:      info.Author,
		SourceURL:   pageURL,
		PublishedAt: info.PublishedAt,
		ExtractedAt: a.now().UTC().Format(time.RFC3339),
		Items:       items,
		SiteLabel:   SiteLabel,
	}
	out.Renumber()
	return out, nil
}

// extractItems converts item elements into raw items, dropping both the
// individually-failed and the empty (no text, no media) ones.
func (a *Assembler) extractItems(doc *goquery.Document, focalID string) []thread.Item {
	var items []thread.Item
	for i, el := range scrape.Items(doc) {
		it, err := scrape.ExtractItem(el, i)
		if err != nil {
			log.Warn().Err(err).Int("index", i).Msg("dropping item")
			continue
		}
		if it.Text == "" && !it.HasMedia() {
			continue
		}
		items = append(items, it)
	}

	// A long post renders its full body in page-level longform blocks while
	// the item element holds a truncated preview. Upgrade the focal item
	// when the longform is meaningfully longer.
	if focalID != "" {
		if longform := scrape.LongformText(doc); longform != "" {
			for i := range items {
				if items[i].ExternalID != focalID {
					continue
				}
				if len(longform) > len(items[i].Text)+40 {
					items[i].Text = longform
					if h := scrape.LongformHTML(doc); h != "" {
						items[i].HTML = h
					}
				}
				break
			}
		}
	}
	return items
}

// ensureFocal synthesizes the focal item from page-level fallback metadata
// when no extracted item matches the page's own status id, preferring the
// longer of the longform and meta-description candidates.
func (a *Assembler) ensureFocal(doc *goquery.Document, items []thread.Item, focalID, pageURL string) []thread.Item {
	if focalID == "" {
		return items
	}
	for _, it := range items {
		if it.ExternalID == focalID {
			return items
		}
	}

	longform := scrape.LongformText(doc)
	metaText := scrape.MetaText(doc)
	chosen := metaText
	html := ""
	if len(longform) >= len(metaText) {
		chosen = longform
		html = scrape.LongformHTML(doc)
	}
	if chosen == "" || textnorm.IsRejected(chosen) {
		return items
	}

	info := scrape.Info(doc, pageURL)
	focal := thread.Item{
		ID:         "tweet-" + focalID,
		ExternalID: focalID,
		Text:       chosen,
		HTML:       html,
		Author:     info.Author,
		Timestamp:  info.PublishedAt,
		Media:      emptyMedia(),
		Selected:   true,
	}
	return append([]thread.Item{focal}, items...)
}

// mergeByConversationOrder reorders items to match the authoritative id list
// exactly, inserting empty placeholders for ids missing from the DOM and
// appending extracted items absent from the list at the end.
func mergeByConversationOrder(items []thread.Item, orderedIDs []string) []thread.Item {
	if len(orderedIDs) == 0 {
		return items
	}

	byID := map[string]thread.Item{}
	for _, it := range items {
		if it.ExternalID != "" {
			if _, dup := byID[it.ExternalID]; !dup {
				byID[it.ExternalID] = it
			}
		}
	}

	merged := make([]thread.Item, 0, len(orderedIDs))
	for _, id := range orderedIDs {
		if it, ok := byID[id]; ok {
			merged = append(merged, it)
			continue
		}
		merged = append(merged, thread.Item{
			ID:         "tweet-" + id,
			ExternalID: id,
			Media:      emptyMedia(),
			Selected:   true,
		})
	}

	listed := map[string]bool{}
	for _, id := range orderedIDs {
		listed[id] = true
	}
	for _, it := range items {
		if it.ExternalID != "" && listed[it.ExternalID] {
			continue
		}
		merged = append(merged, it)
	}
	return merged
}

// dedupe keeps first occurrences, keyed by external id when present and by a
// (timestamp, text) composite otherwise.
func dedupe(items []thread.Item) []thread.Item {
	out := make([]thread.Item, 0, len(items))
	seen := map[string]bool{}
	for _, it := range items {
		key := it.ExternalID
		if key == "" {
			key = it.Timestamp + "::" + it.Text
		}
		if seen[key] {
			continue
		}
		seen[key] = true
		out = append(out, it)
	}
	return out
}

// enrich fills missing text and media from the syndication endpoint for a
// bounded number of items, sequentially so outstanding requests stay bounded
// and output stays deterministic. Merges are non-destructive.
func (a *Assembler) enrich(ctx context.Context, items []thread.Item) {
	if a.Enrich == nil {
		return
	}
	max := a.MaxEnrich
	if max <= 0 {
		max = 12
	}

	done := 0
	for i := range items {
		if done >= max {
			break
		}
		it := &items[i]
		if it.ExternalID == "" || !digitsRe.MatchString(it.ExternalID) {
			continue
		}
		needsText := it.Text == "" || textnorm.IsRejected(it.Text) || textnorm.IsTruncated(it.Text)
		needsMedia := !it.HasMedia()
		if !needsText && !needsMedia {
			continue
		}

		done++
		payload, err := a.Enrich.Fetch(ctx, it.ExternalID, a.Lang)
		if err != nil {
			log.Warn().Err(err).Str("id", it.ExternalID).Msg("enrichment fetch failed")
			continue
		}

		if needsText {
			if text := syndication.TextFromPayload(payload); text != "" {
				it.Text = text
			}
		}
		if needsMedia {
			fetched := syndication.MediaFromPayload(payload)
			it.Media.Images = media.DedupeImages(append(it.Media.Images, fetched.Images...))
			it.Media.Videos = append(it.Media.Videos, fetched.Videos...)
		}
	}

	for i := range items {
		items[i].Media.Images = media.DedupeImages(items[i].Media.Images)
	}
}

// Generic assembles a single-item article Document for pages that are not
// recognizable threads.
func (a *Assembler) Generic(pageURL, htmlStr string) (*thread.Document, error) {
	art := extract.FromHTML([]byte(htmlStr))
	text := textnorm.Normalize(art.Text)
	if text == "" && art.Excerpt == "" {
		return nil, ErrNoContent
	}

	site := art.SiteName
	if site == "" {
		site = "Web"
	}
	out := &thread.Document{
		Kind:        thread.GenericArticle,
		Title:       art.Title,
		Author:      thread.Author{Name: art.Byline},
		SourceURL:   pageURL,
		ExtractedAt: a.now().UTC().Format(time.RFC3339),
		SiteLabel:   site,
		Items: []thread.Item{{
			ID:       "item-0",
			Text:     text,
			Media:    emptyMedia(),
			Selected: true,
		}},
	}
	out.Renumber()
	return out, nil
}

func (a *Assembler) now() time.Time {
	if a.Now != nil {
		return a.Now()
	}
	return time.Now()
}

func emptyMedia() thread.Media {
	return thread.Media{Images: []thread.Image{}, Videos: []thread.Video{}}
}
