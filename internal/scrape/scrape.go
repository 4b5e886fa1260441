// Package scrape locates and extracts thread items from a rendered page. The
// page structure is adversarial: selectors drift between deployments, content
// renders asynchronously, and long posts lazy-load on scroll. Every query here
// is therefore a cascade of strategies evaluated in priority order, falling
// back to broader matches only when the specific one yields nothing.
package scrape

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"

	"github.com/threadprint/threadprint/internal/extract"
	"github.com/threadprint/threadprint/internal/media"
	"github.com/threadprint/threadprint/internal/textnorm"
	"github.com/threadprint/threadprint/internal/thread"
)

var (
	pageStatusRe = regexp.MustCompile(`/status(?:es)?/(\d+)`)
	hrefStatusRe = regexp.MustCompile(`/status/(\d+)`)
)

// preferredRootLabels ranks landmark region labels; the first match wins.
var preferredRootLabels = []string{
	"Timeline: Conversation",
	"Timeline: Thread",
	"Timeline: Search timeline",
	"Conversation",
	"Thread",
	"对话",
	"会话",
	"帖子",
}

// StatusIDFromURL returns the digits of the status id embedded in the page's
// own address, or "" when the URL does not address a single status.
func StatusIDFromURL(pageURL string) string {
	if m := pageStatusRe.FindStringSubmatch(pageURL); m != nil {
		return m[1]
	}
	return ""
}

// StatusIDOf returns the status id of one item element, taken from the first
// permalink anchor inside it.
func StatusIDOf(sel *goquery.Selection) string {
	var id string
	sel.Find(`a[href*="/status/"]`).EachWithBreak(func(_ int, a *goquery.Selection) bool {
		href, _ := a.Attr("href")
		if m := hrefStatusRe.FindStringSubmatch(href); m != nil {
			id = m[1]
			return false
		}
		return true
	})
	return id
}

// ConversationRoot selects the narrowest region plausibly containing the
// conversation: a labeled timeline region by rank, then the primary content
// region, then the whole document body.
func ConversationRoot(doc *goquery.Document) *goquery.Selection {
	timelines := doc.Find(`div[aria-label^="Timeline:"]`)
	if timelines.Length() > 0 {
		for _, key := range preferredRootLabels {
			var hit *goquery.Selection
			timelines.EachWithBreak(func(_ int, tl *goquery.Selection) bool {
				if strings.Contains(tl.AttrOr("aria-label", ""), key) {
					hit = tl
					return false
				}
				return true
			})
			if hit != nil {
				return hit
			}
		}
		return timelines.First()
	}
	if main := doc.Find("main").First(); main.Length() > 0 {
		return main
	}
	return doc.Find("body").First()
}

// ConversationIDs returns the authoritative list of status ids under root in
// document order, deduplicated. An empty result means the page exposes no
// usable order and extracted DOM order stands.
func ConversationIDs(root *goquery.Selection) []string {
	var ids []string
	seen := map[string]bool{}
	root.Find(`a[href*="/status/"]`).Each(func(_ int, a *goquery.Selection) {
		href, _ := a.Attr("href")
		m := hrefStatusRe.FindStringSubmatch(href)
		if m == nil || seen[m[1]] {
			return
		}
		seen[m[1]] = true
		ids = append(ids, m[1])
	})
	return ids
}

// ItemElements collects candidate item containers under root. The selector
// cascade prefers the most specific structural match, widening only on zero
// results; containers reachable by walking up from a permalink anchor are
// always included to catch items the primary selectors miss. The result is
// identity-deduplicated and in document order.
func ItemElements(root *goquery.Selection) []*goquery.Selection {
	set := map[*html.Node]bool{}

	add := func(sel *goquery.Selection) {
		sel.Each(func(_ int, s *goquery.Selection) {
			for _, n := range s.Nodes {
				set[n] = true
			}
		})
	}

	add(root.Find(`article[data-testid="tweet"]`))
	if len(set) == 0 {
		add(root.Find(`article[tabindex="0"]`))
	}
	if len(set) == 0 {
		add(root.Find("article"))
	}

	root.Find(`a[href*="/status/"]`).Each(func(_ int, a *goquery.Selection) {
		if article := a.Closest("article"); article.Length() > 0 {
			for _, n := range article.Nodes {
				set[n] = true
			}
		}
	})

	// Re-enumerate all articles in document order and keep set members, so
	// the permalink walk cannot perturb ordering.
	var out []*goquery.Selection
	root.Find("article").Each(func(_ int, s *goquery.Selection) {
		if len(s.Nodes) == 1 && set[s.Nodes[0]] {
			out = append(out, s)
			delete(set, s.Nodes[0])
		}
	})
	return out
}

// Items returns item elements from the scoped conversation root, retrying
// against the whole document when the scoped pass finds nothing.
func Items(doc *goquery.Document) []*goquery.Selection {
	root := ConversationRoot(doc)
	if scoped := ItemElements(root); len(scoped) > 0 {
		return scoped
	}
	return ItemElements(doc.Selection)
}

// ExtractItem produces one raw item from an element. A per-item failure is
// reported as an error and the caller drops the item; nothing here is fatal
// to the whole extraction.
func ExtractItem(sel *goquery.Selection, index int) (it thread.Item, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("item %d: %v", index, r)
		}
	}()

	statusID := StatusIDOf(sel)
	text := itemText(sel)
	htmlBody := itemHTML(sel)

	id := fmt.Sprintf("tweet-%d", index)
	if statusID != "" {
		id = "tweet-" + statusID
	}

	userEl := sel.Find(`[data-testid="User-Name"]`).First()
	timeEl := sel.Find("time").First()

	it = thread.Item{
		Ordinal:    index,
		ID:         id,
		ExternalID: statusID,
		Text:       text,
		HTML:       htmlBody,
		Author: thread.Author{
			Name:   authorName(userEl),
			Handle: authorHandle(userEl),
		},
		Timestamp:   timeEl.AttrOr("datetime", ""),
		DisplayTime: strings.TrimSpace(timeEl.Text()),
		Media:       media.Extract(sel),
		Engagement:  engagement(sel),
		Links:       links(sel),
		Selected:    true,
	}
	return it, nil
}

// itemText runs the text strategy cascade: longform content blocks first,
// then dedicated text containers, then generically-styled text containers
// excluding ones nested in media regions, keeping the longest normalized
// candidate. The generic article walk is the last resort.
func itemText(sel *goquery.Selection) string {
	if longform := longformText(sel); longform != "" {
		return longform
	}

	var candidates []*goquery.Selection
	sel.Find(`[data-testid="tweetText"]`).Each(func(_ int, el *goquery.Selection) {
		candidates = append(candidates, el)
	})
	sel.Find("div[lang]").Each(func(_ int, el *goquery.Selection) {
		if el.Closest(`[data-testid="tweetPhoto"]`).Length() > 0 {
			return
		}
		if el.Closest(`[data-testid="videoPlayer"]`).Length() > 0 {
			return
		}
		if el.Closest(`[data-testid="card.wrapper"]`).Length() > 0 {
			return
		}
		candidates = append(candidates, el)
	})
	sel.Find(`div[dir="auto"]`).Each(func(_ int, el *goquery.Selection) {
		candidates = append(candidates, el)
	})

	best := ""
	for _, el := range candidates {
		cleaned := textnorm.Normalize(el.Text())
		if len(cleaned) > len(best) {
			best = cleaned
		}
	}
	if best != "" {
		return best
	}

	inner, err := sel.Html()
	if err != nil {
		return ""
	}
	return textnorm.Normalize(extract.FromSnippet(inner))
}

// longformText returns the longest normalized text among the element's
// longform content blocks, or "".
func longformText(sel *goquery.Selection) string {
	best := ""
	sel.Find(`div[data-contents="true"]`).Each(func(_ int, b *goquery.Selection) {
		cleaned := textnorm.Normalize(b.Text())
		if len(cleaned) > len(best) {
			best = cleaned
		}
	})
	return best
}

// itemHTML extracts the rendered-markup variant of the item body: longform
// blocks joined with breaks, else the dedicated text container's markup.
func itemHTML(sel *goquery.Selection) string {
	var blocks []string
	sel.Find(`div[data-contents="true"]`).Each(func(_ int, b *goquery.Selection) {
		if h, err := b.Html(); err == nil && strings.TrimSpace(h) != "" {
			blocks = append(blocks, h)
		}
	})
	if len(blocks) > 0 {
		return fixRelativeLinks(strings.Join(blocks, "<br><br>"))
	}
	if textEl := sel.Find(`[data-testid="tweetText"]`).First(); textEl.Length() > 0 {
		if h, err := textEl.Html(); err == nil {
			return fixRelativeLinks(h)
		}
	}
	return ""
}

func fixRelativeLinks(h string) string {
	return strings.ReplaceAll(h, `href="/`, `href="https://x.com/`)
}

// LongformText returns the longest longform content block text on the whole
// page, used to upgrade the focal item's truncated text.
func LongformText(doc *goquery.Document) string {
	root := doc.Find("main").First()
	if root.Length() == 0 {
		root = doc.Find("body").First()
	}
	return longformText(root)
}

// LongformHTML is the markup counterpart of LongformText.
func LongformHTML(doc *goquery.Document) string {
	root := doc.Find("main").First()
	if root.Length() == 0 {
		root = doc.Find("body").First()
	}
	var blocks []string
	root.Find(`div[data-contents="true"]`).Each(func(_ int, b *goquery.Selection) {
		if h, err := b.Html(); err == nil && strings.TrimSpace(h) != "" {
			blocks = append(blocks, h)
		}
	})
	return fixRelativeLinks(strings.Join(blocks, "<br><br>"))
}

// metaSelectors lists description tags in probe order for the focal-item
// fallback when the DOM yields no text for the addressed status.
var metaSelectors = []string{
	`meta[property="og:description"]`,
	`meta[name="twitter:description"]`,
	`meta[property="twitter:description"]`,
	`meta[name="description"]`,
}

// MetaText returns the first usable description meta tag content with any
// trailing attribution suffix removed.
func MetaText(doc *goquery.Document) string {
	for _, sel := range metaSelectors {
		content := strings.TrimSpace(doc.Find(sel).First().AttrOr("content", ""))
		if content == "" {
			continue
		}
		normalized := textnorm.Normalize(content)
		if normalized == "" {
			continue
		}
		return textnorm.StripMetaSuffix(normalized)
	}
	return ""
}

// ThreadInfo holds head-of-thread metadata scraped from the focal element.
type ThreadInfo struct {
	Title       string
	Author      thread.Author
	PublishedAt string
}

// Info extracts thread-level metadata, preferring the element matching the
// page's own status id and falling back to the first item.
func Info(doc *goquery.Document, pageURL string) ThreadInfo {
	info := ThreadInfo{Title: strings.TrimSpace(doc.Find("title").First().Text())}

	focal := FocalElement(doc, pageURL)
	if focal == nil {
		return info
	}
	userEl := focal.Find(`[data-testid="User-Name"]`).First()
	info.Author.Name = authorName(userEl)
	info.Author.Handle = authorHandle(userEl)
	info.Author.AvatarURL = focal.Find(`img[src*="profile_images"]`).First().AttrOr("src", "")
	info.PublishedAt = focal.Find("time").First().AttrOr("datetime", "")
	return info
}

// FocalElement returns the item element whose status id matches the page
// address, or the first item when no match exists. Nil when the page has no
// item elements at all.
func FocalElement(doc *goquery.Document, pageURL string) *goquery.Selection {
	items := Items(doc)
	if len(items) == 0 {
		return nil
	}
	statusID := StatusIDFromURL(pageURL)
	if statusID == "" {
		return items[0]
	}
	for _, el := range items {
		if StatusIDOf(el) == statusID {
			return el
		}
	}
	return items[0]
}

func authorName(userEl *goquery.Selection) string {
	if userEl.Length() == 0 {
		return ""
	}
	if name := strings.TrimSpace(userEl.Find(`a[role="link"] span span`).First().Text()); name != "" {
		return name
	}
	var name string
	userEl.Find("span").EachWithBreak(func(_ int, span *goquery.Selection) bool {
		text := strings.TrimSpace(span.Text())
		if text != "" && !strings.HasPrefix(text, "@") && len(text) < 50 {
			name = text
			return false
		}
		return true
	})
	return name
}

func authorHandle(userEl *goquery.Selection) string {
	if userEl.Length() == 0 {
		return ""
	}
	var handle string
	userEl.Find("span").EachWithBreak(func(_ int, span *goquery.Selection) bool {
		text := strings.TrimSpace(span.Text())
		if strings.HasPrefix(text, "@") {
			handle = text
			return false
		}
		return true
	})
	return handle
}

func engagement(sel *goquery.Selection) thread.Engagement {
	count := func(testid string) int {
		el := sel.Find(fmt.Sprintf(`[data-testid=%q]`, testid)).First()
		if el.Length() == 0 {
			return 0
		}
		return textnorm.ParseCount(el.Find("span").First().Text())
	}
	return thread.Engagement{
		Replies:  count("reply"),
		Retweets: count("retweet"),
		Likes:    count("like"),
	}
}

func links(sel *goquery.Selection) []thread.Link {
	var out []thread.Link
	sel.Find(`a[href^="http"]`).Each(func(_ int, a *goquery.Selection) {
		href, _ := a.Attr("href")
		if href == "" {
			return
		}
		text := strings.TrimSpace(a.Text())
		if text == "" {
			text = href
		}
		out = append(out, thread.Link{URL: href, Text: text})
	})
	return out
}
