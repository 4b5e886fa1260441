// Package media resolves and deduplicates image, video, and card references
// found inside an item element. URLs on the media CDN are canonicalized so
// that duplicate detection is insensitive to requested format and size.
package media

import (
	"net/url"
	"regexp"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/threadprint/threadprint/internal/thread"
)

var (
	sizeParamRe  = regexp.MustCompile(`name=\w+`)
	bgImageRe    = regexp.MustCompile(`url\(["']?([^"')]+)["']?\)`)
	cardSelector = `[data-testid="card.wrapper"], [data-testid="card.layoutSmall"], [data-testid="card.layoutLarge"]`
)

// CanonicalizeURL strips all query parameters except format and name from
// media CDN URLs, making format/size variants of the same asset compare
// equal. Other hosts pass through normalized; on parse failure the input is
// returned verbatim.
func CanonicalizeURL(raw string) string {
	if raw == "" {
		return ""
	}
	u, err := url.Parse(raw)
	if err != nil || u.Host == "" {
		return raw
	}
	if strings.HasSuffix(u.Hostname(), "twimg.com") {
		q := u.Query()
		kept := url.Values{}
		if v := q.Get("format"); v != "" {
			kept.Set("format", v)
		}
		if v := q.Get("name"); v != "" {
			kept.Set("name", v)
		}
		u.RawQuery = kept.Encode()
	}
	return u.String()
}

// UpgradeImageURL rewrites thumbnail size hints to request the large variant.
func UpgradeImageURL(src string) string {
	if strings.Contains(src, "name=") {
		return sizeParamRe.ReplaceAllString(src, "name=large")
	}
	return src
}

// DedupeImages removes duplicates by canonical URL, first occurrence wins,
// order preserved. Entries whose URL canonicalizes to "" are dropped.
func DedupeImages(images []thread.Image) []thread.Image {
	out := make([]thread.Image, 0, len(images))
	seen := map[string]bool{}
	for _, img := range images {
		key := CanonicalizeURL(img.URL)
		if key == "" || seen[key] {
			continue
		}
		seen[key] = true
		out = append(out, img)
	}
	return out
}

// Extract returns all media attached to one item element. Image discovery
// cascades from dedicated photo containers to a generic <img> sweep filtered
// to exclude avatars and emoji, used only when the specific pass finds
// nothing. Video discovery records a poster reference; actual video byte
// sources are resolved later by enrichment, not here.
func Extract(sel *goquery.Selection) thread.Media {
	m := thread.Media{Images: []thread.Image{}, Videos: []thread.Video{}}

	sel.Find(`[data-testid="tweetPhoto"] img`).Each(func(_ int, img *goquery.Selection) {
		src, _ := img.Attr("src")
		src = UpgradeImageURL(src)
		if src == "" || strings.Contains(src, "profile_images") || strings.Contains(src, "emoji") {
			return
		}
		m.Images = append(m.Images, thread.Image{
			URL:    src,
			Alt:    img.AttrOr("alt", ""),
			Width:  attrInt(img, "width"),
			Height: attrInt(img, "height"),
		})
	})

	if len(m.Images) == 0 {
		sel.Find("img").Each(func(_ int, img *goquery.Selection) {
			src, _ := img.Attr("src")
			if src == "" || !strings.Contains(src, "twimg.com") {
				return
			}
			if strings.Contains(src, "profile_images") || strings.Contains(src, "emoji") {
				return
			}
			m.Images = append(m.Images, thread.Image{
				URL:    src,
				Alt:    img.AttrOr("alt", ""),
				Width:  attrInt(img, "width"),
				Height: attrInt(img, "height"),
			})
		})
	}
	m.Images = DedupeImages(m.Images)

	sel.Find(`[data-testid="videoPlayer"]`).Each(func(_ int, player *goquery.Selection) {
		m.Videos = append(m.Videos, thread.Video{Poster: posterURL(player)})
	})

	if card := sel.Find(cardSelector).First(); card.Length() > 0 {
		c := &thread.Card{
			URL:   card.Find("a").First().AttrOr("href", ""),
			Image: card.Find("img").First().AttrOr("src", ""),
			Title: strings.TrimSpace(card.Find(`[data-testid$=".detail"] span`).First().Text()),
		}
		if c.URL != "" || c.Image != "" || c.Title != "" {
			m.Card = c
		}
	}

	return m
}

// posterURL resolves a video poster by precedence: the <video> poster
// attribute, a nested <img>, then a CSS background-image URL.
func posterURL(player *goquery.Selection) string {
	if poster := player.Find("video").First().AttrOr("poster", ""); poster != "" {
		return poster
	}
	if src := player.Find("img").First().AttrOr("src", ""); src != "" {
		return src
	}
	var poster string
	player.Find(`[style*="background-image"]`).EachWithBreak(func(_ int, div *goquery.Selection) bool {
		style, _ := div.Attr("style")
		if m := bgImageRe.FindStringSubmatch(style); m != nil {
			poster = m[1]
			return false
		}
		return true
	})
	return poster
}

func attrInt(sel *goquery.Selection, name string) int {
	v, ok := sel.Attr(name)
	if !ok {
		return 0
	}
	n, err := strconv.Atoi(strings.TrimSpace(v))
	if err != nil {
		return 0
	}
	return n
}
