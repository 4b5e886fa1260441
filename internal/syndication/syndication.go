// Package syndication fetches supplementary item content from the read-only
// content-syndication endpoint. It is used when DOM extraction leaves an item
// without full text or media; failures here are always non-fatal to the
// overall extraction.
package syndication

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"net/http"
	"net/url"
	"sort"
	"strconv"
	"strings"
	"time"

	"golang.org/x/text/language"

	"github.com/threadprint/threadprint/internal/media"
	"github.com/threadprint/threadprint/internal/textnorm"
	"github.com/threadprint/threadprint/internal/thread"
)

// DefaultBaseURL is the fixed external syndication host.
const DefaultBaseURL = "https://cdn.syndication.twimg.com"

const base36Digits = "0123456789abcdefghijklmnopqrstuvwxyz"

// Token derives the access token the endpoint expects from a numeric status
// id: (id/1e15)*pi rendered in base 36 with zero digits and the radix point
// stripped. The transform is an integration constant tied to the service's
// current expectations, not a designed algorithm, so the rendering must match
// ECMAScript Number.prototype.toString digit for digit.
func Token(id string) string {
	n, err := strconv.ParseUint(id, 10, 64)
	if err != nil || n == 0 {
		return ""
	}
	x := float64(n) / 1e15 * math.Pi
	t := strings.ReplaceAll(formatBase36(x), "0", "")
	return strings.ReplaceAll(t, ".", "")
}

// formatBase36 renders a non-negative float in base 36 with ECMAScript
// toString semantics: fractional digits are emitted until the residual drops
// below half an ULP of the input, with round-half-to-even and carry
// propagation on the final digit.
func formatBase36(x float64) string {
	integer := math.Floor(x)
	fraction := x - integer

	delta := 0.5 * (math.Nextafter(x, math.Inf(1)) - x)
	if smallest := math.Nextafter(0, 1); delta < smallest {
		delta = smallest
	}

	var frac []byte
	if fraction >= delta {
		for {
			fraction *= 36
			delta *= 36
			digit := int(fraction)
			frac = append(frac, base36Digits[digit])
			fraction -= float64(digit)
			if (fraction > 0.5 || (fraction == 0.5 && digit&1 == 1)) && fraction+delta > 1 {
				// Round up the trailing digit, carrying through any
				// 'z' digits and into the integer part if needed.
				for {
					if len(frac) == 0 {
						integer++
						break
					}
					d := strings.IndexByte(base36Digits, frac[len(frac)-1])
					if d+1 < 36 {
						frac[len(frac)-1] = base36Digits[d+1]
						break
					}
					frac = frac[:len(frac)-1]
				}
				break
			}
			if fraction < delta {
				break
			}
		}
	}

	var ip []byte
	if integer == 0 {
		ip = []byte{'0'}
	}
	for integer > 0 {
		rem := math.Mod(integer, 36)
		ip = append([]byte{base36Digits[int(rem)]}, ip...)
		integer = (integer - rem) / 36
	}

	if len(frac) == 0 {
		return string(ip)
	}
	return string(ip) + "." + string(frac)
}

// Client issues read-only lookups against the syndication endpoint.
type Client struct {
	BaseURL    string // defaults to DefaultBaseURL
	HTTPClient *http.Client
	UserAgent  string
	Timeout    time.Duration // per-request bound, default 10s
}

// Payload is the structured response for one status lookup. Field names have
// drifted across endpoint versions, so both spellings are decoded where they
// exist.
type Payload struct {
	Text               string        `json:"text"`
	FullText           string        `json:"full_text"`
	Tweet              *InnerPayload `json:"tweet"`
	QuotedTweet        *InnerPayload `json:"quoted_tweet"`
	MediaDetails       []MediaDetail `json:"mediaDetails"`
	MediaDetailsLegacy []MediaDetail `json:"media_details"`
}

// InnerPayload is the nested status shape some payload versions wrap.
type InnerPayload struct {
	Text               string        `json:"text"`
	FullText           string        `json:"full_text"`
	MediaDetails       []MediaDetail `json:"mediaDetails"`
	MediaDetailsLegacy []MediaDetail `json:"media_details"`
}

// MediaDetail is one entry of the payload's media-detail list.
type MediaDetail struct {
	Type          string     `json:"type"`
	MediaURLHTTPS string     `json:"media_url_https"`
	MediaURL      string     `json:"media_url"`
	URL           string     `json:"url"`
	Poster        string     `json:"poster"`
	ExtAltText    string     `json:"ext_alt_text"`
	VideoInfo     *VideoInfo `json:"video_info"`
	VideoInfoAlt  *VideoInfo `json:"videoInfo"`
}

// VideoInfo lists the downloadable variants of a video.
type VideoInfo struct {
	Variants []Variant `json:"variants"`
}

// Variant is one encoded rendition of a video.
type Variant struct {
	ContentType string `json:"content_type"`
	URL         string `json:"url"`
	Bitrate     int    `json:"bitrate"`
}

// Fetch looks up one status by id. Credentials are omitted; a non-2xx status
// is a hard failure for this one call only.
func (c *Client) Fetch(ctx context.Context, id, lang string) (*Payload, error) {
	base := c.BaseURL
	if base == "" {
		base = DefaultBaseURL
	}
	u, err := url.Parse(base)
	if err != nil {
		return nil, err
	}
	u.Path = strings.TrimRight(u.Path, "/") + "/tweet-result"

	q := u.Query()
	q.Set("id", id)
	if tag := normalizeLang(lang); tag != "" {
		q.Set("lang", tag)
	}
	if token := Token(id); token != "" {
		q.Set("token", token)
	}
	u.RawQuery = q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return nil, err
	}
	if c.UserAgent != "" {
		req.Header.Set("User-Agent", c.UserAgent)
	}

	hc := c.HTTPClient
	if hc == nil {
		timeout := c.Timeout
		if timeout <= 0 {
			timeout = 10 * time.Second
		}
		hc = &http.Client{Timeout: timeout}
	}
	resp, err := hc.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("syndication status: %d", resp.StatusCode)
	}

	var p Payload
	if err := json.NewDecoder(resp.Body).Decode(&p); err != nil {
		return nil, fmt.Errorf("decode payload: %w", err)
	}
	return &p, nil
}

// TextFromPayload probes the payload's possible text fields in a fixed order
// and returns the first that normalizes to non-empty usable text.
func TextFromPayload(p *Payload) string {
	if p == nil {
		return ""
	}
	candidates := []string{p.Text, p.FullText}
	if p.Tweet != nil {
		candidates = append(candidates, p.Tweet.Text, p.Tweet.FullText)
	}
	if p.QuotedTweet != nil {
		candidates = append(candidates, p.QuotedTweet.Text)
	}
	for _, c := range candidates {
		if c == "" {
			continue
		}
		normalized := textnorm.Normalize(c)
		if normalized != "" && !textnorm.IsRejected(normalized) {
			return normalized
		}
	}
	return ""
}

// MediaFromPayload maps the payload's media-detail list into the item media
// shape. For videos the highest-bitrate mp4 variant wins.
func MediaFromPayload(p *Payload) thread.Media {
	m := thread.Media{Images: []thread.Image{}, Videos: []thread.Video{}}
	for _, d := range mediaDetails(p) {
		switch strings.ToLower(d.Type) {
		case "photo", "image":
			url := firstNonEmpty(d.MediaURLHTTPS, d.MediaURL, d.URL)
			if url != "" {
				m.Images = append(m.Images, thread.Image{URL: url, Alt: d.ExtAltText})
			}
		case "video", "animated_gif", "gif":
			poster := firstNonEmpty(d.MediaURLHTTPS, d.MediaURL, d.Poster)
			m.Videos = append(m.Videos, thread.Video{
				URL:    bestVariantURL(d),
				Poster: poster,
			})
		}
	}
	m.Images = media.DedupeImages(m.Images)
	return m
}

func mediaDetails(p *Payload) []MediaDetail {
	if p == nil {
		return nil
	}
	for _, list := range [][]MediaDetail{p.MediaDetails, p.MediaDetailsLegacy} {
		if len(list) > 0 {
			return list
		}
	}
	if p.Tweet != nil {
		for _, list := range [][]MediaDetail{p.Tweet.MediaDetails, p.Tweet.MediaDetailsLegacy} {
			if len(list) > 0 {
				return list
			}
		}
	}
	return nil
}

func bestVariantURL(d MediaDetail) string {
	info := d.VideoInfo
	if info == nil {
		info = d.VideoInfoAlt
	}
	if info == nil {
		return d.URL
	}
	var mp4s []Variant
	for _, v := range info.Variants {
		if strings.Contains(v.ContentType, "mp4") && v.URL != "" {
			mp4s = append(mp4s, v)
		}
	}
	if len(mp4s) == 0 {
		return d.URL
	}
	sort.SliceStable(mp4s, func(i, j int) bool { return mp4s[i].Bitrate > mp4s[j].Bitrate })
	return mp4s[0].URL
}

// normalizeLang canonicalizes a locale hint; garbage tags are dropped rather
// than forwarded.
func normalizeLang(lang string) string {
	if lang == "" {
		return ""
	}
	tag, err := language.Parse(lang)
	if err != nil {
		return ""
	}
	return tag.String()
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
