// Package thread defines the canonical document model shared by every
// generator and exporter. A Document is produced once per extraction and is
// never persisted; all downstream consumers treat it as read-only.
package thread

// Kind distinguishes the two document shapes the pipeline can produce.
type Kind string

const (
	// ThreadPost is an ordered conversation of items from a status page.
	ThreadPost Kind = "twitter_thread"
	// GenericArticle is a single-body page extracted via the article fallback.
	GenericArticle Kind = "generic"
)

// Author identifies the person behind a thread or a single item.
type Author struct {
	Name      string `json:"name"`
	Handle    string `json:"handle"`
	AvatarURL string `json:"avatar,omitempty"`
}

// Image is one picture attached to an item.
type Image struct {
	URL    string `json:"url"`
	Alt    string `json:"alt,omitempty"`
	Width  int    `json:"width,omitempty"`
	Height int    `json:"height,omitempty"`
}

// Video records a playable source and its poster frame. The DOM scraper often
// only recovers the poster; the URL is filled by enrichment when available.
type Video struct {
	URL    string `json:"url,omitempty"`
	Poster string `json:"poster,omitempty"`
}

// Card is a link-preview attachment.
type Card struct {
	URL   string `json:"url"`
	Image string `json:"image,omitempty"`
	Title string `json:"title,omitempty"`
}

// Media groups everything attached to an item.
type Media struct {
	Images []Image `json:"images"`
	Videos []Video `json:"videos"`
	Card   *Card   `json:"card,omitempty"`
}

// Engagement holds best-effort interaction counts; missing counts stay zero.
type Engagement struct {
	Replies  int `json:"replies"`
	Retweets int `json:"retweets"`
	Likes    int `json:"likes"`
	Views    int `json:"views"`
}

// Link is an outbound link found in an item body.
type Link struct {
	URL  string `json:"url"`
	Text string `json:"text,omitempty"`
}

// Item is one post within a thread.
type Item struct {
	// Ordinal is the position in final merge order, contiguous from zero.
	// It is reassigned whenever items are reordered or merged.
	Ordinal int `json:"index"`

	// ID is a stable identifier: "tweet-<externalID>" when the platform id is
	// known, otherwise a synthetic index-based id.
	ID string `json:"id"`

	// ExternalID is the platform status identifier (digits only). When
	// present it is the primary deduplication key and unique within a
	// Document.
	ExternalID string `json:"statusId,omitempty"`

	Text string `json:"text"`
	HTML string `json:"html,omitempty"`

	Author Author `json:"author"`

	// Timestamp is machine-readable (ISO-8601); DisplayTime is the human
	// label shown on the page and is decorative only.
	Timestamp   string `json:"timestamp,omitempty"`
	DisplayTime string `json:"displayTime,omitempty"`

	Media      Media      `json:"media"`
	Engagement Engagement `json:"engagement"`
	Links      []Link     `json:"links,omitempty"`

	// Selected defaults to true and is flipped only by an explicit user
	// action downstream; extraction never turns it off. Generators skip
	// items with Selected == false.
	Selected bool `json:"selected"`
}

// HasMedia reports whether the item carries at least one image or video.
// Items with empty text and no media are dropped before assembly completes.
func (it *Item) HasMedia() bool {
	return len(it.Media.Images) > 0 || len(it.Media.Videos) > 0
}

// Document is the canonical representation consumed by all generators and
// exporters.
type Document struct {
	Kind        Kind   `json:"type"`
	Title       string `json:"title"`
	Author      Author `json:"author"`
	SourceURL   string `json:"url"`
	PublishedAt string `json:"publishedTime,omitempty"`
	ExtractedAt string `json:"extractedAt"`
	Items       []Item `json:"tweets"`
	ItemCount   int    `json:"tweetCount"`
	SiteLabel   string `json:"siteName"`
}

// Renumber reassigns contiguous ordinals in current slice order and refreshes
// ItemCount. Call after any reorder, merge, or drop.
func (d *Document) Renumber() {
	for i := range d.Items {
		d.Items[i].Ordinal = i
	}
	d.ItemCount = len(d.Items)
}
