// Package normalize reconciles every historical extraction shape into the
// canonical Document. Extraction output has drifted over time: an enveloped
// shape nesting thread metadata under a metadata key, a flat shape with
// top-level fields, string-or-record media entries, and author fields that
// may be a plain string or a nested record. Normalize is a pure, total
// function over all of them.
package normalize

import (
	"strconv"

	"github.com/threadprint/threadprint/internal/thread"
)

// Normalize maps any supported input shape onto the canonical Document. It
// never panics: nil or unrecognizable input yields an empty-field Document.
// Normalizing an already-canonical Document is an identity up to field
// defaults.
func Normalize(input any) thread.Document {
	switch v := input.(type) {
	case nil:
		return emptyDocument()
	case thread.Document:
		return canonical(v)
	case *thread.Document:
		if v == nil {
			return emptyDocument()
		}
		return canonical(*v)
	case map[string]any:
		if meta, ok := v["metadata"].(map[string]any); ok {
			return fromWrapped(v, meta)
		}
		return fromFlat(v)
	default:
		return emptyDocument()
	}
}

func emptyDocument() thread.Document {
	return thread.Document{
		Kind:  thread.ThreadPost,
		Items: []thread.Item{},
	}
}

// canonical re-normalizes an in-model Document: defaults filled, ordinals
// contiguous, media slices non-nil.
func canonical(d thread.Document) thread.Document {
	if d.Kind == "" {
		d.Kind = thread.ThreadPost
	}
	items := make([]thread.Item, len(d.Items))
	copy(items, d.Items)
	for i := range items {
		if items[i].Media.Images == nil {
			items[i].Media.Images = []thread.Image{}
		}
		if items[i].Media.Videos == nil {
			items[i].Media.Videos = []thread.Video{}
		}
	}
	d.Items = items
	d.Renumber()
	return d
}

// fromWrapped handles the enveloped shape: thread metadata under "metadata",
// items at the top level.
func fromWrapped(m, meta map[string]any) thread.Document {
	d := thread.Document{
		Kind:        kindOf(str(m, "type")),
		Title:       str(meta, "title"),
		SourceURL:   first(str(meta, "url"), str(m, "url")),
		PublishedAt: str(meta, "publishedTime"),
		ExtractedAt: str(m, "extractedAt"),
		SiteLabel:   first(str(m, "siteName"), "X (Twitter)"),
		Author:      authorOf(meta, "author", "handle", "avatar"),
		Items:       itemsOf(m["tweets"]),
	}
	d.Renumber()
	return d
}

// fromFlat handles the direct shape with top-level thread fields, including
// the oldest variant where author/handle/avatar are separate string fields.
func fromFlat(m map[string]any) thread.Document {
	d := thread.Document{
		Kind:        kindOf(str(m, "type")),
		Title:       str(m, "title"),
		SourceURL:   str(m, "url"),
		PublishedAt: str(m, "publishedTime"),
		ExtractedAt: str(m, "extractedAt"),
		SiteLabel:   first(str(m, "siteName"), "X (Twitter)"),
		Author:      authorOf(m, "author", "authorHandle", "authorAvatar"),
		Items:       itemsOf(m["tweets"]),
	}
	d.Renumber()
	return d
}

// authorOf resolves an author that may be a nested record under nameKey or a
// plain string alongside separate handle/avatar fields.
func authorOf(m map[string]any, nameKey, handleKey, avatarKey string) thread.Author {
	if rec, ok := m[nameKey].(map[string]any); ok {
		return thread.Author{
			Name:      str(rec, "name"),
			Handle:    first(str(rec, "handle"), str(m, handleKey)),
			AvatarURL: first(str(rec, "avatar"), str(m, avatarKey)),
		}
	}
	return thread.Author{
		Name:      str(m, nameKey),
		Handle:    str(m, handleKey),
		AvatarURL: str(m, avatarKey),
	}
}

func itemsOf(raw any) []thread.Item {
	list, ok := raw.([]any)
	if !ok {
		return []thread.Item{}
	}
	items := make([]thread.Item, 0, len(list))
	for i, entry := range list {
		m, ok := entry.(map[string]any)
		if !ok {
			continue
		}
		items = append(items, itemOf(m, i))
	}
	return items
}

func itemOf(m map[string]any, index int) thread.Item {
	it := thread.Item{
		Ordinal:     intAt(m, "index", index),
		ID:          first(str(m, "id"), synthesizeID(index)),
		ExternalID:  str(m, "statusId"),
		Text:        first(str(m, "text"), str(m, "textPlain")),
		HTML:        str(m, "html"),
		Author:      authorOf(m, "author", "authorHandle", "authorAvatar"),
		Timestamp:   str(m, "timestamp"),
		DisplayTime: str(m, "displayTime"),
		Media:       mediaOf(m["media"]),
		Engagement:  engagementOf(m["engagement"]),
		Links:       linksOf(m["links"]),
		Selected:    m["selected"] != false,
	}
	return it
}

func synthesizeID(index int) string {
	return "tweet-" + strconv.Itoa(index)
}

func mediaOf(raw any) thread.Media {
	out := thread.Media{Images: []thread.Image{}, Videos: []thread.Video{}}
	m, ok := raw.(map[string]any)
	if !ok {
		return out
	}

	if imgs, ok := m["images"].([]any); ok {
		for _, entry := range imgs {
			switch img := entry.(type) {
			case string:
				if img != "" {
					out.Images = append(out.Images, thread.Image{URL: img})
				}
			case map[string]any:
				out.Images = append(out.Images, thread.Image{
					URL:    str(img, "url"),
					Alt:    str(img, "alt"),
					Width:  intAt(img, "width", 0),
					Height: intAt(img, "height", 0),
				})
			}
		}
	}

	if vids, ok := m["videos"].([]any); ok {
		for _, entry := range vids {
			if vid, ok := entry.(map[string]any); ok {
				out.Videos = append(out.Videos, thread.Video{
					URL:    str(vid, "url"),
					Poster: str(vid, "poster"),
				})
			}
		}
	}

	if card, ok := m["card"].(map[string]any); ok {
		c := thread.Card{
			URL:   str(card, "url"),
			Image: str(card, "image"),
			Title: str(card, "title"),
		}
		if c.URL != "" || c.Image != "" || c.Title != "" {
			out.Card = &c
		}
	}
	return out
}

func engagementOf(raw any) thread.Engagement {
	m, ok := raw.(map[string]any)
	if !ok {
		return thread.Engagement{}
	}
	return thread.Engagement{
		Replies:  intAt(m, "replies", 0),
		Retweets: intAt(m, "retweets", 0),
		Likes:    intAt(m, "likes", 0),
		Views:    intAt(m, "views", 0),
	}
}

func linksOf(raw any) []thread.Link {
	list, ok := raw.([]any)
	if !ok {
		return nil
	}
	var out []thread.Link
	for _, entry := range list {
		if m, ok := entry.(map[string]any); ok {
			l := thread.Link{URL: str(m, "url"), Text: str(m, "text")}
			if l.URL != "" {
				out = append(out, l)
			}
		}
	}
	return out
}

func kindOf(t string) thread.Kind {
	if t == string(thread.GenericArticle) {
		return thread.GenericArticle
	}
	return thread.ThreadPost
}

func str(m map[string]any, key string) string {
	if v, ok := m[key].(string); ok {
		return v
	}
	return ""
}

// intAt reads a numeric field that may arrive as float64 (decoded JSON) or
// int, falling back when absent.
func intAt(m map[string]any, key string, fallback int) int {
	switch v := m[key].(type) {
	case float64:
		return int(v)
	case int:
		return v
	default:
		return fallback
	}
}

func first(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
