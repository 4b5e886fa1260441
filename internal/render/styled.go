package render

import (
	"fmt"
	"html"
	"strings"

	"github.com/threadprint/threadprint/internal/thread"
)

func htmlLink(href, label string) string {
	return fmt.Sprintf(`<a href="%s" target="_blank" rel="noopener">%s</a>`,
		html.EscapeString(href), html.EscapeString(label))
}

// htmlBody escapes text for HTML, linkifies inline constructs, and preserves
// line breaks.
func htmlBody(text string) string {
	body := renderBody(text, html.EscapeString, htmlLink)
	return strings.ReplaceAll(body, "\n", "<br>")
}

// StyledHTML renders the document as a standalone styled page suitable for
// preview and raster capture.
func StyledHTML(doc thread.Document) string {
	var b strings.Builder
	writeHTMLDocument(&b, doc, styledCSS)
	return b.String()
}

// PrintHTML renders the document as print-ready markup: identical structure
// with a print stylesheet that keeps each post on one page.
func PrintHTML(doc thread.Document) string {
	var b strings.Builder
	writeHTMLDocument(&b, doc, styledCSS+printCSS)
	return b.String()
}

func writeHTMLDocument(b *strings.Builder, doc thread.Document, css string) {
	title := doc.Title
	if title == "" {
		title = "Thread"
	}

	fmt.Fprintf(b, "<!DOCTYPE html>\n<html>\n<head>\n<meta charset=\"utf-8\">\n<title>%s</title>\n<style>%s</style>\n</head>\n<body>\n", html.EscapeString(title), css)

	b.WriteString(`<header class="thread-header">` + "\n")
	if doc.Author.AvatarURL != "" {
		fmt.Fprintf(b, `<img class="avatar" src="%s" alt="%s">`+"\n",
			html.EscapeString(doc.Author.AvatarURL), html.EscapeString(doc.Author.Name))
	}
	name := doc.Author.Name
	if name == "" {
		name = "Unknown"
	}
	fmt.Fprintf(b, `<h1 class="author-name">%s</h1>`+"\n", html.EscapeString(name))
	if doc.Author.Handle != "" {
		fmt.Fprintf(b, `<p class="author-handle">%s</p>`+"\n", html.EscapeString(doc.Author.Handle))
	}
	if doc.PublishedAt != "" {
		fmt.Fprintf(b, `<p class="published">%s</p>`+"\n", html.EscapeString(formatTime(doc.PublishedAt)))
	}
	if doc.SourceURL != "" {
		fmt.Fprintf(b, `<p class="source">%s</p>`+"\n", htmlLink(doc.SourceURL, doc.SourceURL))
	}
	b.WriteString("</header>\n")

	n := 0
	for _, it := range doc.Items {
		if !it.Selected {
			continue
		}
		n++
		fmt.Fprintf(b, `<article class="post" id="%s">`+"\n", html.EscapeString(it.ID))

		if it.Timestamp != "" || it.DisplayTime != "" {
			fmt.Fprintf(b, `<time datetime="%s">%s</time>`+"\n",
				html.EscapeString(it.Timestamp), html.EscapeString(it.DisplayTime))
		}

		if it.Text != "" {
			fmt.Fprintf(b, `<div class="post-text">%s</div>`+"\n", htmlBody(it.Text))
		}

		writeMediaHTML(b, it.Media)

		if len(it.Links) > 0 {
			b.WriteString(`<div class="post-links">` + "\n")
			for _, l := range it.Links {
				label := l.Text
				if label == "" {
					label = l.URL
				}
				b.WriteString(htmlLink(l.URL, label) + "\n")
			}
			b.WriteString("</div>\n")
		}

		if e := it.Engagement; e.Replies > 0 || e.Retweets > 0 || e.Likes > 0 || e.Views > 0 {
			fmt.Fprintf(b, `<div class="post-stats">💬 %d · 🔁 %d · ❤️ %d</div>`+"\n",
				e.Replies, e.Retweets, e.Likes)
		}

		b.WriteString("</article>\n")
	}

	fmt.Fprintf(b, `<footer class="thread-footer">%d posts · extracted %s</footer>`+"\n",
		n, html.EscapeString(formatTime(doc.ExtractedAt)))
	b.WriteString("</body>\n</html>\n")
}

func writeMediaHTML(b *strings.Builder, m thread.Media) {
	for _, img := range m.Images {
		fmt.Fprintf(b, `<img class="post-image" src="%s" alt="%s" loading="lazy">`+"\n",
			html.EscapeString(img.URL), html.EscapeString(img.Alt))
	}
	for _, vid := range m.Videos {
		switch {
		case vid.URL != "":
			fmt.Fprintf(b, `<video class="post-video" controls src="%s" poster="%s"></video>`+"\n",
				html.EscapeString(vid.URL), html.EscapeString(vid.Poster))
		case vid.Poster != "":
			fmt.Fprintf(b, `<img class="post-video-poster" src="%s" alt="video thumbnail">`+"\n",
				html.EscapeString(vid.Poster))
		}
	}
	if card := m.Card; card != nil {
		fmt.Fprintf(b, `<div class="post-card">`)
		if card.Image != "" {
			fmt.Fprintf(b, `<img src="%s" alt="">`, html.EscapeString(card.Image))
		}
		if card.URL != "" {
			b.WriteString(htmlLink(card.URL, firstLabel(card.Title, card.URL)))
		} else if card.Title != "" {
			b.WriteString(html.EscapeString(card.Title))
		}
		b.WriteString("</div>\n")
	}
}

func firstLabel(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}

const styledCSS = `
* { margin: 0; padding: 0; box-sizing: border-box; }
body { font-family: -apple-system, "Segoe UI", Roboto, sans-serif; max-width: 640px; margin: 0 auto; padding: 24px; color: #0f1419; background: #fff; line-height: 1.5; }
.thread-header { border-bottom: 1px solid #e1e8ed; padding-bottom: 16px; margin-bottom: 16px; }
.avatar { width: 48px; height: 48px; border-radius: 50%; }
.author-name { font-size: 20px; }
.author-handle, .published { color: #536471; font-size: 14px; }
.source { font-size: 13px; word-break: break-all; }
.post { border-bottom: 1px solid #e1e8ed; padding: 16px 0; }
.post time { color: #536471; font-size: 13px; }
.post-text { margin: 8px 0; white-space: pre-wrap; }
.post-image, .post-video, .post-video-poster { max-width: 100%; border-radius: 12px; margin-top: 8px; }
.post-card { border: 1px solid #e1e8ed; border-radius: 12px; padding: 12px; margin-top: 8px; font-size: 14px; }
.post-card img { max-width: 100%; border-radius: 8px; }
.post-links { margin-top: 8px; font-size: 14px; }
.post-stats { color: #536471; font-size: 13px; margin-top: 8px; }
.thread-footer { color: #536471; font-size: 13px; padding-top: 16px; }
a { color: #1d9bf0; text-decoration: none; }
`

const printCSS = `
@media print {
  body { max-width: none; padding: 0; }
  .post { page-break-inside: avoid; }
  a { color: inherit; }
}
`
