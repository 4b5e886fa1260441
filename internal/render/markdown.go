package render

import (
	"fmt"
	"strings"

	"github.com/threadprint/threadprint/internal/thread"
)

var markdownEscaper = strings.NewReplacer(
	`\`, `\\`,
	`*`, `\*`,
	`_`, `\_`,
	`[`, `\[`,
	`]`, `\]`,
	"`", "\\`",
)

func escapeMarkdown(s string) string {
	return markdownEscaper.Replace(s)
}

func markdownLink(href, label string) string {
	return fmt.Sprintf("[%s](%s)", escapeMarkdown(label), href)
}

// Markdown renders the document as plain-text markup.
func Markdown(doc thread.Document) string {
	var lines []string
	push := func(ss ...string) { lines = append(lines, ss...) }

	title := doc.Title
	if title == "" {
		title = "Thread"
	}
	push("# "+escapeMarkdown(title), "")

	if doc.Author.Name != "" {
		push("**Author:** " + escapeMarkdown(doc.Author.Name))
	}
	if doc.Author.Handle != "" {
		push("**Handle:** " + escapeMarkdown(doc.Author.Handle))
	}
	if doc.PublishedAt != "" {
		push("**Published:** " + formatTime(doc.PublishedAt))
	}
	if doc.SourceURL != "" {
		push("**Source:** " + doc.SourceURL)
	}
	push("", "---", "")

	n := 0
	for _, it := range doc.Items {
		if !it.Selected {
			continue
		}
		n++
		push(fmt.Sprintf("## Post %d", n), "")

		if it.Text != "" {
			push(renderBody(it.Text, escapeMarkdown, markdownLink), "")
		}

		for _, img := range it.Media.Images {
			alt := img.Alt
			if alt == "" {
				alt = "Image"
			}
			push(fmt.Sprintf("![%s](%s)", escapeMarkdown(alt), img.URL))
		}
		if len(it.Media.Images) > 0 {
			push("")
		}

		for _, vid := range it.Media.Videos {
			switch {
			case vid.URL != "":
				push(fmt.Sprintf("[Video](%s)", vid.URL))
			case vid.Poster != "":
				push(fmt.Sprintf("![Video thumbnail](%s)", vid.Poster), "*(video)*")
			}
		}
		if len(it.Media.Videos) > 0 {
			push("")
		}

		if card := it.Media.Card; card != nil {
			title := card.Title
			if title == "" {
				title = "Link"
			}
			push(fmt.Sprintf("[%s](%s)", escapeMarkdown(title), card.URL))
			if card.Image != "" {
				push(fmt.Sprintf("![%s](%s)", escapeMarkdown(card.Title), card.Image))
			}
			push("")
		}

		if len(it.Links) > 0 {
			push("**Links:**")
			for _, l := range it.Links {
				label := l.Text
				if label == "" {
					label = l.URL
				}
				push(fmt.Sprintf("- [%s](%s)", escapeMarkdown(label), l.URL))
			}
			push("")
		}

		push("---", "")
	}

	push("", fmt.Sprintf("*%d posts · extracted %s*", n, formatTime(doc.ExtractedAt)))
	return strings.Join(lines, "\n")
}
