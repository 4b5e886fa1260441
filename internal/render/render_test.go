package render

import (
	"strings"
	"testing"

	"github.com/threadprint/threadprint/internal/thread"
)

func fixtureDocument() thread.Document {
	d := thread.Document{
		Kind:        thread.ThreadPost,
		Title:       "Test thread",
		Author:      thread.Author{Name: "Test Author", Handle: "@testauthor"},
		SourceURL:   "https://x.com/testauthor/status/111",
		PublishedAt: "2024-05-01T10:00:00Z",
		ExtractedAt: "2024-05-01T11:00:00Z",
		Items: []thread.Item{
			{
				ID:       "tweet-111",
				Text:     "This is the first tweet",
				Selected: true,
				Media: thread.Media{
					Images: []thread.Image{{URL: "https://pbs.twimg.com/media/first.jpg", Alt: "first image"}},
					Videos: []thread.Video{},
				},
			},
			{
				ID:       "tweet-222",
				Text:     "This is the second tweet",
				Selected: true,
				Media: thread.Media{
					Images: []thread.Image{},
					Videos: []thread.Video{{Poster: "https://pbs.twimg.com/second_poster.jpg"}},
					Card: &thread.Card{
						URL:   "https://example.com/linked-article",
						Title: "Linked article",
					},
				},
			},
		},
	}
	d.Renumber()
	return d
}

// Every generator must carry the same author and body content, so an export
// in one format is substitutable for another.
func TestGeneratorsAgreeOnContent(t *testing.T) {
	doc := fixtureDocument()
	outputs := map[string]string{
		"markdown": Markdown(doc),
		"styled":   StyledHTML(doc),
		"print":    PrintHTML(doc),
	}
	for name, out := range outputs {
		for _, want := range []string{
			"Test Author",
			"This is the first tweet",
			"This is the second tweet",
			"https://pbs.twimg.com/media/first.jpg",
			"https://pbs.twimg.com/second_poster.jpg",
			"https://example.com/linked-article",
		} {
			if !strings.Contains(out, want) {
				t.Fatalf("%s output missing %q", name, want)
			}
		}
	}
}

func TestSelectionFiltering(t *testing.T) {
	doc := fixtureDocument()
	doc.Items[1].Selected = false

	for name, out := range map[string]string{
		"markdown": Markdown(doc),
		"styled":   StyledHTML(doc),
	} {
		if strings.Contains(out, "This is the second tweet") {
			t.Fatalf("%s output must omit deselected items", name)
		}
		if !strings.Contains(out, "This is the first tweet") {
			t.Fatalf("%s output lost the selected item", name)
		}
		// The footer counts rendered posts, not the document's item total.
		if !strings.Contains(out, "1 posts") || strings.Contains(out, "2 posts") {
			t.Fatalf("%s footer must count only rendered posts: %q", name, out)
		}
	}
}

func TestMarkdown_HeaderAndImages(t *testing.T) {
	out := Markdown(fixtureDocument())
	if !strings.Contains(out, "# Test thread") {
		t.Fatalf("missing title heading")
	}
	if !strings.Contains(out, "**Author:** Test Author") {
		t.Fatalf("missing author line")
	}
	if !strings.Contains(out, "![first image](https://pbs.twimg.com/media/first.jpg)") {
		t.Fatalf("missing image syntax")
	}
	if !strings.Contains(out, "## Post 1") || !strings.Contains(out, "## Post 2") {
		t.Fatalf("missing post headings")
	}
}

func TestMarkdown_EscapesSpecialCharacters(t *testing.T) {
	doc := fixtureDocument()
	doc.Items[0].Text = "stars *bold* and under_score"
	out := Markdown(doc)
	if !strings.Contains(out, `\*bold\*`) || !strings.Contains(out, `under\_score`) {
		t.Fatalf("expected markdown escapes, got:\n%s", out)
	}
}

func TestLinkification(t *testing.T) {
	doc := fixtureDocument()
	doc.Items[0].Text = "cc @someone about #topic see https://example.com/x"

	md := Markdown(doc)
	if !strings.Contains(md, "[@someone](https://x.com/someone)") {
		t.Fatalf("mention not linkified in markdown:\n%s", md)
	}
	if !strings.Contains(md, "[#topic](https://x.com/hashtag/topic)") {
		t.Fatalf("hashtag not linkified in markdown:\n%s", md)
	}

	styled := StyledHTML(doc)
	if !strings.Contains(styled, `<a href="https://x.com/someone"`) {
		t.Fatalf("mention not linkified in html")
	}
	if !strings.Contains(styled, `<a href="https://example.com/x"`) {
		t.Fatalf("url not linkified in html")
	}
}

func TestStyledHTML_EscapesUserText(t *testing.T) {
	doc := fixtureDocument()
	doc.Items[0].Text = `injection <script>alert(1)</script>`
	out := StyledHTML(doc)
	if strings.Contains(out, "<script>alert(1)</script>") {
		t.Fatalf("user text must be escaped")
	}
	if !strings.Contains(out, "&lt;script&gt;") {
		t.Fatalf("expected escaped script tag")
	}
}

func TestPrintHTML_CarriesPrintStylesheet(t *testing.T) {
	out := PrintHTML(fixtureDocument())
	if !strings.Contains(out, "@media print") {
		t.Fatalf("missing print stylesheet")
	}
	if !strings.Contains(out, "page-break-inside: avoid") {
		t.Fatalf("missing page-break rule")
	}
	if strings.Contains(StyledHTML(fixtureDocument()), "@media print") {
		t.Fatalf("styled output must not carry print rules")
	}
}

func TestVideoRendering(t *testing.T) {
	doc := fixtureDocument()
	doc.Items[0].Media.Videos = []thread.Video{{Poster: "https://pbs.twimg.com/poster.jpg"}}

	md := Markdown(doc)
	if !strings.Contains(md, "![Video thumbnail](https://pbs.twimg.com/poster.jpg)") {
		t.Fatalf("poster-only video not rendered in markdown:\n%s", md)
	}

	doc.Items[0].Media.Videos = []thread.Video{{URL: "https://video.twimg.com/high.mp4"}}
	styled := StyledHTML(doc)
	if !strings.Contains(styled, `src="https://video.twimg.com/high.mp4"`) {
		t.Fatalf("video source not rendered in html")
	}
}

func TestFormatTime(t *testing.T) {
	if got := formatTime("2024-05-01T10:00:00Z"); got != "May 1, 2024 10:00 UTC" {
		t.Fatalf("unexpected formatted time %q", got)
	}
	if got := formatTime("not a time"); got != "not a time" {
		t.Fatalf("expected passthrough, got %q", got)
	}
	if formatTime("") != "" {
		t.Fatalf("expected empty passthrough")
	}
}
