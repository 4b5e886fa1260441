// Package extract implements the generic article fallback: readable-text
// extraction from arbitrary HTML used when a page is not a recognizable
// thread, and as the last text strategy for a single item element.
package extract

import (
	"bytes"
	"strings"

	"golang.org/x/net/html"
)

// Article is a simplified representation of extracted page content.
type Article struct {
	Title    string
	Text     string
	Excerpt  string
	Byline   string
	SiteName string
}

// FromHTML extracts readable text from HTML, preferring <main> or <article>,
// falling back to <body>. It preserves headings, paragraphs, list items, and
// pre/code blocks, while skipping obvious boilerplate like <nav> and <footer>.
func FromHTML(input []byte) Article {
	node, err := html.Parse(bytes.NewReader(input))
	if err != nil || node == nil {
		return Article{}
	}

	a := Article{
		Title:    strings.TrimSpace(findTitle(node)),
		Byline:   metaContent(node, "author", "article:author"),
		SiteName: metaContent(node, "og:site_name"),
		Excerpt:  metaContent(node, "description", "og:description"),
	}

	content := findFirst(node, "main")
	if content == nil {
		content = findFirst(node, "article")
	}
	if content == nil {
		content = findFirst(node, "body")
	}
	var b strings.Builder
	if content != nil {
		collectText(&b, content, false)
	}
	a.Text = normalizeWhitespace(b.String())
	return a
}

// FromSnippet extracts plain text from an HTML fragment, such as a single
// item element's inner markup. Returns "" when nothing readable remains.
func FromSnippet(fragment string) string {
	node, err := html.Parse(strings.NewReader(fragment))
	if err != nil || node == nil {
		return ""
	}
	var b strings.Builder
	collectText(&b, node, false)
	return normalizeWhitespace(b.String())
}

func findTitle(n *html.Node) string {
	head := findFirst(n, "head")
	if head == nil {
		return ""
	}
	t := findFirst(head, "title")
	if t == nil || t.FirstChild == nil {
		return ""
	}
	return t.FirstChild.Data
}

// metaContent returns the content attribute of the first <meta> whose name or
// property matches any of the given keys.
func metaContent(n *html.Node, keys ...string) string {
	var res string
	var dfs func(*html.Node)
	dfs = func(cur *html.Node) {
		if res != "" {
			return
		}
		if cur.Type == html.ElementNode && strings.EqualFold(cur.Data, "meta") {
			var name, content string
			for _, attr := range cur.Attr {
				switch strings.ToLower(attr.Key) {
				case "name", "property":
					name = strings.ToLower(attr.Val)
				case "content":
					content = attr.Val
				}
			}
			for _, k := range keys {
				if name == k && strings.TrimSpace(content) != "" {
					res = strings.TrimSpace(content)
					return
				}
			}
		}
		for c := cur.FirstChild; c != nil; c = c.NextSibling {
			dfs(c)
			if res != "" {
				return
			}
		}
	}
	dfs(n)
	return res
}

func findFirst(n *html.Node, tag string) *html.Node {
	var res *html.Node
	var dfs func(*html.Node)
	dfs = func(cur *html.Node) {
		if res != nil {
			return
		}
		if cur.Type == html.ElementNode && strings.EqualFold(cur.Data, tag) {
			res = cur
			return
		}
		for c := cur.FirstChild; c != nil; c = c.NextSibling {
			dfs(c)
			if res != nil {
				return
			}
		}
	}
	dfs(n)
	return res
}

func collectText(b *strings.Builder, n *html.Node, inPre bool) {
	if n.Type == html.ElementNode {
		if isBoilerplateContainer(n) {
			return
		}
		name := strings.ToLower(n.Data)
		switch name {
		case "script", "style", "noscript", "nav", "footer", "aside", "iframe":
			return
		case "pre", "code":
			inPre = true
		case "br", "hr":
			b.WriteString("\n")
		case "p", "h1", "h2", "h3", "h4", "h5", "h6", "li":
			b.WriteString("\n")
		case "ul", "ol":
			b.WriteString("\n")
		}
	}

	if n.Type == html.TextNode {
		data := n.Data
		if !inPre {
			data = strings.ReplaceAll(data, "\t", " ")
			data = strings.ReplaceAll(data, "\r", " ")
		}
		b.WriteString(data)
	}

	for c := n.FirstChild; c != nil; c = c.NextSibling {
		collectText(b, c, inPre)
	}

	if n.Type == html.ElementNode {
		name := strings.ToLower(n.Data)
		switch name {
		case "p", "h1", "h2", "h3", "h4", "h5", "h6":
			b.WriteString("\n\n")
		case "li":
			b.WriteString("\n")
		case "pre", "code":
			b.WriteString("\n")
		}
	}
}

// isBoilerplateContainer returns true if the element looks like a
// cookie/consent banner or similar overlay.
func isBoilerplateContainer(n *html.Node) bool {
	if n == nil || n.Type != html.ElementNode {
		return false
	}
	for _, attr := range n.Attr {
		key := strings.ToLower(attr.Key)
		if key != "id" && key != "class" && !strings.HasPrefix(key, "data-") && key != "aria-label" && key != "role" {
			continue
		}
		val := strings.ToLower(attr.Val)
		if containsAny(val, []string{"cookie", "consent", "gdpr"}) {
			return true
		}
	}
	return false
}

func containsAny(s string, needles []string) bool {
	for _, n := range needles {
		if strings.Contains(s, n) {
			return true
		}
	}
	return false
}

func normalizeWhitespace(s string) string {
	lines := strings.Split(s, "\n")
	out := make([]string, 0, len(lines))
	for _, line := range lines {
		trimmed := strings.TrimSpace(line)
		if trimmed == "" {
			// Keep at most one consecutive blank
			if len(out) > 0 && out[len(out)-1] == "" {
				continue
			}
			if len(out) > 0 {
				out = append(out, "")
			}
			continue
		}
		out = append(out, collapseSpaces(trimmed))
	}
	for len(out) > 0 && out[len(out)-1] == "" {
		out = out[:len(out)-1]
	}
	return strings.Join(out, "\n")
}

func collapseSpaces(s string) string {
	var b strings.Builder
	lastSpace := false
	for _, r := range s {
		if r == ' ' || r == '\t' || r == '\n' || r == '\r' {
			if !lastSpace {
				b.WriteByte(' ')
				lastSpace = true
			}
			continue
		}
		b.WriteRune(r)
		lastSpace = false
	}
	return b.String()
}
