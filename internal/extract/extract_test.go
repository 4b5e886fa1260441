package extract

import (
	"strings"
	"testing"
)

func TestFromHTML_PrefersMainOverBody(t *testing.T) {
	html := `<!doctype html>
	<html>
	  <head><title>Test Page</title></head>
	  <body>
		<nav>Nav should be ignored</nav>
		<main>
		  <h1>Main Heading</h1>
		  <p>This is the main content paragraph.</p>
		</main>
		<footer>Footer text</footer>
	  </body>
	</html>`

	a := FromHTML([]byte(html))
	if a.Title != "Test Page" {
		t.Fatalf("expected title 'Test Page', got %q", a.Title)
	}
	if !strings.Contains(a.Text, "Main Heading") {
		t.Fatalf("expected to contain main heading")
	}
	if !strings.Contains(a.Text, "This is the main content paragraph.") {
		t.Fatalf("expected to contain main paragraph")
	}
	if strings.Contains(a.Text, "Nav should be ignored") {
		t.Fatalf("did not expect nav text in extracted content")
	}
	if strings.Contains(a.Text, "Footer text") {
		t.Fatalf("did not expect footer text in extracted content")
	}
}

func TestFromHTML_FallbackToBody(t *testing.T) {
	html := `<!doctype html>
	<html>
	  <head><title>No Main</title></head>
	  <body>
		<h2>Body Heading</h2>
		<p>Body paragraph</p>
	  </body>
	</html>`

	a := FromHTML([]byte(html))
	if a.Title != "No Main" {
		t.Fatalf("expected title 'No Main', got %q", a.Title)
	}
	if !strings.Contains(a.Text, "Body Heading") || !strings.Contains(a.Text, "Body paragraph") {
		t.Fatalf("expected body content, got %q", a.Text)
	}
}

func TestFromHTML_MetaFields(t *testing.T) {
	html := `<!doctype html>
	<html>
	  <head>
		<title>Meta Rich</title>
		<meta name="author" content="Jane Doe">
		<meta property="og:site_name" content="Example Site">
		<meta name="description" content="A short excerpt.">
	  </head>
	  <body><main><p>Body.</p></main></body>
	</html>`

	a := FromHTML([]byte(html))
	if a.Byline != "Jane Doe" {
		t.Fatalf("expected byline, got %q", a.Byline)
	}
	if a.SiteName != "Example Site" {
		t.Fatalf("expected site name, got %q", a.SiteName)
	}
	if a.Excerpt != "A short excerpt." {
		t.Fatalf("expected excerpt, got %q", a.Excerpt)
	}
}

func TestFromHTML_InvalidInput(t *testing.T) {
	a := FromHTML([]byte(""))
	if a.Text != "" {
		t.Fatalf("expected empty text for empty input, got %q", a.Text)
	}
}

func TestFromSnippet(t *testing.T) {
	got := FromSnippet(`<div><p>Hello <b>world</b></p><p>second</p></div>`)
	if !strings.Contains(got, "Hello world") || !strings.Contains(got, "second") {
		t.Fatalf("expected fragment text, got %q", got)
	}
	if FromSnippet("") != "" {
		t.Fatalf("expected empty result for empty fragment")
	}
}

func TestFromHTML_PreservesPreBlocks(t *testing.T) {
	html := `<html><head><title>Code</title></head><body><main>
	  <pre>line one
line two</pre>
	</main></body></html>`

	a := FromHTML([]byte(html))
	if !strings.Contains(a.Text, "line one") || !strings.Contains(a.Text, "line two") {
		t.Fatalf("expected pre content preserved, got %q", a.Text)
	}
}
