// Package textnorm cleans raw scraped strings. The page injects UI chrome,
// zero-width characters, and localized boilerplate into element text, so every
// extracted candidate passes through Normalize before it is compared, stored,
// or rendered.
package textnorm

import (
	"regexp"
	"strconv"
	"strings"
)

// boilerplate lists UI affordance labels that leak into element text. Removal
// is plain substring deletion and order-independent.
var boilerplate = []string{
	"Show more",
	"Show less",
	"Read more",
	"Translate Tweet",
	"查看翻译",
	"翻译推文",
	"显示更多",
	"显示更少",
	"阅读更多",
}

// rejected lists error-page and auth-wall phrases. Text containing any of them
// must never be accepted as an item's canonical text.
var rejected = []string{
	"登录注册出错了",
	"请尝试重新加载",
	"Something went wrong",
	"Try reloading",
	"Log in",
	"Sign up",
	"Join today",
}

var (
	trailingSpaceRe = regexp.MustCompile(`[ \t]+\n`)
	manyNewlinesRe  = regexp.MustCompile(`\n{3,}`)
	shortLinkRe     = regexp.MustCompile(`(?i)\bhttps?://t\.co/\w+`)
	// metaSuffixRe matches the " — Author (@handle)" attribution tail that
	// meta description tags append to the post text.
	metaSuffixRe = regexp.MustCompile(`^(.*?)(?:\s*—\s*[^—]{1,80}\s*\(@[^)]+\)\s*)$`)
)

// Normalize strips carriage returns and zero-width characters, collapses
// non-breaking spaces to ordinary spaces and runs of three or more newlines to
// exactly two, deletes known boilerplate substrings, and trims. Idempotent.
func Normalize(raw string) string {
	if raw == "" {
		return ""
	}
	t := strings.ReplaceAll(raw, "\r", "")
	t = strings.ReplaceAll(t, " ", " ")
	t = trailingSpaceRe.ReplaceAllString(t, "\n")
	t = manyNewlinesRe.ReplaceAllString(t, "\n\n")
	t = strings.ReplaceAll(t, "​", "")
	t = strings.TrimSpace(t)

	for _, s := range boilerplate {
		if t == "" {
			break
		}
		t = strings.ReplaceAll(t, s, "")
	}

	// Deleting a boilerplate line can rejoin the blank lines around it into a
	// 3+ run, so the whitespace collapse runs again to keep the result a
	// fixed point.
	t = trailingSpaceRe.ReplaceAllString(t, "\n")
	t = manyNewlinesRe.ReplaceAllString(t, "\n\n")
	return strings.TrimSpace(t)
}

// IsTruncated reports whether text looks cut off: it ends with or contains an
// ellipsis, or it is short and carries a shortened-link URL. Used to decide
// whether remote enrichment should override DOM-extracted text.
func IsTruncated(text string) bool {
	t := strings.TrimSpace(text)
	if t == "" {
		return false
	}
	if strings.HasSuffix(t, "…") || strings.HasSuffix(t, "...") {
		return true
	}
	if strings.Contains(t, "…") {
		return true
	}
	if shortLinkRe.MatchString(t) && len(t) < 140 {
		return true
	}
	return false
}

// IsRejected reports whether text is unusable as item content: empty after
// normalization, or containing any error/auth-wall phrase.
func IsRejected(text string) bool {
	t := Normalize(text)
	if t == "" {
		return true
	}
	for _, p := range rejected {
		if strings.Contains(t, p) {
			return true
		}
	}
	return false
}

// StripMetaSuffix removes the trailing "— Author (@handle)" attribution that
// meta description tags append, returning the bare post text.
func StripMetaSuffix(text string) string {
	if m := metaSuffixRe.FindStringSubmatch(text); m != nil {
		return strings.TrimSpace(m[1])
	}
	return text
}

// ParseCount parses abbreviated engagement counts like "1,234", "5.2K" or
// "3M". Unparseable input yields zero.
func ParseCount(text string) int {
	clean := strings.ToLower(strings.TrimSpace(text))
	clean = strings.ReplaceAll(clean, ",", "")
	if clean == "" {
		return 0
	}
	mult := 1.0
	switch {
	case strings.Contains(clean, "k"):
		mult = 1_000
		clean = strings.TrimSuffix(clean, "k")
	case strings.Contains(clean, "m"):
		mult = 1_000_000
		clean = strings.TrimSuffix(clean, "m")
	}
	f, err := strconv.ParseFloat(clean, 64)
	if err != nil {
		return 0
	}
	return int(f * mult)
}
