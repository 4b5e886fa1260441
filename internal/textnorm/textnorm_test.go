package textnorm

import "testing"

func TestNormalize_StripsBoilerplateAndWhitespace(t *testing.T) {
	in := "First line \t\nShow more\n\n\n\nSecond line\r\n"
	got := Normalize(in)
	want := "First line\n\nSecond line"
	if got != want {
		t.Fatalf("expected %q, got %q", want, got)
	}
}

func TestNormalize_Idempotent(t *testing.T) {
	inputs := []string{
		"",
		"plain text",
		"Show more trailing​ content",
		"a\n\n\n\nb\r\nc d",
		"a\n\nShow more\n\nb",
		"one \nShow less\n\nRead more\n\ntwo",
		"查看翻译 之后的正文",
	}
	for _, in := range inputs {
		once := Normalize(in)
		twice := Normalize(once)
		if once != twice {
			t.Fatalf("not idempotent for %q: first %q, second %q", in, once, twice)
		}
	}
}

func TestNormalize_BoilerplateRemovalCollapsesRejoinedBlanks(t *testing.T) {
	// The deleted line sits between two blank lines; its removal must not
	// leave a 3+-newline run behind.
	got := Normalize("a\n\nShow more\n\nb")
	if got != "a\n\nb" {
		t.Fatalf("expected %q, got %q", "a\n\nb", got)
	}
}

func TestNormalize_ChineseBoilerplate(t *testing.T) {
	got := Normalize("正文内容显示更多")
	if got != "正文内容" {
		t.Fatalf("expected boilerplate removed, got %q", got)
	}
}

func TestIsTruncated(t *testing.T) {
	cases := []struct {
		text string
		want bool
	}{
		{"", false},
		{"complete sentence.", false},
		{"ends with ellipsis…", true},
		{"ends with dots...", true},
		{"mid… sentence", true},
		{"short https://t.co/abc123", true},
		{"a long enough body that happens to carry a link https://t.co/abc123 but exceeds the short threshold because it keeps going and going well past the cutoff", false},
	}
	for _, c := range cases {
		if got := IsTruncated(c.text); got != c.want {
			t.Fatalf("IsTruncated(%q) = %v, want %v", c.text, got, c.want)
		}
	}
}

func TestIsRejected(t *testing.T) {
	cases := []struct {
		text string
		want bool
	}{
		{"", true},
		{"   \n ", true},
		{"Something went wrong. Try reloading.", true},
		{"请尝试重新加载", true},
		{"Log in", true},
		{"an ordinary post about logging frameworks", false},
	}
	for _, c := range cases {
		if got := IsRejected(c.text); got != c.want {
			t.Fatalf("IsRejected(%q) = %v, want %v", c.text, got, c.want)
		}
	}
}

func TestStripMetaSuffix(t *testing.T) {
	got := StripMetaSuffix("The actual post body — Jane Doe (@janedoe)")
	if got != "The actual post body" {
		t.Fatalf("expected attribution stripped, got %q", got)
	}
	plain := "No attribution here"
	if got := StripMetaSuffix(plain); got != plain {
		t.Fatalf("expected passthrough, got %q", got)
	}
}

func TestParseCount(t *testing.T) {
	cases := []struct {
		text string
		want int
	}{
		{"", 0},
		{"0", 0},
		{"1,234", 1234},
		{"5.2K", 5200},
		{"3M", 3_000_000},
		{"12k", 12_000},
		{"junk", 0},
	}
	for _, c := range cases {
		if got := ParseCount(c.text); got != c.want {
			t.Fatalf("ParseCount(%q) = %d, want %d", c.text, got, c.want)
		}
	}
}
