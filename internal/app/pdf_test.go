package app

import (
	"bytes"
	"testing"
)

func TestSimplePDF(t *testing.T) {
	md := "# Thread title\n\n**Author:** Jane Doe\n\n## Post 1\n\nBody with a [link](https://example.com) inline\n\n![skipped image](https://pbs.twimg.com/media/x.jpg)\n"
	data, err := simplePDF(md)
	if err != nil {
		t.Fatalf("simplePDF: %v", err)
	}
	if !bytes.HasPrefix(data, []byte("%PDF")) {
		t.Fatalf("expected PDF magic, got %q", data[:min(8, len(data))])
	}
}

func TestSimplePDF_Empty(t *testing.T) {
	data, err := simplePDF("")
	if err != nil {
		t.Fatalf("simplePDF: %v", err)
	}
	if len(data) == 0 {
		t.Fatalf("expected a valid empty document")
	}
}
