package application

import (
	"strings"
	"testing"
)

func TestSplitParagraphs(t *testing.T) {
	body := "First paragraph.\n\nSecond paragraph.\r\n\r\nThird."
	got := SplitParagraphs(body)
	if len(got) != 3 {
		t.Fatalf("expected 3 paragraphs, got %d: %v", len(got), got)
	}
	if got[1] != "Second paragraph." {
		t.Errorf("unexpected second paragraph: %q", got[1])
	}
}

func TestSplitParagraphs_SkipsBlankChunks(t *testing.T) {
	got := SplitParagraphs("One.\n\n\n\n   \n\nTwo.")
	if len(got) != 2 {
		t.Errorf("expected blank chunks dropped, got %v", got)
	}
}

func TestBodyRenderer_RendersMarkdown(t *testing.T) {
	r := NewBodyRenderer("")

	out, err := r.Render("# Heading\n\nSome **bold** text.")
	if err != nil {
		t.Fatalf("Render: %v", err)
	}
	if !strings.Contains(out, "<h1") {
		t.Errorf("expected a heading in output: %s", out)
	}
	if !strings.Contains(out, "<strong>bold</strong>") {
		t.Errorf("expected bold text in output: %s", out)
	}
}

func TestBodyRenderer_RewritesRelativeImages(t *testing.T) {
	r := NewBodyRenderer("https://portal.example.go.th")

	out, err := r.Render("![chart](chart.png)")
	if err != nil {
		t.Fatalf("Render: %v", err)
	}
	if !strings.Contains(out, `src="https://portal.example.go.th/uploads/chart.png"`) {
		t.Errorf("expected relative image rewritten to uploads path: %s", out)
	}
}

func TestBodyRenderer_LeavesAbsoluteLinksAlone(t *testing.T) {
	r := NewBodyRenderer("https://portal.example.go.th")

	out, err := r.Render("![ext](https://elsewhere.example/pic.png)")
	if err != nil {
		t.Fatalf("Render: %v", err)
	}
	if !strings.Contains(out, `src="https://elsewhere.example/pic.png"`) {
		t.Errorf("absolute image url should pass through: %s", out)
	}
}
