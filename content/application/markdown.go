package application

import (
	"bytes"
	"fmt"
	"path"
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/parser"
	"github.com/yuin/goldmark/renderer/html"
	"github.com/yuin/goldmark/text"
	"github.com/yuin/goldmark/util"
)

// BodyRenderer converts a record's stored body into HTML for the public
// pages. The body is treated as markdown; plain prose passes through as
// paragraphs.
type BodyRenderer interface {
	Render(body string) (string, error)
}

// SplitParagraphs breaks a record body into paragraphs on blank lines, the
// form the page templates consume when not rendering markdown.
func SplitParagraphs(body string) []string {
	parts := strings.Split(strings.ReplaceAll(body, "\r\n", "\n"), "\n\n")
	paragraphs := make([]string, 0, len(parts))
	for _, p := range parts {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			paragraphs = append(paragraphs, trimmed)
		}
	}
	return paragraphs
}

// uploadLinkTransformer points relative image references at the portal's
// upload path so bodies authored against local previews render correctly.
type uploadLinkTransformer struct {
	baseURL string
}

func (t *uploadLinkTransformer) Transform(node *ast.Document, reader text.Reader, pc parser.Context) {
	ast.Walk(node, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}

		img, ok := n.(*ast.Image)
		if !ok {
			return ast.WalkContinue, nil
		}

		dest := string(img.Destination)
		if isRelativeLink(dest) && !strings.HasPrefix(dest, "/uploads/") {
			img.Destination = []byte(t.baseURL + "/uploads/" + path.Base(dest))
		}

		return ast.WalkContinue, nil
	})
}

func isRelativeLink(dest string) bool {
	if strings.HasPrefix(dest, "//") {
		return false
	}
	if strings.HasPrefix(dest, "/") {
		return true
	}
	if strings.Contains(dest, ":") {
		return false
	}
	return true
}

type goldmarkRenderer struct {
	renderer goldmark.Markdown
}

// NewBodyRenderer builds the portal's markdown renderer. baseURL prefixes
// rewritten relative image links and may be empty for same-origin serving.
func NewBodyRenderer(baseURL string) BodyRenderer {
	renderer := goldmark.New(
		goldmark.WithExtensions(
			extension.GFM,
			extension.Table,
			extension.Linkify,
		),
		goldmark.WithParserOptions(
			parser.WithAutoHeadingID(),
			parser.WithASTTransformers(
				util.Prioritized(&uploadLinkTransformer{baseURL: strings.TrimSuffix(baseURL, "/")}, 100),
			),
		),
		goldmark.WithRendererOptions(
			html.WithHardWraps(),
		),
	)

	return &goldmarkRenderer{renderer: renderer}
}

func (r *goldmarkRenderer) Render(body string) (string, error) {
	var buf bytes.Buffer
	if err := r.renderer.Convert([]byte(body), &buf); err != nil {
		return "", fmt.Errorf("failed to convert body to HTML: %w", err)
	}
	return buf.String(), nil
}
