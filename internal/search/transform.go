package search

import (
	"os"
	"strings"

	"github.com/yuin/goldmark"
	gmast "github.com/yuin/goldmark/ast"
	gmtext "github.com/yuin/goldmark/text"
	xhtml "golang.org/x/net/html"
	"golang.org/x/text/unicode/norm"
)

// readFile is separated so tests can exercise Build against fixtures without
// stubbing the transform.
func readFile(path string) ([]byte, error) {
	return os.ReadFile(path)
}

// StripMarkdown is the default transform: it parses the markdown body with
// Goldmark and collects the text content of the AST, dropping link targets,
// code fences markers and other markup. Raw HTML embedded in the markdown is
// reduced to its text via an HTML tokenizer. Output is NFC-normalized with
// collapsed whitespace.
func StripMarkdown(raw []byte, _ string, _ *Context) string {
	md := goldmark.New()
	root := md.Parser().Parse(gmtext.NewReader(raw))

	var sb strings.Builder
	_ = gmast.Walk(root, func(n gmast.Node, entering bool) (gmast.WalkStatus, error) {
		if !entering {
			return gmast.WalkContinue, nil
		}

		switch node := n.(type) {
		case *gmast.Text:
			sb.Write(node.Segment.Value(raw))
			sb.WriteByte(' ')
		case *gmast.AutoLink:
			sb.Write(node.URL(raw))
			sb.WriteByte(' ')
		case *gmast.CodeBlock:
			writeLines(&sb, raw, node)
		case *gmast.FencedCodeBlock:
			writeLines(&sb, raw, node)
		case *gmast.HTMLBlock:
			writeHTMLText(&sb, blockLines(raw, node))
		case *gmast.RawHTML:
			var html []byte
			for i := 0; i < node.Segments.Len(); i++ {
				seg := node.Segments.At(i)
				html = append(html, seg.Value(raw)...)
			}
			writeHTMLText(&sb, html)
		}
		return gmast.WalkContinue, nil
	})

	return collapseWhitespace(norm.NFC.String(sb.String()))
}

func writeLines(sb *strings.Builder, raw []byte, node gmast.Node) {
	lines := node.Lines()
	for i := 0; i < lines.Len(); i++ {
		seg := lines.At(i)
		sb.Write(seg.Value(raw))
	}
	sb.WriteByte(' ')
}

func blockLines(raw []byte, node gmast.Node) []byte {
	var out []byte
	lines := node.Lines()
	for i := 0; i < lines.Len(); i++ {
		seg := lines.At(i)
		out = append(out, seg.Value(raw)...)
	}
	return out
}

// writeHTMLText tokenizes an HTML fragment and keeps only text tokens.
func writeHTMLText(sb *strings.Builder, fragment []byte) {
	tok := xhtml.NewTokenizer(strings.NewReader(string(fragment)))
	for {
		tt := tok.Next()
		if tt == xhtml.ErrorToken {
			return
		}
		if tt == xhtml.TextToken {
			sb.Write(tok.Text())
			sb.WriteByte(' ')
		}
	}
}

func collapseWhitespace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
