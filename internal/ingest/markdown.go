package ingest

import (
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/extension"
	east "github.com/yuin/goldmark/extension/ast"
	"github.com/yuin/goldmark/text"
)

// MarkdownConverter flattens markdown transcripts to plain text.
type MarkdownConverter struct {
	parser goldmark.Markdown
}

// NewMarkdownConverter creates a converter that understands GFM tables.
func NewMarkdownConverter() *MarkdownConverter {
	return &MarkdownConverter{
		parser: goldmark.New(
			goldmark.WithExtensions(extension.Table),
		),
	}
}

// Text returns the readable text of a markdown document. Block elements
// are separated by newlines, markup and raw HTML are dropped, and table
// cells are joined with " | ".
func (c *MarkdownConverter) Text(content []byte) string {
	if len(content) == 0 {
		return ""
	}

	doc := c.parser.Parser().Parse(text.NewReader(content))

	var b strings.Builder
	newline := func() {
		s := b.String()
		if len(s) > 0 && !strings.HasSuffix(s, "\n") {
			b.WriteByte('\n')
		}
	}

	_ = ast.Walk(doc, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}

		switch node := n.(type) {
		case *ast.Heading, *ast.Paragraph, *ast.ListItem, *ast.Blockquote:
			newline()
		case *ast.Text:
			b.Write(node.Segment.Value(content))
			if node.SoftLineBreak() || node.HardLineBreak() {
				b.WriteByte(' ')
			}
		case *ast.String:
			b.Write(node.Value)
		case *ast.AutoLink:
			b.Write(node.URL(content))
			return ast.WalkSkipChildren, nil
		case *ast.CodeBlock, *ast.FencedCodeBlock:
			newline()
			lines := n.Lines()
			for i := 0; i < lines.Len(); i++ {
				line := lines.At(i)
				b.Write(line.Value(content))
			}
			return ast.WalkSkipChildren, nil
		case *ast.HTMLBlock, *ast.RawHTML:
			return ast.WalkSkipChildren, nil
		}

		switch n.Kind() {
		case east.KindTableHeader, east.KindTableRow:
			newline()
		case east.KindTableCell:
			if n.PreviousSibling() != nil {
				b.WriteString(" | ")
			}
		}
		return ast.WalkContinue, nil
	})

	return strings.TrimSpace(b.String())
}
