package parser

import (
	"io"
	"strings"

	"github.com/dgallion1/docxlate/internal/document"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/text"
)

// MarkdownParser keeps Markdown source byte-for-byte and uses goldmark only
// to pick out the title and referenced assets.
type MarkdownParser struct{}

func (p *MarkdownParser) Parse(r io.Reader, filename string) (*document.RawDocument, error) {
	src, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}

	doc := &document.RawDocument{
		Title:    stem(filename),
		Filename: filename,
		Text:     string(src),
	}

	root := goldmark.New().Parser().Parse(text.NewReader(src))
	titled := false
	seen := make(map[string]bool)

	err = ast.Walk(root, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}
		switch node := n.(type) {
		case *ast.Heading:
			if !titled {
				if t := strings.TrimSpace(string(node.Text(src))); t != "" {
					doc.Title = t
					titled = true
				}
			}
		case *ast.Image:
			dest := string(node.Destination)
			if dest != "" && !seen[dest] {
				seen[dest] = true
				doc.Assets = append(doc.Assets, dest)
			}
		}
		return ast.WalkContinue, nil
	})
	if err != nil {
		return nil, err
	}

	return doc, nil
}
