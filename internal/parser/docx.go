package parser

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/dgallion1/docxlate/internal/document"
	"github.com/fumiama/go-docx"
)

// DOCXParser converts .docx files into Markdown using paragraph heading styles.
type DOCXParser struct{}

func (p *DOCXParser) Parse(r io.Reader, filename string) (*document.RawDocument, error) {
	// go-docx needs a ReaderAt+size, so write to temp file.
	tmp, err := os.CreateTemp("", "docxlate-docx-*.docx")
	if err != nil {
		return nil, fmt.Errorf("create temp file: %w", err)
	}
	defer os.Remove(tmp.Name())
	defer tmp.Close()

	size, err := io.Copy(tmp, r)
	if err != nil {
		return nil, fmt.Errorf("write temp file: %w", err)
	}

	d, err := docx.Parse(tmp, size)
	if err != nil {
		return nil, fmt.Errorf("parse docx: %w", err)
	}

	doc := &document.RawDocument{
		Title:    stem(filename),
		Filename: filename,
	}

	var md markdownBuilder
	titled := false
	for _, item := range d.Document.Body.Items {
		para, ok := item.(*docx.Paragraph)
		if !ok {
			continue
		}
		text := docxParagraphText(para)
		if text == "" {
			continue
		}

		if level := docxHeadingLevel(para); level > 0 {
			md.block(atx(level, text))
			if !titled {
				doc.Title = text
				titled = true
			}
			continue
		}
		md.block(text)
	}
	doc.Text = md.String()

	return doc, nil
}

// docxHeadingLevel maps "Heading1" / "heading 1" / "Title" styles to a level.
func docxHeadingLevel(para *docx.Paragraph) int {
	if para.Properties == nil || para.Properties.Style == nil {
		return 0
	}
	style := strings.ToLower(strings.ReplaceAll(para.Properties.Style.Val, " ", ""))
	if style == "title" {
		return 1
	}
	if rest, ok := strings.CutPrefix(style, "heading"); ok && len(rest) == 1 && rest[0] >= '1' && rest[0] <= '6' {
		return int(rest[0] - '0')
	}
	return 0
}

func docxParagraphText(para *docx.Paragraph) string {
	var buf strings.Builder
	for _, child := range para.Children {
		run, ok := child.(*docx.Run)
		if !ok {
			continue
		}
		for _, rc := range run.Children {
			if t, ok := rc.(*docx.Text); ok {
				buf.WriteString(t.Text)
			}
		}
	}
	return strings.TrimSpace(buf.String())
}
