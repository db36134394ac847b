package parser

import (
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/dgallion1/docxlate/internal/document"
)

// Parser converts raw document bytes into Markdown-like text with ATX headings.
type Parser interface {
	Parse(r io.Reader, filename string) (*document.RawDocument, error)
}

// SupportedExtensions lists file extensions this service can handle.
var SupportedExtensions = map[string]bool{
	".md":       true,
	".markdown": true,
	".txt":      true,
	".html":     true,
	".htm":      true,
	".docx":     true,
	".pdf":      true,
}

// ForFile returns the appropriate parser for a filename.
func ForFile(filename string) (Parser, error) {
	ext := strings.ToLower(filepath.Ext(filename))
	switch ext {
	case ".md", ".markdown":
		return &MarkdownParser{}, nil
	case ".txt":
		return &TextParser{}, nil
	case ".html", ".htm":
		return &HTMLParser{}, nil
	case ".docx":
		return &DOCXParser{}, nil
	case ".pdf":
		return &PDFParser{FallbackPdftotext: true}, nil
	default:
		return nil, fmt.Errorf("unsupported file extension: %q", ext)
	}
}

// IsSupportedExtension checks if a file extension is supported.
func IsSupportedExtension(filename string) bool {
	return SupportedExtensions[strings.ToLower(filepath.Ext(filename))]
}

func stem(filename string) string {
	base := filepath.Base(filename)
	return strings.TrimSuffix(base, filepath.Ext(base))
}

// atx renders a heading line.
func atx(level int, title string) string {
	return strings.Repeat("#", level) + " " + title
}

// markdownBuilder accumulates blocks separated by blank lines.
type markdownBuilder struct {
	sb strings.Builder
}

func (b *markdownBuilder) block(s string) {
	s = strings.TrimSpace(s)
	if s == "" {
		return
	}
	if b.sb.Len() > 0 {
		b.sb.WriteString("\n\n")
	}
	b.sb.WriteString(s)
}

func (b *markdownBuilder) String() string {
	if b.sb.Len() == 0 {
		return ""
	}
	return b.sb.String() + "\n"
}
