package parser

import (
	"bufio"
	"io"
	"strings"

	"github.com/dgallion1/docxlate/internal/document"
)

// TextParser handles plain text files. Line breaks are normalized to "\n";
// paragraphs are kept as they are.
type TextParser struct{}

func (p *TextParser) Parse(r io.Reader, filename string) (*document.RawDocument, error) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	var sb strings.Builder
	for scanner.Scan() {
		sb.WriteString(strings.TrimRight(scanner.Text(), "\r"))
		sb.WriteString("\n")
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}

	return &document.RawDocument{
		Title:    stem(filename),
		Filename: filename,
		Text:     sb.String(),
	}, nil
}
