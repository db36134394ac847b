package document

import "strings"

// RawDocument is the full source text of a document, loaded once.
type RawDocument struct {
	Title    string   // Document title (first heading or filename stem)
	Filename string   // Original file name
	Text     string   // Markdown-like content with ATX headings
	Assets   []string // Image/asset references found in the text
}

// Segment is the text between two heading boundaries.
type Segment struct {
	Content string
	Index   int
}

// Section is one or more Segments grouped under a major heading.
type Section struct {
	Content string
	Index   int
}

// Unit is a dispatch-ready chunk sized against a token budget.
type Unit struct {
	Content   string
	Tokens    int
	Index     int
	Oversized bool // Single section that exceeds the budget on its own
}

// JoinSegments concatenates segment contents in order.
func JoinSegments(segs []Segment) string {
	var sb strings.Builder
	for _, s := range segs {
		sb.WriteString(s.Content)
	}
	return sb.String()
}

// JoinSections concatenates section contents in order.
func JoinSections(secs []Section) string {
	var sb strings.Builder
	for _, s := range secs {
		sb.WriteString(s.Content)
	}
	return sb.String()
}

// JoinUnits concatenates unit contents in order.
func JoinUnits(units []Unit) string {
	var sb strings.Builder
	for _, u := range units {
		sb.WriteString(u.Content)
	}
	return sb.String()
}
