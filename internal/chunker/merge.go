package chunker

import (
	"regexp"
	"strings"

	"github.com/dgallion1/docxlate/internal/document"
)

var (
	// "# 1 Introduction", "# 12 Conclusion"
	majorHeading = regexp.MustCompile(`^#\s\d+`)
	// "References", "# REFERENCES", "## reference list"
	terminalMarker = regexp.MustCompile(`(?i)^#*\s*reference`)
)

// IsMajorHeading reports whether a segment opens a numbered top-level section.
func IsMajorHeading(content string) bool {
	return majorHeading.MatchString(strings.TrimSpace(content))
}

// IsTerminalMarker reports whether a segment starts the reference list.
func IsTerminalMarker(content string) bool {
	return terminalMarker.MatchString(strings.TrimSpace(content))
}

// MergeSections groups segments under their major headings. Processing stops
// at the first terminal marker; that segment and everything after it is
// dropped.
func MergeSections(segs []document.Segment) []document.Section {
	var sections []document.Section
	var current strings.Builder

	flush := func() {
		if current.Len() == 0 {
			return
		}
		sections = append(sections, document.Section{
			Content: current.String(),
			Index:   len(sections),
		})
		current.Reset()
	}

	for _, seg := range segs {
		if IsTerminalMarker(seg.Content) {
			break
		}
		if IsMajorHeading(seg.Content) {
			flush()
		}
		current.WriteString(seg.Content)
	}
	flush()

	return sections
}
