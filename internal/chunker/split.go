package chunker

import (
	"regexp"
	"strings"

	"github.com/dgallion1/docxlate/internal/document"
)

var atxHeading = regexp.MustCompile(`^#{1,6}\s`)

// IsHeading reports whether line opens with an ATX heading marker.
func IsHeading(line string) bool {
	return atxHeading.MatchString(line)
}

// SplitHeadings drops blank lines and cuts the remaining lines into segments,
// each starting at a heading line. Text before the first heading forms its
// own leading segment. Lines keep their newline terminators.
func SplitHeadings(text string) []document.Segment {
	var segs []document.Segment
	var current strings.Builder

	flush := func() {
		if current.Len() == 0 {
			return
		}
		segs = append(segs, document.Segment{
			Content: current.String(),
			Index:   len(segs),
		})
		current.Reset()
	}

	for _, line := range strings.SplitAfter(text, "\n") {
		if strings.TrimSpace(line) == "" {
			continue
		}
		if IsHeading(line) {
			flush()
		}
		current.WriteString(line)
	}
	flush()

	return segs
}
