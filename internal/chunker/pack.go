package chunker

import (
	"fmt"
	"strings"

	"github.com/dgallion1/docxlate/internal/document"
)

// Pack greedily combines consecutive sections into units of at most maxTokens.
// A section that exceeds the budget on its own is emitted unchanged as a
// single unit marked Oversized.
func Pack(sections []document.Section, counter TokenCounter, maxTokens int) ([]document.Unit, error) {
	if maxTokens <= 0 {
		return nil, fmt.Errorf("max tokens must be positive, got %d", maxTokens)
	}

	var units []document.Unit
	var current strings.Builder
	currentTokens := 0

	flush := func() {
		if current.Len() == 0 {
			return
		}
		units = append(units, document.Unit{
			Content: current.String(),
			Tokens:  currentTokens,
			Index:   len(units),
		})
		current.Reset()
		currentTokens = 0
	}

	for _, sec := range sections {
		secTokens := counter.Count(sec.Content)

		if secTokens > maxTokens {
			flush()
			units = append(units, document.Unit{
				Content:   sec.Content,
				Tokens:    secTokens,
				Index:     len(units),
				Oversized: true,
			})
			continue
		}

		// Measure the joined text, not the sum: BPE merges can cross the seam.
		combinedTokens := counter.Count(current.String() + sec.Content)
		if combinedTokens <= maxTokens {
			current.WriteString(sec.Content)
			currentTokens = combinedTokens
			continue
		}

		flush()
		current.WriteString(sec.Content)
		currentTokens = secTokens
	}
	flush()

	return units, nil
}
