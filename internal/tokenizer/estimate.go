package tokenizer

import "strings"

// Estimate is a word-based approximation used when no BPE encoding can be loaded.
type Estimate struct{}

// Count gives a rough token count at ~1.33 tokens per word.
func (Estimate) Count(text string) int {
	if text == "" {
		return 0
	}
	words := len(strings.Fields(text))
	tokens := int(float64(words) * 1.33)
	if tokens < 1 {
		tokens = 1
	}
	return tokens
}
