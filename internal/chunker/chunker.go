package chunker

import (
	"errors"

	"github.com/dgallion1/docxlate/internal/document"
)

// ErrEmptyInput is returned when a document has no usable content.
var ErrEmptyInput = errors.New("no usable content in document")

// TokenCounter measures text length in model tokens.
type TokenCounter interface {
	Count(text string) int
}

// Config controls chunking behavior.
type Config struct {
	MaxTokens int // Token budget per dispatch unit.
}

// DefaultConfig returns sensible defaults.
func DefaultConfig() Config {
	return Config{MaxTokens: 2048}
}

// Stats summarizes how a document was cut up.
type Stats struct {
	Segments  int
	Sections  int
	Units     int
	Oversized int
}

// Chunk splits text at headings, regroups it into major sections and packs
// the sections into units bounded by cfg.MaxTokens.
func Chunk(text string, counter TokenCounter, cfg Config) ([]document.Unit, Stats, error) {
	if cfg.MaxTokens <= 0 {
		cfg.MaxTokens = DefaultConfig().MaxTokens
	}

	var st Stats
	segs := SplitHeadings(text)
	st.Segments = len(segs)
	if len(segs) == 0 {
		return nil, st, ErrEmptyInput
	}

	sections := MergeSections(segs)
	st.Sections = len(sections)
	if len(sections) == 0 {
		return nil, st, ErrEmptyInput
	}

	units, err := Pack(sections, counter, cfg.MaxTokens)
	if err != nil {
		return nil, st, err
	}
	st.Units = len(units)
	for _, u := range units {
		if u.Oversized {
			st.Oversized++
		}
	}
	return units, st, nil
}
