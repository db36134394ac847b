package translate

import (
	"errors"
	"regexp"
	"strings"
)

// ErrEmptyTranslation is returned when the model answered with no text.
var ErrEmptyTranslation = errors.New("empty translation")

var fenceRe = regexp.MustCompile("(?s)^```(?:markdown|md)?[ \\t]*\\n(.*?)\\n?```$")

// CleanOutput trims model output and removes a code fence wrapped around the
// whole answer. Fences inside the text are left alone.
func CleanOutput(s string) (string, error) {
	s = strings.TrimSpace(s)
	if m := fenceRe.FindStringSubmatch(s); len(m) > 1 {
		s = strings.TrimSpace(m[1])
	}
	if s == "" {
		return "", ErrEmptyTranslation
	}
	return s, nil
}
