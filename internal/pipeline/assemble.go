package pipeline

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

const (
	unitSeparator  = "\n\n"
	errorLogHeader = "\n\n---\n\n## Translation Error Log\n\n"
)

// ErrIncompleteResults is returned when a result slot was never written.
var ErrIncompleteResults = errors.New("result store is incomplete")

// Output holds every unit's result in unit order plus the failures.
type Output struct {
	Results []Result
	Errors  []*UnitError
}

// Succeeded returns the number of units transformed successfully.
func (o *Output) Succeeded() int {
	n := 0
	for _, r := range o.Results {
		if r.Attempts > 0 && r.OK() {
			n++
		}
	}
	return n
}

// Failed returns the number of units whose retries were exhausted.
func (o *Output) Failed() int {
	return len(o.Errors)
}

// Summary is the final tally, e.g. "7/8 succeeded".
func (o *Output) Summary() string {
	return fmt.Sprintf("%d/%d succeeded", o.Succeeded(), len(o.Results))
}

// Assemble joins results in unit order and appends an error log when any
// unit failed.
func Assemble(o *Output) (string, error) {
	texts := make([]string, len(o.Results))
	for i, r := range o.Results {
		if r.Attempts == 0 || r.Index != i {
			return "", fmt.Errorf("%w: slot %d", ErrIncompleteResults, i)
		}
		texts[i] = r.Text
	}

	var sb strings.Builder
	sb.WriteString(strings.Join(texts, unitSeparator))
	if len(o.Errors) > 0 {
		sb.WriteString(errorLogHeader)
		for _, e := range o.Errors {
			fmt.Fprintf(&sb, "- %s\n", e.Error())
		}
	}
	return sb.String(), nil
}

// OutputWriteError means the assembled document could not be written.
type OutputWriteError struct {
	Path string
	Err  error
}

func (e *OutputWriteError) Error() string {
	return fmt.Sprintf("write output %s: %v", e.Path, e.Err)
}

func (e *OutputWriteError) Unwrap() error { return e.Err }

// WriteOutput assembles o and writes it to path in one write, creating
// parent directories as needed.
func WriteOutput(path string, o *Output) error {
	doc, err := Assemble(o)
	if err != nil {
		return err
	}
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return &OutputWriteError{Path: path, Err: err}
		}
	}
	if err := os.WriteFile(path, []byte(doc), 0o644); err != nil {
		return &OutputWriteError{Path: path, Err: err}
	}
	return nil
}
