// Package filename builds safe output file names.
package filename

import (
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"
)

const (
	// MaxStemRunes caps the stem length, leaving room for directory and extension.
	MaxStemRunes = 200
	// DefaultStem replaces names that sanitize to nothing.
	DefaultStem = "translated_document"
	// Suffix is appended to the stem of derived output names.
	Suffix = "_translated"
)

var (
	illegalRe    = regexp.MustCompile(`[<>:"/\\|?*]`)
	whitespaceRe = regexp.MustCompile(`\s+`)
)

// Sanitize keeps only the base name, replaces characters that are illegal on
// common filesystems, collapses whitespace and truncates long stems.
func Sanitize(name string) string {
	name = baseName(name)
	name = illegalRe.ReplaceAllString(name, "_")
	name = whitespaceRe.ReplaceAllString(name, "_")
	name = strings.Trim(name, " ._")

	if name == "" || strings.HasPrefix(name, ".") {
		name = DefaultStem + name
	}

	ext := filepath.Ext(name)
	stem := strings.TrimSuffix(name, ext)
	if r := []rune(stem); len(r) > MaxStemRunes {
		stem = string(r[:MaxStemRunes])
	}
	return stem + ext
}

// baseName strips directories using both separators, whatever the host OS.
func baseName(name string) string {
	if i := strings.LastIndexAny(name, `/\`); i >= 0 {
		name = name[i+1:]
	}
	return name
}

// OutputPath derives where the translation of input is written.
//
//   - dest empty: next to input, as <stem>_translated<ext>.
//   - dest an existing directory: <dest>/<stem>_translated_<timestamp><ext>.
//   - otherwise dest itself, with its file name sanitized.
func OutputPath(input, dest string, now time.Time) string {
	ext := filepath.Ext(input)
	stem := Sanitize(strings.TrimSuffix(filepath.Base(input), ext))

	if dest == "" {
		return filepath.Join(filepath.Dir(input), stem+Suffix+ext)
	}
	if fi, err := os.Stat(dest); err == nil && fi.IsDir() {
		return filepath.Join(dest, stem+Suffix+"_"+now.Format("20060102_150405")+ext)
	}

	dir, file := filepath.Split(dest)
	clean := Sanitize(file)
	if dir == "" {
		return clean
	}
	return filepath.Join(dir, clean)
}
