package filename

import (
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestSanitize(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"normal_file.md", "normal_file.md"},
		{"file with spaces.md", "file_with_spaces.md"},
		{"file:with:colons.md", "file_with_colons.md"},
		{`file"with"quotes.md`, "file_with_quotes.md"},
		{"file<with>brackets.md", "file_with_brackets.md"},
		{"file|with|pipes.md", "file_with_pipes.md"},
		{"file?with?questions.md", "file_with_questions.md"},
		{"file*with*stars.md", "file_with_stars.md"},
		{`dir\file.md`, "file.md"},
		{"dir/sub/file.md", "file.md"},
		{"file   with   spaces.md", "file_with_spaces.md"},
		{"  file  .md", "file_.md"},
		{".hidden_file.md", "hidden_file.md"},
		{"", DefaultStem},
		{"...", DefaultStem},
		{
			"Generative Agents: Interactive Simulacra of Human Behavior.pdf",
			"Generative_Agents__Interactive_Simulacra_of_Human_Behavior.pdf",
		},
		{
			"Park 等 - 2023 - Generative Agents.pdf",
			"Park_等_-_2023_-_Generative_Agents.pdf",
		},
	}
	for _, tc := range tests {
		t.Run(tc.in, func(t *testing.T) {
			got := Sanitize(tc.in)
			assert.Equal(t, tc.want, got)
			assert.NotContains(t, got, " ")
			assert.False(t, strings.ContainsAny(got, `<>:"/\|?*`))
		})
	}
}

func TestSanitize_TruncatesLongStem(t *testing.T) {
	long := strings.Repeat("论", 250) + ".md"
	got := Sanitize(long)
	assert.Equal(t, MaxStemRunes, len([]rune(strings.TrimSuffix(got, ".md"))))
	assert.True(t, strings.HasSuffix(got, ".md"))
}

func TestOutputPath(t *testing.T) {
	now := time.Date(2025, 4, 24, 9, 30, 15, 0, time.UTC)
	dir := t.TempDir()

	t.Run("derived next to input", func(t *testing.T) {
		got := OutputPath(filepath.Join("out", "paper one.md"), "", now)
		assert.Equal(t, filepath.Join("out", "paper_one_translated.md"), got)
	})

	t.Run("existing directory gets timestamped name", func(t *testing.T) {
		got := OutputPath("in/paper.md", dir, now)
		assert.Equal(t, filepath.Join(dir, "paper_translated_20250424_093015.md"), got)
	})

	t.Run("explicit file name is sanitized", func(t *testing.T) {
		got := OutputPath("in/paper.md", filepath.Join(dir, "my:result.md"), now)
		assert.Equal(t, filepath.Join(dir, "my_result.md"), got)
	})

	t.Run("bare file name", func(t *testing.T) {
		assert.Equal(t, "a_b.md", OutputPath("in/paper.md", "a b.md", now))
	})
}
