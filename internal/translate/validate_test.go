package translate

import (
	"errors"
	"testing"
)

func TestCleanOutput(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"plain", "## 1 引言\n正文", "## 1 引言\n正文"},
		{"surrounding whitespace", "\n\n  正文  \n", "正文"},
		{"markdown fence", "```markdown\n## 标题\n正文\n```", "## 标题\n正文"},
		{"bare fence", "```\n正文\n```", "正文"},
		{"md fence", "```md\n正文\n```", "正文"},
		{"inner code block kept", "正文\n```go\nx := 1\n```\n结尾", "正文\n```go\nx := 1\n```\n结尾"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got, err := CleanOutput(tc.in)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tc.want {
				t.Errorf("expected %q, got %q", tc.want, got)
			}
		})
	}
}

func TestCleanOutput_Empty(t *testing.T) {
	for _, in := range []string{"", "   \n", "```\n```"} {
		if _, err := CleanOutput(in); !errors.Is(err, ErrEmptyTranslation) {
			t.Errorf("CleanOutput(%q): expected ErrEmptyTranslation, got %v", in, err)
		}
	}
}
