package chunker

import (
	"errors"
	"strings"
	"testing"

	"github.com/dgallion1/docxlate/internal/document"
)

// wordCounter counts whitespace-separated words, so fixtures can be sized exactly.
type wordCounter struct{}

func (wordCounter) Count(text string) int { return len(strings.Fields(text)) }

func section(idx, words int) document.Section {
	return document.Section{Content: strings.Repeat("w ", words) + "\n", Index: idx}
}

func TestSplitHeadings_BasicBoundaries(t *testing.T) {
	input := "Preface line.\n\n# 1 Intro\nintro text\n\n## 1.1 Detail\ndetail\n# 2 Next\nnext text"
	segs := SplitHeadings(input)

	want := []string{
		"Preface line.\n",
		"# 1 Intro\nintro text\n",
		"## 1.1 Detail\ndetail\n",
		"# 2 Next\nnext text",
	}
	if len(segs) != len(want) {
		t.Fatalf("expected %d segments, got %d: %#v", len(want), len(segs), segs)
	}
	for i, w := range want {
		if segs[i].Content != w {
			t.Errorf("segment %d: expected %q, got %q", i, w, segs[i].Content)
		}
		if segs[i].Index != i {
			t.Errorf("segment %d: expected index %d, got %d", i, i, segs[i].Index)
		}
	}
}

func nonBlankLines(text string) string {
	var sb strings.Builder
	for _, line := range strings.SplitAfter(text, "\n") {
		if strings.TrimSpace(line) != "" {
			sb.WriteString(line)
		}
	}
	return sb.String()
}

func TestSplitHeadings_Lossless(t *testing.T) {
	inputs := []string{
		"# A\n\n\ntext\n   \n## B\nmore\n",
		"no headings at all\nsecond line\n\n",
		"####### seven hashes is not a heading\n# real\n",
		"#notaheading\n# 1 yes\r\nbody\r\n",
	}
	for _, in := range inputs {
		segs := SplitHeadings(in)
		got := document.JoinSegments(segs)
		if got != nonBlankLines(in) {
			t.Errorf("split not lossless for %q: got %q", in, got)
		}
	}
}

func TestSplitHeadings_EmptyInput(t *testing.T) {
	for _, in := range []string{"", "\n\n", "   \n\t\n"} {
		if segs := SplitHeadings(in); len(segs) != 0 {
			t.Errorf("expected 0 segments for %q, got %d", in, len(segs))
		}
	}
}

func TestIsHeading(t *testing.T) {
	tests := []struct {
		line string
		want bool
	}{
		{"# Title", true},
		{"###### Six", true},
		{"####### Seven", false},
		{"#NoSpace", false},
		{" # indented", false},
		{"#\tTab", true},
		{"plain", false},
	}
	for _, tc := range tests {
		if got := IsHeading(tc.line); got != tc.want {
			t.Errorf("IsHeading(%q) = %v, want %v", tc.line, got, tc.want)
		}
	}
}

func TestMergeSections_GroupsUnderMajorHeadings(t *testing.T) {
	segs := SplitHeadings("Title page\n# Abstract\nabs\n# 1 Intro\ni\n## 1.1 Sub\ns\n# 2 Method\nm\n")
	secs := MergeSections(segs)

	want := []string{
		"Title page\n# Abstract\nabs\n",
		"# 1 Intro\ni\n## 1.1 Sub\ns\n",
		"# 2 Method\nm\n",
	}
	if len(secs) != len(want) {
		t.Fatalf("expected %d sections, got %d: %#v", len(want), len(secs), secs)
	}
	for i, w := range want {
		if secs[i].Content != w {
			t.Errorf("section %d: expected %q, got %q", i, w, secs[i].Content)
		}
		if secs[i].Index != i {
			t.Errorf("section %d: expected index %d, got %d", i, i, secs[i].Index)
		}
	}
}

func TestMergeSections_StopsAtReferences(t *testing.T) {
	for _, marker := range []string{"# References", "# REFERENCES", "## reference list", "References"} {
		t.Run(marker, func(t *testing.T) {
			segs := []document.Segment{
				{Content: "# 1 Intro\ntext\n", Index: 0},
				{Content: "## 1.1 Half done\n", Index: 1},
				{Content: marker + "\n[1] Someone 2023\n", Index: 2},
				{Content: "# 2 Appendix\nlooks well-formed\n", Index: 3},
			}
			secs := MergeSections(segs)
			if len(secs) != 1 {
				t.Fatalf("expected 1 section, got %d: %#v", len(secs), secs)
			}
			joined := document.JoinSections(secs)
			if strings.Contains(joined, "Appendix") || strings.Contains(strings.ToLower(joined), "reference") {
				t.Errorf("content at or after the marker leaked: %q", joined)
			}
		})
	}
}

func TestMergeSections_MarkerFirst(t *testing.T) {
	segs := []document.Segment{
		{Content: "# References\n", Index: 0},
		{Content: "# 1 Intro\n", Index: 1},
	}
	if secs := MergeSections(segs); len(secs) != 0 {
		t.Errorf("expected no sections, got %#v", secs)
	}
}

func TestIsMajorHeading(t *testing.T) {
	tests := []struct {
		content string
		want    bool
	}{
		{"# 1 Introduction", true},
		{"  # 12 Results\n", true},
		{"## 1.1 Sub", false},
		{"# Introduction", false},
		{"#1 Tight", false},
	}
	for _, tc := range tests {
		if got := IsMajorHeading(tc.content); got != tc.want {
			t.Errorf("IsMajorHeading(%q) = %v, want %v", tc.content, got, tc.want)
		}
	}
}

func TestPack_OversizedSectionStandsAlone(t *testing.T) {
	secs := []document.Section{section(0, 50), section(1, 3000)}
	units, err := Pack(secs, wordCounter{}, 2048)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(units) != 2 {
		t.Fatalf("expected 2 units, got %d", len(units))
	}
	if units[0].Oversized || units[0].Tokens != 50 {
		t.Errorf("unit 0: expected 50 tokens not oversized, got %+v", units[0].Tokens)
	}
	if !units[1].Oversized || units[1].Tokens != 3000 {
		t.Errorf("unit 1: expected oversized 3000 tokens, got oversized=%v tokens=%d", units[1].Oversized, units[1].Tokens)
	}
	if units[1].Content != secs[1].Content {
		t.Error("oversized unit must pass through unmodified")
	}
}

func TestPack_GreedyFill(t *testing.T) {
	secs := []document.Section{section(0, 800), section(1, 800), section(2, 800)}
	units, err := Pack(secs, wordCounter{}, 2048)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(units) != 2 {
		t.Fatalf("expected 2 units, got %d", len(units))
	}
	if units[0].Tokens != 1600 || units[1].Tokens != 800 {
		t.Errorf("expected token counts [1600 800], got [%d %d]", units[0].Tokens, units[1].Tokens)
	}
	if units[0].Content != secs[0].Content+secs[1].Content {
		t.Error("unit 0 should be sec1+sec2 in order")
	}
}

func TestPack_Invariants(t *testing.T) {
	sizes := []int{10, 400, 700, 5, 2100, 300, 300, 300, 1900, 1, 2048}
	var secs []document.Section
	for i, n := range sizes {
		secs = append(secs, section(i, n))
	}
	const budget = 1000
	units, err := Pack(secs, wordCounter{}, budget)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(units) > len(secs) {
		t.Errorf("more units (%d) than sections (%d)", len(units), len(secs))
	}
	if document.JoinUnits(units) != document.JoinSections(secs) {
		t.Error("packing dropped, duplicated or reordered content")
	}
	var wc wordCounter
	for i, u := range units {
		if u.Index != i {
			t.Errorf("unit %d: expected index %d, got %d", i, i, u.Index)
		}
		if !u.Oversized && u.Tokens > budget {
			t.Errorf("unit %d: %d tokens exceeds budget %d", i, u.Tokens, budget)
		}
		if u.Oversized && wc.Count(u.Content) <= budget {
			t.Errorf("unit %d flagged oversized but fits", i)
		}
	}
}

func TestPack_InvalidBudget(t *testing.T) {
	if _, err := Pack([]document.Section{section(0, 1)}, wordCounter{}, 0); err == nil {
		t.Error("expected error for zero budget")
	}
}

func TestChunk_EndToEnd(t *testing.T) {
	text := "# 1 Intro\n" + strings.Repeat("a ", 30) + "\n\n# 2 Body\n" + strings.Repeat("b ", 30) +
		"\n# 3 Big\n" + strings.Repeat("c ", 200) + "\n# References\n[1] x\n"

	units, st, err := Chunk(text, wordCounter{}, Config{MaxTokens: 100})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if st.Segments != 4 || st.Sections != 3 || st.Units != 2 || st.Oversized != 1 {
		t.Errorf("unexpected stats %+v", st)
	}
	if !strings.HasPrefix(units[0].Content, "# 1 Intro") || !strings.Contains(units[0].Content, "# 2 Body") {
		t.Errorf("expected sections 1 and 2 packed together, got %q", units[0].Content)
	}
	if !units[1].Oversized {
		t.Error("expected section 3 to be oversized")
	}
}

func TestChunk_EmptyInput(t *testing.T) {
	_, _, err := Chunk("\n  \n", wordCounter{}, DefaultConfig())
	if !errors.Is(err, ErrEmptyInput) {
		t.Fatalf("expected ErrEmptyInput, got %v", err)
	}

	_, _, err = Chunk("# References\n[1] only refs\n", wordCounter{}, DefaultConfig())
	if !errors.Is(err, ErrEmptyInput) {
		t.Fatalf("expected ErrEmptyInput when everything is after the marker, got %v", err)
	}
}

func TestChunk_ZeroConfigUsesDefault(t *testing.T) {
	units, _, err := Chunk("# 1 A\n"+strings.Repeat("x ", 100)+"\n", wordCounter{}, Config{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(units) != 1 || units[0].Oversized {
		t.Errorf("expected one in-budget unit with default config, got %+v", units)
	}
}
