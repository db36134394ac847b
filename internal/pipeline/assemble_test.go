package pipeline

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func okResult(i int, text string) Result {
	return Result{Index: i, Text: text, Attempts: 1}
}

func TestAssemble_JoinsInOrder(t *testing.T) {
	out := &Output{Results: []Result{okResult(0, "# 一\n"), okResult(1, "# 二\n"), okResult(2, "# 三\n")}}
	got, err := Assemble(out)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := "# 一\n\n\n# 二\n\n\n# 三\n"
	if got != want {
		t.Errorf("expected %q, got %q", want, got)
	}
}

func TestAssemble_AppendsErrorLog(t *testing.T) {
	ue := &UnitError{Index: 1, Attempts: 3, MaxAttempts: 3, Err: errors.New("timeout")}
	out := &Output{
		Results: []Result{
			okResult(0, "甲"),
			{Index: 1, Text: Placeholder("B", ue), Err: ue, Attempts: 3},
		},
		Errors: []*UnitError{ue},
	}

	got, err := Assemble(out)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := "甲\n\n" +
		"\n<!-- translation failed: unit 1 attempt 3/3 failed: timeout -->\nB\n" +
		"\n\n---\n\n## Translation Error Log\n\n" +
		"- unit 1 attempt 3/3 failed: timeout\n"
	if got != want {
		t.Errorf("unexpected document:\n got %q\nwant %q", got, want)
	}
	if out.Summary() != "1/2 succeeded" {
		t.Errorf("expected summary %q, got %q", "1/2 succeeded", out.Summary())
	}
}

func TestAssemble_IncompleteResults(t *testing.T) {
	out := &Output{Results: []Result{okResult(0, "a"), {}}}
	_, err := Assemble(out)
	if !errors.Is(err, ErrIncompleteResults) {
		t.Fatalf("expected ErrIncompleteResults, got %v", err)
	}
}

func TestAssemble_Empty(t *testing.T) {
	got, err := Assemble(&Output{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != "" {
		t.Errorf("expected empty document, got %q", got)
	}
}

func TestWriteOutput_CreatesParentDirs(t *testing.T) {
	path := filepath.Join(t.TempDir(), "a", "b", "paper_translated.md")
	out := &Output{Results: []Result{okResult(0, "x"), okResult(1, "y")}}

	if err := WriteOutput(path, out); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read output: %v", err)
	}
	if string(data) != "x\n\ny" {
		t.Errorf("expected %q, got %q", "x\n\ny", string(data))
	}
}

func TestWriteOutput_UnwritableDestination(t *testing.T) {
	dir := t.TempDir()
	blocker := filepath.Join(dir, "file")
	if err := os.WriteFile(blocker, []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}

	path := filepath.Join(blocker, "out.md")
	err := WriteOutput(path, &Output{Results: []Result{okResult(0, "x")}})

	var we *OutputWriteError
	if !errors.As(err, &we) {
		t.Fatalf("expected OutputWriteError, got %v", err)
	}
	if we.Path != path {
		t.Errorf("expected path %q, got %q", path, we.Path)
	}
}
