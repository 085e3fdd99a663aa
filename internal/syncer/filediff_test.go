package syncer

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/klauern/rulesync/internal/manifest"
)

func writeFile(t *testing.T, dir, relPath, content string) {
	t.Helper()
	path := filepath.Join(dir, relPath)
	if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
}

func TestDiffFileIdentical(t *testing.T) {
	srcDir, tgtDir := t.TempDir(), t.TempDir()
	e := New(srcDir, tgtDir, manifest.NewStore(""))

	writeFile(t, srcDir, "rules/a.md", "line one\nline two\n")
	writeFile(t, tgtDir, "rules/a.md", "line one\nline two\n")

	diff, err := e.DiffFile("rules/a.md")
	if err != nil {
		t.Fatalf("DiffFile failed: %v", err)
	}
	if !diff.Identical() {
		t.Errorf("expected identical, got %+v", diff.Lines)
	}
}

func TestDiffFileChanges(t *testing.T) {
	srcDir, tgtDir := t.TempDir(), t.TempDir()
	e := New(srcDir, tgtDir, manifest.NewStore(""))

	writeFile(t, srcDir, "rules/a.md", "keep\nnew line\nend\n")
	writeFile(t, tgtDir, "rules/a.md", "keep\nold line\nend\n")

	diff, err := e.DiffFile("rules/a.md")
	if err != nil {
		t.Fatalf("DiffFile failed: %v", err)
	}
	if diff.Identical() {
		t.Fatal("expected differences")
	}

	var added, removed, same int
	for _, line := range diff.Lines {
		switch line.Kind {
		case LineAdded:
			added++
			if line.Text != "new line" {
				t.Errorf("added line = %q", line.Text)
			}
		case LineRemoved:
			removed++
			if line.Text != "old line" {
				t.Errorf("removed line = %q", line.Text)
			}
		case LineSame:
			same++
		}
	}
	if added != 1 || removed != 1 || same != 2 {
		t.Errorf("added=%d removed=%d same=%d", added, removed, same)
	}

	rendered := diff.Render()
	if !strings.Contains(rendered, "+ new line") || !strings.Contains(rendered, "- old line") {
		t.Errorf("Render output:\n%s", rendered)
	}
}

func TestDiffFileSourceOnly(t *testing.T) {
	srcDir, tgtDir := t.TempDir(), t.TempDir()
	e := New(srcDir, tgtDir, manifest.NewStore(""))

	writeFile(t, srcDir, "rules/a.md", "first\nsecond\n")

	diff, err := e.DiffFile("rules/a.md")
	if err != nil {
		t.Fatalf("DiffFile failed: %v", err)
	}
	if !diff.SourceExists || diff.TargetExists {
		t.Errorf("existence flags wrong: source=%v target=%v", diff.SourceExists, diff.TargetExists)
	}
	if diff.Identical() {
		t.Error("missing target must not report identical")
	}

	// A file only the source has is a pure addition, line by line.
	if len(diff.Lines) != 2 {
		t.Fatalf("expected 2 lines, got %d", len(diff.Lines))
	}
	for _, line := range diff.Lines {
		if line.Kind != LineAdded {
			t.Errorf("line %q kind = %v, want LineAdded", line.Text, line.Kind)
		}
	}
	rendered := diff.Render()
	if !strings.Contains(rendered, "+ first") || !strings.Contains(rendered, "+ second") {
		t.Errorf("Render output:\n%s", rendered)
	}
}

func TestDiffFileTargetOnly(t *testing.T) {
	srcDir, tgtDir := t.TempDir(), t.TempDir()
	e := New(srcDir, tgtDir, manifest.NewStore(""))

	writeFile(t, tgtDir, "rules/local.md", "kept\n")

	diff, err := e.DiffFile("rules/local.md")
	if err != nil {
		t.Fatalf("DiffFile failed: %v", err)
	}
	if diff.SourceExists || !diff.TargetExists {
		t.Errorf("existence flags wrong: source=%v target=%v", diff.SourceExists, diff.TargetExists)
	}
	if len(diff.Lines) != 1 || diff.Lines[0].Kind != LineRemoved {
		t.Errorf("target-only file should be pure removals, got %+v", diff.Lines)
	}
}

func TestDiffFileMissingBothSides(t *testing.T) {
	srcDir, tgtDir := t.TempDir(), t.TempDir()
	e := New(srcDir, tgtDir, manifest.NewStore(""))

	diff, err := e.DiffFile("rules/ghost.md")
	if err != nil {
		t.Fatalf("missing both sides should not error: %v", err)
	}
	if len(diff.Lines) != 0 {
		t.Errorf("expected empty comparison, got %+v", diff.Lines)
	}
}

func TestDiffLinesPureAdditionsAndRemovals(t *testing.T) {
	lines := diffLines([]string{}, []string{"a", "b"})
	if len(lines) != 2 || lines[0].Kind != LineAdded || lines[1].Kind != LineAdded {
		t.Errorf("pure addition diff = %+v", lines)
	}

	lines = diffLines([]string{"a", "b"}, []string{})
	if len(lines) != 2 || lines[0].Kind != LineRemoved {
		t.Errorf("pure removal diff = %+v", lines)
	}
}
