package compare

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/klauern/rulesync/internal/manifest"
	"github.com/klauern/rulesync/internal/model"
)

func writeRule(t *testing.T, dir, relPath, content string) string {
	t.Helper()
	path := filepath.Join(dir, relPath)
	if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return manifest.HashBytes([]byte(content))
}

func baseManifest(version string) *manifest.Manifest {
	m := manifest.New()
	m.RulesVersion = version
	return m
}

func addRule(m *manifest.Manifest, path, version, checksum string) {
	m.Rules[path] = manifest.Rule{
		Version:  version,
		Checksum: checksum,
		Scope:    model.ScopeUniversal,
		Priority: model.PriorityMedium,
	}
}

func TestCompareMissingTarget(t *testing.T) {
	srcDir, tgtDir := t.TempDir(), t.TempDir()
	c := New(srcDir, tgtDir)

	src := baseManifest("1.0.0")
	addRule(src, "rules/b.md", "1.0.0", "hash-b")
	addRule(src, "rules/a.md", "1.0.0", "hash-a")

	cmp := c.Compare(src, nil)

	if cmp.Status != StatusMissing {
		t.Errorf("Status = %s, want missing", cmp.Status)
	}
	if len(cmp.Diff) != 2 {
		t.Fatalf("Diff has %d entries, want 2", len(cmp.Diff))
	}
	// Deterministic path order.
	if cmp.Diff[0].Path != "rules/a.md" || cmp.Diff[1].Path != "rules/b.md" {
		t.Errorf("Diff order wrong: %v, %v", cmp.Diff[0].Path, cmp.Diff[1].Path)
	}
	for _, e := range cmp.Diff {
		if e.Kind != KindNew {
			t.Errorf("entry %s kind = %s, want new", e.Path, e.Kind)
		}
	}
}

func TestCompareUpToDate(t *testing.T) {
	srcDir, tgtDir := t.TempDir(), t.TempDir()
	c := New(srcDir, tgtDir)

	hash := writeRule(t, srcDir, "rules/a.md", "same content")
	writeRule(t, tgtDir, "rules/a.md", "same content")

	src := baseManifest("1.0.0")
	addRule(src, "rules/a.md", "1.0.0", hash)
	tgt := baseManifest("1.0.0")
	addRule(tgt, "rules/a.md", "1.0.0", hash)

	cmp := c.Compare(src, tgt)
	if cmp.Status != StatusUpToDate {
		t.Errorf("Status = %s, want up-to-date", cmp.Status)
	}
	if len(cmp.Diff) != 0 {
		t.Errorf("Diff should be empty, got %v", cmp.Diff)
	}
}

func TestCompareEqualVersionsButDrifted(t *testing.T) {
	srcDir, tgtDir := t.TempDir(), t.TempDir()
	c := New(srcDir, tgtDir)

	srcHash := writeRule(t, srcDir, "rules/a.md", "source content")
	tgtHash := writeRule(t, tgtDir, "rules/a.md", "edited locally")

	src := baseManifest("1.0.0")
	addRule(src, "rules/a.md", "1.0.0", srcHash)
	tgt := baseManifest("1.0.0")
	addRule(tgt, "rules/a.md", "1.0.0", tgtHash)

	cmp := c.Compare(src, tgt)
	if cmp.Status != StatusModified {
		t.Errorf("Status = %s, want modified", cmp.Status)
	}
	if len(cmp.Diff) != 1 {
		t.Fatalf("Diff has %d entries, want 1", len(cmp.Diff))
	}
	e := cmp.Diff[0]
	if e.Kind != KindModified || !e.ChecksumMismatch {
		t.Errorf("entry = %+v, want modified with checksum mismatch", e)
	}
}

func TestCompareStaleChecksumNoFalsePositive(t *testing.T) {
	srcDir, tgtDir := t.TempDir(), t.TempDir()
	c := New(srcDir, tgtDir)

	// Files are byte-identical on disk, but the manifests declare
	// different (stale) checksums. Recomputation must suppress the entry.
	writeRule(t, srcDir, "rules/a.md", "identical bytes")
	writeRule(t, tgtDir, "rules/a.md", "identical bytes")

	src := baseManifest("1.0.0")
	addRule(src, "rules/a.md", "1.0.0", "stale-checksum-one")
	tgt := baseManifest("1.0.0")
	addRule(tgt, "rules/a.md", "1.0.0", "stale-checksum-two")

	cmp := c.Compare(src, tgt)
	if cmp.Status != StatusUpToDate {
		t.Errorf("Status = %s, want up-to-date despite stale manifest checksums", cmp.Status)
	}
}

func TestCompareOutdated(t *testing.T) {
	srcDir, tgtDir := t.TempDir(), t.TempDir()
	c := New(srcDir, tgtDir)

	src := baseManifest("1.1.0")
	addRule(src, "rules/a.md", "1.1.0", "hash-a2")
	addRule(src, "rules/b.md", "1.0.0", "hash-b")
	tgt := baseManifest("1.0.0")
	addRule(tgt, "rules/a.md", "1.0.0", "hash-a")
	addRule(tgt, "rules/b.md", "1.0.0", "hash-b")

	cmp := c.Compare(src, tgt)
	if cmp.Status != StatusOutdated {
		t.Errorf("Status = %s, want outdated", cmp.Status)
	}
	if len(cmp.Diff) != 1 {
		t.Fatalf("Diff has %d entries, want 1", len(cmp.Diff))
	}
	e := cmp.Diff[0]
	if e.Path != "rules/a.md" || e.Kind != KindUpdate {
		t.Errorf("entry = %+v, want update for rules/a.md", e)
	}
	if e.TargetVersion != "1.0.0" || e.SourceVersion != "1.1.0" {
		t.Errorf("versions = %s -> %s", e.TargetVersion, e.SourceVersion)
	}
}

func TestCompareAheadEmitsNoDiff(t *testing.T) {
	srcDir, tgtDir := t.TempDir(), t.TempDir()
	c := New(srcDir, tgtDir)

	src := baseManifest("1.0.0")
	addRule(src, "rules/a.md", "1.0.0", "old")
	tgt := baseManifest("2.0.0")
	addRule(tgt, "rules/a.md", "2.0.0", "newer")

	cmp := c.Compare(src, tgt)
	if cmp.Status != StatusAhead {
		t.Errorf("Status = %s, want ahead", cmp.Status)
	}
	if len(cmp.Diff) != 0 {
		t.Errorf("ahead target must never produce work, got %v", cmp.Diff)
	}
}

func TestCompareRemovedRule(t *testing.T) {
	srcDir, tgtDir := t.TempDir(), t.TempDir()
	c := New(srcDir, tgtDir)

	src := baseManifest("1.1.0")
	addRule(src, "rules/kept.md", "1.1.0", "h1")
	tgt := baseManifest("1.0.0")
	addRule(tgt, "rules/kept.md", "1.0.0", "h0")
	addRule(tgt, "rules/dropped.md", "1.0.0", "h2")

	cmp := c.Compare(src, tgt)

	var removed *Entry
	for i := range cmp.Diff {
		if cmp.Diff[i].Kind == KindRemoved {
			removed = &cmp.Diff[i]
		}
	}
	if removed == nil {
		t.Fatal("no removed entry emitted")
	}
	if removed.Path != "rules/dropped.md" || removed.TargetVersion != "1.0.0" {
		t.Errorf("removed entry = %+v", removed)
	}
	// Removed entries come after source-ordered entries.
	if cmp.Diff[len(cmp.Diff)-1].Kind != KindRemoved {
		t.Error("removed entries should be appended last")
	}
}

func TestVersionOrdering(t *testing.T) {
	tests := []struct {
		a, b string
		want int
	}{
		{"1.2.3", "1.3.0", -1},
		{"2.0.0", "1.9.9", 1},
		{"1.0", "1.0.0", 0},
	}
	for _, tt := range tests {
		if got := model.CompareVersions(tt.a, tt.b); got != tt.want {
			t.Errorf("CompareVersions(%q, %q) = %d, want %d", tt.a, tt.b, got, tt.want)
		}
	}
}

func TestStatusPending(t *testing.T) {
	pending := map[Status]bool{
		StatusUpToDate: false,
		StatusOutdated: true,
		StatusMissing:  true,
		StatusModified: true,
		StatusAhead:    false,
	}
	for status, want := range pending {
		if got := status.Pending(); got != want {
			t.Errorf("%s.Pending() = %v, want %v", status, got, want)
		}
	}
}
