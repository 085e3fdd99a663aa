package syncer

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/klauern/rulesync/internal/compare"
	"github.com/klauern/rulesync/internal/manifest"
	"github.com/klauern/rulesync/internal/model"
)

type fixture struct {
	sourceDir string
	targetDir string
	store     *manifest.Store
	engine    *Engine
	source    *manifest.Manifest
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	f := &fixture{
		sourceDir: t.TempDir(),
		targetDir: t.TempDir(),
		store:     manifest.NewStore(""),
	}
	f.engine = New(f.sourceDir, f.targetDir, f.store)
	f.source = manifest.New()
	f.source.RulesVersion = "1.0.0"
	f.source.SourceProject = "standards"
	return f
}

// addSourceRule writes a rule file in the source dir and declares it.
func (f *fixture) addSourceRule(t *testing.T, relPath, content, version string, scope model.Scope) {
	t.Helper()
	path := filepath.Join(f.sourceDir, relPath)
	if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	f.source.Rules[relPath] = manifest.Rule{
		Version:  version,
		Checksum: manifest.HashBytes([]byte(content)),
		Scope:    scope,
		Priority: model.PriorityMedium,
	}
}

func (f *fixture) compareAgainstTarget(t *testing.T) *compare.Comparison {
	t.Helper()
	target, err := f.store.Load(f.targetDir)
	if err != nil {
		target = nil
	}
	return compare.New(f.sourceDir, f.targetDir).Compare(f.source, target)
}

func (f *fixture) targetContent(t *testing.T, relPath string) string {
	t.Helper()
	content, err := os.ReadFile(filepath.Join(f.targetDir, relPath))
	if err != nil {
		t.Fatalf("failed to read target rule %s: %v", relPath, err)
	}
	return string(content)
}

func TestPullFullSyncOnFirstContact(t *testing.T) {
	f := newFixture(t)
	f.addSourceRule(t, "rules/a.md", "content a", "1.0.0", model.ScopeUniversal)
	f.addSourceRule(t, "rules/b.md", "content b", "1.0.0", model.ScopeUniversal)
	f.addSourceRule(t, "rules/c.md", "content c", "1.0.0", model.ScopeCustomizable)

	cmp := f.compareAgainstTarget(t)
	if cmp.Status != compare.StatusMissing || len(cmp.Diff) != 3 {
		t.Fatalf("first contact: status %s, %d entries", cmp.Status, len(cmp.Diff))
	}

	result := f.engine.Pull(f.source, cmp.Diff, Options{})
	if !result.Success() || len(result.Synced) != 3 {
		t.Fatalf("pull failed: %+v", result)
	}

	for relPath := range f.source.Rules {
		want, _ := os.ReadFile(filepath.Join(f.sourceDir, relPath))
		if got := f.targetContent(t, relPath); got != string(want) {
			t.Errorf("rule %s content mismatch", relPath)
		}
	}

	target, err := f.store.Load(f.targetDir)
	if err != nil {
		t.Fatalf("target manifest missing after pull: %v", err)
	}
	if target.RulesVersion != "1.0.0" {
		t.Errorf("target RulesVersion = %q, want 1.0.0", target.RulesVersion)
	}
	if target.SourceProject != "standards" {
		t.Errorf("target SourceProject = %q", target.SourceProject)
	}
}

func TestPullIdempotent(t *testing.T) {
	f := newFixture(t)
	f.addSourceRule(t, "rules/a.md", "content a", "1.0.0", model.ScopeUniversal)

	first := f.compareAgainstTarget(t)
	f.engine.Pull(f.source, first.Diff, Options{})

	second := f.compareAgainstTarget(t)
	if second.Status != compare.StatusUpToDate {
		t.Errorf("second compare status = %s, want up-to-date", second.Status)
	}
	if len(second.Diff) != 0 {
		t.Errorf("second compare produced %d entries, want 0", len(second.Diff))
	}
}

func TestPullIncrementalUpdateWithBackup(t *testing.T) {
	f := newFixture(t)
	f.addSourceRule(t, "rules/a.md", "a v1", "1.0.0", model.ScopeUniversal)
	f.addSourceRule(t, "rules/b.md", "b v1", "1.0.0", model.ScopeUniversal)

	// Initial full sync.
	f.engine.Pull(f.source, f.compareAgainstTarget(t).Diff, Options{})

	// Author bumps rule A and the catalogue version.
	f.addSourceRule(t, "rules/a.md", "a v2", "1.1.0", model.ScopeUniversal)
	f.source.RulesVersion = "1.1.0"

	cmp := f.compareAgainstTarget(t)
	if cmp.Status != compare.StatusOutdated {
		t.Fatalf("status = %s, want outdated", cmp.Status)
	}
	if len(cmp.Diff) != 1 || cmp.Diff[0].Path != "rules/a.md" || cmp.Diff[0].Kind != compare.KindUpdate {
		t.Fatalf("diff = %+v, want single update for rules/a.md", cmp.Diff)
	}

	result := f.engine.Pull(f.source, cmp.Diff, Options{})
	if !result.Success() {
		t.Fatalf("pull failed: %+v", result.Failed)
	}

	if got := f.targetContent(t, "rules/a.md"); got != "a v2" {
		t.Errorf("rule A = %q, want updated content", got)
	}
	if got := f.targetContent(t, "rules/b.md"); got != "b v1" {
		t.Errorf("rule B = %q, must be untouched", got)
	}
	if got := f.targetContent(t, "rules/a.md"+BackupSuffix); got != "a v1" {
		t.Errorf("backup = %q, want previous content", got)
	}

	target, err := f.store.Load(f.targetDir)
	if err != nil {
		t.Fatal(err)
	}
	if target.RulesVersion != "1.1.0" {
		t.Errorf("target RulesVersion = %q, want 1.1.0", target.RulesVersion)
	}
}

func TestPullPreservesCustomization(t *testing.T) {
	f := newFixture(t)
	f.addSourceRule(t, "rules/custom.md", "upstream content", "1.0.0", model.ScopeCustomizable)
	f.engine.Pull(f.source, f.compareAgainstTarget(t).Diff, Options{})

	// Consumer customizes the file with the marker.
	customized := "<!-- " + CustomizationMarker + " -->\nmy local edits\n"
	targetPath := filepath.Join(f.targetDir, "rules/custom.md")
	if err := os.WriteFile(targetPath, []byte(customized), 0o644); err != nil {
		t.Fatal(err)
	}

	// Author ships a newer version.
	f.addSourceRule(t, "rules/custom.md", "upstream v2", "1.1.0", model.ScopeCustomizable)
	f.source.RulesVersion = "1.1.0"

	cmp := f.compareAgainstTarget(t)
	result := f.engine.Pull(f.source, cmp.Diff, Options{})

	if len(result.Skipped) != 1 {
		t.Fatalf("skipped = %d, want 1", len(result.Skipped))
	}
	if !strings.Contains(result.Skipped[0].Reason, "customization") {
		t.Errorf("skip reason = %q", result.Skipped[0].Reason)
	}
	if got := f.targetContent(t, "rules/custom.md"); got != customized {
		t.Error("customized file was overwritten without --force")
	}

	// Force overwrites.
	cmp = f.compareAgainstTarget(t)
	result = f.engine.Pull(f.source, cmp.Diff, Options{Force: true})
	if len(result.Synced) != 1 {
		t.Fatalf("force pull synced %d, want 1", len(result.Synced))
	}
	if got := f.targetContent(t, "rules/custom.md"); got != "upstream v2" {
		t.Errorf("force pull left %q", got)
	}
}

func TestPullUniversalIgnoresMarker(t *testing.T) {
	f := newFixture(t)
	f.addSourceRule(t, "rules/uni.md", "upstream", "1.0.0", model.ScopeUniversal)
	f.engine.Pull(f.source, f.compareAgainstTarget(t).Diff, Options{})

	// Marker in a universal-scope file changes nothing.
	marked := "<!-- " + CustomizationMarker + " -->\nedits\n"
	if err := os.WriteFile(filepath.Join(f.targetDir, "rules/uni.md"), []byte(marked), 0o644); err != nil {
		t.Fatal(err)
	}

	f.addSourceRule(t, "rules/uni.md", "upstream v2", "1.1.0", model.ScopeUniversal)
	f.source.RulesVersion = "1.1.0"

	result := f.engine.Pull(f.source, f.compareAgainstTarget(t).Diff, Options{})
	if len(result.Synced) != 1 {
		t.Fatalf("synced = %d, want 1", len(result.Synced))
	}
	if got := f.targetContent(t, "rules/uni.md"); got != "upstream v2" {
		t.Errorf("universal rule not overwritten: %q", got)
	}
}

func TestPullDryRunTouchesNothing(t *testing.T) {
	f := newFixture(t)
	f.addSourceRule(t, "rules/a.md", "content", "1.0.0", model.ScopeUniversal)

	cmp := f.compareAgainstTarget(t)
	result := f.engine.Pull(f.source, cmp.Diff, Options{DryRun: true})

	if !result.DryRun || len(result.Synced) != 1 {
		t.Fatalf("dry run result: %+v", result)
	}
	if result.ManifestUpdated {
		t.Error("dry run must not report a manifest update")
	}
	if _, err := os.Stat(filepath.Join(f.targetDir, "rules/a.md")); !os.IsNotExist(err) {
		t.Error("dry run wrote a rule file")
	}
	if _, err := f.store.Load(f.targetDir); err == nil {
		t.Error("dry run wrote a target manifest")
	}
}

func TestPullOnlyExcludeFilters(t *testing.T) {
	f := newFixture(t)
	f.addSourceRule(t, "rules/style/naming.md", "n", "1.0.0", model.ScopeUniversal)
	f.addSourceRule(t, "rules/style/format.md", "f", "1.0.0", model.ScopeUniversal)
	f.addSourceRule(t, "rules/git/commits.md", "c", "1.0.0", model.ScopeUniversal)

	cmp := f.compareAgainstTarget(t)

	result := f.engine.Pull(f.source, cmp.Diff, Options{Only: []string{"style"}, Exclude: []string{"format"}})
	if len(result.Synced) != 1 || result.Synced[0].Path != "rules/style/naming.md" {
		t.Errorf("filtered pull synced %+v", result.Synced)
	}
	if _, err := os.Stat(filepath.Join(f.targetDir, "rules/git/commits.md")); !os.IsNotExist(err) {
		t.Error("excluded-by-only rule was written")
	}
}

func TestPullPartialFailureIsolation(t *testing.T) {
	f := newFixture(t)
	f.addSourceRule(t, "rules/ok1.md", "one", "1.0.0", model.ScopeUniversal)
	f.addSourceRule(t, "rules/bad.md", "two", "1.0.0", model.ScopeUniversal)
	f.addSourceRule(t, "rules/ok2.md", "three", "1.0.0", model.ScopeUniversal)

	// Make the bad entry unwritable: its target path is an existing
	// directory, so the rename must fail.
	if err := os.MkdirAll(filepath.Join(f.targetDir, "rules/bad.md"), 0o750); err != nil {
		t.Fatal(err)
	}

	cmp := f.compareAgainstTarget(t)
	result := f.engine.Pull(f.source, cmp.Diff, Options{})

	if len(result.Failed) != 1 || result.Failed[0].Path != "rules/bad.md" {
		t.Fatalf("failed = %+v, want single failure for rules/bad.md", result.Failed)
	}
	if len(result.Synced) != 2 {
		t.Errorf("synced = %d, want 2 despite one failure", len(result.Synced))
	}
	if f.targetContent(t, "rules/ok1.md") != "one" || f.targetContent(t, "rules/ok2.md") != "three" {
		t.Error("successful entries missing from disk")
	}

	// Manifest still merged because at least one entry succeeded, and
	// the result says so; the registry keys off this flag.
	if !result.ManifestUpdated {
		t.Error("ManifestUpdated should be true after a partial failure with successes")
	}
	target, err := f.store.Load(f.targetDir)
	if err != nil {
		t.Fatalf("manifest not merged after partial failure: %v", err)
	}
	if target.RulesVersion != "1.0.0" {
		t.Errorf("target RulesVersion = %q", target.RulesVersion)
	}
}

func TestPullRemovedEntryKeepsFile(t *testing.T) {
	f := newFixture(t)
	f.addSourceRule(t, "rules/kept.md", "kept", "1.0.0", model.ScopeUniversal)
	f.addSourceRule(t, "rules/dropped.md", "dropped", "1.0.0", model.ScopeUniversal)
	f.engine.Pull(f.source, f.compareAgainstTarget(t).Diff, Options{})

	// Author drops a rule and bumps the catalogue.
	delete(f.source.Rules, "rules/dropped.md")
	f.source.RulesVersion = "1.1.0"
	f.addSourceRule(t, "rules/kept.md", "kept v2", "1.1.0", model.ScopeUniversal)

	cmp := f.compareAgainstTarget(t)
	result := f.engine.Pull(f.source, cmp.Diff, Options{})

	foundRemovedSkip := false
	for _, s := range result.Skipped {
		if s.Entry.Kind == compare.KindRemoved {
			foundRemovedSkip = true
		}
	}
	if !foundRemovedSkip {
		t.Error("removed entry not surfaced in skipped list")
	}

	if _, err := os.Stat(filepath.Join(f.targetDir, "rules/dropped.md")); err != nil {
		t.Error("dropped rule file was deleted from disk")
	}

	target, err := f.store.Load(f.targetDir)
	if err != nil {
		t.Fatal(err)
	}
	if _, exists := target.Rules["rules/dropped.md"]; exists {
		t.Error("dropped rule still declared in merged manifest")
	}
}

func TestPullNoSuccessesSkipsManifestMerge(t *testing.T) {
	f := newFixture(t)
	f.addSourceRule(t, "rules/custom.md", "upstream", "1.0.0", model.ScopeCustomizable)
	f.engine.Pull(f.source, f.compareAgainstTarget(t).Diff, Options{})

	customized := "<!-- " + CustomizationMarker + " -->\nedits"
	if err := os.WriteFile(filepath.Join(f.targetDir, "rules/custom.md"), []byte(customized), 0o644); err != nil {
		t.Fatal(err)
	}

	f.addSourceRule(t, "rules/custom.md", "upstream v2", "1.1.0", model.ScopeCustomizable)
	f.source.RulesVersion = "1.1.0"

	result := f.engine.Pull(f.source, f.compareAgainstTarget(t).Diff, Options{})
	if result.ManifestUpdated {
		t.Error("ManifestUpdated should be false with zero synced entries")
	}

	target, err := f.store.Load(f.targetDir)
	if err != nil {
		t.Fatal(err)
	}
	if target.RulesVersion != "1.0.0" {
		t.Errorf("manifest merged despite zero synced entries: version %q", target.RulesVersion)
	}
}

func TestMatchesFilters(t *testing.T) {
	tests := []struct {
		path    string
		only    []string
		exclude []string
		want    bool
	}{
		{"rules/a.md", nil, nil, true},
		{"rules/a.md", []string{"rules"}, nil, true},
		{"rules/a.md", []string{"other"}, nil, false},
		{"rules/a.md", nil, []string{"a.md"}, false},
		{"rules/a.md", []string{"rules"}, []string{"a.md"}, false},
		{"rules/a.md", []string{""}, nil, false},
	}
	for _, tt := range tests {
		if got := matchesFilters(tt.path, tt.only, tt.exclude); got != tt.want {
			t.Errorf("matchesFilters(%q, %v, %v) = %v, want %v", tt.path, tt.only, tt.exclude, got, tt.want)
		}
	}
}

func TestWithBackupsDisabled(t *testing.T) {
	f := newFixture(t)
	f.engine.WithBackups(false)
	f.addSourceRule(t, "rules/a.md", "a v1", "1.0.0", model.ScopeUniversal)
	f.engine.Pull(f.source, f.compareAgainstTarget(t).Diff, Options{})

	f.addSourceRule(t, "rules/a.md", "a v2", "1.1.0", model.ScopeUniversal)
	f.source.RulesVersion = "1.1.0"
	f.engine.Pull(f.source, f.compareAgainstTarget(t).Diff, Options{})

	if got := f.targetContent(t, "rules/a.md"); got != "a v2" {
		t.Errorf("rule A = %q, want updated content", got)
	}
	if _, err := os.Stat(filepath.Join(f.targetDir, "rules/a.md"+BackupSuffix)); !os.IsNotExist(err) {
		t.Error("backup file should not exist when backups are disabled")
	}
}

func TestWithMarkerOverride(t *testing.T) {
	f := newFixture(t)
	f.engine.WithMarker("CUSTOM-TAG")
	f.addSourceRule(t, "rules/c.md", "upstream", "1.0.0", model.ScopeCustomizable)
	f.engine.Pull(f.source, f.compareAgainstTarget(t).Diff, Options{})

	if err := os.WriteFile(filepath.Join(f.targetDir, "rules/c.md"), []byte("# CUSTOM-TAG\nedits"), 0o644); err != nil {
		t.Fatal(err)
	}
	f.addSourceRule(t, "rules/c.md", "upstream v2", "1.1.0", model.ScopeCustomizable)
	f.source.RulesVersion = "1.1.0"

	result := f.engine.Pull(f.source, f.compareAgainstTarget(t).Diff, Options{})
	if len(result.Skipped) != 1 {
		t.Errorf("custom marker not honored: %+v", result)
	}
}
