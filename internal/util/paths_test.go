package util

import (
	"path/filepath"
	"testing"
)

func TestRulesyncConfigPathOverride(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("RULESYNC_CONFIG_DIR", dir)

	if got := RulesyncConfigPath(); got != dir {
		t.Errorf("RulesyncConfigPath() = %q, want %q", got, dir)
	}
	if got := RegistryPath(); got != filepath.Join(dir, "registry.json") {
		t.Errorf("RegistryPath() = %q, want under override dir", got)
	}
}

func TestRulesyncConfigPathDefault(t *testing.T) {
	t.Setenv("RULESYNC_CONFIG_DIR", "")

	want := filepath.Join(HomeDir(), ".rulesync")
	if got := RulesyncConfigPath(); got != want {
		t.Errorf("RulesyncConfigPath() = %q, want %q", got, want)
	}
}

func TestExpandPath(t *testing.T) {
	base := t.TempDir()

	tests := []struct {
		input string
		want  string
	}{
		{"", ""},
		{"~", HomeDir()},
		{"~/rules", filepath.Join(HomeDir(), "rules")},
		{"relative/dir", filepath.Join(base, "relative", "dir")},
		{"/abs/path", "/abs/path"},
	}

	for _, tt := range tests {
		if got := ExpandPath(tt.input, base); got != tt.want {
			t.Errorf("ExpandPath(%q) = %q, want %q", tt.input, got, tt.want)
		}
	}
}

func TestExpandPathsDropsEmpties(t *testing.T) {
	base := t.TempDir()
	got := ExpandPaths([]string{"", "a", ""}, base)
	if len(got) != 1 || got[0] != filepath.Join(base, "a") {
		t.Errorf("ExpandPaths returned %v", got)
	}
}

func TestNormalizePathEquivalentSpellings(t *testing.T) {
	dir := t.TempDir()

	a := NormalizePath(dir)
	b := NormalizePath(dir + string(filepath.Separator) + "." + string(filepath.Separator))
	if a != b {
		t.Errorf("NormalizePath mismatch: %q vs %q", a, b)
	}
}
