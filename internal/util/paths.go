package util

import (
	"os"
	"path/filepath"
	"strings"
)

// HomeDir returns the user's home directory.
func HomeDir() string {
	home, _ := os.UserHomeDir()
	return home
}

// RulesyncConfigPath returns the rulesync configuration directory.
// The RULESYNC_CONFIG_DIR environment variable overrides the default
// of ~/.rulesync, which keeps tests and sandboxed runs hermetic.
func RulesyncConfigPath() string {
	if dir := os.Getenv("RULESYNC_CONFIG_DIR"); dir != "" {
		return dir
	}
	return filepath.Join(HomeDir(), ".rulesync")
}

// RegistryPath returns the default location of the global project registry.
func RegistryPath() string {
	return filepath.Join(RulesyncConfigPath(), "registry.json")
}

// ExpandPath expands a leading ~ and resolves relative paths against baseDir.
// Returns an empty string for empty input.
func ExpandPath(path, baseDir string) string {
	if path == "" {
		return ""
	}

	if path == "~" {
		return HomeDir()
	}
	if strings.HasPrefix(path, "~/") {
		return filepath.Join(HomeDir(), path[2:])
	}

	if filepath.IsAbs(path) {
		return filepath.Clean(path)
	}
	return filepath.Join(baseDir, path)
}

// ExpandPaths applies ExpandPath to each entry, dropping empties.
func ExpandPaths(paths []string, baseDir string) []string {
	result := make([]string, 0, len(paths))
	for _, p := range paths {
		if expanded := ExpandPath(p, baseDir); expanded != "" {
			result = append(result, expanded)
		}
	}
	return result
}

// NormalizePath resolves a path to an absolute, symlink-free, cleaned form
// so that two spellings of the same location compare equal.
func NormalizePath(path string) string {
	abs, err := filepath.Abs(path)
	if err != nil {
		return filepath.Clean(path)
	}
	if resolved, err := filepath.EvalSymlinks(abs); err == nil {
		return resolved
	}
	return filepath.Clean(abs)
}
