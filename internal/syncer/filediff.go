package syncer

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// LineKind classifies a line in a file comparison.
type LineKind int

const (
	// LineSame is present in both source and target.
	LineSame LineKind = iota
	// LineAdded is present only in the source (would be added on pull).
	LineAdded
	// LineRemoved is present only in the target.
	LineRemoved
)

// DiffLine is one line of a file comparison.
type DiffLine struct {
	Kind LineKind
	Text string
}

// FileDiff is a line-oriented comparison of one rule file between the
// source and target projects. It is read-only and consults no manifest.
type FileDiff struct {
	// Path is the project-relative rule path.
	Path string

	// SourceExists and TargetExists report file presence on each side.
	SourceExists bool
	TargetExists bool

	// Lines is the comparison. A file present on only one side shows as
	// pure additions or removals; Lines is empty only when the file
	// exists on neither side.
	Lines []DiffLine
}

// Identical reports whether both files exist with equal content.
func (d *FileDiff) Identical() bool {
	if !d.SourceExists || !d.TargetExists {
		return false
	}
	for _, line := range d.Lines {
		if line.Kind != LineSame {
			return false
		}
	}
	return true
}

// Render formats the comparison with +/- prefixes for display.
func (d *FileDiff) Render() string {
	var sb strings.Builder
	for _, line := range d.Lines {
		switch line.Kind {
		case LineAdded:
			sb.WriteString("+ ")
		case LineRemoved:
			sb.WriteString("- ")
		default:
			sb.WriteString("  ")
		}
		sb.WriteString(line.Text)
		sb.WriteString("\n")
	}
	return sb.String()
}

// DiffFile compares one rule file between the source and target project
// directories.
func (e *Engine) DiffFile(relPath string) (*FileDiff, error) {
	diff := &FileDiff{Path: relPath}

	sourceLines, sourceExists, err := readLines(filepath.Join(e.sourceDir, relPath))
	if err != nil {
		return nil, fmt.Errorf("failed to read source rule %q: %w", relPath, err)
	}
	targetLines, targetExists, err := readLines(filepath.Join(e.targetDir, relPath))
	if err != nil {
		return nil, fmt.Errorf("failed to read target rule %q: %w", relPath, err)
	}

	diff.SourceExists = sourceExists
	diff.TargetExists = targetExists
	if !sourceExists && !targetExists {
		return diff, nil
	}

	diff.Lines = diffLines(targetLines, sourceLines)
	return diff, nil
}

func readLines(path string) ([]string, bool, error) {
	// #nosec G304 - path is a manifest-declared rule location
	content, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, false, nil
		}
		return nil, false, err
	}
	text := strings.TrimSuffix(string(content), "\n")
	if text == "" {
		return []string{}, true, nil
	}
	return strings.Split(text, "\n"), true, nil
}

// diffLines computes a line diff from old (target) to new (source) using
// a longest-common-subsequence table. Lines only in new are additions,
// lines only in old are removals.
func diffLines(oldLines, newLines []string) []DiffLine {
	m, n := len(oldLines), len(newLines)

	lcs := make([][]int, m+1)
	for i := range lcs {
		lcs[i] = make([]int, n+1)
	}
	for i := m - 1; i >= 0; i-- {
		for j := n - 1; j >= 0; j-- {
			if oldLines[i] == newLines[j] {
				lcs[i][j] = lcs[i+1][j+1] + 1
			} else if lcs[i+1][j] >= lcs[i][j+1] {
				lcs[i][j] = lcs[i+1][j]
			} else {
				lcs[i][j] = lcs[i][j+1]
			}
		}
	}

	var lines []DiffLine
	i, j := 0, 0
	for i < m && j < n {
		switch {
		case oldLines[i] == newLines[j]:
			lines = append(lines, DiffLine{Kind: LineSame, Text: oldLines[i]})
			i++
			j++
		case lcs[i+1][j] >= lcs[i][j+1]:
			lines = append(lines, DiffLine{Kind: LineRemoved, Text: oldLines[i]})
			i++
		default:
			lines = append(lines, DiffLine{Kind: LineAdded, Text: newLines[j]})
			j++
		}
	}
	for ; i < m; i++ {
		lines = append(lines, DiffLine{Kind: LineRemoved, Text: oldLines[i]})
	}
	for ; j < n; j++ {
		lines = append(lines, DiffLine{Kind: LineAdded, Text: newLines[j]})
	}

	return lines
}
