package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/urfave/cli/v3"

	"github.com/klauern/rulesync/internal/registry"
	"github.com/klauern/rulesync/internal/syncer"
	"github.com/klauern/rulesync/internal/ui"
)

func diffCommand() *cli.Command {
	return &cli.Command{
		Name:      "diff",
		Usage:     "Show pending changes, or the line diff of one rule file",
		UsageText: "rulesync diff [rule-path] [path]",
		Description: `Without a rule path, list every pending change between the source
   project and the target project. With a rule path, show the
   line-by-line difference for that file. A single argument naming an
   existing directory selects the target project; the project defaults
   to the current directory.

   Examples:
     rulesync diff
     rulesync diff ~/src/web-app
     rulesync diff rules/security.md
     rulesync diff rules/security.md ~/src/web-app`,
		Action: func(_ context.Context, cmd *cli.Command) error {
			return runDiff(cmd)
		},
	}
}

// diffArgs resolves the positional arguments. With two arguments the
// first is the rule path and the second the project directory. A single
// argument naming an existing directory is the project directory;
// otherwise it is a rule path inside the working directory.
func diffArgs(cmd *cli.Command) (rulePath, dir string, err error) {
	args := cmd.Args()
	switch args.Len() {
	case 0:
	case 1:
		if info, statErr := os.Stat(args.Get(0)); statErr == nil && info.IsDir() {
			dir = args.Get(0)
		} else {
			rulePath = args.Get(0)
		}
	case 2:
		rulePath = args.Get(0)
		dir = args.Get(1)
	default:
		return "", "", errors.New("diff takes at most a rule path and a project path")
	}

	if dir == "" {
		dir, err = os.Getwd()
		if err != nil {
			return "", "", fmt.Errorf("failed to determine working directory: %w", err)
		}
	}
	return rulePath, dir, nil
}

func runDiff(cmd *cli.Command) error {
	env, err := loadEnv()
	if err != nil {
		return err
	}

	rulePath, dir, err := diffArgs(cmd)
	if err != nil {
		return err
	}

	rec, err := env.registry.GetByPath(dir)
	if err != nil {
		if errors.Is(err, registry.ErrProjectNotRegistered) {
			return cli.Exit(fmt.Sprintf("project at %s is not registered (run 'rulesync register' first)", dir), exitDirty)
		}
		return err
	}

	if rulePath == "" {
		cmp, source, err := compareAgainstSource(env, rec)
		if err != nil {
			return err
		}
		if len(cmp.Diff) == 0 {
			fmt.Println(ui.StatusSuccess(fmt.Sprintf("No pending changes against %s", source.Name)))
			return nil
		}
		fmt.Printf("%d pending change(s) against %s:\n", len(cmp.Diff), source.Name)
		for _, entry := range cmp.Diff {
			fmt.Printf("  %s\n", formatDiffEntry(entry))
		}
		return nil
	}

	source, err := env.registry.Source()
	if err != nil {
		if errors.Is(err, registry.ErrNoSourceRegistered) {
			return cli.Exit("no source project registered", exitDirty)
		}
		return err
	}

	engine := syncer.New(source.Path, rec.Path, env.store)
	diff, err := engine.DiffFile(rulePath)
	if err != nil {
		return fmt.Errorf("failed to diff %q: %w", rulePath, err)
	}

	if !diff.SourceExists && !diff.TargetExists {
		return cli.Exit(fmt.Sprintf("rule %q exists in neither project", rulePath), exitDirty)
	}
	if diff.Identical() {
		fmt.Println(ui.StatusSuccess(fmt.Sprintf("%s is identical in both projects", rulePath)))
		return nil
	}

	fmt.Println(ui.Bold(rulePath))
	fmt.Println(renderFileDiff(diff))
	return nil
}

// renderFileDiff colors a line diff: additions green, removals red,
// unchanged lines dim.
func renderFileDiff(diff *syncer.FileDiff) string {
	var b strings.Builder
	for _, line := range diff.Lines {
		switch line.Kind {
		case syncer.LineAdded:
			b.WriteString(ui.Success("+ " + line.Text))
		case syncer.LineRemoved:
			b.WriteString(ui.Error("- " + line.Text))
		default:
			b.WriteString(ui.Dim("  " + line.Text))
		}
		b.WriteByte('\n')
	}
	return b.String()
}
