package cli

import (
	"context"
	"errors"
	"fmt"

	"github.com/urfave/cli/v3"

	"github.com/klauern/rulesync/internal/compare"
	"github.com/klauern/rulesync/internal/manifest"
	"github.com/klauern/rulesync/internal/model"
	"github.com/klauern/rulesync/internal/registry"
	"github.com/klauern/rulesync/internal/ui"
)

func statusCommand() *cli.Command {
	return &cli.Command{
		Name:      "status",
		Usage:     "Show how a project's rules compare to the source",
		UsageText: "rulesync status [options] [path]",
		Description: `Compare a registered project against the source project's rule
   catalogue. The path defaults to the current directory.

   Exit codes: 0 when up-to-date or ahead, 1 when a sync is pending,
   2 when the source manifest is missing or malformed.`,
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:    "quiet",
				Aliases: []string{"q"},
				Usage:   "Print only the status token",
			},
		},
		Action: func(_ context.Context, cmd *cli.Command) error {
			return runStatus(cmd)
		},
	}
}

func runStatus(cmd *cli.Command) error {
	env, err := loadEnv()
	if err != nil {
		return err
	}

	dir, err := projectDirArg(cmd, 0)
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

	quiet := cmd.Bool("quiet")

	if rec.Role == model.RoleSource {
		if quiet {
			fmt.Println(compare.StatusUpToDate)
		} else {
			fmt.Println(ui.StatusSuccess(fmt.Sprintf("%s is the source project (authoritative, version %s)",
				ui.Bold(rec.Name), rec.RulesVersion)))
		}
		return nil
	}

	cmp, source, err := compareAgainstSource(env, rec)
	if err != nil {
		return err
	}

	if quiet {
		fmt.Println(cmp.Status)
	} else {
		printComparison(rec, source, cmp)
	}

	if cmp.Status.Pending() {
		return cli.Exit("", exitDirty)
	}
	return nil
}

// compareAgainstSource loads both manifests and diffs the record's
// project against the registered source. A missing target manifest is a
// legitimate never-synced state; a missing or malformed source manifest
// is fatal.
func compareAgainstSource(env *appEnv, rec registry.Record) (*compare.Comparison, registry.Record, error) {
	source, err := env.registry.Source()
	if err != nil {
		if errors.Is(err, registry.ErrNoSourceRegistered) {
			return nil, registry.Record{}, cli.Exit("no source project registered", exitDirty)
		}
		return nil, registry.Record{}, err
	}

	sourceManifest, err := env.store.Load(source.Path)
	if err != nil {
		return nil, registry.Record{}, cli.Exit(fmt.Sprintf("source manifest unusable: %v", err), exitFatal)
	}

	targetManifest, err := env.store.Load(rec.Path)
	if err != nil {
		if !errors.Is(err, manifest.ErrManifestMissing) {
			return nil, registry.Record{}, cli.Exit(fmt.Sprintf("target manifest unusable: %v", err), exitFatal)
		}
		targetManifest = nil
	}

	cmp := compare.New(source.Path, rec.Path).Compare(sourceManifest, targetManifest)
	return cmp, source, nil
}

func printComparison(rec, source registry.Record, cmp *compare.Comparison) {
	targetVersion := cmp.TargetVersion
	if targetVersion == "" {
		targetVersion = "none"
	}

	switch cmp.Status {
	case compare.StatusUpToDate:
		fmt.Println(ui.StatusSuccess(fmt.Sprintf("%s is up to date with %s (version %s)",
			ui.Bold(rec.Name), source.Name, cmp.SourceVersion)))
	case compare.StatusAhead:
		fmt.Println(ui.StatusWarning(fmt.Sprintf("%s is ahead of %s (%s > %s), nothing to pull",
			ui.Bold(rec.Name), source.Name, targetVersion, cmp.SourceVersion)))
	default:
		fmt.Println(ui.StatusPending(fmt.Sprintf("%s is %s (%s, source has %s)",
			ui.Bold(rec.Name), cmp.Status, targetVersion, cmp.SourceVersion)))
	}

	if len(cmp.Diff) == 0 {
		return
	}

	fmt.Printf("\n%d pending change(s):\n", len(cmp.Diff))
	for _, entry := range cmp.Diff {
		fmt.Printf("  %s\n", formatDiffEntry(entry))
	}
}

// formatDiffEntry renders one diff entry as a colored single line.
func formatDiffEntry(entry compare.Entry) string {
	switch entry.Kind {
	case compare.KindNew:
		return ui.Success("+ ") + entry.Path + ui.Dim(" ("+entry.SourceVersion+")")
	case compare.KindUpdate:
		return ui.Warning("↑ ") + entry.Path + ui.Dim(fmt.Sprintf(" (%s → %s)", entry.TargetVersion, entry.SourceVersion))
	case compare.KindModified:
		return ui.Warning("~ ") + entry.Path + ui.Dim(" (content drift at "+entry.SourceVersion+")")
	case compare.KindRemoved:
		return ui.Error("- ") + entry.Path + ui.Dim(" (removed from source)")
	default:
		return entry.Path
	}
}
