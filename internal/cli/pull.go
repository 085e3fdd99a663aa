package cli

import (
	"context"
	"errors"
	"fmt"

	"github.com/urfave/cli/v3"

	"github.com/klauern/rulesync/internal/compare"
	"github.com/klauern/rulesync/internal/model"
	"github.com/klauern/rulesync/internal/project"
	"github.com/klauern/rulesync/internal/registry"
	"github.com/klauern/rulesync/internal/syncer"
	"github.com/klauern/rulesync/internal/ui"
	"github.com/klauern/rulesync/internal/ui/tui"
)

func pullCommand() *cli.Command {
	return &cli.Command{
		Name:      "pull",
		Usage:     "Pull pending rule changes from the source project",
		UsageText: "rulesync pull [options] [path]",
		Description: `Apply the source project's pending rule changes to a registered
   consumer. The path defaults to the current directory.

   Customizable rules carrying the customization marker are skipped
   unless --force is given. Files are never deleted; rules removed from
   the source are reported and left on disk.

   Examples:
     rulesync pull --dry-run
     rulesync pull --only security --exclude drafts
     rulesync pull --interactive`,
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:    "dry-run",
				Aliases: []string{"d"},
				Usage:   "Preview changes without modifying files",
			},
			&cli.BoolFlag{
				Name:  "force",
				Usage: "Overwrite customizable rules even when locally customized",
			},
			&cli.StringSliceFlag{
				Name:  "only",
				Usage: "Only sync rules whose path contains this substring (repeatable)",
			},
			&cli.StringSliceFlag{
				Name:  "exclude",
				Usage: "Skip rules whose path contains this substring (repeatable)",
			},
			&cli.BoolFlag{
				Name:    "interactive",
				Aliases: []string{"i"},
				Usage:   "Pick changes to apply in an interactive list",
			},
		},
		Action: func(_ context.Context, cmd *cli.Command) error {
			return runPull(cmd)
		},
	}
}

func runPull(cmd *cli.Command) error {
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
	if rec.Role == model.RoleSource {
		return cli.Exit(fmt.Sprintf("%s is the source project; there is nothing to pull into it", rec.Name), exitDirty)
	}

	cmp, source, err := compareAgainstSource(env, rec)
	if err != nil {
		return err
	}

	if cmp.Status == compare.StatusAhead {
		fmt.Println(ui.StatusWarning(fmt.Sprintf("%s is ahead of %s (%s > %s), refusing to revert",
			ui.Bold(rec.Name), source.Name, cmp.TargetVersion, cmp.SourceVersion)))
		return nil
	}
	if len(cmp.Diff) == 0 {
		fmt.Println(ui.StatusSuccess("Already up to date"))
		return nil
	}

	settings, err := project.Load(rec.Path)
	if err != nil {
		return cli.Exit(err.Error(), exitDirty)
	}

	opts := syncer.Options{
		Only:    cmd.StringSlice("only"),
		Exclude: cmd.StringSlice("exclude"),
		DryRun:  cmd.Bool("dry-run"),
		Force:   cmd.Bool("force"),
	}
	// Project-declared excludes and locally owned rules are permanent
	// filters on top of the command-line ones.
	opts.Exclude = append(opts.Exclude, settings.Exclude...)
	opts.Exclude = append(opts.Exclude, settings.CustomRules...)

	entries := cmp.Diff
	if cmd.Bool("interactive") {
		entries, err = pickEntries(entries, source.Name, env, rec)
		if err != nil {
			return err
		}
		if entries == nil {
			fmt.Println("Aborted, no changes applied")
			return nil
		}
	}

	sourceManifest, err := env.store.Load(source.Path)
	if err != nil {
		return cli.Exit(fmt.Sprintf("source manifest unusable: %v", err), exitFatal)
	}

	engine := syncer.New(source.Path, rec.Path, env.store).
		WithMarker(env.cfg.Sync.Marker).
		WithBackupSuffix(env.cfg.Sync.BackupSuffix).
		WithBackups(env.cfg.Sync.BackupEnabled)

	result := engine.Pull(sourceManifest, entries, opts)

	printPullResult(cmd, result)

	// The registry follows the target manifest: whenever the manifest
	// was rewritten, the record is marked synced, even on a partial
	// failure, so list and status agree on the consumer's version.
	if result.ManifestUpdated {
		if err := env.registry.MarkSynced(rec.Name, sourceManifest.RulesVersion); err != nil {
			return err
		}
		if err := env.registry.Save(); err != nil {
			return cli.Exit(fmt.Sprintf("synced files but failed to update registry: %v", err), exitDirty)
		}
	}

	if !result.Success() {
		return cli.Exit(fmt.Sprintf("%d file(s) failed to sync", len(result.Failed)), exitDirty)
	}
	return nil
}

// pickEntries runs the interactive selection loop. Previewing a file
// prints its diff and returns to the list. A nil return means the user
// quit without applying.
func pickEntries(entries []compare.Entry, sourceName string, env *appEnv, rec registry.Record) ([]compare.Entry, error) {
	if !ui.StdoutIsTerminal() {
		return nil, cli.Exit("interactive mode requires a terminal", exitDirty)
	}

	source, err := env.registry.Source()
	if err != nil {
		return nil, err
	}
	engine := syncer.New(source.Path, rec.Path, env.store)

	for {
		result, err := tui.RunPullList(entries, sourceName)
		if err != nil {
			return nil, fmt.Errorf("interactive selection failed: %w", err)
		}

		switch result.Action {
		case tui.PullActionApply:
			return result.SelectedEntries, nil
		case tui.PullActionPreview:
			diff, err := engine.DiffFile(result.PreviewEntry.Path)
			if err != nil {
				fmt.Println(ui.StatusError(fmt.Sprintf("cannot diff %s: %v", result.PreviewEntry.Path, err)))
				continue
			}
			fmt.Printf("%s\n%s\n", ui.Bold(result.PreviewEntry.Path), renderFileDiff(diff))
		default:
			return nil, nil
		}
	}
}

func printPullResult(cmd *cli.Command, result *syncer.Result) {
	verbose := cmd.Bool("verbose") || cmd.Bool("debug")

	if verbose || result.DryRun {
		for _, entry := range result.Synced {
			fmt.Println(ui.StatusSuccess(entry.Path))
		}
		fmt.Println()
	}
	fmt.Print(result.Summary())
}
