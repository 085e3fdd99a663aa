// Package cli provides command definitions for rulesync.
package cli

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"

	"github.com/urfave/cli/v3"
	"gopkg.in/yaml.v3"

	"github.com/klauern/rulesync/internal/config"
	"github.com/klauern/rulesync/internal/model"
	"github.com/klauern/rulesync/internal/project"
	"github.com/klauern/rulesync/internal/registry"
	"github.com/klauern/rulesync/internal/ui"
)

func configCommand() *cli.Command {
	return &cli.Command{
		Name:  "config",
		Usage: "Display the effective configuration",
		Action: func(_ context.Context, _ *cli.Command) error {
			cfg, err := config.Load()
			if err != nil {
				return fmt.Errorf("failed to load configuration: %w", err)
			}

			fmt.Printf("Config file: %s", config.FilePath())
			if !config.Exists() {
				fmt.Print(" (not present, using defaults)")
			}
			fmt.Println()
			fmt.Println()

			data, err := yaml.Marshal(cfg)
			if err != nil {
				return fmt.Errorf("failed to render configuration: %w", err)
			}
			fmt.Print(string(data))
			return nil
		},
	}
}

func registerCommand() *cli.Command {
	return &cli.Command{
		Name:      "register",
		Usage:     "Register a project in the global registry",
		UsageText: "rulesync register [options] [path]",
		Description: `Register a project so it participates in rule synchronization.

   The path defaults to the current directory. The project name defaults
   to the last path segment; a .rulesync.toml file at the project root
   may declare a name, role and custom rules used as defaults.

   Examples:
     rulesync register --role source ~/src/platform-core
     rulesync register --name web-app`,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "name",
				Aliases: []string{"n"},
				Usage:   "Registry name for the project (default: last path segment)",
			},
			&cli.StringFlag{
				Name:    "role",
				Aliases: []string{"r"},
				Usage:   "Project role: source or consumer (default: consumer)",
			},
		},
		Action: func(_ context.Context, cmd *cli.Command) error {
			dir, err := projectDirArg(cmd, 0)
			if err != nil {
				return err
			}
			if info, err := os.Stat(dir); err != nil || !info.IsDir() {
				return cli.Exit(fmt.Sprintf("not a directory: %s", dir), exitDirty)
			}

			env, err := loadEnv()
			if err != nil {
				return err
			}

			settings, err := project.Load(dir)
			if err != nil {
				return cli.Exit(err.Error(), exitDirty)
			}

			opts := registry.RegisterOptions{
				Name:        cmd.String("name"),
				CustomRules: settings.CustomRules,
			}
			if opts.Name == "" {
				opts.Name = settings.Name
			}

			roleStr := cmd.String("role")
			if roleStr == "" {
				roleStr = settings.Role
			}
			if roleStr != "" {
				role, err := model.ParseRole(roleStr)
				if err != nil {
					return cli.Exit(err.Error(), exitDirty)
				}
				opts.Role = role
			}

			rec, err := env.registry.Register(dir, opts, env.store)
			if err != nil {
				if errors.Is(err, registry.ErrDuplicateRegistration) {
					return cli.Exit(err.Error(), exitDirty)
				}
				return err
			}

			if err := env.registry.Save(); err != nil {
				return cli.Exit(fmt.Sprintf("failed to save registry: %v", err), exitDirty)
			}

			fmt.Println(ui.StatusSuccess(fmt.Sprintf("Registered %s as %s (%s)",
				ui.Bold(rec.Name), ui.Label(string(rec.Role)), rec.Path)))
			return nil
		},
	}
}

func unregisterCommand() *cli.Command {
	return &cli.Command{
		Name:      "unregister",
		Usage:     "Remove a project from the global registry",
		UsageText: "rulesync unregister <name>",
		Action: func(_ context.Context, cmd *cli.Command) error {
			name := cmd.Args().Get(0)
			if name == "" {
				return errors.New("unregister requires a project name")
			}

			env, err := loadEnv()
			if err != nil {
				return err
			}

			if err := env.registry.Unregister(name); err != nil {
				if errors.Is(err, registry.ErrProjectNotRegistered) {
					return cli.Exit(err.Error(), exitDirty)
				}
				return err
			}

			if err := env.registry.Save(); err != nil {
				return cli.Exit(fmt.Sprintf("failed to save registry: %v", err), exitDirty)
			}

			fmt.Println(ui.StatusSuccess(fmt.Sprintf("Unregistered %s", ui.Bold(name))))
			return nil
		},
	}
}

func listCommand() *cli.Command {
	return &cli.Command{
		Name:    "list",
		Aliases: []string{"ls"},
		Usage:   "List registered projects",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "role",
				Aliases: []string{"r"},
				Usage:   "Filter by role (source, consumer)",
			},
			&cli.BoolFlag{
				Name:  "outdated",
				Usage: "Only show consumers whose rules version differs from the source",
			},
			&cli.StringFlag{
				Name:    "format",
				Aliases: []string{"f"},
				Value:   "table",
				Usage:   "Output format: table, json, yaml",
			},
		},
		Action: func(_ context.Context, cmd *cli.Command) error {
			env, err := loadEnv()
			if err != nil {
				return err
			}

			filter := registry.Filter{OutdatedOnly: cmd.Bool("outdated")}
			if roleStr := cmd.String("role"); roleStr != "" {
				role, err := model.ParseRole(roleStr)
				if err != nil {
					return cli.Exit(err.Error(), exitDirty)
				}
				filter.Role = role
			}

			records, err := env.registry.List(filter)
			if err != nil {
				if errors.Is(err, registry.ErrNoSourceRegistered) {
					return cli.Exit(err.Error(), exitDirty)
				}
				return err
			}

			switch cmd.String("format") {
			case "json":
				return outputRecordsJSON(records)
			case "yaml":
				return outputRecordsYAML(records)
			case "table":
				outputRecordsTable(env, records)
				return nil
			default:
				return fmt.Errorf("unknown format %q (valid: table, json, yaml)", cmd.String("format"))
			}
		},
	}
}

func outputRecordsJSON(records []registry.Record) error {
	data, err := json.MarshalIndent(records, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode projects: %w", err)
	}
	fmt.Println(string(data))
	return nil
}

func outputRecordsYAML(records []registry.Record) error {
	data, err := yaml.Marshal(records)
	if err != nil {
		return fmt.Errorf("failed to encode projects: %w", err)
	}
	fmt.Print(string(data))
	return nil
}

func outputRecordsTable(env *appEnv, records []registry.Record) {
	if len(records) == 0 {
		fmt.Println("No projects registered")
		return
	}

	sourceVersion := ""
	if src, err := env.registry.Source(); err == nil {
		sourceVersion = src.RulesVersion
	}

	fmt.Printf("%s  %s  %s  %s\n",
		ui.Header(pad("NAME", 20)),
		ui.Header(pad("ROLE", 10)),
		ui.Header(pad("VERSION", 10)),
		ui.Header("PATH"))

	for _, rec := range records {
		// Pad before coloring; escape codes would throw off the width.
		version := pad(rec.RulesVersion, 10)
		if rec.Role == model.RoleConsumer && sourceVersion != "" &&
			model.CompareVersions(rec.RulesVersion, sourceVersion) != 0 {
			version = ui.Warning(version)
		} else {
			version = ui.Success(version)
		}
		fmt.Printf("%s  %s  %s  %s\n",
			pad(rec.Name, 20),
			pad(ui.Label(string(rec.Role)), 10),
			version,
			ui.Dim(rec.Path))
	}
}

// pad right-pads a value for plain table alignment. Color escape codes
// throw off %-*s widths, so padding happens on the raw value length.
func pad(value string, width int) string {
	for len(value) < width {
		value += " "
	}
	return value
}
