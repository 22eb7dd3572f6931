// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"encoding/json"
	"fmt"

	"github.com/riglabs/rig/internal/config"

	"github.com/spf13/cobra"
)

const (
	formatTOML = "toml"
	formatCUE  = "cue"
	formatJSON = "json"
)

// newConfigCommand creates the `rig config` command tree.
func newConfigCommand(app *App, flags *rootFlags) *cobra.Command {
	cfgCmd := &cobra.Command{
		Use:   "config",
		Short: "Inspect rig configuration",
		Long: `Inspect rig configuration.

Configuration is read from:
  - Linux: ~/.config/rig/config.cue
  - macOS: ~/Library/Application Support/rig/config.cue
  - Windows: %APPDATA%\rig\config.cue

RIG_* environment variables override file values, e.g. RIG_LOG_LEVEL=debug.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}

	var format string
	show := &cobra.Command{
		Use:   "show",
		Short: "Print the effective configuration",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := app.Config.Load(cmd.Context(), config.LoadOptions{ConfigFilePath: flags.configPath})
			if err != nil {
				return app.fail(setup(err), flags.verbose, "")
			}
			if err := app.showConfig(cfg, format); err != nil {
				return app.fail(err, flags.verbose, "")
			}
			return nil
		},
	}
	show.Flags().StringVar(&format, "format", formatTOML, "output format (toml|cue|json)")
	cfgCmd.AddCommand(show)

	cfgCmd.AddCommand(&cobra.Command{
		Use:   "path",
		Short: "Print the configuration file path",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			path, err := configPath(flags)
			if err != nil {
				return app.fail(setup(err), flags.verbose, "")
			}
			fmt.Fprintln(app.stdout, path)
			return nil
		},
	})

	cfgCmd.AddCommand(&cobra.Command{
		Use:   "init",
		Short: "Write a default configuration file if none exists",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			path, err := configPath(flags)
			if err != nil {
				return app.fail(setup(err), flags.verbose, "")
			}
			created, err := config.CreateDefaultConfig(path)
			if err != nil {
				return app.fail(setup(err), flags.verbose, "")
			}
			if created {
				fmt.Fprintf(app.stdout, "%s created %s\n", SuccessStyle.Render("✓"), path)
			} else {
				fmt.Fprintf(app.stdout, "%s %s already exists\n", WarningStyle.Render("!"), path)
			}
			return nil
		},
	})

	return cfgCmd
}

func configPath(flags *rootFlags) (string, error) {
	if flags.configPath != "" {
		return flags.configPath, nil
	}
	return config.DefaultPath(config.LoadOptions{})
}

func (a *App) showConfig(cfg *config.Config, format string) error {
	switch format {
	case formatTOML:
		out, err := config.ToTOML(cfg)
		if err != nil {
			return err
		}
		_, err = a.stdout.Write(out)
		return err
	case formatCUE:
		_, err := fmt.Fprint(a.stdout, config.GenerateCUE(cfg))
		return err
	case formatJSON:
		enc := json.NewEncoder(a.stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(cfg)
	default:
		return fmt.Errorf("unknown format %q (want toml, cue or json)", format)
	}
}
