// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/invowk/execstream/internal/config"
)

// newConfigCommand creates the `execstream config` command tree.
func newConfigCommand(app *App, rootFlags *rootFlagValues) *cobra.Command {
	cfgCmd := &cobra.Command{
		Use:   "config",
		Short: "Manage execstream configuration",
		Long: `Manage execstream configuration.

Configuration is stored in:
  - Linux: ~/.config/execstream/config.cue
  - macOS: ~/Library/Application Support/execstream/config.cue
  - Windows: %APPDATA%\execstream\config.cue

Every key can be overridden with an EXECSTREAM_ environment variable, for
example EXECSTREAM_ENGINE=podman or EXECSTREAM_EXEC_POLL_ATTEMPTS=20.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}

	var format string
	showCmd := &cobra.Command{
		Use:   "show",
		Short: "Show the effective configuration",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return showConfig(cmd.Context(), app, rootFlags, config.Format(format))
		},
	}
	showCmd.Flags().StringVarP(&format, "format", "f", string(config.FormatCUE), "output format: cue, toml or yaml")
	_ = showCmd.RegisterFlagCompletionFunc("format", func(*cobra.Command, []string, string) ([]string, cobra.ShellCompDirective) {
		formats := config.Formats()
		names := make([]string, len(formats))
		for i, f := range formats {
			names[i] = string(f)
		}
		return names, cobra.ShellCompDirectiveNoFileComp
	})
	cfgCmd.AddCommand(showCmd)

	cfgCmd.AddCommand(&cobra.Command{
		Use:   "init",
		Short: "Create default configuration file",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return initConfig(app)
		},
	})

	cfgCmd.AddCommand(&cobra.Command{
		Use:   "path",
		Short: "Show configuration file path",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return showConfigPath(app, rootFlags)
		},
	})

	return cfgCmd
}

func showConfig(ctx context.Context, app *App, rootFlags *rootFlagValues, format config.Format) error {
	cfg, err := app.loadConfig(ctx, rootFlags)
	if err != nil {
		return err
	}

	out, err := config.Marshal(cfg, format)
	if err != nil {
		return err
	}

	source := cfg.Source
	if source == "" {
		source = "(using defaults)"
	}
	fmt.Fprintf(app.stderr, "%s: %s\n", app.paint.render(CmdStyle, "Config file"), app.paint.render(SubtitleStyle, source))
	_, err = app.stdout.Write(out)
	return err
}

func initConfig(app *App) error {
	cfgPath, created, err := config.CreateDefaultConfig("")
	if err != nil {
		return fmt.Errorf("failed to create config file: %w", err)
	}

	if !created {
		fmt.Fprintf(app.stdout, "Config file already exists: %s\n", cfgPath)
		return nil
	}
	fmt.Fprintf(app.stdout, "%s Created default config file: %s\n", app.paint.render(SuccessStyle, "✓"), cfgPath)
	return nil
}

func showConfigPath(app *App, rootFlags *rootFlagValues) error {
	if rootFlags.configPath != "" {
		fmt.Fprintln(app.stdout, rootFlags.configPath)
		return nil
	}

	cfgPath, err := config.DefaultPath("")
	if err != nil {
		return fmt.Errorf("failed to get config directory: %w", err)
	}
	fmt.Fprintln(app.stdout, cfgPath)
	return nil
}
