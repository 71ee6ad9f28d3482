// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
)

func newEngineCommand(app *App, rootFlags *rootFlagValues) *cobra.Command {
	return &cobra.Command{
		Use:   "engine",
		Short: "Show the container engine execstream connects to",
		Long: `Show the container engine execstream connects to.

Docker and Podman fall back to each other when the configured one does not
answer, so the engine shown may differ from the configured one.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return showEngine(cmd.Context(), app, rootFlags)
		},
	}
}

func showEngine(ctx context.Context, app *App, rootFlags *rootFlagValues) error {
	cfg, err := app.loadConfig(ctx, rootFlags)
	if err != nil {
		return err
	}

	engine, release, err := app.openEngine(ctx, cfg)
	if err != nil {
		return actionable(err, "connect to container engine", string(cfg.Engine))
	}
	defer release()

	version, err := engine.Version(ctx)
	if err != nil {
		return actionable(err, "query engine version", engine.Name())
	}

	p := app.paint
	fmt.Fprintln(app.stdout, p.render(TitleStyle, "Container Engine"))
	fmt.Fprintln(app.stdout)
	fmt.Fprintf(app.stdout, "%s: %s\n", p.render(CmdStyle, "engine"), p.render(SuccessStyle, engine.Name()))
	fmt.Fprintf(app.stdout, "%s: %s\n", p.render(CmdStyle, "version"), p.render(SuccessStyle, version))
	if h, ok := engine.(interface{ Host() string }); ok && h.Host() != "" {
		fmt.Fprintf(app.stdout, "%s: %s\n", p.render(CmdStyle, "host"), p.render(SuccessStyle, h.Host()))
	}
	if engine.Name() != string(cfg.Engine) {
		fmt.Fprintf(app.stdout, "\n%s configured engine %q is not available\n", p.render(WarningStyle, "Note:"), cfg.Engine)
	}
	return nil
}
