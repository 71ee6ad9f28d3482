// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/invowk/execstream/internal/mcptool"
)

func newMCPCommand(app *App, rootFlags *rootFlagValues) *cobra.Command {
	return &cobra.Command{
		Use:   "mcp",
		Short: "Serve the container_exec tool over MCP (stdio)",
		Long: `Serve the container_exec tool to an MCP client over stdin and stdout.

Logs go to stderr. The server runs until the client disconnects.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return serveMCP(cmd.Context(), app, rootFlags)
		},
	}
}

func serveMCP(ctx context.Context, app *App, rootFlags *rootFlagValues) error {
	cfg, err := app.loadConfig(ctx, rootFlags)
	if err != nil {
		return err
	}

	engine, release, err := app.openEngine(ctx, cfg)
	if err != nil {
		return actionable(err, "connect to container engine", string(cfg.Engine))
	}
	defer release()

	logger := app.logger(cfg, "mcp")
	logger.Info("serving MCP over stdio", "engine", engine.Name(), "version", Version)
	return mcptool.Serve(ctx, mcptool.NewServer(app.newReader(cfg, engine), Version))
}
