// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/charmbracelet/fang"
	"github.com/spf13/cobra"

	"github.com/invowk/execstream/internal/config"
	"github.com/invowk/execstream/internal/issue"
)

var (
	// Version is the semantic version (set via -ldflags).
	Version = "dev"
	// Commit is the git commit hash (set via -ldflags).
	Commit = "unknown"
	// BuildDate is the build timestamp (set via -ldflags).
	BuildDate = "unknown"
)

// rootFlagValues holds the persistent flags shared by all subcommands.
type rootFlagValues struct {
	configPath string
	verbose    bool
	engine     string
	host       string
}

// NewRootCommand builds the execstream command tree around app.
func NewRootCommand(app *App) *cobra.Command {
	flags := &rootFlagValues{}

	rootCmd := &cobra.Command{
		Use:   "execstream",
		Short: "Run commands in containers and read their output",
		Long: TitleStyle.Render("execstream") + SubtitleStyle.Render(" - Run commands in containers and read their output") + `

execstream executes a command inside a running container through the Docker
Engine API (Docker or Podman), decodes the multiplexed stdout/stderr stream and
reports the command's exit code as its own.

` + SubtitleStyle.Render("Examples:") + `
  execstream run web -- ls -la /srv        Buffered output, stdout and stderr kept apart
  execstream run --stream web -- tail -f   Print output as it arrives
  execstream run web -c "echo 'hi there'"  Pass the command as one string
  execstream engine                        Show the detected engine
  execstream issue corrupted-stream        Explain a failure`,
	}

	rootCmd.PersistentFlags().BoolVarP(&flags.verbose, "verbose", "v", false, "enable debug logging and full error chains")
	rootCmd.PersistentFlags().StringVar(&flags.configPath, "config", "", "config file (default is $XDG_CONFIG_HOME/execstream/config.cue)")
	rootCmd.PersistentFlags().StringVar(&flags.engine, "engine", "", "container engine: docker, podman or local")
	rootCmd.PersistentFlags().StringVar(&flags.host, "host", "", "engine API endpoint, e.g. unix:///run/podman/podman.sock")

	rootCmd.AddCommand(newRunCommand(app, flags))
	rootCmd.AddCommand(newEngineCommand(app, flags))
	rootCmd.AddCommand(newConfigCommand(app, flags))
	rootCmd.AddCommand(newIssueCommand(app))
	rootCmd.AddCommand(newMCPCommand(app, flags))

	rootCmd.SetOut(app.stdout)
	rootCmd.SetErr(app.stderr)
	return rootCmd
}

// getVersionString returns a formatted version string for display.
func getVersionString() string {
	if Version == "dev" {
		return "dev (built from source)"
	}
	return fmt.Sprintf("%s (commit: %s, built: %s)", Version, Commit, BuildDate)
}

// Execute runs the CLI and exits with the remote command's exit code, or 1
// on failure. This is called by main.main().
func Execute() {
	app := NewApp(Dependencies{})
	if err := fang.Execute(
		context.Background(),
		NewRootCommand(app),
		fang.WithVersion(getVersionString()),
		fang.WithNotifySignal(os.Interrupt),
		fang.WithErrorHandler(app.handleError),
	); err != nil {
		var exitErr *ExitError
		if errors.As(err, &exitErr) {
			os.Exit(exitErr.ProcessExitCode())
		}
		os.Exit(1)
	}
}

// loadConfig loads the configuration and applies the persistent flag
// overrides on top of it.
func (a *App) loadConfig(ctx context.Context, flags *rootFlagValues) (*config.Config, error) {
	cfg, err := a.Config.Load(ctx, config.LoadOptions{ConfigFilePath: flags.configPath})
	if err != nil {
		a.verbose = flags.verbose
		return nil, err
	}

	if flags.engine != "" {
		cfg.Engine = config.EngineName(flags.engine)
	}
	if flags.host != "" {
		cfg.Host = flags.host
	}
	if flags.verbose {
		cfg.UI.Verbose = true
	}
	a.verbose = cfg.UI.Verbose
	a.paint = painter{color: cfg.UI.Color}

	if err := cfg.Validate(); err != nil {
		return nil, issue.NewErrorContext().
			WithOperation("apply command-line flags").
			WithSuggestion("Valid engines are docker, podman and local").
			WithIssue(issue.ConfigLoadFailedId).
			Wrap(err).
			BuildError()
	}
	return cfg, nil
}

// handleError renders a command failure. A remote exit code without a cause
// is not a failure of execstream and prints nothing.
func (a *App) handleError(w io.Writer, styles fang.Styles, err error) {
	var exitErr *ExitError
	if errors.As(err, &exitErr) && exitErr.Err == nil {
		return
	}

	var ae *issue.ActionableError
	if errors.As(err, &ae) {
		fmt.Fprintf(w, "\n%s %s\n\n", a.paint.render(ErrorStyle, "Error:"), ae.Format(a.verbose))
		return
	}
	fang.DefaultErrorHandler(w, styles, err)
}
