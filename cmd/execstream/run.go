// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/invowk/execstream/internal/container"
	"github.com/invowk/execstream/internal/execout"
)

var (
	// ErrCommandConflict is returned when a command is given both with -c and after --.
	ErrCommandConflict = errors.New("give the command either with -c or after --, not both")
	// ErrInvalidEnvVar is returned for -e values without '='.
	ErrInvalidEnvVar = errors.New("invalid environment variable, expected KEY=VALUE")
)

// runFlagValues holds the flags of the run command.
type runFlagValues struct {
	command    string
	stream     bool
	demux      bool
	tty        bool
	env        []string
	workdir    string
	user       string
	privileged bool
}

func newRunCommand(app *App, rootFlags *rootFlagValues) *cobra.Command {
	flags := &runFlagValues{}

	runCmd := &cobra.Command{
		Use:   "run [flags] <container> [-- <command>...]",
		Short: "Run a command in a container and print its output",
		Long: `Run a command in a running container and print its output.

By default the output is buffered: execstream waits for the command to finish,
then writes its output and exits with the command's exit code. With --demux
stdout and stderr go to the matching descriptors; without it the raw
multiplexed stream is written to stdout as received from the engine.

With --stream output is written as it arrives, and the exit code is resolved
once the stream ends.`,
		Example: `  execstream run web -- cat /etc/os-release
  execstream run --demux web -- sh -c 'echo out; echo err >&2'
  execstream run --stream --demux web -c "tail -n 100 /var/log/app.log"`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runExec(cmd.Context(), app, rootFlags, flags, args)
		},
	}

	runCmd.Flags().StringVarP(&flags.command, "command", "c", "", "command line to run, split into words with shell quoting rules")
	runCmd.Flags().BoolVar(&flags.stream, "stream", false, "write output as it arrives")
	runCmd.Flags().BoolVar(&flags.demux, "demux", false, "keep stdout and stderr apart")
	runCmd.Flags().BoolVarP(&flags.tty, "tty", "t", false, "allocate a pseudo-terminal")
	runCmd.Flags().StringArrayVarP(&flags.env, "env", "e", nil, "set an environment variable (KEY=VALUE, repeatable)")
	runCmd.Flags().StringVarP(&flags.workdir, "workdir", "w", "", "working directory inside the container")
	runCmd.Flags().StringVarP(&flags.user, "user", "u", "", "user to run the command as (name or uid[:gid])")
	runCmd.Flags().BoolVar(&flags.privileged, "privileged", false, "give extended privileges to the command")

	return runCmd
}

func runExec(ctx context.Context, app *App, rootFlags *rootFlagValues, flags *runFlagValues, args []string) error {
	cfg, err := app.loadConfig(ctx, rootFlags)
	if err != nil {
		return err
	}

	containerID := container.ContainerID(args[0])
	argv, err := commandLine(flags.command, args[1:])
	if err != nil {
		return actionable(err, "parse command", containerID.String())
	}
	env, err := parseEnvVars(flags.env)
	if err != nil {
		return err
	}

	engine, release, err := app.openEngine(ctx, cfg)
	if err != nil {
		return actionable(err, "connect to container engine", string(cfg.Engine))
	}
	defer release()

	reader := app.newReader(cfg, engine)
	opts := execout.Options{
		Stream:     flags.stream,
		Demux:      flags.demux,
		TTY:        flags.tty,
		Env:        env,
		WorkDir:    flags.workdir,
		User:       flags.user,
		Privileged: flags.privileged,
	}
	res, err := reader.Run(ctx, containerID, argv, opts)
	if err != nil {
		return actionable(err, "run command", containerID.String())
	}

	code, err := writeResult(ctx, app.stdout, app.stderr, reader, res)
	if err != nil {
		return actionable(err, "run command", containerID.String())
	}
	if !code.IsSuccess() {
		return &ExitError{Code: code}
	}
	return nil
}

// commandLine returns the argv given either as a -c string or as the
// arguments after the container.
func commandLine(command string, rest []string) ([]string, error) {
	if command == "" {
		return rest, nil
	}
	if len(rest) > 0 {
		return nil, ErrCommandConflict
	}
	return execout.ParseCommand(command)
}

// parseEnvVars turns KEY=VALUE flag values into a map. Later values win.
func parseEnvVars(values []string) (map[string]string, error) {
	if len(values) == 0 {
		return nil, nil
	}
	env := make(map[string]string, len(values))
	for _, kv := range values {
		key, value, ok := strings.Cut(kv, "=")
		if !ok || key == "" {
			return nil, fmt.Errorf("%w: %q", ErrInvalidEnvVar, kv)
		}
		env[key] = value
	}
	return env, nil
}

// writeResult writes the output of res and returns the exit code. Streaming
// results are written chunk by chunk; their exit code is resolved after the
// stream ends.
func writeResult(ctx context.Context, stdout, stderr io.Writer, reader *execout.Reader, res *execout.Result) (execout.ExitCode, error) {
	switch res.Kind {
	case execout.KindBufferedCombined:
		if _, err := stdout.Write(res.Output); err != nil {
			return 0, err
		}
	case execout.KindBufferedDemuxed:
		if _, err := stdout.Write(res.Demuxed.Stdout); err != nil {
			return 0, err
		}
		if _, err := stderr.Write(res.Demuxed.Stderr); err != nil {
			return 0, err
		}
	case execout.KindStreamingCombined:
		for chunk, err := range res.Chunks.All() {
			if err != nil {
				return 0, err
			}
			if _, err := stdout.Write(chunk); err != nil {
				return 0, err
			}
		}
	case execout.KindStreamingDemuxed:
		for pair, err := range res.Pairs.All() {
			if err != nil {
				return 0, err
			}
			if _, err := stdout.Write(pair.Stdout); err != nil {
				return 0, err
			}
			if _, err := stderr.Write(pair.Stderr); err != nil {
				return 0, err
			}
		}
	}

	if code, ok := res.ExitCode(); ok {
		return code, nil
	}
	return reader.ResolveExitCode(ctx, res.ExecID)
}
