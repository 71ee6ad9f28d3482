// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"bytes"
	"context"
	"testing"

	"github.com/invowk/execstream/internal/config"
)

// staticConfig serves a fixed configuration.
type staticConfig struct {
	cfg *config.Config
	err error
}

func (s staticConfig) Load(context.Context, config.LoadOptions) (*config.Config, error) {
	if s.err != nil {
		return nil, s.err
	}
	cfg := *s.cfg
	return &cfg, nil
}

// localConfig runs commands on the host through the local engine, without color.
func localConfig() *config.Config {
	cfg := config.DefaultConfig()
	cfg.Engine = config.EngineLocal
	cfg.UI.Color = false
	return cfg
}

// newTestApp returns an App on cfg that writes to the returned buffers.
func newTestApp(cfg *config.Config) (app *App, stdout, stderr *bytes.Buffer) {
	stdout, stderr = &bytes.Buffer{}, &bytes.Buffer{}
	app = NewApp(Dependencies{
		Config: staticConfig{cfg: cfg},
		Stdout: stdout,
		Stderr: stderr,
	})
	return app, stdout, stderr
}

// execute runs the command tree with args the way fang would, minus styling.
func execute(t *testing.T, app *App, args ...string) error {
	t.Helper()
	root := NewRootCommand(app)
	root.SilenceErrors = true
	root.SilenceUsage = true
	root.SetArgs(args)
	return root.ExecuteContext(t.Context())
}

