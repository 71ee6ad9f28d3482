// SPDX-License-Identifier: MPL-2.0

package config

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/invowk/execstream/internal/issue"
)

func writeConfig(t *testing.T, dir, content string) string {
	t.Helper()
	path := filepath.Join(dir, ConfigFileName+"."+ConfigFileExt)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func loadFromDir(t *testing.T, dir string) (*Config, error) {
	t.Helper()
	return NewProvider().Load(t.Context(), LoadOptions{ConfigDirPath: dir, IgnoreEnv: true})
}

func TestLoad_Defaults(t *testing.T) {
	t.Parallel()

	cfg, err := loadFromDir(t, t.TempDir())
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if *cfg != *DefaultConfig() {
		t.Errorf("Load() = %+v, want defaults %+v", *cfg, *DefaultConfig())
	}
}

func TestLoad_File(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	path := writeConfig(t, dir, `
engine: "podman"
host: "unix:///run/user/1000/podman/podman.sock"
exec: {
	poll_attempts: 3
	poll_interval: "50ms"
	max_frame_size: 1048576
}
ui: verbose: true
`)

	cfg, err := loadFromDir(t, dir)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	want := Config{
		Engine:   EnginePodman,
		Host:     "unix:///run/user/1000/podman/podman.sock",
		LogLevel: LogLevelWarn,
		Exec:     ExecConfig{PollAttempts: 3, PollInterval: 50 * time.Millisecond, MaxFrameSize: 1 << 20},
		UI:       UIConfig{Verbose: true, Color: true},
		Source:   path,
	}
	if *cfg != want {
		t.Errorf("Load() = %+v, want %+v", *cfg, want)
	}
}

func TestLoad_ExplicitFile(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "custom.cue")
	if err := os.WriteFile(path, []byte(`log_level: "debug"`), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, err := NewProvider().Load(t.Context(), LoadOptions{ConfigFilePath: path, IgnoreEnv: true})
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.LogLevel != LogLevelDebug || cfg.Source != path {
		t.Errorf("Load() = %+v, want debug level from %s", *cfg, path)
	}
}

func TestLoad_ExplicitFileMissing(t *testing.T) {
	t.Parallel()

	_, err := NewProvider().Load(t.Context(), LoadOptions{ConfigFilePath: filepath.Join(t.TempDir(), "missing.cue")})
	var ae *issue.ActionableError
	if !errors.As(err, &ae) {
		t.Fatalf("Load() error = %v, want *issue.ActionableError", err)
	}
	if ae.Issue != issue.ConfigLoadFailedId || !ae.HasSuggestions() {
		t.Errorf("ActionableError = %+v, want suggestions and the config issue", ae)
	}
}

func TestLoad_InvalidFile(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		content string
		wantMsg string
	}{
		{"unknown engine", `engine: "containerd"`, "engine"},
		{"unknown field", `colour: true`, "colour"},
		{"poll attempts too low", `exec: poll_attempts: 0`, "poll_attempts"},
		{"poll attempts too high", `exec: poll_attempts: 65`, "poll_attempts"},
		{"bad interval", `exec: poll_interval: "soon"`, "poll_interval"},
		{"negative frame size", `exec: max_frame_size: -1`, "max_frame_size"},
		{"wrong type", `ui: verbose: "yes"`, "verbose"},
		{"syntax", `engine: "docker`, "config.cue"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			dir := t.TempDir()
			writeConfig(t, dir, tt.content)
			_, err := loadFromDir(t, dir)
			if err == nil {
				t.Fatal("Load() error = nil, want error")
			}
			var ae *issue.ActionableError
			if !errors.As(err, &ae) || ae.Operation != "load configuration" {
				t.Errorf("Load() error = %v, want a load configuration ActionableError", err)
			}
			if !strings.Contains(err.Error(), tt.wantMsg) {
				t.Errorf("Load() error = %q, want mention of %q", err, tt.wantMsg)
			}
		})
	}
}

func TestLoad_Canceled(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(t.Context())
	cancel()
	_, err := NewProvider().Load(ctx, LoadOptions{ConfigDirPath: t.TempDir()})
	if !errors.Is(err, context.Canceled) {
		t.Errorf("Load() error = %v, want context.Canceled", err)
	}
}

// Not parallel: uses t.Setenv.
func TestLoad_EnvOverrides(t *testing.T) {
	dir := t.TempDir()
	writeConfig(t, dir, `engine: "podman"`)

	t.Setenv("EXECSTREAM_ENGINE", "local")
	t.Setenv("EXECSTREAM_EXEC_POLL_ATTEMPTS", "7")
	t.Setenv("EXECSTREAM_EXEC_POLL_INTERVAL", "1s")
	t.Setenv("EXECSTREAM_UI_COLOR", "false")

	cfg, err := NewProvider().Load(t.Context(), LoadOptions{ConfigDirPath: dir})
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Engine != EngineLocal || cfg.Exec.PollAttempts != 7 || cfg.Exec.PollInterval != time.Second || cfg.UI.Color {
		t.Errorf("Load() = %+v, want environment overrides applied", *cfg)
	}

	cfg, err = NewProvider().Load(t.Context(), LoadOptions{ConfigDirPath: dir, IgnoreEnv: true})
	if err != nil {
		t.Fatalf("Load(IgnoreEnv) error = %v", err)
	}
	if cfg.Engine != EnginePodman {
		t.Errorf("Load(IgnoreEnv).Engine = %q, want podman", cfg.Engine)
	}
}

// Not parallel: uses t.Setenv.
func TestLoad_EnvOverrideInvalid(t *testing.T) {
	t.Setenv("EXECSTREAM_ENGINE", "containerd")

	_, err := NewProvider().Load(t.Context(), LoadOptions{ConfigDirPath: t.TempDir()})
	if !errors.Is(err, ErrInvalidConfig) || !errors.Is(err, ErrInvalidEngineName) {
		t.Errorf("Load() error = %v, want invalid engine name", err)
	}
}

func TestSave_RoundTrip(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	want := Config{
		Engine:   EngineLocal,
		Host:     "tcp://127.0.0.1:2375",
		LogLevel: LogLevelInfo,
		Exec:     ExecConfig{PollAttempts: 20, PollInterval: 1500 * time.Millisecond, MaxFrameSize: 4096},
		UI:       UIConfig{Verbose: true},
	}
	path, err := DefaultPath(dir)
	if err != nil {
		t.Fatal(err)
	}
	if err := Save(&want, path); err != nil {
		t.Fatalf("Save() error = %v", err)
	}

	got, err := loadFromDir(t, dir)
	if err != nil {
		t.Fatalf("Load() error = %v\n%s", err, GenerateCUE(&want))
	}
	want.Source = path
	if *got != want {
		t.Errorf("round trip = %+v, want %+v", *got, want)
	}
}

func TestCreateDefaultConfig(t *testing.T) {
	t.Parallel()

	dir := filepath.Join(t.TempDir(), "nested")
	path, created, err := CreateDefaultConfig(dir)
	if err != nil || !created {
		t.Fatalf("CreateDefaultConfig() = (%q, %v, %v), want created", path, created, err)
	}
	if _, created, err = CreateDefaultConfig(dir); err != nil || created {
		t.Errorf("second CreateDefaultConfig() = (%v, %v), want existing file kept", created, err)
	}

	cfg, err := loadFromDir(t, dir)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	cfg.Source = ""
	if *cfg != *DefaultConfig() {
		t.Errorf("default file loads as %+v", *cfg)
	}
}

// Not parallel: mutates the package-level config directory override.
func TestConfigDir_Override(t *testing.T) {
	dir := t.TempDir()
	SetConfigDirOverride(dir)
	t.Cleanup(Reset)

	got, err := ConfigDir()
	if err != nil || got != dir {
		t.Errorf("ConfigDir() = (%q, %v), want %q", got, err, dir)
	}
	path, err := DefaultPath("")
	if err != nil || path != filepath.Join(dir, "config.cue") {
		t.Errorf("DefaultPath() = (%q, %v)", path, err)
	}
}
