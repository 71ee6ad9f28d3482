// SPDX-License-Identifier: MPL-2.0

package config

import (
	"errors"
	"testing"
	"time"

	"github.com/charmbracelet/log"
)

func TestConfig_Validate(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name       string
		mutate     func(*Config)
		wantFields int
		wantIs     error
	}{
		{"defaults", func(*Config) {}, 0, nil},
		{"engine", func(c *Config) { c.Engine = "lxc" }, 1, ErrInvalidEngineName},
		{"log level", func(c *Config) { c.LogLevel = "trace" }, 1, ErrInvalidLogLevel},
		{"poll attempts", func(c *Config) { c.Exec.PollAttempts = 0 }, 1, nil},
		{"everything", func(c *Config) {
			c.Engine = ""
			c.LogLevel = ""
			c.Exec.PollAttempts = 100
			c.Exec.PollInterval = -time.Second
		}, 4, ErrInvalidEngineName},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			cfg := DefaultConfig()
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.wantFields == 0 {
				if err != nil {
					t.Fatalf("Validate() error = %v", err)
				}
				return
			}

			var ice *InvalidConfigError
			if !errors.As(err, &ice) || !errors.Is(err, ErrInvalidConfig) {
				t.Fatalf("Validate() error = %v, want *InvalidConfigError", err)
			}
			if len(ice.FieldErrors) != tt.wantFields {
				t.Errorf("FieldErrors = %v, want %d", ice.FieldErrors, tt.wantFields)
			}
			if tt.wantIs != nil && !errors.Is(ice.FieldErrors[0], tt.wantIs) {
				t.Errorf("first field error = %v, want %v", ice.FieldErrors[0], tt.wantIs)
			}
		})
	}
}

func TestExecConfig_Validate(t *testing.T) {
	t.Parallel()

	err := ExecConfig{PollAttempts: 1}.Validate()
	var ece *InvalidExecConfigError
	if !errors.As(err, &ece) || !errors.Is(err, ErrInvalidExecConfig) || len(ece.FieldErrors) != 1 {
		t.Errorf("Validate() error = %v, want one poll_interval field error", err)
	}
	if err := (ExecConfig{PollAttempts: MaxPollAttempts, PollInterval: time.Millisecond}).Validate(); err != nil {
		t.Errorf("Validate() error = %v for the upper bound", err)
	}
}

func TestLogLevel_Level(t *testing.T) {
	t.Parallel()

	tests := []struct {
		in   LogLevel
		want log.Level
	}{
		{LogLevelDebug, log.DebugLevel},
		{LogLevelInfo, log.InfoLevel},
		{LogLevelWarn, log.WarnLevel},
		{LogLevelError, log.ErrorLevel},
		{"bogus", log.WarnLevel},
	}
	for _, tt := range tests {
		if got := tt.in.Level(); got != tt.want {
			t.Errorf("LogLevel(%q).Level() = %v, want %v", tt.in, got, tt.want)
		}
	}

	cfg := DefaultConfig()
	cfg.UI.Verbose = true
	if cfg.EffectiveLogLevel() != log.DebugLevel {
		t.Error("verbose mode does not lower the level to debug")
	}
}
