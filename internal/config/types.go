// SPDX-License-Identifier: MPL-2.0

package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/log"
)

const (
	// EngineDocker uses the Docker Engine API.
	EngineDocker EngineName = "docker"
	// EnginePodman uses Podman's Docker-compatible API.
	EnginePodman EngineName = "podman"
	// EngineLocal runs commands as host processes.
	EngineLocal EngineName = "local"

	LogLevelDebug LogLevel = "debug"
	LogLevelInfo  LogLevel = "info"
	LogLevelWarn  LogLevel = "warn"
	LogLevelError LogLevel = "error"

	// MaxPollAttempts bounds exec.poll_attempts.
	MaxPollAttempts = 64
)

var (
	// ErrInvalidEngineName is the sentinel error wrapped by InvalidEngineNameError.
	ErrInvalidEngineName = errors.New("invalid engine name")
	// ErrInvalidLogLevel is the sentinel error wrapped by InvalidLogLevelError.
	ErrInvalidLogLevel = errors.New("invalid log level")
	// ErrInvalidExecConfig is the sentinel error wrapped by InvalidExecConfigError.
	ErrInvalidExecConfig = errors.New("invalid exec config")
	// ErrInvalidConfig is the sentinel error wrapped by InvalidConfigError.
	ErrInvalidConfig = errors.New("invalid config")
)

type (
	// EngineName selects the container engine.
	EngineName string

	// InvalidEngineNameError is returned when an EngineName value is not recognized.
	// It wraps ErrInvalidEngineName for errors.Is() compatibility.
	InvalidEngineNameError struct {
		Value EngineName
	}

	// LogLevel is the minimum level of log messages written to stderr.
	LogLevel string

	// InvalidLogLevelError is returned when a LogLevel value is not recognized.
	InvalidLogLevelError struct {
		Value LogLevel
	}

	// Config holds the application configuration.
	Config struct {
		// Engine selects the container engine
		Engine EngineName `json:"engine" mapstructure:"engine"`
		// Host overrides the engine API endpoint
		Host string `json:"host" mapstructure:"host"`
		// LogLevel sets the log verbosity
		LogLevel LogLevel `json:"log_level" mapstructure:"log_level"`
		// Exec configures exec sessions
		Exec ExecConfig `json:"exec" mapstructure:"exec"`
		// UI configures the terminal output
		UI UIConfig `json:"ui" mapstructure:"ui"`

		// Source is the file the configuration was read from, empty for defaults.
		Source string `json:"-" mapstructure:"-"`
	}

	// ExecConfig configures how exec output is read.
	ExecConfig struct {
		// PollAttempts bounds the inspections made while waiting for an exit code
		PollAttempts int `json:"poll_attempts" mapstructure:"poll_attempts"`
		// PollInterval is the first retry delay; later delays double
		PollInterval time.Duration `json:"poll_interval" mapstructure:"poll_interval"`
		// MaxFrameSize rejects larger frame payloads; 0 disables the limit
		MaxFrameSize uint32 `json:"max_frame_size" mapstructure:"max_frame_size"`
	}

	// InvalidExecConfigError is returned when an ExecConfig has invalid fields.
	InvalidExecConfigError struct {
		FieldErrors []error
	}

	// UIConfig configures the terminal output.
	UIConfig struct {
		// Verbose enables debug logging and full error chains
		Verbose bool `json:"verbose" mapstructure:"verbose"`
		// Color enables styled output
		Color bool `json:"color" mapstructure:"color"`
	}

	// InvalidConfigError is returned when a Config has invalid fields.
	// It wraps ErrInvalidConfig for errors.Is() compatibility and collects
	// field-level validation errors from all sub-components.
	InvalidConfigError struct {
		FieldErrors []error
	}
)

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	return &Config{
		Engine:   EngineDocker,
		LogLevel: LogLevelWarn,
		Exec: ExecConfig{
			PollAttempts: 10,
			PollInterval: 10 * time.Millisecond,
		},
		UI: UIConfig{
			Color: true,
		},
	}
}

// Error implements the error interface.
func (e *InvalidEngineNameError) Error() string {
	return fmt.Sprintf("invalid engine %q (valid: docker, podman, local)", e.Value)
}

// Unwrap returns ErrInvalidEngineName for errors.Is() compatibility.
func (e *InvalidEngineNameError) Unwrap() error { return ErrInvalidEngineName }

// String returns the string representation of the EngineName.
func (n EngineName) String() string { return string(n) }

// Validate returns an error if the EngineName is not recognized.
func (n EngineName) Validate() error {
	switch n {
	case EngineDocker, EnginePodman, EngineLocal:
		return nil
	default:
		return &InvalidEngineNameError{Value: n}
	}
}

// Error implements the error interface.
func (e *InvalidLogLevelError) Error() string {
	return fmt.Sprintf("invalid log level %q (valid: debug, info, warn, error)", e.Value)
}

// Unwrap returns ErrInvalidLogLevel for errors.Is() compatibility.
func (e *InvalidLogLevelError) Unwrap() error { return ErrInvalidLogLevel }

// Validate returns an error if the LogLevel is not recognized.
func (l LogLevel) Validate() error {
	switch l {
	case LogLevelDebug, LogLevelInfo, LogLevelWarn, LogLevelError:
		return nil
	default:
		return &InvalidLogLevelError{Value: l}
	}
}

// Level converts the LogLevel to a charmbracelet/log level.
func (l LogLevel) Level() log.Level {
	level, err := log.ParseLevel(string(l))
	if err != nil {
		return log.WarnLevel
	}
	return level
}

// Error implements the error interface.
func (e *InvalidExecConfigError) Error() string {
	return fmt.Sprintf("invalid exec config: %d field error(s)", len(e.FieldErrors))
}

// Unwrap returns ErrInvalidExecConfig for errors.Is() compatibility.
func (e *InvalidExecConfigError) Unwrap() error { return ErrInvalidExecConfig }

// Validate returns an error if any field is out of range.
func (c ExecConfig) Validate() error {
	var errs []error
	if c.PollAttempts < 1 || c.PollAttempts > MaxPollAttempts {
		errs = append(errs, fmt.Errorf("exec.poll_attempts: %d is outside 1-%d", c.PollAttempts, MaxPollAttempts))
	}
	if c.PollInterval <= 0 {
		errs = append(errs, fmt.Errorf("exec.poll_interval: %s is not positive", c.PollInterval))
	}
	if len(errs) > 0 {
		return &InvalidExecConfigError{FieldErrors: errs}
	}
	return nil
}

// Error implements the error interface.
func (e *InvalidConfigError) Error() string {
	msgs := make([]string, 0, len(e.FieldErrors))
	for _, err := range e.FieldErrors {
		msgs = append(msgs, err.Error())
	}
	return "invalid config: " + strings.Join(msgs, "; ")
}

// Unwrap returns ErrInvalidConfig and the field errors for errors.Is() compatibility.
func (e *InvalidConfigError) Unwrap() []error {
	return append([]error{ErrInvalidConfig}, e.FieldErrors...)
}

// Validate returns an error if the Config has invalid fields.
func (c *Config) Validate() error {
	var errs []error
	if err := c.Engine.Validate(); err != nil {
		errs = append(errs, err)
	}
	if err := c.LogLevel.Validate(); err != nil {
		errs = append(errs, err)
	}
	if err := c.Exec.Validate(); err != nil {
		var ece *InvalidExecConfigError
		if errors.As(err, &ece) {
			errs = append(errs, ece.FieldErrors...)
		} else {
			errs = append(errs, err)
		}
	}
	if len(errs) > 0 {
		return &InvalidConfigError{FieldErrors: errs}
	}
	return nil
}

// EffectiveLogLevel returns the log level, lowered to debug in verbose mode.
func (c *Config) EffectiveLogLevel() log.Level {
	if c.UI.Verbose {
		return log.DebugLevel
	}
	return c.LogLevel.Level()
}
