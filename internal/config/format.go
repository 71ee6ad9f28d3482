// SPDX-License-Identifier: MPL-2.0

package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"
)

const (
	FormatCUE  Format = "cue"
	FormatTOML Format = "toml"
	FormatYAML Format = "yaml"
)

// ErrInvalidFormat is returned by Marshal for an unknown output format.
var ErrInvalidFormat = errors.New("invalid output format")

type (
	// Format is an output format for the effective configuration.
	Format string

	// document is the on-disk shape of Config, with durations as strings.
	document struct {
		Engine   string      `toml:"engine" yaml:"engine"`
		Host     string      `toml:"host,omitempty" yaml:"host,omitempty"`
		LogLevel string      `toml:"log_level" yaml:"log_level"`
		Exec     execSection `toml:"exec" yaml:"exec"`
		UI       uiSection   `toml:"ui" yaml:"ui"`
	}

	execSection struct {
		PollAttempts int    `toml:"poll_attempts" yaml:"poll_attempts"`
		PollInterval string `toml:"poll_interval" yaml:"poll_interval"`
		MaxFrameSize uint32 `toml:"max_frame_size" yaml:"max_frame_size"`
	}

	uiSection struct {
		Verbose bool `toml:"verbose" yaml:"verbose"`
		Color   bool `toml:"color" yaml:"color"`
	}
)

// Formats lists the supported output formats.
func Formats() []Format { return []Format{FormatCUE, FormatTOML, FormatYAML} }

// Marshal renders cfg in the given format.
func Marshal(cfg *Config, format Format) ([]byte, error) {
	switch format {
	case FormatCUE, "":
		return []byte(GenerateCUE(cfg)), nil
	case FormatTOML:
		return toml.Marshal(toDocument(cfg))
	case FormatYAML:
		return yaml.Marshal(toDocument(cfg))
	default:
		return nil, fmt.Errorf("%w %q (valid: cue, toml, yaml)", ErrInvalidFormat, format)
	}
}

func toDocument(cfg *Config) document {
	return document{
		Engine:   string(cfg.Engine),
		Host:     cfg.Host,
		LogLevel: string(cfg.LogLevel),
		Exec: execSection{
			PollAttempts: cfg.Exec.PollAttempts,
			PollInterval: cfg.Exec.PollInterval.String(),
			MaxFrameSize: cfg.Exec.MaxFrameSize,
		},
		UI: uiSection{
			Verbose: cfg.UI.Verbose,
			Color:   cfg.UI.Color,
		},
	}
}

// GenerateCUE generates a CUE representation of the configuration
func GenerateCUE(cfg *Config) string {
	var sb strings.Builder

	sb.WriteString("// execstream configuration file\n")
	sb.WriteString("// Every value can be overridden with EXECSTREAM_* environment variables.\n\n")

	fmt.Fprintf(&sb, "engine: %q\n", cfg.Engine)
	if cfg.Host != "" {
		fmt.Fprintf(&sb, "host: %q\n", cfg.Host)
	}
	fmt.Fprintf(&sb, "log_level: %q\n", cfg.LogLevel)

	sb.WriteString("\nexec: {\n")
	fmt.Fprintf(&sb, "\tpoll_attempts: %d\n", cfg.Exec.PollAttempts)
	fmt.Fprintf(&sb, "\tpoll_interval: %q\n", cfg.Exec.PollInterval.String())
	fmt.Fprintf(&sb, "\tmax_frame_size: %d\n", cfg.Exec.MaxFrameSize)
	sb.WriteString("}\n")

	sb.WriteString("\nui: {\n")
	fmt.Fprintf(&sb, "\tverbose: %v\n", cfg.UI.Verbose)
	fmt.Fprintf(&sb, "\tcolor: %v\n", cfg.UI.Color)
	sb.WriteString("}\n")

	return sb.String()
}
