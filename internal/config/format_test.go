// SPDX-License-Identifier: MPL-2.0

package config

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"
)

func sampleConfig() *Config {
	cfg := DefaultConfig()
	cfg.Host = "unix:///var/run/docker.sock"
	cfg.Exec.PollInterval = 250 * time.Millisecond
	cfg.Exec.MaxFrameSize = 65536
	return cfg
}

func TestMarshal_TOML(t *testing.T) {
	t.Parallel()

	out, err := Marshal(sampleConfig(), FormatTOML)
	if err != nil {
		t.Fatalf("Marshal() error = %v", err)
	}

	var doc document
	if err := toml.Unmarshal(out, &doc); err != nil {
		t.Fatalf("toml.Unmarshal() error = %v\n%s", err, out)
	}
	if doc != toDocument(sampleConfig()) {
		t.Errorf("decoded %+v, want %+v", doc, toDocument(sampleConfig()))
	}
	if !strings.Contains(string(out), "[exec]") || !strings.Contains(string(out), "250ms") {
		t.Errorf("TOML output is missing the interval:\n%s", out)
	}
}

func TestMarshal_YAML(t *testing.T) {
	t.Parallel()

	out, err := Marshal(sampleConfig(), FormatYAML)
	if err != nil {
		t.Fatalf("Marshal() error = %v", err)
	}

	var doc document
	if err := yaml.Unmarshal(out, &doc); err != nil {
		t.Fatalf("yaml.Unmarshal() error = %v\n%s", err, out)
	}
	if doc != toDocument(sampleConfig()) {
		t.Errorf("decoded %+v, want %+v", doc, toDocument(sampleConfig()))
	}
}

func TestMarshal_CUE(t *testing.T) {
	t.Parallel()

	for _, format := range []Format{FormatCUE, ""} {
		out, err := Marshal(sampleConfig(), format)
		if err != nil {
			t.Fatalf("Marshal(%q) error = %v", format, err)
		}
		if string(out) != GenerateCUE(sampleConfig()) {
			t.Errorf("Marshal(%q) differs from GenerateCUE", format)
		}
	}
}

func TestMarshal_InvalidFormat(t *testing.T) {
	t.Parallel()

	if _, err := Marshal(sampleConfig(), "ini"); !errors.Is(err, ErrInvalidFormat) {
		t.Errorf("Marshal(ini) error = %v, want ErrInvalidFormat", err)
	}
}

func TestGenerateCUE_OmitsEmptyHost(t *testing.T) {
	t.Parallel()

	out := GenerateCUE(DefaultConfig())
	if strings.Contains(out, "host:") {
		t.Errorf("GenerateCUE() includes an empty host:\n%s", out)
	}
	for _, want := range []string{`engine: "docker"`, `poll_interval: "10ms"`, "color: true"} {
		if !strings.Contains(out, want) {
			t.Errorf("GenerateCUE() is missing %q:\n%s", want, out)
		}
	}
}
