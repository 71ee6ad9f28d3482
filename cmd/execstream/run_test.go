// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"bytes"
	"errors"
	"io"
	"strings"
	"testing"

	"github.com/invowk/execstream/internal/execout"
	"github.com/invowk/execstream/internal/frame"
	"github.com/invowk/execstream/internal/issue"
	"github.com/invowk/execstream/internal/testutil"
)

func TestRun_Modes(t *testing.T) {
	t.Parallel()
	testutil.RequireShell(t)

	tests := []struct {
		name       string
		args       []string
		wantStdout string
		wantStderr string
		wantCode   execout.ExitCode
	}{
		{
			name:       "buffered demuxed with exit code",
			args:       []string{"run", "--demux", "box", "--", "sh", "-c", "printf out; printf err >&2; exit 3"},
			wantStdout: "out",
			wantStderr: "err",
			wantCode:   3,
		},
		{
			name:       "streaming demuxed",
			args:       []string{"run", "--stream", "--demux", "box", "--", "sh", "-c", "printf one; printf two >&2"},
			wantStdout: "one",
			wantStderr: "two",
		},
		{
			name:       "streaming exit code resolved after the stream",
			args:       []string{"run", "--stream", "box", "--", "sh", "-c", "printf done; exit 5"},
			wantStdout: "done",
			wantCode:   5,
		},
		{
			name:       "command string",
			args:       []string{"run", "--demux", "box", "-c", "echo 'a  b'"},
			wantStdout: "a  b\n",
		},
		{
			name:       "environment",
			args:       []string{"run", "--demux", "-e", "GREETING=hi", "box", "--", "sh", "-c", `printf %s "$GREETING"`},
			wantStdout: "hi",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			app, stdout, stderr := newTestApp(localConfig())
			err := execute(t, app, tt.args...)

			if tt.wantCode == 0 {
				if err != nil {
					t.Fatalf("run error = %v", err)
				}
			} else {
				var exitErr *ExitError
				if !errors.As(err, &exitErr) || exitErr.Code != tt.wantCode || exitErr.Err != nil {
					t.Fatalf("run error = %v, want ExitError with code %d", err, tt.wantCode)
				}
			}
			if stdout.String() != tt.wantStdout {
				t.Errorf("stdout = %q, want %q", stdout.String(), tt.wantStdout)
			}
			if stderr.String() != tt.wantStderr {
				t.Errorf("stderr = %q, want %q", stderr.String(), tt.wantStderr)
			}
		})
	}
}

func TestRun_BufferedCombinedWritesFrames(t *testing.T) {
	t.Parallel()
	testutil.RequireShell(t)

	app, stdout, _ := newTestApp(localConfig())
	if err := execute(t, app, "run", "box", "--", "sh", "-c", "printf hi"); err != nil {
		t.Fatalf("run error = %v", err)
	}

	raw := stdout.Bytes()
	if len(raw) == 0 || raw[0] != byte(frame.StreamStdout) {
		t.Fatalf("stdout = %q, want a stdout frame header first", raw)
	}
	dec := frame.NewDecoder(bytes.NewReader(raw))
	var payload []byte
	for {
		f, err := dec.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			t.Fatalf("decoding written frames: %v", err)
		}
		payload = append(payload, f.Payload...)
	}
	if string(payload) != "hi" {
		t.Errorf("payload = %q, want %q", payload, "hi")
	}
}

func TestRun_Errors(t *testing.T) {
	t.Parallel()
	testutil.RequireShell(t)

	tests := []struct {
		name      string
		args      []string
		wantIs    error
		wantIssue issue.Id
	}{
		{
			name:      "no command",
			args:      []string{"run", "box"},
			wantIs:    execout.ErrEmptyCommand,
			wantIssue: issue.EmptyCommandId,
		},
		{
			name:   "command given twice",
			args:   []string{"run", "box", "-c", "true", "--", "echo"},
			wantIs: ErrCommandConflict,
		},
		{
			name:   "environment without value",
			args:   []string{"run", "-e", "FOO", "box", "--", "true"},
			wantIs: ErrInvalidEnvVar,
		},
		{
			name:      "missing binary",
			args:      []string{"run", "box", "--", "execstream-no-such-binary"},
			wantIs:    execout.ErrStartFailure,
			wantIssue: issue.ExecStartFailedId,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			app, stdout, _ := newTestApp(localConfig())
			err := execute(t, app, tt.args...)
			if !errors.Is(err, tt.wantIs) {
				t.Fatalf("run error = %v, want %v", err, tt.wantIs)
			}
			if got := classifyError(err); got != tt.wantIssue {
				t.Errorf("classifyError() = %v, want %v", got, tt.wantIssue)
			}
			if stdout.Len() != 0 {
				t.Errorf("stdout = %q, want nothing on failure", stdout.String())
			}
		})
	}
}

func TestParseEnvVars(t *testing.T) {
	t.Parallel()

	env, err := parseEnvVars([]string{"A=1", "B=x=y", "A=2", "EMPTY="})
	if err != nil {
		t.Fatalf("parseEnvVars() error = %v", err)
	}
	want := map[string]string{"A": "2", "B": "x=y", "EMPTY": ""}
	if len(env) != len(want) {
		t.Fatalf("parseEnvVars() = %v, want %v", env, want)
	}
	for k, v := range want {
		if env[k] != v {
			t.Errorf("env[%q] = %q, want %q", k, env[k], v)
		}
	}

	if env, err := parseEnvVars(nil); env != nil || err != nil {
		t.Errorf("parseEnvVars(nil) = (%v, %v), want (nil, nil)", env, err)
	}
	if _, err := parseEnvVars([]string{"=x"}); !errors.Is(err, ErrInvalidEnvVar) {
		t.Errorf("parseEnvVars(=x) error = %v, want ErrInvalidEnvVar", err)
	}
}

func TestCommandLine(t *testing.T) {
	t.Parallel()

	got, err := commandLine(`sh -c "echo $HOME"`, nil)
	if err != nil {
		t.Fatalf("commandLine() error = %v", err)
	}
	if want := []string{"sh", "-c", "echo $HOME"}; strings.Join(got, "|") != strings.Join(want, "|") {
		t.Errorf("commandLine() = %q, want %q", got, want)
	}

	rest := []string{"ls", "-la"}
	if got, err := commandLine("", rest); err != nil || len(got) != 2 {
		t.Errorf("commandLine(\"\", rest) = (%q, %v), want rest", got, err)
	}
}
