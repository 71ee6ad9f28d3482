// SPDX-License-Identifier: MPL-2.0

package execout

import (
	"bytes"
	"errors"
	"strings"
	"testing"

	"github.com/testcontainers/testcontainers-go"

	"github.com/invowk/execstream/internal/container"
	"github.com/invowk/execstream/internal/testutil"
)

// TestReader_Integration runs the output modes against a real container.
// It requires Docker, or Podman with DOCKER_HOST pointing at its socket.
func TestReader_Integration(t *testing.T) {
	testutil.RequireContainerEngine(t)
	testutil.AcquireContainerSlot(t)

	ctx := t.Context()
	ctr, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: testcontainers.ContainerRequest{
			Image: "debian:stable-slim",
			Cmd:   []string{"sleep", "infinity"},
		},
		Started: true,
	})
	testcontainers.CleanupContainer(t, ctr)
	if err != nil {
		t.Skipf("skipping integration test: cannot start container: %v", err)
	}

	engine, err := container.NewDockerEngine("")
	if err != nil {
		t.Fatalf("NewDockerEngine() error = %v", err)
	}
	t.Cleanup(func() { _ = engine.Close() })
	if !engine.Available(ctx) {
		t.Skip("skipping integration test: engine API not reachable")
	}

	reader := newTestReader(engine)
	id := container.ContainerID(ctr.GetContainerID())

	t.Run("buffered combined", func(t *testing.T) {
		res, err := reader.Run(ctx, id, []string{"echo", "hello"}, Options{})
		if err != nil {
			t.Fatalf("Run() error = %v", err)
		}
		want := []byte("\x01\x00\x00\x00\x00\x00\x00\x06hello\n")
		if !bytes.Equal(res.Output, want) {
			t.Errorf("Output = %q, want %q", res.Output, want)
		}
		if code, _ := res.ExitCode(); code != 0 {
			t.Errorf("ExitCode() = %v, want 0", code)
		}
	})

	t.Run("buffered demux", func(t *testing.T) {
		res, err := reader.Run(ctx, id, []string{"ls", "nonexistent"}, Options{Demux: true})
		if err != nil {
			t.Fatalf("Run() error = %v", err)
		}
		if res.Demuxed.Stdout != nil {
			t.Errorf("Stdout = %q, want nil", res.Demuxed.Stdout)
		}
		if !strings.Contains(string(res.Demuxed.Stderr), "nonexistent") {
			t.Errorf("Stderr = %q, want a message about nonexistent", res.Demuxed.Stderr)
		}
		if code, _ := res.ExitCode(); code == 0 {
			t.Error("ExitCode() = 0, want non-zero")
		}
	})

	t.Run("streaming", func(t *testing.T) {
		res, err := reader.Run(ctx, id, []string{"sh", "-c", "for i in 0 1 2; do echo $i; sleep 0.1; done"}, Options{Stream: true})
		if err != nil {
			t.Fatalf("Run() error = %v", err)
		}
		var out []byte
		for chunk, err := range res.Chunks.All() {
			if err != nil {
				t.Fatalf("chunk error = %v", err)
			}
			out = append(out, chunk...)
		}
		if string(out) != "0\n1\n2\n" {
			t.Errorf("output = %q, want %q", out, "0\n1\n2\n")
		}
		if _, err := reader.ResolveExitCode(ctx, res.Chunks.ExecID()); err != nil {
			t.Errorf("ResolveExitCode() error = %v", err)
		}
	})

	t.Run("tty", func(t *testing.T) {
		res, err := reader.Run(ctx, id, []string{"sh", "-c", "echo out; echo err >&2"}, Options{TTY: true, Demux: true})
		if err != nil {
			t.Fatalf("Run() error = %v", err)
		}
		if res.Demuxed.Stderr != nil {
			t.Errorf("Stderr = %q, want nil in tty mode", res.Demuxed.Stderr)
		}
		if !strings.Contains(string(res.Demuxed.Stdout), "err") {
			t.Errorf("Stdout = %q, want both streams merged", res.Demuxed.Stdout)
		}
	})

	t.Run("missing container", func(t *testing.T) {
		_, err := reader.Run(ctx, "execstream-no-such-container", []string{"true"}, Options{})
		if !errors.Is(err, ErrStartFailure) || !errors.Is(err, container.ErrContainerNotFound) {
			t.Errorf("Run() error = %v, want start failure for a missing container", err)
		}
	})
}
