// SPDX-License-Identifier: MPL-2.0

package execout

import (
	"bytes"
	"context"
	"io"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/charmbracelet/log"

	"github.com/invowk/execstream/internal/container"
	"github.com/invowk/execstream/internal/frame"
)

const testExecID container.ExecID = "exec-1"

type (
	// fakeEngine serves a canned output stream and a scripted inspect sequence.
	fakeEngine struct {
		output    io.ReadCloser
		createErr error
		startErr  error
		// inspect is called with the zero-based inspect call number
		inspect func(call int) (container.ExecState, error)

		mu           sync.Mutex
		created      []container.ExecConfig
		started      []container.StartOptions
		inspectCalls int
	}

	// trackedReader records whether it was closed.
	trackedReader struct {
		io.Reader
		closed atomic.Bool
	}
)

func (r *trackedReader) Close() error {
	r.closed.Store(true)
	return nil
}

func (e *fakeEngine) Name() string { return "fake" }
func (e *fakeEngine) Available(context.Context) bool { return true }
func (e *fakeEngine) Version(context.Context) (string, error) { return "0.0.0", nil }

func (e *fakeEngine) CreateExec(_ context.Context, _ container.ContainerID, cfg container.ExecConfig) (container.ExecID, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.created = append(e.created, cfg)
	if e.createErr != nil {
		return "", e.createErr
	}
	return testExecID, nil
}

func (e *fakeEngine) StartExec(_ context.Context, _ container.ExecID, opts container.StartOptions) (io.ReadCloser, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.started = append(e.started, opts)
	if e.startErr != nil {
		return nil, e.startErr
	}
	return e.output, nil
}

func (e *fakeEngine) InspectExec(_ context.Context, id container.ExecID) (container.ExecState, error) {
	e.mu.Lock()
	call := e.inspectCalls
	e.inspectCalls++
	e.mu.Unlock()
	if e.inspect == nil {
		return container.ExecState{ID: id}, nil
	}
	return e.inspect(call)
}

func (e *fakeEngine) inspections() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.inspectCalls
}

// exitedWith returns an inspect script reporting the session as exited.
func exitedWith(code int) func(int) (container.ExecState, error) {
	return func(int) (container.ExecState, error) {
		return container.ExecState{ID: testExecID, ExitCode: code}, nil
	}
}

func newFakeEngine(output []byte, exitCode int) (*fakeEngine, *trackedReader) {
	rc := &trackedReader{Reader: bytes.NewReader(output)}
	return &fakeEngine{output: rc, inspect: exitedWith(exitCode)}, rc
}

func newTestReader(engine container.Engine, opts ...ReaderOption) *Reader {
	quiet := log.New(io.Discard)
	return NewReader(engine, append([]ReaderOption{WithLogger(quiet)}, opts...)...)
}

type muxed struct {
	id      frame.StreamID
	payload string
}

func encode(t *testing.T, frames ...muxed) []byte {
	t.Helper()
	var out []byte
	for _, f := range frames {
		out = frame.AppendFrame(out, f.id, []byte(f.payload))
	}
	return out
}
