// SPDX-License-Identifier: MPL-2.0

package execout

import (
	"context"
	"io"
	"os"
	"slices"
	"time"

	"github.com/charmbracelet/log"

	"github.com/invowk/execstream/internal/container"
	"github.com/invowk/execstream/internal/frame"
)

const (
	// DefaultPollAttempts bounds the number of exec inspections made while
	// waiting for the exit code.
	DefaultPollAttempts = 10
	// DefaultPollInterval is the delay before the second inspection; later
	// delays double.
	DefaultPollInterval = 10 * time.Millisecond
)

type (
	// Reader runs commands through a container engine and assembles their
	// output. A Reader is safe for concurrent use; each Run owns its session.
	Reader struct {
		engine       container.Engine
		logger       *log.Logger
		pollAttempts int
		pollInterval time.Duration
		maxFrame     uint32
		rawChunk     int
	}

	// ReaderOption configures a Reader.
	ReaderOption func(*Reader)

	// Result is the outcome of Run. Exactly one of Output, Demuxed, Chunks or
	// Pairs is meaningful, as selected by Kind.
	Result struct {
		Kind   Kind
		ExecID container.ExecID

		// Output is the raw multiplexed output, headers included (KindBufferedCombined).
		// In TTY mode it is the raw terminal output.
		Output []byte
		// Demuxed is the output split by stream (KindBufferedDemuxed).
		Demuxed Demuxed
		// Chunks yields one payload per frame (KindStreamingCombined).
		Chunks *Stream[[]byte]
		// Pairs yields one Demuxed per frame, with the other side nil (KindStreamingDemuxed).
		Pairs *Stream[Demuxed]

		exitCode  ExitCode
		exitKnown bool
	}
)

// WithLogger sets the logger for session lifecycle messages.
func WithLogger(logger *log.Logger) ReaderOption {
	return func(r *Reader) {
		r.logger = logger
	}
}

// WithExitPolling bounds exit code resolution to attempts inspections, the
// first retry after interval and each later one after twice the previous delay.
// Non-positive values keep the defaults.
func WithExitPolling(attempts int, interval time.Duration) ReaderOption {
	return func(r *Reader) {
		if attempts > 0 {
			r.pollAttempts = attempts
		}
		if interval > 0 {
			r.pollInterval = interval
		}
	}
}

// WithMaxFrameSize rejects frames declaring more than n payload bytes as
// corrupted. Zero disables the limit.
func WithMaxFrameSize(n uint32) ReaderOption {
	return func(r *Reader) {
		r.maxFrame = n
	}
}

// WithRawChunkSize sets the largest chunk read at once from a TTY session.
func WithRawChunkSize(n int) ReaderOption {
	return func(r *Reader) {
		r.rawChunk = n
	}
}

// NewReader creates a Reader executing through engine.
func NewReader(engine container.Engine, opts ...ReaderOption) *Reader {
	r := &Reader{
		engine:       engine,
		logger:       log.NewWithOptions(os.Stderr, log.Options{Prefix: "exec", Level: log.WarnLevel}),
		pollAttempts: DefaultPollAttempts,
		pollInterval: DefaultPollInterval,
		rawChunk:     defaultRawChunkSize,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// ExitCode returns the exit code of a buffered result. The second value is
// false for streaming results; use Reader.ResolveExitCode after draining them.
func (res *Result) ExitCode() (ExitCode, bool) {
	return res.exitCode, res.exitKnown
}

// Close releases the session behind a streaming result. It is a no-op for
// buffered results.
func (res *Result) Close() error {
	switch {
	case res.Chunks != nil:
		return res.Chunks.Close()
	case res.Pairs != nil:
		return res.Pairs.Close()
	default:
		return nil
	}
}

// Run executes command in the container and returns its output in the shape
// selected by opts.
//
// Failures to create or start the session are reported as *StartError before
// any output is read. Buffered modes read until the end of output and then
// resolve the exit code; streaming modes return as soon as the session is
// attached. A non-zero exit code is not an error.
func (r *Reader) Run(ctx context.Context, containerID container.ContainerID, command []string, opts Options) (*Result, error) {
	if len(command) == 0 || command[0] == "" {
		return nil, &StartError{Op: OpCreate, ContainerID: containerID, Cause: ErrEmptyCommand}
	}

	cfg := container.ExecConfig{
		Command:      slices.Clone(command),
		TTY:          opts.TTY,
		AttachStdout: true,
		AttachStderr: true,
		Env:          opts.Env,
		WorkDir:      opts.WorkDir,
		User:         opts.User,
		Privileged:   opts.Privileged,
	}
	id, err := r.engine.CreateExec(ctx, containerID, cfg)
	if err != nil {
		return nil, &StartError{Op: OpCreate, ContainerID: containerID, Cause: err}
	}
	rc, err := r.engine.StartExec(ctx, id, container.StartOptions{TTY: opts.TTY})
	if err != nil {
		return nil, &StartError{Op: OpStart, ContainerID: containerID, ExecID: id, Cause: err}
	}

	kind := opts.Kind()
	r.logger.Debug("exec attached", "container", containerID, "exec_id", id, "mode", kind, "tty", opts.TTY)

	src := newSource(ctx, rc, opts.TTY, r.maxFrame, r.rawChunk)
	res := &Result{Kind: kind, ExecID: id}
	switch kind {
	case KindStreamingCombined:
		res.Chunks = newStream(src, id, r.logger, payloadOf)
		return res, nil
	case KindStreamingDemuxed:
		res.Pairs = newStream(src, id, r.logger, demuxOf)
		return res, nil
	}

	err = r.drain(src, res)
	_ = src.close()
	if err != nil {
		return nil, err
	}
	r.logger.Debug("exec output drained", "exec_id", id, "frames", src.frames, "bytes", src.bytes)

	code, err := r.ResolveExitCode(ctx, id)
	if err != nil {
		return nil, err
	}
	res.exitCode = code
	res.exitKnown = true
	return res, nil
}

// drain reads src to the end, accumulating into res according to res.Kind.
func (r *Reader) drain(src *source, res *Result) error {
	if res.Kind == KindBufferedCombined {
		res.Output = []byte{}
	}
	for {
		f, err := src.next()
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return err
		}
		switch {
		case res.Kind == KindBufferedCombined:
			res.Output = f.AppendWire(res.Output)
		case f.Stream == frame.StreamStderr:
			res.Demuxed.Stderr = append(nonNil(res.Demuxed.Stderr), f.Payload...)
		default:
			res.Demuxed.Stdout = append(nonNil(res.Demuxed.Stdout), f.Payload...)
		}
	}
}

// ResolveExitCode waits for the engine to report the exec session as exited
// and returns its exit code.
//
// The engine may briefly report the session as running after its output has
// ended, so the session is inspected repeatedly with exponential backoff.
// Transient inspection failures are retried the same way. The error is an
// *ExitResolutionError.
func (r *Reader) ResolveExitCode(ctx context.Context, id container.ExecID) (ExitCode, error) {
	var state container.ExecState
	err := container.RetryWithBackoff(ctx, r.pollAttempts, r.pollInterval, func(attempt int) (bool, error) {
		st, err := r.engine.InspectExec(ctx, id)
		if err != nil {
			retry := container.IsTransientError(err)
			r.logger.Debug("exec inspect failed", "exec_id", id, "attempt", attempt+1, "retry", retry, "err", err)
			return retry, err
		}
		if st.Running {
			return true, ErrSessionStillRunning
		}
		state = st
		return false, nil
	})
	if err != nil {
		return 0, &ExitResolutionError{ExecID: id, Cause: err}
	}

	// Codes outside 0-255 (Windows containers) are reported as given.
	code := ExitCode(state.ExitCode)
	r.logger.Debug("exec exited", "exec_id", id, "exit_code", code)
	return code, nil
}
