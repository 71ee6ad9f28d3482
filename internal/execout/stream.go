// SPDX-License-Identifier: MPL-2.0

package execout

import (
	"io"
	"iter"
	"sync/atomic"

	"github.com/charmbracelet/log"

	"github.com/invowk/execstream/internal/container"
	"github.com/invowk/execstream/internal/frame"
)

// Stream is a lazy, single-pass sequence of exec output elements. Each call
// to Next reads at most one frame from the session.
//
// A Stream is not safe for concurrent use, except that Close may be called
// from another goroutine to abort a blocked Next.
type Stream[T any] struct {
	src     *source
	id      container.ExecID
	convert func(frame.Frame) T
	logger  *log.Logger

	err    error // sticky terminal error, io.EOF included
	ended  atomic.Bool
	closed atomic.Bool
}

func newStream[T any](src *source, id container.ExecID, logger *log.Logger, convert func(frame.Frame) T) *Stream[T] {
	return &Stream[T]{src: src, id: id, convert: convert, logger: logger}
}

// ExecID returns the exec session the stream reads from, for use with
// Reader.ResolveExitCode once the stream has ended.
func (s *Stream[T]) ExecID() container.ExecID { return s.id }

// Next returns the next element. At the clean end of output it returns io.EOF
// and releases the session. A *CorruptedStreamError or *TransportError ends the
// stream as well; elements delivered before it remain valid. Once Next has
// returned an error, every later call returns the same error.
func (s *Stream[T]) Next() (T, error) {
	var zero T
	if s.err != nil {
		return zero, s.err
	}
	if s.closed.Load() {
		s.err = ErrStreamClosed
		return zero, s.err
	}

	f, err := s.src.next()
	if err != nil {
		if s.closed.Load() && err != io.EOF {
			err = ErrStreamClosed
		}
		s.err = err
		s.ended.Store(true)
		_ = s.src.close()
		if err == io.EOF {
			s.logger.Debug("exec output drained", "exec_id", s.id, "frames", s.src.frames, "bytes", s.src.bytes)
		} else {
			s.logger.Debug("exec output failed", "exec_id", s.id, "frames", s.src.frames, "err", err)
		}
		return zero, err
	}
	return s.convert(f), nil
}

// All returns an iterator over the remaining elements. A terminal error other
// than io.EOF is yielded once as the final pair. Stopping the loop early
// closes the stream.
func (s *Stream[T]) All() iter.Seq2[T, error] {
	return func(yield func(T, error) bool) {
		defer func() { _ = s.Close() }()
		for {
			v, err := s.Next()
			if err == io.EOF {
				return
			}
			if err != nil {
				yield(v, err)
				return
			}
			if !yield(v, nil) {
				return
			}
		}
	}
}

// Close releases the exec session. Closing a stream that has not reached the
// end of output abandons the remaining output; the exit code may then never
// become available.
func (s *Stream[T]) Close() error {
	if s.closed.Swap(true) {
		return nil
	}
	if !s.ended.Load() {
		s.logger.Warn("exec stream closed before end of output; exit code left unresolved", "exec_id", s.id)
	}
	return s.src.close()
}

func payloadOf(f frame.Frame) []byte { return f.Payload }

func demuxOf(f frame.Frame) Demuxed {
	if f.Stream == frame.StreamStderr {
		return Demuxed{Stderr: nonNil(f.Payload)}
	}
	return Demuxed{Stdout: nonNil(f.Payload)}
}

func nonNil(b []byte) []byte {
	if b == nil {
		return []byte{}
	}
	return b
}
