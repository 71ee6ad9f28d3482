// SPDX-License-Identifier: MPL-2.0

package execout

import (
	"context"
	"errors"
	"io"
	"sync"

	"github.com/invowk/execstream/internal/frame"
)

// defaultRawChunkSize bounds a single read of raw TTY output.
const defaultRawChunkSize = 32 * 1024

// source yields frames from an attached exec session. In multiplexed mode it
// decodes frames; in TTY mode every read becomes one stdout frame.
//
// All four output modes consume the same source so framing rules and error
// classification are shared.
type source struct {
	ctx context.Context
	rc  io.ReadCloser
	dec *frame.Decoder // nil in TTY mode
	buf []byte         // TTY read buffer

	frames  int
	bytes   int64
	pending error // error returned alongside TTY data, reported on the next call

	stop      func() bool
	closeOnce sync.Once
	closeErr  error
}

func newSource(ctx context.Context, rc io.ReadCloser, tty bool, maxFrame uint32, chunk int) *source {
	s := &source{ctx: ctx, rc: rc}
	if tty {
		if chunk <= 0 {
			chunk = defaultRawChunkSize
		}
		s.buf = make([]byte, chunk)
	} else {
		s.dec = frame.NewDecoder(rc, frame.WithMaxPayload(maxFrame))
	}
	// Closing the byte source is the only way to interrupt a blocked read.
	s.stop = context.AfterFunc(ctx, func() { _ = s.release() })
	return s
}

// next returns the next frame, io.EOF at the clean end of output, or a
// *CorruptedStreamError / *TransportError.
func (s *source) next() (frame.Frame, error) {
	var (
		f   frame.Frame
		err error
	)
	if s.dec != nil {
		f, err = s.dec.Next()
	} else {
		f, err = s.readRaw()
	}
	if err != nil {
		return frame.Frame{}, s.classify(err)
	}
	s.frames++
	s.bytes += int64(f.Len())
	return f, nil
}

func (s *source) readRaw() (frame.Frame, error) {
	if s.pending != nil {
		return frame.Frame{}, s.pending
	}
	for {
		n, err := s.rc.Read(s.buf)
		if n > 0 {
			s.pending = err
			return frame.Raw(append([]byte(nil), s.buf[:n]...)), nil
		}
		if err != nil {
			s.pending = err
			return frame.Frame{}, err
		}
	}
}

func (s *source) classify(err error) error {
	if ctxErr := s.ctx.Err(); ctxErr != nil {
		return &TransportError{Op: "read exec output", Cause: ctxErr}
	}
	switch {
	case err == io.EOF:
		return io.EOF
	case errors.Is(err, frame.ErrUnknownStreamTag),
		errors.Is(err, frame.ErrTruncatedFrame),
		errors.Is(err, frame.ErrFrameTooLarge):
		offset := s.bytes
		if s.dec != nil {
			offset = s.dec.Offset()
		}
		return &CorruptedStreamError{Frame: s.frames, Offset: offset, Cause: err}
	default:
		return &TransportError{Op: "read exec output", Cause: err}
	}
}

// close detaches the source from its context and releases the byte source.
// It is safe to call more than once.
func (s *source) close() error {
	s.stop()
	return s.release()
}

func (s *source) release() error {
	s.closeOnce.Do(func() {
		s.closeErr = s.rc.Close()
	})
	return s.closeErr
}
