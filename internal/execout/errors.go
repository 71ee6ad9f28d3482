// SPDX-License-Identifier: MPL-2.0

package execout

import (
	"errors"
	"fmt"

	"github.com/invowk/execstream/internal/container"
)

const (
	// OpCreate and OpStart name the exec lifecycle step a StartError refers to.
	OpCreate StartOp = "create"
	OpStart  StartOp = "start"
)

var (
	// ErrStartFailure is the sentinel error wrapped by StartError.
	ErrStartFailure = errors.New("exec start failure")

	// ErrCorruptedStream is the sentinel error wrapped by CorruptedStreamError.
	ErrCorruptedStream = errors.New("corrupted exec stream")

	// ErrExitResolution is the sentinel error wrapped by ExitResolutionError.
	ErrExitResolution = errors.New("exit code resolution failure")

	// ErrTransport is the sentinel error wrapped by TransportError.
	ErrTransport = errors.New("exec transport error")

	// ErrEmptyCommand is returned (inside a StartError) for an empty argv.
	ErrEmptyCommand = errors.New("empty command")

	// ErrSessionStillRunning is the cause of an ExitResolutionError when the
	// engine kept reporting the process as running.
	ErrSessionStillRunning = errors.New("exec session still running")

	// ErrStreamClosed is returned by Stream.Next after Close.
	ErrStreamClosed = errors.New("exec stream closed")
)

type (
	// StartOp is an exec lifecycle step.
	StartOp string

	// StartError is returned when the exec session could not be created or
	// started. No output was produced.
	StartError struct {
		Op          StartOp
		ContainerID container.ContainerID
		ExecID      container.ExecID
		Cause       error
	}

	// CorruptedStreamError is returned when the multiplexed framing is violated.
	// Cause wraps frame.ErrUnknownStreamTag, frame.ErrTruncatedFrame or
	// frame.ErrFrameTooLarge.
	CorruptedStreamError struct {
		// Frame is the zero-based index of the frame that could not be decoded.
		Frame int
		// Offset is the number of bytes consumed before the failure was detected.
		Offset int64
		Cause  error
	}

	// ExitResolutionError is returned when the output ended but the engine could
	// not report an exit code.
	ExitResolutionError struct {
		ExecID container.ExecID
		Cause  error
	}

	// TransportError wraps I/O failures on the exec byte source, including
	// reads interrupted by context cancellation. These are never retried here.
	TransportError struct {
		Op    string
		Cause error
	}
)

// Error implements the error interface.
func (e *StartError) Error() string {
	if e.ExecID != "" {
		return fmt.Sprintf("failed to %s exec %s in container %q: %v", e.Op, e.ExecID, e.ContainerID, e.Cause)
	}
	return fmt.Sprintf("failed to %s exec in container %q: %v", e.Op, e.ContainerID, e.Cause)
}

// Unwrap returns ErrStartFailure and the cause for errors.Is() compatibility.
func (e *StartError) Unwrap() []error { return []error{ErrStartFailure, e.Cause} }

// Error implements the error interface.
func (e *CorruptedStreamError) Error() string {
	return fmt.Sprintf("corrupted exec stream at frame %d (offset %d): %v", e.Frame, e.Offset, e.Cause)
}

// Unwrap returns ErrCorruptedStream and the decoder error.
func (e *CorruptedStreamError) Unwrap() []error { return []error{ErrCorruptedStream, e.Cause} }

// Error implements the error interface.
func (e *ExitResolutionError) Error() string {
	return fmt.Sprintf("failed to resolve exit code of exec %s: %v", e.ExecID, e.Cause)
}

// Unwrap returns ErrExitResolution and the cause.
func (e *ExitResolutionError) Unwrap() []error { return []error{ErrExitResolution, e.Cause} }

// Error implements the error interface.
func (e *TransportError) Error() string {
	return fmt.Sprintf("%s: %v", e.Op, e.Cause)
}

// Unwrap returns ErrTransport and the underlying I/O error.
func (e *TransportError) Unwrap() []error { return []error{ErrTransport, e.Cause} }
