// SPDX-License-Identifier: MPL-2.0

package container

import (
	"context"
	"errors"
	"io"
	"strings"
	"syscall"

	cerrdefs "github.com/containerd/errdefs"
)

// IsTransientError reports whether err is a transient engine API error that
// may succeed on retry: the engine being briefly unavailable, a dropped or
// refused connection, or a server-side timeout.
//
// Context cancellation and deadline errors are explicitly non-transient because
// retrying a cancelled operation is never useful. Missing sessions and
// containers are permanent.
func IsTransientError(err error) bool {
	if err == nil {
		return false
	}

	// Context errors are never transient: the caller stopped the operation.
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}

	if errors.Is(err, ErrExecNotFound) || errors.Is(err, ErrContainerNotFound) ||
		errors.Is(err, ErrContainerNotRunning) {
		return false
	}

	if cerrdefs.IsUnavailable(err) || cerrdefs.IsDeadlineExceeded(err) {
		return true
	}

	if errors.Is(err, syscall.ECONNREFUSED) || errors.Is(err, syscall.ECONNRESET) ||
		errors.Is(err, io.ErrUnexpectedEOF) {
		return true
	}

	errStr := err.Error()

	// Connection-level failures talking to the engine socket.
	if strings.Contains(errStr, "connection refused") ||
		strings.Contains(errStr, "connection reset by peer") ||
		strings.Contains(errStr, "connection timed out") ||
		strings.Contains(errStr, "i/o timeout") {
		return true
	}

	// Rootless Podman OCI runtime races.
	if strings.Contains(errStr, "OCI runtime error") {
		return true
	}

	return false
}
