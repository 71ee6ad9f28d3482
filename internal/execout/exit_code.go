// SPDX-License-Identifier: MPL-2.0

package execout

import (
	"errors"
	"fmt"
	"strconv"
)

// ErrInvalidExitCode is the sentinel error wrapped by InvalidExitCodeError.
var ErrInvalidExitCode = errors.New("invalid exit code")

type (
	// ExitCode is the exit status of the executed command as reported by the
	// engine. The zero value (0) means success.
	ExitCode int

	// InvalidExitCodeError is returned for an exit code that does not fit a
	// POSIX process exit status.
	InvalidExitCodeError struct {
		Value ExitCode
	}
)

// Error implements the error interface.
func (e *InvalidExitCodeError) Error() string {
	return fmt.Sprintf("invalid exit code %d (must be in range 0-255)", e.Value)
}

// Unwrap returns ErrInvalidExitCode so callers can use errors.Is for programmatic detection.
func (e *InvalidExitCodeError) Unwrap() error { return ErrInvalidExitCode }

// Validate returns an error if the ExitCode is outside 0-255. Engines may
// report such codes (Windows containers do); they are still valid results,
// but cannot be passed on as a process exit status.
func (c ExitCode) Validate() error {
	if c < 0 || c > 255 {
		return &InvalidExitCodeError{Value: c}
	}
	return nil
}

// IsSuccess returns true if the exit code indicates successful execution.
func (c ExitCode) IsSuccess() bool { return c == 0 }

// IsCommandNotRunnable reports the codes shells and engines use for a command
// that was found but not executable (126) or not found at all (127).
func (c ExitCode) IsCommandNotRunnable() bool { return c == 126 || c == 127 }

// String returns the decimal string representation of the ExitCode.
func (c ExitCode) String() string { return strconv.Itoa(int(c)) }
