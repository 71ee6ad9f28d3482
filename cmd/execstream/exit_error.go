// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"fmt"

	"github.com/invowk/execstream/internal/execout"
)

// ExitError carries the exit code of the remote command out of a RunE handler
// without forcing os.Exit.
type ExitError struct {
	Code execout.ExitCode
	Err  error
}

// Error returns the error message for ExitError.
func (e *ExitError) Error() string {
	if e.Err != nil {
		return e.Err.Error()
	}
	return fmt.Sprintf("exit status %d", e.Code)
}

// Unwrap returns the underlying error, if any.
func (e *ExitError) Unwrap() error {
	return e.Err
}

// ProcessExitCode returns the status execstream exits with. A remote code
// that does not fit a process exit status becomes 1, so it can never wrap
// around to success.
func (e *ExitError) ProcessExitCode() int {
	if e.Code.Validate() != nil {
		return 1
	}
	return int(e.Code)
}
