// SPDX-License-Identifier: MPL-2.0

package testutil

import (
	"io"
	"os/exec"
	"runtime"
	"testing"

	"github.com/charmbracelet/log"
)

// RequireShell skips the test unless a POSIX sh is available. Tests running
// commands through the local engine need it.
func RequireShell(t testing.TB) {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skip("local engine tests need a POSIX shell")
	}
	if _, err := exec.LookPath("sh"); err != nil {
		t.Skip("sh not found in PATH")
	}
}

// QuietLogger returns a logger that discards everything.
func QuietLogger() *log.Logger {
	return log.New(io.Discard)
}

// MustClose closes c and fails the test if that fails.
func MustClose(t testing.TB, c io.Closer) {
	t.Helper()
	if err := c.Close(); err != nil {
		t.Errorf("failed to close: %v", err)
	}
}
