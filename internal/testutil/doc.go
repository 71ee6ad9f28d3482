// SPDX-License-Identifier: MPL-2.0

// Package testutil provides helpers shared by the tests of several packages:
// skipping tests that need a POSIX shell or a container engine, bounding
// concurrent container use, and quiet loggers.
package testutil
