// SPDX-License-Identifier: MPL-2.0

// Package mcptool exposes exec as a Model Context Protocol tool.
//
// The server registers a single tool, container_exec, which runs a command in
// a container in buffered demultiplexed mode and returns the exit code with the
// separated stdout and stderr. Engine and transport failures are reported as
// tool errors; a non-zero exit code is a regular result.
package mcptool
