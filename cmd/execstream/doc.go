// SPDX-License-Identifier: MPL-2.0

// Package cmd contains all CLI commands for execstream.
//
// The root command wires configuration loading, engine selection and error
// rendering; run executes a command in a container, engine reports the
// detected engine, config and issue help with setup and failures, and mcp
// serves the exec tool over stdio.
package cmd
