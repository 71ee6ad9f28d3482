// SPDX-License-Identifier: MPL-2.0

// Package container provides the exec session lifecycle for container engines.
//
// The Engine interface covers the three calls an attached exec needs: create a
// session, start it and obtain its output stream, and inspect it for the exit
// code. APIEngine talks to the Docker Engine API, which Podman also serves on
// its compat socket; LocalEngine runs the command as a host process and
// produces the same wire format, for development and tests.
//
// Engine selection uses NewEngine(EngineType, host) with automatic fallback
// between Docker and Podman.
package container
