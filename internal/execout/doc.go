// SPDX-License-Identifier: MPL-2.0

// Package execout runs a command in a running container and collects its
// output.
//
// Reader.Run creates and starts an attached exec session through a
// container.Engine, decodes the engine's multiplexed output with package frame,
// and assembles it according to Options:
//
//	Stream  Demux  Result.Kind             output
//	false   false  KindBufferedCombined    Output: raw frames, headers included
//	false   true   KindBufferedDemuxed     Demuxed: stdout and stderr buffers
//	true    false  KindStreamingCombined   Chunks: one payload per frame
//	true    true   KindStreamingDemuxed    Pairs: one Demuxed per frame
//
// Buffered results carry the exit code; streaming results do not, and callers
// that need it call ResolveExitCode once the stream is drained.
//
// The buffered combined output keeps the 8-byte frame headers exactly as they
// arrived while the streaming combined output strips them. Clients written
// against the Docker and Podman Python SDKs depend on the buffered form, so the
// two are intentionally not equivalent.
//
// With TTY set the engine does not multiplex: everything is reported as stdout
// and the stderr side of a demultiplexed result is always nil.
package execout
