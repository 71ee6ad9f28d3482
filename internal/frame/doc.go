// SPDX-License-Identifier: MPL-2.0

// Package frame implements the stdout/stderr multiplexing format used by
// container engines for attached, non-TTY exec sessions.
//
// Every frame starts with an 8-byte header:
//
//	byte 0      stream tag (1 = stdout, 2 = stderr)
//	bytes 1..3  reserved, ignored
//	bytes 4..7  payload length, big-endian uint32
//
// followed by exactly that many payload bytes. The format carries no other
// boundary information, so a Decoder never reads past the declared payload and
// stops for good on the first protocol violation.
package frame
