// SPDX-License-Identifier: MPL-2.0

package frame

import (
	"errors"
	"fmt"
)

const (
	// StreamStdout tags frames carrying standard output.
	StreamStdout StreamID = 1
	// StreamStderr tags frames carrying standard error.
	StreamStderr StreamID = 2

	// HeaderSize is the fixed size of a frame header in bytes.
	HeaderSize = 8

	// PartHeader and PartPayload name the frame section a truncation hit.
	PartHeader  Part = "header"
	PartPayload Part = "payload"
)

var (
	// ErrUnknownStreamTag is the sentinel error wrapped by UnknownStreamTagError.
	ErrUnknownStreamTag = errors.New("unknown stream tag")

	// ErrTruncatedFrame is the sentinel error wrapped by TruncatedFrameError.
	ErrTruncatedFrame = errors.New("truncated frame")

	// ErrFrameTooLarge is the sentinel error wrapped by FrameTooLargeError.
	ErrFrameTooLarge = errors.New("frame too large")
)

type (
	// StreamID identifies the output stream a frame belongs to.
	StreamID byte

	// Part names a section of a frame.
	Part string

	// Frame is one decoded multiplexed unit. Frames are produced and consumed
	// one at a time; Payload is owned by the receiver.
	Frame struct {
		Stream  StreamID
		Payload []byte

		header [HeaderSize]byte
		wire   bool // header holds the bytes read from the wire
	}

	// UnknownStreamTagError is returned when a header carries a tag other than
	// stdout or stderr. Byte alignment is lost at that point.
	UnknownStreamTagError struct {
		Tag byte
		// Offset is the position of the offending header in the stream.
		Offset int64
	}

	// TruncatedFrameError is returned when the source ends inside a frame.
	TruncatedFrameError struct {
		Part Part
		Want int64
		Got  int64
	}

	// FrameTooLargeError is returned when a header declares a payload above the
	// decoder's configured limit.
	FrameTooLargeError struct {
		Length uint32
		Limit  uint32
	}
)

// String returns the conventional name of the stream.
func (s StreamID) String() string {
	switch s {
	case StreamStdout:
		return "stdout"
	case StreamStderr:
		return "stderr"
	default:
		return fmt.Sprintf("stream(%d)", byte(s))
	}
}

// Validate returns an error if s is not stdout or stderr.
func (s StreamID) Validate() error {
	switch s {
	case StreamStdout, StreamStderr:
		return nil
	default:
		return &UnknownStreamTagError{Tag: byte(s)}
	}
}

// Len returns the payload length.
func (f Frame) Len() int { return len(f.Payload) }

// Header returns the header as read from the wire. Frames that were not
// decoded from a multiplexed stream get a freshly encoded header.
func (f Frame) Header() [HeaderSize]byte {
	if f.wire {
		return f.header
	}
	var h [HeaderSize]byte
	putHeader(h[:], f.Stream, uint32(len(f.Payload)))
	return h
}

// HasWireHeader reports whether the frame was decoded from a multiplexed
// stream, as opposed to synthesized from raw terminal output.
func (f Frame) HasWireHeader() bool { return f.wire }

// AppendWire appends the frame's on-wire representation to dst: the original
// header followed by the payload. Raw frames contribute their payload only.
func (f Frame) AppendWire(dst []byte) []byte {
	if f.wire {
		dst = append(dst, f.header[:]...)
	}
	return append(dst, f.Payload...)
}

// Raw builds a header-less frame around terminal output read from a TTY
// session, where the engine does not multiplex.
func Raw(payload []byte) Frame {
	return Frame{Stream: StreamStdout, Payload: payload}
}

// Error implements the error interface.
func (e *UnknownStreamTagError) Error() string {
	return fmt.Sprintf("unknown stream tag %d at offset %d (valid: 1, 2)", e.Tag, e.Offset)
}

// Unwrap returns ErrUnknownStreamTag for errors.Is() compatibility.
func (e *UnknownStreamTagError) Unwrap() error { return ErrUnknownStreamTag }

// Error implements the error interface.
func (e *TruncatedFrameError) Error() string {
	return fmt.Sprintf("truncated frame %s: got %d of %d bytes", e.Part, e.Got, e.Want)
}

// Unwrap returns ErrTruncatedFrame for errors.Is() compatibility.
func (e *TruncatedFrameError) Unwrap() error { return ErrTruncatedFrame }

// Error implements the error interface.
func (e *FrameTooLargeError) Error() string {
	return fmt.Sprintf("frame payload of %d bytes exceeds limit of %d", e.Length, e.Limit)
}

// Unwrap returns ErrFrameTooLarge for errors.Is() compatibility.
func (e *FrameTooLargeError) Unwrap() error { return ErrFrameTooLarge }
