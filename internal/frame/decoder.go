// SPDX-License-Identifier: MPL-2.0

package frame

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"slices"
)

// payloadChunk bounds each payload read and the allocation made ahead of the
// data.
const payloadChunk = 32 * 1024

type (
	// DecoderOption configures a Decoder.
	DecoderOption func(*Decoder)

	// Decoder reads frames from a sequential byte source. It buffers at most one
	// frame and never reads beyond the current frame's payload, so the source
	// stays aligned for anyone reading it after the decoder.
	//
	// A Decoder is not safe for concurrent use.
	Decoder struct {
		r          io.Reader
		maxPayload uint32
		offset     int64
		err        error // sticky terminal error (io.EOF or a protocol violation)
	}
)

// WithMaxPayload rejects frames declaring a payload larger than n bytes.
// Zero disables the limit.
func WithMaxPayload(n uint32) DecoderOption {
	return func(d *Decoder) {
		d.maxPayload = n
	}
}

// NewDecoder returns a decoder reading from r.
func NewDecoder(r io.Reader, opts ...DecoderOption) *Decoder {
	d := &Decoder{r: r}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Offset returns the number of bytes consumed from the source so far.
func (d *Decoder) Offset() int64 { return d.offset }

// Next returns the next frame.
//
// It returns io.EOF when the source ends exactly on a frame boundary, a
// *TruncatedFrameError when it ends inside one, and an *UnknownStreamTagError
// for an invalid tag. Protocol errors and io.EOF are sticky: once returned,
// every later call returns the same error without touching the source. Other
// read errors are returned wrapped and are not sticky.
func (d *Decoder) Next() (Frame, error) {
	if d.err != nil {
		return Frame{}, d.err
	}

	var f Frame
	n, err := io.ReadFull(d.r, f.header[:])
	d.offset += int64(n)
	if err != nil {
		return Frame{}, d.readFailed(PartHeader, HeaderSize, n, err)
	}
	f.wire = true

	tag := StreamID(f.header[0])
	if tag.Validate() != nil {
		d.err = &UnknownStreamTagError{Tag: f.header[0], Offset: d.offset - HeaderSize}
		return Frame{}, d.err
	}
	f.Stream = tag

	length := binary.BigEndian.Uint32(f.header[4:])
	if d.maxPayload > 0 && length > d.maxPayload {
		d.err = &FrameTooLargeError{Length: length, Limit: d.maxPayload}
		return Frame{}, d.err
	}

	payload, err := d.readPayload(int64(length))
	d.offset += int64(len(payload))
	if err != nil {
		return Frame{}, d.readFailed(PartPayload, int64(length), len(payload), err)
	}
	f.Payload = payload

	return f, nil
}

// readPayload reads exactly length bytes. The buffer grows with the bytes that
// actually arrive, so a corrupt length field costs at most one chunk beyond
// the data received.
func (d *Decoder) readPayload(length int64) ([]byte, error) {
	if length <= payloadChunk {
		buf := make([]byte, length)
		n, err := io.ReadFull(d.r, buf)
		return buf[:n], err
	}

	buf := make([]byte, 0, payloadChunk)
	for int64(len(buf)) < length {
		step := min(length-int64(len(buf)), payloadChunk)
		buf = slices.Grow(buf, int(step))
		n, err := io.ReadFull(d.r, buf[len(buf):len(buf)+int(step)])
		buf = buf[:len(buf)+n]
		if err != nil {
			return buf, err
		}
	}
	return buf, nil
}

// readFailed classifies a failed io.ReadFull of want bytes after got bytes
// arrived.
func (d *Decoder) readFailed(part Part, want int64, got int, err error) error {
	switch {
	case errors.Is(err, io.EOF) && got == 0 && part == PartHeader:
		d.err = io.EOF
	case errors.Is(err, io.EOF), errors.Is(err, io.ErrUnexpectedEOF):
		// A zero-byte EOF on the payload still leaves a frame without its body.
		d.err = &TruncatedFrameError{Part: part, Want: want, Got: int64(got)}
	default:
		return fmt.Errorf("read frame %s: %w", part, err)
	}
	return d.err
}
