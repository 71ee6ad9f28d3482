// SPDX-License-Identifier: MPL-2.0

package frame

import (
	"encoding/binary"
	"io"
	"math"
	"sync"
)

type (
	// Muxer writes whole frames to an underlying writer. Writers obtained from
	// the same Muxer may be used from different goroutines: each Write is
	// emitted as complete frames, never interleaved with another stream's.
	Muxer struct {
		mu sync.Mutex
		w  io.Writer
	}

	streamWriter struct {
		m  *Muxer
		id StreamID
	}
)

// AppendFrame appends the encoding of one frame to dst. Payloads longer than
// math.MaxUint32 are split over several frames.
func AppendFrame(dst []byte, id StreamID, payload []byte) []byte {
	for {
		chunk := payload
		if uint64(len(chunk)) > math.MaxUint32 {
			chunk = chunk[:math.MaxUint32]
		}
		var h [HeaderSize]byte
		putHeader(h[:], id, uint32(len(chunk)))
		dst = append(dst, h[:]...)
		dst = append(dst, chunk...)
		payload = payload[len(chunk):]
		if len(payload) == 0 {
			return dst
		}
	}
}

// Encode returns the encoding of a single frame.
func Encode(id StreamID, payload []byte) []byte {
	return AppendFrame(make([]byte, 0, HeaderSize+len(payload)), id, payload)
}

func putHeader(h []byte, id StreamID, length uint32) {
	h[0] = byte(id)
	h[1], h[2], h[3] = 0, 0, 0
	binary.BigEndian.PutUint32(h[4:], length)
}

// NewMuxer returns a Muxer writing to w.
func NewMuxer(w io.Writer) *Muxer {
	return &Muxer{w: w}
}

// Writer returns an io.Writer that frames everything written to it with id.
func (m *Muxer) Writer(id StreamID) io.Writer {
	return &streamWriter{m: m, id: id}
}

// WriteFrame writes p as one or more frames tagged id. The returned count is
// the number of payload bytes written, not counting headers.
func (m *Muxer) WriteFrame(id StreamID, p []byte) (int, error) {
	if err := id.Validate(); err != nil {
		return 0, err
	}
	if len(p) == 0 {
		return 0, nil
	}

	buf := AppendFrame(nil, id, p)

	m.mu.Lock()
	defer m.mu.Unlock()
	if _, err := m.w.Write(buf); err != nil {
		return 0, err
	}
	return len(p), nil
}

func (w *streamWriter) Write(p []byte) (int, error) {
	return w.m.WriteFrame(w.id, p)
}
