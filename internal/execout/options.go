// SPDX-License-Identifier: MPL-2.0

package execout

import (
	"fmt"
	"strings"

	"mvdan.cc/sh/v3/shell"
)

const (
	// KindBufferedCombined is a single byte string of raw frames.
	KindBufferedCombined Kind = iota
	// KindBufferedDemuxed is one byte string per stream.
	KindBufferedDemuxed
	// KindStreamingCombined is a lazy sequence of payloads.
	KindStreamingCombined
	// KindStreamingDemuxed is a lazy sequence of Demuxed pairs.
	KindStreamingDemuxed
)

type (
	// Kind identifies the shape of a Result.
	Kind int

	// Options selects the output mode and the exec session parameters.
	// The zero value runs a buffered, combined, non-TTY exec.
	Options struct {
		// Stream returns output lazily instead of waiting for the command to end
		Stream bool
		// Demux separates stdout from stderr
		Demux bool
		// TTY allocates a pseudo-terminal; output is then raw and reported as stdout
		TTY bool

		Env        map[string]string
		WorkDir    string
		User       string
		Privileged bool
	}

	// Demuxed holds output separated by stream. A nil field means the stream
	// produced no frame at all; an empty non-nil field means it produced only
	// empty frames.
	Demuxed struct {
		Stdout []byte
		Stderr []byte
	}
)

// Kind returns the result kind these options produce.
func (o Options) Kind() Kind {
	switch {
	case o.Stream && o.Demux:
		return KindStreamingDemuxed
	case o.Stream:
		return KindStreamingCombined
	case o.Demux:
		return KindBufferedDemuxed
	default:
		return KindBufferedCombined
	}
}

// String returns the mode name.
func (k Kind) String() string {
	switch k {
	case KindBufferedCombined:
		return "buffered-combined"
	case KindBufferedDemuxed:
		return "buffered-demuxed"
	case KindStreamingCombined:
		return "streaming-combined"
	case KindStreamingDemuxed:
		return "streaming-demuxed"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}

// IsStreaming reports whether results of this kind are lazy sequences.
func (k Kind) IsStreaming() bool {
	return k == KindStreamingCombined || k == KindStreamingDemuxed
}

// ParseCommand splits a command line into an argv using POSIX shell word
// rules: quotes and backslashes are honored, parameters are kept verbatim
// ("$HOME" stays "$HOME") and nothing is globbed. Command substitution is
// rejected.
func ParseCommand(s string) ([]string, error) {
	if strings.TrimSpace(s) == "" {
		return nil, ErrEmptyCommand
	}
	fields, err := shell.Fields(s, keepParam)
	if err != nil {
		return nil, fmt.Errorf("parse command %q: %w", s, err)
	}
	if len(fields) == 0 {
		return nil, ErrEmptyCommand
	}
	return fields, nil
}

// keepParam expands a parameter reference to itself; the command runs in a
// container whose environment is unknown here. IFS stays unset so words split
// on the default separators.
func keepParam(name string) string {
	if name == "IFS" {
		return ""
	}
	return "$" + name
}
