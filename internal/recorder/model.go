// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package recorder

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"strconv"

	"github.com/ManuGH/artnetviz/internal/dmx"
)

// DefaultFrameRate is the capture rate when none is configured.
const DefaultFrameRate = 44

// TimestampLayout formats Metadata.Timestamp (YYYYMMDD_HHMMSS).
const TimestampLayout = "20060102_150405"

// Levels is one universe of channel levels. It encodes as a JSON array of
// integers rather than the base64 string encoding/json uses for []byte.
type Levels []byte

// LevelsOf copies a buffer into Levels.
func LevelsOf(b dmx.Buffer) Levels {
	out := make(Levels, dmx.Channels)
	copy(out, b[:])
	return out
}

// Buffer expands l into a zero-padded buffer.
func (l Levels) Buffer() dmx.Buffer { return dmx.BufferFrom(l) }

// MarshalJSON implements json.Marshaler.
func (l Levels) MarshalJSON() ([]byte, error) {
	if l == nil {
		return []byte("[]"), nil
	}
	buf := make([]byte, 0, 2+len(l)*4)
	buf = append(buf, '[')
	for i, v := range l {
		if i > 0 {
			buf = append(buf, ',')
		}
		buf = strconv.AppendUint(buf, uint64(v), 10)
	}
	return append(buf, ']'), nil
}

// UnmarshalJSON implements json.Unmarshaler.
func (l *Levels) UnmarshalJSON(b []byte) error {
	var raw []int
	if err := json.Unmarshal(b, &raw); err != nil {
		return err
	}
	if len(raw) > dmx.Channels {
		return fmt.Errorf("%d levels exceed %d channels", len(raw), dmx.Channels)
	}
	out := make(Levels, len(raw))
	for i, v := range raw {
		if v < 0 || v > 255 {
			return fmt.Errorf("level %d at channel %d out of range", v, i)
		}
		out[i] = byte(v)
	}
	*l = out
	return nil
}

// Metadata describes a recording.
type Metadata struct {
	Timestamp  string  `json:"timestamp"`
	FrameRate  int     `json:"frame_rate"`
	Universes  []int   `json:"universes"`
	FrameCount int     `json:"frame_count"`
	Duration   float64 `json:"duration"`
}

// Frame is one captured sample of every recorded universe.
type Frame struct {
	// Timecode is milliseconds since recording start.
	Timecode int64          `json:"timecode"`
	Index    int            `json:"frame"`
	Data     map[int]Levels `json:"data"`
}

// Recording is a complete recording document.
type Recording struct {
	Metadata Metadata `json:"metadata"`
	Frames   []Frame  `json:"frames"`
}

// Span is the timecode of the last frame in milliseconds.
func (r *Recording) Span() int64 {
	if len(r.Frames) == 0 {
		return 0
	}
	return r.Frames[len(r.Frames)-1].Timecode
}

// SeekIndex returns the last frame whose timecode is at or before ms,
// or 0 when ms precedes every frame.
func (r *Recording) SeekIndex(ms int64) int {
	lo, hi := 0, len(r.Frames)
	for lo < hi {
		mid := int(uint(lo+hi) >> 1)
		if r.Frames[mid].Timecode <= ms {
			lo = mid + 1
		} else {
			hi = mid
		}
	}
	if lo == 0 {
		return 0
	}
	return lo - 1
}

// Validate checks the structural invariants of a decoded document.
func (r *Recording) Validate() error {
	if r.Metadata.FrameRate <= 0 {
		return fmt.Errorf("%w: frame_rate %d", ErrInvalidRecording, r.Metadata.FrameRate)
	}
	for _, u := range r.Metadata.Universes {
		if u < 0 || u > dmx.MaxUniverse {
			return fmt.Errorf("%w: universe %d out of range", ErrInvalidRecording, u)
		}
	}
	var prev int64
	for i, f := range r.Frames {
		if f.Timecode < 0 {
			return fmt.Errorf("%w: frame %d has negative timecode", ErrInvalidRecording, i)
		}
		if f.Timecode < prev {
			return fmt.Errorf("%w: frame %d timecode %d before %d", ErrInvalidRecording, i, f.Timecode, prev)
		}
		prev = f.Timecode
	}
	return nil
}

// Encode writes r as JSON.
func Encode(w io.Writer, r *Recording) error {
	enc := json.NewEncoder(w)
	return enc.Encode(r)
}

// envelope detects missing top-level sections.
type envelope struct {
	Metadata *Metadata `json:"metadata"`
	Frames   *[]Frame  `json:"frames"`
}

// Decode parses and validates a recording document.
func Decode(rd io.Reader) (*Recording, error) {
	var env envelope
	if err := json.NewDecoder(rd).Decode(&env); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidRecording, err)
	}
	if env.Metadata == nil || env.Frames == nil {
		return nil, fmt.Errorf("%w: metadata and frames are required", ErrInvalidRecording)
	}
	rec := &Recording{Metadata: *env.Metadata, Frames: *env.Frames}
	if err := rec.Validate(); err != nil {
		return nil, err
	}
	return rec, nil
}

// DecodeBytes is Decode over a byte slice.
func DecodeBytes(b []byte) (*Recording, error) {
	return Decode(bytes.NewReader(b))
}

// decodeMetadata reads only the metadata section; frames are skipped.
func decodeMetadata(rd io.Reader) (Metadata, error) {
	var env struct {
		Metadata *Metadata       `json:"metadata"`
		Frames   json.RawMessage `json:"frames"`
	}
	if err := json.NewDecoder(rd).Decode(&env); err != nil {
		return Metadata{}, fmt.Errorf("%w: %v", ErrInvalidRecording, err)
	}
	if env.Metadata == nil || env.Frames == nil {
		return Metadata{}, fmt.Errorf("%w: metadata and frames are required", ErrInvalidRecording)
	}
	return *env.Metadata, nil
}
