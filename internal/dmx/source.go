// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package dmx

import (
	"fmt"
	"strings"
)

// Kind tags the concrete variant behind a Source.
type Kind string

const (
	KindListener  Kind = "listener"
	KindGenerator Kind = "generator"
	KindPlayback  Kind = "playback"
)

// ParseKind parses a source kind name.
func ParseKind(s string) (Kind, error) {
	switch k := Kind(strings.ToLower(strings.TrimSpace(s))); k {
	case KindListener, KindGenerator, KindPlayback:
		return k, nil
	default:
		return "", fmt.Errorf("unknown source kind %q", s)
	}
}

// Source is the contract every frame source variant implements. Consumers
// (renderers, the recorder, the HTTP surface) depend on nothing else.
type Source interface {
	// Start begins producing data. Calling Start on a running source is a no-op.
	Start() error
	// Stop halts production and releases sockets and goroutines. Idempotent.
	Stop() error
	// Running reports whether the source is producing data.
	Running() bool

	// Buffer returns a snapshot of universe, or a zero buffer if unknown.
	Buffer(universe int) Buffer
	// Buffers returns one snapshot per universe in Universes order.
	Buffers() []Buffer
	// Universes returns the ascending universe list.
	Universes() []int
	// SetUniverses replaces the universe set and reports whether it changed.
	SetUniverses(universes []int) bool

	Kind() Kind
}

// Tunable is implemented by sources whose internal timing is rate driven.
type Tunable interface {
	SetFPS(fps int)
}

// Snapshotter is implemented by sources that can sample every universe
// against one consistent universe table.
type Snapshotter interface {
	Snapshot() ([]int, map[int]Buffer)
}

// TakeSnapshot samples every universe of src.
func TakeSnapshot(src Source) ([]int, map[int]Buffer) {
	if s, ok := src.(Snapshotter); ok {
		return s.Snapshot()
	}
	universes := src.Universes()
	out := make(map[int]Buffer, len(universes))
	for _, u := range universes {
		out[u] = src.Buffer(u)
	}
	return universes, out
}
