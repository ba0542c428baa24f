// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package dmx

import "sort"

const (
	// Channels is the number of DMX channels in one universe.
	Channels = 512

	// MaxUniverse is the highest addressable Art-Net universe (15 bit port address).
	MaxUniverse = 32767
)

// Buffer is one universe worth of channel levels. It is a value type so
// every copy is an independent snapshot.
type Buffer [Channels]byte

// BufferFrom builds a Buffer from a payload. Shorter payloads are zero-padded,
// longer payloads are truncated to 512 channels.
func BufferFrom(p []byte) Buffer {
	var b Buffer
	copy(b[:], p)
	return b
}

// Fill returns a buffer with every channel set to v.
func Fill(v byte) Buffer {
	var b Buffer
	for i := range b {
		b[i] = v
	}
	return b
}

// NormalizeUniverses sorts the set ascending, removes duplicates and values
// outside 0..MaxUniverse. An empty result falls back to universe 0.
func NormalizeUniverses(in []int) []int {
	out := make([]int, 0, len(in))
	seen := make(map[int]struct{}, len(in))
	for _, u := range in {
		if u < 0 || u > MaxUniverse {
			continue
		}
		if _, dup := seen[u]; dup {
			continue
		}
		seen[u] = struct{}{}
		out = append(out, u)
	}
	if len(out) == 0 {
		return []int{0}
	}
	sort.Ints(out)
	return out
}

// EqualUniverses reports whether two normalised universe lists are identical.
func EqualUniverses(a, b []int) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
