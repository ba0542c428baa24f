// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package dmx

import (
	"sync"
	"sync/atomic"
)

type slot struct {
	buf atomic.Pointer[Buffer]
}

func newSlot() *slot {
	s := &slot{}
	s.buf.Store(new(Buffer))
	return s
}

// table is immutable once published.
type table struct {
	universes []int
	slots     map[int]*slot
}

// BufferSet owns one Buffer per configured universe.
//
// Readers are lock free: they load the current universe table and then the
// slot's buffer pointer. Writers replace a whole buffer pointer. Changes to
// the universe set are serialised by mu and publish a new table, so samples
// taken during reconfiguration see either the old or the new set.
type BufferSet struct {
	mu  sync.Mutex
	tbl atomic.Pointer[table]
}

// NewBufferSet creates zero-filled buffers for the normalised universe list.
func NewBufferSet(universes []int) *BufferSet {
	bs := &BufferSet{}
	norm := NormalizeUniverses(universes)
	t := &table{universes: norm, slots: make(map[int]*slot, len(norm))}
	for _, u := range norm {
		t.slots[u] = newSlot()
	}
	bs.tbl.Store(t)
	return bs
}

// Get returns a snapshot of the universe's buffer or a zero buffer if the
// universe is not configured.
func (bs *BufferSet) Get(universe int) Buffer {
	t := bs.tbl.Load()
	if s, ok := t.slots[universe]; ok {
		return *s.buf.Load()
	}
	return Buffer{}
}

// All returns one snapshot per universe in ascending universe order.
func (bs *BufferSet) All() []Buffer {
	t := bs.tbl.Load()
	out := make([]Buffer, len(t.universes))
	for i, u := range t.universes {
		out[i] = *t.slots[u].buf.Load()
	}
	return out
}

// Snapshot returns every buffer keyed by universe, taken against a single
// universe table.
func (bs *BufferSet) Snapshot() ([]int, map[int]Buffer) {
	t := bs.tbl.Load()
	out := make(map[int]Buffer, len(t.universes))
	for _, u := range t.universes {
		out[u] = *t.slots[u].buf.Load()
	}
	return append([]int(nil), t.universes...), out
}

// Universes returns a copy of the configured universe list.
func (bs *BufferSet) Universes() []int {
	t := bs.tbl.Load()
	return append([]int(nil), t.universes...)
}

// Contains reports whether universe is configured.
func (bs *BufferSet) Contains(universe int) bool {
	_, ok := bs.tbl.Load().slots[universe]
	return ok
}

// Store replaces the universe's buffer. It returns false when the universe
// is not configured.
func (bs *BufferSet) Store(universe int, b Buffer) bool {
	s, ok := bs.tbl.Load().slots[universe]
	if !ok {
		return false
	}
	nb := b
	s.buf.Store(&nb)
	return true
}

// StoreBytes replaces the universe's buffer with payload, zero-padding
// payloads shorter than 512 channels.
func (bs *BufferSet) StoreBytes(universe int, payload []byte) bool {
	s, ok := bs.tbl.Load().slots[universe]
	if !ok {
		return false
	}
	nb := BufferFrom(payload)
	s.buf.Store(&nb)
	return true
}

// Reset zero-fills every configured buffer.
func (bs *BufferSet) Reset() {
	t := bs.tbl.Load()
	for _, s := range t.slots {
		s.buf.Store(new(Buffer))
	}
}

// SetUniverses replaces the universe set. Buffers of retained universes are
// kept untouched, new universes start zero-filled and removed ones are
// dropped. It returns false if the normalised set did not change.
func (bs *BufferSet) SetUniverses(universes []int) bool {
	norm := NormalizeUniverses(universes)

	bs.mu.Lock()
	defer bs.mu.Unlock()

	old := bs.tbl.Load()
	if EqualUniverses(old.universes, norm) {
		return false
	}
	t := &table{universes: norm, slots: make(map[int]*slot, len(norm))}
	for _, u := range norm {
		if s, ok := old.slots[u]; ok {
			t.slots[u] = s
			continue
		}
		t.slots[u] = newSlot()
	}
	bs.tbl.Store(t)
	return true
}
