// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package dmx

import (
	"slices"
	"sync"
	"sync/atomic"
)

type liveRef struct {
	src Source
}

// Live is the single indirection consumers dereference to reach the active
// source. Registered variants are kept by kind; only one is live at a time.
type Live struct {
	// activateMu serialises Activate so only one switch starts a variant.
	activateMu sync.Mutex
	mu         sync.Mutex
	current    atomic.Pointer[liveRef]
	variants   map[Kind]Source
	// configured is the universe set of the non-playback sources. Playback
	// carries the recording's universes and never overwrites it.
	configured []int
}

// NewLive creates a holder with initial as the live source.
func NewLive(initial Source) *Live {
	l := &Live{variants: make(map[Kind]Source)}
	if initial != nil {
		l.variants[initial.Kind()] = initial
		l.current.Store(&liveRef{src: initial})
		if initial.Kind() != KindPlayback {
			l.configured = initial.Universes()
		}
	}
	return l
}

// SetConfiguredUniverses records the universe set Activate restores when a
// non-playback variant goes live. It does not touch the current source.
func (l *Live) SetConfiguredUniverses(universes []int) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.configured = NormalizeUniverses(universes)
}

// ConfiguredUniverses returns the universe set of the non-playback sources.
func (l *Live) ConfiguredUniverses() []int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return slices.Clone(l.configured)
}

// Register makes a variant available for Activate without making it live.
func (l *Live) Register(src Source) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.variants[src.Kind()] = src
}

// Variant returns the registered source of the given kind.
func (l *Live) Variant(kind Kind) (Source, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	src, ok := l.variants[kind]
	return src, ok
}

// Current returns the live source, or nil if none was set.
func (l *Live) Current() Source {
	ref := l.current.Load()
	if ref == nil {
		return nil
	}
	return ref.src
}

// Swap atomically makes src live and returns the previous live source.
// Starting and stopping either side is the caller's decision.
func (l *Live) Swap(src Source) Source {
	l.mu.Lock()
	l.variants[src.Kind()] = src
	l.mu.Unlock()
	prev := l.current.Swap(&liveRef{src: src})
	if prev == nil {
		return nil
	}
	return prev.src
}

// Activate switches the live source to the registered variant of kind. A
// listener or generator going live adopts the configured universe set,
// while playback keeps the recording's. The new variant is started before
// it is published, then the previous variant is stopped, so consumers never
// read from a half-migrated source.
func (l *Live) Activate(kind Kind) (Source, error) {
	l.activateMu.Lock()
	defer l.activateMu.Unlock()

	next, ok := l.Variant(kind)
	if !ok {
		return nil, ErrUnknownVariant
	}
	prev := l.Current()
	if prev == next {
		return next, next.Start()
	}
	if kind != KindPlayback {
		if universes := l.ConfiguredUniverses(); len(universes) > 0 {
			next.SetUniverses(universes)
		}
	}
	if err := next.Start(); err != nil {
		return nil, err
	}
	l.current.Store(&liveRef{src: next})
	if prev != nil {
		_ = prev.Stop()
	}
	return next, nil
}

// Live implements Source by delegating to the current variant, so a consumer
// holding a *Live never needs to re-resolve after a swap.
var _ Source = (*Live)(nil)

func (l *Live) Start() error {
	if src := l.Current(); src != nil {
		return src.Start()
	}
	return ErrNoSource
}

func (l *Live) Stop() error {
	if src := l.Current(); src != nil {
		return src.Stop()
	}
	return nil
}

func (l *Live) Running() bool {
	src := l.Current()
	return src != nil && src.Running()
}

func (l *Live) Buffer(universe int) Buffer {
	if src := l.Current(); src != nil {
		return src.Buffer(universe)
	}
	return Buffer{}
}

func (l *Live) Buffers() []Buffer {
	if src := l.Current(); src != nil {
		return src.Buffers()
	}
	return []Buffer{{}}
}

func (l *Live) Universes() []int {
	if src := l.Current(); src != nil {
		return src.Universes()
	}
	return []int{0}
}

func (l *Live) SetUniverses(universes []int) bool {
	src := l.Current()
	if src == nil || src.Kind() != KindPlayback {
		l.SetConfiguredUniverses(universes)
	}
	if src != nil {
		return src.SetUniverses(universes)
	}
	return false
}

func (l *Live) Kind() Kind {
	if src := l.Current(); src != nil {
		return src.Kind()
	}
	return ""
}

// Snapshot samples the current variant once.
func (l *Live) Snapshot() ([]int, map[int]Buffer) {
	src := l.Current()
	if src == nil {
		return []int{0}, map[int]Buffer{0: {}}
	}
	return TakeSnapshot(src)
}

// StopAll stops every registered variant.
func (l *Live) StopAll() error {
	l.mu.Lock()
	srcs := make([]Source, 0, len(l.variants))
	for _, s := range l.variants {
		srcs = append(srcs, s)
	}
	l.mu.Unlock()
	var first error
	for _, s := range srcs {
		if err := s.Stop(); err != nil && first == nil {
			first = err
		}
	}
	return first
}
