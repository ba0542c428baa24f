// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

package dmx

import (
	"errors"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeSource struct {
	kind     Kind
	set      *BufferSet
	running  bool
	startErr error
	stops    int
}

func newFake(kind Kind, universes ...int) *fakeSource {
	return &fakeSource{kind: kind, set: NewBufferSet(universes)}
}

func (f *fakeSource) Start() error {
	if f.startErr != nil {
		return f.startErr
	}
	f.running = true
	return nil
}
func (f *fakeSource) Stop() error { f.running = false; f.stops++; return nil }
func (f *fakeSource) Running() bool { return f.running }
func (f *fakeSource) Buffer(u int) Buffer { return f.set.Get(u) }
func (f *fakeSource) Buffers() []Buffer { return f.set.All() }
func (f *fakeSource) Universes() []int { return f.set.Universes() }
func (f *fakeSource) SetUniverses(u []int) bool { return f.set.SetUniverses(u) }
func (f *fakeSource) Kind() Kind { return f.kind }

func TestParseKind(t *testing.T) {
	k, err := ParseKind(" Generator ")
	require.NoError(t, err)
	assert.Equal(t, KindGenerator, k)

	_, err = ParseKind("sacn")
	assert.Error(t, err)
}

func TestLive_EmptyHolder(t *testing.T) {
	l := NewLive(nil)
	assert.Nil(t, l.Current())
	assert.ErrorIs(t, l.Start(), ErrNoSource)
	assert.Equal(t, Buffer{}, l.Buffer(0))
	assert.Equal(t, []int{0}, l.Universes())
	assert.False(t, l.Running())
}

func TestLive_ActivateSwapsAndMigratesUniverses(t *testing.T) {
	listener := newFake(KindListener, 1, 2)
	gen := newFake(KindGenerator, 0)
	l := NewLive(listener)
	l.Register(gen)
	require.NoError(t, l.Start())

	src, err := l.Activate(KindGenerator)
	require.NoError(t, err)
	assert.Same(t, gen, src)
	assert.Equal(t, KindGenerator, l.Kind())
	assert.True(t, gen.Running())
	assert.False(t, listener.Running())
	assert.Equal(t, []int{1, 2}, gen.Universes())
}

func TestLive_ReturnFromPlaybackRestoresConfiguredUniverses(t *testing.T) {
	listener := newFake(KindListener, 0, 1)
	pb := newFake(KindPlayback)
	l := NewLive(listener)
	l.Register(pb)
	require.NoError(t, l.Start())

	_, err := l.Activate(KindPlayback)
	require.NoError(t, err)
	// playback adopts the recording's universes
	pb.SetUniverses([]int{7})
	assert.Equal(t, []int{7}, l.Universes())

	_, err = l.Activate(KindListener)
	require.NoError(t, err)
	assert.Equal(t, []int{0, 1}, listener.Universes())
	assert.Equal(t, []int{0, 1}, l.ConfiguredUniverses())
}

func TestLive_SetUniversesTracksConfiguredSet(t *testing.T) {
	listener := newFake(KindListener, 0)
	gen := newFake(KindGenerator, 0)
	pb := newFake(KindPlayback)
	l := NewLive(listener)
	l.Register(gen)
	l.Register(pb)

	l.SetUniverses([]int{4, 2})
	assert.Equal(t, []int{2, 4}, l.ConfiguredUniverses())

	_, err := l.Activate(KindPlayback)
	require.NoError(t, err)
	l.SetUniverses([]int{9})
	assert.Equal(t, []int{2, 4}, l.ConfiguredUniverses(), "playback never overwrites the configured set")

	l.SetConfiguredUniverses([]int{5})
	_, err = l.Activate(KindGenerator)
	require.NoError(t, err)
	assert.Equal(t, []int{5}, gen.Universes())
}

// countingSource tracks how many instances are running at once.
type countingSource struct {
	*fakeSource
	mu      sync.Mutex
	live    *atomic.Int32
	started bool
}

func (c *countingSource) Start() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.started {
		c.started = true
		c.live.Add(1)
	}
	return nil
}

func (c *countingSource) Stop() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.started {
		c.started = false
		c.live.Add(-1)
	}
	return nil
}

func (c *countingSource) Running() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.started
}

func TestLive_ConcurrentActivateLeavesOneRunning(t *testing.T) {
	var running atomic.Int32
	mk := func(kind Kind) *countingSource {
		return &countingSource{fakeSource: newFake(kind, 0), live: &running}
	}
	listener, gen := mk(KindListener), mk(KindGenerator)
	l := NewLive(listener)
	l.Register(gen)
	require.NoError(t, l.Start())

	var wg sync.WaitGroup
	for i := range 50 {
		kind := KindListener
		if i%2 == 0 {
			kind = KindGenerator
		}
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, _ = l.Activate(kind)
		}()
	}
	wg.Wait()

	assert.Equal(t, int32(1), running.Load())
	assert.True(t, l.Current().Running())
}

func TestLive_ActivateFailureKeepsPrevious(t *testing.T) {
	listener := newFake(KindListener, 0)
	broken := newFake(KindPlayback, 0)
	broken.startErr = errors.New("boom")
	l := NewLive(listener)
	l.Register(broken)
	require.NoError(t, l.Start())

	_, err := l.Activate(KindPlayback)
	require.Error(t, err)
	assert.Same(t, listener, l.Current())
	assert.True(t, listener.Running())
}

func TestLive_ActivateUnknown(t *testing.T) {
	l := NewLive(newFake(KindListener))
	_, err := l.Activate(KindPlayback)
	assert.ErrorIs(t, err, ErrUnknownVariant)
}

func TestLive_SwapReturnsPrevious(t *testing.T) {
	a := newFake(KindListener)
	b := newFake(KindGenerator)
	l := NewLive(a)
	prev := l.Swap(b)
	assert.Same(t, a, prev)
	assert.Same(t, b, l.Current())
}

func TestTakeSnapshot_FallbackPath(t *testing.T) {
	f := newFake(KindListener, 3, 1)
	f.set.Store(3, Fill(3))
	universes, snap := TakeSnapshot(f)
	assert.Equal(t, []int{1, 3}, universes)
	assert.Equal(t, Fill(3), snap[3])
}
