// SPDX-License-Identifier: MIT

package config

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHolder_ReloadNotifiesListeners(t *testing.T) {
	path := writeConfig(t, "config.yaml", "frameRate: 30\n")
	loader := NewLoader(path, "dev")
	initial, err := loader.Load()
	require.NoError(t, err)

	h := NewHolder(initial, loader)
	ch := make(chan Config, 1)
	h.RegisterListener(ch)

	require.NoError(t, os.WriteFile(path, []byte("frameRate: 25\n"), 0o600))
	require.NoError(t, h.Reload(context.Background()))

	assert.Equal(t, 25, h.Get().FrameRate)
	select {
	case got := <-ch:
		assert.Equal(t, 25, got.FrameRate)
	default:
		t.Fatal("listener not notified")
	}
}

func TestHolder_ReloadKeepsOldOnError(t *testing.T) {
	path := writeConfig(t, "config.yaml", "frameRate: 30\n")
	loader := NewLoader(path, "dev")
	initial, err := loader.Load()
	require.NoError(t, err)
	h := NewHolder(initial, loader)

	require.NoError(t, os.WriteFile(path, []byte("frameRate: 0\n"), 0o600))
	require.Error(t, h.Reload(context.Background()))
	assert.Equal(t, 30, h.Get().FrameRate)
}

func TestHolder_FullListenerDoesNotBlock(t *testing.T) {
	loader := NewLoader("", "dev")
	initial, err := loader.Load()
	require.NoError(t, err)
	h := NewHolder(initial, loader)

	ch := make(chan Config)
	h.RegisterListener(ch)
	require.NoError(t, h.Reload(context.Background()))
}

func TestHolder_GetReturnsCopy(t *testing.T) {
	h := NewHolder(Defaults(), NewLoader("", "dev"))
	cfg := h.Get()
	cfg.ArtNet.Universes[0] = 99
	assert.Equal(t, []int{0}, h.Get().ArtNet.Universes)
}

func TestHolder_WatcherReloadsOnWrite(t *testing.T) {
	path := writeConfig(t, "config.yaml", "frameRate: 30\n")
	loader := NewLoader(path, "dev")
	initial, err := loader.Load()
	require.NoError(t, err)

	h := NewHolder(initial, loader)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	require.NoError(t, h.StartWatcher(ctx))
	defer h.Stop()

	require.NoError(t, os.WriteFile(path, []byte("frameRate: 20\n"), 0o600))

	assert.Eventually(t, func() bool {
		return h.Get().FrameRate == 20
	}, 5*time.Second, 50*time.Millisecond)
}

func TestHolder_WatcherDisabledWithoutFile(t *testing.T) {
	h := NewHolder(Defaults(), NewLoader("", "dev"))
	require.NoError(t, h.StartWatcher(context.Background()))
	h.Stop()
}
