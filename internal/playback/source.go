// SPDX-License-Identifier: MIT

// Package playback exposes a loaded recording as a dmx.Source.
package playback

import (
	"errors"
	"sync"

	"github.com/ManuGH/artnetviz/internal/dmx"
	xglog "github.com/ManuGH/artnetviz/internal/log"
	"github.com/ManuGH/artnetviz/internal/recorder"
	"github.com/rs/zerolog"
)

// Player is the part of the recorder the source drives.
type Player interface {
	PlaybackUniverses() []int
	StartPlayback(cb recorder.FrameFunc, loop bool) error
	StopPlayback() error
	SetFrameRate(fps int)
}

// Source replays the recorder's loaded recording into its own buffers.
type Source struct {
	player Player
	bufs   *dmx.BufferSet
	logger zerolog.Logger

	mu      sync.Mutex
	running bool
	loop    bool
	fps     int
}

var (
	_ dmx.Source  = (*Source)(nil)
	_ dmx.Tunable = (*Source)(nil)
)

// NewSource creates a stopped playback source over player.
func NewSource(player Player, logger *zerolog.Logger) *Source {
	l := xglog.WithComponent("playback")
	if logger != nil {
		l = *logger
	}
	return &Source{
		player: player,
		bufs:   dmx.NewBufferSet(nil),
		logger: l,
	}
}

// SetLoop controls whether later Starts loop the recording.
func (s *Source) SetLoop(loop bool) {
	s.mu.Lock()
	s.loop = loop
	s.mu.Unlock()
}

// Start restarts playback of the loaded recording. Without a loaded
// recording the source runs with zero buffers and logs a warning.
func (s *Source) Start() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.running {
		s.stopLocked()
	}

	if universes := s.player.PlaybackUniverses(); len(universes) > 0 {
		s.bufs.SetUniverses(universes)
	}
	s.bufs.Reset()
	s.running = true

	err := s.player.StartPlayback(s.deliver, s.loop)
	switch {
	case errors.Is(err, recorder.ErrNoRecording):
		s.logger.Warn().
			Str(xglog.FieldEvent, "playback.no_recording").
			Msg("no recording loaded, playback source idle")
	case errors.Is(err, recorder.ErrAlreadyPlaying):
		// playback driven from elsewhere keeps its own callback
		s.logger.Warn().
			Str(xglog.FieldEvent, "playback.already_playing").
			Msg("recorder already playing")
	case err != nil:
		s.running = false
		return err
	default:
		s.logger.Info().
			Str(xglog.FieldEvent, "playback.started").
			Ints(xglog.FieldUniverses, s.bufs.Universes()).
			Bool("loop", s.loop).
			Msg("playback source started")
	}
	return nil
}

// Stop halts playback. Idempotent.
func (s *Source) Stop() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.running {
		return nil
	}
	s.stopLocked()
	s.logger.Info().Str(xglog.FieldEvent, "playback.stopped").Msg("playback source stopped")
	return nil
}

func (s *Source) stopLocked() {
	s.running = false
	if err := s.player.StopPlayback(); err != nil && !errors.Is(err, recorder.ErrNotPlaying) {
		s.logger.Warn().Err(err).Str(xglog.FieldEvent, "playback.stop_failed").Msg("stop playback")
	}
}

// deliver stores one played back universe; universes outside the current
// set are dropped.
func (s *Source) deliver(universe int, b dmx.Buffer) {
	s.bufs.Store(universe, b)
}

// SetFPS forwards the rate to the recorder.
func (s *Source) SetFPS(fps int) {
	s.mu.Lock()
	s.fps = fps
	s.mu.Unlock()
	s.player.SetFrameRate(fps)
}

// FPS is the last rate passed to SetFPS.
func (s *Source) FPS() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.fps
}

func (s *Source) Running() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.running
}

func (s *Source) Buffer(universe int) dmx.Buffer        { return s.bufs.Get(universe) }
func (s *Source) Buffers() []dmx.Buffer                 { return s.bufs.All() }
func (s *Source) Universes() []int                      { return s.bufs.Universes() }
func (s *Source) Snapshot() ([]int, map[int]dmx.Buffer) { return s.bufs.Snapshot() }
func (s *Source) SetUniverses(universes []int) bool     { return s.bufs.SetUniverses(universes) }
func (s *Source) Kind() dmx.Kind                        { return dmx.KindPlayback }
