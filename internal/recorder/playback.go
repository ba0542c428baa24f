// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package recorder

import (
	"context"
	"sync"
	"time"

	xglog "github.com/ManuGH/artnetviz/internal/log"
	"github.com/ManuGH/artnetviz/internal/metrics"
)

// playback holds the loaded recording and the cursor. mu serialises the
// playback loop with SeekTo, Start and Stop.
type playback struct {
	mu      sync.Mutex
	loaded  *Recording
	path    string
	playing bool
	loop    bool
	cursor  int
	// start is the reference time: frame i is due at start + timecode.
	start time.Time
	// wrapping is set while the loop waits one frame interval before
	// rewinding.
	wrapping bool
	cb       FrameFunc
	stop     chan struct{}
	wake     chan struct{}
	done     chan struct{}
}

// LoadRecording reads and validates path and makes it the playback
// recording. Loading while playing is refused.
func (r *Recorder) LoadRecording(ctx context.Context, path string) error {
	path = r.store.Resolve(path)
	rec, err := r.store.Load(ctx, path)
	if err != nil {
		r.logger.Warn().
			Err(err).
			Str(xglog.FieldEvent, "recorder.load_failed").
			Str(xglog.FieldPath, path).
			Msg("failed to load recording")
		return err
	}

	p := &r.pb
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.playing {
		return ErrAlreadyPlaying
	}
	p.loaded = rec
	p.path = path
	p.cursor = 0
	p.wrapping = false

	r.logger.Info().
		Str(xglog.FieldEvent, "recorder.loaded").
		Str(xglog.FieldPath, path).
		Int(xglog.FieldFrames, len(rec.Frames)).
		Int(xglog.FieldFPS, rec.Metadata.FrameRate).
		Msg("recording loaded")
	return nil
}

// Loaded returns the summary of the loaded recording.
func (r *Recorder) Loaded() (Info, bool) {
	p := &r.pb
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.loaded == nil {
		return Info{}, false
	}
	info := InfoOf(p.path, p.loaded.Metadata)
	if info.FrameCount == 0 {
		info.FrameCount = len(p.loaded.Frames)
	}
	return info, true
}

// PlaybackUniverses is the universe list of the loaded recording.
func (r *Recorder) PlaybackUniverses() []int {
	p := &r.pb
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.loaded == nil {
		return nil
	}
	return append([]int(nil), p.loaded.Metadata.Universes...)
}

// StartPlayback plays the loaded recording from the first frame, calling cb
// once per universe of every due frame. With loop set the recording
// restarts one frame interval after its last frame.
func (r *Recorder) StartPlayback(cb FrameFunc, loop bool) error {
	p := &r.pb
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.playing {
		return ErrAlreadyPlaying
	}
	if p.loaded == nil {
		return ErrNoRecording
	}
	if p.done != nil {
		// a loop that ended on its own may still be returning
		prev := p.done
		p.mu.Unlock()
		select {
		case <-prev:
		case <-time.After(joinTimeout):
			p.mu.Lock()
			r.logger.Warn().
				Str(xglog.FieldEvent, "recorder.playback_busy").
				Msg("previous playback loop has not exited")
			return ErrPlaybackBusy
		}
		p.mu.Lock()
		if p.playing {
			return ErrAlreadyPlaying
		}
	}

	p.cb = cb
	p.loop = loop
	p.cursor = 0
	p.wrapping = false
	p.start = time.Now()
	p.stop = make(chan struct{})
	p.wake = make(chan struct{}, 1)
	p.done = make(chan struct{})
	p.playing = true
	go r.playLoop(p.stop, p.wake, p.done)
	metrics.BoolGauge(metrics.PlaybackActive, true)

	r.logger.Info().
		Str(xglog.FieldEvent, "recorder.playback_started").
		Str(xglog.FieldPath, p.path).
		Bool("loop", loop).
		Msg("playback started")
	return nil
}

// SetLoop changes the loop flag of an active or future playback.
func (r *Recorder) SetLoop(loop bool) {
	p := &r.pb
	p.mu.Lock()
	p.loop = loop
	p.mu.Unlock()
}

// StopPlayback halts playback and waits for the loop to exit.
func (r *Recorder) StopPlayback() error {
	p := &r.pb
	p.mu.Lock()
	if !p.playing {
		p.mu.Unlock()
		return ErrNotPlaying
	}
	p.playing = false
	close(p.stop)
	done := p.done
	p.mu.Unlock()

	select {
	case <-done:
	case <-time.After(joinTimeout):
		r.logger.Warn().Str(xglog.FieldEvent, "recorder.playback_join_timeout").Msg("playback loop did not exit in time")
	}
	metrics.BoolGauge(metrics.PlaybackActive, false)
	r.logger.Info().Str(xglog.FieldEvent, "recorder.playback_stopped").Msg("playback stopped")
	return nil
}

// Playing reports whether playback is active.
func (r *Recorder) Playing() bool {
	p := &r.pb
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.playing
}

// SeekTo moves the cursor to the last frame at or before ms. While playing,
// the reference time is moved so playback continues from that frame.
func (r *Recorder) SeekTo(ms int64) error {
	p := &r.pb
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.loaded == nil {
		return ErrNoRecording
	}
	if ms < 0 {
		ms = 0
	}
	idx := p.loaded.SeekIndex(ms)
	p.cursor = idx
	p.wrapping = false
	if p.playing {
		var tc int64
		if idx < len(p.loaded.Frames) {
			tc = p.loaded.Frames[idx].Timecode
		}
		p.start = time.Now().Add(-time.Duration(tc) * time.Millisecond)
		select {
		case p.wake <- struct{}{}:
		default:
		}
	}
	r.logger.Debug().
		Str(xglog.FieldEvent, "recorder.seek").
		Int64(xglog.FieldTimecode, ms).
		Int("position", idx).
		Msg("playback seek")
	return nil
}

// Position is the index of the next frame to emit.
func (r *Recorder) Position() int {
	p := &r.pb
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.cursor
}

// playLoop sleeps on one timer re-armed to the next frame's due time.
func (r *Recorder) playLoop(stop, wake <-chan struct{}, done chan<- struct{}) {
	defer close(done)
	timer := time.NewTimer(0)
	defer timer.Stop()

	for {
		select {
		case <-stop:
			return
		case <-wake:
		case <-timer.C:
		}
		delay, ok := r.step(stop)
		if !ok {
			return
		}
		timer.Reset(delay)
	}
}

// step emits every due frame and returns the delay until the next one.
// It returns false once playback has ended.
func (r *Recorder) step(stop <-chan struct{}) (time.Duration, bool) {
	p := &r.pb
	p.mu.Lock()
	if !p.playing {
		p.mu.Unlock()
		return 0, false
	}
	frames := p.loaded.Frames
	fps := p.loaded.Metadata.FrameRate
	if fps <= 0 {
		fps = DefaultFrameRate
	}
	interval := time.Second / time.Duration(fps)

	if p.cursor >= len(frames) {
		if !p.loop || len(frames) == 0 {
			p.playing = false
			p.mu.Unlock()
			metrics.BoolGauge(metrics.PlaybackActive, false)
			r.logger.Info().Str(xglog.FieldEvent, "recorder.playback_ended").Msg("playback reached end")
			return 0, false
		}
		if !p.wrapping {
			p.wrapping = true
			p.mu.Unlock()
			return interval, true
		}
		p.wrapping = false
		p.cursor = 0
		p.start = time.Now()
	}

	elapsed := time.Since(p.start).Milliseconds()
	var due []Frame
	for p.cursor < len(frames) && frames[p.cursor].Timecode <= elapsed {
		due = append(due, frames[p.cursor])
		p.cursor++
	}
	var delay time.Duration
	if p.cursor < len(frames) {
		next := p.start.Add(time.Duration(frames[p.cursor].Timecode) * time.Millisecond)
		delay = time.Until(next)
	}
	cb := p.cb
	p.mu.Unlock()

	r.emit(cb, due, stop)
	return max(delay, 0), true
}

func (r *Recorder) emit(cb FrameFunc, frames []Frame, stop <-chan struct{}) {
	defer func() {
		if rec := recover(); rec != nil {
			r.logger.Error().
				Str(xglog.FieldEvent, "recorder.playback_panic").
				Interface("panic_value", rec).
				Msg("recovered while emitting frame")
		}
	}()
	for _, f := range frames {
		select {
		case <-stop:
			return
		default:
		}
		if cb != nil {
			for u, levels := range f.Data {
				cb(u, levels.Buffer())
			}
		}
		metrics.PlaybackFramesEmittedTotal.Inc()
	}
}

// PlaybackStatus is a snapshot of the playback state.
type PlaybackStatus struct {
	Active          bool    `json:"playing"`
	Loaded          bool    `json:"loaded"`
	Path            string  `json:"path,omitempty"`
	Position        int     `json:"position"`
	TotalFrames     int     `json:"total_frames"`
	CurrentTimecode int64   `json:"current_timecode"`
	Elapsed         float64 `json:"elapsed"`
	FrameRate       int     `json:"frame_rate"`
	Universes       []int   `json:"universes"`
	Loop            bool    `json:"loop"`
}

// PlaybackStatus returns the playback state.
func (r *Recorder) PlaybackStatus() PlaybackStatus {
	p := &r.pb
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.loaded == nil {
		return PlaybackStatus{}
	}
	st := PlaybackStatus{
		Active:      p.playing,
		Loaded:      true,
		Path:        p.path,
		Position:    p.cursor,
		TotalFrames: len(p.loaded.Frames),
		FrameRate:   p.loaded.Metadata.FrameRate,
		Universes:   append([]int(nil), p.loaded.Metadata.Universes...),
		Loop:        p.loop,
	}
	if p.cursor < len(p.loaded.Frames) {
		st.CurrentTimecode = p.loaded.Frames[p.cursor].Timecode
	}
	if p.playing {
		st.Elapsed = time.Since(p.start).Seconds()
	}
	return st
}
