// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package recorder

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/ManuGH/artnetviz/internal/dmx"
	xglog "github.com/ManuGH/artnetviz/internal/log"
	"github.com/ManuGH/artnetviz/internal/metrics"
	"github.com/rs/zerolog"
)

// joinTimeout bounds every wait on a worker loop.
var joinTimeout = 2 * time.Second

// Indexer is notified about every persisted recording.
type Indexer interface {
	Index(ctx context.Context, info Info) error
}

// FrameFunc receives one universe of a played back frame.
type FrameFunc func(universe int, b dmx.Buffer)

// Config configures a Recorder.
type Config struct {
	Dir       string
	FrameRate int
	Logger    *zerolog.Logger
	// Index is optional.
	Index Indexer
	// Now overrides the wall clock used for file timestamps.
	Now func() time.Time
}

// Recorder records from a source and plays recordings back.
type Recorder struct {
	store  *Store
	index  Indexer
	logger zerolog.Logger
	now    func() time.Time

	frameRate atomic.Int64

	srcMu sync.RWMutex
	src   dmx.Source

	recMu     sync.Mutex
	recording bool
	rec       *Recording
	recPath   string
	recStart  time.Time
	recStop   chan struct{}
	recDone   chan struct{}
	recFrames atomic.Int64
	framesMu  sync.Mutex // guards rec.Frames while capturing

	pb playback
}

// New creates a Recorder and ensures its directory exists.
func New(cfg Config) (*Recorder, error) {
	logger := xglog.WithComponent("recorder")
	if cfg.Logger != nil {
		logger = *cfg.Logger
	}
	store, err := NewStore(cfg.Dir, &logger)
	if err != nil {
		return nil, err
	}
	now := cfg.Now
	if now == nil {
		now = time.Now
	}
	r := &Recorder{store: store, index: cfg.Index, logger: logger, now: now}
	r.SetFrameRate(cfg.FrameRate)
	return r, nil
}

// Store exposes the backing store.
func (r *Recorder) Store() *Store { return r.store }

// SetIndex installs the indexer notified after each save.
func (r *Recorder) SetIndex(idx Indexer) {
	r.recMu.Lock()
	r.index = idx
	r.recMu.Unlock()
}

// SetSource selects what StartRecording captures from.
func (r *Recorder) SetSource(src dmx.Source) {
	r.srcMu.Lock()
	r.src = src
	r.srcMu.Unlock()
}

func (r *Recorder) source() dmx.Source {
	r.srcMu.RLock()
	defer r.srcMu.RUnlock()
	return r.src
}

// SetFrameRate sets the capture rate for subsequent recordings.
// Non-positive values select DefaultFrameRate.
func (r *Recorder) SetFrameRate(fps int) {
	if fps <= 0 {
		fps = DefaultFrameRate
	}
	r.frameRate.Store(int64(fps))
}

// FrameRate is the capture rate for new recordings.
func (r *Recorder) FrameRate() int { return int(r.frameRate.Load()) }

// StartRecording begins capturing every universe of the source at the
// frame rate.
func (r *Recorder) StartRecording() error {
	r.recMu.Lock()
	defer r.recMu.Unlock()
	if r.recording {
		return ErrAlreadyRecording
	}
	src := r.source()
	if src == nil {
		return ErrNoSource
	}

	fps := r.FrameRate()
	start := r.now()
	ts := start.Format(TimestampLayout)
	r.rec = &Recording{
		Metadata: Metadata{
			Timestamp: ts,
			FrameRate: fps,
			Universes: src.Universes(),
		},
		Frames: make([]Frame, 0, fps*60),
	}
	r.recPath = r.store.PathFor(ts)
	r.recStart = time.Now()
	r.recFrames.Store(0)
	r.recStop = make(chan struct{})
	r.recDone = make(chan struct{})
	r.recording = true

	go r.captureLoop(src, r.rec, r.recStart, time.Second/time.Duration(fps), r.recStop, r.recDone)
	metrics.BoolGauge(metrics.RecordingActive, true)

	r.logger.Info().
		Str(xglog.FieldEvent, "recorder.started").
		Str(xglog.FieldPath, r.recPath).
		Int(xglog.FieldFPS, fps).
		Ints(xglog.FieldUniverses, r.rec.Metadata.Universes).
		Msg("recording started")
	return nil
}

// captureLoop samples src once per interval. time.Ticker keeps a fixed
// schedule and drops ticks when the loop falls behind, so capture does not
// drift with per-frame cost.
func (r *Recorder) captureLoop(src dmx.Source, rec *Recording, start time.Time, interval time.Duration, stop <-chan struct{}, done chan<- struct{}) {
	defer close(done)
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-stop:
			return
		case now := <-ticker.C:
			r.capture(src, rec, now.Sub(start).Milliseconds())
		}
	}
}

func (r *Recorder) capture(src dmx.Source, rec *Recording, timecode int64) {
	defer func() {
		if p := recover(); p != nil {
			r.logger.Error().
				Str(xglog.FieldEvent, "recorder.capture_panic").
				Interface("panic_value", p).
				Msg("recovered while capturing frame")
		}
	}()

	universes, bufs := dmx.TakeSnapshot(src)
	data := make(map[int]Levels, len(universes))
	for _, u := range universes {
		data[u] = LevelsOf(bufs[u])
	}

	r.framesMu.Lock()
	idx := len(rec.Frames)
	rec.Frames = append(rec.Frames, Frame{Timecode: timecode, Index: idx, Data: data})
	r.framesMu.Unlock()

	r.recFrames.Add(1)
	metrics.RecorderFramesCapturedTotal.Inc()
}

// StopRecording halts capture and persists the recording. It returns the
// saved path, or ErrNoFrames when nothing was captured.
func (r *Recorder) StopRecording(ctx context.Context) (string, error) {
	r.recMu.Lock()
	defer r.recMu.Unlock()
	if !r.recording {
		return "", ErrNotRecording
	}
	r.recording = false
	close(r.recStop)
	select {
	case <-r.recDone:
	case <-time.After(joinTimeout):
		r.logger.Warn().Str(xglog.FieldEvent, "recorder.join_timeout").Msg("capture loop did not exit in time")
	}
	metrics.BoolGauge(metrics.RecordingActive, false)

	r.framesMu.Lock()
	rec := &Recording{Metadata: r.rec.Metadata, Frames: r.rec.Frames}
	r.framesMu.Unlock()
	path := r.recPath
	r.rec = nil

	if len(rec.Frames) == 0 {
		r.logger.Warn().Str(xglog.FieldEvent, "recorder.empty").Msg("no frames recorded")
		return "", ErrNoFrames
	}
	rec.Metadata.FrameCount = len(rec.Frames)
	rec.Metadata.Duration = time.Since(r.recStart).Seconds()

	if err := r.store.Save(ctx, path, rec); err != nil {
		metrics.IncRecordingSaved(false)
		r.logger.Error().
			Err(err).
			Str(xglog.FieldEvent, "recorder.save_failed").
			Str(xglog.FieldPath, path).
			Msg("failed to save recording")
		return "", fmt.Errorf("save recording: %w", err)
	}
	metrics.IncRecordingSaved(true)

	r.logger.Info().
		Str(xglog.FieldEvent, "recorder.saved").
		Str(xglog.FieldPath, path).
		Int(xglog.FieldFrames, rec.Metadata.FrameCount).
		Float64("duration_s", rec.Metadata.Duration).
		Msg("recording saved")

	if r.index != nil {
		info, err := r.store.Stat(path)
		if err != nil {
			info = InfoOf(path, rec.Metadata)
		}
		if err := r.index.Index(ctx, info); err != nil {
			r.logger.Warn().Err(err).Str(xglog.FieldEvent, "recorder.index_failed").Str(xglog.FieldPath, path).Msg("failed to index recording")
		}
	}
	return path, nil
}

// Recording reports whether a capture loop is active.
func (r *Recorder) Recording() bool {
	r.recMu.Lock()
	defer r.recMu.Unlock()
	return r.recording
}

// RecordingStatus is a snapshot of the capture state.
type RecordingStatus struct {
	Active     bool    `json:"recording"`
	FrameCount int     `json:"frame_count"`
	Elapsed    float64 `json:"elapsed"`
	Universes  []int   `json:"universes"`
	Path       string  `json:"path,omitempty"`
}

// RecordingStatus returns the capture state.
func (r *Recorder) RecordingStatus() RecordingStatus {
	r.recMu.Lock()
	defer r.recMu.Unlock()
	if !r.recording {
		return RecordingStatus{}
	}
	st := RecordingStatus{
		Active:     true,
		FrameCount: int(r.recFrames.Load()),
		Elapsed:    time.Since(r.recStart).Seconds(),
		Path:       r.recPath,
	}
	if src := r.source(); src != nil {
		st.Universes = src.Universes()
	}
	return st
}

// Close stops recording (persisting what was captured) and playback.
func (r *Recorder) Close(ctx context.Context) error {
	var firstErr error
	if r.Recording() {
		if _, err := r.StopRecording(ctx); err != nil && !errors.Is(err, ErrNoFrames) {
			firstErr = err
		}
	}
	if err := r.StopPlayback(); err != nil && !errors.Is(err, ErrNotPlaying) && firstErr == nil {
		firstErr = err
	}
	return firstErr
}
