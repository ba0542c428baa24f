// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package pattern

import (
	"errors"
	"math"
	"math/rand/v2"
	"sync"
	"sync/atomic"
	"time"

	"github.com/ManuGH/artnetviz/internal/dmx"
	xglog "github.com/ManuGH/artnetviz/internal/log"
	"github.com/ManuGH/artnetviz/internal/metrics"
	"github.com/rs/zerolog"
)

const (
	DefaultFPS   = 44
	DefaultSpeed = 1.0

	defaultJoinTimeout = time.Second
)

// ErrInvalidSpeed is returned by SetSpeed for negative or non-finite values.
var ErrInvalidSpeed = errors.New("pattern: speed must be a finite number >= 0")

// Config configures a Generator.
type Config struct {
	Universes []int
	Pattern   Type
	FPS       int
	// Speed is the animation multiplier; zero selects DefaultSpeed.
	Speed  float64
	Logger *zerolog.Logger
	// Rand seeds the Random pattern. Nil uses a time-seeded source.
	Rand *rand.Rand
}

// Generator renders a pattern into its buffers at a fixed frame rate.
// It implements dmx.Source and dmx.Tunable.
type Generator struct {
	bufs   *dmx.BufferSet
	logger zerolog.Logger

	pattern atomic.Int32
	speed   atomic.Uint64 // float64 bits
	fps     atomic.Int64
	frame   atomic.Uint64

	rngMu sync.Mutex
	rng   *rand.Rand

	mu      sync.Mutex
	running atomic.Bool
	stopCh  chan struct{}
	done    chan struct{}
}

var (
	_ dmx.Source  = (*Generator)(nil)
	_ dmx.Tunable = (*Generator)(nil)
)

// NewGenerator creates a stopped generator.
func NewGenerator(cfg Config) *Generator {
	logger := xglog.WithComponent("pattern")
	if cfg.Logger != nil {
		logger = *cfg.Logger
	}
	rng := cfg.Rand
	if rng == nil {
		now := uint64(time.Now().UnixNano())
		rng = rand.New(rand.NewPCG(now, now>>17))
	}
	g := &Generator{
		bufs:   dmx.NewBufferSet(cfg.Universes),
		logger: logger,
		rng:    rng,
	}
	if !cfg.Pattern.Valid() {
		cfg.Pattern = Default
	}
	g.pattern.Store(int32(cfg.Pattern))
	g.SetFPS(cfg.FPS)
	if cfg.Speed == 0 || g.SetSpeed(cfg.Speed) != nil {
		g.speed.Store(math.Float64bits(DefaultSpeed))
	}
	return g
}

// Start launches the render loop. Calling Start twice is a no-op.
func (g *Generator) Start() error {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.running.Load() {
		return nil
	}
	g.stopCh = make(chan struct{})
	g.done = make(chan struct{})
	g.running.Store(true)
	go g.loop(g.stopCh, g.done)

	g.logger.Info().
		Str(xglog.FieldEvent, "pattern.started").
		Str(xglog.FieldPattern, g.Pattern().String()).
		Int(xglog.FieldFPS, g.FPS()).
		Ints(xglog.FieldUniverses, g.bufs.Universes()).
		Msg("test pattern generator started")
	return nil
}

// Stop halts the render loop and waits up to one second for it.
func (g *Generator) Stop() error {
	g.mu.Lock()
	defer g.mu.Unlock()
	if !g.running.Load() {
		return nil
	}
	g.running.Store(false)
	close(g.stopCh)
	select {
	case <-g.done:
	case <-time.After(defaultJoinTimeout):
		g.logger.Warn().Str(xglog.FieldEvent, "pattern.join_timeout").Msg("render loop did not exit in time")
	}
	g.logger.Info().Str(xglog.FieldEvent, "pattern.stopped").Msg("test pattern generator stopped")
	return nil
}

func (g *Generator) loop(stop <-chan struct{}, done chan<- struct{}) {
	defer close(done)

	next := time.Now()
	timer := time.NewTimer(0)
	defer timer.Stop()

	for {
		select {
		case <-stop:
			return
		case <-timer.C:
		}

		g.renderFrame()

		interval := g.interval()
		next = next.Add(interval)
		if now := time.Now(); now.Sub(next) > interval {
			// Fell behind by more than a frame: drop the backlog.
			next = now
		}
		timer.Reset(time.Until(next))
	}
}

func (g *Generator) renderFrame() {
	p := g.Pattern()
	defer func() {
		if rec := recover(); rec != nil {
			metrics.GeneratorFrameFaultsTotal.Inc()
			g.logger.Error().
				Str(xglog.FieldEvent, "pattern.frame_panic").
				Str(xglog.FieldPattern, p.String()).
				Interface("panic_value", rec).
				Msg("recovered while rendering frame")
		}
	}()

	universes := g.bufs.Universes()
	frame := g.frame.Load()

	var frames []dmx.Buffer
	if p == Random {
		g.rngMu.Lock()
		frames = Render(p, universes, frame, g.Speed(), g.rng)
		g.rngMu.Unlock()
	} else {
		frames = Render(p, universes, frame, g.Speed(), nil)
	}
	for i, u := range universes {
		g.bufs.Store(u, frames[i])
	}
	g.frame.Add(1)
	metrics.GeneratorFramesTotal.WithLabelValues(p.String()).Inc()
}

func (g *Generator) interval() time.Duration {
	return time.Second / time.Duration(g.FPS())
}

// SetPattern switches the pattern from the next frame on.
func (g *Generator) SetPattern(p Type) {
	if !p.Valid() {
		p = Default
	}
	if Type(g.pattern.Swap(int32(p))) != p {
		g.logger.Info().
			Str(xglog.FieldEvent, "pattern.changed").
			Str(xglog.FieldPattern, p.String()).
			Msg("pattern changed")
	}
}

// Pattern returns the active pattern.
func (g *Generator) Pattern() Type { return Type(g.pattern.Load()) }

// SetSpeed sets the animation speed multiplier. Zero holds animated
// patterns at their t=0 state; Random keeps redrawing.
func (g *Generator) SetSpeed(speed float64) error {
	if speed < 0 || math.IsNaN(speed) || math.IsInf(speed, 0) {
		return ErrInvalidSpeed
	}
	g.speed.Store(math.Float64bits(speed))
	return nil
}

// Speed returns the animation speed multiplier.
func (g *Generator) Speed() float64 { return math.Float64frombits(g.speed.Load()) }

// SetFPS sets the render rate. Non-positive values select DefaultFPS.
func (g *Generator) SetFPS(fps int) {
	if fps <= 0 {
		fps = DefaultFPS
	}
	g.fps.Store(int64(fps))
}

// FPS returns the render rate.
func (g *Generator) FPS() int { return int(g.fps.Load()) }

// Frame returns the number of frames rendered so far.
func (g *Generator) Frame() uint64 { return g.frame.Load() }

func (g *Generator) Running() bool                         { return g.running.Load() }
func (g *Generator) Buffer(universe int) dmx.Buffer        { return g.bufs.Get(universe) }
func (g *Generator) Buffers() []dmx.Buffer                 { return g.bufs.All() }
func (g *Generator) Universes() []int                      { return g.bufs.Universes() }
func (g *Generator) Snapshot() ([]int, map[int]dmx.Buffer) { return g.bufs.Snapshot() }
func (g *Generator) Kind() dmx.Kind                        { return dmx.KindGenerator }

// SetUniverses replaces the rendered universe set. Ranks shift accordingly
// on the next frame.
func (g *Generator) SetUniverses(universes []int) bool {
	return g.bufs.SetUniverses(universes)
}
