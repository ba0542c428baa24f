// SPDX-License-Identifier: MIT

// Package daemon assembles the frame sources and services and runs them
// until shutdown.
package daemon

import (
	"context"
	"fmt"
	"slices"
	"sync"

	"github.com/ManuGH/artnetviz/internal/api"
	"github.com/ManuGH/artnetviz/internal/artnet"
	"github.com/ManuGH/artnetviz/internal/catalog"
	"github.com/ManuGH/artnetviz/internal/config"
	"github.com/ManuGH/artnetviz/internal/dmx"
	"github.com/ManuGH/artnetviz/internal/health"
	xglog "github.com/ManuGH/artnetviz/internal/log"
	"github.com/ManuGH/artnetviz/internal/metrics"
	"github.com/ManuGH/artnetviz/internal/pattern"
	"github.com/ManuGH/artnetviz/internal/persistence/sqlite"
	"github.com/ManuGH/artnetviz/internal/playback"
	"github.com/ManuGH/artnetviz/internal/recorder"
	"github.com/ManuGH/artnetviz/internal/telemetry"
	"github.com/rs/zerolog"
)

// ServiceName tags logs and spans.
const ServiceName = "artnetviz"

var allKinds = []string{string(dmx.KindListener), string(dmx.KindGenerator), string(dmx.KindPlayback)}

// Runtime is the assembled daemon: every source variant, the recorder, the
// optional catalog and the HTTP surface built on top of them.
type Runtime struct {
	logger zerolog.Logger

	Live      *dmx.Live
	Listener  *artnet.Listener
	Generator *pattern.Generator
	Recorder  *recorder.Recorder
	Playback  *playback.Source
	Catalog   *catalog.Catalog
	Health    *health.Manager
	API       *api.Server
	Telemetry *telemetry.Provider

	mu  sync.Mutex
	cfg config.Config
}

// Build creates every component from cfg. Nothing produces frames until Start.
func Build(ctx context.Context, cfg config.Config) (*Runtime, error) {
	logger := xglog.WithComponent("daemon")
	rt := &Runtime{logger: logger, cfg: cfg.Clone()}

	if err := health.PerformStartupChecks(ctx, cfg); err != nil {
		return nil, err
	}

	tp, err := telemetry.NewProvider(ctx, telemetry.Config{
		Enabled:        cfg.Telemetry.Enabled,
		ServiceName:    ServiceName,
		ServiceVersion: cfg.Version,
		ExporterType:   cfg.Telemetry.Exporter,
		Endpoint:       cfg.Telemetry.Endpoint,
		SamplingRate:   cfg.Telemetry.SamplingRate,
	})
	if err != nil {
		logger.Warn().
			Err(err).
			Str(xglog.FieldEvent, "telemetry.init_failed").
			Msg("telemetry initialization failed, continuing without tracing")
	}
	rt.Telemetry = tp

	rt.Listener = artnet.NewListener(artnet.Config{
		Host:      cfg.ArtNet.Host,
		Port:      cfg.ArtNet.Port,
		Universes: cfg.ArtNet.Universes,
	})

	kind, _ := pattern.ParseType(cfg.TestSource.Pattern)
	rt.Generator = pattern.NewGenerator(pattern.Config{
		Universes: cfg.ArtNet.Universes,
		Pattern:   kind,
		FPS:       cfg.FrameRate,
		Speed:     cfg.TestSource.Speed,
	})

	rt.Recorder, err = recorder.New(recorder.Config{
		Dir:       cfg.Recorder.Dir,
		FrameRate: cfg.Recorder.FrameRate,
	})
	if err != nil {
		return nil, fmt.Errorf("create recorder: %w", err)
	}
	rt.Playback = playback.NewSource(rt.Recorder, nil)
	rt.Playback.SetLoop(cfg.Recorder.Loop)

	var initial dmx.Source = rt.Listener
	if cfg.TestSource.Enabled {
		initial = rt.Generator
	}
	rt.Live = dmx.NewLive(initial)
	rt.Live.Register(rt.Listener)
	rt.Live.Register(rt.Generator)
	rt.Live.Register(rt.Playback)
	rt.Recorder.SetSource(rt.Live)

	if cfg.Recorder.Catalog != "" {
		if err := rt.openCatalog(ctx, cfg.Recorder.Catalog); err != nil {
			return nil, err
		}
	}

	rt.Health = health.NewManager(cfg.Version)
	rt.Health.RegisterChecker(health.NewSourceChecker(func() health.SourceState { return rt.Live }))
	rt.Health.RegisterChecker(health.NewDirChecker("recordings_dir", cfg.Recorder.Dir))
	if rt.Catalog != nil {
		rt.Health.RegisterChecker(health.NewFuncChecker("catalog", rt.Catalog.Check))
	}

	deps := api.Deps{
		Live:      rt.Live,
		Generator: rt.Generator,
		Recorder:  rt.Recorder,
		Playback:  rt.Playback,
		Store:     rt.Recorder.Store(),
		Health:    rt.Health,
		Version:   cfg.Version,
	}
	if rt.Catalog != nil {
		deps.Index = rt.Catalog
	}
	apiCfg := api.Config{RateLimit: cfg.API.RateLimit, EnableMetrics: true}
	if tp.Recording() {
		apiCfg.TracingService = ServiceName
	}
	rt.API, err = api.New(apiCfg, deps)
	if err != nil {
		return nil, err
	}
	return rt, nil
}

// openCatalog opens the index and rebuilds it from the recordings on disk.
func (rt *Runtime) openCatalog(ctx context.Context, path string) error {
	cat, err := catalog.Open(ctx, path, sqlite.DefaultConfig())
	if err != nil {
		return fmt.Errorf("open catalog: %w", err)
	}
	n, err := cat.Sync(ctx, rt.Recorder.Store())
	if err != nil {
		_ = cat.Close()
		return fmt.Errorf("sync catalog: %w", err)
	}
	rt.Catalog = cat
	rt.Recorder.SetIndex(cat)
	rt.logger.Info().
		Str(xglog.FieldEvent, "catalog.synced").
		Str(xglog.FieldPath, path).
		Int("recordings", n).
		Msg("recordings catalog ready")
	return nil
}

// Start starts the initial live source.
func (rt *Runtime) Start() error {
	if err := rt.Live.Start(); err != nil {
		return fmt.Errorf("start %s source: %w", rt.Live.Kind(), err)
	}
	metrics.SetLiveSource(string(rt.Live.Kind()), allKinds...)
	rt.logger.Info().
		Str(xglog.FieldEvent, "daemon.source_started").
		Str("kind", string(rt.Live.Kind())).
		Ints(xglog.FieldUniverses, rt.Live.Universes()).
		Msg("live source started")
	return nil
}

// RegisterHooks registers shutdown in dependency order. Hooks run LIFO: the
// recorder persists first, then sources stop, then the catalog and the
// tracer close.
func (rt *Runtime) RegisterHooks(m Manager) {
	m.RegisterShutdownHook("telemetry", func(ctx context.Context) error {
		return rt.Telemetry.Shutdown(ctx)
	})
	if rt.Catalog != nil {
		m.RegisterShutdownHook("catalog", func(context.Context) error {
			return rt.Catalog.Close()
		})
	}
	m.RegisterShutdownHook("sources", func(context.Context) error {
		return rt.Live.StopAll()
	})
	m.RegisterShutdownHook("recorder", func(ctx context.Context) error {
		return rt.Recorder.Close(ctx)
	})
}

// Apply pushes a reloaded configuration into the running components.
// Bind addresses and listener ports only change on restart.
func (rt *Runtime) Apply(next config.Config) {
	rt.mu.Lock()
	prev := rt.cfg
	rt.cfg = next.Clone()
	rt.mu.Unlock()

	if prev.LogLevel != next.LogLevel {
		xglog.Configure(xglog.Config{Level: next.LogLevel, Service: ServiceName, Version: next.Version})
	}

	if !slices.Equal(prev.ArtNet.Universes, next.ArtNet.Universes) {
		rt.Live.SetConfiguredUniverses(next.ArtNet.Universes)
		rt.Listener.SetUniverses(next.ArtNet.Universes)
		rt.Generator.SetUniverses(next.ArtNet.Universes)
	}

	rt.Generator.SetFPS(next.FrameRate)
	if p, err := pattern.ParseType(next.TestSource.Pattern); err == nil {
		rt.Generator.SetPattern(p)
	}
	if err := rt.Generator.SetSpeed(next.TestSource.Speed); err != nil {
		rt.logger.Warn().Err(err).Float64("speed", next.TestSource.Speed).Msg("ignoring pattern speed")
	}
	rt.Recorder.SetFrameRate(next.Recorder.FrameRate)
	rt.Playback.SetLoop(next.Recorder.Loop)

	if prev.TestSource.Enabled != next.TestSource.Enabled && rt.Live.Kind() != dmx.KindPlayback {
		kind := dmx.KindListener
		if next.TestSource.Enabled {
			kind = dmx.KindGenerator
		}
		if _, err := rt.Live.Activate(kind); err != nil {
			rt.logger.Error().Err(err).Str("kind", string(kind)).Msg("failed to switch live source")
		} else {
			metrics.SetLiveSource(string(kind), allKinds...)
		}
	}

	rt.logger.Info().
		Str(xglog.FieldEvent, "daemon.config_applied").
		Str("kind", string(rt.Live.Kind())).
		Ints(xglog.FieldUniverses, rt.Live.Universes()).
		Msg("configuration applied")
}
