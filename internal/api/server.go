// SPDX-License-Identifier: MIT

// Package api serves the HTTP control and status surface of the daemon.
package api

import (
	"context"
	"errors"
	"net/http"

	"github.com/ManuGH/artnetviz/internal/api/middleware"
	"github.com/ManuGH/artnetviz/internal/dmx"
	"github.com/ManuGH/artnetviz/internal/health"
	xglog "github.com/ManuGH/artnetviz/internal/log"
	"github.com/ManuGH/artnetviz/internal/pattern"
	"github.com/ManuGH/artnetviz/internal/recorder"
	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"
)

// Live is the live-source holder the API switches and samples.
type Live interface {
	dmx.Source
	dmx.Snapshotter
	Activate(kind dmx.Kind) (dmx.Source, error)
}

// Generator is the synthetic source's control surface.
type Generator interface {
	SetPattern(p pattern.Type)
	Pattern() pattern.Type
	SetSpeed(speed float64) error
	Speed() float64
	SetFPS(fps int)
	FPS() int
}

// Recorder is the capture and playback engine.
type Recorder interface {
	StartRecording() error
	StopRecording(ctx context.Context) (string, error)
	RecordingStatus() recorder.RecordingStatus
	LoadRecording(ctx context.Context, path string) error
	PlaybackStatus() recorder.PlaybackStatus
	SeekTo(ms int64) error
}

// Playback is the playback source variant.
type Playback interface {
	SetLoop(loop bool)
	Stop() error
}

// Store reads and removes persisted recordings.
type Store interface {
	List(ctx context.Context) ([]recorder.Info, error)
	Stat(path string) (recorder.Info, error)
	Remove(path string) error
	Resolve(name string) string
}

// Index is the optional recordings catalog.
type Index interface {
	List(ctx context.Context) ([]recorder.Info, error)
	Remove(ctx context.Context, path string) error
}

// Deps are the components the handlers drive. Index and Health are optional.
type Deps struct {
	Live      Live
	Generator Generator
	Recorder  Recorder
	Playback  Playback
	Store     Store
	Index     Index
	Health    *health.Manager
	Version   string
	Logger    *zerolog.Logger
}

// Config tunes the middleware stack.
type Config struct {
	// RateLimit is requests per minute per client IP; 0 disables it.
	RateLimit int
	// TracingService names the otelhttp spans; empty disables tracing.
	TracingService string
	EnableMetrics  bool
}

// Server owns the router.
type Server struct {
	deps   Deps
	logger zerolog.Logger
	router chi.Router
}

// New validates deps and builds the router.
func New(cfg Config, deps Deps) (*Server, error) {
	if deps.Live == nil || deps.Generator == nil || deps.Recorder == nil || deps.Playback == nil || deps.Store == nil {
		return nil, errors.New("api: live, generator, recorder, playback and store are required")
	}
	if deps.Health == nil {
		deps.Health = health.NewManager(deps.Version)
	}
	s := &Server{deps: deps}
	if deps.Logger != nil {
		s.logger = *deps.Logger
	} else {
		s.logger = xglog.WithComponent("api")
	}
	s.router = s.routes(cfg)
	return s, nil
}

// Handler returns the root handler.
func (s *Server) Handler() http.Handler { return s.router }

func (s *Server) routes(cfg Config) chi.Router {
	r := middleware.NewRouter(middleware.StackConfig{
		EnableSecurityHeaders: true,
		EnableMetrics:         cfg.EnableMetrics,
		TracingService:        cfg.TracingService,
		EnableLogging:         true,
		RateLimit:             cfg.RateLimit,
		RateWindow:            rateWindow,
	})

	r.Get("/healthz", s.deps.Health.ServeHealth)
	r.Get("/readyz", s.deps.Health.ServeReady)

	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/status", s.handleStatus)

		r.Get("/universes", s.handleGetUniverses)
		r.Put("/universes", s.handleSetUniverses)
		r.Get("/universes/{universe}", s.handleGetUniverse)

		r.Put("/source", s.handleSetSource)
		r.Get("/pattern", s.handleGetPattern)
		r.Put("/pattern", s.handleSetPattern)

		r.Get("/recordings", s.handleListRecordings)
		r.Get("/recordings/{name}", s.handleGetRecording)
		r.Delete("/recordings/{name}", s.handleDeleteRecording)
		r.Post("/recordings/start", s.handleStartRecording)
		r.Post("/recordings/stop", s.handleStopRecording)

		r.Get("/playback", s.handlePlaybackStatus)
		r.Post("/playback/load", s.handleLoadPlayback)
		r.Post("/playback/start", s.handleStartPlayback)
		r.Post("/playback/stop", s.handleStopPlayback)
		r.Post("/playback/seek", s.handleSeekPlayback)
	})

	r.NotFound(func(w http.ResponseWriter, _ *http.Request) {
		writeError(w, http.StatusNotFound, "not_found", "no such route")
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, _ *http.Request) {
		writeError(w, http.StatusMethodNotAllowed, "method_not_allowed", "method not allowed on this route")
	})
	return r
}
