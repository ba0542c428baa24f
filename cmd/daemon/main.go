// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/ManuGH/artnetviz/internal/config"
	"github.com/ManuGH/artnetviz/internal/daemon"
	xglog "github.com/ManuGH/artnetviz/internal/log"
	"github.com/ManuGH/artnetviz/internal/version"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// defaultConfigFile is loaded from the working directory when neither
// --config nor ARTNETVIZ_CONFIG names a file.
const defaultConfigFile = "config.yaml"

func main() {
	if len(os.Args) > 1 {
		switch os.Args[1] {
		case "config":
			os.Exit(runConfigCLI(os.Args[2:]))
		case "recordings":
			os.Exit(runRecordingsCLI(os.Args[2:]))
		}
	}

	showVersion := flag.Bool("version", false, "print version and exit")
	configPath := flag.String("config", "", "path to config file (YAML)")
	flag.Parse()

	if *showVersion {
		fmt.Println(version.String())
		os.Exit(0)
	}

	// safe defaults until config is loaded
	xglog.Configure(xglog.Config{
		Level:   "info",
		Service: daemon.ServiceName,
		Version: version.Version,
	})
	logger := xglog.WithComponent("daemon")

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	path := resolveConfigPath(*configPath)
	loader := config.NewLoader(path, version.Version)
	cfg, err := loader.Load()
	if err != nil {
		logger.Fatal().
			Err(err).
			Str(xglog.FieldEvent, "config.load_failed").
			Str(xglog.FieldPath, path).
			Msg("failed to load configuration")
	}

	xglog.Configure(xglog.Config{
		Level:   cfg.LogLevel,
		Service: daemon.ServiceName,
		Version: cfg.Version,
	})
	logger = xglog.WithComponent("daemon")

	if path != "" {
		logger.Info().
			Str(xglog.FieldEvent, "config.loaded").
			Str("source", "file").
			Str(xglog.FieldPath, path).
			Msg("loaded configuration from file")
	} else {
		logger.Info().
			Str(xglog.FieldEvent, "config.loaded").
			Str("source", "env+defaults").
			Msg("loaded configuration from environment and defaults")
	}
	if unknown := loader.UnknownEnvKeys(); len(unknown) > 0 {
		logger.Warn().
			Strs("keys", unknown).
			Str(xglog.FieldEvent, "config.unknown_env").
			Msg("ignoring unknown ARTNETVIZ_ environment variables")
	}

	logger.Info().
		Str(xglog.FieldEvent, "startup").
		Str("version", version.Version).
		Str("commit", version.Commit).
		Str("build_date", version.Date).
		Str(xglog.FieldAddr, cfg.API.ListenAddr).
		Msg("starting artnetviz")
	logger.Info().Msgf("→ Art-Net: %s:%d universes %v", cfg.ArtNet.Host, cfg.ArtNet.Port, cfg.ArtNet.Universes)
	logger.Info().Msgf("→ Test source: %v (pattern %s, speed %.2f)", cfg.TestSource.Enabled, cfg.TestSource.Pattern, cfg.TestSource.Speed)
	logger.Info().Msgf("→ Recordings: %s at %d fps", cfg.Recorder.Dir, cfg.Recorder.FrameRate)
	if cfg.Metrics.ListenAddr != "" {
		logger.Info().Msgf("→ Metrics: %s", cfg.Metrics.ListenAddr)
	}

	if err := run(ctx, cfg, loader); err != nil {
		logger.Fatal().
			Err(err).
			Str(xglog.FieldEvent, "daemon.failed").
			Msg("daemon stopped with error")
	}
	logger.Info().Str(xglog.FieldEvent, "shutdown.complete").Msg("server exiting")
}

func run(ctx context.Context, cfg config.Config, loader *config.Loader) error {
	logger := xglog.WithComponent("daemon")

	rt, err := daemon.Build(ctx, cfg)
	if err != nil {
		return fmt.Errorf("build runtime: %w", err)
	}
	if err := rt.Start(); err != nil {
		return err
	}

	mgr, err := daemon.NewManager(daemon.DefaultServerConfig(cfg.API.ListenAddr), daemon.Deps{
		Logger:         logger,
		APIHandler:     rt.API.Handler(),
		MetricsHandler: promhttp.Handler(),
		MetricsAddr:    cfg.Metrics.ListenAddr,
	})
	if err != nil {
		_ = rt.Live.StopAll()
		return fmt.Errorf("create manager: %w", err)
	}
	rt.RegisterHooks(mgr)

	holder := config.NewHolder(cfg, loader)
	app := daemon.NewApp(logger, mgr, holder, rt)

	if err := app.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}

// resolveConfigPath picks the config file: the flag, then ARTNETVIZ_CONFIG,
// then config.yaml in the working directory if present. Empty means env and
// defaults only.
func resolveConfigPath(flagValue string) string {
	if p := strings.TrimSpace(flagValue); p != "" {
		return p
	}
	if p := strings.TrimSpace(os.Getenv(config.EnvConfigFile)); p != "" {
		return p
	}
	if _, err := os.Stat(defaultConfigFile); err == nil {
		return defaultConfigFile
	}
	return ""
}
