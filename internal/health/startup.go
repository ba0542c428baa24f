// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package health

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/ManuGH/artnetviz/internal/config"
	"github.com/ManuGH/artnetviz/internal/log"
	"github.com/rs/zerolog"
)

// PerformStartupChecks prepares and verifies the filesystem before any
// component starts. The recordings directory is created when missing.
func PerformStartupChecks(ctx context.Context, cfg config.Config) error {
	logger := log.WithComponent("startup-check")
	logger.Info().Msg("running pre-flight startup checks")

	if err := ensureDir(logger, cfg.Recorder.Dir); err != nil {
		return fmt.Errorf("recordings directory check failed: %w", err)
	}
	if cfg.Recorder.Catalog != "" {
		if err := ensureDir(logger, filepath.Dir(cfg.Recorder.Catalog)); err != nil {
			return fmt.Errorf("catalog directory check failed: %w", err)
		}
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	logger.Info().Msg("all startup checks passed")
	return nil
}

func ensureDir(logger zerolog.Logger, path string) error {
	if err := os.MkdirAll(path, 0o750); err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	if err := checkWritableDir(path); err != nil {
		return err
	}
	logger.Info().Str(log.FieldPath, path).Msg("directory is writable")
	return nil
}
