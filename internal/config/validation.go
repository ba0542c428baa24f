// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package config

import (
	"strings"

	"github.com/ManuGH/artnetviz/internal/dmx"
	"github.com/ManuGH/artnetviz/internal/pattern"
	"github.com/ManuGH/artnetviz/internal/telemetry"
	"github.com/ManuGH/artnetviz/internal/validate"
)

const maxFrameRate = 120

// Validate validates a Config using the centralized validation package
func Validate(cfg Config) error {
	v := validate.New()

	v.OneOf("LogLevel", strings.ToLower(cfg.LogLevel), validate.LogLevels)
	v.Range("FrameRate", cfg.FrameRate, 1, maxFrameRate)

	v.IP("ArtNet.Host", cfg.ArtNet.Host)
	v.Port("ArtNet.Port", cfg.ArtNet.Port)
	v.Universes("ArtNet.Universes", cfg.ArtNet.Universes, dmx.MaxUniverse)

	if _, err := pattern.ParseType(cfg.TestSource.Pattern); err != nil {
		v.AddError("TestSource.Pattern", "value must be one of "+strings.Join(pattern.Names(), ", "), cfg.TestSource.Pattern)
	}
	v.FloatRange("TestSource.Speed", cfg.TestSource.Speed, 0.01, 100)

	v.NotEmpty("Recorder.Dir", cfg.Recorder.Dir)
	v.Range("Recorder.FrameRate", cfg.Recorder.FrameRate, 1, maxFrameRate)

	v.ListenAddr("API.ListenAddr", cfg.API.ListenAddr)
	v.NonNegative("API.RateLimit", cfg.API.RateLimit)
	if cfg.Metrics.ListenAddr != "" {
		v.ListenAddr("Metrics.ListenAddr", cfg.Metrics.ListenAddr)
		if cfg.Metrics.ListenAddr == cfg.API.ListenAddr {
			v.AddError("Metrics.ListenAddr", "must differ from API.ListenAddr", cfg.Metrics.ListenAddr)
		}
	}

	if cfg.Telemetry.Enabled {
		v.OneOf("Telemetry.Exporter", cfg.Telemetry.Exporter,
			[]string{telemetry.ExporterGRPC, telemetry.ExporterHTTP, telemetry.ExporterNoop})
		if cfg.Telemetry.Exporter != telemetry.ExporterNoop {
			v.NotEmpty("Telemetry.Endpoint", cfg.Telemetry.Endpoint)
		}
		v.FloatRange("Telemetry.SamplingRate", cfg.Telemetry.SamplingRate, 0, 1)
	}

	return v.Err()
}
