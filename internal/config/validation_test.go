// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
		field  string
	}{
		{"defaults", func(*Config) {}, ""},
		{"bad log level", func(c *Config) { c.LogLevel = "loud" }, "LogLevel"},
		{"zero frame rate", func(c *Config) { c.FrameRate = 0 }, "FrameRate"},
		{"bad host", func(c *Config) { c.ArtNet.Host = "localhost:1" }, "ArtNet.Host"},
		{"bad port", func(c *Config) { c.ArtNet.Port = 70000 }, "ArtNet.Port"},
		{"negative universe", func(c *Config) { c.ArtNet.Universes = []int{-1} }, "ArtNet.Universes"},
		{"unknown pattern", func(c *Config) { c.TestSource.Pattern = "PLASMA" }, "TestSource.Pattern"},
		{"speed too low", func(c *Config) { c.TestSource.Speed = 0 }, "TestSource.Speed"},
		{"empty recordings dir", func(c *Config) { c.Recorder.Dir = "" }, "Recorder.Dir"},
		{"bad api addr", func(c *Config) { c.API.ListenAddr = "nope" }, "API.ListenAddr"},
		{"negative rate limit", func(c *Config) { c.API.RateLimit = -1 }, "API.RateLimit"},
		{"metrics collides with api", func(c *Config) { c.Metrics.ListenAddr = c.API.ListenAddr }, "Metrics.ListenAddr"},
		{"metrics disabled", func(c *Config) { c.Metrics.ListenAddr = "" }, ""},
		{"telemetry exporter", func(c *Config) {
			c.Telemetry.Enabled = true
			c.Telemetry.Exporter = "zipkin"
		}, "Telemetry.Exporter"},
		{"telemetry sampling", func(c *Config) {
			c.Telemetry.Enabled = true
			c.Telemetry.SamplingRate = 1.5
		}, "Telemetry.SamplingRate"},
		{"telemetry disabled ignores exporter", func(c *Config) { c.Telemetry.Exporter = "zipkin" }, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Defaults()
			tt.mutate(&cfg)
			err := Validate(cfg)
			if tt.field == "" {
				assert.NoError(t, err)
				return
			}
			if assert.Error(t, err) {
				assert.Contains(t, err.Error(), tt.field)
			}
		})
	}
}
