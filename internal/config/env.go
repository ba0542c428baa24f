// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package config

import (
	"os"
	"strconv"
	"strings"

	"github.com/ManuGH/artnetviz/internal/log"
	"github.com/rs/zerolog"
)

// EnvPrefix prefixes every environment key.
const EnvPrefix = "ARTNETVIZ_"

// Environment keys, highest precedence.
const (
	EnvConfigFile        = EnvPrefix + "CONFIG"
	EnvLogLevel          = EnvPrefix + "LOG_LEVEL"
	EnvFrameRate         = EnvPrefix + "FRAME_RATE"
	EnvArtNetHost        = EnvPrefix + "ARTNET_HOST"
	EnvArtNetPort        = EnvPrefix + "ARTNET_PORT"
	EnvUniverses         = EnvPrefix + "UNIVERSES"
	EnvTestSource        = EnvPrefix + "TEST_SOURCE"
	EnvPattern           = EnvPrefix + "PATTERN"
	EnvPatternSpeed      = EnvPrefix + "PATTERN_SPEED"
	EnvRecordingsDir     = EnvPrefix + "RECORDINGS_DIR"
	EnvRecorderFrameRate = EnvPrefix + "RECORDER_FRAME_RATE"
	EnvCatalog           = EnvPrefix + "CATALOG"
	EnvPlaybackLoop      = EnvPrefix + "PLAYBACK_LOOP"
	EnvListenAddr        = EnvPrefix + "LISTEN"
	EnvRateLimit         = EnvPrefix + "RATE_LIMIT"
	EnvMetricsListen     = EnvPrefix + "METRICS_LISTEN"
	EnvTelemetryEnabled  = EnvPrefix + "TELEMETRY_ENABLED"
	EnvTelemetryExporter = EnvPrefix + "TELEMETRY_EXPORTER"
	EnvTelemetryEndpoint = EnvPrefix + "TELEMETRY_ENDPOINT"
	EnvTelemetrySampling = EnvPrefix + "TELEMETRY_SAMPLING_RATE"
)

// ParseString reads a string from environment variable or returns default value.
// It logs the source (environment or default) for observability.
func ParseString(key, defaultValue string) string {
	return parseStringWithLogger(log.WithComponent("config"), key, defaultValue)
}

func parseStringWithLogger(logger zerolog.Logger, key, defaultValue string) string {
	if value, exists := os.LookupEnv(key); exists {
		if value == "" {
			logger.Debug().
				Str("key", key).
				Str("default", defaultValue).
				Str("source", "default").
				Msg("using default value (environment variable is empty)")
			return defaultValue
		}
		logger.Debug().
			Str("key", key).
			Str("value", value).
			Str("source", "environment").
			Msg("using environment variable")
		return value
	}
	return defaultValue
}

// ParseInt reads an integer from environment variable or returns default value.
// It falls back to default on parse errors.
func ParseInt(key string, defaultValue int) int {
	v, ok := lookupNonEmpty(key)
	if !ok {
		return defaultValue
	}
	logger := log.WithComponent("config")
	i, err := strconv.Atoi(strings.TrimSpace(v))
	if err != nil {
		logger.Warn().
			Str("key", key).
			Str("value", v).
			Int("default", defaultValue).
			Err(err).
			Msg("invalid integer in environment variable, using default")
		return defaultValue
	}
	logger.Debug().Str("key", key).Int("value", i).Str("source", "environment").Msg("using environment variable")
	return i
}

// ParseBool reads a boolean from environment variable or returns default value.
func ParseBool(key string, defaultValue bool) bool {
	v, ok := lookupNonEmpty(key)
	if !ok {
		return defaultValue
	}
	logger := log.WithComponent("config")
	b, err := strconv.ParseBool(strings.TrimSpace(v))
	if err != nil {
		logger.Warn().
			Str("key", key).
			Str("value", v).
			Bool("default", defaultValue).
			Err(err).
			Msg("invalid boolean in environment variable, using default")
		return defaultValue
	}
	logger.Debug().Str("key", key).Bool("value", b).Str("source", "environment").Msg("using environment variable")
	return b
}

// ParseFloat reads a float from environment variable or returns default value.
func ParseFloat(key string, defaultValue float64) float64 {
	v, ok := lookupNonEmpty(key)
	if !ok {
		return defaultValue
	}
	logger := log.WithComponent("config")
	f, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
	if err != nil {
		logger.Warn().
			Str("key", key).
			Str("value", v).
			Float64("default", defaultValue).
			Err(err).
			Msg("invalid float in environment variable, using default")
		return defaultValue
	}
	logger.Debug().Str("key", key).Float64("value", f).Str("source", "environment").Msg("using environment variable")
	return f
}

// ParseInts reads a comma separated integer list, e.g. "0,1,2".
// Any unparsable element keeps the default.
func ParseInts(key string, defaultValue []int) []int {
	v, ok := lookupNonEmpty(key)
	if !ok {
		return defaultValue
	}
	parts := strings.Split(v, ",")
	out := make([]int, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		i, err := strconv.Atoi(p)
		if err != nil {
			logger := log.WithComponent("config")
			logger.Warn().
				Str("key", key).
				Str("value", v).
				Err(err).
				Msg("invalid integer list in environment variable, using default")
			return defaultValue
		}
		out = append(out, i)
	}
	return out
}

func lookupNonEmpty(key string) (string, bool) {
	v, ok := os.LookupEnv(key)
	if !ok || v == "" {
		return "", false
	}
	return v, true
}
