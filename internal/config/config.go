// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

// Package config loads artnetviz configuration from YAML and environment.
package config

// Config is the complete runtime configuration.
type Config struct {
	LogLevel string `yaml:"logLevel"`
	// FrameRate drives the generator and playback source.
	FrameRate int `yaml:"frameRate"`

	ArtNet     ArtNetConfig     `yaml:"artnet"`
	TestSource TestSourceConfig `yaml:"testSource"`
	Recorder   RecorderConfig   `yaml:"recorder"`
	API        APIConfig        `yaml:"api"`
	Metrics    MetricsConfig    `yaml:"metrics"`
	Telemetry  TelemetryConfig  `yaml:"telemetry"`

	// Version is set from the binary, never from file or environment.
	Version string `yaml:"-"`
}

// ArtNetConfig configures the UDP listener.
type ArtNetConfig struct {
	Host      string `yaml:"host"`
	Port      int    `yaml:"port"`
	Universes []int  `yaml:"universes"`
}

// TestSourceConfig configures the pattern generator.
type TestSourceConfig struct {
	// Enabled makes the generator the live source at startup.
	Enabled bool    `yaml:"enabled"`
	Pattern string  `yaml:"pattern"`
	Speed   float64 `yaml:"speed"`
}

// RecorderConfig configures capture and playback.
type RecorderConfig struct {
	Dir       string `yaml:"dir"`
	FrameRate int    `yaml:"frameRate"`
	// Catalog is the SQLite index path. Empty disables the index.
	Catalog string `yaml:"catalog"`
	Loop    bool   `yaml:"loop"`
}

// APIConfig configures the HTTP control surface.
type APIConfig struct {
	ListenAddr string `yaml:"listenAddr"`
	// RateLimit is requests per minute per client IP; 0 disables limiting.
	RateLimit int `yaml:"rateLimit"`
}

// MetricsConfig configures the Prometheus listener. Empty disables it.
type MetricsConfig struct {
	ListenAddr string `yaml:"listenAddr"`
}

// TelemetryConfig configures OpenTelemetry tracing.
type TelemetryConfig struct {
	Enabled      bool    `yaml:"enabled"`
	Exporter     string  `yaml:"exporter"`
	Endpoint     string  `yaml:"endpoint"`
	SamplingRate float64 `yaml:"samplingRate"`
}

// Defaults returns the configuration used when neither file nor
// environment set a value.
func Defaults() Config {
	return Config{
		LogLevel:  "info",
		FrameRate: 44,
		ArtNet: ArtNetConfig{
			Host:      "0.0.0.0",
			Port:      6454,
			Universes: []int{0},
		},
		TestSource: TestSourceConfig{
			Enabled: false,
			Pattern: "MOVING_BAR_H",
			Speed:   1.0,
		},
		Recorder: RecorderConfig{
			Dir:       "recordings",
			FrameRate: 44,
			Catalog:   "recordings/catalog.sqlite",
		},
		API: APIConfig{
			ListenAddr: "127.0.0.1:8644",
			RateLimit:  600,
		},
		Metrics: MetricsConfig{
			ListenAddr: "127.0.0.1:9644",
		},
		Telemetry: TelemetryConfig{
			Enabled:      false,
			Exporter:     "grpc",
			Endpoint:     "localhost:4317",
			SamplingRate: 1.0,
		},
	}
}

// Clone returns a deep copy of c.
func (c Config) Clone() Config {
	out := c
	out.ArtNet.Universes = append([]int(nil), c.ArtNet.Universes...)
	return out
}
