// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Packet results for ArtnetPacketsTotal.
const (
	PacketAccepted        = "accepted"
	PacketInvalid         = "invalid"
	PacketIgnoredOpcode   = "ignored_opcode"
	PacketUnknownUniverse = "unknown_universe"
)

var (
	// ArtnetPacketsTotal counts received datagrams by decode outcome.
	ArtnetPacketsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "artnetviz_artnet_packets_total",
		Help: "Art-Net datagrams received by decode result",
	}, []string{"result"})

	// ArtnetReceiveErrorsTotal counts transient socket read failures.
	ArtnetReceiveErrorsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "artnetviz_artnet_receive_errors_total",
		Help: "Transient UDP receive errors on the Art-Net socket",
	})

	// ArtnetBound reports whether the listener holds a bound socket.
	ArtnetBound = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "artnetviz_artnet_bound",
		Help: "1 if the Art-Net listener socket is bound",
	})

	// GeneratorFramesTotal counts synthetic frames by pattern.
	GeneratorFramesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "artnetviz_generator_frames_total",
		Help: "Frames rendered by the pattern generator",
	}, []string{"pattern"})

	// GeneratorFrameFaultsTotal counts recovered panics while rendering.
	GeneratorFrameFaultsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "artnetviz_generator_frame_faults_total",
		Help: "Recovered faults while rendering generator frames",
	})

	// RecorderFramesCapturedTotal counts frames appended to recordings.
	RecorderFramesCapturedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "artnetviz_recorder_frames_captured_total",
		Help: "Frames captured into recordings",
	})

	// RecordingsSavedTotal counts persisted recordings by result.
	RecordingsSavedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "artnetviz_recordings_saved_total",
		Help: "Recording save attempts by result",
	}, []string{"result"})

	// PlaybackFramesEmittedTotal counts frames delivered during playback.
	PlaybackFramesEmittedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "artnetviz_playback_frames_emitted_total",
		Help: "Recorded frames delivered by the playback loop",
	})

	// RecordingActive is 1 while a capture loop runs.
	RecordingActive = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "artnetviz_recording_active",
		Help: "1 while a recording is in progress",
	})

	// PlaybackActive is 1 while a playback loop runs.
	PlaybackActive = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "artnetviz_playback_active",
		Help: "1 while playback is in progress",
	})

	// LiveSource reports which source variant is live.
	LiveSource = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Name: "artnetviz_live_source",
		Help: "1 for the source variant currently live",
	}, []string{"kind"})
)

// IncPacket records one datagram outcome.
func IncPacket(result string) {
	ArtnetPacketsTotal.WithLabelValues(result).Inc()
}

// IncRecordingSaved records a save attempt outcome.
func IncRecordingSaved(success bool) {
	result := "failure"
	if success {
		result = "success"
	}
	RecordingsSavedTotal.WithLabelValues(result).Inc()
}

// SetLiveSource marks kind as the live variant.
func SetLiveSource(kind string, all ...string) {
	for _, k := range all {
		LiveSource.WithLabelValues(k).Set(0)
	}
	LiveSource.WithLabelValues(kind).Set(1)
}

// BoolGauge converts a flag into a gauge value.
func BoolGauge(g prometheus.Gauge, v bool) {
	if v {
		g.Set(1)
		return
	}
	g.Set(0)
}
