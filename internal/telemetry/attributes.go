// SPDX-License-Identifier: MIT

package telemetry

import (
	"go.opentelemetry.io/otel/attribute"
)

// Attribute keys shared by spans across the application.
const (
	RecordingPathKey      = "recording.path"
	RecordingFramesKey    = "recording.frames"
	RecordingFrameRateKey = "recording.frame_rate"
	RecordingUniversesKey = "recording.universes"
	RecordingBytesKey     = "recording.bytes"
	RecordingDurationKey  = "recording.duration_s"
	SourceKindKey         = "source.kind"
	PatternKey            = "pattern.name"

	ErrorKey     = "error"
	ErrorTypeKey = "error.type"
)

// RecordingAttributes describes a recording document.
func RecordingAttributes(path string, frames, frameRate int, universes []int) []attribute.KeyValue {
	attrs := make([]attribute.KeyValue, 0, 4)
	if path != "" {
		attrs = append(attrs, attribute.String(RecordingPathKey, path))
	}
	attrs = append(attrs,
		attribute.Int(RecordingFramesKey, frames),
		attribute.Int(RecordingFrameRateKey, frameRate),
		attribute.IntSlice(RecordingUniversesKey, universes),
	)
	return attrs
}

// ErrorAttributes marks a span as failed with a short error class.
func ErrorAttributes(errorType string) []attribute.KeyValue {
	return []attribute.KeyValue{
		attribute.Bool(ErrorKey, true),
		attribute.String(ErrorTypeKey, errorType),
	}
}
