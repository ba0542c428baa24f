// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package log

// Canonical field name constants for structured logging.
const (
	// Identity fields
	FieldRequestID = "request_id"
	FieldSession   = "session"

	// Process fields
	FieldEvent     = "event"
	FieldComponent = "component"
	FieldSource    = "source"

	// DMX fields
	FieldUniverse  = "universe"
	FieldUniverses = "universes"
	FieldPattern   = "pattern"
	FieldFPS       = "fps"
	FieldFrames    = "frames"
	FieldTimecode  = "timecode_ms"

	// State fields
	FieldOldState = "old_state"
	FieldNewState = "new_state"

	// Path / network fields
	FieldPath = "path"
	FieldAddr = "addr"
)
