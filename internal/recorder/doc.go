// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

// Package recorder captures frames from a dmx.Source into timecoded
// recordings, persists them as JSON documents and plays them back.
//
// A Recorder has two independent state machines. Recording moves
// idle → recording → idle and persists on stop. Playback moves
// idle → loaded → playing → loaded, with an optional loop that rewinds the
// cursor after the last frame. Both are driven by one goroutine each.
package recorder
