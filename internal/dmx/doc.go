// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

// Package dmx holds the state shared by every frame source: fixed-size
// per-universe channel buffers, universe set normalisation and the Source
// contract consumed by renderers and the recorder.
//
// Buffers are published copy-on-write. A reader always observes a complete
// 512-channel snapshot, never a buffer that is half way through an update.
package dmx
