// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package dmx

import "errors"

var (
	// ErrNoSource is returned when the live holder has no source assigned.
	ErrNoSource = errors.New("no source assigned")

	// ErrUnknownVariant is returned when activating a kind that was never registered.
	ErrUnknownVariant = errors.New("source variant not registered")
)
