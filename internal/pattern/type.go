// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

// Package pattern synthesises DMX test patterns so the rest of the system can
// be exercised without lighting hardware.
package pattern

import (
	"fmt"
	"strings"
)

// Type selects the pattern rendered on each frame.
type Type int32

const (
	GradientH Type = iota
	GradientV
	Checkerboard
	MovingBarH
	MovingBarV
	Pulse
	Random
	SineWave
)

// Default is used when a configured pattern name is not recognised.
const Default = MovingBarH

var names = [...]string{
	GradientH:    "GRADIENT_H",
	GradientV:    "GRADIENT_V",
	Checkerboard: "CHECKERBOARD",
	MovingBarH:   "MOVING_BAR_H",
	MovingBarV:   "MOVING_BAR_V",
	Pulse:        "PULSE",
	Random:       "RANDOM",
	SineWave:     "SINE_WAVE",
}

func (t Type) String() string {
	if t < 0 || int(t) >= len(names) {
		return fmt.Sprintf("Type(%d)", int32(t))
	}
	return names[t]
}

// Valid reports whether t is a known pattern.
func (t Type) Valid() bool {
	return t >= 0 && int(t) < len(names)
}

// Types lists every pattern in declaration order.
func Types() []Type {
	out := make([]Type, len(names))
	for i := range names {
		out[i] = Type(i)
	}
	return out
}

// Names lists every pattern name in declaration order.
func Names() []string {
	return append([]string(nil), names[:]...)
}

// ParseType resolves a pattern name case-insensitively.
func ParseType(s string) (Type, error) {
	want := strings.ToUpper(strings.TrimSpace(s))
	for i, n := range names {
		if n == want {
			return Type(i), nil
		}
	}
	return Default, fmt.Errorf("unknown pattern %q", s)
}

// MarshalText implements encoding.TextMarshaler.
func (t Type) MarshalText() ([]byte, error) {
	if !t.Valid() {
		return nil, fmt.Errorf("invalid pattern %d", int32(t))
	}
	return []byte(t.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (t *Type) UnmarshalText(b []byte) error {
	v, err := ParseType(string(b))
	if err != nil {
		return err
	}
	*t = v
	return nil
}
