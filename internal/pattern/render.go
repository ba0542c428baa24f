// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package pattern

import (
	"math"
	"math/rand/v2"

	"github.com/ManuGH/artnetviz/internal/dmx"
)

const (
	// timeScale converts frame × speed into the animation parameter t.
	timeScale = 0.05

	checkerSize = 32
	barWidth    = 50
)

// Param returns the animation parameter for a frame.
func Param(frame uint64, speed float64) float64 {
	return float64(frame) * speed * timeScale
}

// Render computes one frame for universes in rank order. It is pure apart
// from reading rng for Random; rng may be nil for every other pattern.
func Render(p Type, universes []int, frame uint64, speed float64, rng *rand.Rand) []dmx.Buffer {
	n := len(universes)
	out := make([]dmx.Buffer, n)
	t := Param(frame, speed)

	switch p {
	case GradientH:
		var row dmx.Buffer
		for i := range row {
			row[i] = byte(math.Round(float64(i) / (dmx.Channels - 1) * 255))
		}
		for r := range out {
			out[r] = row
		}

	case GradientV:
		for r := range out {
			var v byte
			if n > 1 {
				v = byte(math.Round(float64(r) / float64(n-1) * 255))
			}
			out[r] = dmx.Fill(v)
		}

	case Checkerboard:
		shift := int(t*20) % (checkerSize * 2)
		for r := range out {
			y := (r / checkerSize) % 2
			for i := range out[r] {
				x := ((i + shift) / checkerSize) % 2
				if (x+y)%2 == 0 {
					out[r][i] = 255
				}
			}
		}

	case MovingBarV:
		if n <= 1 {
			return Render(MovingBarH, universes, frame, speed, rng)
		}
		h := max(1, n/4)
		pos := int(math.Mod(t*100, float64(n+h))) - h
		for r := range out {
			if r >= pos && r < pos+h {
				out[r] = dmx.Fill(255)
			}
		}

	case Pulse:
		v := byte((math.Sin(2*t) + 1) / 2 * 255)
		for r := range out {
			out[r] = dmx.Fill(v)
		}

	case Random:
		if rng == nil {
			rng = rand.New(rand.NewPCG(frame, uint64(n)))
		}
		for r := range out {
			for i := range out[r] {
				out[r][i] = byte(rng.IntN(256))
			}
		}

	case SineWave:
		var row dmx.Buffer
		for i := range row {
			row[i] = byte((math.Sin(float64(i)/30+5*t) + 1) / 2 * 255)
		}
		for r := range out {
			out[r] = row
		}

	default: // MovingBarH
		pos := int(math.Mod(t*200, dmx.Channels+barWidth)) - barWidth
		var row dmx.Buffer
		for i := max(pos, 0); i < pos+barWidth && i < dmx.Channels; i++ {
			row[i] = 255
		}
		for r := range out {
			out[r] = row
		}
	}
	return out
}
