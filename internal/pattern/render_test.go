// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package pattern

import (
	"math/rand/v2"
	"testing"

	"github.com/ManuGH/artnetviz/internal/dmx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseType(t *testing.T) {
	for _, p := range Types() {
		got, err := ParseType(p.String())
		require.NoError(t, err)
		assert.Equal(t, p, got)
	}

	got, err := ParseType(" pulse ")
	require.NoError(t, err)
	assert.Equal(t, Pulse, got)

	got, err = ParseType("STROBE")
	assert.Error(t, err)
	assert.Equal(t, MovingBarH, got)
}

func TestRender_GradientHEndpoints(t *testing.T) {
	for _, frame := range []uint64{0, 1, 100, 9999} {
		frames := Render(GradientH, []int{0, 1, 2}, frame, 1, nil)
		require.Len(t, frames, 3)
		for _, b := range frames {
			assert.Equal(t, byte(0), b[0])
			assert.Equal(t, byte(255), b[511])
			assert.Equal(t, byte(128), b[256])
		}
	}
}

func TestRender_GradientV(t *testing.T) {
	frames := Render(GradientV, []int{4, 7, 9}, 0, 1, nil)
	assert.Equal(t, dmx.Fill(0), frames[0])
	assert.Equal(t, dmx.Fill(128), frames[1])
	assert.Equal(t, dmx.Fill(255), frames[2])

	single := Render(GradientV, []int{0}, 0, 1, nil)
	assert.Equal(t, dmx.Buffer{}, single[0])
}

func TestRender_PulseUniform(t *testing.T) {
	for frame := uint64(0); frame < 200; frame += 7 {
		frames := Render(Pulse, []int{0, 1}, frame, 1.3, nil)
		for _, b := range frames {
			for i := 1; i < dmx.Channels; i++ {
				require.Equal(t, b[0], b[i], "frame %d channel %d", frame, i)
			}
		}
		assert.Equal(t, frames[0], frames[1])
	}
	// sin(0) = 0 → (0+1)/2*255
	assert.Equal(t, byte(127), Render(Pulse, []int{0}, 0, 1, nil)[0][0])
}

func TestRender_Checkerboard(t *testing.T) {
	b := Render(Checkerboard, []int{0}, 0, 1, nil)[0]
	assert.Equal(t, byte(255), b[0])
	assert.Equal(t, byte(255), b[31])
	assert.Equal(t, byte(0), b[32])
	assert.Equal(t, byte(255), b[64])

	// frame 10: t=0.5, shift=10
	shifted := Render(Checkerboard, []int{0}, 10, 1, nil)[0]
	assert.Equal(t, byte(255), shifted[21])
	assert.Equal(t, byte(0), shifted[22])
}

func TestRender_MovingBarH(t *testing.T) {
	// frame 0: pos=-50, bar fully off screen
	assert.Equal(t, dmx.Buffer{}, Render(MovingBarH, []int{0}, 0, 1, nil)[0])

	// frame 10: t=0.5, pos=100-50=50
	b := Render(MovingBarH, []int{0}, 10, 1, nil)[0]
	assert.Equal(t, byte(0), b[49])
	assert.Equal(t, byte(255), b[50])
	assert.Equal(t, byte(255), b[99])
	assert.Equal(t, byte(0), b[100])
}

func TestRender_MovingBarV(t *testing.T) {
	universes := []int{0, 1, 2, 3, 4, 5, 6, 7}
	// h=2, frame 10: t=0.5, pos=int(50 mod 10)-2=-2
	frames := Render(MovingBarV, universes, 10, 1, nil)
	for _, b := range frames {
		assert.Equal(t, dmx.Buffer{}, b)
	}
	// frame 1: t=0.05, pos=int(5)-2=3
	frames = Render(MovingBarV, universes, 1, 1, nil)
	assert.Equal(t, dmx.Buffer{}, frames[2])
	assert.Equal(t, dmx.Fill(255), frames[3])
	assert.Equal(t, dmx.Fill(255), frames[4])
	assert.Equal(t, dmx.Buffer{}, frames[5])

	// single universe falls back to the horizontal bar
	assert.Equal(t,
		Render(MovingBarH, []int{0}, 10, 1, nil),
		Render(MovingBarV, []int{0}, 10, 1, nil))
}

func TestRender_SineWave(t *testing.T) {
	b := Render(SineWave, []int{0}, 0, 1, nil)[0]
	assert.Equal(t, byte(127), b[0])
}

func TestRender_RandomUsesRNG(t *testing.T) {
	a := Render(Random, []int{0}, 0, 1, rand.New(rand.NewPCG(1, 2)))
	b := Render(Random, []int{0}, 0, 1, rand.New(rand.NewPCG(1, 2)))
	c := Render(Random, []int{0}, 0, 1, rand.New(rand.NewPCG(3, 4)))
	assert.Equal(t, a, b)
	assert.NotEqual(t, a, c)
}

func TestRender_EmptyUniverses(t *testing.T) {
	for _, p := range Types() {
		assert.Empty(t, Render(p, nil, 0, 1, nil), p.String())
	}
}
