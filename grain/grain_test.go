package grain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"
)

func TestGrainPlaysFrameVerbatimAtUnityStep(t *testing.T) {
	frame := []int16{100, 200, 300, 400}
	g := New(frame, nil, len(frame), 0, 1)

	for i, want := range frame[:len(frame)-1] {
		require.True(t, g.Playing(), "sample %d", i)
		got := g.Process()
		assert.InDelta(t, float64(want)/32767.0, got, 1e-9)
	}
	assert.False(t, g.Playing(), "grain must be done once its read position reaches length-1")
}

func TestGrainDiesOnFirstTickAfterCrossingLength(t *testing.T) {
	frame := []int16{1, 2, 3}
	g := New(frame, nil, len(frame), 0, 1)

	g.Process() // pos 0 -> 1
	require.True(t, g.Playing())
	g.Process() // pos 1 -> 2 == length-1, dies
	assert.False(t, g.Playing())
	assert.Equal(t, 0.0, g.Process(), "a dead grain contributes exactly 0")
}

func TestGrainCrossfadeBlendsOldAndNewLinearly(t *testing.T) {
	frame := []int16{32767, 32767}
	old := []int16{-32767, -32767}

	for _, xfade := range []float64{0, 0.25, 0.5, 1} {
		g := New(frame, old, len(frame), xfade, 0)
		got := g.Process()
		want := 1*(1-xfade) + (-1)*xfade
		assert.InDelta(t, want, got, 1e-6)
	}
}

func TestGrainPropertyReadPositionStaysInBounds(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		length := rapid.IntRange(2, 64).Draw(rt, "length")
		step := rapid.Float64Range(0.05, 4.0).Draw(rt, "step")

		frame := make([]int16, length)
		for i := range frame {
			frame[i] = int16(rapid.IntRange(-32767, 32767).Draw(rt, "sample"))
		}

		g := New(frame, nil, length, 0, step)
		for i := 0; i < length*20 && g.Playing(); i++ {
			require.GreaterOrEqual(rt, g.pos, 0.0)
			require.Less(rt, g.pos, float64(length))
			g.Process()
		}
		require.False(rt, g.Playing(), "grain must terminate within a bounded number of ticks")
	})
}
