// Copyright (c) 2024, The Oddvoices-Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package grain implements the active per-sample mixer node described in
// spec.md §4.2: a short interpolating wavetable playback scheduled at the
// output pitch rate, optionally crossfaded against an outgoing frame.
//
// A Grain is purely an interpolating polyphonic voice: it has no knowledge
// of segments, synths or crossfade ramps beyond the single scalar it was
// spawned with. This mirrors the Grain class in
// original_source/python/oddvoices/synth.py, generalized (per spec.md §4.2
// and §9) from an integer read position to a fractional one so a non-unity
// sample_step (formant shift, output-rate conversion) still interpolates
// cleanly.
package grain

// sampleScale converts a signed 16-bit PCM sample to the [-1, 1] float
// range spec.md §3 specifies for a Grain's contribution.
const sampleScale = 1.0 / 32767.0

// Grain is one scheduled playback of one (or two crossfaded) wavetable
// frames.
type Grain struct {
	frame    []int16
	oldFrame []int16 // nil when there is no outgoing segment to blend

	length    int
	crossfade float64 // fixed at spawn time, in [0, 1]
	step      float64 // per-sample read increment

	pos     float64
	playing bool
}

// New spawns a grain reading frame (and, while crossfading, oldFrame) at
// sampleStep samples per Process call, starting at read position 0. A nil
// oldFrame means there is no outgoing segment to blend against, regardless
// of crossfade's value.
func New(frame, oldFrame []int16, grainLength int, crossfade, sampleStep float64) *Grain {
	return &Grain{
		frame:     frame,
		oldFrame:  oldFrame,
		length:    grainLength,
		crossfade: crossfade,
		step:      sampleStep,
		pos:       0,
		playing:   true,
	}
}

// Playing reports whether the grain still has samples to contribute. It
// turns false on the first Process call after the read position crosses
// grain_length-1.
func (g *Grain) Playing() bool {
	return g.playing
}

// Process returns this grain's contribution for the current output sample
// and advances its read position by sampleStep. It returns exactly 0 once
// the grain has finished playing.
func (g *Grain) Process() float64 {
	if !g.playing {
		return 0
	}

	result := interpolate(g.frame, g.pos) * (1 - g.crossfade)
	if g.oldFrame != nil {
		result += interpolate(g.oldFrame, g.pos) * g.crossfade
	}

	g.pos += g.step
	if g.pos >= float64(g.length-1) {
		g.playing = false
	}

	return result * sampleScale
}

// interpolate linearly interpolates frame at fractional position pos,
// which the caller guarantees stays within [0, length-1).
func interpolate(frame []int16, pos float64) float64 {
	i0 := int(pos)
	i1 := i0 + 1
	if i1 >= len(frame) {
		i1 = len(frame) - 1
	}
	frac := pos - float64(i0)
	a, b := float64(frame[i0]), float64(frame[i1])
	return a + frac*(b-a)
}
