// Copyright (c) 2024, The Oddvoices-Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package voice

// SilenceName is the reserved segment name that separates phrases and
// gates note-on consumption. It carries no frames.
const SilenceName = "-"

// Segment is one recorded phoneme or diphone transition: a contiguous,
// row-major table of NumFrames pitch-synchronous wavetable frames, each
// GrainLength samples long.
type Segment struct {
	Name        string
	NumFrames   int
	Long        bool
	GrainLength int
	Frames      []int16 // len == NumFrames*GrainLength, row-major
}

// Frame returns the i'th wavetable frame, wrapping i into [0, NumFrames).
// The returned slice aliases the segment's frame table and must not be
// retained past the VoiceDatabase's lifetime being assumed immutable.
func (s *Segment) Frame(i int) []int16 {
	i %= s.NumFrames
	if i < 0 {
		i += s.NumFrames
	}
	off := i * s.GrainLength
	return s.Frames[off : off+s.GrainLength]
}
