// Copyright (c) 2024, The Oddvoices-Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package synth implements the per-sample diphone synthesis state machine
// of spec.md §4.3-§4.4: a sample-accurate tick function that spawns
// overlap-added pitch-synchronous grains from a voice.VoiceDatabase,
// crossfades between successive segments, and distinguishes sustaining
// (long) segments from transient (short) ones.
//
// This is a direct port of the canonical engine in
// original_source/python/oddvoices/synth.py's Synth class (spec.md §9
// names this, not the older Frame/PSOLA-at-render path, as the engine
// being specified), restructured per spec.md §9's design notes: segment
// identity is an integer id resolved once at Enqueue time rather than a
// string compared every tick, and the grain list is pruned in place
// instead of rebuilt.
package synth

import (
	"fmt"
	"math"

	"github.com/oddvoices-go/oddvoices/grain"
	"github.com/oddvoices-go/oddvoices/oderrs"
	"github.com/oddvoices-go/oddvoices/voice"
)

// CrossfadeLength is the fixed duration, in seconds, over which an
// outgoing segment's contribution decays to zero after a transition.
const CrossfadeLength = 0.03

// silence is the sentinel segment id standing in for voice.SilenceName in
// the queue and in Synth's current/old segment fields.
const silence = -1

// Synth is the per-sample diphone synthesis state machine. It owns all
// state for one song; construct one per voice and reuse it across the
// notes of a single score.
type Synth struct {
	db *voice.VoiceDatabase

	outputRate     float64
	sampleStepBase float64
	expectedF0     float64

	segmentID     int
	segmentTime   float64
	segmentLength float64
	segmentIsLong bool

	oldSegmentID   int
	oldSegmentTime float64

	crossfade     float64
	crossfadeRamp float64

	noteOns  int
	noteOffs int

	phase     float64
	frequency float64

	formantShift float64
	phonemeSpeed float64

	queue      []int
	grains     []*grain.Grain
	spawnCount int
}

// New constructs a Synth over db. If outputSampleRate is <= 0, it defaults
// to db's own database rate (the rate the frames were extracted at).
func New(db *voice.VoiceDatabase, outputSampleRate float64) *Synth {
	if outputSampleRate <= 0 {
		outputSampleRate = float64(db.Rate())
	}
	return &Synth{
		db:             db,
		outputRate:     outputSampleRate,
		sampleStepBase: float64(db.Rate()) / outputSampleRate,
		expectedF0:     db.ExpectedF0(),
		segmentID:      silence,
		oldSegmentID:   silence,
		formantShift:   1.0,
		phonemeSpeed:   1.0,
	}
}

// OutputRate is the sample rate this Synth renders at.
func (s *Synth) OutputRate() float64 {
	return s.outputRate
}

// Enqueue appends a segment to the playback queue. name may be
// voice.SilenceName ("-") for a silence slot, spanning phrases and gating
// note-on consumption; any other name must exist in the database.
func (s *Synth) Enqueue(name string) error {
	if name == voice.SilenceName {
		s.queue = append(s.queue, silence)
		return nil
	}
	idx, ok := s.db.SegmentIndex(name)
	if !ok {
		return fmt.Errorf("%w: %q", oderrs.ErrUnknownSegment, name)
	}
	s.queue = append(s.queue, idx)
	return nil
}

// NoteOn registers a pending note-on at the given frequency in Hz. Each
// note-on is consumed by one segment transition (spec.md §4.4.1 step 2).
func (s *Synth) NoteOn(frequency float64) {
	s.noteOns++
	s.frequency = frequency
}

// NoteOff registers a pending note-off. Only long (sustaining) segments
// react to it; short/transient segments ignore note-off and advance on
// their own natural length.
func (s *Synth) NoteOff() {
	s.noteOffs++
}

// SetFormantShift scales the grain wavetable read rate without affecting
// the grain spawn rate (pitch). 1.0 is neutral; it is the default.
func (s *Synth) SetFormantShift(x float64) {
	s.formantShift = x
}

// SetPhonemeSpeed scales how fast segment_time advances, stretching or
// compressing a segment's natural duration. 1.0 is neutral; it is the
// default. Per spec.md §9's open question, this applies to segment_time
// only, not old_segment_time — see DESIGN.md.
func (s *Synth) SetPhonemeSpeed(x float64) {
	s.phonemeSpeed = x
}

// IsActive reports whether the current segment is not silence.
func (s *Synth) IsActive() bool {
	return s.segmentID != silence
}

// Process produces one output sample and advances all state by
// 1/OutputRate seconds. It is total: while no segment is active and no
// note-on is pending it returns exactly 0, and it never returns an error —
// malformed input is rejected earlier, by Enqueue or by the score package.
//
// The seven steps below execute in the exact order spec.md §4.4.1
// requires; reordering them shifts transition timing by a sample and
// breaks the crossfade tests (see spec.md §9's design notes).
func (s *Synth) Process() float64 {
	// 1. Idle short-circuit.
	if !s.IsActive() && s.noteOns == 0 {
		return 0
	}

	// 2. Start phrase.
	if !s.IsActive() && s.noteOns > 0 {
		if len(s.queue) == 0 {
			return 0
		}
		s.noteOns--
		s.beginNew(s.popQueue())
	}

	// 3. Advance on note-off (long segments only).
	if s.IsActive() && s.noteOffs > 0 && s.segmentIsLong {
		s.noteOffs--
		s.beginNew(s.popQueue())
	}

	// 4. Natural advance.
	if s.segmentTime >= s.segmentLength-CrossfadeLength {
		if s.segmentIsLong {
			s.segmentTime = 0
		} else {
			s.beginNew(s.popQueue())
		}
	}

	// 5. Grain spawning.
	if s.phase >= 1 {
		if s.IsActive() {
			s.spawnGrain()
		}
		s.phase -= 1
	}

	// 6. Clock advance.
	dt := 1.0 / s.outputRate
	s.oldSegmentTime += dt
	s.segmentTime += dt * s.phonemeSpeed
	s.crossfade = math.Max(0, s.crossfade+s.crossfadeRamp)
	s.phase += s.frequency / s.outputRate

	// 7. Mix: drop grains that finished on a prior tick, then sum the rest.
	alive := s.grains[:0]
	for _, g := range s.grains {
		if g.Playing() {
			alive = append(alive, g)
		}
	}
	s.grains = alive

	var result float64
	for _, g := range s.grains {
		result += g.Process()
	}
	return result
}

// popQueue pops the head of the queue, or returns silence if it is empty.
func (s *Synth) popQueue() int {
	if len(s.queue) == 0 {
		return silence
	}
	next := s.queue[0]
	s.queue = s.queue[1:]
	return next
}

// beginNew implements the SegmentCursor transition of spec.md §4.3:
// swap current into old, reset segment_time, look up the new segment's
// length and long flag, and install a fresh outgoing crossfade ramp.
//
// The ramp is set to 1 decaying at -1/(CrossfadeLength*outputRate) on
// every call; there is no separate "very first call" branch because, in
// the canonical source, the construction-time call this is meant to
// distinguish never reaches the crossfade assignment at all (it returns
// early on an empty queue) — see DESIGN.md's Open Question Decisions.
func (s *Synth) beginNew(next int) {
	s.oldSegmentID = s.segmentID
	s.oldSegmentTime = s.segmentTime

	s.segmentID = next
	s.segmentTime = 0

	if next == silence {
		s.segmentLength = 0
		s.segmentIsLong = false
	} else {
		seg, _ := s.db.SegmentByIndex(next)
		s.segmentLength = float64(seg.NumFrames) / s.expectedF0
		s.segmentIsLong = seg.Long
	}

	s.crossfade = 1
	s.crossfadeRamp = -1 / (CrossfadeLength * s.outputRate)
}

// spawnGrain implements spec.md §4.4.2: sample the current (and, while
// crossfading, outgoing) segment's frame table at the moment of spawn and
// append a new grain.
func (s *Synth) spawnGrain() {
	if !s.IsActive() {
		return
	}

	cur, _ := s.db.SegmentByIndex(s.segmentID)
	frameIndex := int(math.Floor(s.segmentTime * s.expectedF0))
	frame := cur.Frame(frameIndex)

	var oldFrame []int16
	if s.oldSegmentID != silence {
		old, _ := s.db.SegmentByIndex(s.oldSegmentID)
		oldFrameIndex := int(math.Floor(s.oldSegmentTime * s.expectedF0))
		oldFrame = old.Frame(oldFrameIndex)
	}

	step := s.sampleStepBase * s.formantShift
	s.grains = append(s.grains, grain.New(frame, oldFrame, cur.GrainLength, s.crossfade, step))
	s.spawnCount++
}

// NumGrains reports the number of grains currently live, exposed for
// resource-policy tests (spec.md §5's steady-state bound).
func (s *Synth) NumGrains() int {
	return len(s.grains)
}

// SpawnCount reports the total number of grains spawned over this Synth's
// lifetime, exposed so tests can confirm the spawn cadence (driven by
// frequency/outputRate alone) is unaffected by formant shift.
func (s *Synth) SpawnCount() int {
	return s.spawnCount
}

// Crossfade exposes the current crossfade scalar, used by tests asserting
// spec.md §8's 0 <= crossfade <= 1 invariant.
func (s *Synth) Crossfade() float64 {
	return s.crossfade
}
