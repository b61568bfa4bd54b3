// Copyright (c) 2024, The Oddvoices-Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package score

import (
	"fmt"

	"github.com/oddvoices-go/oddvoices/oderrs"
	"github.com/oddvoices-go/oddvoices/synth"
	"github.com/oddvoices-go/oddvoices/voice"
)

// Note is one sung note: a frequency held for duration seconds, of which
// the final trim seconds are rendered after NoteOff fires rather than
// before it. This mirrors the per-note dict sing() builds in the
// canonical source (frequency/duration/trim), flattened into a struct.
// FormantShift and PhonemeSpeed are optional per spec.md §6.2: a zero
// value means "not set" and Render substitutes the neutral value of 1.0,
// since 0 itself is never a meaningful formant shift or phoneme speed.
type Note struct {
	Frequency    float64
	Duration     float64
	Trim         float64
	FormantShift float64
	PhonemeSpeed float64
}

// Score is a fully resolved phrase: the segment queue a Synth should play
// and the notes driving it. Segments and Notes are independent lists —
// there is no one-to-one correspondence between them, since a single
// sung syllable can span several segments (onset consonant, diphone,
// coda) while occupying one Note.
type Score struct {
	Segments []string
	Notes    []Note
}

// NewFromPhonemes builds a Score by resolving phonemes into segments via
// ExpandPhonemes and pairing the result with notes supplied directly
// (frequency/duration/trim already decided by the caller). It does not
// call AutoTrim; the notes' Trim values are used as given.
func NewFromPhonemes(db *voice.VoiceDatabase, phonemes []string, notes []Note) *Score {
	return &Score{
		Segments: ExpandPhonemes(db, phonemes),
		Notes:    notes,
	}
}

// Validate reports whether every segment sc.Segments names either
// voice.SilenceName or a segment present in db, and whether every note
// has a non-negative duration and a trim no larger than its duration.
func (sc *Score) Validate(db *voice.VoiceDatabase) error {
	for _, name := range sc.Segments {
		if name == voice.SilenceName {
			continue
		}
		if _, ok := db.SegmentIndex(name); !ok {
			return fmt.Errorf("%w: segment %q not in voice database", oderrs.ErrUnknownSegment, name)
		}
	}
	for i, n := range sc.Notes {
		if n.Frequency < 0 {
			return fmt.Errorf("%w: note %d has negative frequency %v", oderrs.ErrInvalidScore, i, n.Frequency)
		}
		if n.Duration < 0 {
			return fmt.Errorf("%w: note %d has negative duration %v", oderrs.ErrInvalidScore, i, n.Duration)
		}
		if n.Trim < 0 || n.Trim > n.Duration {
			return fmt.Errorf("%w: note %d has trim %v outside [0, duration=%v]", oderrs.ErrInvalidScore, i, n.Trim, n.Duration)
		}
	}
	return nil
}

// SingDriver renders a Score against one Synth, matching the module-level
// sing(synth, music) function of the canonical source: enqueue every
// segment up front, then for each note hold note-on for duration-trim
// seconds, fire note-off, and hold for the remaining trim seconds.
type SingDriver struct {
	s  *synth.Synth
	db *voice.VoiceDatabase
}

// NewSingDriver builds a driver rendering onto s, whose database is db
// (used only for Score.Validate's segment lookups, not by the render loop
// itself).
func NewSingDriver(s *synth.Synth, db *voice.VoiceDatabase) *SingDriver {
	return &SingDriver{s: s, db: db}
}

// Render enqueues sc's segments and plays its notes to completion,
// returning the rendered samples at s.OutputRate(). FormantShift and
// PhonemeSpeed, if left at 0 on a Note, fall back to the neutral value of
// 1.0 exactly as spec.md §4.5 step 1 requires, applied before each
// note-on.
func (d *SingDriver) Render(sc *Score) ([]float32, error) {
	if err := sc.Validate(d.db); err != nil {
		return nil, err
	}

	for _, name := range sc.Segments {
		if err := d.s.Enqueue(name); err != nil {
			return nil, err
		}
	}

	rate := d.s.OutputRate()
	var out []float32

	for _, n := range sc.Notes {
		formantShift := n.FormantShift
		if formantShift == 0 {
			formantShift = 1.0
		}
		phonemeSpeed := n.PhonemeSpeed
		if phonemeSpeed == 0 {
			phonemeSpeed = 1.0
		}
		d.s.SetFormantShift(formantShift)
		d.s.SetPhonemeSpeed(phonemeSpeed)

		d.s.NoteOn(n.Frequency)

		sustainTicks := int((n.Duration - n.Trim) * rate)
		for i := 0; i < sustainTicks; i++ {
			out = append(out, float32(d.s.Process()))
		}

		d.s.NoteOff()

		trimTicks := int(n.Trim * rate)
		for i := 0; i < trimTicks; i++ {
			out = append(out, float32(d.s.Process()))
		}
	}

	return out, nil
}
