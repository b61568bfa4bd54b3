// Copyright (c) 2024, The Oddvoices-Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package score turns a note-and-lyrics score into the segment-queue and
// note-on/note-off sequence a synth.Synth consumes, per spec.md §4.5-§4.6.
//
// This is grounded directly on
// original_source/python/oddvoices/synth.py's module-level
// phonemes_to_segments/get_trim_amount/calculate_auto_trim_amounts/sing
// functions, which in the canonical source live alongside Synth itself
// rather than in a separate module; they are split out here because
// spec.md §2 treats segment resolution and score playback as their own
// concern, independent of the tick engine.
package score

import "github.com/oddvoices-go/oddvoices/voice"

// Vowels lists the vowel phonemes (including diphthongs) recognized when
// locating a syllable's nucleus for auto-trim, per phonology.py's VOWELS.
var Vowels = map[string]bool{
	"{}": true, "@`": true, "A": true, "I": true, "E": true, "@": true,
	"u": true, "U": true, "i": true,
	"oU": true, "eI": true, "aI": true, "OI": true, "aU": true,
}

// silenceBreak is the phoneme-stream sentinel marking a syllable boundary,
// identical in spelling to voice.SilenceName but a distinct concept: here
// it separates runs of phonemes, not segments.
const silenceBreak = "-"

// ExpandPhonemes resolves a flat phoneme stream into the ordered sequence
// of segment names a Synth queue expects: for each adjacent pair, the
// first phoneme's own segment when the database has one, then the
// diphone when the database has one, or else the "phoneme_" / "_phoneme"
// transition stubs the voice corpus provides for syllable and utterance
// boundaries. The last phoneme contributes no bare segment of its own.
//
// This is a port of phonemes_to_segments. A phoneme list shorter than 2
// entries yields no segments; no error is reported.
func ExpandPhonemes(db *voice.VoiceDatabase, phonemes []string) []string {
	var segments []string
	for i := 0; i < len(phonemes)-1; i++ {
		syllableBreak := false

		phoneme1 := phonemes[i]
		if _, ok := db.SegmentIndex(phoneme1); ok {
			segments = append(segments, phoneme1)
		}

		j := i + 1
		phoneme2 := phonemes[j]
		for phoneme2 == silenceBreak && j < len(phonemes)-1 {
			syllableBreak = true
			j++
			phoneme2 = phonemes[j]
		}

		diphone := phoneme1 + phoneme2
		if _, ok := db.SegmentIndex(diphone); ok {
			segments = append(segments, diphone)
			if syllableBreak {
				segments = append(segments, silenceBreak)
			}
			continue
		}

		if _, ok := db.SegmentIndex(phoneme1 + "_"); ok {
			segments = append(segments, phoneme1+"_")
		}
		if syllableBreak {
			segments = append(segments, silenceBreak)
		}
		if _, ok := db.SegmentIndex("_" + phoneme2); ok {
			segments = append(segments, "_"+phoneme2)
		}
	}
	return segments
}

// segmentLength returns a segment's natural duration in seconds
// (num_frames / expected_f0, the same quantity synth.Synth uses for its
// own natural-advance check) minus crossfadeLength, or 0 for a name not
// in db.
func segmentLength(db *voice.VoiceDatabase, name string, crossfadeLength float64) float64 {
	seg, ok := db.SegmentByName(name)
	if !ok {
		return 0
	}
	return float64(seg.NumFrames)/db.ExpectedF0() - crossfadeLength
}

// trimAmount sums the natural duration (minus crossfade overlap) of every
// segment in syllable after its vowel nucleus: the portion of a note's
// tail a singer would normally hold on the vowel but which the diphone
// data already accounts for as transition material, not sustain.
func trimAmount(db *voice.VoiceDatabase, syllable []string, crossfadeLength float64) float64 {
	vowelIndex := 0
	for i, seg := range syllable {
		if Vowels[seg] {
			vowelIndex = i
		}
	}
	var total float64
	for _, seg := range syllable[vowelIndex+1:] {
		total += segmentLength(db, seg, crossfadeLength)
	}
	return total
}

// AutoTrim computes, for each syllable implied by phonemes (runs of
// segments separated by silenceBreak), how much of that syllable's note
// should be trimmed from sustain and spent on trailing consonant
// transitions instead — the trim field a Note otherwise has to supply by
// hand. It is never called by Synth or by Render; callers that want this
// behavior wire it in themselves, matching how calculate_auto_trim_amounts
// is a standalone helper the original frontend opts into, not something
// Synth.process depends on.
func AutoTrim(db *voice.VoiceDatabase, phonemes []string, crossfadeLength float64) []float64 {
	segments := ExpandPhonemes(db, phonemes)

	var amounts []float64
	var syllable []string
	for _, seg := range segments {
		if seg == silenceBreak {
			if len(syllable) != 0 {
				amounts = append(amounts, trimAmount(db, syllable, crossfadeLength))
			}
			syllable = nil
			continue
		}
		syllable = append(syllable, seg)
	}
	if len(syllable) != 0 {
		amounts = append(amounts, trimAmount(db, syllable, crossfadeLength))
	}
	return amounts
}
