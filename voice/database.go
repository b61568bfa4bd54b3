// Copyright (c) 2024, The Oddvoices-Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package voice

// VoiceDatabase is the in-memory form of a voice file: an ordered segment
// list, a name index over it, and the rate/grain-length/expected-f0 the
// frames were extracted at. It is built once and is immutable for the
// remainder of its lifetime, so it may be shared read-only across any
// number of concurrently running Synths.
type VoiceDatabase struct {
	// Phonemes is the phoneme inventory declared by the voice file. It is
	// descriptive metadata only; the core engine never consults it (that's
	// a frontend/pronunciation concern).
	Phonemes []string

	names    []string // segments_list, in file order
	index    map[string]int
	segments []Segment // parallel to names

	rate        int
	grainLength int
	expectedF0  float64
}

// SegmentIndex returns the ordinal position of name in segments_list.
func (db *VoiceDatabase) SegmentIndex(name string) (int, bool) {
	i, ok := db.index[name]
	return i, ok
}

// SegmentName returns the name at ordinal position i in segments_list.
func (db *VoiceDatabase) SegmentName(i int) (string, bool) {
	if i < 0 || i >= len(db.names) {
		return "", false
	}
	return db.names[i], true
}

// SegmentByIndex returns the segment at ordinal position i.
func (db *VoiceDatabase) SegmentByIndex(i int) (*Segment, bool) {
	if i < 0 || i >= len(db.segments) {
		return nil, false
	}
	return &db.segments[i], true
}

// SegmentByName returns the segment named name.
func (db *VoiceDatabase) SegmentByName(name string) (*Segment, bool) {
	i, ok := db.index[name]
	if !ok {
		return nil, false
	}
	return &db.segments[i], true
}

// NumSegments is len(segments_list).
func (db *VoiceDatabase) NumSegments() int {
	return len(db.names)
}

// GrainLength is the fixed per-frame sample count for every segment in
// this database.
func (db *VoiceDatabase) GrainLength() int {
	return db.grainLength
}

// Rate is the sample rate the frames were extracted at (the "database
// rate"), independent of whatever output rate a Synth renders at.
func (db *VoiceDatabase) Rate() int {
	return db.rate
}

// ExpectedF0 is rate / (grain_length/2), the fundamental frequency the
// grain table was tuned for.
func (db *VoiceDatabase) ExpectedF0() float64 {
	return db.expectedF0
}

// SegmentSpec describes one segment for New, independent of the on-disk
// layout Load parses.
type SegmentSpec struct {
	Name      string
	NumFrames int
	Long      bool
	Frames    []int16 // NumFrames*grainLength samples, row-major
}

// New builds a VoiceDatabase directly from in-memory segment data, without
// going through the Load/Write binary format. This is the path embedders
// and tests use to construct a database programmatically; Load remains
// the path for voice files read from disk.
func New(phonemes []string, rate, grainLength int, segs []SegmentSpec) *VoiceDatabase {
	db := &VoiceDatabase{
		Phonemes:    phonemes,
		rate:        rate,
		grainLength: grainLength,
		expectedF0:  float64(rate) / (float64(grainLength) / 2),
		index:       make(map[string]int, len(segs)),
	}
	for _, s := range segs {
		db.index[s.Name] = len(db.names)
		db.names = append(db.names, s.Name)
		db.segments = append(db.segments, Segment{
			Name:        s.Name,
			NumFrames:   s.NumFrames,
			Long:        s.Long,
			GrainLength: grainLength,
			Frames:      s.Frames,
		})
	}
	return db
}
