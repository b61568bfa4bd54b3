// Copyright (c) 2024, The Oddvoices-Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package voice

// This file implements spec.md §6.1's binary voice file format: a direct
// port of the struct.pack/struct.unpack layout in
// original_source/src/oddvoices/corpus.py's write_voice_file_header /
// write_voice_file / read_voice_file_header / read_voice_file.

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"io"

	"github.com/oddvoices-go/oddvoices/oderrs"
)

// Magic is the 12-byte word every voice file opens with.
const Magic = "ODDVOICES\x00\x00\x00"

// maxNameLen is the longest phoneme or segment name the format allows
// (not counting the zero terminator).
const maxNameLen = 255

// Load parses the binary format described in spec.md §6.1. It fails with
// oderrs.ErrInvalidVoice when the magic word mismatches, a name exceeds
// maxNameLen bytes without a terminator, or the frame payload is short.
func Load(data []byte) (*VoiceDatabase, error) {
	r := bytes.NewReader(data)

	magic := make([]byte, len(Magic))
	if _, err := io.ReadFull(r, magic); err != nil {
		return nil, fmt.Errorf("%w: truncated magic: %v", oderrs.ErrInvalidVoice, err)
	}
	if string(magic) != Magic {
		return nil, fmt.Errorf("%w: bad magic word", oderrs.ErrInvalidVoice)
	}

	var rate, grainLength int32
	if err := binary.Read(r, binary.LittleEndian, &rate); err != nil {
		return nil, fmt.Errorf("%w: truncated rate: %v", oderrs.ErrInvalidVoice, err)
	}
	if err := binary.Read(r, binary.LittleEndian, &grainLength); err != nil {
		return nil, fmt.Errorf("%w: truncated grain_length: %v", oderrs.ErrInvalidVoice, err)
	}

	var phonemes []string
	for {
		name, err := readString(r)
		if err != nil {
			return nil, err
		}
		if name == "" {
			break
		}
		phonemes = append(phonemes, name)
	}

	type segmentHeader struct {
		name      string
		numFrames int32
		long      int32
	}
	var headers []segmentHeader
	for {
		name, err := readString(r)
		if err != nil {
			return nil, err
		}
		if name == "" {
			break
		}
		var numFrames, long int32
		if err := binary.Read(r, binary.LittleEndian, &numFrames); err != nil {
			return nil, fmt.Errorf("%w: truncated num_frames for %q: %v", oderrs.ErrInvalidVoice, name, err)
		}
		if err := binary.Read(r, binary.LittleEndian, &long); err != nil {
			return nil, fmt.Errorf("%w: truncated long flag for %q: %v", oderrs.ErrInvalidVoice, name, err)
		}
		headers = append(headers, segmentHeader{name, numFrames, long})
	}

	db := &VoiceDatabase{
		Phonemes:    phonemes,
		rate:        int(rate),
		grainLength: int(grainLength),
		expectedF0:  float64(rate) / (float64(grainLength) / 2),
		index:       make(map[string]int, len(headers)),
	}

	for _, h := range headers {
		if _, exists := db.index[h.name]; exists {
			return nil, fmt.Errorf("%w: duplicate segment name %q", oderrs.ErrInvalidVoice, h.name)
		}

		raw := make([]int16, int(h.numFrames)*int(grainLength))
		if err := binary.Read(r, binary.LittleEndian, raw); err != nil {
			return nil, fmt.Errorf("%w: truncated frame payload for %q: %v", oderrs.ErrInvalidVoice, h.name, err)
		}

		db.index[h.name] = len(db.names)
		db.names = append(db.names, h.name)
		db.segments = append(db.segments, Segment{
			Name:        h.name,
			NumFrames:   int(h.numFrames),
			Long:        h.long != 0,
			GrainLength: int(grainLength),
			Frames:      raw,
		})
	}

	return db, nil
}

// Write serializes db back into the §6.1 format. Round-tripping Load then
// Write then Load again yields byte-identical frames, num_frames, long
// flags, segment order, phoneme list, rate and grain_length.
func Write(w io.Writer, db *VoiceDatabase) error {
	if _, err := w.Write([]byte(Magic)); err != nil {
		return err
	}
	if err := binary.Write(w, binary.LittleEndian, int32(db.rate)); err != nil {
		return err
	}
	if err := binary.Write(w, binary.LittleEndian, int32(db.grainLength)); err != nil {
		return err
	}

	for _, p := range db.Phonemes {
		if err := writeString(w, p); err != nil {
			return err
		}
	}
	if err := writeString(w, ""); err != nil {
		return err
	}

	for _, seg := range db.segments {
		if err := writeString(w, seg.Name); err != nil {
			return err
		}
		if err := binary.Write(w, binary.LittleEndian, int32(seg.NumFrames)); err != nil {
			return err
		}
		long := int32(0)
		if seg.Long {
			long = 1
		}
		if err := binary.Write(w, binary.LittleEndian, long); err != nil {
			return err
		}
	}
	if err := writeString(w, ""); err != nil {
		return err
	}

	for _, seg := range db.segments {
		if err := binary.Write(w, binary.LittleEndian, seg.Frames); err != nil {
			return err
		}
	}
	return nil
}

func readString(r io.ByteReader) (string, error) {
	var buf []byte
	for {
		b, err := r.ReadByte()
		if err != nil {
			return "", fmt.Errorf("%w: unterminated string: %v", oderrs.ErrInvalidVoice, err)
		}
		if b == 0 {
			return string(buf), nil
		}
		buf = append(buf, b)
		if len(buf) > maxNameLen {
			return "", fmt.Errorf("%w: name exceeds %d bytes", oderrs.ErrInvalidVoice, maxNameLen)
		}
	}
}

func writeString(w io.Writer, s string) error {
	if len(s) > maxNameLen {
		return fmt.Errorf("%w: name %q exceeds %d bytes", oderrs.ErrInvalidVoice, s, maxNameLen)
	}
	if _, err := io.WriteString(w, s); err != nil {
		return err
	}
	_, err := w.Write([]byte{0})
	return err
}
