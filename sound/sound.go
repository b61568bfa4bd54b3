// Copyright (c) 2024, The Oddvoices-Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package sound

// Wave adapts the teacher's WAV loader for a narrower job: reading a
// reference recording back in as a flat float32 buffer so it can be
// compared, via specanalysis, against audio a synth.Synth rendered. The
// windowed-segmentation/silence-trimming machinery the teacher built on
// top of this loader (for auditory-filterbank framing) has no counterpart
// here and is not carried — see DESIGN.md.

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/go-audio/audio"
	"github.com/go-audio/wav"
)

type Wave struct {
	Decoder *wav.Decoder
	file    *os.File
}

// Load opens filename and decodes its WAV header. The caller must call
// Close when done with it.
func (snd *Wave) Load(filename string) error {
	f, err := os.Open(filename)
	if err != nil {
		return fmt.Errorf("sound: open %s: %w", filename, err)
	}
	snd.Decoder = wav.NewDecoder(f)
	snd.file = f

	if !snd.Decoder.IsValidFile() {
		f.Close()
		return errors.New("sound: invalid wav file")
	}
	return nil
}

// Close releases the underlying file handle.
func (snd *Wave) Close() error {
	if snd.file == nil {
		return nil
	}
	return snd.file.Close()
}

// SampleRate returns the sound's sample rate, or 0 if nothing is loaded.
func (snd *Wave) SampleRate() int {
	if snd == nil || snd.Decoder == nil {
		return 0
	}
	return int(snd.Decoder.SampleRate)
}

// Channels returns the number of channels in the wav data.
func (snd *Wave) Channels() int {
	if snd == nil || snd.Decoder == nil {
		return 0
	}
	return int(snd.Decoder.NumChans)
}

// Duration returns the sound's duration, or 0 if it cannot be determined.
func (snd *Wave) Duration() time.Duration {
	if snd == nil || snd.Decoder == nil {
		return 0
	}
	d, err := snd.Decoder.Duration()
	if err != nil {
		return 0
	}
	return d
}

// Samples decodes the full buffer and returns channel's samples (0 for
// the first channel) normalized to [-1, 1] as float32.
func (snd *Wave) Samples(channel int) ([]float32, error) {
	buf, err := snd.Decoder.FullPCMBuffer()
	if err != nil {
		return nil, fmt.Errorf("sound: decode pcm: %w", err)
	}

	channels := snd.Channels()
	nFrames := buf.NumFrames()
	out := make([]float32, nFrames)
	for i := 0; i < nFrames; i++ {
		out[i] = floatAt(buf, i*channels+channel)
	}
	return out, nil
}

func floatAt(buf *audio.IntBuffer, idx int) float32 {
	switch buf.SourceBitDepth {
	case 32:
		return float32(buf.Data[idx]) / float32(0x7FFFFFFF)
	case 24:
		return float32(buf.Data[idx]) / float32(0x7FFFFF)
	case 16:
		return float32(buf.Data[idx]) / float32(0x7FFF)
	case 8:
		return float32(buf.Data[idx]) / float32(0x7F)
	default:
		return 0
	}
}
