// Copyright (c) 2024, The Oddvoices-Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package sound

// PlayPCM adapts the teacher's PlayWav/Play (which decoded a .wav file
// from disk) into a streamer for audio that is already in memory: the
// mono float32 output of a score.SingDriver.Render, with no file or
// ebiten wav decoder involved.

import (
	"encoding/binary"
	"io"
	"runtime"
	"sync"

	"github.com/hajimehoshi/oto"
)

// PlayPCM streams mono float32 samples (in [-1, 1], as rendered by
// score.SingDriver.Render) through the system's audio output at rate Hz,
// blocking until playback finishes.
func PlayPCM(samples []float32, rate int) error {
	const channels = 1
	const bitDepth = 2 // bytes per sample, oto's int16 frame format

	c, err := oto.NewContext(rate, channels, bitDepth, 4096)
	if err != nil {
		return err
	}

	pcm := make([]byte, len(samples)*2)
	for i, s := range samples {
		v := int16(clamp(s) * 32767)
		binary.LittleEndian.PutUint16(pcm[i*2:], uint16(v))
	}

	var wg sync.WaitGroup
	var playErr error
	wg.Add(1)
	go func() {
		defer wg.Done()
		p := c.NewPlayer()
		if _, err := io.Copy(p, &byteReader{pcm}); err != nil {
			playErr = err
			return
		}
		playErr = p.Close()
	}()
	wg.Wait()

	runtime.KeepAlive(c)
	c.Close()
	return playErr
}

func clamp(s float32) float32 {
	if s > 1 {
		return 1
	}
	if s < -1 {
		return -1
	}
	return s
}

// byteReader adapts an in-memory PCM buffer to io.Reader.
type byteReader struct {
	buf []byte
}

func (r *byteReader) Read(p []byte) (int, error) {
	if len(r.buf) == 0 {
		return 0, io.EOF
	}
	n := copy(p, r.buf)
	r.buf = r.buf[n:]
	return n, nil
}
