package synth

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"

	"github.com/oddvoices-go/oddvoices/specanalysis"
	"github.com/oddvoices-go/oddvoices/voice"
)

// buildDB constructs a tiny synthetic database directly (mirroring
// voice/format_test.go's newTestDatabase) rather than round-tripping
// through the binary format, since this package only needs a db to drive
// a Synth, not to exercise the codec. Segment 0 is "h" (short), 1 is "hE"
// (short), 2 is "E" (long); silence is never stored as a segment — it is
// the sentinel synth.silence handles internally.
func buildDB() *voice.VoiceDatabase {
	return voice.New(
		[]string{"h", "E"},
		48000,
		4,
		[]voice.SegmentSpec{
			{Name: "h", NumFrames: 1, Long: false, Frames: []int16{100, 200, 300, 400}},
			{Name: "hE", NumFrames: 2, Long: false, Frames: []int16{500, 600, 700, 800, 900, 1000, 1100, 1200}},
			{Name: "E", NumFrames: 4, Long: true, Frames: []int16{
				1000, 2000, 3000, 4000,
				1000, 2000, 3000, 4000,
				1000, 2000, 3000, 4000,
				1000, 2000, 3000, 4000,
			}},
		},
	)
}

func TestSynthSilentUntilNoteOnAndQueue(t *testing.T) {
	s := New(buildDB(), 48000)
	for i := 0; i < 100; i++ {
		assert.Equal(t, 0.0, s.Process())
	}
	assert.False(t, s.IsActive())
}

func TestSynthStaysSilentOnNoteOnWithEmptyQueue(t *testing.T) {
	s := New(buildDB(), 48000)
	s.NoteOn(200)
	for i := 0; i < 10; i++ {
		assert.Equal(t, 0.0, s.Process())
	}
	assert.False(t, s.IsActive(), "a note-on with nothing queued must not activate the synth")
}

func TestSynthBecomesActiveAfterNoteOnWithQueuedSegment(t *testing.T) {
	s := New(buildDB(), 48000)
	require.NoError(t, s.Enqueue("h"))
	s.NoteOn(200)
	s.Process()
	assert.True(t, s.IsActive())
}

func TestSynthShortSegmentAdvancesWithoutNoteOff(t *testing.T) {
	s := New(buildDB(), 48000)
	require.NoError(t, s.Enqueue("h"))
	require.NoError(t, s.Enqueue("hE"))
	s.NoteOn(200)

	sawSecond := false
	for i := 0; i < int(48000*0.5); i++ {
		s.Process()
		if s.segmentID == 1 { // "hE"
			sawSecond = true
			break
		}
	}
	assert.True(t, sawSecond, "a short segment must advance to the next queued segment on its own")
}

func TestSynthLongSegmentSustainsUntilNoteOff(t *testing.T) {
	s := New(buildDB(), 48000)
	require.NoError(t, s.Enqueue("E"))
	s.NoteOn(200)

	for i := 0; i < int(48000*0.2); i++ {
		s.Process()
	}
	assert.True(t, s.IsActive(), "a long segment must not advance on its own")
	assert.Equal(t, 2, s.segmentID)

	s.NoteOff()
	advanced := false
	for i := 0; i < 10; i++ {
		s.Process()
		if !s.IsActive() {
			advanced = true
			break
		}
	}
	assert.True(t, advanced, "note-off on an empty queue must return the synth to idle")
}

func TestSynthCrossfadeStaysInUnitRange(t *testing.T) {
	s := New(buildDB(), 48000)
	require.NoError(t, s.Enqueue("h"))
	require.NoError(t, s.Enqueue("hE"))
	require.NoError(t, s.Enqueue("E"))
	s.NoteOn(220)

	for i := 0; i < 48000; i++ {
		s.Process()
		assert.GreaterOrEqual(t, s.Crossfade(), 0.0)
		assert.LessOrEqual(t, s.Crossfade(), 1.0)
	}
}

// TestSynthFormantShiftLeavesPitchRateAlone checks the grain-spawn cadence
// (driven by frequency/outputRate alone) is identical whether or not
// formant shift is applied; only the per-grain wavetable read rate
// changes, which in turn shortens each grain's own lifetime but never
// the rate at which new grains are spawned.
func TestSynthFormantShiftLeavesPitchRateAlone(t *testing.T) {
	base := New(buildDB(), 48000)
	shifted := New(buildDB(), 48000)
	shifted.SetFormantShift(2.0)

	require.NoError(t, base.Enqueue("E"))
	require.NoError(t, shifted.Enqueue("E"))
	base.NoteOn(220)
	shifted.NoteOn(220)

	for i := 0; i < 4800; i++ {
		base.Process()
		shifted.Process()
	}
	assert.Equal(t, base.SpawnCount(), shifted.SpawnCount(), "formant shift must not change grain spawn cadence")
}

func TestSynthPropertyNeverPanicsAndStaysBounded(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		s := New(buildDB(), 48000)

		names := []string{"h", "hE", "E", "-"}
		n := rapid.IntRange(0, 8).Draw(rt, "num_segments")
		for i := 0; i < n; i++ {
			name := rapid.SampledFrom(names).Draw(rt, "segment")
			require.NoError(rt, s.Enqueue(name))
		}

		ticks := rapid.IntRange(0, 2000).Draw(rt, "ticks")
		for i := 0; i < ticks; i++ {
			if rapid.Float64Range(0, 1).Draw(rt, "note_on_roll") < 0.01 {
				s.NoteOn(rapid.Float64Range(80, 880).Draw(rt, "freq"))
			}
			if rapid.Float64Range(0, 1).Draw(rt, "note_off_roll") < 0.01 {
				s.NoteOff()
			}
			sample := s.Process()
			require.GreaterOrEqual(rt, sample, -1.5)
			require.LessOrEqual(rt, sample, 1.5)
			require.GreaterOrEqual(rt, s.Crossfade(), 0.0)
			require.LessOrEqual(rt, s.Crossfade(), 1.0)
			require.LessOrEqual(rt, s.NumGrains(), 64, "grain list must not grow without bound")
		}
	})
}

// buildFormantTestDB builds a single long segment whose wavetable frames
// each hold one cycle of a tone embedded well within the audible band, so
// that reading the table at twice the rate (formant shift 2.0) roughly
// doubles the frequency content of the rendered audio, per spec.md §8's
// S5 scenario.
func buildFormantTestDB() *voice.VoiceDatabase {
	const grainLength = 32
	const numFrames = 4

	cycle := make([]int16, grainLength)
	for i := range cycle {
		cycle[i] = int16(20000 * math.Sin(2*math.Pi*float64(i)/float64(grainLength)))
	}
	frames := make([]int16, 0, grainLength*numFrames)
	for i := 0; i < numFrames; i++ {
		frames = append(frames, cycle...)
	}

	return voice.New(
		[]string{"a"},
		48000,
		grainLength,
		[]voice.SegmentSpec{
			{Name: "a", NumFrames: numFrames, Long: true, Frames: frames},
		},
	)
}

// renderFormant renders a fixed-length buffer of the long "a" segment at
// the given formant shift.
func renderFormant(t *testing.T, formantShift float64, numSamples int) []float32 {
	t.Helper()
	db := buildFormantTestDB()
	s := New(db, 48000)
	s.SetFormantShift(formantShift)
	require.NoError(t, s.Enqueue("a"))
	s.NoteOn(150)

	out := make([]float32, numSamples)
	for i := range out {
		out[i] = float32(s.Process())
	}
	return out
}

// TestSynthFormantShiftDoublesSpectralCentroid exercises spec.md §8's S5
// scenario end to end: render the same long segment with and without a
// 2x formant shift and confirm the rendered audio's spectral centroid
// moves up by roughly the same factor, not just that grain spawn cadence
// is unaffected (that invariant is covered separately by
// TestSynthFormantShiftLeavesPitchRateAlone).
func TestSynthFormantShiftDoublesSpectralCentroid(t *testing.T) {
	const window = 4096

	base := renderFormant(t, 1.0, window)
	shifted := renderFormant(t, 2.0, window)

	baseCentroid := specanalysis.SpectralCentroid(specanalysis.Magnitude(base, window), window, 48000)
	shiftedCentroid := specanalysis.SpectralCentroid(specanalysis.Magnitude(shifted, window), window, 48000)

	require.Greater(t, baseCentroid, 0.0, "test fixture must actually produce audible content")
	assert.Greater(t, shiftedCentroid, baseCentroid, "formant shift must move the spectral centroid upward")

	ratio := shiftedCentroid / baseCentroid
	assert.InDelta(t, 2.0, ratio, 1.0, "a 2x formant shift must roughly double the spectral centroid")
}
