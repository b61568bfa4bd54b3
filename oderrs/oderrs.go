// Package oderrs holds the sentinel errors shared by the voice, synth and
// score packages, so callers can test error kinds with errors.Is regardless
// of which layer detected the problem.
package oderrs

import "errors"

var (
	// ErrInvalidVoice means a voice file's magic, strings or frame payload
	// did not match the format in spec.md §6.1.
	ErrInvalidVoice = errors.New("invalid voice file")

	// ErrUnknownSegment means a score or a Synth.Enqueue call named a
	// segment that is neither the silence name "-" nor present in the
	// voice database. Scores name segments by string; there is no
	// integer-index form of a score.
	ErrUnknownSegment = errors.New("unknown segment")

	// ErrInvalidScore means a score's notes violate §6.2 (trim > duration,
	// negative frequency/duration) independent of segment resolution.
	ErrInvalidScore = errors.New("invalid score")
)
