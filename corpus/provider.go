// Package corpus provides access to labeled beat-tracking datasets: track
// listings, audio file paths, reference beat annotations and per-track
// metadata (genre, tempo). The loaded dataset is an explicit immutable
// handle passed to callers, never ambient state.
package corpus

import (
	"errors"

	"github.com/RyanBlaney/sonido-pulso/beat"
)

// ErrCorpusNotFound reports a root path without the expected dataset
// layout. Fatal at startup: there are no tracks to process.
var ErrCorpusNotFound = errors.New("corpus not found")

// Provider yields the contents of one dataset version.
type Provider interface {
	// TrackIDs lists every track identifier, in stable order
	TrackIDs() []string

	// AudioPath returns the audio file path for a track
	AudioPath(trackID string) (string, error)

	// ReferenceBeats returns the human-annotated beat times in seconds
	// for a track. An error means the track has no usable annotation.
	ReferenceBeats(trackID string) (beat.BeatSequence, error)

	// Genre returns the genre label of a track, reporting whether one
	// is known
	Genre(trackID string) (string, bool)

	// Tempo returns the annotated tempo in BPM of a track, reporting
	// whether one is known
	Tempo(trackID string) (float64, bool)
}
