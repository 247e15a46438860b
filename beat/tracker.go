package beat

import (
	"math"
	"sort"

	"github.com/RyanBlaney/sonido-pulso/algorithms/common"
	"github.com/RyanBlaney/sonido-pulso/logging"
)

// BeatSequence is a strictly increasing sequence of beat times in seconds.
// It may be empty: "no beats detected" is a valid result, not a failure.
type BeatSequence []float64

// IsStrictlyIncreasing reports whether every beat time is greater than its
// predecessor
func (bs BeatSequence) IsStrictlyIncreasing() bool {
	return sort.SliceIsSorted(bs, func(i, j int) bool { return bs[i] < bs[j] }) &&
		!hasAdjacentDuplicate(bs)
}

func hasAdjacentDuplicate(bs BeatSequence) bool {
	for i := 1; i < len(bs); i++ {
		if bs[i] == bs[i-1] {
			return true
		}
	}
	return false
}

// Tracker derives discrete beat times from a PLP curve by thresholded peak
// picking. Deterministic given identical curve and configuration.
type Tracker struct {
	config *TrackerConfig
	logger logging.Logger
}

// NewTracker creates a tracker. A nil config selects DefaultTrackerConfig;
// invalid parameters fail fast with ErrInvalidArgument.
func NewTracker(config *TrackerConfig) (*Tracker, error) {
	if config == nil {
		config = DefaultTrackerConfig()
	}
	if err := config.Validate(); err != nil {
		return nil, err
	}

	return &Tracker{
		config: config,
		logger: logging.GetGlobalLogger().WithFields(logging.Fields{"component": "beat_tracker"}),
	}, nil
}

// Config returns the tracker configuration
func (t *Tracker) Config() *TrackerConfig {
	return t.config
}

// Track locates local maxima of the PLP curve above the relative threshold,
// deduplicates peaks closer than the minimum inter-beat interval keeping
// the higher-magnitude one, and maps the surviving indices to seconds via
// the curve's own grid.
func (t *Tracker) Track(plp NoveltyCurve) (BeatSequence, error) {
	values := plp.Values
	if len(values) == 0 {
		return BeatSequence{}, nil
	}

	peak := common.Max(values)
	if peak <= 0 {
		// All-zero curve: silence, no beats
		return BeatSequence{}, nil
	}

	threshold := t.config.PeakThreshold * peak

	candidates := localMaxima(values, threshold)
	if len(candidates) == 0 {
		return BeatSequence{}, nil
	}

	minSeparation := int(math.Round(t.config.MinBeatIntervalSec * plp.FrameRate()))
	selected := dedupePeaks(values, candidates, minSeparation)

	times, err := plp.Times()
	if err != nil {
		return nil, err
	}

	beats := make(BeatSequence, len(selected))
	for i, idx := range selected {
		beats[i] = times[idx]
	}

	t.logger.Debug("tracked beats", logging.Fields{
		"candidates": len(candidates),
		"beats":      len(beats),
	})

	return beats, nil
}

// localMaxima returns indices i with values[i-1] < values[i] >= values[i+1]
// and values[i] >= threshold. On a plateau the first sample wins, keeping
// the result deterministic.
func localMaxima(values []float64, threshold float64) []int {
	var peaks []int
	for i := 1; i < len(values)-1; i++ {
		if values[i] > values[i-1] && values[i] >= values[i+1] && values[i] >= threshold {
			peaks = append(peaks, i)
		}
	}
	return peaks
}

// dedupePeaks drops peaks closer than minSeparation frames to an already
// kept peak, preferring the higher-magnitude one of each conflicting pair.
// Input indices are ascending; output indices are ascending and pairwise at
// least minSeparation apart.
func dedupePeaks(values []float64, peaks []int, minSeparation int) []int {
	if minSeparation <= 1 || len(peaks) < 2 {
		return peaks
	}

	kept := []int{peaks[0]}
	for _, idx := range peaks[1:] {
		last := kept[len(kept)-1]
		if idx-last >= minSeparation {
			kept = append(kept, idx)
			continue
		}
		if values[idx] > values[last] {
			kept[len(kept)-1] = idx
		}
	}
	return kept
}
