package beat

import (
	"fmt"
)

// EstimatorConfig holds the analysis parameters of the novelty, tempogram
// and PLP stages.
type EstimatorConfig struct {
	// HopSize controls time resolution of the novelty curve (samples)
	HopSize int `json:"hop_size"`

	// FrameLength controls spectral resolution of the STFT (samples)
	FrameLength int `json:"frame_length"`

	// TempoMin and TempoMax bound the tempo search in BPM
	TempoMin float64 `json:"tempo_min"`
	TempoMax float64 `json:"tempo_max"`

	// TempoStep is the tempo candidate spacing in BPM
	TempoStep float64 `json:"tempo_step"`

	// TempogramWindowSec is the length of the sliding tempo analysis
	// window in seconds
	TempogramWindowSec float64 `json:"tempogram_window_sec"`

	// TempogramHop is the number of novelty frames between tempogram
	// columns
	TempogramHop int `json:"tempogram_hop"`

	// PLPSampleRate is the native rate of the reconstructed pulse curve
	// in Hz
	PLPSampleRate float64 `json:"plp_sample_rate"`

	// Normalize applies local mean subtraction and max scaling to the
	// novelty curve
	Normalize bool `json:"normalize"`

	// NormalizeWindowSec is the local mean window in seconds when
	// Normalize is set
	NormalizeWindowSec float64 `json:"normalize_window_sec"`
}

// DefaultEstimatorConfig returns the default analysis parameters: 512-sample
// hop, 1024-sample frames, tempo search 30-300 BPM at 1 BPM steps, 6 s
// tempogram windows and a 100 Hz PLP curve.
func DefaultEstimatorConfig() *EstimatorConfig {
	return &EstimatorConfig{
		HopSize:            512,
		FrameLength:        1024,
		TempoMin:           30.0,
		TempoMax:           300.0,
		TempoStep:          1.0,
		TempogramWindowSec: 6.0,
		TempogramHop:       8,
		PLPSampleRate:      100.0,
		Normalize:          true,
		NormalizeWindowSec: 1.0,
	}
}

// Validate checks the numeric parameters, wrapping ErrInvalidArgument
func (c *EstimatorConfig) Validate() error {
	if c.HopSize <= 0 {
		return fmt.Errorf("%w: hop size must be positive, got %d", ErrInvalidArgument, c.HopSize)
	}
	if c.FrameLength <= 0 {
		return fmt.Errorf("%w: frame length must be positive, got %d", ErrInvalidArgument, c.FrameLength)
	}
	if c.TempoMin <= 0 || c.TempoMax <= c.TempoMin {
		return fmt.Errorf("%w: tempo range (%g, %g) must satisfy 0 < min < max",
			ErrInvalidArgument, c.TempoMin, c.TempoMax)
	}
	if c.TempoStep <= 0 {
		return fmt.Errorf("%w: tempo step must be positive, got %g", ErrInvalidArgument, c.TempoStep)
	}
	if c.TempogramWindowSec <= 0 {
		return fmt.Errorf("%w: tempogram window must be positive, got %g",
			ErrInvalidArgument, c.TempogramWindowSec)
	}
	if c.TempogramHop <= 0 {
		return fmt.Errorf("%w: tempogram hop must be positive, got %d", ErrInvalidArgument, c.TempogramHop)
	}
	if c.PLPSampleRate <= 0 {
		return fmt.Errorf("%w: PLP sample rate must be positive, got %g",
			ErrInvalidArgument, c.PLPSampleRate)
	}
	return nil
}

// TrackerConfig holds the peak picking parameters of the beat tracker.
type TrackerConfig struct {
	// PeakThreshold is relative to the curve maximum, in (0, 1)
	PeakThreshold float64 `json:"peak_threshold"`

	// MinBeatIntervalSec is the minimum distance between two beats.
	// The default of 0.2 s is one beat period at the 300 BPM search
	// ceiling.
	MinBeatIntervalSec float64 `json:"min_beat_interval_sec"`
}

// DefaultTrackerConfig returns the default peak picking parameters
func DefaultTrackerConfig() *TrackerConfig {
	return &TrackerConfig{
		PeakThreshold:      0.1,
		MinBeatIntervalSec: 60.0 / 300.0,
	}
}

// Validate checks the numeric parameters, wrapping ErrInvalidArgument
func (c *TrackerConfig) Validate() error {
	if c.PeakThreshold < 0 || c.PeakThreshold > 1 {
		return fmt.Errorf("%w: peak threshold must be in [0, 1], got %g",
			ErrInvalidArgument, c.PeakThreshold)
	}
	if c.MinBeatIntervalSec < 0 {
		return fmt.Errorf("%w: min beat interval must be non-negative, got %g",
			ErrInvalidArgument, c.MinBeatIntervalSec)
	}
	return nil
}
