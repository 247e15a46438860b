package beat

import (
	"errors"
	"fmt"
)

// ErrInvalidArgument reports a bad numeric parameter. It always surfaces
// immediately to the caller and is never retried.
var ErrInvalidArgument = errors.New("invalid argument")

// SamplingGrid maps frame indices of a novelty curve to seconds.
//
// Two grids coexist in this system: the spectral flux novelty lives on the
// STFT hop grid (time = index * hop / sampleRate) while the PLP curve and
// external activation curves live on their own native rate
// (time = index / rate). Carrying the grid on the curve keeps the two
// conversion formulas from ever being swapped.
type SamplingGrid interface {
	// Times returns frameCount timestamps in seconds, one per frame
	Times(frameCount int) ([]float64, error)

	// FrameRate returns the number of frames per second on this grid
	FrameRate() float64
}

// HopGrid is the STFT analysis grid: frames are hopSize samples apart at
// the audio sample rate.
type HopGrid struct {
	HopSize    int `json:"hop_size"`
	SampleRate int `json:"sample_rate"`
}

// FrameRate returns frames per second on the hop grid
func (g HopGrid) FrameRate() float64 {
	return float64(g.SampleRate) / float64(g.HopSize)
}

// Times returns hop-grid timestamps for frameCount frames
func (g HopGrid) Times(frameCount int) ([]float64, error) {
	return HopGridTimes(frameCount, g.HopSize, g.SampleRate)
}

// NativeGrid is a curve sampled directly at its own rate in Hz, the grid of
// PLP curves and machine-learned activation functions.
type NativeGrid struct {
	SampleRate float64 `json:"sample_rate"`
}

// FrameRate returns the native curve rate
func (g NativeGrid) FrameRate() float64 {
	return g.SampleRate
}

// Times returns native-grid timestamps for frameCount frames
func (g NativeGrid) Times(frameCount int) ([]float64, error) {
	return NativeGridTimes(frameCount, g.SampleRate)
}

// HopGridTimes returns frameCount timestamps where element i is
// i * hopSize / sampleRate seconds.
func HopGridTimes(frameCount, hopSize, sampleRate int) ([]float64, error) {
	if hopSize <= 0 {
		return nil, fmt.Errorf("%w: hop size must be positive, got %d", ErrInvalidArgument, hopSize)
	}
	if sampleRate <= 0 {
		return nil, fmt.Errorf("%w: sample rate must be positive, got %d", ErrInvalidArgument, sampleRate)
	}
	if frameCount < 0 {
		return nil, fmt.Errorf("%w: frame count must be non-negative, got %d", ErrInvalidArgument, frameCount)
	}

	times := make([]float64, frameCount)
	for i := range times {
		times[i] = float64(i) * float64(hopSize) / float64(sampleRate)
	}
	return times, nil
}

// NativeGridTimes returns frameCount timestamps where element i is
// i / curveRate seconds.
func NativeGridTimes(frameCount int, curveRate float64) ([]float64, error) {
	if curveRate <= 0 {
		return nil, fmt.Errorf("%w: curve rate must be positive, got %g", ErrInvalidArgument, curveRate)
	}
	if frameCount < 0 {
		return nil, fmt.Errorf("%w: frame count must be non-negative, got %d", ErrInvalidArgument, frameCount)
	}

	times := make([]float64, frameCount)
	for i := range times {
		times[i] = float64(i) / curveRate
	}
	return times, nil
}
