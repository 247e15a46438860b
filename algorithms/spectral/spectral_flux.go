package spectral

import (
	"math"
)

// SpectralFlux computes spectral flux (measure of spectral change)
type SpectralFlux struct {
	// No state needed
}

// NewSpectralFlux creates a new spectral flux calculator
func NewSpectralFlux() *SpectralFlux {
	return &SpectralFlux{}
}

// ComputeRectified calculates half-wave rectified spectral flux for a
// spectrogram: at frame t the flux is the sum over frequency bins of the
// positive magnitude increase against frame t-1. This is the onset novelty
// flavor of spectral flux: energy decays contribute nothing, so the curve
// peaks where new spectral energy appears.
//
// Returns len(spectrogram)-1 values; value i belongs to frame i+1.
func (sf *SpectralFlux) ComputeRectified(spectrogram [][]float64) []float64 {
	if len(spectrogram) < 2 {
		return []float64{}
	}

	flux := make([]float64, len(spectrogram)-1)

	for t := 1; t < len(spectrogram); t++ {
		sum := 0.0
		for f := 0; f < len(spectrogram[t]); f++ {
			diff := spectrogram[t][f] - spectrogram[t-1][f]
			if diff > 0 {
				sum += diff
			}
		}
		flux[t-1] = sum
	}

	return flux
}

// ComputeEuclidean calculates L2 spectral flux over positive changes only
func (sf *SpectralFlux) ComputeEuclidean(spectrogram [][]float64) []float64 {
	if len(spectrogram) < 2 {
		return []float64{}
	}

	flux := make([]float64, len(spectrogram)-1)

	for t := 1; t < len(spectrogram); t++ {
		sum := 0.0
		for f := 0; f < len(spectrogram[t]); f++ {
			diff := spectrogram[t][f] - spectrogram[t-1][f]
			if diff > 0 { // Only positive changes (energy increases)
				sum += diff * diff
			}
		}
		flux[t-1] = math.Sqrt(sum)
	}

	return flux
}
