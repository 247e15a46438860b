package common

// Interpolator provides interpolation at fractional indices
type Interpolator struct{}

// NewInterpolator creates a new linear interpolator
func NewInterpolator() *Interpolator {
	return &Interpolator{}
}

// Interpolate performs linear interpolation at fractional index.
// Indices outside [0, len-1] clamp to the edge samples.
func (interp *Interpolator) Interpolate(data []float64, index float64) float64 {
	if len(data) == 0 {
		return 0.0
	}

	if index <= 0 {
		return data[0]
	}
	if index >= float64(len(data)-1) {
		return data[len(data)-1]
	}

	i := int(index)
	frac := index - float64(i)

	if i >= len(data)-1 {
		return data[len(data)-1]
	}

	return data[i] + frac*(data[i+1]-data[i])
}

// Resample maps data onto a new length using linear interpolation,
// preserving the first sample and the spacing ratio between the grids.
func (interp *Interpolator) Resample(data []float64, ratio float64, outLen int) []float64 {
	if outLen <= 0 || len(data) == 0 || ratio <= 0 {
		return []float64{}
	}

	out := make([]float64, outLen)
	for i := range out {
		out[i] = interp.Interpolate(data, float64(i)*ratio)
	}
	return out
}
