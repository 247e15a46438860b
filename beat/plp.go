package beat

import (
	"fmt"
	"math"
	"math/cmplx"

	"github.com/RyanBlaney/sonido-pulso/algorithms/common"
	"github.com/RyanBlaney/sonido-pulso/algorithms/windowing"
)

// plpSilenceFloor is the coefficient magnitude below which a tempogram
// column is treated as unvoiced and contributes no kernel. Without it the
// phase of a near-zero coefficient is numerical noise and silence would
// sprout pulses.
const plpSilenceFloor = 1e-9

// ComputePLP reconstructs the Predominant Local Pulse curve from a novelty
// curve and its Fourier tempogram. For every tempogram column the locally
// dominant tempo is selected, the phase-optimal cosine kernel at that tempo
// is windowed and overlap-added onto the novelty time axis, the accumulated
// curve is divided by the summed window envelope and half-wave rectified.
// The result is resampled onto its own native grid at the configured PLP
// rate.
//
// The kernel phase comes directly from the tempogram coefficient: with
// c = sum_m w(m) x(m) exp(-i omega t_m) the correlation-maximizing kernel
// is cos(omega t + arg(c)), so kernel peaks land on novelty peaks.
func (e *Estimator) ComputePLP(novelty NoveltyCurve, tempogram *Tempogram) (NoveltyCurve, error) {
	if tempogram == nil || tempogram.NumColumns() == 0 {
		return NoveltyCurve{}, fmt.Errorf("%w: nil or empty tempogram", ErrInvalidArgument)
	}
	if novelty.Len() == 0 {
		return NoveltyCurve{}, fmt.Errorf("%w: empty novelty curve", ErrInvalidArgument)
	}

	frameRate := tempogram.NoveltyRate
	window := windowing.NewHann(tempogram.WindowLen, false).GetCoefficients()

	accum := make([]float64, novelty.Len())
	weight := make([]float64, novelty.Len())

	for c, start := range tempogram.ColumnStarts {
		bi, magnitude := tempogram.Dominant(c)
		if magnitude < plpSilenceFloor {
			continue
		}

		phase := cmplx.Phase(tempogram.Coefficients[bi][c])
		omega := 2 * math.Pi * tempogram.BPMs[bi] / 60.0

		for m := 0; m < tempogram.WindowLen; m++ {
			idx := start + m
			if idx >= len(accum) {
				break
			}
			t := float64(idx) / frameRate
			accum[idx] += window[m] * math.Cos(omega*t+phase)
			weight[idx] += window[m]
		}
	}

	// Overlap-add normalization: divide out the summed window envelope so
	// kernel amplitude stays constant where fewer windows overlap, at the
	// signal edges in particular. Half-wave rectification then keeps only
	// the positive lobes, which mark the pulses.
	for i, v := range accum {
		if weight[i] > plpSilenceFloor && v > 0 {
			accum[i] = v / weight[i]
		} else {
			accum[i] = 0
		}
	}

	plpRate := e.config.PLPSampleRate
	duration := float64(len(accum)) / frameRate
	outLen := int(math.Ceil(duration * plpRate))
	if outLen < 1 {
		outLen = 1
	}

	interp := common.NewInterpolator()
	values := interp.Resample(accum, frameRate/plpRate, outLen)
	values = e.processor.NormalizeMax(values)

	return NoveltyCurve{
		Values: values,
		Grid:   NativeGrid{SampleRate: plpRate},
	}, nil
}
