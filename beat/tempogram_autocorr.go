package beat

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/dsp/fourier"

	"github.com/RyanBlaney/sonido-pulso/algorithms/windowing"
)

// AutocorrTempogram is the lag-domain counterpart of the Fourier tempogram:
// short-time autocorrelation of the novelty curve, with each lag mapped to
// its equivalent BPM. It has no phase, so it cannot drive PLP
// reconstruction, but its tempo axis is unbiased by the candidate grid and
// it is the basis of global tempo estimation.
type AutocorrTempogram struct {
	// Salience is indexed [lag candidate][column], normalized by the
	// zero-lag energy of each column
	Salience [][]float64 `json:"salience"`

	// Lags lists the lag axis in novelty frames
	Lags []int `json:"lags"`

	// BPMs is the tempo equivalent of each lag: 60 * rate / lag
	BPMs []float64 `json:"bpms"`

	// ColumnStarts holds the novelty frame index where each column's
	// analysis window begins
	ColumnStarts []int `json:"column_starts"`

	// WindowLen is the analysis window length in novelty frames
	WindowLen int `json:"window_len"`

	// NoveltyRate is the frame rate of the analyzed curve in Hz
	NoveltyRate float64 `json:"novelty_rate"`
}

// NumColumns returns the number of time columns
func (tg *AutocorrTempogram) NumColumns() int {
	return len(tg.ColumnStarts)
}

// ComputeAutocorrTempogram computes a short-time autocorrelation tempogram
// of a novelty curve. Autocorrelation per window is computed in the
// frequency domain with gonum's real FFT (Wiener-Khinchin), then sampled at
// the lags covering the configured tempo range.
func (e *Estimator) ComputeAutocorrTempogram(novelty NoveltyCurve) (*AutocorrTempogram, error) {
	if novelty.Len() == 0 {
		return nil, fmt.Errorf("%w: empty novelty curve", ErrInvalidArgument)
	}

	frameRate := novelty.FrameRate()
	if frameRate <= 0 {
		return nil, fmt.Errorf("%w: novelty frame rate must be positive, got %g",
			ErrInvalidArgument, frameRate)
	}

	windowLen := int(math.Round(e.config.TempogramWindowSec * frameRate))
	if windowLen > novelty.Len() {
		windowLen = novelty.Len()
	}
	if windowLen < 2 {
		windowLen = min(2, novelty.Len())
	}

	minLag := int(math.Ceil(frameRate * 60.0 / e.config.TempoMax))
	if minLag < 1 {
		minLag = 1
	}
	maxLag := int(math.Floor(frameRate * 60.0 / e.config.TempoMin))
	if maxLag >= windowLen {
		maxLag = windowLen - 1
	}
	if maxLag < minLag {
		return nil, fmt.Errorf("%w: tempo range (%g, %g) BPM yields no usable lags for a %d-frame window",
			ErrInvalidArgument, e.config.TempoMin, e.config.TempoMax, windowLen)
	}

	lags := make([]int, 0, maxLag-minLag+1)
	bpms := make([]float64, 0, maxLag-minLag+1)
	for lag := minLag; lag <= maxLag; lag++ {
		lags = append(lags, lag)
		bpms = append(bpms, 60.0*frameRate/float64(lag))
	}

	hop := e.config.TempogramHop
	numColumns := (novelty.Len()-windowLen)/hop + 1
	if numColumns < 1 {
		numColumns = 1
	}

	columnStarts := make([]int, numColumns)
	for c := range columnStarts {
		columnStarts[c] = c * hop
	}

	window := windowing.NewHann(windowLen, false).GetCoefficients()

	// Zero-pad to at least twice the window so the circular correlation
	// is linear over the lags of interest
	padded := 1
	for padded < 2*windowLen {
		padded <<= 1
	}
	fft := fourier.NewFFT(padded)

	salience := make([][]float64, len(lags))
	for li := range lags {
		salience[li] = make([]float64, numColumns)
	}

	seq := make([]float64, padded)
	for c := 0; c < numColumns; c++ {
		start := columnStarts[c]

		for i := range seq {
			seq[i] = 0
		}
		for m := 0; m < windowLen; m++ {
			seq[m] = window[m] * novelty.Values[start+m]
		}

		coeffs := fft.Coefficients(nil, seq)
		for i, coef := range coeffs {
			power := real(coef)*real(coef) + imag(coef)*imag(coef)
			coeffs[i] = complex(power, 0)
		}

		autocorr := fft.Sequence(nil, coeffs)
		if autocorr[0] <= 0 {
			continue // silent window
		}

		for li, lag := range lags {
			salience[li][c] = autocorr[lag] / autocorr[0]
		}
	}

	return &AutocorrTempogram{
		Salience:     salience,
		Lags:         lags,
		BPMs:         bpms,
		ColumnStarts: columnStarts,
		WindowLen:    windowLen,
		NoveltyRate:  frameRate,
	}, nil
}

// EstimateTempo estimates a single global tempo in BPM for a novelty curve
// by averaging autocorrelation salience over time, picking the strongest lag
// in the configured tempo range, and folding subharmonic picks back to the
// fundamental. Returns 0 for a curve with no periodicity (e.g. silence).
func (e *Estimator) EstimateTempo(novelty NoveltyCurve) (float64, error) {
	tg, err := e.ComputeAutocorrTempogram(novelty)
	if err != nil {
		return 0, err
	}

	numColumns := tg.NumColumns()
	means := make([]float64, len(tg.Lags))
	bestLag := -1
	bestMean := 0.0
	for li := range tg.Lags {
		sum := 0.0
		for c := 0; c < numColumns; c++ {
			sum += tg.Salience[li][c]
		}
		means[li] = sum / float64(numColumns)
		if means[li] > bestMean {
			bestMean = means[li]
			bestLag = li
		}
	}

	if bestLag < 0 || bestMean <= 0 {
		return 0, nil
	}

	return tg.BPMs[foldSubharmonic(tg.Lags, means, bestLag)], nil
}

// foldSubharmonic resolves the octave ambiguity of autocorrelation tempo
// estimation. A periodic curve is salient at every integer multiple of its
// period, and when the true period falls between lag samples a multiple can
// align better with the lag grid and edge out the fundamental. A divisor lag
// with comparable salience therefore wins over the raw maximum.
func foldSubharmonic(lags []int, means []float64, bestIdx int) int {
	// A fractional period splits its salience across the two adjacent
	// lags, so the bar for "comparable" sits well below an even split
	const comparableSalience = 0.4

	bestMean := means[bestIdx]
	chosen := bestIdx
	for div := 2; div <= 4; div++ {
		target := int(math.Round(float64(lags[bestIdx]) / float64(div)))
		if target < lags[0] {
			break
		}

		// lags are contiguous; search a small neighborhood around the
		// divided lag to absorb rounding
		lo := max(target-2-lags[0], 0)
		hi := min(target+2-lags[0], len(lags)-1)

		sub := lo
		for li := lo + 1; li <= hi; li++ {
			if means[li] > means[sub] {
				sub = li
			}
		}

		if means[sub] >= comparableSalience*bestMean && lags[sub] < lags[chosen] {
			chosen = sub
		}
	}

	return chosen
}
