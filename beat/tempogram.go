package beat

import (
	"fmt"
	"math"
	"math/cmplx"
	"runtime"
	"sync"

	"github.com/RyanBlaney/sonido-pulso/algorithms/windowing"
)

// Tempogram is a time-tempo salience representation of a novelty curve,
// computed by short-time Fourier analysis of the curve at tempo candidate
// frequencies. The complex coefficients are kept because the PLP stage
// needs their phase.
type Tempogram struct {
	// Salience is indexed [tempo candidate][column]
	Salience [][]float64 `json:"salience"`

	// Coefficients mirror Salience with the complex analysis values
	Coefficients [][]complex128 `json:"-"`

	// BPMs lists the tempo candidate axis
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
func (tg *Tempogram) NumColumns() int {
	return len(tg.ColumnStarts)
}

// Dominant returns the tempo candidate index and salience magnitude of the
// strongest tempo in a column
func (tg *Tempogram) Dominant(column int) (int, float64) {
	best := 0
	bestMag := 0.0
	for bi := range tg.Salience {
		if mag := tg.Salience[bi][column]; mag > bestMag {
			bestMag = mag
			best = bi
		}
	}
	return best, bestMag
}

// ComputeTempogram computes the Fourier tempogram of a novelty curve over a
// sliding Hann window. Each coefficient correlates the windowed curve with a
// complex exponential at one tempo candidate; phases are taken against the
// global time axis so that kernels from adjacent windows overlap-add
// coherently in the PLP stage.
func (e *Estimator) ComputeTempogram(novelty NoveltyCurve) (*Tempogram, error) {
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

	bpms := tempoCandidates(e.config.TempoMin, e.config.TempoMax, e.config.TempoStep)

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

	salience := make([][]float64, len(bpms))
	coefficients := make([][]complex128, len(bpms))
	for bi := range bpms {
		salience[bi] = make([]float64, numColumns)
		coefficients[bi] = make([]complex128, numColumns)
	}

	// Columns are independent; process them on a small worker pool
	numWorkers := min(runtime.NumCPU(), numColumns)
	if numWorkers < 1 {
		numWorkers = 1
	}

	jobs := make(chan int, numColumns)

	var wg sync.WaitGroup
	for loopIdx := 0; loopIdx < numWorkers; loopIdx++ {
		wg.Add(1)
		go func() {
			defer wg.Done()

			windowed := make([]float64, windowLen)

			for c := range jobs {
				start := columnStarts[c]
				allZero := true
				for m := 0; m < windowLen; m++ {
					v := window[m] * novelty.Values[start+m]
					windowed[m] = v
					if v != 0 {
						allZero = false
					}
				}

				if allZero {
					continue // silent window, leave zero salience
				}

				for bi, bpm := range bpms {
					omega := 2 * math.Pi * bpm / 60.0
					var re, im float64
					for m := 0; m < windowLen; m++ {
						v := windowed[m]
						if v == 0 {
							continue
						}
						t := float64(start+m) / frameRate
						angle := omega * t
						re += v * math.Cos(angle)
						im -= v * math.Sin(angle)
					}
					coef := complex(re, im)
					coefficients[bi][c] = coef
					salience[bi][c] = cmplx.Abs(coef)
				}
			}
		}()
	}

	for c := 0; c < numColumns; c++ {
		jobs <- c
	}
	close(jobs)
	wg.Wait()

	return &Tempogram{
		Salience:     salience,
		Coefficients: coefficients,
		BPMs:         bpms,
		ColumnStarts: columnStarts,
		WindowLen:    windowLen,
		NoveltyRate:  frameRate,
	}, nil
}

// tempoCandidates returns the BPM axis from min to max inclusive at the
// given step
func tempoCandidates(tempoMin, tempoMax, step float64) []float64 {
	var bpms []float64
	for bpm := tempoMin; bpm <= tempoMax+step/2; bpm += step {
		bpms = append(bpms, bpm)
	}
	return bpms
}
