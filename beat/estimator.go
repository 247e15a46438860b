package beat

import (
	"errors"
	"fmt"
	"math"

	"github.com/RyanBlaney/sonido-pulso/algorithms/spectral"
	"github.com/RyanBlaney/sonido-pulso/algorithms/temporal"
	"github.com/RyanBlaney/sonido-pulso/algorithms/windowing"
	"github.com/RyanBlaney/sonido-pulso/logging"
)

// ErrEmptySignal reports audio that is empty or too short to analyze.
// Callers batch-processing a corpus treat it like a decode failure: record
// the track and move on.
var ErrEmptySignal = errors.New("empty or zero-duration audio signal")

// Estimate bundles the three products of one estimation run: the spectral
// flux novelty on the STFT hop grid, the tempogram derived from it, and the
// PLP curve on its own native grid.
type Estimate struct {
	Novelty   NoveltyCurve `json:"novelty"`
	Tempogram *Tempogram   `json:"-"`
	PLP       NoveltyCurve `json:"plp"`
}

// Estimator computes onset novelty, tempogram and PLP curves from decoded
// audio. Safe for concurrent use; all state is configuration.
type Estimator struct {
	config    *EstimatorConfig
	stft      *spectral.STFT
	flux      *spectral.SpectralFlux
	processor *temporal.NoveltyProcessor
	logger    logging.Logger
}

// NewEstimator creates an estimator. A nil config selects
// DefaultEstimatorConfig; invalid parameters fail fast with
// ErrInvalidArgument.
func NewEstimator(config *EstimatorConfig) (*Estimator, error) {
	if config == nil {
		config = DefaultEstimatorConfig()
	}
	if err := config.Validate(); err != nil {
		return nil, err
	}

	return &Estimator{
		config:    config,
		stft:      spectral.NewSTFT(),
		flux:      spectral.NewSpectralFlux(),
		processor: temporal.NewNoveltyProcessor(),
		logger:    logging.GetGlobalLogger().WithFields(logging.Fields{"component": "beat_estimator"}),
	}, nil
}

// Config returns the estimator configuration
func (e *Estimator) Config() *EstimatorConfig {
	return e.config
}

// EstimateNovelty computes the half-wave rectified spectral flux novelty
// curve of a signal on the STFT hop grid. The curve has one value per STFT
// frame; the flux of the first frame is zero since it has no predecessor.
func (e *Estimator) EstimateNovelty(signal []float64, sampleRate int) (NoveltyCurve, error) {
	if sampleRate <= 0 {
		return NoveltyCurve{}, fmt.Errorf("%w: sample rate must be positive, got %d",
			ErrInvalidArgument, sampleRate)
	}
	if len(signal) == 0 {
		return NoveltyCurve{}, ErrEmptySignal
	}
	if len(signal) < e.config.FrameLength {
		return NoveltyCurve{}, fmt.Errorf("%w: %d samples is shorter than one %d-sample analysis frame",
			ErrEmptySignal, len(signal), e.config.FrameLength)
	}

	window := windowing.NewHann(e.config.FrameLength, false)
	stftResult, err := e.stft.ComputeWithWindow(signal, e.config.FrameLength, e.config.HopSize, sampleRate, window)
	if err != nil {
		return NoveltyCurve{}, fmt.Errorf("%w: %v", ErrEmptySignal, err)
	}

	flux := e.flux.ComputeRectified(stftResult.Magnitude)

	// Align novelty index i with STFT frame i
	values := make([]float64, len(flux)+1)
	copy(values[1:], flux)

	grid := HopGrid{HopSize: e.config.HopSize, SampleRate: sampleRate}

	if e.config.Normalize {
		meanWindow := int(math.Round(e.config.NormalizeWindowSec * grid.FrameRate()))
		values = e.processor.SubtractLocalMean(values, meanWindow)
		values = e.processor.NormalizeMax(values)
	}

	e.logger.Debug("computed novelty curve", logging.Fields{
		"frames":      len(values),
		"sample_rate": sampleRate,
		"hop_size":    e.config.HopSize,
	})

	return NoveltyCurve{Values: values, Grid: grid}, nil
}

// Estimate runs the full chain on a decoded signal: novelty, tempogram and
// PLP curve.
func (e *Estimator) Estimate(signal []float64, sampleRate int) (*Estimate, error) {
	novelty, err := e.EstimateNovelty(signal, sampleRate)
	if err != nil {
		return nil, err
	}
	return e.EstimateFromNovelty(novelty)
}

// EstimateFromNovelty runs the tempogram and PLP stages on an externally
// supplied novelty curve, for example the activation function of a learned
// onset model sampled on its own native grid.
func (e *Estimator) EstimateFromNovelty(novelty NoveltyCurve) (*Estimate, error) {
	tempogram, err := e.ComputeTempogram(novelty)
	if err != nil {
		return nil, err
	}

	plp, err := e.ComputePLP(novelty, tempogram)
	if err != nil {
		return nil, err
	}

	return &Estimate{
		Novelty:   novelty,
		Tempogram: tempogram,
		PLP:       plp,
	}, nil
}
