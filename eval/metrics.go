// Package eval scores estimated beat sequences against human-annotated
// references and aggregates the scores across a corpus.
package eval

import (
	"errors"
	"fmt"
	"math"

	"github.com/RyanBlaney/sonido-pulso/beat"
)

// ErrNotEvaluable reports an empty reference annotation. The track is
// excluded from aggregate scoring and counted separately; it is never
// silently scored as 0 or 1.
var ErrNotEvaluable = errors.New("empty reference beats: not evaluable")

// Metric names present in a Result
const (
	MetricFMeasure  = "f_measure"
	MetricPrecision = "precision"
	MetricRecall    = "recall"
	MetricCemgil    = "cemgil"
)

// Result maps metric name to value. F-measure, precision, recall and
// Cemgil accuracy all live in [0, 1].
type Result map[string]float64

// Config holds the evaluation parameters.
type Config struct {
	// ToleranceSec is the matching window around each reference beat.
	// The standard value is 70 ms.
	ToleranceSec float64 `json:"tolerance_sec"`

	// CemgilSigma is the Gaussian error width of the Cemgil accuracy
	CemgilSigma float64 `json:"cemgil_sigma"`

	// Workers bounds corpus evaluation parallelism; 0 sizes the pool
	// from the CPU count
	Workers int `json:"workers"`
}

// DefaultConfig returns the standard evaluation parameters
func DefaultConfig() *Config {
	return &Config{
		ToleranceSec: 0.07,
		CemgilSigma:  0.04,
		Workers:      0,
	}
}

// Validate checks the numeric parameters
func (c *Config) Validate() error {
	if c.ToleranceSec < 0 {
		return fmt.Errorf("%w: tolerance must be non-negative, got %g",
			beat.ErrInvalidArgument, c.ToleranceSec)
	}
	if c.CemgilSigma <= 0 {
		return fmt.Errorf("%w: cemgil sigma must be positive, got %g",
			beat.ErrInvalidArgument, c.CemgilSigma)
	}
	if c.Workers < 0 {
		return fmt.Errorf("%w: workers must be non-negative, got %d",
			beat.ErrInvalidArgument, c.Workers)
	}
	return nil
}

// ScoreBeats scores one track's estimated beats against its reference.
//
// The F-measure derives from one-to-one greedy nearest-neighbor matching in
// time order within the tolerance window: P = matches/|estimated|,
// R = matches/|reference|, F = 2PR/(P+R). An empty reference fails with
// ErrNotEvaluable; an empty estimate against a non-empty reference scores
// zero across the board.
func ScoreBeats(estimated, reference beat.BeatSequence, config *Config) (Result, error) {
	if config == nil {
		config = DefaultConfig()
	}
	if err := config.Validate(); err != nil {
		return nil, err
	}

	if len(reference) == 0 {
		return nil, ErrNotEvaluable
	}

	if len(estimated) == 0 {
		return Result{
			MetricFMeasure:  0,
			MetricPrecision: 0,
			MetricRecall:    0,
			MetricCemgil:    0,
		}, nil
	}

	matches := matchBeats(estimated, reference, config.ToleranceSec)

	precision := float64(matches) / float64(len(estimated))
	recall := float64(matches) / float64(len(reference))

	fMeasure := 0.0
	if precision+recall > 0 {
		fMeasure = 2 * precision * recall / (precision + recall)
	}

	return Result{
		MetricFMeasure:  fMeasure,
		MetricPrecision: precision,
		MetricRecall:    recall,
		MetricCemgil:    cemgilAccuracy(estimated, reference, config.CemgilSigma),
	}, nil
}

// matchBeats counts one-to-one matches between estimated and reference
// beats within the tolerance window. References are visited in time order;
// each takes the nearest unused estimated beat within tolerance.
func matchBeats(estimated, reference beat.BeatSequence, tolerance float64) int {
	used := make([]bool, len(estimated))
	matches := 0

	for _, ref := range reference {
		best := -1
		bestDist := math.Inf(1)

		for i, est := range estimated {
			if used[i] {
				continue
			}
			dist := math.Abs(est - ref)
			if dist <= tolerance && dist < bestDist {
				best = i
				bestDist = dist
			}
			// Estimated beats are sorted; once past the window,
			// nothing further can match this reference
			if est > ref+tolerance {
				break
			}
		}

		if best >= 0 {
			used[best] = true
			matches++
		}
	}

	return matches
}

// cemgilAccuracy computes the Cemgil accuracy: a Gaussian error function of
// the distance from each reference beat to its nearest estimated beat,
// normalized by the mean sequence length.
func cemgilAccuracy(estimated, reference beat.BeatSequence, sigma float64) float64 {
	if len(estimated) == 0 || len(reference) == 0 {
		return 0
	}

	sum := 0.0
	for _, ref := range reference {
		nearest := math.Inf(1)
		for _, est := range estimated {
			if dist := math.Abs(est - ref); dist < nearest {
				nearest = dist
			}
		}
		sum += math.Exp(-(nearest * nearest) / (2 * sigma * sigma))
	}

	return sum / (float64(len(estimated)+len(reference)) / 2)
}
