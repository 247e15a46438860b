package temporal

import (
	"github.com/goccmack/godsp"
)

// NoveltyProcessor post-processes onset novelty curves to compensate for
// dynamic range: loud passages otherwise dominate the flux and quieter
// onsets never clear a global threshold.
type NoveltyProcessor struct{}

// NewNoveltyProcessor creates a new novelty processor
func NewNoveltyProcessor() *NoveltyProcessor {
	return &NoveltyProcessor{}
}

// SubtractLocalMean subtracts a moving local average from the novelty curve
// and half-wave rectifies the residual. The window is in curve samples and
// is centered on each position; even windows are widened to the next odd size.
func (np *NoveltyProcessor) SubtractLocalMean(novelty []float64, window int) []float64 {
	if len(novelty) == 0 {
		return []float64{}
	}

	if window < 1 {
		window = 1
	}
	half := window / 2

	out := make([]float64, len(novelty))
	for i := range novelty {
		lo := i - half
		if lo < 0 {
			lo = 0
		}
		hi := i + half + 1
		if hi > len(novelty) {
			hi = len(novelty)
		}

		sum := 0.0
		for j := lo; j < hi; j++ {
			sum += novelty[j]
		}
		local := sum / float64(hi-lo)

		if diff := novelty[i] - local; diff > 0 {
			out[i] = diff
		}
	}

	return out
}

// NormalizeMax scales the curve so its maximum becomes 1. An all-zero or
// empty curve is returned unchanged; silence must stay silent.
func (np *NoveltyProcessor) NormalizeMax(novelty []float64) []float64 {
	if len(novelty) == 0 {
		return []float64{}
	}

	out := make([]float64, len(novelty))
	copy(out, novelty)

	peak := godsp.Max(out)
	if peak <= 0 {
		return out
	}

	return godsp.DivS(out, peak)
}
