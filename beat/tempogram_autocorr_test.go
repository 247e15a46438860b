package beat

import (
	"math"
	"testing"
)

// A beat period that falls between lag samples lets a lag multiple align
// better with the lag grid than the fundamental does. The tempo estimate
// must still report the fundamental, not its subharmonic.
func TestEstimateTempoFoldsSubharmonic(t *testing.T) {
	estimator, err := NewEstimator(plpTestConfig())
	if err != nil {
		t.Fatalf("NewEstimator: %v", err)
	}

	// Hop grid at 512/22050: 120 BPM is 21.53 frames per beat, while the
	// doubled period lands almost exactly on lag 43
	grid := HopGrid{HopSize: 512, SampleRate: 22050}
	period := grid.FrameRate() / 2.0

	values := make([]float64, 1300)
	for k := 1; ; k++ {
		idx := int(math.Round(float64(k) * period))
		if idx >= len(values)-1 {
			break
		}
		values[idx] = 1.0
		values[idx-1] = 0.5
		values[idx+1] = 0.5
	}

	tempo, err := estimator.EstimateTempo(NoveltyCurve{Values: values, Grid: grid})
	if err != nil {
		t.Fatalf("EstimateTempo: %v", err)
	}
	if math.Abs(tempo-120) > 6 {
		t.Errorf("tempo = %.1f BPM, want 120 +/- 6 (not the 60 BPM subharmonic)", tempo)
	}
}

func TestFoldSubharmonic(t *testing.T) {
	lags := make([]int, 50)
	means := make([]float64, 50)
	for i := range lags {
		lags[i] = 13 + i // 13..62
	}

	// Salient at lag 43 and, slightly weaker, at its half 21-22
	means[43-13] = 1.0
	means[21-13] = 0.6
	means[22-13] = 0.55

	if got := foldSubharmonic(lags, means, 43-13); lags[got] != 21 {
		t.Errorf("folded to lag %d, want 21", lags[got])
	}

	// Without comparable half-lag salience the raw maximum stands
	means[21-13] = 0.1
	means[22-13] = 0.1
	if got := foldSubharmonic(lags, means, 43-13); lags[got] != 43 {
		t.Errorf("folded to lag %d, want 43 kept", lags[got])
	}
}
