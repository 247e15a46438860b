package beat

import (
	"math"
	"testing"
)

// pulseTrainNovelty builds a synthetic novelty curve on a 100 Hz native
// grid with triangular pulses every periodFrames frames, starting at
// periodFrames.
func pulseTrainNovelty(totalFrames, periodFrames int) NoveltyCurve {
	values := make([]float64, totalFrames)
	for c := periodFrames; c < totalFrames-2; c += periodFrames {
		values[c-1] += 0.25
		values[c] += 1.0
		values[c+1] += 0.25
	}
	return NoveltyCurve{Values: values, Grid: NativeGrid{SampleRate: 100}}
}

// testEstimatorConfig bounds the tempo search below the first harmonic of
// 120 BPM so the octave ambiguity of a perfectly regular pulse train cannot
// flip the dominant tempo.
func testEstimatorConfig() *EstimatorConfig {
	config := DefaultEstimatorConfig()
	config.TempoMax = 200
	return config
}

func TestTempogramDominantTempo(t *testing.T) {
	estimator, err := NewEstimator(testEstimatorConfig())
	if err != nil {
		t.Fatalf("NewEstimator: %v", err)
	}

	// 120 BPM: a pulse every 0.5 s = 50 frames at 100 Hz, 30 s total
	novelty := pulseTrainNovelty(3000, 50)

	tempogram, err := estimator.ComputeTempogram(novelty)
	if err != nil {
		t.Fatalf("ComputeTempogram: %v", err)
	}

	if tempogram.NumColumns() < 2 {
		t.Fatalf("expected multiple tempogram columns, got %d", tempogram.NumColumns())
	}

	// Check a column away from the edges
	column := tempogram.NumColumns() / 2
	bi, magnitude := tempogram.Dominant(column)
	if magnitude <= 0 {
		t.Fatalf("dominant magnitude must be positive, got %v", magnitude)
	}

	if got := tempogram.BPMs[bi]; math.Abs(got-120) > 2 {
		t.Errorf("dominant tempo = %v BPM, want 120 +/- 2", got)
	}
}

func TestAutocorrTempogramAndGlobalTempo(t *testing.T) {
	estimator, err := NewEstimator(testEstimatorConfig())
	if err != nil {
		t.Fatalf("NewEstimator: %v", err)
	}

	novelty := pulseTrainNovelty(3000, 50)

	tempogram, err := estimator.ComputeAutocorrTempogram(novelty)
	if err != nil {
		t.Fatalf("ComputeAutocorrTempogram: %v", err)
	}
	if len(tempogram.Lags) == 0 || tempogram.NumColumns() == 0 {
		t.Fatal("empty autocorrelation tempogram")
	}

	tempo, err := estimator.EstimateTempo(novelty)
	if err != nil {
		t.Fatalf("EstimateTempo: %v", err)
	}
	if math.Abs(tempo-120) > 3 {
		t.Errorf("estimated global tempo = %v BPM, want 120 +/- 3", tempo)
	}
}

func TestEstimateTempoSilence(t *testing.T) {
	estimator, err := NewEstimator(testEstimatorConfig())
	if err != nil {
		t.Fatalf("NewEstimator: %v", err)
	}

	silent := NoveltyCurve{Values: make([]float64, 3000), Grid: NativeGrid{SampleRate: 100}}

	tempo, err := estimator.EstimateTempo(silent)
	if err != nil {
		t.Fatalf("EstimateTempo on silence: %v", err)
	}
	if tempo != 0 {
		t.Errorf("expected zero tempo for silence, got %v", tempo)
	}
}

func TestPLPPulsePositions(t *testing.T) {
	estimator, err := NewEstimator(testEstimatorConfig())
	if err != nil {
		t.Fatalf("NewEstimator: %v", err)
	}

	novelty := pulseTrainNovelty(3000, 50)

	estimate, err := estimator.EstimateFromNovelty(novelty)
	if err != nil {
		t.Fatalf("EstimateFromNovelty: %v", err)
	}

	plp := estimate.PLP
	if plp.Len() == 0 {
		t.Fatal("empty PLP curve")
	}
	if _, ok := plp.Grid.(NativeGrid); !ok {
		t.Fatalf("PLP curve must live on a native grid, got %T", plp.Grid)
	}

	tracker, err := NewTracker(nil)
	if err != nil {
		t.Fatalf("NewTracker: %v", err)
	}

	beats, err := tracker.Track(plp)
	if err != nil {
		t.Fatalf("Track: %v", err)
	}

	if len(beats) < 50 {
		t.Fatalf("expected a dense beat sequence over 30 s at 120 BPM, got %d beats", len(beats))
	}
	if !beats.IsStrictlyIncreasing() {
		t.Fatal("beats not strictly increasing")
	}

	// Every tracked beat must sit close to a 0.5 s multiple
	for _, b := range beats {
		nearest := math.Round(b/0.5) * 0.5
		if math.Abs(b-nearest) > 0.05 {
			t.Errorf("beat at %v s is %.0f ms from the pulse grid", b, math.Abs(b-nearest)*1000)
		}
	}
}

func TestTempogramRejectsEmptyNovelty(t *testing.T) {
	estimator, err := NewEstimator(nil)
	if err != nil {
		t.Fatalf("NewEstimator: %v", err)
	}

	if _, err := estimator.ComputeTempogram(NoveltyCurve{Grid: NativeGrid{SampleRate: 100}}); err == nil {
		t.Error("expected error for empty novelty curve")
	}
	if _, err := estimator.ComputeAutocorrTempogram(NoveltyCurve{Grid: NativeGrid{SampleRate: 100}}); err == nil {
		t.Error("expected error for empty novelty curve")
	}
}
