package beat

import (
	"testing"
)

func plpTestConfig() *EstimatorConfig {
	cfg := DefaultEstimatorConfig()
	cfg.TempoMax = 200
	return cfg
}

// clickNoveltyCurve builds a 100 Hz novelty curve with unit impulses every
// periodFrames frames, starting at periodFrames
func clickNoveltyCurve(frames, periodFrames int) NoveltyCurve {
	values := make([]float64, frames)
	for idx := periodFrames; idx < frames; idx += periodFrames {
		values[idx] = 1.0
	}
	return NoveltyCurve{Values: values, Grid: NativeGrid{SampleRate: 100}}
}

// The PLP amplitude must not sag where fewer tempogram windows overlap. A
// uniform pulse train therefore keeps full-strength peaks at both ends of
// the curve, not only in the interior.
func TestPLPEdgeAmplitude(t *testing.T) {
	estimator, err := NewEstimator(plpTestConfig())
	if err != nil {
		t.Fatalf("NewEstimator: %v", err)
	}

	// 30 s at 100 Hz, a pulse every 0.5 s
	novelty := clickNoveltyCurve(3000, 50)

	tempogram, err := estimator.ComputeTempogram(novelty)
	if err != nil {
		t.Fatalf("ComputeTempogram: %v", err)
	}
	plp, err := estimator.ComputePLP(novelty, tempogram)
	if err != nil {
		t.Fatalf("ComputePLP: %v", err)
	}

	edgeSpan := int(2.0 * plp.FrameRate())
	if len(plp.Values) <= 2*edgeSpan {
		t.Fatalf("PLP curve too short: %d frames", len(plp.Values))
	}

	headMax := 0.0
	for _, v := range plp.Values[:edgeSpan] {
		if v > headMax {
			headMax = v
		}
	}
	tailMax := 0.0
	for _, v := range plp.Values[len(plp.Values)-edgeSpan:] {
		if v > tailMax {
			tailMax = v
		}
	}

	if headMax < 0.5 {
		t.Errorf("leading 2 s peak = %.3f, want >= 0.5 of the global maximum", headMax)
	}
	if tailMax < 0.5 {
		t.Errorf("trailing 2 s peak = %.3f, want >= 0.5 of the global maximum", tailMax)
	}
}

// Tracked beats must cover the whole pulse train, including the pulses near
// the ends of the signal.
func TestPLPTrackingCoversSignalEdges(t *testing.T) {
	estimator, err := NewEstimator(plpTestConfig())
	if err != nil {
		t.Fatalf("NewEstimator: %v", err)
	}
	tracker, err := NewTracker(nil)
	if err != nil {
		t.Fatalf("NewTracker: %v", err)
	}

	novelty := clickNoveltyCurve(3000, 50)

	estimate, err := estimator.EstimateFromNovelty(novelty)
	if err != nil {
		t.Fatalf("EstimateFromNovelty: %v", err)
	}
	beats, err := tracker.Track(estimate.PLP)
	if err != nil {
		t.Fatalf("Track: %v", err)
	}
	if len(beats) == 0 {
		t.Fatal("no beats tracked for a uniform pulse train")
	}

	if first := beats[0]; first > 1.0 {
		t.Errorf("first beat at %.3f s, want within the first second", first)
	}
	if last := beats[len(beats)-1]; last < 28.5 {
		t.Errorf("last beat at %.3f s, want past 28.5 s", last)
	}
}
