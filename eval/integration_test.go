package eval

import (
	"math"
	"testing"

	"github.com/RyanBlaney/sonido-pulso/beat"
)

// clickSignal renders short clicks at the given times into a silent buffer
func clickSignal(durationSec float64, sampleRate int, clickTimes []float64) []float64 {
	signal := make([]float64, int(durationSec*float64(sampleRate)))
	for _, t := range clickTimes {
		start := int(t * float64(sampleRate))
		for i := 0; i < 3; i++ {
			if start+i < len(signal) {
				signal[start+i] = 0.9
			}
		}
	}
	return signal
}

// Full pipeline on a synthetic 120 BPM click track: the estimated beats
// must score at least 0.95 F-measure against the click times themselves.
func TestPipelineClickTrackFMeasure(t *testing.T) {
	if testing.Short() {
		t.Skip("full analysis chain")
	}

	const (
		sampleRate = 22050
		period     = 0.5
	)

	var reference beat.BeatSequence
	for beatTime := period; beatTime < 10.0; beatTime += period {
		reference = append(reference, beatTime)
	}

	// The trailing 0.2 s of silence keeps the last click's analysis
	// window fully inside the signal
	signal := clickSignal(10.2, sampleRate, reference)

	estimatorConfig := beat.DefaultEstimatorConfig()
	estimatorConfig.TempoMax = 200

	pipeline, err := beat.NewPipeline(estimatorConfig, nil)
	if err != nil {
		t.Fatalf("NewPipeline: %v", err)
	}

	estimated, err := pipeline.EstimateBeats(signal, sampleRate)
	if err != nil {
		t.Fatalf("EstimateBeats: %v", err)
	}
	if len(estimated) == 0 {
		t.Fatal("no beats estimated for a clear click track")
	}

	// Beats near the signal edges must survive; the pulse curve is not
	// allowed to sag where fewer analysis windows overlap
	if first := estimated[0]; first > 1.0 {
		t.Errorf("first beat at %.3f s, want within the first second", first)
	}
	if last := estimated[len(estimated)-1]; last < 9.0 {
		t.Errorf("last beat at %.3f s, want past 9.0 s", last)
	}

	scores, err := ScoreBeats(estimated, reference, nil)
	if err != nil {
		t.Fatalf("ScoreBeats: %v", err)
	}

	if f := scores[MetricFMeasure]; f < 0.95 {
		t.Errorf("f-measure = %.4f, want >= 0.95 (estimated %d beats, reference %d)",
			f, len(estimated), len(reference))
	}

	// Most estimated beats must lie within the tolerance window of the
	// click grid
	matched := 0
	for _, est := range estimated {
		nearest := math.Inf(1)
		for _, ref := range reference {
			if dist := math.Abs(est - ref); dist < nearest {
				nearest = dist
			}
		}
		if nearest <= 0.07 {
			matched++
		}
	}
	if float64(matched) < 0.9*float64(len(estimated)) {
		t.Errorf("only %d of %d estimated beats fall within 70 ms of the click grid",
			matched, len(estimated))
	}
}

func TestPipelineClickTrackTempo(t *testing.T) {
	if testing.Short() {
		t.Skip("full analysis chain")
	}

	const sampleRate = 22050

	var clicks []float64
	for beatTime := 0.5; beatTime < 10.0; beatTime += 0.5 {
		clicks = append(clicks, beatTime)
	}
	signal := clickSignal(10.2, sampleRate, clicks)

	estimatorConfig := beat.DefaultEstimatorConfig()
	estimatorConfig.TempoMax = 200

	pipeline, err := beat.NewPipeline(estimatorConfig, nil)
	if err != nil {
		t.Fatalf("NewPipeline: %v", err)
	}

	beats, tempo, err := pipeline.EstimateBeatsAndTempo(signal, sampleRate)
	if err != nil {
		t.Fatalf("EstimateBeatsAndTempo: %v", err)
	}
	if len(beats) == 0 {
		t.Fatal("no beats estimated")
	}
	if math.Abs(tempo-120) > 5 {
		t.Errorf("tempo = %.1f BPM, want 120 +/- 5", tempo)
	}
}
