package beat

import (
	"errors"
	"math"
	"testing"
)

func TestHopGridTimesExact(t *testing.T) {
	times, err := HopGridTimes(5, 512, 22050)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(times) != 5 {
		t.Fatalf("expected 5 times, got %d", len(times))
	}

	for i, got := range times {
		want := float64(i) * 512.0 / 22050.0
		if got != want {
			t.Errorf("times[%d] = %v, want exactly %v", i, got, want)
		}
	}
}

func TestHopGridTimesStrictlyIncreasing(t *testing.T) {
	tests := []struct {
		name       string
		frameCount int
		hopSize    int
		sampleRate int
	}{
		{"typical", 100, 512, 22050},
		{"single frame", 1, 256, 44100},
		{"empty", 0, 512, 22050},
		{"large hop", 50, 4096, 8000},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			times, err := HopGridTimes(tt.frameCount, tt.hopSize, tt.sampleRate)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if len(times) != tt.frameCount {
				t.Fatalf("expected %d times, got %d", tt.frameCount, len(times))
			}
			for i := 1; i < len(times); i++ {
				if times[i] <= times[i-1] {
					t.Errorf("times not strictly increasing at %d: %v <= %v", i, times[i], times[i-1])
				}
			}
		})
	}
}

func TestHopGridTimesInvalidArguments(t *testing.T) {
	tests := []struct {
		name       string
		frameCount int
		hopSize    int
		sampleRate int
	}{
		{"zero hop", 10, 0, 22050},
		{"negative hop", 10, -512, 22050},
		{"zero sample rate", 10, 512, 0},
		{"negative sample rate", 10, 512, -22050},
		{"negative frame count", -1, 512, 22050},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := HopGridTimes(tt.frameCount, tt.hopSize, tt.sampleRate)
			if !errors.Is(err, ErrInvalidArgument) {
				t.Errorf("expected ErrInvalidArgument, got %v", err)
			}
		})
	}
}

func TestNativeGridTimes(t *testing.T) {
	times, err := NativeGridTimes(4, 100.0)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	want := []float64{0, 0.01, 0.02, 0.03}
	for i := range want {
		if math.Abs(times[i]-want[i]) > 1e-12 {
			t.Errorf("times[%d] = %v, want %v", i, times[i], want[i])
		}
	}

	if _, err := NativeGridTimes(4, 0); !errors.Is(err, ErrInvalidArgument) {
		t.Errorf("expected ErrInvalidArgument for zero rate, got %v", err)
	}
	if _, err := NativeGridTimes(4, -100); !errors.Is(err, ErrInvalidArgument) {
		t.Errorf("expected ErrInvalidArgument for negative rate, got %v", err)
	}
}

// The two grids must disagree unless hop/sampleRate happens to equal 1/rate.
// A curve carries its own grid so the conversion can never be mixed up.
func TestNoveltyCurveUsesOwnGrid(t *testing.T) {
	values := []float64{0, 1, 0, 1}

	hopCurve := NoveltyCurve{Values: values, Grid: HopGrid{HopSize: 512, SampleRate: 22050}}
	nativeCurve := NoveltyCurve{Values: values, Grid: NativeGrid{SampleRate: 100}}

	hopTimes, err := hopCurve.Times()
	if err != nil {
		t.Fatalf("hop times: %v", err)
	}
	nativeTimes, err := nativeCurve.Times()
	if err != nil {
		t.Fatalf("native times: %v", err)
	}

	if hopTimes[1] == nativeTimes[1] {
		t.Fatalf("expected distinct grids to yield distinct times, both %v", hopTimes[1])
	}

	if want := 512.0 / 22050.0; hopTimes[1] != want {
		t.Errorf("hop grid time = %v, want %v", hopTimes[1], want)
	}
	if want := 0.01; math.Abs(nativeTimes[1]-want) > 1e-12 {
		t.Errorf("native grid time = %v, want %v", nativeTimes[1], want)
	}
}

func TestGridFrameRate(t *testing.T) {
	hop := HopGrid{HopSize: 512, SampleRate: 22050}
	if got, want := hop.FrameRate(), 22050.0/512.0; math.Abs(got-want) > 1e-12 {
		t.Errorf("hop frame rate = %v, want %v", got, want)
	}

	native := NativeGrid{SampleRate: 100}
	if got := native.FrameRate(); got != 100 {
		t.Errorf("native frame rate = %v, want 100", got)
	}
}
