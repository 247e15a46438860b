// Package sonify renders audible click tracks at estimated and reference
// beat times over the original audio, for spot-checking beat estimates by
// ear. Convenience only; nothing here feeds back into estimation or
// scoring.
package sonify

import (
	"fmt"
	"math"
	"os"

	"github.com/go-audio/audio"
	"github.com/go-audio/wav"

	"github.com/RyanBlaney/sonido-pulso/beat"
	"github.com/RyanBlaney/sonido-pulso/transcode"
)

// Config holds click rendering parameters.
type Config struct {
	// ClickFreq is the click tone frequency in Hz
	ClickFreq float64 `json:"click_freq"`

	// ClickDurationSec is the click length in seconds
	ClickDurationSec float64 `json:"click_duration_sec"`

	// ClickGain scales the click waveform
	ClickGain float64 `json:"click_gain"`

	// MixGain scales the original audio under the clicks
	MixGain float64 `json:"mix_gain"`
}

// DefaultConfig returns the default click parameters: a 100 ms decaying
// 1 kHz tone over the original audio at reduced gain
func DefaultConfig() *Config {
	return &Config{
		ClickFreq:        1000.0,
		ClickDurationSec: 0.1,
		ClickGain:        0.8,
		MixGain:          0.6,
	}
}

// Sonify renders two signals the length of the original audio: the audio at
// reduced gain with clicks at the estimated beat times, and the same with
// clicks at the reference beat times. Clicks are placed sample-accurately;
// beats beyond the end of the audio are clipped. Output samples are limited
// to [-1, 1].
func Sonify(audioData *transcode.AudioData, estimated, reference beat.BeatSequence, config *Config) (estimatedMix, referenceMix []float64, err error) {
	if config == nil {
		config = DefaultConfig()
	}
	if audioData == nil || len(audioData.PCM) == 0 || audioData.SampleRate <= 0 {
		return nil, nil, fmt.Errorf("%w: no audio to sonify", beat.ErrInvalidArgument)
	}
	if config.ClickDurationSec <= 0 || config.ClickFreq <= 0 {
		return nil, nil, fmt.Errorf("%w: click duration and frequency must be positive",
			beat.ErrInvalidArgument)
	}

	click := renderClick(audioData.SampleRate, config)

	estimatedMix = overlayClicks(audioData.PCM, audioData.SampleRate, estimated, click, config.MixGain)
	referenceMix = overlayClicks(audioData.PCM, audioData.SampleRate, reference, click, config.MixGain)

	return estimatedMix, referenceMix, nil
}

// renderClick synthesizes one exponentially decaying sine click
func renderClick(sampleRate int, config *Config) []float64 {
	numSamples := int(config.ClickDurationSec * float64(sampleRate))
	if numSamples < 1 {
		numSamples = 1
	}

	click := make([]float64, numSamples)
	for i := range click {
		t := float64(i) / float64(sampleRate)
		decay := math.Exp(-4 * t / config.ClickDurationSec)
		click[i] = config.ClickGain * decay * math.Sin(2*math.Pi*config.ClickFreq*t)
	}
	return click
}

// overlayClicks mixes the click waveform into a gain-reduced copy of the
// audio at each beat time
func overlayClicks(pcm []float64, sampleRate int, beats beat.BeatSequence, click []float64, mixGain float64) []float64 {
	out := make([]float64, len(pcm))
	for i, v := range pcm {
		out[i] = v * mixGain
	}

	for _, beatTime := range beats {
		start := int(math.Round(beatTime * float64(sampleRate)))
		if start < 0 || start >= len(out) {
			continue
		}
		for i, c := range click {
			idx := start + i
			if idx >= len(out) {
				break
			}
			out[idx] += c
		}
	}

	// Hard limit
	for i, v := range out {
		if v > 1 {
			out[i] = 1
		} else if v < -1 {
			out[i] = -1
		}
	}

	return out
}

// WriteWAV writes a mono float signal as a 16-bit PCM WAV file
func WriteWAV(path string, samples []float64, sampleRate int) error {
	if sampleRate <= 0 {
		return fmt.Errorf("%w: sample rate must be positive, got %d",
			beat.ErrInvalidArgument, sampleRate)
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating %s: %v", path, err)
	}
	defer f.Close()

	encoder := wav.NewEncoder(f, sampleRate, 16, 1, 1)

	data := make([]int, len(samples))
	for i, v := range samples {
		if v > 1 {
			v = 1
		} else if v < -1 {
			v = -1
		}
		data[i] = int(math.Round(v * 32767))
	}

	buf := &audio.IntBuffer{
		Format:         &audio.Format{NumChannels: 1, SampleRate: sampleRate},
		Data:           data,
		SourceBitDepth: 16,
	}

	if err := encoder.Write(buf); err != nil {
		return fmt.Errorf("writing %s: %v", path, err)
	}

	return encoder.Close()
}
