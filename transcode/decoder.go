package transcode

import (
	"bytes"
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"math"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	"github.com/go-audio/wav"

	"github.com/RyanBlaney/sonido-pulso/logging"
)

// ErrDecode reports unreadable or corrupt audio. In corpus batch runs it is
// isolated per track: recorded, skipped, never fatal.
var ErrDecode = errors.New("audio decode failed")

// AudioData represents decoded audio data: mono PCM samples in [-1, 1]
// plus the sampling rate. Immutable once decoded.
type AudioData struct {
	PCM        []float64     `json:"-"`
	SampleRate int           `json:"sample_rate"`
	Channels   int           `json:"channels"`
	Duration   time.Duration `json:"duration"`
	Source     string        `json:"source,omitempty"`
}

// DecoderConfig holds decoder configuration
type DecoderConfig struct {
	// TargetSampleRate is the rate ffmpeg resamples to. WAV files
	// decoded natively keep their source rate.
	TargetSampleRate int `json:"target_sample_rate"`

	// FFmpegPath is the ffmpeg binary used for non-WAV formats
	FFmpegPath string `json:"ffmpeg_path"`

	// Timeout bounds each ffmpeg invocation
	Timeout time.Duration `json:"timeout"`
}

// DefaultDecoderConfig returns default decoder configuration
func DefaultDecoderConfig() *DecoderConfig {
	return &DecoderConfig{
		TargetSampleRate: 22050,
		FFmpegPath:       "ffmpeg", // Assume in PATH
		Timeout:          30 * time.Second,
	}
}

// Decoder decodes audio files to mono float64 PCM. WAV files are decoded
// natively; everything else is piped through ffmpeg.
type Decoder struct {
	config *DecoderConfig
	logger logging.Logger
}

// NewDecoder creates a new decoder; nil config selects defaults
func NewDecoder(config *DecoderConfig) *Decoder {
	if config == nil {
		config = DefaultDecoderConfig()
	}
	return &Decoder{
		config: config,
		logger: logging.GetGlobalLogger().WithFields(logging.Fields{"component": "decoder"}),
	}
}

// DecodeFile decodes an audio file to mono PCM. Fails with ErrDecode on
// unreadable, corrupt or empty input.
func (d *Decoder) DecodeFile(ctx context.Context, filename string) (*AudioData, error) {
	var (
		audio *AudioData
		err   error
	)

	switch strings.ToLower(filepath.Ext(filename)) {
	case ".wav":
		audio, err = d.decodeWAV(filename)
	default:
		audio, err = d.decodeWithFFmpeg(ctx, filename)
	}
	if err != nil {
		return nil, err
	}

	if len(audio.PCM) == 0 {
		return nil, fmt.Errorf("%w: %s contains no samples", ErrDecode, filename)
	}

	audio.Source = filename
	audio.Duration = time.Duration(float64(len(audio.PCM)) / float64(audio.SampleRate) * float64(time.Second))

	d.logger.Debug("decoded audio file", logging.Fields{
		"file":        filename,
		"samples":     len(audio.PCM),
		"sample_rate": audio.SampleRate,
	})

	return audio, nil
}

// decodeWAV decodes a WAV file natively with go-audio, downmixing
// multi-channel content to mono by averaging
func (d *Decoder) decodeWAV(filename string) (*AudioData, error) {
	f, err := os.Open(filename)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDecode, err)
	}
	defer f.Close()

	decoder := wav.NewDecoder(f)
	if !decoder.IsValidFile() {
		return nil, fmt.Errorf("%w: %s is not a valid WAV file", ErrDecode, filename)
	}

	buf, err := decoder.FullPCMBuffer()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDecode, err)
	}
	if buf == nil || buf.Format == nil || len(buf.Data) == 0 {
		return nil, fmt.Errorf("%w: %s contains no samples", ErrDecode, filename)
	}

	channels := buf.Format.NumChannels
	if channels < 1 {
		channels = 1
	}

	bitDepth := int(decoder.BitDepth)
	if bitDepth <= 0 {
		bitDepth = 16
	}
	scale := float64(int64(1) << (bitDepth - 1))

	numFrames := len(buf.Data) / channels
	pcm := make([]float64, numFrames)
	for i := 0; i < numFrames; i++ {
		sum := 0.0
		for ch := 0; ch < channels; ch++ {
			sum += float64(buf.Data[i*channels+ch])
		}
		pcm[i] = sum / float64(channels) / scale
	}

	return &AudioData{
		PCM:        pcm,
		SampleRate: buf.Format.SampleRate,
		Channels:   1,
	}, nil
}

// decodeWithFFmpeg shells out to ffmpeg, requesting mono f64le at the
// target sample rate on stdout
func (d *Decoder) decodeWithFFmpeg(ctx context.Context, filename string) (*AudioData, error) {
	if d.config.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, d.config.Timeout)
		defer cancel()
	}

	args := []string{
		"-hide_banner",
		"-loglevel", "error",
		"-i", filename,
		"-f", "f64le",
		"-acodec", "pcm_f64le",
		"-ac", "1",
		"-ar", fmt.Sprintf("%d", d.config.TargetSampleRate),
		"pipe:1",
	}

	cmd := exec.CommandContext(ctx, d.config.FFmpegPath, args...)

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		return nil, fmt.Errorf("%w: ffmpeg failed for %s: %v (%s)",
			ErrDecode, filename, err, strings.TrimSpace(stderr.String()))
	}

	pcm := bytesToFloat64(stdout.Bytes())

	return &AudioData{
		PCM:        pcm,
		SampleRate: d.config.TargetSampleRate,
		Channels:   1,
	}, nil
}

// bytesToFloat64 converts little-endian f64 bytes to samples
func bytesToFloat64(data []byte) []float64 {
	numSamples := len(data) / 8
	samples := make([]float64, numSamples)
	for i := 0; i < numSamples; i++ {
		bits := binary.LittleEndian.Uint64(data[i*8 : (i+1)*8])
		samples[i] = math.Float64frombits(bits)
	}
	return samples
}
