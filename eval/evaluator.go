package eval

import (
	"context"
	"errors"
	"runtime"
	"sync"

	"github.com/RyanBlaney/sonido-pulso/beat"
	"github.com/RyanBlaney/sonido-pulso/corpus"
	"github.com/RyanBlaney/sonido-pulso/logging"
	"github.com/RyanBlaney/sonido-pulso/transcode"
)

// Skip reasons recorded on TrackResult
const (
	SkipMissingAudio    = "missing_audio"
	SkipDecodeError     = "decode_error"
	SkipEstimationError = "estimation_error"
	SkipMissingRef      = "missing_reference"
	SkipNotEvaluable    = "not_evaluable"
)

// AudioDecoder decodes one audio file; satisfied by *transcode.Decoder
type AudioDecoder interface {
	DecodeFile(ctx context.Context, path string) (*transcode.AudioData, error)
}

// BeatEstimator estimates beat times for one decoded track; satisfied by
// *beat.Pipeline
type BeatEstimator interface {
	EstimateBeats(signal []float64, sampleRate int) (beat.BeatSequence, error)
}

// TempoEstimator is an optional upgrade of BeatEstimator that also reports
// a global tempo in the same analysis pass
type TempoEstimator interface {
	EstimateBeatsAndTempo(signal []float64, sampleRate int) (beat.BeatSequence, float64, error)
}

// TrackResult describes the outcome for one track: either scores, or an
// explicit skip with its reason. Failed tracks are recorded, never omitted,
// so aggregate counts stay consistent.
type TrackResult struct {
	TrackID        string            `json:"track_id"`
	Scores         Result            `json:"scores,omitempty"`
	Estimated      beat.BeatSequence `json:"estimated,omitempty"`
	EstimatedTempo float64           `json:"estimated_tempo,omitempty"`
	Skipped        bool              `json:"skipped"`
	Reason         string            `json:"reason,omitempty"`
	Err            error             `json:"-"`
}

// CorpusScores maps track identifier to its evaluation outcome, with
// summary counts over successes and skips.
type CorpusScores struct {
	Results   map[string]TrackResult `json:"results"`
	Evaluated int                    `json:"evaluated"`
	Skipped   int                    `json:"skipped"`
}

// Evaluator runs the decode -> estimate -> score pipeline over a corpus.
type Evaluator struct {
	provider  corpus.Provider
	decoder   AudioDecoder
	estimator BeatEstimator
	config    *Config
	logger    logging.Logger
}

// NewEvaluator creates a corpus evaluator; nil config selects defaults
func NewEvaluator(provider corpus.Provider, decoder AudioDecoder, estimator BeatEstimator, config *Config) (*Evaluator, error) {
	if config == nil {
		config = DefaultConfig()
	}
	if err := config.Validate(); err != nil {
		return nil, err
	}

	return &Evaluator{
		provider:  provider,
		decoder:   decoder,
		estimator: estimator,
		config:    config,
		logger:    logging.GetGlobalLogger().WithFields(logging.Fields{"component": "evaluator"}),
	}, nil
}

// EvaluateCorpus evaluates the given tracks, or every track of the corpus
// when trackIDs is nil. Tracks are processed on a worker pool; each worker
// produces an independent partial result and the merge is a plain union
// since track ids are disjoint. A failing track is recorded with its skip
// reason and never aborts the batch.
func (ev *Evaluator) EvaluateCorpus(ctx context.Context, trackIDs []string) (*CorpusScores, error) {
	if trackIDs == nil {
		trackIDs = ev.provider.TrackIDs()
	}

	scores := &CorpusScores{
		Results: make(map[string]TrackResult, len(trackIDs)),
	}
	if len(trackIDs) == 0 {
		return scores, nil
	}

	numWorkers := ev.config.Workers
	if numWorkers <= 0 {
		numWorkers = min(runtime.NumCPU(), 8)
	}
	if numWorkers > len(trackIDs) {
		numWorkers = len(trackIDs)
	}

	jobs := make(chan string, len(trackIDs))
	results := make(chan TrackResult, len(trackIDs))

	var wg sync.WaitGroup
	for loopIdx := 0; loopIdx < numWorkers; loopIdx++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for trackID := range jobs {
				results <- ev.evaluateTrack(ctx, trackID)
			}
		}()
	}

	for _, trackID := range trackIDs {
		jobs <- trackID
	}
	close(jobs)

	go func() {
		wg.Wait()
		close(results)
	}()

	for result := range results {
		scores.Results[result.TrackID] = result
		if result.Skipped {
			scores.Skipped++
		} else {
			scores.Evaluated++
		}
	}

	ev.logger.Info("corpus evaluation finished", logging.Fields{
		"evaluated": scores.Evaluated,
		"skipped":   scores.Skipped,
	})

	return scores, nil
}

// evaluateTrack runs the single-track pipeline, mapping each failure mode
// to its skip reason
func (ev *Evaluator) evaluateTrack(ctx context.Context, trackID string) TrackResult {
	result := TrackResult{TrackID: trackID}

	path, err := ev.provider.AudioPath(trackID)
	if err != nil {
		return ev.skip(result, SkipMissingAudio, err)
	}

	audio, err := ev.decoder.DecodeFile(ctx, path)
	if err != nil {
		return ev.skip(result, SkipDecodeError, err)
	}

	var (
		estimated beat.BeatSequence
		tempo     float64
	)
	if te, ok := ev.estimator.(TempoEstimator); ok {
		estimated, tempo, err = te.EstimateBeatsAndTempo(audio.PCM, audio.SampleRate)
	} else {
		estimated, err = ev.estimator.EstimateBeats(audio.PCM, audio.SampleRate)
	}
	if err != nil {
		return ev.skip(result, SkipEstimationError, err)
	}

	reference, err := ev.provider.ReferenceBeats(trackID)
	if err != nil {
		return ev.skip(result, SkipMissingRef, err)
	}

	trackScores, err := ScoreBeats(estimated, reference, ev.config)
	if err != nil {
		if errors.Is(err, ErrNotEvaluable) {
			return ev.skip(result, SkipNotEvaluable, err)
		}
		return ev.skip(result, SkipEstimationError, err)
	}

	result.Scores = trackScores
	result.Estimated = estimated
	result.EstimatedTempo = tempo
	return result
}

func (ev *Evaluator) skip(result TrackResult, reason string, err error) TrackResult {
	result.Skipped = true
	result.Reason = reason
	result.Err = err
	ev.logger.Warn("track skipped", logging.Fields{
		"track_id": result.TrackID,
		"reason":   reason,
		"error":    err.Error(),
	})
	return result
}
