// Command pulso-eval estimates beats for every track of a labeled corpus,
// scores the estimates against the reference annotations, and prints the
// results grouped by genre plus tempo-vs-score pairs.
//
// Expected corpus layout:
//
//	root/
//	  audio/<genre>/<track_id>.wav
//	  beats/<track_id>.beats
//	  tempo/<track_id>.bpm
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"text/tabwriter"

	"github.com/RyanBlaney/sonido-pulso/beat"
	"github.com/RyanBlaney/sonido-pulso/corpus"
	"github.com/RyanBlaney/sonido-pulso/eval"
	"github.com/RyanBlaney/sonido-pulso/logging"
	"github.com/RyanBlaney/sonido-pulso/sonify"
	"github.com/RyanBlaney/sonido-pulso/transcode"
)

var (
	corpusRoot    = flag.String("corpus", "", "corpus root directory (required)")
	hopSize       = flag.Int("hop", 512, "STFT hop size in samples")
	frameLength   = flag.Int("frame", 1024, "STFT frame length in samples")
	tempoMin      = flag.Float64("tempo-min", 30, "tempo search lower bound in BPM")
	tempoMax      = flag.Float64("tempo-max", 300, "tempo search upper bound in BPM")
	peakThreshold = flag.Float64("threshold", 0.1, "relative PLP peak threshold (0-1)")
	tolerance     = flag.Float64("tolerance", 0.07, "F-measure tolerance window in seconds")
	workers       = flag.Int("workers", 0, "evaluation workers (0 = auto)")
	sonifyDir     = flag.String("sonify-dir", "", "write estimated/reference click mixes per track to this directory")
	showPairs     = flag.Bool("pairs", false, "print per-track (tempo, f-measure) pairs")
	verbose       = flag.Bool("v", false, "debug logging")
)

func main() {
	flag.Parse()

	logger := logging.NewDefaultLogger()
	if *verbose {
		logger.SetLevel(logging.DebugLevel)
	}
	logging.SetGlobalLogger(logger)

	if *corpusRoot == "" {
		fmt.Fprintln(os.Stderr, "usage: pulso-eval -corpus <root> [flags]")
		flag.PrintDefaults()
		os.Exit(2)
	}

	if err := run(context.Background(), logger); err != nil {
		logger.Fatal(err, "evaluation failed")
	}
}

func run(ctx context.Context, logger logging.Logger) error {
	provider, err := corpus.Open(*corpusRoot)
	if err != nil {
		return err
	}

	estimatorConfig := beat.DefaultEstimatorConfig()
	estimatorConfig.HopSize = *hopSize
	estimatorConfig.FrameLength = *frameLength
	estimatorConfig.TempoMin = *tempoMin
	estimatorConfig.TempoMax = *tempoMax

	trackerConfig := beat.DefaultTrackerConfig()
	trackerConfig.PeakThreshold = *peakThreshold
	trackerConfig.MinBeatIntervalSec = 60.0 / *tempoMax

	pipeline, err := beat.NewPipeline(estimatorConfig, trackerConfig)
	if err != nil {
		return err
	}

	evalConfig := eval.DefaultConfig()
	evalConfig.ToleranceSec = *tolerance
	evalConfig.Workers = *workers

	decoder := transcode.NewDecoder(nil)

	evaluator, err := eval.NewEvaluator(provider, decoder, pipeline, evalConfig)
	if err != nil {
		return err
	}

	scores, err := evaluator.EvaluateCorpus(ctx, nil)
	if err != nil {
		return err
	}

	printGenreTable(scores, provider)

	if *showPairs {
		printTempoPairs(scores, provider)
	}

	if *sonifyDir != "" {
		if err := writeSonifications(ctx, scores, provider, decoder); err != nil {
			return err
		}
	}

	return nil
}

func printGenreTable(scores *eval.CorpusScores, provider corpus.Provider) {
	table := eval.SplitByGenre(scores, provider.Genre)
	summaries := eval.SummarizeByGenre(table, eval.MetricFMeasure)

	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "GENRE\tTRACKS\tSKIPPED\tF-MEASURE\tSTDDEV")
	for _, s := range summaries {
		fmt.Fprintf(w, "%s\t%d\t%d\t%.3f\t%.3f\n", s.Genre, s.Count, s.Skipped, s.Mean, s.StdDev)
	}
	w.Flush()

	fmt.Printf("\nevaluated %d tracks, skipped %d\n", scores.Evaluated, scores.Skipped)
}

func printTempoPairs(scores *eval.CorpusScores, provider corpus.Provider) {
	pairs := eval.TempoVsPerformance(scores, provider.Tempo, eval.MetricFMeasure)

	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "\nTRACK\tTEMPO\tF-MEASURE")
	for _, p := range pairs {
		fmt.Fprintf(w, "%s\t%.1f\t%.3f\n", p.TrackID, p.Tempo, p.Score)
	}
	w.Flush()
}

func writeSonifications(ctx context.Context, scores *eval.CorpusScores, provider corpus.Provider, decoder *transcode.Decoder) error {
	if err := os.MkdirAll(*sonifyDir, 0o755); err != nil {
		return err
	}

	for trackID, result := range scores.Results {
		if result.Skipped {
			continue
		}

		path, err := provider.AudioPath(trackID)
		if err != nil {
			continue
		}
		audioData, err := decoder.DecodeFile(ctx, path)
		if err != nil {
			continue
		}
		reference, err := provider.ReferenceBeats(trackID)
		if err != nil {
			continue
		}

		estMix, refMix, err := sonify.Sonify(audioData, result.Estimated, reference, nil)
		if err != nil {
			return err
		}

		estPath := filepath.Join(*sonifyDir, trackID+"_estimated.wav")
		if err := sonify.WriteWAV(estPath, estMix, audioData.SampleRate); err != nil {
			return err
		}
		refPath := filepath.Join(*sonifyDir, trackID+"_reference.wav")
		if err := sonify.WriteWAV(refPath, refMix, audioData.SampleRate); err != nil {
			return err
		}
	}

	return nil
}
