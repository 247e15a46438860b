package eval

import (
	"sort"

	"github.com/RyanBlaney/sonido-pulso/algorithms/common"
)

// UnknownGenre is the bucket for tracks whose genre lookup fails
const UnknownGenre = "unknown"

// GenreScoreTable partitions corpus results by genre label: genre -> track
// id -> result. Every track of the source CorpusScores appears in exactly
// one bucket.
type GenreScoreTable map[string]map[string]TrackResult

// TempoScorePair couples a track's annotated tempo with one of its metric
// values.
type TempoScorePair struct {
	TrackID string  `json:"track_id"`
	Tempo   float64 `json:"tempo"`
	Score   float64 `json:"score"`
}

// GenreSummary aggregates one genre bucket.
type GenreSummary struct {
	Genre   string  `json:"genre"`
	Count   int     `json:"count"`
	Skipped int     `json:"skipped"`
	Mean    float64 `json:"mean"`
	StdDev  float64 `json:"std_dev"`
}

// SplitByGenre partitions corpus results by the genre lookup. Tracks whose
// lookup reports no genre land in the "unknown" bucket. Total function:
// every input track is placed.
func SplitByGenre(scores *CorpusScores, genreOf func(trackID string) (string, bool)) GenreScoreTable {
	table := make(GenreScoreTable)

	for trackID, result := range scores.Results {
		genre, ok := genreOf(trackID)
		if !ok || genre == "" {
			genre = UnknownGenre
		}

		bucket, exists := table[genre]
		if !exists {
			bucket = make(map[string]TrackResult)
			table[genre] = bucket
		}
		bucket[trackID] = result
	}

	return table
}

// TempoVsPerformance extracts (tempo, metric value) pairs for every track
// that has both a tempo annotation and a non-skipped score carrying the
// metric. Tracks missing either are excluded by design, not an error.
// Pairs are ordered by track id for reproducible output.
func TempoVsPerformance(scores *CorpusScores, tempoOf func(trackID string) (float64, bool), metric string) []TempoScorePair {
	var pairs []TempoScorePair

	for trackID, result := range scores.Results {
		if result.Skipped {
			continue
		}

		score, hasMetric := result.Scores[metric]
		if !hasMetric {
			continue
		}

		tempo, hasTempo := tempoOf(trackID)
		if !hasTempo {
			continue
		}

		pairs = append(pairs, TempoScorePair{
			TrackID: trackID,
			Tempo:   tempo,
			Score:   score,
		})
	}

	sort.Slice(pairs, func(i, j int) bool { return pairs[i].TrackID < pairs[j].TrackID })

	return pairs
}

// SummarizeByGenre reduces each genre bucket to count, skip count and the
// mean and standard deviation of the given metric over its evaluated
// tracks. Summaries are ordered by genre label.
func SummarizeByGenre(table GenreScoreTable, metric string) []GenreSummary {
	summaries := make([]GenreSummary, 0, len(table))

	for genre, bucket := range table {
		summary := GenreSummary{Genre: genre}

		var values []float64
		for _, result := range bucket {
			if result.Skipped {
				summary.Skipped++
				continue
			}
			if score, ok := result.Scores[metric]; ok {
				values = append(values, score)
			}
		}

		summary.Count = len(values)
		summary.Mean = common.Mean(values)
		summary.StdDev = common.StandardDeviation(values)

		summaries = append(summaries, summary)
	}

	sort.Slice(summaries, func(i, j int) bool { return summaries[i].Genre < summaries[j].Genre })

	return summaries
}
