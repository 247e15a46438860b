package beat

// Pipeline chains the estimator and the tracker into the single-track beat
// estimation entry point: decoded audio in, beat times in seconds out.
type Pipeline struct {
	estimator *Estimator
	tracker   *Tracker
}

// NewPipeline creates a pipeline from estimator and tracker configurations;
// nil selects the respective defaults.
func NewPipeline(estimatorConfig *EstimatorConfig, trackerConfig *TrackerConfig) (*Pipeline, error) {
	estimator, err := NewEstimator(estimatorConfig)
	if err != nil {
		return nil, err
	}

	tracker, err := NewTracker(trackerConfig)
	if err != nil {
		return nil, err
	}

	return &Pipeline{estimator: estimator, tracker: tracker}, nil
}

// Estimator returns the underlying novelty/tempogram/PLP estimator
func (p *Pipeline) Estimator() *Estimator {
	return p.estimator
}

// Tracker returns the underlying peak-picking tracker
func (p *Pipeline) Tracker() *Tracker {
	return p.tracker
}

// EstimateBeats runs novelty extraction, tempogram and PLP reconstruction,
// then peak picking, returning the estimated beat times for one track.
func (p *Pipeline) EstimateBeats(signal []float64, sampleRate int) (BeatSequence, error) {
	estimate, err := p.estimator.Estimate(signal, sampleRate)
	if err != nil {
		return nil, err
	}
	return p.tracker.Track(estimate.PLP)
}

// EstimateBeatsAndTempo runs the full chain once and additionally estimates
// a global tempo from the autocorrelation tempogram of the same novelty
// curve. The novelty is computed once and shared by both analyses.
func (p *Pipeline) EstimateBeatsAndTempo(signal []float64, sampleRate int) (BeatSequence, float64, error) {
	novelty, err := p.estimator.EstimateNovelty(signal, sampleRate)
	if err != nil {
		return nil, 0, err
	}

	estimate, err := p.estimator.EstimateFromNovelty(novelty)
	if err != nil {
		return nil, 0, err
	}

	beats, err := p.tracker.Track(estimate.PLP)
	if err != nil {
		return nil, 0, err
	}

	tempo, err := p.estimator.EstimateTempo(novelty)
	if err != nil {
		return nil, 0, err
	}

	return beats, tempo, nil
}
