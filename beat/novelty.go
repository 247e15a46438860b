package beat

// NoveltyCurve is an onset novelty function tagged with the sampling grid it
// was computed on. Values are non-negative, one per analysis frame, and the
// curve is immutable once produced.
type NoveltyCurve struct {
	Values []float64    `json:"values"`
	Grid   SamplingGrid `json:"grid"`
}

// Len returns the number of frames in the curve
func (nc NoveltyCurve) Len() int {
	return len(nc.Values)
}

// FrameRate returns frames per second on the curve's own grid
func (nc NoveltyCurve) FrameRate() float64 {
	return nc.Grid.FrameRate()
}

// Times returns the timestamp in seconds of every frame, using the curve's
// own grid conversion
func (nc NoveltyCurve) Times() ([]float64, error) {
	return nc.Grid.Times(len(nc.Values))
}
