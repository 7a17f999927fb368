package spectral

// Flux computes half-wave-rectified spectral flux between two consecutive
// magnitude spectra: the sum of positive bin-wise increases, normalized by
// bin count. Only rising energy counts; decays are ignored.
//
// Returns 0 when previous is nil or the shapes disagree (first frame of a
// stream, or a transform-size change).
func Flux(current, previous []float64) float64 {
	if previous == nil || len(previous) != len(current) || len(current) == 0 {
		return 0.0
	}

	sum := 0.0
	for i := range current {
		diff := current[i] - previous[i]
		if diff > 0 {
			sum += diff
		}
	}

	return sum / float64(len(current))
}
