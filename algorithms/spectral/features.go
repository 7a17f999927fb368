package spectral

import (
	"github.com/pulseviz/pulseviz/algorithms/common"
)

// Centroid returns the spectral centroid in Hz, an indicator of perceived
// brightness. Returns 0 for an empty or silent spectrum.
func (s *Spectrum) Centroid() float64 {
	total := common.Sum(s.Magnitudes)
	if total <= 0 {
		return 0.0
	}

	weighted := 0.0
	for i, mag := range s.Magnitudes {
		weighted += s.BinFrequency(i) * mag
	}

	return weighted / total
}

// Rolloff returns the frequency in Hz below which the given fraction of the
// total spectral energy resides. Percussive content rolls off high, sustained
// tonal content rolls off low.
func (s *Spectrum) Rolloff(fraction float64) float64 {
	total := common.Sum(s.Magnitudes)
	if total <= 0 {
		return 0.0
	}

	threshold := total * fraction
	cumulative := 0.0
	for i, mag := range s.Magnitudes {
		cumulative += mag
		if cumulative >= threshold {
			return s.BinFrequency(i)
		}
	}

	return s.BinFrequency(len(s.Magnitudes) - 1)
}

// ZeroCrossingRate returns the fraction of adjacent sample pairs whose signs
// differ. Noisy or transient material crosses zero more often than tonal
// material.
func ZeroCrossingRate(samples []float64) float64 {
	if len(samples) < 2 {
		return 0.0
	}

	crossings := 0
	for i := 1; i < len(samples); i++ {
		if (samples[i] >= 0) != (samples[i-1] >= 0) {
			crossings++
		}
	}

	return float64(crossings) / float64(len(samples)-1)
}
