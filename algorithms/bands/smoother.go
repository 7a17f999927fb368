package bands

import (
	"fmt"

	"github.com/pulseviz/pulseviz/algorithms/common"
)

// Alphas holds an asymmetric pair of exponential smoothing coefficients.
// Attack applies when energy rises (large = fast response to transients),
// Release when it falls (small = slow decay, less flicker).
type Alphas struct {
	Attack  float64 `json:"attack"`
	Release float64 `json:"release"`
}

// Smoother applies per-band asymmetric exponential smoothing. Low bands are
// typically configured faster than high bands: percussive transients live
// down low, sustained energy matters more up high.
type Smoother struct {
	coeffs [Count]Alphas
	state  [Count]float64
}

// NewSmoother validates the coefficient table and creates a smoother with
// zeroed state.
func NewSmoother(coeffs [Count]Alphas) (*Smoother, error) {
	for b, c := range coeffs {
		if c.Attack <= 0 || c.Attack > 1 {
			return nil, fmt.Errorf("band %q attack alpha out of (0,1]: %g", Names[b], c.Attack)
		}
		if c.Release <= 0 || c.Release > 1 {
			return nil, fmt.Errorf("band %q release alpha out of (0,1]: %g", Names[b], c.Release)
		}
	}
	return &Smoother{coeffs: coeffs}, nil
}

// Smooth folds one frame of raw energies into the running smoothed values
// and returns the updated values.
func (s *Smoother) Smooth(raw [Count]float64) [Count]float64 {
	for b := 0; b < Count; b++ {
		value := common.Sanitize(raw[b])
		if value < 0 {
			value = 0
		}

		alpha := s.coeffs[b].Release
		if value > s.state[b] {
			alpha = s.coeffs[b].Attack
		}

		smoothed := alpha*value + (1-alpha)*s.state[b]
		if smoothed < 0 || !common.IsFinite(smoothed) {
			smoothed = 0
		}
		s.state[b] = smoothed
	}
	return s.state
}

// Values returns the current smoothed values
func (s *Smoother) Values() [Count]float64 {
	return s.state
}

// Reset clears all smoothed state
func (s *Smoother) Reset() {
	s.state = [Count]float64{}
}
