package bands

import (
	"fmt"

	"github.com/pulseviz/pulseviz/algorithms/common"
)

// Normalizer maps smoothed band energies into [0,1] against a per-band
// running maximum. The maximum decays slowly each frame, so a loud peak
// raises headroom immediately while quiet passages re-calibrate over time
// (auto-gain-control behavior).
type Normalizer struct {
	decay      float64
	epsilon    float64
	runningMax [Count]float64
}

// NewNormalizer creates a normalizer. decay must lie in (0,1); epsilon must
// be positive and guards division during silence.
func NewNormalizer(decay, epsilon float64) (*Normalizer, error) {
	if decay <= 0 || decay >= 1 {
		return nil, fmt.Errorf("running max decay out of (0,1): %g", decay)
	}
	if epsilon <= 0 {
		return nil, fmt.Errorf("epsilon must be positive: %g", epsilon)
	}
	return &Normalizer{decay: decay, epsilon: epsilon}, nil
}

// Normalize updates the running maxima with this frame's smoothed values and
// returns the normalized [0,1] energies.
func (n *Normalizer) Normalize(smoothed [Count]float64) [Count]float64 {
	var normalized [Count]float64

	for b := 0; b < Count; b++ {
		value := common.Sanitize(smoothed[b])
		if value < 0 {
			value = 0
		}

		decayed := n.runningMax[b] * n.decay
		if value > decayed {
			n.runningMax[b] = value
		} else {
			n.runningMax[b] = decayed
		}

		denom := n.runningMax[b]
		if denom < n.epsilon {
			denom = n.epsilon
		}

		normalized[b] = common.Clamp(common.Sanitize(value/denom), 0, 1)
	}

	return normalized
}

// RunningMax returns the current per-band maxima
func (n *Normalizer) RunningMax() [Count]float64 {
	return n.runningMax
}

// Reset clears the running maxima
func (n *Normalizer) Reset() {
	n.runningMax = [Count]float64{}
}
