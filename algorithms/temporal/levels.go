package temporal

import (
	"fmt"
	"math"

	"github.com/pulseviz/pulseviz/algorithms/common"
)

// Levels is one frame's loudness snapshot
type Levels struct {
	RMS  float64 `json:"rms"`
	Peak float64 `json:"peak"`
	Gain float64 `json:"gain"`
}

// LevelTracker follows RMS and peak levels with exponential averaging and
// steers an auto-gain value toward a target RMS. Renderers use the gain to
// keep the display lively at low listening volumes without clipping at high
// ones.
type LevelTracker struct {
	targetRMS  float64
	levelAlpha float64
	gainAlpha  float64

	rms  float64
	peak float64
	gain float64
}

// NewLevelTracker creates a tracker aiming for the given RMS level
func NewLevelTracker(targetRMS float64) (*LevelTracker, error) {
	if targetRMS <= 0 || targetRMS > 1 {
		return nil, fmt.Errorf("target RMS out of (0,1]: %g", targetRMS)
	}
	return &LevelTracker{
		targetRMS:  targetRMS,
		levelAlpha: 0.1,
		gainAlpha:  0.05,
		gain:       1.0,
	}, nil
}

// Update folds one frame of samples into the running levels
func (l *LevelTracker) Update(samples []float64) Levels {
	frameRMS := common.RMS(samples)
	framePeak := 0.0
	for _, s := range samples {
		if a := math.Abs(s); a > framePeak {
			framePeak = a
		}
	}

	l.rms = (1-l.levelAlpha)*l.rms + l.levelAlpha*common.Sanitize(frameRMS)
	l.peak = (1-l.levelAlpha)*l.peak + l.levelAlpha*common.Sanitize(framePeak)

	if l.rms > 0.01 {
		targetGain := l.targetRMS / l.rms
		l.gain = (1-l.gainAlpha)*l.gain + l.gainAlpha*targetGain
		l.gain = common.Clamp(l.gain, 0.1, 2.0)
	}

	return Levels{RMS: l.rms, Peak: l.peak, Gain: l.gain}
}

// Reset restores the tracker to its initial state
func (l *LevelTracker) Reset() {
	l.rms = 0
	l.peak = 0
	l.gain = 1.0
}
