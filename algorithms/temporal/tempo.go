package temporal

import (
	"fmt"
	"math"
)

// TempoParams configures the beat-grid tempo estimator
type TempoParams struct {
	// MinBPM and MaxBPM bound the plausible tempo range.
	MinBPM float64 `json:"min_bpm"`
	MaxBPM float64 `json:"max_bpm"`
	// WindowSeconds is the sliding window of onset history; older
	// timestamps are discarded.
	WindowSeconds float64 `json:"window_seconds"`
	// MinOnsets is the onset count required before estimating.
	MinOnsets int `json:"min_onsets"`
	// GridTolerance is how far (seconds) an onset may sit from a beat-grid
	// position and still count as aligned.
	GridTolerance float64 `json:"grid_tolerance"`
	// ConfidenceThreshold is the minimum alignment score for a new
	// estimate to be accepted.
	ConfidenceThreshold float64 `json:"confidence_threshold"`
	// TieBreakMargin is how much better a higher BPM candidate must score
	// to displace a lower one; lower tempos win near-ties, which avoids
	// octave-doubling.
	TieBreakMargin float64 `json:"tie_break_margin"`
	// BlendFactor and LockedBlendFactor control how fast the exposed BPM
	// follows an accepted estimate, unlocked and locked respectively.
	BlendFactor       float64 `json:"blend_factor"`
	LockedBlendFactor float64 `json:"locked_blend_factor"`
	// LockAfter is the number of consecutive agreeing confident estimates
	// before the estimate locks; UnlockAfter is the number of consecutive
	// low-confidence evaluations before it unlocks again.
	LockAfter   int `json:"lock_after"`
	UnlockAfter int `json:"unlock_after"`
	// AgreeTolerance is the BPM distance within which consecutive
	// estimates count as agreeing.
	AgreeTolerance float64 `json:"agree_tolerance"`
	// MaxLockedDeviation is the BPM deviation beyond which a locked
	// estimate damps the update hard instead of following it.
	MaxLockedDeviation float64 `json:"max_locked_deviation"`
}

// DefaultTempoParams returns the standard estimator tuning
func DefaultTempoParams() TempoParams {
	return TempoParams{
		MinBPM:              60,
		MaxBPM:              200,
		WindowSeconds:       6.0,
		MinOnsets:           4,
		GridTolerance:       0.03,
		ConfidenceThreshold: 0.7,
		TieBreakMargin:      0.1,
		BlendFactor:         0.3,
		LockedBlendFactor:   0.1,
		LockAfter:           3,
		UnlockAfter:         3,
		AgreeTolerance:      5,
		MaxLockedDeviation:  10,
	}
}

// TempoUpdate is the estimator's externally visible state after an onset
type TempoUpdate struct {
	BPM        float64 `json:"bpm"`
	Confidence float64 `json:"confidence"`
	Locked     bool    `json:"locked"`
}

// TempoEstimator keeps a bounded history of onset timestamps and searches
// for the BPM whose beat grid best aligns with them. The exposed BPM blends
// toward accepted estimates and locks once they agree for a sustained run,
// after which it resists perturbation until confidence drops.
type TempoEstimator struct {
	params TempoParams

	onsets      []float64
	bpm         float64
	confidence  float64
	locked      bool
	agreeStreak int
	lowStreak   int
}

// NewTempoEstimator validates params and creates an estimator
func NewTempoEstimator(params TempoParams) (*TempoEstimator, error) {
	if params.MinBPM <= 0 || params.MaxBPM <= params.MinBPM {
		return nil, fmt.Errorf("BPM range invalid: [%g, %g]", params.MinBPM, params.MaxBPM)
	}
	if params.WindowSeconds <= 0 {
		return nil, fmt.Errorf("window must be positive, got %g", params.WindowSeconds)
	}
	if params.MinOnsets < 2 {
		return nil, fmt.Errorf("min onsets must be >= 2, got %d", params.MinOnsets)
	}
	if params.GridTolerance <= 0 {
		return nil, fmt.Errorf("grid tolerance must be positive, got %g", params.GridTolerance)
	}
	if params.ConfidenceThreshold <= 0 || params.ConfidenceThreshold > 1 {
		return nil, fmt.Errorf("confidence threshold out of (0,1]: %g", params.ConfidenceThreshold)
	}
	if params.BlendFactor <= 0 || params.BlendFactor > 1 ||
		params.LockedBlendFactor <= 0 || params.LockedBlendFactor > 1 {
		return nil, fmt.Errorf("blend factors out of (0,1]: %g / %g", params.BlendFactor, params.LockedBlendFactor)
	}
	if params.LockAfter < 1 || params.UnlockAfter < 1 {
		return nil, fmt.Errorf("lock/unlock counts must be positive: %d / %d", params.LockAfter, params.UnlockAfter)
	}

	return &TempoEstimator{
		params: params,
		onsets: make([]float64, 0, 64),
	}, nil
}

// OnOnset records an onset timestamp (seconds) and re-evaluates the tempo.
// Called only when the onset detector fires.
func (t *TempoEstimator) OnOnset(now float64) TempoUpdate {
	t.onsets = append(t.onsets, now)
	t.trim(now)

	if len(t.onsets) < t.params.MinOnsets {
		return t.Current()
	}

	estimate, score := t.bestAlignment()
	if score >= t.params.ConfidenceThreshold && estimate > 0 {
		t.accept(estimate, score)
	} else {
		t.reject(score)
	}

	return t.Current()
}

// Current returns the estimator state without mutating it
func (t *TempoEstimator) Current() TempoUpdate {
	return TempoUpdate{BPM: t.bpm, Confidence: t.confidence, Locked: t.locked}
}

// Reset clears all history and estimate state
func (t *TempoEstimator) Reset() {
	t.onsets = t.onsets[:0]
	t.bpm = 0
	t.confidence = 0
	t.locked = false
	t.agreeStreak = 0
	t.lowStreak = 0
}

// trim drops timestamps that fell out of the sliding window
func (t *TempoEstimator) trim(now float64) {
	cutoff := now - t.params.WindowSeconds
	keep := 0
	for keep < len(t.onsets) && t.onsets[keep] < cutoff {
		keep++
	}
	if keep > 0 {
		t.onsets = append(t.onsets[:0], t.onsets[keep:]...)
	}
}

// bestAlignment scans candidate tempos and scores each by the fraction of
// onsets sitting within tolerance of a beat grid anchored at the most recent
// onset. Candidates are scanned low to high; a higher tempo must beat the
// incumbent by TieBreakMargin, so near-equal scores resolve to the lower BPM.
func (t *TempoEstimator) bestAlignment() (float64, float64) {
	anchor := t.onsets[len(t.onsets)-1]
	total := float64(len(t.onsets))

	bestBPM, bestScore := 0.0, 0.0
	for bpm := t.params.MinBPM; bpm <= t.params.MaxBPM; bpm++ {
		period := 60.0 / bpm

		aligned := 0
		for _, ts := range t.onsets {
			phase := math.Mod(anchor-ts, period)
			dist := math.Min(phase, period-phase)
			if dist <= t.params.GridTolerance {
				aligned++
			}
		}

		score := float64(aligned) / total
		if score > bestScore+t.params.TieBreakMargin {
			bestBPM, bestScore = bpm, score
		}
	}

	return bestBPM, bestScore
}

func (t *TempoEstimator) accept(estimate, score float64) {
	if t.bpm == 0 {
		t.bpm = estimate
	} else {
		blend := t.params.BlendFactor
		if t.locked {
			blend = t.params.LockedBlendFactor
			if math.Abs(estimate-t.bpm) > t.params.MaxLockedDeviation {
				// A locked estimate treats a large jump as suspect.
				blend *= 0.25
			}
		}
		t.bpm += blend * (estimate - t.bpm)
	}
	t.bpm = math.Min(math.Max(t.bpm, t.params.MinBPM), t.params.MaxBPM)
	t.confidence = score
	t.lowStreak = 0

	if math.Abs(estimate-t.bpm) <= t.params.AgreeTolerance {
		t.agreeStreak++
	} else {
		t.agreeStreak = 1
	}
	if !t.locked && t.agreeStreak >= t.params.LockAfter {
		t.locked = true
	}
}

func (t *TempoEstimator) reject(score float64) {
	t.confidence = score
	t.agreeStreak = 0
	t.lowStreak++
	if t.locked && t.lowStreak >= t.params.UnlockAfter {
		t.locked = false
	}
}

// OnsetCount returns how many onsets are currently inside the window
func (t *TempoEstimator) OnsetCount() int {
	return len(t.onsets)
}
