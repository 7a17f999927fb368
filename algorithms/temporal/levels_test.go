package temporal_test

import (
	"testing"

	"github.com/pulseviz/pulseviz/algorithms/temporal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestLevelTracker_GainConverges verifies the auto gain steers toward the
// target RMS and stays clamped.
func TestLevelTracker_GainConverges(t *testing.T) {
	l, err := temporal.NewLevelTracker(0.3)
	require.NoError(t, err)

	// A hot signal (RMS 0.8): gain must fall below 1 toward 0.3/0.8.
	hot := make([]float64, 512)
	for i := range hot {
		hot[i] = 0.8
	}

	var levels temporal.Levels
	for loop := 0; loop < 200; loop++ {
		levels = l.Update(hot)
	}

	assert.InDelta(t, 0.8, levels.RMS, 0.05)
	assert.InDelta(t, 0.8, levels.Peak, 0.05)
	assert.Less(t, levels.Gain, 1.0, "hot input must pull gain down")
	assert.InDelta(t, 0.3/0.8, levels.Gain, 0.05)
}

// TestLevelTracker_SilenceHoldsGain verifies gain is untouched during
// silence rather than exploding toward the clamp.
func TestLevelTracker_SilenceHoldsGain(t *testing.T) {
	l, err := temporal.NewLevelTracker(0.3)
	require.NoError(t, err)

	silence := make([]float64, 512)
	var levels temporal.Levels
	for loop := 0; loop < 100; loop++ {
		levels = l.Update(silence)
	}

	assert.Zero(t, levels.RMS)
	assert.Zero(t, levels.Peak)
	assert.Equal(t, 1.0, levels.Gain, "silence must not move the gain")
}

// TestLevelTracker_Validation rejects an unreachable target.
func TestLevelTracker_Validation(t *testing.T) {
	_, err := temporal.NewLevelTracker(0)
	assert.Error(t, err)

	_, err = temporal.NewLevelTracker(1.5)
	assert.Error(t, err)
}
