package temporal_test

import (
	"testing"

	"github.com/pulseviz/pulseviz/algorithms/temporal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// frameDur matches a 1024-sample frame at 44.1 kHz
const frameDur = 1024.0 / 44100.0

// TestOnsetDetector_Validation rejects nonsensical tunings.
func TestOnsetDetector_Validation(t *testing.T) {
	p := temporal.DefaultOnsetParams()
	p.EnergyThreshold = 0.9
	_, err := temporal.NewOnsetDetector(p)
	assert.Error(t, err, "energy threshold below 1 must error")

	p = temporal.DefaultOnsetParams()
	p.Refractory = 0
	_, err = temporal.NewOnsetDetector(p)
	assert.Error(t, err, "zero refractory must error")

	p = temporal.DefaultOnsetParams()
	p.AverageAlpha = 1.0
	_, err = temporal.NewOnsetDetector(p)
	assert.Error(t, err, "alpha of 1 keeps no history")
}

// TestOnsetDetector_FiresOnEnergyJump verifies a loud frame after a quiet
// stretch fires, and that silence never fires.
func TestOnsetDetector_FiresOnEnergyJump(t *testing.T) {
	d, err := temporal.NewOnsetDetector(temporal.DefaultOnsetParams())
	require.NoError(t, err)

	fired := false
	for k := 0; k < 15; k++ {
		fired, _ = d.Detect(nil, nil, 0.01, float64(k)*frameDur)
		assert.False(t, fired, "quiet baseline must not fire")
	}

	fired, score := d.Detect(nil, nil, 10.0, 15*frameDur)
	assert.True(t, fired, "an order-of-magnitude energy jump is an onset")
	assert.GreaterOrEqual(t, score, 1.0)
}

// TestOnsetDetector_SilenceNeverFires verifies the absolute energy floor:
// numeric noise during silence is not an onset.
func TestOnsetDetector_SilenceNeverFires(t *testing.T) {
	d, err := temporal.NewOnsetDetector(temporal.DefaultOnsetParams())
	require.NoError(t, err)

	for k := 0; k < 50; k++ {
		energy := 1e-9
		if k%7 == 0 {
			energy = 1e-5 // still under the floor
		}
		fired, _ := d.Detect(nil, nil, energy, float64(k)*frameDur)
		assert.False(t, fired, "frame %d: sub-floor energy must never fire", k)
	}
}

// TestOnsetDetector_RefractoryGap feeds an aggressive alternating
// loud/quiet pattern and asserts no two fires are closer than DefaultOnsetParams
// refractory, while more than one fire still occurs.
func TestOnsetDetector_RefractoryGap(t *testing.T) {
	params := temporal.DefaultOnsetParams()
	d, err := temporal.NewOnsetDetector(params)
	require.NoError(t, err)

	var fires []float64
	for k := 0; k < 200; k++ {
		now := float64(k) * frameDur

		energy := 0.01
		if k >= 10 && k%2 == 0 {
			energy = 10.0
		}

		if fired, _ := d.Detect(nil, nil, energy, now); fired {
			fires = append(fires, now)
		}
	}

	require.GreaterOrEqual(t, len(fires), 2, "the pattern must produce several onsets")
	for i := 1; i < len(fires); i++ {
		gap := fires[i] - fires[i-1]
		assert.GreaterOrEqual(t, gap, params.Refractory,
			"fires %d and %d violate the refractory period", i-1, i)
	}
}

// TestOnsetDetector_FluxPathNeedsElevation verifies spectral flux alone
// cannot fire while energy sits at its average; with mildly elevated energy
// it can.
func TestOnsetDetector_FluxPathNeedsElevation(t *testing.T) {
	params := temporal.DefaultOnsetParams()
	d, err := temporal.NewOnsetDetector(params)
	require.NoError(t, err)

	flat := []float64{1, 1, 1, 1}

	// Settle the averages with steady energy and zero flux.
	for k := 0; k < 20; k++ {
		d.Detect(flat, flat, 1.0, float64(k)*frameDur)
	}

	// Big flux, energy exactly at the rolling average: the elevation gate
	// must hold it back.
	jump := []float64{5, 5, 5, 5}
	fired, _ := d.Detect(jump, flat, 1.0, 20*frameDur)
	assert.False(t, fired, "flux without energy elevation must not fire")

	// Settle again, then big flux with mildly elevated energy (beneath the
	// 1.3x energy-onset threshold but above the 1.1x elevation gate).
	for k := 0; k < 20; k++ {
		d.Detect(flat, flat, 1.0, float64(21+k)*frameDur)
	}
	fired, _ = d.Detect(jump, flat, 1.2, 45*frameDur)
	assert.True(t, fired, "flux plus mildly elevated energy is an onset")
}

// TestOnsetDetector_Reset verifies reset clears the averages and warmup.
func TestOnsetDetector_Reset(t *testing.T) {
	d, err := temporal.NewOnsetDetector(temporal.DefaultOnsetParams())
	require.NoError(t, err)

	for k := 0; k < 15; k++ {
		d.Detect(nil, nil, 0.01, float64(k)*frameDur)
	}
	d.Reset()

	// Right after reset the detector is back in warmup and must not fire.
	fired, _ := d.Detect(nil, nil, 10.0, 100*frameDur)
	assert.False(t, fired, "a fresh detector needs warmup before firing")
}
