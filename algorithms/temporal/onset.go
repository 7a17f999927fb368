// Package temporal provides time-domain analysis: onset detection, tempo
// estimation, and level tracking over a stream of frames.
package temporal

import (
	"fmt"
	"math"

	"github.com/pulseviz/pulseviz/algorithms/common"
	"github.com/pulseviz/pulseviz/algorithms/spectral"
)

// OnsetParams configures the fused energy/flux onset detector. The fusion
// constants are deliberately tunable; see DefaultOnsetParams for the values
// validated against the tempo-recovery tests.
type OnsetParams struct {
	// EnergyThreshold is the factor by which the frame energy must exceed
	// its rolling average to count as an energy onset.
	EnergyThreshold float64 `json:"energy_threshold"`
	// FluxThreshold is the factor by which spectral flux must exceed its
	// rolling average to count as a flux onset.
	FluxThreshold float64 `json:"flux_threshold"`
	// ElevationFactor is the mild energy elevation required before a flux
	// onset alone may fire; keeps pure tonal flux noise from triggering.
	ElevationFactor float64 `json:"elevation_factor"`
	// Refractory is the minimum gap between fires, in seconds.
	Refractory float64 `json:"refractory"`
	// AverageAlpha is the EMA coefficient for the rolling energy and flux
	// averages.
	AverageAlpha float64 `json:"average_alpha"`
	// EnergyFloor is an absolute energy minimum below which nothing fires,
	// so noise during silence is never an onset.
	EnergyFloor float64 `json:"energy_floor"`
	// WarmupFrames is how many frames the rolling averages must observe
	// before the detector may fire.
	WarmupFrames int `json:"warmup_frames"`
}

// DefaultOnsetParams returns the standard detector tuning
func DefaultOnsetParams() OnsetParams {
	return OnsetParams{
		EnergyThreshold: 1.3,
		FluxThreshold:   1.5,
		ElevationFactor: 1.1,
		Refractory:      0.1,
		AverageAlpha:    0.1,
		EnergyFloor:     1e-4,
		WarmupFrames:    10,
	}
}

// OnsetDetector fuses an energy-ratio onset signal with a spectral-flux
// onset signal, gated by a refractory period. Rolling averages adapt
// continuously and are never reset by a fire; only the refractory timer is.
type OnsetDetector struct {
	params    OnsetParams
	energyAvg float64
	fluxAvg   float64
	frames    int
	lastFire  float64
	lastScore float64
}

// NewOnsetDetector validates params and creates a detector
func NewOnsetDetector(params OnsetParams) (*OnsetDetector, error) {
	if params.EnergyThreshold <= 1 {
		return nil, fmt.Errorf("energy threshold must exceed 1, got %g", params.EnergyThreshold)
	}
	if params.FluxThreshold <= 1 {
		return nil, fmt.Errorf("flux threshold must exceed 1, got %g", params.FluxThreshold)
	}
	if params.ElevationFactor < 1 {
		return nil, fmt.Errorf("elevation factor must be >= 1, got %g", params.ElevationFactor)
	}
	if params.Refractory <= 0 {
		return nil, fmt.Errorf("refractory period must be positive, got %g", params.Refractory)
	}
	if params.AverageAlpha <= 0 || params.AverageAlpha >= 1 {
		return nil, fmt.Errorf("average alpha out of (0,1): %g", params.AverageAlpha)
	}
	if params.WarmupFrames < 1 {
		return nil, fmt.Errorf("warmup frames must be positive, got %d", params.WarmupFrames)
	}

	return &OnsetDetector{
		params:   params,
		lastFire: math.Inf(-1),
	}, nil
}

// Detect consumes one frame's magnitude spectrum (with the previous frame's
// for flux), the total time-domain energy, and the frame timestamp in
// seconds. Returns whether an onset fired and the combined detection score.
func (d *OnsetDetector) Detect(current, previous []float64, totalEnergy, now float64) (bool, float64) {
	totalEnergy = common.Sanitize(totalEnergy)
	if totalEnergy < 0 {
		totalEnergy = 0
	}
	flux := common.Sanitize(spectral.Flux(current, previous))

	const tiny = 1e-12
	energyRatio := totalEnergy / math.Max(d.energyAvg, tiny)
	fluxRatio := flux / math.Max(d.fluxAvg, tiny)

	warm := d.frames >= d.params.WarmupFrames
	energyOnset := warm && totalEnergy > d.params.EnergyFloor &&
		energyRatio > d.params.EnergyThreshold
	fluxOnset := warm && totalEnergy > d.params.EnergyFloor &&
		fluxRatio > d.params.FluxThreshold
	elevated := energyRatio > d.params.ElevationFactor

	score := 0.0
	if warm {
		score = 0.5*math.Min(energyRatio/d.params.EnergyThreshold, 2.0) +
			0.5*math.Min(fluxRatio/d.params.FluxThreshold, 2.0)
	}
	d.lastScore = score

	fired := false
	if (energyOnset || (fluxOnset && elevated)) && now-d.lastFire >= d.params.Refractory {
		fired = true
		d.lastFire = now
	}

	// Averages adapt on every frame, fired or not, so the detector tracks
	// level changes in the program material.
	alpha := d.params.AverageAlpha
	if d.frames == 0 {
		d.energyAvg = totalEnergy
		d.fluxAvg = flux
	} else {
		d.energyAvg = (1-alpha)*d.energyAvg + alpha*totalEnergy
		d.fluxAvg = (1-alpha)*d.fluxAvg + alpha*flux
	}
	d.frames++

	return fired, score
}

// LastScore returns the combined score of the most recent frame
func (d *OnsetDetector) LastScore() float64 {
	return d.lastScore
}

// Reset clears all running state
func (d *OnsetDetector) Reset() {
	d.energyAvg = 0
	d.fluxAvg = 0
	d.frames = 0
	d.lastFire = math.Inf(-1)
	d.lastScore = 0
}
