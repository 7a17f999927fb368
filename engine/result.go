package engine

import (
	"github.com/pulseviz/pulseviz/algorithms/bands"
	"github.com/pulseviz/pulseviz/algorithms/temporal"
)

// Frame is one fixed-size block of mono samples from the capture
// collaborator. Samples are normalized to [-1, 1]; Index increases
// monotonically and anchors every derived timestamp, so identical frame
// sequences always produce identical results. The engine never mutates
// Samples.
type Frame struct {
	Samples    []float64
	SampleRate int
	Index      uint64
}

// BandFrame is one band's energy at the three stages of conditioning
type BandFrame struct {
	Name       string  `json:"name"`
	Raw        float64 `json:"raw"`
	Smoothed   float64 `json:"smoothed"`
	Normalized float64 `json:"normalized"`
}

// Result is the per-frame output bundle handed to renderers. It is immutable
// once produced; consumers must treat every field, including the Spectrum
// slice, as read-only.
type Result struct {
	FrameIndex uint64  `json:"frame_index"`
	Time       float64 `json:"time"`

	Bands [bands.Count]BandFrame `json:"bands"`

	OnsetFired      bool    `json:"onset_fired"`
	OnsetScore      float64 `json:"onset_score"`
	BPM             float64 `json:"bpm"`
	TempoConfidence float64 `json:"tempo_confidence"`
	TempoLocked     bool    `json:"tempo_locked"`

	SpectralCentroid float64 `json:"spectral_centroid"`
	SpectralRolloff  float64 `json:"spectral_rolloff"`
	ZeroCrossingRate float64 `json:"zero_crossing_rate"`

	Levels temporal.Levels `json:"levels"`

	// Spectrum is a fixed-length downsampled magnitude snapshot for
	// analyzer-style displays.
	Spectrum []float64 `json:"spectrum"`
}

// Band returns the BandFrame with the given canonical name, or a zero value
// when the name is unknown
func (r *Result) Band(name string) BandFrame {
	for _, bf := range r.Bands {
		if bf.Name == name {
			return bf
		}
	}
	return BandFrame{}
}

// Renderer is the capability surface toward display modes: a closed set of
// variants selected by mode index, each consuming results read-only.
type Renderer interface {
	Render(result *Result) error
}
