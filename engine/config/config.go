// Package config holds the analysis engine's configuration surface. All
// values are validated once at engine construction; nothing is re-validated
// per frame.
package config

import (
	"fmt"

	"github.com/pulseviz/pulseviz/algorithms/bands"
	"github.com/pulseviz/pulseviz/algorithms/temporal"
)

// AudioConfig fixes the frame geometry the engine expects from the capture
// collaborator. A frame with a different length or rate is rejected.
type AudioConfig struct {
	SampleRate int `json:"sample_rate"`
	// FrameSize is the number of samples per frame.
	FrameSize int `json:"frame_size"`
	// FFTSize is the transform size; when larger than FrameSize the frame
	// is zero-padded for finer bin resolution at no latency cost. Must be
	// a power of two.
	FFTSize int `json:"fft_size"`
	// TargetRMS steers the auto-gain level tracker.
	TargetRMS float64 `json:"target_rms"`
	// SpectrumBins is the length of the downsampled spectrum snapshot
	// carried on each result for analyzer-style displays.
	SpectrumBins int `json:"spectrum_bins"`
}

// BandConfig describes the band partition and its display conditioning
type BandConfig struct {
	Table     [bands.Count]bands.Boundary `json:"table"`
	Smoothing [bands.Count]bands.Alphas   `json:"smoothing"`
	// MaxDecay is the per-frame decay of the normalizer's running maxima.
	MaxDecay float64 `json:"max_decay"`
	// Epsilon guards normalization during silence.
	Epsilon float64 `json:"epsilon"`
}

// Config is the full engine configuration
type Config struct {
	Audio AudioConfig          `json:"audio"`
	Bands BandConfig           `json:"bands"`
	Onset temporal.OnsetParams `json:"onset"`
	Tempo temporal.TempoParams `json:"tempo"`
}

// Default returns the standard configuration for 44.1 kHz capture
func Default() Config {
	return DefaultForRate(44100)
}

// DefaultForRate returns the standard configuration for the given sample
// rate; the top band's upper edge tracks Nyquist.
func DefaultForRate(sampleRate int) Config {
	return Config{
		Audio: AudioConfig{
			SampleRate:   sampleRate,
			FrameSize:    1024,
			FFTSize:      2048,
			TargetRMS:    0.3,
			SpectrumBins: 512,
		},
		Bands: BandConfig{
			Table:     bands.DefaultTable(sampleRate),
			Smoothing: DefaultSmoothing(),
			MaxDecay:  0.9995,
			Epsilon:   1e-9,
		},
		Onset: temporal.DefaultOnsetParams(),
		Tempo: temporal.DefaultTempoParams(),
	}
}

// DefaultSmoothing returns the per-band attack/release table. Low bands
// respond fast (kick transients are short-lived); high bands trade speed for
// visual steadiness.
func DefaultSmoothing() [bands.Count]bands.Alphas {
	return [bands.Count]bands.Alphas{
		bands.SubBass:    {Attack: 0.60, Release: 0.25},
		bands.Bass:       {Attack: 0.60, Release: 0.25},
		bands.LowMid:     {Attack: 0.50, Release: 0.20},
		bands.Mid:        {Attack: 0.45, Release: 0.15},
		bands.HighMid:    {Attack: 0.40, Release: 0.12},
		bands.Treble:     {Attack: 0.35, Release: 0.10},
		bands.HighTreble: {Attack: 0.30, Release: 0.08},
	}
}

// Validate checks the audio geometry. The band, onset, and tempo sections
// are validated by their component constructors at engine construction.
func (c *Config) Validate() error {
	if c.Audio.SampleRate <= 0 {
		return fmt.Errorf("sample rate must be positive, got %d", c.Audio.SampleRate)
	}
	if c.Audio.FrameSize <= 0 {
		return fmt.Errorf("frame size must be positive, got %d", c.Audio.FrameSize)
	}
	if c.Audio.FFTSize < c.Audio.FrameSize {
		return fmt.Errorf("fft size (%d) must be >= frame size (%d)", c.Audio.FFTSize, c.Audio.FrameSize)
	}
	if c.Audio.FFTSize&(c.Audio.FFTSize-1) != 0 {
		return fmt.Errorf("fft size must be a power of two, got %d", c.Audio.FFTSize)
	}
	if c.Audio.TargetRMS <= 0 || c.Audio.TargetRMS > 1 {
		return fmt.Errorf("target RMS out of (0,1]: %g", c.Audio.TargetRMS)
	}
	if c.Audio.SpectrumBins <= 0 {
		return fmt.Errorf("spectrum bins must be positive, got %d", c.Audio.SpectrumBins)
	}
	return nil
}
