// Package engine ties the spectral, band, and temporal analyzers into a
// single per-frame pipeline: one call in, one result out.
package engine

import (
	"fmt"

	"github.com/pulseviz/pulseviz/algorithms/bands"
	"github.com/pulseviz/pulseviz/algorithms/common"
	"github.com/pulseviz/pulseviz/algorithms/spectral"
	"github.com/pulseviz/pulseviz/algorithms/temporal"
	"github.com/pulseviz/pulseviz/algorithms/windowing"
	"github.com/pulseviz/pulseviz/engine/config"
	"github.com/pulseviz/pulseviz/logging"
)

// Engine is the real-time analysis pipeline. All state is created at
// construction and owned exclusively by one instance: one retained previous
// spectrum, the detector's rolling averages, and the tempo estimator's
// bounded onset history. A single caller drives Analyze; for cross-goroutine
// result sharing use a Slot.
type Engine struct {
	cfg    config.Config
	logger logging.Logger

	window     *windowing.Hann
	analyzer   *spectral.Analyzer
	extractor  *bands.Extractor
	smoother   *bands.Smoother
	normalizer *bands.Normalizer
	onsets     *temporal.OnsetDetector
	tempo      *temporal.TempoEstimator
	levels     *temporal.LevelTracker

	frameDuration  float64
	windowed       []float64
	prevMagnitudes []float64
	lastResult     *Result
}

// New validates the configuration, builds every component, and returns a
// ready engine. Any validation failure aborts with ErrConfigInvalid.
func New(cfg config.Config) (*Engine, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrConfigInvalid, err)
	}

	window := windowing.NewHann(cfg.Audio.FrameSize)

	analyzer, err := spectral.NewAnalyzer(cfg.Audio.FrameSize, cfg.Audio.FFTSize, cfg.Audio.SampleRate)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrConfigInvalid, err)
	}

	extractor, err := bands.NewExtractor(cfg.Bands.Table, cfg.Audio.FFTSize, cfg.Audio.SampleRate)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrConfigInvalid, err)
	}

	smoother, err := bands.NewSmoother(cfg.Bands.Smoothing)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrConfigInvalid, err)
	}

	normalizer, err := bands.NewNormalizer(cfg.Bands.MaxDecay, cfg.Bands.Epsilon)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrConfigInvalid, err)
	}

	onsets, err := temporal.NewOnsetDetector(cfg.Onset)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrConfigInvalid, err)
	}

	tempo, err := temporal.NewTempoEstimator(cfg.Tempo)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrConfigInvalid, err)
	}

	levels, err := temporal.NewLevelTracker(cfg.Audio.TargetRMS)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrConfigInvalid, err)
	}

	logger := logging.WithFields(logging.Fields{"component": "engine"})
	logger.Info("analysis engine ready", logging.Fields{
		"sample_rate": cfg.Audio.SampleRate,
		"frame_size":  cfg.Audio.FrameSize,
		"fft_size":    cfg.Audio.FFTSize,
		"bpm_range":   fmt.Sprintf("%g-%g", cfg.Tempo.MinBPM, cfg.Tempo.MaxBPM),
	})

	return &Engine{
		cfg:           cfg,
		logger:        logger,
		window:        window,
		analyzer:      analyzer,
		extractor:     extractor,
		smoother:      smoother,
		normalizer:    normalizer,
		onsets:        onsets,
		tempo:         tempo,
		levels:        levels,
		frameDuration: float64(cfg.Audio.FrameSize) / float64(cfg.Audio.SampleRate),
		windowed:      make([]float64, cfg.Audio.FrameSize),
	}, nil
}

// FrameSize returns the frame length the capture collaborator must deliver
func (e *Engine) FrameSize() int {
	return e.cfg.Audio.FrameSize
}

// SampleRate returns the sample rate the capture collaborator must deliver
func (e *Engine) SampleRate() int {
	return e.cfg.Audio.SampleRate
}

// Analyze runs the full pipeline on one frame. A malformed frame is
// absorbed: the returned error identifies it, the accompanying result is the
// previous valid one (or zeroed before the first), and internal state stays
// untouched so the next good frame proceeds normally.
func (e *Engine) Analyze(frame Frame) (*Result, error) {
	if frame.SampleRate != e.cfg.Audio.SampleRate {
		return e.fallback(frame.Index), fmt.Errorf("%w: got %d Hz, want %d Hz",
			ErrConfigMismatch, frame.SampleRate, e.cfg.Audio.SampleRate)
	}
	if len(frame.Samples) != e.cfg.Audio.FrameSize {
		return e.fallback(frame.Index), fmt.Errorf("%w: got %d samples, want %d",
			ErrShapeMismatch, len(frame.Samples), e.cfg.Audio.FrameSize)
	}

	now := float64(frame.Index) * e.frameDuration

	// Window into a working copy; the frame itself is never touched.
	copy(e.windowed, frame.Samples)
	if err := e.window.ApplyInPlace(e.windowed); err != nil {
		return e.fallback(frame.Index), fmt.Errorf("%w: %v", ErrShapeMismatch, err)
	}

	spectrum, err := e.analyzer.Transform(e.windowed)
	if err != nil {
		return e.fallback(frame.Index), fmt.Errorf("%w: %v", ErrShapeMismatch, err)
	}

	if n := sanitizeMagnitudes(spectrum.Magnitudes); n > 0 {
		e.logger.Debug("degenerate spectrum bins treated as zero", logging.Fields{
			"frame": frame.Index,
			"bins":  n,
		})
	}

	raw, err := e.extractor.Extract(spectrum)
	if err != nil {
		return e.fallback(frame.Index), fmt.Errorf("%w: %v", ErrShapeMismatch, err)
	}

	smoothed := e.smoother.Smooth(raw)
	normalized := e.normalizer.Normalize(smoothed)

	totalEnergy := common.Energy(frame.Samples)
	if !common.IsFinite(totalEnergy) {
		// A NaN sample in the frame poisons the energy sum.
		e.logger.Warn("degenerate frame energy clamped to zero", logging.Fields{
			"frame": frame.Index,
		})
		totalEnergy = 0
	}
	fired, score := e.onsets.Detect(spectrum.Magnitudes, e.prevMagnitudes, totalEnergy, now)

	tempoState := e.tempo.Current()
	if fired {
		tempoState = e.tempo.OnOnset(now)
	}

	levels := e.levels.Update(frame.Samples)

	result := &Result{
		FrameIndex:       frame.Index,
		Time:             now,
		OnsetFired:       fired,
		OnsetScore:       score,
		BPM:              tempoState.BPM,
		TempoConfidence:  tempoState.Confidence,
		TempoLocked:      tempoState.Locked,
		SpectralCentroid: spectrum.Centroid(),
		SpectralRolloff:  spectrum.Rolloff(0.85),
		ZeroCrossingRate: spectral.ZeroCrossingRate(frame.Samples),
		Levels:           levels,
		Spectrum:         downsample(spectrum.Magnitudes, e.cfg.Audio.SpectrumBins),
	}
	for b := 0; b < bands.Count; b++ {
		result.Bands[b] = BandFrame{
			Name:       bands.Names[b],
			Raw:        raw[b],
			Smoothed:   smoothed[b],
			Normalized: normalized[b],
		}
	}

	// Exactly one previous spectrum is retained, for next frame's flux.
	e.prevMagnitudes = spectrum.Magnitudes
	e.lastResult = result

	return result, nil
}

// Reset clears all running state: previous spectrum, rolling averages,
// onset history, levels, and the last result. The reset is always total; a
// partial reset would leave detectors disagreeing about time.
func (e *Engine) Reset() {
	e.smoother.Reset()
	e.normalizer.Reset()
	e.onsets.Reset()
	e.tempo.Reset()
	e.levels.Reset()
	e.prevMagnitudes = nil
	e.lastResult = nil
	e.logger.Debug("engine state reset")
}

// fallback substitutes for a skipped frame: the previous valid result, or a
// zeroed one before any frame has succeeded.
func (e *Engine) fallback(frameIndex uint64) *Result {
	if e.lastResult != nil {
		return e.lastResult
	}

	result := &Result{
		FrameIndex: frameIndex,
		Levels:     temporal.Levels{Gain: 1.0},
		Spectrum:   make([]float64, e.cfg.Audio.SpectrumBins),
	}
	for b := 0; b < bands.Count; b++ {
		result.Bands[b] = BandFrame{Name: bands.Names[b]}
	}
	return result
}

// sanitizeMagnitudes zeroes NaN and Inf bins in place and reports how many
// it touched. Everything downstream of the transform assumes finite bins.
func sanitizeMagnitudes(magnitudes []float64) int {
	touched := 0
	for i, m := range magnitudes {
		if !common.IsFinite(m) {
			magnitudes[i] = 0
			touched++
		}
	}
	return touched
}

// downsample picks evenly spaced magnitudes so displays get a fixed-length
// snapshot regardless of FFT size
func downsample(magnitudes []float64, bins int) []float64 {
	out := make([]float64, bins)
	if len(magnitudes) == 0 {
		return out
	}
	if len(magnitudes) <= bins {
		copy(out, magnitudes)
		return out
	}
	if bins == 1 {
		// One bin summarizes the whole spectrum as its peak.
		peak := magnitudes[0]
		for _, m := range magnitudes[1:] {
			if m > peak {
				peak = m
			}
		}
		out[0] = peak
		return out
	}

	for i := 0; i < bins; i++ {
		idx := i * (len(magnitudes) - 1) / (bins - 1)
		out[i] = magnitudes[idx]
	}
	return out
}
