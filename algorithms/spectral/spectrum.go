// Package spectral provides frequency-domain analysis built on go-dsp's FFT.
package spectral

import (
	"fmt"
	"math/cmplx"

	"github.com/mjibson/go-dsp/fft"
)

// Spectrum holds the positive-frequency magnitude spectrum of one frame
// together with the mapping from bin index to frequency.
type Spectrum struct {
	Magnitudes []float64 `json:"magnitudes"`
	SampleRate int       `json:"sample_rate"`
	FFTSize    int       `json:"fft_size"`
}

// NumBins returns the number of positive-frequency bins
func (s *Spectrum) NumBins() int {
	return len(s.Magnitudes)
}

// BinFrequency returns the center frequency in Hz of the given bin
func (s *Spectrum) BinFrequency(bin int) float64 {
	return float64(bin) * float64(s.SampleRate) / float64(s.FFTSize)
}

// Nyquist returns the Nyquist frequency in Hz
func (s *Spectrum) Nyquist() float64 {
	return float64(s.SampleRate) / 2.0
}

// Analyzer computes magnitude spectra from fixed-size sample frames.
// The transform size may be larger than the frame size; the frame is then
// zero-padded, which buys frequency resolution without extra latency.
type Analyzer struct {
	frameSize  int
	fftSize    int
	sampleRate int
	padded     []float64
}

// NewAnalyzer creates a spectrum analyzer for the given frame geometry.
// fftSize must be >= frameSize.
func NewAnalyzer(frameSize, fftSize, sampleRate int) (*Analyzer, error) {
	if frameSize <= 0 {
		return nil, fmt.Errorf("frame size must be positive, got %d", frameSize)
	}
	if fftSize < frameSize {
		return nil, fmt.Errorf("fft size (%d) must be >= frame size (%d)", fftSize, frameSize)
	}
	if fftSize&(fftSize-1) != 0 {
		return nil, fmt.Errorf("fft size must be a power of two, got %d", fftSize)
	}
	if sampleRate <= 0 {
		return nil, fmt.Errorf("sample rate must be positive, got %d", sampleRate)
	}

	return &Analyzer{
		frameSize:  frameSize,
		fftSize:    fftSize,
		sampleRate: sampleRate,
		padded:     make([]float64, fftSize),
	}, nil
}

// Transform computes the magnitude spectrum of one windowed frame.
// The input length must equal the configured frame size.
func (a *Analyzer) Transform(windowed []float64) (*Spectrum, error) {
	if len(windowed) != a.frameSize {
		return nil, fmt.Errorf("frame length (%d) doesn't match configured size (%d)", len(windowed), a.frameSize)
	}

	copy(a.padded, windowed)
	for i := a.frameSize; i < a.fftSize; i++ {
		a.padded[i] = 0
	}

	coeffs := fft.FFTReal(a.padded)

	numBins := a.fftSize/2 + 1
	magnitudes := make([]float64, numBins)
	for i := 0; i < numBins; i++ {
		magnitudes[i] = cmplx.Abs(coeffs[i])
	}

	return &Spectrum{
		Magnitudes: magnitudes,
		SampleRate: a.sampleRate,
		FFTSize:    a.fftSize,
	}, nil
}

// FrameSize returns the configured input frame size
func (a *Analyzer) FrameSize() int {
	return a.frameSize
}

// FFTSize returns the configured transform size
func (a *Analyzer) FFTSize() int {
	return a.fftSize
}
