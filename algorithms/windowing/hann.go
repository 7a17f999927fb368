// Package windowing provides window functions applied before spectral
// analysis to reduce leakage.
package windowing

import (
	"fmt"
	"math"
)

// Hann represents a symmetric Hann window with precomputed coefficients.
// Coefficient i is 0.5 - 0.5*cos(2*pi*i/(N-1)).
type Hann struct {
	size         int
	coefficients []float64
}

// NewHann creates a new Hann window of the given size
func NewHann(size int) *Hann {
	h := &Hann{size: size}
	h.generate()
	return h
}

func (h *Hann) generate() {
	h.coefficients = make([]float64, h.size)

	if h.size == 1 {
		h.coefficients[0] = 1.0
		return
	}

	denominator := float64(h.size - 1)
	for i := 0; i < h.size; i++ {
		h.coefficients[i] = 0.5 - 0.5*math.Cos(2*math.Pi*float64(i)/denominator)
	}
}

// Apply multiplies the signal by the window into a new slice
func (h *Hann) Apply(signal []float64) ([]float64, error) {
	if len(signal) != h.size {
		return nil, fmt.Errorf("signal length (%d) doesn't match window size (%d)", len(signal), h.size)
	}

	windowed := make([]float64, h.size)
	for i := 0; i < h.size; i++ {
		windowed[i] = signal[i] * h.coefficients[i]
	}
	return windowed, nil
}

// ApplyInPlace multiplies the signal by the window in place
func (h *Hann) ApplyInPlace(signal []float64) error {
	if len(signal) != h.size {
		return fmt.Errorf("signal length (%d) doesn't match window size (%d)", len(signal), h.size)
	}

	for i := 0; i < h.size; i++ {
		signal[i] *= h.coefficients[i]
	}
	return nil
}

// Coefficients returns a copy of the window coefficients
func (h *Hann) Coefficients() []float64 {
	coeffs := make([]float64, len(h.coefficients))
	copy(coeffs, h.coefficients)
	return coeffs
}

// Size returns the window size
func (h *Hann) Size() int {
	return h.size
}
