// Package bands maps magnitude spectra into named frequency bands and
// conditions the per-band energies for display.
package bands

import (
	"fmt"

	"github.com/pulseviz/pulseviz/algorithms/spectral"
)

// Count is the number of frequency bands
const Count = 7

// Band indices, low to high
const (
	SubBass = iota
	Bass
	LowMid
	Mid
	HighMid
	Treble
	HighTreble
)

// Names are the canonical band names, indexed by the constants above
var Names = [Count]string{
	"sub_bass",
	"bass",
	"low_mid",
	"mid",
	"high_mid",
	"treble",
	"high_treble",
}

// MinFrequency is the lower edge of the analyzed range; bins below it are
// ignored (sub-audible rumble and DC).
const MinFrequency = 20.0

// Boundary defines one band's frequency range [LowHz, HighHz)
type Boundary struct {
	Name   string  `json:"name"`
	LowHz  float64 `json:"low_hz"`
	HighHz float64 `json:"high_hz"`
}

// DefaultTable returns the standard 7-band partition for the given sample
// rate. The top band always extends to Nyquist so the partition covers the
// usable spectrum exactly.
func DefaultTable(sampleRate int) [Count]Boundary {
	nyquist := float64(sampleRate) / 2.0
	return [Count]Boundary{
		{Name: Names[SubBass], LowHz: 20, HighHz: 60},
		{Name: Names[Bass], LowHz: 60, HighHz: 250},
		{Name: Names[LowMid], LowHz: 250, HighHz: 500},
		{Name: Names[Mid], LowHz: 500, HighHz: 2000},
		{Name: Names[HighMid], LowHz: 2000, HighHz: 4000},
		{Name: Names[Treble], LowHz: 4000, HighHz: 6000},
		{Name: Names[HighTreble], LowHz: 6000, HighHz: nyquist},
	}
}

// Extractor sums spectrum magnitudes into bands using bin ranges precomputed
// from the transform geometry.
type Extractor struct {
	table      [Count]Boundary
	fftSize    int
	sampleRate int
	// binRanges[b] is the half-open [lo, hi) bin span of band b. A band
	// narrower than one bin at the current resolution has lo == hi.
	binRanges [Count][2]int
}

// NewExtractor validates the band table against the transform geometry and
// precomputes per-band bin ranges.
func NewExtractor(table [Count]Boundary, fftSize, sampleRate int) (*Extractor, error) {
	nyquist := float64(sampleRate) / 2.0

	for b, bound := range table {
		if bound.HighHz <= bound.LowHz {
			return nil, fmt.Errorf("band %q boundaries not increasing: [%g, %g)", bound.Name, bound.LowHz, bound.HighHz)
		}
		if b > 0 && table[b-1].HighHz != bound.LowHz {
			return nil, fmt.Errorf("band table has a gap or overlap between %q and %q (%g != %g)",
				table[b-1].Name, bound.Name, table[b-1].HighHz, bound.LowHz)
		}
	}
	if table[0].LowHz < MinFrequency {
		return nil, fmt.Errorf("band %q starts below %g Hz", table[0].Name, MinFrequency)
	}
	if table[Count-1].HighHz != nyquist {
		return nil, fmt.Errorf("band table must end at Nyquist (%g Hz), got %g", nyquist, table[Count-1].HighHz)
	}

	e := &Extractor{
		table:      table,
		fftSize:    fftSize,
		sampleRate: sampleRate,
	}

	numBins := fftSize/2 + 1
	binHz := float64(sampleRate) / float64(fftSize)
	for b, bound := range table {
		lo, hi := -1, -1
		for bin := 0; bin < numBins; bin++ {
			freq := float64(bin) * binHz
			if freq < bound.LowHz || freq >= bound.HighHz || freq < MinFrequency || freq >= nyquist {
				continue
			}
			if lo < 0 {
				lo = bin
			}
			hi = bin + 1
		}
		if lo < 0 {
			// Band narrower than one bin at this resolution; its energy
			// stays 0 rather than failing the whole pipeline.
			lo, hi = 0, 0
		}
		e.binRanges[b] = [2]int{lo, hi}
	}

	return e, nil
}

// Extract sums magnitudes into raw per-band energies
func (e *Extractor) Extract(spec *spectral.Spectrum) ([Count]float64, error) {
	var raw [Count]float64

	if spec.FFTSize != e.fftSize || spec.SampleRate != e.sampleRate {
		return raw, fmt.Errorf("spectrum geometry (%d/%d) doesn't match extractor (%d/%d)",
			spec.FFTSize, spec.SampleRate, e.fftSize, e.sampleRate)
	}

	for b, r := range e.binRanges {
		sum := 0.0
		for bin := r[0]; bin < r[1]; bin++ {
			sum += spec.Magnitudes[bin]
		}
		raw[b] = sum
	}

	return raw, nil
}

// BinRanges returns the precomputed [lo, hi) bin span per band
func (e *Extractor) BinRanges() [Count][2]int {
	return e.binRanges
}

// Table returns the band boundary table
func (e *Extractor) Table() [Count]Boundary {
	return e.table
}
