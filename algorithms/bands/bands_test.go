package bands_test

import (
	"math"
	"testing"

	"github.com/pulseviz/pulseviz/algorithms/bands"
	"github.com/pulseviz/pulseviz/algorithms/spectral"
	"github.com/pulseviz/pulseviz/algorithms/windowing"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleRate = 44100

// TestExtractor_PartitionInvariant checks that for a range of transform
// sizes, every bin between 20 Hz and Nyquist belongs to exactly one band and
// all bins outside belong to none.
func TestExtractor_PartitionInvariant(t *testing.T) {
	nyquist := float64(sampleRate) / 2.0

	for _, fftSize := range []int{128, 512, 1024, 2048, 4096} {
		e, err := bands.NewExtractor(bands.DefaultTable(sampleRate), fftSize, sampleRate)
		require.NoError(t, err, "fft size %d", fftSize)

		ranges := e.BinRanges()
		numBins := fftSize/2 + 1
		binHz := float64(sampleRate) / float64(fftSize)

		for bin := 0; bin < numBins; bin++ {
			freq := float64(bin) * binHz

			owners := 0
			for _, r := range ranges {
				if bin >= r[0] && bin < r[1] {
					owners++
				}
			}

			if freq >= bands.MinFrequency && freq < nyquist {
				assert.Equal(t, 1, owners, "fft %d bin %d (%.1f Hz) must have exactly one owner", fftSize, bin, freq)
			} else {
				assert.Zero(t, owners, "fft %d bin %d (%.1f Hz) is outside the analyzed range", fftSize, bin, freq)
			}
		}
	}
}

// TestExtractor_EmptyBand verifies a band narrower than one bin yields zero
// energy instead of failing.
func TestExtractor_EmptyBand(t *testing.T) {
	// At fft size 128 the bin spacing is ~344 Hz, so sub-bass [20,60) holds
	// no bin center.
	e, err := bands.NewExtractor(bands.DefaultTable(sampleRate), 128, sampleRate)
	require.NoError(t, err)

	spectrum := &spectral.Spectrum{
		Magnitudes: make([]float64, 128/2+1),
		SampleRate: sampleRate,
		FFTSize:    128,
	}
	for i := range spectrum.Magnitudes {
		spectrum.Magnitudes[i] = 1.0
	}

	raw, err := e.Extract(spectrum)
	require.NoError(t, err)
	assert.Zero(t, raw[bands.SubBass], "an empty bin range contributes no energy")
	assert.Greater(t, raw[bands.Mid], 0.0)
}

// TestExtractor_TableValidation rejects malformed band tables.
func TestExtractor_TableValidation(t *testing.T) {
	nyquist := float64(sampleRate) / 2.0

	inverted := bands.DefaultTable(sampleRate)
	inverted[2].LowHz, inverted[2].HighHz = inverted[2].HighHz, inverted[2].LowHz
	_, err := bands.NewExtractor(inverted, 2048, sampleRate)
	assert.Error(t, err, "inverted boundaries must error")

	gapped := bands.DefaultTable(sampleRate)
	gapped[3].LowHz += 10
	_, err = bands.NewExtractor(gapped, 2048, sampleRate)
	assert.Error(t, err, "a gap between bands must error")

	short := bands.DefaultTable(sampleRate)
	short[6].HighHz = nyquist - 100
	_, err = bands.NewExtractor(short, 2048, sampleRate)
	assert.Error(t, err, "a table stopping short of Nyquist must error")
}

// TestExtractor_SinusoidDominance verifies a pure tone's band out-energizes
// every other band.
func TestExtractor_SinusoidDominance(t *testing.T) {
	const size = 2048
	e, err := bands.NewExtractor(bands.DefaultTable(sampleRate), size, sampleRate)
	require.NoError(t, err)

	a, err := spectral.NewAnalyzer(size, size, sampleRate)
	require.NoError(t, err)

	cases := []struct {
		freq float64
		band int
	}{
		{100, bands.Bass},
		{1000, bands.Mid},
		{3000, bands.HighMid},
		{5000, bands.Treble},
	}

	h := windowing.NewHann(size)
	for _, tc := range cases {
		signal := make([]float64, size)
		for i := range signal {
			signal[i] = math.Sin(2 * math.Pi * tc.freq * float64(i) / sampleRate)
		}
		windowed, err := h.Apply(signal)
		require.NoError(t, err)

		spectrum, err := a.Transform(windowed)
		require.NoError(t, err)

		raw, err := e.Extract(spectrum)
		require.NoError(t, err)

		for b := 0; b < bands.Count; b++ {
			if b == tc.band {
				continue
			}
			assert.Greater(t, raw[tc.band], raw[b],
				"%.0f Hz tone: band %s must dominate %s", tc.freq, bands.Names[tc.band], bands.Names[b])
		}
	}
}

// TestSmoother_AttackRelease verifies the asymmetric response: fast rise,
// slow fall, never negative.
func TestSmoother_AttackRelease(t *testing.T) {
	coeffs := [bands.Count]bands.Alphas{}
	for b := 0; b < bands.Count; b++ {
		coeffs[b] = bands.Alphas{Attack: 0.6, Release: 0.2}
	}
	s, err := bands.NewSmoother(coeffs)
	require.NoError(t, err)

	var loud [bands.Count]float64
	for b := 0; b < bands.Count; b++ {
		loud[b] = 1.0
	}

	rising := s.Smooth(loud)
	assert.InDelta(t, 0.6, rising[bands.Bass], 1e-12, "attack alpha applies on the way up")

	falling := s.Smooth([bands.Count]float64{})
	assert.InDelta(t, 0.48, falling[bands.Bass], 1e-12, "release alpha applies on the way down")

	// Silence decays toward zero without ever crossing it.
	prev := falling[bands.Bass]
	for loop := 0; loop < 200; loop++ {
		values := s.Smooth([bands.Count]float64{})
		assert.GreaterOrEqual(t, values[bands.Bass], 0.0)
		assert.LessOrEqual(t, values[bands.Bass], prev)
		prev = values[bands.Bass]
	}
	assert.Less(t, prev, 1e-6)
}

// TestSmoother_DegenerateInput verifies NaN and negative raw energies are
// absorbed as zero.
func TestSmoother_DegenerateInput(t *testing.T) {
	s, err := bands.NewSmoother(bandsAllAlphas(0.5, 0.5))
	require.NoError(t, err)

	var bad [bands.Count]float64
	bad[bands.Mid] = math.NaN()
	bad[bands.Treble] = math.Inf(1)
	bad[bands.Bass] = -3

	values := s.Smooth(bad)
	for b := 0; b < bands.Count; b++ {
		assert.False(t, math.IsNaN(values[b]), "band %s must stay finite", bands.Names[b])
		assert.GreaterOrEqual(t, values[b], 0.0)
	}
}

// TestSmoother_Validation rejects out-of-range coefficients.
func TestSmoother_Validation(t *testing.T) {
	_, err := bands.NewSmoother(bandsAllAlphas(0, 0.5))
	assert.Error(t, err, "zero attack must error")

	_, err = bands.NewSmoother(bandsAllAlphas(0.5, 1.5))
	assert.Error(t, err, "release above 1 must error")
}

// TestNormalizer_Bounds drives the normalizer with silence, a spike, and a
// random-ish sequence; output must always stay in [0,1].
func TestNormalizer_Bounds(t *testing.T) {
	n, err := bands.NewNormalizer(0.9995, 1e-9)
	require.NoError(t, err)

	// Silence: epsilon guards the division, output is 0.
	out := n.Normalize([bands.Count]float64{})
	for b := 0; b < bands.Count; b++ {
		assert.Zero(t, out[b])
	}

	// A single extreme spike normalizes to exactly 1.
	var spike [bands.Count]float64
	spike[bands.Bass] = 1e9
	out = n.Normalize(spike)
	assert.InDelta(t, 1.0, out[bands.Bass], 1e-12)

	// Any non-negative sequence stays in [0,1].
	value := 0.1
	for i := 0; i < 500; i++ {
		var in [bands.Count]float64
		for b := 0; b < bands.Count; b++ {
			value = math.Mod(value*31.7+float64(i)*0.13, 7.0)
			in[b] = value
		}
		out = n.Normalize(in)
		for b := 0; b < bands.Count; b++ {
			assert.GreaterOrEqual(t, out[b], 0.0)
			assert.LessOrEqual(t, out[b], 1.0)
		}
	}
}

// TestNormalizer_Recalibration verifies headroom rises instantly on a peak
// and decays during quiet passages.
func TestNormalizer_Recalibration(t *testing.T) {
	n, err := bands.NewNormalizer(0.999, 1e-9)
	require.NoError(t, err)

	var loud [bands.Count]float64
	loud[bands.Mid] = 100
	n.Normalize(loud)
	require.InDelta(t, 100, n.RunningMax()[bands.Mid], 1e-9)

	var quiet [bands.Count]float64
	quiet[bands.Mid] = 1
	first := n.Normalize(quiet)[bands.Mid]

	for loop := 0; loop < 2000; loop++ {
		n.Normalize(quiet)
	}
	later := n.Normalize(quiet)[bands.Mid]

	assert.Greater(t, later, first, "quiet passages re-calibrate the range upward")
	assert.LessOrEqual(t, later, 1.0)
}

// TestNormalizer_Validation rejects bad decay and epsilon.
func TestNormalizer_Validation(t *testing.T) {
	_, err := bands.NewNormalizer(1.0, 1e-9)
	assert.Error(t, err, "decay of 1 never re-calibrates")

	_, err = bands.NewNormalizer(0.99, 0)
	assert.Error(t, err, "zero epsilon invites division by zero")
}

func bandsAllAlphas(attack, release float64) [bands.Count]bands.Alphas {
	var coeffs [bands.Count]bands.Alphas
	for b := 0; b < bands.Count; b++ {
		coeffs[b] = bands.Alphas{Attack: attack, Release: release}
	}
	return coeffs
}
