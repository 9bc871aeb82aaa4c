package dsp

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func smallFeatureConfig() FeatureConfig {
	return FeatureConfig{
		SampleRate:        1000,
		WaveletScales:     10,
		STFTWindowSeconds: 0.1,
		STFTOverlapRatio:  0.5,
		STFTMinNFFT:       128,
	}
}

func TestFeatureConfig_Lengths(t *testing.T) {
	def := DefaultFeatureConfig()
	assert.Equal(t, 1000, def.STFTWindowLen())
	assert.Equal(t, 500, def.STFTOverlap())
	assert.Equal(t, 513, def.SpectralBins())
	assert.Equal(t, 4+30+513, def.VectorLen())

	small := smallFeatureConfig()
	assert.Equal(t, 100, small.STFTWindowLen())
	assert.Equal(t, 65, small.SpectralBins())
	assert.Equal(t, 4+10+65, small.VectorLen())

	wide := small
	wide.STFTMinNFFT = 64
	assert.Equal(t, 51, wide.SpectralBins(), "nfft falls back to the window length")

	odd := def
	odd.SampleRate = 8335
	assert.Equal(t, 833, odd.STFTWindowLen(), "fractional window lengths truncate")
	assert.Equal(t, 416, odd.STFTOverlap())
	assert.Equal(t, 513, odd.SpectralBins())
}

func TestFeatureConfig_Validate(t *testing.T) {
	assert.NoError(t, DefaultFeatureConfig().Validate())

	mutations := map[string]func(*FeatureConfig){
		"zero sample rate":  func(c *FeatureConfig) { c.SampleRate = 0 },
		"no scales":         func(c *FeatureConfig) { c.WaveletScales = 0 },
		"tiny window":       func(c *FeatureConfig) { c.STFTWindowSeconds = 0.0001 },
		"overlap ratio one": func(c *FeatureConfig) { c.STFTOverlapRatio = 1 },
		"negative overlap":  func(c *FeatureConfig) { c.STFTOverlapRatio = -0.1 },
		"zero minimum nfft": func(c *FeatureConfig) { c.STFTMinNFFT = 0 },
	}
	for name, mutate := range mutations {
		t.Run(name, func(t *testing.T) {
			cfg := DefaultFeatureConfig()
			mutate(&cfg)
			assert.Error(t, cfg.Validate())
		})
	}
}

func TestExtractor_LengthIndependentOfAmplitude(t *testing.T) {
	const n = 256
	cfg := smallFeatureConfig()
	ex, err := NewExtractor(n, cfg)
	require.NoError(t, err)
	require.Equal(t, cfg.VectorLen(), ex.Len())

	base := twoToneSignal(n)
	for _, amp := range []float64{0, 1e-9, 1, 1e3, 1e9} {
		mode := make([]float64, n)
		for i := range mode {
			mode[i] = amp * base[i]
		}
		vec, err := ex.Extract(mode)
		require.NoError(t, err, "amplitude %v", amp)
		assert.Len(t, vec, cfg.VectorLen(), "amplitude %v", amp)
		for i, v := range vec {
			assert.False(t, math.IsNaN(v) || math.IsInf(v, 0), "feature %d at amplitude %v", i, amp)
		}
	}
}

func TestExtractor_RejectsWrongLength(t *testing.T) {
	ex, err := NewExtractor(128, smallFeatureConfig())
	require.NoError(t, err)
	_, err = ex.Extract(make([]float64, 100))
	assert.Error(t, err)
}

func TestExtractor_FeatureLayout(t *testing.T) {
	const n = 200
	cfg := smallFeatureConfig()
	ex, err := NewExtractor(n, cfg)
	require.NoError(t, err)

	mode := generateSineWave(100, n, cfg.SampleRate)
	vec, err := ex.Extract(mode)
	require.NoError(t, err)

	assert.Equal(t, TimeDomain(mode), vec[:TimeDomainFeatures])

	cwt, err := NewMorletCWT(n, []float64{1, 2, 3, 4, 5, 6, 7, 8, 9, 10}, 1/cfg.SampleRate)
	require.NoError(t, err)
	energies, err := cwt.Energies(mode)
	require.NoError(t, err)
	assert.InDeltaSlice(t, energies, vec[TimeDomainFeatures:TimeDomainFeatures+10], 1e-9)

	assert.Len(t, vec[TimeDomainFeatures+10:], cfg.SpectralBins())
}

func TestTimeDomain(t *testing.T) {
	x := []float64{1, -1, 1, -1}
	got := TimeDomain(x)
	require.Len(t, got, TimeDomainFeatures)
	assert.InDelta(t, 0, got[0], 1e-12)
	assert.InDelta(t, 1, got[1], 1e-12, "population standard deviation")
	assert.InDelta(t, 1, got[2], 1e-12)
	assert.Equal(t, 3.0, got[3])

	x = []float64{2, 4, 4, 4, 5, 5, 7, 9}
	got = TimeDomain(x)
	assert.InDelta(t, 5, got[0], 1e-12)
	assert.InDelta(t, 2, got[1], 1e-12)
	assert.InDelta(t, math.Sqrt(232.0/8), got[2], 1e-12)
	assert.Equal(t, 0.0, got[3])
}

func TestZeroCrossings(t *testing.T) {
	tests := []struct {
		name string
		x    []float64
		want int
	}{
		{"empty", nil, 0},
		{"single", []float64{-1}, 0},
		{"alternating", []float64{1, -1, 1, -1}, 3},
		{"exact zero is not a crossing", []float64{1, 0, 1}, 0},
		{"pass through zero", []float64{1, 0, -1}, 0},
		{"all zero", []float64{0, 0, 0}, 0},
		{"mixed", []float64{-2, 3, 0, 0, -1, 4}, 2},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ZeroCrossings(tt.x))
		})
	}
}

func TestMorletCWT(t *testing.T) {
	const n = 300
	scales := []float64{1, 2, 4, 8, 16}
	cwt, err := NewMorletCWT(n, scales, 1.0/1000)
	require.NoError(t, err)

	signal := twoToneSignal(n)
	coeffs, err := cwt.Coefficients(signal)
	require.NoError(t, err)
	require.Len(t, coeffs, len(scales))
	for _, row := range coeffs {
		assert.Len(t, row, n)
	}

	t.Run("energy scales with amplitude squared", func(t *testing.T) {
		base, err := cwt.Energies(signal)
		require.NoError(t, err)
		scaled := make([]float64, n)
		for i, v := range signal {
			scaled[i] = 3 * v
		}
		tripled, err := cwt.Energies(scaled)
		require.NoError(t, err)
		for i := range base {
			assert.InDelta(t, 9*base[i], tripled[i], 1e-6*math.Max(1, base[i]))
		}
	})

	t.Run("silence has no energy", func(t *testing.T) {
		e, err := cwt.Energies(make([]float64, n))
		require.NoError(t, err)
		for _, v := range e {
			assert.InDelta(t, 0, v, 1e-18)
		}
	})

	t.Run("pseudo frequencies decrease with scale", func(t *testing.T) {
		freqs := cwt.Frequencies()
		assert.InDelta(t, 812.5, freqs[0], 1e-9)
		for i := 1; i < len(freqs); i++ {
			assert.Less(t, freqs[i], freqs[i-1])
		}
	})

	t.Run("invalid arguments", func(t *testing.T) {
		_, err := NewMorletCWT(0, scales, 1)
		assert.Error(t, err)
		_, err = NewMorletCWT(n, nil, 1)
		assert.Error(t, err)
		_, err = NewMorletCWT(n, []float64{1, -2}, 1)
		assert.Error(t, err)
		_, err = cwt.Coefficients(make([]float64, n-1))
		assert.Error(t, err)
	})
}

func TestStretchKernelLength(t *testing.T) {
	intPsi, step := integratedMorlet()
	require.Len(t, intPsi, 1024)
	for _, s := range []float64{1, 2, 30} {
		k := stretchKernel(intPsi, step, s)
		assert.Len(t, k, int(16*s)+1, "scale %v", s)
	}
}

func TestSTFT_Frames(t *testing.T) {
	s, err := NewSTFT(100, 50, 128)
	require.NoError(t, err)
	assert.Equal(t, 128, s.NFFT())
	assert.Equal(t, 65, s.Bins())

	frames := s.frames(make([]float64, 128))
	assert.Len(t, frames, 4)
	for _, f := range frames {
		assert.Len(t, f, 100)
	}

	frames = s.frames(make([]float64, 1000))
	assert.Len(t, frames, 21)
}

func TestSTFT_PeakAtToneBin(t *testing.T) {
	const fs = 1024.0
	s, err := NewSTFT(256, 128, 256)
	require.NoError(t, err)

	// 64 Hz falls exactly on bin 16 with nfft=256 at 1024 Hz
	power := s.MeanPower(generateSineWave(64, 2048, fs))
	require.Len(t, power, s.Bins())

	peak := 0
	for i, p := range power {
		if p > power[peak] {
			peak = i
		}
	}
	assert.Equal(t, 16, peak)
	assert.InDelta(t, 64, s.Frequencies(fs)[peak], 1e-9)
}

func TestSTFT_InvalidArguments(t *testing.T) {
	_, err := NewSTFT(0, 0, 16)
	assert.Error(t, err)
	_, err = NewSTFT(10, 10, 16)
	assert.Error(t, err)
	_, err = NewSTFT(10, -1, 16)
	assert.Error(t, err)
}
