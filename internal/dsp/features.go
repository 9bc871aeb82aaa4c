package dsp

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// TimeDomainFeatures is the number of leading time-domain features:
// mean, standard deviation, RMS and zero-crossing count
const TimeDomainFeatures = 4

// FeatureConfig holds feature extractor parameters
type FeatureConfig struct {
	SampleRate        float64 // Hz
	WaveletScales     int     // C, scales 1..C
	STFTWindowSeconds float64 // Hamming window length in seconds
	STFTOverlapRatio  float64 // fraction of the window shared by consecutive frames
	STFTMinNFFT       int     // lower bound of the FFT length
}

// DefaultFeatureConfig returns fs=10 kHz, 30 scales, 0.1 s window, 50%
// overlap and at least 1024 FFT points
func DefaultFeatureConfig() FeatureConfig {
	return FeatureConfig{
		SampleRate:        10000,
		WaveletScales:     30,
		STFTWindowSeconds: 0.1,
		STFTOverlapRatio:  0.5,
		STFTMinNFFT:       1024,
	}
}

// STFTWindowLen returns the analysis window length in samples, truncated
func (c FeatureConfig) STFTWindowLen() int {
	return int(c.SampleRate * c.STFTWindowSeconds)
}

// STFTOverlap returns the frame overlap in samples
func (c FeatureConfig) STFTOverlap() int {
	return int(float64(c.STFTWindowLen()) * c.STFTOverlapRatio)
}

// SpectralBins returns F, the number of one-sided STFT bins
func (c FeatureConfig) SpectralBins() int {
	nfft := c.STFTMinNFFT
	if w := c.STFTWindowLen(); w > nfft {
		nfft = w
	}
	return nfft/2 + 1
}

// VectorLen returns 4+C+F
func (c FeatureConfig) VectorLen() int {
	return TimeDomainFeatures + c.WaveletScales + c.SpectralBins()
}

// Validate checks the parameters are usable
func (c FeatureConfig) Validate() error {
	if c.SampleRate <= 0 || math.IsNaN(c.SampleRate) || math.IsInf(c.SampleRate, 0) {
		return fmt.Errorf("sample rate must be positive, got %v", c.SampleRate)
	}
	if c.WaveletScales < 1 {
		return fmt.Errorf("wavelet scale count must be at least 1, got %d", c.WaveletScales)
	}
	if c.STFTWindowLen() < 2 {
		return fmt.Errorf("STFT window of %vs at %v Hz is shorter than 2 samples", c.STFTWindowSeconds, c.SampleRate)
	}
	if c.STFTOverlapRatio < 0 || c.STFTOverlapRatio >= 1 {
		return fmt.Errorf("STFT overlap ratio must be in [0, 1), got %v", c.STFTOverlapRatio)
	}
	if c.STFTMinNFFT < 1 {
		return fmt.Errorf("minimum FFT length must be positive, got %d", c.STFTMinNFFT)
	}
	return nil
}

// Extractor turns one selected mode into a fixed-length feature vector:
// time-domain scalars, wavelet energy per scale, then mean STFT power per bin.
type Extractor struct {
	cfg  FeatureConfig
	n    int
	cwt  *MorletCWT
	stft *STFT
}

// NewExtractor prepares an extractor for modes of n samples
func NewExtractor(n int, cfg FeatureConfig) (*Extractor, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	scales := make([]float64, cfg.WaveletScales)
	for i := range scales {
		scales[i] = float64(i + 1)
	}
	cwt, err := NewMorletCWT(n, scales, 1/cfg.SampleRate)
	if err != nil {
		return nil, fmt.Errorf("failed to prepare wavelet transform: %w", err)
	}

	stft, err := NewSTFT(cfg.STFTWindowLen(), cfg.STFTOverlap(), cfg.STFTMinNFFT)
	if err != nil {
		return nil, fmt.Errorf("failed to prepare STFT: %w", err)
	}

	return &Extractor{cfg: cfg, n: n, cwt: cwt, stft: stft}, nil
}

// Config returns the extractor parameters
func (e *Extractor) Config() FeatureConfig { return e.cfg }

// Len returns the feature vector length, 4+C+F
func (e *Extractor) Len() int {
	return TimeDomainFeatures + len(e.cwt.Scales()) + e.stft.Bins()
}

// Extract computes the feature vector of mode
func (e *Extractor) Extract(mode []float64) ([]float64, error) {
	if len(mode) != e.n {
		return nil, fmt.Errorf("mode has %d samples, extractor expects %d", len(mode), e.n)
	}

	out := make([]float64, 0, e.Len())
	out = append(out, TimeDomain(mode)...)

	energies, err := e.cwt.Energies(mode)
	if err != nil {
		return nil, fmt.Errorf("wavelet energy: %w", err)
	}
	out = append(out, energies...)
	out = append(out, e.stft.MeanPower(mode)...)

	if len(out) != e.Len() {
		return nil, fmt.Errorf("feature vector has %d values, expected %d", len(out), e.Len())
	}
	return out, nil
}

// TimeDomain returns mean, population standard deviation, RMS and the
// number of zero crossings of x
func TimeDomain(x []float64) []float64 {
	if len(x) == 0 {
		return make([]float64, TimeDomainFeatures)
	}
	mean, std := stat.PopMeanStdDev(x, nil)
	rms := math.Sqrt(floats.Dot(x, x) / float64(len(x)))
	return []float64{mean, std, rms, float64(ZeroCrossings(x))}
}

// ZeroCrossings counts adjacent pairs with strictly opposite signs. A sample
// that is exactly zero never forms a crossing.
func ZeroCrossings(x []float64) int {
	count := 0
	for i := 1; i < len(x); i++ {
		if (x[i-1] > 0 && x[i] < 0) || (x[i-1] < 0 && x[i] > 0) {
			count++
		}
	}
	return count
}
