package aggregator

import (
	"math"

	"gonum.org/v1/gonum/floats"
)

// LevelConfig holds configuration for batch level measurement
type LevelConfig struct {
	ReferenceLevel float64 // amplitude reported as 0 dB
	MinimumRMS     float64 // floor that keeps silence finite
}

// DefaultLevelConfig measures against unit amplitude with a 1e-6 floor
func DefaultLevelConfig() LevelConfig {
	return LevelConfig{
		ReferenceLevel: 1.0,
		MinimumRMS:     1e-6,
	}
}

// BatchLevel returns the RMS level of samples in dB relative to unit amplitude
func BatchLevel(samples []float64) float64 {
	return BatchLevelWithConfig(samples, DefaultLevelConfig())
}

// BatchLevelWithConfig returns the RMS level of samples in dB. An empty or
// silent batch reports the level of MinimumRMS.
func BatchLevelWithConfig(samples []float64, config LevelConfig) float64 {
	rms := 0.0
	if len(samples) > 0 {
		rms = math.Sqrt(floats.Dot(samples, samples) / float64(len(samples)))
	}
	if rms < config.MinimumRMS || math.IsNaN(rms) {
		rms = config.MinimumRMS
	}
	return calculateDecibels(rms, config.ReferenceLevel)
}

// calculateDecibels converts an RMS amplitude to dB relative to reference
func calculateDecibels(rms, reference float64) float64 {
	return 20 * math.Log10(rms/reference)
}
