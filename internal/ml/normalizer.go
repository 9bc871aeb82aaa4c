package ml

import (
	"fmt"
	"log"
	"math"
)

// StandardScaler applies (x - mean) / scale per feature
type StandardScaler struct {
	Mean  []float64 `json:"mean"`
	Scale []float64 `json:"scale"`
}

// NewStandardScaler validates mean and scale and returns the scaler.
// A zero scale is treated as 1 so constant features pass through centered.
func NewStandardScaler(mean, scale []float64) (*StandardScaler, error) {
	if len(mean) == 0 {
		return nil, fmt.Errorf("scaler has no features")
	}
	if len(mean) != len(scale) {
		return nil, fmt.Errorf("scaler mean has %d values but scale has %d", len(mean), len(scale))
	}

	s := &StandardScaler{
		Mean:  append([]float64(nil), mean...),
		Scale: append([]float64(nil), scale...),
	}
	for i, v := range s.Scale {
		if math.IsNaN(v) || math.IsInf(v, 0) || math.IsNaN(s.Mean[i]) || math.IsInf(s.Mean[i], 0) {
			return nil, fmt.Errorf("scaler feature %d is not finite", i)
		}
		if v == 0 {
			s.Scale[i] = 1
		}
	}
	return s, nil
}

// LoadStandardScaler reads a scaler artifact from a JSON file
func LoadStandardScaler(path string) (*StandardScaler, error) {
	var raw StandardScaler
	if err := readArtifact(path, &raw); err != nil {
		return nil, err
	}
	s, err := NewStandardScaler(raw.Mean, raw.Scale)
	if err != nil {
		return nil, fmt.Errorf("invalid scaler %s: %w", path, err)
	}
	log.Printf("Loaded scaler from %s with %d features", path, s.Dim())
	return s, nil
}

// Dim returns the number of features the scaler expects
func (s *StandardScaler) Dim() int { return len(s.Mean) }

// Transform returns the rescaled copy of features
func (s *StandardScaler) Transform(features []float64) ([]float64, error) {
	if len(features) != len(s.Mean) {
		return nil, fmt.Errorf("scaler expects %d features, got %d", len(s.Mean), len(features))
	}
	out := make([]float64, len(features))
	for i, x := range features {
		out[i] = (x - s.Mean[i]) / s.Scale[i]
	}
	return out, nil
}
