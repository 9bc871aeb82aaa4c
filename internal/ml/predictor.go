package ml

import (
	"encoding/json"
	"fmt"
	"log"
	"os"

	"github.com/ArafathMohammed/Prosthetichand/internal/models"
)

// Normalizer rescales a feature vector before classification.
// Implementations are immutable after load and safe for concurrent use.
type Normalizer interface {
	Transform(features []float64) ([]float64, error)
	Dim() int
}

// Classifier maps a normalized feature vector to an action label.
// Implementations are immutable after load and safe for concurrent use.
type Classifier interface {
	Predict(features []float64) (models.ActionLabel, error)
}

// Dimensioned is implemented by classifiers that know their input size
type Dimensioned interface {
	InputDim() int
}

// StubClassifier always answers Label
type StubClassifier struct {
	Label models.ActionLabel
}

// Predict returns the fixed label
func (s StubClassifier) Predict([]float64) (models.ActionLabel, error) {
	return s.Label, nil
}

// IdentityNormalizer passes vectors of length N through unchanged
type IdentityNormalizer struct {
	N int
}

// Transform returns a copy of features
func (n IdentityNormalizer) Transform(features []float64) ([]float64, error) {
	if len(features) != n.N {
		return nil, fmt.Errorf("normalizer expects %d features, got %d", n.N, len(features))
	}
	out := make([]float64, len(features))
	copy(out, features)
	return out, nil
}

// Dim returns N
func (n IdentityNormalizer) Dim() int { return n.N }

// readArtifact loads a JSON artifact from path into v
func readArtifact(path string, v interface{}) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read artifact %s: %w", path, err)
	}
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("failed to unmarshal artifact %s: %w", path, err)
	}
	return nil
}

// WriteArtifact stores v as indented JSON at path
func WriteArtifact(path string, v interface{}) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal artifact: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write artifact %s: %w", path, err)
	}
	log.Printf("Wrote artifact to %s", path)
	return nil
}
