package ml

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ArafathMohammed/Prosthetichand/internal/models"
)

func TestStandardScaler_Transform(t *testing.T) {
	s, err := NewStandardScaler([]float64{1, 2, 3}, []float64{2, 0, 0.5})
	require.NoError(t, err)
	assert.Equal(t, 3, s.Dim())

	in := []float64{3, 5, 4}
	out, err := s.Transform(in)
	require.NoError(t, err)
	assert.InDeltaSlice(t, []float64{1, 3, 2}, out, 1e-12, "zero scale acts as 1")
	assert.Equal(t, []float64{3, 5, 4}, in, "input is not modified")

	_, err = s.Transform([]float64{1, 2})
	assert.Error(t, err)
}

func TestStandardScaler_Invalid(t *testing.T) {
	_, err := NewStandardScaler(nil, nil)
	assert.Error(t, err)
	_, err = NewStandardScaler([]float64{1, 2}, []float64{1})
	assert.Error(t, err)
}

func TestIdentityNormalizer(t *testing.T) {
	n := IdentityNormalizer{N: 2}
	out, err := n.Transform([]float64{4, 5})
	require.NoError(t, err)
	assert.Equal(t, []float64{4, 5}, out)
	_, err = n.Transform([]float64{4})
	assert.Error(t, err)
}

func TestStubClassifier(t *testing.T) {
	label, err := StubClassifier{Label: models.LabelTripod}.Predict(nil)
	require.NoError(t, err)
	assert.Equal(t, models.LabelTripod, label)
}

func identitySpec() ModelSpec {
	// two inputs, two hidden relu units copying them, three outputs
	return ModelSpec{
		Classes:    []int{0, 1, 2},
		Activation: ActivationReLU,
		Layers: []LayerSpec{
			{Weights: [][]float64{{1, 0}, {0, 1}}, Biases: []float64{0, 0}},
			{Weights: [][]float64{{1, 0, 0}, {0, 1, 0}}, Biases: []float64{0, 0, 0.5}},
		},
	}
}

func TestMLP_Predict(t *testing.T) {
	m, err := NewMLP(identitySpec())
	require.NoError(t, err)
	assert.Equal(t, 2, m.InputDim())

	tests := []struct {
		in   []float64
		want models.ActionLabel
	}{
		{[]float64{2, 1}, models.LabelGrip},
		{[]float64{1, 3}, models.LabelPinch},
		{[]float64{0.1, 0.2}, models.LabelTripod},
		{[]float64{-5, -5}, models.LabelTripod}, // relu clamps negatives
	}
	for _, tt := range tests {
		got, err := m.Predict(tt.in)
		require.NoError(t, err)
		assert.Equal(t, tt.want, got, "input %v", tt.in)
	}

	_, err = m.Predict([]float64{1, 2, 3})
	assert.Error(t, err)
}

func TestMLP_SingleOutput(t *testing.T) {
	m, err := NewMLP(ModelSpec{
		Classes: []int{0, 2},
		Layers:  []LayerSpec{{Weights: [][]float64{{1}}, Biases: []float64{-1}}},
	})
	require.NoError(t, err)

	got, err := m.Predict([]float64{3})
	require.NoError(t, err)
	assert.Equal(t, models.LabelTripod, got)

	got, err = m.Predict([]float64{0.5})
	require.NoError(t, err)
	assert.Equal(t, models.LabelGrip, got)
}

func TestNewMLP_Invalid(t *testing.T) {
	tests := map[string]ModelSpec{
		"no layers":      {Classes: []int{0, 1}},
		"one class":      {Classes: []int{0}, Layers: identitySpec().Layers},
		"bad activation": {Classes: []int{0, 1, 2}, Activation: "swish", Layers: identitySpec().Layers},
		"ragged weights": {Classes: []int{0, 1}, Layers: []LayerSpec{{Weights: [][]float64{{1, 0}, {1}}, Biases: []float64{0, 0}}}},
		"bias mismatch":  {Classes: []int{0, 1}, Layers: []LayerSpec{{Weights: [][]float64{{1, 0}}, Biases: []float64{0}}}},
		"chain mismatch": {Classes: []int{0, 1}, Layers: []LayerSpec{
			{Weights: [][]float64{{1, 0}}, Biases: []float64{0, 0}},
			{Weights: [][]float64{{1, 0}}, Biases: []float64{0, 0}},
		}},
		"class count": {Classes: []int{0, 1}, Layers: identitySpec().Layers},
	}
	for name, spec := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := NewMLP(spec)
			assert.Error(t, err)
		})
	}
}

func TestSampleArtifactsRoundTrip(t *testing.T) {
	dir := t.TempDir()
	modelPath := filepath.Join(dir, "model.json")
	scalerPath := filepath.Join(dir, "scaler.json")

	require.NoError(t, CreateSampleArtifacts(modelPath, scalerPath, 7))

	m, err := LoadMLP(modelPath)
	require.NoError(t, err)
	assert.Equal(t, 7, m.InputDim())
	assert.Equal(t, models.AllLabels(), m.Classes())

	s, err := LoadStandardScaler(scalerPath)
	require.NoError(t, err)
	assert.Equal(t, 7, s.Dim())

	features := []float64{1, 2, 3, 4, 5, 6, 7}
	scaled, err := s.Transform(features)
	require.NoError(t, err)
	assert.Equal(t, features, scaled)

	label, err := m.Predict(scaled)
	require.NoError(t, err)
	assert.True(t, label.Valid())
}

func TestLoadArtifactErrors(t *testing.T) {
	dir := t.TempDir()
	_, err := LoadMLP(filepath.Join(dir, "missing.json"))
	assert.Error(t, err)

	bad := filepath.Join(dir, "bad.json")
	require.NoError(t, os.WriteFile(bad, []byte("{not json"), 0644))
	_, err = LoadStandardScaler(bad)
	assert.Error(t, err)
}
