package ml

import (
	"fmt"
	"log"
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"

	"github.com/ArafathMohammed/Prosthetichand/internal/models"
)

// Hidden-layer activations understood by MLP
const (
	ActivationReLU     = "relu"
	ActivationTanh     = "tanh"
	ActivationLogistic = "logistic"
	ActivationIdentity = "identity"
)

// LayerSpec is one dense layer as stored on disk. Weights has one row per
// input and one column per output.
type LayerSpec struct {
	Weights [][]float64 `json:"weights"`
	Biases  []float64   `json:"biases"`
}

// ModelSpec is the JSON form of a trained multilayer perceptron
type ModelSpec struct {
	Classes    []int       `json:"classes"`
	Activation string      `json:"activation"`
	Layers     []LayerSpec `json:"layers"`
}

type denseLayer struct {
	weights *mat.Dense // in x out
	biases  *mat.VecDense
}

// MLP is a feed-forward classifier. The class with the largest output wins;
// a single-output network separates classes[0] and classes[1] at zero.
type MLP struct {
	classes    []models.ActionLabel
	activation string
	layers     []denseLayer
}

// NewMLP builds a classifier from spec, checking layer shapes chain together
func NewMLP(spec ModelSpec) (*MLP, error) {
	if len(spec.Layers) == 0 {
		return nil, fmt.Errorf("model has no layers")
	}
	if len(spec.Classes) < 2 {
		return nil, fmt.Errorf("model needs at least 2 classes, got %d", len(spec.Classes))
	}

	act := spec.Activation
	if act == "" {
		act = ActivationReLU
	}
	switch act {
	case ActivationReLU, ActivationTanh, ActivationLogistic, ActivationIdentity:
	default:
		return nil, fmt.Errorf("unknown activation %q", spec.Activation)
	}

	m := &MLP{activation: act}
	for _, c := range spec.Classes {
		m.classes = append(m.classes, models.ActionLabel(c))
	}

	prevOut := -1
	for i, l := range spec.Layers {
		in := len(l.Weights)
		if in == 0 {
			return nil, fmt.Errorf("layer %d has no weights", i)
		}
		out := len(l.Weights[0])
		if out == 0 {
			return nil, fmt.Errorf("layer %d has no outputs", i)
		}
		if prevOut >= 0 && in != prevOut {
			return nil, fmt.Errorf("layer %d expects %d inputs but previous layer yields %d", i, in, prevOut)
		}
		if len(l.Biases) != out {
			return nil, fmt.Errorf("layer %d has %d biases for %d outputs", i, len(l.Biases), out)
		}

		data := make([]float64, 0, in*out)
		for r, row := range l.Weights {
			if len(row) != out {
				return nil, fmt.Errorf("layer %d row %d has %d weights, expected %d", i, r, len(row), out)
			}
			data = append(data, row...)
		}
		if floats.HasNaN(data) || floats.HasNaN(l.Biases) {
			return nil, fmt.Errorf("layer %d contains NaN", i)
		}

		m.layers = append(m.layers, denseLayer{
			weights: mat.NewDense(in, out, data),
			biases:  mat.NewVecDense(out, append([]float64(nil), l.Biases...)),
		})
		prevOut = out
	}

	switch {
	case prevOut == 1 && len(m.classes) != 2:
		return nil, fmt.Errorf("single-output model must have exactly 2 classes, got %d", len(m.classes))
	case prevOut > 1 && prevOut != len(m.classes):
		return nil, fmt.Errorf("output layer has %d units for %d classes", prevOut, len(m.classes))
	}
	return m, nil
}

// LoadMLP reads a model artifact from a JSON file
func LoadMLP(path string) (*MLP, error) {
	var spec ModelSpec
	if err := readArtifact(path, &spec); err != nil {
		return nil, err
	}
	m, err := NewMLP(spec)
	if err != nil {
		return nil, fmt.Errorf("invalid model %s: %w", path, err)
	}
	log.Printf("Loaded model from %s: %d inputs, %d layers, classes %v", path, m.InputDim(), len(m.layers), m.classes)
	return m, nil
}

// InputDim returns the feature count of the first layer
func (m *MLP) InputDim() int {
	r, _ := m.layers[0].weights.Dims()
	return r
}

// Classes returns the labels in output order
func (m *MLP) Classes() []models.ActionLabel {
	return append([]models.ActionLabel(nil), m.classes...)
}

// Predict runs the forward pass and returns the winning label
func (m *MLP) Predict(features []float64) (models.ActionLabel, error) {
	if len(features) != m.InputDim() {
		return 0, fmt.Errorf("model expects %d features, got %d", m.InputDim(), len(features))
	}

	h := mat.NewVecDense(len(features), append([]float64(nil), features...))
	for i, l := range m.layers {
		_, out := l.weights.Dims()
		z := mat.NewVecDense(out, nil)
		z.MulVec(l.weights.T(), h)
		z.AddVec(z, l.biases)
		if i < len(m.layers)-1 {
			m.activate(z)
		}
		h = z
	}

	scores := h.RawVector().Data
	for _, s := range scores {
		if math.IsNaN(s) {
			return 0, fmt.Errorf("model produced NaN score")
		}
	}
	if len(scores) == 1 {
		if scores[0] > 0 {
			return m.classes[1], nil
		}
		return m.classes[0], nil
	}
	return m.classes[floats.MaxIdx(scores)], nil
}

func (m *MLP) activate(v *mat.VecDense) {
	for i := 0; i < v.Len(); i++ {
		x := v.AtVec(i)
		switch m.activation {
		case ActivationReLU:
			x = math.Max(0, x)
		case ActivationTanh:
			x = math.Tanh(x)
		case ActivationLogistic:
			x = 1 / (1 + math.Exp(-x))
		}
		v.SetVec(i, x)
	}
}

// CreateSampleArtifacts writes an untrained single-layer model and a unit
// scaler for dim features so the service can run without trained artifacts
func CreateSampleArtifacts(modelPath, scalerPath string, dim int) error {
	if dim < 1 {
		return fmt.Errorf("feature dimension must be positive, got %d", dim)
	}

	labels := models.AllLabels()
	weights := make([][]float64, dim)
	for i := range weights {
		weights[i] = make([]float64, len(labels))
		for j := range labels {
			weights[i][j] = math.Sin(float64((i+1)*(j+1))) / float64(dim)
		}
	}
	classes := make([]int, len(labels))
	for i, l := range labels {
		classes[i] = int(l)
	}

	model := ModelSpec{
		Classes:    classes,
		Activation: ActivationReLU,
		Layers: []LayerSpec{
			{Weights: weights, Biases: make([]float64, len(labels))},
		},
	}
	if err := WriteArtifact(modelPath, model); err != nil {
		return err
	}

	scale := make([]float64, dim)
	for i := range scale {
		scale[i] = 1
	}
	return WriteArtifact(scalerPath, StandardScaler{Mean: make([]float64, dim), Scale: scale})
}
