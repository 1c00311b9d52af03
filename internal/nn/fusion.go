package nn

import (
	"fmt"

	"github.com/pkg/errors"

	"github.com/rainfishy/GraphDiseaseYOLOv8/internal/tensor"
)

// FusionConfig configures a WeightedFusion layer.
type FusionConfig struct {
	NumInputs int     `yaml:"num_inputs"`
	Eps       float32 `yaml:"eps"`
}

// DefaultFusionConfig returns a two-input fusion with eps 1e-4.
func DefaultFusionConfig() FusionConfig {
	return FusionConfig{NumInputs: 2, Eps: 1e-4}
}

// Validate checks the configuration.
func (c FusionConfig) Validate() error {
	if c.NumInputs < 2 {
		return errors.Errorf("fusion: num_inputs must be at least 2, got %d", c.NumInputs)
	}
	if c.Eps <= 0 {
		return errors.Errorf("fusion: eps must be positive, got %g", c.Eps)
	}
	return nil
}

// WeightedFusion combines k same-shape tensors with learnable non-negative
// weights:
//
//	w = relu(weights)
//	w = w / (sum(w) + eps)
//	out = Σ w_i * x_i
//
// The weights start at 1. Rectification and normalisation are recomputed on
// every call from the raw parameter and never written back.
type WeightedFusion[B tensor.Backend] struct {
	numInputs int
	eps       float32
	weights   *Parameter[B] // [numInputs]
}

// NewWeightedFusion creates a fusion layer. It panics on fewer than two
// inputs or a non-positive eps.
func NewWeightedFusion[B tensor.Backend](numInputs int, eps float32, backend B) *WeightedFusion[B] {
	if err := (FusionConfig{NumInputs: numInputs, Eps: eps}).Validate(); err != nil {
		panic(err.Error())
	}
	return &WeightedFusion[B]{
		numInputs: numInputs,
		eps:       eps,
		weights:   NewParameter("weights", Ones(tensor.Shape{numInputs}, backend)),
	}
}

// Forward fuses exactly NumInputs tensors of identical shape.
func (f *WeightedFusion[B]) Forward(inputs ...*tensor.Tensor[B]) *tensor.Tensor[B] {
	if len(inputs) != f.numInputs {
		panic(fmt.Sprintf("fusion: expected %d inputs, got %d", f.numInputs, len(inputs)))
	}
	shape := inputs[0].Shape()
	for i, x := range inputs[1:] {
		if !x.Shape().Equal(shape) {
			panic(fmt.Sprintf("fusion: input %d has shape %v, input 0 has %v", i+1, x.Shape(), shape))
		}
	}

	w := f.weights.Tensor().ReLU()
	w = w.Div(w.Sum().AddScalar(f.eps))

	var fused *tensor.Tensor[B]
	for i, x := range inputs {
		term := x.Mul(w.Gather(0, []int{i}))
		if fused == nil {
			fused = term
		} else {
			fused = fused.Add(term)
		}
	}
	return fused
}

// ForwardMulti implements MultiInputModule.
func (f *WeightedFusion[B]) ForwardMulti(inputs []*tensor.Tensor[B]) *tensor.Tensor[B] {
	return f.Forward(inputs...)
}

// Weights returns the rectified and normalised weights the next Forward
// call will use.
func (f *WeightedFusion[B]) Weights() []float32 {
	raw := f.weights.Tensor().Data()
	out := make([]float32, len(raw))
	var total float32
	for i, v := range raw {
		out[i] = max(v, 0)
		total += out[i]
	}
	for i := range out {
		out[i] /= total + f.eps
	}
	return out
}

// Parameters returns the raw fusion weights.
func (f *WeightedFusion[B]) Parameters() []*Parameter[B] {
	return []*Parameter[B]{f.weights}
}

// NumInputs returns the number of fused tensors.
func (f *WeightedFusion[B]) NumInputs() int {
	return f.numInputs
}

// String returns a string representation of the layer.
func (f *WeightedFusion[B]) String() string {
	return fmt.Sprintf("WeightedFusion(num_inputs=%d, eps=%g)", f.numInputs, f.eps)
}
