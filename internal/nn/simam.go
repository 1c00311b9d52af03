package nn

import (
	"fmt"

	"github.com/pkg/errors"

	"github.com/rainfishy/GraphDiseaseYOLOv8/internal/tensor"
)

// SimAMConfig configures a SimAM layer.
type SimAMConfig struct {
	ELambda float32 `yaml:"e_lambda"`
}

// DefaultSimAMConfig returns the configuration used by the detector.
func DefaultSimAMConfig() SimAMConfig {
	return SimAMConfig{ELambda: 1e-4}
}

// Validate checks the configuration.
func (c SimAMConfig) Validate() error {
	if c.ELambda <= 0 {
		return errors.Errorf("simam: e_lambda must be positive, got %g", c.ELambda)
	}
	return nil
}

// SimAM is a parameter-free spatial attention module.
//
// For every (batch, channel) slice of x with n = H*W - 1:
//
//	d = (x - mean(x))²
//	y = d / (4 * (sum(d) / n + e_lambda)) + 0.5
//	out = x * sigmoid(y)
//
// n is floored at 1 so a 1×1 slice yields y = 0.5 instead of dividing by zero.
type SimAM[B tensor.Backend] struct {
	eLambda float32
}

// NewSimAM creates a SimAM layer. It panics if eLambda is not positive.
func NewSimAM[B tensor.Backend](eLambda float32) *SimAM[B] {
	if err := (SimAMConfig{ELambda: eLambda}).Validate(); err != nil {
		panic(err.Error())
	}
	return &SimAM[B]{eLambda: eLambda}
}

// Forward applies the attention gate. Output shape equals input shape.
func (s *SimAM[B]) Forward(x *tensor.Tensor[B]) *tensor.Tensor[B] {
	shape := x.Shape()
	if len(shape) != 4 {
		panic(fmt.Sprintf("simam: expected 4D input [N,C,H,W], got shape %v", shape))
	}
	n := max(shape[2]*shape[3]-1, 1)

	mu := x.MeanDim(2, true).MeanDim(3, true)
	d := x.Sub(mu).Pow(2)
	variance := d.SumDim(2, true).SumDim(3, true).DivScalar(float32(n))
	y := d.Div(variance.AddScalar(s.eLambda).MulScalar(4)).AddScalar(0.5)
	return x.Mul(y.Sigmoid())
}

// Parameters returns nil; SimAM has no trainable parameters.
func (s *SimAM[B]) Parameters() []*Parameter[B] {
	return nil
}

// ELambda returns the regulariser.
func (s *SimAM[B]) ELambda() float32 {
	return s.eLambda
}

// String returns a string representation of the layer.
func (s *SimAM[B]) String() string {
	return fmt.Sprintf("SimAM(e_lambda=%g)", s.eLambda)
}
