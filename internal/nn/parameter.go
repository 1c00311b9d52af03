package nn

import (
	"github.com/rainfishy/GraphDiseaseYOLOv8/internal/tensor"
)

// Parameter represents a trainable parameter in a neural network.
//
// Parameters are leaf tensors that require gradients. Their RawTensor
// pointer is stable for the life of the layer, which is how gradients are
// looked up after a backward pass:
//
//	grads := autodiff.Backward(loss, backend)
//	g := grads[param.Tensor().Raw()]
type Parameter[B tensor.Backend] struct {
	name   string
	tensor *tensor.Tensor[B]
	grad   *tensor.Tensor[B]
}

// NewParameter creates a new trainable parameter.
func NewParameter[B tensor.Backend](name string, t *tensor.Tensor[B]) *Parameter[B] {
	return &Parameter[B]{
		name:   name,
		tensor: t,
	}
}

// Name returns the parameter name.
func (p *Parameter[B]) Name() string {
	return p.name
}

// Tensor returns the parameter tensor.
func (p *Parameter[B]) Tensor() *tensor.Tensor[B] {
	return p.tensor
}

// Grad returns the gradient tensor, or nil before a backward pass.
func (p *Parameter[B]) Grad() *tensor.Tensor[B] {
	return p.grad
}

// SetGrad sets the gradient tensor.
func (p *Parameter[B]) SetGrad(grad *tensor.Tensor[B]) {
	p.grad = grad
}

// ZeroGrad clears the gradient tensor.
func (p *Parameter[B]) ZeroGrad() {
	p.grad = nil
}

// prefix renames params in place as "<prefix>.<name>". Layers call it once
// at construction so that the names of nested parameters stay unique.
func prefix[B tensor.Backend](name string, params []*Parameter[B]) {
	for _, p := range params {
		p.name = name + "." + p.name
	}
}
