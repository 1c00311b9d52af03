package nn

import (
	"fmt"

	"github.com/rainfishy/GraphDiseaseYOLOv8/internal/tensor"
)

// Concat joins its inputs along the channel dimension.
type Concat[B tensor.Backend] struct{}

// NewConcat creates a Concat layer.
func NewConcat[B tensor.Backend]() *Concat[B] {
	return &Concat[B]{}
}

// ForwardMulti concatenates [N, C_i, H, W] inputs into [N, sum(C_i), H, W].
func (c *Concat[B]) ForwardMulti(inputs []*tensor.Tensor[B]) *tensor.Tensor[B] {
	if len(inputs) == 0 {
		panic("concat: no inputs")
	}
	for i, x := range inputs {
		if len(x.Shape()) != 4 {
			panic(fmt.Sprintf("concat: input %d is not 4D [N,C,H,W]: %v", i, x.Shape()))
		}
	}
	return tensor.Concat(inputs, 1)
}

// Parameters returns nil; Concat has no trainable parameters.
func (c *Concat[B]) Parameters() []*Parameter[B] {
	return nil
}
