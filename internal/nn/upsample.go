package nn

import (
	"fmt"

	"github.com/rainfishy/GraphDiseaseYOLOv8/internal/tensor"
)

// Upsample scales the spatial dimensions of [N, C, H, W] by an integer
// factor with nearest-neighbour sampling.
type Upsample[B tensor.Backend] struct {
	scale int
}

// NewUpsample creates an Upsample layer. It panics if scale < 1.
func NewUpsample[B tensor.Backend](scale int) *Upsample[B] {
	if scale < 1 {
		panic(fmt.Sprintf("upsample: invalid scale factor %d", scale))
	}
	return &Upsample[B]{scale: scale}
}

// Forward resizes input to [N, C, H*scale, W*scale].
func (u *Upsample[B]) Forward(input *tensor.Tensor[B]) *tensor.Tensor[B] {
	shape := input.Shape()
	if len(shape) != 4 {
		panic(fmt.Sprintf("upsample: expected 4D input [N,C,H,W], got %dD", len(shape)))
	}
	if u.scale == 1 {
		return input
	}
	return input.UpsampleNearest(shape[2]*u.scale, shape[3]*u.scale)
}

// Parameters returns nil; Upsample has no trainable parameters.
func (u *Upsample[B]) Parameters() []*Parameter[B] {
	return nil
}

// Scale returns the scale factor.
func (u *Upsample[B]) Scale() int {
	return u.scale
}
