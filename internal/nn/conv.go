package nn

import (
	"fmt"

	"github.com/rainfishy/GraphDiseaseYOLOv8/internal/tensor"
)

// Conv is the detector's standard convolution block: a biased Conv2D with
// "same" padding (kernel/2) followed by SiLU.
//
// Batch normalisation is not modelled; the convolution carries a bias instead.
type Conv[B tensor.Backend] struct {
	conv *Conv2D[B]
}

// NewConv creates a Conv block with a square kernel.
func NewConv[B tensor.Backend](inChannels, outChannels, kernel, stride int, backend B) *Conv[B] {
	if kernel <= 0 {
		panic(fmt.Sprintf("conv: invalid kernel size %d", kernel))
	}
	return &Conv[B]{
		conv: NewConv2D(inChannels, outChannels, kernel, kernel, stride, kernel/2, true, backend),
	}
}

// Forward applies convolution and SiLU.
func (c *Conv[B]) Forward(input *tensor.Tensor[B]) *tensor.Tensor[B] {
	return c.conv.Forward(input).SiLU()
}

// Parameters returns the convolution weight and bias.
func (c *Conv[B]) Parameters() []*Parameter[B] {
	return c.conv.Parameters()
}

// Conv2D returns the underlying convolution.
func (c *Conv[B]) Conv2D() *Conv2D[B] {
	return c.conv
}

// InChannels returns the number of input channels.
func (c *Conv[B]) InChannels() int {
	return c.conv.InChannels()
}

// OutChannels returns the number of output channels.
func (c *Conv[B]) OutChannels() int {
	return c.conv.OutChannels()
}

// String returns a string representation of the block.
func (c *Conv[B]) String() string {
	k := c.conv.KernelSize()
	return fmt.Sprintf("Conv(%d -> %d, k=%d, s=%d, act=SiLU)", c.conv.InChannels(), c.conv.OutChannels(), k[0], c.conv.stride)
}
