package ops

import "github.com/rainfishy/GraphDiseaseYOLOv8/internal/tensor"

// Conv2DOp represents a 2D convolution: output = Conv2D(input, kernel).
//
// Backward:
//   - grad_input = transposed convolution of outputGrad with the kernel
//   - grad_kernel = correlation of the input with outputGrad
type Conv2DOp struct {
	base
	stride  int
	padding int
}

// NewConv2DOp creates a new Conv2DOp.
func NewConv2DOp(input, kernel, output *tensor.RawTensor, stride, padding int) *Conv2DOp {
	return &Conv2DOp{base: newBase("conv2d", output, input, kernel), stride: stride, padding: padding}
}

// Backward computes gradients for the input and the kernel.
func (op *Conv2DOp) Backward(outputGrad *tensor.RawTensor, backend tensor.Backend) []*tensor.RawTensor {
	input, kernel := op.inputs[0], op.inputs[1]
	return []*tensor.RawTensor{
		backend.Conv2DInputBackward(input, kernel, outputGrad, op.stride, op.padding),
		backend.Conv2DKernelBackward(input, kernel, outputGrad, op.stride, op.padding),
	}
}
