package ops

import "github.com/rainfishy/GraphDiseaseYOLOv8/internal/tensor"

// MaxPool2DOp represents max pooling over [N, C, H, W].
//
// Backward: only the maximum of each window receives the gradient.
type MaxPool2DOp struct {
	base
	kernel, stride, padding int
}

// NewMaxPool2DOp creates a new MaxPool2DOp.
func NewMaxPool2DOp(x, output *tensor.RawTensor, kernel, stride, padding int) *MaxPool2DOp {
	return &MaxPool2DOp{
		base:    newBase("maxpool2d", output, x),
		kernel:  kernel,
		stride:  stride,
		padding: padding,
	}
}

// Backward computes the input gradient.
func (op *MaxPool2DOp) Backward(outputGrad *tensor.RawTensor, backend tensor.Backend) []*tensor.RawTensor {
	return []*tensor.RawTensor{backend.MaxPool2DBackward(op.inputs[0], outputGrad, op.kernel, op.stride, op.padding)}
}
