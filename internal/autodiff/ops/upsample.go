package ops

import "github.com/rainfishy/GraphDiseaseYOLOv8/internal/tensor"

// UpsampleNearestOp represents nearest-neighbour resizing of [N, C, H, W].
// The gradient of each output pixel is added to its source pixel.
type UpsampleNearestOp struct{ base }

// NewUpsampleNearestOp creates a new UpsampleNearestOp.
func NewUpsampleNearestOp(x, output *tensor.RawTensor) *UpsampleNearestOp {
	return &UpsampleNearestOp{newBase("upsample_nearest", output, x)}
}

// Backward computes the input gradient.
func (op *UpsampleNearestOp) Backward(outputGrad *tensor.RawTensor, backend tensor.Backend) []*tensor.RawTensor {
	shape := op.inputs[0].Shape()
	return []*tensor.RawTensor{backend.UpsampleNearestBackward(outputGrad, shape[2], shape[3])}
}
