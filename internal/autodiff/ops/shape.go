package ops

import "github.com/rainfishy/GraphDiseaseYOLOv8/internal/tensor"

// ReshapeOp represents a reshape; the gradient is reshaped back.
type ReshapeOp struct{ base }

// NewReshapeOp creates a new ReshapeOp.
func NewReshapeOp(x, output *tensor.RawTensor) *ReshapeOp {
	return &ReshapeOp{newBase("reshape", output, x)}
}

// Backward computes the input gradient.
func (op *ReshapeOp) Backward(outputGrad *tensor.RawTensor, backend tensor.Backend) []*tensor.RawTensor {
	return []*tensor.RawTensor{backend.Reshape(outputGrad, op.inputs[0].Shape())}
}

// ExpandOp represents a broadcast to a larger shape; the gradient is summed
// over the broadcast dimensions.
type ExpandOp struct{ base }

// NewExpandOp creates a new ExpandOp.
func NewExpandOp(x, output *tensor.RawTensor) *ExpandOp {
	return &ExpandOp{newBase("expand", output, x)}
}

// Backward computes the input gradient.
func (op *ExpandOp) Backward(outputGrad *tensor.RawTensor, backend tensor.Backend) []*tensor.RawTensor {
	return []*tensor.RawTensor{reduceBroadcast(outputGrad, op.inputs[0].Shape(), backend)}
}

// GatherOp represents picking one element per lane along dim.
//
// Backward: each lane's gradient is scattered to the position it was read
// from; every other position gets zero.
type GatherOp struct {
	base
	dim   int
	index []int
}

// NewGatherOp creates a new GatherOp. index is copied.
func NewGatherOp(x, output *tensor.RawTensor, dim int, index []int) *GatherOp {
	return &GatherOp{
		base:  newBase("gather", output, x),
		dim:   dim,
		index: append([]int(nil), index...),
	}
}

// Backward computes the input gradient.
func (op *GatherOp) Backward(outputGrad *tensor.RawTensor, backend tensor.Backend) []*tensor.RawTensor {
	shape := op.inputs[0].Shape()
	out := tensor.MustNewRaw(shape, backend.Device())
	src, dst := outputGrad.Data(), out.Data()

	outer, size, inner := lanes(shape, op.dim)
	for o := 0; o < outer; o++ {
		for i := 0; i < inner; i++ {
			lane := o*inner + i
			dst[(o*size+op.index[lane])*inner+i] += src[lane]
		}
	}
	return []*tensor.RawTensor{out}
}

// ConcatOp represents joining inputs along dim; each input receives its own
// slice of the output gradient.
type ConcatOp struct {
	base
	dim int
}

// NewConcatOp creates a new ConcatOp.
func NewConcatOp(xs []*tensor.RawTensor, output *tensor.RawTensor, dim int) *ConcatOp {
	return &ConcatOp{base: newBase("concat", output, append([]*tensor.RawTensor(nil), xs...)...), dim: dim}
}

// Backward computes the input gradients.
func (op *ConcatOp) Backward(outputGrad *tensor.RawTensor, backend tensor.Backend) []*tensor.RawTensor {
	grads := make([]*tensor.RawTensor, len(op.inputs))
	offset := 0
	for i, x := range op.inputs {
		size := x.Shape()[op.dim]
		grads[i] = backend.Narrow(outputGrad, op.dim, offset, size)
		offset += size
	}
	return grads
}

// NarrowOp represents taking a contiguous range along dim. The gradient is
// zero outside the range.
type NarrowOp struct {
	base
	dim, start int
}

// NewNarrowOp creates a new NarrowOp.
func NewNarrowOp(x, output *tensor.RawTensor, dim, start int) *NarrowOp {
	return &NarrowOp{base: newBase("narrow", output, x), dim: dim, start: start}
}

// Backward computes the input gradient.
func (op *NarrowOp) Backward(outputGrad *tensor.RawTensor, backend tensor.Backend) []*tensor.RawTensor {
	shape := op.inputs[0].Shape()
	out := tensor.MustNewRaw(shape, backend.Device())
	length := outputGrad.Shape()[op.dim]

	outer, size, inner := lanes(shape, op.dim)
	src, dst := outputGrad.Data(), out.Data()
	for o := 0; o < outer; o++ {
		copy(dst[(o*size+op.start)*inner:][:length*inner], src[o*length*inner:][:length*inner])
	}
	return []*tensor.RawTensor{out}
}
