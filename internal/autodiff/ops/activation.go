package ops

import (
	"github.com/rainfishy/GraphDiseaseYOLOv8/internal/backend/cpu"
	"github.com/rainfishy/GraphDiseaseYOLOv8/internal/tensor"
)

// SigmoidOp represents output = σ(x), so grad_x = outputGrad * σ(x) * (1 - σ(x)).
type SigmoidOp struct{ base }

// NewSigmoidOp creates a new SigmoidOp.
func NewSigmoidOp(x, output *tensor.RawTensor) *SigmoidOp {
	return &SigmoidOp{newBase("sigmoid", output, x)}
}

// Backward computes the input gradient.
func (op *SigmoidOp) Backward(outputGrad *tensor.RawTensor, backend tensor.Backend) []*tensor.RawTensor {
	y := op.output.Data()
	return []*tensor.RawTensor{mapGrad(outputGrad, backend, func(i int, g float32) float32 {
		return g * y[i] * (1 - y[i])
	})}
}

// ReLUOp represents output = max(x, 0). grad_x = outputGrad where x > 0.
type ReLUOp struct{ base }

// NewReLUOp creates a new ReLUOp.
func NewReLUOp(x, output *tensor.RawTensor) *ReLUOp {
	return &ReLUOp{newBase("relu", output, x)}
}

// Backward computes the input gradient.
func (op *ReLUOp) Backward(outputGrad *tensor.RawTensor, backend tensor.Backend) []*tensor.RawTensor {
	x := op.inputs[0].Data()
	return []*tensor.RawTensor{mapGrad(outputGrad, backend, func(i int, g float32) float32 {
		if x[i] > 0 {
			return g
		}
		return 0
	})}
}

// SiLUOp represents output = x * σ(x).
//
// Backward: d/dx = σ(x) + x * σ(x) * (1 - σ(x)).
type SiLUOp struct{ base }

// NewSiLUOp creates a new SiLUOp.
func NewSiLUOp(x, output *tensor.RawTensor) *SiLUOp {
	return &SiLUOp{newBase("silu", output, x)}
}

// Backward computes the input gradient.
func (op *SiLUOp) Backward(outputGrad *tensor.RawTensor, backend tensor.Backend) []*tensor.RawTensor {
	x := op.inputs[0].Data()
	return []*tensor.RawTensor{mapGrad(outputGrad, backend, func(i int, g float32) float32 {
		s := cpu.Sigmoid(x[i])
		return g * (s + x[i]*s*(1-s))
	})}
}

// SoftplusOp represents output = log(1 + e^x), so grad_x = outputGrad * σ(x).
type SoftplusOp struct{ base }

// NewSoftplusOp creates a new SoftplusOp.
func NewSoftplusOp(x, output *tensor.RawTensor) *SoftplusOp {
	return &SoftplusOp{newBase("softplus", output, x)}
}

// Backward computes the input gradient.
func (op *SoftplusOp) Backward(outputGrad *tensor.RawTensor, backend tensor.Backend) []*tensor.RawTensor {
	x := op.inputs[0].Data()
	return []*tensor.RawTensor{mapGrad(outputGrad, backend, func(i int, g float32) float32 {
		return g * cpu.Sigmoid(x[i])
	})}
}

// SoftmaxOp represents y = softmax(x) along dim.
//
// Backward: grad_x = y * (outputGrad - sum(outputGrad * y, dim)).
type SoftmaxOp struct {
	base
	dim int
}

// NewSoftmaxOp creates a new SoftmaxOp.
func NewSoftmaxOp(x, output *tensor.RawTensor, dim int) *SoftmaxOp {
	return &SoftmaxOp{base: newBase("softmax", output, x), dim: dim}
}

// Backward computes the input gradient.
func (op *SoftmaxOp) Backward(outputGrad *tensor.RawTensor, backend tensor.Backend) []*tensor.RawTensor {
	y := op.output
	dot := backend.SumDim(backend.Mul(outputGrad, y), op.dim, true)
	return []*tensor.RawTensor{backend.Mul(y, backend.Sub(outputGrad, dot))}
}
