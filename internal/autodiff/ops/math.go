package ops

import (
	"github.com/chewxy/math32"

	"github.com/rainfishy/GraphDiseaseYOLOv8/internal/tensor"
)

// ExpOp represents output = e^x, so grad_x = outputGrad * output.
type ExpOp struct{ base }

// NewExpOp creates a new ExpOp.
func NewExpOp(x, output *tensor.RawTensor) *ExpOp {
	return &ExpOp{newBase("exp", output, x)}
}

// Backward computes the input gradient.
func (op *ExpOp) Backward(outputGrad *tensor.RawTensor, backend tensor.Backend) []*tensor.RawTensor {
	return []*tensor.RawTensor{backend.Mul(outputGrad, op.output)}
}

// LogOp represents output = ln(x), so grad_x = outputGrad / x.
type LogOp struct{ base }

// NewLogOp creates a new LogOp.
func NewLogOp(x, output *tensor.RawTensor) *LogOp {
	return &LogOp{newBase("log", output, x)}
}

// Backward computes the input gradient.
func (op *LogOp) Backward(outputGrad *tensor.RawTensor, backend tensor.Backend) []*tensor.RawTensor {
	return []*tensor.RawTensor{backend.Div(outputGrad, op.inputs[0])}
}

// AbsOp represents output = |x|. The subgradient at 0 is 0.
type AbsOp struct{ base }

// NewAbsOp creates a new AbsOp.
func NewAbsOp(x, output *tensor.RawTensor) *AbsOp {
	return &AbsOp{newBase("abs", output, x)}
}

// Backward computes the input gradient.
func (op *AbsOp) Backward(outputGrad *tensor.RawTensor, backend tensor.Backend) []*tensor.RawTensor {
	x := op.inputs[0].Data()
	return []*tensor.RawTensor{mapGrad(outputGrad, backend, func(i int, g float32) float32 {
		switch {
		case x[i] > 0:
			return g
		case x[i] < 0:
			return -g
		default:
			return 0
		}
	})}
}

// PowOp represents output = x^p, so grad_x = outputGrad * p * x^(p-1).
type PowOp struct {
	base
	exponent float32
}

// NewPowOp creates a new PowOp.
func NewPowOp(x, output *tensor.RawTensor, exponent float32) *PowOp {
	return &PowOp{base: newBase("pow", output, x), exponent: exponent}
}

// Backward computes the input gradient.
func (op *PowOp) Backward(outputGrad *tensor.RawTensor, backend tensor.Backend) []*tensor.RawTensor {
	x, p := op.inputs[0].Data(), op.exponent
	return []*tensor.RawTensor{mapGrad(outputGrad, backend, func(i int, g float32) float32 {
		if p == 0 {
			return 0
		}
		return g * p * math32.Pow(x[i], p-1)
	})}
}

// ClampOp represents output = min(max(x, lo), hi). The gradient flows only
// where x lies inside [lo, hi].
type ClampOp struct {
	base
	lo, hi float32
}

// NewClampOp creates a new ClampOp.
func NewClampOp(x, output *tensor.RawTensor, lo, hi float32) *ClampOp {
	return &ClampOp{base: newBase("clamp", output, x), lo: lo, hi: hi}
}

// Backward computes the input gradient.
func (op *ClampOp) Backward(outputGrad *tensor.RawTensor, backend tensor.Backend) []*tensor.RawTensor {
	x := op.inputs[0].Data()
	return []*tensor.RawTensor{mapGrad(outputGrad, backend, func(i int, g float32) float32 {
		if x[i] < op.lo || x[i] > op.hi {
			return 0
		}
		return g
	})}
}
