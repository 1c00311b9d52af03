package cpu

import (
	"github.com/chewxy/math32"

	"github.com/rainfishy/GraphDiseaseYOLOv8/internal/tensor"
)

// Exp computes e^x element-wise.
func (cpu *CPUBackend) Exp(x *tensor.RawTensor) *tensor.RawTensor {
	return cpu.unary("exp", x, math32.Exp)
}

// Log computes the natural logarithm element-wise. log(0) is -Inf.
func (cpu *CPUBackend) Log(x *tensor.RawTensor) *tensor.RawTensor {
	return cpu.unary("log", x, math32.Log)
}

// Abs computes |x| element-wise.
func (cpu *CPUBackend) Abs(x *tensor.RawTensor) *tensor.RawTensor {
	return cpu.unary("abs", x, math32.Abs)
}

// Pow raises every element to p.
func (cpu *CPUBackend) Pow(x *tensor.RawTensor, p float32) *tensor.RawTensor {
	return cpu.unary("pow", x, func(v float32) float32 { return math32.Pow(v, p) })
}

// Clamp limits every element to [lo, hi].
func (cpu *CPUBackend) Clamp(x *tensor.RawTensor, lo, hi float32) *tensor.RawTensor {
	return cpu.unary("clamp", x, func(v float32) float32 {
		return math32.Min(math32.Max(v, lo), hi)
	})
}

// Sigmoid computes 1 / (1 + e^-x) without overflowing for large |x|.
func (cpu *CPUBackend) Sigmoid(x *tensor.RawTensor) *tensor.RawTensor {
	return cpu.unary("sigmoid", x, Sigmoid)
}

// ReLU computes max(x, 0) into a new tensor.
func (cpu *CPUBackend) ReLU(x *tensor.RawTensor) *tensor.RawTensor {
	return cpu.unary("relu", x, func(v float32) float32 { return math32.Max(v, 0) })
}

// SiLU computes x * sigmoid(x).
func (cpu *CPUBackend) SiLU(x *tensor.RawTensor) *tensor.RawTensor {
	return cpu.unary("silu", x, func(v float32) float32 { return v * Sigmoid(v) })
}

// Softplus computes log(1 + e^x) as max(x, 0) + log1p(e^-|x|).
func (cpu *CPUBackend) Softplus(x *tensor.RawTensor) *tensor.RawTensor {
	return cpu.unary("softplus", x, Softplus)
}

// Sigmoid is the scalar logistic function shared by kernels and gradients.
func Sigmoid(v float32) float32 {
	if v >= 0 {
		return 1 / (1 + math32.Exp(-v))
	}
	e := math32.Exp(v)
	return e / (1 + e)
}

// Softplus is the scalar log(1 + e^v).
func Softplus(v float32) float32 {
	return math32.Max(v, 0) + math32.Log1p(math32.Exp(-math32.Abs(v)))
}
