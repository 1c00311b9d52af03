package tensor

import "fmt"

// Element-wise binary operations. Shapes broadcast with NumPy rules.

// Add returns t + other.
func (t *Tensor[B]) Add(other *Tensor[B]) *Tensor[B] {
	return New(t.backend.Add(t.raw, other.raw), t.backend)
}

// Sub returns t - other.
func (t *Tensor[B]) Sub(other *Tensor[B]) *Tensor[B] {
	return New(t.backend.Sub(t.raw, other.raw), t.backend)
}

// Mul returns t * other.
func (t *Tensor[B]) Mul(other *Tensor[B]) *Tensor[B] {
	return New(t.backend.Mul(t.raw, other.raw), t.backend)
}

// Div returns t / other.
func (t *Tensor[B]) Div(other *Tensor[B]) *Tensor[B] {
	return New(t.backend.Div(t.raw, other.raw), t.backend)
}

// Scalar operations.

// AddScalar returns t + s.
func (t *Tensor[B]) AddScalar(s float32) *Tensor[B] {
	return New(t.backend.AddScalar(t.raw, s), t.backend)
}

// SubScalar returns t - s.
func (t *Tensor[B]) SubScalar(s float32) *Tensor[B] {
	return t.AddScalar(-s)
}

// MulScalar returns t * s.
func (t *Tensor[B]) MulScalar(s float32) *Tensor[B] {
	return New(t.backend.MulScalar(t.raw, s), t.backend)
}

// DivScalar returns t / s.
func (t *Tensor[B]) DivScalar(s float32) *Tensor[B] {
	if s == 0 {
		panic("tensor: DivScalar by zero")
	}
	return t.MulScalar(1 / s)
}

// Neg returns -t.
func (t *Tensor[B]) Neg() *Tensor[B] {
	return t.MulScalar(-1)
}

// Element-wise math.

// Exp returns e^t.
func (t *Tensor[B]) Exp() *Tensor[B] {
	return New(t.backend.Exp(t.raw), t.backend)
}

// Log returns the natural logarithm of t.
func (t *Tensor[B]) Log() *Tensor[B] {
	return New(t.backend.Log(t.raw), t.backend)
}

// Abs returns |t|.
func (t *Tensor[B]) Abs() *Tensor[B] {
	return New(t.backend.Abs(t.raw), t.backend)
}

// Pow returns t^p.
func (t *Tensor[B]) Pow(p float32) *Tensor[B] {
	return New(t.backend.Pow(t.raw, p), t.backend)
}

// Clamp limits every element to [lo, hi].
func (t *Tensor[B]) Clamp(lo, hi float32) *Tensor[B] {
	if lo > hi {
		panic(fmt.Sprintf("tensor: Clamp with lo %g > hi %g", lo, hi))
	}
	return New(t.backend.Clamp(t.raw, lo, hi), t.backend)
}

// Activations.

// Sigmoid returns 1 / (1 + e^-t).
func (t *Tensor[B]) Sigmoid() *Tensor[B] {
	return New(t.backend.Sigmoid(t.raw), t.backend)
}

// ReLU returns max(t, 0) as a new tensor.
func (t *Tensor[B]) ReLU() *Tensor[B] {
	return New(t.backend.ReLU(t.raw), t.backend)
}

// SiLU returns t * sigmoid(t).
func (t *Tensor[B]) SiLU() *Tensor[B] {
	return New(t.backend.SiLU(t.raw), t.backend)
}

// Softplus returns log(1 + e^t), computed without overflow.
func (t *Tensor[B]) Softplus() *Tensor[B] {
	return New(t.backend.Softplus(t.raw), t.backend)
}

// LogSigmoid returns log(sigmoid(t)) = -softplus(-t).
func (t *Tensor[B]) LogSigmoid() *Tensor[B] {
	return t.Neg().Softplus().Neg()
}

// Softmax normalises along dim. Negative dims count from the end.
func (t *Tensor[B]) Softmax(dim int) *Tensor[B] {
	return New(t.backend.Softmax(t.raw, t.normDim(dim)), t.backend)
}

// Reductions.

// Sum returns the sum of all elements as a scalar tensor.
func (t *Tensor[B]) Sum() *Tensor[B] {
	return New(t.backend.Sum(t.raw), t.backend)
}

// Mean returns the mean of all elements as a scalar tensor.
func (t *Tensor[B]) Mean() *Tensor[B] {
	return t.Sum().DivScalar(float32(t.NumElements()))
}

// SumDim sums along dim.
func (t *Tensor[B]) SumDim(dim int, keepDim bool) *Tensor[B] {
	return New(t.backend.SumDim(t.raw, t.normDim(dim), keepDim), t.backend)
}

// MeanDim averages along dim.
func (t *Tensor[B]) MeanDim(dim int, keepDim bool) *Tensor[B] {
	d := t.normDim(dim)
	return t.SumDim(d, keepDim).DivScalar(float32(t.Shape()[d]))
}

// Shape and indexing.

// Reshape returns a tensor with the same data and a new shape.
func (t *Tensor[B]) Reshape(dims ...int) *Tensor[B] {
	return New(t.backend.Reshape(t.raw, Shape(dims)), t.backend)
}

// Expand broadcasts t to shape.
func (t *Tensor[B]) Expand(shape Shape) *Tensor[B] {
	return New(t.backend.Expand(t.raw, shape), t.backend)
}

// Gather picks one element per lane along dim. index holds one position per
// lane in row-major order over the remaining dimensions; the result has size
// 1 along dim.
//
//	pred [N, K], dim 1, index len N -> [N, 1] with out[i,0] = pred[i, index[i]]
func (t *Tensor[B]) Gather(dim int, index []int) *Tensor[B] {
	return New(t.backend.Gather(t.raw, t.normDim(dim), index), t.backend)
}

// Narrow returns length entries along dim starting at start.
func (t *Tensor[B]) Narrow(dim, start, length int) *Tensor[B] {
	return New(t.backend.Narrow(t.raw, t.normDim(dim), start, length), t.backend)
}

// Concat joins tensors along dim. They must share a backend and every other
// dimension.
func Concat[B Backend](xs []*Tensor[B], dim int) *Tensor[B] {
	if len(xs) == 0 {
		panic("tensor: Concat needs at least one input")
	}
	raws := make([]*RawTensor, len(xs))
	for i, x := range xs {
		raws[i] = x.raw
	}
	b := xs[0].backend
	return New(b.Concat(raws, xs[0].normDim(dim)), b)
}

// Spatial operations.

// Conv2D convolves a [N, C, H, W] tensor with kernel [O, C, KH, KW].
func (t *Tensor[B]) Conv2D(kernel *Tensor[B], stride, padding int) *Tensor[B] {
	return New(t.backend.Conv2D(t.raw, kernel.raw, stride, padding), t.backend)
}

// UpsampleNearest resizes the two trailing dimensions of a [N, C, H, W] tensor.
func (t *Tensor[B]) UpsampleNearest(outH, outW int) *Tensor[B] {
	return New(t.backend.UpsampleNearest(t.raw, outH, outW), t.backend)
}

// MaxPool2D takes the maximum over square windows of a [N, C, H, W] tensor.
func (t *Tensor[B]) MaxPool2D(kernel, stride, padding int) *Tensor[B] {
	return New(t.backend.MaxPool2D(t.raw, kernel, stride, padding), t.backend)
}

func (t *Tensor[B]) normDim(dim int) int {
	rank := len(t.Shape())
	if dim < 0 {
		dim += rank
	}
	if dim < 0 || dim >= rank {
		panic(fmt.Sprintf("tensor: dimension %d out of range for shape %v", dim, t.Shape()))
	}
	return dim
}
