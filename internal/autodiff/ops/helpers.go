package ops

import (
	"github.com/rainfishy/GraphDiseaseYOLOv8/internal/tensor"
)

// reduceBroadcast sums a gradient back to the shape of an input that was
// broadcast in the forward pass.
//
// Example:
//
//	Forward: a[3,1] + b[3,4] -> c[3,4]  (a was broadcast along dim 1)
//	Backward: grad_c[3,4] -> grad_a[3,1] (sum along dim 1)
func reduceBroadcast(grad *tensor.RawTensor, target tensor.Shape, backend tensor.Backend) *tensor.RawTensor {
	if grad.Shape().Equal(target) {
		return grad
	}

	out := tensor.MustNewRaw(target, backend.Device())
	src, dst := grad.Data(), out.Data()
	for i, at := range tensor.BroadcastIndex(target, grad.Shape()) {
		dst[at] += src[i]
	}
	return out
}

// mapGrad builds grad[i] * f(i) element-wise. Used by operations whose local
// derivative is cheaper to write as a closure than as a chain of kernels.
func mapGrad(grad *tensor.RawTensor, backend tensor.Backend, f func(i int, g float32) float32) *tensor.RawTensor {
	out := tensor.MustNewRaw(grad.Shape(), backend.Device())
	dst := out.Data()
	for i, g := range grad.Data() {
		dst[i] = f(i, g)
	}
	return out
}

// lanes splits shape around dim into (outer, size, inner).
func lanes(shape tensor.Shape, dim int) (outer, size, inner int) {
	outer, inner = 1, 1
	for _, d := range shape[:dim] {
		outer *= d
	}
	for _, d := range shape[dim+1:] {
		inner *= d
	}
	return outer, shape[dim], inner
}
