package autodiff

import (
	"github.com/rainfishy/GraphDiseaseYOLOv8/internal/tensor"
)

// BackwardCapable is an interface for backends that support backward pass.
// AutodiffBackend implements this interface.
type BackwardCapable interface {
	tensor.Backend
	// GetTape returns the gradient tape for backward computation.
	GetTape() *GradientTape
	// Unwrap returns the backend that computes gradients without recording.
	Unwrap() tensor.Backend
}

// GetTape returns the gradient tape (implements BackwardCapable interface).
func (b *AutodiffBackend[B]) GetTape() *GradientTape {
	return b.tape
}

// Unwrap returns the wrapped backend as a tensor.Backend.
func (b *AutodiffBackend[B]) Unwrap() tensor.Backend {
	return b.inner
}

// Backward computes gradients of t, seeding dL/dt with ones.
//
// Returns a map from RawTensor to its gradient; look up a parameter's gradient
// with gradients[param.Raw()].
//
// Example:
//
//	backend := autodiff.New(cpu.New())
//	backend.Tape().StartRecording()
//	x := tensor.Ones(tensor.Shape{2}, backend)
//	y := x.Mul(x).Sum()
//	gradients := autodiff.Backward(y, backend)
//	grad := gradients[x.Raw()] // 2x
func Backward[B BackwardCapable](t *tensor.Tensor[B], backend B) map[*tensor.RawTensor]*tensor.RawTensor {
	tape := backend.GetTape()
	if tape.NumOps() == 0 {
		panic("backward: no operations recorded (did you forget to call Tape().StartRecording()?)")
	}

	seed := tensor.MustNewRaw(t.Shape(), backend.Device())
	seed.Fill(1)
	return tape.Backward(t.Raw(), seed, backend.Unwrap())
}
