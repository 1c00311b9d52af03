// Package optim implements the optimisers that update plug-in parameters
// between forward passes.
//
// Optimisers write new values straight into parameter storage. They never
// go through a backend kernel, so an update is not recorded on the gradient
// tape and cannot leak into the next backward pass.
//
// Example usage:
//
//	optimizer := optim.NewSGD(model.Parameters(), optim.SGDConfig{LR: 0.01})
//
//	backend.Tape().StartRecording()
//	loss := qfl.Forward(model.Forward(x)[0], targets)
//	grads := autodiff.Backward(loss, backend)
//	backend.Tape().StopRecording()
//	backend.Tape().Clear()
//
//	optimizer.Step(grads)
//	optimizer.ZeroGrad()
package optim

import (
	"github.com/rainfishy/GraphDiseaseYOLOv8/internal/nn"
	"github.com/rainfishy/GraphDiseaseYOLOv8/internal/tensor"
)

// Optimizer is the base interface for all optimization algorithms.
type Optimizer interface {
	// Step applies gradient updates to all parameters.
	//
	// grads is the map returned by autodiff.Backward. Parameters absent from
	// the map did not take part in the forward pass and are left unchanged.
	Step(grads map[*tensor.RawTensor]*tensor.RawTensor)

	// ZeroGrad clears all parameter gradients.
	ZeroGrad()

	// GetLR returns the current learning rate.
	GetLR() float32
}

// getGradient retrieves the gradient of param, or nil if it has none.
func getGradient[B tensor.Backend](param *nn.Parameter[B], grads map[*tensor.RawTensor]*tensor.RawTensor) []float32 {
	if param == nil {
		return nil
	}
	grad, ok := grads[param.Tensor().Raw()]
	if !ok || grad == nil {
		return nil
	}
	return grad.Data()
}
