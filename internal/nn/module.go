// Package nn implements the detector's neural network building blocks.
//
// This package provides:
//   - Module and MultiInputModule: base interfaces for layers
//   - Parameter: trainable tensors owned by a layer
//   - Conv2D, Conv, Upsample: the standard convolution and resize blocks
//   - MaxPool2D, SPPF, Concat: pooling and channel concatenation
//   - SimAM: parameter-free spatial attention
//   - WeightedFusion and BiFPN: learnable weighted feature fusion
//   - QualityFocalLoss and DistributionFocalLoss: detection losses
//
// Layers never mutate their own parameters and never write into their inputs,
// so a parameter reused across several forward calls in one recorded graph
// accumulates its gradients correctly. Parameter values change only through
// an optimizer between forward calls.
package nn

import (
	"github.com/rainfishy/GraphDiseaseYOLOv8/internal/tensor"
)

// Module is the base interface for single-input layers.
//
// Every module must implement:
//   - Forward: compute output from input
//   - Parameters: return all trainable parameters
//
// Type parameter B must satisfy the tensor.Backend interface.
type Module[B tensor.Backend] interface {
	// Forward computes the output of the module given an input tensor.
	Forward(input *tensor.Tensor[B]) *tensor.Tensor[B]

	// Parameters returns all trainable parameters of this module.
	// Returns an empty slice for modules without trainable parameters.
	Parameters() []*Parameter[B]
}

// MultiInputModule is implemented by layers that combine several tensors,
// such as WeightedFusion and BiFPN.
type MultiInputModule[B tensor.Backend] interface {
	// ForwardMulti computes the output from an ordered list of inputs.
	// It panics if the number of inputs does not match the layer.
	ForwardMulti(inputs []*tensor.Tensor[B]) *tensor.Tensor[B]

	// Parameters returns all trainable parameters of this module.
	Parameters() []*Parameter[B]
}

// CollectParameters concatenates the parameters of several modules.
func CollectParameters[B tensor.Backend](modules ...interface{ Parameters() []*Parameter[B] }) []*Parameter[B] {
	var params []*Parameter[B]
	for _, m := range modules {
		params = append(params, m.Parameters()...)
	}
	return params
}

// CountParameters returns the total number of scalar values in params.
func CountParameters[B tensor.Backend](params []*Parameter[B]) int {
	n := 0
	for _, p := range params {
		n += p.Tensor().NumElements()
	}
	return n
}
