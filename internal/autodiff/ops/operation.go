// Package ops defines the differentiable operations recorded on a gradient tape.
//
// Each operation keeps the RawTensors it read and produced during the forward
// pass and, given dL/doutput, returns dL/dinput for every input in order.
// A nil entry means no gradient flows to that input.
package ops

import "github.com/rainfishy/GraphDiseaseYOLOv8/internal/tensor"

// Operation represents a differentiable operation in the computation graph.
type Operation interface {
	// Backward computes gradients for inputs given the output gradient.
	//
	// Example for AddOp:
	//   inputs: [a, b]
	//   outputGrad: dL/d(a+b)
	//   returns: [dL/d(a+b), dL/d(a+b)], each summed back to its input shape
	Backward(outputGrad *tensor.RawTensor, backend tensor.Backend) []*tensor.RawTensor

	// Inputs returns the input tensors for this operation.
	Inputs() []*tensor.RawTensor

	// Output returns the output tensor produced by this operation.
	Output() *tensor.RawTensor

	// Name identifies the operation in logs and tests.
	Name() string
}

// base carries the bookkeeping shared by every operation.
type base struct {
	name   string
	inputs []*tensor.RawTensor
	output *tensor.RawTensor
}

func newBase(name string, output *tensor.RawTensor, inputs ...*tensor.RawTensor) base {
	return base{name: name, inputs: inputs, output: output}
}

// Inputs returns the input tensors.
func (o *base) Inputs() []*tensor.RawTensor { return o.inputs }

// Output returns the output tensor.
func (o *base) Output() *tensor.RawTensor { return o.output }

// Name returns the operation name.
func (o *base) Name() string { return o.name }
