// Package tensor provides the core tensor types used by the detector plug-ins.
//
// A Tensor pairs a RawTensor (float32 storage) with the Backend that computes
// on it. All operations are routed through the backend, so wrapping a backend
// with autodiff.New records every operation on a gradient tape without any
// change to the calling code.
package tensor

import (
	"fmt"
	"math/rand"
)

// Tensor is a float32 tensor bound to backend B.
//
// Example:
//
//	backend := cpu.New()
//	x := tensor.Ones(tensor.Shape{1, 16, 8, 8}, backend)
//	y := x.MulScalar(2).Sigmoid()
type Tensor[B Backend] struct {
	raw     *RawTensor
	backend B
	grad    *Tensor[B]
}

// New wraps a RawTensor.
func New[B Backend](raw *RawTensor, b B) *Tensor[B] {
	return &Tensor[B]{raw: raw, backend: b}
}

// FromSlice copies data into a new tensor of the given shape.
func FromSlice[B Backend](data []float32, shape Shape, b B) (*Tensor[B], error) {
	if shape.NumElements() != len(data) {
		return nil, fmt.Errorf("shape %v requires %d elements, got %d", shape, shape.NumElements(), len(data))
	}
	raw, err := NewRaw(shape, b.Device())
	if err != nil {
		return nil, err
	}
	copy(raw.Data(), data)
	return New(raw, b), nil
}

// Zeros creates a zero-filled tensor.
func Zeros[B Backend](shape Shape, b B) *Tensor[B] {
	return New(MustNewRaw(shape, b.Device()), b)
}

// Ones creates a tensor filled with ones.
func Ones[B Backend](shape Shape, b B) *Tensor[B] {
	return Full(shape, 1, b)
}

// Full creates a tensor filled with value.
func Full[B Backend](shape Shape, value float32, b B) *Tensor[B] {
	raw := MustNewRaw(shape, b.Device())
	raw.Fill(value)
	return New(raw, b)
}

// Randn samples from the standard normal distribution.
func Randn[B Backend](shape Shape, b B) *Tensor[B] {
	raw := MustNewRaw(shape, b.Device())
	data := raw.Data()
	for i := range data {
		//nolint:gosec // weights and test inputs, not security sensitive
		data[i] = float32(rand.NormFloat64())
	}
	return New(raw, b)
}

// Rand samples uniformly from [0, 1).
func Rand[B Backend](shape Shape, b B) *Tensor[B] {
	raw := MustNewRaw(shape, b.Device())
	data := raw.Data()
	for i := range data {
		//nolint:gosec // weights and test inputs, not security sensitive
		data[i] = rand.Float32()
	}
	return New(raw, b)
}

// Shape returns the tensor's shape.
func (t *Tensor[B]) Shape() Shape {
	return t.raw.Shape()
}

// NumElements returns the total number of elements.
func (t *Tensor[B]) NumElements() int {
	return t.raw.NumElements()
}

// Raw returns the underlying RawTensor.
func (t *Tensor[B]) Raw() *RawTensor {
	return t.raw
}

// Backend returns the computation backend.
func (t *Tensor[B]) Backend() B {
	return t.backend
}

// Grad returns the gradient attached by SetGrad, if any.
func (t *Tensor[B]) Grad() *Tensor[B] {
	return t.grad
}

// SetGrad attaches a gradient tensor.
func (t *Tensor[B]) SetGrad(grad *Tensor[B]) {
	t.grad = grad
}

// Data returns the backing slice (zero-copy).
func (t *Tensor[B]) Data() []float32 {
	return t.raw.Data()
}

// Item returns the only element of a single-element tensor.
func (t *Tensor[B]) Item() float32 {
	if t.NumElements() != 1 {
		panic(fmt.Sprintf("tensor: Item needs a single element, got shape %v", t.Shape()))
	}
	return t.raw.Data()[0]
}

// At returns the element at the given indices.
func (t *Tensor[B]) At(indices ...int) float32 {
	shape := t.Shape()
	if len(indices) != len(shape) {
		panic(fmt.Sprintf("tensor: expected %d indices, got %d", len(shape), len(indices)))
	}
	offset := 0
	for i, idx := range indices {
		if idx < 0 || idx >= shape[i] {
			panic(fmt.Sprintf("tensor: index %d out of range for dimension %d (size %d)", idx, i, shape[i]))
		}
		offset += idx * t.raw.Strides()[i]
	}
	return t.raw.Data()[offset]
}

// Detach returns a copy unknown to any recorded graph:
// operations on it start from a fresh leaf.
func (t *Tensor[B]) Detach() *Tensor[B] {
	return New(t.raw.Clone(), t.backend)
}

// Clone returns a deep copy without gradient.
func (t *Tensor[B]) Clone() *Tensor[B] {
	return New(t.raw.Clone(), t.backend)
}

// String returns a short description.
func (t *Tensor[B]) String() string {
	return fmt.Sprintf("Tensor%v on %s", t.Shape(), t.raw.Device())
}
