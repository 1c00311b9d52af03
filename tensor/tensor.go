// Copyright 2026 GraphDiseaseYOLOv8 Authors. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

// Package tensor provides the public API for float32 tensors.
//
// The package defines the core types shared by every other package:
//   - Tensor[B]: a tensor bound to the backend that computes it
//   - RawTensor: backend-level storage with shape and strides
//   - Backend: the kernels a compute backend implements
//
// Every operation returns a new tensor; inputs are never modified.
//
// Example:
//
//	backend := cpu.New()
//	x := tensor.Randn(tensor.Shape{1, 16, 32, 32}, backend)
//	y := x.Sigmoid().Mul(x)
package tensor

import (
	"github.com/rainfishy/GraphDiseaseYOLOv8/internal/tensor"
)

// Shape represents the dimensions of a tensor.
type Shape = tensor.Shape

// Device identifies where tensor memory lives.
type Device = tensor.Device

// CPU is the host device.
const CPU = tensor.CPU

// RawTensor is the untyped storage behind a Tensor.
type RawTensor = tensor.RawTensor

// Backend is the set of kernels a compute backend implements.
type Backend = tensor.Backend

// Tensor is a tensor bound to backend B.
type Tensor[B Backend] = tensor.Tensor[B]

// New wraps raw storage in a Tensor.
func New[B Backend](raw *RawTensor, b B) *Tensor[B] {
	return tensor.New(raw, b)
}

// NewRaw allocates zeroed raw storage.
func NewRaw(shape Shape, device Device) (*RawTensor, error) {
	return tensor.NewRaw(shape, device)
}

// FromSlice creates a tensor holding a copy of data.
func FromSlice[B Backend](data []float32, shape Shape, b B) (*Tensor[B], error) {
	return tensor.FromSlice(data, shape, b)
}

// Zeros creates a tensor filled with zeros.
func Zeros[B Backend](shape Shape, b B) *Tensor[B] {
	return tensor.Zeros(shape, b)
}

// Ones creates a tensor filled with ones.
func Ones[B Backend](shape Shape, b B) *Tensor[B] {
	return tensor.Ones(shape, b)
}

// Full creates a tensor filled with value.
func Full[B Backend](shape Shape, value float32, b B) *Tensor[B] {
	return tensor.Full(shape, value, b)
}

// Randn creates a tensor of standard normal samples.
func Randn[B Backend](shape Shape, b B) *Tensor[B] {
	return tensor.Randn(shape, b)
}

// Rand creates a tensor of uniform samples in [0, 1).
func Rand[B Backend](shape Shape, b B) *Tensor[B] {
	return tensor.Rand(shape, b)
}

// Concat joins tensors along dim.
func Concat[B Backend](xs []*Tensor[B], dim int) *Tensor[B] {
	return tensor.Concat(xs, dim)
}

// BroadcastShapes returns the NumPy broadcast of a and b and whether either
// operand has to be expanded.
func BroadcastShapes(a, b Shape) (Shape, bool, error) {
	return tensor.BroadcastShapes(a, b)
}
