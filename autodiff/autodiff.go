// Copyright 2026 GraphDiseaseYOLOv8 Authors. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

// Package autodiff provides reverse-mode automatic differentiation.
//
// It wraps any backend so that tensor operations are recorded on a gradient
// tape while recording is on.
//
// Example:
//
//	backend := autodiff.New(cpu.New())
//	backend.Tape().StartRecording()
//	loss := qfl.Forward(layer.Forward(x1, x2), target)
//	grads := autodiff.Backward(loss, backend)
//	backend.Tape().StopRecording()
//
//	g := grads[layer.Fusion().Parameters()[0].Tensor().Raw()]
package autodiff

import (
	"github.com/rainfishy/GraphDiseaseYOLOv8/internal/autodiff"
	"github.com/rainfishy/GraphDiseaseYOLOv8/internal/tensor"
)

// Backend is the autodiff-enabled backend.
type Backend[B tensor.Backend] = autodiff.AutodiffBackend[B]

// New creates a new autodiff backend wrapping the given backend.
func New[B tensor.Backend](backend B) *Backend[B] {
	return autodiff.New(backend)
}

// GradientTape records operations for automatic differentiation.
type GradientTape = autodiff.GradientTape

// NewGradientTape creates a new gradient tape.
func NewGradientTape() *GradientTape {
	return autodiff.NewGradientTape()
}

// BackwardCapable is implemented by backends that support backpropagation.
type BackwardCapable = autodiff.BackwardCapable

// Backward computes the gradient of t with respect to every tensor recorded
// on the tape, keyed by raw storage.
func Backward[B BackwardCapable](t *tensor.Tensor[B], backend B) map[*tensor.RawTensor]*tensor.RawTensor {
	return autodiff.Backward(t, backend)
}
