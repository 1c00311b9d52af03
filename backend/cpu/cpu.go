// Copyright 2026 GraphDiseaseYOLOv8 Authors. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

// Package cpu provides a pure Go CPU backend.
//
// Convolutions use im2col with gonum's float32 GEMM; transcendental
// functions come from chewxy/math32. Every kernel allocates its result.
//
// Example:
//
//	backend := cpu.New()
//	x := tensor.Zeros(tensor.Shape{1, 3, 64, 64}, backend)
package cpu

import (
	internalcpu "github.com/rainfishy/GraphDiseaseYOLOv8/internal/backend/cpu"
	"github.com/rainfishy/GraphDiseaseYOLOv8/tensor"
)

// Backend represents the CPU backend implementation.
type Backend = internalcpu.CPUBackend

// Compile-time check that Backend implements tensor.Backend.
var _ tensor.Backend = (*Backend)(nil)

// New creates a new CPU backend.
func New() *Backend {
	return internalcpu.New()
}
