// Copyright 2026 GraphDiseaseYOLOv8 Authors. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

package nn_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rainfishy/GraphDiseaseYOLOv8/autodiff"
	"github.com/rainfishy/GraphDiseaseYOLOv8/backend/cpu"
	"github.com/rainfishy/GraphDiseaseYOLOv8/nn"
	"github.com/rainfishy/GraphDiseaseYOLOv8/tensor"
)

// TestModuleInterface verifies that the single-input layers implement Module.
func TestModuleInterface(t *testing.T) {
	backend := cpu.New()

	tests := []struct {
		name   string
		module nn.Module[*cpu.Backend]
		out    tensor.Shape
	}{
		{"Conv", nn.NewConv(4, 8, 3, 1, backend), tensor.Shape{2, 8, 6, 6}},
		{"SimAM", nn.NewSimAM[*cpu.Backend](1e-4), tensor.Shape{2, 4, 6, 6}},
		{"Upsample", nn.NewUpsample[*cpu.Backend](2), tensor.Shape{2, 4, 12, 12}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out := tt.module.Forward(tensor.Randn(tensor.Shape{2, 4, 6, 6}, backend))
			assert.Equal(t, tt.out, out.Shape())
		})
	}
}

// TestMultiInputInterface verifies that the fusion layers implement
// MultiInputModule.
func TestMultiInputInterface(t *testing.T) {
	backend := cpu.New()
	x1 := tensor.Randn(tensor.Shape{1, 4, 8, 8}, backend)
	x2 := tensor.Randn(tensor.Shape{1, 4, 4, 4}, backend)

	var module nn.MultiInputModule[*cpu.Backend] = nn.NewBiFPN(4, 6, 0, backend)
	assert.Equal(t, tensor.Shape{1, 6, 8, 8}, module.ForwardMulti([]*tensor.Tensor[*cpu.Backend]{x1, x2}).Shape())

	module = nn.NewWeightedFusion(2, 1e-4, backend)
	assert.Equal(t, tensor.Shape{1, 4, 8, 8}, module.ForwardMulti([]*tensor.Tensor[*cpu.Backend]{x1, x1}).Shape())
}

func TestLosses(t *testing.T) {
	type B = *autodiff.Backend[*cpu.Backend]
	backend := autodiff.New(cpu.New())

	pred, err := tensor.FromSlice([]float32{0, 0}, tensor.Shape{2}, backend)
	require.NoError(t, err)
	target, err := tensor.FromSlice([]float32{1, 0}, tensor.Shape{2}, backend)
	require.NoError(t, err)

	var loss nn.Loss[B] = nn.NewQualityFocalLoss[B](true, 2, nn.ReductionSum)
	assert.InDelta(t, 1.5*0.6931472, loss.Forward(pred, target).Item(), 1e-5)

	logits, err := tensor.FromSlice([]float32{0, 0, 0, 0}, tensor.Shape{1, 4}, backend)
	require.NoError(t, err)
	bin, err := tensor.FromSlice([]float32{2}, tensor.Shape{1}, backend)
	require.NoError(t, err)

	loss = nn.NewDistributionFocalLoss[B](nn.ReductionMean)
	assert.InDelta(t, 1.3862944, loss.Forward(logits, bin).Item(), 1e-5)

	r, err := nn.ParseReduction("none")
	require.NoError(t, err)
	assert.Equal(t, nn.ReductionNone, r)
}
