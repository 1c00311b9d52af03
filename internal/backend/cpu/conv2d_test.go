package cpu

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rainfishy/GraphDiseaseYOLOv8/internal/parallel"
	"github.com/rainfishy/GraphDiseaseYOLOv8/internal/tensor"
)

func raw(t *testing.T, shape tensor.Shape, data ...float32) *tensor.RawTensor {
	t.Helper()
	r, err := tensor.NewRaw(shape, tensor.CPU)
	require.NoError(t, err)
	if len(data) > 0 {
		require.Len(t, data, shape.NumElements())
		copy(r.Data(), data)
	}
	return r
}

func seq(t *testing.T, shape tensor.Shape, scale float32) *tensor.RawTensor {
	t.Helper()
	r := raw(t, shape)
	for i := range r.Data() {
		r.Data()[i] = float32(i%7-3) * scale
	}
	return r
}

func dot(a, b *tensor.RawTensor) float64 {
	var acc float64
	for i, v := range a.Data() {
		acc += float64(v) * float64(b.Data()[i])
	}
	return acc
}

// TestConv2D_BasicForward tests a 2x2 diagonal kernel on a 3x3 image.
func TestConv2D_BasicForward(t *testing.T) {
	backend := New()

	// 1 2 3
	// 4 5 6
	// 7 8 9
	input := raw(t, tensor.Shape{1, 1, 3, 3}, 1, 2, 3, 4, 5, 6, 7, 8, 9)
	kernel := raw(t, tensor.Shape{1, 1, 2, 2}, 1, 0, 0, 1)

	output := backend.Conv2D(input, kernel, 1, 0)

	assert.Equal(t, tensor.Shape{1, 1, 2, 2}, output.Shape())
	assert.Equal(t, []float32{6, 8, 12, 14}, output.Data())
}

// TestConv2D_WithPadding checks that same padding keeps the spatial size and
// that border windows only see the valid pixels.
func TestConv2D_WithPadding(t *testing.T) {
	backend := New()

	input := raw(t, tensor.Shape{1, 1, 3, 3})
	input.Fill(1)
	kernel := raw(t, tensor.Shape{1, 1, 3, 3})
	kernel.Fill(1)

	output := backend.Conv2D(input, kernel, 1, 1)

	assert.Equal(t, tensor.Shape{1, 1, 3, 3}, output.Shape())
	assert.Equal(t, []float32{4, 6, 4, 6, 9, 6, 4, 6, 4}, output.Data())
}

// TestConv2D_Stride checks output geometry with stride 2.
func TestConv2D_Stride(t *testing.T) {
	backend := New()

	input := seq(t, tensor.Shape{2, 3, 8, 8}, 0.1)
	kernel := seq(t, tensor.Shape{4, 3, 3, 3}, 0.2)

	output := backend.Conv2D(input, kernel, 2, 1)
	assert.Equal(t, tensor.Shape{2, 4, 4, 4}, output.Shape())
}

// TestConv2D_MultiChannel compares the GEMM path against a direct loop.
func TestConv2D_MultiChannel(t *testing.T) {
	backend := New()

	input := seq(t, tensor.Shape{2, 3, 5, 4}, 0.5)
	kernel := seq(t, tensor.Shape{2, 3, 3, 3}, 0.25)
	output := backend.Conv2D(input, kernel, 1, 1)
	require.Equal(t, tensor.Shape{2, 2, 5, 4}, output.Shape())

	in, k := input.Data(), kernel.Data()
	for n := 0; n < 2; n++ {
		for o := 0; o < 2; o++ {
			for y := 0; y < 5; y++ {
				for x := 0; x < 4; x++ {
					var want float32
					for c := 0; c < 3; c++ {
						for ky := 0; ky < 3; ky++ {
							for kx := 0; kx < 3; kx++ {
								iy, ix := y-1+ky, x-1+kx
								if iy < 0 || iy >= 5 || ix < 0 || ix >= 4 {
									continue
								}
								want += in[((n*3+c)*5+iy)*4+ix] * k[((o*3+c)*3+ky)*3+kx]
							}
						}
					}
					got := output.Data()[((n*2+o)*5+y)*4+x]
					assert.InDelta(t, want, got, 1e-4, "n=%d o=%d y=%d x=%d", n, o, y, x)
				}
			}
		}
	}
}

// TestConv2D_BackwardAdjoint uses the identity <G, conv(X, K)> =
// <X, dX(G)> = <K, dK(G)>, which holds because convolution is bilinear.
func TestConv2D_BackwardAdjoint(t *testing.T) {
	backend := New()

	for _, tc := range []struct {
		name            string
		input, kernel   tensor.Shape
		stride, padding int
	}{
		{"1x1", tensor.Shape{2, 4, 5, 5}, tensor.Shape{3, 4, 1, 1}, 1, 0},
		{"3x3 same", tensor.Shape{1, 2, 6, 5}, tensor.Shape{2, 2, 3, 3}, 1, 1},
		{"3x3 stride 2", tensor.Shape{2, 2, 7, 7}, tensor.Shape{3, 2, 3, 3}, 2, 1},
	} {
		t.Run(tc.name, func(t *testing.T) {
			input := seq(t, tc.input, 0.3)
			kernel := seq(t, tc.kernel, 0.2)
			output := backend.Conv2D(input, kernel, tc.stride, tc.padding)
			grad := seq(t, output.Shape(), 0.1)

			dx := backend.Conv2DInputBackward(input, kernel, grad, tc.stride, tc.padding)
			dk := backend.Conv2DKernelBackward(input, kernel, grad, tc.stride, tc.padding)
			require.Equal(t, tc.input, dx.Shape())
			require.Equal(t, tc.kernel, dk.Shape())

			want := dot(grad, output)
			assert.InDelta(t, want, dot(input, dx), 1e-3)
			assert.InDelta(t, want, dot(kernel, dk), 1e-3)
		})
	}
}

func TestConv2D_InvalidGeometry(t *testing.T) {
	backend := New()

	assert.Panics(t, func() {
		backend.Conv2D(raw(t, tensor.Shape{1, 2, 4, 4}), raw(t, tensor.Shape{1, 3, 3, 3}), 1, 1)
	}, "channel mismatch")
	assert.Panics(t, func() {
		backend.Conv2D(raw(t, tensor.Shape{1, 1, 2, 2}), raw(t, tensor.Shape{1, 1, 3, 3}), 1, 0)
	}, "kernel larger than input")
	assert.Panics(t, func() {
		backend.Conv2D(raw(t, tensor.Shape{1, 4, 4}), raw(t, tensor.Shape{1, 1, 3, 3}), 1, 0)
	}, "3D input")
}

// Parallel and sequential backends must agree exactly: every image is
// computed by the same code, only on a different goroutine.
func TestConv2D_ParallelMatchesSequential(t *testing.T) {
	par := NewWithConfig(parallel.Config{Enabled: true, NumWorkers: 4, MinChunkSize: 1})
	seqBackend := NewWithConfig(parallel.Sequential())

	input := seq(t, tensor.Shape{6, 2, 7, 5}, 0.3)
	kernel := seq(t, tensor.Shape{3, 2, 3, 3}, 0.2)

	want := seqBackend.Conv2D(input, kernel, 2, 1)
	got := par.Conv2D(input, kernel, 2, 1)
	assert.Equal(t, want.Data(), got.Data())

	grad := seq(t, want.Shape(), 0.1)
	assert.Equal(t,
		seqBackend.Conv2DInputBackward(input, kernel, grad, 2, 1).Data(),
		par.Conv2DInputBackward(input, kernel, grad, 2, 1).Data())

	up := par.UpsampleNearest(input, 14, 10)
	assert.Equal(t, seqBackend.UpsampleNearest(input, 14, 10).Data(), up.Data())
	assert.Equal(t,
		seqBackend.UpsampleNearestBackward(up, 7, 5).Data(),
		par.UpsampleNearestBackward(up, 7, 5).Data())
}
