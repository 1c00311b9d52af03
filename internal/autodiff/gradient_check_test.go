package autodiff_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rainfishy/GraphDiseaseYOLOv8/internal/autodiff"
	"github.com/rainfishy/GraphDiseaseYOLOv8/internal/backend/cpu"
	"github.com/rainfishy/GraphDiseaseYOLOv8/internal/tensor"
)

// checkGradient compares the autodiff gradient of a scalar function against
// central finite differences at every element of x.
func checkGradient(
	t *testing.T,
	data []float32,
	shape tensor.Shape,
	f func(x *tensor.Tensor[Backend]) *tensor.Tensor[Backend],
) {
	t.Helper()
	const epsilon = 1e-2

	backend := autodiff.New(cpu.New())
	backend.Tape().StartRecording()
	x, err := tensor.FromSlice(data, shape, backend)
	require.NoError(t, err)
	grads := autodiff.Backward(f(x), backend)
	backend.Tape().StopRecording()

	grad, ok := grads[x.Raw()]
	require.True(t, ok, "no gradient reached the input")
	require.Equal(t, shape, grad.Shape())

	eval := func(values []float32) float32 {
		probe, err := tensor.FromSlice(values, shape, backend)
		require.NoError(t, err)
		return f(probe).Item()
	}

	for i := range data {
		plus := append([]float32(nil), data...)
		minus := append([]float32(nil), data...)
		plus[i] += epsilon
		minus[i] -= epsilon
		numerical := (eval(plus) - eval(minus)) / (2 * epsilon)
		assert.InDelta(t, numerical, grad.Data()[i], float64(1e-2+1e-2*abs(numerical)), "element %d", i)
	}
}

func abs(v float32) float32 {
	if v < 0 {
		return -v
	}
	return v
}

var smooth = []float32{0.3, -0.7, 1.1, -1.6, 0.45, 0.9}

func TestGradient_Elementwise(t *testing.T) {
	shape := tensor.Shape{2, 3}
	positive := []float32{0.3, 0.7, 1.1, 1.6, 0.45, 0.9}

	cases := map[string]struct {
		data []float32
		f    func(x *tensor.Tensor[Backend]) *tensor.Tensor[Backend]
	}{
		"exp":      {smooth, func(x *tensor.Tensor[Backend]) *tensor.Tensor[Backend] { return x.Exp().Sum() }},
		"log":      {positive, func(x *tensor.Tensor[Backend]) *tensor.Tensor[Backend] { return x.Log().Sum() }},
		"abs":      {smooth, func(x *tensor.Tensor[Backend]) *tensor.Tensor[Backend] { return x.Abs().MulScalar(2).Sum() }},
		"pow":      {positive, func(x *tensor.Tensor[Backend]) *tensor.Tensor[Backend] { return x.Pow(2.5).Sum() }},
		"clamp":    {smooth, func(x *tensor.Tensor[Backend]) *tensor.Tensor[Backend] { return x.Clamp(-1, 1).Mul(x).Sum() }},
		"sigmoid":  {smooth, func(x *tensor.Tensor[Backend]) *tensor.Tensor[Backend] { return x.Sigmoid().Mul(x).Sum() }},
		"relu":     {smooth, func(x *tensor.Tensor[Backend]) *tensor.Tensor[Backend] { return x.ReLU().Mul(x).Sum() }},
		"silu":     {smooth, func(x *tensor.Tensor[Backend]) *tensor.Tensor[Backend] { return x.SiLU().Sum() }},
		"softplus": {smooth, func(x *tensor.Tensor[Backend]) *tensor.Tensor[Backend] { return x.Softplus().Sum() }},
		"logsig":   {smooth, func(x *tensor.Tensor[Backend]) *tensor.Tensor[Backend] { return x.LogSigmoid().Sum() }},
		"div": {positive, func(x *tensor.Tensor[Backend]) *tensor.Tensor[Backend] {
			return x.AddScalar(1).Div(x.Mul(x).AddScalar(0.5)).Sum()
		}},
		"sub": {smooth, func(x *tensor.Tensor[Backend]) *tensor.Tensor[Backend] {
			return x.Exp().Sub(x.Mul(x)).Sum()
		}},
	}

	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			checkGradient(t, tc.data, shape, tc.f)
		})
	}
}

func TestGradient_Reductions(t *testing.T) {
	shape := tensor.Shape{2, 3}

	t.Run("softmax", func(t *testing.T) {
		weights := []float32{1, -2, 3, 0.5, 4, -1}
		checkGradient(t, smooth, shape, func(x *tensor.Tensor[Backend]) *tensor.Tensor[Backend] {
			w, _ := tensor.FromSlice(weights, shape, x.Backend())
			return x.Softmax(1).Mul(w).Sum()
		})
	})
	t.Run("sum_dim", func(t *testing.T) {
		checkGradient(t, smooth, shape, func(x *tensor.Tensor[Backend]) *tensor.Tensor[Backend] {
			return x.SumDim(0, false).Pow(2).Sum()
		})
	})
	t.Run("mean_dim_keep", func(t *testing.T) {
		checkGradient(t, smooth, shape, func(x *tensor.Tensor[Backend]) *tensor.Tensor[Backend] {
			return x.Sub(x.MeanDim(1, true)).Pow(2).Sum()
		})
	})
	t.Run("expand_reshape", func(t *testing.T) {
		checkGradient(t, smooth, shape, func(x *tensor.Tensor[Backend]) *tensor.Tensor[Backend] {
			return x.Reshape(2, 3, 1).Expand(tensor.Shape{2, 3, 4}).Exp().Mean()
		})
	})
	t.Run("gather", func(t *testing.T) {
		checkGradient(t, smooth, shape, func(x *tensor.Tensor[Backend]) *tensor.Tensor[Backend] {
			return x.Softmax(1).Gather(1, []int{2, 0}).Log().Sum()
		})
	})
}

func TestGradient_Spatial(t *testing.T) {
	input := make([]float32, 2*2*5*5)
	for i := range input {
		input[i] = float32(i%9-4) * 0.1
	}
	kernel := make([]float32, 3*2*3*3)
	for i := range kernel {
		kernel[i] = float32(i%5-2) * 0.15
	}

	t.Run("conv2d_input", func(t *testing.T) {
		checkGradient(t, input, tensor.Shape{2, 2, 5, 5}, func(x *tensor.Tensor[Backend]) *tensor.Tensor[Backend] {
			k, _ := tensor.FromSlice(kernel, tensor.Shape{3, 2, 3, 3}, x.Backend())
			return x.Conv2D(k, 2, 1).Pow(2).Sum()
		})
	})
	t.Run("conv2d_kernel", func(t *testing.T) {
		checkGradient(t, kernel, tensor.Shape{3, 2, 3, 3}, func(k *tensor.Tensor[Backend]) *tensor.Tensor[Backend] {
			x, _ := tensor.FromSlice(input, tensor.Shape{2, 2, 5, 5}, k.Backend())
			return x.Conv2D(k, 1, 1).Pow(2).Sum()
		})
	})
	t.Run("upsample", func(t *testing.T) {
		checkGradient(t, smooth, tensor.Shape{1, 1, 2, 3}, func(x *tensor.Tensor[Backend]) *tensor.Tensor[Backend] {
			return x.UpsampleNearest(4, 5).Exp().Sum()
		})
	})
}

// Distinct values spaced wider than the finite-difference step keep every
// pooling window's winner stable.
var spread = []float32{0.1, 0.9, -0.3, 0.5, 1.3, -0.7, 0.2, 1.1, -0.5, 0.7, 1.5, -0.1, 0.3, -0.9, 0.8, 1.2}

func TestGradient_Pooling(t *testing.T) {
	t.Run("maxpool2d", func(t *testing.T) {
		checkGradient(t, spread, tensor.Shape{1, 1, 4, 4}, func(x *tensor.Tensor[Backend]) *tensor.Tensor[Backend] {
			return x.MaxPool2D(2, 2, 0).Pow(2).Sum()
		})
	})
	t.Run("maxpool2d_same", func(t *testing.T) {
		checkGradient(t, spread, tensor.Shape{1, 1, 4, 4}, func(x *tensor.Tensor[Backend]) *tensor.Tensor[Backend] {
			return x.MaxPool2D(3, 1, 1).Exp().Sum()
		})
	})
}

func TestGradient_Concat(t *testing.T) {
	t.Run("concat", func(t *testing.T) {
		checkGradient(t, smooth, tensor.Shape{1, 2, 3, 1}, func(x *tensor.Tensor[Backend]) *tensor.Tensor[Backend] {
			y := x.MulScalar(2).Exp()
			return tensor.Concat([]*tensor.Tensor[Backend]{x, y, x}, 1).Pow(2).Sum()
		})
	})
	t.Run("narrow", func(t *testing.T) {
		checkGradient(t, smooth, tensor.Shape{2, 3}, func(x *tensor.Tensor[Backend]) *tensor.Tensor[Backend] {
			return x.Narrow(1, 1, 2).Exp().Sum()
		})
	})
}
