package cpu

import (
	"testing"

	"github.com/chewxy/math32"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rainfishy/GraphDiseaseYOLOv8/internal/tensor"
)

func TestCPUBackend_Metadata(t *testing.T) {
	backend := New()
	assert.Equal(t, "CPU", backend.Name())
	assert.Equal(t, tensor.CPU, backend.Device())
}

func TestCPUBackend_AddBroadcast(t *testing.T) {
	backend := New()

	// [1, 2, 2, 2] + per-channel bias [1, 2, 1, 1]
	x := raw(t, tensor.Shape{1, 2, 2, 2}, 1, 2, 3, 4, 5, 6, 7, 8)
	bias := raw(t, tensor.Shape{1, 2, 1, 1}, 10, 20)

	out := backend.Add(x, bias)
	assert.Equal(t, tensor.Shape{1, 2, 2, 2}, out.Shape())
	assert.Equal(t, []float32{11, 12, 13, 14, 25, 26, 27, 28}, out.Data())
}

func TestCPUBackend_BinaryOps(t *testing.T) {
	backend := New()
	a := raw(t, tensor.Shape{2, 2}, 1, 2, 3, 4)
	b := raw(t, tensor.Shape{2}, 2, 4)

	assert.Equal(t, []float32{-1, -2, 1, 0}, backend.Sub(a, b).Data())
	assert.Equal(t, []float32{2, 8, 6, 16}, backend.Mul(a, b).Data())
	assert.Equal(t, []float32{0.5, 0.5, 1.5, 1}, backend.Div(a, b).Data())
	assert.Equal(t, []float32{3, 4, 5, 6}, backend.AddScalar(a, 2).Data())
	assert.Equal(t, []float32{-1, -2, -3, -4}, backend.MulScalar(a, -1).Data())

	assert.Panics(t, func() { backend.Add(a, raw(t, tensor.Shape{3})) })
}

func TestCPUBackend_Activations(t *testing.T) {
	backend := New()
	x := raw(t, tensor.Shape{4}, -100, -1, 0, 100)

	sig := backend.Sigmoid(x).Data()
	assert.InDelta(t, 0, sig[0], 1e-6)
	assert.InDelta(t, 0.26894, sig[1], 1e-5)
	assert.InDelta(t, 0.5, sig[2], 1e-6)
	assert.InDelta(t, 1, sig[3], 1e-6)

	sp := backend.Softplus(x).Data()
	assert.InDelta(t, 0, sp[0], 1e-6)
	assert.InDelta(t, math32.Log(2), sp[2], 1e-6)
	assert.InDelta(t, 100, sp[3], 1e-4)
	for _, v := range sp {
		assert.False(t, math32.IsInf(v, 0) || math32.IsNaN(v))
	}

	assert.Equal(t, []float32{0, 0, 0, 100}, backend.ReLU(x).Data())
	assert.InDelta(t, -0.26894, backend.SiLU(x).Data()[1], 1e-5)
	assert.Equal(t, []float32{-1, -1, 0, 1}, backend.Clamp(x, -1, 1).Data())
}

func TestCPUBackend_SumDim(t *testing.T) {
	backend := New()
	x := raw(t, tensor.Shape{2, 3}, 1, 2, 3, 4, 5, 6)

	assert.Equal(t, float32(21), backend.Sum(x).Data()[0])
	assert.Equal(t, tensor.Shape{}, backend.Sum(x).Shape())

	rows := backend.SumDim(x, 1, false)
	assert.Equal(t, tensor.Shape{2}, rows.Shape())
	assert.Equal(t, []float32{6, 15}, rows.Data())

	cols := backend.SumDim(x, 0, true)
	assert.Equal(t, tensor.Shape{1, 3}, cols.Shape())
	assert.Equal(t, []float32{5, 7, 9}, cols.Data())
}

func TestCPUBackend_Softmax(t *testing.T) {
	backend := New()
	x := raw(t, tensor.Shape{2, 3}, 1, 2, 3, 1000, 1000, 1000)

	out := backend.Softmax(x, 1).Data()
	assert.InDelta(t, 0.09003, out[0], 1e-5)
	assert.InDelta(t, 0.66524, out[2], 1e-5)
	for i := 3; i < 6; i++ {
		assert.InDelta(t, 1.0/3, out[i], 1e-6)
	}

	// Along dim 0 of a 1x3 tensor every element is 1.
	one := backend.Softmax(raw(t, tensor.Shape{1, 3}, -5, 0, 5), 0).Data()
	assert.Equal(t, []float32{1, 1, 1}, one)
}

func TestCPUBackend_Gather(t *testing.T) {
	backend := New()
	x := raw(t, tensor.Shape{3, 4},
		0, 1, 2, 3,
		10, 11, 12, 13,
		20, 21, 22, 23)

	out := backend.Gather(x, 1, []int{3, 0, 2})
	require.Equal(t, tensor.Shape{3, 1}, out.Shape())
	assert.Equal(t, []float32{3, 10, 22}, out.Data())

	assert.Panics(t, func() { backend.Gather(x, 1, []int{0, 1}) }, "wrong index count")
	assert.Panics(t, func() { backend.Gather(x, 1, []int{0, 1, 4}) }, "index out of range")
}

func TestCPUBackend_ReshapeExpand(t *testing.T) {
	backend := New()
	x := raw(t, tensor.Shape{2, 1}, 1, 2)

	r := backend.Reshape(x, tensor.Shape{1, 2})
	assert.Equal(t, tensor.Shape{1, 2}, r.Shape())
	r.Data()[0] = 9
	assert.Equal(t, float32(1), x.Data()[0], "reshape must not alias its input")

	e := backend.Expand(x, tensor.Shape{2, 3})
	assert.Equal(t, []float32{1, 1, 1, 2, 2, 2}, e.Data())

	assert.Panics(t, func() { backend.Reshape(x, tensor.Shape{3}) })
	assert.Panics(t, func() { backend.Expand(x, tensor.Shape{3, 3}) })
}
