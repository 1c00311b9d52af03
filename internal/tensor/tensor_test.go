package tensor_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rainfishy/GraphDiseaseYOLOv8/internal/backend/cpu"
	"github.com/rainfishy/GraphDiseaseYOLOv8/internal/tensor"
)

func TestTensor_Constructors(t *testing.T) {
	backend := cpu.New()

	x, err := tensor.FromSlice([]float32{1, 2, 3, 4, 5, 6}, tensor.Shape{2, 3}, backend)
	require.NoError(t, err)
	assert.Equal(t, float32(6), x.At(1, 2))
	assert.Equal(t, float32(2), x.At(0, 1))
	assert.Equal(t, 6, x.NumElements())

	_, err = tensor.FromSlice([]float32{1, 2}, tensor.Shape{3}, backend)
	assert.Error(t, err)

	assert.Equal(t, []float32{0, 0}, tensor.Zeros(tensor.Shape{2}, backend).Data())
	assert.Equal(t, []float32{1, 1}, tensor.Ones(tensor.Shape{2}, backend).Data())
	assert.Equal(t, []float32{2.5}, tensor.Full(tensor.Shape{1}, 2.5, backend).Data())

	for _, v := range tensor.Rand(tensor.Shape{64}, backend).Data() {
		assert.True(t, v >= 0 && v < 1)
	}
	assert.Equal(t, tensor.Shape{3, 4}, tensor.Randn(tensor.Shape{3, 4}, backend).Shape())
}

func TestTensor_Accessors(t *testing.T) {
	backend := cpu.New()
	x := tensor.Full(tensor.Shape{1}, 3, backend)

	assert.Equal(t, float32(3), x.Item())
	assert.Panics(t, func() { tensor.Zeros(tensor.Shape{2}, backend).Item() })
	assert.Panics(t, func() { x.At(1) })
	assert.Panics(t, func() { x.At(0, 0) })

	c := x.Clone()
	c.Data()[0] = 9
	assert.Equal(t, float32(3), x.Item())
	assert.NotSame(t, x.Raw(), x.Detach().Raw())

	assert.Nil(t, x.Grad())
	x.SetGrad(tensor.Ones(tensor.Shape{1}, backend))
	assert.Equal(t, float32(1), x.Grad().Item())

	assert.Equal(t, "Tensor[1] on CPU", x.String())
}

func TestTensor_Ops(t *testing.T) {
	backend := cpu.New()
	a, err := tensor.FromSlice([]float32{1, 2, 3, 4}, tensor.Shape{2, 2}, backend)
	require.NoError(t, err)
	b, err := tensor.FromSlice([]float32{10, 20}, tensor.Shape{2, 1}, backend)
	require.NoError(t, err)

	assert.Equal(t, []float32{11, 12, 23, 24}, a.Add(b).Data())
	assert.Equal(t, []float32{10, 20, 60, 80}, a.Mul(b).Data())
	assert.Equal(t, []float32{2, 4, 6, 8}, a.MulScalar(2).Data())
	assert.Equal(t, []float32{-1, -2, -3, -4}, a.Neg().Data())
	assert.Equal(t, float32(10), a.Sum().Item())
	assert.Equal(t, float32(2.5), a.Mean().Item())
	assert.Equal(t, []float32{3, 7}, a.SumDim(1, false).Data())
	assert.Equal(t, tensor.Shape{2, 1}, a.SumDim(-1, true).Shape())
	assert.Equal(t, []float32{1, 2, 3, 3}, a.Clamp(0, 3).Data())
	assert.Equal(t, tensor.Shape{4}, a.Reshape(4).Shape())
	assert.Equal(t, []float32{2, 3}, a.Gather(1, []int{1, 0}).Data())

	// Nothing is in-place.
	assert.Equal(t, []float32{1, 2, 3, 4}, a.Data())

	assert.Panics(t, func() { a.SumDim(2, false) })
}
