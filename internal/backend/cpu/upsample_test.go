package cpu

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/rainfishy/GraphDiseaseYOLOv8/internal/tensor"
)

func TestUpsampleNearest_Double(t *testing.T) {
	backend := New()

	x := raw(t, tensor.Shape{1, 1, 2, 2}, 1, 2, 3, 4)
	out := backend.UpsampleNearest(x, 4, 4)

	assert.Equal(t, tensor.Shape{1, 1, 4, 4}, out.Shape())
	assert.Equal(t, []float32{
		1, 1, 2, 2,
		1, 1, 2, 2,
		3, 3, 4, 4,
		3, 3, 4, 4,
	}, out.Data())
}

func TestUpsampleNearest_NonIntegerScale(t *testing.T) {
	backend := New()

	x := raw(t, tensor.Shape{1, 1, 1, 2}, 1, 2)
	out := backend.UpsampleNearest(x, 1, 3)

	// floor(i * 2 / 3) picks sources 0, 0, 1.
	assert.Equal(t, []float32{1, 1, 2}, out.Data())
}

func TestUpsampleNearest_Backward(t *testing.T) {
	backend := New()

	grad := raw(t, tensor.Shape{1, 2, 4, 4})
	grad.Fill(1)
	dx := backend.UpsampleNearestBackward(grad, 2, 2)

	assert.Equal(t, tensor.Shape{1, 2, 2, 2}, dx.Shape())
	for _, v := range dx.Data() {
		assert.Equal(t, float32(4), v)
	}
}

func TestUpsampleNearest_Invalid(t *testing.T) {
	backend := New()

	assert.Panics(t, func() { backend.UpsampleNearest(raw(t, tensor.Shape{2, 2}), 4, 4) })
	assert.Panics(t, func() { backend.UpsampleNearest(raw(t, tensor.Shape{1, 1, 2, 2}), 0, 4) })
}
