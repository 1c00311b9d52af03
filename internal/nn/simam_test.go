package nn

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rainfishy/GraphDiseaseYOLOv8/internal/backend/cpu"
	"github.com/rainfishy/GraphDiseaseYOLOv8/internal/tensor"
)

var sigmoidHalf = cpu.Sigmoid(0.5)

func TestSimAM_ConstantInput(t *testing.T) {
	backend := newBackend()
	simam := NewSimAM[Backend](1e-4)

	out := simam.Forward(tensor.Ones(tensor.Shape{1, 1, 2, 2}, backend))

	require.Equal(t, tensor.Shape{1, 1, 2, 2}, out.Shape())
	for _, v := range out.Data() {
		assert.InDelta(t, 0.62246, v, 1e-5)
	}
}

func TestSimAM_ConstantPerChannel(t *testing.T) {
	backend := newBackend()
	simam := NewSimAM[Backend](DefaultSimAMConfig().ELambda)

	// Each (batch, channel) slice is constant, so every gate is sigmoid(0.5).
	data := make([]float32, 2*3*4*4)
	for i := range data {
		data[i] = float32(i/16) - 2.5
	}
	x := fromSlice(t, data, tensor.Shape{2, 3, 4, 4}, backend)
	out := simam.Forward(x)

	for i, v := range out.Data() {
		assert.InDelta(t, data[i]*sigmoidHalf, v, 1e-6)
	}
}

func TestSimAM_MatchesDirectComputation(t *testing.T) {
	backend := newBackend()
	const eLambda = 1e-4
	simam := NewSimAM[Backend](eLambda)

	b, c, h, w := 2, 3, 5, 4
	data := sequence(b*c*h*w, 0.37)
	out := simam.Forward(fromSlice(t, data, tensor.Shape{b, c, h, w}, backend))
	require.Equal(t, tensor.Shape{b, c, h, w}, out.Shape())

	hw := h * w
	for s := 0; s < b*c; s++ {
		slice := data[s*hw : (s+1)*hw]
		var mean float32
		for _, v := range slice {
			mean += v
		}
		mean /= float32(hw)
		var sum float32
		for _, v := range slice {
			sum += (v - mean) * (v - mean)
		}
		for i, v := range slice {
			d := (v - mean) * (v - mean)
			y := d/(4*(sum/float32(hw-1)+eLambda)) + 0.5
			assert.InDelta(t, v*cpu.Sigmoid(y), out.Data()[s*hw+i], 1e-5)
		}
	}
}

func TestSimAM_SinglePixelIsFinite(t *testing.T) {
	backend := newBackend()
	simam := NewSimAM[Backend](1e-4)

	x := tensor.Randn(tensor.Shape{2, 3, 1, 1}, backend)
	out := simam.Forward(x)

	assertFinite(t, out.Data())
	for i, v := range x.Data() {
		assert.InDelta(t, v*sigmoidHalf, out.Data()[i], 1e-6)
	}
}

func TestSimAM_NoParameters(t *testing.T) {
	simam := NewSimAM[Backend](1e-4)
	assert.Empty(t, simam.Parameters())
	assert.Equal(t, 0, CountParameters(simam.Parameters()))
}

func TestSimAM_Invalid(t *testing.T) {
	backend := newBackend()

	assert.Panics(t, func() { NewSimAM[Backend](0) })
	assert.Error(t, SimAMConfig{ELambda: -1}.Validate())
	assert.NoError(t, DefaultSimAMConfig().Validate())

	simam := NewSimAM[Backend](1e-4)
	assert.Panics(t, func() { simam.Forward(tensor.Ones(tensor.Shape{3, 4, 4}, backend)) })
}

func TestSimAM_Gradient(t *testing.T) {
	simam := NewSimAM[Backend](1e-4)
	checkGradient(t, sequence(1*2*3*3, 0.3), tensor.Shape{1, 2, 3, 3}, func(x *tensor.Tensor[Backend]) *tensor.Tensor[Backend] {
		return simam.Forward(x).Sum()
	})
}
