package tensor

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestShape_Basics(t *testing.T) {
	s := Shape{2, 3, 4}
	assert.Equal(t, 24, s.NumElements())
	assert.Equal(t, 1, Shape{}.NumElements())
	assert.Equal(t, []int{12, 4, 1}, s.ComputeStrides())

	c := s.Clone()
	c[0] = 9
	assert.Equal(t, 2, s[0])

	assert.True(t, s.Equal(Shape{2, 3, 4}))
	assert.False(t, s.Equal(Shape{2, 3}))
	assert.False(t, s.Equal(Shape{2, 3, 5}))

	assert.NoError(t, s.Validate())
	assert.Error(t, Shape{2, 0}.Validate())
	assert.Error(t, Shape{-1}.Validate())
}

func TestBroadcastShapes(t *testing.T) {
	tests := []struct {
		a, b     Shape
		want     Shape
		expanded bool
		wantErr  bool
	}{
		{Shape{2, 3, 4, 4}, Shape{2, 3, 4, 4}, Shape{2, 3, 4, 4}, false, false},
		{Shape{2, 3, 4, 4}, Shape{2, 3, 1, 1}, Shape{2, 3, 4, 4}, true, false},
		{Shape{4, 1}, Shape{4, 5}, Shape{4, 5}, true, false},
		{Shape{5}, Shape{3, 5}, Shape{3, 5}, true, false},
		{Shape{}, Shape{2, 2}, Shape{2, 2}, true, false},
		{Shape{4, 5}, Shape{3, 5}, nil, false, true},
	}

	for _, tt := range tests {
		got, expanded, err := BroadcastShapes(tt.a, tt.b)
		if tt.wantErr {
			assert.Error(t, err, "%v with %v", tt.a, tt.b)
			continue
		}
		require.NoError(t, err)
		assert.Equal(t, tt.want, got, "%v with %v", tt.a, tt.b)
		assert.Equal(t, tt.expanded, expanded, "%v with %v", tt.a, tt.b)
	}
}

func TestBroadcastIndex(t *testing.T) {
	// [2, 1] read as [2, 3] repeats each row value.
	assert.Equal(t, []int{0, 0, 0, 1, 1, 1}, BroadcastIndex(Shape{2, 1}, Shape{2, 3}))
	// [3] read as [2, 3] repeats the row.
	assert.Equal(t, []int{0, 1, 2, 0, 1, 2}, BroadcastIndex(Shape{3}, Shape{2, 3}))
	assert.Equal(t, []int{0, 0, 0, 0}, BroadcastIndex(Shape{1}, Shape{2, 2}))
}

func TestRawTensor(t *testing.T) {
	r, err := NewRaw(Shape{2, 3}, CPU)
	require.NoError(t, err)
	assert.Equal(t, make([]float32, 6), r.Data())
	assert.Equal(t, []int{3, 1}, r.Strides())
	assert.Equal(t, "CPU", r.Device().String())

	r.Fill(2)
	c := r.Clone()
	c.Data()[0] = 7
	assert.Equal(t, float32(2), r.Data()[0])

	v, err := r.View(Shape{3, 2})
	require.NoError(t, err)
	v.Data()[5] = 5
	assert.Equal(t, float32(5), r.Data()[5], "views share storage")

	_, err = r.View(Shape{4})
	assert.Error(t, err)
	_, err = NewRaw(Shape{0, 2}, CPU)
	assert.Error(t, err)
	assert.Panics(t, func() { MustNewRaw(Shape{-3}, CPU) })
}
