package tensor

import "fmt"

// Shape holds tensor dimensions in row-major order.
// A nil or empty Shape describes a scalar.
type Shape []int

// NumElements returns the product of all dimensions (1 for a scalar).
func (s Shape) NumElements() int {
	n := 1
	for _, d := range s {
		n *= d
	}
	return n
}

// Validate reports the first non-positive dimension.
func (s Shape) Validate() error {
	for i, d := range s {
		if d <= 0 {
			return fmt.Errorf("dimension %d has size %d, must be positive", i, d)
		}
	}
	return nil
}

// Equal reports whether both shapes have the same rank and sizes.
func (s Shape) Equal(other Shape) bool {
	if len(s) != len(other) {
		return false
	}
	for i, d := range s {
		if other[i] != d {
			return false
		}
	}
	return true
}

// Clone returns an independent copy of the shape.
func (s Shape) Clone() Shape {
	out := make(Shape, len(s))
	copy(out, s)
	return out
}

// ComputeStrides returns row-major strides: strides[i] is the product of all
// dimensions after i.
func (s Shape) ComputeStrides() []int {
	strides := make([]int, len(s))
	acc := 1
	for i := len(s) - 1; i >= 0; i-- {
		strides[i] = acc
		acc *= s[i]
	}
	return strides
}

// BroadcastShapes combines two shapes with NumPy broadcasting rules: shapes
// are aligned on the right, missing dimensions count as 1, and a pair of
// dimensions is compatible when equal or when either is 1.
//
// The boolean result is true when at least one operand has to be expanded.
//
//	(2, 3, 4, 4) with (2, 3, 1, 1) -> (2, 3, 4, 4), true
//	(4, 1)       with (4, 5)       -> (4, 5), true
//	(4, 5)       with (3, 5)       -> error
func BroadcastShapes(a, b Shape) (Shape, bool, error) {
	rank := max(len(a), len(b))
	out := make(Shape, rank)
	expanded := false

	for i := 1; i <= rank; i++ {
		da, db := 1, 1
		if i <= len(a) {
			da = a[len(a)-i]
		}
		if i <= len(b) {
			db = b[len(b)-i]
		}

		switch {
		case da == db:
			out[rank-i] = da
		case da == 1:
			out[rank-i] = db
			expanded = true
		case db == 1:
			out[rank-i] = da
			expanded = true
		default:
			return nil, false, fmt.Errorf("cannot broadcast %v with %v: dimension %d is %d vs %d",
				a, b, rank-i, da, db)
		}
	}

	if len(a) != len(b) {
		expanded = true
	}
	return out, expanded, nil
}

// BroadcastIndex maps every flat index of dst to the flat index of src that
// broadcasting reads from. src must broadcast to dst.
func BroadcastIndex(src, dst Shape) []int {
	srcStrides := src.ComputeStrides()
	dstStrides := dst.ComputeStrides()
	lead := len(dst) - len(src)

	idx := make([]int, dst.NumElements())
	for i := range idx {
		rem, at := i, 0
		for d := range dst {
			coord := rem / dstStrides[d]
			rem %= dstStrides[d]
			if sd := d - lead; sd >= 0 && src[sd] != 1 {
				at += coord * srcStrides[sd]
			}
		}
		idx[i] = at
	}
	return idx
}
