package cpu

import (
	"fmt"

	"github.com/rainfishy/GraphDiseaseYOLOv8/internal/tensor"
)

// Reshape copies x into a tensor of the given shape. The element count must
// not change.
func (cpu *CPUBackend) Reshape(x *tensor.RawTensor, shape tensor.Shape) *tensor.RawTensor {
	if shape.NumElements() != x.NumElements() {
		panic(fmt.Sprintf("reshape: cannot reshape %v (%d elements) to %v (%d elements)",
			x.Shape(), x.NumElements(), shape, shape.NumElements()))
	}
	out := cpu.alloc("reshape", shape)
	copy(out.Data(), x.Data())
	return out
}

// Expand broadcasts x to shape.
func (cpu *CPUBackend) Expand(x *tensor.RawTensor, shape tensor.Shape) *tensor.RawTensor {
	got, _, err := tensor.BroadcastShapes(x.Shape(), shape)
	if err != nil || !got.Equal(shape) {
		panic(fmt.Sprintf("expand: cannot broadcast %v to %v", x.Shape(), shape))
	}
	out := cpu.alloc("expand", shape)
	src, dst := x.Data(), out.Data()
	for i, at := range tensor.BroadcastIndex(x.Shape(), shape) {
		dst[i] = src[at]
	}
	return out
}

// Gather selects one element per lane along dim. index must hold exactly one
// entry per lane (the product of all other dimensions), each in
// [0, shape[dim]). The result keeps dim with size 1.
func (cpu *CPUBackend) Gather(x *tensor.RawTensor, dim int, index []int) *tensor.RawTensor {
	shape := x.Shape()
	checkDim("gather", shape, dim)

	outer, size, inner := lanes(shape, dim)
	if len(index) != outer*inner {
		panic(fmt.Sprintf("gather: %d indices for %d lanes of shape %v along dim %d",
			len(index), outer*inner, shape, dim))
	}

	outShape := shape.Clone()
	outShape[dim] = 1
	out := cpu.alloc("gather", outShape)
	src, dst := x.Data(), out.Data()
	for o := 0; o < outer; o++ {
		for i := 0; i < inner; i++ {
			lane := o*inner + i
			k := index[lane]
			if k < 0 || k >= size {
				panic(fmt.Sprintf("gather: index %d out of range [0, %d) at lane %d", k, size, lane))
			}
			dst[lane] = src[(o*size+k)*inner+i]
		}
	}
	return out
}

// Concat joins xs along dim. All inputs must share every other dimension.
func (cpu *CPUBackend) Concat(xs []*tensor.RawTensor, dim int) *tensor.RawTensor {
	if len(xs) == 0 {
		panic("concat: no inputs")
	}
	first := xs[0].Shape()
	checkDim("concat", first, dim)

	outShape := first.Clone()
	outShape[dim] = 0
	for i, x := range xs {
		s := x.Shape()
		if len(s) != len(first) {
			panic(fmt.Sprintf("concat: input %d has shape %v, expected rank %d", i, s, len(first)))
		}
		for d := range s {
			if d != dim && s[d] != first[d] {
				panic(fmt.Sprintf("concat: input %d has shape %v, incompatible with %v along dim %d", i, s, first, dim))
			}
		}
		outShape[dim] += s[dim]
	}

	out := cpu.alloc("concat", outShape)
	outer, total, inner := lanes(outShape, dim)
	dst := out.Data()
	offset := 0
	for _, x := range xs {
		_, size, _ := lanes(x.Shape(), dim)
		src := x.Data()
		for o := 0; o < outer; o++ {
			copy(dst[(o*total+offset)*inner:][:size*inner], src[o*size*inner:][:size*inner])
		}
		offset += size
	}
	return out
}

// Narrow returns length entries of x along dim starting at start.
func (cpu *CPUBackend) Narrow(x *tensor.RawTensor, dim, start, length int) *tensor.RawTensor {
	shape := x.Shape()
	checkDim("narrow", shape, dim)
	if start < 0 || length <= 0 || start+length > shape[dim] {
		panic(fmt.Sprintf("narrow: range [%d, %d) out of bounds for dim %d of %v", start, start+length, dim, shape))
	}

	outShape := shape.Clone()
	outShape[dim] = length
	out := cpu.alloc("narrow", outShape)
	outer, size, inner := lanes(shape, dim)
	src, dst := x.Data(), out.Data()
	for o := 0; o < outer; o++ {
		copy(dst[o*length*inner:][:length*inner], src[(o*size+start)*inner:][:length*inner])
	}
	return out
}
