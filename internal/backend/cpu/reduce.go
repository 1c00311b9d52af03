package cpu

import (
	"github.com/chewxy/math32"

	"github.com/rainfishy/GraphDiseaseYOLOv8/internal/tensor"
)

// Sum adds all elements into a scalar (Shape{}) tensor.
func (cpu *CPUBackend) Sum(x *tensor.RawTensor) *tensor.RawTensor {
	out := cpu.alloc("sum", tensor.Shape{})
	var acc float32
	for _, v := range x.Data() {
		acc += v
	}
	out.Data()[0] = acc
	return out
}

// SumDim sums along dim. With keepDim the reduced dimension stays as size 1.
func (cpu *CPUBackend) SumDim(x *tensor.RawTensor, dim int, keepDim bool) *tensor.RawTensor {
	shape := x.Shape()
	checkDim("sum_dim", shape, dim)

	outShape := shape.Clone()
	if keepDim {
		outShape[dim] = 1
	} else {
		outShape = append(outShape[:dim], outShape[dim+1:]...)
	}

	out := cpu.alloc("sum_dim", outShape)
	src, dst := x.Data(), out.Data()
	outer, size, inner := lanes(shape, dim)
	for o := 0; o < outer; o++ {
		for k := 0; k < size; k++ {
			row := src[(o*size+k)*inner : (o*size+k+1)*inner]
			acc := dst[o*inner : (o+1)*inner]
			for i, v := range row {
				acc[i] += v
			}
		}
	}
	return out
}

// Softmax normalises along dim with max-shifting for numerical stability.
func (cpu *CPUBackend) Softmax(x *tensor.RawTensor, dim int) *tensor.RawTensor {
	shape := x.Shape()
	checkDim("softmax", shape, dim)

	out := cpu.alloc("softmax", shape)
	src, dst := x.Data(), out.Data()
	outer, size, inner := lanes(shape, dim)
	for o := 0; o < outer; o++ {
		for i := 0; i < inner; i++ {
			base := o*size*inner + i

			peak := src[base]
			for k := 1; k < size; k++ {
				peak = math32.Max(peak, src[base+k*inner])
			}

			var total float32
			for k := 0; k < size; k++ {
				e := math32.Exp(src[base+k*inner] - peak)
				dst[base+k*inner] = e
				total += e
			}
			for k := 0; k < size; k++ {
				dst[base+k*inner] /= total
			}
		}
	}
	return out
}
