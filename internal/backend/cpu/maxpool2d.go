package cpu

import (
	"fmt"

	"github.com/chewxy/math32"

	"github.com/rainfishy/GraphDiseaseYOLOv8/internal/parallel"
	"github.com/rainfishy/GraphDiseaseYOLOv8/internal/tensor"
)

// poolGeometry describes a square max pooling window over [N, C, H, W].
// Padded positions never win the max.
type poolGeometry struct {
	planes, h, w            int
	hOut, wOut              int
	kernel, stride, padding int
}

func newPoolGeometry(op string, shape tensor.Shape, kernel, stride, padding int) poolGeometry {
	if len(shape) != 4 {
		panic(fmt.Sprintf("%s: expected 4D input [N,C,H,W], got %v", op, shape))
	}
	if kernel <= 0 || stride <= 0 {
		panic(fmt.Sprintf("%s: invalid kernel size %d or stride %d", op, kernel, stride))
	}
	if padding < 0 || 2*padding > kernel {
		panic(fmt.Sprintf("%s: padding %d must be in [0, kernel/2]", op, padding))
	}
	g := poolGeometry{
		planes: shape[0] * shape[1], h: shape[2], w: shape[3],
		kernel: kernel, stride: stride, padding: padding,
	}
	g.hOut = (g.h+2*padding-kernel)/stride + 1
	g.wOut = (g.w+2*padding-kernel)/stride + 1
	if g.hOut <= 0 || g.wOut <= 0 {
		panic(fmt.Sprintf("%s: kernel size %d too large for input %dx%d", op, kernel, g.h, g.w))
	}
	return g
}

// argmax returns the flat index within plane p of the largest input under
// output (oy, ox). Ties go to the first position in row-major order.
func (g poolGeometry) argmax(src []float32, p, oy, ox int) int {
	best, at := float32(-math32.MaxFloat32), -1
	for ky := 0; ky < g.kernel; ky++ {
		y := oy*g.stride - g.padding + ky
		if y < 0 || y >= g.h {
			continue
		}
		for kx := 0; kx < g.kernel; kx++ {
			x := ox*g.stride - g.padding + kx
			if x < 0 || x >= g.w {
				continue
			}
			idx := (p*g.h+y)*g.w + x
			if at < 0 || src[idx] > best {
				best, at = src[idx], idx
			}
		}
	}
	return at
}

// MaxPool2D takes the maximum over each kernel×kernel window of [N, C, H, W].
// Output: [N, C, (H+2p-k)/s+1, (W+2p-k)/s+1].
func (cpu *CPUBackend) MaxPool2D(input *tensor.RawTensor, kernel, stride, padding int) *tensor.RawTensor {
	shape := input.Shape()
	g := newPoolGeometry("maxpool2d", shape, kernel, stride, padding)
	out := cpu.alloc("maxpool2d", tensor.Shape{shape[0], shape[1], g.hOut, g.wOut})

	src, dst := input.Data(), out.Data()
	parallel.For(g.planes, func(p int) {
		for oy := 0; oy < g.hOut; oy++ {
			for ox := 0; ox < g.wOut; ox++ {
				dst[(p*g.hOut+oy)*g.wOut+ox] = src[g.argmax(src, p, oy, ox)]
			}
		}
	}, cpu.parallel)
	return out
}

// MaxPool2DBackward routes each output gradient to the input that won its
// window. The winners are recomputed from input.
func (cpu *CPUBackend) MaxPool2DBackward(input, grad *tensor.RawTensor, kernel, stride, padding int) *tensor.RawTensor {
	shape := input.Shape()
	g := newPoolGeometry("maxpool2d_backward", shape, kernel, stride, padding)
	want := tensor.Shape{shape[0], shape[1], g.hOut, g.wOut}
	if !grad.Shape().Equal(want) {
		panic(fmt.Sprintf("maxpool2d_backward: grad shape %v, expected %v", grad.Shape(), want))
	}
	out := cpu.alloc("maxpool2d_backward", shape)

	src, gd, dst := input.Data(), grad.Data(), out.Data()
	parallel.For(g.planes, func(p int) {
		for oy := 0; oy < g.hOut; oy++ {
			for ox := 0; ox < g.wOut; ox++ {
				dst[g.argmax(src, p, oy, ox)] += gd[(p*g.hOut+oy)*g.wOut+ox]
			}
		}
	}, cpu.parallel)
	return out
}
