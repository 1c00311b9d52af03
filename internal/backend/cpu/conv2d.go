package cpu

import (
	"fmt"

	"gonum.org/v1/gonum/blas"
	"gonum.org/v1/gonum/blas/blas32"

	"github.com/rainfishy/GraphDiseaseYOLOv8/internal/parallel"
	"github.com/rainfishy/GraphDiseaseYOLOv8/internal/tensor"
)

// convGeometry holds the sizes shared by the forward and backward kernels.
//
// The im2col matrix of one image has patch rows (c, kh, kw) and one column per
// output position, so the convolution of image n is a single GEMM:
//
//	out[n] (COut x HOut*WOut) = kernel (COut x CIn*KH*KW) @ cols (CIn*KH*KW x HOut*WOut)
type convGeometry struct {
	n, cIn, h, w    int
	cOut, kh, kw    int
	hOut, wOut      int
	stride, padding int
}

func newConvGeometry(op string, input, kernel tensor.Shape, stride, padding int) convGeometry {
	if len(input) != 4 {
		panic(fmt.Sprintf("%s: input must be 4D [N,C,H,W], got %v", op, input))
	}
	if len(kernel) != 4 {
		panic(fmt.Sprintf("%s: kernel must be 4D [C_out,C_in,K_h,K_w], got %v", op, kernel))
	}
	if input[1] != kernel[1] {
		panic(fmt.Sprintf("%s: input channels %d != kernel channels %d", op, input[1], kernel[1]))
	}
	if stride <= 0 || padding < 0 {
		panic(fmt.Sprintf("%s: invalid stride %d or padding %d", op, stride, padding))
	}

	g := convGeometry{
		n: input[0], cIn: input[1], h: input[2], w: input[3],
		cOut: kernel[0], kh: kernel[2], kw: kernel[3],
		stride: stride, padding: padding,
	}
	g.hOut = (g.h+2*padding-g.kh)/stride + 1
	g.wOut = (g.w+2*padding-g.kw)/stride + 1
	if g.hOut <= 0 || g.wOut <= 0 {
		panic(fmt.Sprintf("%s: kernel %dx%d does not fit input %dx%d with padding %d",
			op, g.kh, g.kw, g.h, g.w, padding))
	}
	return g
}

func (g convGeometry) patch() int     { return g.cIn * g.kh * g.kw }
func (g convGeometry) positions() int { return g.hOut * g.wOut }
func (g convGeometry) image() int     { return g.cIn * g.h * g.w }

func (g convGeometry) outShape() tensor.Shape {
	return tensor.Shape{g.n, g.cOut, g.hOut, g.wOut}
}

func (g convGeometry) kernelMatrix(data []float32) blas32.General {
	return blas32.General{Rows: g.cOut, Cols: g.patch(), Stride: g.patch(), Data: data}
}

func (g convGeometry) colsMatrix(data []float32) blas32.General {
	return blas32.General{Rows: g.patch(), Cols: g.positions(), Stride: g.positions(), Data: data}
}

func (g convGeometry) outMatrix(data []float32, n int) blas32.General {
	size := g.cOut * g.positions()
	return blas32.General{Rows: g.cOut, Cols: g.positions(), Stride: g.positions(), Data: data[n*size : (n+1)*size]}
}

// im2col unrolls one image into cols, writing zeros for padded positions.
func (g convGeometry) im2col(img, cols []float32) {
	p := g.positions()
	for c := 0; c < g.cIn; c++ {
		for ki := 0; ki < g.kh; ki++ {
			for kj := 0; kj < g.kw; kj++ {
				row := cols[((c*g.kh+ki)*g.kw+kj)*p:][:p]
				for oy := 0; oy < g.hOut; oy++ {
					y := oy*g.stride - g.padding + ki
					for ox := 0; ox < g.wOut; ox++ {
						x := ox*g.stride - g.padding + kj
						if y < 0 || y >= g.h || x < 0 || x >= g.w {
							row[oy*g.wOut+ox] = 0
							continue
						}
						row[oy*g.wOut+ox] = img[(c*g.h+y)*g.w+x]
					}
				}
			}
		}
	}
}

// col2im is the adjoint of im2col: it accumulates cols back into img.
func (g convGeometry) col2im(cols, img []float32) {
	p := g.positions()
	for c := 0; c < g.cIn; c++ {
		for ki := 0; ki < g.kh; ki++ {
			for kj := 0; kj < g.kw; kj++ {
				row := cols[((c*g.kh+ki)*g.kw+kj)*p:][:p]
				for oy := 0; oy < g.hOut; oy++ {
					y := oy*g.stride - g.padding + ki
					if y < 0 || y >= g.h {
						continue
					}
					for ox := 0; ox < g.wOut; ox++ {
						x := ox*g.stride - g.padding + kj
						if x < 0 || x >= g.w {
							continue
						}
						img[(c*g.h+y)*g.w+x] += row[oy*g.wOut+ox]
					}
				}
			}
		}
	}
}

// Conv2D performs a 2D convolution with im2col and a float32 GEMM per image.
//
// Input: [N, C_in, H, W], kernel: [C_out, C_in, K_h, K_w],
// output: [N, C_out, (H+2p-K_h)/s+1, (W+2p-K_w)/s+1].
func (cpu *CPUBackend) Conv2D(input, kernel *tensor.RawTensor, stride, padding int) *tensor.RawTensor {
	g := newConvGeometry("conv2d", input.Shape(), kernel.Shape(), stride, padding)
	out := cpu.alloc("conv2d", g.outShape())

	k := g.kernelMatrix(kernel.Data())
	src := input.Data()
	parallel.For(g.n, func(n int) {
		cols := make([]float32, g.patch()*g.positions())
		g.im2col(src[n*g.image():(n+1)*g.image()], cols)
		blas32.Gemm(blas.NoTrans, blas.NoTrans, 1, k, g.colsMatrix(cols), 0, g.outMatrix(out.Data(), n))
	}, cpu.parallel.WithMinChunkSize(1))
	return out
}

// Conv2DInputBackward computes dL/dinput = col2im(kernel^T @ grad) per image.
func (cpu *CPUBackend) Conv2DInputBackward(input, kernel, grad *tensor.RawTensor, stride, padding int) *tensor.RawTensor {
	g := newConvGeometry("conv2d_input_backward", input.Shape(), kernel.Shape(), stride, padding)
	if !grad.Shape().Equal(g.outShape()) {
		panic(fmt.Sprintf("conv2d_input_backward: grad shape %v, expected %v", grad.Shape(), g.outShape()))
	}
	out := cpu.alloc("conv2d_input_backward", input.Shape())

	k := g.kernelMatrix(kernel.Data())
	dst := out.Data()
	parallel.For(g.n, func(n int) {
		cols := make([]float32, g.patch()*g.positions())
		blas32.Gemm(blas.Trans, blas.NoTrans, 1, k, g.outMatrix(grad.Data(), n), 0, g.colsMatrix(cols))
		g.col2im(cols, dst[n*g.image():(n+1)*g.image()])
	}, cpu.parallel.WithMinChunkSize(1))
	return out
}

// Conv2DKernelBackward computes dL/dkernel = sum_n grad[n] @ cols[n]^T. The
// images accumulate into one buffer, so this kernel stays sequential.
func (cpu *CPUBackend) Conv2DKernelBackward(input, kernel, grad *tensor.RawTensor, stride, padding int) *tensor.RawTensor {
	g := newConvGeometry("conv2d_kernel_backward", input.Shape(), kernel.Shape(), stride, padding)
	if !grad.Shape().Equal(g.outShape()) {
		panic(fmt.Sprintf("conv2d_kernel_backward: grad shape %v, expected %v", grad.Shape(), g.outShape()))
	}
	out := cpu.alloc("conv2d_kernel_backward", kernel.Shape())

	cols := make([]float32, g.patch()*g.positions())
	dk := g.kernelMatrix(out.Data())
	src := input.Data()
	for n := 0; n < g.n; n++ {
		g.im2col(src[n*g.image():(n+1)*g.image()], cols)
		blas32.Gemm(blas.NoTrans, blas.Trans, 1, g.outMatrix(grad.Data(), n), g.colsMatrix(cols), 1, dk)
	}
	return out
}
