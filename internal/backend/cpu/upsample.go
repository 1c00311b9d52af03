package cpu

import (
	"fmt"

	"github.com/rainfishy/GraphDiseaseYOLOv8/internal/parallel"
	"github.com/rainfishy/GraphDiseaseYOLOv8/internal/tensor"
)

// nearestSource maps an output coordinate to its nearest-neighbour source,
// floor(dst * in / out), the convention of PyTorch's "nearest" mode.
func nearestSource(dst, in, out int) int {
	return min(dst*in/out, in-1)
}

// UpsampleNearest resizes the spatial dimensions of [N, C, H, W] to
// [N, C, outH, outW] with nearest-neighbour sampling. Downsampling works too.
func (cpu *CPUBackend) UpsampleNearest(x *tensor.RawTensor, outH, outW int) *tensor.RawTensor {
	shape := x.Shape()
	if len(shape) != 4 {
		panic(fmt.Sprintf("upsample_nearest: input must be 4D [N,C,H,W], got %v", shape))
	}
	if outH <= 0 || outW <= 0 {
		panic(fmt.Sprintf("upsample_nearest: invalid output size %dx%d", outH, outW))
	}

	planes, h, w := shape[0]*shape[1], shape[2], shape[3]
	out := cpu.alloc("upsample_nearest", tensor.Shape{shape[0], shape[1], outH, outW})
	src, dst := x.Data(), out.Data()
	parallel.For(planes, func(p int) {
		for oy := 0; oy < outH; oy++ {
			sy := nearestSource(oy, h, outH)
			for ox := 0; ox < outW; ox++ {
				dst[(p*outH+oy)*outW+ox] = src[(p*h+sy)*w+nearestSource(ox, w, outW)]
			}
		}
	}, cpu.parallel)
	return out
}

// UpsampleNearestBackward routes every output gradient back to the source
// pixel it was copied from, summing where several outputs share a source.
func (cpu *CPUBackend) UpsampleNearestBackward(grad *tensor.RawTensor, inH, inW int) *tensor.RawTensor {
	shape := grad.Shape()
	if len(shape) != 4 {
		panic(fmt.Sprintf("upsample_nearest_backward: grad must be 4D [N,C,H,W], got %v", shape))
	}

	planes, outH, outW := shape[0]*shape[1], shape[2], shape[3]
	out := cpu.alloc("upsample_nearest_backward", tensor.Shape{shape[0], shape[1], inH, inW})
	src, dst := grad.Data(), out.Data()
	parallel.For(planes, func(p int) {
		for oy := 0; oy < outH; oy++ {
			sy := nearestSource(oy, inH, outH)
			for ox := 0; ox < outW; ox++ {
				dst[(p*inH+sy)*inW+nearestSource(ox, inW, outW)] += src[(p*outH+oy)*outW+ox]
			}
		}
	}, cpu.parallel)
	return out
}
