// Package cpu implements the CPU backend. Convolutions go through gonum's
// float32 BLAS; element-wise math uses math32 to stay in float32.
package cpu

import (
	"fmt"

	"github.com/rainfishy/GraphDiseaseYOLOv8/internal/parallel"
	"github.com/rainfishy/GraphDiseaseYOLOv8/internal/tensor"
)

// CPUBackend implements tensor.Backend on the host CPU.
//
// Convolutions run one goroutine per image chunk and nearest upsampling one
// per plane chunk; everything else is sequential.
type CPUBackend struct {
	device   tensor.Device
	parallel parallel.Config
}

// Compile-time check that CPUBackend implements tensor.Backend.
var _ tensor.Backend = (*CPUBackend)(nil)

// New creates a new CPU backend using every available core.
func New() *CPUBackend {
	return NewWithConfig(parallel.DefaultConfig())
}

// NewWithConfig creates a CPU backend with explicit parallelism.
func NewWithConfig(cfg parallel.Config) *CPUBackend {
	return &CPUBackend{device: tensor.CPU, parallel: cfg}
}

// Name returns the backend name.
func (cpu *CPUBackend) Name() string {
	return "CPU"
}

// Device returns the compute device.
func (cpu *CPUBackend) Device() tensor.Device {
	return cpu.device
}

func (cpu *CPUBackend) alloc(op string, shape tensor.Shape) *tensor.RawTensor {
	out, err := tensor.NewRaw(shape, cpu.device)
	if err != nil {
		panic(fmt.Sprintf("%s: failed to create result tensor: %v", op, err))
	}
	return out
}

// lanes splits shape around dim into (outer, size, inner) so that element
// (o, k, i) sits at flat index (o*size+k)*inner + i.
func lanes(shape tensor.Shape, dim int) (outer, size, inner int) {
	outer, inner = 1, 1
	for _, d := range shape[:dim] {
		outer *= d
	}
	for _, d := range shape[dim+1:] {
		inner *= d
	}
	return outer, shape[dim], inner
}

func checkDim(op string, shape tensor.Shape, dim int) {
	if dim < 0 || dim >= len(shape) {
		panic(fmt.Sprintf("%s: dimension %d out of range for shape %v", op, dim, shape))
	}
}
