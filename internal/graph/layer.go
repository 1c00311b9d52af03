package graph

import (
	"fmt"

	"github.com/rainfishy/GraphDiseaseYOLOv8/internal/nn"
	"github.com/rainfishy/GraphDiseaseYOLOv8/internal/tensor"
)

// Layer is a node of a built model: a multi-input module whose output
// channel count is known before any tensor flows through it.
type Layer[B tensor.Backend] interface {
	nn.MultiInputModule[B]
	OutChannels() int
}

// single adapts a one-input module to Layer.
type single[B tensor.Backend] struct {
	name        string
	module      nn.Module[B]
	outChannels int
}

func newSingle[B tensor.Backend](name string, module nn.Module[B], outChannels int) *single[B] {
	return &single[B]{name: name, module: module, outChannels: outChannels}
}

func (s *single[B]) ForwardMulti(inputs []*tensor.Tensor[B]) *tensor.Tensor[B] {
	if len(inputs) != 1 {
		panic(fmt.Sprintf("%s: expected 1 input, got %d", s.name, len(inputs)))
	}
	return s.module.Forward(inputs[0])
}

func (s *single[B]) Parameters() []*nn.Parameter[B] {
	return s.module.Parameters()
}

func (s *single[B]) OutChannels() int {
	return s.outChannels
}

func (s *single[B]) String() string {
	if str, ok := s.module.(fmt.Stringer); ok {
		return str.String()
	}
	return s.name
}

// fusionLayer gives WeightedFusion its channel count.
type fusionLayer[B tensor.Backend] struct {
	*nn.WeightedFusion[B]
	channels int
}

func (f *fusionLayer[B]) OutChannels() int {
	return f.channels
}

// concatLayer gives Concat the sum of its input channels.
type concatLayer[B tensor.Backend] struct {
	*nn.Concat[B]
	channels int
}

func (c *concatLayer[B]) OutChannels() int {
	return c.channels
}

func (c *concatLayer[B]) String() string {
	return fmt.Sprintf("Concat(out=%d)", c.channels)
}
