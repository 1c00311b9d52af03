package graph

import (
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/pkg/errors"

	"github.com/rainfishy/GraphDiseaseYOLOv8/internal/nn"
	"github.com/rainfishy/GraphDiseaseYOLOv8/internal/tensor"
)

type node[B tensor.Backend] struct {
	module string
	from   []int // inputIndex is the model input
	layer  Layer[B]
}

// Model is a built layer graph.
//
// Forward only reads parameters, so a Model may be evaluated from several
// goroutines at once.
type Model[B tensor.Backend] struct {
	name       string
	inChannels int
	nodes      []node[B]
	outputs    []int
	criteria   Criteria[B]
}

// Forward evaluates every layer in order and returns the outputs listed by
// the description. It panics if x is not [N, Channels, H, W].
func (m *Model[B]) Forward(x *tensor.Tensor[B]) []*tensor.Tensor[B] {
	if s := x.Shape(); len(s) != 4 || s[1] != m.inChannels {
		panic(fmt.Sprintf("model %s: expected input [N, %d, H, W], got %v", m.name, m.inChannels, s))
	}

	results := make([]*tensor.Tensor[B], len(m.nodes))
	for i, n := range m.nodes {
		inputs := make([]*tensor.Tensor[B], len(n.from))
		for k, at := range n.from {
			if at == inputIndex {
				inputs[k] = x
			} else {
				inputs[k] = results[at]
			}
		}
		results[i] = n.layer.ForwardMulti(inputs)
	}

	out := make([]*tensor.Tensor[B], len(m.outputs))
	for k, at := range m.outputs {
		out[k] = results[at]
	}
	return out
}

// Parameters returns all trainable parameters in layer order.
func (m *Model[B]) Parameters() []*nn.Parameter[B] {
	var params []*nn.Parameter[B]
	for _, n := range m.nodes {
		params = append(params, n.layer.Parameters()...)
	}
	return params
}

// StateDict maps "<layer>.<parameter>" to parameter storage.
func (m *Model[B]) StateDict() map[string]*tensor.RawTensor {
	state := make(map[string]*tensor.RawTensor)
	for i, n := range m.nodes {
		for _, p := range n.layer.Parameters() {
			state[fmt.Sprintf("%d.%s", i, p.Name())] = p.Tensor().Raw()
		}
	}
	return state
}

// LoadStateDict copies values from state into the parameters. Every
// parameter must be present with a matching shape; extra keys are an error.
func (m *Model[B]) LoadStateDict(state map[string]*tensor.RawTensor) error {
	own := m.StateDict()
	for key := range state {
		if _, ok := own[key]; !ok {
			return errors.Errorf("load state: unexpected key %q", key)
		}
	}
	for key, dst := range own {
		src, ok := state[key]
		if !ok {
			return errors.Errorf("load state: missing key %q", key)
		}
		if !src.Shape().Equal(dst.Shape()) {
			return errors.Errorf("load state: %s has shape %v, expected %v", key, src.Shape(), dst.Shape())
		}
	}
	for key, dst := range own {
		copy(dst.Data(), state[key].Data())
	}
	return nil
}

// Layer returns the layer at index i.
func (m *Model[B]) Layer(i int) Layer[B] {
	return m.nodes[i].layer
}

// NumLayers returns the number of layers.
func (m *Model[B]) NumLayers() int {
	return len(m.nodes)
}

// Name returns the model name.
func (m *Model[B]) Name() string {
	return m.name
}

// InChannels returns the expected input channel count.
func (m *Model[B]) InChannels() int {
	return m.inChannels
}

// Criteria returns the losses named by the description.
func (m *Model[B]) Criteria() Criteria[B] {
	return m.criteria
}

// Summary renders one row per layer.
func (m *Model[B]) Summary() string {
	var sb strings.Builder
	w := tabwriter.NewWriter(&sb, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "#\tfrom\tmodule\tout\tparams")
	total := 0
	for i, n := range m.nodes {
		count := nn.CountParameters(n.layer.Parameters())
		total += count
		fmt.Fprintf(w, "%d\t%v\t%s\t%d\t%d\n", i, n.from, n.module, n.layer.OutChannels(), count)
	}
	_ = w.Flush()
	fmt.Fprintf(&sb, "%s: %d layers, %d parameters\n", m.name, len(m.nodes), total)
	return sb.String()
}
