package graph

import (
	"os"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"

	"github.com/rainfishy/GraphDiseaseYOLOv8/internal/nn"
)

// Description is a YAML model description:
//
//	name: grape-simam-bifpn
//	channels: 3
//	layers:
//	  - {from: -1, module: Conv, args: {out_channels: 16, kernel: 3, stride: 2}}
//	  - {from: -1, module: SimAM}
//	  - {from: [-1, 0], module: BiFPN, args: {out_channels: 16}}
//	outputs: [2]
//	losses:
//	  cls: {beta: 2}
//	  box: {reduction: mean}
//
// A "from" index is either absolute (0-based layer index) or negative and
// relative to the layer being built, so -1 is the previous layer. For the
// first layer -1 is the model input.
type Description struct {
	Name     string      `yaml:"name"`
	Channels int         `yaml:"channels"`
	Layers   []LayerSpec `yaml:"layers"`
	// Outputs lists the layers whose results Model.Forward returns. Empty
	// means the last layer.
	Outputs []int     `yaml:"outputs"`
	Losses  *LossSpec `yaml:"losses"`
}

// LayerSpec describes one layer.
type LayerSpec struct {
	From   From      `yaml:"from"`
	Module string    `yaml:"module"`
	Args   yaml.Node `yaml:"args"`
}

// From lists the inputs of a layer. In YAML it is a single index or a list.
// A missing "from" means -1.
type From []int

// UnmarshalYAML accepts either a scalar or a sequence of indices.
func (f *From) UnmarshalYAML(value *yaml.Node) error {
	if value.Kind == yaml.ScalarNode {
		var i int
		if err := value.Decode(&i); err != nil {
			return errors.Wrapf(err, "line %d: from", value.Line)
		}
		*f = From{i}
		return nil
	}
	var list []int
	if err := value.Decode(&list); err != nil {
		return errors.Wrapf(err, "line %d: from", value.Line)
	}
	*f = list
	return nil
}

// LossSpec selects the training criteria. Omitted fields of each config keep
// their defaults.
type LossSpec struct {
	Cls *nn.QFLConfig `yaml:"cls"`
	Box *nn.DFLConfig `yaml:"box"`
}

// UnmarshalYAML decodes each criterion on top of its default config.
func (l *LossSpec) UnmarshalYAML(value *yaml.Node) error {
	var raw struct {
		Cls yaml.Node `yaml:"cls"`
		Box yaml.Node `yaml:"box"`
	}
	if err := value.Decode(&raw); err != nil {
		return err
	}
	if raw.Cls.Kind != 0 {
		cfg := nn.DefaultQFLConfig()
		if err := raw.Cls.Decode(&cfg); err != nil {
			return errors.Wrap(err, "losses.cls")
		}
		l.Cls = &cfg
	}
	if raw.Box.Kind != 0 {
		cfg := nn.DefaultDFLConfig()
		if err := raw.Box.Decode(&cfg); err != nil {
			return errors.Wrap(err, "losses.box")
		}
		l.Box = &cfg
	}
	return nil
}

// Parse decodes and validates a description.
func Parse(data []byte) (*Description, error) {
	var desc Description
	if err := yaml.Unmarshal(data, &desc); err != nil {
		return nil, errors.Wrap(err, "parse model description")
	}
	if err := desc.Validate(); err != nil {
		return nil, err
	}
	return &desc, nil
}

// LoadFile reads and parses a description file.
func LoadFile(path string) (*Description, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrap(err, "read model description")
	}
	desc, err := Parse(data)
	if err != nil {
		return nil, errors.Wrapf(err, "load %s", path)
	}
	return desc, nil
}

// Validate checks the structure of the description: channel count, module
// names, input indices and outputs. Module args are checked by Builder.Build.
func (d *Description) Validate() error {
	if d.Channels <= 0 {
		return errors.Errorf("model %q: channels must be positive, got %d", d.Name, d.Channels)
	}
	if len(d.Layers) == 0 {
		return errors.Errorf("model %q: no layers", d.Name)
	}
	for i, layer := range d.Layers {
		if layer.Module == "" {
			return errors.Errorf("layer %d: missing module", i)
		}
		if _, err := d.resolve(i); err != nil {
			return err
		}
	}
	for _, o := range d.Outputs {
		if o < 0 || o >= len(d.Layers) {
			return errors.Errorf("model %q: output %d out of range [0, %d)", d.Name, o, len(d.Layers))
		}
	}
	if d.Losses != nil {
		if c := d.Losses.Cls; c != nil {
			if err := c.Validate(); err != nil {
				return errors.Wrap(err, "losses.cls")
			}
		}
		if c := d.Losses.Box; c != nil {
			if err := c.Validate(); err != nil {
				return errors.Wrap(err, "losses.box")
			}
		}
	}
	return nil
}

// inputIndex is the position of the model input in resolved indices.
const inputIndex = -1

// resolve turns the "from" of layer i into absolute layer indices, with
// inputIndex standing for the model input.
func (d *Description) resolve(i int) ([]int, error) {
	from := d.Layers[i].From
	if len(from) == 0 {
		from = From{-1}
	}
	out := make([]int, len(from))
	for k, f := range from {
		if i == 0 && f == -1 {
			out[k] = inputIndex
			continue
		}
		at := f
		if f < 0 {
			at = i + f
		}
		if at < 0 || at >= i {
			return nil, errors.Errorf("layer %d (%s): from %d does not refer to an earlier layer",
				i, d.Layers[i].Module, f)
		}
		out[k] = at
	}
	return out, nil
}

// outputs returns the output layer indices, defaulting to the last layer.
func (d *Description) outputs() []int {
	if len(d.Outputs) == 0 {
		return []int{len(d.Layers) - 1}
	}
	return d.Outputs
}
