// Package graph assembles detector models from YAML descriptions.
//
// Layer types are looked up by name in a Registry, so new plug-ins are added
// by registering a Constructor rather than by editing a parser:
//
//	registry := graph.NewRegistry[B]()
//	desc, err := graph.LoadFile("configs/grape-simam-bifpn.yaml")
//	model, err := graph.NewBuilder(registry).Build(desc, backend)
//	outputs := model.Forward(x)
//
// Channel counts are resolved while building, so every layer, including the
// second BiFPN projection, is fully constructed before the first forward pass.
package graph

import (
	"sort"
	"sync"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"

	"github.com/rainfishy/GraphDiseaseYOLOv8/internal/nn"
	"github.com/rainfishy/GraphDiseaseYOLOv8/internal/tensor"
)

// BuildContext is what a Constructor sees of the model being built.
type BuildContext[B tensor.Backend] struct {
	Backend B
	// InChannels holds the channel count of every input, in "from" order.
	InChannels []int
	// Args is the raw "args" mapping of the layer. Its Kind is zero when the
	// layer has no args.
	Args yaml.Node
}

// Decode fills v from the layer args. Fields absent from the args keep the
// values already in v, so callers pass a struct holding the defaults.
func (c BuildContext[B]) Decode(v any) error {
	if c.Args.Kind == 0 {
		return nil
	}
	return errors.Wrap(c.Args.Decode(v), "decode args")
}

// Constructor creates a layer from its build context.
type Constructor[B tensor.Backend] func(ctx BuildContext[B]) (Layer[B], error)

// Registry maps module names to constructors. It is safe for concurrent use.
type Registry[B tensor.Backend] struct {
	mu           sync.RWMutex
	constructors map[string]Constructor[B]
}

// NewRegistry returns a registry holding the built-in modules: Conv, SimAM,
// Upsample, MaxPool, SPPF, Concat, WeightedFusion and BiFPN.
func NewRegistry[B tensor.Backend]() *Registry[B] {
	r := NewEmptyRegistry[B]()
	for name, c := range map[string]Constructor[B]{
		"Conv":           newConvLayer[B],
		"SimAM":          newSimAMLayer[B],
		"Upsample":       newUpsampleLayer[B],
		"MaxPool":        newMaxPoolLayer[B],
		"SPPF":           newSPPFLayer[B],
		"Concat":         newConcatLayer[B],
		"WeightedFusion": newFusionLayer[B],
		"BiFPN":          newBiFPNLayer[B],
	} {
		if err := r.Register(name, c); err != nil {
			panic(err.Error())
		}
	}
	return r
}

// NewEmptyRegistry returns a registry with no modules.
func NewEmptyRegistry[B tensor.Backend]() *Registry[B] {
	return &Registry[B]{constructors: make(map[string]Constructor[B])}
}

// Register adds a constructor under name.
func (r *Registry[B]) Register(name string, c Constructor[B]) error {
	if name == "" {
		return errors.New("registry: empty module name")
	}
	if c == nil {
		return errors.Errorf("registry: nil constructor for %q", name)
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.constructors[name]; ok {
		return errors.Errorf("registry: module %q already registered", name)
	}
	r.constructors[name] = c
	return nil
}

// Lookup returns the constructor registered under name.
func (r *Registry[B]) Lookup(name string) (Constructor[B], bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	c, ok := r.constructors[name]
	return c, ok
}

// Names returns the registered module names in sorted order.
func (r *Registry[B]) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.constructors))
	for name := range r.constructors {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func expectInputs[B tensor.Backend](module string, ctx BuildContext[B], n int) error {
	if len(ctx.InChannels) != n {
		return errors.Errorf("%s: expected %d inputs, got %d", module, n, len(ctx.InChannels))
	}
	return nil
}

// ConvArgs are the args of a Conv layer.
type ConvArgs struct {
	OutChannels int `yaml:"out_channels"`
	Kernel      int `yaml:"kernel"`
	Stride      int `yaml:"stride"`
}

func newConvLayer[B tensor.Backend](ctx BuildContext[B]) (Layer[B], error) {
	if err := expectInputs("Conv", ctx, 1); err != nil {
		return nil, err
	}
	args := ConvArgs{Kernel: 1, Stride: 1}
	if err := ctx.Decode(&args); err != nil {
		return nil, errors.Wrap(err, "Conv")
	}
	if args.OutChannels <= 0 || args.Kernel <= 0 || args.Stride <= 0 {
		return nil, errors.Errorf("Conv: invalid args out_channels=%d kernel=%d stride=%d",
			args.OutChannels, args.Kernel, args.Stride)
	}
	conv := nn.NewConv(ctx.InChannels[0], args.OutChannels, args.Kernel, args.Stride, ctx.Backend)
	return newSingle[B]("Conv", conv, args.OutChannels), nil
}

func newSimAMLayer[B tensor.Backend](ctx BuildContext[B]) (Layer[B], error) {
	if err := expectInputs("SimAM", ctx, 1); err != nil {
		return nil, err
	}
	cfg := nn.DefaultSimAMConfig()
	if err := ctx.Decode(&cfg); err != nil {
		return nil, errors.Wrap(err, "SimAM")
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return newSingle[B]("SimAM", nn.NewSimAM[B](cfg.ELambda), ctx.InChannels[0]), nil
}

// UpsampleArgs are the args of an Upsample layer.
type UpsampleArgs struct {
	Scale int `yaml:"scale"`
}

func newUpsampleLayer[B tensor.Backend](ctx BuildContext[B]) (Layer[B], error) {
	if err := expectInputs("Upsample", ctx, 1); err != nil {
		return nil, err
	}
	args := UpsampleArgs{Scale: 2}
	if err := ctx.Decode(&args); err != nil {
		return nil, errors.Wrap(err, "Upsample")
	}
	if args.Scale < 1 {
		return nil, errors.Errorf("Upsample: invalid scale %d", args.Scale)
	}
	return newSingle[B]("Upsample", nn.NewUpsample[B](args.Scale), ctx.InChannels[0]), nil
}

// MaxPoolArgs are the args of a MaxPool layer.
type MaxPoolArgs struct {
	Kernel  int `yaml:"kernel"`
	Stride  int `yaml:"stride"`
	Padding int `yaml:"padding"`
}

func newMaxPoolLayer[B tensor.Backend](ctx BuildContext[B]) (Layer[B], error) {
	if err := expectInputs("MaxPool", ctx, 1); err != nil {
		return nil, err
	}
	args := MaxPoolArgs{Kernel: 2, Stride: 2}
	if err := ctx.Decode(&args); err != nil {
		return nil, errors.Wrap(err, "MaxPool")
	}
	if args.Kernel <= 0 || args.Stride <= 0 || args.Padding < 0 || 2*args.Padding > args.Kernel {
		return nil, errors.Errorf("MaxPool: invalid args kernel=%d stride=%d padding=%d",
			args.Kernel, args.Stride, args.Padding)
	}
	pool := nn.NewMaxPool2D[B](args.Kernel, args.Stride, args.Padding)
	return newSingle[B]("MaxPool", pool, ctx.InChannels[0]), nil
}

// SPPFArgs are the args of an SPPF layer. OutChannels 0 keeps the input
// channel count.
type SPPFArgs struct {
	OutChannels int `yaml:"out_channels"`
	Kernel      int `yaml:"kernel"`
}

func newSPPFLayer[B tensor.Backend](ctx BuildContext[B]) (Layer[B], error) {
	if err := expectInputs("SPPF", ctx, 1); err != nil {
		return nil, err
	}
	args := SPPFArgs{Kernel: 5}
	if err := ctx.Decode(&args); err != nil {
		return nil, errors.Wrap(err, "SPPF")
	}
	if args.OutChannels == 0 {
		args.OutChannels = ctx.InChannels[0]
	}
	if args.OutChannels < 0 || args.Kernel <= 0 || args.Kernel%2 == 0 || ctx.InChannels[0] < 2 {
		return nil, errors.Errorf("SPPF: invalid args out_channels=%d kernel=%d for %d input channels",
			args.OutChannels, args.Kernel, ctx.InChannels[0])
	}
	return newSingle[B]("SPPF", nn.NewSPPF(ctx.InChannels[0], args.OutChannels, args.Kernel, ctx.Backend), args.OutChannels), nil
}

func newConcatLayer[B tensor.Backend](ctx BuildContext[B]) (Layer[B], error) {
	if len(ctx.InChannels) < 2 {
		return nil, errors.Errorf("Concat: expected at least 2 inputs, got %d", len(ctx.InChannels))
	}
	total := 0
	for _, c := range ctx.InChannels {
		total += c
	}
	return &concatLayer[B]{Concat: nn.NewConcat[B](), channels: total}, nil
}

func newFusionLayer[B tensor.Backend](ctx BuildContext[B]) (Layer[B], error) {
	cfg := nn.DefaultFusionConfig()
	cfg.NumInputs = 0
	if err := ctx.Decode(&cfg); err != nil {
		return nil, errors.Wrap(err, "WeightedFusion")
	}
	if cfg.NumInputs == 0 {
		cfg.NumInputs = len(ctx.InChannels)
	}
	if err := expectInputs("WeightedFusion", ctx, cfg.NumInputs); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	for i, c := range ctx.InChannels {
		if c != ctx.InChannels[0] {
			return nil, errors.Errorf("WeightedFusion: input %d has %d channels, input 0 has %d",
				i, c, ctx.InChannels[0])
		}
	}
	return &fusionLayer[B]{
		WeightedFusion: nn.NewWeightedFusion(cfg.NumInputs, cfg.Eps, ctx.Backend),
		channels:       ctx.InChannels[0],
	}, nil
}

func newBiFPNLayer[B tensor.Backend](ctx BuildContext[B]) (Layer[B], error) {
	if err := expectInputs("BiFPN", ctx, 2); err != nil {
		return nil, err
	}
	cfg := nn.DefaultBiFPNConfig()
	if err := ctx.Decode(&cfg); err != nil {
		return nil, errors.Wrap(err, "BiFPN")
	}
	if cfg.InChannels == 0 {
		cfg.InChannels = ctx.InChannels[0]
	}
	if cfg.SecondInChannels == 0 {
		cfg.SecondInChannels = ctx.InChannels[1]
	}
	if cfg.OutChannels == 0 {
		cfg.OutChannels = ctx.InChannels[0]
	}
	if cfg.InChannels != ctx.InChannels[0] || cfg.SecondInChannels != ctx.InChannels[1] {
		return nil, errors.Errorf("BiFPN: args declare inputs (%d, %d) but the graph provides (%d, %d)",
			cfg.InChannels, cfg.SecondInChannels, ctx.InChannels[0], ctx.InChannels[1])
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return nn.NewBiFPNFromConfig(cfg, ctx.Backend), nil
}
