package graph

import (
	"github.com/pkg/errors"
	"github.com/rs/zerolog"

	"github.com/rainfishy/GraphDiseaseYOLOv8/internal/nn"
	"github.com/rainfishy/GraphDiseaseYOLOv8/internal/tensor"
)

// Option configures a Builder.
type Option func(*builderOptions)

type builderOptions struct {
	logger zerolog.Logger
}

// WithLogger makes the builder report each constructed layer.
func WithLogger(logger zerolog.Logger) Option {
	return func(o *builderOptions) { o.logger = logger }
}

// Builder turns descriptions into models using a registry.
type Builder[B tensor.Backend] struct {
	registry *Registry[B]
	logger   zerolog.Logger
}

// NewBuilder creates a builder. It logs nothing unless WithLogger is given.
func NewBuilder[B tensor.Backend](registry *Registry[B], opts ...Option) *Builder[B] {
	o := builderOptions{logger: zerolog.Nop()}
	for _, opt := range opts {
		opt(&o)
	}
	return &Builder[B]{
		registry: registry,
		logger:   o.logger.With().Str("component", "graph").Logger(),
	}
}

// Build validates desc and constructs every layer on backend.
func (b *Builder[B]) Build(desc *Description, backend B) (*Model[B], error) {
	if err := desc.Validate(); err != nil {
		return nil, err
	}

	channels := make([]int, len(desc.Layers))
	nodes := make([]node[B], len(desc.Layers))
	for i, spec := range desc.Layers {
		from, err := desc.resolve(i)
		if err != nil {
			return nil, err
		}

		constructor, ok := b.registry.Lookup(spec.Module)
		if !ok {
			return nil, errors.Errorf("layer %d: unknown module %q (registered: %v)",
				i, spec.Module, b.registry.Names())
		}

		in := make([]int, len(from))
		for k, at := range from {
			if at == inputIndex {
				in[k] = desc.Channels
			} else {
				in[k] = channels[at]
			}
		}

		layer, err := constructor(BuildContext[B]{Backend: backend, InChannels: in, Args: spec.Args})
		if err != nil {
			return nil, errors.Wrapf(err, "layer %d (%s)", i, spec.Module)
		}

		channels[i] = layer.OutChannels()
		nodes[i] = node[B]{module: spec.Module, from: from, layer: layer}
		b.logger.Debug().
			Int("layer", i).
			Str("module", spec.Module).
			Ints("from", from).
			Ints("in_channels", in).
			Int("out_channels", channels[i]).
			Int("params", nn.CountParameters(layer.Parameters())).
			Msg("layer built")
	}

	m := &Model[B]{
		name:       desc.Name,
		inChannels: desc.Channels,
		nodes:      nodes,
		outputs:    append([]int(nil), desc.outputs()...),
		criteria:   newCriteria[B](desc.Losses),
	}
	b.logger.Info().
		Str("model", m.name).
		Int("layers", len(nodes)).
		Int("params", nn.CountParameters(m.Parameters())).
		Msg("model built")
	return m, nil
}
