package nn

import (
	"fmt"

	"github.com/pkg/errors"

	"github.com/rainfishy/GraphDiseaseYOLOv8/internal/tensor"
)

// BiFPNConfig configures a two-input BiFPN layer.
//
// SecondInChannels is the channel count of the second input. Zero means it
// equals InChannels.
type BiFPNConfig struct {
	InChannels       int     `yaml:"in_channels"`
	OutChannels      int     `yaml:"out_channels"`
	SecondInChannels int     `yaml:"second_in_channels"`
	Eps              float32 `yaml:"eps"`
}

// DefaultBiFPNConfig returns the fusion defaults; channel counts are left to
// the caller.
func DefaultBiFPNConfig() BiFPNConfig {
	return BiFPNConfig{Eps: DefaultFusionConfig().Eps}
}

// Validate checks the configuration.
func (c BiFPNConfig) Validate() error {
	if c.InChannels <= 0 || c.OutChannels <= 0 {
		return errors.Errorf("bifpn: invalid channels in=%d, out=%d", c.InChannels, c.OutChannels)
	}
	if c.SecondInChannels < 0 {
		return errors.Errorf("bifpn: invalid second input channels %d", c.SecondInChannels)
	}
	if c.Eps <= 0 {
		return errors.Errorf("bifpn: eps must be positive, got %g", c.Eps)
	}
	return nil
}

// BiFPN is a two-input bidirectional fusion layer:
//
//  1. x2 is resized to x1's height and width (nearest) when they differ
//  2. each input whose channel count differs from OutChannels goes through
//     its own 1×1 Conv projection
//  3. the two are combined by a WeightedFusion
//  4. a 3×3 Conv produces the output
//
// Both projections are created by the constructor, so the layer holds no
// lazily initialised state and is safe to call from several goroutines.
type BiFPN[B tensor.Backend] struct {
	inChannels       int
	secondInChannels int
	outChannels      int

	align1 *Conv[B] // nil when inChannels == outChannels
	align2 *Conv[B] // nil when secondInChannels == outChannels
	fusion *WeightedFusion[B]
	conv   *Conv[B]
}

// NewBiFPN creates a BiFPN layer. secondInChannels 0 means inChannels.
// It panics on invalid channel counts.
func NewBiFPN[B tensor.Backend](inChannels, outChannels, secondInChannels int, backend B) *BiFPN[B] {
	return NewBiFPNFromConfig(BiFPNConfig{
		InChannels:       inChannels,
		OutChannels:      outChannels,
		SecondInChannels: secondInChannels,
		Eps:              DefaultFusionConfig().Eps,
	}, backend)
}

// NewBiFPNFromConfig creates a BiFPN layer from a full configuration.
// It panics if the configuration is invalid.
func NewBiFPNFromConfig[B tensor.Backend](cfg BiFPNConfig, backend B) *BiFPN[B] {
	if err := cfg.Validate(); err != nil {
		panic(err.Error())
	}
	if cfg.SecondInChannels == 0 {
		cfg.SecondInChannels = cfg.InChannels
	}

	b := &BiFPN[B]{
		inChannels:       cfg.InChannels,
		secondInChannels: cfg.SecondInChannels,
		outChannels:      cfg.OutChannels,
		fusion:           NewWeightedFusion(2, cfg.Eps, backend),
		conv:             NewConv(cfg.OutChannels, cfg.OutChannels, 3, 1, backend),
	}
	if cfg.InChannels != cfg.OutChannels {
		b.align1 = NewConv(cfg.InChannels, cfg.OutChannels, 1, 1, backend)
		prefix("align1", b.align1.Parameters())
	}
	if cfg.SecondInChannels != cfg.OutChannels {
		b.align2 = NewConv(cfg.SecondInChannels, cfg.OutChannels, 1, 1, backend)
		prefix("align2", b.align2.Parameters())
	}
	prefix("fusion", b.fusion.Parameters())
	prefix("conv", b.conv.Parameters())
	return b
}

// Forward fuses x1 [N, InChannels, H, W] with x2 [N, SecondInChannels, H2, W2]
// into [N, OutChannels, H, W].
func (b *BiFPN[B]) Forward(x1, x2 *tensor.Tensor[B]) *tensor.Tensor[B] {
	s1, s2 := x1.Shape(), x2.Shape()
	if len(s1) != 4 || len(s2) != 4 {
		panic(fmt.Sprintf("bifpn: expected 4D inputs [N,C,H,W], got %v and %v", s1, s2))
	}
	if s1[0] != s2[0] {
		panic(fmt.Sprintf("bifpn: batch sizes differ: %d vs %d", s1[0], s2[0]))
	}
	if s1[1] != b.inChannels {
		panic(fmt.Sprintf("bifpn: first input has %d channels, layer expects %d", s1[1], b.inChannels))
	}
	if s2[1] != b.secondInChannels {
		panic(fmt.Sprintf("bifpn: second input has %d channels, layer expects %d", s2[1], b.secondInChannels))
	}

	if s2[2] != s1[2] || s2[3] != s1[3] {
		x2 = x2.UpsampleNearest(s1[2], s1[3])
	}
	if b.align1 != nil {
		x1 = b.align1.Forward(x1)
	}
	if b.align2 != nil {
		x2 = b.align2.Forward(x2)
	}
	return b.conv.Forward(b.fusion.Forward(x1, x2))
}

// ForwardMulti implements MultiInputModule. It panics unless given two inputs.
func (b *BiFPN[B]) ForwardMulti(inputs []*tensor.Tensor[B]) *tensor.Tensor[B] {
	if len(inputs) != 2 {
		panic(fmt.Sprintf("bifpn: expected 2 inputs, got %d", len(inputs)))
	}
	return b.Forward(inputs[0], inputs[1])
}

// Parameters returns all trainable parameters.
func (b *BiFPN[B]) Parameters() []*Parameter[B] {
	var params []*Parameter[B]
	if b.align1 != nil {
		params = append(params, b.align1.Parameters()...)
	}
	if b.align2 != nil {
		params = append(params, b.align2.Parameters()...)
	}
	params = append(params, b.fusion.Parameters()...)
	return append(params, b.conv.Parameters()...)
}

// Fusion returns the weighted fusion primitive.
func (b *BiFPN[B]) Fusion() *WeightedFusion[B] {
	return b.fusion
}

// OutChannels returns the number of output channels.
func (b *BiFPN[B]) OutChannels() int {
	return b.outChannels
}

// String returns a string representation of the layer.
func (b *BiFPN[B]) String() string {
	return fmt.Sprintf("BiFPN(in=%d, second_in=%d, out=%d, align1=%v, align2=%v)",
		b.inChannels, b.secondInChannels, b.outChannels, b.align1 != nil, b.align2 != nil)
}
