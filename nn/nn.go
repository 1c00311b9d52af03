// Copyright 2026 GraphDiseaseYOLOv8 Authors. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

// Package nn provides the detector plug-ins: SimAM attention, weighted
// feature fusion, the BiFPN layer and the Quality and Distribution Focal
// losses, plus the Conv, Upsample, MaxPool2D, SPPF and Concat blocks they are
// assembled with.
//
// Layers are generic over the backend. Wrap the backend with autodiff to
// train them:
//
//	backend := autodiff.New(cpu.New())
//	bifpn := nn.NewBiFPN(64, 128, 256, backend)
//	qfl := nn.NewQualityFocalLoss[autodiff.Backend[*cpu.Backend]](true, 2, nn.ReductionMean)
package nn

import (
	"github.com/rainfishy/GraphDiseaseYOLOv8/internal/nn"
	"github.com/rainfishy/GraphDiseaseYOLOv8/internal/tensor"
)

// Module is implemented by single-input layers.
type Module[B tensor.Backend] = nn.Module[B]

// MultiInputModule is implemented by layers that take a list of inputs.
type MultiInputModule[B tensor.Backend] = nn.MultiInputModule[B]

// Parameter represents a trainable parameter in a neural network.
type Parameter[B tensor.Backend] = nn.Parameter[B]

// NewParameter creates a new parameter with the given name and tensor.
func NewParameter[B tensor.Backend](name string, t *tensor.Tensor[B]) *Parameter[B] {
	return nn.NewParameter(name, t)
}

// CountParameters returns the number of scalar values in params.
func CountParameters[B tensor.Backend](params []*Parameter[B]) int {
	return nn.CountParameters(params)
}

// Layers

// Conv2D represents a 2D convolutional layer.
type Conv2D[B tensor.Backend] = nn.Conv2D[B]

// NewConv2D creates a new 2D convolutional layer.
//
// Example:
//
//	conv := nn.NewConv2D(3, 16, 3, 3, 1, 1, true, backend)  // 3x3, stride 1, padding 1, bias
func NewConv2D[B tensor.Backend](
	inChannels, outChannels int,
	kernelH, kernelW int,
	stride, padding int,
	useBias bool,
	backend B,
) *Conv2D[B] {
	return nn.NewConv2D(inChannels, outChannels, kernelH, kernelW, stride, padding, useBias, backend)
}

// Conv is a Conv2D with "same" padding followed by SiLU.
type Conv[B tensor.Backend] = nn.Conv[B]

// NewConv creates a Conv block with a square kernel.
func NewConv[B tensor.Backend](inChannels, outChannels, kernel, stride int, backend B) *Conv[B] {
	return nn.NewConv(inChannels, outChannels, kernel, stride, backend)
}

// Upsample resizes feature maps by an integer factor (nearest).
type Upsample[B tensor.Backend] = nn.Upsample[B]

// NewUpsample creates an Upsample layer.
func NewUpsample[B tensor.Backend](scale int) *Upsample[B] {
	return nn.NewUpsample[B](scale)
}

// Plug-ins

// MaxPool2D is max pooling over square windows.
type MaxPool2D[B tensor.Backend] = nn.MaxPool2D[B]

// NewMaxPool2D creates a MaxPool2D layer.
func NewMaxPool2D[B tensor.Backend](kernelSize, stride, padding int) *MaxPool2D[B] {
	return nn.NewMaxPool2D[B](kernelSize, stride, padding)
}

// Concat joins feature maps along the channel dimension.
type Concat[B tensor.Backend] = nn.Concat[B]

// NewConcat creates a Concat layer.
func NewConcat[B tensor.Backend]() *Concat[B] {
	return nn.NewConcat[B]()
}

// SPPF is YOLOv8's fast spatial pyramid pooling block.
type SPPF[B tensor.Backend] = nn.SPPF[B]

// NewSPPF creates an SPPF block.
func NewSPPF[B tensor.Backend](inChannels, outChannels, kernel int, backend B) *SPPF[B] {
	return nn.NewSPPF(inChannels, outChannels, kernel, backend)
}

// SimAMConfig configures SimAM.
type SimAMConfig = nn.SimAMConfig

// DefaultSimAMConfig returns e_lambda = 1e-4.
func DefaultSimAMConfig() SimAMConfig {
	return nn.DefaultSimAMConfig()
}

// SimAM is the parameter-free attention layer.
type SimAM[B tensor.Backend] = nn.SimAM[B]

// NewSimAM creates a SimAM layer.
func NewSimAM[B tensor.Backend](eLambda float32) *SimAM[B] {
	return nn.NewSimAM[B](eLambda)
}

// FusionConfig configures WeightedFusion.
type FusionConfig = nn.FusionConfig

// DefaultFusionConfig returns two inputs with eps = 1e-4.
func DefaultFusionConfig() FusionConfig {
	return nn.DefaultFusionConfig()
}

// WeightedFusion combines same-shape tensors with learned non-negative
// normalised weights.
type WeightedFusion[B tensor.Backend] = nn.WeightedFusion[B]

// NewWeightedFusion creates a fusion layer.
func NewWeightedFusion[B tensor.Backend](numInputs int, eps float32, backend B) *WeightedFusion[B] {
	return nn.NewWeightedFusion(numInputs, eps, backend)
}

// BiFPNConfig configures BiFPN.
type BiFPNConfig = nn.BiFPNConfig

// DefaultBiFPNConfig returns the fusion defaults.
func DefaultBiFPNConfig() BiFPNConfig {
	return nn.DefaultBiFPNConfig()
}

// BiFPN is the two-input bidirectional fusion layer.
type BiFPN[B tensor.Backend] = nn.BiFPN[B]

// NewBiFPN creates a BiFPN layer. secondInChannels 0 means inChannels.
func NewBiFPN[B tensor.Backend](inChannels, outChannels, secondInChannels int, backend B) *BiFPN[B] {
	return nn.NewBiFPN(inChannels, outChannels, secondInChannels, backend)
}

// NewBiFPNFromConfig creates a BiFPN layer from a configuration.
func NewBiFPNFromConfig[B tensor.Backend](cfg BiFPNConfig, backend B) *BiFPN[B] {
	return nn.NewBiFPNFromConfig(cfg, backend)
}

// Losses

// Reduction selects how a loss collapses its element-wise values.
type Reduction = nn.Reduction

// Supported reductions.
const (
	ReductionNone = nn.ReductionNone
	ReductionMean = nn.ReductionMean
	ReductionSum  = nn.ReductionSum
)

// ParseReduction converts a name to a Reduction.
func ParseReduction(s string) (Reduction, error) {
	return nn.ParseReduction(s)
}

// Loss is implemented by QualityFocalLoss and DistributionFocalLoss.
type Loss[B tensor.Backend] = nn.Loss[B]

// LossOption configures a single loss evaluation.
type LossOption[B tensor.Backend] = nn.LossOption[B]

// WithWeight multiplies the element-wise loss by w before reduction.
func WithWeight[B tensor.Backend](w *tensor.Tensor[B]) LossOption[B] {
	return nn.WithWeight(w)
}

// WithAvgFactor replaces the element count of a mean reduction by f.
func WithAvgFactor[B tensor.Backend](f float32) LossOption[B] {
	return nn.WithAvgFactor[B](f)
}

// QFLConfig configures QualityFocalLoss.
type QFLConfig = nn.QFLConfig

// DefaultQFLConfig returns use_sigmoid=true, beta=2, reduction=mean.
func DefaultQFLConfig() QFLConfig {
	return nn.DefaultQFLConfig()
}

// QualityFocalLoss scores predictions against continuous quality targets.
type QualityFocalLoss[B tensor.Backend] = nn.QualityFocalLoss[B]

// NewQualityFocalLoss creates the loss.
func NewQualityFocalLoss[B tensor.Backend](useSigmoid bool, beta float32, reduction Reduction) *QualityFocalLoss[B] {
	return nn.NewQualityFocalLoss[B](useSigmoid, beta, reduction)
}

// DFLConfig configures DistributionFocalLoss.
type DFLConfig = nn.DFLConfig

// DefaultDFLConfig returns reduction=mean.
func DefaultDFLConfig() DFLConfig {
	return nn.DefaultDFLConfig()
}

// DistributionFocalLoss learns a continuous target through a discrete
// distribution over bins.
type DistributionFocalLoss[B tensor.Backend] = nn.DistributionFocalLoss[B]

// NewDistributionFocalLoss creates the loss.
func NewDistributionFocalLoss[B tensor.Backend](reduction Reduction) *DistributionFocalLoss[B] {
	return nn.NewDistributionFocalLoss[B](reduction)
}
