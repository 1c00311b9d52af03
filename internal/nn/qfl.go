package nn

import (
	"fmt"

	"github.com/chewxy/math32"
	"github.com/pkg/errors"

	"github.com/rainfishy/GraphDiseaseYOLOv8/internal/tensor"
)

// QFLConfig configures a QualityFocalLoss.
type QFLConfig struct {
	UseSigmoid bool      `yaml:"use_sigmoid"`
	Beta       float32   `yaml:"beta"`
	Reduction  Reduction `yaml:"reduction"`
}

// DefaultQFLConfig returns use_sigmoid=true, beta=2, reduction=mean.
func DefaultQFLConfig() QFLConfig {
	return QFLConfig{UseSigmoid: true, Beta: 2, Reduction: ReductionMean}
}

// Validate checks the configuration.
func (c QFLConfig) Validate() error {
	if c.Beta < 0 {
		return errors.Errorf("qfl: beta must be non-negative, got %g", c.Beta)
	}
	return errors.Wrap(c.Reduction.Validate(), "qfl")
}

// bceLogFloor matches the floor binary cross-entropy applies to log terms.
const bceLogFloor = -100

// QualityFocalLoss scores raw predictions against continuous quality targets
// in [0, 1]:
//
//	p = sigmoid(pred)
//	loss = |target - p|^beta * BCE(pred, 0) - target * log(p)
//
// BCE(pred, 0) is softplus(pred). Without sigmoid, pred holds probabilities
// and the loss is BCE(pred, target) * |target - pred|^beta.
type QualityFocalLoss[B tensor.Backend] struct {
	useSigmoid bool
	beta       float32
	reduction  Reduction
}

// NewQualityFocalLoss creates the loss. It panics on a negative beta or an
// unknown reduction.
func NewQualityFocalLoss[B tensor.Backend](useSigmoid bool, beta float32, reduction Reduction) *QualityFocalLoss[B] {
	if err := (QFLConfig{UseSigmoid: useSigmoid, Beta: beta, Reduction: reduction}).Validate(); err != nil {
		panic(err.Error())
	}
	return &QualityFocalLoss[B]{useSigmoid: useSigmoid, beta: beta, reduction: reduction}
}

// Forward computes the loss. pred and target must have the same shape.
// Targets are clamped to [0, 1].
func (l *QualityFocalLoss[B]) Forward(pred, target *tensor.Tensor[B], opts ...LossOption[B]) *tensor.Tensor[B] {
	if !pred.Shape().Equal(target.Shape()) {
		panic(fmt.Sprintf("qfl: pred shape %v != target shape %v", pred.Shape(), target.Shape()))
	}
	o := collectOptions(opts)
	target = target.Clamp(0, 1)

	var loss *tensor.Tensor[B]
	if l.useSigmoid {
		scale := target.Sub(pred.Sigmoid()).Abs().Pow(l.beta)
		loss = pred.Softplus().Mul(scale).Sub(target.Mul(pred.LogSigmoid()))
	} else {
		scale := target.Sub(pred).Abs().Pow(l.beta)
		logP := pred.Log().Clamp(bceLogFloor, math32.MaxFloat32)
		log1mP := pred.Neg().AddScalar(1).Log().Clamp(bceLogFloor, math32.MaxFloat32)
		bce := target.Mul(logP).Add(target.Neg().AddScalar(1).Mul(log1mP)).Neg()
		loss = bce.Mul(scale)
	}

	loss = applyWeight("qfl", loss, o.weight)
	return reduce(loss, l.reduction, o)
}

// Reduction returns the configured reduction.
func (l *QualityFocalLoss[B]) Reduction() Reduction {
	return l.reduction
}

// String returns a string representation of the loss.
func (l *QualityFocalLoss[B]) String() string {
	return fmt.Sprintf("QualityFocalLoss(use_sigmoid=%v, beta=%g, reduction=%s)", l.useSigmoid, l.beta, l.reduction)
}
