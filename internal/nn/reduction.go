package nn

import (
	"fmt"

	"github.com/pkg/errors"

	"github.com/rainfishy/GraphDiseaseYOLOv8/internal/tensor"
)

// Reduction selects how a loss collapses its element-wise values.
type Reduction string

// Supported reductions.
const (
	ReductionNone Reduction = "none"
	ReductionMean Reduction = "mean"
	ReductionSum  Reduction = "sum"
)

// ParseReduction converts a name to a Reduction.
func ParseReduction(s string) (Reduction, error) {
	r := Reduction(s)
	if err := r.Validate(); err != nil {
		return "", err
	}
	return r, nil
}

// Validate reports an unknown reduction.
func (r Reduction) Validate() error {
	switch r {
	case ReductionNone, ReductionMean, ReductionSum:
		return nil
	default:
		return errors.Errorf("unknown reduction %q (want none, mean or sum)", string(r))
	}
}

func (r Reduction) mustValidate(op string) {
	if err := r.Validate(); err != nil {
		panic(fmt.Sprintf("%s: %v", op, err))
	}
}

// LossOption configures a single loss evaluation.
type LossOption[B tensor.Backend] func(*lossOptions[B])

type lossOptions[B tensor.Backend] struct {
	weight    *tensor.Tensor[B]
	avgFactor float32
	hasAvg    bool
}

// WithWeight multiplies the element-wise loss by w before reduction. A 1-D
// weight of length N scales every element of the matching sample.
func WithWeight[B tensor.Backend](w *tensor.Tensor[B]) LossOption[B] {
	return func(o *lossOptions[B]) { o.weight = w }
}

// WithAvgFactor replaces the element count of a mean reduction by f.
func WithAvgFactor[B tensor.Backend](f float32) LossOption[B] {
	return func(o *lossOptions[B]) {
		o.avgFactor = f
		o.hasAvg = true
	}
}

func collectOptions[B tensor.Backend](opts []LossOption[B]) lossOptions[B] {
	var o lossOptions[B]
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

// Loss is implemented by QualityFocalLoss and DistributionFocalLoss.
type Loss[B tensor.Backend] interface {
	Forward(pred, target *tensor.Tensor[B], opts ...LossOption[B]) *tensor.Tensor[B]
}

// applyWeight multiplies loss by weight. A 1-D weight against a loss of higher
// rank is per sample: it is viewed as [N, 1, ..., 1] and scales every
// trailing element of its row.
func applyWeight[B tensor.Backend](op string, loss, weight *tensor.Tensor[B]) *tensor.Tensor[B] {
	if weight == nil {
		return loss
	}
	if rank := len(loss.Shape()); rank > 1 && len(weight.Shape()) == 1 {
		if weight.NumElements() != loss.Shape()[0] {
			panic(fmt.Sprintf("%s: per-sample weight %v does not match loss %v", op, weight.Shape(), loss.Shape()))
		}
		dims := make([]int, rank)
		for i := range dims {
			dims[i] = 1
		}
		dims[0] = weight.NumElements()
		weight = weight.Reshape(dims...)
	}
	if _, _, err := tensor.BroadcastShapes(loss.Shape(), weight.Shape()); err != nil {
		panic(fmt.Sprintf("%s: weight %v does not match loss %v", op, weight.Shape(), loss.Shape()))
	}
	return loss.Mul(weight)
}

// reduce collapses loss according to r. With an average factor a mean is
// sum/avgFactor; a sum ignores it.
func reduce[B tensor.Backend](loss *tensor.Tensor[B], r Reduction, o lossOptions[B]) *tensor.Tensor[B] {
	switch r {
	case ReductionMean:
		if o.hasAvg {
			return loss.Sum().DivScalar(o.avgFactor)
		}
		return loss.Mean()
	case ReductionSum:
		return loss.Sum()
	default:
		return loss
	}
}
