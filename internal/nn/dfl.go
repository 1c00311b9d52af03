package nn

import (
	"fmt"

	"github.com/pkg/errors"

	"github.com/rainfishy/GraphDiseaseYOLOv8/internal/tensor"
)

// DFLConfig configures a DistributionFocalLoss.
type DFLConfig struct {
	Reduction Reduction `yaml:"reduction"`
}

// DefaultDFLConfig returns reduction=mean.
func DefaultDFLConfig() DFLConfig {
	return DFLConfig{Reduction: ReductionMean}
}

// Validate checks the configuration.
func (c DFLConfig) Validate() error {
	return errors.Wrap(c.Reduction.Validate(), "dfl")
}

const (
	// dflTargetMargin keeps the clamped target strictly below the last bin so
	// the right neighbour always exists.
	dflTargetMargin = 0.01
	// dflProbFloor is added to probabilities before taking the log.
	dflProbFloor = 1e-10
)

// DistributionFocalLoss learns a continuous target through a discrete
// distribution over K bins. For a target t between bins l = floor(t) and
// r = l + 1:
//
//	p = softmax(pred)
//	loss = -((r - t) * log(p[l] + 1e-10) + (t - l) * log(p[r] + 1e-10))
//
// An integer target k reduces to the cross-entropy -log(p[k]).
type DistributionFocalLoss[B tensor.Backend] struct {
	reduction Reduction
}

// NewDistributionFocalLoss creates the loss. It panics on an unknown reduction.
func NewDistributionFocalLoss[B tensor.Backend](reduction Reduction) *DistributionFocalLoss[B] {
	reduction.mustValidate("dfl")
	return &DistributionFocalLoss[B]{reduction: reduction}
}

// Forward computes the loss for pred [N, K] and target [N]. Targets are
// clamped to [0, K-1-0.01]. WithAvgFactor is not supported and panics.
func (l *DistributionFocalLoss[B]) Forward(pred, target *tensor.Tensor[B], opts ...LossOption[B]) *tensor.Tensor[B] {
	ps, ts := pred.Shape(), target.Shape()
	if len(ps) != 2 {
		panic(fmt.Sprintf("dfl: expected pred [N, bins], got shape %v", ps))
	}
	if len(ts) != 1 || ts[0] != ps[0] {
		panic(fmt.Sprintf("dfl: expected target [%d], got shape %v", ps[0], ts))
	}
	if ps[1] < 2 {
		panic(fmt.Sprintf("dfl: need at least 2 bins, got %d", ps[1]))
	}
	o := collectOptions(opts)
	if o.hasAvg {
		panic("dfl: avg factor is not supported")
	}

	n, bins := ps[0], ps[1]
	hi := float32(bins-1) - dflTargetMargin
	left := make([]int, n)
	right := make([]int, n)
	weightLeft := make([]float32, n)
	weightRight := make([]float32, n)
	for i, t := range target.Data() {
		t = min(max(t, 0), hi)
		left[i] = int(t)
		right[i] = min(left[i]+1, bins-1)
		weightLeft[i] = float32(left[i]+1) - t
		weightRight[i] = t - float32(left[i])
	}

	backend := pred.Backend()
	wl := mustFromSlice("dfl", weightLeft, n, backend)
	wr := mustFromSlice("dfl", weightRight, n, backend)

	probs := pred.Softmax(1)
	logLeft := probs.Gather(1, left).Reshape(n).AddScalar(dflProbFloor).Log()
	logRight := probs.Gather(1, right).Reshape(n).AddScalar(dflProbFloor).Log()
	loss := wl.Mul(logLeft).Add(wr.Mul(logRight)).Neg()

	loss = applyWeight("dfl", loss, o.weight)
	return reduce(loss, l.reduction, o)
}

// Reduction returns the configured reduction.
func (l *DistributionFocalLoss[B]) Reduction() Reduction {
	return l.reduction
}

// String returns a string representation of the loss.
func (l *DistributionFocalLoss[B]) String() string {
	return fmt.Sprintf("DistributionFocalLoss(reduction=%s)", l.reduction)
}

// mustFromSlice wraps data of length n as a 1-D tensor on backend.
func mustFromSlice[B tensor.Backend](op string, data []float32, n int, backend B) *tensor.Tensor[B] {
	t, err := tensor.FromSlice(data, tensor.Shape{n}, backend)
	if err != nil {
		panic(fmt.Sprintf("%s: %v", op, err))
	}
	return t
}
