package nn

import (
	"testing"

	"github.com/chewxy/math32"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rainfishy/GraphDiseaseYOLOv8/internal/tensor"
)

func logit(p float32) float32 {
	return math32.Log(p / (1 - p))
}

func TestQFL_KnownValue(t *testing.T) {
	backend := newBackend()
	loss := NewQualityFocalLoss[Backend](true, 2, ReductionNone)

	pred := fromSlice(t, []float32{0, 0}, tensor.Shape{2}, backend)
	target := fromSlice(t, []float32{1, 0}, tensor.Shape{2}, backend)
	out := loss.Forward(pred, target).Data()

	ln2 := math32.Log(2)
	// target 1: 0.25 * ln2 + ln2; target 0: 0.25 * ln2
	assert.InDelta(t, 1.25*ln2, out[0], 1e-6)
	assert.InDelta(t, 0.25*ln2, out[1], 1e-6)
}

// When sigmoid(pred) equals the target the modulating factor vanishes and
// only the unmodulated -target*log(p) term remains; for negatives it is 0.
func TestQFL_PredictionAtTarget(t *testing.T) {
	backend := newBackend()
	loss := NewQualityFocalLoss[Backend](true, 2, ReductionNone)

	targets := []float32{0.1, 0.3, 0.6, 0.9}
	preds := make([]float32, len(targets))
	for i, q := range targets {
		preds[i] = logit(q)
	}
	out := loss.Forward(
		fromSlice(t, preds, tensor.Shape{4}, backend),
		fromSlice(t, targets, tensor.Shape{4}, backend),
	).Data()
	for i, q := range targets {
		assert.InDelta(t, -q*math32.Log(q), out[i], 1e-5)
	}

	// Negative samples: as sigmoid(pred) -> 0 the loss -> 0.
	var previous float32 = math32.Inf(1)
	for _, p := range []float32{-2, -4, -8, -16} {
		v := loss.Forward(
			fromSlice(t, []float32{p}, tensor.Shape{1}, backend),
			fromSlice(t, []float32{0}, tensor.Shape{1}, backend),
		).Item()
		assert.Less(t, v, previous)
		previous = v
	}
	assert.InDelta(t, 0, previous, 1e-12)
}

func TestQFL_ReductionConsistency(t *testing.T) {
	backend := newBackend()
	shape := tensor.Shape{4, 3}
	pred := fromSlice(t, sequence(12, 0.6), shape, backend)
	target := fromSlice(t, []float32{0, 0.2, 1, 0.5, 0, 0, 0.9, 0.1, 0.3, 0, 0.7, 1}, shape, backend)

	none := NewQualityFocalLoss[Backend](true, 2, ReductionNone).Forward(pred, target)
	mean := NewQualityFocalLoss[Backend](true, 2, ReductionMean).Forward(pred, target)
	sum := NewQualityFocalLoss[Backend](true, 2, ReductionSum).Forward(pred, target)

	assert.Equal(t, shape, none.Shape())
	assert.InDelta(t, none.Mean().Item(), mean.Item(), 1e-6)
	assert.InDelta(t, none.Sum().Item(), sum.Item(), 1e-5)
	assertFinite(t, none.Data())
}

func TestQFL_AvgFactor(t *testing.T) {
	backend := newBackend()
	shape := tensor.Shape{2, 3}
	pred := fromSlice(t, sequence(6, 0.7), shape, backend)
	target := fromSlice(t, []float32{0, 0.4, 1, 0.2, 0, 0.8}, shape, backend)

	sum := NewQualityFocalLoss[Backend](true, 2, ReductionSum).Forward(pred, target).Item()

	mean := NewQualityFocalLoss[Backend](true, 2, ReductionMean).Forward(pred, target, WithAvgFactor[Backend](4))
	assert.InDelta(t, sum/4, mean.Item(), 1e-6)

	sumAvg := NewQualityFocalLoss[Backend](true, 2, ReductionSum).Forward(pred, target, WithAvgFactor[Backend](4))
	assert.InDelta(t, sum, sumAvg.Item(), 1e-6)

	none := NewQualityFocalLoss[Backend](true, 2, ReductionNone).Forward(pred, target, WithAvgFactor[Backend](4))
	assert.Equal(t, shape, none.Shape())
}

func TestQFL_PerSampleWeight(t *testing.T) {
	backend := newBackend()
	shape := tensor.Shape{2, 2}
	pred := fromSlice(t, []float32{0.5, -1, 2, 0}, shape, backend)
	target := fromSlice(t, []float32{1, 0, 0.5, 0.25}, shape, backend)
	weight := fromSlice(t, []float32{2, 0}, tensor.Shape{2}, backend)

	qfl := NewQualityFocalLoss[Backend](true, 2, ReductionNone)
	plain := qfl.Forward(pred, target).Data()
	weighted := qfl.Forward(pred, target, WithWeight(weight)).Data()

	assert.InDelta(t, 2*plain[0], weighted[0], 1e-6)
	assert.InDelta(t, 2*plain[1], weighted[1], 1e-6)
	assert.Equal(t, float32(0), weighted[2])
	assert.Equal(t, float32(0), weighted[3])

	assert.Panics(t, func() {
		qfl.Forward(pred, target, WithWeight(fromSlice(t, []float32{1, 2, 3}, tensor.Shape{3}, backend)))
	})
}

// A per-sample weight covers every trailing element of its sample, whatever
// the rank of the loss.
func TestQFL_PerSampleWeightRank3(t *testing.T) {
	backend := newBackend()
	shape := tensor.Shape{2, 3, 2}
	pred := fromSlice(t, sequence(12, 0.3), shape, backend)
	target := fromSlice(t, []float32{0, 0.2, 0.4, 0.6, 0.8, 1, 1, 0.8, 0.6, 0.4, 0.2, 0}, shape, backend)
	weight := fromSlice(t, []float32{1, 0}, tensor.Shape{2}, backend)

	qfl := NewQualityFocalLoss[Backend](true, 2, ReductionNone)
	plain := qfl.Forward(pred, target).Data()
	weighted := qfl.Forward(pred, target, WithWeight(weight))

	require.Equal(t, shape, weighted.Shape())
	for i, v := range weighted.Data() {
		if i < 6 {
			assert.InDelta(t, plain[i], v, 1e-6, "sample 0, element %d", i)
		} else {
			assert.Equal(t, float32(0), v, "sample 1, element %d", i)
		}
	}

	assert.Panics(t, func() {
		qfl.Forward(pred, target, WithWeight(fromSlice(t, []float32{1, 1, 1}, tensor.Shape{3}, backend)))
	}, "length matches a trailing axis, not the batch")
}

func TestQFL_TargetClamped(t *testing.T) {
	backend := newBackend()
	qfl := NewQualityFocalLoss[Backend](true, 2, ReductionNone)
	pred := fromSlice(t, []float32{0.3, -0.3}, tensor.Shape{2}, backend)

	clamped := qfl.Forward(pred, fromSlice(t, []float32{1, 0}, tensor.Shape{2}, backend)).Data()
	raw := qfl.Forward(pred, fromSlice(t, []float32{3, -2}, tensor.Shape{2}, backend)).Data()
	assert.InDeltaSlice(t, clamped, raw, 1e-7)
}

func TestQFL_WithoutSigmoid(t *testing.T) {
	backend := newBackend()
	qfl := NewQualityFocalLoss[Backend](false, 2, ReductionNone)

	pred := fromSlice(t, []float32{0.5, 0.9, 0}, tensor.Shape{3}, backend)
	target := fromSlice(t, []float32{1, 0.9, 1}, tensor.Shape{3}, backend)
	out := qfl.Forward(pred, target).Data()

	assert.InDelta(t, 0.25*math32.Log(2), out[0], 1e-6)
	assert.InDelta(t, 0, out[1], 1e-6)
	// log(0) is floored at -100 as in binary cross-entropy.
	assert.InDelta(t, 100, out[2], 1e-3)
}

func TestQFL_Gradient(t *testing.T) {
	qfl := NewQualityFocalLoss[Backend](true, 2, ReductionMean)
	targets := []float32{0, 0.3, 1, 0.75, 0, 0.5}

	checkGradient(t, sequence(6, 0.45), tensor.Shape{2, 3}, func(pred *tensor.Tensor[Backend]) *tensor.Tensor[Backend] {
		target, err := tensor.FromSlice(targets, tensor.Shape{2, 3}, pred.Backend())
		require.NoError(t, err)
		return qfl.Forward(pred, target)
	})
}

func TestQFL_Invalid(t *testing.T) {
	backend := newBackend()

	assert.Panics(t, func() { NewQualityFocalLoss[Backend](true, -1, ReductionMean) })
	assert.Panics(t, func() { NewQualityFocalLoss[Backend](true, 2, Reduction("avg")) })

	qfl := NewQualityFocalLoss[Backend](true, 2, ReductionMean)
	assert.Panics(t, func() {
		qfl.Forward(tensor.Zeros(tensor.Shape{2, 3}, backend), tensor.Zeros(tensor.Shape{3, 2}, backend))
	})

	_, err := ParseReduction("median")
	assert.Error(t, err)
	r, err := ParseReduction("sum")
	require.NoError(t, err)
	assert.Equal(t, ReductionSum, r)
	assert.NoError(t, DefaultQFLConfig().Validate())
}
