package graph

import (
	"github.com/rainfishy/GraphDiseaseYOLOv8/internal/nn"
	"github.com/rainfishy/GraphDiseaseYOLOv8/internal/tensor"
)

// Criteria holds the training losses named by a description. A nil field
// means the description did not ask for that criterion.
type Criteria[B tensor.Backend] struct {
	Cls *nn.QualityFocalLoss[B]
	Box *nn.DistributionFocalLoss[B]
}

// newCriteria creates the losses of a validated spec.
func newCriteria[B tensor.Backend](spec *LossSpec) Criteria[B] {
	var c Criteria[B]
	if spec == nil {
		return c
	}
	if cfg := spec.Cls; cfg != nil {
		c.Cls = nn.NewQualityFocalLoss[B](cfg.UseSigmoid, cfg.Beta, cfg.Reduction)
	}
	if cfg := spec.Box; cfg != nil {
		c.Box = nn.NewDistributionFocalLoss[B](cfg.Reduction)
	}
	return c
}
