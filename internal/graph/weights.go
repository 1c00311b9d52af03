package graph

import (
	"io"

	"github.com/pkg/errors"

	"github.com/rainfishy/GraphDiseaseYOLOv8/internal/serialization"
)

// metadataModel names the model a checkpoint was written from.
const metadataModel = "model"

// WriteWeights encodes the state dict as SafeTensors.
func (m *Model[B]) WriteWeights(w io.Writer) error {
	return serialization.WriteSafeTensors(w, m.StateDict(), map[string]string{metadataModel: m.name})
}

// SaveWeights writes the state dict to path.
func (m *Model[B]) SaveWeights(path string) error {
	return serialization.SaveFile(path, m.StateDict(), map[string]string{metadataModel: m.name})
}

// ReadWeights decodes a checkpoint from r and loads it into the model.
func (m *Model[B]) ReadWeights(r io.Reader) error {
	ckpt, err := serialization.ReadSafeTensors(r)
	if err != nil {
		return errors.Wrap(err, "read weights")
	}
	return m.loadCheckpoint(ckpt)
}

// LoadWeights loads a checkpoint written by SaveWeights. A checkpoint from a
// differently named model is rejected even if its tensors would fit.
func (m *Model[B]) LoadWeights(path string) error {
	ckpt, err := serialization.LoadFile(path)
	if err != nil {
		return errors.Wrapf(err, "load weights %s", path)
	}
	return m.loadCheckpoint(ckpt)
}

func (m *Model[B]) loadCheckpoint(ckpt *serialization.Checkpoint) error {
	if name, ok := ckpt.Metadata[metadataModel]; ok && name != m.name {
		return errors.Errorf("checkpoint is for model %q, not %q", name, m.name)
	}
	return m.LoadStateDict(ckpt.Tensors)
}
