package serialization

import (
	"bytes"
	"encoding/binary"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"math"
	"os"
	"sort"

	"github.com/pkg/errors"

	"github.com/rainfishy/GraphDiseaseYOLOv8/internal/tensor"
)

const (
	dtypeF32    = "F32"
	metadataKey = "__metadata__"

	// ChecksumKey is the metadata key holding the hex SHA-256 of the data section.
	ChecksumKey = "sha256"
)

// headerEntry is the JSON description of one tensor.
type headerEntry struct {
	DType       string   `json:"dtype"`
	Shape       []int    `json:"shape"`
	DataOffsets [2]int64 `json:"data_offsets"`
}

// Checkpoint is the decoded content of a SafeTensors file.
type Checkpoint struct {
	Tensors  map[string]*tensor.RawTensor
	Metadata map[string]string
}

// Names returns the tensor names in sorted order.
func (c *Checkpoint) Names() []string {
	names := make([]string, 0, len(c.Tensors))
	for name := range c.Tensors {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// WriteSafeTensors encodes tensors as float32 SafeTensors. Tensors are laid
// out in name order; metadata is copied and the data checksum added to it.
func WriteSafeTensors(w io.Writer, tensors map[string]*tensor.RawTensor, metadata map[string]string) error {
	names := make([]string, 0, len(tensors))
	for name, t := range tensors {
		if err := ValidateTensorName(name); err != nil {
			return err
		}
		if t == nil {
			return errors.Errorf("tensor %q is nil", name)
		}
		names = append(names, name)
	}
	sort.Strings(names)

	header := make(map[string]any, len(names)+1)
	var data bytes.Buffer
	var buf [4]byte
	for _, name := range names {
		t := tensors[name]
		start := int64(data.Len())
		for _, v := range t.Data() {
			binary.LittleEndian.PutUint32(buf[:], math.Float32bits(v))
			data.Write(buf[:])
		}
		header[name] = headerEntry{
			DType:       dtypeF32,
			Shape:       t.Shape().Clone(),
			DataOffsets: [2]int64{start, int64(data.Len())},
		}
	}

	meta := make(map[string]string, len(metadata)+1)
	for k, v := range metadata {
		meta[k] = v
	}
	sum := ComputeChecksum(data.Bytes())
	meta[ChecksumKey] = hex.EncodeToString(sum[:])
	header[metadataKey] = meta

	headerJSON, err := json.Marshal(header)
	if err != nil {
		return errors.Wrap(err, "failed to marshal header")
	}
	// The format requires the data section to start 8-byte aligned.
	if pad := len(headerJSON) % 8; pad != 0 {
		headerJSON = append(headerJSON, bytes.Repeat([]byte(" "), 8-pad)...)
	}

	if err := binary.Write(w, binary.LittleEndian, uint64(len(headerJSON))); err != nil {
		return errors.Wrap(err, "failed to write header size")
	}
	if _, err := w.Write(headerJSON); err != nil {
		return errors.Wrap(err, "failed to write header")
	}
	if _, err := w.Write(data.Bytes()); err != nil {
		return errors.Wrap(err, "failed to write tensor data")
	}
	return nil
}

// ReadSafeTensors decodes a float32 SafeTensors stream. The checksum is
// verified when the metadata carries one.
func ReadSafeTensors(r io.Reader) (*Checkpoint, error) {
	var headerSize uint64
	if err := binary.Read(r, binary.LittleEndian, &headerSize); err != nil {
		return nil, errors.Wrap(err, "failed to read header size")
	}
	if headerSize > MaxHeaderSize {
		return nil, errors.Wrapf(ErrHeaderTooLarge, "%d bytes", headerSize)
	}

	headerJSON := make([]byte, headerSize)
	if _, err := io.ReadFull(r, headerJSON); err != nil {
		return nil, errors.Wrap(err, "failed to read header")
	}
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(headerJSON, &raw); err != nil {
		return nil, errors.Wrap(err, "failed to parse header")
	}

	data, err := io.ReadAll(r)
	if err != nil {
		return nil, errors.Wrap(err, "failed to read tensor data")
	}

	ckpt := &Checkpoint{
		Tensors:  make(map[string]*tensor.RawTensor, len(raw)),
		Metadata: map[string]string{},
	}
	entries := make(map[string]headerEntry, len(raw))
	metas := make([]TensorMeta, 0, len(raw))
	for name, msg := range raw {
		if name == metadataKey {
			if err := json.Unmarshal(msg, &ckpt.Metadata); err != nil {
				return nil, errors.Wrap(err, "failed to parse metadata")
			}
			continue
		}
		if err := ValidateTensorName(name); err != nil {
			return nil, err
		}
		var e headerEntry
		if err := json.Unmarshal(msg, &e); err != nil {
			return nil, errors.Wrapf(err, "failed to parse entry for %q", name)
		}
		if e.DType != dtypeF32 {
			return nil, errors.Wrapf(ErrUnsupportedDType, "tensor %q has dtype %s", name, e.DType)
		}
		entries[name] = e
		metas = append(metas, TensorMeta{Name: name, Offset: e.DataOffsets[0], Size: e.DataOffsets[1] - e.DataOffsets[0]})
	}

	if err := ValidateTensorOffsets(metas, int64(len(data))); err != nil {
		return nil, err
	}
	if sum, ok := ckpt.Metadata[ChecksumKey]; ok {
		if err := ValidateChecksum(data, sum); err != nil {
			return nil, err
		}
	}

	for name, e := range entries {
		shape := tensor.Shape(e.Shape)
		size := e.DataOffsets[1] - e.DataOffsets[0]
		if int64(shape.NumElements())*4 != size {
			return nil, &ValidationError{
				Type:    "size_mismatch",
				Tensor:  name,
				Details: fmt.Sprintf("shape %v needs %d bytes, entry has %d", shape, shape.NumElements()*4, size),
			}
		}
		t, err := tensor.NewRaw(shape, tensor.CPU)
		if err != nil {
			return nil, errors.Wrapf(err, "tensor %q", name)
		}
		src := data[e.DataOffsets[0]:e.DataOffsets[1]]
		dst := t.Data()
		for i := range dst {
			dst[i] = math.Float32frombits(binary.LittleEndian.Uint32(src[i*4:]))
		}
		ckpt.Tensors[name] = t
	}
	return ckpt, nil
}

// SaveFile writes tensors to path, replacing any existing file.
func SaveFile(path string, tensors map[string]*tensor.RawTensor, metadata map[string]string) error {
	f, err := os.Create(path)
	if err != nil {
		return errors.Wrap(err, "failed to create checkpoint")
	}
	if err := WriteSafeTensors(f, tensors, metadata); err != nil {
		_ = f.Close()
		return err
	}
	return errors.Wrap(f.Close(), "failed to close checkpoint")
}

// LoadFile reads a checkpoint from path.
func LoadFile(path string) (*Checkpoint, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrap(err, "failed to open checkpoint")
	}
	defer f.Close()
	return ReadSafeTensors(f)
}
