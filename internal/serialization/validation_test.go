package serialization

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestValidateTensorOffsets(t *testing.T) {
	tests := []struct {
		name     string
		tensors  []TensorMeta
		dataSize int64
		wantType string
	}{
		{"valid", []TensorMeta{{"a", 0, 8}, {"b", 8, 4}}, 12, ""},
		{"gap allowed", []TensorMeta{{"a", 0, 4}, {"b", 8, 4}}, 12, ""},
		{"negative", []TensorMeta{{"a", -4, 4}}, 12, "negative_offset"},
		{"out of bounds", []TensorMeta{{"a", 8, 8}}, 12, "out_of_bounds"},
		{"overlap", []TensorMeta{{"b", 4, 4}, {"a", 0, 8}}, 12, "offset_overlap"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateTensorOffsets(tt.tensors, tt.dataSize)
			if tt.wantType == "" {
				assert.NoError(t, err)
				return
			}
			verr, ok := err.(*ValidationError)
			if assert.True(t, ok, "got %v", err) {
				assert.Equal(t, tt.wantType, verr.Type)
			}
		})
	}
}

func TestValidateTensorName(t *testing.T) {
	assert.NoError(t, ValidateTensorName("3.align1.weight"))
	assert.Error(t, ValidateTensorName(""))
	assert.Error(t, ValidateTensorName("a/b"))
	assert.Error(t, ValidateTensorName("a..b"))
	assert.Error(t, ValidateTensorName("a\x00"))
	assert.Error(t, ValidateTensorName(strings.Repeat("x", MaxTensorNameLen+1)))
}

func TestValidationError_Message(t *testing.T) {
	err := &ValidationError{Type: "offset_overlap", Tensor: "a", Tensor2: "b", Details: "x"}
	assert.Equal(t, `offset_overlap: tensors "a" and "b": x`, err.Error())

	err = &ValidationError{Type: "invalid_name", Details: "empty tensor name"}
	assert.Equal(t, "invalid_name: empty tensor name", err.Error())
}

func TestValidateChecksum(t *testing.T) {
	// SHA-256 of the empty string.
	const empty = "e3b0c44298fc1c149afbf4c8996fb92427ae41e4649b934ca495991b7852b855"
	assert.NoError(t, ValidateChecksum(nil, empty))
	assert.ErrorIs(t, ValidateChecksum([]byte("x"), empty), ErrChecksumMismatch)
}
