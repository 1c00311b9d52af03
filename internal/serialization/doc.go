// Package serialization stores model weights in the SafeTensors format.
//
//	[8 bytes: header size (uint64 LE)]
//	[header: JSON object, name -> {dtype, shape, data_offsets}]
//	[tensor data: little-endian float32, tensors in name order]
//
// The writer records the SHA-256 of the data section under the "sha256"
// metadata key; the reader verifies it when present and validates every
// name and offset before touching tensor data.
//
// Example usage:
//
//	err := serialization.SaveFile("grape.safetensors", model.StateDict(), map[string]string{"model": "grape"})
//
//	ckpt, err := serialization.LoadFile("grape.safetensors")
//	err = model.LoadStateDict(ckpt.Tensors)
package serialization
