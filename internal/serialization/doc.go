// Package serialization stores pooling case tensors in the SafeTensors
// format so that a failing verification case can be replayed.
//
//	Format Structure:
//	  [8 bytes: Header Size (uint64 LE)]
//	  [Header: JSON, tensor name -> {dtype, shape, data_offsets}]
//	  [Tensor data: raw little-endian bytes, sorted by name]
//
// F32, F64 and U16 tensors are supported. The writer records a SHA-256
// checksum of the data section under the "sha256" metadata key; the reader
// verifies it when present.
//
// Example usage:
//
//	err := serialization.WriteSafeTensors("case.safetensors",
//	    map[string]*tensor.RawTensor{"input": input}, map[string]string{"mode": "Max"})
//
//	f, err := serialization.ReadSafeTensors("case.safetensors")
//	input := f.Tensors["input"]
package serialization
