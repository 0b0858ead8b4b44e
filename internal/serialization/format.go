package serialization

import (
	"github.com/flair2005/MIOpen/internal/tensor"
)

// SafeTensors dtype names.
const (
	DTypeF32 = "F32"
	DTypeF64 = "F64"
	DTypeU16 = "U16"
)

const metadataKey = "__metadata__"

// TensorInfo describes a tensor in the SafeTensors header.
type TensorInfo struct {
	DType       string   `json:"dtype"`
	Shape       []int    `json:"shape"`
	DataOffsets [2]int64 `json:"data_offsets"` // [start, end)
}

// TensorMeta is a named TensorInfo, used by validation.
type TensorMeta struct {
	Name   string
	Offset int64
	Size   int64
}

func dtypeToSafeTensors(dt tensor.DataType) (string, bool) {
	switch dt {
	case tensor.Float32:
		return DTypeF32, true
	case tensor.Float64:
		return DTypeF64, true
	case tensor.Uint16:
		return DTypeU16, true
	default:
		return "", false
	}
}

func safeTensorsToDtype(s string) (tensor.DataType, bool) {
	switch s {
	case DTypeF32:
		return tensor.Float32, true
	case DTypeF64:
		return tensor.Float64, true
	case DTypeU16:
		return tensor.Uint16, true
	default:
		return 0, false
	}
}
