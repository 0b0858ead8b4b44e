// Package tensor provides the 4D feature-map tensors used by the pooling
// reference algorithms and the device backends.
package tensor

import "fmt"

// Float is the constraint for scalar types the pooling kernels are generic over.
type Float interface {
	float32 | float64
}

// DataType represents runtime type information for tensors.
type DataType int

// Supported data types for tensors.
const (
	Float32 DataType = iota
	Float64
	Uint16
)

// Size returns the byte size of the data type.
func (dt DataType) Size() int {
	switch dt {
	case Float32:
		return 4
	case Float64:
		return 8
	case Uint16:
		return 2
	default:
		panic("unknown data type")
	}
}

// String returns a human-readable name for the data type.
func (dt DataType) String() string {
	switch dt {
	case Float32:
		return "float32"
	case Float64:
		return "float64"
	case Uint16:
		return "uint16"
	default:
		return "unknown"
	}
}

// ParseDataType maps a name accepted on the command line to a DataType.
func ParseDataType(name string) (DataType, error) {
	switch name {
	case "float32", "f32":
		return Float32, nil
	case "float64", "f64":
		return Float64, nil
	default:
		return 0, fmt.Errorf("tensor: unsupported data type %q", name)
	}
}

// DataTypeOf infers the DataType of T.
func DataTypeOf[T Float]() DataType {
	var zero T
	switch any(zero).(type) {
	case float32:
		return Float32
	case float64:
		return Float64
	default:
		panic("unsupported type")
	}
}
