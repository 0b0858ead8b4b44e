// Package device defines the accelerator contract used to run pooling away
// from host memory, the scoped buffer lifetime around each call, and the
// Executor that stages tensors through a Device.
package device

import (
	"encoding/binary"
	"errors"
	"fmt"
	"math"

	"github.com/flair2005/MIOpen/internal/pooling"
	"github.com/flair2005/MIOpen/internal/tensor"
)

// Common errors.
var (
	ErrUnavailable    = errors.New("device not available")
	ErrUnknownBuffer  = errors.New("buffer does not belong to this device")
	ErrBufferTooSmall = errors.New("buffer smaller than requested size")
)

// Buffer is an opaque handle to device memory.
type Buffer interface {
	// Size returns the usable size in bytes.
	Size() uint64
}

// Desc describes a tensor staged in a device buffer.
type Desc struct {
	Shape tensor.Shape
	DType tensor.DataType
}

// DescOf returns the descriptor of t.
func DescOf(t *tensor.RawTensor) Desc {
	return Desc{Shape: t.Shape(), DType: t.DType()}
}

// ForwardArgs are the arguments of a pooling forward kernel launch.
type ForwardArgs struct {
	Config    pooling.Config
	Input     Desc
	InputBuf  Buffer
	Output    Desc
	OutputBuf Buffer

	// SaveIndices requests the max offsets in IndexBuf (Max mode only).
	SaveIndices   bool
	IndexBuf      Buffer
	IndexBufBytes uint64
}

// BackwardArgs are the arguments of a pooling backward kernel launch.
type BackwardArgs struct {
	Config        pooling.Config
	Output        Desc
	OutputBuf     Buffer
	GradOutput    Desc
	GradOutputBuf Buffer
	Input         Desc
	InputBuf      Buffer
	GradInput     Desc
	GradInputBuf  Buffer

	// Workspace holds the forward index map in Max mode.
	Workspace Buffer
}

// Device is an accelerator backend. Implementations must be safe for
// concurrent use. Kernel launches are synchronous from the caller's view:
// a Read issued after PoolForward or PoolBackward observes the result.
type Device interface {
	// Name identifies the device in diagnostics.
	Name() string

	// Kind is the tensor.Device tag for tensors produced by this device.
	Kind() tensor.Device

	// Supports reports whether kernels accept dtype.
	Supports(dtype tensor.DataType) bool

	// IndexSize is the byte width of one index map entry in device memory.
	IndexSize() int

	// Alloc reserves size bytes. Contents are undefined.
	Alloc(size uint64) (Buffer, error)

	// Write copies data into a new buffer.
	Write(data []byte) (Buffer, error)

	// Read copies the first size bytes of buf back to the host.
	Read(buf Buffer, size uint64) ([]byte, error)

	// Free releases buf. Freeing a buffer twice is a no-op.
	Free(buf Buffer)

	// PoolForward launches the forward kernel.
	PoolForward(args ForwardArgs) error

	// PoolBackward launches the backward kernel.
	PoolBackward(args BackwardArgs) error
}

// EncodeIndices serializes an index map with entries of width size (2 or 4 bytes).
func EncodeIndices(idx pooling.IndexMap, size int) []byte {
	out := make([]byte, len(idx)*size)
	for i, v := range idx {
		switch size {
		case 2:
			binary.LittleEndian.PutUint16(out[i*2:], v)
		case 4:
			binary.LittleEndian.PutUint32(out[i*4:], uint32(v))
		default:
			panic(fmt.Sprintf("device: unsupported index width %d", size))
		}
	}
	return out
}

// DecodeIndices parses an index map with entries of width size (2 or 4 bytes).
// Wider entries must still fit the uint16 range.
func DecodeIndices(data []byte, size int) (pooling.IndexMap, error) {
	if size != 2 && size != 4 {
		return nil, fmt.Errorf("device: unsupported index width %d", size)
	}
	if len(data)%size != 0 {
		return nil, fmt.Errorf("device: index data length %d not a multiple of %d", len(data), size)
	}
	idx := make(pooling.IndexMap, len(data)/size)
	for i := range idx {
		if size == 2 {
			idx[i] = binary.LittleEndian.Uint16(data[i*2:])
			continue
		}
		v := binary.LittleEndian.Uint32(data[i*4:])
		if v > math.MaxUint16 {
			return nil, fmt.Errorf("device: index %d = %d exceeds %d", i, v, math.MaxUint16)
		}
		idx[i] = uint16(v)
	}
	return idx, nil
}
