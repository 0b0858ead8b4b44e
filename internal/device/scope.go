package device

import (
	"fmt"

	"github.com/flair2005/MIOpen/internal/tensor"
)

// Scope tracks the buffers acquired for one kernel call and frees them all
// on Close. Use it with defer so buffers are released on every exit path,
// including panics raised while results are checked.
//
// Example:
//
//	scope := device.NewScope(dev)
//	defer scope.Close()
//	in, err := scope.WriteTensor(input)
type Scope struct {
	dev  Device
	bufs []Buffer
}

// NewScope creates an empty Scope on dev.
func NewScope(dev Device) *Scope {
	return &Scope{dev: dev}
}

// Alloc reserves size bytes owned by the scope.
func (s *Scope) Alloc(size uint64) (Buffer, error) {
	buf, err := s.dev.Alloc(size)
	if err != nil {
		return nil, fmt.Errorf("device: alloc %d bytes: %w", size, err)
	}
	s.bufs = append(s.bufs, buf)
	return buf, nil
}

// Write uploads data into a buffer owned by the scope.
func (s *Scope) Write(data []byte) (Buffer, error) {
	buf, err := s.dev.Write(data)
	if err != nil {
		return nil, fmt.Errorf("device: write %d bytes: %w", len(data), err)
	}
	s.bufs = append(s.bufs, buf)
	return buf, nil
}

// WriteTensor uploads the contents of t.
func (s *Scope) WriteTensor(t *tensor.RawTensor) (Buffer, error) {
	return s.Write(t.Data())
}

// AllocTensor reserves room for a tensor described by d.
func (s *Scope) AllocTensor(d Desc) (Buffer, error) {
	//nolint:gosec // G115: element count and size are positive
	return s.Alloc(uint64(d.Shape.NumElements() * d.DType.Size()))
}

// ReadTensor downloads buf into a new host tensor described by d.
func (s *Scope) ReadTensor(buf Buffer, d Desc) (*tensor.RawTensor, error) {
	out, err := tensor.NewRaw(d.Shape, d.DType, s.dev.Kind())
	if err != nil {
		return nil, err
	}
	data, err := s.dev.Read(buf, uint64(out.ByteSize())) //nolint:gosec // G115: ByteSize is non-negative
	if err != nil {
		return nil, fmt.Errorf("device: read %s: %w", d.Shape, err)
	}
	copy(out.Data(), data)
	return out, nil
}

// Live returns the number of buffers not yet released.
func (s *Scope) Live() int {
	return len(s.bufs)
}

// Close frees every buffer in reverse acquisition order.
func (s *Scope) Close() {
	for i := len(s.bufs) - 1; i >= 0; i-- {
		s.dev.Free(s.bufs[i])
	}
	s.bufs = nil
}
