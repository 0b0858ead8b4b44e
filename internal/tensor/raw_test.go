package tensor

import (
	"testing"
)

// RawTensor Tests

func TestRawTensorAsFloat32(t *testing.T) {
	raw, _ := NewRaw(Shape{1, 1, 3, 2}, Float32, CPU)
	data := raw.AsFloat32()

	if len(data) != 6 {
		t.Errorf("AsFloat32 length = %d, want 6", len(data))
	}

	// Modify and verify zero-copy
	data[0] = 42
	if raw.AsFloat32()[0] != 42 {
		t.Error("AsFloat32 should return zero-copy slice")
	}
}

func TestRawTensorValuesWrongType(t *testing.T) {
	raw, _ := NewRaw(Shape{2, 2}, Float32, CPU)

	defer func() {
		if recover() == nil {
			t.Error("Values[float64] on a float32 tensor should panic")
		}
	}()
	_ = Values[float64](raw)
}

func TestRawTensorCloneIsDeep(t *testing.T) {
	raw, _ := FromValues(Shape{1, 1, 2, 2}, []float64{1, 2, 3, 4})
	clone := raw.Clone()

	clone.AsFloat64()[0] = 100
	if raw.AsFloat64()[0] != 1 {
		t.Errorf("Clone shares storage: original[0] = %v", raw.AsFloat64()[0])
	}
	if !clone.Shape().Equal(raw.Shape()) {
		t.Errorf("Clone shape = %v, want %v", clone.Shape(), raw.Shape())
	}
}

func TestRawTensorZerosLike(t *testing.T) {
	raw, _ := FromValues(Shape{1, 2, 1, 2}, []float32{1, 2, 3, 4})
	zeros := raw.ZerosLike()

	for i, v := range zeros.AsFloat32() {
		if v != 0 {
			t.Errorf("ZerosLike[%d] = %v, want 0", i, v)
		}
	}
	if zeros.DType() != Float32 {
		t.Errorf("ZerosLike dtype = %v, want float32", zeros.DType())
	}
}

func TestFromValuesLengthMismatch(t *testing.T) {
	if _, err := FromValues(Shape{1, 1, 2, 2}, []float32{1, 2, 3}); err == nil {
		t.Error("FromValues should reject a value count that does not match the shape")
	}
}

func TestNewRawRejectsZeroDimension(t *testing.T) {
	if _, err := NewRaw(Shape{1, 0, 4, 4}, Float32, CPU); err == nil {
		t.Error("NewRaw should reject a zero dimension")
	}
}

func TestAt(t *testing.T) {
	raw, _ := Arange[float32](Shape{2, 3, 4, 5})

	got := At[float32](raw, 1, 2, 3, 4)
	want := float32(((1*3+2)*4+3)*5 + 4)
	if got != want {
		t.Errorf("At(1,2,3,4) = %v, want %v", got, want)
	}
}

func TestRawTensorString(t *testing.T) {
	raw, _ := NewRaw(Shape{2, 3, 17, 19}, Float64, CPU)
	if got := raw.String(); got != "float64 2x3x17x19" {
		t.Errorf("String() = %q", got)
	}
}

func TestDeviceString(t *testing.T) {
	tests := map[Device]string{CPU: "CPU", Host: "Host", WebGPU: "WebGPU", Device(99): "Unknown"}
	for d, want := range tests {
		if got := d.String(); got != want {
			t.Errorf("Device(%d).String() = %q, want %q", int(d), got, want)
		}
	}
}
