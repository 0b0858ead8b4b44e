package tensor

import "testing"

func TestRandomIsReproducible(t *testing.T) {
	shape := Shape{2, 3, 5, 7}

	a, err := Random[float32](shape, 42, 8)
	if err != nil {
		t.Fatal(err)
	}
	b, _ := Random[float32](shape, 42, 8)
	c, _ := Random[float32](shape, 43, 8)

	same, differs := true, false
	for i, v := range a.AsFloat32() {
		if v != b.AsFloat32()[i] {
			same = false
		}
		if v != c.AsFloat32()[i] {
			differs = true
		}
		if v < -8 || v > 8 {
			t.Errorf("Random[%d] = %v out of [-8, 8]", i, v)
		}
	}
	if !same {
		t.Error("Random with the same seed should produce the same tensor")
	}
	if !differs {
		t.Error("Random with different seeds should produce different tensors")
	}
}

func TestRandomOf(t *testing.T) {
	r, err := RandomOf(Shape{1, 1, 4, 4}, Float64, 1, 1)
	if err != nil {
		t.Fatal(err)
	}
	if r.DType() != Float64 {
		t.Errorf("RandomOf dtype = %v, want float64", r.DType())
	}
}

func TestGenerate(t *testing.T) {
	r, _ := NewRaw(Shape{2, 2, 3, 3}, Float64, CPU)

	Generate(r, func(n, c, h, w int) float64 {
		return float64(1000*n + 100*c + 10*h + w)
	})

	if got := At[float64](r, 1, 0, 2, 1); got != 1021 {
		t.Errorf("Generate(1,0,2,1) = %v, want 1021", got)
	}
	if got := At[float64](r, 0, 1, 0, 2); got != 102 {
		t.Errorf("Generate(0,1,0,2) = %v, want 102", got)
	}
}

func TestFill(t *testing.T) {
	r, _ := NewRaw(Shape{1, 1, 2, 2}, Float32, CPU)
	Fill(r, float32(2.5))

	for i, v := range r.AsFloat32() {
		if v != 2.5 {
			t.Errorf("Fill[%d] = %v, want 2.5", i, v)
		}
	}
}

func TestShapeIndexAndString(t *testing.T) {
	s := Shape{2, 3, 4, 5}

	if got := s.Index(0, 0, 0, 0); got != 0 {
		t.Errorf("Index(0,0,0,0) = %d", got)
	}
	if got := s.Index(1, 2, 3, 4); got != s.NumElements()-1 {
		t.Errorf("Index(last) = %d, want %d", got, s.NumElements()-1)
	}
	if got := s.String(); got != "2x3x4x5" {
		t.Errorf("String() = %q", got)
	}
}

func TestParseShape(t *testing.T) {
	s, err := ParseShape("2x3x17x19")
	if err != nil {
		t.Fatal(err)
	}
	if !s.Equal(Shape{2, 3, 17, 19}) {
		t.Errorf("ParseShape = %v", s)
	}

	for _, bad := range []string{"", "2x3xax4", "1x0x4x4"} {
		if _, err := ParseShape(bad); err == nil {
			t.Errorf("ParseShape(%q) should fail", bad)
		}
	}
}

func TestLengths4PanicsOnWrongRank(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Error("Lengths4 on a 2D shape should panic")
		}
	}()
	Shape{3, 4}.Lengths4()
}

func TestParseDataType(t *testing.T) {
	if dt, err := ParseDataType("f32"); err != nil || dt != Float32 {
		t.Errorf("ParseDataType(f32) = %v, %v", dt, err)
	}
	if _, err := ParseDataType("int8"); err == nil {
		t.Error("ParseDataType(int8) should fail")
	}
}
