package cpu

import (
	"testing"

	"github.com/banet-ml/banet/internal/tensor"
)

func newTestBackend() *CPUBackend {
	return New()
}

// rawFromFloat32 builds a float32 tensor with the given data for tests.
func rawFromFloat32(t *testing.T, shape tensor.Shape, data []float32) *tensor.RawTensor {
	t.Helper()
	raw, err := tensor.NewRaw(shape, tensor.Float32, tensor.CPU)
	if err != nil {
		t.Fatalf("NewRaw(%v) failed: %v", shape, err)
	}
	copy(raw.AsFloat32(), data)
	return raw
}

// float32SliceEqual checks float32 slices are equal within epsilon.
func float32SliceEqual(a, b []float32) bool {
	const epsilon = 1e-5
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		diff := a[i] - b[i]
		if diff < 0 {
			diff = -diff
		}
		if diff > epsilon {
			return false
		}
	}
	return true
}

func expectPanic(t *testing.T, name string, f func()) {
	t.Helper()
	defer func() {
		if recover() == nil {
			t.Errorf("%s: expected panic", name)
		}
	}()
	f()
}

func TestCPUBackend_New(t *testing.T) {
	backend := New()
	if backend == nil {
		t.Fatal("New() returned nil")
	}
	if backend.Name() != "CPU" {
		t.Errorf("Expected name 'CPU', got '%s'", backend.Name())
	}
	if backend.Device() != tensor.CPU {
		t.Errorf("Expected device CPU, got %v", backend.Device())
	}
}

func TestCPUBackend_Add(t *testing.T) {
	backend := newTestBackend()

	t.Run("SameShape", func(t *testing.T) {
		a := rawFromFloat32(t, tensor.Shape{2, 3}, []float32{1, 2, 3, 4, 5, 6})
		b := rawFromFloat32(t, tensor.Shape{2, 3}, []float32{10, 11, 12, 13, 14, 15})

		result := backend.Add(a, b)

		expected := []float32{11, 13, 15, 17, 19, 21}
		if !float32SliceEqual(result.AsFloat32(), expected) {
			t.Errorf("Add failed: got %v, expected %v", result.AsFloat32(), expected)
		}
	})

	t.Run("InplaceWhenUnique", func(t *testing.T) {
		a := rawFromFloat32(t, tensor.Shape{3}, []float32{1, 2, 3})
		b := rawFromFloat32(t, tensor.Shape{3}, []float32{10, 20, 30})

		if !a.IsUnique() {
			t.Fatal("fresh tensor should be unique")
		}

		result := backend.Add(a, b)
		if result != a {
			t.Error("expected inplace result for a unique lhs")
		}
		if !float32SliceEqual(result.AsFloat32(), []float32{11, 22, 33}) {
			t.Errorf("inplace add wrong: got %v", result.AsFloat32())
		}
	})

	t.Run("SharedLhsNotMutated", func(t *testing.T) {
		a := rawFromFloat32(t, tensor.Shape{3}, []float32{1, 2, 3})
		b := rawFromFloat32(t, tensor.Shape{3}, []float32{10, 20, 30})

		restore := a.ForceNonUnique()
		defer restore()

		result := backend.Add(a, b)
		if result == a {
			t.Error("shared lhs must not be reused for the result")
		}
		if !float32SliceEqual(a.AsFloat32(), []float32{1, 2, 3}) {
			t.Errorf("shared lhs mutated: %v", a.AsFloat32())
		}
	})

	t.Run("Broadcast", func(t *testing.T) {
		a := rawFromFloat32(t, tensor.Shape{3, 1}, []float32{1, 2, 3})
		b := rawFromFloat32(t, tensor.Shape{4}, []float32{10, 20, 30, 40})

		result := backend.Add(a, b)

		if !result.Shape().Equal(tensor.Shape{3, 4}) {
			t.Fatalf("Expected shape [3, 4], got %v", result.Shape())
		}
		expected := []float32{11, 21, 31, 41, 12, 22, 32, 42, 13, 23, 33, 43}
		if !float32SliceEqual(result.AsFloat32(), expected) {
			t.Errorf("Broadcast add failed: got %v, expected %v", result.AsFloat32(), expected)
		}
	})

	t.Run("IncompatibleShapesPanic", func(t *testing.T) {
		a := rawFromFloat32(t, tensor.Shape{2, 3}, make([]float32, 6))
		b := rawFromFloat32(t, tensor.Shape{2, 4}, make([]float32, 8))
		expectPanic(t, "add", func() { backend.Add(a, b) })
	})
}

func TestCPUBackend_Sub(t *testing.T) {
	backend := newTestBackend()

	a := rawFromFloat32(t, tensor.Shape{4}, []float32{10, 20, 30, 40})
	b := rawFromFloat32(t, tensor.Shape{4}, []float32{1, 2, 3, 4})
	restore := a.ForceNonUnique()
	defer restore()

	result := backend.Sub(a, b)
	if !float32SliceEqual(result.AsFloat32(), []float32{9, 18, 27, 36}) {
		t.Errorf("Sub failed: got %v", result.AsFloat32())
	}
}

func TestCPUBackend_Mul(t *testing.T) {
	backend := newTestBackend()

	t.Run("SameShape", func(t *testing.T) {
		a := rawFromFloat32(t, tensor.Shape{4}, []float32{1, 2, 3, 4})
		b := rawFromFloat32(t, tensor.Shape{4}, []float32{2, 2, 2, 2})
		restore := a.ForceNonUnique()
		defer restore()

		result := backend.Mul(a, b)
		if !float32SliceEqual(result.AsFloat32(), []float32{2, 4, 6, 8}) {
			t.Errorf("Mul failed: got %v", result.AsFloat32())
		}
	})

	// The encoder resets low-level state by multiplying hidden (batch, hidden)
	// with a per-sequence column gate (batch, 1).
	t.Run("ColumnGateBroadcast", func(t *testing.T) {
		hidden := rawFromFloat32(t, tensor.Shape{2, 3}, []float32{1, 2, 3, 4, 5, 6})
		gate := rawFromFloat32(t, tensor.Shape{2, 1}, []float32{0, 1})

		result := backend.Mul(hidden, gate)

		expected := []float32{0, 0, 0, 4, 5, 6}
		if !float32SliceEqual(result.AsFloat32(), expected) {
			t.Errorf("gate broadcast failed: got %v, expected %v", result.AsFloat32(), expected)
		}
	})
}

func TestCPUBackend_Div(t *testing.T) {
	backend := newTestBackend()

	a := rawFromFloat32(t, tensor.Shape{3}, []float32{10, 20, 30})
	b := rawFromFloat32(t, tensor.Shape{3}, []float32{2, 4, 5})
	restore := a.ForceNonUnique()
	defer restore()

	result := backend.Div(a, b)
	if !float32SliceEqual(result.AsFloat32(), []float32{5, 5, 6}) {
		t.Errorf("Div failed: got %v", result.AsFloat32())
	}
}

func TestCPUBackend_Scalars(t *testing.T) {
	backend := newTestBackend()

	t.Run("AddScalar", func(t *testing.T) {
		x := rawFromFloat32(t, tensor.Shape{3}, []float32{1, 2, 3})
		result := backend.AddScalar(x, float32(0.5))
		if !float32SliceEqual(result.AsFloat32(), []float32{1.5, 2.5, 3.5}) {
			t.Errorf("AddScalar failed: got %v", result.AsFloat32())
		}
	})

	t.Run("MulScalar", func(t *testing.T) {
		x := rawFromFloat32(t, tensor.Shape{3}, []float32{1, 2, 3})
		result := backend.MulScalar(x, float32(-1))
		if !float32SliceEqual(result.AsFloat32(), []float32{-1, -2, -3}) {
			t.Errorf("MulScalar failed: got %v", result.AsFloat32())
		}
	})

	// Callers pass whatever numeric type is at hand; the backend converts.
	t.Run("ScalarTypeConversion", func(t *testing.T) {
		x := rawFromFloat32(t, tensor.Shape{2}, []float32{1, 2})
		result := backend.MulScalar(x, 3)
		if !float32SliceEqual(result.AsFloat32(), []float32{3, 6}) {
			t.Errorf("int scalar on float tensor failed: got %v", result.AsFloat32())
		}
	})

	t.Run("Int64Tensor", func(t *testing.T) {
		x, err := tensor.NewRaw(tensor.Shape{3}, tensor.Int64, tensor.CPU)
		if err != nil {
			t.Fatal(err)
		}
		copy(x.AsInt64(), []int64{1, 2, 3})
		result := backend.AddScalar(x, 10)
		got := result.AsInt64()
		want := []int64{11, 12, 13}
		for i := range want {
			if got[i] != want[i] {
				t.Fatalf("int64 AddScalar: got %v, want %v", got, want)
			}
		}
	})
}

func TestCPUBackend_Transpose(t *testing.T) {
	backend := newTestBackend()

	x := rawFromFloat32(t, tensor.Shape{2, 3}, []float32{1, 2, 3, 4, 5, 6})
	result := backend.Transpose(x)

	if !result.Shape().Equal(tensor.Shape{3, 2}) {
		t.Fatalf("Expected shape [3, 2], got %v", result.Shape())
	}
	expected := []float32{1, 4, 2, 5, 3, 6}
	if !float32SliceEqual(result.AsFloat32(), expected) {
		t.Errorf("Transpose failed: got %v, expected %v", result.AsFloat32(), expected)
	}

	expectPanic(t, "transpose 1D", func() {
		backend.Transpose(rawFromFloat32(t, tensor.Shape{3}, []float32{1, 2, 3}))
	})
}

func TestCPUBackend_Reshape(t *testing.T) {
	backend := newTestBackend()

	x := rawFromFloat32(t, tensor.Shape{2, 3}, []float32{1, 2, 3, 4, 5, 6})
	result := backend.Reshape(x, tensor.Shape{3, 2})

	if !result.Shape().Equal(tensor.Shape{3, 2}) {
		t.Fatalf("Expected shape [3, 2], got %v", result.Shape())
	}
	if !float32SliceEqual(result.AsFloat32(), x.AsFloat32()) {
		t.Error("Reshape changed data")
	}

	// Reshape is a view: writes through the view reach the original.
	result.AsFloat32()[0] = 99
	if x.AsFloat32()[0] != 99 {
		t.Error("Reshape result does not share the buffer")
	}

	expectPanic(t, "reshape element count", func() {
		backend.Reshape(x, tensor.Shape{4, 2})
	})
}
