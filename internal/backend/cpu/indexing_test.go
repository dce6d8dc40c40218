package cpu

import (
	"testing"

	"github.com/banet-ml/banet/internal/tensor"
)

func int32Raw(t *testing.T, shape tensor.Shape, data []int32) *tensor.RawTensor {
	t.Helper()
	raw, err := tensor.NewRaw(shape, tensor.Int32, tensor.CPU)
	if err != nil {
		t.Fatalf("NewRaw(%v) failed: %v", shape, err)
	}
	copy(raw.AsInt32(), data)
	return raw
}

func TestCPUBackend_Embedding(t *testing.T) {
	backend := newTestBackend()

	// Vocabulary of 4 words, 3 dims each.
	weight := rawFromFloat32(t, tensor.Shape{4, 3}, []float32{
		0, 0, 0,
		1, 1, 1,
		2, 2, 2,
		3, 3, 3,
	})

	t.Run("FlatIndices", func(t *testing.T) {
		indices := int32Raw(t, tensor.Shape{3}, []int32{2, 0, 3})

		result := backend.Embedding(weight, indices)

		if !result.Shape().Equal(tensor.Shape{3, 3}) {
			t.Fatalf("Expected shape [3, 3], got %v", result.Shape())
		}
		expected := []float32{2, 2, 2, 0, 0, 0, 3, 3, 3}
		if !float32SliceEqual(result.AsFloat32(), expected) {
			t.Errorf("Embedding failed: got %v", result.AsFloat32())
		}
	})

	t.Run("BatchIndices", func(t *testing.T) {
		// (batch, steps) word ids give (batch, steps, dim) embeddings.
		indices := int32Raw(t, tensor.Shape{2, 2}, []int32{1, 2, 3, 0})

		result := backend.Embedding(weight, indices)

		if !result.Shape().Equal(tensor.Shape{2, 2, 3}) {
			t.Fatalf("Expected shape [2, 2, 3], got %v", result.Shape())
		}
		expected := []float32{1, 1, 1, 2, 2, 2, 3, 3, 3, 0, 0, 0}
		if !float32SliceEqual(result.AsFloat32(), expected) {
			t.Errorf("Batch embedding failed: got %v", result.AsFloat32())
		}
	})

	t.Run("OutOfBoundsPanic", func(t *testing.T) {
		indices := int32Raw(t, tensor.Shape{1}, []int32{4})
		expectPanic(t, "embedding oob", func() { backend.Embedding(weight, indices) })
	})

	t.Run("NonIntIndicesPanic", func(t *testing.T) {
		indices := rawFromFloat32(t, tensor.Shape{1}, []float32{1})
		expectPanic(t, "embedding float indices", func() { backend.Embedding(weight, indices) })
	})
}
