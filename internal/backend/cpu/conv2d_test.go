package cpu

import (
	"testing"

	"github.com/banet-ml/banet/internal/tensor"
)

func TestCPUBackend_Conv2D(t *testing.T) {
	backend := newTestBackend()

	t.Run("SingleChannel", func(t *testing.T) {
		// 3x3 input, 2x2 kernel of ones: each output is the patch sum.
		input := rawFromFloat32(t, tensor.Shape{1, 1, 3, 3}, []float32{
			1, 2, 3,
			4, 5, 6,
			7, 8, 9,
		})
		kernel := rawFromFloat32(t, tensor.Shape{1, 1, 2, 2}, []float32{1, 1, 1, 1})

		result := backend.Conv2D(input, kernel, 1, 0)

		if !result.Shape().Equal(tensor.Shape{1, 1, 2, 2}) {
			t.Fatalf("Expected shape [1, 1, 2, 2], got %v", result.Shape())
		}
		// [1+2+4+5, 2+3+5+6] = [12, 16]
		// [4+5+7+8, 5+6+8+9] = [24, 28]
		expected := []float32{12, 16, 24, 28}
		if !float32SliceEqual(result.AsFloat32(), expected) {
			t.Errorf("Conv2D failed: got %v, expected %v", result.AsFloat32(), expected)
		}
	})

	t.Run("IdentityKernelWithPadding", func(t *testing.T) {
		// 1x1 kernel of value 1 with same padding leaves the input unchanged.
		input := rawFromFloat32(t, tensor.Shape{1, 1, 2, 2}, []float32{1, 2, 3, 4})
		kernel := rawFromFloat32(t, tensor.Shape{1, 1, 1, 1}, []float32{1})

		result := backend.Conv2D(input, kernel, 1, 0)
		if !float32SliceEqual(result.AsFloat32(), input.AsFloat32()) {
			t.Errorf("identity conv failed: got %v", result.AsFloat32())
		}
	})

	t.Run("Padding", func(t *testing.T) {
		// 2x2 input, 3x3 ones kernel, padding 1: output matches input size.
		input := rawFromFloat32(t, tensor.Shape{1, 1, 2, 2}, []float32{1, 2, 3, 4})
		kernel := rawFromFloat32(t, tensor.Shape{1, 1, 3, 3}, []float32{
			1, 1, 1,
			1, 1, 1,
			1, 1, 1,
		})

		result := backend.Conv2D(input, kernel, 1, 1)

		if !result.Shape().Equal(tensor.Shape{1, 1, 2, 2}) {
			t.Fatalf("Expected shape [1, 1, 2, 2], got %v", result.Shape())
		}
		// Every output sums all in-bounds pixels under the 3x3 window.
		expected := []float32{10, 10, 10, 10}
		if !float32SliceEqual(result.AsFloat32(), expected) {
			t.Errorf("padded conv failed: got %v, expected %v", result.AsFloat32(), expected)
		}
	})

	t.Run("Stride2", func(t *testing.T) {
		input := rawFromFloat32(t, tensor.Shape{1, 1, 4, 4}, []float32{
			1, 2, 3, 4,
			5, 6, 7, 8,
			9, 10, 11, 12,
			13, 14, 15, 16,
		})
		kernel := rawFromFloat32(t, tensor.Shape{1, 1, 2, 2}, []float32{1, 1, 1, 1})

		result := backend.Conv2D(input, kernel, 2, 0)

		if !result.Shape().Equal(tensor.Shape{1, 1, 2, 2}) {
			t.Fatalf("Expected shape [1, 1, 2, 2], got %v", result.Shape())
		}
		// [1+2+5+6, 3+4+7+8] = [14, 22]
		// [9+10+13+14, 11+12+15+16] = [46, 54]
		expected := []float32{14, 22, 46, 54}
		if !float32SliceEqual(result.AsFloat32(), expected) {
			t.Errorf("strided conv failed: got %v, expected %v", result.AsFloat32(), expected)
		}
	})

	t.Run("MultiChannelSum", func(t *testing.T) {
		// Two input channels, kernel of ones: output sums across channels.
		input := rawFromFloat32(t, tensor.Shape{1, 2, 2, 2}, []float32{
			1, 2, 3, 4, // channel 0
			10, 20, 30, 40, // channel 1
		})
		kernel := rawFromFloat32(t, tensor.Shape{1, 2, 2, 2}, []float32{
			1, 1, 1, 1,
			1, 1, 1, 1,
		})

		result := backend.Conv2D(input, kernel, 1, 0)

		if !result.Shape().Equal(tensor.Shape{1, 1, 1, 1}) {
			t.Fatalf("Expected shape [1, 1, 1, 1], got %v", result.Shape())
		}
		if result.AsFloat32()[0] != 110 {
			t.Errorf("multi-channel conv: got %v, expected 110", result.AsFloat32()[0])
		}
	})

	t.Run("TwoOutputChannels", func(t *testing.T) {
		input := rawFromFloat32(t, tensor.Shape{1, 1, 2, 2}, []float32{1, 2, 3, 4})
		// First filter passes the top-left pixel, second scales it by 2.
		kernel := rawFromFloat32(t, tensor.Shape{2, 1, 2, 2}, []float32{
			1, 0, 0, 0,
			2, 0, 0, 0,
		})

		result := backend.Conv2D(input, kernel, 1, 0)

		if !result.Shape().Equal(tensor.Shape{1, 2, 1, 1}) {
			t.Fatalf("Expected shape [1, 2, 1, 1], got %v", result.Shape())
		}
		if !float32SliceEqual(result.AsFloat32(), []float32{1, 2}) {
			t.Errorf("two-filter conv: got %v", result.AsFloat32())
		}
	})

	t.Run("ChannelMismatchPanic", func(t *testing.T) {
		input := rawFromFloat32(t, tensor.Shape{1, 2, 3, 3}, make([]float32, 18))
		kernel := rawFromFloat32(t, tensor.Shape{1, 3, 2, 2}, make([]float32, 12))
		expectPanic(t, "conv2d channels", func() { backend.Conv2D(input, kernel, 1, 0) })
	})
}
