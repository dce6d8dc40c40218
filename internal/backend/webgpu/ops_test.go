package webgpu

import (
	"math"
	"testing"

	"github.com/banet-ml/banet/internal/tensor"
)

// createTensor builds a float32 tensor with the given data.
func createTensor(t *testing.T, shape tensor.Shape, data []float32) *tensor.RawTensor {
	t.Helper()
	raw, err := tensor.NewRaw(shape, tensor.Float32, tensor.WebGPU)
	if err != nil {
		t.Fatalf("failed to create tensor: %v", err)
	}
	copy(raw.AsFloat32(), data)
	return raw
}

// createInt32Tensor builds an int32 tensor with the given data.
func createInt32Tensor(t *testing.T, shape tensor.Shape, data []int32) *tensor.RawTensor {
	t.Helper()
	raw, err := tensor.NewRaw(shape, tensor.Int32, tensor.WebGPU)
	if err != nil {
		t.Fatalf("failed to create tensor: %v", err)
	}
	copy(raw.AsInt32(), data)
	return raw
}

// compareSlices checks float32 slices are equal within tolerance.
func compareSlices(t *testing.T, expected, actual []float32, tolerance float32) bool {
	t.Helper()
	if len(expected) != len(actual) {
		t.Errorf("length mismatch: expected %d, got %d", len(expected), len(actual))
		return false
	}
	for i := range expected {
		diff := expected[i] - actual[i]
		if diff < 0 {
			diff = -diff
		}
		if diff > tolerance {
			t.Errorf("value mismatch at index %d: expected %f, got %f (diff: %f)", i, expected[i], actual[i], diff)
			return false
		}
	}
	return true
}

func TestAdd(t *testing.T) {
	if !IsAvailable() {
		t.Skip("WebGPU not available")
	}

	backend, err := New()
	if err != nil {
		t.Fatalf("failed to create backend: %v", err)
	}
	defer backend.Release()

	// [1, 2, 3, 4] + [5, 6, 7, 8] = [6, 8, 10, 12]
	a := createTensor(t, tensor.Shape{4}, []float32{1, 2, 3, 4})
	b := createTensor(t, tensor.Shape{4}, []float32{5, 6, 7, 8})

	result := backend.Add(a, b)

	expected := []float32{6, 8, 10, 12}
	compareSlices(t, expected, result.AsFloat32(), 1e-6)
}

func TestAddBroadcast(t *testing.T) {
	if !IsAvailable() {
		t.Skip("WebGPU not available")
	}

	backend, err := New()
	if err != nil {
		t.Fatalf("failed to create backend: %v", err)
	}
	defer backend.Release()

	// [2,3] + [3] broadcasts the row vector over both rows.
	a := createTensor(t, tensor.Shape{2, 3}, []float32{1, 2, 3, 4, 5, 6})
	b := createTensor(t, tensor.Shape{3}, []float32{10, 20, 30})

	result := backend.Add(a, b)

	if !result.Shape().Equal(tensor.Shape{2, 3}) {
		t.Fatalf("broadcast shape mismatch: expected [2,3], got %v", result.Shape())
	}

	expected := []float32{11, 22, 33, 14, 25, 36}
	compareSlices(t, expected, result.AsFloat32(), 1e-6)
}

func TestSub(t *testing.T) {
	if !IsAvailable() {
		t.Skip("WebGPU not available")
	}

	backend, err := New()
	if err != nil {
		t.Fatalf("failed to create backend: %v", err)
	}
	defer backend.Release()

	a := createTensor(t, tensor.Shape{4}, []float32{10, 20, 30, 40})
	b := createTensor(t, tensor.Shape{4}, []float32{1, 2, 3, 4})

	result := backend.Sub(a, b)

	expected := []float32{9, 18, 27, 36}
	compareSlices(t, expected, result.AsFloat32(), 1e-6)
}

func TestMul(t *testing.T) {
	if !IsAvailable() {
		t.Skip("WebGPU not available")
	}

	backend, err := New()
	if err != nil {
		t.Fatalf("failed to create backend: %v", err)
	}
	defer backend.Release()

	a := createTensor(t, tensor.Shape{4}, []float32{1, 2, 3, 4})
	b := createTensor(t, tensor.Shape{4}, []float32{2, 3, 4, 5})

	result := backend.Mul(a, b)

	expected := []float32{2, 6, 12, 20}
	compareSlices(t, expected, result.AsFloat32(), 1e-6)
}

func TestDiv(t *testing.T) {
	if !IsAvailable() {
		t.Skip("WebGPU not available")
	}

	backend, err := New()
	if err != nil {
		t.Fatalf("failed to create backend: %v", err)
	}
	defer backend.Release()

	a := createTensor(t, tensor.Shape{4}, []float32{10, 20, 30, 40})
	b := createTensor(t, tensor.Shape{4}, []float32{2, 4, 5, 8})

	result := backend.Div(a, b)

	expected := []float32{5, 5, 6, 5}
	compareSlices(t, expected, result.AsFloat32(), 1e-6)
}

func TestAddScalar(t *testing.T) {
	if !IsAvailable() {
		t.Skip("WebGPU not available")
	}

	backend, err := New()
	if err != nil {
		t.Fatalf("failed to create backend: %v", err)
	}
	defer backend.Release()

	x := createTensor(t, tensor.Shape{3}, []float32{1, 2, 3})

	result := backend.AddScalar(x, 2.5)

	expected := []float32{3.5, 4.5, 5.5}
	compareSlices(t, expected, result.AsFloat32(), 1e-6)
}

func TestMulScalar(t *testing.T) {
	if !IsAvailable() {
		t.Skip("WebGPU not available")
	}

	backend, err := New()
	if err != nil {
		t.Fatalf("failed to create backend: %v", err)
	}
	defer backend.Release()

	x := createTensor(t, tensor.Shape{3}, []float32{1, 2, 3})

	// Integer scalars convert through the same path as floats.
	result := backend.MulScalar(x, 2)

	expected := []float32{2, 4, 6}
	compareSlices(t, expected, result.AsFloat32(), 1e-6)
}

func TestNeg(t *testing.T) {
	if !IsAvailable() {
		t.Skip("WebGPU not available")
	}

	backend, err := New()
	if err != nil {
		t.Fatalf("failed to create backend: %v", err)
	}
	defer backend.Release()

	x := createTensor(t, tensor.Shape{3}, []float32{1, -2, 0})

	result := backend.Neg(x)

	expected := []float32{-1, 2, 0}
	compareSlices(t, expected, result.AsFloat32(), 1e-6)
}

func TestExp(t *testing.T) {
	if !IsAvailable() {
		t.Skip("WebGPU not available")
	}

	backend, err := New()
	if err != nil {
		t.Fatalf("failed to create backend: %v", err)
	}
	defer backend.Release()

	x := createTensor(t, tensor.Shape{3}, []float32{0, 1, 2})

	result := backend.Exp(x)

	expected := []float32{1, 2.7182817, 7.389056}
	compareSlices(t, expected, result.AsFloat32(), 1e-4)
}

func TestLog(t *testing.T) {
	if !IsAvailable() {
		t.Skip("WebGPU not available")
	}

	backend, err := New()
	if err != nil {
		t.Fatalf("failed to create backend: %v", err)
	}
	defer backend.Release()

	x := createTensor(t, tensor.Shape{3}, []float32{1, 2.7182817, 7.389056})

	result := backend.Log(x)

	expected := []float32{0, 1, 2}
	compareSlices(t, expected, result.AsFloat32(), 1e-4)
}

func TestSqrt(t *testing.T) {
	if !IsAvailable() {
		t.Skip("WebGPU not available")
	}

	backend, err := New()
	if err != nil {
		t.Fatalf("failed to create backend: %v", err)
	}
	defer backend.Release()

	x := createTensor(t, tensor.Shape{3}, []float32{4, 9, 16})

	result := backend.Sqrt(x)

	expected := []float32{2, 3, 4}
	compareSlices(t, expected, result.AsFloat32(), 1e-5)
}

func TestReLU(t *testing.T) {
	if !IsAvailable() {
		t.Skip("WebGPU not available")
	}

	backend, err := New()
	if err != nil {
		t.Fatalf("failed to create backend: %v", err)
	}
	defer backend.Release()

	x := createTensor(t, tensor.Shape{5}, []float32{-2, -1, 0, 1, 2})

	result := backend.ReLU(x)

	expected := []float32{0, 0, 0, 1, 2}
	compareSlices(t, expected, result.AsFloat32(), 1e-6)
}

func TestSigmoid(t *testing.T) {
	if !IsAvailable() {
		t.Skip("WebGPU not available")
	}

	backend, err := New()
	if err != nil {
		t.Fatalf("failed to create backend: %v", err)
	}
	defer backend.Release()

	x := createTensor(t, tensor.Shape{3}, []float32{0, -100, 100})

	result := backend.Sigmoid(x)

	expected := []float32{0.5, 0, 1}
	compareSlices(t, expected, result.AsFloat32(), 1e-4)
}

func TestTanh(t *testing.T) {
	if !IsAvailable() {
		t.Skip("WebGPU not available")
	}

	backend, err := New()
	if err != nil {
		t.Fatalf("failed to create backend: %v", err)
	}
	defer backend.Release()

	x := createTensor(t, tensor.Shape{3}, []float32{0, -100, 100})

	result := backend.Tanh(x)

	expected := []float32{0, -1, 1}
	compareSlices(t, expected, result.AsFloat32(), 1e-4)
}

func TestGreaterScalar(t *testing.T) {
	if !IsAvailable() {
		t.Skip("WebGPU not available")
	}

	backend, err := New()
	if err != nil {
		t.Fatalf("failed to create backend: %v", err)
	}
	defer backend.Release()

	// Strict comparison: a value equal to the threshold stays 0.
	x := createTensor(t, tensor.Shape{4}, []float32{0.2, 0.5, 0.7, -1})

	result := backend.GreaterScalar(x, 0.5)

	expected := []float32{0, 0, 1, 0}
	compareSlices(t, expected, result.AsFloat32(), 0)
}

func TestMatMul(t *testing.T) {
	if !IsAvailable() {
		t.Skip("WebGPU not available")
	}

	backend, err := New()
	if err != nil {
		t.Fatalf("failed to create backend: %v", err)
	}
	defer backend.Release()

	// [2x3] @ [3x2] = [[22, 28], [49, 64]]
	a := createTensor(t, tensor.Shape{2, 3}, []float32{1, 2, 3, 4, 5, 6})
	b := createTensor(t, tensor.Shape{3, 2}, []float32{1, 2, 3, 4, 5, 6})

	result := backend.MatMul(a, b)

	if !result.Shape().Equal(tensor.Shape{2, 2}) {
		t.Fatalf("MatMul shape mismatch: expected [2,2], got %v", result.Shape())
	}

	expected := []float32{22, 28, 49, 64}
	compareSlices(t, expected, result.AsFloat32(), 1e-5)
}

func TestTranspose(t *testing.T) {
	if !IsAvailable() {
		t.Skip("WebGPU not available")
	}

	backend, err := New()
	if err != nil {
		t.Fatalf("failed to create backend: %v", err)
	}
	defer backend.Release()

	// [[1, 2, 3], [4, 5, 6]] -> [[1, 4], [2, 5], [3, 6]]
	a := createTensor(t, tensor.Shape{2, 3}, []float32{1, 2, 3, 4, 5, 6})

	result := backend.Transpose(a)

	if !result.Shape().Equal(tensor.Shape{3, 2}) {
		t.Fatalf("Transpose shape mismatch: expected [3,2], got %v", result.Shape())
	}

	expected := []float32{1, 4, 2, 5, 3, 6}
	compareSlices(t, expected, result.AsFloat32(), 1e-6)
}

func TestSoftmaxLastDim(t *testing.T) {
	if !IsAvailable() {
		t.Skip("WebGPU not available")
	}

	backend, err := New()
	if err != nil {
		t.Fatalf("failed to create backend: %v", err)
	}
	defer backend.Release()

	x := createTensor(t, tensor.Shape{2, 3}, []float32{1, 2, 3, 1, 1, 1})

	result := backend.Softmax(x, -1)
	actual := result.AsFloat32()

	// Each row sums to 1.
	sum1 := actual[0] + actual[1] + actual[2]
	sum2 := actual[3] + actual[4] + actual[5]
	if math.Abs(float64(sum1-1)) > 1e-5 {
		t.Errorf("row 1 doesn't sum to 1: %v (sum=%f)", actual[:3], sum1)
	}
	if math.Abs(float64(sum2-1)) > 1e-5 {
		t.Errorf("row 2 doesn't sum to 1: %v (sum=%f)", actual[3:6], sum2)
	}

	// A uniform row softmaxes to a uniform distribution.
	uniform := float32(1.0 / 3.0)
	for i := 3; i < 6; i++ {
		if math.Abs(float64(actual[i]-uniform)) > 1e-5 {
			t.Errorf("uniform row failed at %d: expected %f, got %f", i, uniform, actual[i])
		}
	}
}

func TestSoftmaxDim0(t *testing.T) {
	if !IsAvailable() {
		t.Skip("WebGPU not available")
	}

	backend, err := New()
	if err != nil {
		t.Fatalf("failed to create backend: %v", err)
	}
	defer backend.Release()

	// Softmax over columns exercises the strided lane path (inner > 1).
	x := createTensor(t, tensor.Shape{2, 3}, []float32{1, 2, 3, 1, 1, 1})

	result := backend.Softmax(x, 0)

	expected := []float32{0.5, 0.7310586, 0.8807971, 0.5, 0.26894143, 0.11920292}
	compareSlices(t, expected, result.AsFloat32(), 1e-5)
}

func TestSum(t *testing.T) {
	if !IsAvailable() {
		t.Skip("WebGPU not available")
	}

	backend, err := New()
	if err != nil {
		t.Fatalf("failed to create backend: %v", err)
	}
	defer backend.Release()

	x := createTensor(t, tensor.Shape{2, 3}, []float32{1, 2, 3, 4, 5, 6})

	result := backend.Sum(x)

	if !result.Shape().Equal(tensor.Shape{}) {
		t.Fatalf("Sum shape mismatch: expected scalar, got %v", result.Shape())
	}
	if got := result.AsFloat32()[0]; got != 21 {
		t.Errorf("Sum failed: expected 21, got %f", got)
	}
}

func TestSumMultiWorkgroup(t *testing.T) {
	if !IsAvailable() {
		t.Skip("WebGPU not available")
	}

	backend, err := New()
	if err != nil {
		t.Fatalf("failed to create backend: %v", err)
	}
	defer backend.Release()

	// 1000 elements span multiple workgroups, so the host adds partials.
	size := 1000
	data := make([]float32, size)
	for i := range data {
		data[i] = float32(i)
	}
	x := createTensor(t, tensor.Shape{size}, data)

	result := backend.Sum(x)

	if got := result.AsFloat32()[0]; got != 499500 {
		t.Errorf("Sum failed: expected 499500, got %f", got)
	}
}

func TestSumDim(t *testing.T) {
	if !IsAvailable() {
		t.Skip("WebGPU not available")
	}

	backend, err := New()
	if err != nil {
		t.Fatalf("failed to create backend: %v", err)
	}
	defer backend.Release()

	x := createTensor(t, tensor.Shape{2, 3}, []float32{1, 2, 3, 4, 5, 6})

	// Row sums.
	result := backend.SumDim(x, 1, false)
	if !result.Shape().Equal(tensor.Shape{2}) {
		t.Fatalf("SumDim shape mismatch: expected [2], got %v", result.Shape())
	}
	compareSlices(t, []float32{6, 15}, result.AsFloat32(), 1e-5)

	// keepDim keeps the reduced dimension with size 1.
	kept := backend.SumDim(x, 1, true)
	if !kept.Shape().Equal(tensor.Shape{2, 1}) {
		t.Fatalf("SumDim keepDim shape mismatch: expected [2,1], got %v", kept.Shape())
	}

	// Column sums exercise the strided path.
	cols := backend.SumDim(x, 0, false)
	if !cols.Shape().Equal(tensor.Shape{3}) {
		t.Fatalf("SumDim shape mismatch: expected [3], got %v", cols.Shape())
	}
	compareSlices(t, []float32{5, 7, 9}, cols.AsFloat32(), 1e-5)
}

func TestMeanDim(t *testing.T) {
	if !IsAvailable() {
		t.Skip("WebGPU not available")
	}

	backend, err := New()
	if err != nil {
		t.Fatalf("failed to create backend: %v", err)
	}
	defer backend.Release()

	x := createTensor(t, tensor.Shape{2, 3}, []float32{1, 2, 3, 4, 5, 6})

	result := backend.MeanDim(x, 1, false)

	compareSlices(t, []float32{2, 5}, result.AsFloat32(), 1e-5)
}

func TestArgmax(t *testing.T) {
	if !IsAvailable() {
		t.Skip("WebGPU not available")
	}

	backend, err := New()
	if err != nil {
		t.Fatalf("failed to create backend: %v", err)
	}
	defer backend.Release()

	x := createTensor(t, tensor.Shape{2, 3}, []float32{1, 3, 2, 5, 4, 6})

	result := backend.Argmax(x, 1)

	if result.DType() != tensor.Int32 {
		t.Fatalf("Argmax dtype mismatch: expected int32, got %s", result.DType())
	}
	if !result.Shape().Equal(tensor.Shape{2}) {
		t.Fatalf("Argmax shape mismatch: expected [2], got %v", result.Shape())
	}

	indices := result.AsInt32()
	if indices[0] != 1 || indices[1] != 2 {
		t.Errorf("Argmax failed: expected [1, 2], got %v", indices)
	}

	// Negative dim counts from the end.
	neg := backend.Argmax(x, -1)
	negIndices := neg.AsInt32()
	if negIndices[0] != 1 || negIndices[1] != 2 {
		t.Errorf("Argmax dim=-1 failed: expected [1, 2], got %v", negIndices)
	}
}

func TestArgmaxTies(t *testing.T) {
	if !IsAvailable() {
		t.Skip("WebGPU not available")
	}

	backend, err := New()
	if err != nil {
		t.Fatalf("failed to create backend: %v", err)
	}
	defer backend.Release()

	// Ties resolve to the lowest index.
	x := createTensor(t, tensor.Shape{1, 3}, []float32{7, 7, 1})

	result := backend.Argmax(x, 1)

	if got := result.AsInt32()[0]; got != 0 {
		t.Errorf("Argmax tie-breaking failed: expected 0, got %d", got)
	}
}

func TestReshape(t *testing.T) {
	if !IsAvailable() {
		t.Skip("WebGPU not available")
	}

	backend, err := New()
	if err != nil {
		t.Fatalf("failed to create backend: %v", err)
	}
	defer backend.Release()

	a := createTensor(t, tensor.Shape{2, 3}, []float32{1, 2, 3, 4, 5, 6})

	result := backend.Reshape(a, tensor.Shape{3, 2})

	if !result.Shape().Equal(tensor.Shape{3, 2}) {
		t.Fatalf("Reshape shape mismatch: expected [3,2], got %v", result.Shape())
	}

	expected := []float32{1, 2, 3, 4, 5, 6}
	compareSlices(t, expected, result.AsFloat32(), 1e-6)
}

func TestCat(t *testing.T) {
	if !IsAvailable() {
		t.Skip("WebGPU not available")
	}

	backend, err := New()
	if err != nil {
		t.Fatalf("failed to create backend: %v", err)
	}
	defer backend.Release()

	a := createTensor(t, tensor.Shape{2, 2}, []float32{1, 2, 3, 4})
	b := createTensor(t, tensor.Shape{2, 2}, []float32{5, 6, 7, 8})

	// Stacking along dim 0 appends rows.
	rows := backend.Cat([]*tensor.RawTensor{a, b}, 0)
	if !rows.Shape().Equal(tensor.Shape{4, 2}) {
		t.Fatalf("Cat dim=0 shape mismatch: expected [4,2], got %v", rows.Shape())
	}
	compareSlices(t, []float32{1, 2, 3, 4, 5, 6, 7, 8}, rows.AsFloat32(), 0)

	// Stacking along dim 1 interleaves row blocks.
	cols := backend.Cat([]*tensor.RawTensor{a, b}, 1)
	if !cols.Shape().Equal(tensor.Shape{2, 4}) {
		t.Fatalf("Cat dim=1 shape mismatch: expected [2,4], got %v", cols.Shape())
	}
	compareSlices(t, []float32{1, 2, 5, 6, 3, 4, 7, 8}, cols.AsFloat32(), 0)
}

func TestChunk(t *testing.T) {
	if !IsAvailable() {
		t.Skip("WebGPU not available")
	}

	backend, err := New()
	if err != nil {
		t.Fatalf("failed to create backend: %v", err)
	}
	defer backend.Release()

	x := createTensor(t, tensor.Shape{2, 4}, []float32{1, 2, 3, 4, 5, 6, 7, 8})

	parts := backend.Chunk(x, 2, 1)

	if len(parts) != 2 {
		t.Fatalf("Chunk returned %d parts, expected 2", len(parts))
	}
	for i, p := range parts {
		if !p.Shape().Equal(tensor.Shape{2, 2}) {
			t.Fatalf("Chunk part %d shape mismatch: expected [2,2], got %v", i, p.Shape())
		}
	}
	compareSlices(t, []float32{1, 2, 5, 6}, parts[0].AsFloat32(), 0)
	compareSlices(t, []float32{3, 4, 7, 8}, parts[1].AsFloat32(), 0)
}

func TestEmbedding(t *testing.T) {
	if !IsAvailable() {
		t.Skip("WebGPU not available")
	}

	backend, err := New()
	if err != nil {
		t.Fatalf("failed to create backend: %v", err)
	}
	defer backend.Release()

	weight := createTensor(t, tensor.Shape{4, 3}, []float32{
		0, 1, 2,
		3, 4, 5,
		6, 7, 8,
		9, 10, 11,
	})
	indices := createInt32Tensor(t, tensor.Shape{2}, []int32{1, 3})

	result := backend.Embedding(weight, indices)

	if !result.Shape().Equal(tensor.Shape{2, 3}) {
		t.Fatalf("Embedding shape mismatch: expected [2,3], got %v", result.Shape())
	}

	expected := []float32{3, 4, 5, 9, 10, 11}
	compareSlices(t, expected, result.AsFloat32(), 0)
}

func TestCast(t *testing.T) {
	if !IsAvailable() {
		t.Skip("WebGPU not available")
	}

	backend, err := New()
	if err != nil {
		t.Fatalf("failed to create backend: %v", err)
	}
	defer backend.Release()

	// float32 -> int32 truncates toward zero.
	f := createTensor(t, tensor.Shape{3}, []float32{1.5, -2.5, 3})
	asInt := backend.Cast(f, tensor.Int32)
	if asInt.DType() != tensor.Int32 {
		t.Fatalf("Cast dtype mismatch: expected int32, got %s", asInt.DType())
	}
	ints := asInt.AsInt32()
	if ints[0] != 1 || ints[1] != -2 || ints[2] != 3 {
		t.Errorf("Cast to int32 failed: got %v", ints)
	}

	// int32 -> float32.
	back := backend.Cast(asInt, tensor.Float32)
	compareSlices(t, []float32{1, -2, 3}, back.AsFloat32(), 0)

	// Same dtype returns the input unchanged.
	if same := backend.Cast(f, tensor.Float32); same != f {
		t.Error("Cast to same dtype should return the input tensor")
	}
}

func TestConv2D(t *testing.T) {
	if !IsAvailable() {
		t.Skip("WebGPU not available")
	}

	backend, err := New()
	if err != nil {
		t.Fatalf("failed to create backend: %v", err)
	}
	defer backend.Release()

	// 3x3 ones convolved with a 2x2 ones kernel: every output is 4.
	input := createTensor(t, tensor.Shape{1, 1, 3, 3}, []float32{1, 1, 1, 1, 1, 1, 1, 1, 1})
	kernel := createTensor(t, tensor.Shape{1, 1, 2, 2}, []float32{1, 1, 1, 1})

	result := backend.Conv2D(input, kernel, 1, 0)

	if !result.Shape().Equal(tensor.Shape{1, 1, 2, 2}) {
		t.Fatalf("Conv2D shape mismatch: expected [1,1,2,2], got %v", result.Shape())
	}

	expected := []float32{4, 4, 4, 4}
	compareSlices(t, expected, result.AsFloat32(), 1e-5)
}

func TestConv2DPadding(t *testing.T) {
	if !IsAvailable() {
		t.Skip("WebGPU not available")
	}

	backend, err := New()
	if err != nil {
		t.Fatalf("failed to create backend: %v", err)
	}
	defer backend.Release()

	// Zero padding contributes nothing to the border sums.
	input := createTensor(t, tensor.Shape{1, 1, 2, 2}, []float32{1, 2, 3, 4})
	kernel := createTensor(t, tensor.Shape{1, 1, 2, 2}, []float32{1, 1, 1, 1})

	result := backend.Conv2D(input, kernel, 1, 1)

	if !result.Shape().Equal(tensor.Shape{1, 1, 3, 3}) {
		t.Fatalf("Conv2D shape mismatch: expected [1,1,3,3], got %v", result.Shape())
	}

	expected := []float32{1, 3, 2, 4, 10, 6, 3, 7, 4}
	compareSlices(t, expected, result.AsFloat32(), 1e-5)
}

func TestMaxPool2D(t *testing.T) {
	if !IsAvailable() {
		t.Skip("WebGPU not available")
	}

	backend, err := New()
	if err != nil {
		t.Fatalf("failed to create backend: %v", err)
	}
	defer backend.Release()

	data := make([]float32, 16)
	for i := range data {
		data[i] = float32(i)
	}
	input := createTensor(t, tensor.Shape{1, 1, 4, 4}, data)

	result := backend.MaxPool2D(input, 2, 2, 0)

	if !result.Shape().Equal(tensor.Shape{1, 1, 2, 2}) {
		t.Fatalf("MaxPool2D shape mismatch: expected [1,1,2,2], got %v", result.Shape())
	}

	expected := []float32{5, 7, 13, 15}
	compareSlices(t, expected, result.AsFloat32(), 0)
}

func TestMaxPool2DPadding(t *testing.T) {
	if !IsAvailable() {
		t.Skip("WebGPU not available")
	}

	backend, err := New()
	if err != nil {
		t.Fatalf("failed to create backend: %v", err)
	}
	defer backend.Release()

	// Each padded window sees exactly one input pixel, so padding must
	// never win the max.
	input := createTensor(t, tensor.Shape{1, 1, 2, 2}, []float32{1, 2, 3, 4})

	result := backend.MaxPool2D(input, 2, 2, 1)

	if !result.Shape().Equal(tensor.Shape{1, 1, 2, 2}) {
		t.Fatalf("MaxPool2D shape mismatch: expected [1,1,2,2], got %v", result.Shape())
	}

	expected := []float32{1, 2, 3, 4}
	compareSlices(t, expected, result.AsFloat32(), 0)
}

func TestLargeAdd(t *testing.T) {
	if !IsAvailable() {
		t.Skip("WebGPU not available")
	}

	backend, err := New()
	if err != nil {
		t.Fatalf("failed to create backend: %v", err)
	}
	defer backend.Release()

	size := 1024
	aData := make([]float32, size)
	bData := make([]float32, size)
	expected := make([]float32, size)
	for i := 0; i < size; i++ {
		aData[i] = float32(i)
		bData[i] = float32(i * 2)
		expected[i] = float32(i * 3)
	}

	a := createTensor(t, tensor.Shape{size}, aData)
	b := createTensor(t, tensor.Shape{size}, bData)

	result := backend.Add(a, b)
	compareSlices(t, expected, result.AsFloat32(), 1e-5)
}

func TestLargeMatMul(t *testing.T) {
	if !IsAvailable() {
		t.Skip("WebGPU not available")
	}

	backend, err := New()
	if err != nil {
		t.Fatalf("failed to create backend: %v", err)
	}
	defer backend.Release()

	// All-ones [64x64] matrices: every output element equals 64.
	size := 64
	aData := make([]float32, size*size)
	bData := make([]float32, size*size)
	for i := 0; i < size*size; i++ {
		aData[i] = 1.0
		bData[i] = 1.0
	}

	a := createTensor(t, tensor.Shape{size, size}, aData)
	b := createTensor(t, tensor.Shape{size, size}, bData)

	result := backend.MatMul(a, b)

	actual := result.AsFloat32()
	for i, v := range actual {
		if math.Abs(float64(v-float32(size))) > 1e-3 {
			t.Errorf("large MatMul failed at index %d: expected %d, got %f", i, size, v)
			break
		}
	}
}
