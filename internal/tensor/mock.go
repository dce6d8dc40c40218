package tensor

import (
	"fmt"
	"math"
)

// MockBackend is a minimal float32 CPU implementation of Backend for tests
// inside this package. It supports same-shape elementwise math and the small
// set of ops the package tests exercise; everything else panics. Real
// workloads use the cpu or webgpu backends.
type MockBackend struct{}

// NewMockBackend creates a mock backend.
func NewMockBackend() *MockBackend {
	return &MockBackend{}
}

// Name returns the backend name.
func (m *MockBackend) Name() string {
	return "mock"
}

// Device returns the device type.
func (m *MockBackend) Device() Device {
	return CPU
}

func (m *MockBackend) elementWise(a, b *RawTensor, f func(x, y float32) float32) *RawTensor {
	if !a.Shape().Equal(b.Shape()) {
		panic(fmt.Sprintf("mock: broadcasting not supported: %v vs %v", a.Shape(), b.Shape()))
	}

	result, err := NewRaw(a.Shape(), a.DType(), CPU)
	if err != nil {
		panic(err)
	}

	out := result.AsFloat32()
	av, bv := a.AsFloat32(), b.AsFloat32()
	for i := range out {
		out[i] = f(av[i], bv[i])
	}
	return result
}

func (m *MockBackend) unary(x *RawTensor, f func(v float32) float32) *RawTensor {
	result, err := NewRaw(x.Shape(), x.DType(), CPU)
	if err != nil {
		panic(err)
	}

	out := result.AsFloat32()
	for i, v := range x.AsFloat32() {
		out[i] = f(v)
	}
	return result
}

// Add performs element-wise addition (same shape only).
func (m *MockBackend) Add(a, b *RawTensor) *RawTensor {
	return m.elementWise(a, b, func(x, y float32) float32 { return x + y })
}

// Sub performs element-wise subtraction (same shape only).
func (m *MockBackend) Sub(a, b *RawTensor) *RawTensor {
	return m.elementWise(a, b, func(x, y float32) float32 { return x - y })
}

// Mul performs element-wise multiplication (same shape only).
func (m *MockBackend) Mul(a, b *RawTensor) *RawTensor {
	return m.elementWise(a, b, func(x, y float32) float32 { return x * y })
}

// Div performs element-wise division (same shape only).
func (m *MockBackend) Div(a, b *RawTensor) *RawTensor {
	return m.elementWise(a, b, func(x, y float32) float32 { return x / y })
}

// AddScalar adds a scalar to every element.
func (m *MockBackend) AddScalar(x *RawTensor, scalar any) *RawTensor {
	s := scalarToFloat64(scalar)
	return m.unary(x, func(v float32) float32 { return v + float32(s) })
}

// MulScalar multiplies every element by a scalar.
func (m *MockBackend) MulScalar(x *RawTensor, scalar any) *RawTensor {
	s := scalarToFloat64(scalar)
	return m.unary(x, func(v float32) float32 { return v * float32(s) })
}

// Neg negates every element.
func (m *MockBackend) Neg(x *RawTensor) *RawTensor {
	return m.unary(x, func(v float32) float32 { return -v })
}

// Exp computes the element-wise exponential.
func (m *MockBackend) Exp(x *RawTensor) *RawTensor {
	return m.unary(x, func(v float32) float32 { return float32(math.Exp(float64(v))) })
}

// Log computes the element-wise natural logarithm.
func (m *MockBackend) Log(x *RawTensor) *RawTensor {
	return m.unary(x, func(v float32) float32 { return float32(math.Log(float64(v))) })
}

// Sqrt computes the element-wise square root.
func (m *MockBackend) Sqrt(x *RawTensor) *RawTensor {
	return m.unary(x, func(v float32) float32 { return float32(math.Sqrt(float64(v))) })
}

// GreaterScalar returns 1 where x > threshold, else 0.
func (m *MockBackend) GreaterScalar(x *RawTensor, threshold float64) *RawTensor {
	return m.unary(x, func(v float32) float32 {
		if float64(v) > threshold {
			return 1
		}
		return 0
	})
}

// MatMul computes the naive 2D matrix product.
func (m *MockBackend) MatMul(a, b *RawTensor) *RawTensor {
	aShape, bShape := a.Shape(), b.Shape()
	if len(aShape) != 2 || len(bShape) != 2 || aShape[1] != bShape[0] {
		panic(fmt.Sprintf("mock: matmul shape mismatch: %v @ %v", aShape, bShape))
	}

	rows, inner, cols := aShape[0], aShape[1], bShape[1]
	result, err := NewRaw(Shape{rows, cols}, a.DType(), CPU)
	if err != nil {
		panic(err)
	}

	out := result.AsFloat32()
	av, bv := a.AsFloat32(), b.AsFloat32()
	for i := 0; i < rows; i++ {
		for j := 0; j < cols; j++ {
			var sum float32
			for k := 0; k < inner; k++ {
				sum += av[i*inner+k] * bv[k*cols+j]
			}
			out[i*cols+j] = sum
		}
	}
	return result
}

// Transpose swaps dimensions of a 2D tensor.
func (m *MockBackend) Transpose(x *RawTensor) *RawTensor {
	shape := x.Shape()
	if len(shape) != 2 {
		panic(fmt.Sprintf("mock: transpose requires 2D tensor, got %v", shape))
	}

	rows, cols := shape[0], shape[1]
	result, err := NewRaw(Shape{cols, rows}, x.DType(), CPU)
	if err != nil {
		panic(err)
	}

	out := result.AsFloat32()
	in := x.AsFloat32()
	for i := 0; i < rows; i++ {
		for j := 0; j < cols; j++ {
			out[j*rows+i] = in[i*cols+j]
		}
	}
	return result
}

// Softmax computes softmax along the last dimension.
func (m *MockBackend) Softmax(x *RawTensor, dim int) *RawTensor {
	shape := x.Shape()
	if dim != len(shape)-1 && dim != -1 {
		panic("mock: softmax supports last dim only")
	}

	result, err := NewRaw(shape, x.DType(), CPU)
	if err != nil {
		panic(err)
	}

	cols := shape[len(shape)-1]
	rows := x.NumElements() / cols
	in, out := x.AsFloat32(), result.AsFloat32()

	for r := 0; r < rows; r++ {
		row := in[r*cols : (r+1)*cols]
		maxV := row[0]
		for _, v := range row {
			if v > maxV {
				maxV = v
			}
		}
		var sum float32
		for i, v := range row {
			e := float32(math.Exp(float64(v - maxV)))
			out[r*cols+i] = e
			sum += e
		}
		for i := 0; i < cols; i++ {
			out[r*cols+i] /= sum
		}
	}
	return result
}

// Sum reduces all elements to a single-element tensor.
func (m *MockBackend) Sum(x *RawTensor) *RawTensor {
	result, err := NewRaw(Shape{1}, x.DType(), CPU)
	if err != nil {
		panic(err)
	}

	var sum float32
	for _, v := range x.AsFloat32() {
		sum += v
	}
	result.AsFloat32()[0] = sum
	return result
}

// SumDim is not implemented in the mock.
func (m *MockBackend) SumDim(x *RawTensor, dim int, keepDim bool) *RawTensor {
	panic("mock: SumDim not implemented")
}

// MeanDim is not implemented in the mock.
func (m *MockBackend) MeanDim(x *RawTensor, dim int, keepDim bool) *RawTensor {
	panic("mock: MeanDim not implemented")
}

// Argmax returns int32 indices of the maximum along the last dimension.
func (m *MockBackend) Argmax(x *RawTensor, dim int) *RawTensor {
	shape := x.Shape()
	if dim != len(shape)-1 && dim != -1 {
		panic("mock: argmax supports last dim only")
	}

	cols := shape[len(shape)-1]
	rows := x.NumElements() / cols
	outShape := shape[:len(shape)-1].Clone()
	if len(outShape) == 0 {
		outShape = Shape{1}
	}

	result, err := NewRaw(outShape, Int32, CPU)
	if err != nil {
		panic(err)
	}

	in, out := x.AsFloat32(), result.AsInt32()
	for r := 0; r < rows; r++ {
		best, bestIdx := in[r*cols], 0
		for c := 1; c < cols; c++ {
			if in[r*cols+c] > best {
				best, bestIdx = in[r*cols+c], c
			}
		}
		out[r] = int32(bestIdx)
	}
	return result
}

// Reshape returns a view with a new shape.
func (m *MockBackend) Reshape(x *RawTensor, shape Shape) *RawTensor {
	if shape.NumElements() != x.NumElements() {
		panic(fmt.Sprintf("mock: reshape %v to %v changes element count", x.Shape(), shape))
	}

	out := x.Clone()
	out.shape = shape.Clone()
	out.stride = shape.ComputeStrides()
	return out
}

// Cat is not implemented in the mock.
func (m *MockBackend) Cat(tensors []*RawTensor, dim int) *RawTensor {
	panic("mock: Cat not implemented")
}

// Chunk is not implemented in the mock.
func (m *MockBackend) Chunk(x *RawTensor, chunks, dim int) []*RawTensor {
	panic("mock: Chunk not implemented")
}

// Embedding is not implemented in the mock.
func (m *MockBackend) Embedding(weight, indices *RawTensor) *RawTensor {
	panic("mock: Embedding not implemented")
}

// Conv2D is not implemented in the mock.
func (m *MockBackend) Conv2D(input, kernel *RawTensor, stride, padding int) *RawTensor {
	panic("mock: Conv2D not implemented")
}

// MaxPool2D is not implemented in the mock.
func (m *MockBackend) MaxPool2D(input *RawTensor, kernelSize, stride, padding int) *RawTensor {
	panic("mock: MaxPool2D not implemented")
}

// Conv2DInputBackward is not implemented in the mock.
func (m *MockBackend) Conv2DInputBackward(input, kernel, grad *RawTensor, stride, padding int) *RawTensor {
	panic("mock: Conv2DInputBackward not implemented")
}

// Conv2DKernelBackward is not implemented in the mock.
func (m *MockBackend) Conv2DKernelBackward(input, kernel, grad *RawTensor, stride, padding int) *RawTensor {
	panic("mock: Conv2DKernelBackward not implemented")
}

// MaxPool2DBackward is not implemented in the mock.
func (m *MockBackend) MaxPool2DBackward(input, grad *RawTensor, maxIndices []int) *RawTensor {
	panic("mock: MaxPool2DBackward not implemented")
}

// Cast is not implemented in the mock.
func (m *MockBackend) Cast(x *RawTensor, dtype DataType) *RawTensor {
	panic("mock: Cast not implemented")
}

// scalarToFloat64 converts any supported numeric scalar to float64.
func scalarToFloat64(v any) float64 {
	switch s := v.(type) {
	case float32:
		return float64(s)
	case float64:
		return s
	case int:
		return float64(s)
	case int32:
		return float64(s)
	case int64:
		return float64(s)
	default:
		panic(fmt.Sprintf("unsupported scalar type %T", v))
	}
}
