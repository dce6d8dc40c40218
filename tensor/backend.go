// Copyright 2025 BANet Authors. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

package tensor

import "github.com/banet-ml/banet/internal/tensor"

// Backend defines the interface that all compute backends must implement.
// Backends handle the actual computation for tensor operations.
//
// Implementations:
//   - backend/cpu: Pure Go, supports training
//   - backend/webgpu: Cross-platform GPU compute via WebGPU, inference only
//
// Decorator backends for additional functionality:
//   - autodiff: Automatic differentiation (wraps any backend)
//
// Example:
//
//	import (
//	    "github.com/banet-ml/banet/tensor"
//	    "github.com/banet-ml/banet/backend/cpu"
//	)
//
//	backend := cpu.New()
//	x := tensor.Zeros[float32](tensor.Shape{2, 3}, backend)
//	y := tensor.Ones[float32](tensor.Shape{2, 3}, backend)
//	z := x.Add(y)  // Uses backend.Add under the hood
type Backend interface {
	// Element-wise binary operations with NumPy-style broadcasting.
	Add(a, b *RawTensor) *RawTensor // Element-wise addition.
	Sub(a, b *RawTensor) *RawTensor // Element-wise subtraction.
	Mul(a, b *RawTensor) *RawTensor // Element-wise multiplication.
	Div(a, b *RawTensor) *RawTensor // Element-wise division.

	// Scalar operations (element-wise with scalar).
	AddScalar(x *RawTensor, scalar any) *RawTensor // Add scalar.
	MulScalar(x *RawTensor, scalar any) *RawTensor // Multiply by scalar.

	// Math operations (element-wise).
	Neg(x *RawTensor) *RawTensor  // Negation.
	Exp(x *RawTensor) *RawTensor  // Exponential.
	Log(x *RawTensor) *RawTensor  // Natural logarithm.
	Sqrt(x *RawTensor) *RawTensor // Square root.

	// Threshold comparison.
	GreaterScalar(x *RawTensor, threshold float64) *RawTensor // 1 where x > threshold, 0 elsewhere.

	// Matrix operations.
	MatMul(a, b *RawTensor) *RawTensor // 2D matrix multiplication.
	Transpose(x *RawTensor) *RawTensor // 2D transpose.

	// Activation functions.
	Softmax(x *RawTensor, dim int) *RawTensor // Softmax along dimension.

	// Reduction operations.
	Sum(x *RawTensor) *RawTensor                            // Total sum (scalar result).
	SumDim(x *RawTensor, dim int, keepDim bool) *RawTensor  // Sum along dimension.
	MeanDim(x *RawTensor, dim int, keepDim bool) *RawTensor // Mean along dimension.
	Argmax(x *RawTensor, dim int) *RawTensor                // Index of maximum along dimension (int32).

	// Manipulation operations.
	Reshape(x *RawTensor, shape Shape) *RawTensor     // Reshape tensor.
	Cat(tensors []*RawTensor, dim int) *RawTensor     // Concatenate along dimension.
	Chunk(x *RawTensor, chunks, dim int) []*RawTensor // Split into equal parts.

	// Indexing operations.
	Embedding(weight, indices *RawTensor) *RawTensor // Lookup embeddings by int32 indices.

	// Convolutional operations (NCHW layout).
	Conv2D(input, kernel *RawTensor, stride, padding int) *RawTensor        // 2D convolution.
	MaxPool2D(input *RawTensor, kernelSize, stride, padding int) *RawTensor // 2D max pooling.

	// Gradient primitives for the convolution ops.
	Conv2DInputBackward(input, kernel, grad *RawTensor, stride, padding int) *RawTensor  // Conv2D input gradient.
	Conv2DKernelBackward(input, kernel, grad *RawTensor, stride, padding int) *RawTensor // Conv2D kernel gradient.
	MaxPool2DBackward(input, grad *RawTensor, maxIndices []int) *RawTensor               // MaxPool2D gradient.

	// Type conversion.
	Cast(x *RawTensor, dtype DataType) *RawTensor // Cast to different data type.

	// Metadata.
	Name() string   // Backend name (e.g., "CPU", "WebGPU").
	Device() Device // Device type.
}

// Compile-time check that internal Backend implements public Backend.
var _ Backend = tensor.Backend(nil)
