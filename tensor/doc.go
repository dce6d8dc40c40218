// Copyright 2025 BANet Authors. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

// Package tensor provides type-safe tensor operations for the BANet video
// captioning stack.
//
// # Overview
//
// Tensors are the fundamental data structure in BANet. This package provides:
//   - Generic type-safe tensors (Tensor[T, B])
//   - NumPy-style broadcasting
//   - Zero-copy views and reference-counted buffers
//   - Device abstraction (CPU, WebGPU)
//
// # Basic Usage
//
//	import (
//	    "github.com/banet-ml/banet/tensor"
//	    "github.com/banet-ml/banet/backend/cpu"
//	)
//
//	func main() {
//	    backend := cpu.New()
//
//	    // Create tensors
//	    x := tensor.Zeros[float32](tensor.Shape{2, 3}, backend)
//	    y := tensor.Ones[float32](tensor.Shape{2, 3}, backend)
//
//	    // Tensor operations
//	    z := x.Add(y)
//	    result := x.MatMul(y.T())
//	}
//
// # Supported Data Types
//
// The tensor package supports the following data types via the DType
// constraint:
//   - float32, float64 (floating-point)
//   - int32, int64 (signed integers, used for token ids)
//
// # Device Support
//
// Tensors can reside on different devices:
//   - CPU: Pure Go implementation, used for training
//   - WebGPU: Zero-CGO GPU acceleration for feature extraction and inference
//
// # Broadcasting
//
// Tensor operations follow NumPy broadcasting rules:
//
//	a := tensor.Zeros[float32](tensor.Shape{3, 1}, backend)     // (3, 1)
//	b := tensor.Ones[float32](tensor.Shape{3, 4}, backend)      // (3, 4)
//	c := a.Add(b)                                                // (3, 4)
//
// # Memory Management
//
// Tensors use zero-copy views where possible. The underlying data is
// reference-counted, and backends exploit unique ownership for inplace
// updates.
//
// # Available Operations
//
// Tensor[T, B] covers the operation set the captioning model needs:
//
// Scalar operations:
//
//	y := x.MulScalar(2.0)    // Multiply by scalar
//	y := x.AddScalar(1.0)    // Add scalar
//	y := x.SubScalar(0.5)    // Subtract scalar
//
// Math operations:
//
//	y := x.Exp()             // Exponential
//	y := x.Log()             // Natural logarithm
//	y := x.Sqrt()            // Square root
//
// Comparison against a threshold (the boundary gate primitive):
//
//	gate := z.GreaterScalar(0.5)   // 1 where z > 0.5, else 0
//
// Type conversion:
//
//	i := x.Int32()           // Convert to int32
//	f := x.Float32()         // Convert to float32
//
// See method documentation for the full list of operations.
package tensor
