// Copyright 2025 BANet Authors. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

// Package cpu provides a pure Go CPU backend for tensor operations.
//
// # Overview
//
// This package implements a CPU backend with:
//   - Pure Go implementation (no CGO)
//   - Im2col algorithm for efficient convolutions
//   - Float32, Float64, Int32 and Int64 support
//   - NumPy-compatible broadcasting
//   - Full gradient primitives for training
//
// # Basic Usage
//
//	import (
//	    "github.com/banet-ml/banet/backend/cpu"
//	    "github.com/banet-ml/banet/tensor"
//	    "github.com/banet-ml/banet/nn"
//	)
//
//	func main() {
//	    // Create CPU backend
//	    backend := cpu.New()
//
//	    // Use with tensors
//	    x := tensor.Zeros[float32](tensor.Shape{2, 3}, backend)
//	    y := tensor.Ones[float32](tensor.Shape{2, 3}, backend)
//	    z := x.Add(y)
//
//	    // Use with neural networks
//	    model := nn.NewLinear(784, 10, backend)
//	}
//
// # Performance
//
// The CPU backend is optimized for training small recurrent captioning
// models:
//   - Efficient matrix multiplication
//   - Im2col-based convolutions
//
// For GPU-accelerated inference, see the webgpu package.
//
// # Thread Safety
//
// The CPU backend is safe for concurrent use. Each tensor operation
// is isolated and does not share mutable state.
package cpu
