// Package cpu implements the CPU backend for tensor computation.
//
// Elementwise kernels take one of three paths: inplace when the destination
// buffer has a single owner, a tight vectorizable loop when shapes match, and
// a strided fallback when broadcasting is required. Heavy kernels (matmul,
// convolution, pooling) split their outer loops across goroutines.
package cpu

import (
	"fmt"

	"github.com/banet-ml/banet/internal/parallel"
	"github.com/banet-ml/banet/internal/tensor"
)

// CPUBackend implements tensor operations on CPU.
type CPUBackend struct {
	device tensor.Device
	pool   parallel.Config
}

// New creates a CPU backend with the default parallel configuration.
func New() *CPUBackend {
	return &CPUBackend{
		device: tensor.CPU,
		pool:   parallel.DefaultConfig(),
	}
}

// NewSequential creates a CPU backend that never spawns worker goroutines.
// Useful for profiling and for deterministic scheduling in tests.
func NewSequential() *CPUBackend {
	cfg := parallel.DefaultConfig()
	cfg.Enabled = false
	return &CPUBackend{
		device: tensor.CPU,
		pool:   cfg,
	}
}

// Name returns the backend name.
func (cpu *CPUBackend) Name() string {
	return "CPU"
}

// Device returns the compute device.
func (cpu *CPUBackend) Device() tensor.Device {
	return cpu.device
}

// Add performs element-wise addition with NumPy-style broadcasting.
func (cpu *CPUBackend) Add(a, b *tensor.RawTensor) *tensor.RawTensor {
	outShape, needsBroadcast, err := tensor.BroadcastShapes(a.Shape(), b.Shape())
	if err != nil {
		panic(fmt.Sprintf("add: %v", err))
	}

	if !needsBroadcast && a.Shape().Equal(b.Shape()) {
		if a.IsUnique() {
			addInplace(a, b)
			return a
		}
		result := cpu.newResult(outShape, a.DType(), "add")
		addVectorized(result, a, b)
		return result
	}

	result := cpu.newResult(outShape, a.DType(), "add")
	addWithBroadcast(result, a, b, outShape)
	return result
}

// Sub performs element-wise subtraction with broadcasting.
func (cpu *CPUBackend) Sub(a, b *tensor.RawTensor) *tensor.RawTensor {
	outShape, needsBroadcast, err := tensor.BroadcastShapes(a.Shape(), b.Shape())
	if err != nil {
		panic(fmt.Sprintf("sub: %v", err))
	}

	if !needsBroadcast && a.Shape().Equal(b.Shape()) {
		if a.IsUnique() {
			subInplace(a, b)
			return a
		}
		result := cpu.newResult(outShape, a.DType(), "sub")
		subVectorized(result, a, b)
		return result
	}

	result := cpu.newResult(outShape, a.DType(), "sub")
	subWithBroadcast(result, a, b, outShape)
	return result
}

// Mul performs element-wise multiplication with broadcasting.
func (cpu *CPUBackend) Mul(a, b *tensor.RawTensor) *tensor.RawTensor {
	outShape, needsBroadcast, err := tensor.BroadcastShapes(a.Shape(), b.Shape())
	if err != nil {
		panic(fmt.Sprintf("mul: %v", err))
	}

	if !needsBroadcast && a.Shape().Equal(b.Shape()) {
		if a.IsUnique() {
			mulInplace(a, b)
			return a
		}
		result := cpu.newResult(outShape, a.DType(), "mul")
		mulVectorized(result, a, b)
		return result
	}

	result := cpu.newResult(outShape, a.DType(), "mul")
	mulWithBroadcast(result, a, b, outShape)
	return result
}

// Div performs element-wise division with broadcasting.
func (cpu *CPUBackend) Div(a, b *tensor.RawTensor) *tensor.RawTensor {
	outShape, needsBroadcast, err := tensor.BroadcastShapes(a.Shape(), b.Shape())
	if err != nil {
		panic(fmt.Sprintf("div: %v", err))
	}

	if !needsBroadcast && a.Shape().Equal(b.Shape()) {
		if a.IsUnique() {
			divInplace(a, b)
			return a
		}
		result := cpu.newResult(outShape, a.DType(), "div")
		divVectorized(result, a, b)
		return result
	}

	result := cpu.newResult(outShape, a.DType(), "div")
	divWithBroadcast(result, a, b, outShape)
	return result
}

// Reshape returns a view of x with a different shape. The data buffer is
// shared, not copied.
func (cpu *CPUBackend) Reshape(x *tensor.RawTensor, shape tensor.Shape) *tensor.RawTensor {
	view, err := x.View(shape)
	if err != nil {
		panic(fmt.Sprintf("reshape: %v", err))
	}
	return view
}

// Transpose swaps the two dimensions of a 2D tensor.
func (cpu *CPUBackend) Transpose(x *tensor.RawTensor) *tensor.RawTensor {
	shape := x.Shape()
	if len(shape) != 2 {
		panic(fmt.Sprintf("transpose: expected 2D tensor, got %dD", len(shape)))
	}

	rows, cols := shape[0], shape[1]
	result := cpu.newResult(tensor.Shape{cols, rows}, x.DType(), "transpose")

	switch x.DType() {
	case tensor.Float32:
		transposeFloat32(result.AsFloat32(), x.AsFloat32(), rows, cols)
	case tensor.Float64:
		transposeFloat64(result.AsFloat64(), x.AsFloat64(), rows, cols)
	case tensor.Int32:
		transposeInt32(result.AsInt32(), x.AsInt32(), rows, cols)
	case tensor.Int64:
		transposeInt64(result.AsInt64(), x.AsInt64(), rows, cols)
	default:
		panic(fmt.Sprintf("transpose: unsupported dtype %s", x.DType()))
	}

	return result
}

// newResult allocates an output tensor, panicking with op context on failure.
func (cpu *CPUBackend) newResult(shape tensor.Shape, dtype tensor.DataType, op string) *tensor.RawTensor {
	result, err := tensor.NewRaw(shape, dtype, cpu.device)
	if err != nil {
		panic(fmt.Sprintf("%s: failed to create result tensor: %v", op, err))
	}
	return result
}
