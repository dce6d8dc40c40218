package cpu

import (
	"fmt"

	"github.com/banet-ml/banet/internal/tensor"
)

// Scalar operations. The scalar argument is converted to the tensor's dtype,
// so callers may pass any numeric Go type.

// AddScalar adds a scalar value to each element of the tensor.
func (cpu *CPUBackend) AddScalar(x *tensor.RawTensor, scalar any) *tensor.RawTensor {
	result := cpu.newResult(x.Shape(), x.DType(), "addScalar")

	switch x.DType() {
	case tensor.Float32:
		s := float32(scalarToFloat64(scalar))
		src, dst := x.AsFloat32(), result.AsFloat32()
		for i, v := range src {
			dst[i] = v + s
		}
	case tensor.Float64:
		s := scalarToFloat64(scalar)
		src, dst := x.AsFloat64(), result.AsFloat64()
		for i, v := range src {
			dst[i] = v + s
		}
	case tensor.Int32:
		s := int32(scalarToInt64(scalar))
		src, dst := x.AsInt32(), result.AsInt32()
		for i, v := range src {
			dst[i] = v + s
		}
	case tensor.Int64:
		s := scalarToInt64(scalar)
		src, dst := x.AsInt64(), result.AsInt64()
		for i, v := range src {
			dst[i] = v + s
		}
	default:
		panic(fmt.Sprintf("addScalar: unsupported dtype %s", x.DType()))
	}

	return result
}

// MulScalar multiplies each element of the tensor by a scalar value.
func (cpu *CPUBackend) MulScalar(x *tensor.RawTensor, scalar any) *tensor.RawTensor {
	result := cpu.newResult(x.Shape(), x.DType(), "mulScalar")

	switch x.DType() {
	case tensor.Float32:
		s := float32(scalarToFloat64(scalar))
		src, dst := x.AsFloat32(), result.AsFloat32()
		for i, v := range src {
			dst[i] = v * s
		}
	case tensor.Float64:
		s := scalarToFloat64(scalar)
		src, dst := x.AsFloat64(), result.AsFloat64()
		for i, v := range src {
			dst[i] = v * s
		}
	case tensor.Int32:
		s := int32(scalarToInt64(scalar))
		src, dst := x.AsInt32(), result.AsInt32()
		for i, v := range src {
			dst[i] = v * s
		}
	case tensor.Int64:
		s := scalarToInt64(scalar)
		src, dst := x.AsInt64(), result.AsInt64()
		for i, v := range src {
			dst[i] = v * s
		}
	default:
		panic(fmt.Sprintf("mulScalar: unsupported dtype %s", x.DType()))
	}

	return result
}

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

func scalarToInt64(v any) int64 {
	switch s := v.(type) {
	case float32:
		return int64(s)
	case float64:
		return int64(s)
	case int:
		return int64(s)
	case int32:
		return int64(s)
	case int64:
		return s
	default:
		panic(fmt.Sprintf("unsupported scalar type %T", v))
	}
}
