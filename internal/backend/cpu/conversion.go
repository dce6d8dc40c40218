package cpu

import (
	"fmt"

	"github.com/banet-ml/banet/internal/tensor"
)

// Cast converts the tensor to a different data type.
// Returns the input unchanged when the dtype already matches.
func (cpu *CPUBackend) Cast(x *tensor.RawTensor, dtype tensor.DataType) *tensor.RawTensor {
	if x.DType() == dtype {
		return x
	}

	result := cpu.newResult(x.Shape(), dtype, "cast")

	switch x.DType() {
	case tensor.Float32:
		castFromFloat32(result, x.AsFloat32(), dtype)
	case tensor.Float64:
		castFromFloat64(result, x.AsFloat64(), dtype)
	case tensor.Int32:
		castFromInt32(result, x.AsInt32(), dtype)
	case tensor.Int64:
		castFromInt64(result, x.AsInt64(), dtype)
	default:
		panic(fmt.Sprintf("cast: unsupported source dtype %s", x.DType()))
	}

	return result
}

func castFromFloat32(result *tensor.RawTensor, src []float32, to tensor.DataType) {
	switch to {
	case tensor.Float64:
		dst := result.AsFloat64()
		for i, v := range src {
			dst[i] = float64(v)
		}
	case tensor.Int32:
		dst := result.AsInt32()
		for i, v := range src {
			dst[i] = int32(v)
		}
	case tensor.Int64:
		dst := result.AsInt64()
		for i, v := range src {
			dst[i] = int64(v)
		}
	default:
		panic(fmt.Sprintf("cast: unsupported target dtype %s from float32", to))
	}
}

func castFromFloat64(result *tensor.RawTensor, src []float64, to tensor.DataType) {
	switch to {
	case tensor.Float32:
		dst := result.AsFloat32()
		for i, v := range src {
			dst[i] = float32(v)
		}
	case tensor.Int32:
		dst := result.AsInt32()
		for i, v := range src {
			dst[i] = int32(v)
		}
	case tensor.Int64:
		dst := result.AsInt64()
		for i, v := range src {
			dst[i] = int64(v)
		}
	default:
		panic(fmt.Sprintf("cast: unsupported target dtype %s from float64", to))
	}
}

func castFromInt32(result *tensor.RawTensor, src []int32, to tensor.DataType) {
	switch to {
	case tensor.Float32:
		dst := result.AsFloat32()
		for i, v := range src {
			dst[i] = float32(v)
		}
	case tensor.Float64:
		dst := result.AsFloat64()
		for i, v := range src {
			dst[i] = float64(v)
		}
	case tensor.Int64:
		dst := result.AsInt64()
		for i, v := range src {
			dst[i] = int64(v)
		}
	default:
		panic(fmt.Sprintf("cast: unsupported target dtype %s from int32", to))
	}
}

func castFromInt64(result *tensor.RawTensor, src []int64, to tensor.DataType) {
	switch to {
	case tensor.Float32:
		dst := result.AsFloat32()
		for i, v := range src {
			dst[i] = float32(v)
		}
	case tensor.Float64:
		dst := result.AsFloat64()
		for i, v := range src {
			dst[i] = float64(v)
		}
	case tensor.Int32:
		dst := result.AsInt32()
		for i, v := range src {
			//nolint:gosec // G115: token ids and gate flags fit int32.
			dst[i] = int32(v)
		}
	default:
		panic(fmt.Sprintf("cast: unsupported target dtype %s from int64", to))
	}
}
