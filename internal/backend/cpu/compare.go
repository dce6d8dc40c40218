package cpu

import (
	"fmt"

	"github.com/banet-ml/banet/internal/tensor"
)

// GreaterScalar returns 1 where x > threshold and 0 elsewhere, in x's dtype.
//
// This is the binarization step of the boundary gate: values strictly above
// the threshold become 1, values at or below it become 0. Keeping the result
// in the input's dtype lets the gate flow straight back into float arithmetic.
func (cpu *CPUBackend) GreaterScalar(x *tensor.RawTensor, threshold float64) *tensor.RawTensor {
	result := cpu.newResult(x.Shape(), x.DType(), "greaterScalar")

	switch x.DType() {
	case tensor.Float32:
		thr := float32(threshold)
		src, dst := x.AsFloat32(), result.AsFloat32()
		for i, v := range src {
			if v > thr {
				dst[i] = 1
			} else {
				dst[i] = 0
			}
		}
	case tensor.Float64:
		src, dst := x.AsFloat64(), result.AsFloat64()
		for i, v := range src {
			if v > threshold {
				dst[i] = 1
			} else {
				dst[i] = 0
			}
		}
	default:
		panic(fmt.Sprintf("greaterScalar: unsupported dtype %s (only float32/float64 supported)", x.DType()))
	}

	return result
}
