package cpu

import (
	"fmt"
	"math"

	"github.com/banet-ml/banet/internal/tensor"
)

// Softmax computes softmax along the specified dimension.
// Softmax(x_i) = exp(x_i - max) / sum_j exp(x_j - max), with the max
// subtracted for numerical stability.
func (cpu *CPUBackend) Softmax(x *tensor.RawTensor, dim int) *tensor.RawTensor {
	shape := x.Shape()
	ndim := len(shape)

	if dim < 0 {
		dim = ndim + dim
	}
	if dim < 0 || dim >= ndim {
		panic(fmt.Sprintf("softmax: dimension %d out of range for tensor of rank %d", dim, ndim))
	}

	result := cpu.newResult(shape, x.DType(), "softmax")

	switch x.DType() {
	case tensor.Float32:
		softmaxFloat32(result.AsFloat32(), x.AsFloat32(), shape, dim)
	case tensor.Float64:
		softmaxFloat64(result.AsFloat64(), x.AsFloat64(), shape, dim)
	default:
		panic(fmt.Sprintf("softmax: unsupported dtype %s (only float32/float64 supported)", x.DType()))
	}

	return result
}

func softmaxFloat32(dst, src []float32, shape tensor.Shape, dim int) {
	outer, dimSize, inner := splitAtDim(shape, dim)

	for o := 0; o < outer; o++ {
		for in := 0; in < inner; in++ {
			base := o*dimSize*inner + in

			maxVal := float32(math.Inf(-1))
			for i := 0; i < dimSize; i++ {
				if v := src[base+i*inner]; v > maxVal {
					maxVal = v
				}
			}

			var sum float32
			for i := 0; i < dimSize; i++ {
				idx := base + i*inner
				expVal := float32(math.Exp(float64(src[idx] - maxVal)))
				dst[idx] = expVal
				sum += expVal
			}

			for i := 0; i < dimSize; i++ {
				dst[base+i*inner] /= sum
			}
		}
	}
}

func softmaxFloat64(dst, src []float64, shape tensor.Shape, dim int) {
	outer, dimSize, inner := splitAtDim(shape, dim)

	for o := 0; o < outer; o++ {
		for in := 0; in < inner; in++ {
			base := o*dimSize*inner + in

			maxVal := math.Inf(-1)
			for i := 0; i < dimSize; i++ {
				if v := src[base+i*inner]; v > maxVal {
					maxVal = v
				}
			}

			var sum float64
			for i := 0; i < dimSize; i++ {
				idx := base + i*inner
				expVal := math.Exp(src[idx] - maxVal)
				dst[idx] = expVal
				sum += expVal
			}

			for i := 0; i < dimSize; i++ {
				dst[base+i*inner] /= sum
			}
		}
	}
}

// splitAtDim factors a shape into (outer, dim, inner) extents around dim.
// Flat index i decomposes as i = (o*dimSize + d)*inner + in.
func splitAtDim(shape tensor.Shape, dim int) (outer, dimSize, inner int) {
	outer, inner = 1, 1
	for i := 0; i < dim; i++ {
		outer *= shape[i]
	}
	for i := dim + 1; i < len(shape); i++ {
		inner *= shape[i]
	}
	return outer, shape[dim], inner
}
