package cpu

import (
	"fmt"

	"github.com/banet-ml/banet/internal/tensor"
)

// Sum computes the total sum of all elements (scalar result).
func (cpu *CPUBackend) Sum(x *tensor.RawTensor) *tensor.RawTensor {
	result := cpu.newResult(tensor.Shape{}, x.DType(), "sum")

	switch x.DType() {
	case tensor.Float32:
		var sum float32
		for _, v := range x.AsFloat32() {
			sum += v
		}
		result.AsFloat32()[0] = sum
	case tensor.Float64:
		var sum float64
		for _, v := range x.AsFloat64() {
			sum += v
		}
		result.AsFloat64()[0] = sum
	case tensor.Int32:
		var sum int32
		for _, v := range x.AsInt32() {
			sum += v
		}
		result.AsInt32()[0] = sum
	case tensor.Int64:
		var sum int64
		for _, v := range x.AsInt64() {
			sum += v
		}
		result.AsInt64()[0] = sum
	default:
		panic(fmt.Sprintf("sum: unsupported dtype %s", x.DType()))
	}

	return result
}

// SumDim sums tensor elements along the specified dimension.
// Negative dim counts from the end (-1 = last dimension). With keepDim the
// reduced dimension stays with size 1, otherwise it is removed.
func (cpu *CPUBackend) SumDim(x *tensor.RawTensor, dim int, keepDim bool) *tensor.RawTensor {
	shape := x.Shape()
	ndim := len(shape)

	if dim < 0 {
		dim = ndim + dim
	}
	if dim < 0 || dim >= ndim {
		panic(fmt.Sprintf("sumdim: dimension %d out of range for %dD tensor", dim, ndim))
	}

	outShape := reducedShape(shape, dim, keepDim)
	result := cpu.newResult(outShape, x.DType(), "sumdim")

	outer, dimSize, inner := splitAtDim(shape, dim)

	switch x.DType() {
	case tensor.Float32:
		sumDimFloat32(result.AsFloat32(), x.AsFloat32(), outer, dimSize, inner)
	case tensor.Float64:
		sumDimFloat64(result.AsFloat64(), x.AsFloat64(), outer, dimSize, inner)
	default:
		panic(fmt.Sprintf("sumdim: unsupported dtype %s (only float32/float64 supported)", x.DType()))
	}

	return result
}

// MeanDim computes the mean of tensor elements along the specified dimension.
func (cpu *CPUBackend) MeanDim(x *tensor.RawTensor, dim int, keepDim bool) *tensor.RawTensor {
	result := cpu.SumDim(x, dim, keepDim)

	shape := x.Shape()
	if dim < 0 {
		dim = len(shape) + dim
	}
	divisor := float64(shape[dim])

	switch result.DType() {
	case tensor.Float32:
		data := result.AsFloat32()
		d := float32(divisor)
		for i := range data {
			data[i] /= d
		}
	case tensor.Float64:
		data := result.AsFloat64()
		for i := range data {
			data[i] /= divisor
		}
	default:
		panic(fmt.Sprintf("meandim: unsupported dtype %s (only float32/float64 supported)", result.DType()))
	}

	return result
}

// Argmax returns int32 indices of the maximum value along dim.
// The reduced dimension is removed from the result shape. Ties resolve to
// the lowest index, which keeps greedy decoding deterministic.
func (cpu *CPUBackend) Argmax(x *tensor.RawTensor, dim int) *tensor.RawTensor {
	shape := x.Shape()
	ndim := len(shape)

	if dim < 0 {
		dim = ndim + dim
	}
	if dim < 0 || dim >= ndim {
		panic(fmt.Sprintf("argmax: dimension %d out of range for %dD tensor", dim, ndim))
	}

	outShape := reducedShape(shape, dim, false)
	result := cpu.newResult(outShape, tensor.Int32, "argmax")

	outer, dimSize, inner := splitAtDim(shape, dim)

	switch x.DType() {
	case tensor.Float32:
		argmaxFloat32(result.AsInt32(), x.AsFloat32(), outer, dimSize, inner)
	case tensor.Float64:
		argmaxFloat64(result.AsInt32(), x.AsFloat64(), outer, dimSize, inner)
	default:
		panic(fmt.Sprintf("argmax: unsupported dtype %s (only float32/float64 supported)", x.DType()))
	}

	return result
}

// reducedShape removes or collapses dim from shape.
func reducedShape(shape tensor.Shape, dim int, keepDim bool) tensor.Shape {
	if keepDim {
		out := shape.Clone()
		out[dim] = 1
		return out
	}
	out := make(tensor.Shape, 0, len(shape)-1)
	for i, d := range shape {
		if i != dim {
			out = append(out, d)
		}
	}
	return out
}

func sumDimFloat32(dst, src []float32, outer, dimSize, inner int) {
	for o := 0; o < outer; o++ {
		for in := 0; in < inner; in++ {
			base := o*dimSize*inner + in
			var sum float32
			for i := 0; i < dimSize; i++ {
				sum += src[base+i*inner]
			}
			dst[o*inner+in] = sum
		}
	}
}

func sumDimFloat64(dst, src []float64, outer, dimSize, inner int) {
	for o := 0; o < outer; o++ {
		for in := 0; in < inner; in++ {
			base := o*dimSize*inner + in
			var sum float64
			for i := 0; i < dimSize; i++ {
				sum += src[base+i*inner]
			}
			dst[o*inner+in] = sum
		}
	}
}

func argmaxFloat32(dst []int32, src []float32, outer, dimSize, inner int) {
	for o := 0; o < outer; o++ {
		for in := 0; in < inner; in++ {
			base := o*dimSize*inner + in
			maxVal := src[base]
			maxIdx := int32(0)
			for i := 1; i < dimSize; i++ {
				if v := src[base+i*inner]; v > maxVal {
					maxVal = v
					//nolint:gosec // G115: dimension sizes fit int32.
					maxIdx = int32(i)
				}
			}
			dst[o*inner+in] = maxIdx
		}
	}
}

func argmaxFloat64(dst []int32, src []float64, outer, dimSize, inner int) {
	for o := 0; o < outer; o++ {
		for in := 0; in < inner; in++ {
			base := o*dimSize*inner + in
			maxVal := src[base]
			maxIdx := int32(0)
			for i := 1; i < dimSize; i++ {
				if v := src[base+i*inner]; v > maxVal {
					maxVal = v
					//nolint:gosec // G115: dimension sizes fit int32.
					maxIdx = int32(i)
				}
			}
			dst[o*inner+in] = maxIdx
		}
	}
}
