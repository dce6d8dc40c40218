package ops

import (
	"fmt"

	"github.com/banet-ml/banet/internal/tensor"
)

// reduceBroadcast reduces a gradient to the shape of a forward-pass input
// that was broadcast. Broadcasting aligns shapes from the right, so leading
// gradient dimensions are summed away first, then dimensions where the target
// is 1.
//
// Example:
//
//	forward:  gate[batch,1] * hidden[batch,size] -> [batch,size]
//	backward: gradGate = sum(grad, dim=1, keepDim) -> [batch,1]
//
// When the shapes already match the gradient is cloned, so later inplace
// accumulation cannot corrupt a gradient shared between operations.
func reduceBroadcast(grad *tensor.RawTensor, target tensor.Shape, backend tensor.Backend) *tensor.RawTensor {
	if grad.Shape().Equal(target) {
		return grad.Clone()
	}

	if len(target) == 0 {
		return backend.Sum(grad)
	}

	result := grad
	for len(result.Shape()) > len(target) {
		result = backend.SumDim(result, 0, false)
	}
	for i, size := range target {
		if size == 1 && result.Shape()[i] > 1 {
			result = backend.SumDim(result, i, true)
		}
	}

	if !result.Shape().Equal(target) {
		result = backend.Reshape(result, target)
	}
	return result
}

// splitAlongDim copies the block [offset, offset+size) of src along dim into
// a fresh tensor. Non-split dimensions keep their extent, so the copy moves
// whole inner blocks and works on raw bytes.
func splitAlongDim(src *tensor.RawTensor, dim, offset, size int) *tensor.RawTensor {
	shape := src.Shape()
	outShape := shape.Clone()
	outShape[dim] = size

	out, err := tensor.NewRaw(outShape, src.DType(), src.Device())
	if err != nil {
		panic(fmt.Sprintf("splitAlongDim: failed to create result: %v", err))
	}

	outer := 1
	for _, d := range shape[:dim] {
		outer *= d
	}
	inner := 1
	for _, d := range shape[dim+1:] {
		inner *= d
	}

	elemSize := src.DType().Size()
	srcBytes := src.Data()
	dstBytes := out.Data()

	srcStride := shape[dim] * inner * elemSize
	srcOffset := offset * inner * elemSize
	blockBytes := size * inner * elemSize

	for o := 0; o < outer; o++ {
		start := o*srcStride + srcOffset
		copy(dstBytes[o*blockBytes:(o+1)*blockBytes], srcBytes[start:start+blockBytes])
	}
	return out
}

// repeatAlongDim expands a reduced gradient back to the pre-reduction shape
// by repeating it along dim. The gradient may carry the reduced dimension as
// size 1 or have it removed entirely; either way it holds outer*inner
// elements laid out to match the target with dim collapsed.
func repeatAlongDim(grad *tensor.RawTensor, target tensor.Shape, dim int) *tensor.RawTensor {
	out, err := tensor.NewRaw(target, grad.DType(), grad.Device())
	if err != nil {
		panic(fmt.Sprintf("repeatAlongDim: failed to create result: %v", err))
	}

	outer := 1
	for _, d := range target[:dim] {
		outer *= d
	}
	dimSize := target[dim]
	inner := 1
	for _, d := range target[dim+1:] {
		inner *= d
	}

	if grad.NumElements() != outer*inner {
		panic(fmt.Sprintf("repeatAlongDim: gradient %v does not match %v reduced at dim %d",
			grad.Shape(), target, dim))
	}

	switch grad.DType() {
	case tensor.Float32:
		src, dst := grad.AsFloat32(), out.AsFloat32()
		for o := 0; o < outer; o++ {
			row := src[o*inner : (o+1)*inner]
			for d := 0; d < dimSize; d++ {
				copy(dst[(o*dimSize+d)*inner:(o*dimSize+d+1)*inner], row)
			}
		}
	case tensor.Float64:
		src, dst := grad.AsFloat64(), out.AsFloat64()
		for o := 0; o < outer; o++ {
			row := src[o*inner : (o+1)*inner]
			for d := 0; d < dimSize; d++ {
				copy(dst[(o*dimSize+d)*inner:(o*dimSize+d+1)*inner], row)
			}
		}
	default:
		panic(fmt.Sprintf("repeatAlongDim: unsupported dtype %s", grad.DType()))
	}
	return out
}

// normalizeDim resolves a possibly negative dimension against ndim.
func normalizeDim(dim, ndim int) int {
	if dim < 0 {
		dim += ndim
	}
	if dim < 0 || dim >= ndim {
		panic(fmt.Sprintf("dimension %d out of range for %dD tensor", dim, ndim))
	}
	return dim
}
