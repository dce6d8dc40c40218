package cpu

import (
	"fmt"

	"github.com/banet-ml/banet/internal/tensor"
)

// Cat concatenates tensors along the specified dimension.
//
// All tensors must share dtype and every dimension except the concatenation
// one. Concatenation moves whole inner blocks, so the copy works on raw bytes
// and never inspects the dtype.
func (cpu *CPUBackend) Cat(tensors []*tensor.RawTensor, dim int) *tensor.RawTensor {
	if len(tensors) == 0 {
		panic("cat: at least one tensor required")
	}

	shape := tensors[0].Shape()
	ndim := len(shape)
	dtype := tensors[0].DType()

	if dim < 0 {
		dim = ndim + dim
	}
	if dim < 0 || dim >= ndim {
		panic(fmt.Sprintf("cat: dimension %d out of range for %dD tensor", dim, ndim))
	}

	totalDim := 0
	for i, t := range tensors {
		tShape := t.Shape()
		if len(tShape) != ndim {
			panic(fmt.Sprintf("cat: tensor %d has %d dimensions, expected %d", i, len(tShape), ndim))
		}
		if t.DType() != dtype {
			panic(fmt.Sprintf("cat: tensor %d has dtype %s, expected %s", i, t.DType(), dtype))
		}
		for d := 0; d < ndim; d++ {
			if d == dim {
				totalDim += tShape[d]
			} else if tShape[d] != shape[d] {
				panic(fmt.Sprintf("cat: tensor %d dimension %d is %d, expected %d", i, d, tShape[d], shape[d]))
			}
		}
	}

	outShape := shape.Clone()
	outShape[dim] = totalDim
	result := cpu.newResult(outShape, dtype, "cat")

	outer, _, inner := splitAtDim(outShape, dim)
	elemSize := dtype.Size()
	rowBytes := inner * elemSize

	dst := result.Data()
	dstOff := 0
	for o := 0; o < outer; o++ {
		for _, t := range tensors {
			blockBytes := t.Shape()[dim] * rowBytes
			src := t.Data()[o*blockBytes : (o+1)*blockBytes]
			copy(dst[dstOff:dstOff+blockBytes], src)
			dstOff += blockBytes
		}
	}

	return result
}

// Chunk splits a tensor into n equal parts along the specified dimension.
// The dimension size must be divisible by n.
func (cpu *CPUBackend) Chunk(x *tensor.RawTensor, chunks, dim int) []*tensor.RawTensor {
	if chunks <= 0 {
		panic(fmt.Sprintf("chunk: chunks must be positive, got %d", chunks))
	}

	shape := x.Shape()
	ndim := len(shape)

	if dim < 0 {
		dim = ndim + dim
	}
	if dim < 0 || dim >= ndim {
		panic(fmt.Sprintf("chunk: dimension %d out of range for %dD tensor", dim, ndim))
	}

	dimSize := shape[dim]
	if dimSize%chunks != 0 {
		panic(fmt.Sprintf("chunk: dimension %d size %d not divisible by %d", dim, dimSize, chunks))
	}
	chunkSize := dimSize / chunks

	chunkShape := shape.Clone()
	chunkShape[dim] = chunkSize

	outer, _, inner := splitAtDim(shape, dim)
	elemSize := x.DType().Size()
	chunkBlock := chunkSize * inner * elemSize
	srcBlock := dimSize * inner * elemSize

	src := x.Data()
	results := make([]*tensor.RawTensor, chunks)
	for c := 0; c < chunks; c++ {
		part := cpu.newResult(chunkShape, x.DType(), "chunk")
		dst := part.Data()
		for o := 0; o < outer; o++ {
			srcOff := o*srcBlock + c*chunkBlock
			copy(dst[o*chunkBlock:(o+1)*chunkBlock], src[srcOff:srcOff+chunkBlock])
		}
		results[c] = part
	}

	return results
}
