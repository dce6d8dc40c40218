package cpu

import (
	"fmt"

	"github.com/banet-ml/banet/internal/tensor"
)

// Embedding performs embedding table lookup.
//
// weight:  [numEmbeddings, embeddingDim]
// indices: int32 tensor of any shape
// output:  [...indices.Shape(), embeddingDim]
//
// The decoder feeds word ids through this every timestep, so rows are copied
// wholesale rather than element by element.
func (cpu *CPUBackend) Embedding(weight, indices *tensor.RawTensor) *tensor.RawTensor {
	if indices.DType() != tensor.Int32 {
		panic(fmt.Sprintf("embedding: indices must be int32, got %s", indices.DType()))
	}

	weightShape := weight.Shape()
	if len(weightShape) != 2 {
		panic(fmt.Sprintf("embedding: weight must be 2D, got shape %v", weightShape))
	}

	numEmbeddings := weightShape[0]
	embeddingDim := weightShape[1]

	indicesShape := indices.Shape()
	outShape := make(tensor.Shape, len(indicesShape)+1)
	copy(outShape, indicesShape)
	outShape[len(outShape)-1] = embeddingDim

	result := cpu.newResult(outShape, weight.DType(), "embedding")

	idxData := indices.AsInt32()

	switch weight.DType() {
	case tensor.Float32:
		embeddingFloat32(result.AsFloat32(), weight.AsFloat32(), idxData, numEmbeddings, embeddingDim)
	case tensor.Float64:
		embeddingFloat64(result.AsFloat64(), weight.AsFloat64(), idxData, numEmbeddings, embeddingDim)
	default:
		panic(fmt.Sprintf("embedding: unsupported weight dtype %s", weight.DType()))
	}

	return result
}

func embeddingFloat32(dst, weight []float32, indices []int32, numEmbeddings, embeddingDim int) {
	for i, rawIdx := range indices {
		idx := int(rawIdx)
		if idx < 0 || idx >= numEmbeddings {
			panic(fmt.Sprintf("embedding: index %d out of bounds [0, %d)", idx, numEmbeddings))
		}
		copy(dst[i*embeddingDim:(i+1)*embeddingDim], weight[idx*embeddingDim:(idx+1)*embeddingDim])
	}
}

func embeddingFloat64(dst, weight []float64, indices []int32, numEmbeddings, embeddingDim int) {
	for i, rawIdx := range indices {
		idx := int(rawIdx)
		if idx < 0 || idx >= numEmbeddings {
			panic(fmt.Sprintf("embedding: index %d out of bounds [0, %d)", idx, numEmbeddings))
		}
		copy(dst[i*embeddingDim:(i+1)*embeddingDim], weight[idx*embeddingDim:(idx+1)*embeddingDim])
	}
}
