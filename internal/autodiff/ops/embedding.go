package ops

import (
	"fmt"

	"github.com/banet-ml/banet/internal/tensor"
)

// EmbeddingOp records an embedding row lookup: output[i] = weight[indices[i]].
//
// Backward is a scatter-add: each output row gradient is added to the weight
// row it was read from, so repeated indices accumulate. The integer indices
// take no gradient and are not reported as an input.
type EmbeddingOp struct {
	weight  *tensor.RawTensor // [numEmbeddings, embeddingDim]
	indices *tensor.RawTensor // int32, any shape
	output  *tensor.RawTensor
}

// NewEmbeddingOp creates a new EmbeddingOp.
func NewEmbeddingOp(weight, indices, output *tensor.RawTensor) *EmbeddingOp {
	return &EmbeddingOp{
		weight:  weight,
		indices: indices,
		output:  output,
	}
}

// Backward scatter-adds the output gradient rows into a zero weight gradient.
func (op *EmbeddingOp) Backward(outputGrad *tensor.RawTensor, backend tensor.Backend) []*tensor.RawTensor {
	weightShape := op.weight.Shape()
	numEmbeddings := weightShape[0]
	embeddingDim := weightShape[1]

	gradWeight, err := tensor.NewRaw(weightShape.Clone(), outputGrad.DType(), outputGrad.Device())
	if err != nil {
		panic(fmt.Sprintf("embeddingBackward: failed to create result: %v", err))
	}

	indices := op.indices.AsInt32()

	switch outputGrad.DType() {
	case tensor.Float32:
		src, dst := outputGrad.AsFloat32(), gradWeight.AsFloat32()
		for i, idx := range indices {
			if idx < 0 || int(idx) >= numEmbeddings {
				panic(fmt.Sprintf("embeddingBackward: index %d out of range [0, %d)", idx, numEmbeddings))
			}
			srcRow := src[i*embeddingDim : (i+1)*embeddingDim]
			dstRow := dst[int(idx)*embeddingDim : (int(idx)+1)*embeddingDim]
			for j, g := range srcRow {
				dstRow[j] += g
			}
		}
	case tensor.Float64:
		src, dst := outputGrad.AsFloat64(), gradWeight.AsFloat64()
		for i, idx := range indices {
			if idx < 0 || int(idx) >= numEmbeddings {
				panic(fmt.Sprintf("embeddingBackward: index %d out of range [0, %d)", idx, numEmbeddings))
			}
			srcRow := src[i*embeddingDim : (i+1)*embeddingDim]
			dstRow := dst[int(idx)*embeddingDim : (int(idx)+1)*embeddingDim]
			for j, g := range srcRow {
				dstRow[j] += g
			}
		}
	default:
		panic(fmt.Sprintf("embeddingBackward: unsupported dtype %v (only float32/float64 supported)", outputGrad.DType()))
	}

	return []*tensor.RawTensor{gradWeight}
}

// Inputs returns the weight tensor. Indices are excluded since integer
// tensors take no gradient.
func (op *EmbeddingOp) Inputs() []*tensor.RawTensor {
	return []*tensor.RawTensor{op.weight}
}

// Output returns the gathered embedding rows.
func (op *EmbeddingOp) Output() *tensor.RawTensor {
	return op.output
}
