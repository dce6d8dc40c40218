package ops

import "github.com/banet-ml/banet/internal/tensor"

// ChunkOp records outputs = chunk(x, n, dim), the inverse of CatOp. The
// recurrent cells use it to split packed gate pre-activations into
// per-gate slices.
//
// Backward concatenates the per-chunk gradients back along dim.
type ChunkOp struct {
	inputs  []*tensor.RawTensor // [x]
	outputs []*tensor.RawTensor
	dim     int
}

// NewChunkOp creates a new ChunkOp.
func NewChunkOp(x *tensor.RawTensor, outputs []*tensor.RawTensor, dim int) *ChunkOp {
	return &ChunkOp{
		inputs:  []*tensor.RawTensor{x},
		outputs: outputs,
		dim:     normalizeDim(dim, len(x.Shape())),
	}
}

// Backward panics: a multi-output op must be driven through BackwardMulti.
func (op *ChunkOp) Backward(outputGrad *tensor.RawTensor, backend tensor.Backend) []*tensor.RawTensor {
	panic("chunk: Backward called on multi-output op, use BackwardMulti")
}

// BackwardMulti concatenates the chunk gradients back into the input shape.
// The tape supplies a zero gradient for any chunk the loss never touched.
func (op *ChunkOp) BackwardMulti(outputGrads []*tensor.RawTensor, backend tensor.Backend) []*tensor.RawTensor {
	return []*tensor.RawTensor{backend.Cat(outputGrads, op.dim)}
}

// Inputs returns the input tensor [x].
func (op *ChunkOp) Inputs() []*tensor.RawTensor {
	return op.inputs
}

// Output returns the first chunk.
func (op *ChunkOp) Output() *tensor.RawTensor {
	return op.outputs[0]
}

// Outputs returns all chunks in order.
func (op *ChunkOp) Outputs() []*tensor.RawTensor {
	return op.outputs
}
