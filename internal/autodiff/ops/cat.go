package ops

import "github.com/banet-ml/banet/internal/tensor"

// CatOp records output = cat(inputs, dim).
//
// Backward slices the output gradient back into one piece per input, at
// the offsets the inputs occupied along the concatenation dimension.
type CatOp struct {
	inputs []*tensor.RawTensor
	output *tensor.RawTensor
	dim    int
	sizes  []int // per-input extent along dim
}

// NewCatOp creates a new CatOp.
func NewCatOp(inputs []*tensor.RawTensor, output *tensor.RawTensor, dim int) *CatOp {
	dim = normalizeDim(dim, len(output.Shape()))
	sizes := make([]int, len(inputs))
	for i, in := range inputs {
		sizes[i] = in.Shape()[dim]
	}
	return &CatOp{
		inputs: inputs,
		output: output,
		dim:    dim,
		sizes:  sizes,
	}
}

// Backward splits the output gradient along the concatenation dimension.
func (op *CatOp) Backward(outputGrad *tensor.RawTensor, backend tensor.Backend) []*tensor.RawTensor {
	grads := make([]*tensor.RawTensor, len(op.inputs))
	offset := 0
	for i, size := range op.sizes {
		grads[i] = splitAlongDim(outputGrad, op.dim, offset, size)
		offset += size
	}
	return grads
}

// Inputs returns the concatenated input tensors.
func (op *CatOp) Inputs() []*tensor.RawTensor {
	return op.inputs
}

// Output returns the concatenated tensor.
func (op *CatOp) Output() *tensor.RawTensor {
	return op.output
}
