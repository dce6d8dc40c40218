package ops

import "github.com/banet-ml/banet/internal/tensor"

// SumDimOp records output = sum(x, dim), with or without the reduced
// dimension kept.
//
// Backward repeats the output gradient along the reduced dimension, since
// every input element contributed once to its reduction slot.
type SumDimOp struct {
	inputs []*tensor.RawTensor // [x]
	output *tensor.RawTensor
	dim    int
}

// NewSumDimOp creates a new SumDimOp.
func NewSumDimOp(x, output *tensor.RawTensor, dim int) *SumDimOp {
	return &SumDimOp{
		inputs: []*tensor.RawTensor{x},
		output: output,
		dim:    normalizeDim(dim, len(x.Shape())),
	}
}

// Backward expands the output gradient back to the input shape.
func (op *SumDimOp) Backward(outputGrad *tensor.RawTensor, backend tensor.Backend) []*tensor.RawTensor {
	return []*tensor.RawTensor{repeatAlongDim(outputGrad, op.inputs[0].Shape(), op.dim)}
}

// Inputs returns the input tensor [x].
func (op *SumDimOp) Inputs() []*tensor.RawTensor {
	return op.inputs
}

// Output returns the reduced tensor.
func (op *SumDimOp) Output() *tensor.RawTensor {
	return op.output
}
