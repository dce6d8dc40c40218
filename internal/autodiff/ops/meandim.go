package ops

import "github.com/banet-ml/banet/internal/tensor"

// MeanDimOp records output = mean(x, dim), with or without the reduced
// dimension kept.
//
// Backward repeats the output gradient along the reduced dimension and
// scales it by 1/dimSize.
type MeanDimOp struct {
	inputs  []*tensor.RawTensor // [x]
	output  *tensor.RawTensor
	dim     int
	dimSize int
}

// NewMeanDimOp creates a new MeanDimOp.
func NewMeanDimOp(x, output *tensor.RawTensor, dim int) *MeanDimOp {
	dim = normalizeDim(dim, len(x.Shape()))
	return &MeanDimOp{
		inputs:  []*tensor.RawTensor{x},
		output:  output,
		dim:     dim,
		dimSize: x.Shape()[dim],
	}
}

// Backward expands the output gradient back to the input shape, scaled by
// the reduction size.
func (op *MeanDimOp) Backward(outputGrad *tensor.RawTensor, backend tensor.Backend) []*tensor.RawTensor {
	expanded := repeatAlongDim(outputGrad, op.inputs[0].Shape(), op.dim)
	return []*tensor.RawTensor{backend.MulScalar(expanded, 1.0/float64(op.dimSize))}
}

// Inputs returns the input tensor [x].
func (op *MeanDimOp) Inputs() []*tensor.RawTensor {
	return op.inputs
}

// Output returns the reduced tensor.
func (op *MeanDimOp) Output() *tensor.RawTensor {
	return op.output
}
