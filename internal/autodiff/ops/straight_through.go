package ops

import "github.com/banet-ml/banet/internal/tensor"

// StraightThroughOp records a hard threshold with a straight-through
// estimator. The forward pass binarizes boundary probabilities:
//
//	output = 1 if z > threshold, else 0
//
// The step function has zero gradient almost everywhere, so backward
// pretends the op was the identity and passes the gradient through
// unchanged. That keeps the boundary detector trainable even though its
// decisions are hard.
type StraightThroughOp struct {
	inputs []*tensor.RawTensor // [z]
	output *tensor.RawTensor
}

// NewStraightThroughOp creates a new StraightThroughOp.
func NewStraightThroughOp(z, output *tensor.RawTensor) *StraightThroughOp {
	return &StraightThroughOp{
		inputs: []*tensor.RawTensor{z},
		output: output,
	}
}

// Backward passes the output gradient through unchanged.
func (op *StraightThroughOp) Backward(outputGrad *tensor.RawTensor, backend tensor.Backend) []*tensor.RawTensor {
	return []*tensor.RawTensor{outputGrad.Clone()}
}

// Inputs returns the input tensor [z].
func (op *StraightThroughOp) Inputs() []*tensor.RawTensor {
	return op.inputs
}

// Output returns the binarized tensor.
func (op *StraightThroughOp) Output() *tensor.RawTensor {
	return op.output
}
