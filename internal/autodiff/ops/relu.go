package ops

import "github.com/banet-ml/banet/internal/tensor"

// ReLUOp records output = max(x, 0).
//
// Backward masks the gradient with the positive part of the input:
// dL/dx = dL/dout where x > 0, else 0.
type ReLUOp struct {
	inputs []*tensor.RawTensor // [x]
	output *tensor.RawTensor
}

// NewReLUOp creates a new ReLUOp.
func NewReLUOp(x, output *tensor.RawTensor) *ReLUOp {
	return &ReLUOp{
		inputs: []*tensor.RawTensor{x},
		output: output,
	}
}

// Backward zeroes the gradient wherever the input was non-positive.
func (op *ReLUOp) Backward(outputGrad *tensor.RawTensor, backend tensor.Backend) []*tensor.RawTensor {
	mask := backend.GreaterScalar(op.inputs[0], 0)
	return []*tensor.RawTensor{backend.Mul(outputGrad, mask)}
}

// Inputs returns the input tensor [x].
func (op *ReLUOp) Inputs() []*tensor.RawTensor {
	return op.inputs
}

// Output returns the output tensor max(x, 0).
func (op *ReLUOp) Output() *tensor.RawTensor {
	return op.output
}
