package ops

import "github.com/banet-ml/banet/internal/tensor"

// ReshapeOp records a reshape. The element order is unchanged, so the
// backward pass just reshapes the output gradient back to the input shape.
type ReshapeOp struct {
	inputs     []*tensor.RawTensor // [x]
	output     *tensor.RawTensor
	inputShape tensor.Shape
}

// NewReshapeOp creates a new ReshapeOp.
func NewReshapeOp(x, output *tensor.RawTensor) *ReshapeOp {
	return &ReshapeOp{
		inputs:     []*tensor.RawTensor{x},
		output:     output,
		inputShape: x.Shape().Clone(),
	}
}

// Backward reshapes the output gradient to the original input shape.
func (op *ReshapeOp) Backward(outputGrad *tensor.RawTensor, backend tensor.Backend) []*tensor.RawTensor {
	return []*tensor.RawTensor{backend.Reshape(outputGrad, op.inputShape)}
}

// Inputs returns the input tensor [x].
func (op *ReshapeOp) Inputs() []*tensor.RawTensor {
	return op.inputs
}

// Output returns the reshaped tensor.
func (op *ReshapeOp) Output() *tensor.RawTensor {
	return op.output
}
