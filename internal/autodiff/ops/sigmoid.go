package ops

import "github.com/banet-ml/banet/internal/tensor"

// SigmoidOp records output = 1 / (1 + exp(-x)).
//
// Backward reuses the forward result: d(sigmoid(x))/dx = out * (1 - out).
type SigmoidOp struct {
	inputs []*tensor.RawTensor // [x]
	output *tensor.RawTensor
}

// NewSigmoidOp creates a new SigmoidOp.
func NewSigmoidOp(x, output *tensor.RawTensor) *SigmoidOp {
	return &SigmoidOp{
		inputs: []*tensor.RawTensor{x},
		output: output,
	}
}

// Backward computes dL/dx = dL/dout * out * (1 - out).
func (op *SigmoidOp) Backward(outputGrad *tensor.RawTensor, backend tensor.Backend) []*tensor.RawTensor {
	oneMinusOut := backend.AddScalar(backend.Neg(op.output), 1.0)
	local := backend.Mul(op.output, oneMinusOut)
	return []*tensor.RawTensor{backend.Mul(outputGrad, local)}
}

// Inputs returns the input tensor [x].
func (op *SigmoidOp) Inputs() []*tensor.RawTensor {
	return op.inputs
}

// Output returns the output tensor sigmoid(x).
func (op *SigmoidOp) Output() *tensor.RawTensor {
	return op.output
}
