package ops

import "github.com/banet-ml/banet/internal/tensor"

// TanhOp records output = tanh(x).
//
// Backward reuses the forward result: d(tanh(x))/dx = 1 - out².
type TanhOp struct {
	inputs []*tensor.RawTensor // [x]
	output *tensor.RawTensor
}

// NewTanhOp creates a new TanhOp.
func NewTanhOp(x, output *tensor.RawTensor) *TanhOp {
	return &TanhOp{
		inputs: []*tensor.RawTensor{x},
		output: output,
	}
}

// Backward computes dL/dx = dL/dout * (1 - tanh(x)²).
func (op *TanhOp) Backward(outputGrad *tensor.RawTensor, backend tensor.Backend) []*tensor.RawTensor {
	local := backend.AddScalar(backend.Neg(backend.Mul(op.output, op.output)), 1.0)
	return []*tensor.RawTensor{backend.Mul(outputGrad, local)}
}

// Inputs returns the input tensor [x].
func (op *TanhOp) Inputs() []*tensor.RawTensor {
	return op.inputs
}

// Output returns the output tensor tanh(x).
func (op *TanhOp) Output() *tensor.RawTensor {
	return op.output
}
