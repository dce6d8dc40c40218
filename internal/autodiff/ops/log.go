package ops

import "github.com/banet-ml/banet/internal/tensor"

// LogOp records output = ln(x).
//
// Backward: d(ln(x))/dx = 1/x.
type LogOp struct {
	inputs []*tensor.RawTensor // [x]
	output *tensor.RawTensor
}

// NewLogOp creates a new LogOp.
func NewLogOp(x, output *tensor.RawTensor) *LogOp {
	return &LogOp{
		inputs: []*tensor.RawTensor{x},
		output: output,
	}
}

// Backward computes dL/dx = dL/dout / x.
func (op *LogOp) Backward(outputGrad *tensor.RawTensor, backend tensor.Backend) []*tensor.RawTensor {
	return []*tensor.RawTensor{backend.Div(outputGrad, op.inputs[0])}
}

// Inputs returns the input tensor [x].
func (op *LogOp) Inputs() []*tensor.RawTensor {
	return op.inputs
}

// Output returns the output tensor ln(x).
func (op *LogOp) Output() *tensor.RawTensor {
	return op.output
}
