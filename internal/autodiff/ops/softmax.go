package ops

import "github.com/banet-ml/banet/internal/tensor"

// SoftmaxOp records output = softmax(x, dim).
//
// Backward uses the Jacobian-vector product along the softmax dimension:
// dL/dx = out * (dL/dout - sum(dL/dout * out, dim)).
type SoftmaxOp struct {
	inputs []*tensor.RawTensor // [x]
	output *tensor.RawTensor
	dim    int
}

// NewSoftmaxOp creates a new SoftmaxOp.
func NewSoftmaxOp(x, output *tensor.RawTensor, dim int) *SoftmaxOp {
	return &SoftmaxOp{
		inputs: []*tensor.RawTensor{x},
		output: output,
		dim:    normalizeDim(dim, len(x.Shape())),
	}
}

// Backward computes the softmax input gradient.
func (op *SoftmaxOp) Backward(outputGrad *tensor.RawTensor, backend tensor.Backend) []*tensor.RawTensor {
	// sum(dL/dout * out, dim) kept at size 1 so it broadcasts back over dim.
	dot := backend.SumDim(backend.Mul(outputGrad, op.output), op.dim, true)
	gradInput := backend.Mul(op.output, backend.Sub(outputGrad, dot))
	return []*tensor.RawTensor{gradInput}
}

// Inputs returns the input tensor [x].
func (op *SoftmaxOp) Inputs() []*tensor.RawTensor {
	return op.inputs
}

// Output returns the output tensor softmax(x, dim).
func (op *SoftmaxOp) Output() *tensor.RawTensor {
	return op.output
}
