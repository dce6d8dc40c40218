package ops

import (
	"fmt"

	"github.com/banet-ml/banet/internal/tensor"
)

// SumOp records output = sum(x), a full reduction to a scalar.
//
// Backward broadcasts the scalar gradient to every input element.
type SumOp struct {
	inputs []*tensor.RawTensor // [x]
	output *tensor.RawTensor
}

// NewSumOp creates a new SumOp.
func NewSumOp(x, output *tensor.RawTensor) *SumOp {
	return &SumOp{
		inputs: []*tensor.RawTensor{x},
		output: output,
	}
}

// Backward fills the input shape with the scalar output gradient.
func (op *SumOp) Backward(outputGrad *tensor.RawTensor, backend tensor.Backend) []*tensor.RawTensor {
	input := op.inputs[0]

	grad, err := tensor.NewRaw(input.Shape().Clone(), outputGrad.DType(), outputGrad.Device())
	if err != nil {
		panic(fmt.Sprintf("sumBackward: failed to create result: %v", err))
	}

	switch outputGrad.DType() {
	case tensor.Float32:
		g := outputGrad.AsFloat32()[0]
		dst := grad.AsFloat32()
		for i := range dst {
			dst[i] = g
		}
	case tensor.Float64:
		g := outputGrad.AsFloat64()[0]
		dst := grad.AsFloat64()
		for i := range dst {
			dst[i] = g
		}
	default:
		panic(fmt.Sprintf("sumBackward: unsupported dtype %v (only float32/float64 supported)", outputGrad.DType()))
	}

	return []*tensor.RawTensor{grad}
}

// Inputs returns the input tensor [x].
func (op *SumOp) Inputs() []*tensor.RawTensor {
	return op.inputs
}

// Output returns the scalar output tensor.
func (op *SumOp) Output() *tensor.RawTensor {
	return op.output
}
