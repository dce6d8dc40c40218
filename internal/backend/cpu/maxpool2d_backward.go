package cpu

import (
	"fmt"

	"github.com/banet-ml/banet/internal/tensor"
)

// MaxPool2DBackward routes pooling gradients back to the input positions that
// won the forward max. maxIndices[k] holds the flat input index of the winner
// for the k-th output element (row-major over [N,C,outH,outW]); every other
// position in the window receives zero. Overlapping windows can route to the
// same input position, so gradients accumulate.
func (cpu *CPUBackend) MaxPool2DBackward(input, grad *tensor.RawTensor, maxIndices []int) *tensor.RawTensor {
	if len(maxIndices) != grad.NumElements() {
		panic(fmt.Sprintf("maxpool2dBackward: %d max indices for %d output elements",
			len(maxIndices), grad.NumElements()))
	}

	inputGrad := cpu.newResult(input.Shape(), grad.DType(), "maxpool2dBackward")

	switch grad.DType() {
	case tensor.Float32:
		dst := inputGrad.AsFloat32()
		for k, g := range grad.AsFloat32() {
			dst[maxIndices[k]] += g
		}
	case tensor.Float64:
		dst := inputGrad.AsFloat64()
		for k, g := range grad.AsFloat64() {
			dst[maxIndices[k]] += g
		}
	default:
		panic(fmt.Sprintf("maxpool2dBackward: unsupported dtype %s (only float32/float64 supported)", grad.DType()))
	}

	return inputGrad
}
