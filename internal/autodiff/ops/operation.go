// Package ops defines the differentiable operations recorded on the gradient
// tape during a forward pass.
//
// Each operation captures its input and output RawTensors and knows how to
// turn an output gradient into input gradients. The tape walks recorded
// operations in reverse and accumulates gradients per tensor; operations that
// broadcast during the forward pass reduce their gradients back to the input
// shapes.
package ops

import "github.com/banet-ml/banet/internal/tensor"

// Operation is a single differentiable step in the computation graph.
type Operation interface {
	// Backward computes gradients for the operation's inputs given the
	// gradient of its output. The returned slice aligns with Inputs().
	Backward(outputGrad *tensor.RawTensor, backend tensor.Backend) []*tensor.RawTensor

	// Inputs returns the tensors this operation consumed.
	Inputs() []*tensor.RawTensor

	// Output returns the tensor this operation produced.
	Output() *tensor.RawTensor
}

// MultiOutputOperation is an operation with several outputs, such as Chunk
// splitting packed gate pre-activations into per-gate tensors. The tape
// collects gradients for every output (zero-filling missing ones) before
// calling BackwardMulti; Backward must not be called on these operations.
type MultiOutputOperation interface {
	Operation

	// Outputs returns all tensors this operation produced.
	Outputs() []*tensor.RawTensor

	// BackwardMulti computes input gradients given gradients for all outputs.
	BackwardMulti(outputGrads []*tensor.RawTensor, backend tensor.Backend) []*tensor.RawTensor
}
