// Package nn implements neural network modules for the BANet captioning stack.
//
// This package provides the building blocks the caption models are made of:
//   - Module interface: Base interface for all NN components
//   - Parameter: Trainable parameters with gradient tracking
//   - Linear, Embedding, Conv2D, BatchNorm2D: Parameterized layers
//   - LSTMCell, GRUCell: Recurrent cells used by the encoder and decoder
//   - Activations: ReLU, Sigmoid, Tanh
//   - Dropout: Inverted dropout regularization
//   - Loss functions: CrossEntropy, MaskedCrossEntropy
//   - Sequential: Container for stacking layers
//
// Design inspired by PyTorch's nn.Module but adapted for Go generics.
package nn

import (
	"fmt"

	"github.com/banet-ml/banet/internal/serialization"
	"github.com/banet-ml/banet/internal/tensor"
)

// Module is the base interface for single-input neural network components.
//
// Every module must implement:
//   - Forward: Compute output from input
//   - Parameters: Return all trainable parameters
//
// Modules with multiple inputs (recurrent cells, loss functions) do not
// satisfy this interface; they expose the same Parameters method and their
// own Forward signatures.
//
// Type parameter B must satisfy the tensor.Backend interface.
type Module[B tensor.Backend] interface {
	// Forward computes the output of the module given an input tensor.
	//
	// The input tensor should have the appropriate shape for this module.
	// For example, Linear expects [batch_size, in_features].
	Forward(input *tensor.Tensor[float32, B]) *tensor.Tensor[float32, B]

	// Parameters returns all trainable parameters of this module.
	//
	// This includes weights, biases, and any nested module parameters.
	// Returns an empty slice for modules without trainable parameters
	// (e.g., activation functions).
	Parameters() []*Parameter[B]
}

// StateModule is implemented by modules whose state can be serialized.
//
// State includes trainable parameters and persistent buffers (such as
// BatchNorm2D running statistics). Stateless modules like activations and
// pooling layers do not implement this interface; containers skip them
// when collecting state.
type StateModule interface {
	// StateDict returns a map of state entry names to raw tensors.
	//
	// The returned tensors are the live buffers, not copies.
	StateDict() map[string]*tensor.RawTensor

	// LoadStateDict copies values from a state dictionary into the
	// module's existing buffers. Shapes and dtypes must match.
	LoadStateDict(stateDict map[string]*tensor.RawTensor) error
}

// Save writes a module's state to a .banet file.
//
// Example:
//
//	model := nn.NewLinear[*cpu.CPUBackend](512, 1000, backend)
//	err := nn.Save(model, "model.banet", "Linear", nil)
func Save(module StateModule, path, modelType string, metadata map[string]string) (err error) {
	writer, err := serialization.NewBanetWriter(path)
	if err != nil {
		return err
	}
	defer func() {
		if closeErr := writer.Close(); closeErr != nil && err == nil {
			err = closeErr
		}
	}()

	return writer.WriteStateDict(module.StateDict(), modelType, metadata)
}

// Load reads a .banet file into a pre-constructed module.
//
// The module must have the same architecture as the one that was saved;
// its existing buffers are overwritten in place. Returns the file header
// so callers can inspect model type and metadata.
func Load(path string, backend tensor.Backend, module StateModule) (header serialization.Header, err error) {
	reader, err := serialization.NewBanetReader(path)
	if err != nil {
		return serialization.Header{}, err
	}
	defer func() {
		if closeErr := reader.Close(); closeErr != nil && err == nil {
			err = closeErr
		}
	}()

	stateDict, err := reader.ReadStateDict(backend)
	if err != nil {
		return serialization.Header{}, err
	}
	if err := module.LoadStateDict(stateDict); err != nil {
		return serialization.Header{}, err
	}

	return reader.Header(), nil
}

// LoadStateEntry copies one float32 entry from a state dictionary into dst.
//
// Validates presence, shape, and dtype before copying. Layer and model
// LoadStateDict implementations use it so each stays short.
func LoadStateEntry(stateDict map[string]*tensor.RawTensor, key string, expectedShape tensor.Shape, dst []float32) error {
	raw, ok := stateDict[key]
	if !ok {
		return fmt.Errorf("missing %s in state dict", key)
	}
	if !raw.Shape().Equal(expectedShape) {
		return fmt.Errorf("%s shape mismatch: expected %v, got %v", key, expectedShape, raw.Shape())
	}
	if raw.DType() != tensor.Float32 {
		return fmt.Errorf("%s dtype mismatch: expected float32, got %v", key, raw.DType())
	}
	copy(dst, raw.AsFloat32())
	return nil
}
