// Copyright 2025 BANet Authors. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

package nn

import (
	"github.com/banet-ml/banet/internal/nn"
	"github.com/banet-ml/banet/internal/serialization"
	"github.com/banet-ml/banet/internal/tensor"
)

// Module is the base interface for all single-input neural network components.
//
// Every module must implement:
//   - Forward: Compute output from input
//   - Parameters: Return all trainable parameters
//
// Modules with multiple inputs (recurrent cells, loss functions) expose the
// same Parameters method with their own Forward signatures.
//
// Modules can be composed to build complex architectures:
//
//	model := nn.NewSequential(
//	    nn.NewLinear(512, 128, backend),
//	    nn.NewReLU[*cpu.CPUBackend](),
//	    nn.NewLinear(128, 10, backend),
//	)
type Module[B tensor.Backend] = nn.Module[B]

// StateModule is implemented by modules whose state can be serialized.
//
// State includes trainable parameters and persistent buffers (such as
// BatchNorm2D running statistics).
type StateModule = nn.StateModule

// Header describes a serialized .banet file.
type Header = serialization.Header

// Save writes a module's state to a .banet file.
//
// Parameters:
//   - module: The module to save
//   - path: File path to write to
//   - modelType: Type name of the model (e.g., "BANet", "Linear")
//   - metadata: Optional metadata (can be nil)
//
// Example:
//
//	backend := cpu.New()
//	model := nn.NewLinear(784, 10, backend)
//	err := nn.Save(model, "model.banet", "Linear", nil)
func Save(module StateModule, path, modelType string, metadata map[string]string) error {
	return nn.Save(module, path, modelType, metadata)
}

// Load reads a module's state from a .banet file.
//
// The module must be pre-constructed with the same architecture as when it
// was saved; its existing buffers are overwritten in place.
//
// Example:
//
//	backend := cpu.New()
//	model := nn.NewLinear(784, 10, backend)
//	header, err := nn.Load("model.banet", backend, model)
func Load(path string, backend tensor.Backend, module StateModule) (Header, error) {
	return nn.Load(path, backend, module)
}

// Checkpoint is a complete training state snapshot: model parameters,
// optimizer state, and training metadata (epoch, step, loss).
type Checkpoint = nn.Checkpoint

// OptimizerState represents an optimizer that can save and load its state.
// Optimizers from the optim package implement it.
type OptimizerState = nn.OptimizerState

// SaveCheckpoint writes a training checkpoint to a .banet file.
//
// Example:
//
//	err := nn.SaveCheckpoint("banet_epoch_10.banet", model, optimizer, 10)
func SaveCheckpoint(path string, model StateModule, optimizer OptimizerState, epoch int) error {
	return nn.SaveCheckpoint(path, model, optimizer, epoch)
}

// LoadCheckpoint reads a training checkpoint from a .banet file.
//
// The model and optimizer must be pre-constructed with the same
// architecture and configuration as when the checkpoint was saved.
//
// Example:
//
//	checkpoint, err := nn.LoadCheckpoint("banet_epoch_10.banet", backend, model, optimizer)
//	startEpoch := checkpoint.Epoch + 1
func LoadCheckpoint(path string, backend tensor.Backend, model StateModule, optimizer OptimizerState) (*Checkpoint, error) {
	return nn.LoadCheckpoint(path, backend, model, optimizer)
}
