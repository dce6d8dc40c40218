package nn

import (
	"fmt"
	"strings"
	"time"

	"github.com/banet-ml/banet/internal/serialization"
	"github.com/banet-ml/banet/internal/tensor"
)

// OptimizerState represents an optimizer that can save and load its state.
//
// This interface is used by checkpoints to serialize optimizer state
// without creating import cycles. Optimizers from the optim package
// implement it.
type OptimizerState interface {
	// StateDict returns the optimizer state for serialization.
	StateDict() map[string]*tensor.RawTensor

	// LoadStateDict loads optimizer state from serialization.
	LoadStateDict(stateDict map[string]*tensor.RawTensor) error

	// GetLR returns the current learning rate.
	GetLR() float32
}

// Checkpoint is a complete training state snapshot.
//
// A checkpoint bundles:
//   - Model parameters (weights, biases, buffers)
//   - Optimizer state (Adam moments, momentum buffers)
//   - Training metadata (epoch, step, loss)
//
// Checkpoints let interrupted caption training resume mid-run:
//
//	checkpoint := &nn.Checkpoint{
//	    Model:     model,
//	    Optimizer: optimizer,
//	    Epoch:     10,
//	    Step:      5000,
//	    Loss:      2.31,
//	}
//	err := checkpoint.Save("banet_epoch_10.banet")
//
// To resume:
//
//	checkpoint, err := nn.LoadCheckpoint("banet_epoch_10.banet", backend, model, optimizer)
//	startEpoch := checkpoint.Epoch + 1
type Checkpoint struct {
	Model     StateModule    // The model whose state is saved
	Optimizer OptimizerState // The optimizer with its state
	Epoch     int            // Training epoch number
	Step      int64          // Training step number
	Loss      float64        // Loss value at this checkpoint
	Metadata  map[string]any // Additional training metadata
	CreatedAt time.Time      // When the checkpoint was created
}

// optimizerPrefix namespaces optimizer entries inside the combined state
// dict so they never collide with model parameter names.
const optimizerPrefix = "optimizer."

// Save writes the checkpoint to a .banet file.
//
// Model and optimizer state are combined into one state dict, with
// optimizer entries prefixed by "optimizer.". The file can be loaded with
// LoadCheckpoint to resume training.
func (c *Checkpoint) Save(path string) (err error) {
	combined := make(map[string]*tensor.RawTensor)
	for name, raw := range c.Model.StateDict() {
		combined[name] = raw
	}
	for name, raw := range c.Optimizer.StateDict() {
		combined[optimizerPrefix+name] = raw
	}

	checkpointMeta := &serialization.CheckpointMeta{
		IsCheckpoint:    true,
		Epoch:           c.Epoch,
		Step:            c.Step,
		Loss:            c.Loss,
		OptimizerConfig: map[string]any{"lr": c.Optimizer.GetLR()},
		TrainingMeta:    c.Metadata,
	}

	writer, err := serialization.NewBanetWriter(path)
	if err != nil {
		return fmt.Errorf("failed to create writer: %w", err)
	}
	defer func() {
		if closeErr := writer.Close(); closeErr != nil && err == nil {
			err = closeErr
		}
	}()

	header := serialization.Header{
		ModelType:      "Checkpoint",
		CheckpointMeta: checkpointMeta,
	}

	// Checkpoints use the v2 layout; the checksum catches truncated files
	// at load time.
	if err := writer.WriteStateDictWithHeaderV2(combined, header); err != nil {
		return fmt.Errorf("failed to write checkpoint: %w", err)
	}

	return nil
}

// LoadCheckpoint reads a checkpoint from a .banet file.
//
// The model and optimizer must be pre-constructed with the same
// architecture and configuration as when the checkpoint was saved; their
// existing buffers are overwritten in place.
func LoadCheckpoint(
	path string,
	backend tensor.Backend,
	model StateModule,
	optimizer OptimizerState,
) (checkpoint *Checkpoint, err error) {
	reader, err := serialization.NewBanetReader(path)
	if err != nil {
		return nil, fmt.Errorf("failed to create reader: %w", err)
	}
	defer func() {
		if closeErr := reader.Close(); closeErr != nil && err == nil {
			err = closeErr
		}
	}()

	header := reader.Header()
	if header.CheckpointMeta == nil || !header.CheckpointMeta.IsCheckpoint {
		return nil, fmt.Errorf("file is not a checkpoint")
	}

	stateDict, err := reader.ReadStateDict(backend)
	if err != nil {
		return nil, fmt.Errorf("failed to read state dict: %w", err)
	}

	modelStateDict := make(map[string]*tensor.RawTensor)
	optimizerStateDict := make(map[string]*tensor.RawTensor)
	for name, raw := range stateDict {
		if strings.HasPrefix(name, optimizerPrefix) {
			optimizerStateDict[strings.TrimPrefix(name, optimizerPrefix)] = raw
		} else {
			modelStateDict[name] = raw
		}
	}

	if err := model.LoadStateDict(modelStateDict); err != nil {
		return nil, fmt.Errorf("failed to load model state: %w", err)
	}
	if err := optimizer.LoadStateDict(optimizerStateDict); err != nil {
		return nil, fmt.Errorf("failed to load optimizer state: %w", err)
	}

	return &Checkpoint{
		Model:     model,
		Optimizer: optimizer,
		Epoch:     header.CheckpointMeta.Epoch,
		Step:      header.CheckpointMeta.Step,
		Loss:      header.CheckpointMeta.Loss,
		Metadata:  header.CheckpointMeta.TrainingMeta,
		CreatedAt: header.CreatedAt,
	}, nil
}

// SaveCheckpoint is a convenience wrapper for the common save case.
func SaveCheckpoint(path string, model StateModule, optimizer OptimizerState, epoch int) error {
	checkpoint := &Checkpoint{
		Model:     model,
		Optimizer: optimizer,
		Epoch:     epoch,
		CreatedAt: time.Now().UTC(),
	}
	return checkpoint.Save(path)
}
