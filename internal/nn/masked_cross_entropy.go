package nn

import (
	"github.com/banet-ml/banet/internal/tensor"
)

// MaskedCrossEntropyLoss computes cross-entropy over a batch where some
// rows are padding.
//
// Caption batches pad every sequence to the longest caption; positions
// past a caption's end carry no signal and must not contribute to the
// loss. The mask marks real positions with 1 and padding with 0:
//
//	Loss = sum(mask[b] * -log_probs[b][target[b]]) / sum(mask)
//
// Masked rows are skipped entirely, so their target entries may hold any
// value. When every row is masked the loss is zero and no gradient flows.
//
// Usage:
//
//	criterion := nn.NewMaskedCrossEntropyLoss[Backend](backend)
//	loss := criterion.Forward(logits, targets, mask)
type MaskedCrossEntropyLoss[B tensor.Backend] struct {
	backend B
}

// NewMaskedCrossEntropyLoss creates a masked cross-entropy loss function.
func NewMaskedCrossEntropyLoss[B tensor.Backend](backend B) *MaskedCrossEntropyLoss[B] {
	return &MaskedCrossEntropyLoss[B]{
		backend: backend,
	}
}

// Forward computes the masked mean cross-entropy loss.
//
// Parameters:
//   - logits: Unnormalized scores [batch_size, num_classes]
//   - targets: Class indices [batch_size]; entries under a zero mask are ignored
//   - mask: Position weights [batch_size], 1 for real rows and 0 for padding
//
// Returns a scalar loss tensor of shape [1].
//
// With an autodiff-aware backend the loss is recorded on the tape as a
// single fused operation.
func (c *MaskedCrossEntropyLoss[B]) Forward(
	logits *tensor.Tensor[float32, B],
	targets *tensor.Tensor[int32, B],
	mask *tensor.Tensor[float32, B],
) *tensor.Tensor[float32, B] {
	type MaskedCrossEntropyBackend interface {
		MaskedCrossEntropy(logits, targets, mask *tensor.RawTensor) *tensor.RawTensor
	}

	if adBackend, ok := any(c.backend).(MaskedCrossEntropyBackend); ok {
		resultRaw := adBackend.MaskedCrossEntropy(logits.Raw(), targets.Raw(), mask.Raw())
		return tensor.New[float32, B](resultRaw, c.backend)
	}

	// Manual computation for non-autodiff backends
	shape := logits.Shape()
	if len(shape) != 2 {
		panic("MaskedCrossEntropyLoss: logits must be 2D [batch_size, num_classes]")
	}

	batchSize := shape[0]
	numClasses := shape[1]

	targetsData := targets.Raw().AsInt32()
	if len(targetsData) != batchSize {
		panic("MaskedCrossEntropyLoss: targets must have shape [batch_size]")
	}
	maskData := mask.Raw().AsFloat32()
	if len(maskData) != batchSize {
		panic("MaskedCrossEntropyLoss: mask must have shape [batch_size]")
	}

	logitsData := logits.Raw().AsFloat32()

	totalLoss := float32(0.0)
	count := float32(0.0)
	for b := 0; b < batchSize; b++ {
		if maskData[b] == 0 {
			continue
		}

		sampleLogits := logitsData[b*numClasses : (b+1)*numClasses]
		logProbs := logSoftmax(sampleLogits)

		target := int(targetsData[b])
		if target < 0 || target >= numClasses {
			panic("MaskedCrossEntropyLoss: target index out of bounds")
		}

		totalLoss += maskData[b] * -logProbs[target]
		count += maskData[b]
	}

	meanLoss := float32(0.0)
	if count > 0 {
		meanLoss = totalLoss / count
	}

	lossRaw, err := tensor.NewRaw(tensor.Shape{1}, tensor.Float32, c.backend.Device())
	if err != nil {
		panic(err)
	}
	lossRaw.AsFloat32()[0] = meanLoss

	return tensor.New[float32, B](lossRaw, c.backend)
}

// Parameters returns nil; loss functions have no trainable parameters.
func (c *MaskedCrossEntropyLoss[B]) Parameters() []*Parameter[B] {
	return nil
}
