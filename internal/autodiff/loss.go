package autodiff

import (
	"github.com/banet-ml/banet/internal/autodiff/ops"
	"github.com/banet-ml/banet/internal/tensor"
)

// CrossEntropy computes the mean softmax cross-entropy loss over a batch
// and records the fused operation.
//
// Logits are [batch, numClasses], targets are int32 class indices [batch].
// Recording softmax and the negative log-likelihood as one op keeps the
// backward pass at the numerically clean softmax-minus-onehot form.
func (b *AutodiffBackend[B]) CrossEntropy(logits, targets *tensor.RawTensor) *tensor.RawTensor {
	defer logits.ForceNonUnique()()

	result := ops.CrossEntropyForward(logits, targets, b.Device())

	if b.tape.IsRecording() {
		b.tape.Record(ops.NewCrossEntropyOp(logits, targets, result))
	}

	return result
}

// MaskedCrossEntropy computes cross-entropy over rows where mask is 1,
// normalized by the mask sum, and records the fused operation. Padded
// caption positions carry mask 0 and contribute neither loss nor gradient.
//
// Logits are [rows, numClasses]; targets and mask are [rows].
func (b *AutodiffBackend[B]) MaskedCrossEntropy(logits, targets, mask *tensor.RawTensor) *tensor.RawTensor {
	defer logits.ForceNonUnique()()

	result := ops.MaskedCrossEntropyForward(logits, targets, mask, b.Device())

	if b.tape.IsRecording() {
		b.tape.Record(ops.NewMaskedCrossEntropyOp(logits, targets, mask, result))
	}

	return result
}
