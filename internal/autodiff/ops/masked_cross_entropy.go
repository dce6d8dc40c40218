package ops

import (
	"fmt"

	"github.com/banet-ml/banet/internal/tensor"
)

// MaskedCrossEntropyOp records cross-entropy over a batch where some rows
// are padding. Caption batches are padded to the longest sequence, so the
// flattened [steps*batch] rows carry a 0/1 mask and the loss normalizes by
// the number of real rows instead of the row count:
//
//	loss = sum_b(mask[b] * nll[b]) / sum_b(mask[b])
//
// Backward zeroes the gradient of masked rows and scales the rest by the
// same mask sum. A fully masked batch produces zero loss and zero gradient.
type MaskedCrossEntropyOp struct {
	logits  *tensor.RawTensor
	targets *tensor.RawTensor
	mask    *tensor.RawTensor
	output  *tensor.RawTensor
}

// NewMaskedCrossEntropyOp creates a new MaskedCrossEntropyOp.
func NewMaskedCrossEntropyOp(logits, targets, mask, output *tensor.RawTensor) *MaskedCrossEntropyOp {
	return &MaskedCrossEntropyOp{
		logits:  logits,
		targets: targets,
		mask:    mask,
		output:  output,
	}
}

// Backward computes the masked softmax-minus-onehot gradient for the logits.
func (op *MaskedCrossEntropyOp) Backward(outputGrad *tensor.RawTensor, _ tensor.Backend) []*tensor.RawTensor {
	shape := op.logits.Shape()
	batchSize, numClasses := shape[0], shape[1]

	grad, err := tensor.NewRaw(shape.Clone(), op.logits.DType(), op.logits.Device())
	if err != nil {
		panic(fmt.Sprintf("maskedCrossEntropyBackward: failed to create result: %v", err))
	}

	targets := op.targets.AsInt32()

	switch op.logits.DType() {
	case tensor.Float32:
		logits, dst := op.logits.AsFloat32(), grad.AsFloat32()
		mask := op.mask.AsFloat32()

		count := float32(0)
		for _, m := range mask {
			count += m
		}
		if count == 0 {
			return []*tensor.RawTensor{grad}
		}

		scale := outputGrad.AsFloat32()[0] / count
		for b := 0; b < batchSize; b++ {
			if mask[b] == 0 {
				continue
			}
			row := logits[b*numClasses : (b+1)*numClasses]
			probs := softmaxRowFloat32(row)
			target := int(targets[b])
			for i, p := range probs {
				if i == target {
					p -= 1.0
				}
				dst[b*numClasses+i] = scale * mask[b] * p
			}
		}
	case tensor.Float64:
		logits, dst := op.logits.AsFloat64(), grad.AsFloat64()
		mask := op.mask.AsFloat64()

		count := 0.0
		for _, m := range mask {
			count += m
		}
		if count == 0 {
			return []*tensor.RawTensor{grad}
		}

		scale := outputGrad.AsFloat64()[0] / count
		for b := 0; b < batchSize; b++ {
			if mask[b] == 0 {
				continue
			}
			row := logits[b*numClasses : (b+1)*numClasses]
			probs := softmaxRowFloat64(row)
			target := int(targets[b])
			for i, p := range probs {
				if i == target {
					p -= 1.0
				}
				dst[b*numClasses+i] = scale * mask[b] * p
			}
		}
	default:
		panic(fmt.Sprintf("maskedCrossEntropyBackward: unsupported dtype %v (only float32/float64 supported)", op.logits.DType()))
	}

	return []*tensor.RawTensor{grad}
}

// Inputs returns the logits tensor. Targets and mask are treated as
// constants.
func (op *MaskedCrossEntropyOp) Inputs() []*tensor.RawTensor {
	return []*tensor.RawTensor{op.logits}
}

// Output returns the [1] loss tensor.
func (op *MaskedCrossEntropyOp) Output() *tensor.RawTensor {
	return op.output
}

// MaskedCrossEntropyForward computes mask-weighted cross-entropy normalized
// by the mask sum. Masked rows are skipped entirely, so their targets may
// hold any value.
func MaskedCrossEntropyForward(logits, targets, mask *tensor.RawTensor, device tensor.Device) *tensor.RawTensor {
	shape := logits.Shape()
	if len(shape) != 2 {
		panic(fmt.Sprintf("maskedCrossEntropy: expected 2D logits [batch, classes], got %dD", len(shape)))
	}
	if len(targets.Shape()) != 1 || targets.Shape()[0] != shape[0] {
		panic(fmt.Sprintf("maskedCrossEntropy: targets shape %v does not match logits batch %d", targets.Shape(), shape[0]))
	}
	if len(mask.Shape()) != 1 || mask.Shape()[0] != shape[0] {
		panic(fmt.Sprintf("maskedCrossEntropy: mask shape %v does not match logits batch %d", mask.Shape(), shape[0]))
	}

	batchSize, numClasses := shape[0], shape[1]

	output, err := tensor.NewRaw(tensor.Shape{1}, logits.DType(), device)
	if err != nil {
		panic(fmt.Sprintf("maskedCrossEntropy: failed to create result: %v", err))
	}

	targetData := targets.AsInt32()

	switch logits.DType() {
	case tensor.Float32:
		data := logits.AsFloat32()
		maskData := mask.AsFloat32()

		total, count := float32(0), float32(0)
		for b := 0; b < batchSize; b++ {
			m := maskData[b]
			if m == 0 {
				continue
			}
			row := data[b*numClasses : (b+1)*numClasses]
			target := int(targetData[b])
			if target < 0 || target >= numClasses {
				panic(fmt.Sprintf("maskedCrossEntropy: target %d out of range [0, %d)", target, numClasses))
			}
			total += -m * logSoftmaxRowFloat32(row)[target]
			count += m
		}
		if count > 0 {
			output.AsFloat32()[0] = total / count
		}
	case tensor.Float64:
		data := logits.AsFloat64()
		maskData := mask.AsFloat64()

		total, count := 0.0, 0.0
		for b := 0; b < batchSize; b++ {
			m := maskData[b]
			if m == 0 {
				continue
			}
			row := data[b*numClasses : (b+1)*numClasses]
			target := int(targetData[b])
			if target < 0 || target >= numClasses {
				panic(fmt.Sprintf("maskedCrossEntropy: target %d out of range [0, %d)", target, numClasses))
			}
			total += -m * logSoftmaxRowFloat64(row)[target]
			count += m
		}
		if count > 0 {
			output.AsFloat64()[0] = total / count
		}
	default:
		panic(fmt.Sprintf("maskedCrossEntropy: unsupported dtype %v (only float32/float64 supported)", logits.DType()))
	}

	return output
}
