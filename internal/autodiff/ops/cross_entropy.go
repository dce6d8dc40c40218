package ops

import (
	"fmt"
	"math"

	"github.com/banet-ml/banet/internal/tensor"
)

// CrossEntropyOp records the fused softmax cross-entropy loss.
//
// Forward: loss = mean_b(-log_softmax(logits[b])[targets[b]])
//
// Backward uses the fused gradient, which is why softmax and the loss are
// recorded as one op:
//
//	dL/dlogits[b,i] = (softmax(logits[b])[i] - onehot[b,i]) / batchSize
//
// Logits are [batchSize, numClasses], targets are int32 class indices
// [batchSize], the output is a [1] loss tensor. The integer targets take no
// gradient and are not reported as an input.
type CrossEntropyOp struct {
	logits  *tensor.RawTensor
	targets *tensor.RawTensor
	output  *tensor.RawTensor
}

// NewCrossEntropyOp creates a new CrossEntropyOp.
func NewCrossEntropyOp(logits, targets, output *tensor.RawTensor) *CrossEntropyOp {
	return &CrossEntropyOp{
		logits:  logits,
		targets: targets,
		output:  output,
	}
}

// Backward computes the fused softmax-minus-onehot gradient for the logits.
func (op *CrossEntropyOp) Backward(outputGrad *tensor.RawTensor, _ tensor.Backend) []*tensor.RawTensor {
	shape := op.logits.Shape()
	batchSize, numClasses := shape[0], shape[1]

	grad, err := tensor.NewRaw(shape.Clone(), op.logits.DType(), op.logits.Device())
	if err != nil {
		panic(fmt.Sprintf("crossEntropyBackward: failed to create result: %v", err))
	}

	targets := op.targets.AsInt32()

	switch op.logits.DType() {
	case tensor.Float32:
		logits, dst := op.logits.AsFloat32(), grad.AsFloat32()
		scale := outputGrad.AsFloat32()[0] / float32(batchSize)
		for b := 0; b < batchSize; b++ {
			row := logits[b*numClasses : (b+1)*numClasses]
			probs := softmaxRowFloat32(row)
			target := int(targets[b])
			for i, p := range probs {
				if i == target {
					p -= 1.0
				}
				dst[b*numClasses+i] = scale * p
			}
		}
	case tensor.Float64:
		logits, dst := op.logits.AsFloat64(), grad.AsFloat64()
		scale := outputGrad.AsFloat64()[0] / float64(batchSize)
		for b := 0; b < batchSize; b++ {
			row := logits[b*numClasses : (b+1)*numClasses]
			probs := softmaxRowFloat64(row)
			target := int(targets[b])
			for i, p := range probs {
				if i == target {
					p -= 1.0
				}
				dst[b*numClasses+i] = scale * p
			}
		}
	default:
		panic(fmt.Sprintf("crossEntropyBackward: unsupported dtype %v (only float32/float64 supported)", op.logits.DType()))
	}

	return []*tensor.RawTensor{grad}
}

// Inputs returns the logits tensor. Targets are excluded since integer
// tensors take no gradient.
func (op *CrossEntropyOp) Inputs() []*tensor.RawTensor {
	return []*tensor.RawTensor{op.logits}
}

// Output returns the [1] loss tensor.
func (op *CrossEntropyOp) Output() *tensor.RawTensor {
	return op.output
}

// CrossEntropyForward computes the mean cross-entropy loss over a batch.
// Log-softmax uses the log-sum-exp trick, so large logits stay finite.
func CrossEntropyForward(logits, targets *tensor.RawTensor, device tensor.Device) *tensor.RawTensor {
	shape := logits.Shape()
	if len(shape) != 2 {
		panic(fmt.Sprintf("crossEntropy: expected 2D logits [batch, classes], got %dD", len(shape)))
	}
	if len(targets.Shape()) != 1 || targets.Shape()[0] != shape[0] {
		panic(fmt.Sprintf("crossEntropy: targets shape %v does not match logits batch %d", targets.Shape(), shape[0]))
	}

	batchSize, numClasses := shape[0], shape[1]

	output, err := tensor.NewRaw(tensor.Shape{1}, logits.DType(), device)
	if err != nil {
		panic(fmt.Sprintf("crossEntropy: failed to create result: %v", err))
	}

	targetData := targets.AsInt32()

	switch logits.DType() {
	case tensor.Float32:
		data := logits.AsFloat32()
		total := float32(0)
		for b := 0; b < batchSize; b++ {
			row := data[b*numClasses : (b+1)*numClasses]
			target := int(targetData[b])
			if target < 0 || target >= numClasses {
				panic(fmt.Sprintf("crossEntropy: target %d out of range [0, %d)", target, numClasses))
			}
			total += -logSoftmaxRowFloat32(row)[target]
		}
		output.AsFloat32()[0] = total / float32(batchSize)
	case tensor.Float64:
		data := logits.AsFloat64()
		total := 0.0
		for b := 0; b < batchSize; b++ {
			row := data[b*numClasses : (b+1)*numClasses]
			target := int(targetData[b])
			if target < 0 || target >= numClasses {
				panic(fmt.Sprintf("crossEntropy: target %d out of range [0, %d)", target, numClasses))
			}
			total += -logSoftmaxRowFloat64(row)[target]
		}
		output.AsFloat64()[0] = total / float64(batchSize)
	default:
		panic(fmt.Sprintf("crossEntropy: unsupported dtype %v (only float32/float64 supported)", logits.DType()))
	}

	return output
}

func softmaxRowFloat32(logits []float32) []float32 {
	probs := make([]float32, len(logits))

	maxVal := logits[0]
	for _, v := range logits[1:] {
		if v > maxVal {
			maxVal = v
		}
	}

	sum := float32(0)
	for i, v := range logits {
		probs[i] = float32(math.Exp(float64(v - maxVal)))
		sum += probs[i]
	}
	for i := range probs {
		probs[i] /= sum
	}

	return probs
}

func softmaxRowFloat64(logits []float64) []float64 {
	probs := make([]float64, len(logits))

	maxVal := logits[0]
	for _, v := range logits[1:] {
		if v > maxVal {
			maxVal = v
		}
	}

	sum := 0.0
	for i, v := range logits {
		probs[i] = math.Exp(v - maxVal)
		sum += probs[i]
	}
	for i := range probs {
		probs[i] /= sum
	}

	return probs
}

func logSoftmaxRowFloat32(logits []float32) []float32 {
	result := make([]float32, len(logits))

	maxVal := logits[0]
	for _, v := range logits[1:] {
		if v > maxVal {
			maxVal = v
		}
	}

	sum := float32(0)
	for _, v := range logits {
		sum += float32(math.Exp(float64(v - maxVal)))
	}
	logSumExp := maxVal + float32(math.Log(float64(sum)))

	for i, v := range logits {
		result[i] = v - logSumExp
	}

	return result
}

func logSoftmaxRowFloat64(logits []float64) []float64 {
	result := make([]float64, len(logits))

	maxVal := logits[0]
	for _, v := range logits[1:] {
		if v > maxVal {
			maxVal = v
		}
	}

	sum := 0.0
	for _, v := range logits {
		sum += math.Exp(v - maxVal)
	}
	logSumExp := maxVal + math.Log(sum)

	for i, v := range logits {
		result[i] = v - logSumExp
	}

	return result
}
