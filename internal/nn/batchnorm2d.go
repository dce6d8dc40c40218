package nn

import (
	"fmt"

	"github.com/banet-ml/banet/internal/tensor"
)

// BatchNorm2D applies batch normalization over a 4D input [N, C, H, W].
//
// Formula: Y = gamma * (X - mean) / sqrt(var + eps) + beta
//
// Statistics are computed per channel over the batch and spatial
// dimensions. In training mode the batch statistics are used directly and
// folded into running estimates:
//
//	running = (1 - momentum) * running + momentum * batch_stat
//
// In eval mode the running estimates are used instead, so single images
// normalize the same way regardless of batch composition. The running
// variance stores the unbiased estimate while the forward pass normalizes
// with the biased one.
//
// Gamma and beta are trainable; the running statistics are persistent
// buffers that appear in the state dict but not in Parameters.
type BatchNorm2D[B tensor.Backend] struct {
	numFeatures int
	epsilon     float32
	momentum    float32
	training    bool

	weight *Parameter[B] // gamma [C]
	bias   *Parameter[B] // beta [C]

	runningMean *tensor.Tensor[float32, B] // [C]
	runningVar  *tensor.Tensor[float32, B] // [C]

	backend B
}

// NewBatchNorm2D creates a batch normalization layer for numFeatures
// channels with epsilon 1e-5 and momentum 0.1.
//
// Gamma starts at ones, beta at zeros, running mean at zeros, and running
// variance at ones. The layer starts in training mode.
func NewBatchNorm2D[B tensor.Backend](numFeatures int, backend B) *BatchNorm2D[B] {
	if numFeatures <= 0 {
		panic(fmt.Sprintf("batchnorm2d: invalid feature count %d", numFeatures))
	}

	shape := tensor.Shape{numFeatures}
	return &BatchNorm2D[B]{
		numFeatures: numFeatures,
		epsilon:     1e-5,
		momentum:    0.1,
		training:    true,
		weight:      NewParameter("weight", Ones(shape, backend)),
		bias:        NewParameter("bias", Zeros(shape, backend)),
		runningMean: Zeros(shape, backend),
		runningVar:  Ones(shape, backend),
		backend:     backend,
	}
}

// Forward normalizes the input per channel.
//
// Input: [batch, channels, height, width]
// Output: same shape.
func (b *BatchNorm2D[B]) Forward(input *tensor.Tensor[float32, B]) *tensor.Tensor[float32, B] {
	inputShape := input.Shape()
	if len(inputShape) != 4 {
		panic(fmt.Sprintf("batchnorm2d: expected 4D input [N,C,H,W], got %dD", len(inputShape)))
	}
	if inputShape[1] != b.numFeatures {
		panic(fmt.Sprintf("batchnorm2d: input channels %d != expected %d", inputShape[1], b.numFeatures))
	}

	var normalized *tensor.Tensor[float32, B]
	if b.training {
		// Per-channel mean over batch and spatial dims: [1, C, 1, 1]
		mean := input.MeanDim(0, true).MeanDim(2, true).MeanDim(3, true)
		centered := input.Sub(mean)
		variance := centered.Mul(centered).MeanDim(0, true).MeanDim(2, true).MeanDim(3, true)
		normalized = centered.Div(variance.AddScalar(b.epsilon).Sqrt())

		n := inputShape[0] * inputShape[2] * inputShape[3]
		b.updateRunningStats(mean.Raw().AsFloat32(), variance.Raw().AsFloat32(), n)
	} else {
		mean := b.runningMean.Reshape(1, b.numFeatures, 1, 1)
		variance := b.runningVar.Reshape(1, b.numFeatures, 1, 1)
		normalized = input.Sub(mean).Div(variance.AddScalar(b.epsilon).Sqrt())
	}

	gamma := b.weight.Tensor().Reshape(1, b.numFeatures, 1, 1)
	beta := b.bias.Tensor().Reshape(1, b.numFeatures, 1, 1)
	return normalized.Mul(gamma).Add(beta)
}

// updateRunningStats folds batch statistics into the running estimates.
//
// The batch variance is biased (divides by n); the stored running variance
// uses the unbiased correction n/(n-1).
func (b *BatchNorm2D[B]) updateRunningStats(batchMean, batchVar []float32, n int) {
	correction := float32(1)
	if n > 1 {
		correction = float32(n) / float32(n-1)
	}

	rm := b.runningMean.Data()
	rv := b.runningVar.Data()
	for i := range rm {
		rm[i] = (1-b.momentum)*rm[i] + b.momentum*batchMean[i]
		rv[i] = (1-b.momentum)*rv[i] + b.momentum*batchVar[i]*correction
	}
}

// SetTraining switches between batch statistics (training) and running
// statistics (eval).
func (b *BatchNorm2D[B]) SetTraining(training bool) {
	b.training = training
}

// Training reports whether the layer is in training mode.
func (b *BatchNorm2D[B]) Training() bool {
	return b.training
}

// Parameters returns gamma and beta. Running statistics are buffers, not
// trainable parameters.
func (b *BatchNorm2D[B]) Parameters() []*Parameter[B] {
	return []*Parameter[B]{b.weight, b.bias}
}

// Weight returns the gamma parameter.
func (b *BatchNorm2D[B]) Weight() *Parameter[B] {
	return b.weight
}

// Bias returns the beta parameter.
func (b *BatchNorm2D[B]) Bias() *Parameter[B] {
	return b.bias
}

// NumFeatures returns the number of channels.
func (b *BatchNorm2D[B]) NumFeatures() int {
	return b.numFeatures
}

// RunningMean returns the running mean buffer.
func (b *BatchNorm2D[B]) RunningMean() *tensor.Tensor[float32, B] {
	return b.runningMean
}

// RunningVar returns the running variance buffer.
func (b *BatchNorm2D[B]) RunningVar() *tensor.Tensor[float32, B] {
	return b.runningVar
}

// StateDict returns parameters and running statistics.
func (b *BatchNorm2D[B]) StateDict() map[string]*tensor.RawTensor {
	return map[string]*tensor.RawTensor{
		"weight":       b.weight.Tensor().Raw(),
		"bias":         b.bias.Tensor().Raw(),
		"running_mean": b.runningMean.Raw(),
		"running_var":  b.runningVar.Raw(),
	}
}

// LoadStateDict loads parameters and running statistics.
func (b *BatchNorm2D[B]) LoadStateDict(stateDict map[string]*tensor.RawTensor) error {
	shape := tensor.Shape{b.numFeatures}
	if err := LoadStateEntry(stateDict, "weight", shape, b.weight.Tensor().Data()); err != nil {
		return err
	}
	if err := LoadStateEntry(stateDict, "bias", shape, b.bias.Tensor().Data()); err != nil {
		return err
	}
	if err := LoadStateEntry(stateDict, "running_mean", shape, b.runningMean.Data()); err != nil {
		return err
	}
	return LoadStateEntry(stateDict, "running_var", shape, b.runningVar.Data())
}
