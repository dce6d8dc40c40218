// Copyright 2025 BANet Authors. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

package nn

import (
	"github.com/banet-ml/banet/internal/nn"
	"github.com/banet-ml/banet/internal/tensor"
)

// Layers

// Linear represents a fully connected (dense) layer.
type Linear[B tensor.Backend] = nn.Linear[B]

// NewLinear creates a new linear layer with uniform fan-in initialization.
//
// Example:
//
//	backend := cpu.New()
//	layer := nn.NewLinear(512, 512, backend)
func NewLinear[B tensor.Backend](inFeatures, outFeatures int, backend B) *Linear[B] {
	return nn.NewLinear(inFeatures, outFeatures, backend)
}

// NewLinearNoBias creates a new linear layer without a bias term.
//
// Example:
//
//	backend := cpu.New()
//	proj := nn.NewLinearNoBias(512, 1, backend)
func NewLinearNoBias[B tensor.Backend](inFeatures, outFeatures int, backend B) *Linear[B] {
	return nn.NewLinearNoBias(inFeatures, outFeatures, backend)
}

// Conv2D represents a 2D convolutional layer.
type Conv2D[B tensor.Backend] = nn.Conv2D[B]

// NewConv2D creates a new 2D convolutional layer.
//
// Example:
//
//	backend := cpu.New()
//	conv := nn.NewConv2D(3, 64, 7, 7, 2, 3, false, backend)  // in_channels=3, out_channels=64, kernel=7x7, stride=2, padding=3, no bias
func NewConv2D[B tensor.Backend](
	inChannels, outChannels int,
	kernelH, kernelW int,
	stride, padding int,
	useBias bool,
	backend B,
) *Conv2D[B] {
	return nn.NewConv2D(inChannels, outChannels, kernelH, kernelW, stride, padding, useBias, backend)
}

// MaxPool2D represents a 2D max pooling layer.
type MaxPool2D[B tensor.Backend] = nn.MaxPool2D[B]

// NewMaxPool2D creates a new 2D max pooling layer.
//
// Example:
//
//	pool := nn.NewMaxPool2D[*cpu.CPUBackend](3, 2, 1)  // kernel=3, stride=2, padding=1
func NewMaxPool2D[B tensor.Backend](kernelSize, stride, padding int) *MaxPool2D[B] {
	return nn.NewMaxPool2D[B](kernelSize, stride, padding)
}

// BatchNorm2D represents 2D batch normalization over NCHW feature maps.
type BatchNorm2D[B tensor.Backend] = nn.BatchNorm2D[B]

// NewBatchNorm2D creates a new batch normalization layer.
//
// Example:
//
//	backend := cpu.New()
//	bn := nn.NewBatchNorm2D(64, backend)
func NewBatchNorm2D[B tensor.Backend](numFeatures int, backend B) *BatchNorm2D[B] {
	return nn.NewBatchNorm2D(numFeatures, backend)
}

// Dropout represents a dropout regularization layer.
type Dropout[B tensor.Backend] = nn.Dropout[B]

// NewDropout creates a new dropout layer with drop probability p.
//
// Example:
//
//	backend := cpu.New()
//	drop := nn.NewDropout(0.5, backend)
//	drop.SetTraining(true)
func NewDropout[B tensor.Backend](p float64, backend B) *Dropout[B] {
	return nn.NewDropout(p, backend)
}

// Recurrent Cells

// LSTMCell represents a single-step LSTM cell.
type LSTMCell[B tensor.Backend] = nn.LSTMCell[B]

// NewLSTMCell creates a new LSTM cell.
//
// Example:
//
//	backend := cpu.New()
//	cell := nn.NewLSTMCell(512, 512, backend)
//	h, c := cell.InitState(batchSize)
//	h, c = cell.Forward(x, h, c)
func NewLSTMCell[B tensor.Backend](inputSize, hiddenSize int, backend B) *LSTMCell[B] {
	return nn.NewLSTMCell(inputSize, hiddenSize, backend)
}

// NewLSTMCellNoBias creates a new LSTM cell without bias terms.
func NewLSTMCellNoBias[B tensor.Backend](inputSize, hiddenSize int, backend B) *LSTMCell[B] {
	return nn.NewLSTMCellNoBias(inputSize, hiddenSize, backend)
}

// GRUCell represents a single-step GRU cell.
type GRUCell[B tensor.Backend] = nn.GRUCell[B]

// NewGRUCell creates a new GRU cell.
//
// Example:
//
//	backend := cpu.New()
//	cell := nn.NewGRUCell(1024, 512, backend)
//	h := cell.InitState(batchSize)
//	h = cell.Forward(x, h)
func NewGRUCell[B tensor.Backend](inputSize, hiddenSize int, backend B) *GRUCell[B] {
	return nn.NewGRUCell(inputSize, hiddenSize, backend)
}

// Activations

// ReLU represents the Rectified Linear Unit activation function.
type ReLU[B tensor.Backend] = nn.ReLU[B]

// NewReLU creates a new ReLU activation layer.
//
// Example:
//
//	relu := nn.NewReLU[*cpu.CPUBackend]()
func NewReLU[B tensor.Backend]() *ReLU[B] {
	return nn.NewReLU[B]()
}

// Sigmoid represents the Sigmoid activation function.
type Sigmoid[B tensor.Backend] = nn.Sigmoid[B]

// NewSigmoid creates a new Sigmoid activation layer.
//
// Example:
//
//	sigmoid := nn.NewSigmoid[*cpu.CPUBackend]()
func NewSigmoid[B tensor.Backend]() *Sigmoid[B] {
	return nn.NewSigmoid[B]()
}

// Tanh represents the Tanh activation function.
type Tanh[B tensor.Backend] = nn.Tanh[B]

// NewTanh creates a new Tanh activation layer.
//
// Example:
//
//	tanh := nn.NewTanh[*cpu.CPUBackend]()
func NewTanh[B tensor.Backend]() *Tanh[B] {
	return nn.NewTanh[B]()
}

// Embedding Layers

// Embedding represents a lookup table for embeddings.
type Embedding[B tensor.Backend] = nn.Embedding[B]

// NewEmbedding creates a new embedding layer.
//
// Example:
//
//	backend := cpu.New()
//	embed := nn.NewEmbedding(12000, 512, backend)  // vocab=12000, dim=512
//	tokenIds, _ := tensor.FromSlice([]int32{1, 5, 10}, tensor.Shape{1, 3}, backend)
//	embeddings := embed.Forward(tokenIds)  // [1, 3, 512]
func NewEmbedding[B tensor.Backend](numEmbeddings, embeddingDim int, backend B) *Embedding[B] {
	return nn.NewEmbedding(numEmbeddings, embeddingDim, backend)
}

// NewEmbeddingWithWeight creates an embedding layer from an existing weight tensor.
//
// This is useful when loading pre-trained embeddings.
//
// Example:
//
//	weights := tensor.Randn[float32](tensor.Shape{12000, 512}, backend)
//	embed := nn.NewEmbeddingWithWeight(weights)
func NewEmbeddingWithWeight[B tensor.Backend](weight *tensor.Tensor[float32, B]) *Embedding[B] {
	return nn.NewEmbeddingWithWeight(weight)
}

// Loss Functions

// CrossEntropyLoss represents the cross-entropy loss for classification.
type CrossEntropyLoss[B tensor.Backend] = nn.CrossEntropyLoss[B]

// NewCrossEntropyLoss creates a new cross-entropy loss function.
//
// Example:
//
//	backend := cpu.New()
//	criterion := nn.NewCrossEntropyLoss(backend)
//	loss := criterion.Forward(logits, labels)
func NewCrossEntropyLoss[B tensor.Backend](backend B) *CrossEntropyLoss[B] {
	return nn.NewCrossEntropyLoss(backend)
}

// MaskedCrossEntropyLoss represents cross-entropy over padded sequences.
//
// Positions where the mask is zero contribute nothing to the loss; the
// result is normalized by the number of unmasked positions.
type MaskedCrossEntropyLoss[B tensor.Backend] = nn.MaskedCrossEntropyLoss[B]

// NewMaskedCrossEntropyLoss creates a new masked cross-entropy loss function.
//
// Example:
//
//	backend := cpu.New()
//	criterion := nn.NewMaskedCrossEntropyLoss(backend)
//	loss := criterion.Forward(logits, targets, mask)
func NewMaskedCrossEntropyLoss[B tensor.Backend](backend B) *MaskedCrossEntropyLoss[B] {
	return nn.NewMaskedCrossEntropyLoss(backend)
}

// Sequential

// Sequential represents a sequential container of modules.
type Sequential[B tensor.Backend] = nn.Sequential[B]

// NewSequential creates a new sequential model.
//
// Example:
//
//	backend := cpu.New()
//	model := nn.NewSequential(
//	    nn.NewLinear(512, 256, backend),
//	    nn.NewReLU[*cpu.CPUBackend](),
//	    nn.NewLinear(256, 10, backend),
//	)
func NewSequential[B tensor.Backend](modules ...Module[B]) *Sequential[B] {
	return nn.NewSequential(modules...)
}

// Initialization functions

// UniformFanIn initializes a tensor from U(-k, k) with k = 1/sqrt(fanIn).
//
// Example:
//
//	backend := cpu.New()
//	weights := nn.UniformFanIn(512, tensor.Shape{256, 512}, backend)
func UniformFanIn[B tensor.Backend](fanIn int, shape tensor.Shape, backend B) *tensor.Tensor[float32, B] {
	return nn.UniformFanIn(fanIn, shape, backend)
}

// Zeros initializes a tensor with zeros (for biases).
//
// Example:
//
//	backend := cpu.New()
//	bias := nn.Zeros(tensor.Shape{128}, backend)
func Zeros[B tensor.Backend](shape tensor.Shape, backend B) *tensor.Tensor[float32, B] {
	return nn.Zeros(shape, backend)
}

// Ones initializes a tensor with ones.
//
// Example:
//
//	backend := cpu.New()
//	weights := nn.Ones(tensor.Shape{128, 784}, backend)
func Ones[B tensor.Backend](shape tensor.Shape, backend B) *tensor.Tensor[float32, B] {
	return nn.Ones(shape, backend)
}

// Randn initializes a tensor with random values from N(0, 1).
//
// Example:
//
//	backend := cpu.New()
//	weights := nn.Randn(tensor.Shape{128, 784}, backend)
func Randn[B tensor.Backend](shape tensor.Shape, backend B) *tensor.Tensor[float32, B] {
	return nn.Randn(shape, backend)
}

// Utility functions

// Accuracy computes the classification accuracy.
//
// Example:
//
//	acc := nn.Accuracy(predictions, labels)
//	fmt.Printf("Accuracy: %.2f%%\n", acc*100)
func Accuracy[B tensor.Backend](
	logits *tensor.Tensor[float32, B],
	targets *tensor.Tensor[int32, B],
) float32 {
	return nn.Accuracy(logits, targets)
}
