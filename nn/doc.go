// Copyright 2025 BANet Authors. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

// Package nn provides neural network layers and building blocks.
//
// # Overview
//
// This package contains:
//   - Layers: Linear, Conv2D, MaxPool2D, BatchNorm2D, Dropout, Embedding
//   - Recurrent cells: LSTMCell, GRUCell
//   - Activations: ReLU, Sigmoid, Tanh
//   - Loss functions: CrossEntropyLoss, MaskedCrossEntropyLoss
//   - Utilities: Sequential, Module interface, Parameter, checkpoints
//   - Initialization: UniformFanIn, Zeros, Ones, Randn
//
// # Basic Usage
//
//	import (
//	    "github.com/banet-ml/banet/nn"
//	    "github.com/banet-ml/banet/backend/cpu"
//	)
//
//	func main() {
//	    backend := cpu.New()
//
//	    // Build a simple MLP
//	    model := nn.NewSequential(
//	        nn.NewLinear(784, 128, backend),
//	        nn.NewReLU[*cpu.CPUBackend](),
//	        nn.NewLinear(128, 10, backend),
//	    )
//
//	    // Forward pass
//	    output := model.Forward(input)
//	}
//
// # Layers
//
// Linear: Fully connected layer with uniform fan-in initialization
//
//	layer := nn.NewLinear(inFeatures, outFeatures, backend)
//
// Conv2D: 2D convolutional layer with im2col algorithm
//
//	conv := nn.NewConv2D(inChannels, outChannels, kernelH, kernelW, stride, padding, useBias, backend)
//
// MaxPool2D: 2D max pooling layer
//
//	pool := nn.NewMaxPool2D[B](kernelSize, stride, padding)
//
// # Recurrent Cells
//
// Single-step cells for building sequence models. The caller owns the time
// loop and the state tensors:
//
//	lstm := nn.NewLSTMCell(inputSize, hiddenSize, backend)
//	h, c := lstm.InitState(batchSize)
//	for t := 0; t < seqLen; t++ {
//	    h, c = lstm.Forward(xs[t], h, c)
//	}
//
//	gru := nn.NewGRUCell(inputSize, hiddenSize, backend)
//	h := gru.InitState(batchSize)
//	h = gru.Forward(x, h)
//
// # Loss Functions
//
// CrossEntropyLoss: For classification tasks (numerically stable)
//
//	criterion := nn.NewCrossEntropyLoss(backend)
//	loss := criterion.Forward(logits, labels)
//
// MaskedCrossEntropyLoss: For padded caption sequences
//
//	criterion := nn.NewMaskedCrossEntropyLoss(backend)
//	loss := criterion.Forward(logits, targets, mask)
//
// # Sequential Models
//
// Build models by composing layers:
//
//	model := nn.NewSequential(
//	    nn.NewLinear(784, 256, backend),
//	    nn.NewReLU[*cpu.CPUBackend](),
//	    nn.NewLinear(256, 10, backend),
//	)
//
// # Parameter Management
//
// Access model parameters for optimization:
//
//	params := model.Parameters()
//	for _, param := range params {
//	    fmt.Println(param.Name(), param.Tensor().Shape())
//	}
//
// # Checkpoints
//
// Save and resume full training state:
//
//	err := nn.SaveCheckpoint("banet_epoch_10.banet", model, optimizer, 10)
//	checkpoint, err := nn.LoadCheckpoint("banet_epoch_10.banet", backend, model, optimizer)
package nn
