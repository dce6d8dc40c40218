// Copyright 2025 BANet Authors. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

// Package banet provides the boundary-aware video captioning model.
//
// The model pairs a hierarchical encoder with an attention-free decoder:
//
//   - Encoder: a low-level LSTM reads every frame while a learned
//     boundary detector segments the sequence; a high-level LSTM
//     accumulates per-segment summaries through a binary gate.
//   - Decoder: a GRU generates words, fusing the video summary and the
//     previous word at every step, with optional teacher forcing.
//
// Example:
//
//	import (
//	    "github.com/banet-ml/banet/autodiff"
//	    "github.com/banet-ml/banet/backend/cpu"
//	    "github.com/banet-ml/banet/banet"
//	    "github.com/banet-ml/banet/tokenizer"
//	)
//
//	func main() {
//	    backend := autodiff.New(cpu.New())
//	    vocab := tokenizer.BuildVocabulary(captions, 3)
//
//	    model := banet.New(banet.DefaultConfig(), vocab, backend)
//	    model.SetTraining(true)
//	    output, _ := model.Forward(videos, targets, 0.5)
//	}
package banet

import (
	"github.com/banet-ml/banet/internal/banet"
	"github.com/banet-ml/banet/internal/tensor"
	"github.com/banet-ml/banet/internal/tokenizer"
)

// Config holds the architecture dimensions.
type Config = banet.Config

// DefaultConfig returns the dimensions used with ResNet-50 frame features.
//
// FrameSize 2048, ProjectedSize 500, MidSize 500, HiddenSize 1024,
// MaxFrames 26, MaxWords 26.
func DefaultConfig() Config {
	return banet.DefaultConfig()
}

// BANet composes the encoder and decoder into one trainable model.
type BANet[B tensor.Backend] = banet.BANet[B]

// New creates a BANet model.
//
// Example:
//
//	backend := autodiff.New(cpu.New())
//	model := banet.New(banet.DefaultConfig(), vocab, backend)
func New[B tensor.Backend](cfg Config, vocab tokenizer.Tokenizer, backend B) *BANet[B] {
	return banet.New(cfg, vocab, backend)
}

// Output holds one decoding pass's results.
//
// A training pass fills Logits with shape [batch, steps, vocab_size];
// an inference pass fills TokenIDs with shape [batch, steps]. The
// unused field is nil.
type Output[B tensor.Backend] = banet.Output[B]

// Encoder is the hierarchical boundary-aware video encoder.
type Encoder[B tensor.Backend] = banet.Encoder[B]

// NewEncoder creates the hierarchical encoder on its own, without the
// decoder half.
func NewEncoder[B tensor.Backend](frameSize, projectedSize, midSize, hiddenSize, maxFrames int, backend B) *Encoder[B] {
	return banet.NewEncoder(frameSize, projectedSize, midSize, hiddenSize, maxFrames, backend)
}

// Decoder is the attention-free GRU caption decoder.
type Decoder[B tensor.Backend] = banet.Decoder[B]

// NewDecoder creates the caption decoder on its own, without the
// encoder half.
func NewDecoder[B tensor.Backend](encodedSize, projectedSize, hiddenSize, maxWords int, vocab tokenizer.Tokenizer, backend B) *Decoder[B] {
	return banet.NewDecoder(encodedSize, projectedSize, hiddenSize, maxWords, vocab, backend)
}

// BoundaryDetector is the learned segment boundary gate.
//
// It emits hard 0/1 gates from a sigmoid affinity; gradients pass
// through the threshold unchanged (straight-through estimator).
type BoundaryDetector[B tensor.Backend] = banet.BoundaryDetector[B]

// NewBoundaryDetector creates a boundary detector.
func NewBoundaryDetector[B tensor.Backend](iFeatures, hFeatures, sFeatures int, backend B) *BoundaryDetector[B] {
	return banet.NewBoundaryDetector(iFeatures, hFeatures, sFeatures, backend)
}
