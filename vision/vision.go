// Copyright 2025 BANet Authors. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

// Package vision provides the ResNet-50 visual backbone for frame
// feature extraction.
//
// The classification head is stripped: the forward pass ends at the
// global average pool and emits one 2048-dimensional vector per image.
// State-dict names follow torchvision's resnet50, so published
// checkpoints load directly.
//
// Example:
//
//	import (
//	    "github.com/banet-ml/banet/backend/cpu"
//	    "github.com/banet-ml/banet/vision"
//	)
//
//	func main() {
//	    backend := cpu.New()
//	    backbone, err := vision.Load("resnet50.safetensors", backend)
//	    if err != nil {
//	        log.Fatal(err)
//	    }
//
//	    features := backbone.Forward(frames)  // [batch, 3, H, W] -> [batch, 2048]
//	}
package vision

import (
	"github.com/banet-ml/banet/internal/tensor"
	"github.com/banet-ml/banet/internal/vision"
)

// FeatureSize is the per-frame output dimension.
const FeatureSize = vision.FeatureSize

// VisualEncoder extracts frame features with a headless ResNet-50.
type VisualEncoder[B tensor.Backend] = vision.VisualEncoder[B]

// NewVisualEncoder creates a randomly initialized backbone.
//
// Useful for tests and for loading state into; real feature extraction
// needs pretrained weights, see Load.
func NewVisualEncoder[B tensor.Backend](backend B) *VisualEncoder[B] {
	return vision.NewVisualEncoder(backend)
}

// Load creates a backbone and fills it from a weight file.
//
// A .safetensors path is read as a torchvision resnet50 export;
// anything else is read as a .banet checkpoint.
func Load[B tensor.Backend](path string, backend B) (*VisualEncoder[B], error) {
	return vision.Load(path, backend)
}
