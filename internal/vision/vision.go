// Package vision implements the ResNet-50 backbone that turns video
// frames into per-frame feature vectors for the captioning encoder.
//
// The classification head is stripped: the forward pass ends at the
// global average pool and emits one 2048-dimensional vector per image.
// The backbone is inference-only, so batch norms always use their
// stored running statistics. State-dict names follow torchvision's
// resnet50, letting published checkpoints load directly after the
// name mapping in internal/loader.
package vision

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/banet-ml/banet/internal/loader"
	"github.com/banet-ml/banet/internal/nn"
	"github.com/banet-ml/banet/internal/tensor"
)

// FeatureSize is the per-frame output dimension.
const FeatureSize = 512 * expansion

// stageDepths is the block count per stage for ResNet-50.
var stageDepths = [4]int{3, 4, 6, 3}

// VisualEncoder extracts frame features with a headless ResNet-50.
//
// Input frames are [batch, 3, height, width] with height and width at
// least 32; the output is [batch, 2048] regardless of resolution.
type VisualEncoder[B tensor.Backend] struct {
	conv1   *nn.Conv2D[B]
	bn1     *nn.BatchNorm2D[B]
	relu    *nn.ReLU[B]
	maxpool *nn.MaxPool2D[B]

	layer1 *nn.Sequential[B]
	layer2 *nn.Sequential[B]
	layer3 *nn.Sequential[B]
	layer4 *nn.Sequential[B]
}

// NewVisualEncoder creates a randomly initialized backbone.
//
// Useful for tests and for loading state into; real feature extraction
// needs pretrained weights, see Load.
func NewVisualEncoder[B tensor.Backend](backend B) *VisualEncoder[B] {
	e := &VisualEncoder[B]{
		conv1:   nn.NewConv2D(3, 64, 7, 7, 2, 3, false, backend),
		bn1:     nn.NewBatchNorm2D(64, backend),
		relu:    nn.NewReLU[B](),
		maxpool: nn.NewMaxPool2D[B](3, 2, 1),

		layer1: makeStage(64, 64, stageDepths[0], 1, backend),
		layer2: makeStage(64*expansion, 128, stageDepths[1], 2, backend),
		layer3: makeStage(128*expansion, 256, stageDepths[2], 2, backend),
		layer4: makeStage(256*expansion, 512, stageDepths[3], 2, backend),
	}
	e.bn1.SetTraining(false)
	return e
}

// Load creates a backbone and fills it from a weight file.
//
// A .safetensors path is read as a torchvision resnet50 export via
// internal/loader; anything else is read as a .banet checkpoint.
func Load[B tensor.Backend](path string, backend B) (*VisualEncoder[B], error) {
	e := NewVisualEncoder(backend)

	if strings.EqualFold(filepath.Ext(path), ".safetensors") {
		stateDict, err := loader.ResNetStateDict(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read %s: %w", path, err)
		}
		if err := e.LoadStateDict(stateDict); err != nil {
			return nil, err
		}
		return e, nil
	}

	if _, err := nn.Load(path, backend, e); err != nil {
		return nil, err
	}
	return e, nil
}

// makeStage stacks blocks bottlenecks; the first carries the stride and
// channel change, the rest preserve shape.
func makeStage[B tensor.Backend](inChannels, planes, blocks, stride int, backend B) *nn.Sequential[B] {
	stage := nn.NewSequential[B](NewBottleneck(inChannels, planes, stride, backend))
	for i := 1; i < blocks; i++ {
		stage.Add(NewBottleneck(planes*expansion, planes, 1, backend))
	}
	return stage
}

// Forward extracts features for a batch of frames.
//
// Input: [batch, 3, height, width] RGB images.
// Output: [batch, 2048].
func (e *VisualEncoder[B]) Forward(frames *tensor.Tensor[float32, B]) *tensor.Tensor[float32, B] {
	shape := frames.Shape()
	if len(shape) != 4 || shape[1] != 3 {
		panic(fmt.Sprintf("vision: expected frames [batch, 3, h, w], got %v", shape))
	}
	if shape[2] < 32 || shape[3] < 32 {
		panic(fmt.Sprintf("vision: frames %dx%d below the 32x32 minimum", shape[2], shape[3]))
	}

	x := e.maxpool.Forward(e.relu.Forward(e.bn1.Forward(e.conv1.Forward(frames))))

	x = e.layer1.Forward(x)
	x = e.layer2.Forward(x)
	x = e.layer3.Forward(x)
	x = e.layer4.Forward(x)

	// Global average pool over the spatial dims.
	return x.MeanDim(3, false).MeanDim(2, false)
}

// Parameters returns the convolution kernels and batch norm affines of
// every stage.
func (e *VisualEncoder[B]) Parameters() []*nn.Parameter[B] {
	params := make([]*nn.Parameter[B], 0, 159)
	params = append(params, e.conv1.Parameters()...)
	params = append(params, e.bn1.Parameters()...)
	params = append(params, e.layer1.Parameters()...)
	params = append(params, e.layer2.Parameters()...)
	params = append(params, e.layer3.Parameters()...)
	params = append(params, e.layer4.Parameters()...)
	return params
}

// StateDict returns all backbone state under torchvision's names
// (conv1, bn1, layer1.0.conv1, layer1.0.downsample.0, ...).
func (e *VisualEncoder[B]) StateDict() map[string]*tensor.RawTensor {
	stateDict := make(map[string]*tensor.RawTensor)
	addPrefixed(stateDict, e.conv1.StateDict(), "conv1")
	addPrefixed(stateDict, e.bn1.StateDict(), "bn1")
	addPrefixed(stateDict, e.layer1.StateDict(), "layer1")
	addPrefixed(stateDict, e.layer2.StateDict(), "layer2")
	addPrefixed(stateDict, e.layer3.StateDict(), "layer3")
	addPrefixed(stateDict, e.layer4.StateDict(), "layer4")
	return stateDict
}

// LoadStateDict loads backbone state, expecting the same names as
// StateDict. Every stage must be present; extra entries are ignored.
func (e *VisualEncoder[B]) LoadStateDict(stateDict map[string]*tensor.RawTensor) error {
	if err := loadPrefixed(stateDict, "conv1", e.conv1); err != nil {
		return err
	}
	if err := loadPrefixed(stateDict, "bn1", e.bn1); err != nil {
		return err
	}

	stages := []struct {
		name  string
		stage *nn.Sequential[B]
	}{
		{"layer1", e.layer1},
		{"layer2", e.layer2},
		{"layer3", e.layer3},
		{"layer4", e.layer4},
	}
	for _, s := range stages {
		prefix := s.name + "."
		sub := make(map[string]*tensor.RawTensor)
		for key, raw := range stateDict {
			if len(key) > len(prefix) && key[:len(prefix)] == prefix {
				sub[key[len(prefix):]] = raw
			}
		}
		if len(sub) == 0 {
			return fmt.Errorf("missing %s entries in state dict", s.name)
		}
		if err := s.stage.LoadStateDict(sub); err != nil {
			return fmt.Errorf("failed to load %s: %w", s.name, err)
		}
	}
	return nil
}
