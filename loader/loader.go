// Package loader provides model weight loading functionality for BANet.
//
// This package wraps internal loader implementations and exports a clean public API
// for importing weights from the PyTorch ecosystem (SafeTensors).
//
// Example usage:
//
//	import (
//	    "github.com/banet-ml/banet/loader"
//	    "github.com/banet-ml/banet/backend/cpu"
//	)
//
//	// Open a SafeTensors file
//	reader, err := loader.NewSafeTensorsReader("resnet50.safetensors")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer reader.Close()
//
//	// List all tensors
//	for _, name := range reader.TensorNames() {
//	    fmt.Println(name)
//	}
//
//	// Load a specific tensor
//	backend := cpu.New()
//	weight, err := reader.LoadTensor("layer1.0.conv1.weight", backend)
//	if err != nil {
//	    log.Fatal(err)
//	}
package loader

import (
	"github.com/banet-ml/banet/internal/loader"
	"github.com/banet-ml/banet/internal/tensor"
)

// SafeTensorsReader reads tensors from a SafeTensors file.
//
// Note: This is a type alias because the LoadTensor method signature references
// internal tensor types that cannot be abstracted without a wrapper layer.
type SafeTensorsReader = loader.SafeTensorsReader

// SafeTensorInfo describes one tensor entry in a SafeTensors header.
type SafeTensorInfo = loader.SafeTensorInfo

// NewSafeTensorsReader opens a SafeTensors file (the Hugging Face standard).
//
// Example:
//
//	reader, err := loader.NewSafeTensorsReader("resnet50.safetensors")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer reader.Close()
func NewSafeTensorsReader(path string) (*SafeTensorsReader, error) {
	return loader.NewSafeTensorsReader(path)
}

// ResNetStateDict reads a torchvision resnet50 SafeTensors export and
// returns a state dictionary keyed by backbone names, ready for the
// vision backbone's LoadStateDict.
//
// Classification-head entries are dropped and wrapper prefixes such as
// "module." are stripped.
//
// Example:
//
//	stateDict, err := loader.ResNetStateDict("resnet50.safetensors")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	err = backbone.LoadStateDict(stateDict)
func ResNetStateDict(path string) (map[string]*tensor.RawTensor, error) {
	return loader.ResNetStateDict(path)
}

// ResNetMapper translates torchvision resnet50 checkpoint names to the
// vision backbone's state-dict names.
type ResNetMapper = loader.ResNetMapper

// NewResNetMapper creates a weight mapper for torchvision ResNet exports.
func NewResNetMapper() *ResNetMapper {
	return loader.NewResNetMapper()
}
