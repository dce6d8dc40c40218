package loader

import (
	"strings"
)

// checkpointPrefixes are wrappers some exports put in front of every
// weight name: "module." from DataParallel training, "resnet." and
// "backbone." from captioning repos that nest the CNN in a larger
// model.
var checkpointPrefixes = []string{"module.", "resnet.", "backbone."}

// ResNetMapper translates torchvision resnet50 checkpoint names to the
// backbone's state-dict names.
//
// The backbone already uses torchvision's naming, so mapping is mostly
// a pass-through: wrapper prefixes are stripped, and entries the
// headless backbone has no use for are dropped (the fc classification
// head and the num_batches_tracked counters).
type ResNetMapper struct{}

// NewResNetMapper creates a new ResNet weight mapper.
func NewResNetMapper() *ResNetMapper {
	return &ResNetMapper{}
}

// MapName converts a checkpoint weight name to a backbone state-dict
// name. The second return is false for entries the backbone drops.
func (m *ResNetMapper) MapName(name string) (string, bool) {
	for _, prefix := range checkpointPrefixes {
		name = strings.TrimPrefix(name, prefix)
	}

	if name == "fc.weight" || name == "fc.bias" {
		return "", false
	}
	if strings.HasSuffix(name, ".num_batches_tracked") {
		return "", false
	}

	return name, true
}
