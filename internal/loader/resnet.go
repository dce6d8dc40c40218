package loader

import (
	"fmt"

	"github.com/banet-ml/banet/internal/tensor"
)

// ResNetStateDict reads a torchvision resnet50 SafeTensors export and
// returns a state dictionary keyed by backbone names.
//
// Classification-head entries are dropped and wrapper prefixes
// stripped; see ResNetMapper. Backbone weights must be float32; tensors
// land on the CPU and are copied into the model's own buffers by
// LoadStateDict.
func ResNetStateDict(path string) (map[string]*tensor.RawTensor, error) {
	reader, err := NewSafeTensorsReader(path)
	if err != nil {
		return nil, err
	}
	defer func() {
		_ = reader.Close() // Best effort close after read
	}()

	mapper := NewResNetMapper()
	stateDict := make(map[string]*tensor.RawTensor)

	for _, name := range reader.TensorNames() {
		mapped, keep := mapper.MapName(name)
		if !keep {
			continue
		}

		raw, err := reader.loadTensorOn(name, tensor.CPU)
		if err != nil {
			return nil, err
		}
		if raw.DType() != tensor.Float32 {
			return nil, fmt.Errorf("tensor %s is %v, backbone weights must be float32", name, raw.DType())
		}

		if _, exists := stateDict[mapped]; exists {
			return nil, fmt.Errorf("duplicate entry %s after mapping %s", mapped, name)
		}
		stateDict[mapped] = raw
	}

	if len(stateDict) == 0 {
		return nil, fmt.Errorf("no backbone tensors in %s", path)
	}

	return stateDict, nil
}
