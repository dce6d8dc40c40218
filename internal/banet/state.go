package banet

import (
	"fmt"

	"github.com/banet-ml/banet/internal/nn"
	"github.com/banet-ml/banet/internal/tensor"
)

// mergeState copies src entries into dst under "name." prefixes.
func mergeState(dst, src map[string]*tensor.RawTensor, name string) {
	for key, raw := range src {
		dst[name+"."+key] = raw
	}
}

// loadSubState extracts the "name." entries from stateDict, strips the
// prefix, and loads them into the submodule.
//
// Unlike nn.Sequential, an absent prefix is an error here: every
// submodule of this architecture has state, so silence would mean the
// dictionary belongs to a different model.
func loadSubState(stateDict map[string]*tensor.RawTensor, name string, module nn.StateModule) error {
	prefix := name + "."
	sub := make(map[string]*tensor.RawTensor)
	for key, raw := range stateDict {
		if len(key) > len(prefix) && key[:len(prefix)] == prefix {
			sub[key[len(prefix):]] = raw
		}
	}
	if len(sub) == 0 {
		return fmt.Errorf("missing %s entries in state dict", name)
	}
	if err := module.LoadStateDict(sub); err != nil {
		return fmt.Errorf("failed to load %s: %w", name, err)
	}
	return nil
}
