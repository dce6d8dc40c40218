package nn

import (
	"fmt"

	"github.com/banet-ml/banet/internal/tensor"
)

// Linear is a fully connected layer: y = x @ W.T + b.
//
// Weight shape: [out_features, in_features]
// Bias shape:   [out_features]
//
// Both weight and bias are initialized from U(-k, k) with k = 1/sqrt(in_features).
//
// Example:
//
//	layer := nn.NewLinear(512, 1024, backend)
//	output := layer.Forward(input) // [batch, 512] -> [batch, 1024]
type Linear[B tensor.Backend] struct {
	inFeatures  int
	outFeatures int

	weight *Parameter[B] // [out_features, in_features]
	bias   *Parameter[B] // [out_features] or nil
}

// NewLinear creates a fully connected layer with a bias term.
func NewLinear[B tensor.Backend](inFeatures, outFeatures int, backend B) *Linear[B] {
	return newLinear(inFeatures, outFeatures, true, backend)
}

// NewLinearNoBias creates a fully connected layer without a bias term.
func NewLinearNoBias[B tensor.Backend](inFeatures, outFeatures int, backend B) *Linear[B] {
	return newLinear(inFeatures, outFeatures, false, backend)
}

func newLinear[B tensor.Backend](inFeatures, outFeatures int, useBias bool, backend B) *Linear[B] {
	if inFeatures <= 0 || outFeatures <= 0 {
		panic(fmt.Sprintf("linear: invalid dimensions in=%d, out=%d", inFeatures, outFeatures))
	}

	weight := UniformFanIn(inFeatures, tensor.Shape{outFeatures, inFeatures}, backend)
	weightParam := NewParameter("weight", weight)

	var biasParam *Parameter[B]
	if useBias {
		bias := UniformFanIn(inFeatures, tensor.Shape{outFeatures}, backend)
		biasParam = NewParameter("bias", bias)
	}

	return &Linear[B]{
		inFeatures:  inFeatures,
		outFeatures: outFeatures,
		weight:      weightParam,
		bias:        biasParam,
	}
}

// Forward computes y = x @ W.T + b.
//
// Input: [batch_size, in_features]
// Output: [batch_size, out_features]
func (l *Linear[B]) Forward(input *tensor.Tensor[float32, B]) *tensor.Tensor[float32, B] {
	inputShape := input.Shape()
	if len(inputShape) != 2 {
		panic(fmt.Sprintf("linear: expected 2D input [batch, features], got %dD", len(inputShape)))
	}
	if inputShape[1] != l.inFeatures {
		panic(fmt.Sprintf("linear: input features %d != expected %d", inputShape[1], l.inFeatures))
	}

	output := input.MatMul(l.weight.Tensor().T())

	if l.bias != nil {
		// Bias is [out_features]; reshape to [1, out_features] for broadcasting
		bReshaped := l.bias.Tensor().Reshape(1, l.outFeatures)
		output = output.Add(bReshaped)
	}

	return output
}

// Parameters returns [weight, bias] if bias is present, otherwise [weight].
func (l *Linear[B]) Parameters() []*Parameter[B] {
	if l.bias != nil {
		return []*Parameter[B]{l.weight, l.bias}
	}
	return []*Parameter[B]{l.weight}
}

// Weight returns the weight parameter.
func (l *Linear[B]) Weight() *Parameter[B] {
	return l.weight
}

// Bias returns the bias parameter, or nil for a bias-free layer.
func (l *Linear[B]) Bias() *Parameter[B] {
	return l.bias
}

// InFeatures returns the number of input features.
func (l *Linear[B]) InFeatures() int {
	return l.inFeatures
}

// OutFeatures returns the number of output features.
func (l *Linear[B]) OutFeatures() int {
	return l.outFeatures
}

// StateDict returns a map of parameter names to raw tensors.
func (l *Linear[B]) StateDict() map[string]*tensor.RawTensor {
	stateDict := make(map[string]*tensor.RawTensor)
	stateDict["weight"] = l.weight.Tensor().Raw()
	if l.bias != nil {
		stateDict["bias"] = l.bias.Tensor().Raw()
	}
	return stateDict
}

// LoadStateDict loads parameters from a state dictionary.
func (l *Linear[B]) LoadStateDict(stateDict map[string]*tensor.RawTensor) error {
	weightShape := tensor.Shape{l.outFeatures, l.inFeatures}
	if err := LoadStateEntry(stateDict, "weight", weightShape, l.weight.Tensor().Data()); err != nil {
		return err
	}
	if l.bias != nil {
		biasShape := tensor.Shape{l.outFeatures}
		if err := LoadStateEntry(stateDict, "bias", biasShape, l.bias.Tensor().Data()); err != nil {
			return err
		}
	}
	return nil
}
