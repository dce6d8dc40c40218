package nn

import (
	"github.com/banet-ml/banet/internal/tensor"
)

// Parameter is a trainable tensor with an associated gradient slot.
//
// Parameters hold the weights and biases of layers. During the backward
// pass the optimizer reads gradients from here and applies updates to the
// underlying tensor in place.
//
// Example:
//
//	weight := UniformFanIn(inFeatures, tensor.Shape{out, in}, backend)
//	param := nn.NewParameter("weight", weight)
//	param.SetGrad(gradTensor)
//	param.ZeroGrad()
type Parameter[B tensor.Backend] struct {
	name   string
	tensor *tensor.Tensor[float32, B]
	grad   *tensor.Tensor[float32, B]
}

// NewParameter creates a parameter wrapping the given tensor.
//
// The name identifies the parameter in state dictionaries and debug output.
func NewParameter[B tensor.Backend](name string, t *tensor.Tensor[float32, B]) *Parameter[B] {
	return &Parameter[B]{
		name:   name,
		tensor: t,
	}
}

// Name returns the parameter name.
func (p *Parameter[B]) Name() string {
	return p.name
}

// Tensor returns the underlying tensor.
func (p *Parameter[B]) Tensor() *tensor.Tensor[float32, B] {
	return p.tensor
}

// Grad returns the accumulated gradient, or nil if none has been set.
func (p *Parameter[B]) Grad() *tensor.Tensor[float32, B] {
	return p.grad
}

// SetGrad stores a gradient for this parameter.
func (p *Parameter[B]) SetGrad(grad *tensor.Tensor[float32, B]) {
	p.grad = grad
}

// ZeroGrad clears the gradient.
//
// Called between training steps so gradients from one batch do not leak
// into the next.
func (p *Parameter[B]) ZeroGrad() {
	p.grad = nil
}
