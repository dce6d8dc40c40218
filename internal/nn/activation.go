package nn

import (
	"github.com/banet-ml/banet/internal/tensor"
)

// Activation functions are provided by the backend through capability
// interfaces rather than the base tensor.Backend interface. This keeps the
// base interface small while letting the autodiff decorator record each
// activation as a single fused operation.

// ReLUBackend is implemented by backends that provide a fused ReLU.
type ReLUBackend interface {
	ReLU(x *tensor.RawTensor) *tensor.RawTensor
}

// SigmoidBackend is implemented by backends that provide a fused sigmoid.
type SigmoidBackend interface {
	Sigmoid(x *tensor.RawTensor) *tensor.RawTensor
}

// TanhBackend is implemented by backends that provide a fused tanh.
type TanhBackend interface {
	Tanh(x *tensor.RawTensor) *tensor.RawTensor
}

// reluTensor applies ReLU through the backend capability interface.
func reluTensor[B tensor.Backend](t *tensor.Tensor[float32, B]) *tensor.Tensor[float32, B] {
	b, ok := any(t.Backend()).(ReLUBackend)
	if !ok {
		panic("nn: backend must implement ReLU operation (use autodiff.AutodiffBackend)")
	}
	return tensor.New[float32, B](b.ReLU(t.Raw()), t.Backend())
}

// sigmoidTensor applies sigmoid through the backend capability interface.
func sigmoidTensor[B tensor.Backend](t *tensor.Tensor[float32, B]) *tensor.Tensor[float32, B] {
	b, ok := any(t.Backend()).(SigmoidBackend)
	if !ok {
		panic("nn: backend must implement Sigmoid operation (use autodiff.AutodiffBackend)")
	}
	return tensor.New[float32, B](b.Sigmoid(t.Raw()), t.Backend())
}

// tanhTensor applies tanh through the backend capability interface.
func tanhTensor[B tensor.Backend](t *tensor.Tensor[float32, B]) *tensor.Tensor[float32, B] {
	b, ok := any(t.Backend()).(TanhBackend)
	if !ok {
		panic("nn: backend must implement Tanh operation (use autodiff.AutodiffBackend)")
	}
	return tensor.New[float32, B](b.Tanh(t.Raw()), t.Backend())
}

// ReLU is the rectified linear activation: max(0, x).
type ReLU[B tensor.Backend] struct{}

// NewReLU creates a ReLU activation module.
func NewReLU[B tensor.Backend]() *ReLU[B] {
	return &ReLU[B]{}
}

// Forward applies ReLU element-wise.
func (r *ReLU[B]) Forward(input *tensor.Tensor[float32, B]) *tensor.Tensor[float32, B] {
	return reluTensor(input)
}

// Parameters returns an empty slice; ReLU has no trainable parameters.
func (r *ReLU[B]) Parameters() []*Parameter[B] {
	return []*Parameter[B]{}
}

// Sigmoid is the logistic activation: 1 / (1 + exp(-x)).
type Sigmoid[B tensor.Backend] struct{}

// NewSigmoid creates a Sigmoid activation module.
func NewSigmoid[B tensor.Backend]() *Sigmoid[B] {
	return &Sigmoid[B]{}
}

// Forward applies sigmoid element-wise.
func (s *Sigmoid[B]) Forward(input *tensor.Tensor[float32, B]) *tensor.Tensor[float32, B] {
	return sigmoidTensor(input)
}

// Parameters returns an empty slice; Sigmoid has no trainable parameters.
func (s *Sigmoid[B]) Parameters() []*Parameter[B] {
	return []*Parameter[B]{}
}

// Tanh is the hyperbolic tangent activation.
type Tanh[B tensor.Backend] struct{}

// NewTanh creates a Tanh activation module.
func NewTanh[B tensor.Backend]() *Tanh[B] {
	return &Tanh[B]{}
}

// Forward applies tanh element-wise.
func (t *Tanh[B]) Forward(input *tensor.Tensor[float32, B]) *tensor.Tensor[float32, B] {
	return tanhTensor(input)
}

// Parameters returns an empty slice; Tanh has no trainable parameters.
func (t *Tanh[B]) Parameters() []*Parameter[B] {
	return []*Parameter[B]{}
}
