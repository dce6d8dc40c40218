package nn

import (
	"fmt"
	"math/rand"

	"github.com/banet-ml/banet/internal/tensor"
)

// Dropout randomly zeroes elements of the input during training.
//
// Uses inverted dropout: each element is kept with probability 1-p and
// scaled by 1/(1-p), so the expected activation is unchanged and no
// rescaling is needed at inference. In eval mode the input passes through
// untouched.
//
// The dropout mask is generated outside the autodiff graph and applied
// with an element-wise multiply, so gradients flow only through the kept
// elements.
type Dropout[B tensor.Backend] struct {
	p        float32
	training bool
	backend  B
}

// NewDropout creates a Dropout module with drop probability p in [0, 1).
//
// The module starts in training mode.
func NewDropout[B tensor.Backend](p float64, backend B) *Dropout[B] {
	if p < 0 || p >= 1 {
		panic(fmt.Sprintf("dropout: probability must be in [0, 1), got %v", p))
	}
	return &Dropout[B]{
		p:        float32(p),
		training: true,
		backend:  backend,
	}
}

// Forward applies dropout in training mode and is the identity in eval mode.
func (d *Dropout[B]) Forward(input *tensor.Tensor[float32, B]) *tensor.Tensor[float32, B] {
	if !d.training || d.p == 0 {
		return input
	}

	keep := 1.0 - d.p
	maskData := make([]float32, input.NumElements())
	for i := range maskData {
		//nolint:gosec // math/rand is appropriate for dropout masks
		if rand.Float32() >= d.p {
			maskData[i] = 1.0 / keep
		}
	}

	mask, err := tensor.FromSlice[float32, B](maskData, input.Shape().Clone(), d.backend)
	if err != nil {
		panic(fmt.Sprintf("dropout: failed to create mask: %v", err))
	}

	return input.Mul(mask)
}

// SetTraining switches between training mode (dropout active) and eval
// mode (identity).
func (d *Dropout[B]) SetTraining(training bool) {
	d.training = training
}

// Training reports whether the module is in training mode.
func (d *Dropout[B]) Training() bool {
	return d.training
}

// P returns the drop probability.
func (d *Dropout[B]) P() float32 {
	return d.p
}

// Parameters returns an empty slice; Dropout has no trainable parameters.
func (d *Dropout[B]) Parameters() []*Parameter[B] {
	return []*Parameter[B]{}
}
