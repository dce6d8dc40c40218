package autodiff

import (
	"github.com/banet-ml/banet/internal/autodiff/ops"
	"github.com/banet-ml/banet/internal/tensor"
)

// BinaryGate binarizes boundary probabilities against a threshold and
// records a straight-through estimator.
//
// Forward is a hard step: 1 where z > threshold, 0 elsewhere. During
// training the threshold is drawn uniformly from (0, 1) per step, which
// makes the gate a stochastic sample of the Bernoulli(z); at evaluation a
// fixed 0.5 makes it deterministic. Backward treats the step as identity,
// so the boundary detector keeps receiving gradient through its sigmoid.
func (b *AutodiffBackend[B]) BinaryGate(z *tensor.RawTensor, threshold float64) *tensor.RawTensor {
	defer z.ForceNonUnique()()

	result := b.inner.GreaterScalar(z, threshold)

	if b.tape.IsRecording() {
		b.tape.Record(ops.NewStraightThroughOp(z, result))
	}

	return result
}
