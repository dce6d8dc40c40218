package banet

import (
	"testing"

	"github.com/banet-ml/banet/internal/autodiff"
	"github.com/banet-ml/banet/internal/backend/cpu"
	"github.com/banet-ml/banet/internal/tensor"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type Backend = *autodiff.AutodiffBackend[*cpu.CPUBackend]

func fromValues(t *testing.T, backend Backend, values []float32, shape tensor.Shape) *tensor.Tensor[float32, Backend] {
	t.Helper()
	out, err := tensor.FromSlice[float32](values, shape, backend)
	require.NoError(t, err)
	return out
}

// setWeights overwrites a detector's parameters with known values.
func setWeights(bd *BoundaryDetector[Backend], wsi, wsh, bias, vs []float32) {
	copy(bd.wsi.Tensor().Raw().AsFloat32(), wsi)
	copy(bd.wsh.Tensor().Raw().AsFloat32(), wsh)
	copy(bd.bias.Tensor().Raw().AsFloat32(), bias)
	copy(bd.vs.Tensor().Raw().AsFloat32(), vs)
}

// TestBoundaryDetector_Shapes verifies parameter layout and output shape.
func TestBoundaryDetector_Shapes(t *testing.T) {
	backend := autodiff.New(cpu.New())

	bd := NewBoundaryDetector(6, 5, 3, backend)

	assert.True(t, bd.wsi.Tensor().Shape().Equal(tensor.Shape{3, 6}))
	assert.True(t, bd.wsh.Tensor().Shape().Equal(tensor.Shape{3, 5}))
	assert.True(t, bd.bias.Tensor().Shape().Equal(tensor.Shape{3}))
	assert.True(t, bd.vs.Tensor().Shape().Equal(tensor.Shape{1, 3}))
	assert.Len(t, bd.Parameters(), 4)

	x := tensor.Randn[float32](tensor.Shape{4, 6}, backend)
	h := tensor.Randn[float32](tensor.Shape{4, 5}, backend)
	s := bd.Forward(x, h)

	assert.True(t, s.Shape().Equal(tensor.Shape{4, 1}))
}

// TestBoundaryDetector_OutputsAreBinary checks that every gate value is
// exactly 0 or 1, in both training and eval mode.
func TestBoundaryDetector_OutputsAreBinary(t *testing.T) {
	backend := autodiff.New(cpu.New())

	bd := NewBoundaryDetector(6, 5, 3, backend)
	x := tensor.Randn[float32](tensor.Shape{16, 6}, backend)
	h := tensor.Randn[float32](tensor.Shape{16, 5}, backend)

	for _, training := range []bool{true, false} {
		bd.SetTraining(training)
		for trial := 0; trial < 5; trial++ {
			s := bd.Forward(x, h)
			for _, v := range s.Data() {
				assert.True(t, v == 0 || v == 1, "gate value %v is not binary", v)
			}
		}
	}
}

// TestBoundaryDetector_EvalThreshold pins the fixed 0.5 eval threshold
// against hand-constructed affinities.
//
// With Wsi = [[5], [-5]], zero Wsh and bias, and vs = [[10, -10]], the
// pre-threshold affinity is sigmoid(10*tanh(2.5*x)): above 0.5 for
// positive x, below for negative x, and exactly 0.5 at x = 0.
func TestBoundaryDetector_EvalThreshold(t *testing.T) {
	backend := autodiff.New(cpu.New())

	bd := NewBoundaryDetector(1, 1, 2, backend)
	setWeights(bd,
		[]float32{5, -5},
		[]float32{0, 0},
		[]float32{0, 0},
		[]float32{10, -10},
	)
	bd.SetTraining(false)

	x := fromValues(t, backend, []float32{2, -2, 0}, tensor.Shape{3, 1})
	h := tensor.Zeros[float32](tensor.Shape{3, 1}, backend)

	s := bd.Forward(x, h)

	assert.Equal(t, []float32{1, 0, 0}, s.Data())
}

// TestBoundaryDetector_TrainingThresholdVaries draws a fresh threshold
// per call in training mode, so the number of detected boundaries
// changes across calls; in eval mode the result is fixed.
func TestBoundaryDetector_TrainingThresholdVaries(t *testing.T) {
	backend := autodiff.New(cpu.New())

	bd := NewBoundaryDetector(1, 1, 2, backend)
	setWeights(bd,
		[]float32{1, -1},
		[]float32{0, 0},
		[]float32{0, 0},
		[]float32{4, -4},
	)

	// Affinities spread smoothly over (0.03, 0.97) across the batch.
	const batch = 64
	values := make([]float32, batch)
	for i := range values {
		values[i] = -3 + 6*float32(i)/float32(batch-1)
	}
	x := fromValues(t, backend, values, tensor.Shape{batch, 1})
	h := tensor.Zeros[float32](tensor.Shape{batch, 1}, backend)

	countOnes := func(s *tensor.Tensor[float32, Backend]) int {
		n := 0
		for _, v := range s.Data() {
			if v == 1 {
				n++
			}
		}
		return n
	}

	bd.SetTraining(true)
	counts := make(map[int]bool)
	for trial := 0; trial < 40; trial++ {
		counts[countOnes(bd.Forward(x, h))] = true
	}
	assert.Greater(t, len(counts), 1, "training thresholds should vary across calls")

	bd.SetTraining(false)
	first := bd.Forward(x, h).Data()
	for trial := 0; trial < 5; trial++ {
		assert.Equal(t, first, bd.Forward(x, h).Data())
	}
}

// TestBoundaryDetector_StraightThroughGradient checks that the backward
// pass routes gradients through the threshold unchanged.
func TestBoundaryDetector_StraightThroughGradient(t *testing.T) {
	backend := autodiff.New(cpu.New())

	z := fromValues(t, backend, []float32{0.2, 0.6, 0.5, 0.9}, tensor.Shape{4, 1})
	scale := fromValues(t, backend, []float32{2, 3, 4, 5}, tensor.Shape{4, 1})

	backend.Tape().StartRecording()
	gate := binaryGate(z, 0.5)
	out := gate.Mul(scale)
	grads := autodiff.Backward(out, backend)
	backend.Tape().StopRecording()

	assert.Equal(t, []float32{0, 1, 0, 1}, gate.Data())

	gradZ := grads[z.Raw()]
	require.NotNil(t, gradZ, "thresholded input should receive a gradient")
	assert.Equal(t, scale.Data(), gradZ.AsFloat32(), "gradient should pass through the gate unchanged")
}

// TestBoundaryDetector_GradientReachesWeights runs the full affinity
// computation under the tape and checks all four parameters get
// gradients despite the hard threshold.
func TestBoundaryDetector_GradientReachesWeights(t *testing.T) {
	backend := autodiff.New(cpu.New())

	bd := NewBoundaryDetector(3, 2, 2, backend)
	bd.SetTraining(false)

	x := tensor.Randn[float32](tensor.Shape{4, 3}, backend)
	h := tensor.Randn[float32](tensor.Shape{4, 2}, backend)

	backend.Tape().StartRecording()
	s := bd.Forward(x, h)
	loss := s.Sum()
	grads := autodiff.Backward(loss, backend)
	backend.Tape().StopRecording()

	for _, p := range bd.Parameters() {
		grad := grads[p.Tensor().Raw()]
		require.NotNil(t, grad, "parameter %s should receive a gradient", p.Name())
		assert.True(t, grad.Shape().Equal(p.Tensor().Shape()))
	}
}

// TestBoundaryDetector_StateDictRoundTrip loads one detector's weights
// into another and compares outputs.
func TestBoundaryDetector_StateDictRoundTrip(t *testing.T) {
	backend := autodiff.New(cpu.New())

	src := NewBoundaryDetector(4, 3, 2, backend)
	dst := NewBoundaryDetector(4, 3, 2, backend)
	src.SetTraining(false)
	dst.SetTraining(false)

	require.NoError(t, dst.LoadStateDict(src.StateDict()))

	x := tensor.Randn[float32](tensor.Shape{5, 4}, backend)
	h := tensor.Randn[float32](tensor.Shape{5, 3}, backend)

	assert.Equal(t, src.Forward(x, h).Data(), dst.Forward(x, h).Data())
}

// TestBoundaryDetector_RejectsWrongShapes panics on mismatched inputs.
func TestBoundaryDetector_RejectsWrongShapes(t *testing.T) {
	backend := autodiff.New(cpu.New())

	bd := NewBoundaryDetector(6, 5, 3, backend)

	assert.Panics(t, func() {
		bd.Forward(
			tensor.Randn[float32](tensor.Shape{4, 7}, backend),
			tensor.Randn[float32](tensor.Shape{4, 5}, backend),
		)
	})
	assert.Panics(t, func() {
		bd.Forward(
			tensor.Randn[float32](tensor.Shape{4, 6}, backend),
			tensor.Randn[float32](tensor.Shape{3, 5}, backend),
		)
	})
}
