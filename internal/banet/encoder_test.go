package banet

import (
	"testing"

	"github.com/banet-ml/banet/internal/autodiff"
	"github.com/banet-ml/banet/internal/backend/cpu"
	"github.com/banet-ml/banet/internal/nn"
	"github.com/banet-ml/banet/internal/tensor"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fillParam overwrites every element of a parameter with one value.
func fillParam(p *nn.Parameter[Backend], v float32) {
	data := p.Tensor().Raw().AsFloat32()
	for i := range data {
		data[i] = v
	}
}

// forceGate pins the boundary detector to a constant decision. Zeroed
// affine weights make the pre-threshold affinity sigmoid(0.5 * sum(vs)),
// which saturates to 1 or 0 for large positive or negative vs.
func forceGate(e *Encoder[Backend], open bool) {
	fillParam(e.bd.wsi, 0)
	fillParam(e.bd.wsh, 0)
	fillParam(e.bd.bias, 0)
	if open {
		fillParam(e.bd.vs, 100)
	} else {
		fillParam(e.bd.vs, -100)
	}
}

// TestEncoder_OutputShape checks the summary shape for a non-default
// frame count.
func TestEncoder_OutputShape(t *testing.T) {
	backend := autodiff.New(cpu.New())

	enc := NewEncoder(6, 4, 3, 5, 7, backend)
	enc.SetTraining(false)

	videos := tensor.Randn[float32](tensor.Shape{3, 7, 6}, backend)
	out := enc.Forward(videos)

	assert.True(t, out.Shape().Equal(tensor.Shape{3, 5}))
	assert.Equal(t, 6, enc.FrameSize())
	assert.Equal(t, 5, enc.HiddenSize())
	assert.Equal(t, 7, enc.MaxFrames())
}

// TestEncoder_Parameters counts the trainable tensors: frame embedding
// (2), low-level LSTM (4), boundary detector (4), bias-free high-level
// LSTM (2).
func TestEncoder_Parameters(t *testing.T) {
	backend := autodiff.New(cpu.New())

	enc := NewEncoder(6, 4, 3, 5, 4, backend)
	params := enc.Parameters()

	assert.Len(t, params, 12)
	for _, p := range params {
		require.NotNil(t, p.Tensor())
		assert.NotEmpty(t, p.Name())
	}
}

// TestEncoder_BoundaryEveryFrameWipesState pins the gate open: each
// frame ends a segment, so the low-level state is wiped after every
// step and the terminal summary is exactly zero.
func TestEncoder_BoundaryEveryFrameWipesState(t *testing.T) {
	backend := autodiff.New(cpu.New())

	enc := NewEncoder(6, 4, 3, 5, 4, backend)
	enc.SetTraining(false)
	forceGate(enc, true)

	videos := tensor.Randn[float32](tensor.Shape{2, 4, 6}, backend)
	out := enc.Forward(videos)

	for _, v := range out.Data() {
		assert.Zero(t, v)
	}
}

// TestEncoder_NoBoundaryMatchesPlainLSTM pins the gate closed: the
// low-level state is never wiped, so the encoder reduces to an ordinary
// LSTM over the embedded frames.
func TestEncoder_NoBoundaryMatchesPlainLSTM(t *testing.T) {
	backend := autodiff.New(cpu.New())

	enc := NewEncoder(6, 4, 3, 5, 4, backend)
	enc.SetTraining(false)
	forceGate(enc, false)

	videos := tensor.Randn[float32](tensor.Shape{2, 4, 6}, backend)
	out := enc.Forward(videos)

	frames := videos.Chunk(4, 1)
	h, c := enc.lstm1Cell.InitState(2)
	for step := 0; step < 4; step++ {
		embedded := enc.frameEmbed.Forward(frames[step].Squeeze(1))
		h, c = enc.lstm1Cell.Forward(embedded, h, c)
	}

	expected := h.Data()
	actual := out.Data()
	require.Len(t, actual, len(expected))
	for i := range expected {
		assert.InDelta(t, expected[i], actual[i], 1e-5)
	}
}

// TestEncoder_EvalDeterministic repeats a forward pass in eval mode;
// dropout is off and the threshold fixed, so results must match exactly.
func TestEncoder_EvalDeterministic(t *testing.T) {
	backend := autodiff.New(cpu.New())

	enc := NewEncoder(6, 4, 3, 5, 4, backend)
	enc.SetTraining(false)

	videos := tensor.Randn[float32](tensor.Shape{2, 4, 6}, backend)

	first := enc.Forward(videos).Data()
	second := enc.Forward(videos).Data()

	assert.Equal(t, first, second)
}

// TestEncoder_StateDictRoundTrip loads one encoder's weights into
// another and compares outputs.
func TestEncoder_StateDictRoundTrip(t *testing.T) {
	backend := autodiff.New(cpu.New())

	src := NewEncoder(6, 4, 3, 5, 4, backend)
	dst := NewEncoder(6, 4, 3, 5, 4, backend)
	src.SetTraining(false)
	dst.SetTraining(false)

	state := src.StateDict()
	assert.Contains(t, state, "frame_embed.weight")
	assert.Contains(t, state, "lstm1_cell.weight_ih")
	assert.Contains(t, state, "bd.vs")
	assert.Contains(t, state, "lstm2_cell.weight_hh")

	require.NoError(t, dst.LoadStateDict(state))

	videos := tensor.Randn[float32](tensor.Shape{2, 4, 6}, backend)
	assert.Equal(t, src.Forward(videos).Data(), dst.Forward(videos).Data())
}

// TestEncoder_RejectsWrongShapes panics on inputs that do not match the
// configured frame count or feature size.
func TestEncoder_RejectsWrongShapes(t *testing.T) {
	backend := autodiff.New(cpu.New())

	enc := NewEncoder(6, 4, 3, 5, 4, backend)

	assert.Panics(t, func() {
		enc.Forward(tensor.Randn[float32](tensor.Shape{2, 3, 6}, backend))
	})
	assert.Panics(t, func() {
		enc.Forward(tensor.Randn[float32](tensor.Shape{2, 4, 7}, backend))
	})
	assert.Panics(t, func() {
		enc.Forward(tensor.Randn[float32](tensor.Shape{2, 24}, backend))
	})
}
