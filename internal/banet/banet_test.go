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

func testConfig() Config {
	return Config{
		FrameSize:     6,
		ProjectedSize: 4,
		MidSize:       3,
		HiddenSize:    5,
		MaxFrames:     4,
		MaxWords:      3,
	}
}

// TestDefaultConfig pins the dimensions used with ResNet-50 features.
func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	assert.Equal(t, 2048, cfg.FrameSize)
	assert.Equal(t, 500, cfg.ProjectedSize)
	assert.Equal(t, 500, cfg.MidSize)
	assert.Equal(t, 1024, cfg.HiddenSize)
	assert.Equal(t, 26, cfg.MaxFrames)
	assert.Equal(t, 26, cfg.MaxWords)
}

// TestBANet_ForwardTraining checks shapes through the full encode and
// teacher-forced decode pass.
func TestBANet_ForwardTraining(t *testing.T) {
	backend := autodiff.New(cpu.New())
	vocab := testVocab()

	model := New(testConfig(), vocab, backend)
	model.SetTraining(false)

	videos := tensor.Randn[float32](tensor.Shape{2, 4, 6}, backend)
	captions := captionsFrom(t, backend, []int32{
		1, 4, 5,
		1, 5, 6,
	}, tensor.Shape{2, 3})

	out, encoded := model.Forward(videos, captions, 0.5)

	assert.True(t, encoded.Shape().Equal(tensor.Shape{2, 5}))
	require.NotNil(t, out.Logits)
	assert.Nil(t, out.TokenIDs)
	assert.True(t, out.Logits.Shape().Equal(tensor.Shape{2, 3, vocab.VocabSize()}))
}

// TestBANet_ForwardInference checks greedy decoding without captions.
func TestBANet_ForwardInference(t *testing.T) {
	backend := autodiff.New(cpu.New())
	vocab := testVocab()

	model := New(testConfig(), vocab, backend)
	model.SetTraining(false)

	videos := tensor.Randn[float32](tensor.Shape{2, 4, 6}, backend)
	out, encoded := model.Forward(videos, nil, 0)

	assert.True(t, encoded.Shape().Equal(tensor.Shape{2, 5}))
	require.NotNil(t, out.TokenIDs)
	assert.Nil(t, out.Logits)
	assert.True(t, out.TokenIDs.Shape().Equal(tensor.Shape{2, 3}))

	for _, id := range out.TokenIDs.Data() {
		assert.GreaterOrEqual(t, id, int32(0))
		assert.Less(t, int(id), vocab.VocabSize())
	}
}

// TestBANet_Parameters counts encoder (12) plus decoder (11) tensors.
func TestBANet_Parameters(t *testing.T) {
	backend := autodiff.New(cpu.New())

	model := New(testConfig(), testVocab(), backend)
	params := model.Parameters()

	assert.Len(t, params, 23)

	seen := make(map[*tensor.RawTensor]bool)
	for _, p := range params {
		require.NotNil(t, p.Tensor())
		assert.False(t, seen[p.Tensor().Raw()], "parameter %s listed twice", p.Name())
		seen[p.Tensor().Raw()] = true
	}
}

// TestBANet_GradientFlow backpropagates a masked caption loss and
// checks which weights receive gradients. Every parameter on the output
// path gets one; the high-level LSTM does not, because the summary the
// decoder consumes is the low-level hidden state.
func TestBANet_GradientFlow(t *testing.T) {
	backend := autodiff.New(cpu.New())
	vocab := testVocab()

	model := New(testConfig(), vocab, backend)
	model.SetTraining(false)

	videos := tensor.Randn[float32](tensor.Shape{2, 4, 6}, backend)
	captionValues := []int32{
		1, 4, 5,
		1, 5, 2,
	}
	captions := captionsFrom(t, backend, captionValues, tensor.Shape{2, 3})

	backend.Tape().StartRecording()

	out, _ := model.Forward(videos, captions, 1.0)
	require.NotNil(t, out.Logits)

	steps := out.Logits.Shape()[1]
	flat := out.Logits.Reshape(2*steps, vocab.VocabSize())

	targets := captionsFrom(t, backend, captionValues[:2*steps], tensor.Shape{2 * steps})
	mask := tensor.Ones[float32](tensor.Shape{2 * steps}, backend)

	criterion := nn.NewMaskedCrossEntropyLoss(backend)
	loss := criterion.Forward(flat, targets, mask)

	grads := autodiff.Backward(loss, backend)
	backend.Tape().StopRecording()

	enc := model.Encoder()
	dec := model.Decoder()

	reached := make([]*nn.Parameter[Backend], 0, 21)
	reached = append(reached, enc.frameEmbed.Parameters()...)
	reached = append(reached, enc.lstm1Cell.Parameters()...)
	reached = append(reached, enc.bd.Parameters()...)
	reached = append(reached, dec.Parameters()...)

	for _, p := range reached {
		grad := grads[p.Tensor().Raw()]
		require.NotNil(t, grad, "parameter %s should receive a gradient", p.Name())
		assert.True(t, grad.Shape().Equal(p.Tensor().Shape()), "gradient shape mismatch for %s", p.Name())
	}

	for _, p := range enc.lstm2Cell.Parameters() {
		assert.Nil(t, grads[p.Tensor().Raw()], "parameter %s is off the output path", p.Name())
	}
}

// TestBANet_StateDictRoundTrip saves one model's weights into another
// and compares inference outputs.
func TestBANet_StateDictRoundTrip(t *testing.T) {
	backend := autodiff.New(cpu.New())
	vocab := testVocab()

	src := New(testConfig(), vocab, backend)
	dst := New(testConfig(), vocab, backend)
	src.SetTraining(false)
	dst.SetTraining(false)

	state := src.StateDict()
	assert.Contains(t, state, "encoder.frame_embed.weight")
	assert.Contains(t, state, "encoder.bd.vs")
	assert.Contains(t, state, "decoder.word_embed.weight")
	assert.Contains(t, state, "decoder.gru_cell.weight_hh")

	require.NoError(t, dst.LoadStateDict(state))

	videos := tensor.Randn[float32](tensor.Shape{2, 4, 6}, backend)

	srcOut, srcEncoded := src.Forward(videos, nil, 0)
	dstOut, dstEncoded := dst.Forward(videos, nil, 0)

	assert.Equal(t, srcEncoded.Data(), dstEncoded.Data())
	assert.Equal(t, srcOut.TokenIDs.Data(), dstOut.TokenIDs.Data())
}

// TestBANet_LoadRejectsForeignState errors when a prefix is missing.
func TestBANet_LoadRejectsForeignState(t *testing.T) {
	backend := autodiff.New(cpu.New())

	model := New(testConfig(), testVocab(), backend)

	state := model.StateDict()
	for key := range state {
		if len(key) > 8 && key[:8] == "decoder." {
			delete(state, key)
		}
	}

	assert.Error(t, model.LoadStateDict(state))
}
