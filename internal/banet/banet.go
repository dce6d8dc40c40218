// Package banet implements the boundary-aware video captioning
// architecture.
//
// The model pairs a hierarchical encoder with an attention-free decoder:
//
//   - Encoder: a low-level LSTM reads every frame while a learned
//     boundary detector segments the sequence; a high-level LSTM
//     accumulates per-segment summaries through a binary gate.
//   - Decoder: a GRU generates words, fusing the video summary and the
//     previous word at every step, with optional teacher forcing.
//
// Both halves share one tensor backend; wrap the CPU backend in
// autodiff.New for training:
//
//	backend := autodiff.New(cpu.New())
//	model := banet.New(banet.DefaultConfig(), vocab, backend)
//	output, encoded := model.Forward(videos, captions, 0.5)
package banet

import (
	"github.com/banet-ml/banet/internal/nn"
	"github.com/banet-ml/banet/internal/tensor"
	"github.com/banet-ml/banet/internal/tokenizer"
)

// All dropout layers in the architecture share one rate.
const dropoutP = 0.5

// Config holds the architecture dimensions.
type Config struct {
	FrameSize     int // Per-frame feature dimension from the visual backbone
	ProjectedSize int // Shared frame and word embedding dimension
	MidSize       int // Boundary detector internal dimension
	HiddenSize    int // Recurrent state dimension for encoder and decoder
	MaxFrames     int // Fixed frame count per video
	MaxWords      int // Generation cap per caption
}

// DefaultConfig returns the dimensions used with ResNet-50 frame
// features.
func DefaultConfig() Config {
	return Config{
		FrameSize:     2048,
		ProjectedSize: 500,
		MidSize:       500,
		HiddenSize:    1024,
		MaxFrames:     26,
		MaxWords:      26,
	}
}

// BANet composes the encoder and decoder into one trainable model.
type BANet[B tensor.Backend] struct {
	encoder *Encoder[B]
	decoder *Decoder[B]
}

// New creates a BANet model.
//
// The decoder consumes the encoder's hidden state directly, so its
// encoded size and its own hidden size both equal cfg.HiddenSize.
func New[B tensor.Backend](cfg Config, vocab tokenizer.Tokenizer, backend B) *BANet[B] {
	return &BANet[B]{
		encoder: NewEncoder(cfg.FrameSize, cfg.ProjectedSize, cfg.MidSize, cfg.HiddenSize, cfg.MaxFrames, backend),
		decoder: NewDecoder(cfg.HiddenSize, cfg.ProjectedSize, cfg.HiddenSize, cfg.MaxWords, vocab, backend),
	}
}

// Forward encodes the videos and decodes captions in one pass.
//
// Returns the decoder output and the encoded video summaries. See
// Decoder.Forward for the captions and teacherForcingRatio semantics.
func (m *BANet[B]) Forward(videos *tensor.Tensor[float32, B], captions *tensor.Tensor[int32, B], teacherForcingRatio float64) (*Output[B], *tensor.Tensor[float32, B]) {
	videoEncoded := m.encoder.Forward(videos)
	output := m.decoder.Forward(videoEncoded, captions, teacherForcingRatio)
	return output, videoEncoded
}

// Encoder returns the encoder half.
func (m *BANet[B]) Encoder() *Encoder[B] {
	return m.encoder
}

// Decoder returns the decoder half.
func (m *BANet[B]) Decoder() *Decoder[B] {
	return m.decoder
}

// Parameters returns encoder then decoder parameters.
func (m *BANet[B]) Parameters() []*nn.Parameter[B] {
	params := m.encoder.Parameters()
	return append(params, m.decoder.Parameters()...)
}

// SetTraining propagates the mode to both halves.
func (m *BANet[B]) SetTraining(training bool) {
	m.encoder.SetTraining(training)
	m.decoder.SetTraining(training)
}

// StateDict returns all model state under "encoder." and "decoder."
// prefixes.
func (m *BANet[B]) StateDict() map[string]*tensor.RawTensor {
	stateDict := make(map[string]*tensor.RawTensor)
	mergeState(stateDict, m.encoder.StateDict(), "encoder")
	mergeState(stateDict, m.decoder.StateDict(), "decoder")
	return stateDict
}

// LoadStateDict loads both halves, expecting the same prefixes as
// StateDict.
func (m *BANet[B]) LoadStateDict(stateDict map[string]*tensor.RawTensor) error {
	if err := loadSubState(stateDict, "encoder", m.encoder); err != nil {
		return err
	}
	return loadSubState(stateDict, "decoder", m.decoder)
}
