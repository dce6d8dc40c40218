package banet

import (
	"fmt"

	"github.com/banet-ml/banet/internal/nn"
	"github.com/banet-ml/banet/internal/tensor"
)

// Encoder is the two-level boundary-aware recurrent encoder.
//
// A shared linear projection embeds every frame, then a low-level LSTM
// consumes the embedded frames one step at a time. At each step the
// boundary detector decides whether the current frame ends a segment:
// the high-level LSTM receives the low-level hidden state scaled by the
// gate, so it accumulates one summary per detected segment, and the
// low-level hidden and cell states are scaled by one minus the gate, so
// a detected boundary wipes them and the next segment starts fresh.
//
// The high-level cell is bias-free and advances every step; the gate
// scales its input rather than skipping the step. The terminal output is
// the low-level hidden state after the final frame.
type Encoder[B tensor.Backend] struct {
	frameSize     int
	projectedSize int
	midSize       int
	hiddenSize    int
	maxFrames     int

	frameEmbed *nn.Linear[B]
	frameDrop  *nn.Dropout[B]

	lstm1Cell *nn.LSTMCell[B]
	lstm1Drop *nn.Dropout[B]

	bd *BoundaryDetector[B]

	lstm2Cell *nn.LSTMCell[B]
	lstm2Drop *nn.Dropout[B]
}

// NewEncoder creates the hierarchical encoder.
//
// frameSize is the raw per-frame feature dimension, projectedSize the
// shared frame embedding dimension, midSize the boundary detector's
// internal dimension, hiddenSize the state dimension of both recurrent
// cells, and maxFrames the fixed number of frames per video.
func NewEncoder[B tensor.Backend](frameSize, projectedSize, midSize, hiddenSize, maxFrames int, backend B) *Encoder[B] {
	if frameSize <= 0 || projectedSize <= 0 || midSize <= 0 || hiddenSize <= 0 || maxFrames <= 0 {
		panic(fmt.Sprintf("encoder: invalid dimensions frame=%d, projected=%d, mid=%d, hidden=%d, frames=%d",
			frameSize, projectedSize, midSize, hiddenSize, maxFrames))
	}

	return &Encoder[B]{
		frameSize:     frameSize,
		projectedSize: projectedSize,
		midSize:       midSize,
		hiddenSize:    hiddenSize,
		maxFrames:     maxFrames,

		frameEmbed: nn.NewLinear(frameSize, projectedSize, backend),
		frameDrop:  nn.NewDropout(dropoutP, backend),

		lstm1Cell: nn.NewLSTMCell(projectedSize, hiddenSize, backend),
		lstm1Drop: nn.NewDropout(dropoutP, backend),

		bd: NewBoundaryDetector(projectedSize, hiddenSize, midSize, backend),

		lstm2Cell: nn.NewLSTMCellNoBias(hiddenSize, hiddenSize, backend),
		lstm2Drop: nn.NewDropout(dropoutP, backend),
	}
}

// Forward encodes a batch of videos into summary vectors.
//
// Input: [batch, max_frames, frame_size] pre-extracted frame features.
// Output: [batch, hidden_size].
func (e *Encoder[B]) Forward(videoFeats *tensor.Tensor[float32, B]) *tensor.Tensor[float32, B] {
	shape := videoFeats.Shape()
	if len(shape) != 3 || shape[1] != e.maxFrames || shape[2] != e.frameSize {
		panic(fmt.Sprintf("encoder: expected input [batch, %d, %d], got %v", e.maxFrames, e.frameSize, shape))
	}
	batchSize := shape[0]

	// One projection over all frames at once, then back to a per-frame view.
	v := videoFeats.Reshape(batchSize*e.maxFrames, e.frameSize)
	v = e.frameEmbed.Forward(v)
	v = e.frameDrop.Forward(v)
	v = v.Reshape(batchSize, e.maxFrames, e.projectedSize)
	frames := v.Chunk(e.maxFrames, 1)

	lstm1H, lstm1C := e.lstm1Cell.InitState(batchSize)
	lstm2H, lstm2C := e.lstm2Cell.InitState(batchSize)

	for t := 0; t < e.maxFrames; t++ {
		frame := frames[t].Squeeze(1)

		// The gate sees the hidden state from before this frame.
		s := e.bd.Forward(frame, lstm1H)

		lstm1H, lstm1C = e.lstm1Cell.Forward(frame, lstm1H, lstm1C)
		lstm1H = e.lstm1Drop.Forward(lstm1H)

		lstm2H, lstm2C = e.lstm2Cell.Forward(lstm1H.Mul(s), lstm2H, lstm2C)
		lstm2H = e.lstm2Drop.Forward(lstm2H)

		// A detected boundary wipes the low-level state for the next segment.
		keep := s.Neg().AddScalar(1.0)
		lstm1H = lstm1H.Mul(keep)
		lstm1C = lstm1C.Mul(keep)
	}

	return lstm1H
}

// Parameters returns the trainable parameters of every submodule.
func (e *Encoder[B]) Parameters() []*nn.Parameter[B] {
	// frame_embed (2) + lstm1 (4) + bd (4) + bias-free lstm2 (2).
	params := make([]*nn.Parameter[B], 0, 12)
	params = append(params, e.frameEmbed.Parameters()...)
	params = append(params, e.lstm1Cell.Parameters()...)
	params = append(params, e.bd.Parameters()...)
	params = append(params, e.lstm2Cell.Parameters()...)
	return params
}

// SetTraining propagates the mode to every dropout layer and the
// boundary detector.
func (e *Encoder[B]) SetTraining(training bool) {
	e.frameDrop.SetTraining(training)
	e.lstm1Drop.SetTraining(training)
	e.bd.SetTraining(training)
	e.lstm2Drop.SetTraining(training)
}

// FrameSize returns the raw per-frame feature dimension.
func (e *Encoder[B]) FrameSize() int {
	return e.frameSize
}

// HiddenSize returns the summary vector dimension.
func (e *Encoder[B]) HiddenSize() int {
	return e.hiddenSize
}

// MaxFrames returns the fixed frame count per video.
func (e *Encoder[B]) MaxFrames() int {
	return e.maxFrames
}

// StateDict returns all submodule state under dotted prefixes
// (frame_embed, lstm1_cell, bd, lstm2_cell).
func (e *Encoder[B]) StateDict() map[string]*tensor.RawTensor {
	stateDict := make(map[string]*tensor.RawTensor)
	mergeState(stateDict, e.frameEmbed.StateDict(), "frame_embed")
	mergeState(stateDict, e.lstm1Cell.StateDict(), "lstm1_cell")
	mergeState(stateDict, e.bd.StateDict(), "bd")
	mergeState(stateDict, e.lstm2Cell.StateDict(), "lstm2_cell")
	return stateDict
}

// LoadStateDict loads all submodule state, expecting the same prefixes
// as StateDict.
func (e *Encoder[B]) LoadStateDict(stateDict map[string]*tensor.RawTensor) error {
	if err := loadSubState(stateDict, "frame_embed", e.frameEmbed); err != nil {
		return err
	}
	if err := loadSubState(stateDict, "lstm1_cell", e.lstm1Cell); err != nil {
		return err
	}
	if err := loadSubState(stateDict, "bd", e.bd); err != nil {
		return err
	}
	return loadSubState(stateDict, "lstm2_cell", e.lstm2Cell)
}
