package banet

import (
	"fmt"
	"math/rand"

	"github.com/banet-ml/banet/internal/nn"
	"github.com/banet-ml/banet/internal/tensor"
	"github.com/banet-ml/banet/internal/tokenizer"
)

// Output holds one decoding pass's results.
//
// A training pass fills Logits with shape [batch, steps, vocab_size] for
// loss computation; an inference pass fills TokenIDs with shape
// [batch, steps]. The unused field is nil.
type Output[B tensor.Backend] struct {
	Logits   *tensor.Tensor[float32, B]
	TokenIDs *tensor.Tensor[int32, B]
}

// Decoder generates captions from an encoded video summary.
//
// Each step fuses a fixed projection of the video summary, computed once
// per sequence, with a projection of the previous word's embedding. The
// sum drives a GRU cell whose hidden state is restored to vocabulary
// logits. There is no attention; the video enters every step through the
// same projected summary.
type Decoder[B tensor.Backend] struct {
	encodedSize   int
	projectedSize int
	hiddenSize    int
	maxWords      int
	vocabSize     int

	vocab tokenizer.Tokenizer

	wordEmbed *nn.Embedding[B]
	wordDrop  *nn.Dropout[B]

	v2m         *nn.Linear[B] // video summary -> fused input space
	w2m         *nn.Linear[B] // word embedding -> fused input space
	gruCell     *nn.GRUCell[B]
	gruDrop     *nn.Dropout[B]
	wordRestore *nn.Linear[B] // hidden -> vocabulary logits

	backend B
}

// NewDecoder creates the caption decoder.
//
// encodedSize is the video summary dimension, projectedSize the fused
// input dimension shared by the video and word projections, hiddenSize
// the GRU state dimension, and maxWords the generation cap per caption.
// The vocabulary supplies the ids for the start, end, and padding tokens.
func NewDecoder[B tensor.Backend](encodedSize, projectedSize, hiddenSize, maxWords int, vocab tokenizer.Tokenizer, backend B) *Decoder[B] {
	if encodedSize <= 0 || projectedSize <= 0 || hiddenSize <= 0 || maxWords <= 0 {
		panic(fmt.Sprintf("decoder: invalid dimensions encoded=%d, projected=%d, hidden=%d, words=%d",
			encodedSize, projectedSize, hiddenSize, maxWords))
	}
	if vocab == nil {
		panic("decoder: vocabulary is required")
	}

	vocabSize := vocab.VocabSize()
	return &Decoder[B]{
		encodedSize:   encodedSize,
		projectedSize: projectedSize,
		hiddenSize:    hiddenSize,
		maxWords:      maxWords,
		vocabSize:     vocabSize,
		vocab:         vocab,

		wordEmbed: nn.NewEmbedding(vocabSize, projectedSize, backend),
		wordDrop:  nn.NewDropout(dropoutP, backend),

		v2m:         nn.NewLinear(encodedSize, projectedSize, backend),
		w2m:         nn.NewLinear(projectedSize, projectedSize, backend),
		gruCell:     nn.NewGRUCell(projectedSize, hiddenSize, backend),
		gruDrop:     nn.NewDropout(dropoutP, backend),
		wordRestore: nn.NewLinear(hiddenSize, vocabSize, backend),

		backend: backend,
	}
}

// ProjectVideo maps the encoded video summary into the fused input space.
//
// Computed once per sequence and reused by every Step.
func (d *Decoder[B]) ProjectVideo(videoEncoded *tensor.Tensor[float32, B]) *tensor.Tensor[float32, B] {
	return d.v2m.Forward(videoEncoded)
}

// InitState returns a zero hidden state for a batch.
func (d *Decoder[B]) InitState(batchSize int) *tensor.Tensor[float32, B] {
	return d.gruCell.InitState(batchSize)
}

// Step advances the decoder by one word.
//
// videoProjected is the ProjectVideo output [batch, projected_size],
// wordIDs the previous tokens [batch], and hidden the GRU state
// [batch, hidden_size]. Returns vocabulary logits [batch, vocab_size]
// and the next hidden state.
func (d *Decoder[B]) Step(videoProjected *tensor.Tensor[float32, B], wordIDs *tensor.Tensor[int32, B], hidden *tensor.Tensor[float32, B]) (*tensor.Tensor[float32, B], *tensor.Tensor[float32, B]) {
	word := d.wordDrop.Forward(d.wordEmbed.Forward(wordIDs))
	fused := videoProjected.Add(d.w2m.Forward(word))
	next := d.gruDrop.Forward(d.gruCell.Forward(fused, hidden))
	return d.wordRestore.Forward(next), next
}

// Forward runs a full decoding pass.
//
// videoEncoded is the encoder output [batch, encoded_size]. A nil
// captions tensor selects inference mode: every step takes the greedy
// argmax and the result carries token ids. With captions of shape
// [batch, max_words] the decoder trains: each step's logits are
// collected, generation stops early once a caption column is all
// padding (padding is right-aligned per batch), and with probability
// teacherForcingRatio a step feeds the ground-truth token instead of
// the model's own prediction. The caption tensor is never read in
// inference mode.
func (d *Decoder[B]) Forward(videoEncoded *tensor.Tensor[float32, B], captions *tensor.Tensor[int32, B], teacherForcingRatio float64) *Output[B] {
	shape := videoEncoded.Shape()
	if len(shape) != 2 || shape[1] != d.encodedSize {
		panic(fmt.Sprintf("decoder: expected video encoding [batch, %d], got %v", d.encodedSize, shape))
	}
	batchSize := shape[0]

	infer := captions == nil
	if !infer {
		capShape := captions.Shape()
		if len(capShape) != 2 || capShape[0] != batchSize || capShape[1] != d.maxWords {
			panic(fmt.Sprintf("decoder: expected captions [%d, %d], got %v", batchSize, d.maxWords, capShape))
		}
	}

	hidden := d.InitState(batchSize)
	videoProjected := d.ProjectVideo(videoEncoded)
	wordIDs := tensor.Full(tensor.Shape{batchSize}, d.vocab.BosToken(), d.backend)

	padID := d.vocab.PadToken()
	var logitSteps []*tensor.Tensor[float32, B]
	var tokenSteps []*tensor.Tensor[int32, B]

	for i := 0; i < d.maxWords; i++ {
		var column []int32
		if !infer {
			column = captionColumn(captions, i)
			if allPad(column, padID) {
				break
			}
		}

		logits, next := d.Step(videoProjected, wordIDs, hidden)
		hidden = next

		//nolint:gosec // math/rand is appropriate for teacher forcing draws
		if !infer && rand.Float64() < teacherForcingRatio {
			forced, err := tensor.FromSlice(column, tensor.Shape{batchSize}, d.backend)
			if err != nil {
				panic(fmt.Sprintf("decoder: failed to build forced tokens: %v", err))
			}
			wordIDs = forced
		} else {
			wordIDs = logits.Argmax(1)
		}

		if infer {
			tokenSteps = append(tokenSteps, wordIDs.Unsqueeze(1))
		} else {
			logitSteps = append(logitSteps, logits.Unsqueeze(1))
		}
	}

	if infer {
		return &Output[B]{TokenIDs: tensor.Cat(tokenSteps, 1)}
	}
	return &Output[B]{Logits: tensor.Cat(logitSteps, 1)}
}

// Sample generates caption token ids for a batch of encoded videos.
//
// Equivalent to Forward with no captions: pure greedy decoding.
func (d *Decoder[B]) Sample(videoEncoded *tensor.Tensor[float32, B]) *tensor.Tensor[int32, B] {
	return d.Forward(videoEncoded, nil, 0).TokenIDs
}

// DecodeTokens converts one caption's token ids into text, stopping at
// the first end-of-sequence token.
func (d *Decoder[B]) DecodeTokens(ids []int32) (string, error) {
	return d.vocab.Decode(ids)
}

// Parameters returns the trainable parameters of every submodule.
func (d *Decoder[B]) Parameters() []*nn.Parameter[B] {
	// word_embed (1) + v2m (2) + w2m (2) + gru (4) + word_restore (2).
	params := make([]*nn.Parameter[B], 0, 11)
	params = append(params, d.wordEmbed.Parameters()...)
	params = append(params, d.v2m.Parameters()...)
	params = append(params, d.w2m.Parameters()...)
	params = append(params, d.gruCell.Parameters()...)
	params = append(params, d.wordRestore.Parameters()...)
	return params
}

// SetTraining propagates the mode to the dropout layers.
//
// Teacher forcing is controlled by the ratio argument to Forward, not by
// the training mode.
func (d *Decoder[B]) SetTraining(training bool) {
	d.wordDrop.SetTraining(training)
	d.gruDrop.SetTraining(training)
}

// MaxWords returns the generation cap per caption.
func (d *Decoder[B]) MaxWords() int {
	return d.maxWords
}

// VocabSize returns the vocabulary size the logits cover.
func (d *Decoder[B]) VocabSize() int {
	return d.vocabSize
}

// Vocab returns the tokenizer the decoder generates against.
func (d *Decoder[B]) Vocab() tokenizer.Tokenizer {
	return d.vocab
}

// StateDict returns all submodule state under dotted prefixes
// (word_embed, v2m, w2m, gru_cell, word_restore).
func (d *Decoder[B]) StateDict() map[string]*tensor.RawTensor {
	stateDict := make(map[string]*tensor.RawTensor)
	mergeState(stateDict, d.wordEmbed.StateDict(), "word_embed")
	mergeState(stateDict, d.v2m.StateDict(), "v2m")
	mergeState(stateDict, d.w2m.StateDict(), "w2m")
	mergeState(stateDict, d.gruCell.StateDict(), "gru_cell")
	mergeState(stateDict, d.wordRestore.StateDict(), "word_restore")
	return stateDict
}

// LoadStateDict loads all submodule state, expecting the same prefixes
// as StateDict.
func (d *Decoder[B]) LoadStateDict(stateDict map[string]*tensor.RawTensor) error {
	if err := loadSubState(stateDict, "word_embed", d.wordEmbed); err != nil {
		return err
	}
	if err := loadSubState(stateDict, "v2m", d.v2m); err != nil {
		return err
	}
	if err := loadSubState(stateDict, "w2m", d.w2m); err != nil {
		return err
	}
	if err := loadSubState(stateDict, "gru_cell", d.gruCell); err != nil {
		return err
	}
	return loadSubState(stateDict, "word_restore", d.wordRestore)
}

// captionColumn copies one caption column out of the tensor. Token ids
// are discrete inputs; reading them through the raw buffer keeps them
// off the autodiff tape.
func captionColumn[B tensor.Backend](captions *tensor.Tensor[int32, B], step int) []int32 {
	shape := captions.Shape()
	data := captions.Data()
	column := make([]int32, shape[0])
	for b := range column {
		column[b] = data[b*shape[1]+step]
	}
	return column
}

// allPad reports whether every entry equals the padding token.
func allPad(column []int32, padID int32) bool {
	for _, id := range column {
		if id != padID {
			return false
		}
	}
	return true
}
