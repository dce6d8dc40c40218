package caption

import (
	"fmt"

	"github.com/banet-ml/banet/internal/tensor"
	"github.com/banet-ml/banet/internal/tokenizer"
)

// StepDecoder is the decoder interface the generator drives.
//
// One caption step consumes the projected video summary, the previous
// word ids [batch], and the recurrent state [batch, hidden_size], and
// returns vocabulary logits [batch, vocab_size] plus the next state.
type StepDecoder[B tensor.Backend] interface {
	// ProjectVideo maps the encoded video summary into the fused input
	// space, computed once per sequence.
	ProjectVideo(videoEncoded *tensor.Tensor[float32, B]) *tensor.Tensor[float32, B]

	// InitState returns a zero recurrent state for a batch.
	InitState(batchSize int) *tensor.Tensor[float32, B]

	// Step advances the decoder by one word.
	Step(videoProjected *tensor.Tensor[float32, B], wordIDs *tensor.Tensor[int32, B], hidden *tensor.Tensor[float32, B]) (*tensor.Tensor[float32, B], *tensor.Tensor[float32, B])

	// MaxWords returns the generation cap per caption.
	MaxWords() int

	// VocabSize returns the vocabulary size the logits cover.
	VocabSize() int

	// Vocab returns the tokenizer the decoder generates against.
	Vocab() tokenizer.Tokenizer
}

// Generator produces captions by sampling the decoder one word at a
// time.
//
// Each sequence starts from the start token and a zero state; every
// step samples a word from the logits and feeds it back. A row stops at
// its first end token, and the pass stops once every row has stopped or
// the decoder's word cap is reached. Run the decoder in eval mode so
// dropout stays out of the steps.
type Generator[B tensor.Backend] struct {
	decoder StepDecoder[B]
	sampler *Sampler
	backend B
}

// NewGenerator creates a caption generator over a decoder.
func NewGenerator[B tensor.Backend](decoder StepDecoder[B], config SamplingConfig, backend B) *Generator[B] {
	return &Generator[B]{
		decoder: decoder,
		sampler: NewSampler(config),
		backend: backend,
	}
}

// Generate samples caption word ids for a batch of encoded videos.
//
// videoEncoded is the encoder output [batch, encoded_size]. Each row of
// the result holds the sampled ids up to (and excluding) that row's end
// token; a row whose first sample is the end token comes back empty.
func (g *Generator[B]) Generate(videoEncoded *tensor.Tensor[float32, B]) [][]int32 {
	shape := videoEncoded.Shape()
	if len(shape) != 2 {
		panic(fmt.Sprintf("caption: expected video encoding [batch, size], got %v", shape))
	}
	batchSize := shape[0]

	vocab := g.decoder.Vocab()
	eosID := vocab.EosToken()
	vocabSize := g.decoder.VocabSize()

	videoProjected := g.decoder.ProjectVideo(videoEncoded)
	hidden := g.decoder.InitState(batchSize)
	wordIDs := tensor.Full(tensor.Shape{batchSize}, vocab.BosToken(), g.backend)

	sequences := make([][]int32, batchSize)
	done := make([]bool, batchSize)
	remaining := batchSize

	for step := 0; step < g.decoder.MaxWords() && remaining > 0; step++ {
		logits, next := g.decoder.Step(videoProjected, wordIDs, hidden)
		hidden = next

		rows := logits.Data()
		nextWords := make([]int32, batchSize)
		for b := range nextWords {
			if done[b] {
				// Finished rows keep feeding the end token; their
				// outputs are discarded.
				nextWords[b] = eosID
				continue
			}

			word := g.sampler.Sample(rows[b*vocabSize : (b+1)*vocabSize])
			nextWords[b] = word
			if word == eosID {
				done[b] = true
				remaining--
				continue
			}
			sequences[b] = append(sequences[b], word)
		}
		if remaining == 0 {
			break
		}

		words, err := tensor.FromSlice(nextWords, tensor.Shape{batchSize}, g.backend)
		if err != nil {
			panic(fmt.Sprintf("caption: failed to build word tokens: %v", err))
		}
		wordIDs = words
	}

	return sequences
}

// Captions samples and decodes captions for a batch of encoded videos.
func (g *Generator[B]) Captions(videoEncoded *tensor.Tensor[float32, B]) ([]string, error) {
	vocab := g.decoder.Vocab()
	sequences := g.Generate(videoEncoded)

	captions := make([]string, len(sequences))
	for i, ids := range sequences {
		text, err := vocab.Decode(ids)
		if err != nil {
			return nil, fmt.Errorf("decode caption %d: %w", i, err)
		}
		captions[i] = text
	}
	return captions, nil
}
