package caption

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/banet-ml/banet/internal/backend/cpu"
	"github.com/banet-ml/banet/internal/banet"
	"github.com/banet-ml/banet/internal/tensor"
	"github.com/banet-ml/banet/internal/tokenizer"
)

func testVocab() *tokenizer.Vocabulary {
	vocab := tokenizer.NewVocabulary()
	vocab.AddWord("a")
	vocab.AddWord("dog")
	vocab.AddWord("runs")
	return vocab
}

// testDecoder builds a small eval-mode decoder on the CPU backend.
func testDecoder(vocab *tokenizer.Vocabulary) (*banet.Decoder[*cpu.CPUBackend], *cpu.CPUBackend) {
	backend := cpu.New()
	decoder := banet.NewDecoder(8, 6, 10, 5, vocab, backend)
	decoder.SetTraining(false)
	return decoder, backend
}

// zeroParams clears every decoder weight so logits reduce to the output
// bias at every step.
func zeroParams(decoder *banet.Decoder[*cpu.CPUBackend]) {
	for _, p := range decoder.Parameters() {
		data := p.Tensor().Raw().AsFloat32()
		for i := range data {
			data[i] = 0
		}
	}
}

// pinOutputBias makes wordID win every argmax.
func pinOutputBias(t *testing.T, decoder *banet.Decoder[*cpu.CPUBackend], wordID int32) {
	t.Helper()
	bias, ok := decoder.StateDict()["word_restore.bias"]
	require.True(t, ok, "decoder state should expose word_restore.bias")
	bias.AsFloat32()[wordID] = 5
}

func TestGenerator_GreedyMatchesDecoderSample(t *testing.T) {
	vocab := testVocab()
	decoder, backend := testDecoder(vocab)
	gen := NewGenerator[*cpu.CPUBackend](decoder, GreedyConfig(), backend)

	videoEncoded := tensor.Randn[float32](tensor.Shape{3, 8}, backend)

	sequences := gen.Generate(videoEncoded)
	require.Len(t, sequences, 3)

	tokenIDs := decoder.Sample(videoEncoded)
	rows := tokenIDs.Data()
	steps := tokenIDs.Shape()[1]

	for b := 0; b < 3; b++ {
		var expected []int32
		for i := 0; i < steps; i++ {
			id := rows[b*steps+i]
			if id == vocab.EosToken() {
				break
			}
			expected = append(expected, id)
		}
		assert.Equal(t, expected, sequences[b], "row %d should match greedy rollout", b)
	}
}

func TestGenerator_StopsAtEndToken(t *testing.T) {
	vocab := testVocab()
	decoder, backend := testDecoder(vocab)
	zeroParams(decoder)
	pinOutputBias(t, decoder, vocab.EosToken())

	gen := NewGenerator[*cpu.CPUBackend](decoder, GreedyConfig(), backend)
	videoEncoded := tensor.Randn[float32](tensor.Shape{2, 8}, backend)

	sequences := gen.Generate(videoEncoded)
	require.Len(t, sequences, 2)
	for b, seq := range sequences {
		assert.Empty(t, seq, "row %d should stop immediately", b)
	}

	captions, err := gen.Captions(videoEncoded)
	require.NoError(t, err)
	assert.Equal(t, []string{"", ""}, captions)
}

func TestGenerator_RunsToWordCap(t *testing.T) {
	vocab := testVocab()
	wordID := vocab.Lookup("dog")
	decoder, backend := testDecoder(vocab)
	zeroParams(decoder)
	pinOutputBias(t, decoder, wordID)

	gen := NewGenerator[*cpu.CPUBackend](decoder, GreedyConfig(), backend)
	videoEncoded := tensor.Randn[float32](tensor.Shape{2, 8}, backend)

	sequences := gen.Generate(videoEncoded)
	require.Len(t, sequences, 2)
	for b, seq := range sequences {
		require.Len(t, seq, decoder.MaxWords(), "row %d should run to the cap", b)
		for _, id := range seq {
			assert.Equal(t, wordID, id)
		}
	}

	captions, err := gen.Captions(videoEncoded)
	require.NoError(t, err)
	expected := strings.TrimSpace(strings.Repeat("dog ", decoder.MaxWords()))
	assert.Equal(t, []string{expected, expected}, captions)
}

func TestGenerator_SampledIDsWithinVocab(t *testing.T) {
	vocab := testVocab()
	decoder, backend := testDecoder(vocab)

	config := SamplingConfig{Temperature: 0.9, TopK: 3, Seed: 7}
	gen := NewGenerator[*cpu.CPUBackend](decoder, config, backend)
	videoEncoded := tensor.Randn[float32](tensor.Shape{4, 8}, backend)

	sequences := gen.Generate(videoEncoded)
	require.Len(t, sequences, 4)
	for _, seq := range sequences {
		assert.LessOrEqual(t, len(seq), decoder.MaxWords())
		for _, id := range seq {
			assert.GreaterOrEqual(t, id, int32(0))
			assert.Less(t, int(id), vocab.VocabSize())
		}
	}
}

func TestGenerator_SeededSamplingDeterministic(t *testing.T) {
	vocab := testVocab()
	decoder, backend := testDecoder(vocab)

	config := SamplingConfig{Temperature: 1.0, TopP: 0.9, Seed: 42}
	videoEncoded := tensor.Randn[float32](tensor.Shape{3, 8}, backend)

	first := NewGenerator[*cpu.CPUBackend](decoder, config, backend).Generate(videoEncoded)
	second := NewGenerator[*cpu.CPUBackend](decoder, config, backend).Generate(videoEncoded)

	assert.Equal(t, first, second, "Same seed should give same captions")
}

func TestGenerator_RejectsBadShape(t *testing.T) {
	vocab := testVocab()
	decoder, backend := testDecoder(vocab)
	gen := NewGenerator[*cpu.CPUBackend](decoder, GreedyConfig(), backend)

	assert.Panics(t, func() {
		gen.Generate(tensor.Randn[float32](tensor.Shape{8}, backend))
	})
}
