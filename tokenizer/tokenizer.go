// Package tokenizer provides text tokenization for caption models in BANet.
//
// This package wraps the internal tokenizer implementations and provides
// a clean public API for tokenization tasks.
//
// Supported tokenizers:
//   - Vocabulary: word-level mapping built from a caption corpus
//   - TikToken: OpenAI BPE encodings (cl100k_base, p50k_base, r50k_base)
//
// Example usage:
//
//	import "github.com/banet-ml/banet/tokenizer"
//
//	// Build a vocabulary from training captions
//	vocab := tokenizer.BuildVocabulary(captions, 3)
//
//	// Encode a caption
//	tokens, err := vocab.Encode("a dog runs across the yard")
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	// Decode model output (stops at <end>)
//	text, err := vocab.Decode(tokens)
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	// Persist alongside checkpoints
//	err = vocab.Save("vocab.json")
package tokenizer

import (
	"github.com/banet-ml/banet/internal/tokenizer"
)

// Tokenizer is the core interface for caption tokenization.
//
// All tokenizer implementations must implement this interface.
type Tokenizer = tokenizer.Tokenizer

// Vocabulary is a word-level token mapping for caption text.
//
// Words map to dense ids starting after the four reserved tokens
// (<pad>, <start>, <end>, <unk>). Unknown words resolve to <unk>.
type Vocabulary = tokenizer.Vocabulary

// Reserved token words shared by every vocabulary.
const (
	PadWord   = tokenizer.PadWord
	StartWord = tokenizer.StartWord
	EndWord   = tokenizer.EndWord
	UnkWord   = tokenizer.UnkWord
)

// Reserved token ids. <pad> is always id 0.
const (
	PadID   = tokenizer.PadID
	StartID = tokenizer.StartID
	EndID   = tokenizer.EndID
	UnkID   = tokenizer.UnkID
)

// NewVocabulary creates a vocabulary containing only the reserved tokens.
func NewVocabulary() *Vocabulary {
	return tokenizer.NewVocabulary()
}

// BuildVocabulary builds a vocabulary from a caption corpus.
//
// Captions are lowercased and split on whitespace. Words occurring fewer
// than minCount times are dropped (they will encode as <unk>).
func BuildVocabulary(captions []string, minCount int) *Vocabulary {
	return tokenizer.BuildVocabulary(captions, minCount)
}

// LoadVocabulary reads a vocabulary previously written by Vocabulary.Save.
func LoadVocabulary(path string) (*Vocabulary, error) {
	return tokenizer.LoadVocabulary(path)
}

// TikToken is a subword BPE tokenizer backed by pkoukk/tiktoken-go.
type TikToken = tokenizer.TikToken

// NewTikToken creates a new TikToken tokenizer with the specified encoding.
//
// Supported encodings: "cl100k_base", "p50k_base", "r50k_base".
func NewTikToken(encodingName string) (*TikToken, error) {
	return tokenizer.NewTikToken(encodingName)
}
