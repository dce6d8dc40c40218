package tokenizer

import (
	"fmt"

	"github.com/pkoukk/tiktoken-go"
)

const (
	// encodingCL100kBase is the cl100k_base BPE encoding.
	encodingCL100kBase = "cl100k_base"
	// encodingP50kBase is the p50k_base BPE encoding.
	encodingP50kBase = "p50k_base"
	// encodingR50kBase is the r50k_base BPE encoding.
	encodingR50kBase = "r50k_base"
)

// TikToken wraps the pkoukk/tiktoken-go library.
//
// It is the subword alternative to the word-level Vocabulary: captions
// tokenized this way never produce <unk>, at the cost of a much larger
// output projection in the decoder.
type TikToken struct {
	encoding *tiktoken.Tiktoken
	name     string
}

// NewTikToken creates a TikToken tokenizer with the specified encoding.
//
// Supported encodings: "cl100k_base", "p50k_base", "r50k_base".
func NewTikToken(encodingName string) (*TikToken, error) {
	encoding, err := tiktoken.GetEncoding(encodingName)
	if err != nil {
		return nil, fmt.Errorf("failed to load tiktoken encoding %q: %w", encodingName, err)
	}

	return &TikToken{
		encoding: encoding,
		name:     encodingName,
	}, nil
}

// Encode converts text to token IDs.
func (t *TikToken) Encode(text string) ([]int32, error) {
	tokens := t.encoding.Encode(text, nil, nil)

	result := make([]int32, len(tokens))
	for i, tok := range tokens {
		result[i] = int32(tok) //nolint:gosec // G115: Token ID fits in int32 - vocab size < 2^31.
	}

	return result, nil
}

// Decode converts token IDs back to text.
func (t *TikToken) Decode(tokens []int32) (string, error) {
	intTokens := make([]int, len(tokens))
	for i, tok := range tokens {
		intTokens[i] = int(tok)
	}

	return t.encoding.Decode(intTokens), nil
}

// VocabSize returns the total vocabulary size.
func (t *TikToken) VocabSize() int {
	// tiktoken-go doesn't expose vocab size directly; these are the
	// published sizes per encoding.
	switch t.name {
	case encodingCL100kBase:
		return 100256
	case encodingP50kBase, encodingR50kBase:
		return 50257
	default:
		return 100000
	}
}

// BosToken returns the beginning-of-sequence token ID.
// tiktoken encodings have no BOS token, returns -1.
func (t *TikToken) BosToken() int32 {
	return -1
}

// EosToken returns the end-of-sequence token ID (<|endoftext|>).
func (t *TikToken) EosToken() int32 {
	switch t.name {
	case encodingCL100kBase:
		return 100257
	case encodingP50kBase, encodingR50kBase:
		return 50256
	default:
		return -1
	}
}

// PadToken returns the padding token ID.
// tiktoken encodings have no padding token, returns -1.
func (t *TikToken) PadToken() int32 {
	return -1
}

// UnkToken returns the unknown token ID.
// BPE always produces a byte-level fallback, returns -1.
func (t *TikToken) UnkToken() int32 {
	return -1
}

// IsSpecialToken checks if a token ID is a special token.
func (t *TikToken) IsSpecialToken(token int32) bool {
	if token == t.EosToken() {
		return true
	}

	// cl100k_base reserves 100256-100276 for special tokens.
	if t.name == encodingCL100kBase && token >= 100256 && token <= 100276 {
		return true
	}

	return false
}

// Name returns the encoding name.
func (t *TikToken) Name() string {
	return t.name
}
