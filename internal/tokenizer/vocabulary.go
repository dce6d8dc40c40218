package tokenizer

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"
)

// Reserved token words. Every vocabulary starts with these four, in this
// order, so <pad> is always id 0.
const (
	PadWord   = "<pad>"
	StartWord = "<start>"
	EndWord   = "<end>"
	UnkWord   = "<unk>"
)

// Reserved token ids.
const (
	PadID   int32 = 0
	StartID int32 = 1
	EndID   int32 = 2
	UnkID   int32 = 3

	numReserved = 4
)

// Vocabulary is a word-level token mapping for caption text.
//
// Words map to dense ids starting after the four reserved tokens. Unknown
// words resolve to <unk>. The decoder feeds <start> as its first input and
// stops sampling at <end>; padded caption positions carry <pad>.
type Vocabulary struct {
	word2idx map[string]int32
	words    []string
}

// NewVocabulary creates a vocabulary containing only the reserved tokens.
func NewVocabulary() *Vocabulary {
	v := &Vocabulary{
		word2idx: make(map[string]int32, numReserved),
	}
	v.AddWord(PadWord)
	v.AddWord(StartWord)
	v.AddWord(EndWord)
	v.AddWord(UnkWord)
	return v
}

// BuildVocabulary builds a vocabulary from a caption corpus.
//
// Captions are lowercased and split on whitespace. Words occurring fewer
// than minCount times are dropped (they will encode as <unk>). Ids are
// assigned in first-occurrence order, so the same corpus always produces
// the same vocabulary.
func BuildVocabulary(captions []string, minCount int) *Vocabulary {
	counts := make(map[string]int)
	for _, caption := range captions {
		for _, word := range splitWords(caption) {
			counts[word]++
		}
	}

	v := NewVocabulary()
	for _, caption := range captions {
		for _, word := range splitWords(caption) {
			if counts[word] >= minCount {
				v.AddWord(word)
			}
		}
	}
	return v
}

// splitWords normalizes a caption into vocabulary words.
func splitWords(caption string) []string {
	return strings.Fields(strings.ToLower(caption))
}

// AddWord adds a word and returns its id. Adding an existing word returns
// the id it already has.
func (v *Vocabulary) AddWord(word string) int32 {
	if id, ok := v.word2idx[word]; ok {
		return id
	}
	id := int32(len(v.words)) //nolint:gosec // G115: caption vocabularies stay far below 2^31 words.
	v.word2idx[word] = id
	v.words = append(v.words, word)
	return id
}

// Lookup returns the id for a word, or the <unk> id for words not in the
// vocabulary.
func (v *Vocabulary) Lookup(word string) int32 {
	if id, ok := v.word2idx[word]; ok {
		return id
	}
	return UnkID
}

// Word returns the word for an id. The second return is false for ids
// outside the vocabulary.
func (v *Vocabulary) Word(id int32) (string, bool) {
	if id < 0 || int(id) >= len(v.words) {
		return "", false
	}
	return v.words[id], true
}

// Encode converts caption text to token IDs.
//
// Text is lowercased and split on whitespace; unknown words become <unk>.
// No <start> or <end> markers are added.
func (v *Vocabulary) Encode(text string) ([]int32, error) {
	words := splitWords(text)
	ids := make([]int32, len(words))
	for i, word := range words {
		ids[i] = v.Lookup(word)
	}
	return ids, nil
}

// Decode converts token IDs back to caption text.
//
// Decoding stops at the first <end> token; the words before it are joined
// with single spaces.
func (v *Vocabulary) Decode(tokens []int32) (string, error) {
	words := make([]string, 0, len(tokens))
	for _, id := range tokens {
		if id == EndID {
			break
		}
		word, ok := v.Word(id)
		if !ok {
			return "", fmt.Errorf("token id %d outside vocabulary of size %d", id, len(v.words))
		}
		words = append(words, word)
	}
	return strings.Join(words, " "), nil
}

// VocabSize returns the total vocabulary size including reserved tokens.
func (v *Vocabulary) VocabSize() int {
	return len(v.words)
}

// BosToken returns the <start> token ID.
func (v *Vocabulary) BosToken() int32 {
	return StartID
}

// EosToken returns the <end> token ID.
func (v *Vocabulary) EosToken() int32 {
	return EndID
}

// PadToken returns the <pad> token ID.
func (v *Vocabulary) PadToken() int32 {
	return PadID
}

// UnkToken returns the <unk> token ID.
func (v *Vocabulary) UnkToken() int32 {
	return UnkID
}

// IsSpecialToken checks if a token ID is one of the reserved tokens.
func (v *Vocabulary) IsSpecialToken(token int32) bool {
	return token >= 0 && token < numReserved
}

// vocabularyFile is the JSON layout for saved vocabularies. The word list
// is the whole state; ids are implied by position.
type vocabularyFile struct {
	Words []string `json:"words"`
}

// Save writes the vocabulary as JSON.
func (v *Vocabulary) Save(path string) (err error) {
	file, err := os.Create(path) //nolint:gosec // G304: the caller chooses where the vocabulary lives.
	if err != nil {
		return fmt.Errorf("failed to create vocabulary file: %w", err)
	}
	defer func() {
		if closeErr := file.Close(); closeErr != nil && err == nil {
			err = closeErr
		}
	}()

	if err := json.NewEncoder(file).Encode(vocabularyFile{Words: v.words}); err != nil {
		return fmt.Errorf("failed to encode vocabulary: %w", err)
	}
	return nil
}

// LoadVocabulary reads a vocabulary saved with Save.
func LoadVocabulary(path string) (*Vocabulary, error) {
	data, err := os.ReadFile(path) //nolint:gosec // G304: the caller chooses where the vocabulary lives.
	if err != nil {
		return nil, fmt.Errorf("failed to read vocabulary file: %w", err)
	}

	var saved vocabularyFile
	if err := json.Unmarshal(data, &saved); err != nil {
		return nil, fmt.Errorf("failed to parse vocabulary file: %w", err)
	}

	if len(saved.Words) < numReserved {
		return nil, fmt.Errorf("vocabulary has %d words, need at least the %d reserved tokens",
			len(saved.Words), numReserved)
	}
	for id, want := range []string{PadWord, StartWord, EndWord, UnkWord} {
		if saved.Words[id] != want {
			return nil, fmt.Errorf("reserved token mismatch at id %d: expected %s, got %s",
				id, want, saved.Words[id])
		}
	}

	v := &Vocabulary{
		word2idx: make(map[string]int32, len(saved.Words)),
		words:    saved.Words,
	}
	for id, word := range saved.Words {
		if _, ok := v.word2idx[word]; ok {
			return nil, fmt.Errorf("duplicate word %q in vocabulary file", word)
		}
		v.word2idx[word] = int32(id) //nolint:gosec // G115: caption vocabularies stay far below 2^31 words.
	}
	return v, nil
}
