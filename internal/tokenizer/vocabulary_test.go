package tokenizer

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestVocabulary_ReservedTokens(t *testing.T) {
	v := NewVocabulary()

	assert.Equal(t, 4, v.VocabSize())
	assert.Equal(t, PadID, v.Lookup(PadWord))
	assert.Equal(t, StartID, v.Lookup(StartWord))
	assert.Equal(t, EndID, v.Lookup(EndWord))
	assert.Equal(t, UnkID, v.Lookup(UnkWord))

	assert.Equal(t, int32(0), v.PadToken())
	assert.Equal(t, StartID, v.BosToken())
	assert.Equal(t, EndID, v.EosToken())
	assert.Equal(t, UnkID, v.UnkToken())

	for id := int32(0); id < 4; id++ {
		assert.True(t, v.IsSpecialToken(id), "id %d should be special", id)
	}
	assert.False(t, v.IsSpecialToken(4))
	assert.False(t, v.IsSpecialToken(-1))
}

func TestVocabulary_AddWord(t *testing.T) {
	v := NewVocabulary()

	dogID := v.AddWord("dog")
	assert.Equal(t, int32(4), dogID)
	assert.Equal(t, 5, v.VocabSize())

	catID := v.AddWord("cat")
	assert.Equal(t, int32(5), catID)

	// Re-adding returns the existing id.
	assert.Equal(t, dogID, v.AddWord("dog"))
	assert.Equal(t, 6, v.VocabSize())
}

func TestVocabulary_Lookup(t *testing.T) {
	v := NewVocabulary()
	id := v.AddWord("dog")

	assert.Equal(t, id, v.Lookup("dog"))
	assert.Equal(t, UnkID, v.Lookup("zebra"))
}

func TestVocabulary_Word(t *testing.T) {
	v := NewVocabulary()
	id := v.AddWord("dog")

	word, ok := v.Word(id)
	require.True(t, ok)
	assert.Equal(t, "dog", word)

	_, ok = v.Word(int32(v.VocabSize()))
	assert.False(t, ok)
	_, ok = v.Word(-1)
	assert.False(t, ok)
}

func TestVocabulary_EncodeDecode(t *testing.T) {
	v := NewVocabulary()
	for _, word := range []string{"a", "dog", "runs"} {
		v.AddWord(word)
	}

	ids, err := v.Encode("A dog RUNS")
	require.NoError(t, err)
	assert.Equal(t, []int32{4, 5, 6}, ids)

	text, err := v.Decode(ids)
	require.NoError(t, err)
	assert.Equal(t, "a dog runs", text)
}

func TestVocabulary_DecodeStopsAtEnd(t *testing.T) {
	v := NewVocabulary()
	// Filler words position "a" at 5, "dog" at 7, "run" at 9.
	for _, word := range []string{"the", "a", "cat", "dog", "walks", "run"} {
		v.AddWord(word)
	}
	require.Equal(t, int32(5), v.Lookup("a"))
	require.Equal(t, int32(7), v.Lookup("dog"))
	require.Equal(t, int32(9), v.Lookup("run"))

	text, err := v.Decode([]int32{5, 7, EndID, 9})
	require.NoError(t, err)
	assert.Equal(t, "a dog", text)
}

func TestVocabulary_DecodeInvalidID(t *testing.T) {
	v := NewVocabulary()

	_, err := v.Decode([]int32{99})
	assert.Error(t, err)
}

func TestVocabulary_EmptyCaption(t *testing.T) {
	v := NewVocabulary()

	ids, err := v.Encode("")
	require.NoError(t, err)
	assert.Empty(t, ids)

	text, err := v.Decode([]int32{})
	require.NoError(t, err)
	assert.Equal(t, "", text)
}

func TestBuildVocabulary(t *testing.T) {
	captions := []string{
		"a dog runs fast",
		"a dog sleeps",
		"a cat sleeps",
	}

	v := BuildVocabulary(captions, 2)

	// "a" (3x), "dog" (2x), "sleeps" (2x) survive the threshold.
	assert.Equal(t, int32(4), v.Lookup("a"))
	assert.Equal(t, int32(5), v.Lookup("dog"))
	assert.Equal(t, int32(6), v.Lookup("sleeps"))
	assert.Equal(t, 7, v.VocabSize())

	// "runs", "fast", "cat" occur once and fall back to <unk>.
	assert.Equal(t, UnkID, v.Lookup("runs"))
	assert.Equal(t, UnkID, v.Lookup("fast"))
	assert.Equal(t, UnkID, v.Lookup("cat"))
}

func TestBuildVocabulary_Deterministic(t *testing.T) {
	captions := []string{
		"a man is playing a guitar",
		"a woman is slicing an onion",
	}

	first := BuildVocabulary(captions, 1)
	second := BuildVocabulary(captions, 1)

	require.Equal(t, first.VocabSize(), second.VocabSize())
	for _, caption := range captions {
		for _, word := range splitWords(caption) {
			assert.Equal(t, first.Lookup(word), second.Lookup(word), "word %q", word)
		}
	}
}

func TestVocabulary_SaveLoad(t *testing.T) {
	v := BuildVocabulary([]string{
		"a dog runs",
		"a cat sleeps",
	}, 1)
	path := filepath.Join(t.TempDir(), "vocab.json")

	require.NoError(t, v.Save(path))

	loaded, err := LoadVocabulary(path)
	require.NoError(t, err)

	assert.Equal(t, v.VocabSize(), loaded.VocabSize())
	for _, word := range []string{"a", "dog", "runs", "cat", "sleeps"} {
		assert.Equal(t, v.Lookup(word), loaded.Lookup(word), "word %q", word)
	}

	ids, err := loaded.Encode("a cat runs")
	require.NoError(t, err)
	text, err := loaded.Decode(ids)
	require.NoError(t, err)
	assert.Equal(t, "a cat runs", text)
}

func TestLoadVocabulary_InvalidFiles(t *testing.T) {
	dir := t.TempDir()

	t.Run("missing file", func(t *testing.T) {
		_, err := LoadVocabulary(filepath.Join(dir, "does_not_exist.json"))
		assert.Error(t, err)
	})

	t.Run("corrupt json", func(t *testing.T) {
		path := filepath.Join(dir, "corrupt.json")
		require.NoError(t, os.WriteFile(path, []byte("{not json"), 0o600))
		_, err := LoadVocabulary(path)
		assert.Error(t, err)
	})

	t.Run("missing reserved tokens", func(t *testing.T) {
		path := filepath.Join(dir, "no_reserved.json")
		require.NoError(t, os.WriteFile(path, []byte(`{"words":["dog","cat"]}`), 0o600))
		_, err := LoadVocabulary(path)
		assert.Error(t, err)
	})

	t.Run("wrong reserved order", func(t *testing.T) {
		path := filepath.Join(dir, "wrong_order.json")
		content := `{"words":["<start>","<pad>","<end>","<unk>","dog"]}`
		require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
		_, err := LoadVocabulary(path)
		assert.Error(t, err)
	})

	t.Run("duplicate word", func(t *testing.T) {
		path := filepath.Join(dir, "duplicate.json")
		content := `{"words":["<pad>","<start>","<end>","<unk>","dog","dog"]}`
		require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
		_, err := LoadVocabulary(path)
		assert.Error(t, err)
	})
}
