// Package tokenizer provides text tokenization for caption models.
//
// Two tokenization strategies are implemented:
//   - Vocabulary: word-level mapping built from a caption corpus, the
//     representation BANet decoders are trained against
//   - TikToken: subword BPE encodings (cl100k_base, p50k_base) for
//     experiments with open-vocabulary captions
//
// Example usage:
//
//	// Build a vocabulary from training captions
//	vocab := tokenizer.BuildVocabulary(captions, 3)
//
//	// Encode a caption
//	ids, err := vocab.Encode("a dog runs")
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	// Decode model output (stops at <end>)
//	text, err := vocab.Decode(ids)
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	// Persist alongside checkpoints
//	err = vocab.Save("vocab.json")
package tokenizer
