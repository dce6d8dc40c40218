// Package caption provides caption generation utilities for BANet.
//
// This package wraps the internal caption implementations and provides
// a clean public API for caption generation tasks.
//
// Components:
//   - Sampler: Sampling strategies (greedy, top-k, nucleus, temperature)
//   - Generator: High-level caption generation over a step decoder
//
// Example usage:
//
//	import (
//	    "github.com/banet-ml/banet/caption"
//	)
//
//	// Create generator with nucleus sampling
//	config := caption.SamplingConfig{
//	    Temperature: 0.7,
//	    TopP:        0.9,
//	    Seed:        42,
//	}
//	gen := caption.NewGenerator(model.Decoder(), config, backend)
//
//	// Generate captions for a batch of encoded videos
//	captions, err := gen.Captions(videoEncoded)
package caption

import (
	"github.com/banet-ml/banet/internal/caption"
	"github.com/banet-ml/banet/internal/tensor"
)

// Sampling Configuration

// SamplingConfig configures the sampling strategy for caption generation.
//
// Parameters:
//   - Temperature: Controls randomness (0 = greedy, 1 = normal, >1 = more random)
//   - TopK: Limits sampling to top K words (0 = disabled)
//   - TopP: Nucleus sampling, limits to words with cumulative prob < P (1.0 = disabled)
//   - Seed: Random seed for reproducibility (-1 = random)
type SamplingConfig = caption.SamplingConfig

// DefaultSamplingConfig returns sensible defaults for caption generation.
//
// Defaults:
//   - Temperature: 1.0
//   - TopK: 0 (disabled)
//   - TopP: 1.0 (disabled)
//   - Seed: -1 (random)
func DefaultSamplingConfig() SamplingConfig {
	return caption.DefaultSamplingConfig()
}

// GreedyConfig returns a config that reproduces argmax decoding.
func GreedyConfig() SamplingConfig {
	return caption.GreedyConfig()
}

// Sampler

// Sampler samples word ids from logits using configurable strategies.
type Sampler = caption.Sampler

// NewSampler creates a new sampler with the given configuration.
//
// Example:
//
//	config := caption.SamplingConfig{
//	    Temperature: 0.7,
//	    TopK:        50,
//	    Seed:        42,
//	}
//	sampler := caption.NewSampler(config)
//	word := sampler.Sample(logits)
func NewSampler(config SamplingConfig) *Sampler {
	return caption.NewSampler(config)
}

// Generator

// StepDecoder is the decoder interface the generator drives.
//
// One caption step consumes the projected video summary, the previous
// word ids, and the recurrent state, and returns vocabulary logits plus
// the next state. The banet.BANet model's decoder satisfies it.
type StepDecoder[B tensor.Backend] = caption.StepDecoder[B]

// Generator produces captions by sampling a decoder one word at a time.
type Generator[B tensor.Backend] = caption.Generator[B]

// NewGenerator creates a caption generator over a decoder.
//
// Example:
//
//	config := caption.DefaultSamplingConfig()
//	config.Temperature = 0.7
//
//	gen := caption.NewGenerator(model.Decoder(), config, backend)
//	captions, err := gen.Captions(videoEncoded)
func NewGenerator[B tensor.Backend](decoder StepDecoder[B], config SamplingConfig, backend B) *Generator[B] {
	return caption.NewGenerator(decoder, config, backend)
}
