// Package caption turns decoder steps into finished captions.
//
// The decoder's own Sample is pure greedy argmax. This package adds
// configurable sampling (temperature, top-k, nucleus) on top of the
// same step interface, for inference-time caption diversity.
package caption

import (
	"math"
	"math/rand"
	"sort"
)

// SamplingConfig configures the sampling strategy for caption generation.
type SamplingConfig struct {
	// Temperature controls randomness. 0 = greedy, 1 = normal, >1 = more random.
	Temperature float32

	// TopK limits sampling to top K words. 0 = disabled.
	TopK int

	// TopP (nucleus sampling) limits to words with cumulative prob < P. 1.0 = disabled.
	TopP float32

	// Seed for reproducibility. -1 = random.
	Seed int64
}

// DefaultSamplingConfig returns sensible defaults for caption generation.
func DefaultSamplingConfig() SamplingConfig {
	return SamplingConfig{
		Temperature: 1.0,
		TopK:        0,
		TopP:        1.0,
		Seed:        -1,
	}
}

// GreedyConfig returns a config that reproduces the decoder's argmax
// behavior.
func GreedyConfig() SamplingConfig {
	config := DefaultSamplingConfig()
	config.Temperature = 0
	return config
}

// Sampler samples word ids from logits using configurable strategies.
type Sampler struct {
	config SamplingConfig
	rng    *rand.Rand
}

// NewSampler creates a new sampler with the given configuration.
func NewSampler(config SamplingConfig) *Sampler {
	var rng *rand.Rand
	if config.Seed >= 0 {
		rng = rand.New(rand.NewSource(config.Seed)) //nolint:gosec // Intentional deterministic seed for reproducibility
	} else {
		rng = rand.New(rand.NewSource(rand.Int63())) //nolint:gosec // User requested random seed
	}

	return &Sampler{
		config: config,
		rng:    rng,
	}
}

// Sample returns the next word ID from one row of logits.
//
// The sampling process:
//  1. Apply temperature scaling (or argmax if temperature=0)
//  2. Apply Top-K filtering
//  3. Apply Top-P (nucleus) filtering
//  4. Sample from distribution
func (s *Sampler) Sample(logits []float32) int32 {
	// Make a copy to avoid modifying original
	logits = append([]float32{}, logits...)

	// Greedy decoding (temperature = 0)
	if s.config.Temperature == 0 {
		return s.argmax(logits)
	}

	// 1. Apply temperature
	if s.config.Temperature != 1.0 {
		for i := range logits {
			logits[i] /= s.config.Temperature
		}
	}

	// 2. Apply Top-K filter
	if s.config.TopK > 0 && s.config.TopK < len(logits) {
		logits = s.topKFilter(logits)
	}

	// 3. Apply Top-P (nucleus) filter
	if s.config.TopP < 1.0 && s.config.TopP > 0 {
		logits = s.topPFilter(logits)
	}

	// Convert to probabilities
	probs := softmax(logits)

	// Sample from distribution
	return s.multinomial(probs)
}

// argmax returns the index of the maximum value.
func (s *Sampler) argmax(logits []float32) int32 {
	maxIdx := 0
	maxVal := logits[0]
	for i, v := range logits[1:] {
		if v > maxVal {
			maxVal = v
			maxIdx = i + 1
		}
	}
	return int32(maxIdx) //nolint:gosec // vocab size is bounded by model architecture
}

// topKFilter keeps only top K logits, sets rest to -inf.
func (s *Sampler) topKFilter(logits []float32) []float32 {
	k := s.config.TopK
	if k >= len(logits) {
		return logits
	}

	// Find k-th largest value
	sorted := append([]float32{}, logits...)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i] > sorted[j] })
	threshold := sorted[k-1]

	// Filter
	for i := range logits {
		if logits[i] < threshold {
			logits[i] = float32(math.Inf(-1))
		}
	}

	return logits
}

// topPFilter implements nucleus sampling.
func (s *Sampler) topPFilter(logits []float32) []float32 {
	p := s.config.TopP

	// Get probabilities
	probs := softmax(logits)

	// Sort by probability (descending)
	type indexedProb struct {
		idx  int
		prob float32
	}
	indexed := make([]indexedProb, len(probs))
	for i, prob := range probs {
		indexed[i] = indexedProb{i, prob}
	}
	sort.Slice(indexed, func(i, j int) bool { return indexed[i].prob > indexed[j].prob })

	// Find cutoff
	cumSum := float32(0)
	cutoffIdx := len(indexed) - 1
	for i, ip := range indexed {
		cumSum += ip.prob
		if cumSum > p {
			cutoffIdx = i
			break
		}
	}

	// Always keep at least one word
	if cutoffIdx == 0 {
		cutoffIdx = 1
	}

	// Create mask of words to keep
	keep := make(map[int]bool)
	for i := 0; i <= cutoffIdx; i++ {
		keep[indexed[i].idx] = true
	}

	// Filter logits
	for i := range logits {
		if !keep[i] {
			logits[i] = float32(math.Inf(-1))
		}
	}

	return logits
}

// multinomial samples from a categorical distribution.
func (s *Sampler) multinomial(probs []float32) int32 {
	r := s.rng.Float32()

	cumSum := float32(0)
	for i, p := range probs {
		cumSum += p
		if r < cumSum {
			return int32(i) //nolint:gosec // vocab size is bounded by model architecture
		}
	}

	// Return last word if rounding errors
	return int32(len(probs) - 1) //nolint:gosec // vocab size is bounded by model architecture
}

// softmax converts logits to probabilities.
func softmax(logits []float32) []float32 {
	// Find max for numerical stability
	maxVal := logits[0]
	for _, v := range logits[1:] {
		if v > maxVal {
			maxVal = v
		}
	}

	// Compute exp and sum
	probs := make([]float32, len(logits))
	sum := float32(0)
	for i, v := range logits {
		if math.IsInf(float64(v), -1) {
			probs[i] = 0
		} else {
			probs[i] = float32(math.Exp(float64(v - maxVal)))
			sum += probs[i]
		}
	}

	// Normalize
	if sum > 0 {
		for i := range probs {
			probs[i] /= sum
		}
	}

	return probs
}
