package nn

import (
	"fmt"

	"github.com/banet-ml/banet/internal/tensor"
)

// Embedding is a lookup table that maps token indices to dense vectors.
//
// The caption decoder uses an Embedding to turn word IDs into word vectors.
// The table is a learnable parameter; gradients scatter-add back into the
// rows that were looked up.
//
// Weight shape: [num_embed, embed_dim]
// Forward: indices [batch, seq] -> embeddings [batch, seq, embed_dim]
type Embedding[B tensor.Backend] struct {
	Weight   *Parameter[B] // Embedding table [NumEmbed, EmbedDim]
	NumEmbed int           // Number of embeddings (vocabulary size)
	EmbedDim int           // Embedding dimension (vector size)
}

// NewEmbedding creates an Embedding layer with weights drawn from N(0, 1).
//
// For custom initialization (pretrained vectors, uniform), build the weight
// tensor manually and pass it to NewEmbeddingWithWeight.
func NewEmbedding[B tensor.Backend](numEmbeddings, embeddingDim int, backend B) *Embedding[B] {
	if numEmbeddings <= 0 || embeddingDim <= 0 {
		panic(fmt.Sprintf("embedding: invalid dimensions num=%d, dim=%d", numEmbeddings, embeddingDim))
	}

	weight := Randn(tensor.Shape{numEmbeddings, embeddingDim}, backend)

	return &Embedding[B]{
		Weight:   NewParameter[B]("weight", weight),
		NumEmbed: numEmbeddings,
		EmbedDim: embeddingDim,
	}
}

// NewEmbeddingWithWeight creates an Embedding layer from a pre-initialized
// weight tensor of shape [numEmbeddings, embeddingDim].
func NewEmbeddingWithWeight[B tensor.Backend](weight *tensor.Tensor[float32, B]) *Embedding[B] {
	shape := weight.Shape()
	if len(shape) != 2 {
		panic(fmt.Sprintf("embedding: weight must be 2D, got shape %v", shape))
	}

	return &Embedding[B]{
		Weight:   NewParameter[B]("weight", weight),
		NumEmbed: shape[0],
		EmbedDim: shape[1],
	}
}

// Forward looks up the embedding vector for each index.
//
// Indices may have any shape; the output appends EmbedDim as the last
// dimension. Panics if an index falls outside [0, NumEmbed).
func (e *Embedding[B]) Forward(indices *tensor.Tensor[int32, B]) *tensor.Tensor[float32, B] {
	return e.Weight.Tensor().Embedding(indices)
}

// Parameters returns the embedding table.
func (e *Embedding[B]) Parameters() []*Parameter[B] {
	return []*Parameter[B]{e.Weight}
}

// StateDict returns a map of parameter names to raw tensors.
func (e *Embedding[B]) StateDict() map[string]*tensor.RawTensor {
	return map[string]*tensor.RawTensor{
		"weight": e.Weight.Tensor().Raw(),
	}
}

// LoadStateDict loads the embedding table from a state dictionary.
func (e *Embedding[B]) LoadStateDict(stateDict map[string]*tensor.RawTensor) error {
	weightShape := tensor.Shape{e.NumEmbed, e.EmbedDim}
	return LoadStateEntry(stateDict, "weight", weightShape, e.Weight.Tensor().Data())
}
