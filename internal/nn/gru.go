package nn

import (
	"fmt"

	"github.com/banet-ml/banet/internal/tensor"
)

// GRUCell is a single-step gated recurrent unit cell.
//
// The three gates are computed from packed projections with gate order
// r, z, n:
//
//	xg = x @ W_ih.T + b_ih   // [batch, 3*hidden]
//	hg = h @ W_hh.T + b_hh   // [batch, 3*hidden]
//	r = sigmoid(xg_r + hg_r)
//	z = sigmoid(xg_z + hg_z)
//	n = tanh(xg_n + r * hg_n)
//	h' = (1 - z) * n + z * h
//
// The reset gate r scales the hidden projection of the candidate,
// including its bias, before the tanh. Weight shapes:
//
//	W_ih: [3*hidden, input]
//	W_hh: [3*hidden, hidden]
//	b_ih, b_hh: [3*hidden]
//
// All weights and biases are initialized from U(-k, k), k = 1/sqrt(hidden).
type GRUCell[B tensor.Backend] struct {
	inputSize  int
	hiddenSize int

	weightIH *Parameter[B] // [3*hidden, input]
	weightHH *Parameter[B] // [3*hidden, hidden]
	biasIH   *Parameter[B] // [3*hidden]
	biasHH   *Parameter[B] // [3*hidden]

	backend B
}

// NewGRUCell creates a GRU cell.
func NewGRUCell[B tensor.Backend](inputSize, hiddenSize int, backend B) *GRUCell[B] {
	if inputSize <= 0 || hiddenSize <= 0 {
		panic(fmt.Sprintf("gru: invalid dimensions input=%d, hidden=%d", inputSize, hiddenSize))
	}

	return &GRUCell[B]{
		inputSize:  inputSize,
		hiddenSize: hiddenSize,
		weightIH:   NewParameter("weight_ih", UniformFanIn(hiddenSize, tensor.Shape{3 * hiddenSize, inputSize}, backend)),
		weightHH:   NewParameter("weight_hh", UniformFanIn(hiddenSize, tensor.Shape{3 * hiddenSize, hiddenSize}, backend)),
		biasIH:     NewParameter("bias_ih", UniformFanIn(hiddenSize, tensor.Shape{3 * hiddenSize}, backend)),
		biasHH:     NewParameter("bias_hh", UniformFanIn(hiddenSize, tensor.Shape{3 * hiddenSize}, backend)),
		backend:    backend,
	}
}

// Forward advances the cell by one step.
//
// Shapes:
//   - input:  [batch, input_size]
//   - hidden: [batch, hidden_size]
//
// Returns the next hidden state [batch, hidden_size].
func (c *GRUCell[B]) Forward(input, hidden *tensor.Tensor[float32, B]) *tensor.Tensor[float32, B] {
	inShape := input.Shape()
	if len(inShape) != 2 || inShape[1] != c.inputSize {
		panic(fmt.Sprintf("gru: expected input [batch, %d], got %v", c.inputSize, inShape))
	}
	hShape := hidden.Shape()
	if len(hShape) != 2 || hShape[0] != inShape[0] || hShape[1] != c.hiddenSize {
		panic(fmt.Sprintf("gru: expected hidden [%d, %d], got %v", inShape[0], c.hiddenSize, hShape))
	}

	xGates := input.MatMul(c.weightIH.Tensor().T()).Add(c.biasIH.Tensor().Reshape(1, 3*c.hiddenSize))
	hGates := hidden.MatMul(c.weightHH.Tensor().T()).Add(c.biasHH.Tensor().Reshape(1, 3*c.hiddenSize))

	xChunks := xGates.Chunk(3, 1)
	hChunks := hGates.Chunk(3, 1)

	resetGate := sigmoidTensor(xChunks[0].Add(hChunks[0]))
	updateGate := sigmoidTensor(xChunks[1].Add(hChunks[1]))
	candidate := tanhTensor(xChunks[2].Add(resetGate.Mul(hChunks[2])))

	// h' = (1 - z) * n + z * h
	oneMinusUpdate := updateGate.Neg().AddScalar(1.0)
	return oneMinusUpdate.Mul(candidate).Add(updateGate.Mul(hidden))
}

// InitState returns a zero-filled hidden state for a batch.
func (c *GRUCell[B]) InitState(batchSize int) *tensor.Tensor[float32, B] {
	return tensor.Zeros[float32](tensor.Shape{batchSize, c.hiddenSize}, c.backend)
}

// Parameters returns the packed weights and biases.
func (c *GRUCell[B]) Parameters() []*Parameter[B] {
	return []*Parameter[B]{c.weightIH, c.weightHH, c.biasIH, c.biasHH}
}

// InputSize returns the input feature dimension.
func (c *GRUCell[B]) InputSize() int {
	return c.inputSize
}

// HiddenSize returns the hidden state dimension.
func (c *GRUCell[B]) HiddenSize() int {
	return c.hiddenSize
}

// WeightIH returns the packed input-to-hidden weight parameter.
func (c *GRUCell[B]) WeightIH() *Parameter[B] {
	return c.weightIH
}

// WeightHH returns the packed hidden-to-hidden weight parameter.
func (c *GRUCell[B]) WeightHH() *Parameter[B] {
	return c.weightHH
}

// BiasIH returns the input-to-hidden bias parameter.
func (c *GRUCell[B]) BiasIH() *Parameter[B] {
	return c.biasIH
}

// BiasHH returns the hidden-to-hidden bias parameter.
func (c *GRUCell[B]) BiasHH() *Parameter[B] {
	return c.biasHH
}

// StateDict returns a map of parameter names to raw tensors.
func (c *GRUCell[B]) StateDict() map[string]*tensor.RawTensor {
	return map[string]*tensor.RawTensor{
		"weight_ih": c.weightIH.Tensor().Raw(),
		"weight_hh": c.weightHH.Tensor().Raw(),
		"bias_ih":   c.biasIH.Tensor().Raw(),
		"bias_hh":   c.biasHH.Tensor().Raw(),
	}
}

// LoadStateDict loads parameters from a state dictionary.
func (c *GRUCell[B]) LoadStateDict(stateDict map[string]*tensor.RawTensor) error {
	ihShape := tensor.Shape{3 * c.hiddenSize, c.inputSize}
	if err := LoadStateEntry(stateDict, "weight_ih", ihShape, c.weightIH.Tensor().Data()); err != nil {
		return err
	}
	hhShape := tensor.Shape{3 * c.hiddenSize, c.hiddenSize}
	if err := LoadStateEntry(stateDict, "weight_hh", hhShape, c.weightHH.Tensor().Data()); err != nil {
		return err
	}
	biasShape := tensor.Shape{3 * c.hiddenSize}
	if err := LoadStateEntry(stateDict, "bias_ih", biasShape, c.biasIH.Tensor().Data()); err != nil {
		return err
	}
	return LoadStateEntry(stateDict, "bias_hh", biasShape, c.biasHH.Tensor().Data())
}
