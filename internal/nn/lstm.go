package nn

import (
	"fmt"

	"github.com/banet-ml/banet/internal/tensor"
)

// LSTMCell is a single-step long short-term memory cell.
//
// The four gates are computed in one pass through packed weight matrices:
//
//	gates = x @ W_ih.T + b_ih + h @ W_hh.T + b_hh   // [batch, 4*hidden]
//	i, f, g, o = chunk(gates, 4)
//	c' = sigmoid(f) * c + sigmoid(i) * tanh(g)
//	h' = sigmoid(o) * tanh(c')
//
// Weight shapes follow the packed layout with gate order i, f, g, o:
//
//	W_ih: [4*hidden, input]
//	W_hh: [4*hidden, hidden]
//	b_ih, b_hh: [4*hidden]
//
// All weights and biases are initialized from U(-k, k), k = 1/sqrt(hidden).
type LSTMCell[B tensor.Backend] struct {
	inputSize  int
	hiddenSize int
	useBias    bool

	weightIH *Parameter[B] // [4*hidden, input]
	weightHH *Parameter[B] // [4*hidden, hidden]
	biasIH   *Parameter[B] // [4*hidden] or nil
	biasHH   *Parameter[B] // [4*hidden] or nil

	backend B
}

// NewLSTMCell creates an LSTM cell with bias terms.
func NewLSTMCell[B tensor.Backend](inputSize, hiddenSize int, backend B) *LSTMCell[B] {
	return newLSTMCell(inputSize, hiddenSize, true, backend)
}

// NewLSTMCellNoBias creates an LSTM cell without bias terms.
//
// The boundary-aware encoder uses a bias-free cell for its upper layer so
// a segment reset leaves no residual offset in the gates.
func NewLSTMCellNoBias[B tensor.Backend](inputSize, hiddenSize int, backend B) *LSTMCell[B] {
	return newLSTMCell(inputSize, hiddenSize, false, backend)
}

func newLSTMCell[B tensor.Backend](inputSize, hiddenSize int, useBias bool, backend B) *LSTMCell[B] {
	if inputSize <= 0 || hiddenSize <= 0 {
		panic(fmt.Sprintf("lstm: invalid dimensions input=%d, hidden=%d", inputSize, hiddenSize))
	}

	cell := &LSTMCell[B]{
		inputSize:  inputSize,
		hiddenSize: hiddenSize,
		useBias:    useBias,
		weightIH:   NewParameter("weight_ih", UniformFanIn(hiddenSize, tensor.Shape{4 * hiddenSize, inputSize}, backend)),
		weightHH:   NewParameter("weight_hh", UniformFanIn(hiddenSize, tensor.Shape{4 * hiddenSize, hiddenSize}, backend)),
		backend:    backend,
	}
	if useBias {
		cell.biasIH = NewParameter("bias_ih", UniformFanIn(hiddenSize, tensor.Shape{4 * hiddenSize}, backend))
		cell.biasHH = NewParameter("bias_hh", UniformFanIn(hiddenSize, tensor.Shape{4 * hiddenSize}, backend))
	}
	return cell
}

// Forward advances the cell by one step.
//
// Shapes:
//   - input:  [batch, input_size]
//   - hidden: [batch, hidden_size]
//   - cell:   [batch, hidden_size]
//
// Returns the next hidden and cell states, both [batch, hidden_size].
func (c *LSTMCell[B]) Forward(input, hidden, cell *tensor.Tensor[float32, B]) (*tensor.Tensor[float32, B], *tensor.Tensor[float32, B]) {
	c.validateStep(input, hidden, cell)

	gates := input.MatMul(c.weightIH.Tensor().T()).Add(hidden.MatMul(c.weightHH.Tensor().T()))
	if c.useBias {
		gates = gates.Add(c.biasIH.Tensor().Reshape(1, 4*c.hiddenSize))
		gates = gates.Add(c.biasHH.Tensor().Reshape(1, 4*c.hiddenSize))
	}

	chunks := gates.Chunk(4, 1)
	inputGate := sigmoidTensor(chunks[0])
	forgetGate := sigmoidTensor(chunks[1])
	cellGate := tanhTensor(chunks[2])
	outputGate := sigmoidTensor(chunks[3])

	cellNext := forgetGate.Mul(cell).Add(inputGate.Mul(cellGate))
	hiddenNext := outputGate.Mul(tanhTensor(cellNext))

	return hiddenNext, cellNext
}

func (c *LSTMCell[B]) validateStep(input, hidden, cell *tensor.Tensor[float32, B]) {
	inShape := input.Shape()
	if len(inShape) != 2 || inShape[1] != c.inputSize {
		panic(fmt.Sprintf("lstm: expected input [batch, %d], got %v", c.inputSize, inShape))
	}
	hShape := hidden.Shape()
	if len(hShape) != 2 || hShape[0] != inShape[0] || hShape[1] != c.hiddenSize {
		panic(fmt.Sprintf("lstm: expected hidden [%d, %d], got %v", inShape[0], c.hiddenSize, hShape))
	}
	cShape := cell.Shape()
	if len(cShape) != 2 || cShape[0] != inShape[0] || cShape[1] != c.hiddenSize {
		panic(fmt.Sprintf("lstm: expected cell [%d, %d], got %v", inShape[0], c.hiddenSize, cShape))
	}
}

// InitState returns zero-filled hidden and cell states for a batch.
func (c *LSTMCell[B]) InitState(batchSize int) (*tensor.Tensor[float32, B], *tensor.Tensor[float32, B]) {
	h := tensor.Zeros[float32](tensor.Shape{batchSize, c.hiddenSize}, c.backend)
	cs := tensor.Zeros[float32](tensor.Shape{batchSize, c.hiddenSize}, c.backend)
	return h, cs
}

// Parameters returns the packed weights and, when present, the biases.
func (c *LSTMCell[B]) Parameters() []*Parameter[B] {
	if c.useBias {
		return []*Parameter[B]{c.weightIH, c.weightHH, c.biasIH, c.biasHH}
	}
	return []*Parameter[B]{c.weightIH, c.weightHH}
}

// InputSize returns the input feature dimension.
func (c *LSTMCell[B]) InputSize() int {
	return c.inputSize
}

// HiddenSize returns the hidden state dimension.
func (c *LSTMCell[B]) HiddenSize() int {
	return c.hiddenSize
}

// WeightIH returns the packed input-to-hidden weight parameter.
func (c *LSTMCell[B]) WeightIH() *Parameter[B] {
	return c.weightIH
}

// WeightHH returns the packed hidden-to-hidden weight parameter.
func (c *LSTMCell[B]) WeightHH() *Parameter[B] {
	return c.weightHH
}

// BiasIH returns the input-to-hidden bias parameter, or nil.
func (c *LSTMCell[B]) BiasIH() *Parameter[B] {
	return c.biasIH
}

// BiasHH returns the hidden-to-hidden bias parameter, or nil.
func (c *LSTMCell[B]) BiasHH() *Parameter[B] {
	return c.biasHH
}

// StateDict returns a map of parameter names to raw tensors.
func (c *LSTMCell[B]) StateDict() map[string]*tensor.RawTensor {
	stateDict := make(map[string]*tensor.RawTensor)
	stateDict["weight_ih"] = c.weightIH.Tensor().Raw()
	stateDict["weight_hh"] = c.weightHH.Tensor().Raw()
	if c.useBias {
		stateDict["bias_ih"] = c.biasIH.Tensor().Raw()
		stateDict["bias_hh"] = c.biasHH.Tensor().Raw()
	}
	return stateDict
}

// LoadStateDict loads parameters from a state dictionary.
func (c *LSTMCell[B]) LoadStateDict(stateDict map[string]*tensor.RawTensor) error {
	ihShape := tensor.Shape{4 * c.hiddenSize, c.inputSize}
	if err := LoadStateEntry(stateDict, "weight_ih", ihShape, c.weightIH.Tensor().Data()); err != nil {
		return err
	}
	hhShape := tensor.Shape{4 * c.hiddenSize, c.hiddenSize}
	if err := LoadStateEntry(stateDict, "weight_hh", hhShape, c.weightHH.Tensor().Data()); err != nil {
		return err
	}
	if c.useBias {
		biasShape := tensor.Shape{4 * c.hiddenSize}
		if err := LoadStateEntry(stateDict, "bias_ih", biasShape, c.biasIH.Tensor().Data()); err != nil {
			return err
		}
		if err := LoadStateEntry(stateDict, "bias_hh", biasShape, c.biasHH.Tensor().Data()); err != nil {
			return err
		}
	}
	return nil
}
