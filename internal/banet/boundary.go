package banet

import (
	"fmt"
	"math/rand"

	"github.com/banet-ml/banet/internal/nn"
	"github.com/banet-ml/banet/internal/tensor"
)

// BinaryGateBackend is implemented by backends that provide hard
// thresholding with a straight-through gradient.
type BinaryGateBackend interface {
	BinaryGate(z *tensor.RawTensor, threshold float64) *tensor.RawTensor
}

// BoundaryDetector scores each frame for segment-boundary likelihood and
// binarizes the score.
//
// The affinity is a learned function of the frame embedding x and the
// low-level hidden state h:
//
//	z = sigmoid(vs · (Wsi·x + Wsh·h + bias))
//
// followed by a hard threshold. During training the threshold is drawn
// uniformly from [0, 1) on every call; at inference it is fixed at 0.5.
// Each output element is exactly 0 or 1, and the backward pass passes
// gradients through the threshold unchanged (straight-through estimator).
type BoundaryDetector[B tensor.Backend] struct {
	iFeatures int
	hFeatures int
	sFeatures int

	wsi  *nn.Parameter[B] // [s_features, i_features]
	wsh  *nn.Parameter[B] // [s_features, h_features]
	bias *nn.Parameter[B] // [s_features]
	vs   *nn.Parameter[B] // [1, s_features]

	training bool
}

// NewBoundaryDetector creates a boundary detector.
//
// All four parameters are initialized from U(-k, k) with k = 1/sqrt(iFeatures).
// The module starts in training mode (stochastic thresholds).
func NewBoundaryDetector[B tensor.Backend](iFeatures, hFeatures, sFeatures int, backend B) *BoundaryDetector[B] {
	if iFeatures <= 0 || hFeatures <= 0 || sFeatures <= 0 {
		panic(fmt.Sprintf("boundary: invalid dimensions i=%d, h=%d, s=%d", iFeatures, hFeatures, sFeatures))
	}

	return &BoundaryDetector[B]{
		iFeatures: iFeatures,
		hFeatures: hFeatures,
		sFeatures: sFeatures,
		wsi:       nn.NewParameter("Wsi", nn.UniformFanIn(iFeatures, tensor.Shape{sFeatures, iFeatures}, backend)),
		wsh:       nn.NewParameter("Wsh", nn.UniformFanIn(iFeatures, tensor.Shape{sFeatures, hFeatures}, backend)),
		bias:      nn.NewParameter("bias", nn.UniformFanIn(iFeatures, tensor.Shape{sFeatures}, backend)),
		vs:        nn.NewParameter("vs", nn.UniformFanIn(iFeatures, tensor.Shape{1, sFeatures}, backend)),
		training:  true,
	}
}

// Forward computes the binary boundary gate for a batch.
//
// Shapes:
//   - x: [batch, i_features] frame embeddings
//   - h: [batch, h_features] low-level hidden state
//
// Returns gate values of shape [batch, 1], each exactly 0 or 1.
func (d *BoundaryDetector[B]) Forward(x, h *tensor.Tensor[float32, B]) *tensor.Tensor[float32, B] {
	xShape := x.Shape()
	if len(xShape) != 2 || xShape[1] != d.iFeatures {
		panic(fmt.Sprintf("boundary: expected x [batch, %d], got %v", d.iFeatures, xShape))
	}
	hShape := h.Shape()
	if len(hShape) != 2 || hShape[0] != xShape[0] || hShape[1] != d.hFeatures {
		panic(fmt.Sprintf("boundary: expected h [%d, %d], got %v", xShape[0], d.hFeatures, hShape))
	}

	z := x.MatMul(d.wsi.Tensor().T()).Add(h.MatMul(d.wsh.Tensor().T()))
	z = z.Add(d.bias.Tensor().Reshape(1, d.sFeatures))
	affinity := sigmoid(z.MatMul(d.vs.Tensor().T()))

	threshold := 0.5
	if d.training {
		//nolint:gosec // math/rand is appropriate for threshold draws
		threshold = rand.Float64()
	}
	return binaryGate(affinity, threshold)
}

// SetTraining switches between stochastic thresholds (training) and the
// fixed 0.5 threshold (eval).
func (d *BoundaryDetector[B]) SetTraining(training bool) {
	d.training = training
}

// Training reports whether the detector draws stochastic thresholds.
func (d *BoundaryDetector[B]) Training() bool {
	return d.training
}

// Parameters returns Wsi, Wsh, bias, and vs.
func (d *BoundaryDetector[B]) Parameters() []*nn.Parameter[B] {
	return []*nn.Parameter[B]{d.wsi, d.wsh, d.bias, d.vs}
}

// StateDict returns a map of parameter names to raw tensors.
func (d *BoundaryDetector[B]) StateDict() map[string]*tensor.RawTensor {
	return map[string]*tensor.RawTensor{
		"Wsi":  d.wsi.Tensor().Raw(),
		"Wsh":  d.wsh.Tensor().Raw(),
		"bias": d.bias.Tensor().Raw(),
		"vs":   d.vs.Tensor().Raw(),
	}
}

// LoadStateDict loads parameters from a state dictionary.
func (d *BoundaryDetector[B]) LoadStateDict(stateDict map[string]*tensor.RawTensor) error {
	if err := nn.LoadStateEntry(stateDict, "Wsi", tensor.Shape{d.sFeatures, d.iFeatures}, d.wsi.Tensor().Data()); err != nil {
		return err
	}
	if err := nn.LoadStateEntry(stateDict, "Wsh", tensor.Shape{d.sFeatures, d.hFeatures}, d.wsh.Tensor().Data()); err != nil {
		return err
	}
	if err := nn.LoadStateEntry(stateDict, "bias", tensor.Shape{d.sFeatures}, d.bias.Tensor().Data()); err != nil {
		return err
	}
	return nn.LoadStateEntry(stateDict, "vs", tensor.Shape{1, d.sFeatures}, d.vs.Tensor().Data())
}

// sigmoid applies the logistic function through the backend capability
// interface.
func sigmoid[B tensor.Backend](t *tensor.Tensor[float32, B]) *tensor.Tensor[float32, B] {
	b, ok := any(t.Backend()).(nn.SigmoidBackend)
	if !ok {
		panic("banet: backend must implement Sigmoid operation (use autodiff.AutodiffBackend)")
	}
	return tensor.New[float32, B](b.Sigmoid(t.Raw()), t.Backend())
}

// binaryGate thresholds t through the backend capability interface.
func binaryGate[B tensor.Backend](t *tensor.Tensor[float32, B], threshold float64) *tensor.Tensor[float32, B] {
	b, ok := any(t.Backend()).(BinaryGateBackend)
	if !ok {
		panic("banet: backend must implement BinaryGate operation (use autodiff.AutodiffBackend)")
	}
	return tensor.New[float32, B](b.BinaryGate(t.Raw(), threshold), t.Backend())
}
