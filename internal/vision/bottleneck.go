package vision

import (
	"fmt"

	"github.com/banet-ml/banet/internal/nn"
	"github.com/banet-ml/banet/internal/tensor"
)

// expansion is the bottleneck output multiplier: a block with p planes
// emits p * expansion channels.
const expansion = 4

// Bottleneck is the three-convolution residual block of ResNet-50.
//
// A 1x1 convolution narrows the channels to planes, a 3x3 convolution
// (carrying the block's stride) transforms them, and a second 1x1
// convolution widens them to planes * 4. The input joins the result
// through a skip connection; when the shapes differ, a strided 1x1
// projection aligns it first. Convolutions are bias-free, their batch
// norms supply the shift.
type Bottleneck[B tensor.Backend] struct {
	conv1 *nn.Conv2D[B]
	bn1   *nn.BatchNorm2D[B]
	conv2 *nn.Conv2D[B]
	bn2   *nn.BatchNorm2D[B]
	conv3 *nn.Conv2D[B]
	bn3   *nn.BatchNorm2D[B]
	relu  *nn.ReLU[B]

	// Projection for the skip connection, nil when the input already
	// matches the output shape.
	downConv *nn.Conv2D[B]
	downBN   *nn.BatchNorm2D[B]
}

// NewBottleneck creates a residual block taking inChannels and emitting
// planes * 4 channels. A stride of 2 halves the spatial resolution in
// the 3x3 convolution and the skip projection.
func NewBottleneck[B tensor.Backend](inChannels, planes, stride int, backend B) *Bottleneck[B] {
	if inChannels <= 0 || planes <= 0 {
		panic(fmt.Sprintf("bottleneck: invalid channels in=%d, planes=%d", inChannels, planes))
	}
	if stride != 1 && stride != 2 {
		panic(fmt.Sprintf("bottleneck: invalid stride %d", stride))
	}

	outChannels := planes * expansion
	b := &Bottleneck[B]{
		conv1: nn.NewConv2D(inChannels, planes, 1, 1, 1, 0, false, backend),
		bn1:   nn.NewBatchNorm2D(planes, backend),
		conv2: nn.NewConv2D(planes, planes, 3, 3, stride, 1, false, backend),
		bn2:   nn.NewBatchNorm2D(planes, backend),
		conv3: nn.NewConv2D(planes, outChannels, 1, 1, 1, 0, false, backend),
		bn3:   nn.NewBatchNorm2D(outChannels, backend),
		relu:  nn.NewReLU[B](),
	}

	if stride != 1 || inChannels != outChannels {
		b.downConv = nn.NewConv2D(inChannels, outChannels, 1, 1, stride, 0, false, backend)
		b.downBN = nn.NewBatchNorm2D(outChannels, backend)
	}

	b.setEval()
	return b
}

// setEval switches every batch norm to its running statistics.
func (b *Bottleneck[B]) setEval() {
	b.bn1.SetTraining(false)
	b.bn2.SetTraining(false)
	b.bn3.SetTraining(false)
	if b.downBN != nil {
		b.downBN.SetTraining(false)
	}
}

// Forward applies the residual block.
//
// Input: [batch, in_channels, height, width]
// Output: [batch, planes*4, height/stride, width/stride].
func (b *Bottleneck[B]) Forward(input *tensor.Tensor[float32, B]) *tensor.Tensor[float32, B] {
	identity := input
	if b.downConv != nil {
		identity = b.downBN.Forward(b.downConv.Forward(input))
	}

	out := b.relu.Forward(b.bn1.Forward(b.conv1.Forward(input)))
	out = b.relu.Forward(b.bn2.Forward(b.conv2.Forward(out)))
	out = b.bn3.Forward(b.conv3.Forward(out))

	return b.relu.Forward(out.Add(identity))
}

// Parameters returns the convolution kernels and batch norm affines.
func (b *Bottleneck[B]) Parameters() []*nn.Parameter[B] {
	params := make([]*nn.Parameter[B], 0, 14)
	params = append(params, b.conv1.Parameters()...)
	params = append(params, b.bn1.Parameters()...)
	params = append(params, b.conv2.Parameters()...)
	params = append(params, b.bn2.Parameters()...)
	params = append(params, b.conv3.Parameters()...)
	params = append(params, b.bn3.Parameters()...)
	if b.downConv != nil {
		params = append(params, b.downConv.Parameters()...)
		params = append(params, b.downBN.Parameters()...)
	}
	return params
}

// StateDict returns block state under torchvision's names: conv1..3,
// bn1..3, and downsample.0 and downsample.1 for the projection pair.
func (b *Bottleneck[B]) StateDict() map[string]*tensor.RawTensor {
	stateDict := make(map[string]*tensor.RawTensor)
	addPrefixed(stateDict, b.conv1.StateDict(), "conv1")
	addPrefixed(stateDict, b.bn1.StateDict(), "bn1")
	addPrefixed(stateDict, b.conv2.StateDict(), "conv2")
	addPrefixed(stateDict, b.bn2.StateDict(), "bn2")
	addPrefixed(stateDict, b.conv3.StateDict(), "conv3")
	addPrefixed(stateDict, b.bn3.StateDict(), "bn3")
	if b.downConv != nil {
		addPrefixed(stateDict, b.downConv.StateDict(), "downsample.0")
		addPrefixed(stateDict, b.downBN.StateDict(), "downsample.1")
	}
	return stateDict
}

// LoadStateDict loads block state, expecting the same names as
// StateDict. Blocks without a projection ignore downsample entries.
func (b *Bottleneck[B]) LoadStateDict(stateDict map[string]*tensor.RawTensor) error {
	if err := loadPrefixed(stateDict, "conv1", b.conv1); err != nil {
		return err
	}
	if err := loadPrefixed(stateDict, "bn1", b.bn1); err != nil {
		return err
	}
	if err := loadPrefixed(stateDict, "conv2", b.conv2); err != nil {
		return err
	}
	if err := loadPrefixed(stateDict, "bn2", b.bn2); err != nil {
		return err
	}
	if err := loadPrefixed(stateDict, "conv3", b.conv3); err != nil {
		return err
	}
	if err := loadPrefixed(stateDict, "bn3", b.bn3); err != nil {
		return err
	}
	if b.downConv == nil {
		return nil
	}
	if err := loadPrefixed(stateDict, "downsample.0", b.downConv); err != nil {
		return err
	}
	return loadPrefixed(stateDict, "downsample.1", b.downBN)
}

// addPrefixed copies src entries into dst under "prefix." names.
func addPrefixed(dst, src map[string]*tensor.RawTensor, prefix string) {
	for key, raw := range src {
		dst[prefix+"."+key] = raw
	}
}

// loadPrefixed extracts the "prefix." entries and loads them into the
// module.
func loadPrefixed(stateDict map[string]*tensor.RawTensor, prefix string, module nn.StateModule) error {
	full := prefix + "."
	sub := make(map[string]*tensor.RawTensor)
	for key, raw := range stateDict {
		if len(key) > len(full) && key[:len(full)] == full {
			sub[key[len(full):]] = raw
		}
	}
	if err := module.LoadStateDict(sub); err != nil {
		return fmt.Errorf("failed to load %s: %w", prefix, err)
	}
	return nil
}
