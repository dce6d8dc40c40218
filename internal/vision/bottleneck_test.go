package vision

import (
	"testing"

	"github.com/banet-ml/banet/internal/backend/cpu"
	"github.com/banet-ml/banet/internal/tensor"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// zeroConvs clears every convolution kernel in a block, leaving the
// batch norm affines at their defaults.
func zeroConvs(b *Bottleneck[*cpu.CPUBackend]) {
	convs := []*tensor.Tensor[float32, *cpu.CPUBackend]{
		b.conv1.Weight().Tensor(),
		b.conv2.Weight().Tensor(),
		b.conv3.Weight().Tensor(),
	}
	if b.downConv != nil {
		convs = append(convs, b.downConv.Weight().Tensor())
	}
	for _, w := range convs {
		data := w.Raw().AsFloat32()
		for i := range data {
			data[i] = 0
		}
	}
}

// TestBottleneck_Shapes covers the plain and strided variants.
func TestBottleneck_Shapes(t *testing.T) {
	backend := cpu.New()

	plain := NewBottleneck(16, 4, 1, backend)
	assert.Nil(t, plain.downConv)
	assert.Len(t, plain.Parameters(), 9)

	out := plain.Forward(tensor.Randn[float32](tensor.Shape{2, 16, 6, 6}, backend))
	assert.True(t, out.Shape().Equal(tensor.Shape{2, 16, 6, 6}))

	strided := NewBottleneck(8, 4, 2, backend)
	require.NotNil(t, strided.downConv)
	assert.Len(t, strided.Parameters(), 12)

	out = strided.Forward(tensor.Randn[float32](tensor.Shape{2, 8, 6, 6}, backend))
	assert.True(t, out.Shape().Equal(tensor.Shape{2, 16, 3, 3}))
}

// TestBottleneck_SkipConnection zeroes the convolution kernels: the
// residual path contributes nothing, so the block reduces to
// relu(input).
func TestBottleneck_SkipConnection(t *testing.T) {
	backend := cpu.New()

	block := NewBottleneck(16, 4, 1, backend)
	zeroConvs(block)

	input := tensor.Randn[float32](tensor.Shape{2, 16, 3, 3}, backend)
	out := block.Forward(input)

	expected := input.Data()
	actual := out.Data()
	require.Len(t, actual, len(expected))
	for i, v := range expected {
		if v < 0 {
			v = 0
		}
		assert.Equal(t, v, actual[i])
	}
}

// TestBottleneck_StateDict checks torchvision naming, including the
// projection pair on strided blocks.
func TestBottleneck_StateDict(t *testing.T) {
	backend := cpu.New()

	plain := NewBottleneck(16, 4, 1, backend)
	state := plain.StateDict()
	assert.Contains(t, state, "conv1.weight")
	assert.Contains(t, state, "bn2.running_mean")
	assert.Contains(t, state, "bn3.bias")
	assert.NotContains(t, state, "downsample.0.weight")
	assert.Len(t, state, 3+3*4)

	strided := NewBottleneck(8, 4, 2, backend)
	state = strided.StateDict()
	assert.Contains(t, state, "downsample.0.weight")
	assert.Contains(t, state, "downsample.1.running_var")
	assert.Len(t, state, 4+4*4)
}

// TestBottleneck_StateDictRoundTrip loads one block's state into
// another and compares outputs.
func TestBottleneck_StateDictRoundTrip(t *testing.T) {
	backend := cpu.New()

	src := NewBottleneck(8, 4, 2, backend)
	dst := NewBottleneck(8, 4, 2, backend)

	require.NoError(t, dst.LoadStateDict(src.StateDict()))

	input := tensor.Randn[float32](tensor.Shape{2, 8, 6, 6}, backend)
	assert.Equal(t, src.Forward(input).Data(), dst.Forward(input).Data())
}

// TestBottleneck_LoadRejectsMissingConv errors when a kernel is absent.
func TestBottleneck_LoadRejectsMissingConv(t *testing.T) {
	backend := cpu.New()

	block := NewBottleneck(16, 4, 1, backend)
	state := block.StateDict()
	delete(state, "conv2.weight")

	assert.Error(t, block.LoadStateDict(state))
}
