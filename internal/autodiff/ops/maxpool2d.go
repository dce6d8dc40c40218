package ops

import (
	"fmt"
	"math"

	"github.com/banet-ml/banet/internal/tensor"
)

// MaxPool2DOp records a 2D max pooling: output = maxpool2d(input).
//
// The constructor replays the forward window scan to find the flat input
// index of every window winner. Backward then routes each output gradient
// to its winner via the backend primitive; non-winning positions get zero.
type MaxPool2DOp struct {
	inputs     []*tensor.RawTensor // [input]
	output     *tensor.RawTensor
	maxIndices []int // flat input index of the winner per output element
}

// NewMaxPool2DOp creates a new MaxPool2DOp. Window scanning matches the
// forward pass: padded positions are skipped and the first occurrence of
// the maximum wins.
func NewMaxPool2DOp(input, output *tensor.RawTensor, kernelSize, stride, padding int) *MaxPool2DOp {
	return &MaxPool2DOp{
		inputs:     []*tensor.RawTensor{input},
		output:     output,
		maxIndices: computeMaxIndices(input, output.Shape(), kernelSize, stride, padding),
	}
}

// Backward scatters the output gradient back to the window winners.
func (op *MaxPool2DOp) Backward(outputGrad *tensor.RawTensor, backend tensor.Backend) []*tensor.RawTensor {
	return []*tensor.RawTensor{backend.MaxPool2DBackward(op.inputs[0], outputGrad, op.maxIndices)}
}

// Inputs returns the input tensor [input].
func (op *MaxPool2DOp) Inputs() []*tensor.RawTensor {
	return op.inputs
}

// Output returns the pooled tensor.
func (op *MaxPool2DOp) Output() *tensor.RawTensor {
	return op.output
}

func computeMaxIndices(input *tensor.RawTensor, outShape tensor.Shape, kernelSize, stride, padding int) []int {
	inShape := input.Shape()
	n, c, h, w := inShape[0], inShape[1], inShape[2], inShape[3]
	hOut, wOut := outShape[2], outShape[3]

	indices := make([]int, n*c*hOut*wOut)

	switch input.DType() {
	case tensor.Float32:
		maxIndicesFloat32(indices, input.AsFloat32(), n, c, h, w, hOut, wOut, kernelSize, stride, padding)
	case tensor.Float64:
		maxIndicesFloat64(indices, input.AsFloat64(), n, c, h, w, hOut, wOut, kernelSize, stride, padding)
	default:
		panic(fmt.Sprintf("maxpool2d: unsupported dtype %v (only float32/float64 supported)", input.DType()))
	}

	return indices
}

func maxIndicesFloat32(indices []int, input []float32, n, c, h, w, hOut, wOut, kernelSize, stride, padding int) {
	for plane := 0; plane < n*c; plane++ {
		planeBase := plane * h * w
		data := input[planeBase : planeBase+h*w]
		out := indices[plane*hOut*wOut : (plane+1)*hOut*wOut]

		for outH := 0; outH < hOut; outH++ {
			hStart := outH*stride - padding
			for outW := 0; outW < wOut; outW++ {
				wStart := outW*stride - padding

				maxVal := float32(math.Inf(-1))
				bestIdx := -1
				for kh := 0; kh < kernelSize; kh++ {
					y := hStart + kh
					if y < 0 || y >= h {
						continue
					}
					for kw := 0; kw < kernelSize; kw++ {
						x := wStart + kw
						if x < 0 || x >= w {
							continue
						}
						if v := data[y*w+x]; v > maxVal {
							maxVal = v
							bestIdx = planeBase + y*w + x
						}
					}
				}

				out[outH*wOut+outW] = bestIdx
			}
		}
	}
}

func maxIndicesFloat64(indices []int, input []float64, n, c, h, w, hOut, wOut, kernelSize, stride, padding int) {
	for plane := 0; plane < n*c; plane++ {
		planeBase := plane * h * w
		data := input[planeBase : planeBase+h*w]
		out := indices[plane*hOut*wOut : (plane+1)*hOut*wOut]

		for outH := 0; outH < hOut; outH++ {
			hStart := outH*stride - padding
			for outW := 0; outW < wOut; outW++ {
				wStart := outW*stride - padding

				maxVal := math.Inf(-1)
				bestIdx := -1
				for kh := 0; kh < kernelSize; kh++ {
					y := hStart + kh
					if y < 0 || y >= h {
						continue
					}
					for kw := 0; kw < kernelSize; kw++ {
						x := wStart + kw
						if x < 0 || x >= w {
							continue
						}
						if v := data[y*w+x]; v > maxVal {
							maxVal = v
							bestIdx = planeBase + y*w + x
						}
					}
				}

				out[outH*wOut+outW] = bestIdx
			}
		}
	}
}
