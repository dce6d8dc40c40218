package cpu

import (
	"fmt"
	"math"

	"github.com/banet-ml/banet/internal/parallel"
	"github.com/banet-ml/banet/internal/tensor"
)

// MaxPool2D performs 2D max pooling over an NCHW input.
//
// Input shape:  [batch, channels, height, width]
// Output shape: [batch, channels, outH, outW]
// where outH = (height + 2*padding - kernelSize)/stride + 1 and likewise for
// outW. Padded positions never win the max; the window maximum is taken over
// valid input pixels only. Each (batch, channel) plane pools independently,
// so the plane loop runs on worker goroutines.
func (cpu *CPUBackend) MaxPool2D(input *tensor.RawTensor, kernelSize, stride, padding int) *tensor.RawTensor {
	inputShape := input.Shape()
	if len(inputShape) != 4 {
		panic(fmt.Sprintf("maxpool2d: expected 4D input [N,C,H,W], got %dD", len(inputShape)))
	}

	n, c, h, w := inputShape[0], inputShape[1], inputShape[2], inputShape[3]

	if kernelSize <= 0 {
		panic(fmt.Sprintf("maxpool2d: invalid kernel size %d", kernelSize))
	}
	if stride <= 0 {
		panic(fmt.Sprintf("maxpool2d: invalid stride %d", stride))
	}
	if padding < 0 || 2*padding > kernelSize {
		panic(fmt.Sprintf("maxpool2d: padding %d must be in [0, kernelSize/2]", padding))
	}

	hOut := (h+2*padding-kernelSize)/stride + 1
	wOut := (w+2*padding-kernelSize)/stride + 1
	if hOut <= 0 || wOut <= 0 {
		panic(fmt.Sprintf("maxpool2d: invalid output dimensions %dx%d (kernel=%d, stride=%d, input=%dx%d)",
			hOut, wOut, kernelSize, stride, h, w))
	}

	output := cpu.newResult(tensor.Shape{n, c, hOut, wOut}, input.DType(), "maxpool2d")

	switch input.DType() {
	case tensor.Float32:
		maxpool2dFloat32(output.AsFloat32(), input.AsFloat32(), n, c, h, w, hOut, wOut, kernelSize, stride, padding, cpu.pool)
	case tensor.Float64:
		maxpool2dFloat64(output.AsFloat64(), input.AsFloat64(), n, c, h, w, hOut, wOut, kernelSize, stride, padding, cpu.pool)
	default:
		panic(fmt.Sprintf("maxpool2d: unsupported dtype %s (only float32/float64 supported)", input.DType()))
	}

	return output
}

func maxpool2dFloat32(output, input []float32, n, c, h, w, hOut, wOut, kernelSize, stride, padding int, pool parallel.Config) {
	planeCfg := rowConfig(pool, n*c)
	parallel.ForBatch(n, c, func(b, ch int) {
		plane := input[(b*c+ch)*h*w : (b*c+ch+1)*h*w]
		outPlane := output[(b*c+ch)*hOut*wOut : (b*c+ch+1)*hOut*wOut]

		for outH := 0; outH < hOut; outH++ {
			hStart := outH*stride - padding
			for outW := 0; outW < wOut; outW++ {
				wStart := outW*stride - padding

				maxVal := float32(math.Inf(-1))
				for kh := 0; kh < kernelSize; kh++ {
					y := hStart + kh
					if y < 0 || y >= h {
						continue
					}
					row := plane[y*w : (y+1)*w]
					for kw := 0; kw < kernelSize; kw++ {
						x := wStart + kw
						if x < 0 || x >= w {
							continue
						}
						if v := row[x]; v > maxVal {
							maxVal = v
						}
					}
				}

				outPlane[outH*wOut+outW] = maxVal
			}
		}
	}, planeCfg)
}

func maxpool2dFloat64(output, input []float64, n, c, h, w, hOut, wOut, kernelSize, stride, padding int, pool parallel.Config) {
	planeCfg := rowConfig(pool, n*c)
	parallel.ForBatch(n, c, func(b, ch int) {
		plane := input[(b*c+ch)*h*w : (b*c+ch+1)*h*w]
		outPlane := output[(b*c+ch)*hOut*wOut : (b*c+ch+1)*hOut*wOut]

		for outH := 0; outH < hOut; outH++ {
			hStart := outH*stride - padding
			for outW := 0; outW < wOut; outW++ {
				wStart := outW*stride - padding

				maxVal := math.Inf(-1)
				for kh := 0; kh < kernelSize; kh++ {
					y := hStart + kh
					if y < 0 || y >= h {
						continue
					}
					row := plane[y*w : (y+1)*w]
					for kw := 0; kw < kernelSize; kw++ {
						x := wStart + kw
						if x < 0 || x >= w {
							continue
						}
						if v := row[x]; v > maxVal {
							maxVal = v
						}
					}
				}

				outPlane[outH*wOut+outW] = maxVal
			}
		}
	}, planeCfg)
}
