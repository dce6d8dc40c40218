package cpu

import (
	"fmt"

	"github.com/banet-ml/banet/internal/parallel"
	"github.com/banet-ml/banet/internal/tensor"
)

// Conv2D performs 2D convolution using the im2col algorithm.
//
// Input shape:  [batch, inChannels, height, width]
// Kernel shape: [outChannels, inChannels, kernelH, kernelW]
// Output shape: [batch, outChannels, outH, outW]
//
// Im2col unrolls every input patch into a row of a column matrix, turning the
// convolution into one matrix product per output channel. The output channel
// loop is split across worker goroutines; a ResNet bottleneck stage runs
// hundreds of these per frame.
func (cpu *CPUBackend) Conv2D(input, kernel *tensor.RawTensor, stride, padding int) *tensor.RawTensor {
	inputShape := input.Shape()
	kernelShape := kernel.Shape()

	if len(inputShape) != 4 {
		panic(fmt.Sprintf("conv2d: input must be 4D [N,C,H,W], got %dD", len(inputShape)))
	}
	if len(kernelShape) != 4 {
		panic(fmt.Sprintf("conv2d: kernel must be 4D [O,I,KH,KW], got %dD", len(kernelShape)))
	}
	if stride <= 0 {
		panic(fmt.Sprintf("conv2d: invalid stride %d", stride))
	}
	if padding < 0 {
		panic(fmt.Sprintf("conv2d: invalid padding %d", padding))
	}

	n, cIn, h, w := inputShape[0], inputShape[1], inputShape[2], inputShape[3]
	cOut, cInK, kh, kw := kernelShape[0], kernelShape[1], kernelShape[2], kernelShape[3]

	if cIn != cInK {
		panic(fmt.Sprintf("conv2d: input channels %d != kernel channels %d", cIn, cInK))
	}

	hOut := (h+2*padding-kh)/stride + 1
	wOut := (w+2*padding-kw)/stride + 1
	if hOut <= 0 || wOut <= 0 {
		panic(fmt.Sprintf("conv2d: invalid output dimensions %dx%d (check stride/padding)", hOut, wOut))
	}

	output := cpu.newResult(tensor.Shape{n, cOut, hOut, wOut}, input.DType(), "conv2d")

	switch input.DType() {
	case tensor.Float32:
		conv2dFloat32(output.AsFloat32(), input.AsFloat32(), kernel.AsFloat32(),
			n, cIn, h, w, cOut, kh, kw, hOut, wOut, stride, padding, cpu.pool)
	case tensor.Float64:
		conv2dFloat64(output.AsFloat64(), input.AsFloat64(), kernel.AsFloat64(),
			n, cIn, h, w, cOut, kh, kw, hOut, wOut, stride, padding, cpu.pool)
	default:
		panic(fmt.Sprintf("conv2d: unsupported dtype %s (only float32/float64 supported)", input.DType()))
	}

	return output
}

func conv2dFloat32(output, input, kernel []float32,
	n, cIn, h, w, cOut, kh, kw, hOut, wOut, stride, padding int, pool parallel.Config) {
	colWidth := cIn * kh * kw
	colHeight := n * hOut * wOut
	colBuf := make([]float32, colHeight*colWidth)

	im2colFloat32(colBuf, input, n, cIn, h, w, kh, kw, hOut, wOut, stride, padding)

	// kernel is already [cOut, cIn*kh*kw] in row-major layout, so each output
	// channel is a dot product of a kernel row against every colBuf row.
	planeSize := hOut * wOut
	parallel.For(cOut, func(c int) {
		kRow := kernel[c*colWidth : (c+1)*colWidth]
		for j := 0; j < colHeight; j++ {
			colRow := colBuf[j*colWidth : (j+1)*colWidth]
			var sum float32
			for k, kv := range kRow {
				sum += kv * colRow[k]
			}
			// colBuf row j covers batch j/planeSize, output position j%planeSize.
			b := j / planeSize
			output[(b*cOut+c)*planeSize+j%planeSize] = sum
		}
	}, rowConfig(pool, cOut))
}

func conv2dFloat64(output, input, kernel []float64,
	n, cIn, h, w, cOut, kh, kw, hOut, wOut, stride, padding int, pool parallel.Config) {
	colWidth := cIn * kh * kw
	colHeight := n * hOut * wOut
	colBuf := make([]float64, colHeight*colWidth)

	im2colFloat64(colBuf, input, n, cIn, h, w, kh, kw, hOut, wOut, stride, padding)

	planeSize := hOut * wOut
	parallel.For(cOut, func(c int) {
		kRow := kernel[c*colWidth : (c+1)*colWidth]
		for j := 0; j < colHeight; j++ {
			colRow := colBuf[j*colWidth : (j+1)*colWidth]
			var sum float64
			for k, kv := range kRow {
				sum += kv * colRow[k]
			}
			b := j / planeSize
			output[(b*cOut+c)*planeSize+j%planeSize] = sum
		}
	}, rowConfig(pool, cOut))
}

// im2colFloat32 unrolls input patches into rows of colBuf.
// Row j of colBuf holds the patch feeding output position j, flattened as
// [channel, kernelRow, kernelCol]. Out-of-bounds positions read as zero.
func im2colFloat32(colBuf, input []float32, n, c, h, w, kh, kw, hOut, wOut, stride, padding int) {
	colWidth := c * kh * kw
	colIdx := 0

	for b := 0; b < n; b++ {
		for outH := 0; outH < hOut; outH++ {
			for outW := 0; outW < wOut; outW++ {
				hStart := outH*stride - padding
				wStart := outW*stride - padding
				bufIdx := colIdx * colWidth

				for ch := 0; ch < c; ch++ {
					for i := 0; i < kh; i++ {
						for j := 0; j < kw; j++ {
							y := hStart + i
							x := wStart + j
							if y >= 0 && y < h && x >= 0 && x < w {
								colBuf[bufIdx] = input[((b*c+ch)*h+y)*w+x]
							} else {
								colBuf[bufIdx] = 0
							}
							bufIdx++
						}
					}
				}
				colIdx++
			}
		}
	}
}

func im2colFloat64(colBuf, input []float64, n, c, h, w, kh, kw, hOut, wOut, stride, padding int) {
	colWidth := c * kh * kw
	colIdx := 0

	for b := 0; b < n; b++ {
		for outH := 0; outH < hOut; outH++ {
			for outW := 0; outW < wOut; outW++ {
				hStart := outH*stride - padding
				wStart := outW*stride - padding
				bufIdx := colIdx * colWidth

				for ch := 0; ch < c; ch++ {
					for i := 0; i < kh; i++ {
						for j := 0; j < kw; j++ {
							y := hStart + i
							x := wStart + j
							if y >= 0 && y < h && x >= 0 && x < w {
								colBuf[bufIdx] = input[((b*c+ch)*h+y)*w+x]
							} else {
								colBuf[bufIdx] = 0
							}
							bufIdx++
						}
					}
				}
				colIdx++
			}
		}
	}
}
