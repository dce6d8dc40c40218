package cpu

import (
	"fmt"

	"github.com/banet-ml/banet/internal/parallel"
	"github.com/banet-ml/banet/internal/tensor"
)

// Conv2DInputBackward computes the convolution gradient w.r.t. the input.
//
// Every output gradient value is distributed back over the input patch that
// produced it, weighted by the kernel (a transposed convolution). Batches
// write disjoint regions of the gradient, so the batch loop runs on worker
// goroutines.
func (cpu *CPUBackend) Conv2DInputBackward(input, kernel, grad *tensor.RawTensor, stride, padding int) *tensor.RawTensor {
	inputShape := input.Shape()
	kernelShape := kernel.Shape()
	gradShape := grad.Shape()

	n, cIn, h, w := inputShape[0], inputShape[1], inputShape[2], inputShape[3]
	cOut, kh, kw := kernelShape[0], kernelShape[2], kernelShape[3]
	hOut, wOut := gradShape[2], gradShape[3]

	inputGrad := cpu.newResult(inputShape, grad.DType(), "conv2dInputBackward")

	switch grad.DType() {
	case tensor.Float32:
		conv2dInputBackwardFloat32(inputGrad.AsFloat32(), grad.AsFloat32(), kernel.AsFloat32(),
			n, cIn, h, w, cOut, kh, kw, hOut, wOut, stride, padding, cpu.pool)
	case tensor.Float64:
		conv2dInputBackwardFloat64(inputGrad.AsFloat64(), grad.AsFloat64(), kernel.AsFloat64(),
			n, cIn, h, w, cOut, kh, kw, hOut, wOut, stride, padding, cpu.pool)
	default:
		panic(fmt.Sprintf("conv2dInputBackward: unsupported dtype %s (only float32/float64 supported)", grad.DType()))
	}

	return inputGrad
}

func conv2dInputBackwardFloat32(inputGrad, grad, kernel []float32,
	n, cIn, h, w, cOut, kh, kw, hOut, wOut, stride, padding int, pool parallel.Config) {
	parallel.For(n, func(b int) {
		gradBatch := grad[b*cOut*hOut*wOut : (b+1)*cOut*hOut*wOut]
		inBatch := inputGrad[b*cIn*h*w : (b+1)*cIn*h*w]

		for oc := 0; oc < cOut; oc++ {
			gradPlane := gradBatch[oc*hOut*wOut : (oc+1)*hOut*wOut]
			kernelOC := kernel[oc*cIn*kh*kw : (oc+1)*cIn*kh*kw]

			for outH := 0; outH < hOut; outH++ {
				for outW := 0; outW < wOut; outW++ {
					g := gradPlane[outH*wOut+outW]
					hStart := outH*stride - padding
					wStart := outW*stride - padding

					for ic := 0; ic < cIn; ic++ {
						inPlane := inBatch[ic*h*w : (ic+1)*h*w]
						kernelIC := kernelOC[ic*kh*kw : (ic+1)*kh*kw]

						for i := 0; i < kh; i++ {
							y := hStart + i
							if y < 0 || y >= h {
								continue
							}
							for j := 0; j < kw; j++ {
								x := wStart + j
								if x < 0 || x >= w {
									continue
								}
								inPlane[y*w+x] += g * kernelIC[i*kw+j]
							}
						}
					}
				}
			}
		}
	}, rowConfig(pool, n))
}

func conv2dInputBackwardFloat64(inputGrad, grad, kernel []float64,
	n, cIn, h, w, cOut, kh, kw, hOut, wOut, stride, padding int, pool parallel.Config) {
	parallel.For(n, func(b int) {
		gradBatch := grad[b*cOut*hOut*wOut : (b+1)*cOut*hOut*wOut]
		inBatch := inputGrad[b*cIn*h*w : (b+1)*cIn*h*w]

		for oc := 0; oc < cOut; oc++ {
			gradPlane := gradBatch[oc*hOut*wOut : (oc+1)*hOut*wOut]
			kernelOC := kernel[oc*cIn*kh*kw : (oc+1)*cIn*kh*kw]

			for outH := 0; outH < hOut; outH++ {
				for outW := 0; outW < wOut; outW++ {
					g := gradPlane[outH*wOut+outW]
					hStart := outH*stride - padding
					wStart := outW*stride - padding

					for ic := 0; ic < cIn; ic++ {
						inPlane := inBatch[ic*h*w : (ic+1)*h*w]
						kernelIC := kernelOC[ic*kh*kw : (ic+1)*kh*kw]

						for i := 0; i < kh; i++ {
							y := hStart + i
							if y < 0 || y >= h {
								continue
							}
							for j := 0; j < kw; j++ {
								x := wStart + j
								if x < 0 || x >= w {
									continue
								}
								inPlane[y*w+x] += g * kernelIC[i*kw+j]
							}
						}
					}
				}
			}
		}
	}, rowConfig(pool, n))
}

// Conv2DKernelBackward computes the convolution gradient w.r.t. the kernel.
//
// Each kernel weight accumulates input[patch position] * grad[output position]
// over every batch sample and output position. Output channels own disjoint
// kernel slices, so the channel loop runs on worker goroutines.
func (cpu *CPUBackend) Conv2DKernelBackward(input, kernel, grad *tensor.RawTensor, stride, padding int) *tensor.RawTensor {
	inputShape := input.Shape()
	kernelShape := kernel.Shape()
	gradShape := grad.Shape()

	n, cIn, h, w := inputShape[0], inputShape[1], inputShape[2], inputShape[3]
	cOut, kh, kw := kernelShape[0], kernelShape[2], kernelShape[3]
	hOut, wOut := gradShape[2], gradShape[3]

	kernelGrad := cpu.newResult(kernelShape, grad.DType(), "conv2dKernelBackward")

	switch grad.DType() {
	case tensor.Float32:
		conv2dKernelBackwardFloat32(kernelGrad.AsFloat32(), grad.AsFloat32(), input.AsFloat32(),
			n, cIn, h, w, cOut, kh, kw, hOut, wOut, stride, padding, cpu.pool)
	case tensor.Float64:
		conv2dKernelBackwardFloat64(kernelGrad.AsFloat64(), grad.AsFloat64(), input.AsFloat64(),
			n, cIn, h, w, cOut, kh, kw, hOut, wOut, stride, padding, cpu.pool)
	default:
		panic(fmt.Sprintf("conv2dKernelBackward: unsupported dtype %s (only float32/float64 supported)", grad.DType()))
	}

	return kernelGrad
}

func conv2dKernelBackwardFloat32(kernelGrad, grad, input []float32,
	n, cIn, h, w, cOut, kh, kw, hOut, wOut, stride, padding int, pool parallel.Config) {
	parallel.For(cOut, func(oc int) {
		kernelOC := kernelGrad[oc*cIn*kh*kw : (oc+1)*cIn*kh*kw]

		for b := 0; b < n; b++ {
			gradPlane := grad[(b*cOut+oc)*hOut*wOut : (b*cOut+oc+1)*hOut*wOut]

			for outH := 0; outH < hOut; outH++ {
				for outW := 0; outW < wOut; outW++ {
					g := gradPlane[outH*wOut+outW]
					hStart := outH*stride - padding
					wStart := outW*stride - padding

					for ic := 0; ic < cIn; ic++ {
						inPlane := input[(b*cIn+ic)*h*w : (b*cIn+ic+1)*h*w]
						kernelIC := kernelOC[ic*kh*kw : (ic+1)*kh*kw]

						for i := 0; i < kh; i++ {
							y := hStart + i
							if y < 0 || y >= h {
								continue
							}
							for j := 0; j < kw; j++ {
								x := wStart + j
								if x < 0 || x >= w {
									continue
								}
								kernelIC[i*kw+j] += g * inPlane[y*w+x]
							}
						}
					}
				}
			}
		}
	}, rowConfig(pool, cOut))
}

func conv2dKernelBackwardFloat64(kernelGrad, grad, input []float64,
	n, cIn, h, w, cOut, kh, kw, hOut, wOut, stride, padding int, pool parallel.Config) {
	parallel.For(cOut, func(oc int) {
		kernelOC := kernelGrad[oc*cIn*kh*kw : (oc+1)*cIn*kh*kw]

		for b := 0; b < n; b++ {
			gradPlane := grad[(b*cOut+oc)*hOut*wOut : (b*cOut+oc+1)*hOut*wOut]

			for outH := 0; outH < hOut; outH++ {
				for outW := 0; outW < wOut; outW++ {
					g := gradPlane[outH*wOut+outW]
					hStart := outH*stride - padding
					wStart := outW*stride - padding

					for ic := 0; ic < cIn; ic++ {
						inPlane := input[(b*cIn+ic)*h*w : (b*cIn+ic+1)*h*w]
						kernelIC := kernelOC[ic*kh*kw : (ic+1)*kh*kw]

						for i := 0; i < kh; i++ {
							y := hStart + i
							if y < 0 || y >= h {
								continue
							}
							for j := 0; j < kw; j++ {
								x := wStart + j
								if x < 0 || x >= w {
									continue
								}
								kernelIC[i*kw+j] += g * inPlane[y*w+x]
							}
						}
					}
				}
			}
		}
	}, rowConfig(pool, cOut))
}
