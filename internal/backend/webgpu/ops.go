package webgpu

import (
	"fmt"

	"github.com/banet-ml/banet/internal/tensor"
)

// Add performs element-wise addition with NumPy-style broadcasting.
func (b *Backend) Add(a, other *tensor.RawTensor) *tensor.RawTensor {
	a, other = broadcastPair(a, other, "add")
	result, err := b.runBinaryOp(a, other, "add", addShader)
	if err != nil {
		panic("webgpu: Add: " + err.Error())
	}
	return result
}

// Sub performs element-wise subtraction with broadcasting.
func (b *Backend) Sub(a, other *tensor.RawTensor) *tensor.RawTensor {
	a, other = broadcastPair(a, other, "sub")
	result, err := b.runBinaryOp(a, other, "sub", subShader)
	if err != nil {
		panic("webgpu: Sub: " + err.Error())
	}
	return result
}

// Mul performs element-wise multiplication with broadcasting.
func (b *Backend) Mul(a, other *tensor.RawTensor) *tensor.RawTensor {
	a, other = broadcastPair(a, other, "mul")
	result, err := b.runBinaryOp(a, other, "mul", mulShader)
	if err != nil {
		panic("webgpu: Mul: " + err.Error())
	}
	return result
}

// Div performs element-wise division with broadcasting.
func (b *Backend) Div(a, other *tensor.RawTensor) *tensor.RawTensor {
	a, other = broadcastPair(a, other, "div")
	result, err := b.runBinaryOp(a, other, "div", divShader)
	if err != nil {
		panic("webgpu: Div: " + err.Error())
	}
	return result
}

// AddScalar adds a scalar value to each element.
func (b *Backend) AddScalar(x *tensor.RawTensor, scalar any) *tensor.RawTensor {
	result, err := b.runScalarOp(x, toFloat32(scalar), "scalarAdd", scalarAddShader)
	if err != nil {
		panic("webgpu: AddScalar: " + err.Error())
	}
	return result
}

// MulScalar multiplies each element by a scalar value.
func (b *Backend) MulScalar(x *tensor.RawTensor, scalar any) *tensor.RawTensor {
	result, err := b.runScalarOp(x, toFloat32(scalar), "scalarMul", scalarMulShader)
	if err != nil {
		panic("webgpu: MulScalar: " + err.Error())
	}
	return result
}

// Neg performs element-wise negation.
func (b *Backend) Neg(x *tensor.RawTensor) *tensor.RawTensor {
	result, err := b.runUnaryOp(x, "neg", negShader)
	if err != nil {
		panic("webgpu: Neg: " + err.Error())
	}
	return result
}

// Exp performs element-wise exponentiation.
func (b *Backend) Exp(x *tensor.RawTensor) *tensor.RawTensor {
	result, err := b.runUnaryOp(x, "exp", expShader)
	if err != nil {
		panic("webgpu: Exp: " + err.Error())
	}
	return result
}

// Log performs element-wise natural logarithm.
func (b *Backend) Log(x *tensor.RawTensor) *tensor.RawTensor {
	result, err := b.runUnaryOp(x, "log", logShader)
	if err != nil {
		panic("webgpu: Log: " + err.Error())
	}
	return result
}

// Sqrt performs element-wise square root.
func (b *Backend) Sqrt(x *tensor.RawTensor) *tensor.RawTensor {
	result, err := b.runUnaryOp(x, "sqrt", sqrtShader)
	if err != nil {
		panic("webgpu: Sqrt: " + err.Error())
	}
	return result
}

// ReLU applies the rectified linear unit.
func (b *Backend) ReLU(x *tensor.RawTensor) *tensor.RawTensor {
	result, err := b.runUnaryOp(x, "relu", reluShader)
	if err != nil {
		panic("webgpu: ReLU: " + err.Error())
	}
	return result
}

// Sigmoid applies the logistic sigmoid.
func (b *Backend) Sigmoid(x *tensor.RawTensor) *tensor.RawTensor {
	result, err := b.runUnaryOp(x, "sigmoid", sigmoidShader)
	if err != nil {
		panic("webgpu: Sigmoid: " + err.Error())
	}
	return result
}

// Tanh applies the hyperbolic tangent.
func (b *Backend) Tanh(x *tensor.RawTensor) *tensor.RawTensor {
	result, err := b.runUnaryOp(x, "tanh", tanhShader)
	if err != nil {
		panic("webgpu: Tanh: " + err.Error())
	}
	return result
}

// GreaterScalar returns 1 where x > threshold and 0 elsewhere.
// This is the binarization step of the boundary gate.
func (b *Backend) GreaterScalar(x *tensor.RawTensor, threshold float64) *tensor.RawTensor {
	result, err := b.runScalarOp(x, float32(threshold), "greaterScalar", greaterScalarShader)
	if err != nil {
		panic("webgpu: GreaterScalar: " + err.Error())
	}
	return result
}

// BinaryGate thresholds z into exact 0/1 values. The forward pass is plain
// thresholding; the straight-through backward lives in the autodiff
// decorator, so here it is only usable for inference.
func (b *Backend) BinaryGate(z *tensor.RawTensor, threshold float64) *tensor.RawTensor {
	return b.GreaterScalar(z, threshold)
}

// MatMul computes the 2D matrix product (M, K) @ (K, N) -> (M, N).
func (b *Backend) MatMul(a, other *tensor.RawTensor) *tensor.RawTensor {
	result, err := b.runMatMul(a, other)
	if err != nil {
		panic("webgpu: MatMul: " + err.Error())
	}
	return result
}

// Transpose swaps the two dimensions of a 2D tensor.
func (b *Backend) Transpose(x *tensor.RawTensor) *tensor.RawTensor {
	result, err := b.runTranspose(x)
	if err != nil {
		panic("webgpu: Transpose: " + err.Error())
	}
	return result
}

// Softmax computes softmax along the specified dimension.
func (b *Backend) Softmax(x *tensor.RawTensor, dim int) *tensor.RawTensor {
	shape := x.Shape()
	dim = normalizeDim(dim, len(shape), "softmax")

	outer, dimSize, inner := splitAtDim(shape, dim)
	result, err := b.runLaneOp(x, outer, dimSize, inner, x.NumElements(),
		shape.Clone(), tensor.Float32, "softmax", softmaxShader)
	if err != nil {
		panic("webgpu: Softmax: " + err.Error())
	}
	return result
}

// Sum computes the total sum of all elements (scalar result).
// The GPU reduces to one partial per workgroup; the host adds the partials.
func (b *Backend) Sum(x *tensor.RawTensor) *tensor.RawTensor {
	partials, err := b.runPartialSum(x)
	if err != nil {
		panic("webgpu: Sum: " + err.Error())
	}

	var sum float32
	for _, p := range partials {
		sum += p
	}

	result, err := tensor.NewRaw(tensor.Shape{}, tensor.Float32, tensor.WebGPU)
	if err != nil {
		panic("webgpu: Sum: " + err.Error())
	}
	result.AsFloat32()[0] = sum
	return result
}

// SumDim sums tensor elements along the specified dimension.
// With keepDim the reduced dimension stays with size 1, otherwise it is
// removed.
func (b *Backend) SumDim(x *tensor.RawTensor, dim int, keepDim bool) *tensor.RawTensor {
	shape := x.Shape()
	dim = normalizeDim(dim, len(shape), "sumdim")

	outShape := reducedShape(shape, dim, keepDim)
	outer, dimSize, inner := splitAtDim(shape, dim)
	result, err := b.runLaneOp(x, outer, dimSize, inner, outer*inner,
		outShape, tensor.Float32, "sumDim", sumDimShader)
	if err != nil {
		panic("webgpu: SumDim: " + err.Error())
	}
	return result
}

// MeanDim computes the mean along the specified dimension.
func (b *Backend) MeanDim(x *tensor.RawTensor, dim int, keepDim bool) *tensor.RawTensor {
	result := b.SumDim(x, dim, keepDim)

	shape := x.Shape()
	if dim < 0 {
		dim = len(shape) + dim
	}
	divisor := float32(shape[dim])

	data := result.AsFloat32()
	for i := range data {
		data[i] /= divisor
	}
	return result
}

// Argmax returns int32 indices of the maximum value along dim.
// The reduced dimension is removed from the result shape.
func (b *Backend) Argmax(x *tensor.RawTensor, dim int) *tensor.RawTensor {
	shape := x.Shape()
	dim = normalizeDim(dim, len(shape), "argmax")

	outShape := reducedShape(shape, dim, false)
	outer, dimSize, inner := splitAtDim(shape, dim)
	result, err := b.runLaneOp(x, outer, dimSize, inner, outer*inner,
		outShape, tensor.Int32, "argmax", argmaxShader)
	if err != nil {
		panic("webgpu: Argmax: " + err.Error())
	}
	return result
}

// Reshape returns a view of x with a different shape. The data buffer is
// shared, not copied.
func (b *Backend) Reshape(x *tensor.RawTensor, shape tensor.Shape) *tensor.RawTensor {
	view, err := x.View(shape)
	if err != nil {
		panic("webgpu: reshape: " + err.Error())
	}
	return view
}

// Cat concatenates tensors along the specified dimension.
// Concatenation moves whole inner blocks, so it runs on the host over raw
// bytes rather than round-tripping through the GPU.
func (b *Backend) Cat(tensors []*tensor.RawTensor, dim int) *tensor.RawTensor {
	if len(tensors) == 0 {
		panic("webgpu: cat: at least one tensor required")
	}

	shape := tensors[0].Shape()
	ndim := len(shape)
	dtype := tensors[0].DType()

	if dim < 0 {
		dim = ndim + dim
	}
	if dim < 0 || dim >= ndim {
		panic(fmt.Sprintf("webgpu: cat: dimension %d out of range for %dD tensor", dim, ndim))
	}

	totalDim := 0
	for i, t := range tensors {
		tShape := t.Shape()
		if len(tShape) != ndim {
			panic(fmt.Sprintf("webgpu: cat: tensor %d has %d dimensions, expected %d", i, len(tShape), ndim))
		}
		if t.DType() != dtype {
			panic(fmt.Sprintf("webgpu: cat: tensor %d has dtype %s, expected %s", i, t.DType(), dtype))
		}
		for d := 0; d < ndim; d++ {
			if d == dim {
				totalDim += tShape[d]
			} else if tShape[d] != shape[d] {
				panic(fmt.Sprintf("webgpu: cat: tensor %d dimension %d is %d, expected %d", i, d, tShape[d], shape[d]))
			}
		}
	}

	outShape := shape.Clone()
	outShape[dim] = totalDim
	result := newHostResult(outShape, dtype, "cat")

	outer, _, inner := splitAtDim(outShape, dim)
	rowBytes := inner * dtype.Size()

	dst := result.Data()
	dstOff := 0
	for o := 0; o < outer; o++ {
		for _, t := range tensors {
			blockBytes := t.Shape()[dim] * rowBytes
			src := t.Data()[o*blockBytes : (o+1)*blockBytes]
			copy(dst[dstOff:dstOff+blockBytes], src)
			dstOff += blockBytes
		}
	}

	return result
}

// Chunk splits a tensor into n equal parts along the specified dimension.
// The dimension size must be divisible by n.
func (b *Backend) Chunk(x *tensor.RawTensor, chunks, dim int) []*tensor.RawTensor {
	if chunks <= 0 {
		panic(fmt.Sprintf("webgpu: chunk: chunks must be positive, got %d", chunks))
	}

	shape := x.Shape()
	ndim := len(shape)

	if dim < 0 {
		dim = ndim + dim
	}
	if dim < 0 || dim >= ndim {
		panic(fmt.Sprintf("webgpu: chunk: dimension %d out of range for %dD tensor", dim, ndim))
	}

	dimSize := shape[dim]
	if dimSize%chunks != 0 {
		panic(fmt.Sprintf("webgpu: chunk: dimension %d size %d not divisible by %d", dim, dimSize, chunks))
	}
	chunkSize := dimSize / chunks

	chunkShape := shape.Clone()
	chunkShape[dim] = chunkSize

	outer, _, inner := splitAtDim(shape, dim)
	elemSize := x.DType().Size()
	chunkBlock := chunkSize * inner * elemSize
	srcBlock := dimSize * inner * elemSize

	src := x.Data()
	results := make([]*tensor.RawTensor, chunks)
	for c := 0; c < chunks; c++ {
		part := newHostResult(chunkShape, x.DType(), "chunk")
		dst := part.Data()
		for o := 0; o < outer; o++ {
			srcOff := o*srcBlock + c*chunkBlock
			copy(dst[o*chunkBlock:(o+1)*chunkBlock], src[srcOff:srcOff+chunkBlock])
		}
		results[c] = part
	}

	return results
}

// Embedding performs embedding table lookup on GPU.
//
// weight:  [numEmbeddings, embeddingDim]
// indices: int32 tensor of any shape
// output:  [...indices.Shape(), embeddingDim]
//
// Indices are bounds-checked host-side before dispatch; shaders cannot
// signal an out-of-range id.
func (b *Backend) Embedding(weight, indices *tensor.RawTensor) *tensor.RawTensor {
	if indices.DType() != tensor.Int32 {
		panic(fmt.Sprintf("webgpu: embedding: indices must be int32, got %s", indices.DType()))
	}

	weightShape := weight.Shape()
	if len(weightShape) != 2 {
		panic(fmt.Sprintf("webgpu: embedding: weight must be 2D, got shape %v", weightShape))
	}

	numEmbeddings := weightShape[0]
	for _, rawIdx := range indices.AsInt32() {
		if idx := int(rawIdx); idx < 0 || idx >= numEmbeddings {
			panic(fmt.Sprintf("webgpu: embedding: index %d out of bounds [0, %d)", idx, numEmbeddings))
		}
	}

	indicesShape := indices.Shape()
	outShape := make(tensor.Shape, len(indicesShape)+1)
	copy(outShape, indicesShape)
	outShape[len(outShape)-1] = weightShape[1]

	result, err := b.runEmbedding(weight, indices, outShape)
	if err != nil {
		panic("webgpu: Embedding: " + err.Error())
	}
	return result
}

// Conv2D performs 2D convolution on GPU.
//
// Input shape:  [batch, inChannels, height, width]
// Kernel shape: [outChannels, inChannels, kernelH, kernelW]
// Output shape: [batch, outChannels, outH, outW]
func (b *Backend) Conv2D(input, kernel *tensor.RawTensor, stride, padding int) *tensor.RawTensor {
	inputShape := input.Shape()
	kernelShape := kernel.Shape()

	if len(inputShape) != 4 {
		panic(fmt.Sprintf("webgpu: conv2d: input must be 4D [N,C,H,W], got %dD", len(inputShape)))
	}
	if len(kernelShape) != 4 {
		panic(fmt.Sprintf("webgpu: conv2d: kernel must be 4D [O,I,KH,KW], got %dD", len(kernelShape)))
	}
	if stride <= 0 {
		panic(fmt.Sprintf("webgpu: conv2d: invalid stride %d", stride))
	}
	if padding < 0 {
		panic(fmt.Sprintf("webgpu: conv2d: invalid padding %d", padding))
	}
	if inputShape[1] != kernelShape[1] {
		panic(fmt.Sprintf("webgpu: conv2d: input channels %d != kernel channels %d", inputShape[1], kernelShape[1]))
	}

	hOut := (inputShape[2]+2*padding-kernelShape[2])/stride + 1
	wOut := (inputShape[3]+2*padding-kernelShape[3])/stride + 1
	if hOut <= 0 || wOut <= 0 {
		panic(fmt.Sprintf("webgpu: conv2d: invalid output dimensions %dx%d (check stride/padding)", hOut, wOut))
	}

	result, err := b.runConv2D(input, kernel, stride, padding)
	if err != nil {
		panic("webgpu: Conv2D: " + err.Error())
	}
	return result
}

// MaxPool2D performs 2D max pooling on GPU. Padded positions never win the
// max; the window maximum is taken over valid input pixels only.
func (b *Backend) MaxPool2D(input *tensor.RawTensor, kernelSize, stride, padding int) *tensor.RawTensor {
	inputShape := input.Shape()
	if len(inputShape) != 4 {
		panic(fmt.Sprintf("webgpu: maxpool2d: expected 4D input [N,C,H,W], got %dD", len(inputShape)))
	}
	if kernelSize <= 0 {
		panic(fmt.Sprintf("webgpu: maxpool2d: invalid kernel size %d", kernelSize))
	}
	if stride <= 0 {
		panic(fmt.Sprintf("webgpu: maxpool2d: invalid stride %d", stride))
	}
	if padding < 0 || 2*padding > kernelSize {
		panic(fmt.Sprintf("webgpu: maxpool2d: padding %d must be in [0, kernelSize/2]", padding))
	}

	hOut := (inputShape[2]+2*padding-kernelSize)/stride + 1
	wOut := (inputShape[3]+2*padding-kernelSize)/stride + 1
	if hOut <= 0 || wOut <= 0 {
		panic(fmt.Sprintf("webgpu: maxpool2d: invalid output dimensions %dx%d (kernel=%d, stride=%d, input=%dx%d)",
			hOut, wOut, kernelSize, stride, inputShape[2], inputShape[3]))
	}

	result, err := b.runMaxPool2D(input, kernelSize, stride, padding)
	if err != nil {
		panic("webgpu: MaxPool2D: " + err.Error())
	}
	return result
}

// Conv2DInputBackward is not implemented on GPU; train on the CPU backend.
//
//nolint:revive // Parameters unused in stub implementation.
func (b *Backend) Conv2DInputBackward(input, kernel, grad *tensor.RawTensor, stride, padding int) *tensor.RawTensor {
	panic("webgpu: Conv2DInputBackward not implemented")
}

// Conv2DKernelBackward is not implemented on GPU; train on the CPU backend.
//
//nolint:revive // Parameters unused in stub implementation.
func (b *Backend) Conv2DKernelBackward(input, kernel, grad *tensor.RawTensor, stride, padding int) *tensor.RawTensor {
	panic("webgpu: Conv2DKernelBackward not implemented")
}

// MaxPool2DBackward is not implemented on GPU; train on the CPU backend.
//
//nolint:revive // Parameters unused in stub implementation.
func (b *Backend) MaxPool2DBackward(input, grad *tensor.RawTensor, maxIndices []int) *tensor.RawTensor {
	panic("webgpu: MaxPool2DBackward not implemented")
}

// Cast converts the tensor to a different data type on the host.
// Returns the input unchanged when the dtype already matches.
func (b *Backend) Cast(x *tensor.RawTensor, dtype tensor.DataType) *tensor.RawTensor {
	if x.DType() == dtype {
		return x
	}

	result := newHostResult(x.Shape(), dtype, "cast")

	switch dtype {
	case tensor.Float32:
		castToFloat32(result.AsFloat32(), x)
	case tensor.Float64:
		castToFloat64(result.AsFloat64(), x)
	case tensor.Int32:
		castToInt32(result.AsInt32(), x)
	case tensor.Int64:
		castToInt64(result.AsInt64(), x)
	default:
		panic(fmt.Sprintf("webgpu: cast: unsupported target dtype %s", dtype))
	}

	return result
}

func castToFloat32(dst []float32, x *tensor.RawTensor) {
	switch x.DType() {
	case tensor.Float64:
		for i, v := range x.AsFloat64() {
			dst[i] = float32(v)
		}
	case tensor.Int32:
		for i, v := range x.AsInt32() {
			dst[i] = float32(v)
		}
	case tensor.Int64:
		for i, v := range x.AsInt64() {
			dst[i] = float32(v)
		}
	default:
		panic(fmt.Sprintf("webgpu: cast: unsupported conversion %s -> float32", x.DType()))
	}
}

func castToFloat64(dst []float64, x *tensor.RawTensor) {
	switch x.DType() {
	case tensor.Float32:
		for i, v := range x.AsFloat32() {
			dst[i] = float64(v)
		}
	case tensor.Int32:
		for i, v := range x.AsInt32() {
			dst[i] = float64(v)
		}
	case tensor.Int64:
		for i, v := range x.AsInt64() {
			dst[i] = float64(v)
		}
	default:
		panic(fmt.Sprintf("webgpu: cast: unsupported conversion %s -> float64", x.DType()))
	}
}

func castToInt32(dst []int32, x *tensor.RawTensor) {
	switch x.DType() {
	case tensor.Float32:
		for i, v := range x.AsFloat32() {
			dst[i] = int32(v)
		}
	case tensor.Float64:
		for i, v := range x.AsFloat64() {
			dst[i] = int32(v)
		}
	case tensor.Int64:
		for i, v := range x.AsInt64() {
			//nolint:gosec // G115: token ids and gate flags fit int32.
			dst[i] = int32(v)
		}
	default:
		panic(fmt.Sprintf("webgpu: cast: unsupported conversion %s -> int32", x.DType()))
	}
}

func castToInt64(dst []int64, x *tensor.RawTensor) {
	switch x.DType() {
	case tensor.Float32:
		for i, v := range x.AsFloat32() {
			dst[i] = int64(v)
		}
	case tensor.Float64:
		for i, v := range x.AsFloat64() {
			dst[i] = int64(v)
		}
	case tensor.Int32:
		for i, v := range x.AsInt32() {
			dst[i] = int64(v)
		}
	default:
		panic(fmt.Sprintf("webgpu: cast: unsupported conversion %s -> int64", x.DType()))
	}
}

// broadcastPair expands both operands to their common broadcast shape.
// Expansion happens host-side; the binary shaders then run element-aligned.
func broadcastPair(a, other *tensor.RawTensor, op string) (*tensor.RawTensor, *tensor.RawTensor) {
	outShape, needsBroadcast, err := tensor.BroadcastShapes(a.Shape(), other.Shape())
	if err != nil {
		panic(fmt.Sprintf("webgpu: %s: %v", op, err))
	}
	if !needsBroadcast && a.Shape().Equal(other.Shape()) {
		return a, other
	}
	return expandTo(a, outShape), expandTo(other, outShape)
}

// expandTo materializes x broadcast to outShape. Broadcast dimensions read
// with stride zero, so the copy works on raw bytes for any dtype.
func expandTo(x *tensor.RawTensor, outShape tensor.Shape) *tensor.RawTensor {
	srcShape := x.Shape()
	if srcShape.Equal(outShape) {
		return x
	}

	result := newHostResult(outShape, x.DType(), "broadcast")

	offset := len(outShape) - len(srcShape)
	srcStrides := srcShape.ComputeStrides()
	strides := make([]int, len(outShape))
	for i := range outShape {
		if si := i - offset; si >= 0 && srcShape[si] != 1 {
			strides[i] = srcStrides[si]
		}
	}

	elemSize := x.DType().Size()
	outStrides := outShape.ComputeStrides()
	src, dst := x.Data(), result.Data()
	for i := 0; i < outShape.NumElements(); i++ {
		rem := i
		srcIdx := 0
		for d := range outShape {
			coord := rem / outStrides[d]
			rem %= outStrides[d]
			srcIdx += coord * strides[d]
		}
		copy(dst[i*elemSize:(i+1)*elemSize], src[srcIdx*elemSize:(srcIdx+1)*elemSize])
	}

	return result
}

// newHostResult allocates a WebGPU-tagged tensor for host-computed ops.
func newHostResult(shape tensor.Shape, dtype tensor.DataType, op string) *tensor.RawTensor {
	result, err := tensor.NewRaw(shape, dtype, tensor.WebGPU)
	if err != nil {
		panic(fmt.Sprintf("webgpu: %s: failed to create result tensor: %v", op, err))
	}
	return result
}

// normalizeDim resolves negative dims and validates the range.
func normalizeDim(dim, ndim int, op string) int {
	if dim < 0 {
		dim = ndim + dim
	}
	if dim < 0 || dim >= ndim {
		panic(fmt.Sprintf("webgpu: %s: dimension %d out of range for %dD tensor", op, dim, ndim))
	}
	return dim
}

// splitAtDim factors a shape into (outer, dim, inner) extents around dim.
// Flat index i decomposes as i = (o*dimSize + d)*inner + in.
func splitAtDim(shape tensor.Shape, dim int) (outer, dimSize, inner int) {
	outer, inner = 1, 1
	for i := 0; i < dim; i++ {
		outer *= shape[i]
	}
	for i := dim + 1; i < len(shape); i++ {
		inner *= shape[i]
	}
	return outer, shape[dim], inner
}

// reducedShape removes or collapses dim from shape.
func reducedShape(shape tensor.Shape, dim int, keepDim bool) tensor.Shape {
	if keepDim {
		out := shape.Clone()
		out[dim] = 1
		return out
	}
	out := make(tensor.Shape, 0, len(shape)-1)
	for i, d := range shape {
		if i != dim {
			out = append(out, d)
		}
	}
	return out
}

// toFloat32 converts a scalar of any supported numeric type.
func toFloat32(v any) float32 {
	switch s := v.(type) {
	case float32:
		return s
	case float64:
		return float32(s)
	case int:
		return float32(s)
	case int32:
		return float32(s)
	case int64:
		return float32(s)
	default:
		panic(fmt.Sprintf("webgpu: unsupported scalar type %T", v))
	}
}
