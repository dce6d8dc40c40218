package tensor

// Backend is the device abstraction for tensor computation.
//
// Implementations operate on RawTensors and are free to exploit
// RawTensor.IsUnique for inplace updates. Shape or dtype violations panic:
// they are programming errors fatal to the current forward pass, surfaced
// unmodified to the caller.
//
// The operation set is tailored to recurrent captioning models and the
// convolutional feature backbone: elementwise arithmetic with broadcasting,
// 2D matrix products, the reductions and indexing ops the encoder/decoder
// loops need, and the convolution ops the visual backbone needs.
type Backend interface {
	// Name returns a human-readable backend name.
	Name() string
	// Device returns the device this backend computes on.
	Device() Device

	// Elementwise binary operations with NumPy-style broadcasting.
	Add(a, b *RawTensor) *RawTensor
	Sub(a, b *RawTensor) *RawTensor
	Mul(a, b *RawTensor) *RawTensor
	Div(a, b *RawTensor) *RawTensor

	// Scalar operations. The scalar is converted to the tensor's dtype.
	AddScalar(x *RawTensor, scalar any) *RawTensor
	MulScalar(x *RawTensor, scalar any) *RawTensor

	// Elementwise unary operations.
	Neg(x *RawTensor) *RawTensor
	Exp(x *RawTensor) *RawTensor
	Log(x *RawTensor) *RawTensor
	Sqrt(x *RawTensor) *RawTensor

	// GreaterScalar returns a tensor of the input's dtype holding 1 where
	// x > threshold and 0 elsewhere. This is the binarization primitive of
	// the boundary gate.
	GreaterScalar(x *RawTensor, threshold float64) *RawTensor

	// MatMul computes the 2D matrix product (M, K) @ (K, N) -> (M, N).
	MatMul(a, b *RawTensor) *RawTensor
	// Transpose swaps the two dimensions of a 2D tensor.
	Transpose(x *RawTensor) *RawTensor

	// Softmax computes softmax along dim (only the last dim is required).
	Softmax(x *RawTensor, dim int) *RawTensor

	// Reductions.
	Sum(x *RawTensor) *RawTensor
	SumDim(x *RawTensor, dim int, keepDim bool) *RawTensor
	MeanDim(x *RawTensor, dim int, keepDim bool) *RawTensor
	// Argmax returns int32 indices of the maximum along dim.
	Argmax(x *RawTensor, dim int) *RawTensor

	// Shape manipulation. Reshape shares the buffer when possible.
	Reshape(x *RawTensor, shape Shape) *RawTensor
	Cat(tensors []*RawTensor, dim int) *RawTensor
	Chunk(x *RawTensor, chunks, dim int) []*RawTensor

	// Embedding looks up rows of weight ([vocab, dim]) by int32 indices.
	// The result shape is the indices shape with dim appended.
	Embedding(weight, indices *RawTensor) *RawTensor

	// Convolution ops for the visual backbone (NCHW layout).
	Conv2D(input, kernel *RawTensor, stride, padding int) *RawTensor
	MaxPool2D(input *RawTensor, kernelSize, stride, padding int) *RawTensor

	// Gradient primitives for the convolution ops. The autodiff layer calls
	// these during the backward pass; maxIndices holds the flat input index
	// of the winning element for every pooling output.
	Conv2DInputBackward(input, kernel, grad *RawTensor, stride, padding int) *RawTensor
	Conv2DKernelBackward(input, kernel, grad *RawTensor, stride, padding int) *RawTensor
	MaxPool2DBackward(input, grad *RawTensor, maxIndices []int) *RawTensor

	// Cast converts the tensor to another dtype.
	Cast(x *RawTensor, dtype DataType) *RawTensor
}
