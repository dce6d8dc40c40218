package webgpu

import (
	"encoding/binary"
	"fmt"
	"math"
	"unsafe"

	"github.com/banet-ml/banet/internal/tensor"
	"github.com/go-webgpu/webgpu/wgpu"
)

// Buffer usage combinations shared by the runners.
const (
	storageUsage = wgpu.BufferUsageStorage | wgpu.BufferUsageCopySrc | wgpu.BufferUsageCopyDst
	stagingUsage = wgpu.BufferUsageMapRead | wgpu.BufferUsageCopyDst
)

// compileShader compiles WGSL shader code into a ShaderModule.
// Results are cached in the Backend's shaders map.
func (b *Backend) compileShader(name, code string) *wgpu.ShaderModule {
	b.mu.RLock()
	if shader, exists := b.shaders[name]; exists {
		b.mu.RUnlock()
		return shader
	}
	b.mu.RUnlock()

	shader := b.device.CreateShaderModuleWGSL(code)

	b.mu.Lock()
	b.shaders[name] = shader
	b.mu.Unlock()

	return shader
}

// getOrCreatePipeline returns a cached ComputePipeline or creates a new one.
func (b *Backend) getOrCreatePipeline(name string, shader *wgpu.ShaderModule) *wgpu.ComputePipeline {
	b.mu.RLock()
	if pipeline, exists := b.pipelines[name]; exists {
		b.mu.RUnlock()
		return pipeline
	}
	b.mu.RUnlock()

	pipeline := b.device.CreateComputePipelineSimple(nil, shader, "main")

	b.mu.Lock()
	b.pipelines[name] = pipeline
	b.mu.Unlock()

	return pipeline
}

// createBuffer creates a GPU buffer and uploads the given data.
// Upload buffers are mapped at creation, so they bypass the pool.
func (b *Backend) createBuffer(data []byte, usage wgpu.BufferUsage) *wgpu.Buffer {
	size := uint64(len(data))

	buffer := b.device.CreateBuffer(&wgpu.BufferDescriptor{
		Usage:            usage,
		Size:             size,
		MappedAtCreation: wgpu.True,
	})

	mappedPtr := buffer.GetMappedRange(0, size)
	//nolint:gosec // unsafe.Slice for zero-copy conversion from unsafe.Pointer
	mappedSlice := unsafe.Slice((*byte)(mappedPtr), size)
	copy(mappedSlice, data)
	buffer.Unmap()

	return buffer
}

// createUniformBuffer creates a uniform buffer with proper alignment.
// Uniform buffers require 16-byte alignment for struct fields.
func (b *Backend) createUniformBuffer(data []byte) *wgpu.Buffer {
	size := uint64(len(data))
	alignedSize := (size + 15) &^ 15

	buffer := b.device.CreateBuffer(&wgpu.BufferDescriptor{
		Usage:            wgpu.BufferUsageUniform | wgpu.BufferUsageCopyDst,
		Size:             alignedSize,
		MappedAtCreation: wgpu.True,
	})

	mappedPtr := buffer.GetMappedRange(0, alignedSize)
	//nolint:gosec // unsafe.Slice for zero-copy conversion from unsafe.Pointer
	mappedSlice := unsafe.Slice((*byte)(mappedPtr), alignedSize)
	copy(mappedSlice, data)
	buffer.Unmap()

	return buffer
}

// acquireResultBuffer takes a shader-writable buffer from the pool.
// Pair with releaseResultBuffer after the readback.
func (b *Backend) acquireResultBuffer(size uint64) *wgpu.Buffer {
	return b.bufferPool.Acquire(size, storageUsage)
}

func (b *Backend) releaseResultBuffer(buffer *wgpu.Buffer, size uint64) {
	b.bufferPool.Release(buffer, size, storageUsage)
}

// readBuffer reads data back from a GPU buffer to CPU memory.
// Uses a pooled staging buffer since storage buffers can't be mapped directly.
func (b *Backend) readBuffer(srcBuffer *wgpu.Buffer, size uint64) ([]byte, error) {
	stagingBuffer := b.bufferPool.Acquire(size, stagingUsage)
	defer b.bufferPool.Release(stagingBuffer, size, stagingUsage)

	encoder := b.device.CreateCommandEncoder(nil)
	encoder.CopyBufferToBuffer(srcBuffer, 0, stagingBuffer, 0, size)
	cmdBuffer := encoder.Finish(nil)
	b.queue.Submit(cmdBuffer)

	err := stagingBuffer.MapAsync(b.device, wgpu.MapModeRead, 0, size)
	if err != nil {
		return nil, fmt.Errorf("failed to map staging buffer: %w", err)
	}

	mappedPtr := stagingBuffer.GetMappedRange(0, size)
	//nolint:gosec // unsafe.Slice for zero-copy conversion from unsafe.Pointer
	mappedSlice := unsafe.Slice((*byte)(mappedPtr), size)
	result := make([]byte, size)
	copy(result, mappedSlice)

	stagingBuffer.Unmap()

	return result, nil
}

// dispatch runs a prepared pipeline over the given workgroup grid and submits.
func (b *Backend) dispatch(pipeline *wgpu.ComputePipeline, bindGroup *wgpu.BindGroup, x, y, z uint32) {
	encoder := b.device.CreateCommandEncoder(nil)
	computePass := encoder.BeginComputePass(nil)

	computePass.SetPipeline(pipeline)
	computePass.SetBindGroup(0, bindGroup, nil)
	computePass.DispatchWorkgroups(x, y, z)
	computePass.End()

	cmdBuffer := encoder.Finish(nil)
	b.queue.Submit(cmdBuffer)
}

// newGPUResult allocates a host tensor tagged with the WebGPU device and
// fills it with the readback bytes.
func newGPUResult(shape tensor.Shape, dtype tensor.DataType, data []byte) (*tensor.RawTensor, error) {
	result, err := tensor.NewRaw(shape, dtype, tensor.WebGPU)
	if err != nil {
		return nil, err
	}
	copy(result.Data(), data)
	return result, nil
}

// elementWorkgroups returns the 1D workgroup count covering n elements.
func elementWorkgroups(n int) uint32 {
	//nolint:gosec // G115: workgroup count is non-negative
	return uint32((n + workgroupSize - 1) / workgroupSize)
}

// runBinaryOp executes a same-shape element-wise binary operation on GPU.
func (b *Backend) runBinaryOp(a, other *tensor.RawTensor, shaderName, shaderCode string) (*tensor.RawTensor, error) {
	if a.DType() != tensor.Float32 {
		return nil, fmt.Errorf("only float32 is supported, got %s", a.DType())
	}
	if !a.Shape().Equal(other.Shape()) {
		return nil, fmt.Errorf("shape mismatch: %v vs %v", a.Shape(), other.Shape())
	}

	numElements := a.NumElements()

	shader := b.compileShader(shaderName, shaderCode)
	pipeline := b.getOrCreatePipeline(shaderName, shader)

	bufferA := b.createBuffer(a.Data(), wgpu.BufferUsageStorage|wgpu.BufferUsageCopySrc)
	defer bufferA.Release()

	bufferOther := b.createBuffer(other.Data(), wgpu.BufferUsageStorage|wgpu.BufferUsageCopySrc)
	defer bufferOther.Release()

	//nolint:gosec // G115: ByteSize() returns a non-negative int
	resultSize := uint64(a.ByteSize())
	bufferResult := b.acquireResultBuffer(resultSize)
	defer b.releaseResultBuffer(bufferResult, resultSize)

	params := make([]byte, 16)
	//nolint:gosec // G115: NumElements() returns a non-negative int
	binary.LittleEndian.PutUint32(params[0:4], uint32(numElements))
	bufferParams := b.createUniformBuffer(params)
	defer bufferParams.Release()

	bindGroupLayout := pipeline.GetBindGroupLayout(0)
	bindGroup := b.device.CreateBindGroupSimple(bindGroupLayout, []wgpu.BindGroupEntry{
		wgpu.BufferBindingEntry(0, bufferA, 0, resultSize),
		wgpu.BufferBindingEntry(1, bufferOther, 0, resultSize),
		wgpu.BufferBindingEntry(2, bufferResult, 0, resultSize),
		wgpu.BufferBindingEntry(3, bufferParams, 0, 16),
	})
	defer bindGroup.Release()

	b.dispatch(pipeline, bindGroup, elementWorkgroups(numElements), 1, 1)

	resultData, err := b.readBuffer(bufferResult, resultSize)
	if err != nil {
		return nil, err
	}

	return newGPUResult(a.Shape(), a.DType(), resultData)
}

// runUnaryOp executes an element-wise unary operation on GPU.
func (b *Backend) runUnaryOp(input *tensor.RawTensor, shaderName, shaderCode string) (*tensor.RawTensor, error) {
	if input.DType() != tensor.Float32 {
		return nil, fmt.Errorf("only float32 is supported, got %s", input.DType())
	}

	numElements := input.NumElements()

	shader := b.compileShader(shaderName, shaderCode)
	pipeline := b.getOrCreatePipeline(shaderName, shader)

	bufferInput := b.createBuffer(input.Data(), wgpu.BufferUsageStorage|wgpu.BufferUsageCopySrc)
	defer bufferInput.Release()

	//nolint:gosec // G115: ByteSize() returns a non-negative int
	resultSize := uint64(input.ByteSize())
	bufferResult := b.acquireResultBuffer(resultSize)
	defer b.releaseResultBuffer(bufferResult, resultSize)

	params := make([]byte, 16)
	//nolint:gosec // G115: NumElements() returns a non-negative int
	binary.LittleEndian.PutUint32(params[0:4], uint32(numElements))
	bufferParams := b.createUniformBuffer(params)
	defer bufferParams.Release()

	bindGroupLayout := pipeline.GetBindGroupLayout(0)
	bindGroup := b.device.CreateBindGroupSimple(bindGroupLayout, []wgpu.BindGroupEntry{
		wgpu.BufferBindingEntry(0, bufferInput, 0, resultSize),
		wgpu.BufferBindingEntry(1, bufferResult, 0, resultSize),
		wgpu.BufferBindingEntry(2, bufferParams, 0, 16),
	})
	defer bindGroup.Release()

	b.dispatch(pipeline, bindGroup, elementWorkgroups(numElements), 1, 1)

	resultData, err := b.readBuffer(bufferResult, resultSize)
	if err != nil {
		return nil, err
	}

	return newGPUResult(input.Shape(), input.DType(), resultData)
}

// runScalarOp executes an element-wise operation parameterized by one f32
// scalar (scalar add/mul, threshold comparison).
func (b *Backend) runScalarOp(input *tensor.RawTensor, scalar float32, shaderName, shaderCode string) (*tensor.RawTensor, error) {
	if input.DType() != tensor.Float32 {
		return nil, fmt.Errorf("only float32 is supported, got %s", input.DType())
	}

	numElements := input.NumElements()

	shader := b.compileShader(shaderName, shaderCode)
	pipeline := b.getOrCreatePipeline(shaderName, shader)

	bufferInput := b.createBuffer(input.Data(), wgpu.BufferUsageStorage|wgpu.BufferUsageCopySrc)
	defer bufferInput.Release()

	//nolint:gosec // G115: ByteSize() returns a non-negative int
	resultSize := uint64(input.ByteSize())
	bufferResult := b.acquireResultBuffer(resultSize)
	defer b.releaseResultBuffer(bufferResult, resultSize)

	// Params layout: size u32 at offset 0, scalar f32 at offset 4.
	params := make([]byte, 16)
	//nolint:gosec // G115: NumElements() returns a non-negative int
	binary.LittleEndian.PutUint32(params[0:4], uint32(numElements))
	binary.LittleEndian.PutUint32(params[4:8], math.Float32bits(scalar))
	bufferParams := b.createUniformBuffer(params)
	defer bufferParams.Release()

	bindGroupLayout := pipeline.GetBindGroupLayout(0)
	bindGroup := b.device.CreateBindGroupSimple(bindGroupLayout, []wgpu.BindGroupEntry{
		wgpu.BufferBindingEntry(0, bufferInput, 0, resultSize),
		wgpu.BufferBindingEntry(1, bufferResult, 0, resultSize),
		wgpu.BufferBindingEntry(2, bufferParams, 0, 16),
	})
	defer bindGroup.Release()

	b.dispatch(pipeline, bindGroup, elementWorkgroups(numElements), 1, 1)

	resultData, err := b.readBuffer(bufferResult, resultSize)
	if err != nil {
		return nil, err
	}

	return newGPUResult(input.Shape(), input.DType(), resultData)
}

// runMatMul executes matrix multiplication C = A @ B on GPU.
// A is [M, K], B is [K, N], C is [M, N].
func (b *Backend) runMatMul(a, other *tensor.RawTensor) (*tensor.RawTensor, error) {
	if a.DType() != tensor.Float32 {
		return nil, fmt.Errorf("only float32 is supported, got %s", a.DType())
	}
	if len(a.Shape()) != 2 || len(other.Shape()) != 2 {
		return nil, fmt.Errorf("matmul requires 2D tensors, got %v and %v", a.Shape(), other.Shape())
	}

	//nolint:gosec // G115: shape dimensions are non-negative
	m := uint32(a.Shape()[0])
	//nolint:gosec // G115: shape dimensions are non-negative
	k := uint32(a.Shape()[1])
	//nolint:gosec // G115: shape dimensions are non-negative
	n := uint32(other.Shape()[1])

	if other.Shape()[0] != int(k) {
		return nil, fmt.Errorf("matmul shape mismatch: [%d,%d] @ [%d,%d]", m, k, other.Shape()[0], n)
	}

	shader := b.compileShader("matmul", matmulShader)
	pipeline := b.getOrCreatePipeline("matmul", shader)

	bufferA := b.createBuffer(a.Data(), wgpu.BufferUsageStorage|wgpu.BufferUsageCopySrc)
	defer bufferA.Release()

	bufferOther := b.createBuffer(other.Data(), wgpu.BufferUsageStorage|wgpu.BufferUsageCopySrc)
	defer bufferOther.Release()

	resultShape := tensor.Shape{int(m), int(n)}
	resultSize := uint64(m) * uint64(n) * 4
	bufferResult := b.acquireResultBuffer(resultSize)
	defer b.releaseResultBuffer(bufferResult, resultSize)

	params := make([]byte, 16)
	binary.LittleEndian.PutUint32(params[0:4], m)
	binary.LittleEndian.PutUint32(params[4:8], k)
	binary.LittleEndian.PutUint32(params[8:12], n)
	bufferParams := b.createUniformBuffer(params)
	defer bufferParams.Release()

	bindGroupLayout := pipeline.GetBindGroupLayout(0)
	//nolint:gosec // G115: ByteSize() returns a non-negative int
	bindGroup := b.device.CreateBindGroupSimple(bindGroupLayout, []wgpu.BindGroupEntry{
		wgpu.BufferBindingEntry(0, bufferA, 0, uint64(a.ByteSize())),
		wgpu.BufferBindingEntry(1, bufferOther, 0, uint64(other.ByteSize())),
		wgpu.BufferBindingEntry(2, bufferResult, 0, resultSize),
		wgpu.BufferBindingEntry(3, bufferParams, 0, 16),
	})
	defer bindGroup.Release()

	// 16x16 threads per workgroup over the output matrix.
	workgroupsX := (n + 15) / 16
	workgroupsY := (m + 15) / 16
	b.dispatch(pipeline, bindGroup, workgroupsX, workgroupsY, 1)

	resultData, err := b.readBuffer(bufferResult, resultSize)
	if err != nil {
		return nil, err
	}

	return newGPUResult(resultShape, tensor.Float32, resultData)
}

// runTranspose executes 2D matrix transpose on GPU.
func (b *Backend) runTranspose(input *tensor.RawTensor) (*tensor.RawTensor, error) {
	if input.DType() != tensor.Float32 {
		return nil, fmt.Errorf("only float32 is supported, got %s", input.DType())
	}
	if len(input.Shape()) != 2 {
		return nil, fmt.Errorf("transpose requires 2D tensor, got %v", input.Shape())
	}

	//nolint:gosec // G115: shape dimensions are non-negative
	rows := uint32(input.Shape()[0])
	//nolint:gosec // G115: shape dimensions are non-negative
	cols := uint32(input.Shape()[1])

	shader := b.compileShader("transpose", transposeShader)
	pipeline := b.getOrCreatePipeline("transpose", shader)

	bufferInput := b.createBuffer(input.Data(), wgpu.BufferUsageStorage|wgpu.BufferUsageCopySrc)
	defer bufferInput.Release()

	//nolint:gosec // G115: ByteSize() returns a non-negative int
	resultSize := uint64(input.ByteSize())
	bufferResult := b.acquireResultBuffer(resultSize)
	defer b.releaseResultBuffer(bufferResult, resultSize)

	params := make([]byte, 16)
	binary.LittleEndian.PutUint32(params[0:4], rows)
	binary.LittleEndian.PutUint32(params[4:8], cols)
	bufferParams := b.createUniformBuffer(params)
	defer bufferParams.Release()

	bindGroupLayout := pipeline.GetBindGroupLayout(0)
	bindGroup := b.device.CreateBindGroupSimple(bindGroupLayout, []wgpu.BindGroupEntry{
		wgpu.BufferBindingEntry(0, bufferInput, 0, resultSize),
		wgpu.BufferBindingEntry(1, bufferResult, 0, resultSize),
		wgpu.BufferBindingEntry(2, bufferParams, 0, 16),
	})
	defer bindGroup.Release()

	workgroupsX := (cols + 15) / 16
	workgroupsY := (rows + 15) / 16
	b.dispatch(pipeline, bindGroup, workgroupsX, workgroupsY, 1)

	resultData, err := b.readBuffer(bufferResult, resultSize)
	if err != nil {
		return nil, err
	}

	return newGPUResult(tensor.Shape{int(cols), int(rows)}, tensor.Float32, resultData)
}

// runLaneOp executes a (outer, dim, inner) strided kernel: softmax, sumDim or
// argmax. One GPU thread handles one of the outer*inner lanes. The caller
// shapes the returned tensor; outElems and outDType describe the flat result.
func (b *Backend) runLaneOp(input *tensor.RawTensor, outer, dimSize, inner, outElems int,
	outShape tensor.Shape, outDType tensor.DataType, shaderName, shaderCode string) (*tensor.RawTensor, error) {
	if input.DType() != tensor.Float32 {
		return nil, fmt.Errorf("only float32 is supported, got %s", input.DType())
	}

	shader := b.compileShader(shaderName, shaderCode)
	pipeline := b.getOrCreatePipeline(shaderName, shader)

	bufferInput := b.createBuffer(input.Data(), wgpu.BufferUsageStorage|wgpu.BufferUsageCopySrc)
	defer bufferInput.Release()

	//nolint:gosec // G115: element counts are non-negative
	resultSize := uint64(outElems * outDType.Size())
	bufferResult := b.acquireResultBuffer(resultSize)
	defer b.releaseResultBuffer(bufferResult, resultSize)

	params := make([]byte, 16)
	//nolint:gosec // G115: shape extents are non-negative
	binary.LittleEndian.PutUint32(params[0:4], uint32(outer))
	//nolint:gosec // G115: shape extents are non-negative
	binary.LittleEndian.PutUint32(params[4:8], uint32(dimSize))
	//nolint:gosec // G115: shape extents are non-negative
	binary.LittleEndian.PutUint32(params[8:12], uint32(inner))
	bufferParams := b.createUniformBuffer(params)
	defer bufferParams.Release()

	bindGroupLayout := pipeline.GetBindGroupLayout(0)
	//nolint:gosec // G115: ByteSize() returns a non-negative int
	bindGroup := b.device.CreateBindGroupSimple(bindGroupLayout, []wgpu.BindGroupEntry{
		wgpu.BufferBindingEntry(0, bufferInput, 0, uint64(input.ByteSize())),
		wgpu.BufferBindingEntry(1, bufferResult, 0, resultSize),
		wgpu.BufferBindingEntry(2, bufferParams, 0, 16),
	})
	defer bindGroup.Release()

	b.dispatch(pipeline, bindGroup, elementWorkgroups(outer*inner), 1, 1)

	resultData, err := b.readBuffer(bufferResult, resultSize)
	if err != nil {
		return nil, err
	}

	return newGPUResult(outShape, outDType, resultData)
}

// runPartialSum reduces the input to ceil(n/256) workgroup partials on GPU.
// The caller adds the partials to finish the reduction.
func (b *Backend) runPartialSum(input *tensor.RawTensor) ([]float32, error) {
	if input.DType() != tensor.Float32 {
		return nil, fmt.Errorf("only float32 is supported, got %s", input.DType())
	}

	numElements := input.NumElements()
	numPartials := int(elementWorkgroups(numElements))

	shader := b.compileShader("partialSum", partialSumShader)
	pipeline := b.getOrCreatePipeline("partialSum", shader)

	bufferInput := b.createBuffer(input.Data(), wgpu.BufferUsageStorage|wgpu.BufferUsageCopySrc)
	defer bufferInput.Release()

	resultSize := uint64(numPartials) * 4
	bufferResult := b.acquireResultBuffer(resultSize)
	defer b.releaseResultBuffer(bufferResult, resultSize)

	params := make([]byte, 16)
	//nolint:gosec // G115: NumElements() returns a non-negative int
	binary.LittleEndian.PutUint32(params[0:4], uint32(numElements))
	bufferParams := b.createUniformBuffer(params)
	defer bufferParams.Release()

	bindGroupLayout := pipeline.GetBindGroupLayout(0)
	//nolint:gosec // G115: ByteSize() returns a non-negative int
	bindGroup := b.device.CreateBindGroupSimple(bindGroupLayout, []wgpu.BindGroupEntry{
		wgpu.BufferBindingEntry(0, bufferInput, 0, uint64(input.ByteSize())),
		wgpu.BufferBindingEntry(1, bufferResult, 0, resultSize),
		wgpu.BufferBindingEntry(2, bufferParams, 0, 16),
	})
	defer bindGroup.Release()

	b.dispatch(pipeline, bindGroup, elementWorkgroups(numElements), 1, 1)

	resultData, err := b.readBuffer(bufferResult, resultSize)
	if err != nil {
		return nil, err
	}

	partials := make([]float32, numPartials)
	for i := range partials {
		partials[i] = math.Float32frombits(binary.LittleEndian.Uint32(resultData[i*4 : i*4+4]))
	}
	return partials, nil
}

// runEmbedding gathers weight rows by index on GPU.
// weight: [numEmbeddings, embeddingDim] f32, indices: int32, already
// bounds-checked by the caller.
func (b *Backend) runEmbedding(weight, indices *tensor.RawTensor, outShape tensor.Shape) (*tensor.RawTensor, error) {
	if weight.DType() != tensor.Float32 {
		return nil, fmt.Errorf("only float32 is supported, got %s", weight.DType())
	}

	numIndices := indices.NumElements()
	embeddingDim := weight.Shape()[1]

	shader := b.compileShader("embedding", embeddingShader)
	pipeline := b.getOrCreatePipeline("embedding", shader)

	bufferWeight := b.createBuffer(weight.Data(), wgpu.BufferUsageStorage|wgpu.BufferUsageCopySrc)
	defer bufferWeight.Release()

	bufferIndices := b.createBuffer(indices.Data(), wgpu.BufferUsageStorage|wgpu.BufferUsageCopySrc)
	defer bufferIndices.Release()

	outElems := numIndices * embeddingDim
	//nolint:gosec // G115: element counts are non-negative
	resultSize := uint64(outElems) * 4
	bufferResult := b.acquireResultBuffer(resultSize)
	defer b.releaseResultBuffer(bufferResult, resultSize)

	params := make([]byte, 16)
	//nolint:gosec // G115: element counts are non-negative
	binary.LittleEndian.PutUint32(params[0:4], uint32(numIndices))
	//nolint:gosec // G115: element counts are non-negative
	binary.LittleEndian.PutUint32(params[4:8], uint32(embeddingDim))
	bufferParams := b.createUniformBuffer(params)
	defer bufferParams.Release()

	bindGroupLayout := pipeline.GetBindGroupLayout(0)
	//nolint:gosec // G115: ByteSize() returns a non-negative int
	bindGroup := b.device.CreateBindGroupSimple(bindGroupLayout, []wgpu.BindGroupEntry{
		wgpu.BufferBindingEntry(0, bufferWeight, 0, uint64(weight.ByteSize())),
		wgpu.BufferBindingEntry(1, bufferIndices, 0, uint64(indices.ByteSize())),
		wgpu.BufferBindingEntry(2, bufferResult, 0, resultSize),
		wgpu.BufferBindingEntry(3, bufferParams, 0, 16),
	})
	defer bindGroup.Release()

	b.dispatch(pipeline, bindGroup, elementWorkgroups(outElems), 1, 1)

	resultData, err := b.readBuffer(bufferResult, resultSize)
	if err != nil {
		return nil, err
	}

	return newGPUResult(outShape, tensor.Float32, resultData)
}

// runConv2D executes 2D convolution on GPU.
// One thread computes one output pixel; z indexes (batch, outChannel) pairs.
func (b *Backend) runConv2D(input, kernel *tensor.RawTensor, stride, padding int) (*tensor.RawTensor, error) {
	if input.DType() != tensor.Float32 {
		return nil, fmt.Errorf("only float32 is supported, got %s", input.DType())
	}

	inShape := input.Shape()
	kShape := kernel.Shape()
	n, cIn, h, w := inShape[0], inShape[1], inShape[2], inShape[3]
	cOut, kh, kw := kShape[0], kShape[2], kShape[3]

	hOut := (h+2*padding-kh)/stride + 1
	wOut := (w+2*padding-kw)/stride + 1

	shader := b.compileShader("conv2d", conv2dShader)
	pipeline := b.getOrCreatePipeline("conv2d", shader)

	bufferInput := b.createBuffer(input.Data(), wgpu.BufferUsageStorage|wgpu.BufferUsageCopySrc)
	defer bufferInput.Release()

	bufferKernel := b.createBuffer(kernel.Data(), wgpu.BufferUsageStorage|wgpu.BufferUsageCopySrc)
	defer bufferKernel.Release()

	outShape := tensor.Shape{n, cOut, hOut, wOut}
	//nolint:gosec // G115: element counts are non-negative
	resultSize := uint64(outShape.NumElements()) * 4
	bufferResult := b.acquireResultBuffer(resultSize)
	defer b.releaseResultBuffer(bufferResult, resultSize)

	params := make([]byte, 36)
	for i, v := range []int{n, cIn, h, w, cOut, kh, kw, stride, padding} {
		//nolint:gosec // G115: convolution extents are non-negative
		binary.LittleEndian.PutUint32(params[i*4:i*4+4], uint32(v))
	}
	bufferParams := b.createUniformBuffer(params)
	defer bufferParams.Release()

	bindGroupLayout := pipeline.GetBindGroupLayout(0)
	//nolint:gosec // G115: ByteSize() returns a non-negative int
	bindGroup := b.device.CreateBindGroupSimple(bindGroupLayout, []wgpu.BindGroupEntry{
		wgpu.BufferBindingEntry(0, bufferInput, 0, uint64(input.ByteSize())),
		wgpu.BufferBindingEntry(1, bufferKernel, 0, uint64(kernel.ByteSize())),
		wgpu.BufferBindingEntry(2, bufferResult, 0, resultSize),
		wgpu.BufferBindingEntry(3, bufferParams, 0, 48),
	})
	defer bindGroup.Release()

	// 8x8 threads per workgroup over the output plane; z covers every
	// (batch, outChannel) pair.
	//nolint:gosec // G115: output extents are non-negative
	b.dispatch(pipeline, bindGroup, uint32((wOut+7)/8), uint32((hOut+7)/8), uint32(n*cOut))

	resultData, err := b.readBuffer(bufferResult, resultSize)
	if err != nil {
		return nil, err
	}

	return newGPUResult(outShape, tensor.Float32, resultData)
}

// runMaxPool2D executes 2D max pooling on GPU.
func (b *Backend) runMaxPool2D(input *tensor.RawTensor, kernelSize, stride, padding int) (*tensor.RawTensor, error) {
	if input.DType() != tensor.Float32 {
		return nil, fmt.Errorf("only float32 is supported, got %s", input.DType())
	}

	inShape := input.Shape()
	n, c, h, w := inShape[0], inShape[1], inShape[2], inShape[3]

	hOut := (h+2*padding-kernelSize)/stride + 1
	wOut := (w+2*padding-kernelSize)/stride + 1

	shader := b.compileShader("maxPool2d", maxPool2dShader)
	pipeline := b.getOrCreatePipeline("maxPool2d", shader)

	bufferInput := b.createBuffer(input.Data(), wgpu.BufferUsageStorage|wgpu.BufferUsageCopySrc)
	defer bufferInput.Release()

	outShape := tensor.Shape{n, c, hOut, wOut}
	//nolint:gosec // G115: element counts are non-negative
	resultSize := uint64(outShape.NumElements()) * 4
	bufferResult := b.acquireResultBuffer(resultSize)
	defer b.releaseResultBuffer(bufferResult, resultSize)

	params := make([]byte, 28)
	for i, v := range []int{n, c, h, w, kernelSize, stride, padding} {
		//nolint:gosec // G115: pooling extents are non-negative
		binary.LittleEndian.PutUint32(params[i*4:i*4+4], uint32(v))
	}
	bufferParams := b.createUniformBuffer(params)
	defer bufferParams.Release()

	bindGroupLayout := pipeline.GetBindGroupLayout(0)
	//nolint:gosec // G115: ByteSize() returns a non-negative int
	bindGroup := b.device.CreateBindGroupSimple(bindGroupLayout, []wgpu.BindGroupEntry{
		wgpu.BufferBindingEntry(0, bufferInput, 0, uint64(input.ByteSize())),
		wgpu.BufferBindingEntry(1, bufferResult, 0, resultSize),
		wgpu.BufferBindingEntry(2, bufferParams, 0, 32),
	})
	defer bindGroup.Release()

	//nolint:gosec // G115: output extents are non-negative
	b.dispatch(pipeline, bindGroup, uint32((wOut+7)/8), uint32((hOut+7)/8), uint32(n*c))

	resultData, err := b.readBuffer(bufferResult, resultSize)
	if err != nil {
		return nil, err
	}

	return newGPUResult(outShape, tensor.Float32, resultData)
}
