package serialization

import (
	"encoding/binary"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/banet-ml/banet/internal/tensor"
)

// BanetWriter writes models in .banet format.
type BanetWriter struct {
	file   *os.File
	closed bool
}

// NewBanetWriter creates a new .banet file writer.
func NewBanetWriter(path string) (*BanetWriter, error) {
	//nolint:gosec // G304: the caller chooses where to save the model
	file, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("failed to create file: %w", err)
	}

	return &BanetWriter{file: file}, nil
}

// layoutTensors assigns contiguous offsets to every tensor in the state dict
// and returns the write order alongside the filled metadata entries.
func layoutTensors(stateDict map[string]*tensor.RawTensor) ([]string, []TensorMeta) {
	order := make([]string, 0, len(stateDict))
	metas := make([]TensorMeta, 0, len(stateDict))

	var offset int64
	for name, raw := range stateDict {
		size := int64(raw.ByteSize())
		order = append(order, name)
		metas = append(metas, TensorMeta{
			Name:   name,
			DType:  dtypeToString(raw.DType()),
			Shape:  []int(raw.Shape()),
			Offset: offset,
			Size:   size,
		})
		offset += size
	}

	return order, metas
}

// headerFlags derives the flags bitfield from the header contents.
func headerFlags(header *Header) uint32 {
	var flags uint32
	if len(header.Metadata) > 0 {
		flags |= FlagHasMetadata
	}
	if header.CheckpointMeta != nil && header.CheckpointMeta.IsCheckpoint {
		flags |= FlagHasOptimizer
	}
	return flags
}

// defaultHeader builds a header for writes that do not supply their own.
func defaultHeader(version int, modelType string, tensors []TensorMeta, metadata map[string]string) Header {
	if metadata == nil {
		metadata = make(map[string]string)
	}
	return Header{
		FormatVersion: version,
		BanetVersion:  banetVersion,
		ModelType:     modelType,
		CreatedAt:     time.Now().UTC(),
		Tensors:       tensors,
		Metadata:      metadata,
	}
}

// writeV1 writes the v1 layout (variable preamble, no checksum) to w.
func writeV1(w io.Writer, header Header, stateDict map[string]*tensor.RawTensor, order []string) error {
	headerJSON, err := json.Marshal(header)
	if err != nil {
		return fmt.Errorf("failed to marshal header: %w", err)
	}

	if _, err := w.Write([]byte(MagicBytes)); err != nil {
		return fmt.Errorf("failed to write magic bytes: %w", err)
	}
	if err := binary.Write(w, binary.LittleEndian, uint32(FormatVersion)); err != nil {
		return fmt.Errorf("failed to write version: %w", err)
	}
	if err := binary.Write(w, binary.LittleEndian, headerFlags(&header)); err != nil {
		return fmt.Errorf("failed to write flags: %w", err)
	}
	if err := binary.Write(w, binary.LittleEndian, uint64(len(headerJSON))); err != nil {
		return fmt.Errorf("failed to write header size: %w", err)
	}
	if _, err := w.Write(headerJSON); err != nil {
		return fmt.Errorf("failed to write header: %w", err)
	}

	padding := alignPadding(preambleSizeV1 + int64(len(headerJSON)))
	if padding > 0 {
		if _, err := w.Write(make([]byte, padding)); err != nil {
			return fmt.Errorf("failed to write padding: %w", err)
		}
	}

	for _, name := range order {
		if _, err := w.Write(stateDict[name].Data()); err != nil {
			return fmt.Errorf("failed to write tensor %s: %w", name, err)
		}
	}

	return nil
}

// writeV2 writes the v2 layout (fixed preamble with SHA-256 checksum) to w.
func writeV2(w io.Writer, header Header, stateDict map[string]*tensor.RawTensor, order []string) error {
	// Concatenate tensor data up front so the checksum covers exactly the
	// bytes that land in the data section.
	var dataBuf []byte
	for _, name := range order {
		dataBuf = append(dataBuf, stateDict[name].Data()...)
	}
	checksum := ComputeChecksum(dataBuf)

	headerJSON, err := json.Marshal(header)
	if err != nil {
		return fmt.Errorf("failed to marshal header: %w", err)
	}

	fixed := make([]byte, FixedHeaderSizeV2)
	copy(fixed[0:4], MagicBytes)
	binary.LittleEndian.PutUint32(fixed[4:8], uint32(FormatVersionV2))
	binary.LittleEndian.PutUint32(fixed[8:12], headerFlags(&header))
	// 0x0C-0x0F reserved, left zero
	binary.LittleEndian.PutUint64(fixed[16:24], uint64(len(headerJSON)))
	binary.LittleEndian.PutUint64(fixed[24:32], uint64(len(dataBuf)))
	copy(fixed[ChecksumOffsetV2:ChecksumOffsetV2+ChecksumSize], checksum[:])

	if _, err := w.Write(fixed); err != nil {
		return fmt.Errorf("failed to write fixed header: %w", err)
	}
	if _, err := w.Write(headerJSON); err != nil {
		return fmt.Errorf("failed to write header JSON: %w", err)
	}

	padding := alignPadding(FixedHeaderSizeV2 + int64(len(headerJSON)))
	if padding > 0 {
		if _, err := w.Write(make([]byte, padding)); err != nil {
			return fmt.Errorf("failed to write padding: %w", err)
		}
	}

	if _, err := w.Write(dataBuf); err != nil {
		return fmt.Errorf("failed to write tensor data: %w", err)
	}

	return nil
}

// WriteStateDict writes a state dictionary as a v1 .banet file.
//
// The state dictionary is a map from parameter names to tensors.
func (w *BanetWriter) WriteStateDict(stateDict map[string]*tensor.RawTensor, modelType string, metadata map[string]string) error {
	if w.closed {
		return fmt.Errorf("writer is closed")
	}

	order, metas := layoutTensors(stateDict)
	return writeV1(w.file, defaultHeader(FormatVersion, modelType, metas, metadata), stateDict, order)
}

// WriteStateDictWithHeader writes a v1 file with a caller-supplied header.
//
// This allows setting CheckpointMeta and custom metadata. Tensor entries in
// the header are recomputed from the state dict.
func (w *BanetWriter) WriteStateDictWithHeader(stateDict map[string]*tensor.RawTensor, header Header) error {
	if w.closed {
		return fmt.Errorf("writer is closed")
	}

	order, metas := layoutTensors(stateDict)
	header.FormatVersion = FormatVersion
	header.Tensors = metas
	if header.Metadata == nil {
		header.Metadata = make(map[string]string)
	}
	return writeV1(w.file, header, stateDict, order)
}

// WriteStateDictV2 writes a state dictionary as a v2 .banet file with a
// SHA-256 checksum over the tensor data.
//
// v2 readers can still read v1 files; v1-only tooling will reject v2 files.
func (w *BanetWriter) WriteStateDictV2(stateDict map[string]*tensor.RawTensor, modelType string, metadata map[string]string) error {
	if w.closed {
		return fmt.Errorf("writer is closed")
	}

	order, metas := layoutTensors(stateDict)
	return writeV2(w.file, defaultHeader(FormatVersionV2, modelType, metas, metadata), stateDict, order)
}

// WriteStateDictWithHeaderV2 writes a v2 file with a caller-supplied header.
//
// Format version, library version and creation time are overwritten; tensor
// entries are recomputed from the state dict.
func (w *BanetWriter) WriteStateDictWithHeaderV2(stateDict map[string]*tensor.RawTensor, header Header) error {
	if w.closed {
		return fmt.Errorf("writer is closed")
	}

	order, metas := layoutTensors(stateDict)
	header.FormatVersion = FormatVersionV2
	header.BanetVersion = banetVersion
	header.CreatedAt = time.Now().UTC()
	header.Tensors = metas
	if header.Metadata == nil {
		header.Metadata = make(map[string]string)
	}
	return writeV2(w.file, header, stateDict, order)
}

// Close closes the writer and the underlying file.
func (w *BanetWriter) Close() error {
	if w.closed {
		return nil
	}
	w.closed = true
	return w.file.Close()
}

// WriteTo streams a v1 state dictionary to an io.Writer.
// This is useful for writing to buffers or network connections.
func WriteTo(writer io.Writer, stateDict map[string]*tensor.RawTensor, modelType string, metadata map[string]string) error {
	order, metas := layoutTensors(stateDict)
	return writeV1(writer, defaultHeader(FormatVersion, modelType, metas, metadata), stateDict, order)
}
