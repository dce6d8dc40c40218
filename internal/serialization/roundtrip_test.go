package serialization

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/banet-ml/banet/internal/tensor"
)

// newFloat32Raw builds a float32 RawTensor filled with the given values.
func newFloat32Raw(t testing.TB, shape tensor.Shape, values []float32) *tensor.RawTensor {
	t.Helper()
	raw, err := tensor.NewRaw(shape, tensor.Float32, tensor.CPU)
	if err != nil {
		t.Fatalf("Failed to create tensor: %v", err)
	}
	copy(raw.AsFloat32(), values)
	return raw
}

// corruptLastByte flips the final byte of the file at path. The last byte is
// always inside the tensor data section.
func corruptLastByte(t *testing.T, path string) {
	t.Helper()

	info, err := os.Stat(path)
	if err != nil {
		t.Fatalf("Failed to stat file: %v", err)
	}

	file, err := os.OpenFile(path, os.O_RDWR, 0o644)
	if err != nil {
		t.Fatalf("Failed to open file for corruption: %v", err)
	}
	if _, err := file.Seek(info.Size()-1, 0); err != nil {
		t.Fatalf("Failed to seek: %v", err)
	}
	if _, err := file.Write([]byte{0xFF}); err != nil {
		t.Fatalf("Failed to corrupt file: %v", err)
	}
	if err := file.Close(); err != nil {
		t.Fatalf("Failed to close file: %v", err)
	}
}

// TestV2RoundTrip verifies v2 write and read with checksum validation.
func TestV2RoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "model_v2.banet")
	backend := tensor.NewMockBackend()

	weightValues := []float32{0.1, -0.2, 0.3, -0.4, 0.5, -0.6}
	biasValues := []float32{1.0, 2.0, 3.0}
	stateDict := map[string]*tensor.RawTensor{
		"encoder.lstm_low.weight_ih": newFloat32Raw(t, tensor.Shape{2, 3}, weightValues),
		"decoder.word_restore.bias":  newFloat32Raw(t, tensor.Shape{3}, biasValues),
	}

	writer, err := NewBanetWriter(path)
	if err != nil {
		t.Fatalf("Failed to create writer: %v", err)
	}
	if err := writer.WriteStateDictV2(stateDict, "BANet", map[string]string{"dataset": "MSVD"}); err != nil {
		t.Fatalf("Failed to write v2 file: %v", err)
	}
	if err := writer.Close(); err != nil {
		t.Fatalf("Failed to close writer: %v", err)
	}

	reader, err := NewBanetReader(path)
	if err != nil {
		t.Fatalf("Failed to open v2 file: %v", err)
	}
	defer reader.Close()

	if reader.version != FormatVersionV2 {
		t.Errorf("Expected version %d, got %d", FormatVersionV2, reader.version)
	}
	if reader.header.BanetVersion != banetVersion {
		t.Errorf("Expected library version %q, got %q", banetVersion, reader.header.BanetVersion)
	}
	if reader.Metadata()["dataset"] != "MSVD" {
		t.Errorf("Expected dataset=MSVD, got %q", reader.Metadata()["dataset"])
	}

	loadedDict, err := reader.ReadStateDict(backend)
	if err != nil {
		t.Fatalf("Failed to read state dict: %v", err)
	}
	if len(loadedDict) != 2 {
		t.Fatalf("Expected 2 tensors, got %d", len(loadedDict))
	}

	loadedWeight := loadedDict["encoder.lstm_low.weight_ih"]
	if loadedWeight == nil {
		t.Fatal("Tensor 'encoder.lstm_low.weight_ih' not found")
	}
	for i, v := range weightValues {
		if loadedWeight.AsFloat32()[i] != v {
			t.Errorf("Weight element %d: expected %f, got %f", i, v, loadedWeight.AsFloat32()[i])
		}
	}

	loadedBias := loadedDict["decoder.word_restore.bias"]
	if loadedBias == nil {
		t.Fatal("Tensor 'decoder.word_restore.bias' not found")
	}
	for i, v := range biasValues {
		if loadedBias.AsFloat32()[i] != v {
			t.Errorf("Bias element %d: expected %f, got %f", i, v, loadedBias.AsFloat32()[i])
		}
	}
}

// TestV1RoundTrip verifies the v1 layout still writes and reads correctly,
// including non-float32 dtypes.
func TestV1RoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "model_v1.banet")
	backend := tensor.NewMockBackend()

	gateWeights := newFloat32Raw(t, tensor.Shape{4}, []float32{0.25, -0.5, 0.75, -1.0})

	ids, err := tensor.NewRaw(tensor.Shape{3}, tensor.Int64, tensor.CPU)
	if err != nil {
		t.Fatalf("Failed to create int64 tensor: %v", err)
	}
	copy(ids.AsInt64(), []int64{0, 1, 2})

	stateDict := map[string]*tensor.RawTensor{
		"boundary.vs":       gateWeights,
		"vocab.special_ids": ids,
	}

	writer, err := NewBanetWriter(path)
	if err != nil {
		t.Fatalf("Failed to create writer: %v", err)
	}
	if err := writer.WriteStateDict(stateDict, "BANet", nil); err != nil {
		t.Fatalf("Failed to write v1 file: %v", err)
	}
	if err := writer.Close(); err != nil {
		t.Fatalf("Failed to close writer: %v", err)
	}

	reader, err := NewBanetReader(path)
	if err != nil {
		t.Fatalf("Failed to open v1 file: %v", err)
	}
	defer reader.Close()

	if reader.version != FormatVersion {
		t.Errorf("Expected version %d, got %d", FormatVersion, reader.version)
	}

	loadedDict, err := reader.ReadStateDict(backend)
	if err != nil {
		t.Fatalf("Failed to read state dict: %v", err)
	}

	loadedIDs := loadedDict["vocab.special_ids"]
	if loadedIDs == nil {
		t.Fatal("Tensor 'vocab.special_ids' not found")
	}
	if loadedIDs.DType() != tensor.Int64 {
		t.Errorf("Expected dtype Int64, got %v", loadedIDs.DType())
	}
	for i, v := range []int64{0, 1, 2} {
		if loadedIDs.AsInt64()[i] != v {
			t.Errorf("ID element %d: expected %d, got %d", i, v, loadedIDs.AsInt64()[i])
		}
	}

	loadedGate := loadedDict["boundary.vs"]
	if loadedGate == nil {
		t.Fatal("Tensor 'boundary.vs' not found")
	}
	if loadedGate.AsFloat32()[2] != 0.75 {
		t.Errorf("Expected 0.75, got %f", loadedGate.AsFloat32()[2])
	}
}

// TestV2CorruptionDetection verifies that corrupted tensor data is caught by
// the checksum on open.
func TestV2CorruptionDetection(t *testing.T) {
	path := filepath.Join(t.TempDir(), "corrupt.banet")

	stateDict := map[string]*tensor.RawTensor{
		"decoder.gru.weight_hh": newFloat32Raw(t, tensor.Shape{2, 4}, []float32{1, 2, 3, 4, 5, 6, 7, 8}),
	}

	writer, err := NewBanetWriter(path)
	if err != nil {
		t.Fatalf("Failed to create writer: %v", err)
	}
	if err := writer.WriteStateDictV2(stateDict, "BANet", nil); err != nil {
		t.Fatalf("Failed to write v2 file: %v", err)
	}
	if err := writer.Close(); err != nil {
		t.Fatalf("Failed to close writer: %v", err)
	}

	corruptLastByte(t, path)

	_, err = NewBanetReader(path)
	if err == nil {
		t.Fatal("Expected checksum validation to fail, but succeeded")
	}
	if !errors.Is(err, ErrChecksumMismatch) {
		t.Errorf("Expected ErrChecksumMismatch, got: %v", err)
	}
}

// TestV2SkipChecksumValidation verifies that checksum validation can be
// disabled for trusted files.
func TestV2SkipChecksumValidation(t *testing.T) {
	path := filepath.Join(t.TempDir(), "skip_checksum.banet")

	stateDict := map[string]*tensor.RawTensor{
		"resnet.layer3.5.bn2.running_var": newFloat32Raw(t, tensor.Shape{4}, []float32{1, 1, 1, 1}),
	}

	writer, err := NewBanetWriter(path)
	if err != nil {
		t.Fatalf("Failed to create writer: %v", err)
	}
	if err := writer.WriteStateDictV2(stateDict, "BANet", nil); err != nil {
		t.Fatalf("Failed to write v2 file: %v", err)
	}
	if err := writer.Close(); err != nil {
		t.Fatalf("Failed to close writer: %v", err)
	}

	corruptLastByte(t, path)

	_, err = NewBanetReaderWithOptions(path, ReaderOptions{
		SkipChecksumValidation: false,
		ValidationLevel:        ValidationStrict,
	})
	if err == nil {
		t.Fatal("Expected checksum validation to fail")
	}

	reader, err := NewBanetReaderWithOptions(path, ReaderOptions{
		SkipChecksumValidation: true,
		ValidationLevel:        ValidationNormal,
	})
	if err != nil {
		t.Fatalf("Expected open to succeed with skipped validation, got: %v", err)
	}
	defer reader.Close()

	if reader.version != FormatVersionV2 {
		t.Errorf("Expected v2, got v%d", reader.version)
	}
}

// TestV2WithCheckpoint verifies checkpoint metadata and the derived flag
// bits survive a round trip.
func TestV2WithCheckpoint(t *testing.T) {
	path := filepath.Join(t.TempDir(), "checkpoint_v2.banet")
	backend := tensor.NewMockBackend()

	stateDict := map[string]*tensor.RawTensor{
		"decoder.gru.weight_hh":                  newFloat32Raw(t, tensor.Shape{2, 2}, []float32{1, 2, 3, 4}),
		"optimizer.adam.m.decoder.gru.weight_hh": newFloat32Raw(t, tensor.Shape{2, 2}, []float32{0.1, 0.2, 0.3, 0.4}),
	}

	header := Header{
		ModelType: "BANet",
		Metadata:  map[string]string{"dataset": "MSVD"},
		CheckpointMeta: &CheckpointMeta{
			IsCheckpoint:  true,
			Epoch:         12,
			Step:          4800,
			Loss:          2.41,
			OptimizerType: "Adam",
			OptimizerConfig: map[string]any{
				"learning_rate": 0.0004,
				"beta1":         0.9,
				"beta2":         0.999,
			},
		},
	}

	writer, err := NewBanetWriter(path)
	if err != nil {
		t.Fatalf("Failed to create writer: %v", err)
	}
	if err := writer.WriteStateDictWithHeaderV2(stateDict, header); err != nil {
		t.Fatalf("Failed to write checkpoint: %v", err)
	}
	if err := writer.Close(); err != nil {
		t.Fatalf("Failed to close writer: %v", err)
	}

	reader, err := NewBanetReader(path)
	if err != nil {
		t.Fatalf("Failed to open checkpoint: %v", err)
	}
	defer reader.Close()

	if reader.flags&FlagHasOptimizer == 0 {
		t.Error("Expected FlagHasOptimizer to be set")
	}
	if reader.flags&FlagHasMetadata == 0 {
		t.Error("Expected FlagHasMetadata to be set")
	}

	readHeader := reader.Header()
	if readHeader.FormatVersion != FormatVersionV2 {
		t.Errorf("Expected format version %d, got %d", FormatVersionV2, readHeader.FormatVersion)
	}
	if readHeader.CreatedAt.IsZero() {
		t.Error("Expected CreatedAt to be set")
	}
	if readHeader.CheckpointMeta == nil {
		t.Fatal("CheckpointMeta is nil")
	}
	if !readHeader.CheckpointMeta.IsCheckpoint {
		t.Error("Expected IsCheckpoint=true")
	}
	if readHeader.CheckpointMeta.Epoch != 12 {
		t.Errorf("Expected epoch 12, got %d", readHeader.CheckpointMeta.Epoch)
	}
	if readHeader.CheckpointMeta.Step != 4800 {
		t.Errorf("Expected step 4800, got %d", readHeader.CheckpointMeta.Step)
	}
	if readHeader.CheckpointMeta.Loss != 2.41 {
		t.Errorf("Expected loss 2.41, got %f", readHeader.CheckpointMeta.Loss)
	}

	loadedDict, err := reader.ReadStateDict(backend)
	if err != nil {
		t.Fatalf("Failed to read state dict: %v", err)
	}
	if len(loadedDict) != 2 {
		t.Errorf("Expected 2 tensors, got %d", len(loadedDict))
	}
	if _, ok := loadedDict["optimizer.adam.m.decoder.gru.weight_hh"]; !ok {
		t.Error("Optimizer state tensor not found")
	}
}

// TestWriteStateDictWithHeader verifies the v1 header path forces the format
// version and recomputes tensor entries.
func TestWriteStateDictWithHeader(t *testing.T) {
	path := filepath.Join(t.TempDir(), "custom_header.banet")

	stateDict := map[string]*tensor.RawTensor{
		"encoder.proj.weight": newFloat32Raw(t, tensor.Shape{2, 2}, []float32{1, 2, 3, 4}),
	}

	header := Header{
		FormatVersion: 99, // Overwritten on write.
		ModelType:     "BANet",
		Tensors: []TensorMeta{
			{Name: "stale", DType: DTypeFloat32, Shape: []int{1}, Offset: 0, Size: 4},
		},
	}

	writer, err := NewBanetWriter(path)
	if err != nil {
		t.Fatalf("Failed to create writer: %v", err)
	}
	if err := writer.WriteStateDictWithHeader(stateDict, header); err != nil {
		t.Fatalf("Failed to write: %v", err)
	}
	if err := writer.Close(); err != nil {
		t.Fatalf("Failed to close writer: %v", err)
	}

	reader, err := NewBanetReader(path)
	if err != nil {
		t.Fatalf("Failed to open file: %v", err)
	}
	defer reader.Close()

	readHeader := reader.Header()
	if readHeader.FormatVersion != FormatVersion {
		t.Errorf("Expected forced format version %d, got %d", FormatVersion, readHeader.FormatVersion)
	}
	if len(readHeader.Tensors) != 1 {
		t.Fatalf("Expected 1 tensor entry, got %d", len(readHeader.Tensors))
	}
	if readHeader.Tensors[0].Name != "encoder.proj.weight" {
		t.Errorf("Expected recomputed tensor entry, got %q", readHeader.Tensors[0].Name)
	}
	if readHeader.Tensors[0].Size != 16 {
		t.Errorf("Expected size 16, got %d", readHeader.Tensors[0].Size)
	}
}

// TestWriteToReadFrom verifies the streaming API over an in-memory buffer.
func TestWriteToReadFrom(t *testing.T) {
	backend := tensor.NewMockBackend()

	values := []float32{0.5, 1.5, 2.5, 3.5}
	stateDict := map[string]*tensor.RawTensor{
		"decoder.v2m.weight": newFloat32Raw(t, tensor.Shape{2, 2}, values),
	}

	var buf bytes.Buffer
	if err := WriteTo(&buf, stateDict, "BANet", map[string]string{"source": "stream"}); err != nil {
		t.Fatalf("WriteTo failed: %v", err)
	}

	loadedDict, header, err := ReadFrom(&buf, backend)
	if err != nil {
		t.Fatalf("ReadFrom failed: %v", err)
	}

	if header.ModelType != "BANet" {
		t.Errorf("Expected model type BANet, got %q", header.ModelType)
	}
	if header.Metadata["source"] != "stream" {
		t.Errorf("Expected source=stream, got %q", header.Metadata["source"])
	}

	loaded := loadedDict["decoder.v2m.weight"]
	if loaded == nil {
		t.Fatal("Tensor 'decoder.v2m.weight' not found")
	}
	for i, v := range values {
		if loaded.AsFloat32()[i] != v {
			t.Errorf("Element %d: expected %f, got %f", i, v, loaded.AsFloat32()[i])
		}
	}
}

// TestWriterClosed verifies writes after Close fail and Close is idempotent.
func TestWriterClosed(t *testing.T) {
	path := filepath.Join(t.TempDir(), "closed.banet")

	writer, err := NewBanetWriter(path)
	if err != nil {
		t.Fatalf("Failed to create writer: %v", err)
	}
	if err := writer.Close(); err != nil {
		t.Fatalf("Failed to close writer: %v", err)
	}

	stateDict := map[string]*tensor.RawTensor{
		"w": newFloat32Raw(t, tensor.Shape{1}, []float32{1}),
	}

	if err := writer.WriteStateDict(stateDict, "BANet", nil); err == nil {
		t.Error("Expected WriteStateDict on closed writer to fail")
	}
	if err := writer.WriteStateDictV2(stateDict, "BANet", nil); err == nil {
		t.Error("Expected WriteStateDictV2 on closed writer to fail")
	}
	if err := writer.Close(); err != nil {
		t.Errorf("Expected second Close to be a no-op, got: %v", err)
	}
}

// TestReaderInvalidFiles verifies malformed files are rejected with the
// right sentinel errors.
func TestReaderInvalidFiles(t *testing.T) {
	tmpDir := t.TempDir()

	t.Run("bad magic", func(t *testing.T) {
		path := filepath.Join(tmpDir, "bad_magic.banet")
		if err := os.WriteFile(path, []byte("XXXX\x00\x00\x00\x00"), 0o644); err != nil {
			t.Fatalf("Failed to write file: %v", err)
		}

		_, err := NewBanetReader(path)
		if !errors.Is(err, ErrInvalidMagic) {
			t.Errorf("Expected ErrInvalidMagic, got: %v", err)
		}
	})

	t.Run("unsupported version", func(t *testing.T) {
		path := filepath.Join(tmpDir, "bad_version.banet")
		// Magic followed by little-endian version 9.
		if err := os.WriteFile(path, []byte("BANT\x09\x00\x00\x00"), 0o644); err != nil {
			t.Fatalf("Failed to write file: %v", err)
		}

		_, err := NewBanetReader(path)
		if !errors.Is(err, ErrUnsupportedVersion) {
			t.Errorf("Expected ErrUnsupportedVersion, got: %v", err)
		}
	})

	t.Run("truncated", func(t *testing.T) {
		path := filepath.Join(tmpDir, "truncated.banet")
		if err := os.WriteFile(path, []byte("BA"), 0o644); err != nil {
			t.Fatalf("Failed to write file: %v", err)
		}

		if _, err := NewBanetReader(path); err == nil {
			t.Error("Expected truncated file to fail")
		}
	})
}

// BenchmarkV2Write measures v2 write throughput including the checksum.
func BenchmarkV2Write(b *testing.B) {
	tmpDir := b.TempDir()

	numElements := 4 * 1024 * 1024 / 4
	raw, err := tensor.NewRaw(tensor.Shape{numElements}, tensor.Float32, tensor.CPU)
	if err != nil {
		b.Fatalf("Failed to create tensor: %v", err)
	}
	data := raw.AsFloat32()
	for i := range data {
		data[i] = float32(i)
	}

	stateDict := map[string]*tensor.RawTensor{
		"encoder.feature_proj.weight": raw,
	}

	path := filepath.Join(tmpDir, "bench.banet")
	b.SetBytes(int64(raw.ByteSize()))
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		writer, err := NewBanetWriter(path)
		if err != nil {
			b.Fatalf("Failed to create writer: %v", err)
		}
		if err := writer.WriteStateDictV2(stateDict, "BANet", nil); err != nil {
			b.Fatalf("Failed to write: %v", err)
		}
		if err := writer.Close(); err != nil {
			b.Fatalf("Failed to close: %v", err)
		}
	}
}
