package loader

import (
	"encoding/binary"
	"encoding/json"
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/banet-ml/banet/internal/backend/cpu"
	"github.com/banet-ml/banet/internal/tensor"
)

// writeSafeTensors writes a SafeTensors file from ordered tensor specs.
func writeSafeTensors(t *testing.T, path string, metadata map[string]string, names []string, infos map[string]SafeTensorInfo, payload []byte) {
	t.Helper()

	headerMap := make(map[string]interface{})
	if metadata != nil {
		headerMap["__metadata__"] = metadata
	}
	for _, name := range names {
		headerMap[name] = infos[name]
	}

	headerJSON, err := json.Marshal(headerMap)
	if err != nil {
		t.Fatalf("Failed to marshal header: %v", err)
	}

	file, err := os.Create(path)
	if err != nil {
		t.Fatalf("Failed to create test file: %v", err)
	}
	defer file.Close()

	if err := binary.Write(file, binary.LittleEndian, uint64(len(headerJSON))); err != nil {
		t.Fatalf("Failed to write header size: %v", err)
	}
	if _, err := file.Write(headerJSON); err != nil {
		t.Fatalf("Failed to write header: %v", err)
	}
	if _, err := file.Write(payload); err != nil {
		t.Fatalf("Failed to write tensor data: %v", err)
	}
}

// floatBytes encodes float32 values little-endian.
func floatBytes(values []float32) []byte {
	out := make([]byte, 4*len(values))
	for i, v := range values {
		binary.LittleEndian.PutUint32(out[4*i:], math.Float32bits(v))
	}
	return out
}

// createTestFile writes a two-tensor file: weight [2,3] and bias [3].
func createTestFile(t *testing.T, path string) {
	t.Helper()

	infos := map[string]SafeTensorInfo{
		"weight": {
			DType:       SafeTensorsF32,
			Shape:       []int{2, 3},
			DataOffsets: [2]int64{0, 24},
		},
		"bias": {
			DType:       SafeTensorsF32,
			Shape:       []int{3},
			DataOffsets: [2]int64{24, 36},
		},
	}

	payload := append(
		floatBytes([]float32{1, 2, 3, 4, 5, 6}),
		floatBytes([]float32{0.1, 0.2, 0.3})...,
	)

	writeSafeTensors(t, path, map[string]string{"format": "pt"}, []string{"weight", "bias"}, infos, payload)
}

func TestNewSafeTensorsReader(t *testing.T) {
	testFile := filepath.Join(t.TempDir(), "test.safetensors")
	createTestFile(t, testFile)

	reader, err := NewSafeTensorsReader(testFile)
	if err != nil {
		t.Fatalf("NewSafeTensorsReader failed: %v", err)
	}
	defer reader.Close()

	if reader.Metadata()["format"] != "pt" {
		t.Errorf("Expected format=pt, got %s", reader.Metadata()["format"])
	}
	if len(reader.TensorNames()) != 2 {
		t.Errorf("Expected 2 tensors, got %d", len(reader.TensorNames()))
	}
}

func TestSafeTensorsReader_TensorInfo(t *testing.T) {
	testFile := filepath.Join(t.TempDir(), "test.safetensors")
	createTestFile(t, testFile)

	reader, err := NewSafeTensorsReader(testFile)
	if err != nil {
		t.Fatalf("NewSafeTensorsReader failed: %v", err)
	}
	defer reader.Close()

	info, err := reader.TensorInfo("weight")
	if err != nil {
		t.Fatalf("TensorInfo failed: %v", err)
	}
	if info.DType != SafeTensorsF32 {
		t.Errorf("Expected dtype F32, got %s", info.DType)
	}
	if len(info.Shape) != 2 || info.Shape[0] != 2 || info.Shape[1] != 3 {
		t.Errorf("Expected shape [2, 3], got %v", info.Shape)
	}

	if _, err := reader.TensorInfo("nonexistent"); err == nil {
		t.Error("Expected error for non-existent tensor")
	}
}

func TestSafeTensorsReader_LoadTensor(t *testing.T) {
	testFile := filepath.Join(t.TempDir(), "test.safetensors")
	createTestFile(t, testFile)

	reader, err := NewSafeTensorsReader(testFile)
	if err != nil {
		t.Fatalf("NewSafeTensorsReader failed: %v", err)
	}
	defer reader.Close()

	backend := cpu.New()

	raw, err := reader.LoadTensor("weight", backend)
	if err != nil {
		t.Fatalf("LoadTensor failed: %v", err)
	}
	if !raw.Shape().Equal(tensor.Shape{2, 3}) {
		t.Errorf("Expected shape [2, 3], got %v", raw.Shape())
	}
	if raw.DType() != tensor.Float32 {
		t.Errorf("Expected dtype Float32, got %v", raw.DType())
	}

	data := raw.AsFloat32()
	for i, v := range []float32{1, 2, 3, 4, 5, 6} {
		if data[i] != v {
			t.Errorf("Expected data[%d]=%f, got %f", i, v, data[i])
		}
	}
}

func TestSafeTensorsReader_RejectsHalfPrecision(t *testing.T) {
	testFile := filepath.Join(t.TempDir(), "half.safetensors")

	infos := map[string]SafeTensorInfo{
		"weight": {
			DType:       SafeTensorsF16,
			Shape:       []int{2},
			DataOffsets: [2]int64{0, 4},
		},
	}
	writeSafeTensors(t, testFile, nil, []string{"weight"}, infos, []byte{0, 0, 0, 0})

	reader, err := NewSafeTensorsReader(testFile)
	if err != nil {
		t.Fatalf("NewSafeTensorsReader failed: %v", err)
	}
	defer reader.Close()

	if _, err := reader.LoadTensor("weight", cpu.New()); err == nil {
		t.Error("Expected error for F16 tensor")
	}
}

func TestSafeTensorsReader_RejectsSizeMismatch(t *testing.T) {
	testFile := filepath.Join(t.TempDir(), "short.safetensors")

	// Shape [2, 3] needs 24 bytes, offsets declare 12.
	infos := map[string]SafeTensorInfo{
		"weight": {
			DType:       SafeTensorsF32,
			Shape:       []int{2, 3},
			DataOffsets: [2]int64{0, 12},
		},
	}
	writeSafeTensors(t, testFile, nil, []string{"weight"}, infos, floatBytes([]float32{1, 2, 3}))

	reader, err := NewSafeTensorsReader(testFile)
	if err != nil {
		t.Fatalf("NewSafeTensorsReader failed: %v", err)
	}
	defer reader.Close()

	if _, err := reader.LoadTensor("weight", cpu.New()); err == nil {
		t.Error("Expected error for truncated tensor data")
	}
}
