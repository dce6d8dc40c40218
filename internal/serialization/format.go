package serialization

import (
	"time"

	"github.com/banet-ml/banet/internal/tensor"
)

// Format constants.
const (
	MagicBytes        = "BANT"
	FormatVersion     = 1    // v1: JSON header only, no integrity check
	FormatVersionV2   = 2    // v2: fixed preamble with SHA-256 checksum
	HeaderAlignment   = 64   // Tensor data is aligned to 64 bytes
	FixedHeaderSizeV2 = 64   // v2 fixed preamble size (0x40 bytes)
	ChecksumSize      = 32   // SHA-256 digest size
	ChecksumOffsetV2  = 0x20 // Checksum offset within the v2 fixed preamble

	// preambleSizeV1 is magic + version + flags + header size.
	preambleSizeV1 = 20
)

// banetVersion is stamped into headers written by this package.
const banetVersion = "0.1.0"

// Data type names used in headers.
const (
	DTypeFloat32 = "float32"
	DTypeFloat64 = "float64"
	DTypeInt32   = "int32"
	DTypeInt64   = "int64"
)

// Flags for the .banet format.
const (
	FlagCompressed   uint32 = 1 << 0 // bit 0: gzip compression (reserved)
	FlagHasOptimizer uint32 = 1 << 1 // bit 1: optimizer state included
	FlagHasMetadata  uint32 = 1 << 2 // bit 2: custom metadata included
)

// Header is the JSON header of a .banet file.
type Header struct {
	FormatVersion  int               `json:"format_version"`       // .banet format version
	BanetVersion   string            `json:"banet_version"`        // Library version that wrote the file
	ModelType      string            `json:"model_type"`           // Model type ("BANet", "Encoder", "Checkpoint", ...)
	CreatedAt      time.Time         `json:"created_at"`           // When the file was written
	Tensors        []TensorMeta      `json:"tensors"`              // Per-tensor metadata
	Metadata       map[string]string `json:"metadata"`             // Custom metadata
	CheckpointMeta *CheckpointMeta   `json:"checkpoint,omitempty"` // Training state (checkpoints only)
}

// CheckpointMeta carries training state for checkpoint files.
type CheckpointMeta struct {
	IsCheckpoint    bool           `json:"is_checkpoint"`    // Marks the file as a checkpoint
	Epoch           int            `json:"epoch"`            // Training epoch
	Step            int64          `json:"step"`             // Training step
	Loss            float64        `json:"loss"`             // Loss at checkpoint time
	OptimizerType   string         `json:"optimizer_type"`   // Optimizer type ("Adam", "SGD", ...)
	OptimizerConfig map[string]any `json:"optimizer_config"` // Optimizer hyperparameters
	TrainingMeta    map[string]any `json:"training_meta"`    // Additional training metadata
}

// TensorMeta describes one tensor in the data section.
type TensorMeta struct {
	Name   string `json:"name"`   // Tensor name (e.g. "encoder.lstm_low.weight_ih")
	DType  string `json:"dtype"`  // Data type name
	Shape  []int  `json:"shape"`  // Tensor shape
	Offset int64  `json:"offset"` // Byte offset from the start of the data section
	Size   int64  `json:"size"`   // Size in bytes
}

// alignPadding returns the padding needed to advance pos to the next
// HeaderAlignment boundary.
func alignPadding(pos int64) int64 {
	return (HeaderAlignment - pos%HeaderAlignment) % HeaderAlignment
}

// dtypeToString converts tensor.DataType to its header name.
func dtypeToString(dt tensor.DataType) string {
	switch dt {
	case tensor.Float32:
		return DTypeFloat32
	case tensor.Float64:
		return DTypeFloat64
	case tensor.Int32:
		return DTypeInt32
	case tensor.Int64:
		return DTypeInt64
	default:
		return "unknown"
	}
}

// stringToDtype converts a header name back to tensor.DataType.
func stringToDtype(s string) (tensor.DataType, bool) {
	switch s {
	case DTypeFloat32:
		return tensor.Float32, true
	case DTypeFloat64:
		return tensor.Float64, true
	case DTypeInt32:
		return tensor.Int32, true
	case DTypeInt64:
		return tensor.Int64, true
	default:
		return 0, false
	}
}
