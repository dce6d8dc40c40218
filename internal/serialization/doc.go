// Package serialization provides the native .banet format for saving and
// loading BANet models and training checkpoints.
//
// The .banet format is a simple binary container for tensor state dicts:
//
//	Format v1 (variable preamble):
//	  [4 bytes: Magic "BANT"]
//	  [4 bytes: Version (uint32 LE)]
//	  [4 bytes: Flags (uint32 LE)]
//	  [8 bytes: Header Size (uint64 LE)]
//	  [Header: JSON metadata]
//	  [Tensor data: raw bytes, 64-byte aligned]
//
//	Format v2 (fixed 64-byte preamble, integrity checked):
//	  [0x00: Magic "BANT"]
//	  [0x04: Version (uint32 LE)]
//	  [0x08: Flags (uint32 LE)]
//	  [0x0C: Reserved]
//	  [0x10: Header Size (uint64 LE)]
//	  [0x18: Data Size (uint64 LE)]
//	  [0x20: SHA-256 checksum of the tensor data]
//	  [0x40: Header JSON, then 64-byte aligned tensor data]
//
// The format supports:
//   - All tensor data types (float32, float64, int32, int64)
//   - Arbitrary tensor shapes
//   - Custom metadata and training checkpoint state
//   - Corruption detection via SHA-256 (v2)
//   - Memory-mapped loading for large models
//
// Example usage:
//
//	// Save a model
//	writer, err := serialization.NewBanetWriter("banet.banet")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	if err := writer.WriteStateDictV2(model.StateDict(), "BANet", nil); err != nil {
//	    log.Fatal(err)
//	}
//	writer.Close()
//
//	// Load a model
//	reader, err := serialization.NewBanetReader("banet.banet")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	stateDict, err := reader.ReadStateDict(backend)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	model.LoadStateDict(stateDict)
//	reader.Close()
package serialization
