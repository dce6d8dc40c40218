// Package loader imports model weights from external formats.
//
// Native checkpoints use the .banet container in internal/serialization;
// this package covers interchange with the PyTorch ecosystem:
//   - SafeTensors: the Hugging Face tensor container, read with plain
//     file I/O and validated against the declared shapes
//   - ResNet name mapping: torchvision resnet50 exports load straight
//     into the vision backbone, with classification-head entries dropped
//
// Example:
//
//	stateDict, err := loader.ResNetStateDict("resnet50.safetensors")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	err = backbone.LoadStateDict(stateDict)
//
// Half-precision exports are rejected with a conversion hint; quantized
// formats are out of scope.
package loader
