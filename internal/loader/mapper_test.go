package loader

import (
	"path/filepath"
	"testing"
)

func TestResNetMapper_MapName(t *testing.T) {
	mapper := NewResNetMapper()

	cases := []struct {
		in   string
		out  string
		keep bool
	}{
		{"conv1.weight", "conv1.weight", true},
		{"layer1.0.downsample.0.weight", "layer1.0.downsample.0.weight", true},
		{"module.layer4.2.bn3.running_var", "layer4.2.bn3.running_var", true},
		{"resnet.conv1.weight", "conv1.weight", true},
		{"backbone.layer2.1.conv2.weight", "layer2.1.conv2.weight", true},
		{"fc.weight", "", false},
		{"fc.bias", "", false},
		{"module.fc.weight", "", false},
		{"bn1.num_batches_tracked", "", false},
		{"layer3.4.bn2.num_batches_tracked", "", false},
	}

	for _, tc := range cases {
		mapped, keep := mapper.MapName(tc.in)
		if keep != tc.keep {
			t.Errorf("MapName(%q) keep = %v, want %v", tc.in, keep, tc.keep)
			continue
		}
		if keep && mapped != tc.out {
			t.Errorf("MapName(%q) = %q, want %q", tc.in, mapped, tc.out)
		}
	}
}

func TestResNetStateDict(t *testing.T) {
	testFile := filepath.Join(t.TempDir(), "resnet.safetensors")

	infos := map[string]SafeTensorInfo{
		"module.conv1.weight": {
			DType:       SafeTensorsF32,
			Shape:       []int{2, 3},
			DataOffsets: [2]int64{0, 24},
		},
		"module.bn1.weight": {
			DType:       SafeTensorsF32,
			Shape:       []int{2},
			DataOffsets: [2]int64{24, 32},
		},
		"module.bn1.num_batches_tracked": {
			DType:       SafeTensorsI64,
			Shape:       []int{},
			DataOffsets: [2]int64{32, 40},
		},
		"module.fc.weight": {
			DType:       SafeTensorsF32,
			Shape:       []int{1, 2},
			DataOffsets: [2]int64{40, 48},
		},
	}
	payload := append(
		floatBytes([]float32{1, 2, 3, 4, 5, 6, 0.5, 1.5}),
		0, 0, 0, 0, 0, 0, 0, 0, // num_batches_tracked int64
	)
	payload = append(payload, floatBytes([]float32{9, 9})...)

	names := []string{"module.conv1.weight", "module.bn1.weight", "module.bn1.num_batches_tracked", "module.fc.weight"}
	writeSafeTensors(t, testFile, nil, names, infos, payload)

	stateDict, err := ResNetStateDict(testFile)
	if err != nil {
		t.Fatalf("ResNetStateDict failed: %v", err)
	}

	if len(stateDict) != 2 {
		t.Fatalf("Expected 2 entries, got %d: %v", len(stateDict), stateDict)
	}
	if _, ok := stateDict["conv1.weight"]; !ok {
		t.Error("Missing conv1.weight after mapping")
	}
	if _, ok := stateDict["bn1.weight"]; !ok {
		t.Error("Missing bn1.weight after mapping")
	}

	conv := stateDict["conv1.weight"].AsFloat32()
	for i, v := range []float32{1, 2, 3, 4, 5, 6} {
		if conv[i] != v {
			t.Errorf("conv1.weight[%d] = %f, want %f", i, conv[i], v)
		}
	}
}

func TestResNetStateDict_EmptyFile(t *testing.T) {
	testFile := filepath.Join(t.TempDir(), "head_only.safetensors")

	infos := map[string]SafeTensorInfo{
		"fc.weight": {
			DType:       SafeTensorsF32,
			Shape:       []int{2},
			DataOffsets: [2]int64{0, 8},
		},
	}
	writeSafeTensors(t, testFile, nil, []string{"fc.weight"}, infos, floatBytes([]float32{1, 2}))

	if _, err := ResNetStateDict(testFile); err == nil {
		t.Error("Expected error when only head entries are present")
	}
}
