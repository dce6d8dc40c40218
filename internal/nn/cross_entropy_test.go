package nn_test

import (
	"math"
	"testing"

	"github.com/banet-ml/banet/internal/autodiff"
	"github.com/banet-ml/banet/internal/backend/cpu"
	"github.com/banet-ml/banet/internal/nn"
	"github.com/banet-ml/banet/internal/tensor"
)

// TestCrossEntropyLoss_UniformLogits verifies the closed-form value for
// uniform predictions: -log(1/C) = log(C).
func TestCrossEntropyLoss_UniformLogits(t *testing.T) {
	backend := autodiff.New(cpu.New())
	criterion := nn.NewCrossEntropyLoss(backend)

	logits, _ := tensor.FromSlice([]float32{0, 0}, tensor.Shape{1, 2}, backend)
	targets, _ := tensor.FromSlice([]int32{0}, tensor.Shape{1}, backend)

	loss := criterion.Forward(logits, targets)

	expected := float32(math.Log(2.0))
	if !floatEqual(loss.Raw().AsFloat32()[0], expected, 1e-5) {
		t.Errorf("Loss = %f, want %f", loss.Raw().AsFloat32()[0], expected)
	}
}

// TestCrossEntropyLoss_FallbackMatchesFused runs the same batch through
// the plain CPU backend (manual path) and the autodiff backend (fused
// path) and expects identical losses.
func TestCrossEntropyLoss_FallbackMatchesFused(t *testing.T) {
	logitsData := []float32{2, 1, 0.5, -1, 0, 3}
	targetsData := []int32{1, 2}

	cpuBackend := cpu.New()
	cpuCriterion := nn.NewCrossEntropyLoss(cpuBackend)
	cpuLogits, _ := tensor.FromSlice(logitsData, tensor.Shape{2, 3}, cpuBackend)
	cpuTargets, _ := tensor.FromSlice(targetsData, tensor.Shape{2}, cpuBackend)
	cpuLoss := cpuCriterion.Forward(cpuLogits, cpuTargets).Raw().AsFloat32()[0]

	adBackend := autodiff.New(cpu.New())
	adCriterion := nn.NewCrossEntropyLoss(adBackend)
	adLogits, _ := tensor.FromSlice(logitsData, tensor.Shape{2, 3}, adBackend)
	adTargets, _ := tensor.FromSlice(targetsData, tensor.Shape{2}, adBackend)
	adLoss := adCriterion.Forward(adLogits, adTargets).Raw().AsFloat32()[0]

	if !floatEqual(cpuLoss, adLoss, 1e-6) {
		t.Errorf("Fallback loss %f != fused loss %f", cpuLoss, adLoss)
	}
}

// TestCrossEntropyLoss_Gradient verifies the softmax-minus-one-hot
// gradient through the tape.
func TestCrossEntropyLoss_Gradient(t *testing.T) {
	backend := autodiff.New(cpu.New())
	criterion := nn.NewCrossEntropyLoss(backend)

	logits, _ := tensor.FromSlice([]float32{1, 2, 0.5}, tensor.Shape{1, 3}, backend)
	targets, _ := tensor.FromSlice([]int32{1}, tensor.Shape{1}, backend)

	backend.Tape().StartRecording()
	loss := criterion.Forward(logits, targets)
	grads := autodiff.Backward(loss, backend)
	backend.Tape().StopRecording()

	grad := grads[logits.Raw()]
	if grad == nil {
		t.Fatal("logits should receive a gradient")
	}

	// softmax([1, 2, 0.5]) with one subtracted at the target index
	exp := []float64{math.Exp(1), math.Exp(2), math.Exp(0.5)}
	sum := exp[0] + exp[1] + exp[2]
	expected := []float32{
		float32(exp[0] / sum),
		float32(exp[1]/sum - 1),
		float32(exp[2] / sum),
	}

	actual := grad.AsFloat32()
	for i, want := range expected {
		if !floatEqual(actual[i], want, 1e-5) {
			t.Errorf("Gradient[%d] = %f, want %f", i, actual[i], want)
		}
	}
}

// TestMaskedCrossEntropyLoss_IgnoresPadding checks that masked rows
// contribute nothing, even when their target entries are garbage.
func TestMaskedCrossEntropyLoss_IgnoresPadding(t *testing.T) {
	// Row 1 is padding with an out-of-range target; it must be skipped.
	logitsData := []float32{2, 0, 0, 100, -50, 3}
	targetsData := []int32{0, 99}
	maskData := []float32{1, 0}

	// Reference: single-row cross entropy on row 0
	row := []float64{2, 0, 0}
	sumExp := math.Exp(row[0]) + math.Exp(row[1]) + math.Exp(row[2])
	reference := float32(math.Log(sumExp) - row[0])

	t.Run("fused", func(t *testing.T) {
		backend := autodiff.New(cpu.New())
		criterion := nn.NewMaskedCrossEntropyLoss(backend)
		logits, _ := tensor.FromSlice(logitsData, tensor.Shape{2, 3}, backend)
		targets, _ := tensor.FromSlice(targetsData, tensor.Shape{2}, backend)
		mask, _ := tensor.FromSlice(maskData, tensor.Shape{2}, backend)

		loss := criterion.Forward(logits, targets, mask).Raw().AsFloat32()[0]
		if !floatEqual(loss, reference, 1e-4) {
			t.Errorf("Loss = %f, want %f", loss, reference)
		}
	})

	t.Run("fallback", func(t *testing.T) {
		backend := cpu.New()
		criterion := nn.NewMaskedCrossEntropyLoss(backend)
		logits, _ := tensor.FromSlice(logitsData, tensor.Shape{2, 3}, backend)
		targets, _ := tensor.FromSlice(targetsData, tensor.Shape{2}, backend)
		mask, _ := tensor.FromSlice(maskData, tensor.Shape{2}, backend)

		loss := criterion.Forward(logits, targets, mask).Raw().AsFloat32()[0]
		if !floatEqual(loss, reference, 1e-4) {
			t.Errorf("Loss = %f, want %f", loss, reference)
		}
	})
}

// TestMaskedCrossEntropyLoss_AllMasked verifies a fully padded batch
// produces zero loss.
func TestMaskedCrossEntropyLoss_AllMasked(t *testing.T) {
	backend := autodiff.New(cpu.New())
	criterion := nn.NewMaskedCrossEntropyLoss(backend)

	logits, _ := tensor.FromSlice([]float32{1, 2, 3, 4}, tensor.Shape{2, 2}, backend)
	targets, _ := tensor.FromSlice([]int32{0, 1}, tensor.Shape{2}, backend)
	mask, _ := tensor.FromSlice([]float32{0, 0}, tensor.Shape{2}, backend)

	loss := criterion.Forward(logits, targets, mask)
	if loss.Raw().AsFloat32()[0] != 0 {
		t.Errorf("All-masked loss = %f, want 0", loss.Raw().AsFloat32()[0])
	}
}

// TestAccuracy verifies argmax-based accuracy.
func TestAccuracy(t *testing.T) {
	backend := autodiff.New(cpu.New())

	logits, _ := tensor.FromSlice([]float32{2, 1, 0, 3}, tensor.Shape{2, 2}, backend)
	targets, _ := tensor.FromSlice([]int32{0, 0}, tensor.Shape{2}, backend)

	acc := nn.Accuracy(logits, targets)
	if !floatEqual(acc, 0.5, 1e-6) {
		t.Errorf("Accuracy = %f, want 0.5", acc)
	}
}
