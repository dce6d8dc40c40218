package cpu

import (
	"fmt"

	"github.com/banet-ml/banet/internal/parallel"
	"github.com/banet-ml/banet/internal/tensor"
)

// MatMul performs 2D matrix multiplication: (M, K) @ (K, N) -> (M, N).
//
// Rows of the result are computed independently, so the outer loop is split
// across worker goroutines for large matrices. The recurrent cells call this
// once per gate block per timestep, making it the hottest op in training.
func (cpu *CPUBackend) MatMul(a, b *tensor.RawTensor) *tensor.RawTensor {
	aShape := a.Shape()
	bShape := b.Shape()

	if len(aShape) != 2 || len(bShape) != 2 {
		panic(fmt.Sprintf("matmul: only 2D tensors supported, got %dD and %dD", len(aShape), len(bShape)))
	}

	m, k := aShape[0], aShape[1]
	kAlt, n := bShape[0], bShape[1]

	if k != kAlt {
		panic(fmt.Sprintf("matmul: shape mismatch [%d,%d] @ [%d,%d]", m, k, kAlt, n))
	}

	result := cpu.newResult(tensor.Shape{m, n}, a.DType(), "matmul")

	switch a.DType() {
	case tensor.Float32:
		matmulFloat32(result.AsFloat32(), a.AsFloat32(), b.AsFloat32(), m, k, n, cpu.pool)
	case tensor.Float64:
		matmulFloat64(result.AsFloat64(), a.AsFloat64(), b.AsFloat64(), m, k, n, cpu.pool)
	default:
		panic(fmt.Sprintf("matmul: unsupported dtype %s (only float32/float64 supported)", a.DType()))
	}

	return result
}

// matmulFloat32 computes C[i,j] = sum_k A[i,k] * B[k,j] row by row.
func matmulFloat32(c, a, b []float32, m, k, n int, pool parallel.Config) {
	parallel.For(m, func(i int) {
		aRow := a[i*k : (i+1)*k]
		cRow := c[i*n : (i+1)*n]
		for j := range cRow {
			cRow[j] = 0
		}
		for kIdx := 0; kIdx < k; kIdx++ {
			av := aRow[kIdx]
			bRow := b[kIdx*n : (kIdx+1)*n]
			for j, bv := range bRow {
				cRow[j] += av * bv
			}
		}
	}, rowConfig(pool, m))
}

func matmulFloat64(c, a, b []float64, m, k, n int, pool parallel.Config) {
	parallel.For(m, func(i int) {
		aRow := a[i*k : (i+1)*k]
		cRow := c[i*n : (i+1)*n]
		for j := range cRow {
			cRow[j] = 0
		}
		for kIdx := 0; kIdx < k; kIdx++ {
			av := aRow[kIdx]
			bRow := b[kIdx*n : (kIdx+1)*n]
			for j, bv := range bRow {
				cRow[j] += av * bv
			}
		}
	}, rowConfig(pool, m))
}

// rowConfig lowers the chunk threshold for row-level parallelism: even a
// handful of rows is worth splitting when each row does K*N work.
func rowConfig(pool parallel.Config, rows int) parallel.Config {
	cfg := pool
	if cfg.MinChunkSize > 4 {
		cfg.MinChunkSize = 4
	}
	if cfg.NumWorkers > rows {
		cfg.NumWorkers = rows
	}
	return cfg
}
