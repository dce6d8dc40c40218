package tensor

import (
	"math"
	"math/rand"
)

// Zeros creates a tensor filled with zeros.
func Zeros[T DType, B Backend](shape Shape, b B) *Tensor[T, B] {
	var dummy T
	raw, err := NewRaw(shape, inferDataType(dummy), b.Device())
	if err != nil {
		panic("tensor: Zeros: " + err.Error())
	}
	return New[T, B](raw, b)
}

// Ones creates a tensor filled with ones.
func Ones[T DType, B Backend](shape Shape, b B) *Tensor[T, B] {
	return Full[T, B](shape, T(1), b)
}

// Full creates a tensor filled with the given value.
func Full[T DType, B Backend](shape Shape, value T, b B) *Tensor[T, B] {
	t := Zeros[T, B](shape, b)
	data := t.Data()
	for i := range data {
		data[i] = value
	}
	return t
}

// Randn creates a float tensor with standard-normal values using the
// Box-Muller transform. Uses math/rand: reproducible with a seeded source,
// which is what model initialization wants.
func Randn[T DType, B Backend](shape Shape, b B) *Tensor[T, B] {
	t := Zeros[T, B](shape, b)
	data := t.Data()

	var dummy T
	switch any(dummy).(type) {
	case float32:
		out := any(data).([]float32)
		for i := 0; i < len(out); i += 2 {
			z0, z1 := boxMuller()
			out[i] = float32(z0)
			if i+1 < len(out) {
				out[i+1] = float32(z1)
			}
		}
	case float64:
		out := any(data).([]float64)
		for i := 0; i < len(out); i += 2 {
			z0, z1 := boxMuller()
			out[i] = z0
			if i+1 < len(out) {
				out[i+1] = z1
			}
		}
	default:
		panic("Randn only supports float32 and float64 types")
	}
	return t
}

func boxMuller() (float64, float64) {
	u1 := rand.Float64() //nolint:gosec // model init wants math/rand reproducibility
	u2 := rand.Float64() //nolint:gosec // model init wants math/rand reproducibility
	r := math.Sqrt(-2.0 * math.Log(u1))
	return r * math.Cos(2.0*math.Pi*u2), r * math.Sin(2.0*math.Pi*u2)
}

// Rand creates a float tensor with values uniform in [0, 1).
func Rand[T DType, B Backend](shape Shape, b B) *Tensor[T, B] {
	t := Zeros[T, B](shape, b)
	data := t.Data()

	var dummy T
	switch any(dummy).(type) {
	case float32:
		out := any(data).([]float32)
		for i := range out {
			out[i] = float32(rand.Float64()) //nolint:gosec // see Randn
		}
	case float64:
		out := any(data).([]float64)
		for i := range out {
			out[i] = rand.Float64() //nolint:gosec // see Randn
		}
	default:
		panic("Rand only supports float32 and float64 types")
	}
	return t
}

// Arange creates a 1D tensor with values [start, end) stepping by one.
func Arange[T DType, B Backend](start, end T, b B) *Tensor[T, B] {
	n := int(float64(end) - float64(start))
	if n <= 0 {
		panic("Arange requires end > start")
	}

	t := Zeros[T, B](Shape{n}, b)
	data := t.Data()
	for i := range data {
		data[i] = start + T(i)
	}
	return t
}
