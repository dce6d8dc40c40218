package tensor

import "fmt"

// Shape describes tensor dimensions in row-major order.
// A video feature batch is typically Shape{batch, maxFrames, frameSize}.
type Shape []int

// NumElements returns the total number of elements for this shape.
// An empty shape describes a scalar and has one element.
func (s Shape) NumElements() int {
	n := 1
	for _, dim := range s {
		n *= dim
	}
	return n
}

// Validate checks that every dimension is positive.
func (s Shape) Validate() error {
	for i, dim := range s {
		if dim <= 0 {
			return fmt.Errorf("dimension %d must be positive, got %d", i, dim)
		}
	}
	return nil
}

// Equal reports whether two shapes have identical dimensions.
func (s Shape) Equal(other Shape) bool {
	if len(s) != len(other) {
		return false
	}
	for i := range s {
		if s[i] != other[i] {
			return false
		}
	}
	return true
}

// Clone returns an independent copy of the shape.
func (s Shape) Clone() Shape {
	out := make(Shape, len(s))
	copy(out, s)
	return out
}

// ComputeStrides returns row-major strides for the shape.
// The last dimension has stride 1.
func (s Shape) ComputeStrides() []int {
	strides := make([]int, len(s))
	stride := 1
	for i := len(s) - 1; i >= 0; i-- {
		strides[i] = stride
		stride *= s[i]
	}
	return strides
}

// BroadcastShapes computes the NumPy-style broadcast result of two shapes.
// Shapes are aligned on their trailing dimensions; a dimension broadcasts
// when it equals the other shape's dimension or is 1.
//
// Returns the result shape, whether broadcasting was needed, and an error if
// the shapes are incompatible.
func BroadcastShapes(a, b Shape) (Shape, bool, error) {
	ndim := max(len(a), len(b))
	out := make(Shape, ndim)
	broadcast := len(a) != len(b)

	for i := 0; i < ndim; i++ {
		da, db := 1, 1
		if idx := len(a) - ndim + i; idx >= 0 {
			da = a[idx]
		}
		if idx := len(b) - ndim + i; idx >= 0 {
			db = b[idx]
		}

		switch {
		case da == db:
			out[i] = da
		case da == 1:
			out[i] = db
			broadcast = true
		case db == 1:
			out[i] = da
			broadcast = true
		default:
			return nil, false, fmt.Errorf("cannot broadcast shapes %v and %v", a, b)
		}
	}

	return out, broadcast, nil
}
