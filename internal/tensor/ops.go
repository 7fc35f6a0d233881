package tensor

import (
	"fmt"
	"math"
)

// Add returns t + other with NumPy-style broadcasting.
//
// Adding a (Cout) vector to a (N, H, W, Cout) tensor adds the vector to every
// trailing row, which is how the convolution kernels apply their bias.
func (t *Dense[T]) Add(other *Dense[T]) (*Dense[T], error) {
	outShape, needsBroadcast, err := BroadcastShapes(t.shape, other.shape)
	if err != nil {
		return nil, err
	}

	out := Zeros[T](outShape)

	if !needsBroadcast {
		for i := range out.data {
			out.data[i] = t.data[i] + other.data[i]
		}
		return out, nil
	}

	aStrides := broadcastStrides(t.shape, t.stride, outShape)
	bStrides := broadcastStrides(other.shape, other.stride, outShape)

	for flat := range out.data {
		aOff, bOff := 0, 0
		rem := flat
		for d, s := range out.stride {
			idx := rem / s
			rem %= s
			aOff += idx * aStrides[d]
			bOff += idx * bStrides[d]
		}
		out.data[flat] = t.data[aOff] + other.data[bOff]
	}
	return out, nil
}

// broadcastStrides maps strides of shape onto outShape, using a zero stride for
// dimensions that are missing or of size 1.
func broadcastStrides(shape Shape, strides []int, outShape Shape) []int {
	result := make([]int, len(outShape))
	shift := len(outShape) - len(shape)
	for i := range shape {
		if shape[i] != 1 {
			result[shift+i] = strides[i]
		}
	}
	return result
}

// Transpose permutes the dimensions of t and returns a new contiguous tensor.
//
// Example:
//
//	nchw := x.Transpose(0, 3, 1, 2) // NHWC -> NCHW
func (t *Dense[T]) Transpose(axes ...int) (*Dense[T], error) {
	if len(axes) != len(t.shape) {
		return nil, &ShapeError{Op: "transpose", Shape: t.shape, Details: fmt.Sprintf("got %d axes", len(axes))}
	}
	seen := make([]bool, len(axes))
	outShape := make(Shape, len(axes))
	srcStrides := make([]int, len(axes))
	for i, a := range axes {
		if a < 0 || a >= len(axes) || seen[a] {
			return nil, &ShapeError{Op: "transpose", Shape: t.shape, Details: fmt.Sprintf("invalid permutation %v", axes)}
		}
		seen[a] = true
		outShape[i] = t.shape[a]
		srcStrides[i] = t.stride[a]
	}

	out := Zeros[T](outShape)
	for flat := range out.data {
		src := 0
		rem := flat
		for d, s := range out.stride {
			src += (rem / s) * srcStrides[d]
			rem %= s
		}
		out.data[flat] = t.data[src]
	}
	return out, nil
}

// MaxAbsDiff returns the largest element-wise absolute difference between a and b.
func MaxAbsDiff[T Float](a, b *Dense[T]) (float64, error) {
	if !a.shape.Equal(b.shape) {
		return 0, &ShapeError{Op: "compare", Shape: a.shape, Other: b.shape, Details: "shapes differ"}
	}
	worst := 0.0
	for i := range a.data {
		d := math.Abs(float64(a.data[i]) - float64(b.data[i]))
		if math.IsNaN(d) {
			return math.Inf(1), nil
		}
		worst = max(worst, d)
	}
	return worst, nil
}

// AllClose reports whether a and b have the same shape and every element
// differs by at most atol.
func AllClose[T Float](a, b *Dense[T], atol float64) bool {
	d, err := MaxAbsDiff(a, b)
	return err == nil && d <= atol
}

// Sum returns the sum of all elements, accumulated in float64.
func (t *Dense[T]) Sum() float64 {
	var s float64
	for _, v := range t.data {
		s += float64(v)
	}
	return s
}
