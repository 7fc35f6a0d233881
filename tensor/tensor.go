// Copyright 2025 Born ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

package tensor

import (
	"math/rand"

	"github.com/born-ml/convlab/internal/tensor"
)

// Float is the constraint for element types: float32 or float64.
type Float = tensor.Float

// DataType represents the element type of a tensor at runtime.
type DataType = tensor.DataType

// Data type constants.
const (
	Float32 DataType = tensor.Float32
	Float64 DataType = tensor.Float64
)

// Shape represents the dimensions of a tensor.
// Example: Shape{2, 28, 28, 3} is a batch of two 28x28 RGB images.
type Shape = tensor.Shape

// ShapeError reports incompatible shapes.
type ShapeError = tensor.ShapeError

// Dense is an owned, row-major n-dimensional array.
type Dense[T Float] = tensor.Dense[T]

// New allocates a zero-filled tensor.
func New[T Float](shape Shape) (*Dense[T], error) {
	return tensor.New[T](shape)
}

// Zeros creates a tensor filled with zeros.
func Zeros[T Float](shape Shape) *Dense[T] {
	return tensor.Zeros[T](shape)
}

// Full creates a tensor filled with value.
func Full[T Float](shape Shape, value T) *Dense[T] {
	return tensor.Full[T](shape, value)
}

// FromSlice copies data into a new tensor of the given shape.
func FromSlice[T Float](data []T, shape Shape) (*Dense[T], error) {
	return tensor.FromSlice[T](data, shape)
}

// Rand creates a tensor with values from U[0, 1).
func Rand[T Float](shape Shape, rng *rand.Rand) *Dense[T] {
	return tensor.Rand[T](shape, rng)
}

// Randn creates a tensor with values from N(0, 1).
func Randn[T Float](shape Shape, rng *rand.Rand) *Dense[T] {
	return tensor.Randn[T](shape, rng)
}

// BroadcastShapes applies NumPy broadcasting rules to two shapes.
func BroadcastShapes(a, b Shape) (Shape, bool, error) {
	return tensor.BroadcastShapes(a, b)
}

// AllClose reports whether a and b have equal shapes and differ by at most atol.
func AllClose[T Float](a, b *Dense[T], atol float64) bool {
	return tensor.AllClose(a, b, atol)
}

// MaxAbsDiff returns the largest element-wise absolute difference.
func MaxAbsDiff[T Float](a, b *Dense[T]) (float64, error) {
	return tensor.MaxAbsDiff(a, b)
}
