package tensor

import (
	"fmt"
	"math/rand"
)

// Dense is a row-major, owned, n-dimensional array.
//
// Dense values are never shared between tensors: Clone, Add and Transpose all
// allocate. Kernels treat their inputs as read-only.
//
// Example:
//
//	x := tensor.Zeros[float64](tensor.Shape{2, 28, 28, 3})
//	x.Set(1.5, 0, 3, 4, 2)
//	v := x.At(0, 3, 4, 2) // 1.5
type Dense[T Float] struct {
	data   []T
	shape  Shape
	stride []int
}

// New allocates a zero-filled tensor with the given shape.
func New[T Float](shape Shape) (*Dense[T], error) {
	if err := shape.Validate(); err != nil {
		return nil, fmt.Errorf("invalid shape: %w", err)
	}
	return &Dense[T]{
		data:   make([]T, shape.NumElements()),
		shape:  shape.Clone(),
		stride: shape.ComputeStrides(),
	}, nil
}

// Zeros creates a tensor filled with zeros.
// Panics on an invalid shape.
func Zeros[T Float](shape Shape) *Dense[T] {
	t, err := New[T](shape)
	if err != nil {
		panic(err)
	}
	return t
}

// Full creates a tensor filled with a specific value.
func Full[T Float](shape Shape, value T) *Dense[T] {
	t := Zeros[T](shape)
	for i := range t.data {
		t.data[i] = value
	}
	return t
}

// FromSlice creates a tensor from a Go slice.
// The slice is copied into the tensor's memory.
func FromSlice[T Float](data []T, shape Shape) (*Dense[T], error) {
	if shape.NumElements() != len(data) {
		return nil, fmt.Errorf("shape %v requires %d elements, but got %d", shape, shape.NumElements(), len(data))
	}
	t, err := New[T](shape)
	if err != nil {
		return nil, err
	}
	copy(t.data, data)
	return t, nil
}

// Rand creates a tensor with values drawn uniformly from [0, 1).
//
//nolint:gosec // math/rand is appropriate for test data and weight init
func Rand[T Float](shape Shape, rng *rand.Rand) *Dense[T] {
	t := Zeros[T](shape)
	for i := range t.data {
		t.data[i] = T(rng.Float64())
	}
	return t
}

// Randn creates a tensor with values drawn from N(0, 1).
//
//nolint:gosec // math/rand is appropriate for test data and weight init
func Randn[T Float](shape Shape, rng *rand.Rand) *Dense[T] {
	t := Zeros[T](shape)
	for i := range t.data {
		t.data[i] = T(rng.NormFloat64())
	}
	return t
}

// Shape returns the tensor's shape.
func (t *Dense[T]) Shape() Shape {
	return t.shape
}

// Strides returns the tensor's row-major strides.
func (t *Dense[T]) Strides() []int {
	return t.stride
}

// Rank returns the number of dimensions.
func (t *Dense[T]) Rank() int {
	return len(t.shape)
}

// NumElements returns the total number of elements.
func (t *Dense[T]) NumElements() int {
	return len(t.data)
}

// DType returns the runtime data type.
func (t *Dense[T]) DType() DataType {
	return DataTypeOf[T]()
}

// Data returns the underlying buffer (zero-copy).
//
// WARNING: Modifications to the returned slice will modify the tensor.
func (t *Dense[T]) Data() []T {
	return t.data
}

// Offset returns the flat index of the element at the given indices.
// Panics if indices are out of bounds.
func (t *Dense[T]) Offset(indices ...int) int {
	if len(indices) != len(t.shape) {
		panic(fmt.Sprintf("expected %d indices, got %d", len(t.shape), len(indices)))
	}
	offset := 0
	for i, idx := range indices {
		if idx < 0 || idx >= t.shape[i] {
			panic(fmt.Sprintf("index %d out of bounds for dimension %d (size %d)", idx, i, t.shape[i]))
		}
		offset += idx * t.stride[i]
	}
	return offset
}

// At returns the element at the given indices.
func (t *Dense[T]) At(indices ...int) T {
	return t.data[t.Offset(indices...)]
}

// Set sets the element at the given indices.
func (t *Dense[T]) Set(value T, indices ...int) {
	t.data[t.Offset(indices...)] = value
}

// Clone returns a deep copy.
func (t *Dense[T]) Clone() *Dense[T] {
	data := make([]T, len(t.data))
	copy(data, t.data)
	return &Dense[T]{
		data:   data,
		shape:  t.shape.Clone(),
		stride: append([]int(nil), t.stride...),
	}
}

// String returns a short description (shape and dtype, not the data).
func (t *Dense[T]) String() string {
	return fmt.Sprintf("Dense%v[%s]", t.shape, t.DType())
}
