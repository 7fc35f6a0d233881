// Copyright 2025 Born ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

package conv

import (
	"math/rand"

	"github.com/born-ml/convlab/internal/conv"
	"github.com/born-ml/convlab/internal/parallel"
	"github.com/born-ml/convlab/internal/tensor"
)

// Stride is the (row, column) step of the sliding window.
type Stride = conv.Stride

// Unit is the stride (1, 1).
var Unit = conv.Unit

// Geometry holds the resolved dimensions of a convolution call.
type Geometry = conv.Geometry

// Params holds a filter bank and its bias.
type Params[T tensor.Float] = conv.Params[T]

// Layer is a convolution layer with fixed parameters, stride and variant.
type Layer[T tensor.Float] = conv.Layer[T]

// Variant selects an execution strategy.
type Variant = conv.Variant

// WorkerConfig controls the goroutines used by ScalarParallel.
type WorkerConfig = parallel.Config

// Variants.
const (
	VariantPerImage = conv.VariantPerImage
	VariantBatched  = conv.VariantBatched
	VariantScalar   = conv.VariantScalar
	VariantParallel = conv.VariantParallel
)

// Precondition errors reported by Plan.
var (
	ErrRank            = conv.ErrRank
	ErrBiasRank        = conv.ErrBiasRank
	ErrChannelMismatch = conv.ErrChannelMismatch
	ErrBiasLength      = conv.ErrBiasLength
	ErrKernelTooLarge  = conv.ErrKernelTooLarge
	ErrStride          = conv.ErrStride
)

// Plan validates shapes and resolves the geometry of a convolution call.
func Plan(images, weight, bias tensor.Shape, s Stride) (Geometry, error) {
	return conv.Plan(images, weight, bias, s)
}

// OutputSize applies the valid-padding shape law.
func OutputSize(h, w, kh, kw int, s Stride) (outH, outW int) {
	return conv.OutputSize(h, w, kh, kw, s)
}

// PerImage convolves the batch one image at a time.
func PerImage[T tensor.Float](images, weight, bias *tensor.Dense[T], s Stride) *tensor.Dense[T] {
	return conv.PerImage(images, weight, bias, s)
}

// Batched convolves all images in one pass per output element.
func Batched[T tensor.Float](images, weight, bias *tensor.Dense[T], s Stride) *tensor.Dense[T] {
	return conv.Batched(images, weight, bias, s)
}

// Scalar is the fully explicit loop nest.
func Scalar[T tensor.Float](images, weight, bias *tensor.Dense[T], s Stride) *tensor.Dense[T] {
	return conv.Scalar(images, weight, bias, s)
}

// ScalarParallel is Scalar spread across worker goroutines.
func ScalarParallel[T tensor.Float](images, weight, bias *tensor.Dense[T], s Stride, cfg WorkerConfig) *tensor.Dense[T] {
	return conv.ScalarParallel(images, weight, bias, s, cfg)
}

// Apply runs variant v.
func Apply[T tensor.Float](v Variant, images *tensor.Dense[T], p Params[T], s Stride) *tensor.Dense[T] {
	return conv.Apply(v, images, p, s)
}

// ApplyWith runs variant v with an explicit worker configuration.
func ApplyWith[T tensor.Float](v Variant, images *tensor.Dense[T], p Params[T], s Stride, cfg WorkerConfig) *tensor.Dense[T] {
	return conv.ApplyWith(v, images, p, s, cfg)
}

// Variants returns every variant.
func Variants() []Variant {
	return conv.Variants()
}

// ParseVariant parses a variant name such as "batched".
func ParseVariant(name string) (Variant, error) {
	return conv.ParseVariant(name)
}

// Xavier returns Xavier-uniform weights and zero bias.
func Xavier[T tensor.Float](cin, cout, kh, kw int, rng *rand.Rand) Params[T] {
	return conv.Xavier[T](cin, cout, kh, kw, rng)
}

// NewLayer creates a layer with Xavier-initialized weights.
func NewLayer[T tensor.Float](inChannels, outChannels, kernelH, kernelW int, s Stride, rng *rand.Rand) *Layer[T] {
	return conv.NewLayer[T](inChannels, outChannels, kernelH, kernelW, s, rng)
}

// NewLayerFromParams wraps existing parameters.
func NewLayerFromParams[T tensor.Float](p Params[T], s Stride) (*Layer[T], error) {
	return conv.NewLayerFromParams(p, s)
}

// DefaultWorkers returns a worker configuration sized to the machine.
func DefaultWorkers() WorkerConfig {
	return parallel.DefaultConfig()
}
