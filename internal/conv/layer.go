package conv

import (
	"fmt"
	"math/rand"

	"github.com/born-ml/convlab/internal/parallel"
	"github.com/born-ml/convlab/internal/tensor"
)

// Layer is a 2D convolutional layer with valid padding.
//
// Input shape:  [batch, height, width, in_channels]
// Weight shape: [kernel_h, kernel_w, in_channels, out_channels]
// Bias shape:   [out_channels]
// Output shape: [batch, out_h, out_w, out_channels]
//
// Where:
//
//	out_h = 1 + (height - kernel_h) / stride_h
//	out_w = 1 + (width - kernel_w) / stride_w
//
// Example:
//
//	rng := rand.New(rand.NewSource(1))
//	layer := conv.NewLayer[float64](3, 4, 4, 4, conv.Unit, rng)
//	images := tensor.Rand[float64](tensor.Shape{2, 28, 28, 3}, rng)
//	out := layer.Forward(images) // [2, 25, 25, 4]
type Layer[T tensor.Float] struct {
	params  Params[T]
	stride  Stride
	variant Variant
	workers parallel.Config
}

// NewLayer creates a layer with Xavier-initialized weights and zero bias.
// The layer runs the batched variant until WithVariant says otherwise.
func NewLayer[T tensor.Float](inChannels, outChannels, kernelH, kernelW int, s Stride, rng *rand.Rand) *Layer[T] {
	if s.H < 1 || s.W < 1 {
		panic(fmt.Sprintf("conv2d: invalid stride %v", s))
	}
	return &Layer[T]{
		params:  Xavier[T](inChannels, outChannels, kernelH, kernelW, rng),
		stride:  s,
		variant: VariantBatched,
		workers: parallel.DefaultConfig(),
	}
}

// NewLayerFromParams wraps existing parameters, e.g. weights loaded from a file.
func NewLayerFromParams[T tensor.Float](p Params[T], s Stride) (*Layer[T], error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}
	if s.H < 1 || s.W < 1 {
		return nil, fmt.Errorf("stride %v: %w", s, ErrStride)
	}
	return &Layer[T]{
		params:  p,
		stride:  s,
		variant: VariantBatched,
		workers: parallel.DefaultConfig(),
	}, nil
}

// WithVariant returns a copy of the layer that runs variant v.
func (l *Layer[T]) WithVariant(v Variant) *Layer[T] {
	cp := *l
	cp.variant = v
	return &cp
}

// WithWorkers returns a copy of the layer that uses cfg for the parallel variant.
func (l *Layer[T]) WithWorkers(cfg parallel.Config) *Layer[T] {
	cp := *l
	cp.workers = cfg
	return &cp
}

// Forward performs the forward pass.
//
// Input: [batch, height, width, in_channels]
// Output: [batch, out_h, out_w, out_channels].
func (l *Layer[T]) Forward(images *tensor.Dense[T]) *tensor.Dense[T] {
	return ApplyWith(l.variant, images, l.params, l.stride, l.workers)
}

// Params returns the layer's weight and bias.
func (l *Layer[T]) Params() Params[T] {
	return l.params
}

// Stride returns the stride.
func (l *Layer[T]) Stride() Stride {
	return l.stride
}

// Variant returns the execution strategy used by Forward.
func (l *Layer[T]) Variant() Variant {
	return l.variant
}

// OutputSize computes output spatial dimensions for a given input size.
//
// Returns: [out_height, out_width].
func (l *Layer[T]) OutputSize(inputH, inputW int) [2]int {
	k := l.params.KernelSize()
	h, w := OutputSize(inputH, inputW, k[0], k[1], l.stride)
	return [2]int{h, w}
}

// String returns a string representation of the layer.
func (l *Layer[T]) String() string {
	k := l.params.KernelSize()
	return fmt.Sprintf("Conv2D(in_channels=%d, out_channels=%d, kernel_size=(%d, %d), stride=%v, padding=valid, variant=%s)",
		l.params.InChannels(), l.params.OutChannels(), k[0], k[1], l.stride, l.variant)
}
