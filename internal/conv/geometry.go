// Package conv implements a "valid"-padding 2D convolution over NHWC image
// batches and HWIO filter banks in several execution strategies.
//
// Every strategy computes the same function:
//
//	out[n, i, j, c] = bias[c] + Σ img[n, i*sH+dh, j*sW+dw, ci] * filt[dh, dw, ci, c]
//
// with dh in [0, kH), dw in [0, kW), ci in [0, Cin). Input pixels that do not
// fit a whole window at the bottom and right edges are dropped.
package conv

import (
	"fmt"

	"github.com/born-ml/convlab/internal/tensor"
)

// Stride is the (row, column) step of the sliding window.
type Stride struct {
	H, W int
}

// Unit is the stride (1, 1).
var Unit = Stride{H: 1, W: 1}

// String formats the stride as (h, w).
func (s Stride) String() string {
	return fmt.Sprintf("(%d, %d)", s.H, s.W)
}

// Geometry holds the resolved dimensions of one convolution call.
type Geometry struct {
	Batch, H, W, Cin int // image batch (N, H, W, Cin)
	KH, KW, Cout     int // filter bank (kH, kW, Cin, Cout)
	OutH, OutW       int
	Stride           Stride
}

// OutputShape returns (N, outH, outW, Cout).
func (g Geometry) OutputShape() tensor.Shape {
	return tensor.Shape{g.Batch, g.OutH, g.OutW, g.Cout}
}

// MACs returns the number of multiply-accumulates the convolution performs.
func (g Geometry) MACs() int {
	return g.Batch * g.OutH * g.OutW * g.Cout * g.KH * g.KW * g.Cin
}

// OutputSize applies the valid-padding shape law to one spatial axis pair:
//
//	outH = 1 + (h - kh) / s.H
//	outW = 1 + (w - kw) / s.W
//
// The result is only meaningful when kh <= h, kw <= w and the stride is positive.
func OutputSize(h, w, kh, kw int, s Stride) (outH, outW int) {
	return 1 + (h-kh)/s.H, 1 + (w-kw)/s.W
}

// Plan validates the shapes of a convolution call and resolves its geometry.
//
// images must be (N, H, W, Cin), weight (kH, kW, Cin, Cout) and bias (Cout).
func Plan(images, weight, bias tensor.Shape, s Stride) (Geometry, error) {
	if len(images) != 4 {
		return Geometry{}, fmt.Errorf("images %v: %w", images, ErrRank)
	}
	if len(weight) != 4 {
		return Geometry{}, fmt.Errorf("filter bank %v: %w", weight, ErrRank)
	}
	if len(bias) != 1 {
		return Geometry{}, fmt.Errorf("bias %v: %w", bias, ErrBiasRank)
	}
	if err := images.Validate(); err != nil {
		return Geometry{}, fmt.Errorf("images: %w", err)
	}
	if err := weight.Validate(); err != nil {
		return Geometry{}, fmt.Errorf("filter bank: %w", err)
	}
	if s.H < 1 || s.W < 1 {
		return Geometry{}, fmt.Errorf("stride %v: %w", s, ErrStride)
	}

	g := Geometry{
		Batch:  images[0],
		H:      images[1],
		W:      images[2],
		Cin:    images[3],
		KH:     weight[0],
		KW:     weight[1],
		Cout:   weight[3],
		Stride: s,
	}

	if weight[2] != g.Cin {
		return Geometry{}, fmt.Errorf("images have %d channels, filter bank expects %d: %w", g.Cin, weight[2], ErrChannelMismatch)
	}
	if bias[0] != g.Cout {
		return Geometry{}, fmt.Errorf("bias has %d entries, filter bank has %d output channels: %w", bias[0], g.Cout, ErrBiasLength)
	}
	if g.KH > g.H || g.KW > g.W {
		return Geometry{}, fmt.Errorf("filter %dx%d, image %dx%d: %w", g.KH, g.KW, g.H, g.W, ErrKernelTooLarge)
	}

	g.OutH, g.OutW = OutputSize(g.H, g.W, g.KH, g.KW, s)
	return g, nil
}

// mustPlan is Plan for the kernels: a precondition violation is a programming
// error and panics with the wrapped Plan error.
func mustPlan[T tensor.Float](images, weight, bias *tensor.Dense[T], s Stride) Geometry {
	g, err := Plan(images.Shape(), weight.Shape(), bias.Shape(), s)
	if err != nil {
		panic(fmt.Errorf("conv2d: %w", err))
	}
	return g
}
