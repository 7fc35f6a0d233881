package conv

import (
	"fmt"
	"math"
	"math/rand"

	"github.com/born-ml/convlab/internal/tensor"
)

// Params holds the learnable tensors of a convolution layer.
//
// Weight is (kH, kW, Cin, Cout) and Bias is (Cout), the same axis order as a
// channels-last framework layer, so weights exported from one can be used
// without reordering.
type Params[T tensor.Float] struct {
	Weight *tensor.Dense[T]
	Bias   *tensor.Dense[T]
}

// Validate checks that Weight and Bias agree with each other.
func (p Params[T]) Validate() error {
	if p.Weight == nil || p.Bias == nil {
		return fmt.Errorf("conv params: weight and bias are required")
	}
	w, b := p.Weight.Shape(), p.Bias.Shape()
	if len(w) != 4 {
		return fmt.Errorf("filter bank %v: %w", w, ErrRank)
	}
	if len(b) != 1 {
		return fmt.Errorf("bias %v: %w", b, ErrBiasRank)
	}
	if b[0] != w[3] {
		return fmt.Errorf("bias has %d entries, filter bank has %d output channels: %w", b[0], w[3], ErrBiasLength)
	}
	return nil
}

// KernelSize returns (kH, kW).
func (p Params[T]) KernelSize() [2]int {
	w := p.Weight.Shape()
	return [2]int{w[0], w[1]}
}

// InChannels returns Cin.
func (p Params[T]) InChannels() int {
	return p.Weight.Shape()[2]
}

// OutChannels returns Cout.
func (p Params[T]) OutChannels() int {
	return p.Weight.Shape()[3]
}

// Xavier (Glorot) initialization for a (kH, kW, Cin, Cout) filter bank.
//
// Weights are drawn from U(-sqrt(6/(fan_in+fan_out)), sqrt(6/(fan_in+fan_out))) with
//
//	fan_in  = Cin  * kH * kW
//	fan_out = Cout * kH * kW
//
// Bias starts at zero.
func Xavier[T tensor.Float](cin, cout, kh, kw int, rng *rand.Rand) Params[T] {
	if cin <= 0 || cout <= 0 {
		panic(fmt.Sprintf("conv2d: invalid channels in=%d, out=%d", cin, cout))
	}
	if kh <= 0 || kw <= 0 {
		panic(fmt.Sprintf("conv2d: invalid kernel size h=%d, w=%d", kh, kw))
	}

	bound := math.Sqrt(6.0 / float64(cin*kh*kw+cout*kh*kw))
	weight := tensor.Zeros[T](tensor.Shape{kh, kw, cin, cout})
	data := weight.Data()
	for i := range data {
		data[i] = T((rng.Float64()*2.0 - 1.0) * bound)
	}

	return Params[T]{
		Weight: weight,
		Bias:   tensor.Zeros[T](tensor.Shape{cout}),
	}
}
