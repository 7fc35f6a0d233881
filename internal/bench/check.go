// Package bench checks the convolution variants against the reference
// implementation and measures how fast each one runs.
package bench

import (
	"fmt"
	"math"
	"math/rand"

	"gonum.org/v1/gonum/floats"

	"github.com/born-ml/convlab/internal/config"
	"github.com/born-ml/convlab/internal/conv"
	"github.com/born-ml/convlab/internal/parallel"
	"github.com/born-ml/convlab/internal/reference"
	"github.com/born-ml/convlab/internal/tensor"
)

// Inputs is one randomly generated convolution call.
type Inputs struct {
	Images *tensor.Dense[float64]
	Params conv.Params[float64]
	Stride conv.Stride
}

// NewInputs draws images from U[0, 1), weights from N(0, 1) and bias from
// U[0, 1) for case c. The same seed always yields the same inputs.
func NewInputs(c config.Case, seed int64) (Inputs, error) {
	if _, err := c.Geometry(); err != nil {
		return Inputs{}, err
	}
	//nolint:gosec // deterministic test data
	rng := rand.New(rand.NewSource(seed))
	return Inputs{
		Images: tensor.Rand[float64](c.ImageShape(), rng),
		Params: conv.Params[float64]{
			Weight: tensor.Randn[float64](c.WeightShape(), rng),
			Bias:   tensor.Rand[float64](c.BiasShape(), rng),
		},
		Stride: c.Stride(),
	}, nil
}

// Deviation is how far one variant's output is from the reference.
type Deviation struct {
	Variant conv.Variant `json:"variant"`
	MaxAbs  float64      `json:"max_abs_diff"`
	OK      bool         `json:"ok"`
}

// CheckResult is the outcome of checking every variant on one case.
type CheckResult struct {
	Case        string       `json:"case"`
	OutputShape tensor.Shape `json:"output_shape"`
	Tolerance   float64      `json:"tolerance"`
	Deviations  []Deviation  `json:"deviations"`
}

// OK reports whether every variant matched the reference within tolerance.
func (r CheckResult) OK() bool {
	for _, d := range r.Deviations {
		if !d.OK {
			return false
		}
	}
	return true
}

// Check runs each variant on random inputs for case c and compares the
// output with reference.Conv2D.
func Check(c config.Case, variants []conv.Variant, seed int64, atol float64, workers parallel.Config) (CheckResult, error) {
	in, err := NewInputs(c, seed)
	if err != nil {
		return CheckResult{}, err
	}

	want, err := reference.Conv2D(in.Images, in.Params.Weight, in.Params.Bias, in.Stride)
	if err != nil {
		return CheckResult{}, fmt.Errorf("case %q: %w", c.Name, err)
	}

	res := CheckResult{
		Case:        c.Name,
		OutputShape: want.Shape(),
		Tolerance:   atol,
	}
	for _, v := range variants {
		got := conv.ApplyWith(v, in.Images, in.Params, in.Stride, workers)
		if !got.Shape().Equal(want.Shape()) {
			return CheckResult{}, fmt.Errorf("case %q: %s produced shape %v, want %v", c.Name, v, got.Shape(), want.Shape())
		}
		// The L-infinity distance is the largest absolute element difference.
		maxAbs := floats.Distance(got.Data(), want.Data(), math.Inf(1))
		res.Deviations = append(res.Deviations, Deviation{
			Variant: v,
			MaxAbs:  maxAbs,
			OK:      maxAbs <= atol,
		})
	}
	return res, nil
}
