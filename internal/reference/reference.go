// Package reference is an independent convolution used to validate the kernels
// in package conv.
//
// It lowers the convolution to a matrix product (im2col) and hands the GEMM to
// gonum, so it shares no loop structure with the kernels it checks.
package reference

import (
	"fmt"

	"gonum.org/v1/gonum/mat"

	"github.com/born-ml/convlab/internal/conv"
	"github.com/born-ml/convlab/internal/tensor"
)

// Conv2D computes a valid-padding convolution of NHWC images with an HWIO
// filter bank and adds bias per output channel.
//
// Algorithm:
//  1. Im2col: [N, H, W, Cin] -> cols [N*outH*outW, kH*kW*Cin]
//  2. View the HWIO weight as a [kH*kW*Cin, Cout] matrix (no copy needed)
//  3. GEMM: cols @ weight -> [N*outH*outW, Cout], which is already NHWC
//  4. Add bias to every row
func Conv2D(images, weight, bias *tensor.Dense[float64], s conv.Stride) (*tensor.Dense[float64], error) {
	g, err := conv.Plan(images.Shape(), weight.Shape(), bias.Shape(), s)
	if err != nil {
		return nil, fmt.Errorf("reference conv2d: %w", err)
	}

	rows := g.Batch * g.OutH * g.OutW
	patch := g.KH * g.KW * g.Cin

	cols := mat.NewDense(rows, patch, im2col(images.Data(), &g))
	w := mat.NewDense(patch, g.Cout, weight.Data())

	out := tensor.Zeros[float64](g.OutputShape())
	// out's buffer backs the product matrix directly.
	prod := mat.NewDense(rows, g.Cout, out.Data())
	prod.Mul(cols, w)

	b := bias.Data()
	for r := 0; r < rows; r++ {
		row := prod.RawRowView(r)
		for c := range row {
			row[c] += b[c]
		}
	}
	return out, nil
}

// im2col copies every (kH, kW, Cin) window into one row of a
// [N*outH*outW, kH*kW*Cin] row-major buffer.
//
// Windows are laid out in (dh, dw, ci) order to match the HWIO weight rows.
func im2col(img []float64, g *conv.Geometry) []float64 {
	rowLen := g.KW * g.Cin
	patch := g.KH * rowLen
	buf := make([]float64, g.Batch*g.OutH*g.OutW*patch)

	r := 0
	for n := 0; n < g.Batch; n++ {
		for i := 0; i < g.OutH; i++ {
			for j := 0; j < g.OutW; j++ {
				dst := buf[r*patch : (r+1)*patch]
				for dh := 0; dh < g.KH; dh++ {
					y := i*g.Stride.H + dh
					src := ((n*g.H+y)*g.W + j*g.Stride.W) * g.Cin
					copy(dst[dh*rowLen:(dh+1)*rowLen], img[src:src+rowLen])
				}
				r++
			}
		}
	}
	return buf
}
