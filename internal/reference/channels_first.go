package reference

import (
	"fmt"

	"github.com/born-ml/convlab/internal/conv"
	"github.com/born-ml/convlab/internal/tensor"
)

// Conv2DNCHW is the channels-first form of Conv2D, laid out the way
// channels-first frameworks store their layers.
//
// Input shape:  [N, C_in, H, W]
// Kernel shape: [C_out, C_in, K_h, K_w]
// Output shape: [N, C_out, H_out, W_out]
//
// The product is computed with a plain triple loop instead of gonum so that
// the two oracles do not share a GEMM.
func Conv2DNCHW(input, kernel, bias *tensor.Dense[float64], s conv.Stride) (*tensor.Dense[float64], error) {
	inputShape := input.Shape()
	kernelShape := kernel.Shape()
	if len(inputShape) != 4 || len(kernelShape) != 4 {
		return nil, fmt.Errorf("reference conv2d: input %v, kernel %v: %w", inputShape, kernelShape, conv.ErrRank)
	}

	// Plan works in NHWC / HWIO terms.
	g, err := conv.Plan(
		tensor.Shape{inputShape[0], inputShape[2], inputShape[3], inputShape[1]},
		tensor.Shape{kernelShape[2], kernelShape[3], kernelShape[1], kernelShape[0]},
		bias.Shape(), s)
	if err != nil {
		return nil, fmt.Errorf("reference conv2d: %w", err)
	}

	inputData := input.Data()
	kernelData := kernel.Data()
	biasData := bias.Data()

	// colBuf: [N * H_out * W_out, C_in * K_h * K_w], one row per output position.
	colWidth := g.Cin * g.KH * g.KW
	colHeight := g.Batch * g.OutH * g.OutW
	colBuf := make([]float64, colHeight*colWidth)
	im2colNCHW(colBuf, inputData, &g)

	// kernelData is already [C_out, C_in * K_h * K_w] in row-major order.
	// result[c, j] = sum_k kernel[c, k] * colBuf[j, k]
	out := tensor.Zeros[float64](tensor.Shape{g.Batch, g.Cout, g.OutH, g.OutW})
	outputData := out.Data()
	spatial := g.OutH * g.OutW
	for c := 0; c < g.Cout; c++ {
		for j := 0; j < colHeight; j++ {
			sum := 0.0
			for k := 0; k < colWidth; k++ {
				sum += kernelData[c*colWidth+k] * colBuf[j*colWidth+k]
			}
			// Row j is output position (n, h, w); write straight into [N, C_out, H_out, W_out].
			n, hw := j/spatial, j%spatial
			outputData[(n*g.Cout+c)*spatial+hw] = sum + biasData[c]
		}
	}
	return out, nil
}

// im2colNCHW fills colBuf with the (C_in, K_h, K_w) patch under every output
// position of an NCHW batch.
func im2colNCHW(colBuf, inputData []float64, g *conv.Geometry) {
	colWidth := g.Cin * g.KH * g.KW
	colIdx := 0 // Current row in colBuf

	for n := 0; n < g.Batch; n++ {
		for outH := 0; outH < g.OutH; outH++ {
			for outW := 0; outW < g.OutW; outW++ {
				// Top-left corner in input space
				hStart := outH * g.Stride.H
				wStart := outW * g.Stride.W
				bufIdx := colIdx * colWidth

				for c := 0; c < g.Cin; c++ {
					for kh := 0; kh < g.KH; kh++ {
						for kw := 0; kw < g.KW; kw++ {
							h := hStart + kh
							w := wStart + kw
							colBuf[bufIdx] = inputData[((n*g.Cin+c)*g.H+h)*g.W+w]
							bufIdx++
						}
					}
				}
				colIdx++
			}
		}
	}
}
