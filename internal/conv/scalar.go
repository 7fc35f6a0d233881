package conv

import (
	"github.com/born-ml/convlab/internal/parallel"
	"github.com/born-ml/convlab/internal/tensor"
)

// Scalar is the fully explicit loop nest:
//
//	for i, j, c, n:           // output row, column, channel, batch item
//	    for dh, dw, ci:       // filter row, column, input channel
//	        sum += img * filt
//
// It uses no slice helpers or broadcasting, only index arithmetic and a
// scalar accumulator per output element.
//
// Panics if the shapes violate the preconditions checked by Plan.
func Scalar[T tensor.Float](images, weight, bias *tensor.Dense[T], s Stride) *tensor.Dense[T] {
	g := mustPlan(images, weight, bias, s)
	out := tensor.Zeros[T](g.OutputShape())

	img, filt, b, dst := images.Data(), weight.Data(), bias.Data(), out.Data()

	for i := 0; i < g.OutH; i++ {
		for j := 0; j < g.OutW; j++ {
			for c := 0; c < g.Cout; c++ {
				for n := 0; n < g.Batch; n++ {
					var sum T
					for dh := 0; dh < g.KH; dh++ {
						for dw := 0; dw < g.KW; dw++ {
							for ci := 0; ci < g.Cin; ci++ {
								sum += img[((n*g.H+i*s.H+dh)*g.W+j*s.W+dw)*g.Cin+ci] *
									filt[((dh*g.KW+dw)*g.Cin+ci)*g.Cout+c]
							}
						}
					}
					dst[((n*g.OutH+i)*g.OutW+j)*g.Cout+c] = sum + b[c]
				}
			}
		}
	}
	return out
}

// ScalarParallel runs the Scalar loop nest with (batch item, output row) pairs
// spread across worker goroutines.
//
// Each output element is computed by exactly one worker with the same
// summation order as Scalar, so both return identical results.
func ScalarParallel[T tensor.Float](images, weight, bias *tensor.Dense[T], s Stride, cfg parallel.Config) *tensor.Dense[T] {
	g := mustPlan(images, weight, bias, s)
	out := tensor.Zeros[T](g.OutputShape())

	img, filt, b, dst := images.Data(), weight.Data(), bias.Data(), out.Data()

	parallel.ForBatch(g.Batch, g.OutH, func(n, i int) {
		for j := 0; j < g.OutW; j++ {
			for c := 0; c < g.Cout; c++ {
				var sum T
				for dh := 0; dh < g.KH; dh++ {
					for dw := 0; dw < g.KW; dw++ {
						for ci := 0; ci < g.Cin; ci++ {
							sum += img[((n*g.H+i*s.H+dh)*g.W+j*s.W+dw)*g.Cin+ci] *
								filt[((dh*g.KW+dw)*g.Cin+ci)*g.Cout+c]
						}
					}
				}
				dst[((n*g.OutH+i)*g.OutW+j)*g.Cout+c] = sum + b[c]
			}
		}
	}, cfg)
	return out
}
