package conv

import (
	"fmt"

	"github.com/born-ml/convlab/internal/tensor"
)

// Batched convolves the whole batch at once.
//
// The batch loop is hoisted out of the reduction: for each output position and
// output channel a single pass over the (kH, kW, Cin) window accumulates the
// results of every image in the batch. The bias is applied afterwards by
// broadcasting the (Cout) vector onto the (N, outH, outW, Cout) result.
//
// Panics if the shapes violate the preconditions checked by Plan.
func Batched[T tensor.Float](images, weight, bias *tensor.Dense[T], s Stride) *tensor.Dense[T] {
	g := mustPlan(images, weight, bias, s)
	pre := tensor.Zeros[T](g.OutputShape())

	img, filt, dst := images.Data(), weight.Data(), pre.Data()
	imageSize := g.H * g.W * g.Cin
	acc := make([]T, g.Batch)

	for i := 0; i < g.OutH; i++ {
		for j := 0; j < g.OutW; j++ {
			y0, x0 := i*s.H, j*s.W
			for c := 0; c < g.Cout; c++ {
				clear(acc)
				for dh := 0; dh < g.KH; dh++ {
					for dw := 0; dw < g.KW; dw++ {
						base := ((y0+dh)*g.W + x0 + dw) * g.Cin
						for ci := 0; ci < g.Cin; ci++ {
							w := filt[((dh*g.KW+dw)*g.Cin+ci)*g.Cout+c]
							batchAXPY(acc, img[base+ci:], imageSize, w)
						}
					}
				}
				for n, v := range acc {
					dst[((n*g.OutH+i)*g.OutW+j)*g.Cout+c] = v
				}
			}
		}
	}

	out, err := pre.Add(bias)
	if err != nil {
		// Plan already checked the bias length.
		panic(fmt.Errorf("conv2d: bias broadcast: %w", err))
	}
	return out
}

// batchAXPY adds w * x[n*stride] to acc[n] for every image n in the batch.
func batchAXPY[T tensor.Float](acc, x []T, stride int, w T) {
	for n := range acc {
		acc[n] += x[n*stride] * w
	}
}
