package conv

import "github.com/born-ml/convlab/internal/tensor"

// PerImage convolves the batch one image at a time.
//
// For every image, output position and output channel the window under the
// filter is multiplied element-wise with that channel's filter slice and summed.
//
// Panics if the shapes violate the preconditions checked by Plan.
func PerImage[T tensor.Float](images, weight, bias *tensor.Dense[T], s Stride) *tensor.Dense[T] {
	g := mustPlan(images, weight, bias, s)
	out := tensor.Zeros[T](g.OutputShape())

	img, filt, b, dst := images.Data(), weight.Data(), bias.Data(), out.Data()
	imageSize := g.H * g.W * g.Cin
	outSize := g.OutH * g.OutW * g.Cout

	for n := 0; n < g.Batch; n++ {
		filterImage(dst[n*outSize:(n+1)*outSize], img[n*imageSize:(n+1)*imageSize], filt, b, &g)
	}
	return out
}

// filterImage writes the (outH, outW, Cout) feature map of a single
// (H, W, Cin) image into dst.
func filterImage[T tensor.Float](dst, img, filt, bias []T, g *Geometry) {
	for i := 0; i < g.OutH; i++ {
		for j := 0; j < g.OutW; j++ {
			for c := 0; c < g.Cout; c++ {
				dst[(i*g.OutW+j)*g.Cout+c] = windowDot(img, filt, i*g.Stride.H, j*g.Stride.W, c, g) + bias[c]
			}
		}
	}
}

// windowDot is the element-wise multiply-and-sum of the (kH, kW, Cin) window
// whose top-left corner is (y0, x0) with filter slice c.
func windowDot[T tensor.Float](img, filt []T, y0, x0, c int, g *Geometry) T {
	var sum T
	rowLen := g.KW * g.Cin
	for dh := 0; dh < g.KH; dh++ {
		src := img[((y0+dh)*g.W+x0)*g.Cin:][:rowLen]
		w := filt[dh*rowLen*g.Cout:]
		for k, v := range src {
			sum += v * w[k*g.Cout+c]
		}
	}
	return sum
}
