package conv

import (
	"fmt"
	"math/rand"
	"testing"

	"github.com/born-ml/convlab/internal/parallel"
	"github.com/born-ml/convlab/internal/tensor"
)

func BenchmarkConv2D(b *testing.B) {
	shapes := []struct {
		name      string
		img, filt tensor.Shape
		s         Stride
	}{
		{"mnist-rgb", tensor.Shape{2, 28, 28, 3}, tensor.Shape{4, 4, 3, 4}, Unit},
		{"batch32", tensor.Shape{32, 28, 28, 3}, tensor.Shape{3, 3, 3, 16}, Unit},
		{"strided", tensor.Shape{8, 64, 64, 8}, tensor.Shape{5, 5, 8, 16}, Stride{2, 2}},
	}

	for _, sh := range shapes {
		rng := rand.New(rand.NewSource(1))
		images := tensor.Rand[float32](sh.img, rng)
		p := Params[float32]{
			Weight: tensor.Randn[float32](sh.filt, rng),
			Bias:   tensor.Zeros[float32](tensor.Shape{sh.filt[3]}),
		}
		for _, v := range Variants() {
			b.Run(fmt.Sprintf("%s/%s", sh.name, v), func(b *testing.B) {
				for i := 0; i < b.N; i++ {
					_ = ApplyWith(v, images, p, sh.s, parallel.DefaultConfig())
				}
			})
		}
	}
}

func BenchmarkPlan(b *testing.B) {
	img, filt, bias := tensor.Shape{2, 28, 28, 3}, tensor.Shape{4, 4, 3, 4}, tensor.Shape{4}
	for i := 0; i < b.N; i++ {
		_, _ = Plan(img, filt, bias, Unit)
	}
}
