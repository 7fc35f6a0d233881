package tensor

import (
	"math/rand"
	"testing"
)

func BenchmarkShapeOperations(b *testing.B) {
	shape := Shape{2, 28, 28, 3}

	b.Run("NumElements", func(b *testing.B) {
		for i := 0; i < b.N; i++ {
			_ = shape.NumElements()
		}
	})

	b.Run("ComputeStrides", func(b *testing.B) {
		for i := 0; i < b.N; i++ {
			_ = shape.ComputeStrides()
		}
	})

	b.Run("BroadcastShapes", func(b *testing.B) {
		for i := 0; i < b.N; i++ {
			_, _, _ = BroadcastShapes(shape, Shape{3})
		}
	})
}

func BenchmarkDenseOps(b *testing.B) {
	rng := rand.New(rand.NewSource(1))
	x := Rand[float32](Shape{32, 25, 25, 16}, rng)
	bias := Rand[float32](Shape{16}, rng)

	b.Run("AddBias", func(b *testing.B) {
		for i := 0; i < b.N; i++ {
			_, _ = x.Add(bias)
		}
	})

	b.Run("TransposeNCHW", func(b *testing.B) {
		for i := 0; i < b.N; i++ {
			_, _ = x.Transpose(0, 3, 1, 2)
		}
	})
}
